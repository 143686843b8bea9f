package geo

import (
	"errors"
	"fmt"
	"math"
)

const earthRadiusKM = 6371.0

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// DistanceKM returns the haversine great-circle distance in kilometers.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// DistanceBetween computes the distance between two optional coordinate pairs.
// A missing coordinate on either side yields NaN.
func DistanceBetween(lat1, lon1, lat2, lon2 *float64) float64 {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return math.NaN()
	}
	return DistanceKM(*lat1, *lon1, *lat2, *lon2)
}

// FormatDistance renders a distance for display: rounded meters under one
// kilometer, one-decimal kilometers otherwise, an em-dash for NaN.
func FormatDistance(km float64) string {
	if math.IsNaN(km) {
		return "—"
	}
	if km < 1 {
		return fmt.Sprintf("%.0fm", km*1000)
	}
	return fmt.Sprintf("%.1fkm", km)
}

func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("coordinates are not finite: %w", ErrInvalidCoordinates)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrInvalidCoordinates)
	}
	return nil
}

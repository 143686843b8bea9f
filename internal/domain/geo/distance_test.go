package geo

import (
	"math"
	"testing"
)

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{name: "hague to amsterdam", lat1: 52.07, lon1: 4.30, lat2: 52.37, lon2: 4.89},
		{name: "equator crossing", lat1: -1.5, lon1: 30.0, lat2: 1.5, lon2: -30.0},
		{name: "antimeridian", lat1: 10.0, lon1: 179.9, lat2: 10.0, lon2: -179.9},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			ab := DistanceKM(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			ba := DistanceKM(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			if math.Abs(ab-ba) > 1e-9 {
				t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
			}
		})
	}
}

func TestDistanceToSelfIsZero(t *testing.T) {
	if d := DistanceKM(52.07, 4.30, 52.07, 4.30); d != 0 {
		t.Fatalf("self distance: got %f want 0", d)
	}
}

func TestDistanceBetweenMissingCoordinates(t *testing.T) {
	lat, lon := 52.07, 4.30
	if d := DistanceBetween(&lat, &lon, nil, &lon); !math.IsNaN(d) {
		t.Fatalf("expected NaN for missing coordinate, got %f", d)
	}
	if d := DistanceBetween(nil, nil, nil, nil); !math.IsNaN(d) {
		t.Fatalf("expected NaN for all-missing coordinates, got %f", d)
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name string
		km   float64
		want string
	}{
		{name: "meters", km: 0.1234, want: "123m"},
		{name: "kilometers", km: 4.2, want: "4.2km"},
		{name: "missing", km: math.NaN(), want: "—"},
		{name: "just under a km", km: 0.9996, want: "1000m"},
		{name: "exactly one km", km: 1.0, want: "1.0km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDistance(tt.km); got != tt.want {
				t.Fatalf("format %f: got %q want %q", tt.km, got, tt.want)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	if err := ValidateCoordinates(52.07, 4.30); err != nil {
		t.Fatalf("valid coordinates rejected: %v", err)
	}
	for _, bad := range [][2]float64{
		{91, 0},
		{-91, 0},
		{0, 181},
		{0, -181},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	} {
		if err := ValidateCoordinates(bad[0], bad[1]); err == nil {
			t.Fatalf("expected error for (%f, %f)", bad[0], bad[1])
		}
	}
}

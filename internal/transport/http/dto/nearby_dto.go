package dto

import "time"

type NearbyUserResponse struct {
	UserID            string    `json:"user_id"`
	DisplayName       string    `json:"display_name"`
	Bio               *string   `json:"bio"`
	City              *string   `json:"city"`
	AvailabilityState string    `json:"availability_status"`
	IsOnline          bool      `json:"is_online"`
	LastActiveAt      time.Time `json:"last_active_at"`
	Speaks            []string  `json:"speaks"`
	Learning          []string  `json:"learning"`

	// DistanceKM is null when neither party has known coordinates.
	DistanceKM        *float64 `json:"distance_km"`
	FormattedDistance string   `json:"formatted_distance"`
	AvatarURL         *string  `json:"avatar_url,omitempty"`
}

type NearbyResponse struct {
	Users []NearbyUserResponse `json:"users"`
}

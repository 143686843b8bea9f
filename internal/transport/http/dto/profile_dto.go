package dto

import "time"

type ProfileLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type ProfileLocationResponse struct {
	OK bool `json:"ok"`
}

type ProfileAvailabilityRequest struct {
	Status string `json:"status"`
}

type ProfileAvailabilityResponse struct {
	Status string `json:"status"`
}

type ProfileLanguagesRequest struct {
	Native   []string `json:"native"`
	Learning []string `json:"learning"`
}

type ProfileLanguagesResponse struct {
	OK bool `json:"ok"`
}

type UserResponse struct {
	UserID            string    `json:"user_id"`
	DisplayName       string    `json:"display_name"`
	Bio               *string   `json:"bio"`
	City              *string   `json:"city"`
	Lat               *float64  `json:"lat"`
	Lon               *float64  `json:"lon"`
	AvailabilityState string    `json:"availability_status"`
	IsOnline          bool      `json:"is_online"`
	LastActiveAt      time.Time `json:"last_active_at"`
	Speaks            []string  `json:"speaks"`
	Learning          []string  `json:"learning"`
}

type HeartbeatResponse struct {
	Online bool `json:"online"`
}

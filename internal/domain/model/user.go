package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
)

type User struct {
	ID           uuid.UUID          `json:"id"`
	DisplayName  string             `json:"display_name"`
	Bio          *string            `json:"bio"`
	AvatarKey    *string            `json:"avatar_key"`
	City         *string            `json:"city"`
	Lat          *float64           `json:"lat"`
	Lon          *float64           `json:"lon"`
	Availability enums.Availability `json:"availability_status"`
	IsOnline     bool               `json:"is_online"`
	LastActiveAt time.Time          `json:"last_active_at"`

	// Derived from user_languages rows, never stored on the user row.
	Speaks   []string `json:"speaks"`
	Learning []string `json:"learning"`
}

// NearbyUser is a User augmented with the distance from a search center.
// Built fresh per discovery query, never persisted. DistanceKM is NaN when
// either party has no known coordinates.
type NearbyUser struct {
	User
	DistanceKM        float64 `json:"distance_km"`
	FormattedDistance string  `json:"formatted_distance"`
	AvatarURL         *string `json:"avatar_url,omitempty"`
}

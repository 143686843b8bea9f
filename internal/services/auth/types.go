package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

type SessionRecord struct {
	SID       string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    uuid.UUID
	SID       string
	ExpiresAt time.Time
}

type AuthResult struct {
	UserID        uuid.UUID
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
}

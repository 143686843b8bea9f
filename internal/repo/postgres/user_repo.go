package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

type UserRecord struct {
	ID           uuid.UUID
	DisplayName  string
	Bio          *string
	AvatarKey    *string
	City         *string
	Lat          *float64
	Lon          *float64
	Availability string
	IsOnline     bool
	LastActiveAt time.Time
}

func (r *UserRepo) Get(ctx context.Context, userID uuid.UUID) (UserRecord, error) {
	if userID == uuid.Nil {
		return UserRecord{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return UserRecord{}, ErrUserNotFound
	}

	var rec UserRecord
	err := r.pool.QueryRow(ctx, `
SELECT
	id,
	COALESCE(display_name, ''),
	bio,
	avatar_key,
	city,
	lat,
	lon,
	COALESCE(availability_status, 'offline'),
	COALESCE(is_online, FALSE),
	COALESCE(last_active_at, NOW())
FROM users
WHERE id = $1
LIMIT 1
`, userID).Scan(
		&rec.ID,
		&rec.DisplayName,
		&rec.Bio,
		&rec.AvatarKey,
		&rec.City,
		&rec.Lat,
		&rec.Lon,
		&rec.Availability,
		&rec.IsOnline,
		&rec.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("get user: %w", err)
	}

	return rec, nil
}

func (r *UserRepo) SaveLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, at time.Time) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET lat = $2, lon = $3, last_geo_at = $4
WHERE id = $1
`, userID, lat, lon, at)
	if err != nil {
		return fmt.Errorf("save user location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) SetAvailability(ctx context.Context, userID uuid.UUID, status string) error {
	if userID == uuid.Nil || status == "" {
		return fmt.Errorf("invalid availability payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET availability_status = $2
WHERE id = $1
`, userID, status)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) TouchLastActive(ctx context.Context, userID uuid.UUID, at time.Time) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE users
SET last_active_at = $2
WHERE id = $1
`, userID, at); err != nil {
		return fmt.Errorf("touch last active: %w", err)
	}

	return nil
}

// GetTelegramChatID resolves the delivery binding for notifications. Zero
// means the user has not linked a chat.
func (r *UserRepo) GetTelegramChatID(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return 0, nil
	}

	var chatID int64
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(telegram_chat_id, 0)
FROM users
WHERE id = $1
LIMIT 1
`, userID).Scan(&chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get telegram chat id: %w", err)
	}

	return chatID, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NearbyRepo struct {
	pool *pgxpool.Pool
}

func NewNearbyRepo(pool *pgxpool.Pool) *NearbyRepo {
	return &NearbyRepo{pool: pool}
}

type NearbySearch struct {
	ViewerID      uuid.UUID
	Lat           float64
	Lon           float64
	RadiusKM      float64
	OnlyAvailable bool
	Limit         int
}

type NearbyRecord struct {
	UserID       uuid.UUID
	DisplayName  string
	Bio          *string
	AvatarKey    *string
	City         *string
	Lat          *float64
	Lon          *float64
	Availability string
	IsOnline     bool
	LastActiveAt time.Time
	DistanceKM   *float64
}

const nearbyColumns = `
	u.id,
	COALESCE(u.display_name, ''),
	u.bio,
	u.avatar_key,
	u.city,
	u.lat,
	u.lon,
	COALESCE(u.availability_status, 'offline'),
	COALESCE(u.is_online, FALSE),
	COALESCE(u.last_active_at, NOW())`

// Search runs the radius query with the distance computed in the database.
// Rows come back ordered by ascending distance, viewer excluded.
func (r *NearbyRepo) Search(ctx context.Context, q NearbySearch) ([]NearbyRecord, error) {
	if q.ViewerID == uuid.Nil {
		return nil, fmt.Errorf("invalid viewer id")
	}
	if q.RadiusKM <= 0 {
		return nil, fmt.Errorf("invalid search radius")
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT` + nearbyColumns + `,
	6371 * 2 * ASIN(SQRT(
		POWER(SIN(RADIANS(u.lat - $2) / 2), 2) +
		COS(RADIANS($2)) * COS(RADIANS(u.lat)) *
		POWER(SIN(RADIANS(u.lon - $3) / 2), 2)
	)) AS distance_km
FROM users u
WHERE
	u.id <> $1
	AND u.status = 'active'
	AND u.lat IS NOT NULL
	AND u.lon IS NOT NULL
	AND 6371 * 2 * ASIN(SQRT(
		POWER(SIN(RADIANS(u.lat - $2) / 2), 2) +
		COS(RADIANS($2)) * COS(RADIANS(u.lat)) *
		POWER(SIN(RADIANS(u.lon - $3) / 2), 2)
	)) <= $4
ORDER BY distance_km ASC, u.id ASC
LIMIT $5
`

	rows, err := r.pool.Query(ctx, query, q.ViewerID, q.Lat, q.Lon, q.RadiusKM, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("search nearby users: %w", err)
	}
	defer rows.Close()

	items := make([]NearbyRecord, 0, q.Limit)
	for rows.Next() {
		var rec NearbyRecord
		if err := rows.Scan(
			&rec.UserID,
			&rec.DisplayName,
			&rec.Bio,
			&rec.AvatarKey,
			&rec.City,
			&rec.Lat,
			&rec.Lon,
			&rec.Availability,
			&rec.IsOnline,
			&rec.LastActiveAt,
			&rec.DistanceKM,
		); err != nil {
			return nil, fmt.Errorf("scan nearby user: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate nearby users: %w", rows.Err())
	}

	return items, nil
}

// ListActive is the broad fallback query: every active user except the
// viewer, no distance computed. Availability is pushed down when requested.
func (r *NearbyRepo) ListActive(ctx context.Context, viewerID uuid.UUID, onlyAvailable bool, limit int) ([]NearbyRecord, error) {
	if viewerID == uuid.Nil {
		return nil, fmt.Errorf("invalid viewer id")
	}
	if limit <= 0 {
		limit = 500
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT` + nearbyColumns + `
FROM users u
WHERE
	u.id <> $1
	AND u.status = 'active'`
	args := []any{viewerID}
	if onlyAvailable {
		query += `
	AND u.availability_status = $2`
		args = append(args, "available")
	}
	query += fmt.Sprintf(`
ORDER BY u.last_active_at DESC, u.id ASC
LIMIT $%d
`, len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	items := make([]NearbyRecord, 0, limit)
	for rows.Next() {
		var rec NearbyRecord
		if err := rows.Scan(
			&rec.UserID,
			&rec.DisplayName,
			&rec.Bio,
			&rec.AvatarKey,
			&rec.City,
			&rec.Lat,
			&rec.Lon,
			&rec.Availability,
			&rec.IsOnline,
			&rec.LastActiveAt,
		); err != nil {
			return nil, fmt.Errorf("scan active user: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate active users: %w", rows.Err())
	}

	return items, nil
}

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

var ErrConnectionNotFound = errors.New("connection not found")

type ConnectionRepo struct {
	pool *pgxpool.Pool
}

func NewConnectionRepo(pool *pgxpool.Pool) *ConnectionRepo {
	return &ConnectionRepo{pool: pool}
}

type ConnectionRecord struct {
	ActorID   uuid.UUID
	TargetID  uuid.UUID
	Type      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetForUpdate locks the edge row for the rest of the transaction so the
// status check and the upsert cannot race a concurrent writer.
func (r *ConnectionRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID, connType string) (ConnectionRecord, error) {
	if actorID == uuid.Nil || targetID == uuid.Nil || connType == "" {
		return ConnectionRecord{}, fmt.Errorf("invalid connection lookup payload")
	}
	if tx == nil {
		return ConnectionRecord{}, fmt.Errorf("transaction is required")
	}

	var rec ConnectionRecord
	err := tx.QueryRow(ctx, `
SELECT actor_id, target_id, connection_type, status, created_at, updated_at
FROM user_connections
WHERE actor_id = $1 AND target_id = $2 AND connection_type = $3
FOR UPDATE
`, actorID, targetID, connType).Scan(
		&rec.ActorID,
		&rec.TargetID,
		&rec.Type,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConnectionRecord{}, ErrConnectionNotFound
		}
		return ConnectionRecord{}, fmt.Errorf("lookup connection: %w", err)
	}

	return rec, nil
}

func (r *ConnectionRepo) Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID, connType, status string) error {
	if actorID == uuid.Nil || targetID == uuid.Nil || connType == "" || status == "" {
		return fmt.Errorf("invalid connection payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO user_connections (
	actor_id,
	target_id,
	connection_type,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, NOW(), NOW())
ON CONFLICT (actor_id, target_id, connection_type) DO UPDATE SET
	status = EXCLUDED.status,
	updated_at = NOW()
`, actorID, targetID, connType, status); err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}

	return nil
}

func (r *ConnectionRepo) Delete(ctx context.Context, actorID, targetID uuid.UUID, connType string) (bool, error) {
	if actorID == uuid.Nil || targetID == uuid.Nil || connType == "" {
		return false, fmt.Errorf("invalid connection delete payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM user_connections
WHERE actor_id = $1 AND target_id = $2 AND connection_type = $3
`, actorID, targetID, connType)
	if err != nil {
		return false, fmt.Errorf("delete connection: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *ConnectionRepo) ListTargetIDs(ctx context.Context, actorID uuid.UUID, connType, status string) ([]uuid.UUID, error) {
	if actorID == uuid.Nil || connType == "" || status == "" {
		return nil, fmt.Errorf("invalid connection list payload")
	}
	if r.pool == nil {
		return []uuid.UUID{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT target_id
FROM user_connections
WHERE actor_id = $1 AND connection_type = $2 AND status = $3
ORDER BY updated_at DESC
`, actorID, connType, status)
	if err != nil {
		return nil, fmt.Errorf("list connection targets: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan connection target: %w", err)
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate connection targets: %w", rows.Err())
	}

	return ids, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

type NotificationRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Category  string
	Title     string
	Body      string
	Metadata  map[string]string
	Status    string
	CreatedAt time.Time
	SentAt    *time.Time
}

func (r *NotificationRepo) Insert(ctx context.Context, rec NotificationRecord) error {
	if rec.ID == uuid.Nil || rec.UserID == uuid.Nil || rec.Category == "" {
		return fmt.Errorf("invalid notification payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	metadata := rec.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode notification metadata: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO notifications (
	id,
	user_id,
	category,
	title,
	body,
	metadata,
	status,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, rec.ID, rec.UserID, rec.Category, rec.Title, rec.Body, raw, rec.Status, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

func (r *NotificationRepo) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("invalid notification id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE notifications
SET status = 'sent', sent_at = $2
WHERE id = $1
`, id, at); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}

	return nil
}

func (r *NotificationRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("invalid notification id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE notifications
SET status = 'failed'
WHERE id = $1
`, id); err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}

	return nil
}

func (r *NotificationRepo) ListUndelivered(ctx context.Context, limit int) ([]NotificationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []NotificationRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, category, title, body, metadata, status, created_at, sent_at
FROM notifications
WHERE status IN ('pending', 'failed')
ORDER BY created_at ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list undelivered notifications: %w", err)
	}
	defer rows.Close()

	items := make([]NotificationRecord, 0, limit)
	for rows.Next() {
		var (
			rec NotificationRecord
			raw []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Category,
			&rec.Title,
			&rec.Body,
			&raw,
			&rec.Status,
			&rec.CreatedAt,
			&rec.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode notification metadata: %w", err)
			}
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate notifications: %w", rows.Err())
	}

	return items, nil
}

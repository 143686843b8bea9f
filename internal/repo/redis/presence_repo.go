package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const presencePrefix = "presence:"

type PresenceRepo struct {
	client *goredis.Client
}

func NewPresenceRepo(client *goredis.Client) *PresenceRepo {
	return &PresenceRepo{client: client}
}

func (r *PresenceRepo) SetOnline(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID == uuid.Nil || ttl <= 0 {
		return fmt.Errorf("invalid presence payload")
	}

	if err := r.client.Set(ctx, presenceKey(userID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("set presence key: %w", err)
	}

	return nil
}

func (r *PresenceRepo) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if userID == uuid.Nil {
		return false, fmt.Errorf("invalid user id")
	}

	n, err := r.client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check presence key: %w", err)
	}

	return n > 0, nil
}

// OnlineSet resolves live flags for a batch of users in one round trip.
func (r *PresenceRepo) OnlineSet(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	pipe := r.client.Pipeline()
	cmds := make([]*goredis.IntCmd, 0, len(userIDs))
	for _, id := range userIDs {
		cmds = append(cmds, pipe.Exists(ctx, presenceKey(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("resolve presence batch: %w", err)
	}

	for i, id := range userIDs {
		result[id] = cmds[i].Val() > 0
	}

	return result, nil
}

func presenceKey(userID uuid.UUID) string {
	return presencePrefix + userID.String()
}

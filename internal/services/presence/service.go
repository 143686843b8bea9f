package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrValidation = errors.New("validation error")

const defaultOnlineTTL = 2 * time.Minute

type OnlineStore interface {
	SetOnline(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
	OnlineSet(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type LastActiveStore interface {
	TouchLastActive(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// Service keeps the live online flag in Redis behind a TTL and writes the
// last-active timestamp through to the user row. The Redis key expiring is
// what flips a silent client back to offline.
type Service struct {
	online     OnlineStore
	lastActive LastActiveStore
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(online OnlineStore, lastActive LastActiveStore, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultOnlineTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		online:     online,
		lastActive: lastActive,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *Service) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrValidation
	}

	if err := s.online.SetOnline(ctx, userID, s.ttl); err != nil {
		return fmt.Errorf("set online flag: %w", err)
	}

	// Last-active persistence is best-effort: the online flag is already
	// visible, a failed row update only staled the timestamp.
	if s.lastActive != nil {
		if err := s.lastActive.TouchLastActive(ctx, userID, s.now().UTC()); err != nil {
			s.logger.Warn("touch last active failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *Service) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, ErrValidation
	}
	return s.online.IsOnline(ctx, userID)
}

// OnlineSet resolves live flags for a batch of users. On store failure it
// returns an empty overlay so callers degrade to the persisted flags.
func (s *Service) OnlineSet(ctx context.Context, userIDs []uuid.UUID) map[uuid.UUID]bool {
	if len(userIDs) == 0 {
		return map[uuid.UUID]bool{}
	}

	flags, err := s.online.OnlineSet(ctx, userIDs)
	if err != nil {
		s.logger.Warn("resolve online flags failed", zap.Error(err))
		return map[uuid.UUID]bool{}
	}

	return flags
}

package connections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrDependenciesNil = errors.New("connections dependencies are not configured")
)

const defaultEventTitle = "Language Exchange meetup"

type ConnectionStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID, connType string) (pgrepo.ConnectionRecord, error)
	Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID, connType, status string) error
	Delete(ctx context.Context, actorID, targetID uuid.UUID, connType string) (bool, error)
	ListTargetIDs(ctx context.Context, actorID uuid.UUID, connType, status string) ([]uuid.UUID, error)
}

type Notifier interface {
	Create(ctx context.Context, userID uuid.UUID, category enums.NotificationCategory, title, body string, metadata map[string]string) (uuid.UUID, error)
}

type Config struct {
	DefaultEventTitle string
}

type FavoriteResult struct {
	AlreadyFavorited bool
}

type RequestResult struct {
	AlreadyPending bool
}

// Service maintains the directed social edges between users. Each edge is
// unique per (actor, target, type); the status check and the upsert run in
// one transaction with the row locked, so concurrent duplicate calls
// collapse onto a single write. Notifications are dispatched after the
// commit and never affect the outcome of the edge mutation.
type Service struct {
	pool     *pgxpool.Pool
	store    ConnectionStore
	notifier Notifier
	cfg      Config
	runTx    func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	logger   *zap.Logger
}

func NewService(pool *pgxpool.Pool, store ConnectionStore, notifier Notifier, cfg Config, logger *zap.Logger) *Service {
	if strings.TrimSpace(cfg.DefaultEventTitle) == "" {
		cfg.DefaultEventTitle = defaultEventTitle
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		pool:     pool,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
	s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, s.pool, fn)
	}
	return s
}

// ListFavoriteUserIDs returns the ids the actor holds an active favorite
// edge to. A missing actor identity yields an empty list, not an error.
func (s *Service) ListFavoriteUserIDs(ctx context.Context, actorID uuid.UUID) ([]uuid.UUID, error) {
	if actorID == uuid.Nil {
		return []uuid.UUID{}, nil
	}
	if s.store == nil {
		return nil, ErrDependenciesNil
	}

	ids, err := s.store.ListTargetIDs(ctx, actorID,
		string(enums.ConnectionTypeFavorite),
		string(enums.ConnectionStatusActive),
	)
	if err != nil {
		return nil, fmt.Errorf("list favorite targets: %w", err)
	}

	return ids, nil
}

// SetFavorite is idempotent: favoriting an already-favorited user
// short-circuits without a write or a notification. Unfavoriting deletes
// the edge outright and succeeds whether or not it existed.
func (s *Service) SetFavorite(ctx context.Context, actorID, targetID uuid.UUID, desired bool, actorName string) (FavoriteResult, error) {
	if actorID == uuid.Nil {
		return FavoriteResult{}, unauthenticated("manage favorites")
	}
	if targetID == uuid.Nil || targetID == actorID {
		return FavoriteResult{}, ErrValidation
	}
	if s.store == nil {
		return FavoriteResult{}, ErrDependenciesNil
	}

	if !desired {
		if _, err := s.store.Delete(ctx, actorID, targetID, string(enums.ConnectionTypeFavorite)); err != nil {
			return FavoriteResult{}, fmt.Errorf("delete favorite edge: %w", err)
		}
		return FavoriteResult{AlreadyFavorited: false}, nil
	}

	var already bool
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		existing, err := s.store.GetForUpdate(txCtx, tx, actorID, targetID, string(enums.ConnectionTypeFavorite))
		if err != nil && !errors.Is(err, pgrepo.ErrConnectionNotFound) {
			return err
		}
		if err == nil && existing.Status == string(enums.ConnectionStatusActive) {
			already = true
			return nil
		}

		return s.store.Upsert(txCtx, tx, actorID, targetID,
			string(enums.ConnectionTypeFavorite),
			string(enums.ConnectionStatusActive),
		)
	})
	if err != nil {
		return FavoriteResult{}, fmt.Errorf("set favorite: %w", err)
	}

	if !already {
		s.notify(ctx, targetID, enums.NotificationSocialFavorited,
			"New favorite",
			fmt.Sprintf("%s added you to their favorites", displayName(actorName)),
			actorID,
		)
	}

	return FavoriteResult{AlreadyFavorited: already}, nil
}

// SendFriendRequest is idempotent on a pending edge: a duplicate request
// short-circuits without a write or a notification.
func (s *Service) SendFriendRequest(ctx context.Context, actorID, targetID uuid.UUID, actorName string) (RequestResult, error) {
	if actorID == uuid.Nil {
		return RequestResult{}, unauthenticated("send friend requests")
	}
	if targetID == uuid.Nil || targetID == actorID {
		return RequestResult{}, ErrValidation
	}
	if s.store == nil {
		return RequestResult{}, ErrDependenciesNil
	}

	var alreadyPending bool
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		existing, err := s.store.GetForUpdate(txCtx, tx, actorID, targetID, string(enums.ConnectionTypeFriendRequest))
		if err != nil && !errors.Is(err, pgrepo.ErrConnectionNotFound) {
			return err
		}
		if err == nil && existing.Status == string(enums.ConnectionStatusPending) {
			alreadyPending = true
			return nil
		}

		return s.store.Upsert(txCtx, tx, actorID, targetID,
			string(enums.ConnectionTypeFriendRequest),
			string(enums.ConnectionStatusPending),
		)
	})
	if err != nil {
		return RequestResult{}, fmt.Errorf("send friend request: %w", err)
	}

	if !alreadyPending {
		s.notify(ctx, targetID, enums.NotificationSocialFriendRequest,
			"New friend request",
			fmt.Sprintf("%s sent you a friend request", displayName(actorName)),
			actorID,
		)
	}

	return RequestResult{AlreadyPending: alreadyPending}, nil
}

// SendEventInvite notifies the target and unconditionally resets the
// friend_request edge to pending, even if the relationship was already
// active or resolved. That reset is the upstream behavior and is kept as-is.
func (s *Service) SendEventInvite(ctx context.Context, actorID, targetID uuid.UUID, actorName, eventTitle string) error {
	if actorID == uuid.Nil {
		return unauthenticated("send event invites")
	}
	if targetID == uuid.Nil || targetID == actorID {
		return ErrValidation
	}
	if s.store == nil {
		return ErrDependenciesNil
	}

	if strings.TrimSpace(eventTitle) == "" {
		eventTitle = s.cfg.DefaultEventTitle
	}

	s.notify(ctx, targetID, enums.NotificationSocialEventInvite,
		"Event invite",
		fmt.Sprintf("%s invited you to %s", displayName(actorName), eventTitle),
		actorID,
	)

	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		return s.store.Upsert(txCtx, tx, actorID, targetID,
			string(enums.ConnectionTypeFriendRequest),
			string(enums.ConnectionStatusPending),
		)
	})
	if err != nil {
		return fmt.Errorf("send event invite: %w", err)
	}

	return nil
}

// notify is best-effort: a failed dispatch is logged and never surfaces to
// the caller, the edge write remains the authoritative outcome.
func (s *Service) notify(ctx context.Context, targetID uuid.UUID, category enums.NotificationCategory, title, body string, actorID uuid.UUID) {
	if s.notifier == nil {
		return
	}

	if _, err := s.notifier.Create(ctx, targetID, category, title, body, map[string]string{
		"actor_id": actorID.String(),
	}); err != nil {
		s.logger.Warn("connection notification failed",
			zap.String("target_id", targetID.String()),
			zap.String("category", string(category)),
			zap.Error(err),
		)
	}
}

func unauthenticated(action string) error {
	return fmt.Errorf("%w: you need to be signed in to %s", ErrUnauthenticated, action)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Someone"
	}
	return name
}

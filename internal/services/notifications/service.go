package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

const defaultQueueSize = 256

type Store interface {
	Insert(ctx context.Context, rec pgrepo.NotificationRecord) error
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type Deliverer interface {
	Deliver(ctx context.Context, rec pgrepo.NotificationRecord) error
}

// Service persists notifications as outbox rows and hands them to an async
// best-effort delivery queue. A delivery failure marks the row failed and is
// logged; it never propagates to the caller that triggered the notification.
type Service struct {
	store     Store
	deliverer Deliverer
	queue     chan pgrepo.NotificationRecord
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(store Store, deliverer Deliverer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:     store,
		deliverer: deliverer,
		queue:     make(chan pgrepo.NotificationRecord, defaultQueueSize),
		now:       time.Now,
		logger:    logger,
	}
}

// Create writes the outbox row and enqueues delivery. The returned error
// covers only the row insert; delivery is fire-and-forget. A full queue is
// not an error: the redelivery job picks the pending row up later.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, category enums.NotificationCategory, title, body string, metadata map[string]string) (uuid.UUID, error) {
	if userID == uuid.Nil || category == "" || title == "" {
		return uuid.Nil, ErrValidation
	}
	if s.store == nil {
		return uuid.Nil, fmt.Errorf("notification store is nil")
	}

	rec := pgrepo.NotificationRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  string(category),
		Title:     title,
		Body:      body,
		Metadata:  metadata,
		Status:    string(enums.DeliveryStatusPending),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("insert notification: %w", err)
	}

	select {
	case s.queue <- rec:
	default:
		s.logger.Warn("notification queue full, deferring to redelivery",
			zap.String("notification_id", rec.ID.String()),
		)
	}

	return rec.ID, nil
}

// Run drains the delivery queue until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-s.queue:
			s.DeliverOne(ctx, rec)
		}
	}
}

func (s *Service) DeliverOne(ctx context.Context, rec pgrepo.NotificationRecord) {
	if s.deliverer == nil {
		return
	}

	if err := s.deliverer.Deliver(ctx, rec); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("notification_id", rec.ID.String()),
			zap.String("category", rec.Category),
			zap.Error(err),
		)
		if markErr := s.store.MarkFailed(ctx, rec.ID); markErr != nil {
			s.logger.Warn("mark notification failed", zap.Error(markErr))
		}
		return
	}

	if err := s.store.MarkSent(ctx, rec.ID, s.now().UTC()); err != nil {
		s.logger.Warn("mark notification sent", zap.Error(err))
	}
}

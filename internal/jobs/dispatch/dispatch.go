package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
)

type undeliveredSource interface {
	ListUndelivered(ctx context.Context, limit int) ([]pgrepo.NotificationRecord, error)
}

type deliveryRunner interface {
	DeliverOne(ctx context.Context, rec pgrepo.NotificationRecord)
}

// Job redelivers notification outbox rows that were never handed to the
// async queue or whose first delivery attempt failed. Each pass drains one
// batch; rows that fail again stay in the outbox for the next pass.
type Job struct {
	source    undeliveredSource
	delivery  deliveryRunner
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

func New(source undeliveredSource, delivery deliveryRunner, batchSize int, logger *zap.Logger) *Job {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		source:    source,
		delivery:  delivery,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.source == nil || j.delivery == nil {
		return nil
	}

	records, err := j.source.ListUndelivered(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("list undelivered notifications: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.delivery.DeliverOne(ctx, rec)
	}

	j.logger.Info("notification redelivery pass completed", zap.Int("attempted", len(records)))
	return nil
}

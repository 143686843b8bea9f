package notifierapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/girmay-ak/lang-app-sub002/internal/config"
	tginfra "github.com/girmay-ak/lang-app-sub002/internal/infra/telegram"
	"github.com/girmay-ak/lang-app-sub002/internal/jobs/dispatch"
	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
	notifsvc "github.com/girmay-ak/lang-app-sub002/internal/services/notifications"
)

// App is the standalone notification delivery worker. It periodically drains
// the outbox of pending and failed rows and pushes them to Telegram.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	postgres    *pgxpool.Pool
	dispatchJob *dispatch.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for notifier app: %w", err)
	}

	sender, err := tginfra.NewSender(cfg.Telegram.BotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init telegram for notifier app: %w", err)
	}

	userRepo := pgrepo.NewUserRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	deliverer := notifsvc.NewTelegramDeliverer(userRepo, sender)
	notificationService := notifsvc.NewService(notificationRepo, deliverer, logger)
	dispatchJob := dispatch.New(notificationRepo, notificationService, cfg.Notifications.RedeliverBatch, logger)

	return &App{
		cfg:         cfg,
		logger:      logger,
		postgres:    pool,
		dispatchJob: dispatchJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("notifier app started")

	interval := a.cfg.Notifications.RedeliverInterval
	if interval <= 0 {
		interval = time.Minute
	}

	if err := a.dispatchJob.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("notification redelivery pass failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("notifier app stopped")
			return nil
		case <-ticker.C:
			if err := a.dispatchJob.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn("notification redelivery pass failed", zap.Error(err))
			}
		}
	}
}

func (a *App) Shutdown() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}

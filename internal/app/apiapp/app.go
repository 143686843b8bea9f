package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/girmay-ak/lang-app-sub002/internal/config"
	s3infra "github.com/girmay-ak/lang-app-sub002/internal/infra/s3"
	tginfra "github.com/girmay-ak/lang-app-sub002/internal/infra/telegram"
	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
	redrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/redis"
	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
	connsvc "github.com/girmay-ak/lang-app-sub002/internal/services/connections"
	discoverysvc "github.com/girmay-ak/lang-app-sub002/internal/services/discovery"
	mediasvc "github.com/girmay-ak/lang-app-sub002/internal/services/media"
	notifsvc "github.com/girmay-ak/lang-app-sub002/internal/services/notifications"
	presencesvc "github.com/girmay-ak/lang-app-sub002/internal/services/presence"
	profilesvc "github.com/girmay-ak/lang-app-sub002/internal/services/profiles"
)

type App struct {
	cfg         config.Config
	logger      *zap.Logger
	server      *http.Server
	postgres    *pgxpool.Pool
	redis       *goredis.Client
	s3          *minio.Client
	httpRouter  http.Handler
	notifCancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	presenceRepo := redrepo.NewPresenceRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	languageRepo := pgrepo.NewLanguageRepo(pool)
	nearbyRepo := pgrepo.NewNearbyRepo(pool)
	connectionRepo := pgrepo.NewConnectionRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	var deliverer notifsvc.Deliverer
	if cfg.Telegram.BotToken != "" {
		sender, err := tginfra.NewSender(cfg.Telegram.BotToken)
		if err != nil {
			log.Warn("telegram init failed, notifications stay queued", zap.Error(err))
		} else {
			deliverer = notifsvc.NewTelegramDeliverer(userRepo, sender)
		}
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, cfg.Auth.RefreshTTL)
	presenceService := presencesvc.NewService(presenceRepo, userRepo, cfg.Presence.OnlineTTL, log)
	profileService := profilesvc.NewService(pool, userRepo, languageRepo)
	notificationService := notifsvc.NewService(notificationRepo, deliverer, log)
	discoveryService := discoverysvc.NewService(nearbyRepo, languageRepo, discoverysvc.Config{
		DefaultRadiusKM: cfg.Discovery.RadiusDefaultKM,
		MaxRadiusKM:     cfg.Discovery.RadiusMaxKM,
		CandidateLimit:  cfg.Discovery.CandidateLimit,
	}, log)
	discoveryService.AttachPresence(presenceService)
	discoveryService.AttachAvatarSigner(mediasvc.NewAvatarStorage(s3Client, cfg.S3.Bucket))
	connectionsService := connsvc.NewService(pool, connectionRepo, notificationService, connsvc.Config{
		DefaultEventTitle: cfg.Notifications.DefaultEventTitle,
	}, log)

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		DiscoveryService:   discoveryService,
		ConnectionsService: connectionsService,
		ProfileService:     profileService,
		PresenceService:    presenceService,
		Logger:             log,
		Config:             cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	notifCtx, notifCancel := context.WithCancel(context.Background())
	go notificationService.Run(notifCtx)

	return &App{
		cfg:         cfg,
		logger:      log,
		server:      server,
		postgres:    pool,
		redis:       redisClient,
		s3:          s3Client,
		httpRouter:  r,
		notifCancel: notifCancel,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.notifCancel != nil {
		a.notifCancel()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

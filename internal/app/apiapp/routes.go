package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/girmay-ak/lang-app-sub002/internal/config"
	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
	connsvc "github.com/girmay-ak/lang-app-sub002/internal/services/connections"
	discoverysvc "github.com/girmay-ak/lang-app-sub002/internal/services/discovery"
	presencesvc "github.com/girmay-ak/lang-app-sub002/internal/services/presence"
	profilesvc "github.com/girmay-ak/lang-app-sub002/internal/services/profiles"
	"github.com/girmay-ak/lang-app-sub002/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService        *authsvc.Service
	DiscoveryService   *discoverysvc.Service
	ConnectionsService *connsvc.Service
	ProfileService     *profilesvc.Service
	PresenceService    *presencesvc.Service
	Logger             *zap.Logger
	Config             config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	nearbyHandler := handlers.NewNearbyHandler(deps.DiscoveryService)
	connectionsHandler := handlers.NewConnectionsHandler(deps.ConnectionsService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	presenceHandler := handlers.NewPresenceHandler(deps.PresenceService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
	})

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Get("/nearby", nearbyHandler.Get)

		r.Route("/connections", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/favorites", connectionsHandler.ListFavorites)
			r.Post("/favorite", connectionsHandler.SetFavorite)
			r.Post("/friend-request", connectionsHandler.SendFriendRequest)
			r.Post("/event-invite", connectionsHandler.SendEventInvite)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/location", profileHandler.SaveLocation)
			r.Post("/availability", profileHandler.SetAvailability)
			r.Post("/languages", profileHandler.SetLanguages)
		})

		r.With(authMW).Get("/users/{userID}", profileHandler.Get)
		r.With(authMW).Post("/presence/heartbeat", presenceHandler.Heartbeat)
	})
}

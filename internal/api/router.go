package api

import (
	"net/http"
	"time"

	"otaku_hub/internal/api/handler"
	"otaku_hub/internal/api/middleware"
	"otaku_hub/internal/app/service"
	"otaku_hub/internal/platform/logging"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds the HTTP settings the router needs from config.
type RouterConfig struct {
	BasePath       string
	AllowedOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	authService *service.AuthService,
	profileService *service.ProfileService,
	tokens middleware.TokenVerifier,
	log logging.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/"
	}

	r.Route(basePath, func(api chi.Router) {
		api.Get("/health", handler.Health)

		authHandler := handler.NewAuthHandler(authService, log)
		api.Route("/auth", authHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(profileService, tokens, log)
		api.Route("/profile", profileHandler.RegisterRoutes)
	})

	return r
}

// corsOptions treats a lone "*" as any origin.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowedOrigins = []string{"*"}
		return opts
	}
	opts.AllowedOrigins = origins
	opts.AllowCredentials = true
	return opts
}

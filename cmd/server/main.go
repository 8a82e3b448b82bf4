package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otaku_hub/internal/api"
	"otaku_hub/internal/app/service"
	"otaku_hub/internal/common/security"
	"otaku_hub/internal/domain/repository"
	"otaku_hub/internal/platform/cache"
	"otaku_hub/internal/platform/config"
	"otaku_hub/internal/platform/database"
	"otaku_hub/internal/platform/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()
	logger.Info(ctx, "configuration loaded")

	// 2. Initialize Database
	db, err := database.Connect(ctx, cfg.DB.URL, cfg.DB.ConnectTimeout.Duration())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	logger.Info(ctx, "database connected")

	// 3. Initialize Redis (optional profile cache)
	var profileCache service.ProfileCache
	if cfg.Redis.Enabled() {
		rdb, err := cache.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		profileCache = cache.NewProfileCache(rdb, cfg.Redis.TTL.Duration())
		logger.Info(ctx, "redis connected, profile cache enabled")
	}

	// 4. Initialize JWT
	tokens := security.NewTokenManager([]byte(cfg.JWT.Secret), cfg.JWT.ExpiresIn.Duration())

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	profileRepo := repository.NewPgProfileRepository(db)

	// 6. Initialize Services
	authService := service.NewAuthService(db, userRepo, profileRepo, tokens, logger)
	profileService := service.NewProfileService(profileRepo, profileCache, logger)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(
		api.RouterConfig{BasePath: cfg.HTTP.BasePath, AllowedOrigins: cfg.HTTP.CORSOrigins()},
		authService, profileService, tokens, logger,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "server starting", "port", cfg.HTTP.Port, "base_path", cfg.HTTP.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Could not listen on %s: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Info(ctx, "shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", "error", err)
		return
	}
	logger.Info(ctx, "server stopped gracefully")
}

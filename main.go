package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/dealdesk-io/dealdesk-engine/pkg/auth"
	"github.com/dealdesk-io/dealdesk-engine/pkg/cache"
	"github.com/dealdesk-io/dealdesk-engine/pkg/config"
	"github.com/dealdesk-io/dealdesk-engine/pkg/database"
	"github.com/dealdesk-io/dealdesk-engine/pkg/handlers"
	"github.com/dealdesk-io/dealdesk-engine/pkg/logging"
	"github.com/dealdesk-io/dealdesk-engine/pkg/middleware"
	"github.com/dealdesk-io/dealdesk-engine/pkg/repositories"
	"github.com/dealdesk-io/dealdesk-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("redis", cfg.Redis.Host),
	)

	ctx := context.Background()

	// Database pool
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Migrations run through database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.String("error", logging.SanitizeError(err)))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsDir, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}
	_ = sqlDB.Close()

	// Redis-backed list cache; nil client disables caching
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, list caching disabled")
	}
	listCache := cache.NewListCache(redisClient, logger)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	solutionRepo := repositories.NewSolutionRepository(db)
	opportunityRepo := repositories.NewOpportunityRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	templateRepo := repositories.NewTemplateRepository(db)

	// Services
	solutionService := services.NewSolutionService(solutionRepo, listCache, logger)
	opportunityService := services.NewOpportunityService(opportunityRepo, listCache, logger)
	discoveryService := services.NewDiscoveryService(sessionRepo, templateRepo, listCache, logger)

	// Auth
	cookieSettings := auth.DeriveCookieSettings(cfg.BaseURL, cfg.Auth.CookieDomain)
	tokenTTL := time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
	sessionStore := auth.NewSessionStore(cfg.Auth.SessionSecret, int(tokenTTL.Seconds()), cookieSettings)
	authService := auth.NewAuthService(userRepo, sessionStore, cfg.Auth.SessionSecret, tokenTTL, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, sessionStore, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSolutionsHandler(solutionService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewOpportunitiesHandler(opportunityService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDiscoverySessionsHandler(discoveryService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDiscoveryTemplatesHandler(discoveryService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDashboardHandler(opportunityService, logger).RegisterRoutes(mux, authMiddleware)

	// Static UI with SPA fallback, registered last so API patterns win
	handlers.NewStaticHandler(cfg.UIDir, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting dealdesk-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown incomplete", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

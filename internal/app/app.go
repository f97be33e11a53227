package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parktrack/internal/config"
	"parktrack/internal/credential"
	"parktrack/internal/db"
	httpserver "parktrack/internal/http"
	"parktrack/internal/http/handlers"
	"parktrack/internal/http/middleware"
	"parktrack/internal/password"
	"parktrack/internal/redisstore"
	"parktrack/internal/repository"
	"parktrack/internal/scan"
	"parktrack/internal/service"
	"parktrack/internal/ws"
)

// App wires gate-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// The cache is optional infrastructure: a missing Redis keeps the gate
	// working off Postgres alone.
	var redisClient *redis.Client
	var activeStore *redisstore.Store
	if client, redisErr := redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password); redisErr != nil {
		logger.Warn("redis unavailable, running without active session cache", zap.Error(redisErr))
	} else {
		redisClient = client
		activeStore = redisstore.NewStore(client, cfg.ActiveSessionTTL())
	}

	sessionRepo := repository.NewSessionRepository(pool)
	rateRepo := repository.NewRateRepository(pool)
	scanLogRepo := repository.NewScanLogRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	hasher := password.NewBcryptHasher(0)
	authService := service.NewAuthService(userRepo, hasher, tokens, logger)

	feed := ws.NewFeed(logger)
	validator := credential.NewValidator(cfg.Credential.Secret, cfg.CredentialValidity())
	debouncer := scan.NewDebouncer(cfg.DebounceWindow())
	rateService := service.NewRateService(rateRepo)

	var cache service.ActiveCache
	if activeStore != nil {
		cache = activeStore
	}
	coordinator := service.NewCoordinator(
		sessionRepo,
		userRepo,
		rateService,
		validator,
		debouncer,
		scanLogRepo,
		cache,
		feed,
		logger,
	)

	authHandlers := handlers.NewAuthHandlers(authService, logger)
	scanHandlers := handlers.NewScanHandlers(coordinator, logger)

	routes := httpserver.Routes{
		Signup:         authHandlers.HandleSignup,
		Login:          authHandlers.HandleLogin,
		Scan:           scanHandlers.HandleScan,
		ManualExit:     scanHandlers.HandleManualExit,
		SessionsMe:     handlers.NewSessionsMeHandler(sessionRepo),
		ActiveSessions: handlers.NewActiveSessionsHandler(sessionRepo),
		Rates:          handlers.NewRatesHandler(rateService),
		Feed:           feed.HandleWS,
		Health:         handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes, middleware.AuthMiddleware(tokens))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		db:          pool,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

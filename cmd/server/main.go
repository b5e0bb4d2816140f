package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"esign.backend/internal/config"
	"esign.backend/internal/domain/services"
	"esign.backend/internal/infrastructure/datasources/postgres"
	"esign.backend/internal/infrastructure/documents"
	"esign.backend/internal/infrastructure/notification"
	"esign.backend/internal/infrastructure/pdf"
	"esign.backend/internal/infrastructure/ratelimit"
	"esign.backend/internal/infrastructure/repositories"
	"esign.backend/internal/interfaces/http/handlers"
	"esign.backend/internal/interfaces/http/middleware"
	"esign.backend/internal/usecases"
	"esign.backend/pkg/jwt"
	"esign.backend/pkg/logger"
	"esign.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = loadConfig
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.NewConnection
	migrateDB  = postgres.Migrate
	runServer  = serve
	getStdDB   = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

// loadConfig honours ESIGN_CONFIG as an optional YAML file under the environment
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("ESIGN_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load(), nil
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	// Redis backs idempotency and, optionally, rate limiting. Without it the
	// service still runs with in-process limits.
	var scripter goredis.Scripter
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		if cfg.RateLimit.Backend == "redis" {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		logger.Warn(ctx, "Redis unavailable, idempotency disabled", zap.Error(err))
	} else {
		defer redis.Close()
		scripter = redis.GetClient()
		logger.Info(ctx, "Redis initialized")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := migrateDB(db); err != nil {
		return err
	}
	logger.Info(ctx, "Connected to PostgreSQL", zap.String("database", cfg.Database.DBName))

	limiters, err := ratelimit.New(cfg.RateLimit, scripter)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiters: %w", err)
	}
	notifier, err := notification.New(cfg.Notification)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Repositories
	apiKeyRepo := repositories.NewApiKeyRepository(db)
	signatureRepo := repositories.NewSignatureRepository(db)
	uow := repositories.NewUnitOfWork(db)

	documentSource := documents.NewSource(
		documents.NewGormResolver(db),
		documents.NewHTTPFetcher(cfg.Documents.FetchTimeout, cfg.Documents.MaxBytes),
	)
	var artifacts services.ArtifactStore
	if cfg.Documents.ArtifactDir != "" {
		artifacts = documents.NewLocalStore(cfg.Documents.ArtifactDir, cfg.Documents.PublicBaseURL)
	}

	// Usecases
	apiKeyUsecase := usecases.NewApiKeyUsecase(apiKeyRepo)
	signatureUsecase := usecases.NewSignatureUsecase(
		signatureRepo,
		uow,
		documentSource,
		notifier,
		pdf.NewMarker(),
		artifacts,
		cfg.Signature.ExpiryWindow,
		cfg.Notification.PortalURL,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r, handlers.NewHealthHandler(sqlDB))
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		signatureHandler: handlers.NewSignatureHandler(signatureUsecase),
		apiKeyHandler:    handlers.NewApiKeyHandler(apiKeyUsecase),
		apiKeyAuth:       middleware.ApiKeyAuthMiddleware(apiKeyUsecase),
		staffAuth:        middleware.StaffAuthMiddleware(jwtService),
		internalAuth:     middleware.InternalAuthMiddleware(jwtService, apiKeyUsecase),
		limiters:         limiters,
		rateLimit:        cfg.RateLimit,
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "E-sign backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("rate_limit_backend", cfg.RateLimit.Backend),
		zap.String("notification_mode", cfg.Notification.Mode),
	)
	if err := runServer(ctx, r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info(ctx, "Server stopped")
	return nil
}

// serve runs until ctx is cancelled, then drains in-flight requests
func serve(ctx context.Context, handler http.Handler, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-service/internal/api/http"
	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/ratelimit"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
	"github.com/spec-kit/auth-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	subjects := subjectCipher(cfg, logger)
	privPEM, pubPEM := signingKeys(cfg, logger)

	codec, err := auth.NewTokenCodec(auth.TokenCodecOptions{
		Algorithm:      cfg.Auth.Algorithm,
		PrivateKeyPEM:  privPEM,
		PublicKeyPEM:   pubPEM,
		Issuer:         cfg.Auth.Issuer,
		Version:        cfg.Auth.TokenVersion,
		TokenTTL:       cfg.Auth.TokenTTL(),
		SameIPTokenTTL: cfg.Auth.SameIPTokenTTL(),
		Subjects:       subjects,
	})
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}
	if err := codec.CanSign(); err != nil {
		logger.Fatal("token signing key unusable", zap.Error(err))
	}

	pool := pg.PoolHandle()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	security := service.NewSecurityService(service.SecurityDependencies{
		Users:     repository.NewUserRepository(pool, cfg.Auth.BcryptCost),
		Tx:        repository.NewTxManager(pool),
		Tokens:    codec,
		Policy:    auth.NewAccountSecurityPolicy(cfg.Auth.MaxLoginAttempts, cfg.Auth.AccountBlockDuration()),
		Validator: auth.NewSessionValidator(codec.Version(), subjects),
		Events:    dispatcher,
		Metrics:   metrics,
		Logger:    logger,
	})

	limiter := ratelimit.NewRedisLimiter(redis.Client, "auth:login", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow(), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Security:        handlers.NewSecurityHandler(security),
		Users:           handlers.NewUsersHandler(),
		TokenMiddleware: auth.NewTokenMiddleware(security, logger),
		LoginLimiter:    ratelimit.PerIP(limiter, logger),
		Metrics:         metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// subjectCipher builds the token subject cipher. Outside prod a missing key
// falls back to a per-process key, which invalidates tokens on restart.
func subjectCipher(cfg *config.Config, logger *zap.Logger) *auth.SubjectCipher {
	if cfg.Auth.EncryptionKey != "" {
		subjects, err := auth.NewSubjectCipher(cfg.Auth.EncryptionKey)
		if err != nil {
			logger.Fatal("invalid AUTH_ENCRYPTION_KEY", zap.Error(err))
		}
		return subjects
	}
	logger.Warn("AUTH_ENCRYPTION_KEY not set; using an ephemeral subject key")
	subjects, err := auth.NewEphemeralSubjectCipher()
	if err != nil {
		logger.Fatal("failed to generate subject key", zap.Error(err))
	}
	return subjects
}

func signingKeys(cfg *config.Config, logger *zap.Logger) (string, string) {
	if cfg.Auth.PrivateKeyPEM != "" || cfg.Auth.PublicKeyPEM != "" {
		return cfg.Auth.PrivateKeyPEM, cfg.Auth.PublicKeyPEM
	}
	logger.Warn("AUTH_JWT keys not set; generating an ephemeral key pair", zap.String("alg", cfg.Auth.Algorithm))
	privPEM, pubPEM, err := auth.GenerateECKeyPair(cfg.Auth.Algorithm)
	if err != nil {
		logger.Fatal("failed to generate signing keys", zap.Error(err))
	}
	return privPEM, pubPEM
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

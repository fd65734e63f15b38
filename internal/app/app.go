package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/crudkit/identity/internal/auth"
	"github.com/crudkit/identity/internal/config"
	"github.com/crudkit/identity/internal/event"
	handler "github.com/crudkit/identity/internal/handler/http"
	"github.com/crudkit/identity/internal/repository/postgres"
	"github.com/crudkit/identity/internal/service"
	"github.com/crudkit/identity/migrations"
	"github.com/crudkit/identity/pkg/database"
	"github.com/crudkit/identity/pkg/health"
	pkgkafka "github.com/crudkit/identity/pkg/kafka"
	"github.com/crudkit/identity/pkg/middleware"
	"github.com/crudkit/identity/pkg/tracing"
)

// limiterVisitorTTL bounds how long the in-memory limiter remembers idle clients.
const limiterVisitorTTL = 10 * time.Minute

// App wires together all dependencies and runs the identity service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	authLimiter    middleware.Limiter
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "identity",
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool and apply migrations.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis is optional; when enabled it backs the distributed rate limiter.
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	hasher := auth.NewPasswordHasher()

	userRepo := postgres.NewUserRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	permRepo := postgres.NewPermissionRepository(pool)

	eventProducer := event.NewProducer(producer, logger)

	authService := service.NewAuthService(userRepo, roleRepo, tokens, hasher, eventProducer, cfg.ResetTokenExpiry, logger)
	userService := service.NewUserService(userRepo, roleRepo, logger)
	roleService := service.NewRoleService(roleRepo, permRepo, logger)
	permService := service.NewPermissionService(permRepo, logger)
	accessService := service.NewAccessService(userRepo, roleRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	authLimiter := newAuthLimiter(cfg, redisClient)

	router := handler.NewRouter(handler.RouterConfig{
		AuthService:       authService,
		UserService:       userService,
		RoleService:       roleService,
		PermissionService: permService,
		AccessService:     accessService,
		TokenManager:      tokens,
		UserRepo:          userRepo,
		HealthHandler:     healthHandler,
		Logger:            logger,
		CORS:              handler.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		AuthLimiter:       authLimiter,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		authLimiter:    authLimiter,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newAuthLimiter picks the limiter backing for the public auth endpoints:
// Redis when available so limits hold across replicas, otherwise an
// in-process token bucket.
func newAuthLimiter(cfg *config.Config, redisClient *redis.Client) middleware.Limiter {
	if cfg.AuthRateLimit <= 0 {
		return nil
	}
	if redisClient != nil {
		return middleware.NewRedisLimiter(redisClient, cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
	rps := int(float64(cfg.AuthRateLimit) / cfg.AuthRateWindow.Seconds())
	if rps < 1 {
		rps = 1
	}
	return middleware.NewMemoryLimiter(rps, cfg.AuthRateLimit, limiterVisitorTTL)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if memLimiter, ok := a.authLimiter.(*middleware.MemoryLimiter); ok {
		memLimiter.Stop()
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis client close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

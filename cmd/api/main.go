package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/textify/internal/activity"
	"github.com/kursadbilgin/textify/internal/config"
	"github.com/kursadbilgin/textify/internal/event"
	"github.com/kursadbilgin/textify/internal/handler"
	infranats "github.com/kursadbilgin/textify/internal/infra/nats"
	"github.com/kursadbilgin/textify/internal/infra/postgresql"
	"github.com/kursadbilgin/textify/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/textify/internal/infra/redis"
	"github.com/kursadbilgin/textify/internal/observability"
	"github.com/kursadbilgin/textify/internal/provider"
	"github.com/kursadbilgin/textify/internal/queue"
	"github.com/kursadbilgin/textify/internal/ratelimit"
	"github.com/kursadbilgin/textify/internal/registry"
	"github.com/kursadbilgin/textify/internal/repository"
	"github.com/kursadbilgin/textify/internal/service"
	"github.com/kursadbilgin/textify/internal/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("textify api stopped with error", zap.Error(err))
		return
	}
	logger.Info("textify api stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	metrics := observability.NewMetrics()
	var checks []handler.ReadinessCheck

	var repo repository.ActivityRepository
	if cfg.DatabaseDSN != "" {
		db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("postgres initialization failed: %w", err)
		}
		defer postgresql.Close(db) //nolint:errcheck

		if err := migrations.Migrate(db); err != nil {
			return fmt.Errorf("database migrations failed: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("postgres underlying db init failed: %w", err)
		}
		checks = append(checks, handler.PostgresCheck(sqlDB))
		repo = repository.NewGormActivityRepo(db)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = infraredis.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		defer rdb.Close()
		checks = append(checks, handler.RedisCheck(rdb))
	}

	var limiter ratelimit.RateLimiter
	if cfg.RateLimitingEnabled {
		window := ratelimit.NewWindow(cfg.RateLimitAttempts, cfg.RateLimitDecay)
		if rdb != nil {
			redisLimiter, err := infraredis.NewRedisRateLimiter(rdb, window)
			if err != nil {
				return fmt.Errorf("rate limiter initialization failed: %w", err)
			}
			limiter = redisLimiter
		} else {
			limiter = ratelimit.NewLocalRateLimiter(window)
		}
	}

	dispatcher := event.NewDispatcher(logger)
	dispatcher.SubscribeAll(metrics.ObserveEvent)
	if cfg.NATSURL != "" {
		conn, err := infranats.NewNATS(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("nats initialization failed: %w", err)
		}
		defer infranats.Close(conn)
		dispatcher.Forward(event.NewNATSSink(conn, cfg.EventsSubjectPrefix, logger))
		checks = append(checks, handler.ConnectionCheck("nats", conn.IsConnected))
	}
	var events event.Sink = event.Nop{}
	if cfg.EventsEnabled {
		events = dispatcher
	}

	var tracker activity.Tracker = activity.NullTracker{}
	if cfg.ActivityTrackingEnabled {
		var err error
		tracker, err = activity.NewTracker(cfg.ActivityDriver, activity.TrackerOptions{
			Repository: repo,
			FilePath:   cfg.ActivityFile,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("activity tracker initialization failed: %w", err)
		}
		if closer, ok := tracker.(io.Closer); ok {
			defer closer.Close() //nolint:errcheck
		}
	}

	var sendLogger activity.Logger = activity.NullLogger{}
	if cfg.LoggingEnabled {
		sendLogger = activity.NewLogger(cfg.LogDriver, logger, activity.LoggerOptions{
			LogSuccessful: cfg.LogSuccessful,
			LogFailed:     cfg.LogFailed,
			Tracker:       tracker,
		})
	}

	providers := registry.FromConfig(cfg.Providers, provider.Hooks{
		Tracker: tracker,
		Logger:  sendLogger,
		Events:  events,
		Rules:   cfg.MessageRules(),
		Log:     logger,
	}, nil, logger)

	opts := []service.Option{
		service.WithDefaultProvider(cfg.DefaultProvider),
		service.WithFallbackProvider(cfg.FallbackProvider),
		service.WithFallbackOnSend(cfg.FallbackOnSend),
		service.WithRateLimiter(limiter),
		service.WithBulkConcurrency(cfg.BulkConcurrency),
		service.WithStrictValidation(cfg.StrictValidation),
		service.WithLogger(logger),
		service.WithMetrics(metrics),
	}

	var worker *service.WorkerService
	var rabbit *queue.RabbitMQ
	var publisher *queue.RabbitMQPublisher
	if cfg.QueueEnabled {
		var err error
		rabbit, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("rabbitmq initialization failed: %w", err)
		}
		defer rabbit.Close()

		publisher = queue.NewRabbitMQPublisher(rabbit)
		opts = append(opts, service.WithPublisher(publisher, cfg.QueueName))
		checks = append(checks, handler.ConnectionCheck("rabbitmq", rabbit.IsConnected))
	}

	manager, err := service.NewManager(providers, opts...)
	if err != nil {
		return fmt.Errorf("manager initialization failed: %w", err)
	}

	if cfg.QueueEnabled {
		consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)
		worker, err = service.NewWorkerService(consumer, publisher, manager, limiter, events, service.WorkerConfig{
			Queue:       cfg.QueueName,
			MaxAttempts: cfg.QueueMaxAttempts,
			Concurrency: cfg.WorkerConcurrency,
		}, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		worker.SetMetrics(metrics)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(requestid.New(), fiberrecover.New(), metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, checks...)
	handler.RegisterMetricsRoute(app, metrics.Handler())
	if err := handler.RegisterSMSRoutes(app, manager); err != nil {
		return err
	}
	if querier, ok := tracker.(handler.ActivityQuerier); ok {
		if err := handler.RegisterActivityRoutes(app, querier); err != nil {
			return err
		}
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("textify api started",
			zap.Int("port", cfg.APIPort),
			zap.String("defaultProvider", manager.DefaultProvider()),
			zap.Strings("providers", manager.Providers()),
		)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			return worker.Start(groupCtx)
		})
	}
	g.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}

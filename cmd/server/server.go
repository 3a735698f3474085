package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"jan-server/services/chat-api/internal/config"
	"jan-server/services/chat-api/internal/domain/chat"
	"jan-server/services/chat-api/internal/domain/stream"
	"jan-server/services/chat-api/internal/infrastructure/auth"
	"jan-server/services/chat-api/internal/infrastructure/cache"
	"jan-server/services/chat-api/internal/infrastructure/database"
	"jan-server/services/chat-api/internal/infrastructure/logger"
	"jan-server/services/chat-api/internal/infrastructure/metrics"
	"jan-server/services/chat-api/internal/infrastructure/observability"
	acrepo "jan-server/services/chat-api/internal/infrastructure/repository/analysiscontext"
	convrepo "jan-server/services/chat-api/internal/infrastructure/repository/conversation"
	"jan-server/services/chat-api/internal/infrastructure/storage"
	"jan-server/services/chat-api/internal/infrastructure/workflow"
	"jan-server/services/chat-api/internal/interfaces/httpserver"
	"jan-server/services/chat-api/internal/utils/httpclients"
	"jan-server/services/chat-api/internal/worker"
)

// @title Chat API
// @version 1.0
// @description Streaming chat relay between recruiter analysis contexts and the AI workflow service.
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
type Application struct {
	httpServer *httpserver.HttpServer
	pool       *worker.Pool
	cleanup    []func()
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, pool *worker.Pool, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		pool:       pool,
		log:        log,
	}
}

// Start serves HTTP until ctx is cancelled, then drains pending conversation records.
func (a *Application) Start(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	if a.pool != nil {
		if err := a.pool.Start(egCtx); err != nil {
			return err
		}
	}

	eg.Go(func() error {
		return a.httpServer.Run(egCtx)
	})

	err := eg.Wait()

	if a.pool != nil {
		a.pool.Stop()
	}
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	app, err := buildApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("assemble application")
	}

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	var cleanup []func()
	var checks []httpserver.ReadinessCheck

	stores, err := newStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if stores.close != nil {
		cleanup = append(cleanup, stores.close)
	}
	checks = append(checks, stores.checks...)

	files, err := newFileResolver(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	recorderOpts := []chat.RecorderOption{
		chat.WithTimeout(cfg.BootstrapTimeout),
		chat.WithOutcomeHook(recordBootstrapOutcome),
	}
	if cfg.RedisURL != "" {
		guard, err := cache.NewBootstrapGuard(ctx, cfg.RedisURL, cfg.BootstrapGuardTTL, log)
		if err != nil {
			return nil, err
		}
		recorderOpts = append(recorderOpts, chat.WithGuard(guard))
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: guard.Ping})
		cleanup = append(cleanup, func() {
			if err := guard.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis client")
			}
		})
	}

	var recorder chat.Recorder = chat.NewRecorder(stores.conversations, log, recorderOpts...)
	var pool *worker.Pool
	if cfg.BootstrapAsync {
		pool = worker.NewPool(recorder, worker.Config{
			WorkerCount: cfg.BootstrapWorkers,
			QueueSize:   cfg.BootstrapQueueSize,
		}, recordBootstrapOutcome, log)
		recorder = pool
	}

	workflowClient := workflow.NewClient(httpclients.NewClient("workflow"), workflow.Config{
		BaseURL: cfg.WorkflowAPIURL,
		APIKey:  cfg.WorkflowAPIKey,
		Timeout: cfg.WorkflowTimeout,
	})

	chatService := chat.NewService(
		stores.contexts,
		stores.conversations,
		workflowClient,
		files,
		recorder,
		chat.Options{
			DefaultTitle:    cfg.DefaultChatTitle,
			RankingFnCall:   cfg.RankingFnCall,
			DefaultLanguage: cfg.LocalLanguageDefault,
			DefaultCallerID: auth.GuestCallerID,
		},
		log,
	)

	relay := stream.NewRelay(stream.Config{
		IdleTimeout:   cfg.StreamIdleTimeout,
		MaxFrameBytes: cfg.StreamMaxFrameBytes,
	}, log)

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("initialize auth validator: %w", err)
	}

	httpServer := httpserver.New(cfg, log, chatService, relay, authValidator, checks)
	app := NewApplication(httpServer, pool, log)
	app.cleanup = cleanup
	return app, nil
}

type storeSet struct {
	contexts      chat.ContextRepository
	conversations chat.ConversationRepository
	checks        []httpserver.ReadinessCheck
	close         func()
}

func newStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storeSet, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &storeSet{
			contexts:      acrepo.NewInMemoryRepository(),
			conversations: convrepo.NewInMemoryRepository(),
		}, nil
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
		CreateDatabase:  cfg.AutoMigrate,
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	return &storeSet{
		contexts:      acrepo.NewPostgresRepository(db),
		conversations: convrepo.NewPostgresRepository(db),
		checks: []httpserver.ReadinessCheck{{
			Name: "database",
			Check: func(ctx context.Context) error {
				return database.Ping(ctx, db)
			},
		}},
		close: func() {
			if err := database.Close(db); err != nil {
				log.Warn().Err(err).Msg("close database")
			}
		},
	}, nil
}

func newFileResolver(ctx context.Context, cfg *config.Config, log zerolog.Logger) (chat.FileURLResolver, error) {
	if cfg.FileURLMode == config.FileURLModeS3 {
		presigner, err := storage.NewS3Presigner(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("initialize s3 presigner: %w", err)
		}
		return storage.NewPresignedResolver(presigner, cfg.FileS3PresignTTL), nil
	}
	resolver, err := storage.NewPublicResolver(cfg.FileBaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialize file resolver: %w", err)
	}
	return resolver, nil
}

func recordBootstrapOutcome(outcome chat.BootstrapOutcome) {
	metrics.RecordBootstrap(string(outcome))
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

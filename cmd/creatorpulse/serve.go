package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/ai"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/api"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/auth"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/cache"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/config"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/database"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/events"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/ingest"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/metrics"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/postgres"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/search"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/stream"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/worker"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background trend detection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Info("creatorpulse starting up")

		if err := serve(cfg, logger); err != nil {
			logger.Error("application failed", "error", err.Error())
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// establish database connection
	conn, err := database.New(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !skipMigrations {
		migrateCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		err := database.NewMigrator(conn, logger).Run(migrateCtx)
		cancel()
		if err != nil {
			return err
		}
	}

	if err := conn.HealthCheck(ctx); err != nil {
		return err
	}
	vectorVersion, err := conn.VectorVersion(ctx)
	if err != nil {
		return err
	}
	if vectorVersion == "" {
		logger.Warn("pgvector extension missing, style sample retrieval will fail")
	}
	logger.Info("creatorpulse infrastructure ready", "schema", conn.Schema(), "pgvector", vectorVersion)

	appMetrics := metrics.New()
	jwtValidator := auth.NewJWTValidator(cfg.Auth.JWTSecret)

	// initialize repositories
	pool := conn.Pool()
	sourceRepo := postgres.NewSourceRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	postgresTrendRepo := postgres.NewTrendRepository(pool)
	draftRepo := postgres.NewDraftRepository(pool)
	styleRepo := postgres.NewStyleSampleRepository(pool)
	webhookSubRepo := postgres.NewWebhookSubscriptionRepository(pool)
	uow := postgres.NewUnitOfWork(pool)

	healthChecks := map[string]api.HealthChecker{"postgres": conn}

	// initialize redis (optional - disabled if REDIS_URL is empty)
	var redisClient *cache.RedisClient
	var trendRepo domain.TrendRepository = postgresTrendRepo

	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{URL: cfg.Redis.URL}, logger)
		if err != nil {
			logger.Error("failed to create redis client", "error", err.Error())
			return err
		}

		if err := redisClient.Connect(ctx); err != nil {
			logger.Warn("redis connection failed, continuing without cache", "error", err.Error())
			redisClient = nil
		} else {
			defer redisClient.Close()
			trendRepo = cache.NewTrendRepositoryWithCache(postgresTrendRepo, redisClient, logger)
			healthChecks["redis"] = redisClient
			logger.Info("redis leaderboard cache enabled")
		}
	}

	// live trend stream, fanned out over nats when configured
	hub := events.NewHub(events.DefaultHubConfig(), logger).WithClientGauge(appMetrics.SetStreamClients)
	defer hub.Close()

	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = events.ConnectNATS(cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("nats connection failed, streaming locally only", "error", err.Error())
			nc = nil
		} else {
			defer nc.Close()
		}
	}

	publisher := events.NewPublisher(hub, nc, cfg.NATS.Subject, logger)
	if err := publisher.Start(); err != nil {
		return err
	}
	defer publisher.Stop()

	// background workers outlive the request context so they can drain on shutdown
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	webhookWorker := worker.NewWebhookWorker(webhookSubRepo, worker.DefaultWebhookWorkerConfig(), logger).
		WithMetrics(appMetrics)
	webhookWorker.Start(workerCtx)
	defer webhookWorker.Stop()

	// content archive to kafka (optional - disabled if KAFKA_BROKERS is empty)
	var archiveWorker *worker.ContentArchiveWorker
	if len(cfg.Kafka.Brokers) > 0 {
		contentWriter := stream.NewContentWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer contentWriter.Close()

		archiveWorker = worker.NewContentArchiveWorker(contentWriter, worker.DefaultContentArchiveConfig(), logger).
			WithMetrics(appMetrics)
		archiveWorker.Start(workerCtx)
		logger.Info("content archive enabled", "topic", cfg.Kafka.Topic)
	}

	// content search (optional - disabled if ELASTICSEARCH_ADDR is empty)
	var searcher application.ContentSearcher
	if len(cfg.Elasticsearch.Addresses) > 0 {
		searchClient, err := search.New(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index, logger)
		if err != nil {
			return err
		}
		searcher = searchClient
		healthChecks["elasticsearch"] = searchClient
	}

	// llm features (optional - disabled if OPENAI_API_KEY is empty)
	// interfaces stay nil when disabled so the use cases can detect it
	var (
		aiClient   *ai.Client
		summarizer application.TrendSummarizer
		embedder   application.Embedder
		images     application.ImageGenerator
	)
	if cfg.AI.Enabled() {
		aiClient, err = ai.NewClient(ai.Config{
			APIKey:            cfg.AI.APIKey,
			BaseURL:           cfg.AI.BaseURL,
			ChatModel:         cfg.AI.ChatModel,
			ImageModel:        cfg.AI.ImageModel,
			EmbeddingModel:    cfg.AI.EmbeddingModel,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
		}, logger)
		if err != nil {
			return err
		}
		aiClient.WithMetrics(appMetrics)
		summarizer = aiClient
		embedder = aiClient
		images = aiClient
		logger.Info("llm features enabled", "chat_model", cfg.AI.ChatModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, draft generation disabled")
	}

	ingestor := newIngestor(cfg, logger).WithMetrics(appMetrics)
	fetchCache := cache.NewFetchCache(cfg.Trends.FetchCacheTTL)
	ingestor.WithCache(fetchCache)
	go fetchCache.RunCleanup(workerCtx, cfg.Trends.FetchCacheTTL)

	// initialize use cases
	detectTrendsUseCase := application.NewDetectTrendsUseCase(sourceRepo, trendRepo, ingestor, logger).
		WithPublisher(publisher).
		WithNotifier(webhookWorker).
		WithRecorder(appMetrics)
	if redisClient != nil {
		detectTrendsUseCase.WithLeaderboard(redisClient)
	}
	if summarizer != nil {
		detectTrendsUseCase.WithSummarizer(summarizer)
	}
	if archiveWorker != nil {
		detectTrendsUseCase.WithArchiveChannel(archiveWorker.Channel())
	}

	var generateDraftsUseCase *application.GenerateDraftsUseCase
	if aiClient != nil {
		generateDraftsUseCase = application.NewGenerateDraftsUseCase(
			trendRepo,
			profileRepo,
			styleRepo,
			draftRepo,
			uow,
			aiClient,
			logger,
		).WithEmbedder(embedder).WithRecorder(appMetrics)
	}

	// initialize http server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = ":" + cfg.Server.Port
	serverConfig.AllowOrigins = cfg.Server.AllowedOrigins

	server := api.NewServer(serverConfig, logger)

	api.RegisterRoutes(server.Echo(), api.RouterConfig{
		Profile:        application.NewProfileUseCase(profileRepo, logger),
		Sources:        application.NewManageSourcesUseCase(sourceRepo, logger).WithCache(fetchCache),
		DetectTrends:   detectTrendsUseCase,
		ListTrends:     application.NewListTrendsUseCase(trendRepo, logger),
		AnalyzeContent: application.NewAnalyzeContentUseCase(logger),
		GenerateDrafts: generateDraftsUseCase,
		Drafts:         application.NewManageDraftsUseCase(draftRepo, logger),
		Images:         application.NewGenerateImageUseCase(draftRepo, images, logger),
		StyleSamples:   application.NewStyleSamplesUseCase(styleRepo, embedder, logger).WithBatchSize(cfg.AI.EmbeddingBatchSize),
		Subscriptions:  application.NewSubscriptionsUseCase(webhookSubRepo, logger),
		Search:         application.NewSearchContentUseCase(searcher, logger),
		Stream:         hub,
		AllowOrigins:   cfg.Server.AllowedOrigins,
		Validator:      jwtValidator,
		HealthChecks:   healthChecks,
		Logger:         logger,
		Metrics:        appMetrics,
	})

	// start background trend detection
	detectorDone := make(chan struct{})
	go func() {
		defer close(detectorDone)
		runTrendDetector(ctx, detectTrendsUseCase, cfg.Trends.DetectionInterval, logger)
	}()

	// start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server error", "error", err.Error())
		}
	}()

	// wait for shutdown signal
	<-ctx.Done()
	logger.Info("creatorpulse shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err.Error())
	}
	<-detectorDone

	// nothing sends on the archive channel past this point
	if archiveWorker != nil {
		archiveWorker.Stop()
	}

	logger.Info("creatorpulse shutdown complete")
	return nil
}

// newIngestor registers a fetcher per source type whose upstream is configured.
// rss needs no credentials and is always available.
func newIngestor(cfg *config.Config, logger *logging.Logger) *ingest.Ingestor {
	maxItems := cfg.Sources.MaxItemsPerSource
	ingestor := ingest.NewIngestor(cfg.Trends.FetchConcurrency, logger).
		Register(domain.SourceTypeRSS, ingest.NewRSSFetcher(maxItems))

	if cfg.Sources.TwitterBearerToken != "" {
		ingestor.Register(domain.SourceTypeTwitter, ingest.NewTwitterFetcher(cfg.Sources.TwitterBearerToken, "", maxItems, nil))
	}
	if cfg.Sources.YouTubeAPIKey != "" {
		ingestor.Register(domain.SourceTypeYouTube, ingest.NewYouTubeFetcher(cfg.Sources.YouTubeAPIKey, cfg.Sources.YouTubeBaseURL, maxItems))
	}
	if cfg.Sources.FirecrawlAPIKey != "" {
		ingestor.Register(domain.SourceTypeBlog, ingest.NewBlogFetcher(cfg.Sources.FirecrawlAPIKey, cfg.Sources.FirecrawlBaseURL))
	}

	for _, t := range []domain.SourceType{domain.SourceTypeTwitter, domain.SourceTypeYouTube, domain.SourceTypeBlog} {
		if !ingestor.Supports(t) {
			logger.Warn("source type disabled, missing api credentials", "source_type", string(t))
		}
	}
	return ingestor
}

// runTrendDetector runs trend detection for all users every interval
// until ctx is cancelled.
func runTrendDetector(ctx context.Context, useCase *application.DetectTrendsUseCase, interval time.Duration, logger *logging.Logger) {
	logger.Info("trend detector started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// run immediately on startup
	runDetection(ctx, useCase, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("trend detector stopping")
			return
		case <-ticker.C:
			runDetection(ctx, useCase, logger)
		}
	}
}

// runDetection executes a single batch detection cycle.
// per-user durations are recorded by the use case itself.
func runDetection(ctx context.Context, useCase *application.DetectTrendsUseCase, logger *logging.Logger) {
	start := time.Now()
	result, err := useCase.ExecuteAll(ctx, application.DetectAllInput{})
	duration := time.Since(start)

	if err != nil {
		logger.Error("trend detection failed",
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	logger.Info("trend detection completed",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration_ms", duration.Milliseconds(),
	)
}

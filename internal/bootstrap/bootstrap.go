// Package bootstrap assembles the job-search service from configuration. It is
// shared by the server binary and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"job-search-mas/internal/application"
	"job-search-mas/internal/config"
	"job-search-mas/internal/domain/ports/adapter"
	"job-search-mas/internal/domain/ports/repository"
	aiAdapters "job-search-mas/internal/infra/adapters/ai"
	"job-search-mas/internal/infra/adapters/content"
	"job-search-mas/internal/infra/adapters/events"
	"job-search-mas/internal/infra/adapters/jobsearch"
	"job-search-mas/internal/infra/adapters/resume"
	"job-search-mas/internal/infra/adapters/storage"
	pg "job-search-mas/internal/infra/db/postgres"
	red "job-search-mas/internal/infra/redis"
	"job-search-mas/internal/infra/security"
	"job-search-mas/internal/infra/worker"
	"job-search-mas/internal/usecase"
)

// App holds the wired service and the resources that must be released on exit.
type App struct {
	Facade    *application.JobSearchFacade
	DB        *pgxpool.Pool
	Redis     *red.Client // nil when Redis was unreachable at startup
	Memory    *red.MemoryKV
	Pool      *worker.Pool
	Jobs      repository.JobRepository
	JobMemory usecase.JobMemoryUseCase

	closers []func()
}

// Build connects to Postgres and Redis, picks the AI providers and wires agents,
// orchestrator and facade. Redis, RabbitMQ and S3 are optional.
func Build(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	app := &App{Memory: red.NewMemoryKV()}

	// ---- Postgres ----
	db, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, err
	}
	app.DB = db
	app.onClose(db.Close)

	var sealer pg.FieldSealer
	if cfg.Security.EncryptionKey != "" {
		cipher, err := security.NewFieldCipher(cfg.Security.EncryptionKey)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("encryption: %w", err)
		}
		sealer = cipher
	} else {
		logger.Warn().Msg("security.encryption_key not set; resume text is stored in plaintext")
	}

	// ---- Redis ----
	var primary red.KeyValue
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unreachable; falling back to in-memory state")
		} else {
			app.Redis = client
			primary = client
			app.onClose(func() { _ = client.Close() })
		}
	}
	sessions := red.NewSessionStore(primary, app.Memory, cfg.Redis, logger)

	// ---- AI ----
	chat, embedder, err := buildAI(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	modelName := cfg.AI.DefaultModel

	// ---- Events ----
	var publisher adapter.EventPublisher = events.Noop{}
	if cfg.Events.RabbitURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.Events.RabbitURL, cfg.Events.Exchange, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("rabbitmq unreachable; session events disabled")
		} else {
			publisher = rabbit
			app.onClose(func() { _ = rabbit.Close() })
		}
	}

	// ---- Résumé archive ----
	var archive adapter.ResumeArchive
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3Archive(ctx, cfg.Storage)
		if err != nil {
			logger.Warn().Err(err).Msg("resume archive disabled")
		} else {
			archive = s3
		}
	}

	// ---- Worker pool ----
	app.Pool = worker.NewPool(cfg.Workers.PoolSize, logger)
	app.Pool.Start(ctx)
	app.onClose(app.Pool.Stop)

	// ---- Repositories ----
	profiles := pg.NewProfileRepo(db, sealer)
	strategies := pg.NewStrategyRepo(db)
	jobs := pg.NewJobRepo(db)
	apps := pg.NewApplicationRepo(db)
	tm := pg.NewTxManager(db)

	// ---- Use cases ----
	parser := resume.NewParser(chat, modelName, logger)
	generator := content.NewGenerator(chat, modelName, logger)
	search := jobsearch.NewHHClient(cfg.JobSearch, logger)

	memory := usecase.NewJobMemoryUseCase(jobs, embedder, app.Pool, logger)
	app.Jobs, app.JobMemory = jobs, memory
	recorder := usecase.NewRecorder(profiles, strategies, jobs, apps, tm, memory, logger)
	analytics := usecase.NewAnalyticsAgent(apps, tm, logger)
	orchestrator := usecase.NewOrchestrator(
		sessions,
		usecase.NewStrategyAgent(parser, chat, modelName, logger),
		usecase.NewMarketAgent(search, chat, modelName, logger),
		usecase.NewPersonalizationAgent(generator, logger),
		recorder,
		publisher,
		logger,
	)

	app.Facade = application.NewJobSearchFacade(orchestrator, analytics, parser, sessions, memory, archive, logger)
	return app, nil
}

// KV is Redis when connected, else the in-process store.
func (a *App) KV() red.RedisClient {
	if a.Redis != nil {
		return a.Redis
	}
	return a.Memory
}

// Locker is nil without Redis.
func (a *App) Locker() red.Locker {
	if a.Redis == nil {
		return nil
	}
	return red.NewLocker(a.Redis)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) { a.closers = append(a.closers, fn) }

// buildAI routes chat calls through the multi-provider adapter, bounded by the
// concurrency limit and instrumented. Without any key both chat and embeddings are offline.
func buildAI(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.AIServiceAdapter, adapter.Embedder, error) {
	if !cfg.HasAIKey() {
		logger.Warn().Msg("no AI provider configured; agents will use their fallbacks")
		return aiAdapters.Offline{}, aiAdapters.Offline{}, nil
	}

	byProvider := map[string]adapter.AIServiceAdapter{}
	var (
		defaultProvider string
		embedder        adapter.Embedder
	)
	if cfg.AI.GeminiKey != "" {
		gem, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.EmbeddingModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini adapter: %w", err)
		}
		byProvider[aiAdapters.ProviderGemini] = gem
		defaultProvider = aiAdapters.ProviderGemini
		embedder = aiAdapters.NewInstrumentedEmbedder(gem, gem.EmbeddingModel())
		logger.Info().Str("provider", "gemini").Str("base_url", cfg.AI.GeminiURL).Msg("AI adapter ready")
	}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.DefaultModel, cfg.AI.EmbeddingModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			return nil, nil, fmt.Errorf("openai adapter: %w", err)
		}
		byProvider[aiAdapters.ProviderOpenAI] = oa
		defaultProvider = aiAdapters.ProviderOpenAI
		embedder = aiAdapters.NewInstrumentedEmbedder(oa, oa.EmbeddingModel())
		logger.Info().Str("provider", "openai").Str("base_url", cfg.AI.OpenAIBaseURL).Msg("AI adapter ready")
	}

	multi := aiAdapters.NewMultiAIAdapter(defaultProvider, byProvider, nil)
	limited := aiAdapters.NewLimitedAI(multi, cfg.AI.ConcurrentLimit)
	return aiAdapters.NewInstrumentedAI(limited, multi.ResolveProvider, cfg.AI.DefaultModel), embedder, nil
}

package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/extractors"
	"github.com/ternarybob/contexo/internal/graph"
	"github.com/ternarybob/contexo/internal/handlers"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/pipeline"
	"github.com/ternarybob/contexo/internal/retrieval"
	"github.com/ternarybob/contexo/internal/services/embeddings"
	"github.com/ternarybob/contexo/internal/services/github"
	"github.com/ternarybob/contexo/internal/services/llm"
	"github.com/ternarybob/contexo/internal/services/scheduler"
	"github.com/ternarybob/contexo/internal/services/summary"
	"github.com/ternarybob/contexo/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	GraphCache     *graph.Cache

	// Model services
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService

	// Ingestion
	IngestService interfaces.IngestService
	RepoFetcher   interfaces.RepoFetcher

	// Retrieval
	RAGService       interfaces.RAGService
	SimpleRAGService interfaces.SimpleRAGService

	// Background services
	SummaryService   interfaces.SummaryService
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	IngestHandler  *handlers.IngestHandler
	GraphHandler   *handlers.GraphHandler
	RAGHandler     *handlers.RAGHandler
	SummaryHandler *handlers.SummaryHandler
	VectorsHandler *handlers.VectorsHandler
	StatusHandler  *handlers.StatusHandler

	// Provider-override LLM services, created on first use
	llmMu         sync.Mutex
	llmByProvider map[common.LLMProvider]interfaces.LLMService
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:        cfg,
		Logger:        logger,
		llmByProvider: make(map[common.LLMProvider]interfaces.LLMService),
	}

	storageManager, err := storage.NewManager(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	nodes := storageManager.NodeStorage()
	vectors := storageManager.VectorStorage()
	ingestions := storageManager.IngestionStorage()
	kv := storageManager.KeyValueStorage()

	app.LLMService, err = llm.NewLLMService(cfg, kv, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	app.llmByProvider[cfg.LLM.DefaultProvider] = app.LLMService

	app.EmbeddingService = embeddings.NewService(app.LLMService, &cfg.Embedding, logger)
	app.GraphCache = graph.NewCache(nodes, logger)

	app.IngestService = pipeline.NewPipeline(app.EmbeddingService, nodes, vectors, app.GraphCache, logger)

	app.RepoFetcher, err = github.NewFetcher(cfg, kv, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize repo fetcher: %w", err)
	}

	app.SummaryService = summary.NewService(nodes, app.LLMService, logger)

	app.RAGService = retrieval.NewService(
		app.EmbeddingService, vectors, nodes, app.GraphCache,
		app.resolveLLM, &cfg.Retrieval, logger)
	app.SimpleRAGService = retrieval.NewSimpleService(
		app.EmbeddingService, vectors, nodes,
		app.resolveLLM, &cfg.Retrieval, logger)

	schedulerService := scheduler.NewService(logger)
	app.SchedulerService = schedulerService
	if cfg.Scheduler.Enabled {
		supervisor := scheduler.NewSupervisorJob(cfg, ingestions, logger)
		if err := schedulerService.RegisterJob(scheduler.SupervisorJobName, cfg.Scheduler.Schedule, supervisor); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to register supervisor job: %w", err)
		}
		if err := schedulerService.Start(); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	pdfExtractor := extractors.NewPDFExtractor(logger)
	htmlConverter := extractors.NewHTMLConverter(logger)

	app.APIHandler = handlers.NewAPIHandler()
	app.IngestHandler = handlers.NewIngestHandler(
		cfg, ingestions, app.IngestService, pdfExtractor, htmlConverter,
		app.RepoFetcher, app.SummaryService, logger)
	app.GraphHandler = handlers.NewGraphHandler(nodes, logger)
	app.RAGHandler = handlers.NewRAGHandler(app.RAGService, app.SimpleRAGService, logger)
	app.SummaryHandler = handlers.NewSummaryHandler(app.SummaryService, logger)
	app.VectorsHandler = handlers.NewVectorsHandler(vectors, logger)
	app.StatusHandler = handlers.NewStatusHandler(app.SchedulerService, logger)

	logger.Info().
		Str("environment", cfg.Environment).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Str("embedding_provider", cfg.Embedding.Provider).
		Msg("Application initialized")

	return app, nil
}

// resolveLLM returns the LLM service for a per-request provider override.
// Empty provider means the configured default; override services are created
// once and reused.
func (a *App) resolveLLM(provider string) (interfaces.LLMService, error) {
	if provider == "" {
		return a.LLMService, nil
	}

	p := common.LLMProvider(provider)

	a.llmMu.Lock()
	defer a.llmMu.Unlock()

	if svc, ok := a.llmByProvider[p]; ok {
		return svc, nil
	}

	kv := a.StorageManager.KeyValueStorage()
	var svc interfaces.LLMService
	var err error
	switch p {
	case common.LLMProviderGemini:
		svc, err = llm.NewGeminiService(a.Config, kv, a.Logger)
	case common.LLMProviderClaude:
		svc, err = llm.NewClaudeService(a.Config, kv, a.Logger)
	case common.LLMProviderMock:
		svc = llm.NewMockService(a.Config, a.Logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	a.llmByProvider[p] = svc
	return svc, nil
}

// Close releases all application resources in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}

	a.llmMu.Lock()
	for provider, svc := range a.llmByProvider {
		if err := svc.Close(); err != nil {
			a.Logger.Warn().Err(err).Str("provider", string(provider)).Msg("LLM service close failed")
		}
	}
	a.llmByProvider = make(map[common.LLMProvider]interfaces.LLMService)
	a.llmMu.Unlock()

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	return nil
}

// Shutdown is the context-aware close used by the server lifecycle
func (a *App) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- a.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

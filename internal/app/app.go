package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"hnbriefs/internal/config"
	"hnbriefs/internal/infrastructure/analyzer"
	"hnbriefs/internal/infrastructure/hackernews"
	"hnbriefs/internal/infrastructure/llm"
	"hnbriefs/internal/infrastructure/scheduler"
	"hnbriefs/internal/infrastructure/storage"
	"hnbriefs/internal/infrastructure/tracker"
	"hnbriefs/internal/infrastructure/webpage"
	"hnbriefs/internal/logging"
	"hnbriefs/internal/ports"
	"hnbriefs/internal/usecase"
)

// Application wires config to adapters, the pipeline, and the watcher.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	model    ports.ModelClient
	index    *storage.Index
	briefs   *storage.BriefStore
	cache    *storage.RawCache
	tracker  *tracker.Tracker
}

// New builds a runnable application instance. Storage initialization
// failures are fatal; everything downstream degrades per component.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	cache, err := storage.NewRawCache(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init raw cache: %w", err)
	}
	analyses, err := storage.NewAnalysisStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init analysis store: %w", err)
	}
	briefs, err := storage.NewBriefStore(cfg.Storage.BriefDir)
	if err != nil {
		return nil, fmt.Errorf("init brief store: %w", err)
	}
	track, err := tracker.New(cfg.Storage.TrackerDir)
	if err != nil {
		return nil, fmt.Errorf("init tracker: %w", err)
	}
	index, err := storage.OpenIndex(cfg.Storage.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open brief index: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	source := hackernews.NewClient(cfg.Source.BaseURL, cfg.Source.Feed,
		httpClient, logging.Component(baseLogger, "source"))

	model := llm.NewClaudeClient(cfg.Anthropic)

	analyzerOpts := []analyzer.Option{}
	if cfg.Analyzer.FetchPageContent {
		analyzerOpts = append(analyzerOpts, analyzer.WithPageReader(webpage.NewReader(httpClient)))
	}
	analyze := analyzer.New(model, logging.Component(baseLogger, "analyzer"), analyzerOpts...)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Cache:    cache,
		Analyses: analyses,
		Briefs:   briefs,
		Index:    index,
		Tracker:  track,
		Analyzer: analyze,
		Logger:   logging.Component(baseLogger, "pipeline"),
	}, usecase.CycleConfig{
		MaxItems:     cfg.Source.MaxItems,
		BatchSize:    cfg.Analyzer.BatchSize,
		BatchDelay:   cfg.Analyzer.DelayBetweenBatch,
		RecordMaxAge: cfg.Watch.RecordMaxAge,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		model:    model,
		index:    index,
		briefs:   briefs,
		cache:    cache,
		tracker:  track,
	}, nil
}

// Close releases held resources, currently only the index handle.
func (a *Application) Close() error {
	return a.index.Close()
}

// RunOnce executes a single pipeline cycle.
func (a *Application) RunOnce(ctx context.Context) (usecase.CycleOutcome, error) {
	return a.pipeline.RunCycle(ctx)
}

// Watch blocks, running cycles on the configured interval until ctx is
// cancelled.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Watch.Interval)
	watcher := usecase.NewWatcher(driver, a.pipeline, a.cfg.Watch.MaxIdle,
		logging.Component(a.logger, "watcher"))
	return watcher.Run(ctx)
}

// Tracker exposes progress state for the status command.
func (a *Application) Tracker() *tracker.Tracker { return a.tracker }

// Cache exposes the raw cache for the cache commands.
func (a *Application) Cache() *storage.RawCache { return a.cache }

// Briefs exposes the brief store for reindexing and reports.
func (a *Application) Briefs() *storage.BriefStore { return a.briefs }

// Index exposes the queryable brief index.
func (a *Application) Index() *storage.Index { return a.index }

// Model exposes the model client for the report command.
func (a *Application) Model() ports.ModelClient { return a.model }

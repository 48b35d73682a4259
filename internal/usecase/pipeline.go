package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source   ports.ItemSource
	Cache    ports.RawCache
	Analyses ports.AnalysisStore
	Briefs   ports.BriefStore
	Index    ports.BriefIndex
	Tracker  ports.Tracker
	Analyzer ports.Analyzer
	Logger   *slog.Logger
}

// CycleConfig tunes a run cycle. Zero values fall back to safe defaults.
type CycleConfig struct {
	MaxItems     int
	BatchSize    int
	BatchDelay   time.Duration
	RecordMaxAge time.Duration
}

// CycleOutcome summarizes one RunCycle invocation.
type CycleOutcome struct {
	RunID     string
	NoNewWork bool
	Processed int
	Skipped   int
	Errors    int
	Pruned    int
	BriefIDs  []string
}

// Pipeline implements the ingestion workflow: housekeeping, dedup gating,
// fetch-or-cache, analysis, brief assembly, outcome recording.
type Pipeline struct {
	source   ports.ItemSource
	cache    ports.RawCache
	analyses ports.AnalysisStore
	briefs   ports.BriefStore
	index    ports.BriefIndex
	tracker  ports.Tracker
	analyzer ports.Analyzer
	logger   *slog.Logger
	cfg      CycleConfig
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, cfg CycleConfig) *Pipeline {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 50
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:   deps.Source,
		cache:    deps.Cache,
		analyses: deps.Analyses,
		briefs:   deps.Briefs,
		index:    deps.Index,
		tracker:  deps.Tracker,
		analyzer: deps.Analyzer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the pipeline's time source.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// itemOutcome is the terminal state of one candidate within a cycle.
type itemOutcome int

const (
	outcomeProcessed itemOutcome = iota
	outcomeSkipped
	outcomeError
)

type itemResult struct {
	outcome itemOutcome
	briefID string
}

// RunCycle executes one full pipeline cycle. Per-item failures degrade to
// error records; only stats persistence failures abort the cycle.
func (p *Pipeline) RunCycle(ctx context.Context) (CycleOutcome, error) {
	out := CycleOutcome{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", out.RunID)

	maxID := p.source.MaxItemID(ctx)
	newIDs := p.source.NewestIDs(ctx)

	hasWork, err := p.tracker.HasNewWork(maxID, len(newIDs))
	if err != nil {
		logger.Warn("new-work check failed, assuming work exists", "error", err)
		hasWork = true
	}
	if !hasWork {
		logger.Info("no new work since last cycle", "max_item_id", maxID, "new_count", len(newIDs))
		out.NoNewWork = true
		return out, p.writeStats(out, maxID, len(newIDs))
	}

	candidates := newIDs
	if len(candidates) > p.cfg.MaxItems {
		candidates = candidates[:p.cfg.MaxItems]
	}
	logger.Info("cycle started", "candidates", len(candidates), "max_item_id", maxID)

	results := make([]itemResult, len(candidates))
	for start := 0; start < len(candidates); start += p.cfg.BatchSize {
		if start > 0 {
			if err := p.betweenBatches(ctx); err != nil {
				logger.Info("cycle aborted between batches", "completed", start)
				p.tally(&out, results[:start])
				if statsErr := p.writeStats(out, maxID, len(newIDs)); statsErr != nil {
					return out, statsErr
				}
				return out, err
			}
		}

		end := start + p.cfg.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = p.processItem(ctx, candidates[i], logger)
			}(i)
		}
		wg.Wait()
	}

	p.tally(&out, results)
	if err := p.writeStats(out, maxID, len(newIDs)); err != nil {
		return out, err
	}

	if p.cfg.RecordMaxAge > 0 {
		pruned, err := p.tracker.Prune(p.cfg.RecordMaxAge)
		if err != nil {
			logger.Warn("record prune failed", "error", err)
		} else {
			out.Pruned = pruned
		}
	}

	logger.Info("cycle finished",
		"processed", out.Processed, "skipped", out.Skipped,
		"errors", out.Errors, "pruned", out.Pruned)
	return out, nil
}

// betweenBatches waits the configured delay and honors cancellation. Items
// already in flight are never interrupted; cancellation only stops new
// batches from starting.
func (p *Pipeline) betweenBatches(ctx context.Context) error {
	if p.cfg.BatchDelay <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(p.cfg.BatchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) processItem(ctx context.Context, id int, logger *slog.Logger) itemResult {
	done, err := p.tracker.IsItemDone(id)
	if err != nil {
		logger.Warn("dedup lookup failed, treating item as new", "item_id", id, "error", err)
	}
	if done {
		return itemResult{outcome: outcomeSkipped}
	}

	item, fromCache, err := p.loadOrFetch(ctx, id)
	if err != nil {
		p.record(logger, domain.ProcessingRecord{
			ID:           domain.ItemRecordID(id),
			Type:         domain.RecordSourceItem,
			ItemID:       id,
			Status:       domain.StatusError,
			ErrorMessage: err.Error(),
		})
		return itemResult{outcome: outcomeError}
	}
	if item == nil {
		p.record(logger, domain.ProcessingRecord{
			ID:           domain.ItemRecordID(id),
			Type:         domain.RecordSourceItem,
			ItemID:       id,
			Status:       domain.StatusSkipped,
			ErrorMessage: "item not found upstream",
		})
		return itemResult{outcome: outcomeSkipped}
	}
	if item.Unprocessable() {
		p.record(logger, domain.ProcessingRecord{
			ID:           domain.ItemRecordID(id),
			Type:         domain.RecordSourceItem,
			ItemID:       id,
			Status:       domain.StatusSkipped,
			ErrorMessage: "item deleted or dead",
		})
		return itemResult{outcome: outcomeSkipped}
	}

	if !fromCache {
		if err := p.cache.Save(item); err != nil {
			logger.Warn("raw cache write failed", "item_id", id, "error", err)
		}
	}

	analysis, analysisErr := p.resolveAnalysis(ctx, item, logger)
	if errors.Is(analysisErr, domain.ErrUpstreamModel) {
		// The model service itself failed: record and leave the item
		// eligible for the next cycle.
		p.record(logger, domain.ProcessingRecord{
			ID:           domain.AnalysisID(id),
			Type:         domain.RecordAnalysis,
			ItemID:       id,
			Status:       domain.StatusError,
			ErrorMessage: analysisErr.Error(),
		})
		return itemResult{outcome: outcomeError}
	}

	if err := p.analyses.SaveAnalysis(analysis); err != nil {
		p.record(logger, domain.ProcessingRecord{
			ID:           domain.AnalysisID(id),
			Type:         domain.RecordAnalysis,
			ItemID:       id,
			Status:       domain.StatusError,
			ErrorMessage: fmt.Sprintf("persist analysis: %v", err),
		})
		return itemResult{outcome: outcomeError}
	}

	brief := BuildBrief(item, analysis, p.now())
	if err := p.briefs.SaveBrief(brief); err != nil {
		p.record(logger, domain.ProcessingRecord{
			ID:           brief.ID,
			Type:         domain.RecordBrief,
			ItemID:       id,
			Status:       domain.StatusError,
			ErrorMessage: fmt.Sprintf("persist brief: %v", err),
		})
		return itemResult{outcome: outcomeError}
	}
	if p.index != nil {
		// The index is rebuildable from the brief files, so a write
		// failure here does not fail the item.
		if err := p.index.Add(brief.Meta()); err != nil {
			logger.Warn("brief index write failed", "brief_id", brief.ID, "error", err)
		}
	}

	analysisStatus := domain.StatusSuccess
	analysisMessage := ""
	if analysisErr != nil {
		// Sentinel path: the brief exists, but the record keeps the
		// parse failure visible.
		analysisStatus = domain.StatusError
		analysisMessage = analysisErr.Error()
	}
	p.record(logger, domain.ProcessingRecord{
		ID:           domain.AnalysisID(id),
		Type:         domain.RecordAnalysis,
		ItemID:       id,
		Status:       analysisStatus,
		ErrorMessage: analysisMessage,
	})
	p.record(logger, domain.ProcessingRecord{
		ID:     domain.ItemRecordID(id),
		Type:   domain.RecordSourceItem,
		ItemID: id,
		Status: domain.StatusSuccess,
	})
	p.record(logger, domain.ProcessingRecord{
		ID:     brief.ID,
		Type:   domain.RecordBrief,
		ItemID: id,
		Status: domain.StatusSuccess,
	})

	logger.Info("item processed", "item_id", id, "brief_id", brief.ID,
		"sentinel", analysis.Sentinel(), "limited_info", analysis.LimitedInfo())
	if analysisErr != nil {
		return itemResult{outcome: outcomeError, briefID: brief.ID}
	}
	return itemResult{outcome: outcomeProcessed, briefID: brief.ID}
}

// loadOrFetch prefers the raw cache; a miss goes to the source. The second
// return value reports a cache hit.
func (p *Pipeline) loadOrFetch(ctx context.Context, id int) (*domain.Item, bool, error) {
	if p.cache.Has(id) {
		item, err := p.cache.Load(id)
		if err == nil && item != nil {
			return item, true, nil
		}
		if err != nil {
			p.logger.Warn("raw cache read failed, refetching", "item_id", id, "error", err)
		}
	}
	item, err := p.source.Item(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("fetch item %d: %w", id, err)
	}
	return item, false, nil
}

// resolveAnalysis reuses a stored analysis when one exists; otherwise it
// invokes the model.
func (p *Pipeline) resolveAnalysis(ctx context.Context, item *domain.Item, logger *slog.Logger) (domain.AnalysisResult, error) {
	existing, err := p.analyses.LoadAnalysis(item.ID)
	if err != nil {
		logger.Warn("analysis store read failed", "item_id", item.ID, "error", err)
	}
	if existing != nil && !existing.Sentinel() {
		logger.Info("reusing stored analysis", "item_id", item.ID)
		return *existing, nil
	}
	return p.analyzer.Analyze(ctx, item)
}

func (p *Pipeline) record(logger *slog.Logger, record domain.ProcessingRecord) {
	record.ProcessedAt = p.now()
	if err := p.tracker.Record(record); err != nil {
		logger.Warn("outcome record write failed", "record_id", record.ID, "error", err)
	}
}

func (p *Pipeline) tally(out *CycleOutcome, results []itemResult) {
	for _, r := range results {
		switch r.outcome {
		case outcomeProcessed:
			out.Processed++
		case outcomeSkipped:
			out.Skipped++
		case outcomeError:
			out.Errors++
		}
		if r.briefID != "" {
			out.BriefIDs = append(out.BriefIDs, r.briefID)
		}
	}
}

// writeStats merges this cycle's counts into the stored absolute totals.
func (p *Pipeline) writeStats(out CycleOutcome, maxID, newCount int) error {
	stats, err := p.tracker.Stats()
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	stats.LastProcessedAt = p.now()
	stats.TotalProcessed += out.Processed
	stats.TotalErrors += out.Errors
	stats.TotalSkipped += out.Skipped
	stats.LastMaxItemID = maxID
	stats.LastNewCount = newCount
	if err := p.tracker.UpdateStats(stats); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

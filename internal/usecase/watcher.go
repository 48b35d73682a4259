package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hnbriefs/internal/ports"
)

// Watcher drives recurring pipeline cycles and tracks activity so operators
// can see when the feed has gone quiet. Shutdown is cancellation of the
// context passed to Run; in-flight cycles complete.
type Watcher struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
	maxIdle  time.Duration
	now      func() time.Time

	mu           sync.Mutex
	lastActivity time.Time
}

func NewWatcher(driver ports.Scheduler, pipeline *Pipeline, maxIdle time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		driver:   driver,
		pipeline: pipeline,
		logger:   logger,
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, executing one cycle per scheduler tick.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.lastActivity = w.now()
	w.mu.Unlock()

	if err := w.driver.Start(ctx, func(trigger time.Time) { w.tick(ctx, trigger) }); err != nil {
		return err
	}

	<-ctx.Done()
	w.logger.Info("watcher shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.driver.Stop(stopCtx)
}

func (w *Watcher) tick(ctx context.Context, trigger time.Time) {
	if ctx.Err() != nil {
		return
	}

	outcome, err := w.pipeline.RunCycle(ctx)
	if err != nil {
		w.logger.Error("cycle failed", "error", err)
		return
	}

	if outcome.Processed > 0 || outcome.Errors > 0 {
		w.mu.Lock()
		w.lastActivity = w.now()
		w.mu.Unlock()
	}

	if idle := w.idleFor(); w.maxIdle > 0 && idle > w.maxIdle {
		w.logger.Warn("feed idle beyond threshold",
			"idle", idle.Round(time.Second), "max_idle", w.maxIdle)
	}

	w.logger.Info("watch tick complete", "trigger", trigger.Format(time.RFC3339),
		"processed", outcome.Processed, "skipped", outcome.Skipped, "errors", outcome.Errors)
}

func (w *Watcher) idleFor() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now().Sub(w.lastActivity)
}

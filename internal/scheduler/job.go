package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jstrand/coingecko-data/internal/model"
)

// Collector assembles one raw batch per run.
type Collector interface {
	Collect(ctx context.Context) (*model.RawBatch, error)
}

// Normalizer derives the cleaned batch from a raw batch.
type Normalizer interface {
	Normalize(batch *model.RawBatch) *model.CleanedBatch
}

// NormalizerFunc is a function adapter for Normalizer.
type NormalizerFunc func(*model.RawBatch) *model.CleanedBatch

func (f NormalizerFunc) Normalize(batch *model.RawBatch) *model.CleanedBatch {
	return f(batch)
}

// Loader appends both batches to the warehouse.
type Loader interface {
	LoadRaw(ctx context.Context, batch *model.RawBatch) error
	LoadClean(ctx context.Context, batch *model.CleanedBatch) error
}

// RunError wraps the originating error of a failed run with the stage that
// produced it.
type RunError struct {
	Stage string // "collect", "load_raw", "load_clean"
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed at %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// State of the job. Succeeded and Failed are resting states: a new trigger
// may start whenever the job is not Running.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Config holds job scheduling configuration.
type Config struct {
	Interval   time.Duration // trigger cadence (default: 2h)
	RunTimeout time.Duration // aggregate per-run timeout, 0 = none
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:   2 * time.Hour,
		RunTimeout: 30 * time.Minute,
	}
}

// Job executes ingestion runs on a fixed interval.
type Job struct {
	cfg        Config
	collector  Collector
	normalizer Normalizer
	loader     Loader
	logger     *slog.Logger

	mu      sync.Mutex
	state   State
	lastRun *model.RunRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Job.
func New(cfg Config, collector Collector, normalizer Normalizer, loader Loader, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		cfg:        cfg,
		collector:  collector,
		normalizer: normalizer,
		loader:     loader,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current job state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// LastRun returns the most recent finished run record, or nil before the
// first run completes.
func (j *Job) LastRun() *model.RunRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun
}

// Start begins the trigger loop. The first run starts immediately; later
// runs start every Interval.
func (j *Job) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go j.run()

	j.logger.Info("ingestion job started",
		"interval", j.cfg.Interval,
		"run_timeout", j.cfg.RunTimeout,
	)
	return nil
}

// Stop gracefully shuts down the trigger loop, waiting for an in-flight run
// to finish or ctx to expire.
func (j *Job) Stop(ctx context.Context) error {
	if j.cancel != nil {
		j.cancel()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("ingestion job stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the trigger loop.
func (j *Job) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start.
	j.RunOnce(j.ctx)
	j.drainOverrun(ticker)

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(j.ctx)
			j.drainOverrun(ticker)
		}
	}
}

// drainOverrun drops a tick that fired while a run was in flight, so the
// next run starts at the next schedule boundary rather than immediately.
func (j *Job) drainOverrun(ticker *time.Ticker) {
	select {
	case <-ticker.C:
		j.logger.Warn("run overran interval, skipping queued trigger")
	default:
	}
}

// RunOnce executes a single run and returns its record. If another run is
// already in flight the trigger is skipped and the record says so.
func (j *Job) RunOnce(ctx context.Context) model.RunRecord {
	rec := model.RunRecord{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
	}

	if !j.begin() {
		rec.Outcome = model.OutcomeSkipped
		j.logger.Warn("trigger skipped, run already in flight", "run_id", rec.ID)
		return rec
	}

	if j.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.RunTimeout)
		defer cancel()
	}

	j.logger.Info("run started", "run_id", rec.ID)
	rec = j.execute(ctx, rec)
	rec.Duration = time.Since(rec.StartedAt)

	j.finish(rec)

	if rec.Outcome == model.OutcomeSucceeded {
		j.logger.Info("run succeeded",
			"run_id", rec.ID,
			"pages", rec.Pages,
			"raw_rows", rec.RawCount,
			"clean_rows", rec.CleanCount,
			"dropped", rec.Dropped,
			"duration", rec.Duration,
		)
	} else {
		j.logger.Error("run failed",
			"run_id", rec.ID,
			"error", rec.Err,
			"duration", rec.Duration,
		)
	}

	return rec
}

// execute runs the pipeline stages in order. The first failing stage aborts
// the rest; an already-durable load is never rolled back.
func (j *Job) execute(ctx context.Context, rec model.RunRecord) model.RunRecord {
	raw, err := j.collector.Collect(ctx)
	if err != nil {
		return fail(rec, "collect", err)
	}
	rec.Pages = raw.PageCount
	rec.RawCount = len(raw.Records)

	clean := j.normalizer.Normalize(raw)
	rec.CleanCount = len(clean.Records)
	rec.Dropped = clean.Dropped

	if err := j.loader.LoadRaw(ctx, raw); err != nil {
		return fail(rec, "load_raw", err)
	}

	if err := j.loader.LoadClean(ctx, clean); err != nil {
		return fail(rec, "load_clean", err)
	}

	rec.Outcome = model.OutcomeSucceeded
	return rec
}

func fail(rec model.RunRecord, stage string, err error) model.RunRecord {
	rec.Outcome = model.OutcomeFailed
	rec.Err = &RunError{Stage: stage, Err: err}
	return rec
}

// begin transitions to Running unless a run is already in flight.
func (j *Job) begin() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateRunning {
		return false
	}
	j.state = StateRunning
	return true
}

// finish records the terminal state of a run.
func (j *Job) finish(rec model.RunRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if rec.Outcome == model.OutcomeSucceeded {
		j.state = StateSucceeded
	} else {
		j.state = StateFailed
	}
	j.lastRun = &rec
}

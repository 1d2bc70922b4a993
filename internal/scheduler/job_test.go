package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstrand/coingecko-data/internal/model"
	"github.com/jstrand/coingecko-data/internal/normalize"
)

var fetchTime = time.Date(2025, 10, 13, 8, 0, 0, 0, time.UTC)

func testBatch(n int) *model.RawBatch {
	batch := &model.RawBatch{FetchedAt: fetchTime, PageCount: 8}
	for i := 0; i < n; i++ {
		batch.Records = append(batch.Records, model.SnapshotRecord{
			ID:          string(rune('a' + i%26)),
			LastUpdated: "2025-10-13T07:58:21Z",
		})
	}
	return batch
}

// stubCollector returns a canned batch or error.
type stubCollector struct {
	batch *model.RawBatch
	err   error
	block chan struct{} // when set, Collect waits until closed
	calls int
	mu    sync.Mutex
}

func (s *stubCollector) Collect(ctx context.Context) (*model.RawBatch, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func (s *stubCollector) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubLoader records calls and can fail either table.
type stubLoader struct {
	rawErr    error
	cleanErr  error
	rawCalls  int
	cleanCall int
	mu        sync.Mutex
}

func (s *stubLoader) LoadRaw(ctx context.Context, batch *model.RawBatch) error {
	s.mu.Lock()
	s.rawCalls++
	s.mu.Unlock()
	return s.rawErr
}

func (s *stubLoader) LoadClean(ctx context.Context, batch *model.CleanedBatch) error {
	s.mu.Lock()
	s.cleanCall++
	s.mu.Unlock()
	return s.cleanErr
}

func newTestJob(c Collector, l Loader) *Job {
	cfg := Config{Interval: time.Hour, RunTimeout: time.Minute}
	return New(cfg, c, NormalizerFunc(normalize.Batch), l, nil)
}

func TestRunOnce_Success(t *testing.T) {
	collector := &stubCollector{batch: testBatch(26)}
	loader := &stubLoader{}
	j := newTestJob(collector, loader)

	rec := j.RunOnce(context.Background())

	assert.Equal(t, model.OutcomeSucceeded, rec.Outcome)
	assert.NoError(t, rec.Err)
	assert.Equal(t, 8, rec.Pages)
	assert.Equal(t, 26, rec.RawCount)
	assert.Equal(t, 26, rec.CleanCount)
	assert.Zero(t, rec.Dropped)
	assert.Equal(t, 1, loader.rawCalls)
	assert.Equal(t, 1, loader.cleanCall)
	assert.Equal(t, StateSucceeded, j.State())

	last := j.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, rec.ID, last.ID)
}

func TestRunOnce_CollectFailureSkipsLoads(t *testing.T) {
	cause := errors.New("collection failed at page 5")
	collector := &stubCollector{err: cause}
	loader := &stubLoader{}
	j := newTestJob(collector, loader)

	rec := j.RunOnce(context.Background())

	assert.Equal(t, model.OutcomeFailed, rec.Outcome)
	assert.Equal(t, 0, loader.rawCalls, "loader must not be called when collection fails")
	assert.Equal(t, 0, loader.cleanCall)
	assert.Equal(t, StateFailed, j.State())

	var runErr *RunError
	require.ErrorAs(t, rec.Err, &runErr)
	assert.Equal(t, "collect", runErr.Stage)
	assert.ErrorIs(t, rec.Err, cause)
}

func TestRunOnce_LoadRawFailureSkipsClean(t *testing.T) {
	collector := &stubCollector{batch: testBatch(5)}
	loader := &stubLoader{rawErr: errors.New("copy failed")}
	j := newTestJob(collector, loader)

	rec := j.RunOnce(context.Background())

	assert.Equal(t, model.OutcomeFailed, rec.Outcome)
	assert.Equal(t, 1, loader.rawCalls)
	assert.Equal(t, 0, loader.cleanCall, "clean load aborted after raw failure")

	var runErr *RunError
	require.ErrorAs(t, rec.Err, &runErr)
	assert.Equal(t, "load_raw", runErr.Stage)
}

func TestRunOnce_LoadCleanFailureKeepsRawDurable(t *testing.T) {
	collector := &stubCollector{batch: testBatch(5)}
	loader := &stubLoader{cleanErr: errors.New("copy failed")}
	j := newTestJob(collector, loader)

	rec := j.RunOnce(context.Background())

	// Raw landed and stays; the run is still failed overall.
	assert.Equal(t, model.OutcomeFailed, rec.Outcome)
	assert.Equal(t, 1, loader.rawCalls)
	assert.Equal(t, 1, loader.cleanCall)

	var runErr *RunError
	require.ErrorAs(t, rec.Err, &runErr)
	assert.Equal(t, "load_clean", runErr.Stage)
}

func TestRunOnce_OverlappingTriggerIsSkipped(t *testing.T) {
	block := make(chan struct{})
	collector := &stubCollector{batch: testBatch(1), block: block}
	loader := &stubLoader{}
	j := newTestJob(collector, loader)

	first := make(chan model.RunRecord, 1)
	go func() {
		first <- j.RunOnce(context.Background())
	}()

	// Wait until the first run is in flight.
	require.Eventually(t, func() bool {
		return j.State() == StateRunning
	}, time.Second, time.Millisecond)

	second := j.RunOnce(context.Background())
	assert.Equal(t, model.OutcomeSkipped, second.Outcome)
	assert.Equal(t, 1, collector.callCount(), "skipped trigger must not collect")

	close(block)
	rec := <-first
	assert.Equal(t, model.OutcomeSucceeded, rec.Outcome)

	// Terminal states admit the next run.
	third := j.RunOnce(context.Background())
	assert.Equal(t, model.OutcomeSucceeded, third.Outcome)
}

func TestRunOnce_FailureDoesNotSuppressNextRun(t *testing.T) {
	collector := &stubCollector{err: errors.New("transient outage")}
	loader := &stubLoader{}
	j := newTestJob(collector, loader)

	rec := j.RunOnce(context.Background())
	assert.Equal(t, model.OutcomeFailed, rec.Outcome)

	// Next trigger runs independently of the previous failure.
	collector.err = nil
	collector.batch = testBatch(3)

	rec = j.RunOnce(context.Background())
	assert.Equal(t, model.OutcomeSucceeded, rec.Outcome)
	assert.Equal(t, StateSucceeded, j.State())
}

func TestStartStop(t *testing.T) {
	collector := &stubCollector{batch: testBatch(2)}
	loader := &stubLoader{}

	cfg := Config{Interval: time.Hour}
	j := New(cfg, collector, NormalizerFunc(normalize.Batch), loader, nil)

	ctx := context.Background()
	require.NoError(t, j.Start(ctx))

	// The immediate first run completes.
	require.Eventually(t, func() bool {
		return j.LastRun() != nil
	}, time.Second, time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, j.Stop(stopCtx))

	assert.Equal(t, 1, collector.callCount())
	assert.Equal(t, model.OutcomeSucceeded, j.LastRun().Outcome)
}

func TestRunOnce_RunTimeoutCancelsStages(t *testing.T) {
	block := make(chan struct{}) // never closed, collect waits on ctx
	collector := &stubCollector{batch: testBatch(1), block: block}
	loader := &stubLoader{}

	cfg := Config{Interval: time.Hour, RunTimeout: 10 * time.Millisecond}
	j := New(cfg, collector, NormalizerFunc(normalize.Batch), loader, nil)

	rec := j.RunOnce(context.Background())

	assert.Equal(t, model.OutcomeFailed, rec.Outcome)
	assert.ErrorIs(t, rec.Err, context.DeadlineExceeded)
	assert.Equal(t, 0, loader.rawCalls)
}

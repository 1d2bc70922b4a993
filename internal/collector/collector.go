package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jstrand/coingecko-data/internal/model"
)

// Fetcher fetches one page of snapshot records.
type Fetcher interface {
	FetchPage(ctx context.Context, page, perPage int) ([]model.SnapshotRecord, error)
}

// CollectionError reports a page that made the whole collection fail.
type CollectionError struct {
	FailedPage int
	Err        error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collection failed at page %d: %v", e.FailedPage, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// Config holds collector configuration.
type Config struct {
	Pages          int           // pages per batch (default: 8)
	PerPage        int           // records per page (default: 250)
	InterPageDelay time.Duration // sleep between pages (default: 4s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Pages:          8,
		PerPage:        250,
		InterPageDelay: 4 * time.Second,
	}
}

// Collector assembles one RawBatch by driving a Fetcher across pages 1..N.
type Collector struct {
	cfg     Config
	fetcher Fetcher
	logger  *slog.Logger

	// sleep is replaceable in tests to avoid wall-clock waits.
	sleep func(context.Context, time.Duration) error

	// now is replaceable in tests for a deterministic batch fetch time.
	now func() time.Time
}

// New creates a Collector.
func New(cfg Config, fetcher Fetcher, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// Collect fetches all configured pages in order and returns the assembled
// batch. Collection is all-or-nothing: any page failure returns a
// CollectionError and no batch. A page returning fewer records than PerPage,
// including zero, is valid and does not stop pagination.
func (c *Collector) Collect(ctx context.Context) (*model.RawBatch, error) {
	start := c.now().UTC()
	records := make([]model.SnapshotRecord, 0, c.cfg.Pages*c.cfg.PerPage)

	for page := 1; page <= c.cfg.Pages; page++ {
		if page > 1 {
			if err := c.sleep(ctx, c.cfg.InterPageDelay); err != nil {
				return nil, err
			}
		}

		recs, err := c.fetcher.FetchPage(ctx, page, c.cfg.PerPage)
		if err != nil {
			return nil, &CollectionError{FailedPage: page, Err: err}
		}

		records = append(records, recs...)

		c.logger.Debug("page fetched",
			"page", page,
			"records", len(recs),
		)
	}

	c.logger.Info("collection complete",
		"pages", c.cfg.Pages,
		"records", len(records),
		"duration", time.Since(start),
	)

	return &model.RawBatch{
		FetchedAt: start,
		PageCount: c.cfg.Pages,
		Records:   records,
	}, nil
}

// sleepContext sleeps for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

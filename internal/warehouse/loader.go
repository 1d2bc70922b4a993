package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jstrand/coingecko-data/internal/model"
)

const (
	RawTable   = "market_snapshots_raw"
	CleanTable = "market_snapshots_clean"
)

// SchemaMismatchError reports a batch whose shape violates the target table
// contract. Nothing is written when validation fails.
type SchemaMismatchError struct {
	Table  string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for %s: %s", e.Table, e.Reason)
}

// LoadError reports a durable-write failure.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load into %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader appends batches to the warehouse tables.
type Loader struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Loader backed by the given pool.
func New(db *pgxpool.Pool, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{db: db, logger: logger}
}

var rawColumns = []string{
	"id", "symbol", "name",
	"current_price", "market_cap", "total_volume",
	"high_24h", "low_24h", "price_change_pct_24h",
	"last_updated", "fetch_time", "page_count",
}

var cleanColumns = []string{
	"id", "symbol", "name",
	"price", "market_cap", "volume_24h",
	"high_24h", "low_24h", "price_change_pct_24h",
	"updated_at", "fetch_time",
}

// LoadRaw appends every record of the batch, exactly as received, to the
// raw table.
func (l *Loader) LoadRaw(ctx context.Context, batch *model.RawBatch) error {
	if err := validateRaw(batch); err != nil {
		return err
	}

	start := time.Now()
	if err := l.copyRows(ctx, RawTable, rawColumns, rawRows(batch)); err != nil {
		return &LoadError{Table: RawTable, Err: err}
	}

	l.logger.Info("raw batch loaded",
		"rows", len(batch.Records),
		"pages", batch.PageCount,
		"duration", time.Since(start),
	)
	return nil
}

// LoadClean appends the cleaned batch to the clean table.
func (l *Loader) LoadClean(ctx context.Context, batch *model.CleanedBatch) error {
	if err := validateClean(batch); err != nil {
		return err
	}

	start := time.Now()
	if err := l.copyRows(ctx, CleanTable, cleanColumns, cleanRows(batch)); err != nil {
		return &LoadError{Table: CleanTable, Err: err}
	}

	l.logger.Info("clean batch loaded",
		"rows", len(batch.Records),
		"dropped", batch.Dropped,
		"duration", time.Since(start),
	)
	return nil
}

// copyRows appends rows inside one transaction. COPY either lands the whole
// batch or nothing.
func (l *Loader) copyRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func validateRaw(batch *model.RawBatch) error {
	if batch == nil {
		return &SchemaMismatchError{Table: RawTable, Reason: "nil batch"}
	}
	if batch.FetchedAt.IsZero() {
		return &SchemaMismatchError{Table: RawTable, Reason: "zero fetch time"}
	}
	if batch.PageCount < 1 {
		return &SchemaMismatchError{Table: RawTable, Reason: fmt.Sprintf("page count %d", batch.PageCount)}
	}
	return nil
}

func validateClean(batch *model.CleanedBatch) error {
	if batch == nil {
		return &SchemaMismatchError{Table: CleanTable, Reason: "nil batch"}
	}
	if batch.FetchedAt.IsZero() {
		return &SchemaMismatchError{Table: CleanTable, Reason: "zero fetch time"}
	}
	for i, rec := range batch.Records {
		if rec.ID == "" {
			return &SchemaMismatchError{Table: CleanTable, Reason: fmt.Sprintf("record %d has empty id", i)}
		}
		if rec.UpdatedAt.IsZero() {
			return &SchemaMismatchError{Table: CleanTable, Reason: fmt.Sprintf("record %d (%s) has zero updated_at", i, rec.ID)}
		}
	}
	return nil
}

func rawRows(batch *model.RawBatch) [][]any {
	rows := make([][]any, len(batch.Records))
	for i, rec := range batch.Records {
		rows[i] = []any{
			rec.ID, rec.Symbol, rec.Name,
			rec.CurrentPrice, rec.MarketCap, rec.TotalVolume,
			rec.High24h, rec.Low24h, rec.PriceChangePct24h,
			rec.LastUpdated, batch.FetchedAt, batch.PageCount,
		}
	}
	return rows
}

func cleanRows(batch *model.CleanedBatch) [][]any {
	rows := make([][]any, len(batch.Records))
	for i, rec := range batch.Records {
		rows[i] = []any{
			rec.ID, rec.Symbol, rec.Name,
			rec.Price, rec.MarketCap, rec.Volume24h,
			rec.High24h, rec.Low24h, rec.PriceChangePct24h,
			rec.UpdatedAt, rec.FetchTime,
		}
	}
	return rows
}

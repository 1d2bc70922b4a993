package warehouse

import (
	"context"
	"fmt"
)

// Table definitions. Numeric market fields are nullable on purpose: NULL is
// the explicit "unknown" marker, a zero never stands in for missing data.
const (
	createRawTable = `
		CREATE TABLE IF NOT EXISTS market_snapshots_raw (
			id                   TEXT,
			symbol               TEXT,
			name                 TEXT,
			current_price        DOUBLE PRECISION,
			market_cap           DOUBLE PRECISION,
			total_volume         DOUBLE PRECISION,
			high_24h             DOUBLE PRECISION,
			low_24h              DOUBLE PRECISION,
			price_change_pct_24h DOUBLE PRECISION,
			last_updated         TEXT,
			fetch_time           TIMESTAMPTZ NOT NULL,
			page_count           INT NOT NULL
		)`

	createCleanTable = `
		CREATE TABLE IF NOT EXISTS market_snapshots_clean (
			id                   TEXT NOT NULL,
			symbol               TEXT,
			name                 TEXT,
			price                DOUBLE PRECISION,
			market_cap           DOUBLE PRECISION,
			volume_24h           DOUBLE PRECISION,
			high_24h             DOUBLE PRECISION,
			low_24h              DOUBLE PRECISION,
			price_change_pct_24h DOUBLE PRECISION,
			updated_at           TIMESTAMPTZ NOT NULL,
			fetch_time           TIMESTAMPTZ NOT NULL
		)`

	createCleanFetchTimeIndex = `
		CREATE INDEX IF NOT EXISTS market_snapshots_clean_fetch_time_idx
		ON market_snapshots_clean (fetch_time)`
)

// EnsureSchema creates both tables if they do not exist yet. Safe to call on
// every startup.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createRawTable, createCleanTable, createCleanFetchTimeIndex} {
		if _, err := l.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	l.logger.Info("warehouse schema ready",
		"raw_table", RawTable,
		"clean_table", CleanTable,
	)
	return nil
}

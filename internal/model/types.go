package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Source Types
// -----------------------------------------------------------------------------

// SnapshotRecord is one asset's market state exactly as returned by the
// source API. Numeric fields are pointers because the source may omit them
// or send null; LastUpdated is kept as the raw string until normalization.
type SnapshotRecord struct {
	ID                string   `json:"id"`
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	CurrentPrice      *float64 `json:"current_price"`
	MarketCap         *float64 `json:"market_cap"`
	TotalVolume       *float64 `json:"total_volume"`
	High24h           *float64 `json:"high_24h"`
	Low24h            *float64 `json:"low_24h"`
	PriceChangePct24h *float64 `json:"price_change_percentage_24h"`
	LastUpdated       string   `json:"last_updated"`
}

// RawBatch is the full ordered result of one collection run. It is assembled
// once and never mutated afterwards.
type RawBatch struct {
	FetchedAt time.Time        // run start time, tags every row of the batch
	PageCount int              // pages requested for this batch
	Records   []SnapshotRecord // concatenated in page order
}

// -----------------------------------------------------------------------------
// Cleaned Types
// -----------------------------------------------------------------------------

// CleanedRecord is a normalized snapshot ready for the clean table.
// Numeric fields are nil where the source value was missing or an implausible
// zero; UpdatedAt is always set (source timestamp or the batch fetch time).
type CleanedRecord struct {
	ID                string
	Symbol            string
	Name              string
	Price             *float64
	MarketCap         *float64
	Volume24h         *float64
	High24h           *float64
	Low24h            *float64
	PriceChangePct24h *float64
	UpdatedAt         time.Time
	FetchTime         time.Time
}

// CleanedBatch is derived from exactly one RawBatch. Input order is
// preserved minus dropped records.
type CleanedBatch struct {
	FetchedAt time.Time
	Records   []CleanedRecord
	Dropped   int // records removed for missing or duplicate identifiers
}

// -----------------------------------------------------------------------------
// Run Reporting
// -----------------------------------------------------------------------------

// Outcome is the terminal result of one scheduled run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped" // trigger dropped because a run was still in flight
)

// RunRecord reports one job invocation from start to terminal outcome.
type RunRecord struct {
	ID         uuid.UUID
	StartedAt  time.Time
	Duration   time.Duration
	Pages      int
	RawCount   int
	CleanCount int
	Dropped    int
	Outcome    Outcome
	Err        error // set when Outcome is OutcomeFailed
}

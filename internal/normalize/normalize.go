// Package normalize transforms a raw batch into its cleaned form. The
// transform is pure, deterministic, and per-record; it performs no I/O.
package normalize

import (
	"math"
	"time"

	"github.com/jstrand/coingecko-data/internal/model"
)

// Batch normalizes one raw batch into a cleaned batch.
//
// Rules, applied independently per record:
//   - empty identifier: record dropped and counted
//   - duplicate identifier: first occurrence wins, later ones dropped and counted
//   - market cap, volume, price: nil, zero, or non-finite becomes nil
//   - 24h change percent: zero and negative kept as-is, non-finite becomes nil
//   - last-updated: parsed as RFC 3339; unparseable falls back to the batch
//     fetch time, never drops the record
//
// Output order matches input order minus dropped records.
func Batch(raw *model.RawBatch) *model.CleanedBatch {
	out := &model.CleanedBatch{
		FetchedAt: raw.FetchedAt,
		Records:   make([]model.CleanedRecord, 0, len(raw.Records)),
	}

	seen := make(map[string]struct{}, len(raw.Records))

	for _, rec := range raw.Records {
		if rec.ID == "" {
			out.Dropped++
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			out.Dropped++
			continue
		}
		seen[rec.ID] = struct{}{}

		out.Records = append(out.Records, Record(rec, raw.FetchedAt))
	}

	return out
}

// Record normalizes a single snapshot record. The identifier is assumed
// valid; callers drop invalid identifiers before calling.
func Record(rec model.SnapshotRecord, fetchedAt time.Time) model.CleanedRecord {
	return model.CleanedRecord{
		ID:                rec.ID,
		Symbol:            rec.Symbol,
		Name:              rec.Name,
		Price:             positive(rec.CurrentPrice),
		MarketCap:         positive(rec.MarketCap),
		Volume24h:         positive(rec.TotalVolume),
		High24h:           positive(rec.High24h),
		Low24h:            positive(rec.Low24h),
		PriceChangePct24h: finite(rec.PriceChangePct24h),
		UpdatedAt:         parseTimestamp(rec.LastUpdated, fetchedAt),
		FetchTime:         fetchedAt,
	}
}

// parseTimestamp parses a source timestamp, falling back to the batch fetch
// time when the source value is missing or malformed.
func parseTimestamp(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fallback
	}
	return ts.UTC()
}

// positive maps missing, zero, and non-finite values to nil. A raw zero in
// these fields means "unknown" at the source; propagating it would corrupt
// downstream sums and averages.
func positive(v *float64) *float64 {
	if v == nil || *v == 0 || !isFinite(*v) {
		return nil
	}
	return v
}

// finite maps only missing and non-finite values to nil. Zero and negative
// values are legitimate for change percentages.
func finite(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

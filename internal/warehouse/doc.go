// Package warehouse implements the append-only loaders for the raw and
// clean snapshot tables.
//
// Loaders:
//   - LoadRaw appends one RawBatch to market_snapshots_raw
//   - LoadClean appends one CleanedBatch to market_snapshots_clean
//
// Each load runs in a single transaction using COPY, so a batch lands in
// full or not at all. Rows are never updated or deleted; the tables form an
// append-only log of snapshots over time. Raw and clean loads are
// independent: a successful append is never rolled back because the other
// table's load failed.
package warehouse

// Package scheduler implements the recurring ingestion job.
//
// The job composes collect → normalize → load-raw → load-clean into one run
// and executes it on a fixed interval. At most one run is in flight at any
// time; a trigger that fires while a run is still executing is skipped, not
// queued. A failed run never suppresses future triggers.
package scheduler

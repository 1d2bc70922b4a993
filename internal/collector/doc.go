// Package collector implements the paginated collection of one snapshot
// batch.
//
// The collector:
//   - Fetches a fixed number of pages strictly in order
//   - Sleeps a fixed delay between pages as a self-imposed throttle
//   - Fails the whole batch if any page is permanently unfetchable
//
// Page fetches are never parallelized; the inter-page delay is the rate
// limiting mechanism.
package collector

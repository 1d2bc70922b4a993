// Package api provides the CoinGecko REST client used to fetch paginated
// market snapshots.
//
// Endpoints:
//   - Public: https://api.coingecko.com/api/v3
//   - Pro:    https://pro-api.coingecko.com/api/v3 (requires API key)
//
// Only GET /coins/markets is used. The client retries transient failures
// internally; rate-limit responses (429) wait longer than generic transport
// errors before the next attempt.
package api

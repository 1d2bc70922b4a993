package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jstrand/coingecko-data/internal/model"
)

// FetchError reports a page that could not be fetched after exhausting the
// client's retry budget.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchPage fetches one page of market snapshots, ordered by market cap
// descending. Pages are 1-based per the CoinGecko convention. An empty page
// is a valid result (source exhausted).
func (c *Client) FetchPage(ctx context.Context, page, perPage int) ([]model.SnapshotRecord, error) {
	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))
	query.Set("sparkline", "false")

	var records []model.SnapshotRecord
	if err := c.get(ctx, "/coins/markets", query, &records); err != nil {
		return nil, &FetchError{Page: page, Err: err}
	}

	return records, nil
}

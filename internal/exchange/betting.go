package exchange

import (
	"context"
	"errors"
	"fmt"
)

// clearedOrdersPageSize is the maximum page size of listClearedOrders.
const clearedOrdersPageSize = 1000

// ListEvents returns the events matching filter.
func (c *Client) ListEvents(ctx context.Context, filter MarketFilter) ([]EventResult, error) {
	params := struct {
		Filter MarketFilter `json:"filter"`
	}{Filter: filter}

	var resp []EventResult
	if err := c.call(ctx, "listEvents", params, &resp); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return resp, nil
}

// ListMarketCatalogue returns up to maxResults catalogue entries matching filter.
func (c *Client) ListMarketCatalogue(ctx context.Context, filter MarketFilter, maxResults int, projections []string) ([]MarketCatalogue, error) {
	params := struct {
		Filter           MarketFilter `json:"filter"`
		MarketProjection []string     `json:"marketProjection,omitempty"`
		Sort             string       `json:"sort"`
		MaxResults       int          `json:"maxResults"`
	}{
		Filter:           filter,
		MarketProjection: projections,
		Sort:             "FIRST_TO_START",
		MaxResults:       maxResults,
	}

	var resp []MarketCatalogue
	if err := c.call(ctx, "listMarketCatalogue", params, &resp); err != nil {
		return nil, fmt.Errorf("list market catalogue: %w", err)
	}
	return resp, nil
}

// ListMarketBook returns the current book for each market id.
func (c *Client) ListMarketBook(ctx context.Context, marketIDs []string, projection PriceProjection) ([]APIMarketBook, error) {
	if len(marketIDs) == 0 {
		return nil, errors.New("list market book: no market ids")
	}

	params := struct {
		MarketIDs       []string        `json:"marketIds"`
		PriceProjection PriceProjection `json:"priceProjection"`
	}{
		MarketIDs:       marketIDs,
		PriceProjection: projection,
	}

	var resp []APIMarketBook
	if err := c.call(ctx, "listMarketBook", params, &resp); err != nil {
		return nil, fmt.Errorf("list market book: %w", err)
	}
	return resp, nil
}

// ListClearedOrders returns every order with betStatus matching filter,
// following pagination until the exchange reports no more.
func (c *Client) ListClearedOrders(ctx context.Context, betStatus string, filter ClearedOrdersFilter) ([]ClearedOrder, error) {
	var all []ClearedOrder

	for {
		params := struct {
			BetStatus   string   `json:"betStatus"`
			MarketIDs   []string `json:"marketIds,omitempty"`
			EventIDs    []string `json:"eventIds,omitempty"`
			FromRecord  int      `json:"fromRecord"`
			RecordCount int      `json:"recordCount"`
		}{
			BetStatus:   betStatus,
			MarketIDs:   filter.MarketIDs,
			EventIDs:    filter.EventIDs,
			FromRecord:  len(all),
			RecordCount: clearedOrdersPageSize,
		}

		var resp ClearedOrderReport
		if err := c.call(ctx, "listClearedOrders", params, &resp); err != nil {
			return nil, fmt.Errorf("list cleared orders: %w", err)
		}

		all = append(all, resp.ClearedOrders...)

		if !resp.MoreAvailable || len(resp.ClearedOrders) == 0 {
			break
		}
	}

	return all, nil
}

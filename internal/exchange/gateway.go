package exchange

import "context"

// Gateway is the full set of exchange operations used by the recorder.
// Consumers depend on narrower subsets.
type Gateway interface {
	Login(ctx context.Context) error
	KeepAlive(ctx context.Context) error
	Logout(ctx context.Context) error

	ListEvents(ctx context.Context, filter MarketFilter) ([]EventResult, error)
	ListMarketCatalogue(ctx context.Context, filter MarketFilter, maxResults int, projections []string) ([]MarketCatalogue, error)
	ListMarketBook(ctx context.Context, marketIDs []string, projection PriceProjection) ([]APIMarketBook, error)
	ListClearedOrders(ctx context.Context, betStatus string, filter ClearedOrdersFilter) ([]ClearedOrder, error)
}

var _ Gateway = (*Client)(nil)

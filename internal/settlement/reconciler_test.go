package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/betfair-logger/internal/exchange"
	"github.com/rickgao/betfair-logger/internal/model"
	"github.com/rickgao/betfair-logger/internal/store"
)

type fakeOrders struct {
	orders  []exchange.ClearedOrder
	err     error
	filters []exchange.ClearedOrdersFilter
}

func (f *fakeOrders) ListClearedOrders(_ context.Context, betStatus string, filter exchange.ClearedOrdersFilter) ([]exchange.ClearedOrder, error) {
	if betStatus != exchange.BetStatusSettled {
		return nil, errors.New("unexpected bet status " + betStatus)
	}
	f.filters = append(f.filters, filter)
	return f.orders, f.err
}

func seed(t *testing.T, st *store.Memory, eventID, marketID string) (model.Event, model.Market) {
	t.Helper()
	ctx := context.Background()

	event := model.Event{ExchangeID: eventID, Name: "Ascot"}
	_, err := st.SaveEvent(ctx, &event)
	require.NoError(t, err)

	market := model.Market{
		EventID:    event.ID,
		ExchangeID: marketID,
		StartTime:  time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC),
		Runners: []model.MarketRunner{
			{SelectionID: 10, Name: "Alpha", SortPriority: 1},
			{SelectionID: 20, Name: "Bravo", SortPriority: 2},
		},
	}
	_, err = st.SaveMarket(ctx, &market)
	require.NoError(t, err)
	return event, market
}

func order(betID, marketID string, selection int64, profit string) exchange.ClearedOrder {
	return exchange.ClearedOrder{
		BetID:          betID,
		MarketID:       marketID,
		SelectionID:    selection,
		Side:           "BACK",
		PlacedDate:     time.Date(2026, 10, 16, 13, 0, 0, 0, time.UTC),
		SizeSettled:    decimal.NewFromInt(2),
		PriceRequested: decimal.RequireFromString("4.0"),
		PriceMatched:   decimal.RequireFromString("4.1"),
		Profit:         decimal.RequireFromString(profit),
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	st := store.NewMemory()
	_, market := seed(t, st, "E1", "1.100")
	src := &fakeOrders{orders: []exchange.ClearedOrder{
		order("b1", "1.100", 10, "6.2"),
		order("b2", "1.100", 20, "-2"),
	}}
	r := New(src, st, nil)

	n, err := r.Reconcile(context.Background(), market)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for i := 0; i < 4; i++ {
		n, err = r.Reconcile(context.Background(), market)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	orders := st.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, market.ID, orders[0].MarketID)
	assert.Equal(t, market.Runners[0].ID, orders[0].MarketRunnerID)
	assert.Equal(t, market.Runners[1].ID, orders[1].MarketRunnerID)
	assert.Equal(t, "4.2", model.MarketProfit(orders).String())

	require.Len(t, src.filters, 5)
	assert.Equal(t, []string{"1.100"}, src.filters[0].MarketIDs)
}

func TestReconcile_UnknownRunnerSkipped(t *testing.T) {
	st := store.NewMemory()
	_, market := seed(t, st, "E1", "1.100")
	src := &fakeOrders{orders: []exchange.ClearedOrder{
		order("b1", "1.100", 999, "1"),
		order("b2", "1.100", 10, "1"),
	}}

	n, err := New(src, st, nil).Reconcile(context.Background(), market)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, st.Orders(), 1)
}

func TestReconcile_GatewayError(t *testing.T) {
	st := store.NewMemory()
	_, market := seed(t, st, "E1", "1.100")
	src := &fakeOrders{err: errors.New("timeout")}

	n, err := New(src, st, nil).Reconcile(context.Background(), market)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, st.Orders())
}

func TestReconcileEvents(t *testing.T) {
	st := store.NewMemory()
	e1, m1 := seed(t, st, "E1", "1.100")
	e2, m2 := seed(t, st, "E2", "1.200")
	src := &fakeOrders{orders: []exchange.ClearedOrder{
		order("b1", "1.100", 10, "1"),
		order("b2", "1.200", 20, "1"),
		order("b3", "1.999", 10, "1"), // Market not requested
	}}
	r := New(src, st, nil)

	n, err := r.ReconcileEvents(context.Background(), []model.Event{e1, e2}, []model.Market{m1, m2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"E1", "E2"}, src.filters[0].EventIDs)

	n, err = r.ReconcileEvents(context.Background(), []model.Event{e1, e2}, []model.Market{m1, m2})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = r.ReconcileEvents(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

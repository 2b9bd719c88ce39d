package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/betfair-logger/internal/exchange"
	"github.com/rickgao/betfair-logger/internal/model"
	"github.com/rickgao/betfair-logger/internal/store"
)

// OrderSource fetches cleared orders.
type OrderSource interface {
	ListClearedOrders(ctx context.Context, betStatus string, filter exchange.ClearedOrdersFilter) ([]exchange.ClearedOrder, error)
}

// Reconciler records settled orders.
type Reconciler struct {
	source OrderSource
	store  store.Store
	logger *slog.Logger
}

// New creates a Reconciler.
func New(source OrderSource, st store.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source: source,
		store:  st,
		logger: logger.With("component", "settlement"),
	}
}

// Reconcile fetches the market's settled orders and stores the new ones,
// returning how many were created.
func (r *Reconciler) Reconcile(ctx context.Context, market model.Market) (int, error) {
	orders, err := r.source.ListClearedOrders(ctx, exchange.BetStatusSettled, exchange.ClearedOrdersFilter{
		MarketIDs: []string{market.ExchangeID},
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile %s: %w", market.ExchangeID, err)
	}

	markets := map[string]model.Market{market.ExchangeID: market}
	return r.record(ctx, orders, markets)
}

// ReconcileEvents fetches settled orders for whole events and stores the new
// ones for any of the given markets. Orders for other markets are ignored.
func (r *Reconciler) ReconcileEvents(ctx context.Context, events []model.Event, markets []model.Market) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ExchangeID)
	}

	orders, err := r.source.ListClearedOrders(ctx, exchange.BetStatusSettled, exchange.ClearedOrdersFilter{
		EventIDs: ids,
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile events: %w", err)
	}

	byID := make(map[string]model.Market, len(markets))
	for _, m := range markets {
		byID[m.ExchangeID] = m
	}
	return r.record(ctx, orders, byID)
}

// record stores each order whose market and runner are known.
func (r *Reconciler) record(ctx context.Context, orders []exchange.ClearedOrder, markets map[string]model.Market) (int, error) {
	created := 0
	for _, co := range orders {
		market, ok := markets[co.MarketID]
		if !ok {
			continue
		}

		mr, err := r.store.FindMarketRunner(ctx, market.ID, co.SelectionID)
		if errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("skipping order for unknown runner",
				"bet", co.BetID,
				"market", co.MarketID,
				"selection", co.SelectionID,
			)
			continue
		}
		if err != nil {
			return created, err
		}

		order, err := exchange.ClearedOrderToModel(co)
		if err != nil {
			r.logger.Warn("skipping malformed order", "bet", co.BetID, "err", err)
			continue
		}
		order.MarketID = market.ID
		order.MarketRunnerID = mr.ID

		isNew, err := r.store.SaveSettledOrder(ctx, &order)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
			r.logger.Debug("recorded settled order",
				"bet", order.BetID,
				"market", co.MarketID,
				"side", order.Side,
				"profit", order.Profit,
			)
		}
	}
	return created, nil
}

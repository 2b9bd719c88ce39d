package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/catalog"
	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/exchange"
	"github.com/rickgao/betfair-logger/internal/model"
	"github.com/rickgao/betfair-logger/internal/settlement"
	"github.com/rickgao/betfair-logger/internal/store"
	"github.com/rickgao/betfair-logger/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/logger.local.yaml", "path to config file")
	from := flag.String("from", "", "first day to reconcile (YYYY-MM-DD, default yesterday)")
	to := flag.String("to", "", "last day to reconcile (YYYY-MM-DD, default same as -from)")
	metadata := flag.Bool("metadata", false, "also refresh jockey and trainer names on stored runners")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	start, end, err := parseRange(*from, *to, time.Now(), loc)
	if err != nil {
		logger.Error("invalid date range", "error", err)
		os.Exit(1)
	}

	logger.Info("starting backfill",
		"version", version.Version,
		"from", start.Format(time.DateOnly),
		"to", end.Add(-time.Nanosecond).Format(time.DateOnly),
		"metadata", *metadata,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := backfill(ctx, cfg, start, end, *metadata, logger)
	if err != nil {
		logger.Error("backfill failed", "error", err, "recorded", n)
		os.Exit(1)
	}
	logger.Info("backfill complete", "recorded", n)
}

// parseRange returns the half-open window [from, to+1 day) in loc. An empty
// from means yesterday; an empty to means the same day as from.
func parseRange(from, to string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day()-1, 0, 0, 0, 0, loc)

	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("-from: %w", err)
		}
		start = t
	}

	last := start
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("-to: %w", err)
		}
		last = t
	}
	if last.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-to %s is before -from %s", last.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	return start, last.AddDate(0, 0, 1), nil
}

// backfill reconciles settled orders for every stored market starting in
// [start, end), one day at a time. With metadata set it first refreshes
// runner metadata for the same markets.
func backfill(ctx context.Context, cfg *config.LoggerConfig, start, end time.Time, metadata bool, logger *slog.Logger) (int, error) {
	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	client, err := exchange.NewClientFromConfig(cfg.Exchange, logger)
	if err != nil {
		return 0, err
	}
	if err := client.Login(ctx); err != nil {
		return 0, fmt.Errorf("login: %w", err)
	}
	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Logout(logoutCtx); err != nil {
			logger.Warn("logout failed", "error", err)
		}
	}()

	if metadata {
		loader := catalog.NewLoader(cfg.Catalog, client, st, nil, logger)
		if _, err := refreshMetadata(ctx, loader, st, start, end, logger); err != nil {
			return 0, err
		}
	}

	return reconcileRange(ctx, settlement.New(client, st, logger), st, start, end, logger)
}

// refreshMetadata fills in jockey and trainer names on runners stored
// before the catalogue carried them.
func refreshMetadata(ctx context.Context, loader *catalog.Loader, st store.Store, start, end time.Time, logger *slog.Logger) (int, error) {
	total := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)

		events, err := st.EventsBetween(ctx, day, next)
		if err != nil {
			return total, err
		}
		markets, err := st.MarketsBetween(ctx, day, next)
		if err != nil {
			return total, err
		}

		n, err := loader.BackfillMetadata(ctx, events, markets)
		total += n
		if err != nil {
			return total, fmt.Errorf("metadata %s: %w", day.Format(time.DateOnly), err)
		}

		logger.Info("day metadata refreshed",
			"day", day.Format(time.DateOnly),
			"markets", len(markets),
			"runners", n,
		)
	}
	return total, nil
}

// reconcileRange walks [start, end) by day so each listClearedOrders call
// covers one day's events.
func reconcileRange(ctx context.Context, r *settlement.Reconciler, st store.Store, start, end time.Time, logger *slog.Logger) (int, error) {
	total := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)

		events, err := st.EventsBetween(ctx, day, next)
		if err != nil {
			return total, err
		}
		markets, err := st.MarketsBetween(ctx, day, next)
		if err != nil {
			return total, err
		}

		n, err := r.ReconcileEvents(ctx, events, markets)
		total += n
		if err != nil {
			return total, fmt.Errorf("reconcile %s: %w", day.Format(time.DateOnly), err)
		}

		profit, err := dayProfit(ctx, st, markets)
		if err != nil {
			return total, err
		}

		logger.Info("day reconciled",
			"day", day.Format(time.DateOnly),
			"events", len(events),
			"markets", len(markets),
			"recorded", n,
			"profit", profit.StringFixed(2),
		)
	}
	return total, nil
}

// dayProfit sums the settled profit over markets.
func dayProfit(ctx context.Context, st store.Store, markets []model.Market) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, m := range markets {
		orders, err := st.SettledOrders(ctx, m.ID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("settled orders for %s: %w", m.ExchangeID, err)
		}
		total = total.Add(model.MarketProfit(orders))
	}
	return total, nil
}

package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/exchange"
	"github.com/rickgao/betfair-logger/internal/metrics"
	"github.com/rickgao/betfair-logger/internal/model"
	"github.com/rickgao/betfair-logger/internal/store"
)

// BookSource fetches market books.
type BookSource interface {
	ListMarketBook(ctx context.Context, marketIDs []string, projection exchange.PriceProjection) ([]exchange.APIMarketBook, error)
}

// Settler records settled orders for a closed market and returns how many
// were new.
type Settler interface {
	Reconcile(ctx context.Context, market model.Market) (int, error)
}

// BookSink receives every persisted snapshot.
type BookSink interface {
	Publish(ctx context.Context, market model.Market, book model.MarketBook) error
}

// Config holds poller configuration.
type Config struct {
	TickInterval time.Duration // Sleep between ticks (default: 250ms)
	FetchTimeout time.Duration // Per-fetch timeout (default: 10s)
	Cadence      Cadence
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: config.DefaultTickInterval,
		FetchTimeout: config.DefaultFetchTimeout,
		Cadence:      DefaultCadence(),
	}
}

// ConfigFrom converts the poller section of the config file.
func ConfigFrom(cfg config.PollerConfig) Config {
	out := DefaultConfig()
	if cfg.TickInterval > 0 {
		out.TickInterval = cfg.TickInterval
	}
	if cfg.FetchTimeout > 0 {
		out.FetchTimeout = cfg.FetchTimeout
	}
	if len(cfg.Cadence) > 0 {
		out.Cadence = CadenceFromConfig(cfg.Cadence)
	}
	return out
}

// Poller runs the tick loop for a Session.
type Poller struct {
	cfg     Config
	source  BookSource
	store   store.Store
	settler Settler
	sink    BookSink
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithSink publishes every stored snapshot to s.
func WithSink(s BookSink) Option {
	return func(p *Poller) {
		p.sink = s
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// New creates a new Poller.
func New(cfg Config, source BookSource, st store.Store, settler Settler, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		cfg:     cfg,
		source:  source,
		store:   st,
		settler: settler,
		logger:  logger.With("component", "poller"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ticks until every market in the session has closed, the context ends,
// or the exchange rejects the session.
func (p *Poller) Run(ctx context.Context, sess *Session) error {
	p.logger.Info("poll session started",
		"session", sess.ID,
		"markets", sess.Len(),
		"open", sess.Open(),
		"tick", p.cfg.TickInterval,
		"horizon", p.cfg.Cadence.Horizon(),
	)

	for !sess.Done() {
		if err := p.tick(ctx, sess); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.TickInterval):
		}
	}

	p.logger.Info("poll session complete",
		"session", sess.ID,
		"markets", sess.Len(),
		"duration", p.now().Sub(sess.Started),
	)
	return nil
}

// tick fetches every due market once, in sequence. Per-market failures are
// logged and skipped; only a session rejection or cancellation is returned.
func (p *Poller) tick(ctx context.Context, sess *Session) error {
	due := sess.due(p.now(), p.cfg.Cadence)
	if len(due) == 0 {
		return nil
	}

	var failed int
	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.poll(ctx, sess, e); err != nil {
			if exchange.IsSessionError(err) {
				return fmt.Errorf("poll %s: %w", e.market.ExchangeID, err)
			}
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			p.logger.Warn("failed to poll market",
				"market", e.market.ExchangeID,
				"err", err,
			)
		}
	}

	p.metrics.SetPhases(sess.PhaseCounts())
	p.logger.Debug("tick complete",
		"due", len(due),
		"failed", failed,
		"open", sess.Open(),
	)
	return nil
}

// poll fetches one market, applies the lifecycle and persists the snapshot.
func (p *Poller) poll(ctx context.Context, sess *Session, e *entry) error {
	fctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	started := time.Now()
	fetchedAt := p.now()
	books, err := p.source.ListMarketBook(fctx, []string{e.market.ExchangeID}, exchange.BestOffersProjection())
	p.metrics.FetchDone(time.Since(started), err)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return errors.New("no book returned")
	}

	book, err := exchange.MarketBookToModel(books[0], fetchedAt)
	if err != nil {
		return err
	}
	book.MarketID = e.market.ID
	book.Runners = p.attachRunners(e.market, book.Runners)

	// A suspended snapshot following a stored suspended snapshot adds nothing.
	if book.Status == model.StatusSuspended && e.market.LastBook != nil && e.market.LastBook.Status == model.StatusSuspended {
		sess.update(e, func(e *entry) {
			e.lastPolled = fetchedAt
		})
		p.metrics.BookCollapsed()
		return nil
	}

	if err := p.store.SaveMarketBook(ctx, &book); err != nil {
		return err
	}
	p.metrics.BookStored()

	var from, to Phase
	sess.update(e, func(e *entry) {
		ref := book.Ref()
		e.market.LastBook = ref
		if store.IsPrerace(&book) {
			e.market.LastPrerace = ref
		}
		if store.IsInplay(&book) {
			e.market.LastInplay = ref
		}
		e.lastPolled = fetchedAt
		from = e.phase
		e.phase = Next(e.phase, book.Status, book.InPlay)
		to = e.phase
	})

	if from != to {
		p.logger.Info("market phase changed",
			"market", e.market.ExchangeID,
			"name", e.market.Name,
			"from", from,
			"to", to,
			"book", book.ID,
		)
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, e.market, book); err != nil {
			p.metrics.FeedError()
			p.logger.Warn("failed to publish book", "market", e.market.ExchangeID, "err", err)
		}
	}

	if to == PhaseClosed && from != PhaseClosed {
		p.metrics.MarketClosed()
		p.recordStartingPrices(ctx, sess, e)
		p.settle(ctx, sess, e)
	}
	return nil
}

// attachRunners sets market runner ids on runner books, dropping selections
// not in the catalog.
func (p *Poller) attachRunners(m model.Market, runners []model.RunnerBook) []model.RunnerBook {
	ids := make(map[int64]int64, len(m.Runners))
	for _, mr := range m.Runners {
		ids[mr.SelectionID] = mr.ID
	}

	out := runners[:0]
	for _, rb := range runners {
		id, ok := ids[rb.SelectionID]
		if !ok {
			p.logger.Debug("dropping unknown runner",
				"market", m.ExchangeID,
				"selection", rb.SelectionID,
			)
			continue
		}
		rb.MarketRunnerID = id
		out = append(out, rb)
	}
	return out
}

// recordStartingPrices keeps each runner's starting price for the roster
// view once the market has closed.
func (p *Poller) recordStartingPrices(ctx context.Context, sess *Session, e *entry) {
	prices, err := p.store.StartingPrices(ctx, e.market.ID)
	if err != nil {
		p.logger.Warn("failed to load starting prices",
			"market", e.market.ExchangeID,
			"err", err,
		)
		return
	}

	bySelection := make(map[int64]decimal.Decimal, len(prices))
	for _, mr := range e.market.Runners {
		if sp, ok := prices[mr.ID]; ok {
			bySelection[mr.SelectionID] = sp
		}
	}
	sess.update(e, func(e *entry) {
		e.startingPrices = bySelection
	})
}

// settle invokes the settler once for a newly closed market and logs the
// market's realised profit. Failures are logged; the market stays closed.
func (p *Poller) settle(ctx context.Context, sess *Session, e *entry) {
	if p.settler == nil {
		return
	}

	n, err := p.settler.Reconcile(ctx, e.market)
	if err != nil {
		p.logger.Error("settlement failed",
			"market", e.market.ExchangeID,
			"err", err,
		)
		return
	}
	p.metrics.OrdersSettled(n)

	orders, err := p.store.SettledOrders(ctx, e.market.ID)
	if err != nil {
		p.logger.Warn("failed to load settled orders",
			"market", e.market.ExchangeID,
			"err", err,
		)
		sess.update(e, func(e *entry) {
			e.settled = n
		})
		return
	}

	profit := model.MarketProfit(orders)
	sess.update(e, func(e *entry) {
		e.settled = n
		e.profit = &profit
	})
	p.logger.Info("market settled",
		"market", e.market.ExchangeID,
		"name", e.market.Name,
		"orders", n,
		"profit", profit,
	)
}

package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/betfair-logger/internal/catalog"
	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/exchange"
	"github.com/rickgao/betfair-logger/internal/metrics"
	"github.com/rickgao/betfair-logger/internal/poller"
	"github.com/rickgao/betfair-logger/internal/settlement"
	"github.com/rickgao/betfair-logger/internal/store"
)

const logoutTimeout = 10 * time.Second

// StoreOpener opens the store for one day run.
type StoreOpener func(ctx context.Context) (store.Store, error)

// Recorder owns the day loop.
type Recorder struct {
	cfg       *config.LoggerConfig
	gateway   exchange.Gateway
	openStore StoreOpener
	sink      poller.BookSink
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	loc                  *time.Location
	wakeHour, wakeMinute int

	mu      sync.RWMutex
	session *poller.Session
	store   store.Store
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithStoreOpener replaces the configured store.
func WithStoreOpener(open StoreOpener) Option {
	return func(r *Recorder) {
		r.openStore = open
	}
}

// WithSink publishes every stored snapshot to s.
func WithSink(s poller.BookSink) Option {
	return func(r *Recorder) {
		r.sink = s
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// New creates a Recorder for a validated config.
func New(cfg *config.LoggerConfig, gw exchange.Gateway, logger *slog.Logger, opts ...Option) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	hour, minute, err := cfg.Schedule.WakeClock()
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		cfg:        cfg,
		gateway:    gw,
		logger:     logger.With("component", "recorder"),
		now:        time.Now,
		loc:        loc,
		wakeHour:   hour,
		wakeMinute: minute,
	}
	r.openStore = func(ctx context.Context) (store.Store, error) {
		return store.Open(ctx, cfg.Database, logger)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run loops over days until ctx is cancelled. It sleeps until the next wake
// time first unless schedule.run_on_start is set. Each later day starts at
// the previous day's deadline.
func (r *Recorder) Run(ctx context.Context) error {
	var wake time.Time
	if !r.cfg.Schedule.RunOnStart {
		wake = r.nextWake(r.now())
	}

	for {
		if !wake.IsZero() {
			r.logger.Info("sleeping until next wake", "wake", wake)
			if err := r.sleep(ctx, wake.Sub(r.now())); err != nil {
				return err
			}
		}

		for {
			deadline, err := r.runDay(ctx)
			if err == nil {
				wake = deadline
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			r.metrics.DayRestarted()
			r.logger.Error("day run failed",
				"err", err,
				"retry_in", r.cfg.Schedule.RestartBackoff,
			)
			if err := r.sleep(ctx, r.cfg.Schedule.RestartBackoff); err != nil {
				return err
			}
		}
	}
}

// RunDay records the current day. It returns nil once every market has
// closed or the next wake time arrives.
func (r *Recorder) RunDay(ctx context.Context) error {
	_, err := r.runDay(ctx)
	return err
}

// runDay is RunDay, also returning the wake time that bounds the run.
func (r *Recorder) runDay(ctx context.Context) (time.Time, error) {
	now := r.now()
	local := now.In(r.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	deadline := r.nextWake(now)

	// Measured on the recorder's clock, which may not be the wall clock.
	dayCtx, cancel := context.WithTimeout(ctx, deadline.Sub(now))
	defer cancel()

	r.logger.Info("day run starting", "day", day.Format(time.DateOnly), "deadline", deadline)

	st, err := r.openStore(dayCtx)
	if err != nil {
		return deadline, fmt.Errorf("open store: %w", err)
	}
	r.setStore(st)
	defer func() {
		r.setStore(nil)
		st.Close()
	}()

	if err := r.gateway.Login(dayCtx); err != nil {
		return deadline, fmt.Errorf("login: %w", err)
	}
	defer r.logout()

	markets, err := catalog.NewLoader(r.cfg.Catalog, r.gateway, st, r.metrics, r.logger).Load(dayCtx, day)
	if err != nil {
		return deadline, fmt.Errorf("load catalog: %w", err)
	}

	sess := poller.NewSession(markets, r.now())
	r.setSession(sess)

	opts := []poller.Option{poller.WithMetrics(r.metrics), poller.WithClock(r.now)}
	if r.sink != nil {
		opts = append(opts, poller.WithSink(r.sink))
	}
	p := poller.New(
		poller.ConfigFrom(r.cfg.Poller),
		r.gateway,
		st,
		settlement.New(r.gateway, st, r.logger),
		r.logger,
		opts...,
	)

	g, gctx := errgroup.WithContext(dayCtx)
	polled := make(chan struct{})
	g.Go(func() error {
		defer close(polled)
		return p.Run(gctx, sess)
	})
	g.Go(func() error {
		return r.keepAlive(gctx, polled)
	})
	err = g.Wait()

	switch {
	case err == nil:
		r.logger.Info("day run complete",
			"day", day.Format(time.DateOnly),
			"markets", sess.Len(),
		)
		return deadline, nil
	case ctx.Err() != nil:
		return deadline, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded) && dayCtx.Err() != nil:
		r.logger.Warn("day ended with open markets",
			"day", day.Format(time.DateOnly),
			"open", sess.Open(),
		)
		return deadline, nil
	default:
		return deadline, err
	}
}

// keepAlive refreshes the exchange session until the poller finishes. A
// rejected session ends the day; other failures are retried next interval.
func (r *Recorder) keepAlive(ctx context.Context, done <-chan struct{}) error {
	ticker := time.NewTicker(r.cfg.Schedule.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case <-ticker.C:
			if err := r.gateway.KeepAlive(ctx); err != nil {
				if exchange.IsSessionError(err) {
					return fmt.Errorf("keep alive: %w", err)
				}
				r.logger.Warn("keep alive failed", "err", err)
				continue
			}
			r.logger.Debug("session kept alive")
		}
	}
}

func (r *Recorder) logout() {
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()

	if err := r.gateway.Logout(ctx); err != nil {
		r.logger.Warn("logout failed", "err", err)
		return
	}
	r.logger.Info("logged out")
}

// nextWake returns the first wake time strictly after now.
func (r *Recorder) nextWake(now time.Time) time.Time {
	local := now.In(r.loc)
	wake := time.Date(local.Year(), local.Month(), local.Day(), r.wakeHour, r.wakeMinute, 0, 0, r.loc)
	if !wake.After(now) {
		wake = time.Date(local.Year(), local.Month(), local.Day()+1, r.wakeHour, r.wakeMinute, 0, 0, r.loc)
	}
	return wake
}

func (r *Recorder) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Session returns the current day's roster, or nil before the first catalog
// load.
func (r *Recorder) Session() *poller.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

func (r *Recorder) setSession(s *poller.Session) {
	r.mu.Lock()
	r.session = s
	r.mu.Unlock()
}

// Ping checks the store of the running day. It reports false when no day is
// running.
func (r *Recorder) Ping(ctx context.Context) (bool, error) {
	r.mu.RLock()
	st := r.store
	r.mu.RUnlock()

	if st == nil {
		return false, nil
	}
	return true, st.Ping(ctx)
}

func (r *Recorder) setStore(st store.Store) {
	r.mu.Lock()
	r.store = st
	r.mu.Unlock()
}

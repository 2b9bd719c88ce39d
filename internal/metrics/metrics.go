package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "betfair_logger"

// Metrics holds the recorder's collectors.
type Metrics struct {
	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	booksStored    prometheus.Counter
	booksCollapsed prometheus.Counter
	marketsByPhase *prometheus.GaugeVec
	marketsClosed  prometheus.Counter
	ordersSettled  prometheus.Counter
	catalogMarkets prometheus.Gauge
	dayRestarts    prometheus.Counter
	feedErrors     prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_fetches_total",
			Help:      "Market book fetches by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "book_fetch_duration_seconds",
			Help:      "Latency of market book fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.025, 2, 10),
		}),
		booksStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_stored_total",
			Help:      "Market book snapshots persisted.",
		}),
		booksCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_collapsed_total",
			Help:      "Repeated suspended snapshots dropped.",
		}),
		marketsByPhase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markets",
			Help:      "Tracked markets by lifecycle phase.",
		}, []string{"phase"}),
		marketsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markets_closed_total",
			Help:      "Markets observed closing.",
		}),
		ordersSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_settled_total",
			Help:      "Settled orders recorded.",
		}),
		catalogMarkets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_markets",
			Help:      "Markets discovered for the current day.",
		}),
		dayRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_restarts_total",
			Help:      "Day runs restarted after an error.",
		}),
		feedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_errors_total",
			Help:      "Snapshot feed publish failures.",
		}),
	}

	reg.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.booksStored,
		m.booksCollapsed,
		m.marketsByPhase,
		m.marketsClosed,
		m.ordersSettled,
		m.catalogMarkets,
		m.dayRestarts,
		m.feedErrors,
	)
	return m
}

// FetchDone records one market book fetch.
func (m *Metrics) FetchDone(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// BookStored counts a persisted snapshot.
func (m *Metrics) BookStored() {
	if m == nil {
		return
	}
	m.booksStored.Inc()
}

// BookCollapsed counts a dropped repeat suspended snapshot.
func (m *Metrics) BookCollapsed() {
	if m == nil {
		return
	}
	m.booksCollapsed.Inc()
}

// SetPhases replaces the per-phase market gauge.
func (m *Metrics) SetPhases(counts map[string]int) {
	if m == nil {
		return
	}
	m.marketsByPhase.Reset()
	for phase, n := range counts {
		m.marketsByPhase.WithLabelValues(phase).Set(float64(n))
	}
}

// MarketClosed counts a market reaching its terminal state.
func (m *Metrics) MarketClosed() {
	if m == nil {
		return
	}
	m.marketsClosed.Inc()
}

// OrdersSettled counts newly recorded settled orders.
func (m *Metrics) OrdersSettled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ordersSettled.Add(float64(n))
}

// CatalogLoaded records the size of the day's roster.
func (m *Metrics) CatalogLoaded(markets int) {
	if m == nil {
		return
	}
	m.catalogMarkets.Set(float64(markets))
}

// DayRestarted counts a restart of the day run.
func (m *Metrics) DayRestarted() {
	if m == nil {
		return
	}
	m.dayRestarts.Inc()
}

// FeedError counts a failed feed publish.
func (m *Metrics) FeedError() {
	if m == nil {
		return
	}
	m.feedErrors.Inc()
}

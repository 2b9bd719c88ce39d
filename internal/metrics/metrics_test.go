package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FetchDone(10*time.Millisecond, nil)
	m.FetchDone(20*time.Millisecond, errors.New("boom"))
	m.FetchDone(30*time.Millisecond, nil)
	m.BookStored()
	m.BookCollapsed()
	m.OrdersSettled(3)
	m.OrdersSettled(0)
	m.CatalogLoaded(12)
	m.SetPhases(map[string]int{"prerace": 2, "closed": 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.booksStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.booksCollapsed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ordersSettled))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.catalogMarkets))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.marketsByPhase.WithLabelValues("prerace")))

	m.SetPhases(map[string]int{"closed": 3})
	assert.Equal(t, 1, testutil.CollectAndCount(m.marketsByPhase))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FetchDone(time.Second, nil)
		m.BookStored()
		m.BookCollapsed()
		m.SetPhases(map[string]int{"prerace": 1})
		m.MarketClosed()
		m.OrdersSettled(1)
		m.CatalogLoaded(1)
		m.DayRestarted()
		m.FeedError()
	})
}

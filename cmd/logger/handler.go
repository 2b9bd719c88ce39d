package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/betfair-logger/internal/poller"
)

// dayState is the part of the recorder the ops endpoints read.
type dayState interface {
	Session() *poller.Session
	Ping(ctx context.Context) (bool, error)
}

// newHandler creates the HTTP handler for health, metrics and the roster.
func newHandler(metricsPath string, gatherer prometheus.Gatherer, day dayState) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check store
		running, err := day.Ping(ctx)
		switch {
		case !running:
			health.Components["store"] = "idle"
		case err != nil:
			health.Status = "unhealthy"
			health.Components["store"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		default:
			health.Components["store"] = "connected"
		}

		// Summarise the roster
		if sess := day.Session(); sess != nil {
			health.Components["roster"] = map[string]any{
				"session": sess.ID,
				"markets": sess.Len(),
				"open":    sess.Open(),
				"phases":  sess.PhaseCounts(),
			}
		} else {
			health.Components["roster"] = "not loaded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/roster", func(w http.ResponseWriter, r *http.Request) {
		sess := day.Session()
		if sess == nil {
			http.Error(w, "no roster loaded", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"session": sess.ID,
			"started": sess.Started,
			"open":    sess.Open(),
			"markets": sess.Markets(),
		})
	})

	return mux
}

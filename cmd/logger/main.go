package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/exchange"
	"github.com/rickgao/betfair-logger/internal/feed"
	"github.com/rickgao/betfair-logger/internal/metrics"
	"github.com/rickgao/betfair-logger/internal/recorder"
	"github.com/rickgao/betfair-logger/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/logger.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	level, _ := cfg.Logging.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting logger",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("logger failed", "error", err)
		os.Exit(1)
	}
	logger.Info("logger stopped")
}

func run(ctx context.Context, cfg *config.LoggerConfig, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client, err := exchange.NewClientFromConfig(cfg.Exchange, logger)
	if err != nil {
		return fmt.Errorf("create exchange client: %w", err)
	}

	opts := []recorder.Option{recorder.WithMetrics(m)}
	if cfg.Feed.Enabled {
		pub := feed.NewPublisher(cfg.Feed, logger)
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Warn("failed to close feed", "error", err)
			}
		}()
		opts = append(opts, recorder.WithSink(pub))
		logger.Info("snapshot feed enabled", "brokers", cfg.Feed.Brokers, "topic", cfg.Feed.Topic)
	}

	rec, err := recorder.New(cfg, client, logger, opts...)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newHandler(cfg.Metrics.Path, reg, rec),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting ops server",
			"port", cfg.Metrics.Port,
			"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := rec.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	logger.Info("logger running",
		"wake_at", cfg.Schedule.WakeAt,
		"timezone", cfg.Schedule.Timezone,
		"run_on_start", cfg.Schedule.RunOnStart,
	)

	return g.Wait()
}

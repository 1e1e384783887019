package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/term-dates/internal/logger"
	"github.com/pfrederiksen/term-dates/internal/metrics"
	"github.com/pfrederiksen/term-dates/internal/refresh"
	"github.com/pfrederiksen/term-dates/internal/schedule"
	"github.com/pfrederiksen/term-dates/internal/scraper"
	"github.com/pfrederiksen/term-dates/internal/server"
	"github.com/pfrederiksen/term-dates/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var (
	flagHost      string
	flagPort      int
	flagRateLimit int
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily refresh",
		Long: `Opens the cache, runs a refresh immediately and then once a day at the configured
hour, and serves the cached data over HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&flagHost, "host", "", "Listen host (overrides HOST)")
	cmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (overrides PORT)")
	cmd.Flags().IntVar(&flagRateLimit, "rate-limit", server.DefaultRateLimit, "Requests per minute per client IP (negative disables)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = flagHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = flagPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.CachePath)
	if err != nil {
		log.Error("Opening cache", logger.Fields{"path": cfg.CachePath}, err)
		return fmt.Errorf("opening cache: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipeline := metrics.New(reg)
	pipeline.SetCachedYears(len(store.Years()))

	refresher := refresh.New(scraper.New(cfg.SourceURL), store,
		refresh.WithLocation(loc),
		refresh.WithMetrics(pipeline),
		refresh.WithLogger(log),
	)
	sched, err := schedule.New(cfg.RefreshHour, loc, schedule.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		refresher.Run(ctx)
		if err := sched.Run(ctx, refresher.Run); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Scheduler stopped", nil, err)
		}
	}()

	srv := server.New(store, &server.Config{
		RateLimit: flagRateLimit,
		Gatherer:  reg,
		Logger:    log,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Listening", logger.Fields{"addr": cfg.Addr(), "cache": store.Path()})
		serveErr <- srv.Start(cfg.Addr())
	}()

	select {
	case err := <-serveErr:
		stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutting down HTTP server", nil, err)
	}

	select {
	case <-refreshDone:
	case <-shutdownCtx.Done():
		log.Warn("Refresh still running at exit", nil)
	}
	return nil
}

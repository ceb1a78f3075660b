package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"floorwatch/core-go/internal/blink"
	"floorwatch/core-go/internal/config"
	"floorwatch/core-go/internal/db"
	"floorwatch/core-go/internal/floorstore"
	"floorwatch/core-go/internal/httpapi"
	"floorwatch/core-go/internal/layout"
	"floorwatch/core-go/internal/metrics"
	"floorwatch/core-go/internal/refresher"
	"floorwatch/core-go/internal/source"
	"floorwatch/core-go/internal/view"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "floorwatch",
		Short:        "Serve live floor-plan views of safety jackets",
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			if configFile == "" {
				configFile = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := cfg.Log.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *db.Pool
	if cfg.Database.URL != "" {
		p, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer p.Close()
		pool = p
	}

	fetcher, err := newFetcher(logger, cfg, pool)
	if err != nil {
		return err
	}

	m := metrics.New()
	h := httpapi.NewHandler(logger, fetcher, pool, httpapi.Options{
		View: view.Options{
			InitialFloor: cfg.View.InitialFloor,
			FetchTimeout: cfg.View.FetchTimeout,
			Blink: blink.Options{
				HalfPeriod: cfg.View.BlinkHalfPeriod,
				Frame:      cfg.View.BlinkFrame,
			},
			Layout: layout.Options{
				Spread:   cfg.View.MarkerSpread,
				IconSize: cfg.View.IconSize,
			},
			TooltipWidth:  cfg.View.TooltipWidth,
			TooltipHeight: cfg.View.TooltipHeight,
		},
		MinPollInterval: cfg.View.MinPollInterval,
		MaxViews:        cfg.View.MaxViews,
		Metrics:         m,
	})
	defer h.Close()

	if cfg.MQTT.Broker != "" {
		trig := refresher.NewMQTTTrigger(logger, refresher.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      byte(cfg.MQTT.QoS),
		}, h.RefreshBuilding, m)
		if err := trig.Start(); err != nil {
			// Views still work without push refreshes.
			logger.Error().Err(err).Str("broker", cfg.MQTT.Broker).Msg("mqtt refresh trigger disabled")
		} else {
			defer trig.Stop()
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Str("source", cfg.Source.Kind).Msg("floorwatch listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
	return nil
}

func newFetcher(log zerolog.Logger, cfg config.Config, pool *db.Pool) (floorstore.Fetcher, error) {
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		headers := map[string]string{}
		if cfg.Source.APIKey != "" {
			headers["X-API-Key"] = cfg.Source.APIKey
		}
		return source.NewHTTPFetcher(log, source.HTTPOptions{
			BaseURL:    cfg.Source.BaseURL,
			Timeout:    cfg.Source.Timeout,
			RetryCount: cfg.Source.RetryCount,
			Headers:    headers,
		}), nil
	case config.SourcePostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres source needs database.url")
		}
		return source.NewPostgresFetcher(pool.Queries()), nil
	case config.SourceFile:
		return source.NewFileFetcher(cfg.Source.FixturePath), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

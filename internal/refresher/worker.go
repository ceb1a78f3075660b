package refresher

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/floorstore"
	"floorwatch/core-go/internal/metrics"
)

const maxBackoff = 5 * time.Minute

// Target is refreshed on every tick. *view.Session satisfies it.
type Target interface {
	Refresh(ctx context.Context) error
}

// Worker polls a target on a fixed interval, backing off while refreshes
// keep failing. It stops on its own once the target is closed.
type Worker struct {
	log      zerolog.Logger
	target   Target
	interval time.Duration
	metrics  *metrics.Metrics
}

type Options struct {
	Interval time.Duration
}

func New(log zerolog.Logger, target Target, opts Options, m *metrics.Metrics) *Worker {
	iv := opts.Interval
	if iv <= 0 {
		iv = 30 * time.Second
	}
	return &Worker{log: log, target: target, interval: iv, metrics: m}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.target == nil {
		return
	}

	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	var consecutiveFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		w.metrics.IncRefreshTrigger("poll")
		err := w.target.Refresh(ctx)
		switch {
		case errors.Is(err, floorstore.ErrClosed):
			w.log.Debug().Msg("refresh target closed; poller exiting")
			return
		case err != nil:
			consecutiveFailures++
			w.log.Warn().Err(err).Int("consecutive_failures", consecutiveFailures).Msg("scheduled refresh failed")
		default:
			consecutiveFailures = 0
		}

		timer.Reset(backoffDuration(w.interval, consecutiveFailures))
	}
}

func backoffDuration(base time.Duration, failures int) time.Duration {
	if base <= 0 {
		base = 30 * time.Second
	}
	if failures <= 0 {
		return base
	}

	// base * 2^failures, capped.
	if failures > 6 {
		failures = 6
	}
	d := base * time.Duration(1<<failures)
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	if d > limit {
		return limit
	}
	return d
}

package refresher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"floorwatch/core-go/internal/floorstore"
)

type fakeTarget struct {
	refreshFn func(ctx context.Context) error
}

func (f *fakeTarget) Refresh(ctx context.Context) error {
	if f.refreshFn == nil {
		return nil
	}
	return f.refreshFn(ctx)
}

func TestBackoffDuration(t *testing.T) {
	base := 100 * time.Millisecond
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, base},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{6, 6400 * time.Millisecond},
		{20, 6400 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := backoffDuration(base, tc.failures); got != tc.want {
			t.Fatalf("failures=%d: expected %v, got %v", tc.failures, tc.want, got)
		}
	}
	if got := backoffDuration(time.Minute, 4); got != maxBackoff {
		t.Fatalf("expected cap %v, got %v", maxBackoff, got)
	}
	if got := backoffDuration(10*time.Minute, 2); got != 10*time.Minute {
		t.Fatalf("expected cap never below base, got %v", got)
	}
}

func TestWorker_RunRefreshesUntilCancelled(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	target := &fakeTarget{refreshFn: func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 3 {
			cancel()
		}
		return nil
	}}

	done := make(chan struct{})
	go func() {
		New(zerolog.Nop(), target, Options{Interval: time.Millisecond}, nil).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
	if got := atomic.LoadInt32(&calls); got < 3 {
		t.Fatalf("expected at least 3 refreshes, got %d", got)
	}
}

func TestWorker_RunStopsWhenTargetCloses(t *testing.T) {
	var calls int32
	target := &fakeTarget{refreshFn: func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return floorstore.ErrClosed
	}}

	done := make(chan struct{})
	go func() {
		New(zerolog.Nop(), target, Options{Interval: time.Millisecond}, nil).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Run to exit once the target is closed")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single refresh, got %d", got)
	}
}

func TestWorker_RunKeepsGoingAfterFailures(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	target := &fakeTarget{refreshFn: func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) >= 3 {
			cancel()
		}
		return errors.New("upstream down")
	}}

	done := make(chan struct{})
	go func() {
		New(zerolog.Nop(), target, Options{Interval: time.Millisecond}, nil).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Run to return")
	}
	if got := atomic.LoadInt32(&calls); got < 3 {
		t.Fatalf("expected retries after failures, got %d calls", got)
	}
}

func TestWorker_NilTargetReturnsImmediately(t *testing.T) {
	var w *Worker
	w.Run(context.Background())
	New(zerolog.Nop(), nil, Options{}, nil).Run(context.Background())
}

package blink

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultHalfPeriod = 500 * time.Millisecond
	DefaultFrame      = 50 * time.Millisecond
)

// Oscillator is the shared opacity signal for blinking markers. It cycles
// 1 -> 0 -> 1 on a triangle wave for as long as it runs. Every reader sees the
// same phase because the value is derived from the start time, not from a
// per-reader counter.
type Oscillator struct {
	log        zerolog.Logger
	halfPeriod time.Duration
	frame      time.Duration
	now        func() time.Time

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	subs      map[int]chan float64
	nextSub   int
}

type Options struct {
	HalfPeriod time.Duration
	Frame      time.Duration
}

func New(log zerolog.Logger, opts Options) *Oscillator {
	hp := opts.HalfPeriod
	if hp <= 0 {
		hp = DefaultHalfPeriod
	}
	fr := opts.Frame
	if fr <= 0 {
		fr = DefaultFrame
	}
	return &Oscillator{
		log:        log,
		halfPeriod: hp,
		frame:      fr,
		now:        time.Now,
		subs:       make(map[int]chan float64),
	}
}

// Start begins the loop. Calling Start on a running oscillator does nothing.
func (o *Oscillator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.running = true
	o.startedAt = o.now()
	o.cancel = cancel
	o.done = make(chan struct{})

	go o.run(ctx, o.done)
	o.log.Debug().Dur("half_period", o.halfPeriod).Dur("frame", o.frame).Msg("blink oscillator started")
}

// Stop cancels the loop and returns only after it has exited. Subscriber
// channels are closed. Safe to call more than once.
func (o *Oscillator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	cancel()
	<-done

	o.mu.Lock()
	for id, ch := range o.subs {
		close(ch)
		delete(o.subs, id)
	}
	o.mu.Unlock()

	o.log.Debug().Msg("blink oscillator stopped")
}

func (o *Oscillator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Value is the current opacity in [0,1]. A stopped oscillator reads as fully
// opaque.
func (o *Oscillator) Value() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.valueLocked()
}

func (o *Oscillator) valueLocked() float64 {
	if !o.running {
		return 1
	}
	return triangle(o.now().Sub(o.startedAt), o.halfPeriod)
}

// Opacity lets the oscillator stand in wherever a marker needs an opacity
// source.
func (o *Oscillator) Opacity() float64 {
	return o.Value()
}

// Subscribe returns a channel that receives the latest opacity every frame.
// Slow readers only ever see the newest value. The returned func
// unsubscribes and closes the channel.
func (o *Oscillator) Subscribe() (<-chan float64, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	ch := make(chan float64, 1)
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if c, ok := o.subs[id]; ok {
				close(c)
				delete(o.subs, id)
			}
		})
	}
}

func (o *Oscillator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(o.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.publish()
		}
	}
}

func (o *Oscillator) publish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	v := o.valueLocked()
	for _, ch := range o.subs {
		select {
		case ch <- v:
		default:
			// Drop the stale value so the reader gets the newest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

func triangle(elapsed, half time.Duration) float64 {
	if half <= 0 || elapsed <= 0 {
		return 1
	}
	phase := elapsed % (2 * half)
	if phase < half {
		return 1 - float64(phase)/float64(half)
	}
	return float64(phase-half) / float64(half)
}

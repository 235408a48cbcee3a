package clock

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Option configures a LiveClock.
type Option func(*LiveClock)

// WithTickInterval sets how often the live clock emits.
func WithTickInterval(d time.Duration) Option {
	return func(lc *LiveClock) {
		if d > 0 {
			lc.interval = d
		}
	}
}

// WithClock replaces the underlying time source.
func WithClock(c Clock) Option {
	return func(lc *LiveClock) {
		lc.clock = c
	}
}

// LiveClock emits the current time once per interval, independently of any
// data fetching. Consumers recompute derived ages from each emitted value.
type LiveClock struct {
	clock    Clock
	interval time.Duration
	log      *logger.Logger
	out      chan time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLive creates a stopped LiveClock. Default interval is one second.
func NewLive(log *logger.Logger, opts ...Option) *LiveClock {
	lc := &LiveClock{
		clock:    Real(),
		interval: time.Second,
		log:      log,
		out:      make(chan time.Time, 1),
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc
}

// C returns the channel the clock emits on. If the consumer has not taken
// the previous value, it is replaced by the newer one.
func (lc *LiveClock) C() <-chan time.Time { return lc.out }

// Now returns the current time from the underlying source.
func (lc *LiveClock) Now() time.Time { return lc.clock.Now() }

// Start begins emitting. Non-blocking.
func (lc *LiveClock) Start(ctx context.Context) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.running {
		lc.log.Warn("live clock already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	lc.cancel = cancel
	lc.running = true
	lc.done = make(chan struct{})

	ticker := lc.clock.NewTicker(lc.interval)
	go lc.loop(childCtx, ticker, lc.done)

	lc.log.Debug("live clock started (interval=%s)", lc.interval)
}

// Stop halts emission and waits for the loop to exit. Safe to call twice.
func (lc *LiveClock) Stop() {
	lc.mu.Lock()
	if !lc.running {
		lc.mu.Unlock()
		return
	}
	lc.cancel()
	lc.running = false
	done := lc.done
	lc.mu.Unlock()

	<-done
	lc.log.Debug("live clock stopped")
}

func (lc *LiveClock) loop(ctx context.Context, ticker *Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			lc.emit(now)
		}
	}
}

func (lc *LiveClock) emit(now time.Time) {
	select {
	case lc.out <- now:
		return
	default:
	}
	// Drop the stale value, then retry once.
	select {
	case <-lc.out:
	default:
	}
	select {
	case lc.out <- now:
	default:
	}
}

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a Clock whose time only moves when Advance is called. Safe for
// concurrent use.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
	changed *sync.Cond
}

type waiter struct {
	at       time.Time
	ch       chan time.Time
	interval time.Duration // > 0 for tickers
	stopped  bool
}

// NewFake returns a Fake clock set to start.
func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.changed = sync.NewCond(&f.mu)
	return f
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After fires once the clock has been advanced by d.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.add(&waiter{at: f.now.Add(d), ch: ch})
	return ch
}

// NewTicker registers a ticker that fires every d of fake time.
func (f *Fake) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	w := &waiter{at: f.now.Add(d), ch: ch, interval: d}
	f.add(w)

	return &Ticker{
		C: ch,
		stop: func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			w.stopped = true
			f.remove(w)
		},
		reset: func(d time.Duration) {
			f.mu.Lock()
			defer f.mu.Unlock()
			w.interval = d
			w.at = f.now.Add(d)
			if w.stopped {
				w.stopped = false
				f.add(w)
			}
		},
	}
}

// add must be called with f.mu held.
func (f *Fake) add(w *waiter) {
	f.waiters = append(f.waiters, w)
	f.changed.Broadcast()
}

// remove must be called with f.mu held.
func (f *Fake) remove(w *waiter) {
	for i, x := range f.waiters {
		if x == w {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return
		}
	}
}

// Advance moves time forward by d and fires every waiter that falls due,
// in deadline order. A ticker spanning several intervals fires once per
// interval; ticks that do not fit in its buffer are dropped.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	target := f.now

	for {
		var due []*waiter
		var keep []*waiter
		for _, w := range f.waiters {
			switch {
			case w.stopped:
			case !w.at.After(target):
				due = append(due, w)
			default:
				keep = append(keep, w)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })

		for _, w := range due {
			select {
			case w.ch <- target:
			default:
			}
			if w.interval > 0 {
				w.at = w.at.Add(w.interval)
				keep = append(keep, w)
			}
		}
		f.waiters = keep
	}
	f.mu.Unlock()
}

// WaitForTimers blocks until at least n waiters are registered. Use it to
// make sure a goroutine has created its ticker before advancing.
func (f *Fake) WaitForTimers(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.pending() < n {
		f.changed.Wait()
	}
}

// Pending returns the number of active waiters.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending()
}

func (f *Fake) pending() int {
	n := 0
	for _, w := range f.waiters {
		if !w.stopped {
			n++
		}
	}
	return n
}

package kitchen

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/ottopos/internal/clock"
	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// SortOrder selects how orders are arranged on the board.
type SortOrder int

const (
	SortOldestFirst SortOrder = iota
	SortNewestFirst
)

// String returns the config name of the sort order.
func (s SortOrder) String() string {
	if s == SortNewestFirst {
		return "newest"
	}
	return "oldest"
}

// ParseSortOrder maps "oldest"/"newest" (and a few spellings) to a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oldest", "oldest_first", "oldest-first", "asc":
		return SortOldestFirst, nil
	case "newest", "newest_first", "newest-first", "desc":
		return SortNewestFirst, nil
	default:
		return SortOldestFirst, fmt.Errorf("kitchen: unknown sort order %q", s)
	}
}

// terminalStatuses never appear on the board.
var terminalStatuses = map[string]bool{
	"cancelled": true,
	"canceled":  true,
	"paid":      true,
	"completed": true,
	"complete":  true,
	"closed":    true,
}

// IsTerminal reports whether a raw backend status means the order is no
// longer the kitchen's concern.
func IsTerminal(status string) bool {
	return terminalStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// Snapshot is the board state after the most recent applied poll.
type Snapshot struct {
	Orders     []domain.KitchenOrder
	FetchedAt  time.Time // last successful fetch
	AlertUntil time.Time
	Err        error // set when the latest poll failed; Orders are from the last good one
	Generation uint64
	Sort       SortOrder
}

// Alerting reports whether the new-order alert is showing at now.
func (s Snapshot) Alerting(now time.Time) bool {
	return now.Before(s.AlertUntil)
}

// NewCount returns how many orders in the snapshot are new.
func (s Snapshot) NewCount() int {
	n := 0
	for _, o := range s.Orders {
		if o.IsNew {
			n++
		}
	}
	return n
}

// Option configures the poller.
type Option func(*Poller)

// WithInterval sets the time between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithSortOrder sets the initial board ordering.
func WithSortOrder(s SortOrder) Option {
	return func(p *Poller) {
		p.order = s
	}
}

// WithAlertDuration sets how long the new-order alert stays raised.
func WithAlertDuration(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.alertDuration = d
		}
	}
}

// WithSeenRetention sets how many poll cycles an id may be absent before it
// is forgotten. Zero keeps ids forever.
func WithSeenRetention(cycles uint64) Option {
	return func(p *Poller) {
		p.retention = cycles
	}
}

// WithNotifier sends an urgent notification whenever new orders arrive.
func WithNotifier(n domain.Notifier) Option {
	return func(p *Poller) {
		p.notifier = n
	}
}

// WithClock replaces the time source.
func WithClock(c clock.Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// Poller fetches kitchen orders on a fixed period and derives novelty,
// ordering and the alert window from consecutive snapshots.
//
// Polls may overlap. Each poll takes a generation number when it starts and
// its result is applied only if no later-started poll has been applied yet.
type Poller struct {
	source        domain.KitchenSource
	seen          domain.SeenStore
	notifier      domain.Notifier
	log           *logger.Logger
	clock         clock.Clock
	interval      time.Duration
	alertDuration time.Duration
	retention     uint64

	mu      sync.Mutex
	order   SortOrder
	issued  uint64 // last generation handed out
	applied uint64 // generation of the current snapshot
	cycle   uint64 // number of applied successful polls
	snap    Snapshot
	subs    []chan Snapshot
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(source domain.KitchenSource, seen domain.SeenStore, log *logger.Logger, opts ...Option) *Poller {
	p := &Poller{
		source:        source,
		seen:          seen,
		log:           log,
		clock:         clock.Real(),
		interval:      5 * time.Second,
		alertDuration: 3 * time.Second,
		retention:     120,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.snap.Sort = p.order
	return p
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Snapshot returns the current board state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Subscribe returns a channel that receives each new snapshot. The channel
// holds one value; an unread snapshot is replaced by the next.
func (p *Poller) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// SortOrder returns the current ordering.
func (p *Poller) SortOrder() SortOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order
}

// SetSortOrder changes the ordering and re-sorts the current snapshot.
func (p *Poller) SetSortOrder(s SortOrder) {
	p.mu.Lock()
	p.order = s
	orders := make([]domain.KitchenOrder, len(p.snap.Orders))
	copy(orders, p.snap.Orders)
	sortOrders(orders, s, p.clock.Now())
	p.snap.Orders = orders
	p.snap.Sort = s
	snap := p.snap
	p.publishLocked(snap)
	p.mu.Unlock()

	p.log.Debug("sort order set to %s", s)
}

// Poll performs one fetch and applies it if it is still the freshest
// result. A superseded or cancelled poll returns ErrStaleResponse and
// changes nothing.
func (p *Poller) Poll(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	p.issued++
	gen := p.issued
	p.mu.Unlock()

	orders, fetchErr := p.source.ListKitchenOrders(ctx)

	p.mu.Lock()
	if ctx.Err() != nil || gen <= p.applied {
		snap := p.snap
		p.mu.Unlock()
		p.log.Debug("discarding poll %d (applied=%d, ctx=%v)", gen, snap.Generation, ctx.Err())
		return snap, domain.ErrStaleResponse
	}
	p.applied = gen

	if fetchErr != nil {
		p.snap.Err = fetchErr
		p.snap.Generation = gen
		snap := p.snap
		p.publishLocked(snap)
		p.mu.Unlock()

		p.log.Warn("kitchen poll %d failed, keeping last good board: %v", gen, fetchErr)
		return snap, fmt.Errorf("polling kitchen orders: %w", fetchErr)
	}

	now := p.clock.Now()
	p.cycle++
	board := p.applyLocked(ctx, orders, now)

	snap := Snapshot{
		Orders:     board,
		FetchedAt:  now,
		AlertUntil: p.snap.AlertUntil,
		Generation: gen,
		Sort:       p.order,
	}
	newCount := snap.NewCount()
	if newCount > 0 {
		snap.AlertUntil = now.Add(p.alertDuration)
	}
	p.snap = snap
	p.publishLocked(snap)
	p.mu.Unlock()

	p.log.Debug("poll %d applied: %d orders, %d new", gen, len(board), newCount)

	if newCount > 0 && p.notifier != nil {
		msg := "New order"
		if newCount > 1 {
			msg = fmt.Sprintf("%d new orders", newCount)
		}
		if err := p.notifier.NotifyUrgent(ctx, msg); err != nil {
			p.log.Error("notifying new orders: %v", err)
		}
	}
	return snap, nil
}

// applyLocked filters, marks novelty, evicts and sorts. Must be called with
// p.mu held.
func (p *Poller) applyLocked(ctx context.Context, orders []domain.KitchenOrder, now time.Time) []domain.KitchenOrder {
	board := make([]domain.KitchenOrder, 0, len(orders))
	for _, o := range orders {
		if IsTerminal(o.StatusRaw) {
			continue
		}
		board = append(board, o)
	}

	ids := make([]string, len(board))
	for i, o := range board {
		ids[i] = o.ID
	}
	fresh, err := p.seen.Observe(ctx, ids, p.cycle)
	if err != nil {
		p.log.Error("recording seen ids: %v", err)
	}
	for i := range board {
		board[i].IsNew = fresh[board[i].ID]
	}

	if p.retention > 0 && p.cycle > p.retention {
		if _, err := p.seen.Evict(ctx, p.cycle-p.retention); err != nil {
			p.log.Error("evicting seen ids: %v", err)
		}
	}

	sortOrders(board, p.order, now)
	return board
}

// publishLocked must be called with p.mu held.
func (p *Poller) publishLocked(snap Snapshot) {
	for _, ch := range p.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func sortOrders(orders []domain.KitchenOrder, order SortOrder, now time.Time) {
	sort.SliceStable(orders, func(i, j int) bool {
		ai, aj := orders[i].Age(now), orders[j].Age(now)
		if ai != aj {
			if order == SortNewestFirst {
				return ai < aj
			}
			return ai > aj
		}
		return orders[i].ID < orders[j].ID
	})
}

// Start polls once immediately and then every interval until Stop or ctx
// cancellation. Ticks never wait for an in-flight poll. Non-blocking.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.log.Warn("kitchen poller already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	p.runCtx = childCtx
	p.cancel = cancel
	p.running = true
	p.done = make(chan struct{})

	ticker := p.clock.NewTicker(p.interval)
	go p.loop(childCtx, ticker, p.done)

	p.log.Info("kitchen poller started (interval=%s, sort=%s)", p.interval, p.order)
}

// Refresh starts an extra poll right away. It is a no-op when the poller
// is not running.
func (p *Poller) Refresh() {
	p.mu.Lock()
	ctx, running := p.runCtx, p.running
	p.mu.Unlock()

	if running {
		go p.Poll(ctx)
	}
}

// Stop halts polling. Responses still in flight are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.running = false
	done := p.done
	p.mu.Unlock()

	<-done
	p.log.Info("kitchen poller stopped")
}

func (p *Poller) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	go p.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.Poll(ctx)
		}
	}
}

package kitchen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottopos/internal/clock"
	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
	"github.com/hammamikhairi/ottopos/internal/storage"
)

var epoch = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

// fakeSource returns scripted responses in order. A response with a gate
// blocks until the gate is closed.
type fakeSource struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	orders []domain.KitchenOrder
	err    error
	gate   chan struct{}
}

func (f *fakeSource) ListKitchenOrders(ctx context.Context) ([]domain.KitchenOrder, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	var r fakeResponse
	if i < len(f.responses) {
		r = f.responses[i]
	} else if len(f.responses) > 0 {
		r = f.responses[len(f.responses)-1]
	}
	f.mu.Unlock()

	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.orders, r.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// mockNotifier collects notifications for testing.
type mockNotifier struct {
	mu     sync.Mutex
	urgent []string
}

func (m *mockNotifier) Notify(_ context.Context, _ string) error { return nil }

func (m *mockNotifier) NotifyUrgent(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urgent = append(m.urgent, msg)
	return nil
}

func (m *mockNotifier) urgentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urgent)
}

func order(id string, minutesAgo int, status string) domain.KitchenOrder {
	return domain.KitchenOrder{
		ID:        id,
		Table:     "T" + id,
		CreatedAt: epoch.Add(-time.Duration(minutesAgo) * time.Minute),
		StatusRaw: status,
		Items:     []domain.KitchenItem{{Name: "Dish " + id, Quantity: 1}},
	}
}

func newTestPoller(src domain.KitchenSource, opts ...Option) (*Poller, *clock.Fake) {
	log := logger.New(logger.LevelOff, nil)
	fc := clock.NewFake(epoch)
	opts = append([]Option{WithClock(fc)}, opts...)
	return NewPoller(src, storage.NewMemorySeenStore(log), log, opts...), fc
}

func newIDs(s Snapshot) map[string]bool {
	out := make(map[string]bool)
	for _, o := range s.Orders {
		if o.IsNew {
			out[o.ID] = true
		}
	}
	return out
}

func TestPollNoveltySequence(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{orders: []domain.KitchenOrder{order("1", 5, "pending"), order("2", 4, "pending")}},
		{orders: []domain.KitchenOrder{order("1", 5, "pending"), order("2", 4, "pending"), order("3", 1, "pending")}},
		{orders: []domain.KitchenOrder{order("1", 5, "pending"), order("2", 4, "pending"), order("3", 1, "pending")}},
	}}
	notifier := &mockNotifier{}
	p, fc := newTestPoller(src, WithNotifier(notifier))
	ctx := context.Background()

	want := []map[string]bool{
		{"1": true, "2": true},
		{"3": true},
		{},
	}
	for i, w := range want {
		snap, err := p.Poll(ctx)
		if err != nil {
			t.Fatalf("poll %d: %v", i+1, err)
		}
		got := newIDs(snap)
		if len(got) != len(w) {
			t.Fatalf("poll %d: new = %v, want %v", i+1, got, w)
		}
		for id := range w {
			if !got[id] {
				t.Fatalf("poll %d: %s should be new", i+1, id)
			}
		}
		fc.Advance(5 * time.Second)
	}

	if notifier.urgentCount() != 2 {
		t.Fatalf("expected 2 urgent notifications, got %d", notifier.urgentCount())
	}
}

func TestPollAlertWindow(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{orders: []domain.KitchenOrder{order("1", 0, "")}},
		{orders: []domain.KitchenOrder{order("1", 0, "")}},
	}}
	p, fc := newTestPoller(src, WithAlertDuration(3*time.Second))
	ctx := context.Background()

	snap, _ := p.Poll(ctx)
	if !snap.Alerting(fc.Now()) {
		t.Fatal("alert should be raised by a new order")
	}
	if !snap.Alerting(fc.Now().Add(2999 * time.Millisecond)) {
		t.Fatal("alert should still be raised just before the window ends")
	}
	if snap.Alerting(fc.Now().Add(3 * time.Second)) {
		t.Fatal("alert should be lowered after 3s")
	}

	fc.Advance(5 * time.Second)
	snap, _ = p.Poll(ctx)
	if snap.Alerting(fc.Now()) {
		t.Fatal("no new orders, alert should stay lowered")
	}
}

func TestPollFiltersTerminalStatuses(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{{orders: []domain.KitchenOrder{
		order("1", 1, "pending"),
		order("2", 1, "Cancelled"),
		order("3", 1, "canceled"),
		order("4", 1, "PAID"),
		order("5", 1, "completed"),
		order("6", 1, "closed"),
		order("7", 1, "cooking"),
	}}}}
	p, _ := newTestPoller(src)

	snap, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(snap.Orders) != 2 {
		t.Fatalf("expected 2 orders on the board, got %d", len(snap.Orders))
	}
	for _, o := range snap.Orders {
		if o.ID != "1" && o.ID != "7" {
			t.Fatalf("terminal order %s leaked onto the board", o.ID)
		}
	}
}

func TestPollSortOrder(t *testing.T) {
	orders := []domain.KitchenOrder{
		order("b", 3, ""),
		order("a", 12, ""),
		order("c", 3, ""),
		order("d", 0, ""),
	}
	tests := []struct {
		sort SortOrder
		want []string
	}{
		{SortOldestFirst, []string{"a", "b", "c", "d"}},
		{SortNewestFirst, []string{"d", "b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.sort.String(), func(t *testing.T) {
			src := &fakeSource{responses: []fakeResponse{{orders: orders}}}
			p, _ := newTestPoller(src, WithSortOrder(tt.sort))
			snap, _ := p.Poll(context.Background())

			for i, id := range tt.want {
				if snap.Orders[i].ID != id {
					t.Fatalf("position %d = %s, want %s", i, snap.Orders[i].ID, id)
				}
			}
		})
	}
}

func TestSetSortOrderResortsCurrentBoard(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{{orders: []domain.KitchenOrder{
		order("new", 1, ""), order("old", 20, ""),
	}}}}
	p, _ := newTestPoller(src)
	p.Poll(context.Background())

	p.SetSortOrder(SortNewestFirst)
	snap := p.Snapshot()
	if snap.Orders[0].ID != "new" || snap.Sort != SortNewestFirst {
		t.Fatalf("board not re-sorted: first=%s sort=%s", snap.Orders[0].ID, snap.Sort)
	}
}

func TestPollErrorKeepsLastGoodBoard(t *testing.T) {
	boom := errors.New("connection refused")
	src := &fakeSource{responses: []fakeResponse{
		{orders: []domain.KitchenOrder{order("1", 2, "")}},
		{err: boom},
		{orders: []domain.KitchenOrder{order("1", 2, "")}},
	}}
	p, fc := newTestPoller(src)
	ctx := context.Background()

	good, _ := p.Poll(ctx)
	fc.Advance(5 * time.Second)

	snap, err := p.Poll(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if len(snap.Orders) != 1 || snap.Err == nil {
		t.Fatalf("expected last good board with error flag, got %d orders, err=%v", len(snap.Orders), snap.Err)
	}
	if !snap.FetchedAt.Equal(good.FetchedAt) {
		t.Fatal("FetchedAt should stay at the last successful fetch")
	}

	fc.Advance(5 * time.Second)
	snap, err = p.Poll(ctx)
	if err != nil || snap.Err != nil {
		t.Fatalf("recovery poll should clear the error, got %v / %v", err, snap.Err)
	}
	if snap.Orders[0].IsNew {
		t.Fatal("order seen before the failure must not be new again")
	}
}

func TestPollDiscardsStaleResponse(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{responses: []fakeResponse{
		{orders: []domain.KitchenOrder{order("slow", 1, "")}, gate: gate},
		{orders: []domain.KitchenOrder{order("fast", 1, "")}},
	}}
	p, _ := newTestPoller(src)
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() {
		_, err := p.Poll(ctx)
		slowDone <- err
	}()

	// Wait until the slow request is in flight before issuing the next one.
	for src.callCount() < 1 {
		time.Sleep(time.Millisecond)
	}

	if _, err := p.Poll(ctx); err != nil {
		t.Fatalf("fast poll: %v", err)
	}
	close(gate)

	if err := <-slowDone; !errors.Is(err, domain.ErrStaleResponse) {
		t.Fatalf("slow poll err = %v, want ErrStaleResponse", err)
	}
	snap := p.Snapshot()
	if len(snap.Orders) != 1 || snap.Orders[0].ID != "fast" {
		t.Fatalf("stale response overwrote the board: %+v", snap.Orders)
	}
}

func TestPollAfterCancelIsDiscarded(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{{orders: []domain.KitchenOrder{order("1", 1, "")}}}}
	p, _ := newTestPoller(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Poll(ctx); !errors.Is(err, domain.ErrStaleResponse) {
		t.Fatalf("err = %v, want ErrStaleResponse", err)
	}
	if len(p.Snapshot().Orders) != 0 {
		t.Fatal("cancelled poll must not touch the board")
	}
}

func TestSeenRetentionEvicts(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{orders: []domain.KitchenOrder{order("1", 1, "")}},
		{orders: nil},
		{orders: nil},
		{orders: nil},
		{orders: []domain.KitchenOrder{order("1", 1, "")}},
	}}
	p, _ := newTestPoller(src, WithSeenRetention(2))
	ctx := context.Background()

	var snap Snapshot
	for i := 0; i < 5; i++ {
		snap, _ = p.Poll(ctx)
	}
	if len(snap.Orders) != 1 || !snap.Orders[0].IsNew {
		t.Fatal("id absent longer than retention should be new again")
	}
}

func TestSubscribeReceivesLatest(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{orders: []domain.KitchenOrder{order("1", 1, "")}},
		{orders: []domain.KitchenOrder{order("1", 1, ""), order("2", 1, "")}},
	}}
	p, _ := newTestPoller(src)
	ch := p.Subscribe()
	ctx := context.Background()

	p.Poll(ctx)
	p.Poll(ctx)

	select {
	case snap := <-ch:
		if len(snap.Orders) != 2 {
			t.Fatalf("expected newest snapshot with 2 orders, got %d", len(snap.Orders))
		}
	default:
		t.Fatal("no snapshot delivered")
	}
}

func TestStartPollsImmediatelyAndOnTick(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{{orders: []domain.KitchenOrder{order("1", 1, "")}}}}
	p, fc := newTestPoller(src, WithInterval(5*time.Second))

	p.Start(context.Background())
	defer p.Stop()

	waitFor(t, func() bool { return src.callCount() >= 1 })

	fc.WaitForTimers(1)
	fc.Advance(5 * time.Second)
	waitFor(t, func() bool { return src.callCount() >= 2 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestParseSortOrder(t *testing.T) {
	for in, want := range map[string]SortOrder{"oldest": SortOldestFirst, "NEWEST": SortNewestFirst, "": SortOldestFirst} {
		got, err := ParseSortOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseSortOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSortOrder("sideways"); err == nil {
		t.Error("expected error for unknown order")
	}
}

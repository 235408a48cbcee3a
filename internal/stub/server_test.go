package stub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hammamikhairi/ottopos/internal/api"
	"github.com/hammamikhairi/ottopos/internal/clock"
	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

var start = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *api.Client, *clock.Fake) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	fake := clock.NewFake(start)
	s := New(log, WithClock(fake))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, api.NewClient(ts.URL, log), fake
}

func payload(table string, items ...domain.PayloadItem) domain.OrderPayload {
	return domain.OrderPayload{
		CreatedBy:       "pos",
		CustomerDetails: domain.CustomerDetails{Name: "Nour", Guests: 2},
		Items:           items,
		Table:           table,
		PaymentMethod:   "cash",
	}
}

func line(name string, qty int, unit string) domain.PayloadItem {
	u := decimal.RequireFromString(unit)
	return domain.PayloadItem{
		Name:      name,
		Quantity:  qty,
		UnitPrice: u,
		Price:     u.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestCreateThenListBothItemShapes(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()

	first, err := client.CreateOrder(ctx, payload("4", line("Brik", 2, "4.00")))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := client.CreateOrder(ctx, payload("9", line("Tagine", 1, "17.00"), line("Tea", 3, "2.50")))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %q and %q", first.ID, second.ID)
	}

	orders, err := client.ListKitchenOrders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	// The second record carries its items as a JSON string.
	if len(orders[1].Items) != 2 || orders[1].Items[1].Quantity != 3 {
		t.Fatalf("string-encoded items not decoded: %+v", orders[1].Items)
	}
	for _, o := range orders {
		if !o.CreatedAt.Equal(start) {
			t.Fatalf("order %s created at %v, want %v", o.ID, o.CreatedAt, start)
		}
	}
}

func TestGetOrderHydratesCustomerAndPrices(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()

	created, err := client.CreateOrder(ctx, payload("2", line("Couscous", 2, "14.50")))
	if err != nil {
		t.Fatal(err)
	}
	got, err := client.GetOrder(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Table != "2" || got.CustomerName != "Nour" || got.Guests != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Items) != 1 || !got.Items[0].Price.Equal(decimal.RequireFromString("29")) {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if got.Items[0].ID == "" {
		t.Fatal("stored items should get ids")
	}
}

func TestAppendSkipsExistingLines(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()

	created, _ := client.CreateOrder(ctx, payload("5", line("Brik", 1, "4.00")))

	existing := line("Brik", 1, "4.00")
	existing.Existing = true
	p := payload("", existing, line("Tea", 2, "2.50"))
	p.OrderID = created.ID

	appended, err := client.CreateOrder(ctx, p)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if appended.ID != created.ID {
		t.Fatalf("append returned %q, want %q", appended.ID, created.ID)
	}

	got, _ := client.GetOrder(ctx, created.ID)
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 lines after append, got %+v", got.Items)
	}
	if got.Table != "5" {
		t.Fatalf("append must not move the order, table = %q", got.Table)
	}
}

func TestAppendToUnknownOrder(t *testing.T) {
	_, client, _ := newTestServer(t)
	p := payload("", line("Tea", 1, "2.50"))
	p.OrderID = "missing"

	_, err := client.CreateOrder(context.Background(), p)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    domain.OrderPayload
	}{
		{"no items", payload("1")},
		{"zero quantity", payload("1", line("Tea", 0, "2.50"))},
		{"no creator", func() domain.OrderPayload { p := payload("1", line("Tea", 1, "2.50")); p.CreatedBy = ""; return p }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateOrder(ctx, tt.p)
			if !api.IsStatus(err, http.StatusBadRequest) {
				t.Fatalf("expected 400, got %v", err)
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()

	created, _ := client.CreateOrder(ctx, payload("8", line("Tea", 1, "2.50")))
	if err := client.UpdateStatus(ctx, created.ID, "Completed"); err != nil {
		t.Fatalf("update: %v", err)
	}

	orders, _ := client.ListKitchenOrders(ctx)
	if len(orders) != 1 || orders[0].StatusRaw != "completed" {
		t.Fatalf("status not stored: %+v", orders)
	}

	if err := client.UpdateStatus(ctx, "nope", "completed"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := client.UpdateStatus(ctx, created.ID, " "); !api.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected 400 for blank status, got %v", err)
	}
}

func TestSeedSpansTiers(t *testing.T) {
	s, client, fake := newTestServer(t)
	s.Seed()
	if s.Len() != 3 {
		t.Fatalf("expected 3 seeded orders, got %d", s.Len())
	}

	orders, err := client.ListKitchenOrders(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var oldest time.Duration
	for _, o := range orders {
		if a := o.Age(fake.Now()); a > oldest {
			oldest = a
		}
	}
	if oldest < 15*time.Minute {
		t.Fatalf("expected an urgent order in the seed, oldest is %s", oldest)
	}
}

func TestMalformedBody(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/orders", "application/json", strings.NewReader("{nope"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

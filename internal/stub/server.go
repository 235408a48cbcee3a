// Package stub is an in-memory development backend that speaks the same
// HTTP API as the restaurant server: the kitchen feed, order lookup, order
// creation/append and status updates.
package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hammamikhairi/ottopos/internal/clock"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

const sqlTimeLayout = "2006-01-02 15:04:05"

type item struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Price      decimal.Decimal `json:"price"`
	DishID     string          `json:"dishId,omitempty"`
	CategoryID string          `json:"categoryId,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

type customer struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Guests int    `json:"guests"`
}

type order struct {
	ID            string
	Table         string
	Customer      customer
	Items         []item
	Status        string
	PaymentMethod string
	CreatedBy     string
	CreatedAt     time.Time
	seq           int
}

// Server holds the orders and serves them over HTTP.
type Server struct {
	mu     sync.Mutex
	orders map[string]*order
	next   int

	clock clock.Clock
	log   *logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the time source for order timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// New creates an empty server.
func New(log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		orders: make(map[string]*order),
		clock:  clock.Real(),
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed adds a few orders at different ages so every urgency tier shows up
// on a freshly started board.
func (s *Server) Seed() {
	now := s.clock.Now()
	seed := []struct {
		table string
		name  string
		age   time.Duration
		items []item
	}{
		{"3", "Amira", 16 * time.Minute, []item{
			{Name: "Couscous Royal", Quantity: 2, UnitPrice: decimal.RequireFromString("14.50")},
			{Name: "Mint Tea", Quantity: 2, UnitPrice: decimal.RequireFromString("2.50")},
		}},
		{"7", "Yassine", 11 * time.Minute, []item{
			{Name: "Lamb Tagine", Quantity: 1, UnitPrice: decimal.RequireFromString("17.00"), Notes: "no olives"},
		}},
		{"12", "Sofia", 2 * time.Minute, []item{
			{Name: "Brik", Quantity: 3, UnitPrice: decimal.RequireFromString("4.00")},
			{Name: "Grilled Sea Bream", Quantity: 1, UnitPrice: decimal.RequireFromString("19.50")},
		}},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range seed {
		s.insertLocked(&order{
			Table:         o.table,
			Customer:      customer{Name: o.name, Guests: 2},
			Items:         priced(o.items),
			Status:        "pending",
			PaymentMethod: "cash",
			CreatedBy:     "seed",
			CreatedAt:     now.Add(-o.age),
		})
	}
	s.log.Info("stub: seeded %d orders", len(seed))
}

func (s *Server) insertLocked(o *order) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.seq = s.next
	s.next++
	s.orders[o.ID] = o
}

func priced(items []item) []item {
	out := make([]item, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.Price.IsZero() {
			it.Price = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		}
		out[i] = it
	}
	return out
}

// Handler returns the chi router. Routes are relative; mount it under the
// API prefix the clients are configured with.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/kitchen-orders", s.listKitchen)
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.createOrder)
		r.Get("/{id}", s.getOrder)
		r.Patch("/{id}/status", s.updateStatus)
	})
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("stub: %s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond))
	})
}

// ── Handlers ─────────────────────────────────────────────────────

// listKitchen handles GET /kitchen-orders. Completed and cancelled orders
// are included; filtering them is the board's job.
func (s *Server) listKitchen(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]*order, 0, len(s.orders))
	for _, o := range s.orders {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })

	out := make([]map[string]any, 0, len(list))
	for _, o := range list {
		out = append(out, kitchenRecord(o))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// kitchenRecord alternates the two item encodings and timestamp formats
// real backends produce.
func kitchenRecord(o *order) map[string]any {
	rec := map[string]any{
		"id":     o.ID,
		"table":  o.Table,
		"status": o.Status,
	}
	if o.seq%2 == 0 {
		rec["items"] = o.Items
		rec["created_at"] = o.CreatedAt.UTC().Format(time.RFC3339)
	} else {
		b, _ := json.Marshal(o.Items)
		rec["items"] = string(b)
		rec["created_at"] = o.CreatedAt.UTC().Format(sqlTimeLayout)
	}
	return rec
}

// getOrder handles GET /orders/{id}.
func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	o, ok := s.orders[id]
	var rec map[string]any
	if ok {
		rec = map[string]any{
			"id":              o.ID,
			"table":           o.Table,
			"status":          o.Status,
			"customerDetails": o.Customer,
			"items":           o.Items,
			"paymentMethod":   o.PaymentMethod,
			"createdBy":       o.CreatedBy,
			"created_at":      o.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "order "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

type payloadItem struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Price      decimal.Decimal `json:"price"`
	DishID     string          `json:"dishId"`
	CategoryID string          `json:"categoryId"`
	Notes      string          `json:"notes"`
	Existing   bool            `json:"existing"`
}

type createRequest struct {
	CreatedBy       string        `json:"createdBy"`
	CustomerDetails customer      `json:"customerDetails"`
	Items           []payloadItem `json:"items"`
	Table           string        `json:"table"`
	PaymentMethod   string        `json:"paymentMethod"`
	OrderID         string        `json:"orderId"`
}

var errBadRequest = errors.New("bad request")

func (req createRequest) validate() error {
	if strings.TrimSpace(req.CreatedBy) == "" {
		return fmt.Errorf("%w: createdBy is required", errBadRequest)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items must not be empty", errBadRequest)
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item %d has no name", errBadRequest, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", errBadRequest, i)
		}
	}
	return nil
}

// createOrder handles POST /orders. A payload carrying orderId appends its
// non-existing items to that order; lines flagged existing are already
// stored and are skipped.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fresh := make([]item, 0, len(req.Items))
	for _, it := range req.Items {
		if req.OrderID != "" && it.Existing {
			continue
		}
		fresh = append(fresh, item{
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Price:      it.Price,
			DishID:     it.DishID,
			CategoryID: it.CategoryID,
			Notes:      it.Notes,
		})
	}
	fresh = priced(fresh)

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.OrderID != "" {
		o, ok := s.orders[req.OrderID]
		if !ok {
			writeError(w, http.StatusNotFound, "order "+req.OrderID+" not found")
			return
		}
		o.Items = append(o.Items, fresh...)
		if req.CustomerDetails.Name != "" {
			o.Customer = req.CustomerDetails
		}
		if req.PaymentMethod != "" {
			o.PaymentMethod = req.PaymentMethod
		}
		// Appended items go back to the kitchen.
		o.Status = "pending"
		s.log.Info("stub: appended %d items to order %s", len(fresh), o.ID)
		writeJSON(w, http.StatusOK, map[string]any{"id": o.ID, "status": o.Status})
		return
	}

	o := &order{
		Table:         req.Table,
		Customer:      req.CustomerDetails,
		Items:         fresh,
		Status:        "pending",
		PaymentMethod: req.PaymentMethod,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     s.clock.Now(),
	}
	s.insertLocked(o)
	s.log.Info("stub: created order %s for table %q (%d items)", o.ID, o.Table, len(o.Items))
	writeJSON(w, http.StatusCreated, map[string]any{"id": o.ID, "status": o.Status})
}

// updateStatus handles PATCH /orders/{id}/status.
func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	s.mu.Lock()
	o, ok := s.orders[id]
	if ok {
		o.Status = status
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "order "+id+" not found")
		return
	}
	s.log.Info("stub: order %s -> %s", id, status)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

// Len returns the number of stored orders.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":  http.StatusText(code),
		"detail": msg,
	})
}

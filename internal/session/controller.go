// Package session implements the order session state machine: which table
// and customer an order is being built for, its cart, and the resume and
// append flow that rebuilds the cart from an existing order on the server.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hammamikhairi/ottopos/internal/cart"
	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Option configures the controller.
type Option func(*Controller)

// WithCreatedBy sets the createdBy field of submitted orders.
func WithCreatedBy(who string) Option {
	return func(c *Controller) {
		c.createdBy = who
	}
}

// WithPaymentMethod sets the default payment method.
func WithPaymentMethod(m string) Option {
	return func(c *Controller) {
		c.paymentMethod = m
	}
}

// WithNotifier surfaces background failures (such as a failed resume) to
// the operator.
func WithNotifier(n domain.Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithLedger uses an existing ledger instead of a fresh one.
func WithLedger(l *cart.Ledger) Option {
	return func(c *Controller) {
		c.ledger = l
	}
}

// View is a point-in-time copy of the session and its cart.
type View struct {
	Session       domain.Session
	Items         []domain.CartItem
	Total         decimal.Decimal
	RemovalLocked bool
}

// Controller owns one order session and its cart. All methods are safe for
// concurrent use. Every mutation finishes by enforcing the table lock, so
// no caller ever observes a table other than the locked one in append mode.
type Controller struct {
	api           domain.OrderAPI
	ledger        *cart.Ledger
	notifier      domain.Notifier
	log           *logger.Logger
	createdBy     string
	paymentMethod string

	mu    sync.Mutex
	sess  domain.Session
	epoch uint64 // bumped whenever the session is reset or re-targeted
}

// New creates an idle controller.
func New(api domain.OrderAPI, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		api:           api,
		log:           log,
		createdBy:     "pos",
		paymentMethod: "cash",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ledger == nil {
		c.ledger = cart.New()
	}
	return c
}

// Ledger exposes the cart for read-only rendering.
func (c *Controller) Ledger() *cart.Ledger { return c.ledger }

// StartNew begins a fresh order, discarding anything in progress.
func (c *Controller) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(domain.ModeNew, domain.PhaseBuilding)
	c.log.Info("new order started")
}

// StartAppend targets an existing order. If a different order was targeted
// before, or the session was building a new order, the cart is cleared
// first. Phase becomes Hydrating until Hydrate is called.
func (c *Controller) StartAppend(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("append: empty order id: %w", domain.ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.startAppendLocked(orderID)
	return nil
}

func (c *Controller) startAppendLocked(orderID string) uint64 {
	if c.sess.Mode != domain.ModeAppend || c.sess.OrderID != orderID || c.sess.Phase == domain.PhaseSubmitted {
		c.resetLocked(domain.ModeAppend, domain.PhaseHydrating)
		c.sess.OrderID = orderID
	} else {
		c.epoch++
		c.sess.Phase = domain.PhaseHydrating
	}
	c.log.Info("appending to order %s", orderID)
	return c.epoch
}

// Hydrate applies a fetched remote order to the session. Only the server
// lines (Existing) are replaced, all in one step; lines added locally since
// the append began are not server data and are kept after them, so a
// re-hydration neither duplicates server lines nor drops pending edits.
func (c *Controller) Hydrate(order domain.RemoteOrder) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.Mode != domain.ModeAppend {
		return fmt.Errorf("hydrate: %w", domain.ErrNoSession)
	}
	if order.ID != "" && order.ID != c.sess.OrderID {
		return fmt.Errorf("hydrate order %s while targeting %s: %w", order.ID, c.sess.OrderID, domain.ErrStaleResponse)
	}
	c.hydrateLocked(order)
	return nil
}

func (c *Controller) hydrateLocked(order domain.RemoteOrder) {
	table := strings.TrimSpace(order.Table)
	c.sess.LockedTable = table
	c.sess.TableRef = table

	if v := strings.TrimSpace(order.CustomerName); v != "" {
		c.sess.CustomerName = v
	}
	if v := strings.TrimSpace(order.Phone); v != "" {
		c.sess.Phone = v
	}
	if order.Guests > 0 {
		c.sess.Guests = order.Guests
	}

	items := make([]domain.CartItem, 0, len(order.Items))
	for _, ri := range order.Items {
		items = append(items, domain.CartItem{
			ID:         ri.ID,
			Name:       ri.Name,
			Quantity:   ri.Quantity,
			UnitPrice:  ri.UnitPrice,
			Price:      ri.Price,
			DishID:     ri.DishID,
			CategoryID: ri.CategoryID,
			Notes:      ri.Notes,
			Existing:   true,
		})
	}
	local := 0
	for _, it := range c.ledger.Items() {
		if !it.Existing {
			items = append(items, it)
			local++
		}
	}
	c.ledger.ImportItems(items)
	c.ledger.SetRemovalLocked(true)
	c.sess.Phase = domain.PhaseBuilding

	c.log.Info("order %s loaded: table %q, %d existing items, %d pending", c.sess.OrderID, table, len(order.Items), local)
}

// Resume targets an existing order, fetches it and hydrates the session.
// The fetched order is dropped if the session was reset or re-targeted
// while the request was in flight. On fetch failure the session is left
// as an empty new order and the error is returned.
func (c *Controller) Resume(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("resume: empty order id: %w", domain.ErrNotFound)
	}

	c.mu.Lock()
	epoch := c.startAppendLocked(orderID)
	c.mu.Unlock()

	order, err := c.api.GetOrder(ctx, orderID)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.log.Debug("dropping order %s fetched for a session that moved on", orderID)
		return domain.ErrStaleResponse
	}
	if err != nil {
		c.resetLocked(domain.ModeNew, domain.PhaseBuilding)
		c.mu.Unlock()

		c.log.Error("loading order %s: %v", orderID, err)
		c.notify(ctx, fmt.Sprintf("Could not load order %s. Starting a new order instead.", orderID))
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	c.hydrateLocked(*order)
	c.mu.Unlock()
	return nil
}

// ReconcileTableLock restores the locked table if anything changed it.
// Reports whether a rewrite happened.
func (c *Controller) ReconcileTableLock() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconcileLocked()
}

func (c *Controller) reconcileLocked() bool {
	if !c.sess.TableLocked() || c.sess.TableRef == c.sess.LockedTable {
		return false
	}
	c.log.Warn("table %q overridden by locked table %q", c.sess.TableRef, c.sess.LockedTable)
	c.sess.TableRef = c.sess.LockedTable
	return true
}

// SelectTable sets the table for the order, starting a new order from idle.
// Returns false when the table lock kept the previous table.
func (c *Controller) SelectTable(table string) bool {
	table = strings.TrimSpace(table)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureActiveLocked()
	c.sess.TableRef = table
	c.reconcileLocked()
	return c.sess.TableRef == table
}

// Mutate applies a change made by some other actor to the session fields
// and then enforces the table lock. Mode, phase and order id cannot be
// changed this way.
func (c *Controller) Mutate(fn func(*domain.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.sess
	fn(&s)
	s.Mode, s.Phase, s.OrderID, s.LockedTable = c.sess.Mode, c.sess.Phase, c.sess.OrderID, c.sess.LockedTable
	c.sess = s
	c.reconcileLocked()
}

// SetCustomer records the guest details. Empty strings clear a field.
func (c *Controller) SetCustomer(name, phone string, guests int) error {
	if guests < 0 {
		return fmt.Errorf("guests %d: %w", guests, domain.ErrInvalidQuantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureActiveLocked()
	c.sess.CustomerName = strings.TrimSpace(name)
	c.sess.Phone = strings.TrimSpace(phone)
	c.sess.Guests = guests
	c.reconcileLocked()
	return nil
}

// SetPayment sets the payment method used by Submit.
func (c *Controller) SetPayment(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureActiveLocked()
	c.sess.Payment = strings.TrimSpace(method)
	c.reconcileLocked()
}

// AddItem adds a line to the cart. Refused while an existing order is
// still loading.
func (c *Controller) AddItem(item domain.CartItem) (domain.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.Phase == domain.PhaseHydrating {
		return domain.CartItem{}, domain.ErrHydrating
	}
	c.ensureActiveLocked()

	stored, err := c.ledger.Add(item)
	c.reconcileLocked()
	if err != nil {
		return domain.CartItem{}, err
	}
	c.log.Debug("added %dx %s (%s)", stored.Quantity, stored.Name, stored.Price)
	return stored, nil
}

// RemoveItem removes a line from the cart. In append mode this returns
// domain.ErrRemovalLocked and leaves the cart unchanged.
func (c *Controller) RemoveItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.Phase == domain.PhaseIdle || c.sess.Phase == domain.PhaseSubmitted {
		return domain.ErrNoSession
	}
	err := c.ledger.Remove(id)
	c.reconcileLocked()
	return err
}

// Submit posts the order. On success the cart is cleared and the session
// ends in the Submitted phase; on failure nothing changes.
func (c *Controller) Submit(ctx context.Context) (*domain.CreatedOrder, error) {
	c.mu.Lock()
	switch c.sess.Phase {
	case domain.PhaseIdle:
		c.mu.Unlock()
		return nil, domain.ErrNoSession
	case domain.PhaseHydrating:
		c.mu.Unlock()
		return nil, domain.ErrHydrating
	case domain.PhaseSubmitted:
		c.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}
	c.reconcileLocked()

	payload, err := c.payloadLocked()
	epoch := c.epoch
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	created, err := c.api.CreateOrder(ctx, payload)
	if err != nil {
		c.log.Error("submitting order for table %q: %v", payload.Table, err)
		return nil, fmt.Errorf("submitting order: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		c.resetLocked(domain.ModeNew, domain.PhaseSubmitted)
	}
	c.log.Info("order %s submitted (table %q, %d items)", created.ID, payload.Table, len(payload.Items))
	return created, nil
}

// payloadLocked builds the submission body from the current state.
func (c *Controller) payloadLocked() (domain.OrderPayload, error) {
	items := c.ledger.Items()
	pending := 0
	out := make([]domain.PayloadItem, 0, len(items))
	for _, it := range items {
		if !it.Existing {
			pending++
		}
		out = append(out, domain.PayloadItem{
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Price:      it.Price,
			DishID:     it.DishID,
			CategoryID: it.CategoryID,
			Notes:      it.Notes,
			Existing:   it.Existing,
		})
	}
	if pending == 0 {
		return domain.OrderPayload{}, domain.ErrEmptyCart
	}

	payment := c.sess.Payment
	if payment == "" {
		payment = c.paymentMethod
	}
	p := domain.OrderPayload{
		CreatedBy: c.createdBy,
		CustomerDetails: domain.CustomerDetails{
			Name:   c.sess.CustomerName,
			Phone:  c.sess.Phone,
			Guests: c.sess.Guests,
		},
		Items:         out,
		Table:         c.sess.TableRef,
		PaymentMethod: payment,
	}
	if c.sess.Mode == domain.ModeAppend {
		p.OrderID = c.sess.OrderID
	}
	return p, nil
}

// Cancel abandons the order in progress and returns to idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(domain.ModeNew, domain.PhaseIdle)
	c.log.Info("order cancelled")
}

// Teardown is called when the order view goes away. It discards the
// session and any order load still in flight.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(domain.ModeNew, domain.PhaseIdle)
	c.log.Debug("session torn down")
}

// Snapshot returns a copy of the session with its cart.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return View{
		Session:       c.sess,
		Items:         c.ledger.Items(),
		Total:         c.ledger.Total(),
		RemovalLocked: c.ledger.RemovalLocked(),
	}
}

// ensureActiveLocked starts a new order when nothing is in progress.
func (c *Controller) ensureActiveLocked() {
	if c.sess.Phase == domain.PhaseIdle || c.sess.Phase == domain.PhaseSubmitted {
		c.resetLocked(domain.ModeNew, domain.PhaseBuilding)
	}
}

func (c *Controller) resetLocked(mode domain.Mode, phase domain.Phase) {
	c.sess = domain.Session{Mode: mode, Phase: phase}
	c.ledger.Clear()
	c.ledger.SetRemovalLocked(false)
	c.epoch++
}

func (c *Controller) notify(ctx context.Context, msg string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, msg); err != nil {
		c.log.Error("notify: %v", err)
	}
}

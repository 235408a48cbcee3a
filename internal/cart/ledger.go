// Package cart holds the line items of the order being built and keeps the
// running total consistent with them.
package cart

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hammamikhairi/ottopos/internal/domain"
)

// Ledger is an ordered list of cart items. The total is always the sum of
// the stored line prices. Safe for concurrent use.
type Ledger struct {
	mu            sync.RWMutex
	items         []domain.CartItem
	removalLocked bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Add stores a locally created item. Its price is UnitPrice × Quantity and
// it is never marked as existing. The stored copy is returned.
func (l *Ledger) Add(item domain.CartItem) (domain.CartItem, error) {
	if item.Quantity <= 0 {
		return domain.CartItem{}, fmt.Errorf("adding %q: %w", item.Name, domain.ErrInvalidQuantity)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Price = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.Existing = false

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, item)
	return item, nil
}

// Remove deletes the item with the given id. While the removal lock is set
// the ledger is left untouched and ErrRemovalLocked is returned.
func (l *Ledger) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.removalLocked {
		return domain.ErrRemovalLocked
	}
	for i, it := range l.items {
		if it.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart item %q: %w", id, domain.ErrNotFound)
}

// ImportItems replaces the whole ledger in one step. Prices are kept as
// given. Items without an id get one.
func (l *Ledger) ImportItems(items []domain.CartItem) {
	next := make([]domain.CartItem, len(items))
	copy(next, items)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = uuid.NewString()
		}
	}

	l.mu.Lock()
	l.items = next
	l.mu.Unlock()
}

// Total returns the sum of line prices.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, it := range l.items {
		total = total.Add(it.Price)
	}
	return total
}

// Items returns a copy of the items in insertion order.
func (l *Ledger) Items() []domain.CartItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.CartItem, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of lines.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Find returns the item with the given id.
func (l *Ledger) Find(id string) (domain.CartItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.CartItem{}, false
}

// Clear empties the ledger. The removal lock is left as is.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

// SetRemovalLocked turns the removal lock on or off.
func (l *Ledger) SetRemovalLocked(locked bool) {
	l.mu.Lock()
	l.removalLocked = locked
	l.mu.Unlock()
}

// RemovalLocked reports whether removals are currently refused.
func (l *Ledger) RemovalLocked() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.removalLocked
}

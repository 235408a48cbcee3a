package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the order being built.
//
// Price is the authoritative line total. It is UnitPrice × Quantity for
// items added locally and the server's figure for items loaded from an
// existing order; it is never recomputed after the item is stored.
type CartItem struct {
	ID         string
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	Price      decimal.Decimal
	DishID     string
	CategoryID string
	Notes      string
	Existing   bool
}

// RemoteOrder is an existing order as returned by GET /orders/{id}.
type RemoteOrder struct {
	ID           string
	Table        string
	CustomerName string
	Phone        string
	Guests       int
	Items        []RemoteItem
}

// RemoteItem is a line of a RemoteOrder.
type RemoteItem struct {
	ID         string
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	Price      decimal.Decimal
	DishID     string
	CategoryID string
	Notes      string
}

// OrderPayload is the body of POST /orders. It is built once by the session
// controller and never mutated afterwards.
type OrderPayload struct {
	CreatedBy       string          `json:"createdBy"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
	Items           []PayloadItem   `json:"items"`
	Table           string          `json:"table,omitempty"`
	PaymentMethod   string          `json:"paymentMethod"`
	OrderID         string          `json:"orderId,omitempty"`
}

// CustomerDetails carries the guest fields of an order.
type CustomerDetails struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Guests int    `json:"guests"`
}

// PayloadItem is one line of an OrderPayload.
type PayloadItem struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Price      decimal.Decimal `json:"price"`
	DishID     string          `json:"dishId,omitempty"`
	CategoryID string          `json:"categoryId,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	Existing   bool            `json:"existing"`
}

// CreatedOrder is what the backend reports after POST /orders.
type CreatedOrder struct {
	ID     string
	Status string
}

// KitchenOrder is one order in a kitchen snapshot. It is recreated on every
// poll; only its ID carries over between polls.
type KitchenOrder struct {
	ID        string
	Table     string
	Items     []KitchenItem
	CreatedAt time.Time
	StatusRaw string
	IsNew     bool
}

// KitchenItem is a line of a KitchenOrder.
type KitchenItem struct {
	Name     string
	Quantity int
	Notes    string
}

// Age returns how long ago the order was created, measured against now.
// Orders without a known creation time, or created "in the future" because
// of clock skew, report zero.
func (o KitchenOrder) Age(now time.Time) time.Duration {
	if o.CreatedAt.IsZero() {
		return 0
	}
	if d := now.Sub(o.CreatedAt); d > 0 {
		return d
	}
	return 0
}

// Dish is a sellable menu entry.
type Dish struct {
	ID         string
	Name       string
	CategoryID string
	UnitPrice  decimal.Decimal
}

package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hammamikhairi/ottopos/internal/domain"
)

// ── Tolerant scalars ─────────────────────────────────────────────

// flexString accepts a JSON string, number or null. An object is reduced
// to its "name", "number" or "id" field, which covers backends that
// embed the table record instead of its identifier.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
	case b[0] == '{':
		var obj struct {
			Name   flexString `json:"name"`
			Number flexString `json:"number"`
			ID     flexString `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*f = firstNonEmpty(obj.Name, obj.Number, obj.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

// flexInt accepts a JSON number, a numeric string or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

// flexDecimal accepts a JSON number, a numeric string or null.
type flexDecimal struct {
	decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(s))
	if err != nil {
		f.Decimal = decimal.Zero
		return nil
	}
	f.Decimal = d
	return nil
}

func firstNonEmpty(vals ...flexString) flexString {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ── Wire types ───────────────────────────────────────────────────

type wireItem struct {
	ID          flexString  `json:"id"`
	Name        string      `json:"name"`
	Quantity    flexInt     `json:"quantity"`
	Qty         flexInt     `json:"qty"`
	Price       flexDecimal `json:"price"`
	UnitPrice   flexDecimal `json:"unit_price"`
	UnitPriceC  flexDecimal `json:"unitPrice"`
	DishID      flexString  `json:"dish_id"`
	DishIDC     flexString  `json:"dishId"`
	CategoryID  flexString  `json:"category_id"`
	CategoryIDC flexString  `json:"categoryId"`
	Notes       string      `json:"notes"`
}

func (w wireItem) quantity() int {
	if w.Quantity != 0 {
		return int(w.Quantity)
	}
	return int(w.Qty)
}

func (w wireItem) unitPrice() decimal.Decimal {
	if !w.UnitPrice.IsZero() {
		return w.UnitPrice.Decimal
	}
	return w.UnitPriceC.Decimal
}

type wireCustomer struct {
	Name   string     `json:"name"`
	Phone  flexString `json:"phone"`
	Guests flexInt    `json:"guests"`
}

type wireOrder struct {
	ID        flexString      `json:"id"`
	AltID     flexString      `json:"_id"`
	Table     flexString      `json:"table"`
	TableNo   flexString      `json:"table_no"`
	TableID   flexString      `json:"table_id"`
	Name      string          `json:"name"`
	Phone     flexString      `json:"phone"`
	Guests    flexInt         `json:"guests"`
	Customer  *wireCustomer   `json:"customerDetails"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
	OrderDate string          `json:"order_date"`
	Items     json.RawMessage `json:"items"`
}

func (w wireOrder) id() string {
	return string(firstNonEmpty(w.ID, w.AltID))
}

func (w wireOrder) table() string {
	return string(firstNonEmpty(w.Table, w.TableNo, w.TableID))
}

// ── Decoding helpers ─────────────────────────────────────────────

// decodeItems reads an items field that is either a JSON array or a string
// containing one. Anything unreadable yields an empty list and ok=false.
func decodeItems(raw json.RawMessage) (items []wireItem, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, true
		}
		raw = json.RawMessage(s)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

// parseTime tries the layouts backends are known to use. Zone-less values
// are read as UTC. Returns the zero time when nothing matches.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// unwrapList finds the order array in a bare array or in an object under
// "data" or "orders", one level of nesting deep.
func unwrapList(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []json.RawMessage
		err := json.Unmarshal(raw, &list)
		return list, err
	}

	var env struct {
		Data   json.RawMessage `json:"data"`
		Orders json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	for _, inner := range []json.RawMessage{env.Orders, env.Data} {
		inner = bytes.TrimSpace(inner)
		if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
			continue
		}
		if inner[0] == '[' {
			var list []json.RawMessage
			err := json.Unmarshal(inner, &list)
			return list, err
		}
		var nested struct {
			Orders []json.RawMessage `json:"orders"`
		}
		if err := json.Unmarshal(inner, &nested); err == nil && nested.Orders != nil {
			return nested.Orders, nil
		}
	}
	return nil, domain.ErrMalformedPayload
}

// unwrapObject returns the object under "data" or "order" when present, or
// raw itself.
func unwrapObject(raw json.RawMessage) json.RawMessage {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	for _, inner := range []json.RawMessage{env.Order, env.Data} {
		inner = bytes.TrimSpace(inner)
		if len(inner) > 0 && inner[0] == '{' {
			return inner
		}
	}
	return raw
}

// ── Mapping ──────────────────────────────────────────────────────

func toKitchenOrder(w wireOrder, items []wireItem) domain.KitchenOrder {
	created := parseTime(w.CreatedAt)
	if created.IsZero() {
		created = parseTime(w.OrderDate)
	}
	out := domain.KitchenOrder{
		ID:        w.id(),
		Table:     w.table(),
		CreatedAt: created,
		StatusRaw: strings.TrimSpace(w.Status),
		Items:     make([]domain.KitchenItem, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, domain.KitchenItem{
			Name:     it.Name,
			Quantity: it.quantity(),
			Notes:    it.Notes,
		})
	}
	return out
}

func toRemoteOrder(w wireOrder, items []wireItem) *domain.RemoteOrder {
	out := &domain.RemoteOrder{
		ID:           w.id(),
		Table:        w.table(),
		CustomerName: strings.TrimSpace(w.Name),
		Phone:        string(w.Phone),
		Guests:       int(w.Guests),
		Items:        make([]domain.RemoteItem, 0, len(items)),
	}
	if c := w.Customer; c != nil {
		if out.CustomerName == "" {
			out.CustomerName = strings.TrimSpace(c.Name)
		}
		if out.Phone == "" {
			out.Phone = string(c.Phone)
		}
		if out.Guests == 0 {
			out.Guests = int(c.Guests)
		}
	}
	for _, it := range items {
		out.Items = append(out.Items, domain.RemoteItem{
			ID:         string(it.ID),
			Name:       it.Name,
			Quantity:   it.quantity(),
			UnitPrice:  it.unitPrice(),
			Price:      it.Price.Decimal,
			DishID:     string(firstNonEmpty(it.DishID, it.DishIDC)),
			CategoryID: string(firstNonEmpty(it.CategoryID, it.CategoryIDC)),
			Notes:      it.Notes,
		})
	}
	return out
}

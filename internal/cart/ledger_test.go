package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hammamikhairi/ottopos/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddComputesLinePrice(t *testing.T) {
	l := New()

	got, err := l.Add(domain.CartItem{Name: "Margherita", Quantity: 3, UnitPrice: dec("8.50"), Existing: true})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if !got.Price.Equal(dec("25.50")) {
		t.Errorf("price = %s, want 25.50", got.Price)
	}
	if got.Existing {
		t.Error("locally added item must not be marked existing")
	}
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	l := New()
	for _, q := range []int{0, -2} {
		if _, err := l.Add(domain.CartItem{Name: "x", Quantity: q, UnitPrice: dec("1")}); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("qty %d: err = %v, want ErrInvalidQuantity", q, err)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("len = %d, want 0", l.Len())
	}
}

func TestTotalIsSumOfPrices(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Ledger)
		want  string
	}{
		{"empty", func(*Ledger) {}, "0"},
		{"adds", func(l *Ledger) {
			l.Add(domain.CartItem{Name: "a", Quantity: 2, UnitPrice: dec("0.10")})
			l.Add(domain.CartItem{Name: "b", Quantity: 1, UnitPrice: dec("0.20")})
		}, "0.40"},
		{"import keeps verbatim prices", func(l *Ledger) {
			// Server line total intentionally differs from unit × qty.
			l.ImportItems([]domain.CartItem{
				{ID: "r1", Name: "Soup", Quantity: 2, UnitPrice: dec("4"), Price: dec("7.5"), Existing: true},
			})
		}, "7.5"},
		{"after remove", func(l *Ledger) {
			a, _ := l.Add(domain.CartItem{Name: "a", Quantity: 1, UnitPrice: dec("3")})
			l.Add(domain.CartItem{Name: "b", Quantity: 1, UnitPrice: dec("4")})
			l.Remove(a.ID)
		}, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			tt.setup(l)

			sum := decimal.Zero
			for _, it := range l.Items() {
				sum = sum.Add(it.Price)
			}
			if !l.Total().Equal(sum) {
				t.Fatalf("total %s != sum of items %s", l.Total(), sum)
			}
			if !l.Total().Equal(dec(tt.want)) {
				t.Fatalf("total = %s, want %s", l.Total(), tt.want)
			}
		})
	}
}

func TestImportItemsIsIdempotentInCount(t *testing.T) {
	l := New()
	list := []domain.CartItem{
		{ID: "1", Name: "a", Quantity: 1, Price: dec("2"), Existing: true},
		{ID: "2", Name: "b", Quantity: 2, Price: dec("6"), Existing: true},
	}

	l.ImportItems(list)
	l.ImportItems(list)

	if l.Len() != len(list) {
		t.Fatalf("len = %d, want %d", l.Len(), len(list))
	}
	if !l.Total().Equal(dec("8")) {
		t.Fatalf("total = %s, want 8", l.Total())
	}
}

func TestImportItemsDoesNotAliasInput(t *testing.T) {
	l := New()
	list := []domain.CartItem{{Name: "a", Quantity: 1, Price: dec("1")}}
	l.ImportItems(list)

	if list[0].ID != "" {
		t.Fatal("input slice was modified")
	}
	if l.Items()[0].ID == "" {
		t.Fatal("imported item without id should be given one")
	}
}

func TestRemovalLock(t *testing.T) {
	l := New()
	it, _ := l.Add(domain.CartItem{Name: "a", Quantity: 1, UnitPrice: dec("5")})
	l.SetRemovalLocked(true)

	err := l.Remove(it.ID)
	if !errors.Is(err, domain.ErrRemovalLocked) {
		t.Fatalf("err = %v, want ErrRemovalLocked", err)
	}
	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}

	l.SetRemovalLocked(false)
	if err := l.Remove(it.ID); err != nil {
		t.Fatalf("remove after unlock: %v", err)
	}
	if err := l.Remove(it.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second remove err = %v, want ErrNotFound", err)
	}
}

func TestClearKeepsLock(t *testing.T) {
	l := New()
	l.Add(domain.CartItem{Name: "a", Quantity: 1, UnitPrice: dec("5")})
	l.SetRemovalLocked(true)
	l.Clear()

	if l.Len() != 0 || !l.Total().IsZero() {
		t.Fatalf("clear left len=%d total=%s", l.Len(), l.Total())
	}
	if !l.RemovalLocked() {
		t.Fatal("clear should not touch the removal lock")
	}
	if _, ok := l.Find("missing"); ok {
		t.Fatal("find on empty ledger returned ok")
	}
}

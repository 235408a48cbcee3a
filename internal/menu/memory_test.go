package menu

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

func TestMemorySourceListAndGet(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	dishes, err := src.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(dishes) == 0 {
		t.Fatal("expected seeded dishes")
	}
	for i := 1; i < len(dishes); i++ {
		if dishes[i-1].CategoryID > dishes[i].CategoryID {
			t.Fatalf("list not ordered by category at %d", i)
		}
	}

	d, err := src.Get(ctx, "pho-bo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Name != "Pho bo" || d.UnitPrice.String() != "11.5" {
		t.Fatalf("dish = %+v", d)
	}
	if _, err := src.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFind(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()
	dishes, _ := src.List(ctx)

	tests := []struct {
		query   string
		wantID  string
		wantErr bool
	}{
		{"1", dishes[0].ID, false},
		{"green-curry", "green-curry", false},
		{"bun", "bun-cha", false},
		{"MISO", "miso-soup", false},
		{"99", "", true},
		{"pizza", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d, err := Find(ctx, src, tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && d.ID != tt.wantID {
				t.Fatalf("found %s, want %s", d.ID, tt.wantID)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	content := `dishes:
  - id: laksa
    name: Laksa
    category: mains
    price: "13.25"
  - name: Coconut Water
    category: drinks
    price: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := LoadFile(path, logger.New(logger.LevelOff, nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d, err := src.Get(context.Background(), "coconut-water")
	if err != nil {
		t.Fatalf("get generated id: %v", err)
	}
	if d.UnitPrice.String() != "4" {
		t.Fatalf("price = %s", d.UnitPrice)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("dishes:\n  - name: X\n    price: cheap\n"), 0o644)
	if _, err := LoadFile(bad, logger.New(logger.LevelOff, nil)); err == nil {
		t.Fatal("expected price parse error")
	}
}

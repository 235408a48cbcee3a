package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/hammamikhairi/ottopos/internal/logger"
)

func TestMemorySeenStoreObserve(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewMemorySeenStore(log)
	ctx := context.Background()

	steps := []struct {
		ids     []string
		wantNew []string
	}{
		{[]string{"1", "2"}, []string{"1", "2"}},
		{[]string{"1", "2", "3"}, []string{"3"}},
		{[]string{"1", "2", "3"}, nil},
	}

	for i, step := range steps {
		fresh, err := store.Observe(ctx, step.ids, uint64(i+1))
		if err != nil {
			t.Fatalf("cycle %d: observe: %v", i+1, err)
		}
		if len(fresh) != len(step.wantNew) {
			t.Fatalf("cycle %d: new = %v, want %v", i+1, fresh, step.wantNew)
		}
		for _, id := range step.wantNew {
			if !fresh[id] {
				t.Fatalf("cycle %d: %s not reported new", i+1, id)
			}
		}
	}

	if store.Len() != 3 {
		t.Fatalf("expected 3 remembered ids, got %d", store.Len())
	}
}

func TestMemorySeenStoreEvict(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewMemorySeenStore(log)
	ctx := context.Background()

	store.Observe(ctx, []string{"old"}, 1)
	store.Observe(ctx, []string{"kept"}, 5)

	n, err := store.Evict(ctx, 3)
	if err != nil {
		t.Fatalf("evict: %v", err)
	}
	if n != 1 || store.Len() != 1 {
		t.Fatalf("evicted %d, len %d; want 1 and 1", n, store.Len())
	}

	// An evicted id that comes back counts as new again.
	fresh, _ := store.Observe(ctx, []string{"old", "kept"}, 6)
	if !fresh["old"] || fresh["kept"] {
		t.Fatalf("unexpected novelty after eviction: %v", fresh)
	}
}

func TestMemorySeenStoreConcurrent(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewMemorySeenStore(log)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(cycle uint64) {
			defer wg.Done()
			store.Observe(ctx, []string{"a", "b"}, cycle)
		}(uint64(i))
	}
	wg.Wait()

	if store.Len() != 2 {
		t.Fatalf("expected 2 ids, got %d", store.Len())
	}
}

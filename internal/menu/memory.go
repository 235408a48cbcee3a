// Package menu provides the dish catalog orders are built from.
package menu

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Compile-time interface check.
var _ domain.MenuSource = (*MemorySource)(nil)

// MemorySource holds dishes in memory. Safe for concurrent reads.
type MemorySource struct {
	mu     sync.RWMutex
	dishes map[string]domain.Dish
	log    *logger.Logger
}

// NewMemorySource creates a catalog preloaded with the built-in dishes.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		dishes: make(map[string]domain.Dish),
		log:    log,
	}
	src.seed()
	return src
}

// fileDish is the YAML shape of one dish.
type fileDish struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Price    string `yaml:"price"`
}

// LoadFile creates a catalog from a YAML file:
//
//	dishes:
//	  - id: pho
//	    name: Pho bo
//	    category: mains
//	    price: "11.50"
func LoadFile(path string, log *logger.Logger) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("menu: read %s: %w", path, err)
	}

	var doc struct {
		Dishes []fileDish `yaml:"dishes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("menu: parse %s: %w", path, err)
	}

	src := &MemorySource{
		dishes: make(map[string]domain.Dish, len(doc.Dishes)),
		log:    log,
	}
	for i, d := range doc.Dishes {
		price, err := decimal.NewFromString(strings.TrimSpace(d.Price))
		if err != nil {
			return nil, fmt.Errorf("menu: dish %d (%s): price %q: %w", i+1, d.Name, d.Price, err)
		}
		id := strings.TrimSpace(d.ID)
		if id == "" {
			id = slug(d.Name)
		}
		if _, dup := src.dishes[id]; dup {
			return nil, fmt.Errorf("menu: duplicate dish id %q", id)
		}
		src.dishes[id] = domain.Dish{ID: id, Name: d.Name, CategoryID: d.Category, UnitPrice: price}
	}
	log.Info("menu loaded from %s: %d dishes", path, len(src.dishes))
	return src, nil
}

// List returns every dish, ordered by category then name.
func (s *MemorySource) List(ctx context.Context) ([]domain.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Dish, 0, len(s.dishes))
	for _, d := range s.dishes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Get returns a dish by ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dishes[id]
	if !ok {
		s.log.Debug("dish not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

// Find resolves what an operator typed: a 1-based position in List, a dish
// id, or the start of a dish name.
func Find(ctx context.Context, src domain.MenuSource, query string) (*domain.Dish, error) {
	query = strings.TrimSpace(query)
	dishes, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := strconv.Atoi(query); err == nil {
		if n >= 1 && n <= len(dishes) {
			return &dishes[n-1], nil
		}
		return nil, fmt.Errorf("menu item %d: %w", n, domain.ErrNotFound)
	}
	if d, err := src.Get(ctx, query); err == nil {
		return d, nil
	}

	q := strings.ToLower(query)
	var match *domain.Dish
	for i := range dishes {
		if strings.HasPrefix(strings.ToLower(dishes[i].Name), q) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one dish", query)
			}
			match = &dishes[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("dish %q: %w", query, domain.ErrNotFound)
	}
	return match, nil
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func (s *MemorySource) seed() {
	dishes := []struct {
		id, name, cat, price string
	}{
		{"spring-rolls", "Spring rolls", "starters", "5.50"},
		{"miso-soup", "Miso soup", "starters", "4.00"},
		{"pho-bo", "Pho bo", "mains", "11.50"},
		{"bun-cha", "Bun cha", "mains", "12.00"},
		{"green-curry", "Green curry", "mains", "12.50"},
		{"jasmine-rice", "Jasmine rice", "sides", "2.50"},
		{"iced-tea", "Iced tea", "drinks", "3.00"},
		{"lime-soda", "Lime soda", "drinks", "3.50"},
	}
	for _, d := range dishes {
		s.dishes[d.id] = domain.Dish{
			ID:         d.id,
			Name:       d.name,
			CategoryID: d.cat,
			UnitPrice:  decimal.RequireFromString(d.price),
		}
	}
	s.log.Debug("menu seeded with %d dishes", len(dishes))
}

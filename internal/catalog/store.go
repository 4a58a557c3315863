package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/storefront/internal/domain"
)

// Store is the in-memory catalog shared by every visitor.
type Store struct {
	mu       sync.RWMutex
	products []domain.Product
}

func NewStore(products []domain.Product) *Store {
	return &Store{products: append([]domain.Product{}, products...)}
}

// Load fills a Store from src once at startup.
func Load(ctx context.Context, src Source) (*Store, error) {
	products, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return NewStore(products), nil
}

func (s *Store) List() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product{}, s.products...)
}

func (s *Store) Get(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) ByCategory(category domain.Category) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Product{}
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Append lists p ahead of everything already in the catalog.
func (s *Store) Append(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]domain.Product, 0, len(s.products)+1)
	next = append(next, p)
	s.products = append(next, s.products...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Package store persists products: in memory, in Postgres, and behind a Redis
// read-through cache.
package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"catalog/internal/product/models"
	"catalog/pkg/platform/sentinel"
)

// InMemoryStore keeps products in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[int64]*models.Product
	nextID   int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{products: make(map[int64]*models.Product)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	stored := *p
	s.products[p.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *p
	return &found, nil
}

func (s *InMemoryStore) List(_ context.Context, q models.ListQuery) (*models.ListResult, error) {
	s.mu.RLock()
	matched := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		if matches(p, q) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *models.Product) int {
		c := compareBy(a, b, q.SortBy)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Desc {
			return -c
		}
		return c
	})

	result := &models.ListResult{Total: len(matched), Products: []*models.Product{}}
	start := min(max(q.Offset, 0), len(matched))
	end := len(matched)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(matched))
	}
	result.Products = append(result.Products, matched[start:end]...)
	return result, nil
}

func (s *InMemoryStore) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	stored := *p
	s.products[p.ID] = &stored
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func matches(p *models.Product, q models.ListQuery) bool {
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			return false
		}
	}
	return true
}

func compareBy(a, b *models.Product, col models.SortColumn) int {
	switch col {
	case models.SortName:
		return cmp.Compare(a.Name, b.Name)
	case models.SortCategory:
		return cmp.Compare(a.Category, b.Category)
	case models.SortPrice:
		return cmp.Compare(a.Price, b.Price)
	case models.SortStock:
		return cmp.Compare(a.Stock, b.Stock)
	case models.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

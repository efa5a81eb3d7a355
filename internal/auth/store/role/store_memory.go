package role

import (
	"context"
	"sync"

	"catalog/internal/auth/models"
	"catalog/pkg/domain"
	"catalog/pkg/platform/sentinel"
)

// InMemoryRoleStore holds the role table in memory.
type InMemoryRoleStore struct {
	mu     sync.RWMutex
	byName map[domain.RoleName]*models.Role
	byID   map[int64]*models.Role
}

func New() *InMemoryRoleStore {
	return &InMemoryRoleStore{
		byName: make(map[domain.RoleName]*models.Role),
		byID:   make(map[int64]*models.Role),
	}
}

// EnsureAll creates any missing role in names. Existing rows keep their ids.
func (s *InMemoryRoleStore) EnsureAll(_ context.Context, names []domain.RoleName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if _, ok := s.byName[name]; ok {
			continue
		}
		r := &models.Role{ID: int64(len(s.byID) + 1), Name: name}
		s.byName[name] = r
		s.byID[r.ID] = r
	}
	return nil
}

func (s *InMemoryRoleStore) FindByID(_ context.Context, id int64) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byID[id]; ok {
		found := *r
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryRoleStore) FindByName(_ context.Context, name domain.RoleName) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byName[name]; ok {
		found := *r
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

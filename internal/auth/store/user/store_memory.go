package user

import (
	"context"
	"sync"

	"catalog/internal/auth/models"
	"catalog/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in process memory with a unique username index.
type InMemoryUserStore struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	byUsername map[string]int64
	nextID     int64
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:      make(map[int64]*models.User),
		byUsername: make(map[string]int64),
	}
}

// Create assigns an id to user and stores it. A taken username is
// sentinel.ErrConflict.
func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return sentinel.ErrConflict
	}
	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.users[user.ID] = &stored
	s.byUsername[user.Username] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		found := *u
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byUsername[username]; ok {
		found := *s.users[id]
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

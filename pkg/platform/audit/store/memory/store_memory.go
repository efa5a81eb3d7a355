package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/sentinel"
)

// ActorDirectory resolves actor ids to their display identity. It returns
// sentinel.ErrNotFound for unknown actors.
type ActorDirectory interface {
	LookupActor(ctx context.Context, id int64) (*audit.Actor, error)
}

// InMemoryStore is an append-only ledger held in memory. When an
// ActorDirectory is configured it enforces that actors exist, mirroring the
// Postgres foreign key, and joins actors on read.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*audit.Record
	actors  ActorDirectory
}

func NewInMemoryStore(actors ActorDirectory) *InMemoryStore {
	return &InMemoryStore{actors: actors}
}

func (s *InMemoryStore) Append(ctx context.Context, rec *audit.Record) (int64, error) {
	if s.actors != nil {
		if _, err := s.actors.LookupActor(ctx, rec.ActorID); err != nil {
			return 0, fmt.Errorf("append audit record: actor %d: %w", rec.ActorID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *rec
	stored.ID = int64(len(s.records) + 1)
	stored.Details = append([]byte(nil), rec.Details...)
	stored.Actor = nil
	s.records = append(s.records, &stored)
	return stored.ID, nil
}

func (s *InMemoryStore) List(ctx context.Context, filter audit.Filter) (*audit.Page, error) {
	s.mu.RLock()
	matched := make([]audit.Record, 0, len(s.records))
	for _, rec := range s.records {
		if matches(rec, filter) {
			matched = append(matched, *rec)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	page := &audit.Page{Total: len(matched), Records: []*audit.Record{}}
	start := min(max(filter.Offset, 0), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}
	for i := start; i < end; i++ {
		rec := matched[i]
		if s.actors != nil {
			actor, err := s.actors.LookupActor(ctx, rec.ActorID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, fmt.Errorf("list audit records: %w", err)
			}
			rec.Actor = actor
		}
		page.Records = append(page.Records, &rec)
	}
	return page, nil
}

func matches(rec *audit.Record, f audit.Filter) bool {
	if f.ActorID != nil && rec.ActorID != *f.ActorID {
		return false
	}
	if f.Action != "" && rec.Action != f.Action {
		return false
	}
	if f.EntityType != "" && rec.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != nil && (rec.EntityID == nil || *rec.EntityID != *f.EntityID) {
		return false
	}
	if f.From != nil && rec.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

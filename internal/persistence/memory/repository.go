// Package memory keeps session records in process for local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Strangemortal/Holistiq/internal/domain"
	"github.com/Strangemortal/Holistiq/internal/observability"
	"github.com/Strangemortal/Holistiq/internal/persistence"
)

// Repository stores session records in memory, newest first.
type Repository struct {
	mu      sync.RWMutex
	records map[domain.Surface][]domain.SessionRecord
	byID    map[string]domain.SessionRecord
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		records: make(map[domain.Surface][]domain.SessionRecord),
		byID:    make(map[string]domain.SessionRecord),
	}
}

// Create implements domain.SessionRepository.
func (r *Repository) Create(_ context.Context, record domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// IDs are unique across surfaces.
	if _, ok := r.byID[record.ID]; ok {
		return domain.ErrDuplicateSession
	}

	list := append(r.records[record.Surface], record)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].RecordedAt.Equal(list[j].RecordedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].RecordedAt.After(list[j].RecordedAt)
	})
	r.records[record.Surface] = list
	r.byID[record.ID] = record
	observability.RecordSessionPersisted(record.RecordedAt)
	return nil
}

// Get implements domain.SessionRepository.
func (r *Repository) Get(_ context.Context, id string) (domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.byID[id]
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return record, nil
}

// ListBySurface implements domain.SessionRepository.
func (r *Repository) ListBySurface(_ context.Context, surface domain.Surface, cursor *domain.Cursor, limit int) ([]domain.SessionRecord, *domain.Cursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]domain.SessionRecord, 0, limit)
	for _, record := range r.records[surface] {
		if !persistence.Before(cursor, record) {
			continue
		}
		results = append(results, record)
		if len(results) == limit {
			break
		}
	}

	var next *domain.Cursor
	if limit > 0 && len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{RecordedAt: last.RecordedAt, ID: last.ID}
	}
	return results, next, nil
}

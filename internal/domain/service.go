// Package domain defines the business logic for recorded timer sessions.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSurface is returned for sessions that do not belong to a known timer view.
	ErrInvalidSurface   = errors.New("surface must be workout or meditation")
	// ErrInvalidDuration is returned for sessions shorter than one minute.
	ErrInvalidDuration  = errors.New("duration must be at least one minute")
	// ErrDuplicateSession is returned by repositories when the session ID is already stored.
	ErrDuplicateSession = errors.New("session already recorded")
	// ErrSessionNotFound is returned by repositories for unknown session IDs.
	ErrSessionNotFound  = errors.New("session not found")
)

// SessionRepository captures persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, record SessionRecord) error
	Get(ctx context.Context, id string) (SessionRecord, error)
	ListBySurface(ctx context.Context, surface Surface, cursor *Cursor, limit int) ([]SessionRecord, *Cursor, error)
}

// Service orchestrates session workflows.
type Service struct {
	repo SessionRepository
	now  func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service.
func NewService(repo SessionRepository, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordSessionInput captures the payload from the API layer.
type RecordSessionInput struct {
	// Token is the client-generated session token. A valid UUID becomes the record ID.
	Token        string
	Surface      Surface
	ActivityKind string
	DurationMin  int
}

// RecordSession validates and persists a completed session. Replaying a
// session token that is already stored succeeds without writing again and
// returns the record as first stored.
func (s *Service) RecordSession(ctx context.Context, input RecordSessionInput) (*SessionRecord, error) {
	if !input.Surface.Valid() {
		return nil, ErrInvalidSurface
	}
	if input.DurationMin < 1 {
		return nil, ErrInvalidDuration
	}

	id := uuid.NewString()
	if parsed, err := uuid.Parse(strings.TrimSpace(input.Token)); err == nil {
		id = parsed.String()
	}

	record := SessionRecord{
		ID:           id,
		Surface:      input.Surface,
		ActivityKind: strings.TrimSpace(input.ActivityKind),
		DurationMin:  input.DurationMin,
		RecordedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if !errors.Is(err, ErrDuplicateSession) {
			return nil, err
		}
		stored, err := s.repo.Get(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		return &stored, nil
	}
	return &record, nil
}

// ListSessions fetches sessions for one surface with cursor pagination.
func (s *Service) ListSessions(ctx context.Context, surface Surface, cursor *Cursor, limit int) ([]SessionRecord, *Cursor, error) {
	if !surface.Valid() {
		return nil, nil, ErrInvalidSurface
	}
	return s.repo.ListBySurface(ctx, surface, cursor, limit)
}

// Report groups recent sessions by surface.
type Report struct {
	GeneratedAt time.Time
	Sessions    map[Surface][]SessionRecord
}

// Reports returns the most recent limit sessions of every surface.
func (s *Service) Reports(ctx context.Context, limit int) (Report, error) {
	report := Report{GeneratedAt: s.now().UTC(), Sessions: make(map[Surface][]SessionRecord, len(Surfaces))}
	for _, surface := range Surfaces {
		records, _, err := s.repo.ListBySurface(ctx, surface, nil, limit)
		if err != nil {
			return Report{}, err
		}
		report.Sessions[surface] = records
	}
	return report, nil
}

const exportPageSize = 200

// Export returns every stored session, newest first, grouped by surface.
func (s *Service) Export(ctx context.Context) (Report, error) {
	report := Report{GeneratedAt: s.now().UTC(), Sessions: make(map[Surface][]SessionRecord, len(Surfaces))}
	for _, surface := range Surfaces {
		var all []SessionRecord
		var cursor *Cursor
		for {
			page, next, err := s.repo.ListBySurface(ctx, surface, cursor, exportPageSize)
			if err != nil {
				return Report{}, err
			}
			all = append(all, page...)
			if next == nil {
				break
			}
			cursor = next
		}
		report.Sessions[surface] = all
	}
	return report, nil
}

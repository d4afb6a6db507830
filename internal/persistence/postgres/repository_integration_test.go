//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Strangemortal/Holistiq/internal/domain"
	"github.com/Strangemortal/Holistiq/internal/events"
	"github.com/Strangemortal/Holistiq/internal/testsupport"
)

func TestCreateWritesRecordAndOutboxEvent(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := NewRepository(pool, "")

	record := domain.SessionRecord{
		ID:           uuid.NewString(),
		Surface:      domain.SurfaceMeditation,
		ActivityKind: "breathing",
		DurationMin:  12,
		RecordedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, record))

	var (
		eventType, topic, key string
		payload               []byte
	)
	err := pool.QueryRow(ctx,
		`SELECT event_type, topic, partition_key, payload FROM outbox WHERE aggregate_id = $1`,
		record.ID,
	).Scan(&eventType, &topic, &key, &payload)
	require.NoError(t, err)
	require.Equal(t, events.TypeSessionCommitted, eventType)
	require.Equal(t, events.DefaultTopic, topic)
	require.Equal(t, "meditation", key)

	var evt events.SessionCommitted
	require.NoError(t, json.Unmarshal(payload, &evt))
	require.Equal(t, record.ID, evt.SessionID)
	require.Equal(t, 12, evt.DurationMin)

	require.ErrorIs(t, repo.Create(ctx, record), domain.ErrDuplicateSession)

	moved := record
	moved.Surface = domain.SurfaceWorkout
	require.ErrorIs(t, repo.Create(ctx, moved), domain.ErrDuplicateSession)

	stored, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, record, stored)

	_, err = repo.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	var outboxRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&outboxRows))
	require.Equal(t, 1, outboxRows, "failed insert must not leave an outbox row")
}

func TestListBySurfacePaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := NewRepository(pool, "session_events")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		rec := domain.SessionRecord{
			ID:           uuid.NewString(),
			Surface:      domain.SurfaceWorkout,
			ActivityKind: "cardio",
			DurationMin:  i + 1,
			RecordedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		ids = append(ids, rec.ID)
		require.NoError(t, repo.Create(ctx, rec))
	}
	require.NoError(t, repo.Create(ctx, domain.SessionRecord{
		ID:          uuid.NewString(),
		Surface:     domain.SurfaceMeditation,
		DurationMin: 3,
		RecordedAt:  base,
	}))

	first, next, err := repo.ListBySurface(ctx, domain.SurfaceWorkout, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, ids[4], first[0].ID)
	require.Equal(t, ids[3], first[1].ID)
	require.NotNil(t, next)

	second, next, err := repo.ListBySurface(ctx, domain.SurfaceWorkout, next, 2)
	require.NoError(t, err)
	require.Equal(t, []string{ids[2], ids[1]}, []string{second[0].ID, second[1].ID})
	require.NotNil(t, next)

	last, next, err := repo.ListBySurface(ctx, domain.SurfaceWorkout, next, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.Equal(t, ids[0], last[0].ID)
	require.Nil(t, next)
}

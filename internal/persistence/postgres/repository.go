package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strangemortal/Holistiq/internal/domain"
	"github.com/Strangemortal/Holistiq/internal/events"
	"github.com/Strangemortal/Holistiq/internal/observability"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for session records and outbox events.
type Repository struct {
	pool  *pgxpool.Pool
	topic string
}

// NewRepository constructs a Repository. Outbox rows are routed to topic.
func NewRepository(pool *pgxpool.Pool, topic string) *Repository {
	if topic == "" {
		topic = events.DefaultTopic
	}
	return &Repository{pool: pool, topic: topic}
}

// Create persists the record and its session.committed outbox event inside a single transaction.
func (r *Repository) Create(ctx context.Context, record domain.SessionRecord) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insertRecord = `INSERT INTO session_records (session_id, surface, activity_kind, duration_min, recorded_at)
        VALUES ($1,$2,$3,$4,$5)`

	if _, err = tx.Exec(ctx, insertRecord,
		record.ID,
		string(record.Surface),
		record.ActivityKind,
		record.DurationMin,
		record.RecordedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateSession
		}
		return err
	}

	if err = r.insertOutbox(ctx, tx, record); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordSessionPersisted(record.RecordedAt)
	return nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, record domain.SessionRecord) error {
	body, err := json.Marshal(events.SessionCommitted{
		SessionID:    record.ID,
		Surface:      string(record.Surface),
		ActivityKind: record.ActivityKind,
		DurationMin:  record.DurationMin,
		RecordedAt:   record.RecordedAt,
	})
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = tx.Exec(ctx, stmt,
		record.ID,
		events.TypeSessionCommitted,
		r.topic,
		string(record.Surface),
		body,
		fmt.Sprintf("%s:%s", record.ID, events.TypeSessionCommitted),
	)
	return err
}

// Get loads one session record by ID.
func (r *Repository) Get(ctx context.Context, id string) (domain.SessionRecord, error) {
	const query = `SELECT session_id::text, surface, activity_kind, duration_min, recorded_at
        FROM session_records WHERE session_id = $1`

	var rec domain.SessionRecord
	var surfaceName string
	err := r.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &surfaceName, &rec.ActivityKind, &rec.DurationMin, &rec.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionRecord{}, err
	}
	rec.Surface = domain.Surface(surfaceName)
	rec.RecordedAt = rec.RecordedAt.UTC()
	return rec, nil
}

// ListBySurface returns sessions for a surface ordered newest first.
func (r *Repository) ListBySurface(ctx context.Context, surface domain.Surface, cursor *domain.Cursor, limit int) ([]domain.SessionRecord, *domain.Cursor, error) {
	args := []interface{}{string(surface), limit}
	query := `SELECT session_id::text, surface, activity_kind, duration_min, recorded_at
        FROM session_records WHERE surface=$1`

	if cursor != nil {
		query += ` AND (recorded_at, session_id::text) < ($3, $4)`
		args = append(args, cursor.RecordedAt, cursor.ID)
	}

	query += ` ORDER BY recorded_at DESC, session_id::text DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.SessionRecord, 0, limit)
	for rows.Next() {
		var rec domain.SessionRecord
		var surfaceName string
		if err := rows.Scan(&rec.ID, &surfaceName, &rec.ActivityKind, &rec.DurationMin, &rec.RecordedAt); err != nil {
			return nil, nil, err
		}
		rec.Surface = domain.Surface(surfaceName)
		rec.RecordedAt = rec.RecordedAt.UTC()
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if limit > 0 && len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{RecordedAt: last.RecordedAt, ID: last.ID}
	}

	return results, nextCursor, nil
}

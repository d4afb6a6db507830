// Package outbox delivers committed session events from Postgres to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
)

const (
	// HeaderEventType carries the outbox event type on every Kafka message.
	HeaderEventType = "event_type"
	// HeaderEventID carries the outbox row id.
	HeaderEventID = "event_id"

	defaultClaimLease = 30 * time.Second
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger overrides the dispatcher logger.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClaimLease sets how long a claimed row stays invisible to other dispatchers.
func WithClaimLease(lease time.Duration) Option {
	return func(d *Dispatcher) {
		if lease > 0 {
			d.claimLease = lease
		}
	}
}

// Dispatcher drains the outbox table and delivers events to Kafka.
type Dispatcher struct {
	pool             *pgxpool.Pool
	producer         messageWriter
	logger           *log.Logger
	pollInterval     time.Duration
	batchSize        int
	claimLease       time.Duration
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(pool *pgxpool.Pool, producer messageWriter, pollInterval time.Duration, batchSize int, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		pool:             pool,
		producer:         producer,
		logger:           log.New(log.Writer(), "[outbox] ", log.LstdFlags),
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		claimLease:       defaultClaimLease,
		shutdownComplete: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if _, err := d.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Printf("dispatcher error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// ProcessBatch claims, delivers and marks one batch. It returns the number of
// events published.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	start := time.Now()

	messages, err := d.fetchAndClaim(ctx)
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	if err := d.deliver(ctx, messages); err != nil {
		releasedEvents.Add(float64(len(messages)))
		d.logger.Printf("delivery failure, releasing %d events: %v", len(messages), err)
		if releaseErr := d.release(context.WithoutCancel(ctx), messages); releaseErr != nil {
			return 0, errors.Join(err, releaseErr)
		}
		return 0, err
	}

	if err := d.markPublished(ctx, messages); err != nil {
		return 0, err
	}
	publishedEvents.Add(float64(len(messages)))
	return len(messages), nil
}

func (d *Dispatcher) fetchAndClaim(ctx context.Context) (_ []Message, err error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const query = `SELECT event_id, aggregate_id::text, event_type, topic, partition_key, payload
        FROM outbox
        WHERE published_at IS NULL
          AND (claimed_at IS NULL OR claimed_at < NOW() - make_interval(secs => $2))
        ORDER BY event_id
        LIMIT $1
        FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, d.batchSize, d.claimLease.Seconds())
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, d.batchSize)
	for rows.Next() {
		var msg Message
		if err = rows.Scan(&msg.EventID, &msg.AggregateID, &msg.EventType, &msg.Topic, &msg.PartitionKey, &msg.Payload); err != nil {
			rows.Close()
			return nil, err
		}
		messages = append(messages, msg)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		_ = tx.Rollback(ctx)
		return nil, nil
	}

	if _, err = tx.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, eventIDs(messages)); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return messages, nil
}

func (d *Dispatcher) deliver(ctx context.Context, messages []Message) error {
	for topic, batch := range groupByTopic(messages, time.Now().UTC()) {
		if err := d.producer.WriteMessages(ctx, topic, batch...); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) markPublished(ctx context.Context, messages []Message) error {
	_, err := d.pool.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, eventIDs(messages))
	return err
}

// release clears the claim so the rows are retried on the next poll.
func (d *Dispatcher) release(ctx context.Context, messages []Message) error {
	_, err := d.pool.Exec(ctx, `UPDATE outbox SET claimed_at = NULL WHERE event_id = ANY($1)`, eventIDs(messages))
	return err
}

// Message represents a row fetched from outbox.
type Message struct {
	EventID      int64
	AggregateID  string
	EventType    string
	Topic        string
	PartitionKey string
	Payload      json.RawMessage
}

func eventIDs(messages []Message) []int64 {
	ids := make([]int64, len(messages))
	for i, msg := range messages {
		ids[i] = msg.EventID
	}
	return ids
}

// groupByTopic converts outbox rows into Kafka messages, preserving row order per topic.
func groupByTopic(messages []Message, now time.Time) map[string][]kafka.Message {
	batches := make(map[string][]kafka.Message)
	for _, msg := range messages {
		batches[msg.Topic] = append(batches[msg.Topic], kafka.Message{
			Key:   []byte(msg.PartitionKey),
			Value: []byte(msg.Payload),
			Time:  now,
			Headers: []kafka.Header{
				{Key: HeaderEventType, Value: []byte(msg.EventType)},
				{Key: HeaderEventID, Value: []byte(strconv.FormatInt(msg.EventID, 10))},
			},
		})
	}
	return batches
}

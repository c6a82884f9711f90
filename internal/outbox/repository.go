package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/sqlutil"
	"github.com/lib/pq"
)

// ErrEventNotFound is returned when no outbox row matches the lookup.
var ErrEventNotFound = errors.New("outbox event not found")

const outboxColumns = `id, round_id, event_type, payload, created_at, sent_at`

// Repository reads and marks auction_outbox rows. Inserts happen inside the
// mutation transactions, not here.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new outbox repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// FetchUnsentOutbox returns up to limit unsent events in insertion order,
// locked so concurrent dispatchers skip each other's batches.
func (r *Repository) FetchUnsentOutbox(ctx context.Context, q querier, limit int) ([]OutboxEvent, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+outboxColumns+` FROM auction_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// FetchOutboxByID returns a single event regardless of sent state.
func (r *Repository) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM auction_outbox WHERE id = $1`, id)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox event: %w", err)
	}
	return event, nil
}

// MarkOutboxSent stamps sent_at on the given events.
func (r *Repository) MarkOutboxSent(ctx context.Context, q querier, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	_, err := q.ExecContext(ctx, `UPDATE auction_outbox SET sent_at = now()
		WHERE id = ANY($1::uuid[]) AND sent_at IS NULL`, pq.Array(raw))
	if err != nil {
		return fmt.Errorf("failed to mark outbox sent: %w", err)
	}
	return nil
}

// DB exposes the handle for dispatchers that batch inside a transaction.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func scanEvent(row interface{ Scan(...any) error }) (*OutboxEvent, error) {
	var (
		event   OutboxEvent
		roundID uuid.NullUUID
		sentAt  sql.NullTime
	)
	err := row.Scan(&event.ID, &roundID, &event.EventType, &event.Payload, &event.CreatedAt, &sentAt)
	if err != nil {
		return nil, err
	}
	event.RoundID = sqlutil.FromNullUUID(roundID)
	event.SentAt = sqlutil.FromSqlTime(sentAt)
	return &event, nil
}

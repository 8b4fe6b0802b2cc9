// Package outbox implements the transactional outbox using PostgreSQL.
// Messages are enqueued in the same transaction as the state change they
// describe and relayed to the broker afterwards.
package outbox

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

const table = "event_outbox"

var columns = []string{
	"id", "aggregate_id", "event_type", "payload", "created_at", "published_at", "attempts", "last_error",
}

type row struct {
	ID          uuid.UUID  `db:"id"`
	AggregateID string     `db:"aggregate_id"`
	EventType   string     `db:"event_type"`
	Payload     []byte     `db:"payload"`
	CreatedAt   time.Time  `db:"created_at"`
	PublishedAt *time.Time `db:"published_at"`
	Attempts    int        `db:"attempts"`
	LastError   *string    `db:"last_error"`
}

func (r row) toDomain() domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:          r.ID,
		AggregateID: r.AggregateID,
		EventType:   r.EventType,
		Payload:     r.Payload,
		CreatedAt:   r.CreatedAt.UTC(),
		PublishedAt: r.PublishedAt,
		Attempts:    r.Attempts,
		LastError:   r.LastError,
	}
}

// Repo provides outbox persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new outbox repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// Enqueue stores a message for later delivery.
func (r *Repo) Enqueue(ctx context.Context, msg domain.OutboxMessage) error {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns("id", "aggregate_id", "event_type", "payload", "created_at").
		Values(msg.ID, msg.AggregateID, msg.EventType, msg.Payload, msg.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert outbox: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "outbox_message", msg.ID.String())
	}
	return nil
}

// FetchPending returns up to limit unpublished messages, oldest first, and
// locks them so concurrent relays skip them. Call inside TxManager.RunInTx.
func (r *Repo) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"published_at": nil}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select outbox: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "outbox", "pending")
	}

	msgs := make([]domain.OutboxMessage, len(rows))
	for i, rw := range rows {
		msgs[i] = rw.toDomain()
	}
	return msgs, nil
}

// MarkPublished stamps the given messages as delivered.
func (r *Repo) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := postgres.Builder().
		Update(table).
		Set("published_at", at).
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update outbox: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "outbox", fmt.Sprintf("%d messages", len(ids)))
	}
	return nil
}

// MarkFailed records a failed delivery attempt; the messages stay pending.
func (r *Repo) MarkFailed(ctx context.Context, ids []uuid.UUID, cause string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := postgres.Builder().
		Update(table).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", cause).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update outbox: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "outbox", fmt.Sprintf("%d messages", len(ids)))
	}
	return nil
}

// CountPending returns the number of undelivered messages.
func (r *Repo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := postgres.QuerierFromCtx(ctx, r.pool).
		QueryRow(ctx, `SELECT count(*) FROM event_outbox WHERE published_at IS NULL`).
		Scan(&n)
	if err != nil {
		return 0, postgres.MapError(err, "outbox", "pending")
	}
	return n, nil
}

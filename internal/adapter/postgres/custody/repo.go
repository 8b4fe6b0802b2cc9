// Package custody implements the append-only custody event store using
// PostgreSQL. The store exposes no update or delete; the table rejects them
// with a trigger as well.
package custody

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

const table = "custody_events"

var columns = []string{
	"evidence_id", "sequence_number", "from_party", "to_party", "reason",
	"recorded_hash", "recorded_by", "prev_event_hash", "event_hash", "recorded_at",
}

type row struct {
	EvidenceID     string    `db:"evidence_id"`
	SequenceNumber int64     `db:"sequence_number"`
	FromParty      string    `db:"from_party"`
	ToParty        string    `db:"to_party"`
	Reason         string    `db:"reason"`
	RecordedHash   string    `db:"recorded_hash"`
	RecordedBy     string    `db:"recorded_by"`
	PrevEventHash  string    `db:"prev_event_hash"`
	EventHash      string    `db:"event_hash"`
	RecordedAt     time.Time `db:"recorded_at"`
}

func (r row) toDomain() domain.CustodyEvent {
	return domain.CustodyEvent{
		EvidenceID:     r.EvidenceID,
		SequenceNumber: r.SequenceNumber,
		FromParty:      r.FromParty,
		ToParty:        r.ToParty,
		Reason:         r.Reason,
		RecordedHash:   r.RecordedHash,
		RecordedBy:     r.RecordedBy,
		PrevEventHash:  r.PrevEventHash,
		EventHash:      r.EventHash,
		Timestamp:      domain.NormalizeTimestamp(r.RecordedAt),
	}
}

// Repo provides custody event persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new custody event repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// Append inserts one event. Losing a race for the (evidence_id,
// sequence_number) slot surfaces as domain.ErrAlreadyExists; an unknown
// evidence ID as domain.ErrNotFound.
func (r *Repo) Append(ctx context.Context, ev domain.CustodyEvent) error {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(
			ev.EvidenceID, ev.SequenceNumber, ev.FromParty, ev.ToParty, ev.Reason,
			ev.RecordedHash, ev.RecordedBy, ev.PrevEventHash, ev.EventHash, ev.Timestamp,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert custody_event: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "custody_event", fmt.Sprintf("%s#%d", ev.EvidenceID, ev.SequenceNumber))
	}
	return nil
}

// GetChain returns all events of an evidence item in sequence order. An
// empty result is not an error here.
func (r *Repo) GetChain(ctx context.Context, evidenceID string) ([]domain.CustodyEvent, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"evidence_id": evidenceID}).
		OrderBy("sequence_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select custody_events: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "custody_events", evidenceID)
	}

	events := make([]domain.CustodyEvent, len(rows))
	for i, rw := range rows {
		events[i] = rw.toDomain()
	}
	return events, nil
}

// GetLast returns the event with the highest sequence number, or
// domain.ErrNotFound when the evidence has no chain.
func (r *Repo) GetLast(ctx context.Context, evidenceID string) (domain.CustodyEvent, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"evidence_id": evidenceID}).
		OrderBy("sequence_number DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.CustodyEvent{}, fmt.Errorf("build select last custody_event: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return domain.CustodyEvent{}, postgres.MapError(err, "custody_event", evidenceID)
	}
	return out.toDomain(), nil
}

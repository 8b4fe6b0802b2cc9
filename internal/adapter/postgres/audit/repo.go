// Package audit implements the Audit repository using PostgreSQL.
// It provides append-only operations for evidence audit records.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

const table = "audit_log"

var columns = []string{"id", "evidence_id", "actor", "action", "changes", "created_at"}

type row struct {
	ID         uuid.UUID `db:"id"`
	EvidenceID string    `db:"evidence_id"`
	Actor      string    `db:"actor"`
	Action     string    `db:"action"`
	Changes    []byte    `db:"changes"`
	CreatedAt  time.Time `db:"created_at"`
}

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new audit repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new audit record and returns the persisted domain.AuditRecord.
func (r *Repo) Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	changes := record.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("audit_record marshal changes: %w", err)
	}

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(record.ID, record.EvidenceID, record.Actor, string(record.Action), changesJSON, record.CreatedAt).
		Suffix("RETURNING id, evidence_id, actor, action, changes, created_at").
		ToSql()
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("build insert audit_record: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return domain.AuditRecord{}, postgres.MapError(err, "audit_record", record.ID.String())
	}

	return toDomainAuditRecord(out)
}

// Log creates an audit record without returning it.
// Satisfies registry.auditLogger.
func (r *Repo) Log(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.Create(ctx, record)
	return err
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByEvidence returns the change history of an evidence record, newest
// first, limited to `limit` records.
func (r *Repo) GetByEvidence(ctx context.Context, evidenceID string, limit int) ([]domain.AuditRecord, error) {
	return r.list(ctx, sq.Eq{"evidence_id": evidenceID}, limit, 0, "evidence", evidenceID)
}

// GetByActor returns the audit records produced by one actor, newest first,
// with pagination.
func (r *Repo) GetByActor(ctx context.Context, actor string, limit, offset int) ([]domain.AuditRecord, error) {
	return r.list(ctx, sq.Eq{"actor": actor}, limit, offset, "actor", actor)
}

func (r *Repo) list(ctx context.Context, where sq.Eq, limit, offset int, entity, id string) ([]domain.AuditRecord, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select audit_records: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "audit_records of "+entity, id)
	}

	records := make([]domain.AuditRecord, len(rows))
	for i, rw := range rows {
		rec, err := toDomainAuditRecord(rw)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	return records, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

// toDomainAuditRecord converts an audit_log row into a domain.AuditRecord.
func toDomainAuditRecord(rw row) (domain.AuditRecord, error) {
	record := domain.AuditRecord{
		ID:         rw.ID,
		EvidenceID: rw.EvidenceID,
		Actor:      rw.Actor,
		Action:     domain.AuditAction(rw.Action),
		CreatedAt:  rw.CreatedAt.UTC(),
	}

	// changes: JSONB -> map[string]any
	if len(rw.Changes) > 0 {
		changes := make(map[string]any)
		if err := json.Unmarshal(rw.Changes, &changes); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("audit_record %s unmarshal changes: %w", rw.ID, err)
		}
		record.Changes = changes
	}

	return record, nil
}

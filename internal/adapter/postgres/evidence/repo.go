// Package evidence implements the evidence record repository using PostgreSQL.
// Immutable columns are never written after insert; holder and status
// updates are compare-and-swap on lock_version.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

const table = "evidence_records"

var columns = []string{
	"evidence_id", "case_id", "file_name", "file_size", "mime_type", "content_hash",
	"current_holder", "status", "parent_evidence_id", "revision", "lock_version",
	"created_at", "updated_at",
}

var returning = "RETURNING " + strings.Join(columns, ", ")

type row struct {
	EvidenceID       string    `db:"evidence_id"`
	CaseID           string    `db:"case_id"`
	FileName         string    `db:"file_name"`
	FileSize         int64     `db:"file_size"`
	MimeType         string    `db:"mime_type"`
	ContentHash      string    `db:"content_hash"`
	CurrentHolder    string    `db:"current_holder"`
	Status           string    `db:"status"`
	ParentEvidenceID *string   `db:"parent_evidence_id"`
	Revision         int       `db:"revision"`
	LockVersion      int64     `db:"lock_version"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r row) toDomain() domain.EvidenceRecord {
	return domain.EvidenceRecord{
		EvidenceID:       r.EvidenceID,
		CaseID:           r.CaseID,
		FileName:         r.FileName,
		FileSize:         r.FileSize,
		MimeType:         r.MimeType,
		ContentHash:      r.ContentHash,
		CurrentHolder:    r.CurrentHolder,
		Status:           domain.EvidenceStatus(r.Status),
		ParentEvidenceID: r.ParentEvidenceID,
		Revision:         r.Revision,
		LockVersion:      r.LockVersion,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

// Repo provides evidence record persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new evidence repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// NextID draws the next value of the evidence sequence and formats it as
// <prefix>-<year>-<seq>.
func (r *Repo) NextID(ctx context.Context, prefix string, year int) (string, error) {
	var seq int64
	err := postgres.QuerierFromCtx(ctx, r.pool).
		QueryRow(ctx, `SELECT nextval('evidence_id_seq')`).
		Scan(&seq)
	if err != nil {
		return "", postgres.MapError(err, "evidence_id_seq", prefix)
	}
	return domain.FormatEvidenceID(prefix, year, seq), nil
}

// Create inserts a new record. A duplicate evidence ID yields
// domain.ErrAlreadyExists; an unknown case yields domain.ErrNotFound.
func (r *Repo) Create(ctx context.Context, rec domain.EvidenceRecord) (domain.EvidenceRecord, error) {
	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(
			rec.EvidenceID, rec.CaseID, rec.FileName, rec.FileSize, rec.MimeType, rec.ContentHash,
			rec.CurrentHolder, string(rec.Status), rec.ParentEvidenceID, rec.Revision, rec.LockVersion,
			rec.CreatedAt, rec.UpdatedAt,
		).
		Suffix(returning).
		ToSql()
	if err != nil {
		return domain.EvidenceRecord{}, fmt.Errorf("build insert evidence: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return domain.EvidenceRecord{}, postgres.MapError(err, "evidence", rec.EvidenceID)
	}
	return out.toDomain(), nil
}

// UpdateHolder sets the current holder if the stored lock version still
// equals expectedVersion. A changed version yields
// domain.ErrConcurrentModification.
func (r *Repo) UpdateHolder(ctx context.Context, id, holder string, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error) {
	return r.casUpdate(ctx, id, expectedVersion, map[string]any{"current_holder": holder}, at)
}

// UpdateStatus sets the lifecycle status under the same compare-and-swap
// rule as UpdateHolder.
func (r *Repo) UpdateStatus(ctx context.Context, id string, status domain.EvidenceStatus, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error) {
	return r.casUpdate(ctx, id, expectedVersion, map[string]any{"status": string(status)}, at)
}

func (r *Repo) casUpdate(ctx context.Context, id string, expectedVersion int64, set map[string]any, at time.Time) (domain.EvidenceRecord, error) {
	query, args, err := postgres.Builder().
		Update(table).
		SetMap(set).
		Set("lock_version", sq.Expr("lock_version + 1")).
		Set("updated_at", at).
		Where(sq.Eq{"evidence_id": id, "lock_version": expectedVersion}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return domain.EvidenceRecord{}, fmt.Errorf("build update evidence: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	var out row
	err = pgxscan.Get(ctx, q, &out, query, args...)
	if err == nil {
		return out.toDomain(), nil
	}

	mapped := postgres.MapError(err, "evidence", id)
	if !errors.Is(mapped, domain.ErrNotFound) {
		return domain.EvidenceRecord{}, mapped
	}

	// No row matched: either the record is gone or its version moved on.
	exists, existsErr := r.exists(ctx, q, id)
	if existsErr != nil {
		return domain.EvidenceRecord{}, existsErr
	}
	if exists {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: lock version %d: %w", id, expectedVersion, domain.ErrConcurrentModification)
	}
	return domain.EvidenceRecord{}, mapped
}

func (r *Repo) exists(ctx context.Context, q postgres.Querier, id string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM evidence_records WHERE evidence_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, "evidence", id)
	}
	return exists, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a record or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.EvidenceRecord, error) {
	return r.get(ctx, id, "")
}

// GetByIDForUpdate is GetByID that also row-locks the record until the
// surrounding transaction ends. It must run inside TxManager.RunInTx.
func (r *Repo) GetByIDForUpdate(ctx context.Context, id string) (domain.EvidenceRecord, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *Repo) get(ctx context.Context, id, lock string) (domain.EvidenceRecord, error) {
	b := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"evidence_id": id})
	if lock != "" {
		b = b.Suffix(lock)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return domain.EvidenceRecord{}, fmt.Errorf("build select evidence: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return domain.EvidenceRecord{}, postgres.MapError(err, "evidence", id)
	}
	return out.toDomain(), nil
}

// ListByCase returns every record of a case ordered by creation time.
func (r *Repo) ListByCase(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error) {
	return r.list(ctx, sq.Eq{"case_id": caseID}, "case", caseID)
}

// ListRevisions returns the direct revisions of a record, oldest first.
func (r *Repo) ListRevisions(ctx context.Context, parentID string) ([]domain.EvidenceRecord, error) {
	return r.list(ctx, sq.Eq{"parent_evidence_id": parentID}, "evidence", parentID)
}

func (r *Repo) list(ctx context.Context, where sq.Eq, entity, id string) ([]domain.EvidenceRecord, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("created_at ASC", "evidence_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list evidence: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, entity, id)
	}

	records := make([]domain.EvidenceRecord, len(rows))
	for i, rw := range rows {
		records[i] = rw.toDomain()
	}
	return records, nil
}

// ListIDs pages through all evidence IDs in ascending order, starting after
// afterID ("" for the first page).
func (r *Repo) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	b := postgres.Builder().
		Select("evidence_id").
		From(table).
		OrderBy("evidence_id ASC").
		Limit(uint64(limit))
	if afterID != "" {
		b = b.Where(sq.Gt{"evidence_id": afterID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list evidence ids: %w", err)
	}

	var ids []string
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &ids, query, args...); err != nil {
		return nil, postgres.MapError(err, "evidence", afterID)
	}
	return ids, nil
}

package memstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

func checkCtx(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	default:
		return err
	}
}

// ---------------------------------------------------------------------------
// Cases
// ---------------------------------------------------------------------------

// CaseRepo mirrors casefile.Repo.
type CaseRepo struct{ s *Store }

// Cases returns the case repository view.
func (s *Store) Cases() *CaseRepo { return &CaseRepo{s: s} }

func (r *CaseRepo) Create(ctx context.Context, c domain.Case) (domain.Case, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Case{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cases[c.ID]; ok {
		return domain.Case{}, fmt.Errorf("case %s: %w", c.ID, domain.ErrAlreadyExists)
	}
	r.s.cases[c.ID] = c
	recordUndo(ctx, func() { delete(r.s.cases, c.ID) })
	return c, nil
}

func (r *CaseRepo) GetByID(ctx context.Context, id string) (domain.Case, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Case{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.cases[id]
	if !ok {
		return domain.Case{}, fmt.Errorf("case %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Evidence
// ---------------------------------------------------------------------------

// EvidenceRepo mirrors evidence.Repo.
type EvidenceRepo struct{ s *Store }

// Evidence returns the evidence repository view.
func (s *Store) Evidence() *EvidenceRepo { return &EvidenceRepo{s: s} }

func cloneRecord(rec domain.EvidenceRecord) domain.EvidenceRecord {
	if rec.ParentEvidenceID != nil {
		p := *rec.ParentEvidenceID
		rec.ParentEvidenceID = &p
	}
	return rec
}

func (r *EvidenceRepo) NextID(ctx context.Context, prefix string, year int) (string, error) {
	if err := checkCtx(ctx); err != nil {
		return "", err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Sequences are not transactional in PostgreSQL either.
	r.s.seq++
	return domain.FormatEvidenceID(prefix, year, r.s.seq), nil
}

func (r *EvidenceRepo) Create(ctx context.Context, rec domain.EvidenceRecord) (domain.EvidenceRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.EvidenceRecord{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.evidence[rec.EvidenceID]; ok {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", rec.EvidenceID, domain.ErrAlreadyExists)
	}
	if _, ok := r.s.cases[rec.CaseID]; !ok {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: case %s: %w", rec.EvidenceID, rec.CaseID, domain.ErrNotFound)
	}
	if rec.ParentEvidenceID != nil {
		if _, ok := r.s.evidence[*rec.ParentEvidenceID]; !ok {
			return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: parent: %w", rec.EvidenceID, domain.ErrNotFound)
		}
	}

	rec = cloneRecord(rec)
	r.s.evidence[rec.EvidenceID] = rec
	r.s.order = append(r.s.order, rec.EvidenceID)
	recordUndo(ctx, func() {
		delete(r.s.evidence, rec.EvidenceID)
		r.s.order = slices.DeleteFunc(r.s.order, func(id string) bool { return id == rec.EvidenceID })
	})
	return cloneRecord(rec), nil
}

func (r *EvidenceRepo) UpdateHolder(ctx context.Context, id, holder string, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error) {
	return r.casUpdate(ctx, id, expectedVersion, at, func(rec *domain.EvidenceRecord) { rec.CurrentHolder = holder })
}

func (r *EvidenceRepo) UpdateStatus(ctx context.Context, id string, status domain.EvidenceStatus, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error) {
	return r.casUpdate(ctx, id, expectedVersion, at, func(rec *domain.EvidenceRecord) { rec.Status = status })
}

func (r *EvidenceRepo) casUpdate(ctx context.Context, id string, expectedVersion int64, at time.Time, apply func(*domain.EvidenceRecord)) (domain.EvidenceRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.EvidenceRecord{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.evidence[id]
	if !ok {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", id, domain.ErrNotFound)
	}
	if old.LockVersion != expectedVersion {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: lock version %d: %w", id, expectedVersion, domain.ErrConcurrentModification)
	}

	next := cloneRecord(old)
	apply(&next)
	next.LockVersion++
	next.UpdatedAt = at
	r.s.evidence[id] = next
	recordUndo(ctx, func() { r.s.evidence[id] = old })
	return cloneRecord(next), nil
}

func (r *EvidenceRepo) GetByID(ctx context.Context, id string) (domain.EvidenceRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.EvidenceRecord{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.evidence[id]
	if !ok {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", id, domain.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (r *EvidenceRepo) GetByIDForUpdate(ctx context.Context, id string) (domain.EvidenceRecord, error) {
	if err := r.s.lockRow(ctx, id); err != nil {
		return domain.EvidenceRecord{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *EvidenceRepo) ListByCase(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error) {
	return r.list(ctx, func(rec domain.EvidenceRecord) bool { return rec.CaseID == caseID })
}

func (r *EvidenceRepo) ListRevisions(ctx context.Context, parentID string) ([]domain.EvidenceRecord, error) {
	return r.list(ctx, func(rec domain.EvidenceRecord) bool {
		return rec.ParentEvidenceID != nil && *rec.ParentEvidenceID == parentID
	})
}

func (r *EvidenceRepo) list(ctx context.Context, keep func(domain.EvidenceRecord) bool) ([]domain.EvidenceRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.EvidenceRecord, 0)
	for _, id := range r.s.order {
		if rec := r.s.evidence[id]; keep(rec) {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *EvidenceRepo) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]string, 0, len(r.s.evidence))
	for id := range r.s.evidence {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Custody events
// ---------------------------------------------------------------------------

// CustodyRepo mirrors custody.Repo.
type CustodyRepo struct{ s *Store }

// Custody returns the custody event repository view.
func (s *Store) Custody() *CustodyRepo { return &CustodyRepo{s: s} }

func (r *CustodyRepo) Append(ctx context.Context, ev domain.CustodyEvent) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.failAppend; err != nil {
		r.s.failAppend = nil
		return err
	}
	if _, ok := r.s.evidence[ev.EvidenceID]; !ok {
		return fmt.Errorf("custody_event %s#%d: %w", ev.EvidenceID, ev.SequenceNumber, domain.ErrNotFound)
	}
	for _, existing := range r.s.events[ev.EvidenceID] {
		if existing.SequenceNumber == ev.SequenceNumber {
			return fmt.Errorf("custody_event %s#%d: %w", ev.EvidenceID, ev.SequenceNumber, domain.ErrAlreadyExists)
		}
	}

	r.s.events[ev.EvidenceID] = append(r.s.events[ev.EvidenceID], ev)
	sort.SliceStable(r.s.events[ev.EvidenceID], func(i, j int) bool {
		return r.s.events[ev.EvidenceID][i].SequenceNumber < r.s.events[ev.EvidenceID][j].SequenceNumber
	})
	recordUndo(ctx, func() {
		r.s.events[ev.EvidenceID] = slices.DeleteFunc(r.s.events[ev.EvidenceID], func(e domain.CustodyEvent) bool {
			return e.SequenceNumber == ev.SequenceNumber
		})
	})
	return nil
}

func (r *CustodyRepo) GetChain(ctx context.Context, evidenceID string) ([]domain.CustodyEvent, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return append(make([]domain.CustodyEvent, 0, len(r.s.events[evidenceID])), r.s.events[evidenceID]...), nil
}

func (r *CustodyRepo) GetLast(ctx context.Context, evidenceID string) (domain.CustodyEvent, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.CustodyEvent{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	events := r.s.events[evidenceID]
	if len(events) == 0 {
		return domain.CustodyEvent{}, fmt.Errorf("custody_event %s: %w", evidenceID, domain.ErrNotFound)
	}
	return events[len(events)-1], nil
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

// AuditRepo mirrors audit.Repo.
type AuditRepo struct{ s *Store }

// Audit returns the audit repository view.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

func (r *AuditRepo) Log(ctx context.Context, record domain.AuditRecord) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.evidence[record.EvidenceID]; !ok {
		return fmt.Errorf("audit_record %s: %w", record.ID, domain.ErrNotFound)
	}
	r.s.audit = append(r.s.audit, record)
	recordUndo(ctx, func() {
		r.s.audit = slices.DeleteFunc(r.s.audit, func(a domain.AuditRecord) bool { return a.ID == record.ID })
	})
	return nil
}

func (r *AuditRepo) GetByEvidence(ctx context.Context, evidenceID string, limit int) ([]domain.AuditRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.AuditRecord, 0)
	for i := len(r.s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.audit[i].EvidenceID == evidenceID {
			out = append(out, r.s.audit[i])
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------------

// OutboxRepo mirrors outbox.Repo.
type OutboxRepo struct{ s *Store }

// Outbox returns the outbox repository view.
func (s *Store) Outbox() *OutboxRepo { return &OutboxRepo{s: s} }

func (r *OutboxRepo) Enqueue(ctx context.Context, msg domain.OutboxMessage) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.outbox = append(r.s.outbox, msg)
	recordUndo(ctx, func() {
		r.s.outbox = slices.DeleteFunc(r.s.outbox, func(m domain.OutboxMessage) bool { return m.ID == msg.ID })
	})
	return nil
}

func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.OutboxMessage, 0)
	for _, m := range r.s.outbox {
		if m.PublishedAt == nil && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	return r.update(ctx, ids, func(m *domain.OutboxMessage) {
		m.PublishedAt = &at
		m.Attempts++
	})
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, ids []uuid.UUID, cause string) error {
	return r.update(ctx, ids, func(m *domain.OutboxMessage) {
		m.Attempts++
		m.LastError = &cause
	})
}

func (r *OutboxRepo) update(ctx context.Context, ids []uuid.UUID, apply func(*domain.OutboxMessage)) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.outbox {
		if slices.Contains(ids, r.s.outbox[i].ID) {
			old := r.s.outbox[i]
			apply(&r.s.outbox[i])
			id := old.ID
			recordUndo(ctx, func() {
				for j := range r.s.outbox {
					if r.s.outbox[j].ID == id {
						r.s.outbox[j] = old
					}
				}
			})
		}
	}
	return nil
}

func (r *OutboxRepo) CountPending(ctx context.Context) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, m := range r.s.outbox {
		if m.PublishedAt == nil {
			n++
		}
	}
	return n, nil
}

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/ctxutil"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// UpdateStatus moves an evidence item forward in its lifecycle. Only
// ACTIVE -> ARCHIVED, ACTIVE -> DESTROYED and ARCHIVED -> DESTROYED are
// allowed; anything else fails with domain.ErrInvalidState.
func (s *Service) UpdateStatus(ctx context.Context, input StatusInput) (domain.EvidenceRecord, error) {
	if err := input.Validate(); err != nil {
		return domain.EvidenceRecord{}, err
	}
	id := strings.TrimSpace(input.EvidenceID)
	reason := strings.TrimSpace(input.Reason)

	var (
		rec  domain.EvidenceRecord
		from domain.EvidenceStatus
	)
	err := s.mutate(ctx, "status", id, func(txCtx context.Context) error {
		locked, err := s.evidence.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		from = locked.Status
		if !from.CanTransitionTo(input.Status) {
			return fmt.Errorf("evidence %s: %s -> %s: %w", id, from, input.Status, domain.ErrInvalidState)
		}

		now := s.clock.Now()
		rec, err = s.evidence.UpdateStatus(txCtx, id, input.Status, locked.LockVersion, now)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		if err := s.logAudit(txCtx, id, domain.AuditActionStatusChange, map[string]any{
			"from":   from.String(),
			"to":     input.Status.String(),
			"reason": reason,
		}); err != nil {
			return err
		}
		return s.enqueue(txCtx, id, domain.EventStatusChanged, StatusMessage{
			EvidenceID: id,
			CaseID:     rec.CaseID,
			From:       from.String(),
			To:         input.Status.String(),
			Reason:     reason,
			ChangedBy:  ctxutil.ActorIDOrSystem(txCtx),
			ChangedAt:  now,
		})
	})
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	s.log.InfoContext(ctx, "evidence status changed",
		slog.String("evidence_id", id),
		slog.String("from", from.String()),
		slog.String("to", input.Status.String()),
	)
	return rec, nil
}

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/ctxutil"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// TransferCustody hands an evidence item over to input.ToParty. The custody
// event, the holder update, the audit entry and the outbox message commit
// together.
//
// The holder the caller expects (input.ExpectedHolder, or the holder read
// before the row is locked) must still hold the item under the lock. If it
// does not, another transfer won and this one fails with
// domain.ErrConcurrentModification without being repeated.
func (s *Service) TransferCustody(ctx context.Context, input TransferInput) (domain.EvidenceRecord, error) {
	if err := input.Validate(); err != nil {
		return domain.EvidenceRecord{}, err
	}
	id := strings.TrimSpace(input.EvidenceID)

	expected := strings.TrimSpace(input.ExpectedHolder)
	if expected == "" {
		observed, err := s.GetByID(ctx, id)
		if err != nil {
			return domain.EvidenceRecord{}, err
		}
		expected = observed.CurrentHolder
	}

	var (
		rec domain.EvidenceRecord
		ev  domain.CustodyEvent
	)
	err := s.mutate(ctx, "transfer", id, func(txCtx context.Context) error {
		locked, err := s.evidence.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return fmt.Errorf("transfer custody: %w", err)
		}
		if !locked.IsActive() {
			return fmt.Errorf("evidence %s is %s: %w", id, locked.Status, domain.ErrInvalidState)
		}
		if locked.CurrentHolder != expected {
			return fmt.Errorf("evidence %s: expected holder %q, found %q: %w: %w",
				id, expected, locked.CurrentHolder, errStaleHolder, domain.ErrConcurrentModification)
		}
		if err := s.authorizeTransfer(txCtx, locked); err != nil {
			return err
		}

		ev, err = s.ledger.AppendTransfer(txCtx, id, input.ToParty, input.Reason, locked.ContentHash)
		if err != nil {
			return err
		}

		rec, err = s.evidence.UpdateHolder(txCtx, id, ev.ToParty, locked.LockVersion, ev.Timestamp)
		if err != nil {
			return fmt.Errorf("update holder: %w", err)
		}

		if err := s.logAudit(txCtx, id, domain.AuditActionTransfer, map[string]any{
			"from":     ev.FromParty,
			"to":       ev.ToParty,
			"reason":   ev.Reason,
			"sequence": ev.SequenceNumber,
		}); err != nil {
			return err
		}
		return s.publishCustody(txCtx, rec.CaseID, ev)
	})
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	s.log.InfoContext(ctx, "custody transfer committed",
		slog.String("evidence_id", id),
		slog.Int64("sequence", ev.SequenceNumber),
		slog.String("from_party", ev.FromParty),
		slog.String("to_party", ev.ToParty),
	)
	return rec, nil
}

// authorizeTransfer applies holder enforcement: with it switched on, an actor
// carried by ctx must be the current holder unless its role may override.
// Without an actor in ctx the transfer is recorded unilaterally.
func (s *Service) authorizeTransfer(ctx context.Context, rec domain.EvidenceRecord) error {
	if !s.cfg.EnforceHolder {
		return nil
	}
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok || actor.ID == rec.CurrentHolder || actor.Role.CanOverrideHolder() {
		return nil
	}
	return fmt.Errorf("evidence %s: %s is not the holder: %w", rec.EvidenceID, actor.ID, domain.ErrInvalidTransfer)
}

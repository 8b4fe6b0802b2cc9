package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
)

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

// Register creates an evidence record held by the collecting party together
// with its genesis custody event. Both exist afterwards or neither does.
func (s *Service) Register(ctx context.Context, input RegisterInput) (domain.EvidenceRecord, error) {
	if err := input.Validate(); err != nil {
		return domain.EvidenceRecord{}, err
	}

	hash, size, err := s.resolveContent(input.Payload, input.ContentHash, input.FileSize)
	if err != nil {
		return domain.EvidenceRecord{}, err
	}
	holder := strings.TrimSpace(input.CollectedBy)
	caseID := strings.TrimSpace(input.CaseID)

	var rec domain.EvidenceRecord
	err = s.mutate(ctx, "register", "", func(txCtx context.Context) error {
		if _, err := s.cases.GetByID(txCtx, caseID); err != nil {
			return fmt.Errorf("register evidence: %w", err)
		}

		now := s.clock.Now()
		id, err := s.evidence.NextID(txCtx, s.cfg.EvidenceIDPrefix, now.Year())
		if err != nil {
			return fmt.Errorf("next evidence id: %w", err)
		}

		created, err := s.evidence.Create(txCtx, domain.EvidenceRecord{
			EvidenceID:    id,
			CaseID:        caseID,
			FileName:      strings.TrimSpace(input.FileName),
			FileSize:      size,
			MimeType:      mimeOrDefault(input.MimeType),
			ContentHash:   hash,
			CurrentHolder: holder,
			Status:        domain.EvidenceStatusActive,
			Revision:      1,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("create evidence: %w", err)
		}

		genesis, err := s.ledger.AppendGenesis(txCtx, id, holder, hash)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}

		if err := s.logAudit(txCtx, id, domain.AuditActionRegister, map[string]any{
			"case_id":      caseID,
			"file_name":    created.FileName,
			"content_hash": hash,
			"holder":       holder,
		}); err != nil {
			return err
		}
		if err := s.publishCustody(txCtx, caseID, genesis); err != nil {
			return err
		}

		rec = created
		return nil
	})
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	s.log.InfoContext(ctx, "evidence registered",
		slog.String("evidence_id", rec.EvidenceID),
		slog.String("case_id", rec.CaseID),
		slog.String("holder", rec.CurrentHolder),
	)
	return rec, nil
}

// ---------------------------------------------------------------------------
// RegisterRevision
// ---------------------------------------------------------------------------

// RegisterRevision records modified content of an evidence item as a new
// record linked to its parent. The parent is never changed. The revision
// starts its own custody chain with the parent's current holder.
func (s *Service) RegisterRevision(ctx context.Context, input RevisionInput) (domain.EvidenceRecord, error) {
	if err := input.Validate(); err != nil {
		return domain.EvidenceRecord{}, err
	}

	hash, size, err := s.resolveContent(input.Payload, input.ContentHash, input.FileSize)
	if err != nil {
		return domain.EvidenceRecord{}, err
	}
	parentID := strings.TrimSpace(input.ParentID)

	var rec domain.EvidenceRecord
	err = s.mutate(ctx, "revise", parentID, func(txCtx context.Context) error {
		parent, err := s.evidence.GetByIDForUpdate(txCtx, parentID)
		if err != nil {
			return fmt.Errorf("parent evidence: %w", err)
		}
		if !parent.IsActive() {
			return fmt.Errorf("evidence %s is %s: %w", parentID, parent.Status, domain.ErrInvalidState)
		}
		if parent.ContentHash == hash {
			return domain.NewValidationError("content_hash", "identical to parent content")
		}

		now := s.clock.Now()
		id, err := s.evidence.NextID(txCtx, s.cfg.EvidenceIDPrefix, now.Year())
		if err != nil {
			return fmt.Errorf("next evidence id: %w", err)
		}

		created, err := s.evidence.Create(txCtx, domain.EvidenceRecord{
			EvidenceID:       id,
			CaseID:           parent.CaseID,
			FileName:         strings.TrimSpace(input.FileName),
			FileSize:         size,
			MimeType:         mimeOrDefault(input.MimeType),
			ContentHash:      hash,
			CurrentHolder:    parent.CurrentHolder,
			Status:           domain.EvidenceStatusActive,
			ParentEvidenceID: &parent.EvidenceID,
			Revision:         parent.Revision + 1,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("create revision: %w", err)
		}

		genesis, err := s.ledger.AppendGenesis(txCtx, id, parent.CurrentHolder, hash)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}

		if err := s.logAudit(txCtx, id, domain.AuditActionRevision, map[string]any{
			"parent_id":    parent.EvidenceID,
			"revision":     created.Revision,
			"content_hash": hash,
			"reason":       strings.TrimSpace(input.Reason),
		}); err != nil {
			return err
		}
		if err := s.publishCustody(txCtx, created.CaseID, genesis); err != nil {
			return err
		}

		rec = created
		return nil
	})
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	s.log.InfoContext(ctx, "evidence revision registered",
		slog.String("evidence_id", rec.EvidenceID),
		slog.String("parent_id", parentID),
		slog.Int("revision", rec.Revision),
	)
	return rec, nil
}

// resolveContent returns the lowercase content hash and the file size. A
// payload always wins: it is hashed, and a supplied hash must agree with it.
func (s *Service) resolveContent(payload []byte, supplied string, size int64) (string, int64, error) {
	if payload == nil {
		hash, _ := hashing.Normalize(supplied)
		return hash, size, nil
	}

	computed := s.hasher.Compute(payload)
	if supplied != "" {
		if hash, _ := hashing.Normalize(supplied); hash != computed {
			return "", 0, domain.NewValidationError("content_hash", "does not match payload")
		}
	}
	return computed, int64(len(payload)), nil
}

func mimeOrDefault(mime string) string {
	if m := strings.TrimSpace(mime); m != "" {
		return m
	}
	return defaultMimeType
}

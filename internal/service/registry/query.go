package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// GetByID returns the evidence record with the given ID.
func (s *Service) GetByID(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.evidence.GetByID(ctx, strings.TrimSpace(evidenceID))
	if err != nil {
		return domain.EvidenceRecord{}, asTimeout(fmt.Errorf("get evidence: %w", err))
	}
	return rec, nil
}

// ListByCase returns every evidence record of a case, oldest first.
func (s *Service) ListByCase(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	caseID = strings.TrimSpace(caseID)
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, asTimeout(fmt.Errorf("list evidence: %w", err))
	}
	records, err := s.evidence.ListByCase(ctx, caseID)
	if err != nil {
		return nil, asTimeout(fmt.Errorf("list evidence: %w", err))
	}
	return records, nil
}

// ListRevisions returns the records that directly supersede evidenceID.
func (s *Service) ListRevisions(ctx context.Context, evidenceID string) ([]domain.EvidenceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	evidenceID = strings.TrimSpace(evidenceID)
	if _, err := s.evidence.GetByID(ctx, evidenceID); err != nil {
		return nil, asTimeout(fmt.Errorf("list revisions: %w", err))
	}
	records, err := s.evidence.ListRevisions(ctx, evidenceID)
	if err != nil {
		return nil, asTimeout(fmt.Errorf("list revisions: %w", err))
	}
	return records, nil
}

// History returns the audit trail of an evidence item, newest first.
// limit <= 0 selects the default; it is capped at 500.
func (s *Service) History(ctx context.Context, evidenceID string, limit int) ([]domain.AuditRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	evidenceID = strings.TrimSpace(evidenceID)
	if _, err := s.evidence.GetByID(ctx, evidenceID); err != nil {
		return nil, asTimeout(fmt.Errorf("history: %w", err))
	}
	records, err := s.audit.GetByEvidence(ctx, evidenceID, limit)
	if err != nil {
		return nil, asTimeout(fmt.Errorf("history: %w", err))
	}
	return records, nil
}

// ---------------------------------------------------------------------------
// Cases
// ---------------------------------------------------------------------------

// CreateCase opens a case that evidence can be registered under.
func (s *Service) CreateCase(ctx context.Context, input CreateCaseInput) (domain.Case, error) {
	if err := input.Validate(); err != nil {
		return domain.Case{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.cases.Create(ctx, domain.Case{
		ID:        strings.TrimSpace(input.ID),
		Title:     strings.TrimSpace(input.Title),
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return domain.Case{}, asTimeout(fmt.Errorf("create case: %w", err))
	}

	s.log.InfoContext(ctx, "case created", slog.String("case_id", c.ID))
	return c, nil
}

// GetCase returns the case with the given ID.
func (s *Service) GetCase(ctx context.Context, caseID string) (domain.Case, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.cases.GetByID(ctx, strings.TrimSpace(caseID))
	if err != nil {
		return domain.Case{}, asTimeout(fmt.Errorf("get case: %w", err))
	}
	return c, nil
}

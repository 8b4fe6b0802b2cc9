package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
)

// Verify checks providedHash against the hash stored on the evidence record
// and the hash recorded by the latest custody event. The result is valid only
// when all three agree. Disagreement between the record and the ledger is
// flagged as a discrepancy whatever the provided hash is. A mismatch is a
// normal result; only an unknown evidence ID is an error.
func (s *Service) Verify(ctx context.Context, evidenceID, providedHash string) (domain.VerificationResult, error) {
	rec, err := s.records.GetByID(ctx, evidenceID)
	if err != nil {
		return domain.VerificationResult{}, fmt.Errorf("verify: %w", err)
	}
	return s.verifyRecord(ctx, rec, providedHash)
}

// VerifyPayload hashes payload and verifies the digest.
func (s *Service) VerifyPayload(ctx context.Context, evidenceID string, payload []byte) (domain.VerificationResult, error) {
	return s.Verify(ctx, evidenceID, s.hasher.Compute(payload))
}

// VerifyCase verifies every evidence record of a case against the hashes
// supplied per evidence ID. Records without a supplied hash come back invalid.
// Results follow the case listing order.
func (s *Service) VerifyCase(ctx context.Context, caseID string, hashes map[string]string) ([]domain.VerificationResult, error) {
	records, err := s.records.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("verify case: %w", err)
	}

	results := make([]domain.VerificationResult, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			res, err := s.verifyRecord(gctx, rec, hashes[rec.EvidenceID])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verify case %s: %w", caseID, err)
	}
	return results, nil
}

func (s *Service) verifyRecord(ctx context.Context, rec domain.EvidenceRecord, providedHash string) (domain.VerificationResult, error) {
	res := domain.VerificationResult{
		EvidenceID:   rec.EvidenceID,
		ProvidedHash: providedHash,
		StoredHash:   rec.ContentHash,
		LastSequence: -1,
	}

	last, err := s.chains.GetLastEvent(ctx, rec.EvidenceID)
	switch {
	case err == nil:
		res.LedgerHash = last.RecordedHash
		res.LastSequence = last.SequenceNumber
	case errors.Is(err, domain.ErrNotFound):
		// A record without a custody chain cannot be trusted.
	default:
		return domain.VerificationResult{}, fmt.Errorf("verify %s: %w", rec.EvidenceID, err)
	}

	provided, ok := hashing.Normalize(providedHash)
	res.DiscrepancyDetected = res.StoredHash != res.LedgerHash
	res.IsValid = ok && !res.DiscrepancyDetected && provided == res.StoredHash
	res.VerifiedAt = s.clock.Now()

	if res.DiscrepancyDetected {
		s.log.WarnContext(ctx, "registry and ledger disagree",
			slog.String("evidence_id", rec.EvidenceID),
			slog.String("stored_hash", res.StoredHash),
			slog.String("ledger_hash", res.LedgerHash),
		)
	}
	return res, nil
}

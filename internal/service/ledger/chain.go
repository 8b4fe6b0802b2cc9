package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// GetChain returns a snapshot of the full custody chain in sequence order.
// An evidence item without events yields domain.ErrNotFound.
func (s *Service) GetChain(ctx context.Context, evidenceID string) (domain.Chain, error) {
	events, err := s.events.GetChain(ctx, evidenceID)
	if err != nil {
		return domain.Chain{}, fmt.Errorf("custody chain: %w", err)
	}
	if len(events) == 0 {
		return domain.Chain{}, fmt.Errorf("evidence %s: custody chain: %w", evidenceID, domain.ErrNotFound)
	}
	return domain.NewChain(evidenceID, events), nil
}

// GetLastEvent returns the most recent custody event.
func (s *Service) GetLastEvent(ctx context.Context, evidenceID string) (domain.CustodyEvent, error) {
	ev, err := s.events.GetLast(ctx, evidenceID)
	if err != nil {
		return domain.CustodyEvent{}, fmt.Errorf("last custody event: %w", err)
	}
	return ev, nil
}

// VerifyChain re-checks every rule the ledger enforces on append plus the
// hash links between events. Defects are reported, not returned as errors.
func (s *Service) VerifyChain(ctx context.Context, evidenceID string) (domain.ChainReport, error) {
	chain, err := s.GetChain(ctx, evidenceID)
	if err != nil {
		return domain.ChainReport{}, err
	}

	report := CheckChain(chain)
	if !report.Intact {
		s.log.WarnContext(ctx, "custody chain integrity problems",
			slog.String("evidence_id", evidenceID),
			slog.Int("problems", len(report.Problems)),
		)
	}
	return report, nil
}

// CheckChain walks a chain snapshot without touching storage.
func CheckChain(chain domain.Chain) domain.ChainReport {
	report := domain.ChainReport{EvidenceID: chain.EvidenceID(), Length: chain.Len()}
	add := func(seq int64, kind domain.ChainProblemKind, format string, args ...any) {
		report.Problems = append(report.Problems, domain.ChainProblem{
			Sequence: seq,
			Kind:     kind,
			Detail:   fmt.Sprintf(format, args...),
		})
	}

	var genesisHash string
	var prev domain.CustodyEvent
	for i, ev := range chain.All() {
		seq := ev.SequenceNumber
		if seq != int64(i) {
			add(seq, domain.ChainProblemSequenceGap, "expected sequence %d", i)
		}

		if i == 0 {
			genesisHash = ev.RecordedHash
			if ev.FromParty != domain.SystemParty || ev.PrevEventHash != "" || seq != 0 {
				add(seq, domain.ChainProblemGenesis, "first event must come from %s with no predecessor", domain.SystemParty)
			}
		} else {
			if ev.FromParty != prev.ToParty {
				add(seq, domain.ChainProblemContinuity, "from %q but previous holder was %q", ev.FromParty, prev.ToParty)
			}
			if ev.PrevEventHash != prev.EventHash {
				add(seq, domain.ChainProblemLinkMismatch, "previous event hash does not match")
			}
			if ev.RecordedHash != genesisHash {
				add(seq, domain.ChainProblemContentDrift, "recorded hash %s differs from genesis %s", ev.RecordedHash, genesisHash)
			}
		}

		if want, err := ComputeEventHash(ev); err != nil || want != ev.EventHash {
			add(seq, domain.ChainProblemHashMismatch, "stored event hash does not match its contents")
		}

		prev = ev
	}

	report.Intact = len(report.Problems) == 0
	return report
}

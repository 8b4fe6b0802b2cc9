package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/service/registry"
)

// TestCustodyLifecycle walks one evidence item from registration through
// transfer, rejected operations, verification and destruction.
func TestCustodyLifecycle(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	ctx := context.Background()

	// Register.
	rec := s.register(t, "test")
	if rec.Status != domain.EvidenceStatusActive || rec.CurrentHolder != "officer.a" || rec.ContentHash != testHash {
		t.Fatalf("registered record = %+v", rec)
	}
	assertChainLen(t, s, rec.EvidenceID, 1)

	// Transfer.
	moved, err := s.registry.TransferCustody(ctx, registry.TransferInput{
		EvidenceID: rec.EvidenceID, ToParty: "lab.tech.b", Reason: "lab analysis",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if moved.CurrentHolder != "lab.tech.b" {
		t.Errorf("holder = %q", moved.CurrentHolder)
	}
	chain := assertChainLen(t, s, rec.EvidenceID, 2)
	last, _ := chain.Last()
	if last.FromParty != "officer.a" || last.ToParty != "lab.tech.b" || last.RecordedHash != testHash {
		t.Errorf("transfer event = %+v", last)
	}

	// Empty reason.
	_, err = s.registry.TransferCustody(ctx, registry.TransferInput{
		EvidenceID: rec.EvidenceID, ToParty: "officer.c", Reason: "",
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("empty reason: expected ValidationError, got %v", err)
	}
	assertChainLen(t, s, rec.EvidenceID, 2)

	// Transfer to current holder.
	_, err = s.registry.TransferCustody(ctx, registry.TransferInput{
		EvidenceID: rec.EvidenceID, ToParty: "lab.tech.b", Reason: "again",
	})
	if !errors.Is(err, domain.ErrInvalidTransfer) {
		t.Errorf("self transfer: expected ErrInvalidTransfer, got %v", err)
	}
	assertChainLen(t, s, rec.EvidenceID, 2)

	// Verification.
	res, err := s.verifier.Verify(ctx, rec.EvidenceID, testHash)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsValid || res.DiscrepancyDetected || res.LastSequence != 1 {
		t.Errorf("verify original hash = %+v", res)
	}
	res, err = s.verifier.Verify(ctx, rec.EvidenceID, "wronghash")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsValid {
		t.Error("wrong hash verified as valid")
	}

	// Destroyed evidence cannot move.
	if _, err := s.registry.UpdateStatus(ctx, registry.StatusInput{
		EvidenceID: rec.EvidenceID, Status: domain.EvidenceStatusDestroyed, Reason: "court order",
	}); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	_, err = s.registry.TransferCustody(ctx, registry.TransferInput{
		EvidenceID: rec.EvidenceID, ToParty: "officer.c", Reason: "retrieval",
	})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("transfer of destroyed evidence: expected ErrInvalidState, got %v", err)
	}
	assertChainLen(t, s, rec.EvidenceID, 2)

	report, err := s.verifier.CheckEvidence(ctx, rec.EvidenceID)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Intact {
		t.Errorf("chain after lifecycle = %+v", report)
	}
}

func assertChainLen(t *testing.T, s *stack, evidenceID string, want int) domain.Chain {
	t.Helper()
	chain, err := s.ledger.GetChain(context.Background(), evidenceID)
	if err != nil {
		t.Fatalf("get chain: %v", err)
	}
	if chain.Len() != want {
		t.Fatalf("chain length = %d, want %d", chain.Len(), want)
	}
	return chain
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/ctxutil"
	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
)

// AppendGenesis opens the custody chain of an evidence item: sequence 0,
// from SYSTEM to initialHolder, recording contentHash. It fails with
// domain.ErrAlreadyExists when the evidence already has a chain.
func (s *Service) AppendGenesis(ctx context.Context, evidenceID, initialHolder, contentHash string) (domain.CustodyEvent, error) {
	var errs []domain.FieldError
	if strings.TrimSpace(evidenceID) == "" {
		errs = append(errs, domain.FieldError{Field: "evidence_id", Message: "required"})
	}
	errs = append(errs, validateParty("initial_holder", initialHolder)...)
	contentHash, ok := hashing.Normalize(contentHash)
	if !ok {
		errs = append(errs, domain.FieldError{Field: "content_hash", Message: "must be 64 hex characters"})
	}
	if len(errs) > 0 {
		return domain.CustodyEvent{}, domain.NewValidationErrors(errs)
	}
	initialHolder = strings.TrimSpace(initialHolder)

	ev := domain.CustodyEvent{
		EvidenceID:     evidenceID,
		SequenceNumber: 0,
		FromParty:      domain.SystemParty,
		ToParty:        initialHolder,
		Reason:         domain.GenesisReason,
		RecordedHash:   contentHash,
		RecordedBy:     ctxutil.ActorIDOrSystem(ctx),
		Timestamp:      domain.NormalizeTimestamp(s.clock.Now()),
	}

	ev, err := s.seal(ctx, ev)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.CustodyEvent{}, fmt.Errorf("evidence %s: custody chain: %w", evidenceID, domain.ErrAlreadyExists)
		}
		return domain.CustodyEvent{}, err
	}

	s.log.InfoContext(ctx, "custody chain opened",
		slog.String("evidence_id", evidenceID),
		slog.String("holder", initialHolder),
	)
	return ev, nil
}

// AppendTransfer records a hand-over from the current holder to toParty.
// The current holder is the ToParty of the last event. Two writers racing for
// the same sequence slot cannot both succeed: the loser gets
// domain.ErrConcurrentModification and nothing is written for it.
func (s *Service) AppendTransfer(ctx context.Context, evidenceID, toParty, reason, assertedHash string) (domain.CustodyEvent, error) {
	last, err := s.events.GetLast(ctx, evidenceID)
	if err != nil {
		return domain.CustodyEvent{}, fmt.Errorf("last custody event: %w", err)
	}

	var errs []domain.FieldError
	if !domain.IsStorableText(toParty) || len(strings.TrimSpace(toParty)) > maxPartyLen {
		errs = append(errs, domain.FieldError{Field: "to_party", Message: "must be valid UTF-8 without NUL bytes, at most 128 bytes"})
	}
	if !domain.IsStorableText(reason) || len(reason) > maxReasonLen {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "must be valid UTF-8 without NUL bytes, at most 2000 bytes"})
	}
	if len(errs) > 0 {
		return domain.CustodyEvent{}, domain.NewValidationErrors(errs)
	}

	toParty = strings.TrimSpace(toParty)
	switch {
	case toParty == "":
		return domain.CustodyEvent{}, fmt.Errorf("evidence %s: empty recipient: %w", evidenceID, domain.ErrInvalidTransfer)
	case toParty == domain.SystemParty:
		return domain.CustodyEvent{}, fmt.Errorf("evidence %s: %s cannot hold evidence: %w", evidenceID, domain.SystemParty, domain.ErrInvalidTransfer)
	case toParty == last.ToParty:
		return domain.CustodyEvent{}, fmt.Errorf("evidence %s: %s already holds it: %w", evidenceID, toParty, domain.ErrInvalidTransfer)
	}

	if strings.TrimSpace(reason) == "" {
		return domain.CustodyEvent{}, domain.NewValidationError("reason", "required")
	}
	assertedHash, ok := hashing.Normalize(assertedHash)
	if !ok {
		return domain.CustodyEvent{}, domain.NewValidationError("recorded_hash", "must be 64 hex characters")
	}

	ev := domain.CustodyEvent{
		EvidenceID:     evidenceID,
		SequenceNumber: last.SequenceNumber + 1,
		FromParty:      last.ToParty,
		ToParty:        toParty,
		Reason:         strings.TrimSpace(reason),
		RecordedHash:   assertedHash,
		RecordedBy:     ctxutil.ActorIDOrSystem(ctx),
		PrevEventHash:  last.EventHash,
		Timestamp:      domain.NormalizeTimestamp(s.clock.Now()),
	}

	ev, err = s.seal(ctx, ev)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.CustodyEvent{}, fmt.Errorf("evidence %s: sequence %d taken: %w", evidenceID, ev.SequenceNumber, domain.ErrConcurrentModification)
		}
		return domain.CustodyEvent{}, err
	}

	s.log.InfoContext(ctx, "custody transferred",
		slog.String("evidence_id", evidenceID),
		slog.Int64("sequence", ev.SequenceNumber),
		slog.String("from_party", ev.FromParty),
		slog.String("to_party", ev.ToParty),
	)
	return ev, nil
}

// seal computes the event hash and appends the event.
func (s *Service) seal(ctx context.Context, ev domain.CustodyEvent) (domain.CustodyEvent, error) {
	hash, err := ComputeEventHash(ev)
	if err != nil {
		return ev, err
	}
	ev.EventHash = hash

	if err := s.events.Append(ctx, ev); err != nil {
		return ev, fmt.Errorf("append custody event: %w", err)
	}
	return ev, nil
}

const (
	maxPartyLen  = 128
	maxReasonLen = 2000
)

func validateParty(field, party string) []domain.FieldError {
	switch p := strings.TrimSpace(party); {
	case p == "":
		return []domain.FieldError{{Field: field, Message: "required"}}
	case p == domain.SystemParty:
		return []domain.FieldError{{Field: field, Message: "reserved party name"}}
	case len(p) > maxPartyLen:
		return []domain.FieldError{{Field: field, Message: "too long (max 128)"}}
	case !domain.IsStorableText(p):
		return []domain.FieldError{{Field: field, Message: "must be valid UTF-8 without NUL bytes"}}
	}
	return nil
}

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/heartmarshall/ndep-backend/internal/ctxutil"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// CustodyMessage is the integration event published for every custody event.
type CustodyMessage struct {
	EvidenceID     string    `json:"evidence_id"`
	CaseID         string    `json:"case_id"`
	SequenceNumber int64     `json:"sequence_number"`
	FromParty      string    `json:"from_party"`
	ToParty        string    `json:"to_party"`
	Reason         string    `json:"reason"`
	RecordedHash   string    `json:"recorded_hash"`
	RecordedBy     string    `json:"recorded_by"`
	PrevEventHash  string    `json:"prev_event_hash,omitempty"`
	EventHash      string    `json:"event_hash"`
	Timestamp      time.Time `json:"timestamp"`
}

// StatusMessage is the integration event published for a status change.
type StatusMessage struct {
	EvidenceID string    `json:"evidence_id"`
	CaseID     string    `json:"case_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Reason     string    `json:"reason"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}

func (s *Service) enqueue(ctx context.Context, aggregateID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	err = s.outbox.Enqueue(ctx, domain.OutboxMessage{
		ID:          s.newID(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     body,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", eventType, err)
	}
	return nil
}

func (s *Service) publishCustody(ctx context.Context, caseID string, ev domain.CustodyEvent) error {
	return s.enqueue(ctx, ev.EvidenceID, domain.EventCustodyRecorded, CustodyMessage{
		EvidenceID:     ev.EvidenceID,
		CaseID:         caseID,
		SequenceNumber: ev.SequenceNumber,
		FromParty:      ev.FromParty,
		ToParty:        ev.ToParty,
		Reason:         ev.Reason,
		RecordedHash:   ev.RecordedHash,
		RecordedBy:     ev.RecordedBy,
		PrevEventHash:  ev.PrevEventHash,
		EventHash:      ev.EventHash,
		Timestamp:      ev.Timestamp,
	})
}

func (s *Service) logAudit(ctx context.Context, evidenceID string, action domain.AuditAction, changes map[string]any) error {
	err := s.audit.Log(ctx, domain.AuditRecord{
		ID:         s.newID(),
		EvidenceID: evidenceID,
		Actor:      ctxutil.ActorIDOrSystem(ctx),
		Action:     action,
		Changes:    changes,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

package domain

import (
	"iter"
	"time"
)

// SystemParty is the FromParty of every genesis event.
const SystemParty = "SYSTEM"

// GenesisReason is recorded on genesis events when the caller supplies none.
const GenesisReason = "evidence registered"

// CustodyEvent is one immutable entry of an evidence item's custody chain.
type CustodyEvent struct {
	EvidenceID     string
	SequenceNumber int64
	FromParty      string
	ToParty        string
	Reason         string
	RecordedHash   string
	RecordedBy     string
	PrevEventHash  string
	EventHash      string
	Timestamp      time.Time
}

// IsGenesis reports whether e opens its chain.
func (e CustodyEvent) IsGenesis() bool {
	return e.SequenceNumber == 0
}

// NormalizeTimestamp truncates t to the precision PostgreSQL stores, in UTC,
// so that a timestamp hashes identically before and after a round trip.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Chain is a read-only snapshot of an evidence item's custody events ordered
// by sequence number. Iterating a Chain never touches storage and can be
// repeated any number of times.
type Chain struct {
	evidenceID string
	events     []CustodyEvent
}

// NewChain copies events into a Chain.
func NewChain(evidenceID string, events []CustodyEvent) Chain {
	cp := make([]CustodyEvent, len(events))
	copy(cp, events)
	return Chain{evidenceID: evidenceID, events: cp}
}

// EvidenceID returns the evidence the chain belongs to.
func (c Chain) EvidenceID() string { return c.evidenceID }

// Len returns the number of events.
func (c Chain) Len() int { return len(c.events) }

// At returns the event at index i.
func (c Chain) At(i int) CustodyEvent { return c.events[i] }

// Last returns the most recent event. ok is false for an empty chain.
func (c Chain) Last() (CustodyEvent, bool) {
	if len(c.events) == 0 {
		return CustodyEvent{}, false
	}
	return c.events[len(c.events)-1], true
}

// All yields (index, event) pairs in sequence order.
func (c Chain) All() iter.Seq2[int, CustodyEvent] {
	return func(yield func(int, CustodyEvent) bool) {
		for i, e := range c.events {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Events returns a copy of the underlying events.
func (c Chain) Events() []CustodyEvent {
	cp := make([]CustodyEvent, len(c.events))
	copy(cp, c.events)
	return cp
}

// ChainProblem is a single integrity defect found in a chain.
type ChainProblem struct {
	Sequence int64
	Kind     ChainProblemKind
	Detail   string
}

// ChainReport is the outcome of walking a custody chain and re-checking its
// links and hashes.
type ChainReport struct {
	EvidenceID string
	Length     int
	Intact     bool
	Problems   []ChainProblem
}

// VerificationResult is the outcome of comparing a caller-supplied hash with
// the registry's stored hash and the ledger's last recorded hash.
type VerificationResult struct {
	EvidenceID          string
	ProvidedHash        string
	StoredHash          string
	LedgerHash          string
	LastSequence        int64
	IsValid             bool
	DiscrepancyDetected bool
	VerifiedAt          time.Time
}

// Actor identifies who performs an operation. It travels in the context.
type Actor struct {
	ID   string
	Role Role
}

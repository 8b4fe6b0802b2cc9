package ledger

import (
	"fmt"
	"time"

	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
	"github.com/heartmarshall/ndep-backend/pkg/jsonutil"
)

// HashScheme identifies the event hash construction below. Changing any
// hashed field or its encoding requires a new scheme name.
const HashScheme = "sha256/canonical-json/v1"

// Event hashes always use SHA-256, independent of the content digest
// algorithm, so chains stay verifiable after a configuration change.
var eventHasher = hashing.New(hashing.SHA256)

type hashedEvent struct {
	EvidenceID     string `json:"evidence_id"`
	SequenceNumber int64  `json:"sequence_number"`
	FromParty      string `json:"from_party"`
	ToParty        string `json:"to_party"`
	Reason         string `json:"reason"`
	RecordedHash   string `json:"recorded_hash"`
	RecordedBy     string `json:"recorded_by"`
	PrevEventHash  string `json:"prev_event_hash"`
	Timestamp      string `json:"timestamp"`
}

// ComputeEventHash returns the SHA-256 of the canonical JSON of every field of
// ev except EventHash.
func ComputeEventHash(ev domain.CustodyEvent) (string, error) {
	payload, err := jsonutil.CanonicalMarshal(hashedEvent{
		EvidenceID:     ev.EvidenceID,
		SequenceNumber: ev.SequenceNumber,
		FromParty:      ev.FromParty,
		ToParty:        ev.ToParty,
		Reason:         ev.Reason,
		RecordedHash:   ev.RecordedHash,
		RecordedBy:     ev.RecordedBy,
		PrevEventHash:  ev.PrevEventHash,
		Timestamp:      domain.NormalizeTimestamp(ev.Timestamp).Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("event hash %s#%d: %w", ev.EvidenceID, ev.SequenceNumber, err)
	}
	return eventHasher.Compute(payload), nil
}

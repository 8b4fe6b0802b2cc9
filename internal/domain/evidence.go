package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// EvidenceRecord is the metadata of a single evidence item together with its
// current custody and lifecycle state.
type EvidenceRecord struct {
	EvidenceID       string
	CaseID           string
	FileName         string
	FileSize         int64
	MimeType         string
	ContentHash      string
	CurrentHolder    string
	Status           EvidenceStatus
	ParentEvidenceID *string
	Revision         int
	LockVersion      int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether custody operations are allowed on the record.
func (r EvidenceRecord) IsActive() bool {
	return r.Status == EvidenceStatusActive
}

// IsRevision reports whether the record supersedes an earlier version.
func (r EvidenceRecord) IsRevision() bool {
	return r.ParentEvidenceID != nil
}

// FormatEvidenceID builds an evidence identifier such as EVID-2026-000042.
func FormatEvidenceID(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// Case groups evidence items. Every evidence record belongs to exactly one case.
type Case struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// AuditRecord logs a mutation of an evidence record.
type AuditRecord struct {
	ID         uuid.UUID
	EvidenceID string
	Actor      string
	Action     AuditAction
	Changes    map[string]any
	CreatedAt  time.Time
}

// OutboxMessage is an integration event waiting to be relayed to the broker.
type OutboxMessage struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
	Attempts    int
	LastError   *string
}

// Integration event types written to the outbox.
const (
	EventCustodyRecorded = "custody.recorded"
	EventStatusChanged   = "evidence.status_changed"
)

// IsStorableText reports whether s is valid UTF-8 without NUL bytes. Other
// text is rejected by PostgreSQL and rewritten by the JSON encoder that feeds
// event hashes.
func IsStorableText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

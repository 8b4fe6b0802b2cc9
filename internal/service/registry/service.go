// Package registry owns evidence records and orchestrates every mutation of
// an evidence item (registration, custody transfer, status change, revision)
// as one transaction spanning the record, its custody chain, the audit trail
// and the event outbox.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ndep-backend/internal/config"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type evidenceRepo interface {
	NextID(ctx context.Context, prefix string, year int) (string, error)
	Create(ctx context.Context, rec domain.EvidenceRecord) (domain.EvidenceRecord, error)
	GetByID(ctx context.Context, id string) (domain.EvidenceRecord, error)
	GetByIDForUpdate(ctx context.Context, id string) (domain.EvidenceRecord, error)
	UpdateHolder(ctx context.Context, id, holder string, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error)
	UpdateStatus(ctx context.Context, id string, status domain.EvidenceStatus, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error)
	ListRevisions(ctx context.Context, parentID string) ([]domain.EvidenceRecord, error)
}

type caseRepo interface {
	Create(ctx context.Context, c domain.Case) (domain.Case, error)
	GetByID(ctx context.Context, id string) (domain.Case, error)
}

type custodyLedger interface {
	AppendGenesis(ctx context.Context, evidenceID, initialHolder, contentHash string) (domain.CustodyEvent, error)
	AppendTransfer(ctx context.Context, evidenceID, toParty, reason, assertedHash string) (domain.CustodyEvent, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	GetByEvidence(ctx context.Context, evidenceID string, limit int) ([]domain.AuditRecord, error)
}

type outboxWriter interface {
	Enqueue(ctx context.Context, msg domain.OutboxMessage) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type contentHasher interface {
	Compute(payload []byte) string
}

type clock interface {
	Now() time.Time
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the evidence registry.
type Service struct {
	log      *slog.Logger
	evidence evidenceRepo
	cases    caseRepo
	ledger   custodyLedger
	audit    auditLogger
	outbox   outboxWriter
	tx       txManager
	hasher   contentHasher
	clock    clock
	cfg      config.LedgerConfig
	newID    func() uuid.UUID
}

// NewService creates a new registry service.
func NewService(
	logger *slog.Logger,
	evidence evidenceRepo,
	cases caseRepo,
	ledger custodyLedger,
	audit auditLogger,
	outbox outboxWriter,
	tx txManager,
	hasher contentHasher,
	clock clock,
	cfg config.LedgerConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "registry"),
		evidence: evidence,
		cases:    cases,
		ledger:   ledger,
		audit:    audit,
		outbox:   outbox,
		tx:       tx,
		hasher:   hasher,
		clock:    clock,
		cfg:      cfg,
		newID:    uuid.New,
	}
}

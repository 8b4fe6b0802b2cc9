// Package verifier cross-checks evidence content hashes against the registry
// and the custody ledger. It never writes.
package verifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

type recordReader interface {
	GetByID(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error)
}

type idLister interface {
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

type chainReader interface {
	GetLastEvent(ctx context.Context, evidenceID string) (domain.CustodyEvent, error)
	VerifyChain(ctx context.Context, evidenceID string) (domain.ChainReport, error)
}

type contentHasher interface {
	Compute(payload []byte) string
}

type clock interface {
	Now() time.Time
}

// Service implements integrity verification.
type Service struct {
	log         *slog.Logger
	records     recordReader
	ids         idLister
	chains      chainReader
	hasher      contentHasher
	clock       clock
	concurrency int
}

// NewService creates a new verifier. concurrency bounds the number of
// evidence items checked at once by VerifyCase and Sweep.
func NewService(
	logger *slog.Logger,
	records recordReader,
	ids idLister,
	chains chainReader,
	hasher contentHasher,
	clock clock,
	concurrency int,
) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		log:         logger.With("service", "verifier"),
		records:     records,
		ids:         ids,
		chains:      chains,
		hasher:      hasher,
		clock:       clock,
		concurrency: concurrency,
	}
}

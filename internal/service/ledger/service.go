// Package ledger maintains the append-only, hash-chained custody history of
// evidence items. It enforces custody rules (genesis shape, continuity,
// contiguous sequence numbers) and leaves transactions to its callers: every
// method joins the transaction carried by ctx, if any.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

type eventStore interface {
	Append(ctx context.Context, ev domain.CustodyEvent) error
	GetChain(ctx context.Context, evidenceID string) ([]domain.CustodyEvent, error)
	GetLast(ctx context.Context, evidenceID string) (domain.CustodyEvent, error)
}

type clock interface {
	Now() time.Time
}

// Service is the custody ledger.
type Service struct {
	events eventStore
	clock  clock
	log    *slog.Logger
}

// NewService creates a new ledger service.
func NewService(log *slog.Logger, events eventStore, clock clock) *Service {
	return &Service{
		events: events,
		clock:  clock,
		log:    log.With("service", "ledger"),
	}
}

// Package relay moves committed outbox messages to the broker.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ndep-backend/internal/config"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

type outboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, ids []uuid.UUID, cause string) error
	CountPending(ctx context.Context) (int64, error)
}

type publisher interface {
	Publish(ctx context.Context, msgs []domain.OutboxMessage) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type clock interface {
	Now() time.Time
}

// Service polls the outbox and publishes pending messages in batches.
// Delivery is at-least-once: a batch is marked published only after the
// broker accepted it.
type Service struct {
	log       *slog.Logger
	outbox    outboxStore
	publisher publisher
	tx        txManager
	clock     clock
	interval  time.Duration
	batchSize int
}

// NewService creates a new relay.
func NewService(
	logger *slog.Logger,
	outbox outboxStore,
	publisher publisher,
	tx txManager,
	clock clock,
	cfg config.RelayConfig,
) *Service {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Service{
		log:       logger.With("service", "relay"),
		outbox:    outbox,
		publisher: publisher,
		tx:        tx,
		clock:     clock,
		interval:  interval,
		batchSize: batch,
	}
}

// RelayOnce publishes at most one batch and returns how many messages were
// published. Rows stay locked for the duration so concurrent relays never
// send the same batch twice. A publish failure is recorded on the messages
// and returned after the attempt bookkeeping commits.
func (s *Service) RelayOnce(ctx context.Context) (int, error) {
	var (
		published  int
		publishErr error
	)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		msgs, err := s.outbox.FetchPending(txCtx, s.batchSize)
		if err != nil {
			return fmt.Errorf("fetch pending: %w", err)
		}
		if len(msgs) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(msgs))
		for i, m := range msgs {
			ids[i] = m.ID
		}

		if publishErr = s.publisher.Publish(txCtx, msgs); publishErr != nil {
			if err := s.outbox.MarkFailed(txCtx, ids, publishErr.Error()); err != nil {
				return fmt.Errorf("mark failed: %w", err)
			}
			return nil
		}

		if err := s.outbox.MarkPublished(txCtx, ids, s.clock.Now()); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		published = len(msgs)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("relay: %w", err)
	}
	if publishErr != nil {
		return 0, fmt.Errorf("relay: publish: %w", publishErr)
	}
	return published, nil
}

// Drain relays full batches until the outbox has no pending messages left
// or a batch fails.
func (s *Service) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := s.RelayOnce(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n < s.batchSize {
			return total, nil
		}
	}
}

// Run drains the outbox every poll interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) error {
	s.log.InfoContext(ctx, "relay started",
		slog.Duration("interval", s.interval),
		slog.Int("batch_size", s.batchSize),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		n, err := s.Drain(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			s.log.InfoContext(ctx, "relay stopped")
			return nil
		case err != nil:
			s.log.ErrorContext(ctx, "relay batch failed", slog.String("error", err.Error()))
		case n > 0:
			s.log.InfoContext(ctx, "relayed outbox messages", slog.Int("count", n))
		}

		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Pending reports how many messages await publication.
func (s *Service) Pending(ctx context.Context) (int64, error) {
	n, err := s.outbox.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("relay: count pending: %w", err)
	}
	return n, nil
}

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// errStaleHolder marks a transfer whose expected holder no longer holds the
// item. It is a concurrency conflict that repeating cannot resolve.
var errStaleHolder = errors.New("holder changed")

// withTimeout bounds ctx by the configured operation timeout unless the
// caller already set a deadline.
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// mutate runs fn in a transaction under the operation timeout, repeating it
// with exponential backoff while it fails with a retryable conflict. Each
// attempt is a fresh transaction, so a failed attempt leaves no trace.
func (s *Service) mutate(ctx context.Context, op, evidenceID string, fn func(txCtx context.Context) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	attempts := s.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInitialBackoff
	b.MaxInterval = s.cfg.RetryMaxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := s.tx.RunInTx(ctx, fn)
		switch {
		case err == nil:
			return nil
		case domain.IsRetryable(err) && !errors.Is(err, errStaleHolder):
			s.log.DebugContext(ctx, "retrying after conflict",
				slog.String("op", op),
				slog.String("evidence_id", evidenceID),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return err
		default:
			return backoff.Permanent(err)
		}
	}, policy)

	if err != nil && attempt > 1 && domain.IsRetryable(err) {
		s.log.WarnContext(ctx, "giving up after conflicts",
			slog.String("op", op),
			slog.String("evidence_id", evidenceID),
			slog.Int("attempts", attempt),
		)
	}
	return asTimeout(err)
}

// asTimeout makes sure a deadline hit anywhere in the operation surfaces as
// domain.ErrTimeout.
func asTimeout(err error) error {
	if err == nil || errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

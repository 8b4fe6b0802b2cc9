package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// PostgreSQL error codes the repositories care about.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
	CodeQueryCanceled        = "57014"
	CodeRaiseException       = "P0001"

	CodeCharacterNotInRepertoire = "22021"
	CodeUntranslatableCharacter  = "22P05"
)

// MapError converts pgx/pgconn errors to domain errors, prefixing the message
// with the entity and its identifier.
// context.Canceled passes through unchanged; deadlines and server-side
// timeouts become domain.ErrTimeout while still wrapping the cause.
func MapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	// pgx.ErrNoRows and scany's empty-result error → domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeUniqueViolation:
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case CodeForeignKeyViolation:
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case CodeCheckViolation, CodeCharacterNotInRepertoire, CodeUntranslatableCharacter:
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		case CodeRaiseException:
			// Immutability triggers.
			return fmt.Errorf("%s %s: %w: %s", entity, id, domain.ErrInvalidState, pgErr.Message)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, classify(err))
}

// classify tags transient conflicts and timeouts with their domain sentinel
// while keeping the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrTimeout) || errors.Is(err, domain.ErrConcurrentModification) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
			return fmt.Errorf("%w: %w", domain.ErrConcurrentModification, err)
		case CodeQueryCanceled:
			return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
	}
	return err
}

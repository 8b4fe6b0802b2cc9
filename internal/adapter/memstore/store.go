// Package memstore is an in-memory backend with the same method sets as the
// PostgreSQL repositories. It models row locks held until the surrounding
// transaction ends, rollback of every write made inside a failed transaction,
// unique (evidence_id, sequence_number) slots and append-only custody events.
//
// It does not model isolation. Writes land in shared state immediately and
// are visible to other readers before commit; rollback removes them again.
// Tests that need read-committed visibility must run against PostgreSQL.
// It backs service tests and local experiments.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// Store holds all state. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	cases    map[string]domain.Case
	evidence map[string]domain.EvidenceRecord
	order    []string
	events   map[string][]domain.CustodyEvent
	audit    []domain.AuditRecord
	outbox   []domain.OutboxMessage
	seq      int64

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	// failAppend, when set, is returned by the next custody Append.
	failAppend error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		cases:    make(map[string]domain.Case),
		evidence: make(map[string]domain.EvidenceRecord),
		events:   make(map[string][]domain.CustodyEvent),
		locks:    make(map[string]chan struct{}),
	}
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

type txCtxKey struct{}

type tx struct {
	mu    sync.Mutex
	undo  []func()
	held  []chan struct{}
	owned map[string]bool
}

func txFromCtx(ctx context.Context) *tx {
	t, _ := ctx.Value(txCtxKey{}).(*tx)
	return t
}

// TxManager runs functions in a store transaction.
type TxManager struct {
	s *Store
}

// TxManager returns the transaction manager of the store.
func (s *Store) TxManager() *TxManager { return &TxManager{s: s} }

// RunInTx executes fn in a transaction. Nested calls join the outer one.
// Writes are visible to other readers while fn runs. When fn fails every
// write it made is undone, in reverse order.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFromCtx(ctx) != nil {
		return fn(ctx)
	}

	t := &tx{owned: make(map[string]bool)}
	defer func() {
		if r := recover(); r != nil {
			m.s.rollback(t)
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, t)); err != nil {
		m.s.rollback(t)
		return err
	}
	m.s.release(t)
	return nil
}

func (s *Store) rollback(t *tx) {
	s.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	s.mu.Unlock()
	s.release(t)
}

func (s *Store) release(t *tx) {
	for _, l := range t.held {
		<-l
	}
	t.held = nil
}

// recordUndo registers an undo step. Must be called with s.mu held.
func recordUndo(ctx context.Context, fn func()) {
	if t := txFromCtx(ctx); t != nil {
		t.mu.Lock()
		t.undo = append(t.undo, fn)
		t.mu.Unlock()
	}
}

// lockRow blocks until the row lock for id is held by the transaction in
// ctx, or ctx ends.
func (s *Store) lockRow(ctx context.Context, id string) error {
	t := txFromCtx(ctx)
	if t == nil {
		return errors.New("memstore: row lock requires a transaction")
	}
	if t.owned[id] {
		return nil
	}

	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	s.locksMu.Unlock()

	select {
	case l <- struct{}{}:
		t.held = append(t.held, l)
		t.owned[id] = true
		return nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("evidence %s: lock: %w: %w", id, domain.ErrTimeout, err)
		}
		return fmt.Errorf("evidence %s: lock: %w", id, err)
	}
}

// ---------------------------------------------------------------------------
// Test hooks
// ---------------------------------------------------------------------------

// FailNextAppend makes the next custody Append return err.
func (s *Store) FailNextAppend(err error) {
	s.mu.Lock()
	s.failAppend = err
	s.mu.Unlock()
}

// TamperEvent rewrites a stored custody event in place, bypassing the
// append-only rule. It exists to exercise integrity checks.
func (s *Store) TamperEvent(evidenceID string, seq int64, fn func(*domain.CustodyEvent)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events[evidenceID] {
		if s.events[evidenceID][i].SequenceNumber == seq {
			fn(&s.events[evidenceID][i])
			return true
		}
	}
	return false
}

// TamperEvidence rewrites a stored evidence record, bypassing immutability.
func (s *Store) TamperEvidence(evidenceID string, fn func(*domain.EvidenceRecord)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.evidence[evidenceID]
	if !ok {
		return false
	}
	fn(&rec)
	s.evidence[evidenceID] = rec
	return true
}

// EventCount returns the number of custody events stored for evidenceID.
func (s *Store) EventCount(evidenceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events[evidenceID])
}

// AuditRecords returns a copy of every audit record.
func (s *Store) AuditRecords() []domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditRecord(nil), s.audit...)
}

// OutboxMessages returns a copy of every outbox message.
func (s *Store) OutboxMessages() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxMessage(nil), s.outbox...)
}

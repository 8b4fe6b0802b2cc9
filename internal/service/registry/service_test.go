package registry

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/heartmarshall/ndep-backend/internal/adapter/memstore"
	"github.com/heartmarshall/ndep-backend/internal/config"
	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
	"github.com/heartmarshall/ndep-backend/internal/service/ledger"
)

//go:generate moq -out custody_ledger_mock_test.go -pkg registry . custodyLedger
//go:generate moq -out audit_logger_mock_test.go -pkg registry . auditLogger
//go:generate moq -out outbox_writer_mock_test.go -pkg registry . outboxWriter
//go:generate moq -out tx_manager_mock_test.go -pkg registry . txManager

const (
	testCaseID = "CASE-001"
	// SHA-256 of "test".
	testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	// SHA-256 of "test v2".
	revisedHash = "75c1168e3e12e42f762e1c0f826fbf0e900dc6bdf9b3b13fc4440fae61d522d4"
)

var baseTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// tickClock advances one second per call.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func testConfig() config.LedgerConfig {
	return config.LedgerConfig{
		HashAlgorithm:       hashing.SHA256,
		EvidenceIDPrefix:    "EVID",
		RetryAttempts:       3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     5 * time.Millisecond,
		OperationTimeout:    2 * time.Second,
	}
}

// fixture wires the registry to an in-memory store and a real ledger.
type fixture struct {
	svc    *Service
	store  *memstore.Store
	ledger *ledger.Service
}

func newFixture(t *testing.T, opts ...func(*config.LedgerConfig)) *fixture {
	t.Helper()

	f := &fixture{store: memstore.New()}
	cfg := testConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	clk := &tickClock{now: baseTime}
	f.ledger = ledger.NewService(slog.Default(), f.store.Custody(), clk)
	f.svc = NewService(
		slog.Default(),
		f.store.Evidence(),
		f.store.Cases(),
		f.ledger,
		f.store.Audit(),
		f.store.Outbox(),
		f.store.TxManager(),
		hashing.New(hashing.SHA256),
		clk,
		cfg,
	)

	if _, err := f.svc.CreateCase(context.Background(), CreateCaseInput{ID: testCaseID, Title: "warehouse burglary"}); err != nil {
		t.Fatalf("create case: %v", err)
	}
	return f
}

// register registers "test" for the fixture case, collected by holder.
func (f *fixture) register(t *testing.T, holder string) domain.EvidenceRecord {
	t.Helper()
	rec, err := f.svc.Register(context.Background(), RegisterInput{
		CaseID:      testCaseID,
		FileName:    "sample.bin",
		Payload:     []byte("test"),
		CollectedBy: holder,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return rec
}

func (f *fixture) chain(t *testing.T, evidenceID string) domain.Chain {
	t.Helper()
	chain, err := f.ledger.GetChain(context.Background(), evidenceID)
	if err != nil {
		t.Fatalf("get chain: %v", err)
	}
	return chain
}

func countActions(records []domain.AuditRecord, evidenceID string, action domain.AuditAction) int {
	n := 0
	for _, r := range records {
		if r.EvidenceID == evidenceID && r.Action == action {
			n++
		}
	}
	return n
}

func countOutbox(msgs []domain.OutboxMessage, evidenceID, eventType string) int {
	n := 0
	for _, m := range msgs {
		if m.AggregateID == evidenceID && m.EventType == eventType {
			n++
		}
	}
	return n
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/ndep-backend/internal/adapter/kafka"
	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres/casefile"
	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres/custody"
	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres/evidence"
	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres/outbox"
	"github.com/heartmarshall/ndep-backend/internal/config"
	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
	"github.com/heartmarshall/ndep-backend/internal/service/ledger"
	"github.com/heartmarshall/ndep-backend/internal/service/registry"
	"github.com/heartmarshall/ndep-backend/internal/service/relay"
	"github.com/heartmarshall/ndep-backend/internal/service/verifier"
	"github.com/heartmarshall/ndep-backend/pkg/clock"
)

// ErrKafkaDisabled is returned by NewRelay when no broker is configured.
var ErrKafkaDisabled = errors.New("kafka publishing is disabled")

// ---------------------------------------------------------------------------
// Storage contracts
// ---------------------------------------------------------------------------

// EvidenceStore is everything the services need from evidence storage.
type EvidenceStore interface {
	NextID(ctx context.Context, prefix string, year int) (string, error)
	Create(ctx context.Context, rec domain.EvidenceRecord) (domain.EvidenceRecord, error)
	GetByID(ctx context.Context, id string) (domain.EvidenceRecord, error)
	GetByIDForUpdate(ctx context.Context, id string) (domain.EvidenceRecord, error)
	UpdateHolder(ctx context.Context, id, holder string, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error)
	UpdateStatus(ctx context.Context, id string, status domain.EvidenceStatus, expectedVersion int64, at time.Time) (domain.EvidenceRecord, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error)
	ListRevisions(ctx context.Context, parentID string) ([]domain.EvidenceRecord, error)
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

// CaseStore stores case records.
type CaseStore interface {
	Create(ctx context.Context, c domain.Case) (domain.Case, error)
	GetByID(ctx context.Context, id string) (domain.Case, error)
}

// CustodyStore stores custody events.
type CustodyStore interface {
	Append(ctx context.Context, ev domain.CustodyEvent) error
	GetChain(ctx context.Context, evidenceID string) ([]domain.CustodyEvent, error)
	GetLast(ctx context.Context, evidenceID string) (domain.CustodyEvent, error)
}

// AuditStore stores the audit trail.
type AuditStore interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	GetByEvidence(ctx context.Context, evidenceID string, limit int) ([]domain.AuditRecord, error)
}

// OutboxStore stores integration events awaiting publication.
type OutboxStore interface {
	Enqueue(ctx context.Context, msg domain.OutboxMessage) error
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, ids []uuid.UUID, cause string) error
	CountPending(ctx context.Context) (int64, error)
}

// TxManager runs a function in one storage transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores groups the storage implementations the services are built on.
type Stores struct {
	Evidence EvidenceStore
	Cases    CaseStore
	Custody  CustodyStore
	Audit    AuditStore
	Outbox   OutboxStore
	Tx       TxManager
}

// PostgresStores returns PostgreSQL-backed stores sharing pool.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Evidence: evidence.New(pool),
		Cases:    casefile.New(pool),
		Custody:  custody.New(pool),
		Audit:    audit.New(pool),
		Outbox:   outbox.New(pool),
		Tx:       postgres.NewTxManager(pool),
	}
}

// ---------------------------------------------------------------------------
// Container
// ---------------------------------------------------------------------------

// App holds the wired custody engine.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Ledger   *ledger.Service
	Registry *registry.Service
	Verifier *verifier.Service
	Hasher   *hashing.Hasher

	stores Stores
	clock  clock.Clock
	pool   *pgxpool.Pool
}

// New wires the services on top of stores. clk defaults to the system clock.
func New(cfg *config.Config, logger *slog.Logger, stores Stores, clk clock.Clock) *App {
	if clk == nil {
		clk = clock.System{}
	}
	hasher := hashing.New(cfg.Ledger.HashAlgorithm)

	led := ledger.NewService(logger, stores.Custody, clk)
	reg := registry.NewService(
		logger,
		stores.Evidence,
		stores.Cases,
		led,
		stores.Audit,
		stores.Outbox,
		stores.Tx,
		hasher,
		clk,
		cfg.Ledger,
	)
	ver := verifier.NewService(logger, reg, stores.Evidence, led, hasher, clk, cfg.Sweep.Concurrency)

	return &App{
		Config:   cfg,
		Log:      logger,
		Ledger:   led,
		Registry: reg,
		Verifier: ver,
		Hasher:   hasher,
		stores:   stores,
		clock:    clk,
	}
}

// Open connects to PostgreSQL and wires the services on it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	a := New(cfg, logger, PostgresStores(pool), clock.System{})
	a.pool = pool

	logger.Info("custody engine ready",
		slog.String("version", BuildVersion()),
		slog.String("hash_algorithm", string(cfg.Ledger.HashAlgorithm)),
		slog.String("config_source", cfg.Source),
	)
	return a, nil
}

// NewRelay builds an outbox relay publishing to Kafka. The returned close
// function flushes and releases the writer.
func (a *App) NewRelay() (*relay.Service, func() error, error) {
	if !a.Config.Kafka.Enabled {
		return nil, nil, ErrKafkaDisabled
	}
	pub, err := kafka.NewPublisher(a.Config.Kafka, a.Log)
	if err != nil {
		return nil, nil, err
	}
	svc := relay.NewService(a.Log, a.stores.Outbox, pub, a.stores.Tx, a.clock, a.Config.Relay)
	return svc, pub.Close, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/ndep-backend/internal/adapter/memstore"
	"github.com/heartmarshall/ndep-backend/internal/app"
	"github.com/heartmarshall/ndep-backend/internal/config"
	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
	"github.com/heartmarshall/ndep-backend/pkg/clock"
)

// SHA-256 of "test".
const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

type env struct {
	deps     Deps
	store    *memstore.Store
	migrated []string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{store: memstore.New()}
	cfg := &config.Config{
		Database: config.DatabaseConfig{DSN: "postgres://test"},
		Ledger: config.LedgerConfig{
			HashAlgorithm:       hashing.SHA256,
			EvidenceIDPrefix:    "EVID",
			RetryAttempts:       3,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     5 * time.Millisecond,
			OperationTimeout:    time.Second,
		},
		Sweep: config.SweepConfig{Concurrency: 2},
	}
	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	stores := app.Stores{
		Evidence: e.store.Evidence(),
		Cases:    e.store.Cases(),
		Custody:  e.store.Custody(),
		Audit:    e.store.Audit(),
		Outbox:   e.store.Outbox(),
		Tx:       e.store.TxManager(),
	}

	e.deps = Deps{
		LoadConfig: func() (*config.Config, error) { return cfg, nil },
		Open: func(ctx context.Context, cfg *config.Config) (*app.App, error) {
			return app.New(cfg, slog.Default(), stores, clock.Func(func() time.Time { return at })), nil
		},
		Migrate: func(ctx context.Context, dsn string) ([]int64, error) {
			e.migrated = append(e.migrated, dsn)
			return []int64{1, 2}, nil
		},
	}
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(e.deps)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// registerItem creates CASE-1 and registers a file containing "test".
func (e *env) registerItem(t *testing.T) {
	t.Helper()
	e.mustRun(t, "case", "create", "CASE-1", "--title", "Burglary")
	e.mustRun(t, "evidence", "register",
		"--case", "CASE-1",
		"--file", writeFile(t, "photo.jpg", "test"),
		"--collected-by", "officer.a")
}

// ---------------------------------------------------------------------------
// Root
// ---------------------------------------------------------------------------

func TestRoot_Help(t *testing.T) {
	t.Parallel()

	out, err := newEnv(t).run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "custody chain")
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	t.Parallel()

	_, err := newEnv(t).run(t, "--output", "xml", "version")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRoot_RejectsUnknownRole(t *testing.T) {
	t.Parallel()

	_, err := newEnv(t).run(t, "--role", "janitor", "version")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Contains(t, out, "event hash: sha256/canonical-json/v1")

	var info app.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "-o", "json", "version")), &info))
	assert.Equal(t, app.Version, info.Version)
	assert.Equal(t, "sha256/canonical-json/v1", info.EventHashScheme)
	assert.NotEmpty(t, info.GoVersion)
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	out := e.mustRun(t, "migrate")
	assert.Contains(t, out, "Applied migration 00002")
	assert.Equal(t, []string{"postgres://test"}, e.migrated)
}

// ---------------------------------------------------------------------------
// Cases and evidence
// ---------------------------------------------------------------------------

func TestEvidence_RegisterAndShow(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.registerItem(t)

	out := e.mustRun(t, "evidence", "show", "EVID-2026-000001")
	assert.Contains(t, out, testHash)
	assert.Contains(t, out, "officer.a")
	assert.Contains(t, out, "ACTIVE")

	out = e.mustRun(t, "case", "show", "CASE-1")
	assert.Contains(t, out, "Burglary")
	assert.Contains(t, out, "EVID-2026-000001")
}

func TestEvidence_RegisterWithHashOnly(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.mustRun(t, "case", "create", "CASE-1")
	out := e.mustRun(t, "-o", "json", "evidence", "register",
		"--case", "CASE-1", "--hash", testHash, "--name", "disk.img", "--size", "4", "--collected-by", "officer.a")

	var v evidenceView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, testHash, v.ContentHash)
	assert.Equal(t, "disk.img", v.FileName)
	assert.EqualValues(t, 4, v.FileSize)
}

func TestEvidence_RegisterRequiresContent(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	_, err := e.run(t, "evidence", "register", "--case", "CASE-1", "--collected-by", "officer.a")
	assert.Error(t, err)
}

func TestEvidence_TransferAndChain(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.registerItem(t)

	e.mustRun(t, "--actor", "sgt.x", "--role", "police",
		"evidence", "transfer", "EVID-2026-000001", "--to", "lab.tech.b", "--reason", "lab analysis")

	out := e.mustRun(t, "chain", "show", "EVID-2026-000001")
	assert.Contains(t, out, "SYSTEM -> officer.a")
	assert.Contains(t, out, "officer.a -> lab.tech.b")
	assert.Contains(t, out, "by sgt.x")

	out = e.mustRun(t, "-o", "yaml", "chain", "show", "EVID-2026-000001")
	var events []eventView
	require.NoError(t, yaml.Unmarshal([]byte(out), &events))
	require.Len(t, events, 2)
	assert.Equal(t, events[0].EventHash, events[1].PrevEventHash)

	out = e.mustRun(t, "evidence", "history", "EVID-2026-000001")
	assert.Contains(t, out, "TRANSFER")
	assert.Contains(t, out, "sgt.x")
}

func TestEvidence_TransferRejections(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.registerItem(t)

	_, err := e.run(t, "evidence", "transfer", "EVID-2026-000001", "--to", "lab.tech.b")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = e.run(t, "evidence", "transfer", "EVID-2026-000001", "--to", "officer.a", "--reason", "again")
	assert.ErrorIs(t, err, domain.ErrInvalidTransfer)

	e.mustRun(t, "evidence", "status", "EVID-2026-000001", "destroyed", "--reason", "case closed")
	_, err = e.run(t, "evidence", "transfer", "EVID-2026-000001", "--to", "lab.tech.b", "--reason", "retrieval")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, 1, e.store.EventCount("EVID-2026-000001"))
}

func TestEvidence_ReviseAndList(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.registerItem(t)

	e.mustRun(t, "evidence", "revise", "EVID-2026-000001",
		"--file", writeFile(t, "photo-enhanced.jpg", "test v2"), "--reason", "enhanced")

	out := e.mustRun(t, "evidence", "list", "--revisions-of", "EVID-2026-000001")
	assert.Contains(t, out, "EVID-2026-000002")
	assert.Contains(t, out, "rev 2")

	out = e.mustRun(t, "evidence", "list", "CASE-1")
	assert.Contains(t, out, "EVID-2026-000001")
	assert.Contains(t, out, "EVID-2026-000002")

	_, err := e.run(t, "evidence", "list")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Verification
// ---------------------------------------------------------------------------

func TestVerify(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.registerItem(t)

	out := e.mustRun(t, "verify", "EVID-2026-000001", "--hash", testHash)
	assert.Contains(t, out, "VALID")

	out = e.mustRun(t, "verify", "EVID-2026-000001", "--file", writeFile(t, "copy.jpg", "test"))
	assert.Contains(t, out, "VALID")

	out, err := e.run(t, "-o", "json", "verify", "EVID-2026-000001", "--hash", "wronghash")
	assert.True(t, errors.Is(err, errCheckFailed))
	var res resultView
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.IsValid)
	assert.Equal(t, testHash, res.StoredHash)

	_, err = e.run(t, "verify", "EVID-2026-000001")
	assert.Error(t, err)
	_, err = e.run(t, "verify", "EVID-2026-999999", "--hash", testHash)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChainVerify(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.registerItem(t)

	out := e.mustRun(t, "chain", "verify", "EVID-2026-000001")
	assert.Contains(t, out, "OK (1 events)")
	out = e.mustRun(t, "chain", "verify", "--all")
	assert.Contains(t, out, "Checked 1 evidence item(s), 0 with problems.")

	e.store.TamperEvent("EVID-2026-000001", 0, func(ev *domain.CustodyEvent) { ev.Reason = "edited" })

	out, err := e.run(t, "chain", "verify", "EVID-2026-000001")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, string(domain.ChainProblemHashMismatch))

	out, err = e.run(t, "-o", "json", "chain", "verify", "--all")
	assert.ErrorIs(t, err, errCheckFailed)
	var sweep sweepView
	require.NoError(t, json.Unmarshal([]byte(out), &sweep))
	assert.Equal(t, 1, sweep.Checked)
	require.Len(t, sweep.Tampered, 1)

	_, err = e.run(t, "chain", "verify")
	assert.Error(t, err)
}

func TestRelay_KafkaDisabled(t *testing.T) {
	t.Parallel()

	_, err := newEnv(t).run(t, "relay", "--once")
	assert.ErrorIs(t, err, app.ErrKafkaDisabled)
}

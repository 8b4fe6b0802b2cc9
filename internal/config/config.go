package config

import (
	"time"

	"github.com/heartmarshall/ndep-backend/internal/hashing"
)

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Relay    RelayConfig    `yaml:"relay"`
	Sweep    SweepConfig    `yaml:"sweep"`

	// Source is the file the configuration was read from, empty when it came
	// from the environment alone.
	Source string `yaml:"-" env:"-"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`

	// LockTimeout bounds the wait for an evidence row lock. It must stay below
	// ledger.operation_timeout so a contended transfer fails as a retryable
	// conflict rather than a timeout. Zero leaves the server default.
	LockTimeout      time.Duration `yaml:"lock_timeout"      env:"DATABASE_LOCK_TIMEOUT"      env-default:"1s"`
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// LedgerConfig holds custody engine settings.
type LedgerConfig struct {
	HashAlgorithmRaw    string        `yaml:"hash_algorithm"        env:"LEDGER_HASH_ALGORITHM"        env-default:"sha256"`
	EvidenceIDPrefix    string        `yaml:"evidence_id_prefix"    env:"LEDGER_EVIDENCE_ID_PREFIX"    env-default:"EVID"`
	RetryAttempts       int           `yaml:"retry_attempts"        env:"LEDGER_RETRY_ATTEMPTS"        env-default:"3"`
	RetryInitialBackoff time.Duration `yaml:"retry_initial_backoff" env:"LEDGER_RETRY_INITIAL_BACKOFF" env-default:"50ms"`
	RetryMaxBackoff     time.Duration `yaml:"retry_max_backoff"     env:"LEDGER_RETRY_MAX_BACKOFF"     env-default:"1s"`
	OperationTimeout    time.Duration `yaml:"operation_timeout"     env:"LEDGER_OPERATION_TIMEOUT"     env-default:"5s"`
	EnforceHolder       bool          `yaml:"enforce_holder"        env:"LEDGER_ENFORCE_HOLDER"        env-default:"false"`

	// HashAlgorithm is parsed from HashAlgorithmRaw during validation.
	HashAlgorithm hashing.Algorithm `yaml:"-" env:"-"`
}

// KafkaConfig holds settings of the custody event publisher.
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"       env:"KAFKA_ENABLED"       env-default:"false"`
	Brokers      []string      `yaml:"brokers"       env:"KAFKA_BROKERS"       env-separator:","`
	Topic        string        `yaml:"topic"         env:"KAFKA_TOPIC"         env-default:"ndep.custody-events"`
	BatchSize    int           `yaml:"batch_size"    env:"KAFKA_BATCH_SIZE"    env-default:"100"`
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"KAFKA_BATCH_TIMEOUT" env-default:"100ms"`
	RequiredAcks string        `yaml:"required_acks" env:"KAFKA_REQUIRED_ACKS" env-default:"all"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"KAFKA_WRITE_TIMEOUT" env-default:"5s"`
}

// RelayConfig holds settings of the outbox relay loop.
type RelayConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"RELAY_POLL_INTERVAL" env-default:"2s"`
	BatchSize    int           `yaml:"batch_size"    env:"RELAY_BATCH_SIZE"    env-default:"100"`
}

// SweepConfig holds settings of the integrity sweep.
type SweepConfig struct {
	Concurrency int `yaml:"concurrency" env:"SWEEP_CONCURRENCY" env-default:"8"`
}

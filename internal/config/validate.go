package config

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/hashing"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) cannot exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if err := c.Ledger.validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if c.Database.LockTimeout < 0 || c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database timeouts must not be negative")
	}
	if c.Database.LockTimeout >= c.Ledger.OperationTimeout {
		return fmt.Errorf("database.lock_timeout (%v) must be below ledger.operation_timeout (%v)", c.Database.LockTimeout, c.Ledger.OperationTimeout)
	}

	if err := c.Kafka.validate(); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}

	if c.Relay.BatchSize <= 0 {
		return fmt.Errorf("relay.batch_size must be > 0 (got %d)", c.Relay.BatchSize)
	}
	if c.Relay.PollInterval <= 0 {
		return fmt.Errorf("relay.poll_interval must be > 0 (got %v)", c.Relay.PollInterval)
	}

	if c.Sweep.Concurrency <= 0 {
		return fmt.Errorf("sweep.concurrency must be > 0 (got %d)", c.Sweep.Concurrency)
	}

	return nil
}

func (l *LedgerConfig) validate() error {
	algo, err := hashing.ParseAlgorithm(l.HashAlgorithmRaw)
	if err != nil {
		return fmt.Errorf("hash_algorithm: %w", err)
	}
	l.HashAlgorithm = algo

	if l.EvidenceIDPrefix == "" {
		return fmt.Errorf("evidence_id_prefix is required")
	}
	for _, r := range l.EvidenceIDPrefix {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("evidence_id_prefix must be uppercase latin letters (got %q)", l.EvidenceIDPrefix)
		}
	}

	if l.RetryAttempts < 1 || l.RetryAttempts > 10 {
		return fmt.Errorf("retry_attempts must be within [1, 10] (got %d)", l.RetryAttempts)
	}
	if l.RetryInitialBackoff <= 0 || l.RetryMaxBackoff < l.RetryInitialBackoff {
		return fmt.Errorf("retry backoff must satisfy 0 < initial <= max (got %v, %v)", l.RetryInitialBackoff, l.RetryMaxBackoff)
	}
	if l.OperationTimeout <= 0 {
		return fmt.Errorf("operation_timeout must be > 0 (got %v)", l.OperationTimeout)
	}

	return nil
}

func (k *KafkaConfig) validate() error {
	if !k.Enabled {
		return nil
	}
	if len(k.Brokers) == 0 {
		return fmt.Errorf("brokers are required when kafka is enabled")
	}
	if strings.TrimSpace(k.Topic) == "" {
		return fmt.Errorf("topic is required when kafka is enabled")
	}
	switch k.RequiredAcks {
	case "none", "one", "all":
	default:
		return fmt.Errorf("required_acks must be one of none, one, all (got %q)", k.RequiredAcks)
	}
	if k.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", k.BatchSize)
	}
	return nil
}

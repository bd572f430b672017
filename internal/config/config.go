// Package config defines all configuration structures for SymbioLink. No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Service configuration
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Validate checks the worker section on its own so the worker binary can
// reject a config the API server would accept.
func (w WorkerConfig) Validate() error {
	switch w.StartOffset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("config: messaging.worker.start_offset %q is invalid; expected earliest|latest", w.StartOffset)
	}
	if w.MaxRetries < 0 {
		return fmt.Errorf("config: messaging.worker.max_retries must be >= 0, got %d", w.MaxRetries)
	}
	if w.RequestTopic != "" && w.RequestTopic == w.DeadLetterTopic {
		return fmt.Errorf("config: messaging.worker.dead_letter_topic must differ from request_topic")
	}
	return nil
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// RedisConfig holds connection parameters for the analysis result cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ResultTTL    time.Duration `mapstructure:"result_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig groups cache backends.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// KafkaConfig holds producer parameters for analysis events.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	ClientID     string        `mapstructure:"client_id"`
	Topic        string        `mapstructure:"topic"`
	Partitions   int           `mapstructure:"partitions"`
	Replication  int           `mapstructure:"replication"`
	EnsureTopic  bool          `mapstructure:"ensure_topic"`
	RequiredAcks int           `mapstructure:"required_acks"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WorkerConfig drives the asynchronous analysis worker. Brokers come from
// messaging.kafka.
type WorkerConfig struct {
	GroupID         string        `mapstructure:"group_id"`
	RequestTopic    string        `mapstructure:"request_topic"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"` // empty drops exhausted messages
	StartOffset     string        `mapstructure:"start_offset"`      // "earliest" | "latest"
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
	HandlerTimeout  time.Duration `mapstructure:"handler_timeout"`
}

// MessagingConfig groups event sinks and the request queue.
type MessagingConfig struct {
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Worker WorkerConfig `mapstructure:"worker"`
}

// Neo4jConfig holds connection parameters for the network graph exporter.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// GraphConfig groups graph store sinks.
type GraphConfig struct {
	Neo4j Neo4jConfig `mapstructure:"neo4j"`
}

// AnalysisConfig bounds what a single request may ask of the engine.
type AnalysisConfig struct {
	MaxEntities    int           `mapstructure:"max_entities"`
	DefaultMaxHops int           `mapstructure:"default_max_hops"`
	MaxHopsLimit   int           `mapstructure:"max_hops_limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Engine    EngineConfig    `mapstructure:"engine"`
}

// Validate checks that every field holds a usable value. It should be called
// after ApplyDefaults.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid", c.Log.Level)
	}

	// Redis
	if c.Cache.Redis.Enabled {
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required when redis is enabled")
		}
		if c.Cache.Redis.DB < 0 {
			return fmt.Errorf("config: cache.redis.db must be >= 0, got %d", c.Cache.Redis.DB)
		}
	}

	// Kafka
	if c.Messaging.Kafka.Enabled && len(c.Messaging.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: messaging.kafka.brokers must contain at least one broker address")
	}
	if c.Messaging.Kafka.Enabled && c.Messaging.Kafka.Topic == "" {
		return fmt.Errorf("config: messaging.kafka.topic is required when kafka is enabled")
	}

	// Worker
	if err := c.Messaging.Worker.Validate(); err != nil {
		return err
	}

	// Neo4j
	if c.Graph.Neo4j.Enabled && c.Graph.Neo4j.URI == "" {
		return fmt.Errorf("config: graph.neo4j.uri is required when neo4j is enabled")
	}

	// Analysis
	if c.Analysis.MaxEntities < 1 {
		return fmt.Errorf("config: analysis.max_entities must be >= 1, got %d", c.Analysis.MaxEntities)
	}
	if c.Analysis.DefaultMaxHops < 2 || c.Analysis.DefaultMaxHops > c.Analysis.MaxHopsLimit {
		return fmt.Errorf("config: analysis.default_max_hops %d is out of range [2, %d]",
			c.Analysis.DefaultMaxHops, c.Analysis.MaxHopsLimit)
	}

	return c.Engine.Validate()
}

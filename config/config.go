// Package config loads the runtime configuration of the topicgraph service.
//
// Values start from Default, are overlaid by an optional YAML file and finally
// by environment variables. Validate must pass before the values are used.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Orientation selects the direction in which relationships are written.
type Orientation string

const (
	// PersonToTopic writes (:Person)-[:CREATED|EDITED]->(:Topic).
	PersonToTopic Orientation = "person-to-topic"
	// TopicToPerson writes (:Topic)-[:CREATED_BY|EDITED_BY]->(:Person).
	TopicToPerson Orientation = "topic-to-person"
)

// Valid reports whether o is one of the known orientations.
func (o Orientation) Valid() bool {
	return o == PersonToTopic || o == TopicToPerson
}

// Neo4j holds the connection settings for the graph database.
type Neo4j struct {
	// URI is the bolt or neo4j URI, e.g. "bolt://localhost:7687".
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Database is the target database; empty uses the server default.
	Database string `yaml:"database"`

	// MaxConnectionPoolSize of zero keeps the driver default.
	MaxConnectionPoolSize   int           `yaml:"max_connection_pool_size"`
	ConnectionTimeout       time.Duration `yaml:"connection_timeout"`
	MaxTransactionRetryTime time.Duration `yaml:"max_transaction_retry_time"`
}

// HTTP holds the listener settings.
type HTTP struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Log holds the logger settings.
type Log struct {
	Level string `yaml:"level"`
}

// Config is the complete service configuration.
type Config struct {
	Neo4j       Neo4j       `yaml:"neo4j"`
	HTTP        HTTP        `yaml:"http"`
	Log         Log         `yaml:"log"`
	Orientation Orientation `yaml:"orientation"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Neo4j: Neo4j{
			URI:                     "bolt://localhost:7687",
			Username:                "neo4j",
			Password:                "test",
			Database:                "neo4j",
			ConnectionTimeout:       30 * time.Second,
			MaxTransactionRetryTime: 30 * time.Second,
		},
		HTTP: HTTP{
			Addr:            ":5000",
			ShutdownTimeout: 10 * time.Second,
		},
		Log:         Log{Level: "info"},
		Orientation: PersonToTopic,
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty) and the process environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto c. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("NEO4J_URI", &c.Neo4j.URI)
	set("NEO4J_USERNAME", &c.Neo4j.Username)
	set("NEO4J_PASSWORD", &c.Neo4j.Password)
	set("NEO4J_DATABASE", &c.Neo4j.Database)
	set("TOPICGRAPH_ADDR", &c.HTTP.Addr)
	set("TOPICGRAPH_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("TOPICGRAPH_ORIENTATION"); ok && v != "" {
		c.Orientation = Orientation(strings.TrimSpace(v))
	}
}

// Validate checks that the configuration can be used to start the service.
func (c Config) Validate() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("%w: neo4j.uri cannot be empty", ErrInvalidConfig)
	}
	if c.Neo4j.Username == "" {
		return fmt.Errorf("%w: neo4j.username cannot be empty", ErrInvalidConfig)
	}
	if c.Neo4j.ConnectionTimeout <= 0 {
		return fmt.Errorf("%w: neo4j.connection_timeout must be positive", ErrInvalidConfig)
	}
	if c.Neo4j.MaxTransactionRetryTime <= 0 {
		return fmt.Errorf("%w: neo4j.max_transaction_retry_time must be positive", ErrInvalidConfig)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr cannot be empty", ErrInvalidConfig)
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: http.shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if !c.Orientation.Valid() {
		return fmt.Errorf("%w: unknown orientation %q", ErrInvalidConfig, c.Orientation)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l Log) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, l.Level)
	}
}

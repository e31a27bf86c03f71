package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.Username)
	assert.Equal(t, "test", cfg.Neo4j.Password)
	assert.Equal(t, PersonToTopic, cfg.Orientation)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty uri", mutate: func(c *Config) { c.Neo4j.URI = "" }, wantErr: true},
		{name: "empty username", mutate: func(c *Config) { c.Neo4j.Username = "" }, wantErr: true},
		{name: "zero connection timeout", mutate: func(c *Config) { c.Neo4j.ConnectionTimeout = 0 }, wantErr: true},
		{name: "zero retry time", mutate: func(c *Config) { c.Neo4j.MaxTransactionRetryTime = 0 }, wantErr: true},
		{name: "empty addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, wantErr: true},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.HTTP.ShutdownTimeout = 0 }, wantErr: true},
		{name: "unknown orientation", mutate: func(c *Config) { c.Orientation = "sideways" }, wantErr: true},
		{name: "topic to person", mutate: func(c *Config) { c.Orientation = TopicToPerson }},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "empty password allowed", mutate: func(c *Config) { c.Neo4j.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envFrom(map[string]string{
		"NEO4J_URI":              "neo4j://graph:7687",
		"NEO4J_USERNAME":         "admin",
		"NEO4J_PASSWORD":         "secret",
		"NEO4J_DATABASE":         "people",
		"TOPICGRAPH_ADDR":        ":8080",
		"TOPICGRAPH_ORIENTATION": " topic-to-person ",
		"TOPICGRAPH_LOG_LEVEL":   "debug",
	}))

	assert.Equal(t, "neo4j://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "admin", cfg.Neo4j.Username)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, "people", cfg.Neo4j.Database)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, TopicToPerson, cfg.Orientation)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestConfig_ApplyEnv_EmptyValuesIgnored(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envFrom(map[string]string{"NEO4J_URI": ""}))
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topicgraph.yaml")
	content := `
neo4j:
  uri: bolt://from-file:7687
  username: fileuser
  connection_timeout: 5s
http:
  addr: ":9000"
orientation: topic-to-person
log:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("NEO4J_URI", "bolt://from-env:7687")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bolt://from-env:7687", cfg.Neo4j.URI)
	assert.Equal(t, "fileuser", cfg.Neo4j.Username)
	assert.Equal(t, 5*time.Second, cfg.Neo4j.ConnectionTimeout)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, TopicToPerson, cfg.Orientation)
	// untouched by the file
	assert.Equal(t, 30*time.Second, cfg.Neo4j.MaxTransactionRetryTime)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidOrientationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orientation: diagonal\n"), 0o600))
	t.Setenv("TOPICGRAPH_ORIENTATION", "")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLog_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := Log{Level: in}.SlogLevel()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

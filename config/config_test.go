package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/apiecho/logging"
	"github.com/vitalvas/apiecho/openapi"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Address)
	assert.Equal(t, openapi.StrategyEager, cfg.Document.Strategy)
	assert.Equal(t, SchemaDerived, cfg.Document.SchemaMode)
	assert.False(t, cfg.Server.ValidateRequests)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("defaults without environment", func(t *testing.T) {
		assert.Equal(t, Default(), Load())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("APIECHO_ADDRESS", "127.0.0.1:8080")
		t.Setenv("APIECHO_STRATEGY", "lazy")
		t.Setenv("APIECHO_SCHEMA_MODE", "explicit")
		t.Setenv("APIECHO_VALIDATE_REQUESTS", "true")
		t.Setenv("APIECHO_MAX_CONNECTIONS", "64")
		t.Setenv("APIECHO_MAX_BODY_BYTES", "2048")
		t.Setenv("APIECHO_SHUTDOWN_TIMEOUT", "3s")
		t.Setenv("APIECHO_CORS_ORIGINS", "https://a.example, https://b.example,")
		t.Setenv("APIECHO_LOG_LEVEL", "debug")
		t.Setenv("APIECHO_LOG_FORMAT", "json")
		t.Setenv("APIECHO_LOG_FILE", "/tmp/apiecho.log")
		t.Setenv("APIECHO_LOG_COMPRESS", "1")

		cfg := Load()

		assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address)
		assert.Equal(t, openapi.StrategyLazy, cfg.Document.Strategy)
		assert.Equal(t, SchemaExplicit, cfg.Document.SchemaMode)
		assert.True(t, cfg.Server.ValidateRequests)
		assert.Equal(t, 64, cfg.Server.MaxConnections)
		assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
		assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, logging.Options{
			Level:      "debug",
			Format:     "json",
			File:       "/tmp/apiecho.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		}, cfg.Logging)
		require.NoError(t, cfg.Validate())
	})

	t.Run("unparsable values are reported", func(t *testing.T) {
		t.Setenv("APIECHO_MAX_CONNECTIONS", "many")
		t.Setenv("APIECHO_READ_TIMEOUT", "10")
		t.Setenv("APIECHO_VALIDATE_REQUESTS", "perhaps")

		cfg := Load()
		assert.Equal(t, 0, cfg.Server.MaxConnections)
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
		assert.False(t, cfg.Server.ValidateRequests)

		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidEnv)
		assert.ErrorContains(t, err, `APIECHO_MAX_CONNECTIONS="many"`)
		assert.ErrorContains(t, err, `APIECHO_READ_TIMEOUT="10"`)
		assert.ErrorContains(t, err, `APIECHO_VALIDATE_REQUESTS="perhaps"`)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"bad address", func(c *Config) { c.Server.Address = "3000" }, ErrInvalidAddress},
		{"negative connections", func(c *Config) { c.Server.MaxConnections = -1 }, ErrInvalidLimit},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, ErrInvalidLimit},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, ErrInvalidTimeout},
		{"bad strategy", func(c *Config) { c.Document.Strategy = "sometimes" }, openapi.ErrInvalidStrategy},
		{"bad schema mode", func(c *Config) { c.Document.SchemaMode = "magic" }, ErrInvalidSchemaMode},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, logging.ErrInvalidLevel},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, logging.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}

	t.Run("reports every error", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Address = "bad"
		cfg.Document.SchemaMode = "bad"

		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidAddress)
		assert.ErrorIs(t, err, ErrInvalidSchemaMode)
	})

	t.Run("normalizes enums", func(t *testing.T) {
		cfg := Default()
		cfg.Document.Strategy = "LAZY"
		cfg.Document.SchemaMode = " Explicit "

		require.NoError(t, cfg.Validate())
		assert.Equal(t, openapi.StrategyLazy, cfg.Document.Strategy)
		assert.Equal(t, SchemaExplicit, cfg.Document.SchemaMode)
	})
}

func TestParseSchemaMode(t *testing.T) {
	mode, err := ParseSchemaMode("derived")
	require.NoError(t, err)
	assert.Equal(t, SchemaDerived, mode)

	_, err = ParseSchemaMode("")
	assert.ErrorIs(t, err, ErrInvalidSchemaMode)
}

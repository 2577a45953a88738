// Package config loads service settings from APIECHO_* environment variables.
// Command line flags override the loaded values before Validate is called.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vitalvas/apiecho/logging"
	"github.com/vitalvas/apiecho/openapi"
)

var (
	ErrInvalidAddress    = errors.New("config: address must be host:port")
	ErrInvalidSchemaMode = errors.New("config: schema mode must be derived or explicit")
	ErrInvalidLimit      = errors.New("config: invalid limit")
	ErrInvalidTimeout    = errors.New("config: invalid timeout")
	ErrInvalidEnv        = errors.New("config: invalid environment value")
)

// SchemaMode selects how the echo record schema is produced.
type SchemaMode string

const (
	// SchemaDerived reflects over the record type.
	SchemaDerived SchemaMode = "derived"

	// SchemaExplicit uses the hand-written record schema.
	SchemaExplicit SchemaMode = "explicit"
)

// ParseSchemaMode parses "derived" or "explicit" (case-insensitive).
func ParseSchemaMode(s string) (SchemaMode, error) {
	switch m := SchemaMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SchemaDerived, SchemaExplicit:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSchemaMode, s)
}

// Config holds every service setting.
type Config struct {
	Server   ServerConfig
	Document DocumentConfig
	CORS     CORSConfig
	Logging  logging.Options

	// envErrs holds environment values Load could not parse.
	envErrs []error
}

// ServerConfig configures the listener and the HTTP server.
type ServerConfig struct {
	Address string

	// MaxConnections caps concurrently accepted connections; 0 is unlimited.
	MaxConnections int
	MaxBodyBytes   int64

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// ValidateRequests checks requests against the generated document.
	ValidateRequests bool
}

// DocumentConfig selects how the OpenAPI document is built and cached.
type DocumentConfig struct {
	Strategy   openapi.Strategy
	SchemaMode SchemaMode
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         "0.0.0.0:3000",
			MaxBodyBytes:    1 << 20,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Document: DocumentConfig{
			Strategy:   openapi.StrategyEager,
			SchemaMode: SchemaDerived,
		},
		Logging: logging.Options{
			Level:      "info",
			Format:     string(logging.FormatAuto),
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load returns the defaults overridden by environment variables. A value
// that fails to parse keeps its default and is reported by Validate.
func Load() *Config {
	def := Default()
	env := &envReader{}

	cfg := &Config{
		Server: ServerConfig{
			Address:          env.getEnv("APIECHO_ADDRESS", def.Server.Address),
			MaxConnections:   env.getEnvInt("APIECHO_MAX_CONNECTIONS", def.Server.MaxConnections),
			MaxBodyBytes:     int64(env.getEnvInt("APIECHO_MAX_BODY_BYTES", int(def.Server.MaxBodyBytes))),
			ReadTimeout:      env.getEnvDuration("APIECHO_READ_TIMEOUT", def.Server.ReadTimeout),
			WriteTimeout:     env.getEnvDuration("APIECHO_WRITE_TIMEOUT", def.Server.WriteTimeout),
			IdleTimeout:      env.getEnvDuration("APIECHO_IDLE_TIMEOUT", def.Server.IdleTimeout),
			ShutdownTimeout:  env.getEnvDuration("APIECHO_SHUTDOWN_TIMEOUT", def.Server.ShutdownTimeout),
			ValidateRequests: env.getEnvBool("APIECHO_VALIDATE_REQUESTS", def.Server.ValidateRequests),
		},
		Document: DocumentConfig{
			Strategy:   openapi.Strategy(env.getEnv("APIECHO_STRATEGY", string(def.Document.Strategy))),
			SchemaMode: SchemaMode(env.getEnv("APIECHO_SCHEMA_MODE", string(def.Document.SchemaMode))),
		},
		CORS: CORSConfig{
			AllowedOrigins: env.getEnvList("APIECHO_CORS_ORIGINS"),
		},
		Logging: logging.Options{
			Level:      env.getEnv("APIECHO_LOG_LEVEL", def.Logging.Level),
			Format:     env.getEnv("APIECHO_LOG_FORMAT", def.Logging.Format),
			File:       env.getEnv("APIECHO_LOG_FILE", def.Logging.File),
			MaxSizeMB:  env.getEnvInt("APIECHO_LOG_MAX_SIZE", def.Logging.MaxSizeMB),
			MaxBackups: env.getEnvInt("APIECHO_LOG_MAX_BACKUPS", def.Logging.MaxBackups),
			MaxAgeDays: env.getEnvInt("APIECHO_LOG_MAX_AGE", def.Logging.MaxAgeDays),
			Compress:   env.getEnvBool("APIECHO_LOG_COMPRESS", def.Logging.Compress),
		},
	}
	cfg.envErrs = env.errs

	return cfg
}

// Validate normalizes enum values and reports every invalid setting.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidAddress, c.Server.Address))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("%w: max connections %d", ErrInvalidLimit, c.Server.MaxConnections))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("%w: max body bytes %d", ErrInvalidLimit, c.Server.MaxBodyBytes))
	}

	for name, d := range map[string]time.Duration{
		"read":  c.Server.ReadTimeout,
		"write": c.Server.WriteTimeout,
		"idle":  c.Server.IdleTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%w: %s timeout %s", ErrInvalidTimeout, name, d))
		}
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: shutdown timeout %s", ErrInvalidTimeout, c.Server.ShutdownTimeout))
	}

	if strategy, err := openapi.ParseStrategy(string(c.Document.Strategy)); err != nil {
		errs = append(errs, err)
	} else {
		c.Document.Strategy = strategy
	}

	if mode, err := ParseSchemaMode(string(c.Document.SchemaMode)); err != nil {
		errs = append(errs, err)
	} else {
		c.Document.SchemaMode = mode
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// envReader reads APIECHO_* variables and collects parse failures.
type envReader struct {
	errs []error
}

func (e *envReader) fail(key, value string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnv, key, value, err))
}

func (e *envReader) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, err)
		return defaultValue
	}
	return n
}

func (e *envReader) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, value, err)
		return defaultValue
	}
	return b
}

func (e *envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, value, err)
		return defaultValue
	}
	return d
}

func (e *envReader) getEnvList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/towns-protocol/towns-sub022/compliance"
)

// Config is the environment surface of the towns-events tools. Command-line
// flags override these values.
type Config struct {
	// KeyDir is the key store directory; empty selects ~/.towns/keys.
	KeyDir string `env:"TOWNS_KEY_DIR"`
	// CASDirs are local event stores. Writes replicate to all of them and
	// reads fall back in order.
	CASDirs []string `env:"TOWNS_CAS_DIRS" envSeparator:","`
	// CASRemotes are EventStore gRPC endpoints, used after CASDirs.
	CASRemotes []string      `env:"TOWNS_CAS_REMOTES" envSeparator:","`
	RPCTimeout time.Duration `env:"TOWNS_RPC_TIMEOUT" envDefault:"10s"`

	// Listen is the towns-eventd listen address.
	Listen string `env:"TOWNS_LISTEN" envDefault:"127.0.0.1:7777"`

	LogLevel  slog.Level `env:"TOWNS_LOG_LEVEL" envDefault:"info"`
	LogFormat string     `env:"TOWNS_LOG_FORMAT" envDefault:"text"`

	Compliance compliance.Mode `env:"TOWNS_COMPLIANCE" envDefault:"permissive"`
	Output     string          `env:"TOWNS_OUTPUT" envDefault:"json"`

	// VerifyConcurrency bounds parallel signature checks; 0 means unbounded.
	VerifyConcurrency int `env:"TOWNS_VERIFY_CONCURRENCY" envDefault:"0"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Output {
	case "json", "yaml":
	default:
		return fmt.Errorf("config: TOWNS_OUTPUT must be json or yaml, got %q", c.Output)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: TOWNS_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.VerifyConcurrency < 0 {
		return fmt.Errorf("config: TOWNS_VERIFY_CONCURRENCY must not be negative")
	}
	if c.RPCTimeout < 0 {
		return fmt.Errorf("config: TOWNS_RPC_TIMEOUT must not be negative")
	}
	return nil
}

// NewLogger builds the process logger writing to w.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

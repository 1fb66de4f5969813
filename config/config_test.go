package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/towns-protocol/towns-sub022/compliance"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.Compliance != compliance.Permissive {
		t.Fatalf("expected permissive compliance, got %v", cfg.Compliance)
	}
	if cfg.Output != "json" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CASDirs) != 0 || len(cfg.CASRemotes) != 0 {
		t.Fatalf("expected no stores, got %v %v", cfg.CASDirs, cfg.CASRemotes)
	}
	if cfg.RPCTimeout != 10*time.Second || cfg.Listen != "127.0.0.1:7777" {
		t.Fatalf("unexpected rpc defaults: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOWNS_KEY_DIR", "/tmp/keys")
	t.Setenv("TOWNS_CAS_DIRS", "/tmp/a,/tmp/b")
	t.Setenv("TOWNS_LOG_LEVEL", "debug")
	t.Setenv("TOWNS_COMPLIANCE", "strict")
	t.Setenv("TOWNS_OUTPUT", "yaml")
	t.Setenv("TOWNS_VERIFY_CONCURRENCY", "4")
	t.Setenv("TOWNS_CAS_REMOTES", "store-1:7777,store-2:7777")
	t.Setenv("TOWNS_RPC_TIMEOUT", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeyDir != "/tmp/keys" {
		t.Fatalf("unexpected key dir %q", cfg.KeyDir)
	}
	if len(cfg.CASDirs) != 2 || cfg.CASDirs[1] != "/tmp/b" {
		t.Fatalf("unexpected CAS dirs %v", cfg.CASDirs)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("unexpected level %v", cfg.LogLevel)
	}
	if cfg.Compliance != compliance.Strict {
		t.Fatalf("unexpected compliance %v", cfg.Compliance)
	}
	if cfg.Output != "yaml" || cfg.VerifyConcurrency != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.CASRemotes) != 2 || cfg.CASRemotes[0] != "store-1:7777" || cfg.RPCTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected remote config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string][2]string{
		"bad compliance": {"TOWNS_COMPLIANCE", "lenient"},
		"bad output":     {"TOWNS_OUTPUT", "xml"},
		"bad level":      {"TOWNS_LOG_LEVEL", "loud"},
		"bad int":        {"TOWNS_VERIFY_CONCURRENCY", "many"},
		"negative":       {"TOWNS_VERIFY_CONCURRENCY", "-1"},
		"bad duration":   {"TOWNS_RPC_TIMEOUT", "soon"},
		"neg duration":   {"TOWNS_RPC_TIMEOUT", "-1s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseEnvErrorPrefix(t *testing.T) {
	t.Setenv("TOWNS_VERIFY_CONCURRENCY", "not-an-int")
	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo, "json").Info("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("expected JSON log line, got %q", buf.String())
	}

	buf.Reset()
	logger := NewLogger(&buf, slog.LevelWarn, "text")
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "msg=kept") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}

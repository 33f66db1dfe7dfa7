package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLLCHAIN_STORE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "pollchain" || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Store != StoreMemory || cfg.CommitAttempts != 5 || cfg.AuditInterval != time.Minute {
		t.Fatalf("unexpected ledger defaults %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.SlogLevel())
	}
}

func TestLoadReadsPrefixedValues(t *testing.T) {
	t.Setenv("POLLCHAIN_STORE", "SQLite")
	t.Setenv("POLLCHAIN_SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("POLLCHAIN_AUDIT_INTERVAL", "15s")
	t.Setenv("POLLCHAIN_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreSQLite || cfg.SQLitePath != "/tmp/ledger.db" || cfg.AuditInterval != 15*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":      {"POLLCHAIN_STORE": "redis"},
		"postgres needs dsn": {"POLLCHAIN_STORE": "postgres", "POLLCHAIN_POSTGRES_DSN": ""},
		"zero attempts":      {"POLLCHAIN_COMMIT_ATTEMPTS": "0"},
		"bad interval":       {"POLLCHAIN_AUDIT_INTERVAL": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for key, value := range vars {
				t.Setenv(key, value)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadParseErrorPrefix(t *testing.T) {
	t.Setenv("POLLCHAIN_COMMIT_ATTEMPTS", "many")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

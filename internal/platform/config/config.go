package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends the ledger can run on.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"pollchain"`
	HTTPPort       string        `env:"HTTP_PORT" envDefault:"8080"`
	Store          string        `env:"STORE" envDefault:"memory"`
	PostgresDSN    string        `env:"POSTGRES_DSN"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"pollchain.db"`
	ABCIAddr       string        `env:"ABCI_ADDR" envDefault:"tcp://127.0.0.1:26658"`
	CometRPCURL    string        `env:"COMET_RPC_URL" envDefault:"http://127.0.0.1:26657"`
	CommitAttempts int           `env:"COMMIT_ATTEMPTS" envDefault:"5"`
	AuditInterval  time.Duration `env:"AUDIT_INTERVAL" envDefault:"1m"`
	OTELEndpoint   string        `env:"OTEL_ENDPOINT"`
	OTELEnabled    bool          `env:"OTEL_ENABLED" envDefault:"true"`
	APIURL         string        `env:"API_URL" envDefault:"http://127.0.0.1:8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// ParseEnv fills target from environment variables carrying prefix.
func ParseEnv(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads POLLCHAIN_* variables and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg, "POLLCHAIN_"); err != nil {
		return Config{}, err
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return Config{}, fmt.Errorf("POLLCHAIN_POSTGRES_DSN is required for store %q", cfg.Store)
		}
	default:
		return Config{}, fmt.Errorf("unknown POLLCHAIN_STORE %q", cfg.Store)
	}
	if cfg.CommitAttempts <= 0 {
		return Config{}, fmt.Errorf("POLLCHAIN_COMMIT_ATTEMPTS must be positive, got %d", cfg.CommitAttempts)
	}
	if cfg.AuditInterval <= 0 {
		return Config{}, fmt.Errorf("POLLCHAIN_AUDIT_INTERVAL must be positive, got %s", cfg.AuditInterval)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel onto slog; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

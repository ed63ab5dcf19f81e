// Package config loads server configuration from the environment. The MCP
// host launches the server as a child process, so the environment is the
// natural configuration channel — there is no config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Driver names for the storage gateway.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the resolved server configuration.
type Config struct {
	// DBDriver selects the storage driver: "sqlite" (default) or "postgres".
	DBDriver string
	// DBPath is the sqlite database file (sqlite driver only).
	DBPath string
	// DBDSN is the postgres connection string (postgres driver only).
	DBDSN string
	// ReadOnly refuses every mutation; workspace creation fails too.
	ReadOnly bool
	// MetricsAddr, when non-empty, serves Prometheus metrics on this address.
	MetricsAddr string
	// Principal identifies the acting agent; workspaces are keyed by it.
	Principal string
}

// FromEnv reads configuration from TYPO3MCP_* variables, applying defaults
// for anything unset.
func FromEnv() (Config, error) {
	cfg := Config{
		DBDriver:    getenv("TYPO3MCP_DB_DRIVER", DriverSQLite),
		DBPath:      os.Getenv("TYPO3MCP_DB_PATH"),
		DBDSN:       os.Getenv("TYPO3MCP_DB_DSN"),
		MetricsAddr: os.Getenv("TYPO3MCP_METRICS_ADDR"),
		Principal:   getenv("TYPO3MCP_PRINCIPAL", "agent"),
	}

	if raw := os.Getenv("TYPO3MCP_READ_ONLY"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: TYPO3MCP_READ_ONLY: %w", err)
		}
		cfg.ReadOnly = v
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return Config{}, fmt.Errorf("config: resolving home dir: %w", err)
			}
			cfg.DBPath = filepath.Join(home, ".typo3-mcp", "content.db")
		}
	case DriverPostgres:
		if cfg.DBDSN == "" {
			return Config{}, fmt.Errorf("config: postgres driver requires TYPO3MCP_DB_DSN")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown db driver %q", cfg.DBDriver)
	}

	if cfg.Principal == "" {
		return Config{}, fmt.Errorf("config: TYPO3MCP_PRINCIPAL must not be empty")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config_test

import (
	"strings"
	"testing"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("TYPO3MCP_DB_DRIVER", "")
	t.Setenv("TYPO3MCP_DB_PATH", "")
	t.Setenv("TYPO3MCP_PRINCIPAL", "")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DBDriver != config.DriverSQLite {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath default missing")
	}
	if !strings.HasSuffix(cfg.DBPath, "content.db") {
		t.Errorf("DBPath = %q, want a content.db default", cfg.DBPath)
	}
	if cfg.Principal != "agent" {
		t.Errorf("Principal = %q, want agent", cfg.Principal)
	}
	if cfg.ReadOnly {
		t.Error("ReadOnly should default to false")
	}
}

func TestFromEnv_Postgres(t *testing.T) {
	t.Setenv("TYPO3MCP_DB_DRIVER", "postgres")
	t.Setenv("TYPO3MCP_DB_DSN", "postgres://localhost/content")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DBDriver != config.DriverPostgres {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.DBDSN != "postgres://localhost/content" {
		t.Errorf("DBDSN = %q", cfg.DBDSN)
	}
}

func TestFromEnv_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("TYPO3MCP_DB_DRIVER", "postgres")
	t.Setenv("TYPO3MCP_DB_DSN", "")

	if _, err := config.FromEnv(); err == nil {
		t.Fatal("expected error for postgres without DSN")
	}
}

func TestFromEnv_UnknownDriver(t *testing.T) {
	t.Setenv("TYPO3MCP_DB_DRIVER", "oracle")

	if _, err := config.FromEnv(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFromEnv_ReadOnly(t *testing.T) {
	t.Setenv("TYPO3MCP_DB_DRIVER", "")
	t.Setenv("TYPO3MCP_READ_ONLY", "true")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.ReadOnly {
		t.Error("ReadOnly = false, want true")
	}

	t.Setenv("TYPO3MCP_READ_ONLY", "not-a-bool")
	if _, err := config.FromEnv(); err == nil {
		t.Fatal("expected error for invalid TYPO3MCP_READ_ONLY")
	}
}

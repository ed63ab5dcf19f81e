// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the storage gateway, builds the
// catalog, gate, and repository, and registers the tools. No versioning
// logic lives here — only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/access"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/config"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage/postgres"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage/sqlite"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/tools"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// gateway is what the composition root needs beyond storage.Gateway.
type gateway interface {
	storage.Gateway
	EnsureSchema(ctx context.Context, tables []storage.TableSpec) error
	Close() error
}

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the storage gateway and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*server.MCPServer, func(), error) {
	gw, err := openGateway(ctx, cfg)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		if err := gw.Close(); err != nil {
			log.Warnw("closing storage gateway", "error", err)
		}
	}

	catalog := schema.Default()
	if cfg.ReadOnly {
		// A read-only server runs no DDL; the schema must already exist.
		log.Infow("read-only store, skipping schema creation")
	} else if err := gw.EnsureSchema(ctx, catalog.TableSpecs()); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("ensuring storage schema: %w", err)
	}

	gate := access.NewStaticGate(catalog, nil)
	repo := workspace.NewRepository(gw, catalog, gate, log)
	logStartupState(ctx, repo, cfg, log)

	s := server.NewMCPServer(
		"typo3-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions()),
	)

	readTool := tools.NewReadTool(repo, cfg.Principal, log)
	s.AddTool(readTool.Definition(), readTool.Handle)

	createTool := tools.NewCreateTool(repo, cfg.Principal, log)
	s.AddTool(createTool.Definition(), createTool.Handle)

	updateTool := tools.NewUpdateTool(repo, cfg.Principal, log)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	deleteTool := tools.NewDeleteTool(repo, cfg.Principal, log)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	embedTool := tools.NewEmbedTool(repo, cfg.Principal, log)
	s.AddTool(embedTool.Definition(), embedTool.Handle)

	schemaTool := tools.NewSchemaTool(catalog)
	s.AddTool(schemaTool.ListDefinition(), schemaTool.HandleList)
	s.AddTool(schemaTool.DescribeDefinition(), schemaTool.HandleDescribe)

	return s, cleanup, nil
}

func openGateway(ctx context.Context, cfg config.Config) (gateway, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		gw, err := sqlite.Open(cfg.DBPath, cfg.ReadOnly)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite gateway: %w", err)
		}
		return gw, nil
	case config.DriverPostgres:
		gw, err := postgres.Open(ctx, cfg.DBDSN, cfg.ReadOnly)
		if err != nil {
			return nil, fmt.Errorf("opening postgres gateway: %w", err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

func logStartupState(ctx context.Context, repo *workspace.Repository, cfg config.Config, log *zap.SugaredLogger) {
	workspaces, err := repo.Selector().List(ctx, cfg.Principal)
	if err != nil {
		log.Warnw("listing workspaces at startup", "error", err)
		return
	}
	log.Infow("content repository ready",
		"driver", cfg.DBDriver,
		"principal", cfg.Principal,
		"read_only", cfg.ReadOnly,
		"workspaces", len(workspaces),
	)
}

func instructions() string {
	return `This server exposes a content repository. Reads show the live
dataset with your pending workspace changes overlaid; every write goes into
your workspace and never touches live data. Records are addressed by a
stable 'uid' that survives updates. Use list_collections and
get_collection_schema to discover what you can work with.`
}

func noop() {}

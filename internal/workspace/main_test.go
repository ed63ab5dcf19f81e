package workspace_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/access"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/logging"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage/sqlite"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/stretchr/testify/require"
)

// newGateway opens a temp sqlite store with the default catalog's tables.
func newGateway(t *testing.T) *sqlite.Store {
	t.Helper()
	gw, err := sqlite.Open(filepath.Join(t.TempDir(), "content.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	require.NoError(t, gw.EnsureSchema(context.Background(), schema.Default().TableSpecs()))
	return gw
}

// newRepo builds a repository over a fresh gateway with the default catalog
// and an unrestricted gate.
func newRepo(t *testing.T) (*workspace.Repository, *sqlite.Store) {
	t.Helper()
	gw := newGateway(t)
	return repoOver(gw), gw
}

func repoOver(gw storage.Gateway) *workspace.Repository {
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, nil)
	return workspace.NewRepository(gw, catalog, gate, logging.Nop())
}

// seedLive inserts a live row directly, the way published content would
// exist before any agent touches it. Returns the row's physical id, which
// is also its logical id.
func seedLive(t *testing.T, gw storage.Gateway, collection string, attrs storage.Row) int64 {
	t.Helper()
	row := make(storage.Row, len(attrs)+3)
	for k, v := range attrs {
		row[k] = v
	}
	row[schema.ColumnOrigin] = int64(0)
	row[schema.ColumnWorkspace] = int64(0)
	row[schema.ColumnState] = int64(workspace.StateLive)
	id, err := gw.Insert(context.Background(), collection, row)
	require.NoError(t, err)
	return id
}

// seedVersion inserts a version row with explicit control fields.
func seedVersion(t *testing.T, gw storage.Gateway, collection string, attrs storage.Row, origin, wsID int64, state workspace.VersionState) int64 {
	t.Helper()
	row := make(storage.Row, len(attrs)+3)
	for k, v := range attrs {
		row[k] = v
	}
	row[schema.ColumnOrigin] = origin
	row[schema.ColumnWorkspace] = wsID
	row[schema.ColumnState] = int64(state)
	id, err := gw.Insert(context.Background(), collection, row)
	require.NoError(t, err)
	return id
}

// errInjected is what failingGateway raises.
var errInjected = errors.New("injected storage failure")

// failingGateway wraps a gateway and fails Update calls on one table,
// inside and outside transactions, to exercise rollback paths.
type failingGateway struct {
	storage.Gateway
	failUpdateOn string
}

func (g *failingGateway) Update(ctx context.Context, table string, id int64, patch storage.Row) error {
	if table == g.failUpdateOn {
		return errInjected
	}
	return g.Gateway.Update(ctx, table, id, patch)
}

func (g *failingGateway) InTx(ctx context.Context, fn func(storage.Gateway) error) error {
	return g.Gateway.InTx(ctx, func(tx storage.Gateway) error {
		return fn(&failingGateway{Gateway: tx, failUpdateOn: g.failUpdateOn})
	})
}

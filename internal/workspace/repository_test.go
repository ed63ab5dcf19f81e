package workspace_test

import (
	"context"
	"testing"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/access"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/logging"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CreateThenRead(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	uid, err := repo.Create(ctx, "alice", "news", storage.Row{"title": "Launch"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)

	recs, err := repo.Read(ctx, "alice", "news", []int64{uid}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, uid, recs[0].UID)
	assert.Equal(t, "Launch", recs[0].Attributes["title"])
}

func TestRepository_ReadWithoutWorkspaceSeesLiveOnly(t *testing.T) {
	repo, gw := newRepo(t)
	ctx := context.Background()

	live := seedLive(t, gw, "pages", storage.Row{"title": "Home"})

	recs, err := repo.Read(ctx, "alice", "pages", nil, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, live, recs[0].UID)

	// A read must not create a workspace as a side effect.
	_, ok, err := repo.Selector().Current(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_UpdateIsolatedPerPrincipal(t *testing.T) {
	repo, gw := newRepo(t)
	ctx := context.Background()

	live := seedLive(t, gw, "pages", storage.Row{"title": "Original"})

	require.NoError(t, repo.Update(ctx, "alice", "pages", live, storage.Row{"title": "New"}))

	aliceView, err := repo.Read(ctx, "alice", "pages", []int64{live}, 0)
	require.NoError(t, err)
	assert.Equal(t, "New", aliceView[0].Attributes["title"])

	bobView, err := repo.Read(ctx, "bob", "pages", []int64{live}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Original", bobView[0].Attributes["title"],
		"another principal must see the unchanged record")
}

func TestRepository_LogicalIDStableAcrossUpdates(t *testing.T) {
	repo, gw := newRepo(t)
	ctx := context.Background()

	live := seedLive(t, gw, "pages", storage.Row{"title": "One"})

	require.NoError(t, repo.Update(ctx, "alice", "pages", live, storage.Row{"title": "Two"}))
	require.NoError(t, repo.Update(ctx, "alice", "pages", live, storage.Row{"title": "Three"}))

	recs, err := repo.Read(ctx, "alice", "pages", []int64{live}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, live, recs[0].UID)
	assert.Equal(t, "Three", recs[0].Attributes["title"])
}

func TestRepository_DeleteTransparency(t *testing.T) {
	repo, gw := newRepo(t)
	ctx := context.Background()

	live := seedLive(t, gw, "pages", storage.Row{"title": "Gone"})
	other := seedLive(t, gw, "pages", storage.Row{"title": "Stays"})

	require.NoError(t, repo.Delete(ctx, "alice", "pages", live))

	byID, err := repo.Read(ctx, "alice", "pages", []int64{live}, 0)
	require.NoError(t, err)
	assert.Empty(t, byID, "deleted record absent from point lookups")

	all, err := repo.Read(ctx, "alice", "pages", nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other, all[0].UID, "deleted record absent from listings")

	// The live row physically survives for everyone else.
	bobView, err := repo.Read(ctx, "bob", "pages", []int64{live}, 0)
	require.NoError(t, err)
	assert.Len(t, bobView, 1)
}

func TestRepository_CreateWithChildren_ReadShowsChildren(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	uid, err := repo.CreateWithChildren(ctx, "alice", "news", storage.Row{"title": "X"}, "links",
		[]storage.Row{{"uri": "a"}, {"uri": "b"}})
	require.NoError(t, err)

	recs, err := repo.Read(ctx, "alice", "news", []int64{uid}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	children, ok := recs[0].Attributes["links"].([]workspace.Record)
	require.True(t, ok, "embed field must inline child records, got %T", recs[0].Attributes["links"])
	require.Len(t, children, 2)
	for _, child := range children {
		assert.Equal(t, uid, child.Attributes["parent"], "children point at the parent's uid")
	}
	uris := []any{children[0].Attributes["uri"], children[1].Attributes["uri"]}
	assert.ElementsMatch(t, []any{"a", "b"}, uris)
}

func TestRepository_EmbeddedChildAtomicity(t *testing.T) {
	gw := newGateway(t)
	failing := &failingGateway{Gateway: gw, failUpdateOn: "news_links"}
	repo := repoOver(failing)
	ctx := context.Background()

	_, err := repo.CreateWithChildren(ctx, "alice", "news", storage.Row{"title": "X"}, "links",
		[]storage.Row{{"uri": "a"}})
	require.Error(t, err)

	recs, err := repo.Read(ctx, "alice", "news", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, recs, "neither parent nor children survive a failed link step")
}

func TestRepository_WritesShareOneWorkspace(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "pages", storage.Row{"title": "A"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice", "pages", storage.Row{"title": "B"})
	require.NoError(t, err)

	list, err := repo.Selector().List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1, "repeated writes reuse the principal's workspace")
}

func TestRepository_AccessDenied(t *testing.T) {
	gw := newGateway(t)
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, map[string]access.Policy{
		"pages": {DenyOps: []workspace.Operation{workspace.OpDelete}},
	})
	repo := workspace.NewRepository(gw, catalog, gate, logging.Nop())
	ctx := context.Background()

	live := seedLive(t, gw, "pages", storage.Row{"title": "Home"})

	err := repo.Delete(ctx, "alice", "pages", live)
	assert.True(t, workspace.IsKind(err, workspace.KindAccessDenied), "got %v", err)

	// Denied before storage is touched: no workspace was created.
	_, ok, err := repo.Selector().Current(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_HiddenAttributesOmittedFromReads(t *testing.T) {
	gw := newGateway(t)
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, map[string]access.Policy{
		"pages": {HiddenAttributes: []string{"slug"}},
	})
	repo := workspace.NewRepository(gw, catalog, gate, logging.Nop())
	ctx := context.Background()

	live := seedLive(t, gw, "pages", storage.Row{"title": "Home", "slug": "/home"})

	recs, err := repo.Read(ctx, "alice", "pages", []int64{live}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Home", recs[0].Attributes["title"])
	_, present := recs[0].Attributes["slug"]
	assert.False(t, present, "hidden attribute must not appear in results")
}

func TestRepository_ChildCreateDeniedThroughParent(t *testing.T) {
	gw := newGateway(t)
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, map[string]access.Policy{
		"news_links": {DenyOps: []workspace.Operation{workspace.OpCreate}},
	})
	repo := workspace.NewRepository(gw, catalog, gate, logging.Nop())
	ctx := context.Background()

	_, err := repo.CreateWithChildren(ctx, "alice", "news", storage.Row{"title": "X"}, "links",
		[]storage.Row{{"uri": "a"}})
	assert.True(t, workspace.IsKind(err, workspace.KindAccessDenied),
		"a child-collection create denial must stop the whole operation, got %v", err)

	// Denied before storage is touched: no parent row and no workspace.
	recs, err := repo.Read(ctx, "alice", "news", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
	_, ok, err := repo.Selector().Current(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_ChildGateWritableNarrowsChildren(t *testing.T) {
	gw := newGateway(t)
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, map[string]access.Policy{
		"news_links": {FrozenAttributes: []string{"uri"}},
	})
	repo := workspace.NewRepository(gw, catalog, gate, logging.Nop())

	_, err := repo.CreateWithChildren(context.Background(), "alice", "news",
		storage.Row{"title": "X"}, "links", []storage.Row{{"uri": "a"}})
	assert.True(t, workspace.IsKind(err, workspace.KindFieldRejected), "got %v", err)
}

func TestRepository_ChildHiddenAttributesOmittedFromInlineReads(t *testing.T) {
	gw := newGateway(t)
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, map[string]access.Policy{
		"news_links": {HiddenAttributes: []string{"uri"}},
	})
	repo := workspace.NewRepository(gw, catalog, gate, logging.Nop())
	ctx := context.Background()

	uid, err := repo.CreateWithChildren(ctx, "alice", "news", storage.Row{"title": "X"}, "links",
		[]storage.Row{{"uri": "a", "title": "Link"}})
	require.NoError(t, err)

	recs, err := repo.Read(ctx, "alice", "news", []int64{uid}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	children, ok := recs[0].Attributes["links"].([]workspace.Record)
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, "Link", children[0].Attributes["title"])
	_, present := children[0].Attributes["uri"]
	assert.False(t, present, "hidden child attribute must not leak through the inline read")
}

func TestRepository_ChildReadDeniedHidesEmbedField(t *testing.T) {
	gw := newGateway(t)
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, map[string]access.Policy{
		"news_links": {DenyOps: []workspace.Operation{workspace.OpRead}},
	})
	repo := workspace.NewRepository(gw, catalog, gate, logging.Nop())
	ctx := context.Background()

	uid, err := repo.CreateWithChildren(ctx, "alice", "news", storage.Row{"title": "X"}, "links",
		[]storage.Row{{"uri": "a"}})
	require.NoError(t, err)

	recs, err := repo.Read(ctx, "alice", "news", []int64{uid}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	_, present := recs[0].Attributes["links"]
	assert.False(t, present, "an unreadable child collection removes the embed field entirely")
}

func TestRepository_GateWritableNarrowsWrites(t *testing.T) {
	gw := newGateway(t)
	catalog := schema.Default()
	gate := access.NewStaticGate(catalog, map[string]access.Policy{
		"pages": {FrozenAttributes: []string{"slug"}},
	})
	repo := workspace.NewRepository(gw, catalog, gate, logging.Nop())

	_, err := repo.Create(context.Background(), "alice", "pages", storage.Row{"slug": "/x"})
	assert.True(t, workspace.IsKind(err, workspace.KindFieldRejected), "got %v", err)
}

func TestRepository_ReadLimit(t *testing.T) {
	repo, gw := newRepo(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		seedLive(t, gw, "pages", storage.Row{"title": title})
	}

	recs, err := repo.Read(ctx, "alice", "pages", nil, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRepository_UnknownCollection(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.Read(context.Background(), "alice", "bogus", nil, 0)
	assert.True(t, workspace.IsKind(err, workspace.KindUnknownCollection))
}

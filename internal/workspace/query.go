package workspace

import (
	"context"
	"sort"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

// QueryBuilder builds the storage predicate that implements overlay
// semantics for list reads: live rows plus the active workspace's rows,
// minus tombstoned records, with workspace rows sorting first so callers
// can dedupe by logical id keeping the first occurrence.
type QueryBuilder struct {
	catalog *schema.Catalog
}

// NewQueryBuilder builds a query builder over the given catalog.
func NewQueryBuilder(catalog *schema.Catalog) *QueryBuilder {
	return &QueryBuilder{catalog: catalog}
}

// BuildPredicate returns the predicate and ordering for reading collection
// under wsID. When logicalIDs are given the result is restricted to those
// records; the match must cover both the origin column (workspace copies)
// and the raw physical id (live and StateNew rows) — matching only one of
// the two silently drops the other case.
//
// The tombstone set is resolved with its own query first: records deleted
// in the workspace must disappear even though their live rows still exist,
// which a plain "live OR workspace" predicate would resurrect.
func (q *QueryBuilder) BuildPredicate(ctx context.Context, gw storage.Gateway, collection string, wsID int64, logicalIDs ...int64) (storage.Predicate, []storage.Order, error) {
	if _, ok := q.catalog.Lookup(collection); !ok {
		return nil, nil, Errf(KindUnknownCollection, "collection %q is not registered", collection)
	}

	preds := []storage.Predicate{
		storage.In{Column: schema.ColumnWorkspace, Values: []any{int64(0), wsID}},
		// Tombstones and move pointers are filtering-only rows.
		storage.NotIn{Column: schema.ColumnState, Values: []any{
			int64(StateTombstone), int64(StateMovePointer),
		}},
	}

	if wsID != 0 {
		tombstoned, err := q.tombstonedIDs(ctx, gw, collection, wsID)
		if err != nil {
			return nil, nil, err
		}
		if len(tombstoned) > 0 {
			set := storage.Int64s(tombstoned)
			preds = append(preds,
				storage.NotIn{Column: schema.ColumnOrigin, Values: set},
				storage.NotIn{Column: schema.ColumnID, Values: set},
			)
		}
	}

	if len(logicalIDs) > 0 {
		set := storage.Int64s(logicalIDs)
		preds = append(preds, storage.Or{Preds: []storage.Predicate{
			storage.In{Column: schema.ColumnOrigin, Values: set},
			storage.In{Column: schema.ColumnID, Values: set},
		}})
	}

	order := []storage.Order{
		// Workspace rows (wsid > 0) before live rows (wsid = 0).
		{Column: schema.ColumnWorkspace, Desc: true},
		{Column: schema.ColumnID, Desc: false},
	}
	return storage.And{Preds: preds}, order, nil
}

// tombstonedIDs returns the logical ids deleted within wsID.
func (q *QueryBuilder) tombstonedIDs(ctx context.Context, gw storage.Gateway, collection string, wsID int64) ([]int64, error) {
	rows, err := gw.Select(ctx, collection,
		storage.And{Preds: []storage.Predicate{
			storage.Eq{Column: schema.ColumnWorkspace, Value: wsID},
			storage.Eq{Column: schema.ColumnState, Value: int64(StateTombstone)},
		}}, nil, 0)
	if err != nil {
		return nil, wrap(KindWriteFailed, err, "loading tombstones of %s", collection)
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, versionFromRow(row).LogicalID())
	}
	return ids, nil
}

// DedupeByLogicalID collapses an overlay result set to one version per
// logical record. versions must already be ordered workspace-first (the
// ordering BuildPredicate prescribes); the first occurrence wins, so a
// workspace version shadows its live row. The result is sorted by logical
// id for stable output.
func DedupeByLogicalID(versions []Version) []Version {
	seen := make(map[int64]struct{}, len(versions))
	out := make([]Version, 0, len(versions))
	for _, v := range versions {
		lid := v.LogicalID()
		if _, dup := seen[lid]; dup {
			continue
		}
		seen[lid] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogicalID() < out[j].LogicalID() })
	return out
}

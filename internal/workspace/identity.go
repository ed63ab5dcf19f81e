package workspace

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

// Identity translates between logical ids (stable, caller-visible) and
// physical ids (row- and version-specific). Everything above this layer
// works purely in logical ids.
type Identity struct {
	catalog *schema.Catalog
}

// NewIdentity builds a resolver over the given catalog.
func NewIdentity(catalog *schema.Catalog) *Identity {
	return &Identity{catalog: catalog}
}

// versionsFor loads every physical version of the logical record that is
// visible from wsID: the live row plus any rows belonging to the workspace.
// Workspace rows sort first. The logical id is matched against both the
// origin column (workspace copies of a live row) and the raw physical id
// (live rows and StateNew rows).
func (r *Identity) versionsFor(ctx context.Context, gw storage.Gateway, collection string, logicalID, wsID int64) ([]Version, error) {
	if _, ok := r.catalog.Lookup(collection); !ok {
		return nil, Errf(KindUnknownCollection, "collection %q is not registered", collection)
	}
	rows, err := gw.Select(ctx, collection,
		storage.And{Preds: []storage.Predicate{
			storage.Or{Preds: []storage.Predicate{
				storage.Eq{Column: schema.ColumnOrigin, Value: logicalID},
				storage.Eq{Column: schema.ColumnID, Value: logicalID},
			}},
			storage.In{Column: schema.ColumnWorkspace, Values: []any{int64(0), wsID}},
		}},
		[]storage.Order{
			{Column: schema.ColumnWorkspace, Desc: true},
			{Column: schema.ColumnID, Desc: false},
		}, 0)
	if err != nil {
		return nil, wrap(KindWriteFailed, err, "loading versions of %s/%d", collection, logicalID)
	}
	out := make([]Version, 0, len(rows))
	for _, row := range rows {
		out = append(out, versionFromRow(row))
	}
	return out, nil
}

// effective picks the single version of a logical record that wsID sees:
// the workspace's content version if one exists, nothing if the workspace
// tombstoned the record, otherwise the live row.
func effective(versions []Version, wsID int64) (Version, bool) {
	if wsID != 0 {
		for _, v := range versions {
			if v.WorkspaceID != wsID {
				continue
			}
			switch v.State {
			case StateModified, StateNew:
				return v, true
			case StateTombstone:
				// Deleted in this workspace; the live row is hidden too.
				return Version{}, false
			case StateMovePointer:
				// Placement marker, not content.
				continue
			case StateLive:
				// A live-state row inside a workspace is malformed; skip it.
				continue
			}
		}
	}
	for _, v := range versions {
		if v.WorkspaceID == 0 && v.State == StateLive {
			return v, true
		}
	}
	return Version{}, false
}

// ResolveForRead returns the effective version of the logical record, or a
// not-found error if no version is reachable or the record is tombstoned
// in the workspace.
func (r *Identity) ResolveForRead(ctx context.Context, gw storage.Gateway, collection string, logicalID, wsID int64) (Version, error) {
	versions, err := r.versionsFor(ctx, gw, collection, logicalID, wsID)
	if err != nil {
		return Version{}, err
	}
	v, ok := effective(versions, wsID)
	if !ok {
		return Version{}, Errf(KindNotFound, "record %s/%d not found", collection, logicalID)
	}
	return v, nil
}

// ResolveForWrite returns the workspace version of the logical record,
// copying the live row into the workspace first when no workspace version
// exists yet (copy-on-write). The live row is never mutated.
func (r *Identity) ResolveForWrite(ctx context.Context, gw storage.Gateway, collection string, logicalID, wsID int64) (Version, error) {
	v, err := r.ResolveForRead(ctx, gw, collection, logicalID, wsID)
	if err != nil {
		return Version{}, err
	}
	if v.WorkspaceID == wsID {
		return v, nil
	}

	// Effective version is the live row: materialize a workspace copy.
	row := make(storage.Row, len(v.Attributes)+3)
	for name, val := range v.Attributes {
		row[name] = val
	}
	row[schema.ColumnOrigin] = v.ID
	row[schema.ColumnWorkspace] = wsID
	row[schema.ColumnState] = int64(StateModified)

	id, err := gw.Insert(ctx, collection, row)
	if err != nil {
		return Version{}, wrap(KindWriteFailed, err, "creating workspace copy of %s/%d", collection, logicalID)
	}
	return Version{
		ID:          id,
		Origin:      v.ID,
		WorkspaceID: wsID,
		State:       StateModified,
		Attributes:  v.Attributes,
	}, nil
}

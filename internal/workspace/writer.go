package workspace

import (
	"context"
	"errors"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

// Writer routes create/update/delete requests into a workspace. Live rows
// and other workspaces' rows are never mutated; each operation runs inside
// a single storage transaction and reports only logical ids back.
type Writer struct {
	gw       storage.Gateway
	catalog  *schema.Catalog
	identity *Identity
}

// NewWriter builds a write router over the given gateway and catalog.
func NewWriter(gw storage.Gateway, catalog *schema.Catalog) *Writer {
	return &Writer{gw: gw, catalog: catalog, identity: NewIdentity(catalog)}
}

// sanitizeAttrs validates caller-supplied data against the collection:
// control columns, structural links, embed counters, and undeclared
// attributes are all rejected — those fields are owned by the router.
func sanitizeAttrs(col schema.Collection, data storage.Row) (storage.Row, error) {
	out := make(storage.Row, len(data))
	for name, val := range data {
		if schema.IsControlColumn(name) {
			return nil, Errf(KindFieldRejected, "field %q is a version-control field and cannot be set", name)
		}
		attr, ok := col.Attribute(name)
		if !ok {
			return nil, Errf(KindFieldRejected, "field %q is not a writable attribute of %q", name, col.Name)
		}
		if attr.Structural {
			return nil, Errf(KindFieldRejected, "field %q links the record to its parent and cannot be set directly", name)
		}
		if attr.Type == schema.TypeEmbed {
			return nil, Errf(KindFieldRejected, "field %q embeds child records and cannot be set directly", name)
		}
		out[name] = val
	}
	return out, nil
}

// Create inserts a new record into the workspace. The new row has no live
// counterpart, so its physical id is promoted to be its logical id.
func (w *Writer) Create(ctx context.Context, wsID int64, collection string, data storage.Row) (int64, error) {
	var id int64
	err := w.gw.InTx(ctx, func(tx storage.Gateway) error {
		var err error
		id, err = w.createIn(ctx, tx, wsID, collection, data)
		return err
	})
	if err != nil {
		return 0, classify(err, "create %s", collection)
	}
	return id, nil
}

// createIn is Create inside an already-open transaction; the embed
// reconciler shares it.
func (w *Writer) createIn(ctx context.Context, tx storage.Gateway, wsID int64, collection string, data storage.Row) (int64, error) {
	col, ok := w.catalog.Lookup(collection)
	if !ok {
		return 0, Errf(KindUnknownCollection, "collection %q is not registered", collection)
	}
	attrs, err := sanitizeAttrs(col, data)
	if err != nil {
		return 0, err
	}
	attrs[schema.ColumnOrigin] = int64(0)
	attrs[schema.ColumnWorkspace] = wsID
	attrs[schema.ColumnState] = int64(StateNew)

	id, err := tx.Insert(ctx, collection, attrs)
	if err != nil {
		return 0, wrap(KindWriteFailed, err, "inserting into %s", collection)
	}
	return id, nil
}

// Update applies patch to the workspace version of the record, creating the
// workspace copy first if the record only exists live.
func (w *Writer) Update(ctx context.Context, wsID int64, collection string, logicalID int64, patch storage.Row) error {
	col, ok := w.catalog.Lookup(collection)
	if !ok {
		return Errf(KindUnknownCollection, "collection %q is not registered", collection)
	}
	attrs, err := sanitizeAttrs(col, patch)
	if err != nil {
		return err
	}
	err = w.gw.InTx(ctx, func(tx storage.Gateway) error {
		v, err := w.identity.ResolveForWrite(ctx, tx, collection, logicalID, wsID)
		if err != nil {
			return err
		}
		if len(attrs) == 0 {
			return nil
		}
		if err := tx.Update(ctx, collection, v.ID, attrs); err != nil {
			return wrap(KindWriteFailed, err, "updating %s/%d", collection, logicalID)
		}
		return nil
	})
	return classify(err, "update %s/%d", collection, logicalID)
}

// Delete removes the record from the workspace's view. A never-published
// StateNew row is removed outright; otherwise a tombstone version hides the
// live row, which itself stays untouched.
func (w *Writer) Delete(ctx context.Context, wsID int64, collection string, logicalID int64) error {
	err := w.gw.InTx(ctx, func(tx storage.Gateway) error {
		versions, err := w.identity.versionsFor(ctx, tx, collection, logicalID, wsID)
		if err != nil {
			return err
		}

		var draft, live *Version
		for i := range versions {
			v := &versions[i]
			switch {
			case v.WorkspaceID == wsID && wsID != 0 && v.State != StateMovePointer:
				draft = v
			case v.WorkspaceID == 0 && v.State == StateLive:
				live = v
			}
		}

		switch {
		case draft != nil && draft.State == StateTombstone:
			// Already deleted in this workspace.
			return Errf(KindNotFound, "record %s/%d not found", collection, logicalID)

		case draft != nil && draft.State == StateNew:
			// Never published: nothing to leave a tombstone for.
			if err := tx.Delete(ctx, collection, draft.ID); err != nil {
				return wrap(KindWriteFailed, err, "removing unpublished %s/%d", collection, logicalID)
			}
			return nil

		case draft != nil && draft.State == StateModified:
			// Convert the pending edit into the tombstone.
			patch := storage.Row{schema.ColumnState: int64(StateTombstone)}
			if err := tx.Update(ctx, collection, draft.ID, patch); err != nil {
				return wrap(KindWriteFailed, err, "tombstoning %s/%d", collection, logicalID)
			}
			return nil

		case live != nil:
			row := make(storage.Row, len(live.Attributes)+3)
			for name, val := range live.Attributes {
				row[name] = val
			}
			row[schema.ColumnOrigin] = live.ID
			row[schema.ColumnWorkspace] = wsID
			row[schema.ColumnState] = int64(StateTombstone)
			if _, err := tx.Insert(ctx, collection, row); err != nil {
				return wrap(KindWriteFailed, err, "tombstoning %s/%d", collection, logicalID)
			}
			return nil

		default:
			return Errf(KindNotFound, "record %s/%d not found", collection, logicalID)
		}
	})
	return classify(err, "delete %s/%d", collection, logicalID)
}

// classify maps storage-level failures onto the error taxonomy. Already
// classified errors pass through unchanged; raw storage messages stay in
// the wrapped cause and never become the caller-visible message.
func classify(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, storage.ErrReadOnly) {
		return Errf(KindWriteFailed, "store is read-only")
	}
	return wrap(KindWriteFailed, err, format, args...)
}

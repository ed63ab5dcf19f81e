package workspace

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

// EmbedWriter creates a parent record together with a batch of embedded
// child records. The child's parent-link field is deliberately not part of
// its writable attribute set, so the generic write path cannot set it; this
// reconciler is the one explicit escape hatch that patches the link field
// directly on each child's workspace row after all children exist.
type EmbedWriter struct {
	gw      storage.Gateway
	catalog *schema.Catalog
	writer  *Writer
}

// NewEmbedWriter builds a reconciler sharing the given writer's gateway.
func NewEmbedWriter(gw storage.Gateway, catalog *schema.Catalog, writer *Writer) *EmbedWriter {
	return &EmbedWriter{gw: gw, catalog: catalog, writer: writer}
}

// CreateWithChildren creates the parent, creates every child without its
// link field, then links each child to the parent's logical id. One
// transaction covers the whole sequence: a failure at any step leaves
// neither the parent nor any child behind.
func (e *EmbedWriter) CreateWithChildren(ctx context.Context, wsID int64, collection string, data storage.Row, childField string, children []storage.Row) (int64, error) {
	col, ok := e.catalog.Lookup(collection)
	if !ok {
		return 0, Errf(KindUnknownCollection, "collection %q is not registered", collection)
	}
	attr, ok := col.Attribute(childField)
	if !ok || attr.Type != schema.TypeEmbed {
		return 0, Errf(KindFieldRejected, "field %q of %q does not embed child records", childField, collection)
	}
	childCol, ok := e.catalog.Lookup(attr.ChildCollection)
	if !ok {
		return 0, Errf(KindUnknownCollection, "child collection %q is not registered", attr.ChildCollection)
	}
	link, ok := childCol.ParentLink()
	if !ok {
		return 0, Errf(KindFieldRejected, "collection %q has no parent link field", childCol.Name)
	}

	var parentID int64
	err := e.gw.InTx(ctx, func(tx storage.Gateway) error {
		var err error
		parentID, err = e.writer.createIn(ctx, tx, wsID, collection, data)
		if err != nil {
			return err
		}

		childIDs := make([]int64, 0, len(children))
		for _, childData := range children {
			id, err := e.writer.createIn(ctx, tx, wsID, childCol.Name, childData)
			if err != nil {
				return err
			}
			childIDs = append(childIDs, id)
		}

		// All children exist; patch the structural link on their rows.
		// StateNew rows have physical id == logical id, so the child ids
		// returned above address the rows directly.
		for _, childID := range childIDs {
			patch := storage.Row{link.Name: parentID}
			if err := tx.Update(ctx, childCol.Name, childID, patch); err != nil {
				return wrap(KindWriteFailed, err, "linking %s/%d to %s/%d", childCol.Name, childID, collection, parentID)
			}
		}

		// The parent's embed field carries the child count.
		patch := storage.Row{childField: int64(len(children))}
		if err := tx.Update(ctx, collection, parentID, patch); err != nil {
			return wrap(KindWriteFailed, err, "recording child count on %s/%d", collection, parentID)
		}
		return nil
	})
	if err != nil {
		return 0, classify(err, "create %s with %s", collection, childField)
	}
	return parentID, nil
}

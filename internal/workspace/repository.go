package workspace

import (
	"context"
	"time"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/metrics"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
	"go.uber.org/zap"
)

// Operation names a repository operation for access checks and metrics.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// AttributeSet is the per-operation attribute visibility the access gate
// grants: which attributes may appear in results and which may be written.
type AttributeSet struct {
	Readable []string
	Writable []string
}

// AccessGate decides whether a principal may run an operation against a
// collection. A denial is returned as an error carrying KindAccessDenied
// and is surfaced to the caller unchanged, before storage is touched.
type AccessGate interface {
	Check(principal, collection string, op Operation) (AttributeSet, error)
}

// Record is one logical record as callers see it: the stable logical id
// plus the readable attributes. Embedded children are inlined under their
// embed field's name.
type Record struct {
	UID        int64          `json:"uid"`
	Attributes map[string]any `json:"attributes"`
}

// Repository is the surface the dispatch layer calls. It glues the
// selector, identity resolver, query builder, write router, and embed
// reconciler together and hands out logical ids only.
type Repository struct {
	gw       storage.Gateway
	catalog  *schema.Catalog
	gate     AccessGate
	selector *Selector
	identity *Identity
	query    *QueryBuilder
	writer   *Writer
	embed    *EmbedWriter
	log      *zap.SugaredLogger
}

// NewRepository wires a repository over the given gateway, catalog, and
// access gate.
func NewRepository(gw storage.Gateway, catalog *schema.Catalog, gate AccessGate, log *zap.SugaredLogger) *Repository {
	writer := NewWriter(gw, catalog)
	return &Repository{
		gw:       gw,
		catalog:  catalog,
		gate:     gate,
		selector: NewSelector(gw),
		identity: NewIdentity(catalog),
		query:    NewQueryBuilder(catalog),
		writer:   writer,
		embed:    NewEmbedWriter(gw, catalog, writer),
		log:      log,
	}
}

// Selector exposes the workspace selector, mainly for the startup status
// log and tests.
func (r *Repository) Selector() *Selector { return r.selector }

// Read returns the records of collection visible to principal. When
// logicalIDs are given only those records are returned; otherwise the whole
// collection is listed. limit truncates the deduplicated result, 0 means
// no limit. Reads never create a workspace: a principal without one sees
// the live dataset.
func (r *Repository) Read(ctx context.Context, principal, collection string, logicalIDs []int64, limit int) (recs []Record, err error) {
	defer r.observe(OpRead, collection, time.Now(), &err)

	grant, err := r.gate.Check(principal, collection, OpRead)
	if err != nil {
		return nil, err
	}
	wsID, _, err := r.selector.Current(ctx, principal)
	if err != nil {
		return nil, err
	}

	versions, err := r.selectVersions(ctx, collection, wsID, logicalIDs...)
	if err != nil {
		return nil, err
	}
	versions = DedupeByLogicalID(versions)
	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}

	col, _ := r.catalog.Lookup(collection)
	readable := toSet(grant.Readable)

	recs = make([]Record, 0, len(versions))
	for _, v := range versions {
		rec := Record{UID: v.LogicalID(), Attributes: make(map[string]any, len(v.Attributes))}
		for _, name := range col.ReadableNames() {
			if _, ok := readable[name]; !ok {
				continue
			}
			rec.Attributes[name] = v.Attributes[name]
		}
		if err := r.inlineChildren(ctx, principal, col, wsID, &rec, readable); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// selectVersions runs the overlay query and maps rows to versions.
func (r *Repository) selectVersions(ctx context.Context, collection string, wsID int64, logicalIDs ...int64) ([]Version, error) {
	pred, order, err := r.query.BuildPredicate(ctx, r.gw, collection, wsID, logicalIDs...)
	if err != nil {
		return nil, err
	}
	rows, err := r.gw.Select(ctx, collection, pred, order, 0)
	if err != nil {
		return nil, wrap(KindWriteFailed, err, "reading %s", collection)
	}
	versions := make([]Version, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, versionFromRow(row))
	}
	return versions, nil
}

// inlineChildren replaces each readable embed field's child count with the
// embedded child records themselves. The child collection has its own gate
// grant: a denied child read removes the embed field from the result, and
// hidden child attributes are filtered the same way parent attributes are.
func (r *Repository) inlineChildren(ctx context.Context, principal string, col schema.Collection, wsID int64, rec *Record, readable map[string]struct{}) error {
	for _, embed := range col.EmbedFields() {
		if _, ok := readable[embed.Name]; !ok {
			continue
		}
		childGrant, err := r.gate.Check(principal, embed.ChildCollection, OpRead)
		if err != nil {
			if IsKind(err, KindAccessDenied) {
				delete(rec.Attributes, embed.Name)
				continue
			}
			return err
		}
		childReadable := toSet(childGrant.Readable)
		childCol, _ := r.catalog.Lookup(embed.ChildCollection)
		link, _ := childCol.ParentLink()

		pred, order, err := r.query.BuildPredicate(ctx, r.gw, childCol.Name, wsID)
		if err != nil {
			return err
		}
		pred = storage.And{Preds: []storage.Predicate{
			pred,
			storage.Eq{Column: link.Name, Value: rec.UID},
		}}
		rows, err := r.gw.Select(ctx, childCol.Name, pred, order, 0)
		if err != nil {
			return wrap(KindWriteFailed, err, "reading %s children", childCol.Name)
		}

		versions := make([]Version, 0, len(rows))
		for _, row := range rows {
			versions = append(versions, versionFromRow(row))
		}
		children := make([]Record, 0, len(versions))
		for _, v := range DedupeByLogicalID(versions) {
			child := Record{UID: v.LogicalID(), Attributes: make(map[string]any, len(v.Attributes))}
			for _, name := range childCol.ReadableNames() {
				if _, ok := childReadable[name]; !ok {
					continue
				}
				child.Attributes[name] = v.Attributes[name]
			}
			children = append(children, child)
		}
		rec.Attributes[embed.Name] = children
	}
	return nil
}

// Create inserts a new record and returns its logical id.
func (r *Repository) Create(ctx context.Context, principal, collection string, data storage.Row) (uid int64, err error) {
	defer r.observe(OpCreate, collection, time.Now(), &err)

	grant, err := r.gate.Check(principal, collection, OpCreate)
	if err != nil {
		return 0, err
	}
	if err := checkWritable(grant, data); err != nil {
		return 0, err
	}
	wsID, err := r.selector.Select(ctx, principal)
	if err != nil {
		return 0, err
	}
	return r.writer.Create(ctx, wsID, collection, data)
}

// Update patches the record with the given logical id.
func (r *Repository) Update(ctx context.Context, principal, collection string, logicalID int64, patch storage.Row) (err error) {
	defer r.observe(OpUpdate, collection, time.Now(), &err)

	grant, err := r.gate.Check(principal, collection, OpUpdate)
	if err != nil {
		return err
	}
	if err := checkWritable(grant, patch); err != nil {
		return err
	}
	wsID, err := r.selector.Select(ctx, principal)
	if err != nil {
		return err
	}
	return r.writer.Update(ctx, wsID, collection, logicalID, patch)
}

// Delete removes the record with the given logical id from the principal's
// view of the dataset.
func (r *Repository) Delete(ctx context.Context, principal, collection string, logicalID int64) (err error) {
	defer r.observe(OpDelete, collection, time.Now(), &err)

	if _, err := r.gate.Check(principal, collection, OpDelete); err != nil {
		return err
	}
	wsID, err := r.selector.Select(ctx, principal)
	if err != nil {
		return err
	}
	return r.writer.Delete(ctx, wsID, collection, logicalID)
}

// CreateWithChildren creates a parent together with embedded child records
// in one atomic operation and returns the parent's logical id.
func (r *Repository) CreateWithChildren(ctx context.Context, principal, collection string, data storage.Row, childField string, children []storage.Row) (uid int64, err error) {
	defer r.observe(OpCreate, collection, time.Now(), &err)

	grant, err := r.gate.Check(principal, collection, OpCreate)
	if err != nil {
		return 0, err
	}
	if err := checkWritable(grant, data); err != nil {
		return 0, err
	}
	// Children are creates against the child collection and carry its own
	// gate grant, not the parent's.
	col, _ := r.catalog.Lookup(collection)
	for _, embed := range col.EmbedFields() {
		if embed.Name != childField {
			continue
		}
		childGrant, err := r.gate.Check(principal, embed.ChildCollection, OpCreate)
		if err != nil {
			return 0, err
		}
		for _, child := range children {
			if err := checkWritable(childGrant, child); err != nil {
				return 0, err
			}
		}
	}
	wsID, err := r.selector.Select(ctx, principal)
	if err != nil {
		return 0, err
	}
	return r.embed.CreateWithChildren(ctx, wsID, collection, data, childField, children)
}

// checkWritable rejects data keys outside the granted writable set. The
// writer re-validates against the catalog; this layer narrows further to
// whatever the gate allows for this principal.
func checkWritable(grant AttributeSet, data storage.Row) error {
	writable := toSet(grant.Writable)
	for name := range data {
		if _, ok := writable[name]; !ok {
			return Errf(KindFieldRejected, "field %q is not writable", name)
		}
	}
	return nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (r *Repository) observe(op Operation, collection string, start time.Time, err *error) {
	status := "ok"
	if *err != nil {
		if kind := KindOf(*err); kind != "" {
			status = string(kind)
		} else {
			status = "error"
		}
	}
	metrics.ObserveOp(string(op), collection, status, time.Since(start))
	if *err != nil && r.log != nil {
		r.log.Debugw("repository operation failed",
			"operation", op, "collection", collection, "error", *err)
	}
}

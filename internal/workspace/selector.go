package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

// Workspace is one draft workspace row.
type Workspace struct {
	ID        int64
	Owner     string
	Frozen    bool
	CreatedAt time.Time
}

// createdAtLayout is fixed-width (no trimmed fractional zeros) so the text
// ordering of created_at matches chronological order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Selector finds or lazily creates the workspace an operation runs in.
// Creation is idempotent under races: a partial unique index on the owner
// column (open workspaces only) makes the losing inserter adopt the
// winner's row instead of leaving a second workspace behind.
type Selector struct {
	gw  storage.Gateway
	now func() time.Time
}

// NewSelector builds a selector over the given gateway.
func NewSelector(gw storage.Gateway) *Selector {
	return &Selector{gw: gw, now: time.Now}
}

// Current returns the most recently created open workspace owned by
// principal, without creating one. ok is false when the principal has none;
// reads then run against the live dataset only.
func (s *Selector) Current(ctx context.Context, principal string) (int64, bool, error) {
	rows, err := s.gw.Select(ctx, schema.WorkspacesTable,
		storage.And{Preds: []storage.Predicate{
			storage.Eq{Column: schema.WorkspaceColOwner, Value: principal},
			storage.Eq{Column: schema.WorkspaceColFrozen, Value: int64(0)},
		}},
		[]storage.Order{
			{Column: schema.WorkspaceColCreatedAt, Desc: true},
			{Column: schema.ColumnID, Desc: true},
		}, 1)
	if err != nil {
		return 0, false, wrap(KindContextUnavailable, err, "workspace lookup failed for %q", principal)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return asInt64(rows[0][schema.ColumnID]), true, nil
}

// Select returns the active workspace for principal, creating one when none
// exists. Concurrent callers for the same principal converge on a single
// workspace.
func (s *Selector) Select(ctx context.Context, principal string) (int64, error) {
	id, ok, err := s.Current(ctx, principal)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	id, err = s.gw.Insert(ctx, schema.WorkspacesTable, storage.Row{
		schema.WorkspaceColOwner:     principal,
		schema.WorkspaceColFrozen:    int64(0),
		schema.WorkspaceColCreatedAt: s.now().UTC().Format(createdAtLayout),
	})
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, storage.ErrDuplicate):
		// Lost the race; adopt the winner's workspace.
		id, ok, err = s.Current(ctx, principal)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, Errf(KindContextUnavailable, "workspace for %q vanished after create race", principal)
		}
		return id, nil
	case errors.Is(err, storage.ErrReadOnly):
		return 0, Errf(KindContextUnavailable, "store is read-only, cannot create a workspace for %q", principal)
	default:
		return 0, wrap(KindContextUnavailable, err, "creating workspace for %q", principal)
	}
}

// List returns all workspaces owned by principal, newest first. Used by the
// startup status log and by tests inspecting workspace rows.
func (s *Selector) List(ctx context.Context, principal string) ([]Workspace, error) {
	rows, err := s.gw.Select(ctx, schema.WorkspacesTable,
		storage.Eq{Column: schema.WorkspaceColOwner, Value: principal},
		[]storage.Order{{Column: schema.ColumnID, Desc: true}}, 0)
	if err != nil {
		return nil, wrap(KindContextUnavailable, err, "listing workspaces for %q", principal)
	}
	out := make([]Workspace, 0, len(rows))
	for _, row := range rows {
		ws := Workspace{
			ID:     asInt64(row[schema.ColumnID]),
			Owner:  principal,
			Frozen: asInt64(row[schema.WorkspaceColFrozen]) != 0,
		}
		if raw, ok := row[schema.WorkspaceColCreatedAt].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				ws.CreatedAt = t
			}
		}
		out = append(out, ws)
	}
	return out, nil
}

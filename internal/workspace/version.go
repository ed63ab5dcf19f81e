package workspace

import (
	"fmt"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

// VersionState is the tagged state of one physical version row. Every place
// that interprets versions must branch exhaustively over these values.
type VersionState int64

const (
	// StateLive is the authoritative row outside any workspace.
	StateLive VersionState = 0
	// StateModified is a workspace copy of a live row carrying pending edits.
	StateModified VersionState = 1
	// StateNew is a record created inside a workspace with no live
	// counterpart; its physical id doubles as its logical id.
	StateNew VersionState = 2
	// StateTombstone marks the record as deleted within its workspace. The
	// row is filtering-only and never returned to callers.
	StateTombstone VersionState = 3
	// StateMovePointer records a pending move of the record. Filtering-only;
	// it neither yields content nor hides the live row.
	StateMovePointer VersionState = 4
)

func (s VersionState) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateModified:
		return "modified"
	case StateNew:
		return "new"
	case StateTombstone:
		return "tombstone"
	case StateMovePointer:
		return "move-pointer"
	default:
		return fmt.Sprintf("VersionState(%d)", int64(s))
	}
}

// Version is one physical row of a collection, split into version-control
// fields and the caller-visible attributes.
type Version struct {
	ID          int64
	Origin      int64
	WorkspaceID int64
	State       VersionState
	Attributes  storage.Row
}

// LogicalID returns the stable caller-visible id of the record this version
// belongs to. For StateNew rows the physical id is promoted to logical id;
// otherwise the origin points at the live row, and a zero origin means this
// row is the live row itself.
func (v Version) LogicalID() int64 {
	if v.State == StateNew {
		return v.ID
	}
	if v.Origin != 0 {
		return v.Origin
	}
	return v.ID
}

// versionFromRow splits a raw storage row into control fields and attributes.
func versionFromRow(row storage.Row) Version {
	v := Version{
		ID:          asInt64(row[schema.ColumnID]),
		Origin:      asInt64(row[schema.ColumnOrigin]),
		WorkspaceID: asInt64(row[schema.ColumnWorkspace]),
		State:       VersionState(asInt64(row[schema.ColumnState])),
		Attributes:  make(storage.Row, len(row)),
	}
	for name, val := range row {
		if schema.IsControlColumn(name) {
			continue
		}
		v.Attributes[name] = val
	}
	return v
}

// asInt64 reads an integer column value; NULL reads as 0.
func asInt64(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case nil:
		return 0
	default:
		return 0
	}
}

// Package schema holds the catalog of collections the repository exposes:
// which attributes each collection has, which attribute links a child to its
// parent, and which columns are version-control machinery the write path
// must never accept from callers.
//
// The catalog is data: collections are registered at startup, the rest of
// the system stays collection-agnostic.
package schema

import (
	"fmt"
	"sort"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

// Control columns present on every versioned collection table. They are
// owned by the write router and rejected from caller-supplied data.
const (
	ColumnID        = "id"        // physical row id
	ColumnOrigin    = "ver_origin" // physical id of the live row this version derives from
	ColumnWorkspace = "ver_wsid"   // owning workspace, 0 = live
	ColumnState     = "ver_state"  // version state enum
)

// WorkspacesTable holds the draft workspaces themselves.
const WorkspacesTable = "workspaces"

// Columns of the workspaces table.
const (
	WorkspaceColOwner     = "owner"
	WorkspaceColFrozen    = "frozen"
	WorkspaceColCreatedAt = "created_at"
)

// IsControlColumn reports whether name is one of the version-control columns.
func IsControlColumn(name string) bool {
	switch name {
	case ColumnID, ColumnOrigin, ColumnWorkspace, ColumnState:
		return true
	}
	return false
}

// AttrType is the declared type of a collection attribute.
type AttrType int

const (
	// TypeText is a free-form string attribute.
	TypeText AttrType = iota
	// TypeInteger is a whole-number attribute.
	TypeInteger
	// TypeEmbed marks an attribute that holds the count of embedded child
	// records living in another collection. The column itself is router-owned.
	TypeEmbed
)

func (t AttrType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeEmbed:
		return "embed"
	default:
		return fmt.Sprintf("AttrType(%d)", int(t))
	}
}

// Attribute describes one caller-visible field of a collection.
type Attribute struct {
	Name string
	Type AttrType

	// Structural marks the child-side link to a parent record. It exists
	// only to express "this child belongs to that parent" and is excluded
	// from the normal writable set; only the embed reconciler sets it.
	Structural bool

	// ChildCollection names the collection embedded records live in.
	// Set only when Type == TypeEmbed.
	ChildCollection string
}

// Collection describes one exposed record collection.
type Collection struct {
	Name       string
	Attributes []Attribute
}

// Attribute returns the named attribute, if declared.
func (c Collection) Attribute(name string) (Attribute, bool) {
	for _, a := range c.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// WritableNames returns the attributes callers may set directly: everything
// except structural links and embed counters.
func (c Collection) WritableNames() []string {
	var out []string
	for _, a := range c.Attributes {
		if a.Structural || a.Type == TypeEmbed {
			continue
		}
		out = append(out, a.Name)
	}
	return out
}

// ReadableNames returns the attributes included in read results.
func (c Collection) ReadableNames() []string {
	out := make([]string, len(c.Attributes))
	for i, a := range c.Attributes {
		out[i] = a.Name
	}
	return out
}

// ParentLink returns the structural parent-link attribute, if the collection
// has one (i.e. it is an embedded-child collection).
func (c Collection) ParentLink() (Attribute, bool) {
	for _, a := range c.Attributes {
		if a.Structural {
			return a, true
		}
	}
	return Attribute{}, false
}

// EmbedFields returns the attributes that embed children from another
// collection.
func (c Collection) EmbedFields() []Attribute {
	var out []Attribute
	for _, a := range c.Attributes {
		if a.Type == TypeEmbed {
			out = append(out, a)
		}
	}
	return out
}

// Catalog is the set of registered collections.
type Catalog struct {
	collections map[string]Collection
}

// New builds a catalog from the given collections. It rejects duplicate
// collection names, attributes that shadow control columns, and embed
// fields pointing at unregistered or link-less child collections.
func New(collections ...Collection) (*Catalog, error) {
	cat := &Catalog{collections: make(map[string]Collection, len(collections))}
	for _, c := range collections {
		if _, dup := cat.collections[c.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate collection %q", c.Name)
		}
		for _, a := range c.Attributes {
			if IsControlColumn(a.Name) {
				return nil, fmt.Errorf("schema: collection %q: attribute %q shadows a control column", c.Name, a.Name)
			}
		}
		cat.collections[c.Name] = c
	}
	for _, c := range collections {
		for _, a := range c.EmbedFields() {
			child, ok := cat.collections[a.ChildCollection]
			if !ok {
				return nil, fmt.Errorf("schema: collection %q: embed field %q references unknown collection %q",
					c.Name, a.Name, a.ChildCollection)
			}
			if _, ok := child.ParentLink(); !ok {
				return nil, fmt.Errorf("schema: collection %q has no structural parent link but is embedded by %q",
					child.Name, c.Name)
			}
		}
	}
	return cat, nil
}

// MustNew is New for statically known catalogs.
func MustNew(collections ...Collection) *Catalog {
	cat, err := New(collections...)
	if err != nil {
		panic(err)
	}
	return cat
}

// Lookup returns the named collection.
func (c *Catalog) Lookup(name string) (Collection, bool) {
	col, ok := c.collections[name]
	return col, ok
}

// Names returns all registered collection names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.collections))
	for n := range c.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TableSpecs returns the storage schema for every collection plus the
// workspaces table, ready for Gateway.EnsureSchema.
func (c *Catalog) TableSpecs() []storage.TableSpec {
	specs := make([]storage.TableSpec, 0, len(c.collections)+1)
	specs = append(specs, workspacesSpec())
	for _, name := range c.Names() {
		specs = append(specs, c.tableSpec(c.collections[name]))
	}
	return specs
}

func (c *Catalog) tableSpec(col Collection) storage.TableSpec {
	cols := []storage.ColumnSpec{
		{Name: ColumnID, Type: storage.ColumnInteger, PrimaryKey: true},
		{Name: ColumnOrigin, Type: storage.ColumnInteger},
		{Name: ColumnWorkspace, Type: storage.ColumnInteger},
		{Name: ColumnState, Type: storage.ColumnInteger},
	}
	for _, a := range col.Attributes {
		t := storage.ColumnText
		if a.Type == TypeInteger || a.Type == TypeEmbed || a.Structural {
			t = storage.ColumnInteger
		}
		cols = append(cols, storage.ColumnSpec{Name: a.Name, Type: t})
	}
	return storage.TableSpec{
		Name:    col.Name,
		Columns: cols,
		Indexes: []storage.IndexSpec{
			{
				Name:    "idx_" + col.Name + "_version",
				Columns: []string{ColumnWorkspace, ColumnOrigin},
			},
		},
	}
}

func workspacesSpec() storage.TableSpec {
	return storage.TableSpec{
		Name: WorkspacesTable,
		Columns: []storage.ColumnSpec{
			{Name: ColumnID, Type: storage.ColumnInteger, PrimaryKey: true},
			{Name: WorkspaceColOwner, Type: storage.ColumnText},
			{Name: WorkspaceColFrozen, Type: storage.ColumnInteger},
			{Name: WorkspaceColCreatedAt, Type: storage.ColumnText},
		},
		Indexes: []storage.IndexSpec{
			{
				// One open workspace per principal; racing creators hit
				// this and adopt the winner's row.
				Name:    "uniq_workspaces_owner_open",
				Columns: []string{WorkspaceColOwner},
				Unique:  true,
				Where:   WorkspaceColFrozen + " = 0",
			},
		},
	}
}

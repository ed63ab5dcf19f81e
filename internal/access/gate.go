// Package access implements the gate that decides which collections and
// attributes a principal may touch. The repository core consults it before
// every operation and never reaches storage on a denial.
package access

import (
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
)

// Policy restricts one collection beyond the catalog defaults.
type Policy struct {
	// DenyOps lists operations refused outright.
	DenyOps []workspace.Operation
	// HiddenAttributes are removed from the readable set.
	HiddenAttributes []string
	// FrozenAttributes are removed from the writable set.
	FrozenAttributes []string
}

// StaticGate derives attribute visibility from the schema catalog, narrowed
// by optional per-collection policies. It does not distinguish principals:
// the server runs one agent session per process, so per-principal policy
// lives in deployment configuration, not here.
type StaticGate struct {
	catalog  *schema.Catalog
	policies map[string]Policy
}

// NewStaticGate builds a gate over the catalog. policies may be nil.
func NewStaticGate(catalog *schema.Catalog, policies map[string]Policy) *StaticGate {
	return &StaticGate{catalog: catalog, policies: policies}
}

// Check implements workspace.AccessGate.
func (g *StaticGate) Check(principal, collection string, op workspace.Operation) (workspace.AttributeSet, error) {
	col, ok := g.catalog.Lookup(collection)
	if !ok {
		// Let the core report the collection as unknown; the gate only
		// rules on collections it knows.
		return workspace.AttributeSet{}, workspace.Errf(workspace.KindUnknownCollection,
			"collection %q is not registered", collection)
	}

	pol := g.policies[collection]
	for _, denied := range pol.DenyOps {
		if denied == op {
			return workspace.AttributeSet{}, workspace.Errf(workspace.KindAccessDenied,
				"%s on %q is not permitted", op, collection)
		}
	}

	return workspace.AttributeSet{
		Readable: subtract(col.ReadableNames(), pol.HiddenAttributes),
		Writable: subtract(col.WritableNames(), pol.FrozenAttributes),
	}, nil
}

func subtract(names, removed []string) []string {
	if len(removed) == 0 {
		return names
	}
	drop := make(map[string]struct{}, len(removed))
	for _, n := range removed {
		drop[n] = struct{}{}
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := drop[n]; ok {
			continue
		}
		out = append(out, n)
	}
	return out
}

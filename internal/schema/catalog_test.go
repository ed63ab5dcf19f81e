package schema_test

import (
	"testing"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
)

func TestNew_RejectsDuplicateCollections(t *testing.T) {
	_, err := schema.New(
		schema.Collection{Name: "pages"},
		schema.Collection{Name: "pages"},
	)
	if err == nil {
		t.Fatal("expected error for duplicate collection")
	}
}

func TestNew_RejectsControlColumnShadowing(t *testing.T) {
	_, err := schema.New(schema.Collection{
		Name:       "pages",
		Attributes: []schema.Attribute{{Name: "ver_state", Type: schema.TypeInteger}},
	})
	if err == nil {
		t.Fatal("expected error for attribute shadowing a control column")
	}
}

func TestNew_RejectsEmbedToUnknownCollection(t *testing.T) {
	_, err := schema.New(schema.Collection{
		Name:       "news",
		Attributes: []schema.Attribute{{Name: "links", Type: schema.TypeEmbed, ChildCollection: "nope"}},
	})
	if err == nil {
		t.Fatal("expected error for embed into unknown collection")
	}
}

func TestNew_RejectsEmbedWithoutParentLink(t *testing.T) {
	_, err := schema.New(
		schema.Collection{
			Name:       "news",
			Attributes: []schema.Attribute{{Name: "links", Type: schema.TypeEmbed, ChildCollection: "news_links"}},
		},
		schema.Collection{
			Name:       "news_links",
			Attributes: []schema.Attribute{{Name: "uri", Type: schema.TypeText}},
		},
	)
	if err == nil {
		t.Fatal("expected error for linkless child collection")
	}
}

func TestWritableNames_ExcludesStructuralAndEmbed(t *testing.T) {
	cat := schema.Default()
	col, ok := cat.Lookup("news_links")
	if !ok {
		t.Fatal("news_links not in default catalog")
	}
	for _, name := range col.WritableNames() {
		if name == "parent" {
			t.Error("structural field must not be writable")
		}
	}

	news, _ := cat.Lookup("news")
	for _, name := range news.WritableNames() {
		if name == "links" {
			t.Error("embed field must not be writable")
		}
	}
}

func TestIsControlColumn(t *testing.T) {
	for _, name := range []string{"id", "ver_origin", "ver_wsid", "ver_state"} {
		if !schema.IsControlColumn(name) {
			t.Errorf("IsControlColumn(%q) = false, want true", name)
		}
	}
	if schema.IsControlColumn("title") {
		t.Error("IsControlColumn(title) = true, want false")
	}
}

func TestTableSpecs_IncludeControlColumnsAndWorkspaces(t *testing.T) {
	specs := schema.Default().TableSpecs()

	var workspaces *storage.TableSpec
	var pages *storage.TableSpec
	for i := range specs {
		switch specs[i].Name {
		case schema.WorkspacesTable:
			workspaces = &specs[i]
		case "pages":
			pages = &specs[i]
		}
	}
	if workspaces == nil {
		t.Fatal("workspaces table missing from specs")
	}
	if pages == nil {
		t.Fatal("pages table missing from specs")
	}

	cols := make(map[string]bool)
	for _, c := range pages.Columns {
		cols[c.Name] = true
	}
	for _, want := range []string{"id", "ver_origin", "ver_wsid", "ver_state", "title"} {
		if !cols[want] {
			t.Errorf("pages spec missing column %q", want)
		}
	}

	// The open-workspace index must be unique and partial: it is what makes
	// concurrent workspace creation idempotent.
	var found bool
	for _, idx := range workspaces.Indexes {
		if idx.Unique && idx.Where != "" {
			found = true
		}
	}
	if !found {
		t.Error("workspaces spec missing partial unique owner index")
	}
}

func TestCatalog_Names_Sorted(t *testing.T) {
	names := schema.Default().Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

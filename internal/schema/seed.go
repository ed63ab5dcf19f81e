package schema

// Default returns the built-in catalog: the page tree, news records, and the
// link records embedded inside news. Deployments with their own tables can
// construct a catalog via New instead.
func Default() *Catalog {
	return MustNew(
		Collection{
			Name: "pages",
			Attributes: []Attribute{
				{Name: "title", Type: TypeText},
				{Name: "slug", Type: TypeText},
				{Name: "subtitle", Type: TypeText},
				{Name: "hidden", Type: TypeInteger},
				{Name: "sorting", Type: TypeInteger},
			},
		},
		Collection{
			Name: "news",
			Attributes: []Attribute{
				{Name: "title", Type: TypeText},
				{Name: "teaser", Type: TypeText},
				{Name: "bodytext", Type: TypeText},
				{Name: "datetime", Type: TypeText},
				{Name: "links", Type: TypeEmbed, ChildCollection: "news_links"},
			},
		},
		Collection{
			Name: "news_links",
			Attributes: []Attribute{
				{Name: "uri", Type: TypeText},
				{Name: "title", Type: TypeText},
				{Name: "sorting", Type: TypeInteger},
				{Name: "parent", Type: TypeInteger, Structural: true},
			},
		},
	)
}

package storage

import (
	"fmt"
	"strings"
)

// Predicate is a boolean expression over one table's columns. The query
// layer composes these; drivers render them to SQL via RenderSQL.
type Predicate interface {
	isPredicate()
}

// Eq matches rows where Column = Value.
type Eq struct {
	Column string
	Value  any
}

// In matches rows where Column is any of Values. An empty Values list
// matches nothing.
type In struct {
	Column string
	Values []any
}

// NotIn matches rows where Column is none of Values. An empty Values list
// matches everything.
type NotIn struct {
	Column string
	Values []any
}

// And matches rows satisfying every sub-predicate.
type And struct {
	Preds []Predicate
}

// Or matches rows satisfying at least one sub-predicate.
type Or struct {
	Preds []Predicate
}

func (Eq) isPredicate()    {}
func (In) isPredicate()    {}
func (NotIn) isPredicate() {}
func (And) isPredicate()   {}
func (Or) isPredicate()    {}

// Int64s widens a slice of int64 to the []any a set predicate wants.
func Int64s(vals []int64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// Placeholder produces the SQL placeholder for the 1-based argument position.
// sqlite uses "?", postgres "$1", "$2", ...
type Placeholder func(pos int) string

// PlaceholderQuestion is the sqlite/mysql style placeholder.
func PlaceholderQuestion(int) string { return "?" }

// PlaceholderDollar is the postgres style placeholder.
func PlaceholderDollar(pos int) string { return fmt.Sprintf("$%d", pos) }

// RenderSQL turns a predicate into a WHERE-clause fragment plus its bind
// arguments. A nil predicate renders to "1=1" so callers can always
// interpolate the result. argOffset is the number of bind arguments already
// consumed by the statement (relevant for the dollar placeholder style).
func RenderSQL(p Predicate, ph Placeholder, argOffset int) (string, []any) {
	r := &sqlRenderer{ph: ph, pos: argOffset}
	sql := r.render(p)
	return sql, r.args
}

type sqlRenderer struct {
	ph   Placeholder
	pos  int
	args []any
}

func (r *sqlRenderer) bind(v any) string {
	r.pos++
	r.args = append(r.args, v)
	return r.ph(r.pos)
}

func (r *sqlRenderer) render(p Predicate) string {
	switch p := p.(type) {
	case nil:
		return "1=1"
	case Eq:
		return fmt.Sprintf("%s = %s", p.Column, r.bind(p.Value))
	case In:
		if len(p.Values) == 0 {
			return "1=0"
		}
		return fmt.Sprintf("%s IN (%s)", p.Column, r.bindAll(p.Values))
	case NotIn:
		if len(p.Values) == 0 {
			return "1=1"
		}
		return fmt.Sprintf("%s NOT IN (%s)", p.Column, r.bindAll(p.Values))
	case And:
		return r.renderList(p.Preds, " AND ", "1=1")
	case Or:
		return r.renderList(p.Preds, " OR ", "1=0")
	default:
		// New predicate kinds must be added here alongside the type.
		panic(fmt.Sprintf("storage: unknown predicate type %T", p))
	}
}

func (r *sqlRenderer) bindAll(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = r.bind(v)
	}
	return strings.Join(parts, ", ")
}

func (r *sqlRenderer) renderList(preds []Predicate, sep, empty string) string {
	if len(preds) == 0 {
		return empty
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = "(" + r.render(p) + ")"
	}
	return strings.Join(parts, sep)
}

// RenderOrder turns order terms into an ORDER BY fragment, or "" when empty.
func RenderOrder(order []Order) string {
	if len(order) == 0 {
		return ""
	}
	parts := make([]string, len(order))
	for i, o := range order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts[i] = o.Column + " " + dir
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

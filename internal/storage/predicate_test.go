package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSQL_Eq(t *testing.T) {
	sql, args := RenderSQL(Eq{Column: "title", Value: "x"}, PlaceholderQuestion, 0)
	assert.Equal(t, "title = ?", sql)
	assert.Equal(t, []any{"x"}, args)
}

func TestRenderSQL_EqDollar(t *testing.T) {
	sql, args := RenderSQL(Eq{Column: "title", Value: "x"}, PlaceholderDollar, 0)
	assert.Equal(t, "title = $1", sql)
	assert.Equal(t, []any{"x"}, args)
}

func TestRenderSQL_DollarOffset(t *testing.T) {
	sql, _ := RenderSQL(Eq{Column: "a", Value: 1}, PlaceholderDollar, 2)
	assert.Equal(t, "a = $3", sql)
}

func TestRenderSQL_In(t *testing.T) {
	sql, args := RenderSQL(In{Column: "id", Values: []any{int64(1), int64(2)}}, PlaceholderQuestion, 0)
	assert.Equal(t, "id IN (?, ?)", sql)
	assert.Equal(t, []any{int64(1), int64(2)}, args)
}

func TestRenderSQL_EmptyIn_MatchesNothing(t *testing.T) {
	sql, args := RenderSQL(In{Column: "id"}, PlaceholderQuestion, 0)
	assert.Equal(t, "1=0", sql)
	assert.Empty(t, args)
}

func TestRenderSQL_EmptyNotIn_MatchesEverything(t *testing.T) {
	sql, args := RenderSQL(NotIn{Column: "id"}, PlaceholderQuestion, 0)
	assert.Equal(t, "1=1", sql)
	assert.Empty(t, args)
}

func TestRenderSQL_Nil(t *testing.T) {
	sql, args := RenderSQL(nil, PlaceholderQuestion, 0)
	assert.Equal(t, "1=1", sql)
	assert.Empty(t, args)
}

func TestRenderSQL_Composite(t *testing.T) {
	pred := And{Preds: []Predicate{
		In{Column: "ver_wsid", Values: []any{int64(0), int64(5)}},
		Or{Preds: []Predicate{
			Eq{Column: "ver_origin", Value: int64(7)},
			Eq{Column: "id", Value: int64(7)},
		}},
	}}
	sql, args := RenderSQL(pred, PlaceholderQuestion, 0)
	assert.Equal(t, "(ver_wsid IN (?, ?)) AND ((ver_origin = ?) OR (id = ?))", sql)
	assert.Equal(t, []any{int64(0), int64(5), int64(7), int64(7)}, args)
}

func TestRenderSQL_CompositeDollar_NumbersSequentially(t *testing.T) {
	pred := And{Preds: []Predicate{
		Eq{Column: "a", Value: 1},
		NotIn{Column: "b", Values: []any{2, 3}},
	}}
	sql, args := RenderSQL(pred, PlaceholderDollar, 0)
	assert.Equal(t, "(a = $1) AND (b NOT IN ($2, $3))", sql)
	assert.Len(t, args, 3)
}

func TestRenderOrder(t *testing.T) {
	assert.Equal(t, "", RenderOrder(nil))
	assert.Equal(t, "ORDER BY ver_wsid DESC, id ASC", RenderOrder([]Order{
		{Column: "ver_wsid", Desc: true},
		{Column: "id"},
	}))
}

func TestInt64s(t *testing.T) {
	assert.Equal(t, []any{int64(1), int64(2)}, Int64s([]int64{1, 2}))
}

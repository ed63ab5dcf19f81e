// Package storage defines the gateway interface the repository core uses to
// talk to the underlying relational store, plus the small predicate AST the
// query layer builds against it.
//
// Two drivers implement Gateway: sqlite (default, modernc.org/sqlite) and
// postgres (jackc/pgx). The core never sees SQL — it hands a Predicate to
// Select and lets the driver render it.
package storage

import (
	"context"
	"errors"
)

// Row is one stored row, keyed by column name. Integer columns are returned
// as int64, text as string, NULL as nil.
type Row map[string]any

// Order describes one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Gateway executes row-level operations against one backing store.
//
// InTx runs fn against a transaction-bound Gateway; any error from fn rolls
// the whole transaction back. Calling InTx on an already transaction-bound
// Gateway reuses the open transaction (no savepoints).
type Gateway interface {
	Select(ctx context.Context, table string, pred Predicate, order []Order, limit int) ([]Row, error)
	Insert(ctx context.Context, table string, values Row) (int64, error)
	Update(ctx context.Context, table string, id int64, patch Row) error
	Delete(ctx context.Context, table string, id int64) error
	InTx(ctx context.Context, fn func(Gateway) error) error

	// ReadOnly reports whether mutations are refused by configuration.
	ReadOnly() bool
}

// Sentinel errors drivers wrap so callers can classify failures with
// errors.Is without importing driver internals.
var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("storage: unique constraint violation")
	// ErrReadOnly is returned for any mutation on a read-only gateway.
	ErrReadOnly = errors.New("storage: store is read-only")
	// ErrNoRow is returned by Update/Delete when the target row is gone.
	ErrNoRow = errors.New("storage: no such row")
)

// ColumnType enumerates the storage types a table column may have.
type ColumnType int

const (
	ColumnInteger ColumnType = iota
	ColumnText
)

// ColumnSpec describes one column of a managed table.
type ColumnSpec struct {
	Name string
	Type ColumnType
	// PrimaryKey marks the auto-incrementing integer key column.
	PrimaryKey bool
}

// IndexSpec describes one index of a managed table. Where, when non-empty,
// makes the index partial (both drivers support partial indexes).
type IndexSpec struct {
	Name    string
	Columns []string
	Unique  bool
	Where   string
}

// TableSpec is the driver-independent description of a table. Drivers create
// missing tables and indexes from it at startup (CREATE ... IF NOT EXISTS);
// existing tables are never altered.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
	Indexes []IndexSpec
}

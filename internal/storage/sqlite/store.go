// Package sqlite implements the storage gateway on an embedded SQLite
// database (modernc.org/sqlite, pure Go). It is the default driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Store implements storage.Gateway on a SQLite database file.
type Store struct {
	db       *sql.DB
	run      runner
	readOnly bool
}

// runner abstracts *sql.DB and *sql.Tx so the same query code serves both.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open opens (creating if needed) the database file at path and applies the
// WAL/pragma setup. The parent directory is created with 0700.
func Open(path string, readOnly bool) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("sqlite: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	// The modernc driver serializes access; a single connection avoids
	// SQLITE_BUSY between the pool's connections.
	db.SetMaxOpenConns(1)

	return &Store{db: db, run: db, readOnly: readOnly}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReadOnly reports whether mutations are refused.
func (s *Store) ReadOnly() bool { return s.readOnly }

// EnsureSchema creates any missing tables and indexes from specs. DDL is a
// mutation too: a read-only store refuses it.
func (s *Store) EnsureSchema(ctx context.Context, tables []storage.TableSpec) error {
	if s.readOnly {
		return storage.ErrReadOnly
	}
	for _, t := range tables {
		if _, err := s.run.ExecContext(ctx, createTableSQL(t)); err != nil {
			return fmt.Errorf("sqlite: create table %s: %w", t.Name, err)
		}
		for _, idx := range t.Indexes {
			if _, err := s.run.ExecContext(ctx, createIndexSQL(t.Name, idx)); err != nil {
				return fmt.Errorf("sqlite: create index %s: %w", idx.Name, err)
			}
		}
	}
	return nil
}

func createTableSQL(t storage.TableSpec) string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		switch {
		case c.PrimaryKey:
			cols = append(cols, c.Name+" INTEGER PRIMARY KEY AUTOINCREMENT")
		case c.Type == storage.ColumnInteger:
			cols = append(cols, c.Name+" INTEGER NOT NULL DEFAULT 0")
		default:
			cols = append(cols, c.Name+" TEXT")
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(cols, ", "))
}

func createIndexSQL(table string, idx storage.IndexSpec) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	sql := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, idx.Name, table, strings.Join(idx.Columns, ", "))
	if idx.Where != "" {
		sql += " WHERE " + idx.Where
	}
	return sql
}

// Select returns the rows of table matching pred, in the given order.
// limit <= 0 means no limit.
func (s *Store) Select(ctx context.Context, table string, pred storage.Predicate, order []storage.Order, limit int) ([]storage.Row, error) {
	where, args := storage.RenderSQL(pred, storage.PlaceholderQuestion, 0)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, where)
	if ob := storage.RenderOrder(order); ob != "" {
		query += " " + ob
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.run.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: select %s: %w", table, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]storage.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}

	var out []storage.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		row := make(storage.Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate: %w", err)
	}
	return out, nil
}

// normalize maps driver-specific scan values onto the storage.Row contract.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Insert adds a row and returns its generated primary key.
func (s *Store) Insert(ctx context.Context, table string, values storage.Row) (int64, error) {
	if s.readOnly {
		return 0, storage.ErrReadOnly
	}
	cols, phs, args := insertParts(values)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, phs)

	res, err := s.run.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("sqlite: insert %s: %w", table, storage.ErrDuplicate)
		}
		return 0, fmt.Errorf("sqlite: insert %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: last insert id: %w", err)
	}
	return id, nil
}

func insertParts(values storage.Row) (cols, phs string, args []any) {
	names := sortedKeys(values)
	marks := make([]string, len(names))
	args = make([]any, len(names))
	for i, n := range names {
		marks[i] = "?"
		args[i] = values[n]
	}
	return strings.Join(names, ", "), strings.Join(marks, ", "), args
}

// Update applies patch to the row with the given primary key.
func (s *Store) Update(ctx context.Context, table string, id int64, patch storage.Row) error {
	if s.readOnly {
		return storage.ErrReadOnly
	}
	if len(patch) == 0 {
		return nil
	}
	names := sortedKeys(patch)
	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, n := range names {
		sets[i] = n + " = ?"
		args = append(args, patch[n])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	res, err := s.run.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite: update %s id %d: %w", table, id, storage.ErrNoRow)
	}
	return nil
}

// Delete removes the row with the given primary key.
func (s *Store) Delete(ctx context.Context, table string, id int64) error {
	if s.readOnly {
		return storage.ErrReadOnly
	}
	res, err := s.run.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite: delete %s id %d: %w", table, id, storage.ErrNoRow)
	}
	return nil
}

// InTx runs fn against a transaction-bound gateway. If the store is already
// inside a transaction the open one is reused.
func (s *Store) InTx(ctx context.Context, fn func(storage.Gateway) error) error {
	if _, ok := s.run.(*sql.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	bound := &Store{db: s.db, run: tx, readOnly: s.readOnly}
	if err := fn(bound); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit tx: %w", err)
	}
	return nil
}

func sortedKeys(row storage.Row) []string {
	names := make([]string, 0, len(row))
	for n := range row {
		names = append(names, n)
	}
	// Deterministic statement text keeps test failures reproducible.
	sort.Strings(names)
	return names
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Package postgres implements the storage gateway on PostgreSQL via
// jackc/pgx. Used for deployments where the content repository lives in a
// shared database rather than a local file.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements storage.Gateway on a pgx connection pool.
type Store struct {
	pool     *pgxpool.Pool
	tx       pgx.Tx
	readOnly bool
}

// querier abstracts pool and transaction so the same query code serves both.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open connects to the database described by dsn and verifies the connection.
func Open(ctx context.Context, dsn string, readOnly bool) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool, readOnly: readOnly}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ReadOnly reports whether mutations are refused.
func (s *Store) ReadOnly() bool { return s.readOnly }

func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.pool
}

// EnsureSchema creates any missing tables and indexes from specs. DDL is a
// mutation too: a read-only store refuses it.
func (s *Store) EnsureSchema(ctx context.Context, tables []storage.TableSpec) error {
	if s.readOnly {
		return storage.ErrReadOnly
	}
	for _, t := range tables {
		if _, err := s.q().Exec(ctx, createTableSQL(t)); err != nil {
			return fmt.Errorf("postgres: create table %s: %w", t.Name, err)
		}
		for _, idx := range t.Indexes {
			if _, err := s.q().Exec(ctx, createIndexSQL(t.Name, idx)); err != nil {
				return fmt.Errorf("postgres: create index %s: %w", idx.Name, err)
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
			cols = append(cols, c.Name+" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY")
		case c.Type == storage.ColumnInteger:
			cols = append(cols, c.Name+" BIGINT NOT NULL DEFAULT 0")
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
	where, args := storage.RenderSQL(pred, storage.PlaceholderDollar, 0)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, where)
	if ob := storage.RenderOrder(order); ob != "" {
		query += " " + ob
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.q().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: select %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []storage.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		row := make(storage.Row, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate: %w", err)
	}
	return out, nil
}

// normalize maps pgx scan values onto the storage.Row contract: integer
// columns come back as int64 regardless of declared width.
func normalize(v any) any {
	switch v := v.(type) {
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case []byte:
		return string(v)
	default:
		return v
	}
}

// Insert adds a row and returns its generated primary key.
func (s *Store) Insert(ctx context.Context, table string, values storage.Row) (int64, error) {
	if s.readOnly {
		return 0, storage.ErrReadOnly
	}
	names := sortedKeys(values)
	marks := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		marks[i] = storage.PlaceholderDollar(i + 1)
		args[i] = values[n]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(names, ", "), strings.Join(marks, ", "))

	var id int64
	if err := s.q().QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("postgres: insert %s: %w", table, storage.ErrDuplicate)
		}
		return 0, fmt.Errorf("postgres: insert %s: %w", table, err)
	}
	return id, nil
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
		sets[i] = fmt.Sprintf("%s = %s", n, storage.PlaceholderDollar(i+1))
		args = append(args, patch[n])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		table, strings.Join(sets, ", "), storage.PlaceholderDollar(len(names)+1))
	tag, err := s.q().Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update %s id %d: %w", table, id, storage.ErrNoRow)
	}
	return nil
}

// Delete removes the row with the given primary key.
func (s *Store) Delete(ctx context.Context, table string, id int64) error {
	if s.readOnly {
		return storage.ErrReadOnly
	}
	tag, err := s.q().Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("postgres: delete %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete %s id %d: %w", table, id, storage.ErrNoRow)
	}
	return nil
}

// InTx runs fn against a transaction-bound gateway. If the store is already
// inside a transaction the open one is reused.
func (s *Store) InTx(ctx context.Context, fn func(storage.Gateway) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	bound := &Store{pool: s.pool, tx: tx, readOnly: s.readOnly}
	if err := fn(bound); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit tx: %w", err)
	}
	return nil
}

func sortedKeys(row storage.Row) []string {
	names := make([]string, 0, len(row))
	for n := range row {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

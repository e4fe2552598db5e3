// Package dao is a small generic persistence layer over database/sql.
//
// A Table is built from an explicit Descriptor and every call takes the
// dbx.DBTX to run on, so the caller decides the transaction scope.
package dao

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/jmoiron/sqlx"
)

// ErrEmptyValues is returned by Insert and Update when there is nothing to
// write.
var ErrEmptyValues = errors.New("dao: no values")

// Descriptor names a table and the columns mapped onto the record type.
// Column names must match the `db` tags of the record.
type Descriptor struct {
	Table   string
	Key     string
	Columns []string
	// Bind is the sqlx bind type of the driver, e.g. sqlx.DOLLAR.
	Bind int
}

// Filter is a conjunction of column = value predicates. An empty filter
// matches every row.
type Filter map[string]any

// Values maps column names to the values to write.
type Values map[string]any

// Table implements find/insert/update/delete for records of type T.
type Table[T any] struct {
	d          Descriptor
	selectList string
}

func NewTable[T any](d Descriptor) *Table[T] {
	return &Table[T]{d: d, selectList: strings.Join(d.Columns, ", ")}
}

// Descriptor returns the table description.
func (t *Table[T]) Descriptor() Descriptor { return t.d }

func (t *Table[T]) rebind(q string) string {
	return sqlx.Rebind(t.d.Bind, q)
}

// where renders f with "?" placeholders in sorted column order.
func where(f Filter) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(f))
	for c := range f {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		parts[i] = c + " = ?"
		args[i] = f[c]
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func sortedColumns(v Values) []string {
	cols := make([]string, 0, len(v))
	for c := range v {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (t *Table[T]) query(ctx context.Context, db dbx.DBTX, q string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, t.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []T
	if err := sqlx.StructScan(rows, &out); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// FindOne returns the first row matching f, or common.ErrorNotFound.
func (t *Table[T]) FindOne(ctx context.Context, db dbx.DBTX, f Filter) (*T, error) {
	w, args := where(f)
	q := "SELECT " + t.selectList + " FROM " + t.d.Table + w + " LIMIT 1"

	items, err := t.query(ctx, db, q, args...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, common.ErrorNotFound
	}
	return &items[0], nil
}

// DefaultLimit applies when FindAll is called with a non-positive limit.
const DefaultLimit = 100

// FindAll returns at most limit rows matching f, skipping offset rows,
// ordered by the key column.
func (t *Table[T]) FindAll(ctx context.Context, db dbx.DBTX, f Filter, offset, limit int) ([]T, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	w, args := where(f)
	q := "SELECT " + t.selectList + " FROM " + t.d.Table + w + " ORDER BY " + t.d.Key + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	items, err := t.query(ctx, db, q, args...)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Insert writes one row.
func (t *Table[T]) Insert(ctx context.Context, db dbx.DBTX, v Values) error {
	if len(v) == 0 {
		return ErrEmptyValues
	}
	cols := sortedColumns(v)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = v[c]
	}

	q := "INSERT INTO " + t.d.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	if _, err := db.ExecContext(ctx, t.rebind(q), args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update applies v to the rows matching f and returns the first updated
// record re-read by key. It returns common.ErrorNotFound when nothing
// matched.
func (t *Table[T]) Update(ctx context.Context, db dbx.DBTX, f Filter, v Values) (*T, error) {
	if len(v) == 0 {
		return nil, ErrEmptyValues
	}
	cols := sortedColumns(v)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(f))
	for i, c := range cols {
		sets[i] = c + " = ?"
		args = append(args, v[c])
	}
	w, wargs := where(f)
	args = append(args, wargs...)

	q := "UPDATE " + t.d.Table + " SET " + strings.Join(sets, ", ") + w + " RETURNING " + t.d.Key

	key, err := t.firstKey(ctx, db, q, args...)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, common.ErrorNotFound
	}
	return t.FindOne(ctx, db, Filter{t.d.Key: key})
}

func (t *Table[T]) firstKey(ctx context.Context, db dbx.DBTX, q string, args ...any) (any, error) {
	rows, err := db.QueryContext(ctx, t.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var key any
	if rows.Next() {
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		// lib/pq hands back text columns as []byte
		if b, ok := key.([]byte); ok {
			key = string(b)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return key, nil
}

// Delete removes the rows matching f and returns how many were removed.
func (t *Table[T]) Delete(ctx context.Context, db dbx.DBTX, f Filter) (int64, error) {
	w, args := where(f)
	q := "DELETE FROM " + t.d.Table + w

	res, err := db.ExecContext(ctx, t.rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

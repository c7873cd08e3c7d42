// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sqliteTimeLayout is fixed width so text comparison orders correctly.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Row is one table row keyed by column name.
type Row map[string]any

// Filter matches rows whose columns equal every given value.
type Filter map[string]any

// Query controls ordering and size of a Get.
type Query struct {
	OrderBy string
	Desc    bool
	Limit   int
}

// Client runs row operations against one database.
type Client struct {
	db     *sql.DB
	driver string
}

// Open connects to the remote backend and verifies it is reachable.
func Open(ctx context.Context, driver, url string) (*Client, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported remote driver %q", driver)
	}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("remote database URL is required")
	}

	dsn := url
	if driver == DriverSQLite && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open remote store: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping remote store: %w: %w", ErrUnavailable, err)
	}
	return New(db, driver), nil
}

// New wraps an already open database.
func New(db *sql.DB, driver string) *Client {
	return &Client{db: db, driver: driver}
}

// DB exposes the underlying handle for schema setup.
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Driver() string {
	return c.driver
}

func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the rows of table matching filter.
func (c *Client) Get(ctx context.Context, table string, filter Filter, q Query) ([]Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("SELECT * FROM " + table)
	where, args, err := c.where(filter, 0)
	if err != nil {
		return nil, err
	}
	b.WriteString(where)
	if q.OrderBy != "" {
		if err := checkIdent(q.OrderBy); err != nil {
			return nil, err
		}
		b.WriteString(" ORDER BY " + q.OrderBy)
		if q.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}

	rows, err := c.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, classify("get "+table, err)
	}
	defer rows.Close()
	return c.scan(rows)
}

// Count returns the number of rows of table matching filter.
func (c *Client) Count(ctx context.Context, table string, filter Filter) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	where, args, err := c.where(filter, 0)
	if err != nil {
		return 0, err
	}
	var n int
	err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+where, args...).Scan(&n)
	if err != nil {
		return 0, classify("count "+table, err)
	}
	return n, nil
}

// Insert writes row into table and returns the stored row.
func (c *Client) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, errors.New("insert: empty row")
	}
	cols := sortedKeys(row)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		if err := checkIdent(col); err != nil {
			return nil, err
		}
		placeholders[i] = c.placeholder(i + 1)
		args[i] = c.bindValue(row[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("insert "+table, err)
	}
	defer rows.Close()
	out, err := c.scan(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return row, nil
	}
	return out[0], nil
}

// Update sets the patch columns on every row matching filter and returns the
// number of rows changed.
func (c *Client) Update(ctx context.Context, table string, patch Row, filter Filter) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if len(patch) == 0 {
		return 0, errors.New("update: empty patch")
	}
	if len(filter) == 0 {
		return 0, errors.New("update: refusing to update without a filter")
	}
	cols := sortedKeys(patch)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filter))
	for i, col := range cols {
		if err := checkIdent(col); err != nil {
			return 0, err
		}
		sets[i] = col + " = " + c.placeholder(i+1)
		args = append(args, c.bindValue(patch[col]))
	}
	where, whereArgs, err := c.where(filter, len(cols))
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	res, err := c.db.ExecContext(ctx, "UPDATE "+table+" SET "+strings.Join(sets, ", ")+where, args...)
	if err != nil {
		return 0, classify("update "+table, err)
	}
	return res.RowsAffected()
}

// Delete removes every row matching filter.
func (c *Client) Delete(ctx context.Context, table string, filter Filter) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, errors.New("delete: refusing to delete without a filter")
	}
	where, args, err := c.where(filter, 0)
	if err != nil {
		return 0, err
	}
	res, err := c.db.ExecContext(ctx, "DELETE FROM "+table+where, args...)
	if err != nil {
		return 0, classify("delete "+table, err)
	}
	return res.RowsAffected()
}

func (c *Client) where(filter Filter, offset int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	cols := sortedKeys(filter)
	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		if err := checkIdent(col); err != nil {
			return "", nil, err
		}
		conds[i] = col + " = " + c.placeholder(offset+i+1)
		args[i] = c.bindValue(filter[col])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (c *Client) placeholder(n int) string {
	if c.driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (c *Client) bindValue(v any) any {
	if t, ok := v.(time.Time); ok && c.driver == DriverSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return v
}

func (c *Client) scan(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate rows", err)
	}
	return out, nil
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

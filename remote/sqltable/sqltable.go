// Package sqltable implements remote.Table on a local SQLite database.
// It serves as an offline mirror of the hosted table.
package sqltable

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/minios-linux/sitetext/remote"
)

//go:embed schema.sql
var schema string

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table is a SQLite-backed remote.Table.
type Table struct {
	db    *sql.DB
	name  string
	sq    sq.StatementBuilderType
	clock func() time.Time
}

var _ remote.Table = (*Table)(nil)

// Open opens (creating if needed) the database at path and ensures the
// table exists.
func Open(path, table string) (*Table, error) {
	if table == "" {
		table = remote.DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("make db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(strings.ReplaceAll(schema, "{{table}}", table)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	return &Table{
		db:    db,
		name:  table,
		sq:    sq.StatementBuilder,
		clock: time.Now,
	}, nil
}

// Close closes the database.
func (t *Table) Close() error {
	return t.db.Close()
}

// Upsert writes records in a single transaction.
func (t *Table) Upsert(ctx context.Context, records []remote.Record) error {
	if len(records) == 0 {
		return nil
	}
	now := t.clock().UTC().Format(time.RFC3339)
	q := t.sq.Insert(t.name).Columns("key", "language", "section", "value", "updated_at")
	for _, r := range records {
		q = q.Values(r.Key, r.Language, r.Section, r.Value, now)
	}
	q = q.Suffix("ON CONFLICT(key, language) DO UPDATE SET section=excluded.section, value=excluded.value, updated_at=excluded.updated_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return t.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, sqlStr, args...)
		return err
	})
}

// Select returns the rows matching f ordered by key and language.
func (t *Table) Select(ctx context.Context, f remote.Filter) ([]remote.Record, error) {
	q := t.sq.Select("key", "language", "section", "value").From(t.name).OrderBy("key", "language")
	eq := sq.Eq{}
	if f.Key != "" {
		eq["key"] = f.Key
	}
	if f.Language != "" {
		eq["language"] = f.Language
	}
	if f.IsSection() {
		eq["section"] = f.Prefix
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	if f.Prefix != "" && !f.IsSection() {
		q = q.Where(sq.Expr("substr(key, 1, ?) = ?", utf8.RuneCountInString(f.Prefix), f.Prefix))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := t.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []remote.Record
	for rows.Next() {
		var r remote.Record
		if err := rows.Scan(&r.Key, &r.Language, &r.Section, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes the rows of lang with the given keys.
func (t *Table) Delete(ctx context.Context, lang string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	sqlStr, args, err := t.sq.Delete(t.name).Where(sq.Eq{"language": lang, "key": keys}).ToSql()
	if err != nil {
		return err
	}
	return t.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, sqlStr, args...)
		return err
	})
}

func (t *Table) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

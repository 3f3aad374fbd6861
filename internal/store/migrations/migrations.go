// Package migrations creates and upgrades the schema of a database alias.
//
// Migrations are embedded SQL files named NNN_description.sql, one directory per dialect.
// Each file runs in its own transaction together with its schema_migrations row, so a
// failed migration leaves no trace and Run can be called again.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kubev2v/shareddb/internal/store"
)

//go:embed sql
var files embed.FS

const (
	queryCreateSchemaMigrations = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`

	queryAppliedVersions = `SELECT version FROM schema_migrations`

	queryInsertVersion = `INSERT INTO schema_migrations (version) VALUES (?)`
)

type migration struct {
	version int
	name    string
	sql     string
}

// Run applies every migration of dialect not yet recorded in schema_migrations.
func Run(ctx context.Context, conn store.Conn, dialect string) error {
	all, err := load(dialect)
	if err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, queryCreateSchemaMigrations); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	err = conn.QueryContext(ctx, func(rows *sql.Rows) error {
		for rows.Next() {
			var v int
			if err := rows.Scan(&v); err != nil {
				return err
			}
			applied[v] = true
		}
		return nil
	}, queryAppliedVersions)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, m := range all {
		if applied[m.version] {
			continue
		}
		err := conn.Atomic(ctx, func(ctx context.Context) error {
			for _, stmt := range m.statements() {
				if _, err := conn.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := conn.ExecContext(ctx, queryInsertVersion, m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		zap.S().Named("migrations").Infow("applied migration", "dialect", dialect, "version", m.version, "name", m.name)
	}
	return nil
}

// statements splits the file on semicolons. Migration files must not use semicolons
// inside literals.
func (m migration) statements() []string {
	var stmts []string
	for _, part := range strings.Split(m.sql, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func load(dialect string) ([]migration, error) {
	dir := path.Join("sql", dialect)
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}

	var all []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("invalid migration file name %q", e.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version in %q: %w", e.Name(), err)
		}
		content, err := fs.ReadFile(files, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, migration{version: version, name: e.Name(), sql: string(content)})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].version < all[j].version })
	return all, nil
}

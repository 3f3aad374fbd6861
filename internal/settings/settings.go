// Package settings rewrites database settings so that selected aliases are served through a
// delegation queue.
package settings

import (
	"slices"

	"github.com/kubev2v/shareddb/internal/config"
	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

const (
	EngineSharedDB = "shareddb"
	EngineDuckDB   = "duckdb"
	EngineSQLite   = "sqlite3"
)

// Patch returns a copy of databases where every alias not in blacklist, and in whitelist
// when whitelist is not empty, has its engine moved to InnerEngine and replaced by the
// shareddb engine. The input is not modified.
func Patch(databases map[string]config.Database, whitelist, blacklist []string) map[string]config.Database {
	patched := make(map[string]config.Database, len(databases))
	for alias, db := range databases {
		if selected(alias, whitelist, blacklist) && db.Engine != EngineSharedDB {
			db.InnerEngine = db.Engine
			db.Engine = EngineSharedDB
		}
		patched[alias] = db
	}
	return patched
}

func selected(alias string, whitelist, blacklist []string) bool {
	if slices.Contains(blacklist, alias) {
		return false
	}
	return len(whitelist) == 0 || slices.Contains(whitelist, alias)
}

// Resolve returns the driver to open for db and whether calls must be delegated.
func Resolve(alias string, db config.Database) (driver string, delegated bool, err error) {
	engine := db.Engine
	if engine == EngineSharedDB {
		if db.InnerEngine == "" {
			return "", false, srvErrors.NewImproperlyConfiguredError("database %q uses the %s engine without an inner engine", alias, EngineSharedDB)
		}
		engine, delegated = db.InnerEngine, true
	}

	switch engine {
	case EngineDuckDB, EngineSQLite:
		return engine, delegated, nil
	case EngineSharedDB:
		return "", false, srvErrors.NewImproperlyConfiguredError("database %q cannot nest the %s engine", alias, EngineSharedDB)
	default:
		return "", false, srvErrors.NewImproperlyConfiguredError("database %q uses unknown engine %q", alias, engine)
	}
}

// Package config defines the configuration structure for shareddb.
//
// Configuration is organized into logical sections and filled from three layers, last one
// wins: struct defaults (creasty/defaults), an optional YAML file, and SHAREDDB_* environment
// variables or command line flags bound through viper.
//
// # Configuration Structure
//
//	Configuration
//	├── Server         - HTTP server settings
//	├── Databases      - Aliased databases (alias → engine, inner engine, DSN)
//	├── Delegation     - Which aliases are wrapped by the shareddb engine
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Server Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode       │ "dev"   │ Server mode: "prod" or "dev"           │
//	│ HTTPPort         │ 8000    │ HTTP server listen port                │
//	│ ShutdownTimeout  │ 10s     │ Graceful shutdown deadline             │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Database Configuration
//
//	┌─────────────┬────────────┬─────────────────────────────────────────────┐
//	│ Field       │ Default    │ Description                                 │
//	├─────────────┼────────────┼─────────────────────────────────────────────┤
//	│ Engine      │ "duckdb"   │ duckdb, sqlite3 or shareddb                 │
//	│ InnerEngine │ ""         │ Real driver when Engine is shareddb         │
//	│ DSN         │ ":memory:" │ Data source name (hidden in debug output)   │
//	└─────────────┴────────────┴─────────────────────────────────────────────┘
//
// When no database is configured a "default" alias with the defaults above is added.
//
// # Delegation Configuration
//
//	┌───────────┬─────────┬──────────────────────────────────────────────────┐
//	│ Field     │ Default │ Description                                      │
//	├───────────┼─────────┼──────────────────────────────────────────────────┤
//	│ Whitelist │ []      │ Aliases to delegate; empty means every alias     │
//	│ Blacklist │ []      │ Aliases never delegated                          │
//	└───────────┴─────────┴──────────────────────────────────────────────────┘
//
// The rewrite itself is done by internal/settings.Patch.
//
// # Example
//
//	server:
//	  mode: dev
//	  http_port: 8000
//	databases:
//	  default:
//	    engine: duckdb
//	    dsn: /var/lib/shareddb/data.duckdb
//	  cache:
//	    engine: sqlite3
//	    dsn: "file::memory:?cache=shared"
//	delegation:
//	  blacklist: [cache]
//	log_level: info
//
// # Debug Logging
//
// DebugMap returns a map suitable for structured logging with the DSNs masked:
//
//	zap.S().Infow("configuration loaded", "config", cfg.DebugMap())
package config

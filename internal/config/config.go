package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

const (
	ServerModeDev  = "dev"
	ServerModeProd = "prod"
)

type Configuration struct {
	Server     Server              `mapstructure:"server" debugmap:"visible"`
	Databases  map[string]Database `mapstructure:"databases" debugmap:"visible"`
	Delegation Delegation          `mapstructure:"delegation" debugmap:"visible"`
	LogFormat  string              `mapstructure:"log_format" default:"console" debugmap:"visible"`
	LogLevel   string              `mapstructure:"log_level" default:"debug" debugmap:"visible"`
}

type Server struct {
	ServerMode      string        `mapstructure:"mode" default:"dev" debugmap:"visible"`
	HTTPPort        int           `mapstructure:"http_port" default:"8000" debugmap:"visible"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"10s" debugmap:"visible"`
}

// Database describes one aliased database. Engine "shareddb" delegates every call to a
// single worker and opens InnerEngine underneath.
type Database struct {
	Engine      string `mapstructure:"engine" default:"duckdb" debugmap:"visible"`
	InnerEngine string `mapstructure:"inner_engine" debugmap:"visible"`
	DSN         string `mapstructure:"dsn" default:":memory:" debugmap:"hidden"`
}

// Delegation selects which aliases are wrapped by the shareddb engine.
// An empty Whitelist selects every alias not in Blacklist.
type Delegation struct {
	Whitelist []string `mapstructure:"whitelist" debugmap:"visible"`
	Blacklist []string `mapstructure:"blacklist" debugmap:"visible"`
}

const DefaultAlias = "default"

func NewConfigurationWithDefaults() (*Configuration, error) {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set configuration defaults: %w", err)
	}
	cfg.Databases = map[string]Database{}
	return cfg, nil
}

// Load reads the configuration from v, fills missing values with defaults and makes sure a
// "default" alias exists.
func Load(v *viper.Viper) (*Configuration, error) {
	cfg, err := NewConfigurationWithDefaults()
	if err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.Databases == nil {
		cfg.Databases = map[string]Database{}
	}
	if len(cfg.Databases) == 0 {
		cfg.Databases[DefaultAlias] = Database{}
	}
	for alias, db := range cfg.Databases {
		if err := defaults.Set(&db); err != nil {
			return nil, fmt.Errorf("failed to set defaults for database %q: %w", alias, err)
		}
		cfg.Databases[alias] = db
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) Validate() error {
	switch c.Server.ServerMode {
	case ServerModeDev, ServerModeProd:
	default:
		return fmt.Errorf("invalid server mode %q: must be %q or %q", c.Server.ServerMode, ServerModeDev, ServerModeProd)
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.Server.HTTPPort)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be console or json", c.LogFormat)
	}
	return nil
}

// Aliases returns the configured database aliases, sorted.
func (c *Configuration) Aliases() []string {
	aliases := make([]string, 0, len(c.Databases))
	for alias := range c.Databases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// DebugMap returns the configuration for logging, without hidden values.
func (c *Configuration) DebugMap() map[string]any {
	dbs := make(map[string]any, len(c.Databases))
	for alias, db := range c.Databases {
		dbs[alias] = map[string]any{
			"engine":       db.Engine,
			"inner_engine": db.InnerEngine,
			"dsn":          "(hidden)",
		}
	}
	return map[string]any{
		"server": map[string]any{
			"mode":             c.Server.ServerMode,
			"http_port":        c.Server.HTTPPort,
			"shutdown_timeout": c.Server.ShutdownTimeout.String(),
		},
		"databases": dbs,
		"delegation": map[string]any{
			"whitelist": c.Delegation.Whitelist,
			"blacklist": c.Delegation.Blacklist,
		},
		"log_format": c.LogFormat,
		"log_level":  c.LogLevel,
	}
}

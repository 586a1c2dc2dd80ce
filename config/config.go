// Package config loads the peerwire YAML configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/types"
)

const (
	defaultLogLevel           = "warn"
	defaultSnowflakeTimeout   = 60 * time.Second
	defaultAthenaCatalog      = "AwsDataCatalog"
	defaultAthenaWorkgroup    = "primary"
	defaultAthenaWaitInterval = 1 * time.Second
)

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Athena    AthenaConfig    `yaml:"athena"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// CatalogConfig selects where peers come from: a postgres catalog database when DSN is
// set, otherwise the inline Peers.
type CatalogConfig struct {
	DSN   string        `yaml:"dsn"`
	Peers []*types.Peer `yaml:"peers"`
}

// SnowflakeConfig holds connection defaults for snowflake peers. Peer options take
// precedence over these values.
type SnowflakeConfig struct {
	Account        string        `yaml:"account"`
	User           string        `yaml:"user"`
	PrivateKeyPath string        `yaml:"private_key_path"`
	Endpoint       string        `yaml:"endpoint"`
	Warehouse      string        `yaml:"warehouse"`
	Database       string        `yaml:"database"`
	Schema         string        `yaml:"schema"`
	Role           string        `yaml:"role"`
	Timeout        time.Duration `yaml:"timeout"`
}

// AthenaConfig holds connection defaults for athena peers.
type AthenaConfig struct {
	Region       string        `yaml:"region"`
	Workgroup    string        `yaml:"workgroup"`
	Database     string        `yaml:"database"`
	Catalog      string        `yaml:"catalog"`
	WaitInterval time.Duration `yaml:"wait_interval"`
}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for configuration already in memory.
func Parse(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Snowflake.Timeout == 0 {
		cfg.Snowflake.Timeout = defaultSnowflakeTimeout
	}
	if cfg.Athena.Catalog == "" {
		cfg.Athena.Catalog = defaultAthenaCatalog
	}
	if cfg.Athena.Workgroup == "" {
		cfg.Athena.Workgroup = defaultAthenaWorkgroup
	}
	if cfg.Athena.WaitInterval == 0 {
		cfg.Athena.WaitInterval = defaultAthenaWaitInterval
	}
	for _, peer := range cfg.Catalog.Peers {
		if peer != nil && peer.Options == nil {
			peer.Options = map[string]string{}
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if _, ok := peerwire.ParseLogLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	if c.Catalog.DSN != "" && len(c.Catalog.Peers) > 0 {
		errs = append(errs, "catalog.dsn and catalog.peers are mutually exclusive")
	}
	seen := make(map[string]bool, len(c.Catalog.Peers))
	for i, peer := range c.Catalog.Peers {
		switch {
		case peer == nil || peer.Name == "":
			errs = append(errs, fmt.Sprintf("catalog.peers[%d].name is required", i))
			continue
		case !peer.Type.Valid():
			errs = append(errs, fmt.Sprintf("catalog.peers[%d].type %q is not supported", i, peer.Type))
		}
		if seen[peer.Name] {
			errs = append(errs, fmt.Sprintf("catalog.peers[%d].name %q is duplicated", i, peer.Name))
		}
		seen[peer.Name] = true
	}

	if c.Snowflake.Timeout < 0 {
		errs = append(errs, "snowflake.timeout must not be negative")
	}
	if c.Snowflake.User != "" && c.Snowflake.Account == "" && c.Snowflake.Endpoint == "" {
		errs = append(errs, "snowflake.account or snowflake.endpoint is required when snowflake.user is set")
	}
	if c.Athena.WaitInterval < 0 {
		errs = append(errs, "athena.wait_interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

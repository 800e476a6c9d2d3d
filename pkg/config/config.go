// Package config loads the formengine YAML configuration and applies
// FORMENGINE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/persistence"
	"github.com/goliatone/go-formengine/pkg/provider"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMENGINE_"

// Persistence backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Provider    Provider    `yaml:"provider"`
	Persistence Persistence `yaml:"persistence"`
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
	Render      Render      `yaml:"render"`
}

// Provider selects where forms come from. When Forms is set the catalog is
// read from that file or URL instead of the remote provider.
type Provider struct {
	BaseURL   string        `yaml:"baseURL"`
	Timeout   time.Duration `yaml:"timeout"`
	Normalize bool          `yaml:"normalize"`
	Forms     string        `yaml:"forms"`
}

type Persistence struct {
	Backend   string        `yaml:"backend"`
	Path      string        `yaml:"path"`
	RedisAddr string        `yaml:"redisAddr"`
	KeyPrefix string        `yaml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// Server configures the reference provider. Options maps an endpoint path
// to dependency values and their option lists.
type Server struct {
	Addr    string                         `yaml:"addr"`
	Title   string                         `yaml:"title"`
	Columns []string                       `yaml:"columns"`
	Options map[string]map[string][]string `yaml:"options"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Render configures the renderers. Translations names a YAML file mapping
// locale to message key to text.
type Render struct {
	Locale       string `yaml:"locale"`
	Theme        string `yaml:"theme"`
	Variant      string `yaml:"variant"`
	Stylesheet   string `yaml:"stylesheet"`
	Translations string `yaml:"translations"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Provider: Provider{
			BaseURL:   provider.DefaultBaseURL,
			Timeout:   provider.DefaultTimeout,
			Normalize: true,
		},
		Persistence: Persistence{
			Backend:   BackendMemory,
			KeyPrefix: persistence.DefaultKeyPrefix,
			TTL:       persistence.DefaultTTL,
		},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info", Format: "console"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FORMENGINE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("PROVIDER_BASE_URL", &c.Provider.BaseURL)
	str("FORMS", &c.Provider.Forms)
	str("PERSISTENCE_BACKEND", &c.Persistence.Backend)
	str("PERSISTENCE_PATH", &c.Persistence.Path)
	str("REDIS_ADDR", &c.Persistence.RedisAddr)
	str("KEY_PREFIX", &c.Persistence.KeyPrefix)
	str("SERVER_ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOCALE", &c.Render.Locale)
	str("THEME", &c.Render.Theme)

	if v, ok := lookup(EnvPrefix + "NORMALIZE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sNORMALIZE: %w", EnvPrefix, err)
		}
		c.Provider.Normalize = b
	}
	return errors.Join(
		dur("PROVIDER_TIMEOUT", &c.Provider.Timeout),
		dur("PERSISTENCE_TTL", &c.Persistence.TTL),
	)
}

// Validate reports unusable settings.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Persistence.Backend) {
	case BackendNone, BackendMemory, "":
	case BackendFile, BackendSQLite:
		if c.Persistence.Path == "" {
			errs = append(errs, fmt.Errorf("config: persistence.path is required for the %s backend", c.Persistence.Backend))
		}
	case BackendRedis:
		if c.Persistence.RedisAddr == "" {
			errs = append(errs, errors.New("config: persistence.redisAddr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown persistence backend %q", c.Persistence.Backend))
	}
	if c.Provider.Timeout < 0 {
		errs = append(errs, errors.New("config: provider.timeout must not be negative"))
	}
	if c.Persistence.TTL < 0 {
		errs = append(errs, errors.New("config: persistence.ttl must not be negative"))
	}
	return errors.Join(errs...)
}

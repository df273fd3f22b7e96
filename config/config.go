package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"novalite/logger"
)

const (
	BackendFile = "file"
	BackendMem  = "mem"
)

// Config is everything needed to open a database.
type Config struct {
	Path        string      `mapstructure:"path"`
	Backend     string      `mapstructure:"backend"`
	SyncOnWrite bool        `mapstructure:"sync_on_write"`
	Cache       CacheConfig `mapstructure:"cache"`
	Log         LogConfig   `mapstructure:"log"`
}

// CacheConfig sizes the page cache in front of the pager. Zero pages disables it.
type CacheConfig struct {
	Pages  int    `mapstructure:"pages"`
	Policy string `mapstructure:"policy"` // clock, lru
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

func (c LogConfig) Logger() logger.Config {
	return logger.Config{
		Level:     c.Level,
		Format:    c.Format,
		AddSource: c.AddSource,
	}
}

// Default returns a config with every default applied and no path set.
func Default() Config {
	return Config{
		Backend: BackendFile,
		Cache: CacheConfig{
			Policy: "clock",
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load reads configuration from the optional file and from environment variables starting with prefix, in this order
// of increasing precedence. With prefix "NOVALITE", NOVALITE_LOG_LEVEL overrides log.level and NOVALITE_SYNC_ON_WRITE
// overrides sync_on_write. The result is validated before it is returned.
func Load(prefix string, file string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("path", def.Path)
	v.SetDefault("backend", def.Backend)
	v.SetDefault("sync_on_write", def.SyncOnWrite)
	v.SetDefault("cache.pages", def.Cache.Pages)
	v.SetDefault("cache.policy", def.Cache.Policy)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.add_source", def.Log.AddSource)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config file %s", file)
		}
	}

	// AutomaticEnv only resolves keys viper already knows, every key has a default above.
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Path == "" {
			return fmt.Errorf("path is required for %q backend", BackendFile)
		}
	case BackendMem:
	default:
		return fmt.Errorf("unknown backend %q, want %q or %q", c.Backend, BackendFile, BackendMem)
	}

	if c.Cache.Pages < 0 {
		return fmt.Errorf("cache pages %d can not be negative", c.Cache.Pages)
	}
	if c.Cache.Policy != "clock" && c.Cache.Policy != "lru" {
		return fmt.Errorf("unknown cache policy %q", c.Cache.Policy)
	}

	return nil
}

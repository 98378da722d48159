// Package config loads the sheaf CLI configuration from sheaf.yaml and
// SHEAF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aretw0/sheaf/internal/platform"
)

// FileName is the base name of the configuration file.
const FileName = "sheaf"

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Notes   NotesConfig   `mapstructure:"notes"`
	History HistoryConfig `mapstructure:"history"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the configuration file that was read, empty when none.
	File string `mapstructure:"-"`
}

type StoreConfig struct {
	Adapter       string  `mapstructure:"adapter"`
	Path          string  `mapstructure:"path"`
	Key           string  `mapstructure:"key"`
	Quota         int64   `mapstructure:"quota"`
	Versioning    bool    `mapstructure:"versioning"`
	EvictFraction float64 `mapstructure:"evict_fraction"`
	DevSafety     bool    `mapstructure:"dev_safety"`
}

type NotesConfig struct {
	DefaultToggles int `mapstructure:"default_toggles"`
}

type HistoryConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

type EditorConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.adapter", platform.AdapterFS)
	v.SetDefault("store.path", "")
	v.SetDefault("store.key", "notes")
	v.SetDefault("store.quota", 0)
	v.SetDefault("store.versioning", false)
	v.SetDefault("store.evict_fraction", 0.2)
	v.SetDefault("store.dev_safety", true)
	v.SetDefault("notes.default_toggles", 3)
	v.SetDefault("history.max_size", 100)
	v.SetDefault("editor.debounce", "500ms")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.encoding", "console")
}

// Load reads the configuration. When path is empty, sheaf.yaml is looked up
// in the working directory and the user config directory; a missing file is
// not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHEAF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "sheaf"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Store.Adapter {
	case platform.AdapterFS, platform.AdapterSQLite, platform.AdapterMemory:
	default:
		return fmt.Errorf("store.adapter: unknown adapter %q", c.Store.Adapter)
	}
	if c.Store.Quota < 0 {
		return fmt.Errorf("store.quota must not be negative")
	}
	if c.Store.EvictFraction <= 0 || c.Store.EvictFraction > 1 {
		return fmt.Errorf("store.evict_fraction must be in (0, 1], got %v", c.Store.EvictFraction)
	}
	if c.Notes.DefaultToggles < 1 {
		return fmt.Errorf("notes.default_toggles must be at least 1")
	}
	if c.History.MaxSize < 1 {
		return fmt.Errorf("history.max_size must be at least 1")
	}
	if c.Editor.Debounce <= 0 {
		return fmt.Errorf("editor.debounce must be positive")
	}
	return nil
}

// PlatformOptions maps the configuration onto store options.
func (c *Config) PlatformOptions() []platform.Option {
	return []platform.Option{
		platform.WithAdapter(c.Store.Adapter),
		platform.WithKey(c.Store.Key),
		platform.WithQuota(c.Store.Quota),
		platform.WithVersioning(c.Store.Versioning),
		platform.WithEvictFraction(c.Store.EvictFraction),
		platform.WithDevSafety(c.Store.DevSafety),
		platform.WithDefaultToggles(c.Notes.DefaultToggles),
		platform.WithHistorySize(c.History.MaxSize),
		platform.WithDebounce(c.Editor.Debounce),
	}
}

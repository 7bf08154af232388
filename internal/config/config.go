// Package config handles the bibhtml configuration file and the data
// directory layout.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmbios/bibhtml/internal/category"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/bibhtml/config.yml.
type Config struct {
	LinkBase       string         `yaml:"link_base,omitempty" json:"link_base"`
	CategoriesFile string         `yaml:"categories_file,omitempty" json:"categories_file,omitempty"`
	Categories     category.Table `yaml:"categories,omitempty" json:"categories,omitempty"`
	DataDir        string         `yaml:"data_dir,omitempty" json:"data_dir"`
	Workers        int            `yaml:"workers,omitempty" json:"workers"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME and XDG_DATA_HOME.
	ConfigDir = "bibhtml"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	RefsFile = "refs.jsonl"
	DBFile   = "refs.db"

	DefaultLinkBase = "http://mmbios.org"
)

// Environment variables that override the config file.
const (
	EnvLinkBase = "BIBHTML_LINK_BASE"
	EnvDataDir  = "BIBHTML_DATA_DIR"
)

// ErrConfigNotFound is returned when an explicitly selected config file is missing.
var ErrConfigNotFound = errors.New("config file not found")

var (
	// configCache caches the loaded config.
	configCache *Config
	// pathOverride replaces the default config path when set.
	pathOverride string
)

// Path returns the path to the config file. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/bibhtml/config.yml.
func Path() string {
	if pathOverride != "" {
		return pathOverride
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// SetPath selects a config file other than the default and clears the cache.
func SetPath(path string) {
	pathOverride = path
	configCache = nil
}

// Load loads the configuration. A missing default config file gives the
// defaults; a missing file selected with SetPath is an error.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	cfg := &Config{}
	path := Path()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		case os.IsNotExist(err) && pathOverride == "":
		case os.IsNotExist(err):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configCache = cfg
	return cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLinkBase); v != "" {
		c.LinkBase = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
}

func (c *Config) applyDefaults() {
	if c.LinkBase == "" {
		c.LinkBase = DefaultLinkBase
	}
	c.LinkBase = strings.TrimSuffix(c.LinkBase, "/")
	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}
	c.DataDir = ExpandPath(c.DataDir)
	c.CategoriesFile = ExpandPath(c.CategoriesFile)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d (must be >= 0)", c.Workers)
	}
	if c.Categories != nil {
		if err := c.Categories.Validate(); err != nil {
			return fmt.Errorf("config categories: %w", err)
		}
	}
	return nil
}

// CategoryTable returns the default category table merged with the
// categories file and then the inline categories.
func (c *Config) CategoryTable() (category.Table, error) {
	table := category.Default()
	if c.CategoriesFile != "" {
		fromFile, err := category.LoadFile(c.CategoriesFile)
		if err != nil {
			return nil, err
		}
		table = table.Merge(fromFile)
	}
	if len(c.Categories) > 0 {
		table = table.Merge(c.Categories)
	}
	return table, nil
}

// RefsPath returns the path to the references JSONL file.
func (c *Config) RefsPath() string {
	return filepath.Join(c.DataDir, RefsFile)
}

// DBPath returns the path to the search index.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFile)
}

// defaultDataDir respects XDG_DATA_HOME, defaulting to ~/.local/share/bibhtml.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ConfigDir
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, ConfigDir)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// HelpfulConfigMessage explains where the config file lives.
func HelpfulConfigMessage() string {
	configPath := Path()
	return fmt.Sprintf(`Tip: create %s to change defaults:
  mkdir -p %s
  echo 'link_base: http://mmbios.org' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}

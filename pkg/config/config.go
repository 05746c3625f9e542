package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"lab47.dev/recipe/pkg/descriptor"
)

type Config struct {
	path string

	// CITag is only ever read from CI_COMMIT_TAG, or set by the caller.
	CITag string `json:"-"`

	// Actual Config
	CacheDir string `json:"cache-dir"`
}

const (
	DefaultConfigPath = "~/.config/recipe/config.json"
	DefaultCacheDir   = "~/.cache/recipe"

	CITagVar    = "CI_COMMIT_TAG"
	ConfigVar   = "RECIPE_CONFIG"
	CacheDirVar = "RECIPE_CACHE_DIR"
)

// Getenv is the lookup used to read the process environment.
type Getenv func(key string) string

func LoadConfig() (*Config, error) {
	return Load(os.Getenv)
}

// Load reads the config file, if any, and applies environment overrides
// read through getenv.
func Load(getenv Getenv) (*Config, error) {
	path := getenv(ConfigVar)
	if path == "" {
		p, err := homedir.Expand(DefaultConfigPath)
		if err != nil {
			return nil, err
		}

		path = p
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	return updateFromEnv(cfg, getenv)
}

func loadFile(path string) (*Config, error) {
	cfg := &Config{path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return withDefaults(cfg)
		}

		return nil, errors.Wrapf(err, "opening config %s", path)
	}

	defer f.Close()

	err = json.NewDecoder(f).Decode(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}

	return withDefaults(cfg)
}

func withDefaults(cfg *Config) (*Config, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}

	dir, err := homedir.Expand(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	cfg.CacheDir = dir

	return cfg, nil
}

func updateFromEnv(cfg *Config, getenv Getenv) (*Config, error) {
	cfg.CITag = getenv(CITagVar)

	if path := getenv(CacheDirVar); path != "" {
		fi, err := os.Stat(path)
		if err == nil && !fi.IsDir() {
			return nil, errors.Errorf("path is not a directory: %s", path)
		}

		cfg.CacheDir = path
	}

	return cfg, nil
}

func (c *Config) Path() string {
	return c.path
}

// Env returns the values handed to recipes.
func (c *Config) Env() descriptor.Env {
	return descriptor.Env{CICommitTag: c.CITag}
}

// SourcesPath is where fetched sources are placed by default.
func (c *Config) SourcesPath() string {
	return filepath.Join(c.CacheDir, "sources")
}

// SumsPath is the file recording hashes of fetched archives.
func (c *Config) SumsPath() string {
	return filepath.Join(c.CacheDir, "sums")
}

// Package config manages the YAML/TOML configuration file and the set of
// named query roots.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Root is a directory served under an alias. With GitRef set, queries read the
// tree of that ref instead of the working copy.
type Root struct {
	Path   string `yaml:"path" toml:"path" json:"path"`
	Alias  string `yaml:"alias" toml:"alias" json:"alias"`
	GitRef string `yaml:"git_ref,omitempty" toml:"git_ref,omitempty" json:"git_ref,omitempty"`
}

// Config holds all configuration options for pathquery
type Config struct {
	Roots []Root `yaml:"roots,omitempty" toml:"roots,omitempty" json:"roots"`

	Port     int      `yaml:"port" toml:"port" json:"port"`
	Watch    bool     `yaml:"watch" toml:"watch" json:"watch"`
	Suffixes []string `yaml:"suffixes" toml:"suffixes" json:"suffixes"`
	Ancestor string   `yaml:"ancestor,omitempty" toml:"ancestor,omitempty" json:"ancestor,omitempty"`
	Exclude  []string `yaml:"exclude" toml:"exclude" json:"exclude"`
	LogLevel string   `yaml:"log_level" toml:"log_level" json:"log_level"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:     8080,
		Watch:    true,
		Suffixes: []string{".md"},
		Exclude:  []string{"node_modules", ".git", ".svn"},
		LogLevel: "info",
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/pathquery"
	}
	return filepath.Join(home, ".config", "pathquery")
}

// GetConfigPath returns the full path to the default config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load reads the configuration. An explicit path must exist; otherwise
// ~/.config/pathquery/config.yaml and then ./pathquery.yaml are tried, and
// defaults are used when neither is present.
func Load(explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	cfgPath := explicitPath
	if cfgPath == "" {
		for _, candidate := range []string{GetConfigPath(), "pathquery.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				cfgPath = candidate
				break
			}
		}
	}

	if cfgPath == "" {
		cfg.configPath = GetConfigPath()
		return cfg, nil
	}

	if err := cfg.loadFromFile(cfgPath); err != nil {
		if explicitPath != "" {
			return nil, fmt.Errorf("loading config %s: %w", cfgPath, err)
		}
		// A broken implicit config falls back to defaults.
		cfg = DefaultConfig()
	}
	cfg.configPath = cfgPath
	cfg.normalizeRoots()

	return cfg, nil
}

// normalizeRoots resolves root paths to absolute and fills in missing aliases.
func (c *Config) normalizeRoots() {
	for i := range c.Roots {
		if absPath, err := filepath.Abs(c.Roots[i].Path); err == nil {
			c.Roots[i].Path = absPath
		}
		if c.Roots[i].Alias == "" {
			c.Roots[i].Alias = defaultAlias(c.Roots[i].Path, c.Roots[i].GitRef)
		}
	}
}

func defaultAlias(path, gitRef string) string {
	alias := filepath.Base(path)
	if gitRef != "" {
		alias += "@" + gitRef
	}
	return alias
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isTOML(path) {
		return toml.Unmarshal(data, c)
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) marshal() ([]byte, error) {
	if isTOML(c.configPath) {
		return toml.Marshal(c)
	}
	return yaml.Marshal(c)
}

// Save writes the configuration back to its file under an exclusive lock.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config has no file path")
	}
	data, err := c.marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return lockAndWrite(c.configPath, data)
}

// SetConfigFilePath sets the file Save writes to.
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// AddRoot adds a root for path. Adding the same path and ref twice is a no-op.
// Aliases must be unique.
func (c *Config) AddRoot(path, alias, gitRef string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for _, r := range c.Roots {
		if r.Path == absPath && r.GitRef == gitRef {
			return nil
		}
	}

	if alias == "" {
		alias = defaultAlias(absPath, gitRef)
	}
	if strings.ContainsAny(alias, `/\`) || alias == "." || alias == ".." {
		return fmt.Errorf("invalid alias %q", alias)
	}
	if _, ok := c.RootByAlias(alias); ok {
		return fmt.Errorf("alias %q already in use", alias)
	}

	c.Roots = append(c.Roots, Root{
		Path:   absPath,
		Alias:  alias,
		GitRef: gitRef,
	})
	return nil
}

// RemoveRootByIndex removes a root by its index
func (c *Config) RemoveRootByIndex(index int) bool {
	if index < 0 || index >= len(c.Roots) {
		return false
	}
	c.Roots = append(c.Roots[:index], c.Roots[index+1:]...)
	return true
}

// RootByAlias returns the root registered under alias.
func (c *Config) RootByAlias(alias string) (Root, bool) {
	for _, r := range c.Roots {
		if r.Alias == alias {
			return r, true
		}
	}
	return Root{}, false
}

// IsExcluded reports whether the final element of path matches an exclude pattern
func (c *Config) IsExcluded(path string) bool {
	base := filepath.Base(path)
	for _, exclude := range c.Exclude {
		if matched, _ := filepath.Match(exclude, base); matched {
			return true
		}
	}
	return false
}

// HasWatchedSuffix reports whether the final element of path ends with one of
// the watched suffixes.
func (c *Config) HasWatchedSuffix(path string) bool {
	base := filepath.Base(path)
	for _, s := range c.Suffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}

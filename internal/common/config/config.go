package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/obentoo/template-sync/internal/common/provider"
)

var (
	ErrTemplateNotSet = errors.New("template repository is not configured: pass --remote-url, --template or set TEMPLATE_PATH")
)

// Defaults applied before any configuration source
const (
	DefaultBranch = "main"
	DefaultRemote = "template"
)

// Config represents the application configuration
type Config struct {
	Template  TemplateConfig                      `yaml:"template"`
	Apply     ApplyConfig                         `yaml:"apply"`
	Templates map[string]*provider.RepositoryInfo `yaml:"templates,omitempty"`
}

// TemplateConfig selects the template repository to sync from
type TemplateConfig struct {
	URL    string `yaml:"url"`              // URL, path or name of a configured template
	Branch string `yaml:"branch,omitempty"` // Template branch (default: main)
	Remote string `yaml:"remote"`           // Temporary remote name
}

// ApplyConfig holds settings of the apply step
type ApplyConfig struct {
	Strict           bool   `yaml:"strict"`                    // Fail when a replay leaves nothing to commit
	IgnoreWhitespace bool   `yaml:"ignore_whitespace"`         // Cherry-pick with -X ignore-all-space
	PackageManager   string `yaml:"package_manager,omitempty"` // npm, yarn, pnpm, bun, go; detected when empty
	InstallCommand   string `yaml:"install_command,omitempty"` // Custom template, e.g. "npm i {package}@{version}"
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Template: TemplateConfig{
			Remote: DefaultRemote,
		},
		Apply: ApplyConfig{
			IgnoreWhitespace: true,
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/template-sync/config.yaml (XDG standard - priority)
// 2. ~/.template-sync/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "template-sync", "config.yaml"),
		filepath.Join(home, ".template-sync", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// No config exists, return default (XDG) path for creation
	return paths[0], nil
}

// Load reads configuration from the first available config file
// Priority: ~/.config/template-sync/config.yaml > ~/.template-sync/config.yaml
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file is created with the defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, err
	}

	// Keys missing from the file keep their defaults
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to the config file Load reads, creating the
// XDG file when none exists
func (c *Config) Save() error {
	configPath, err := FindConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// TemplateRepository resolves Template.URL, which may name one of the
// configured templates, into the repository to fetch.
// The branch falls back to the named template's branch, then to main.
func (c *Config) TemplateRepository() (*provider.RepositoryInfo, error) {
	if c.Template.URL == "" {
		return nil, ErrTemplateNotSet
	}

	repo, err := provider.ResolveTemplate(c.Template.URL, c.Templates)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Template.Branch != "":
		repo.Branch = c.Template.Branch
	case repo.Branch == "":
		repo.Branch = DefaultBranch
	}
	return repo, nil
}

// RemoteName returns the configured remote name or the default
func (c *Config) RemoteName() string {
	if c.Template.Remote == "" {
		return DefaultRemote
	}
	return c.Template.Remote
}

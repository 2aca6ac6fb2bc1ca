package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ProjectFile is the per-repository configuration file name
const ProjectFile = ".template-sync.toml"

// Environment variables read by ApplyEnv
const (
	EnvTemplatePath   = "TEMPLATE_PATH"
	EnvTemplateBranch = "TEMPLATE_BRANCH"
	EnvTemplateRemote = "TEMPLATE_REMOTE"
)

// projectFile mirrors .template-sync.toml
type projectFile struct {
	Template struct {
		URL    string `toml:"url"`
		Branch string `toml:"branch"`
		Remote string `toml:"remote"`
	} `toml:"template"`
	Apply struct {
		Strict           bool   `toml:"strict"`
		IgnoreWhitespace bool   `toml:"ignore_whitespace"`
		PackageManager   string `toml:"package_manager"`
		InstallCommand   string `toml:"install_command"`
	} `toml:"apply"`
}

// ApplyProject merges the project file in dir onto c. Only keys present in
// the file override c. Reports whether a project file was found.
func (c *Config) ApplyProject(dir string) (bool, error) {
	path := filepath.Join(dir, ProjectFile)

	var pf projectFile
	md, err := toml.DecodeFile(path, &pf)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}

	if pf.Template.URL != "" {
		c.Template.URL = pf.Template.URL
	}
	if pf.Template.Branch != "" {
		c.Template.Branch = pf.Template.Branch
	}
	if pf.Template.Remote != "" {
		c.Template.Remote = pf.Template.Remote
	}
	if md.IsDefined("apply", "strict") {
		c.Apply.Strict = pf.Apply.Strict
	}
	if md.IsDefined("apply", "ignore_whitespace") {
		c.Apply.IgnoreWhitespace = pf.Apply.IgnoreWhitespace
	}
	if pf.Apply.PackageManager != "" {
		c.Apply.PackageManager = pf.Apply.PackageManager
	}
	if pf.Apply.InstallCommand != "" {
		c.Apply.InstallCommand = pf.Apply.InstallCommand
	}

	return true, nil
}

// WriteProjectFile writes a project file for the template settings of c
func (c *Config) WriteProjectFile(dir string) (string, error) {
	var pf projectFile
	pf.Template.URL = c.Template.URL
	pf.Template.Branch = c.Template.Branch
	pf.Template.Remote = c.Template.Remote
	pf.Apply.Strict = c.Apply.Strict
	pf.Apply.IgnoreWhitespace = c.Apply.IgnoreWhitespace
	pf.Apply.PackageManager = c.Apply.PackageManager
	pf.Apply.InstallCommand = c.Apply.InstallCommand

	path := filepath.Join(dir, ProjectFile)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(pf); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// LoadDotEnv loads dir/.env into the process environment.
// Variables already set in the environment win over the file.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides c with TEMPLATE_PATH, TEMPLATE_BRANCH and TEMPLATE_REMOTE
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvTemplatePath); v != "" {
		c.Template.URL = v
	}
	if v := os.Getenv(EnvTemplateBranch); v != "" {
		c.Template.Branch = v
	}
	if v := os.Getenv(EnvTemplateRemote); v != "" {
		c.Template.Remote = v
	}
}

// Overrides carries command line flags; zero values leave c unchanged
type Overrides struct {
	URL                string
	Template           string
	Branch             string
	Remote             string
	PackageManager     string
	InstallCommand     string
	Strict             bool
	NoIgnoreWhitespace bool
}

// ApplyOverrides applies command line flags to c
func (c *Config) ApplyOverrides(o Overrides) {
	switch {
	case o.URL != "":
		c.Template.URL = o.URL
	case o.Template != "":
		c.Template.URL = o.Template
	}
	if o.Branch != "" {
		c.Template.Branch = o.Branch
	}
	if o.Remote != "" {
		c.Template.Remote = o.Remote
	}
	if o.PackageManager != "" {
		c.Apply.PackageManager = o.PackageManager
	}
	if o.InstallCommand != "" {
		c.Apply.InstallCommand = o.InstallCommand
	}
	if o.Strict {
		c.Apply.Strict = true
	}
	if o.NoIgnoreWhitespace {
		c.Apply.IgnoreWhitespace = false
	}
}

// Resolve layers the configuration sources for the repository in dir:
// flags > environment (including dir/.env) > dir/.template-sync.toml >
// user config file > defaults
func Resolve(user *Config, dir string, o Overrides) (*Config, error) {
	cfg := Default()
	if user != nil {
		cfg.Template = user.Template
		cfg.Apply = user.Apply
		cfg.Templates = user.Templates
	}

	if _, err := cfg.ApplyProject(dir); err != nil {
		return nil, err
	}
	if err := LoadDotEnv(dir); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.ApplyOverrides(o)

	return cfg, nil
}

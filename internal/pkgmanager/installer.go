// Package pkgmanager installs dependency updates carried by template bump
// commits through the project's package manager.
package pkgmanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"

	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/obentoo/template-sync/internal/upstream"
)

var (
	// ErrEmptyCommand is returned when an install template has no program
	ErrEmptyCommand = errors.New("install command is empty")
	// ErrUnknownManager is returned for a preset name that does not exist
	ErrUnknownManager = errors.New("unknown package manager")
	// ErrInstallFailed is returned when the install command exits non-zero
	ErrInstallFailed = errors.New("install command failed")
)

// Placeholders substituted in every argument of an install template
const (
	PackagePlaceholder = "{package}"
	VersionPlaceholder = "{version}"
)

// Presets maps package manager names to install templates
var Presets = map[string]string{
	"npm":  "npm install {package}@{version}",
	"yarn": "yarn add {package}@{version}",
	"pnpm": "pnpm add {package}@{version}",
	"bun":  "bun add {package}@{version}",
	"go":   "go get {package}@{version}",
}

// lockFiles picks a preset from the files found in the project root,
// first match wins
var lockFiles = []struct {
	file    string
	manager string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lockb", "bun"},
	{"bun.lock", "bun"},
	{"package-lock.json", "npm"},
	{"go.mod", "go"},
}

// DefaultManager is used when no lock file identifies the project
const DefaultManager = "npm"

// Names returns the preset names in sorted order
func Names() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect returns the package manager used in dir
func Detect(dir string) string {
	for _, lf := range lockFiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return lf.manager
		}
	}
	return DefaultManager
}

// CommandInstaller runs an install command built from a template such as
// "npm install {package}@{version}"
type CommandInstaller struct {
	args   []string
	dir    string
	output io.Writer
}

// Option configures a CommandInstaller
type Option func(*CommandInstaller)

// WithOutput streams the install command's output to w
func WithOutput(w io.Writer) Option {
	return func(c *CommandInstaller) {
		c.output = w
	}
}

// NewCommandInstaller parses template and returns an installer running it in dir
func NewCommandInstaller(template, dir string, opts ...Option) (*CommandInstaller, error) {
	args, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("install command %q must be valid: %w", template, err)
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	c := &CommandInstaller{
		args:   args,
		dir:    dir,
		output: io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewPresetInstaller returns the installer for a named preset
func NewPresetInstaller(name, dir string, opts ...Option) (*CommandInstaller, error) {
	template, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownManager, name, strings.Join(Names(), ", "))
	}
	return NewCommandInstaller(template, dir, opts...)
}

// Args returns the command line for update with placeholders substituted
func (c *CommandInstaller) Args(update upstream.Update) []string {
	r := strings.NewReplacer(PackagePlaceholder, update.Package, VersionPlaceholder, update.Version)
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = r.Replace(a)
	}
	return args
}

// Install runs the install command for update
func (c *CommandInstaller) Install(ctx context.Context, update upstream.Update) error {
	args := c.Args(update)
	logger.Info("Installing %s with %s...", update, args[0])
	logger.Debug("running %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.dir
	cmd.Stdout = c.output
	cmd.Stderr = c.output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, strings.Join(args, " "), err)
	}
	return nil
}

// New returns the installer selected by an explicit command, a preset name
// or, when both are empty, the manager detected in dir
func New(command, manager, dir string, opts ...Option) (*CommandInstaller, error) {
	if command != "" {
		return NewCommandInstaller(command, dir, opts...)
	}
	if manager == "" {
		manager = Detect(dir)
		logger.Debug("detected package manager %s", manager)
	}
	return NewPresetInstaller(manager, dir, opts...)
}

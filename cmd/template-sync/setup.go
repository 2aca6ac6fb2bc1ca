package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/obentoo/template-sync/internal/common/config"
	"github.com/obentoo/template-sync/internal/common/git"
	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/obentoo/template-sync/internal/pkgmanager"
	"github.com/obentoo/template-sync/internal/ui"
	"github.com/obentoo/template-sync/internal/upstream"
)

// projectRoot returns the top level of the repository containing the working directory
func projectRoot(ctx context.Context) (*git.GitRunner, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}

	runner := git.NewGitRunner(wd, git.WithEcho(logger.Default().DebugWriter()))
	res, err := runner.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, "", fmt.Errorf("not inside a git repository: %w", err)
	}
	root := strings.TrimSpace(res.Stdout)

	return git.NewGitRunner(root, git.WithEcho(logger.Default().DebugWriter())), root, nil
}

// loadConfig resolves the configuration for the repository at root
func loadConfig(root string) (*config.Config, error) {
	user, err := config.Load()
	if err != nil {
		logger.Warn("Ignoring user config: %v", err)
	}
	return config.Resolve(user, root, overrides)
}

// newSyncer wires git, configuration, package manager and operator prompts
func newSyncer(ctx context.Context) (*upstream.Syncer, error) {
	runner, root, err := projectRoot(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}

	repo, err := cfg.TemplateRepository()
	if err != nil {
		return nil, err
	}
	url, err := repo.CloneURL()
	if err != nil {
		return nil, err
	}

	installer, err := pkgmanager.New(cfg.Apply.InstallCommand, cfg.Apply.PackageManager, root,
		pkgmanager.WithOutput(logger.Default().DebugWriter()))
	if err != nil {
		return nil, err
	}

	applier := upstream.NewApplier(runner, installer, ui.NewResolver())
	applier.Strict = cfg.Apply.Strict
	applier.IgnoreWhitespace = cfg.Apply.IgnoreWhitespace

	logger.Debug("template %s (branch %s, remote %s), strict=%v", repo.Name, repo.Branch, cfg.RemoteName(), cfg.Apply.Strict)

	return &upstream.Syncer{
		Git:      runner,
		Applier:  applier,
		Selector: ui.NewSelector(assumeYes),
		Remote:   cfg.RemoteName(),
		URL:      url,
		Branch:   repo.Branch,
	}, nil
}

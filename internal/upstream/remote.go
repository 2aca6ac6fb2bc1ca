package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/obentoo/template-sync/internal/common/git"
	"github.com/obentoo/template-sync/internal/common/logger"
)

// DefaultRemote is the remote name used for the template when none is configured
const DefaultRemote = "template"

var (
	// ErrNoRemoteURL is returned when no template URL was given
	ErrNoRemoteURL = errors.New("no template url configured: pass --remote-url or set TEMPLATE_PATH")
	// ErrRemoteAdd is returned when the template remote cannot be added or fetched
	ErrRemoteAdd = errors.New("unable to add template remote")
)

// WithTemplateRemote adds the template as remote name, runs fn and removes
// the remote again, whether fn fails or not. A leftover remote of the same
// name from an interrupted run is removed first.
func WithTemplateRemote(ctx context.Context, g git.GitExecutor, name, url string, fn func(ctx context.Context) error) error {
	if url == "" {
		return ErrNoRemoteURL
	}
	if name == "" {
		name = DefaultRemote
	}

	removeRemote(ctx, g, name)

	logger.Info("Fetching template from %s...", redact(url))
	if err := g.AddRemote(ctx, name, url); err != nil {
		removeRemote(ctx, g, name)
		return fmt.Errorf("%w %s: %w", ErrRemoteAdd, redact(url), err)
	}
	// Cleanup must run even after cancellation
	defer removeRemote(context.WithoutCancel(ctx), g, name)

	return fn(ctx)
}

// removeRemote removes name, ignoring failures such as a missing remote
func removeRemote(ctx context.Context, g git.GitExecutor, name string) {
	if err := g.RemoveRemote(ctx, name); err != nil {
		logger.Debug("removing remote %s: %v", name, err)
	}
}

// redact hides credentials embedded in an https url
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	return u.Redacted()
}

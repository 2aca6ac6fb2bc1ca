package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL indicates a template location that cannot be turned into a git URL
	ErrInvalidURL = errors.New("invalid template url")
)

// RepositoryInfo describes a template repository
type RepositoryInfo struct {
	Name     string `yaml:"-"`                  // e.g., "react-starter"
	Provider string `yaml:"provider,omitempty"` // "github", "gitlab", "git"
	URL      string `yaml:"url"`                // Full URL or org/repo for GitHub/GitLab
	Token    string `yaml:"token,omitempty"`    // Optional auth token for private templates
	Branch   string `yaml:"branch,omitempty"`   // Branch to sync from (default: main)
}

// Clone returns a copy of the RepositoryInfo
func (r *RepositoryInfo) Clone() *RepositoryInfo {
	return &RepositoryInfo{
		Name:     r.Name,
		Provider: r.Provider,
		URL:      r.URL,
		Token:    r.Token,
		Branch:   r.Branch,
	}
}

// isShorthand reports whether u is an org/repo path rather than a git URL
func isShorthand(u string) bool {
	return !strings.Contains(u, "://") && !strings.Contains(u, "@") &&
		!strings.HasPrefix(u, "/") && !strings.HasPrefix(u, ".")
}

// CloneURL returns the URL git fetches the template from.
// Supports formats:
// - org/repo with provider github or gitlab
// - https://host/group/project(.git)
// - git@host:group/project.git and local paths, passed through
//
// A token is embedded as credentials into https URLs.
func (r *RepositoryInfo) CloneURL() (string, error) {
	raw := strings.TrimSpace(r.URL)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url for %q", ErrInvalidURL, r.Name)
	}

	if isShorthand(raw) {
		switch r.Provider {
		case "github":
			raw = fmt.Sprintf("https://github.com/%s.git", strings.TrimSuffix(raw, ".git"))
		case "gitlab":
			raw = fmt.Sprintf("https://gitlab.com/%s.git", strings.TrimSuffix(raw, ".git"))
		}
	}

	if r.Token == "" || !strings.HasPrefix(raw, "https://") {
		return raw, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidURL, raw, err)
	}
	user := "oauth2"
	if r.Provider == "github" {
		user = "x-access-token"
	}
	parsed.User = url.UserPassword(user, r.Token)
	return parsed.String(), nil
}

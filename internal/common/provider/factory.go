package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRepositoryNotFound indicates the named template was not found
	ErrRepositoryNotFound = errors.New("template not found")
	// ErrInvalidProvider indicates an invalid provider type
	ErrInvalidProvider = errors.New("invalid provider type")
)

// ValidateProvider checks the provider of a configured template
func ValidateProvider(name string) error {
	switch name {
	case "github", "gitlab", "git", "":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidProvider, name)
	}
}

// looksLikeURL reports whether s is a git location rather than a template name
func looksLikeURL(s string) bool {
	return strings.Contains(s, "/") || strings.Contains(s, ":")
}

// ResolveTemplate resolves a template name or location to its full info.
// Names are looked up in the configured templates; anything that looks like
// a URL or path is used verbatim with the generic git provider.
func ResolveTemplate(nameOrURL string, configured map[string]*RepositoryInfo) (*RepositoryInfo, error) {
	if repo, ok := configured[nameOrURL]; ok {
		info := repo.Clone()
		info.Name = nameOrURL
		if err := ValidateProvider(info.Provider); err != nil {
			return nil, err
		}
		return info, nil
	}

	if looksLikeURL(nameOrURL) {
		return &RepositoryInfo{Name: nameOrURL, Provider: "git", URL: nameOrURL}, nil
	}

	return nil, fmt.Errorf("%w: %s (available: %s)", ErrRepositoryNotFound, nameOrURL,
		strings.Join(ListAvailableTemplates(configured), ", "))
}

// ListAvailableTemplates returns the configured template names, sorted
func ListAvailableTemplates(configured map[string]*RepositoryInfo) []string {
	names := make([]string, 0, len(configured))
	for name := range configured {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

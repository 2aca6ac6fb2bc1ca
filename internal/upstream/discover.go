package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/obentoo/template-sync/internal/common/git"
)

var (
	// ErrEmptyBranch is returned when the current branch has no commits to take a fork point from
	ErrEmptyBranch = errors.New("current branch has no commits")
)

// Discover returns the commits of templateRef that are newer than the
// current branch's fork point and not yet applied to it. The result keeps
// the template's native order (newest first); use OldestFirst before
// applying.
func Discover(ctx context.Context, g git.GitExecutor, templateRef string) ([]Commit, error) {
	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving current branch: %w", err)
	}

	if _, err := g.Run(ctx, "rev-parse", "--verify", "--quiet", branch+"^{commit}"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBranch, branch)
	}

	current, err := ReadHistory(ctx, g, branch, FieldBody)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBranch, branch)
	}

	template, err := ReadHistory(ctx, g, templateRef, FieldSubject)
	if err != nil {
		return nil, err
	}

	return FilterCandidates(current, template, ForkPoint(current)), nil
}

// ForkPoint returns the timestamp of the oldest commit of a newest-first
// history. It panics on an empty history.
func ForkPoint(current []Commit) int64 {
	return current[len(current)-1].Timestamp
}

// FilterCandidates keeps the template commits that are at or after
// forkPoint and not applied to current, preserving template order.
// The messages of current must be full commit bodies.
func FilterCandidates(current, template []Commit, forkPoint int64) []Commit {
	applied := newAppliedSet(current)

	var candidates []Commit
	for _, c := range template {
		if c.Timestamp < forkPoint {
			continue
		}
		if applied.contains(c.Hash) {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// appliedSet answers whether a template hash is already part of the current branch
type appliedSet struct {
	hashes map[string]struct{}
	marked []string // bodies carrying the marker phrase
}

func newAppliedSet(current []Commit) appliedSet {
	s := appliedSet{hashes: make(map[string]struct{}, len(current))}
	for _, c := range current {
		s.hashes[c.Hash] = struct{}{}
		if strings.Contains(c.Message, MarkerPhrase) {
			s.marked = append(s.marked, c.Message)
		}
	}
	return s
}

func (s appliedSet) contains(hash string) bool {
	if _, ok := s.hashes[hash]; ok {
		return true
	}
	if hash == "" {
		return false
	}
	for _, body := range s.marked {
		if strings.Contains(body, hash) {
			return true
		}
	}
	return false
}

// IsApplied reports whether hash is already part of the current history,
// either verbatim or recorded behind the marker phrase of a replayed commit.
func IsApplied(current []Commit, hash string) bool {
	return newAppliedSet(current).contains(hash)
}

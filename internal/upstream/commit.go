package upstream

import (
	"slices"
	"time"
)

// Commit is a single entry of a branch history
type Commit struct {
	Hash      string `json:"hash"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // author time, seconds since epoch
}

// Time returns the author time of the commit
func (c Commit) Time() time.Time {
	return time.Unix(c.Timestamp, 0)
}

// Kind tells how a commit is replayed
type Kind string

const (
	// KindContent commits are replayed with cherry-pick
	KindContent Kind = "content"
	// KindBump commits are replayed through the package manager
	KindBump Kind = "bump"
)

// Kind classifies the commit by its message
func (c Commit) Kind() Kind {
	if _, ok := ParseBump(c.Message); ok {
		return KindBump
	}
	return KindContent
}

// SortChronological returns a copy of commits ordered oldest first.
// Commits sharing a timestamp keep their relative order, so the input must
// list them oldest first; see OldestFirst for git log order.
func SortChronological(commits []Commit) []Commit {
	sorted := slices.Clone(commits)
	slices.SortStableFunc(sorted, func(a, b Commit) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
	return sorted
}

// OldestFirst turns commits listed newest first, as git log prints them,
// into replay order. Commits sharing a timestamp come out in the reverse of
// their listed order, which is the order they were made in.
func OldestFirst(newestFirst []Commit) []Commit {
	reversed := slices.Clone(newestFirst)
	slices.Reverse(reversed)
	return SortChronological(reversed)
}

package git

import "strings"

// StatusEntry represents a single entry from git status --porcelain
type StatusEntry struct {
	Status   string // A, M, D, R, UU, ??
	Index    byte   // X column
	WorkTree byte   // Y column
	FilePath string
}

// Unmerged reports whether the entry is an unresolved conflict
func (e StatusEntry) Unmerged() bool {
	if e.Index == 'U' || e.WorkTree == 'U' {
		return true
	}
	return (e.Index == 'A' && e.WorkTree == 'A') || (e.Index == 'D' && e.WorkTree == 'D')
}

// Untracked reports whether the file is not known to git
func (e StatusEntry) Untracked() bool {
	return e.Index == '?'
}

// Staged reports whether the entry has changes recorded in the index
func (e StatusEntry) Staged() bool {
	return !e.Untracked() && !e.Unmerged() && e.Index != ' ' && e.Index != 0
}

// Unstaged reports whether a tracked file has modifications outside the index
func (e StatusEntry) Unstaged() bool {
	return !e.Untracked() && !e.Unmerged() && e.WorkTree != ' ' && e.WorkTree != 0
}

// ParseStatusOutput parses git status --porcelain output into StatusEntry slice
func ParseStatusOutput(output string) []StatusEntry {
	var entries []StatusEntry

	lines := strings.Split(output, "\n")
	for _, line := range lines {
		if len(line) < 3 {
			continue
		}

		// Git status --porcelain format: XY filename
		// X = index status, Y = worktree status
		status := strings.TrimSpace(line[:2])
		filePath := line[3:]

		// Handle renamed files: R  old -> new
		if strings.HasPrefix(status, "R") {
			parts := strings.Split(filePath, " -> ")
			if len(parts) == 2 {
				filePath = parts[1]
			}
		}

		entries = append(entries, StatusEntry{
			Status:   status,
			Index:    line[0],
			WorkTree: line[1],
			FilePath: filePath,
		})
	}

	return entries
}

// CommitFailure classifies why git commit refused to record a commit
type CommitFailure int

const (
	// CommitRejected covers failures not explained by the index state, e.g. hooks
	CommitRejected CommitFailure = iota
	// CommitNothingToCommit means the index and tracked files match HEAD
	CommitNothingToCommit
	// CommitUnresolved means unmerged paths remain
	CommitUnresolved
)

func (f CommitFailure) String() string {
	switch f {
	case CommitNothingToCommit:
		return "nothing to commit"
	case CommitUnresolved:
		return "unresolved conflicts"
	default:
		return "rejected"
	}
}

// CommitError is returned by Commit when no commit was recorded
type CommitError struct {
	Reason CommitFailure
	Err    error
}

func (e *CommitError) Error() string {
	if e.Err == nil {
		return "commit failed: " + e.Reason.String()
	}
	return "commit failed (" + e.Reason.String() + "): " + e.Err.Error()
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// ClassifyCommitFailure derives the reason of a failed commit from the
// porcelain status taken right after it. Untracked files are ignored.
func ClassifyCommitFailure(entries []StatusEntry) CommitFailure {
	pending := false
	for _, e := range entries {
		if e.Unmerged() {
			return CommitUnresolved
		}
		if e.Staged() || e.Unstaged() {
			pending = true
		}
	}
	if pending {
		return CommitRejected
	}
	return CommitNothingToCommit
}

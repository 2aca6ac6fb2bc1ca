package git

import "context"

// GitExecutor defines the interface for git operations.
// This interface allows for mocking git operations in tests.
type GitExecutor interface {
	// Run executes an arbitrary git subcommand and returns its captured output
	Run(ctx context.Context, args ...string) (Result, error)

	// CurrentBranch returns the name of the checked out branch
	CurrentBranch(ctx context.Context) (string, error)

	// GitDir returns the absolute path of the repository's .git directory
	GitDir(ctx context.Context) (string, error)

	// Status returns the current git status as a list of StatusEntry
	Status(ctx context.Context) ([]StatusEntry, error)

	// StashPush saves local modifications and reports whether anything was stashed
	StashPush(ctx context.Context, message string) (bool, error)

	// StashPop restores the most recent stash entry
	StashPop(ctx context.Context) error

	// CherryPickNoCommit applies the changes of a commit without committing them
	CherryPickNoCommit(ctx context.Context, hash string, ignoreWhitespace bool) error

	// AddTracked stages modifications of tracked files
	AddTracked(ctx context.Context) error

	// Commit records the staged changes with the given message
	Commit(ctx context.Context, message string) error

	// AddRemote adds and fetches a remote without tags
	AddRemote(ctx context.Context, name, url string) error

	// RemoveRemote removes a remote
	RemoveRemote(ctx context.Context, name string) error

	// WorkDir returns the working directory of the git repository
	WorkDir() string
}

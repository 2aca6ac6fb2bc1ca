package git

import "context"

// MockGitRunner implements GitExecutor for testing.
// Each method can be configured with a custom function to control behavior.
type MockGitRunner struct {
	RunFunc                func(args ...string) (Result, error)
	CurrentBranchFunc      func() (string, error)
	GitDirFunc             func() (string, error)
	StatusFunc             func() ([]StatusEntry, error)
	StashPushFunc          func(message string) (bool, error)
	StashPopFunc           func() error
	CherryPickNoCommitFunc func(hash string, ignoreWhitespace bool) error
	AddTrackedFunc         func() error
	CommitFunc             func(message string) error
	AddRemoteFunc          func(name, url string) error
	RemoveRemoteFunc       func(name string) error
	workDir                string
}

// NewMockGitRunner creates a new MockGitRunner with the specified working directory
func NewMockGitRunner(workDir string) *MockGitRunner {
	return &MockGitRunner{
		workDir: workDir,
	}
}

// Run executes an arbitrary git subcommand
func (m *MockGitRunner) Run(ctx context.Context, args ...string) (Result, error) {
	if m.RunFunc != nil {
		return m.RunFunc(args...)
	}
	return Result{}, nil
}

// CurrentBranch returns the name of the checked out branch
func (m *MockGitRunner) CurrentBranch(ctx context.Context) (string, error) {
	if m.CurrentBranchFunc != nil {
		return m.CurrentBranchFunc()
	}
	return "main", nil
}

// GitDir returns the .git directory
func (m *MockGitRunner) GitDir(ctx context.Context) (string, error) {
	if m.GitDirFunc != nil {
		return m.GitDirFunc()
	}
	return m.workDir + "/.git", nil
}

// Status returns the current git status as a list of StatusEntry
func (m *MockGitRunner) Status(ctx context.Context) ([]StatusEntry, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc()
	}
	return nil, nil
}

// StashPush saves local modifications
func (m *MockGitRunner) StashPush(ctx context.Context, message string) (bool, error) {
	if m.StashPushFunc != nil {
		return m.StashPushFunc(message)
	}
	return false, nil
}

// StashPop restores the most recent stash entry
func (m *MockGitRunner) StashPop(ctx context.Context) error {
	if m.StashPopFunc != nil {
		return m.StashPopFunc()
	}
	return nil
}

// CherryPickNoCommit applies the changes of a commit without committing them
func (m *MockGitRunner) CherryPickNoCommit(ctx context.Context, hash string, ignoreWhitespace bool) error {
	if m.CherryPickNoCommitFunc != nil {
		return m.CherryPickNoCommitFunc(hash, ignoreWhitespace)
	}
	return nil
}

// AddTracked stages modifications of tracked files
func (m *MockGitRunner) AddTracked(ctx context.Context) error {
	if m.AddTrackedFunc != nil {
		return m.AddTrackedFunc()
	}
	return nil
}

// Commit records the staged changes
func (m *MockGitRunner) Commit(ctx context.Context, message string) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(message)
	}
	return nil
}

// AddRemote adds and fetches a remote
func (m *MockGitRunner) AddRemote(ctx context.Context, name, url string) error {
	if m.AddRemoteFunc != nil {
		return m.AddRemoteFunc(name, url)
	}
	return nil
}

// RemoveRemote removes a remote
func (m *MockGitRunner) RemoveRemote(ctx context.Context, name string) error {
	if m.RemoveRemoteFunc != nil {
		return m.RemoveRemoteFunc(name)
	}
	return nil
}

// WorkDir returns the working directory of the git repository
func (m *MockGitRunner) WorkDir() string {
	return m.workDir
}

// Ensure MockGitRunner implements GitExecutor interface
var _ GitExecutor = (*MockGitRunner)(nil)

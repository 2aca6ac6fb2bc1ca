package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

var (
	ErrGitCommand  = errors.New("git command failed")
	ErrNotOnBranch = errors.New("HEAD is not on a branch")
)

// noLocalChanges is what git prints when stash push finds nothing to save
const noLocalChanges = "No local changes to save"

// Result holds the captured output of a git invocation
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout and stderr combined
func (r Result) Output() string {
	return r.Stdout + r.Stderr
}

// CommandError describes a git invocation that exited non-zero.
// It matches ErrGitCommand with errors.Is.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *CommandError) Unwrap() []error {
	return []error{ErrGitCommand, e.Err}
}

// GitRunner executes git commands in a specific working directory
type GitRunner struct {
	workDir string
	echo    io.Writer
}

// RunnerOption configures a GitRunner
type RunnerOption func(*GitRunner)

// WithEcho copies the output of every git command to w as it runs
func WithEcho(w io.Writer) RunnerOption {
	return func(g *GitRunner) {
		g.echo = w
	}
}

// NewGitRunner creates a new GitRunner for the specified working directory
func NewGitRunner(workDir string, opts ...RunnerOption) *GitRunner {
	g := &GitRunner{
		workDir: workDir,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WorkDir returns the working directory of the GitRunner
func (g *GitRunner) WorkDir() string {
	return g.workDir
}

// Run executes an arbitrary git subcommand
func (g *GitRunner) Run(ctx context.Context, args ...string) (Result, error) {
	return g.runCommand(ctx, args...)
}

// runCommand executes a git command and returns its captured output.
// A non-zero exit is reported as a *CommandError.
func (g *GitRunner) runCommand(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir
	// Keep messages in English, the stash fallback matches on them
	cmd.Env = append(os.Environ(), "LC_ALL=C")

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if g.echo != nil {
		cmd.Stdout = io.MultiWriter(&stdoutBuf, g.echo)
		cmd.Stderr = io.MultiWriter(&stderrBuf, g.echo)
	}

	err := cmd.Run()
	res := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, &CommandError{
			Args:     args,
			ExitCode: res.ExitCode,
			Output:   strings.TrimSpace(res.Output()),
			Err:      err,
		}
	}

	return res, nil
}

// CurrentBranch returns the name of the checked out branch.
// It works in repositories without commits.
func (g *GitRunner) CurrentBranch(ctx context.Context) (string, error) {
	res, err := g.runCommand(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return "", ErrNotOnBranch
		}
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// GitDir returns the absolute path of the .git directory
func (g *GitRunner) GitDir(ctx context.Context) (string, error) {
	res, err := g.runCommand(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Status returns the current git status as a list of StatusEntry
func (g *GitRunner) Status(ctx context.Context) ([]StatusEntry, error) {
	res, err := g.runCommand(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	return ParseStatusOutput(res.Stdout), nil
}

// StashPush stashes local modifications under message.
// The stash ref is compared before and after so the answer does not depend
// on git's wording; the "No local changes" text is only a fallback.
func (g *GitRunner) StashPush(ctx context.Context, message string) (bool, error) {
	before := g.stashRef(ctx)

	res, err := g.runCommand(ctx, "stash", "push", "-m", message)
	if err != nil {
		return false, err
	}
	if strings.Contains(res.Output(), noLocalChanges) {
		return false, nil
	}

	after := g.stashRef(ctx)
	return after != "" && after != before, nil
}

// stashRef returns the object id of refs/stash, or "" when there is none
func (g *GitRunner) stashRef(ctx context.Context) string {
	res, err := g.runCommand(ctx, "rev-parse", "--quiet", "--verify", "refs/stash")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

// StashPop restores the most recent stash entry
func (g *GitRunner) StashPop(ctx context.Context) error {
	_, err := g.runCommand(ctx, "stash", "pop")
	return err
}

// CherryPickNoCommit replays hash onto the working tree and index without committing
func (g *GitRunner) CherryPickNoCommit(ctx context.Context, hash string, ignoreWhitespace bool) error {
	args := []string{"cherry-pick", "--no-commit"}
	if ignoreWhitespace {
		args = append(args, "-X", "ignore-all-space")
	}
	args = append(args, hash)

	_, err := g.runCommand(ctx, args...)
	return err
}

// AddTracked stages modifications and deletions of tracked files
func (g *GitRunner) AddTracked(ctx context.Context) error {
	_, err := g.runCommand(ctx, "add", "-u")
	return err
}

// Commit creates a git commit with the specified message.
// A failed commit is returned as a *CommitError classified from the
// porcelain status of the repository.
func (g *GitRunner) Commit(ctx context.Context, message string) error {
	_, err := g.runCommand(ctx, "commit", "-m", message)
	if err == nil {
		return nil
	}

	entries, statusErr := g.Status(ctx)
	if statusErr != nil {
		return &CommitError{Reason: CommitRejected, Err: errors.Join(err, statusErr)}
	}

	return &CommitError{Reason: ClassifyCommitFailure(entries), Err: err}
}

// AddRemote adds a remote and fetches it, skipping tags
func (g *GitRunner) AddRemote(ctx context.Context, name, url string) error {
	_, err := g.runCommand(ctx, "remote", "add", "-f", "--no-tags", name, url)
	return err
}

// RemoveRemote removes a remote and its tracking refs
func (g *GitRunner) RemoveRemote(ctx context.Context, name string) error {
	_, err := g.runCommand(ctx, "remote", "remove", name)
	return err
}

// Ensure GitRunner implements GitExecutor interface
var _ GitExecutor = (*GitRunner)(nil)

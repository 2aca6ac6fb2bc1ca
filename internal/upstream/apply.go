package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/obentoo/template-sync/internal/common/git"
	"github.com/obentoo/template-sync/internal/common/logger"
)

var (
	// ErrNothingApplied is returned in strict mode when a replay leaves nothing to commit
	ErrNothingApplied = errors.New("replay produced nothing to commit")
	// ErrResolutionAborted is returned when the operator gives up on a conflict
	ErrResolutionAborted = errors.New("conflict resolution aborted")
	// ErrStashRestore is matched by StashRestoreError
	ErrStashRestore = errors.New("failed to restore stashed changes")
	// ErrUnresolvedConflicts is returned when a replay is continued while
	// unmerged paths remain
	ErrUnresolvedConflicts = errors.New("unresolved conflicts remain: resolve them and stage the result with 'git add', then resume")
)

// StashRestoreError reports a stash pop that failed after the update was committed.
// The local changes are still in the stash.
type StashRestoreError struct {
	Hash string
	Err  error
}

func (e *StashRestoreError) Error() string {
	return fmt.Sprintf("update %s was committed but restoring local changes failed (they remain in 'git stash list'): %v", e.Hash, e.Err)
}

func (e *StashRestoreError) Unwrap() []error {
	return []error{ErrStashRestore, e.Err}
}

// State is a step of the apply state machine
type State int

const (
	StateStart State = iota
	StateStashed
	StateReplaying
	StateCommitting
	StateAwaitingResolution
	StateDone
	StateRestored
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateStashed:
		return "stashed"
	case StateReplaying:
		return "replaying"
	case StateCommitting:
		return "committing"
	case StateAwaitingResolution:
		return "awaiting-resolution"
	case StateDone:
		return "done"
	case StateRestored:
		return "restored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome tells how the commit step ended
type Outcome string

const (
	OutcomeNone Outcome = ""
	// OutcomeCommitted means a new commit was recorded
	OutcomeCommitted Outcome = "committed"
	// OutcomeNothingToCommit means the replay left the tree unchanged
	OutcomeNothingToCommit Outcome = "nothing-to-commit"
)

// Installer installs a dependency at the version named by a bump commit
type Installer interface {
	Install(ctx context.Context, update Update) error
}

// Resolver blocks until the operator reports that conflicts are resolved and
// staged. Returning an error aborts the apply.
type Resolver interface {
	WaitForResolution(ctx context.Context, c Commit, attempt int) error
}

// ApplyResult describes one run of the state machine
type ApplyResult struct {
	Commit      Commit
	Update      *Update // set for bump commits
	Stashed     bool
	Attempts    int // commit attempts
	Prompts     int // resolver interactions
	Outcome     Outcome
	Transitions []State
}

func (r *ApplyResult) enter(s State) {
	r.Transitions = append(r.Transitions, s)
}

// State returns the last state reached
func (r *ApplyResult) State() State {
	if len(r.Transitions) == 0 {
		return StateStart
	}
	return r.Transitions[len(r.Transitions)-1]
}

// Applier replays template commits onto the current branch
type Applier struct {
	Git       git.GitExecutor
	Installer Installer
	Resolver  Resolver

	// Strict turns a replay with nothing to commit into ErrNothingApplied
	Strict bool
	// IgnoreWhitespace passes -X ignore-all-space to cherry-pick
	IgnoreWhitespace bool
}

// NewApplier creates an Applier with whitespace-insensitive replay
func NewApplier(g git.GitExecutor, installer Installer, resolver Resolver) *Applier {
	return &Applier{
		Git:              g,
		Installer:        installer,
		Resolver:         resolver,
		IgnoreWhitespace: true,
	}
}

// Apply incorporates a single template commit into the current branch and
// leaves local modifications as it found them.
func (a *Applier) Apply(ctx context.Context, c Commit) (*ApplyResult, error) {
	result := &ApplyResult{Commit: c}
	result.enter(StateStart)

	logger.Info("Stashing your current working directory before applying %s...", c.Hash)
	stashed, err := a.Git.StashPush(ctx, StashLabel(c.Hash))
	if err != nil {
		return result, fmt.Errorf("stashing local changes: %w", err)
	}
	result.Stashed = stashed
	result.enter(StateStashed)

	result.enter(StateReplaying)
	a.replay(ctx, c, result)

	return a.finish(ctx, c, result, a.commit(ctx, c, result))
}

// Continue completes a replay of c that an earlier run left awaiting
// resolution. The staged resolution is committed and, when stashed is set,
// the local changes stashed by that run are restored. A tree without
// tracked changes means the replay was discarded, so c is replayed again.
func (a *Applier) Continue(ctx context.Context, c Commit, stashed bool) (*ApplyResult, error) {
	result := &ApplyResult{Commit: c, Stashed: stashed}
	result.enter(StateAwaitingResolution)

	entries, err := a.Git.Status(ctx)
	if err != nil {
		return result, fmt.Errorf("reading status: %w", err)
	}
	if err := checkUnmerged(entries); err != nil {
		return result, err
	}

	if !hasTrackedChanges(entries) {
		logger.Info("The interrupted replay of %s was discarded, replaying it again...", c.Hash)
		result.enter(StateReplaying)
		a.replay(ctx, c, result)
	} else {
		logger.Info("Committing your resolution of %s...", c.Hash)
	}

	return a.finish(ctx, c, result, a.commit(ctx, c, result))
}

// finish restores the stash once the commit step is over. An aborted
// resolution keeps the stash so the replay can be continued later.
func (a *Applier) finish(ctx context.Context, c Commit, result *ApplyResult, commitErr error) (*ApplyResult, error) {
	stashed := result.Stashed
	if errors.Is(commitErr, ErrResolutionAborted) {
		if stashed {
			logger.Warn("Your local changes are still stashed as %q; 'template-sync resume' restores them once the update is committed", StashLabel(c.Hash))
		}
		return result, commitErr
	}
	if commitErr == nil {
		result.enter(StateDone)
	}

	if stashed {
		if err := a.Git.StashPop(ctx); err != nil {
			return result, errors.Join(commitErr, &StashRestoreError{Hash: c.Hash, Err: err})
		}
	}
	result.enter(StateRestored)

	return result, commitErr
}

// checkUnmerged fails with ErrUnresolvedConflicts listing the unmerged paths
func checkUnmerged(entries []git.StatusEntry) error {
	var paths []string
	for _, e := range entries {
		if e.Unmerged() {
			paths = append(paths, e.FilePath)
		}
	}
	if len(paths) > 0 {
		return fmt.Errorf("%w: %s", ErrUnresolvedConflicts, strings.Join(paths, ", "))
	}
	return nil
}

func hasTrackedChanges(entries []git.StatusEntry) bool {
	for _, e := range entries {
		if e.Staged() || e.Unstaged() {
			return true
		}
	}
	return false
}

// replay brings the changes of c into the index. Failures are left for the
// commit step to detect.
func (a *Applier) replay(ctx context.Context, c Commit, result *ApplyResult) {
	if update, ok := ParseBump(c.Message); ok {
		result.Update = &update

		if update.Direction() == DirectionDowngrade {
			logger.Warn("%s moves %s back from %s", c.Hash, update.Package, update.From)
		}

		if a.Installer == nil {
			logger.Warn("No package manager configured, skipping install of %s", update)
		} else if err := a.Installer.Install(ctx, update); err != nil {
			logger.Warn("Installing %s failed: %v", update, err)
		}

		if err := a.Git.AddTracked(ctx); err != nil {
			logger.Debug("staging tracked files failed: %v", err)
		}
		return
	}

	if err := a.Git.CherryPickNoCommit(ctx, c.Hash, a.IgnoreWhitespace); err != nil {
		logger.Debug("cherry-pick of %s did not apply cleanly: %v", c.Hash, err)
	}
}

// commit loops until a commit is recorded, the tree turns out to be clean,
// or the resolver gives up
func (a *Applier) commit(ctx context.Context, c Commit, result *ApplyResult) error {
	message := UpdateCommitMessage(c)

	for {
		result.enter(StateCommitting)
		result.Attempts++

		err := a.Git.Commit(ctx, message)
		if err == nil {
			result.Outcome = OutcomeCommitted
			return nil
		}

		var commitErr *git.CommitError
		if errors.As(err, &commitErr) && commitErr.Reason == git.CommitNothingToCommit {
			result.Outcome = OutcomeNothingToCommit
			if a.Strict {
				return fmt.Errorf("%w: %s", ErrNothingApplied, c.Hash)
			}
			logger.Debug("%s left nothing to commit, treating it as applied", c.Hash)
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrResolutionAborted, ctxErr)
		}
		if a.Resolver == nil {
			return fmt.Errorf("%w: %w", ErrResolutionAborted, err)
		}

		logger.Debug("commit attempt %d for %s failed: %v", result.Attempts, c.Hash, err)
		result.enter(StateAwaitingResolution)
		result.Prompts++
		if err := a.Resolver.WaitForResolution(ctx, c, result.Prompts); err != nil {
			return fmt.Errorf("%w: %w", ErrResolutionAborted, err)
		}
	}
}

// ApplyAll applies commits one at a time in chronological order and stops
// at the first failure. When journal is not nil every outcome is recorded
// and entries already applied are skipped.
func (a *Applier) ApplyAll(ctx context.Context, commits []Commit, journal *Journal) ([]*ApplyResult, error) {
	var results []*ApplyResult

	for _, c := range SortChronological(commits) {
		if journal != nil && journal.Done(c.Hash) {
			logger.Debug("%s already recorded as done, skipping", c.Hash)
			continue
		}

		result, err := a.Apply(ctx, c)
		results = append(results, result)

		if journal != nil {
			if markErr := journal.Record(result, err); markErr != nil {
				logger.Warn("Updating the journal failed: %v", markErr)
			}
		}

		if err != nil {
			return results, fmt.Errorf("applying %s: %w", c.Hash, err)
		}
	}

	return results, nil
}

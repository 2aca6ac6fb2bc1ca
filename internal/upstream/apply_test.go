package upstream

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/obentoo/template-sync/internal/common/git"
)

// recordingInstaller remembers every update it was asked to install
type recordingInstaller struct {
	installed []Update
	err       error
}

func (r *recordingInstaller) Install(ctx context.Context, update Update) error {
	r.installed = append(r.installed, update)
	return r.err
}

// countingResolver resolves after every prompt, or fails with err
type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) WaitForResolution(ctx context.Context, c Commit, attempt int) error {
	r.calls++
	return r.err
}

// gitCalls counts mutating git calls made by the applier
type gitCalls struct {
	stashPush, stashPop, cherryPick, addTracked, commit int
	messages                                           []string
}

// newApplyMock returns a mock whose commit fails failures times with an
// unresolved conflict before succeeding
func newApplyMock(stashed bool, failures int, calls *gitCalls) *git.MockGitRunner {
	m := git.NewMockGitRunner("/repo")
	m.StashPushFunc = func(message string) (bool, error) {
		calls.stashPush++
		return stashed, nil
	}
	m.StashPopFunc = func() error {
		calls.stashPop++
		return nil
	}
	m.CherryPickNoCommitFunc = func(hash string, ignoreWhitespace bool) error {
		calls.cherryPick++
		return nil
	}
	m.AddTrackedFunc = func() error {
		calls.addTracked++
		return nil
	}
	m.CommitFunc = func(message string) error {
		calls.commit++
		calls.messages = append(calls.messages, message)
		if calls.commit <= failures {
			return &git.CommitError{Reason: git.CommitUnresolved, Err: errors.New("exit status 1")}
		}
		return nil
	}
	return m
}

// =============================================================================
// Property-Based Tests
// =============================================================================

// **Feature: template-sync, Property 6: Conflict loop termination**
func TestConflictLoopTermination(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("n failed commits mean n prompts and n+1 attempts", prop.ForAll(
		func(failures int, stashed bool) bool {
			calls := &gitCalls{}
			resolver := &countingResolver{}
			a := NewApplier(newApplyMock(stashed, failures, calls), nil, resolver)

			result, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"})
			if err != nil {
				return false
			}
			return result.Attempts == failures+1 &&
				result.Prompts == failures &&
				resolver.calls == failures &&
				result.State() == StateRestored &&
				result.Outcome == OutcomeCommitted
		},
		gen.IntRange(0, 10),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// **Feature: template-sync, Property 7: Stash skip**
func TestStashSkip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("pop runs exactly when something was stashed", prop.ForAll(
		func(stashed bool) bool {
			calls := &gitCalls{}
			a := NewApplier(newApplyMock(stashed, 0, calls), nil, &countingResolver{})

			result, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"})
			if err != nil || result.State() != StateRestored {
				return false
			}
			if stashed {
				return calls.stashPop == 1
			}
			return calls.stashPop == 0
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Unit Tests
// =============================================================================

func TestApplyConflictTwiceThenCommit(t *testing.T) {
	calls := &gitCalls{}
	resolver := &countingResolver{}
	a := NewApplier(newApplyMock(true, 2, calls), nil, resolver)

	result, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if calls.commit != 3 || result.Attempts != 3 {
		t.Errorf("expected 3 commit attempts, got %d", calls.commit)
	}
	if resolver.calls != 2 || result.Prompts != 2 {
		t.Errorf("expected 2 prompts, got %d", resolver.calls)
	}

	want := []State{
		StateStart, StateStashed, StateReplaying,
		StateCommitting, StateAwaitingResolution,
		StateCommitting, StateAwaitingResolution,
		StateCommitting, StateDone, StateRestored,
	}
	if len(result.Transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, result.Transitions)
	}
	for i := range want {
		if result.Transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], result.Transitions[i])
		}
	}
}

func TestApplyContentCommitCherryPicks(t *testing.T) {
	calls := &gitCalls{}
	var gotWhitespace bool
	m := newApplyMock(false, 0, calls)
	m.CherryPickNoCommitFunc = func(hash string, ignoreWhitespace bool) error {
		calls.cherryPick++
		gotWhitespace = ignoreWhitespace
		return errors.New("conflict")
	}

	installer := &recordingInstaller{}
	a := NewApplier(m, installer, &countingResolver{})

	result, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add \"lint\" step"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if calls.cherryPick != 1 || !gotWhitespace {
		t.Errorf("expected one whitespace-insensitive cherry-pick, got %d (ignore=%v)", calls.cherryPick, gotWhitespace)
	}
	if len(installer.installed) != 0 || calls.addTracked != 0 {
		t.Error("content commits must not go through the installer")
	}
	if result.Update != nil {
		t.Errorf("expected no update, got %+v", result.Update)
	}
	if calls.messages[0] != "Add \\\"lint\\\" step\n\nupstream template: abc1234" {
		t.Errorf("unexpected commit message %q", calls.messages[0])
	}
}

func TestApplyBumpCommitInstalls(t *testing.T) {
	calls := &gitCalls{}
	installer := &recordingInstaller{err: errors.New("registry unreachable")}
	a := NewApplier(newApplyMock(false, 0, calls), installer, &countingResolver{})

	result, err := a.Apply(context.Background(), Commit{Hash: "c3c3c3c", Message: "Bump x from 1.0 to 2.0"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(installer.installed) != 1 || installer.installed[0].String() != "x@2.0" {
		t.Errorf("expected x@2.0 to be installed, got %+v", installer.installed)
	}
	if calls.addTracked != 1 {
		t.Errorf("expected tracked files to be staged once, got %d", calls.addTracked)
	}
	if calls.cherryPick != 0 {
		t.Error("bump commits must not be cherry-picked")
	}
	if result.Update == nil || result.Update.Package != "x" {
		t.Errorf("expected the parsed update on the result, got %+v", result.Update)
	}
}

func TestApplyNothingToCommit(t *testing.T) {
	for _, strict := range []bool{false, true} {
		calls := &gitCalls{}
		m := newApplyMock(true, 0, calls)
		m.CommitFunc = func(message string) error {
			calls.commit++
			return &git.CommitError{Reason: git.CommitNothingToCommit, Err: errors.New("exit status 1")}
		}
		resolver := &countingResolver{}
		a := NewApplier(m, nil, resolver)
		a.Strict = strict

		result, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"})

		if strict && !errors.Is(err, ErrNothingApplied) {
			t.Errorf("strict: expected ErrNothingApplied, got %v", err)
		}
		if !strict && err != nil {
			t.Errorf("lenient: expected success, got %v", err)
		}
		if result.Outcome != OutcomeNothingToCommit {
			t.Errorf("expected nothing-to-commit outcome, got %q", result.Outcome)
		}
		if resolver.calls != 0 || calls.commit != 1 {
			t.Errorf("expected a single attempt and no prompt, got %d attempts %d prompts", calls.commit, resolver.calls)
		}
		if calls.stashPop != 1 || result.State() != StateRestored {
			t.Errorf("expected the stash to be restored, pops=%d state=%s", calls.stashPop, result.State())
		}
	}
}

func TestApplyResolverAbortKeepsStash(t *testing.T) {
	calls := &gitCalls{}
	resolver := &countingResolver{err: errors.New("operator quit")}
	a := NewApplier(newApplyMock(true, 5, calls), nil, resolver)

	result, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"})
	if !errors.Is(err, ErrResolutionAborted) {
		t.Fatalf("expected ErrResolutionAborted, got %v", err)
	}
	if calls.stashPop != 0 {
		t.Error("the stash must stay in place while conflicts are unresolved")
	}
	if result.State() != StateAwaitingResolution {
		t.Errorf("expected to stop while awaiting resolution, got %s", result.State())
	}
}

func TestApplyWithoutResolverAborts(t *testing.T) {
	calls := &gitCalls{}
	a := NewApplier(newApplyMock(false, 1, calls), nil, nil)

	_, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"})
	if !errors.Is(err, ErrResolutionAborted) {
		t.Errorf("expected ErrResolutionAborted, got %v", err)
	}
	if calls.commit != 1 {
		t.Errorf("expected one attempt, got %d", calls.commit)
	}
}

func TestApplyCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := &gitCalls{}
	resolver := &countingResolver{}
	a := NewApplier(newApplyMock(false, 1, calls), nil, resolver)

	_, err := a.Apply(ctx, Commit{Hash: "abc1234", Message: "Add CI"})
	if !errors.Is(err, ErrResolutionAborted) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected an aborted resolution caused by cancellation, got %v", err)
	}
	if resolver.calls != 0 {
		t.Error("resolver must not be asked after cancellation")
	}
}

func TestApplyStashRestoreFailure(t *testing.T) {
	calls := &gitCalls{}
	m := newApplyMock(true, 0, calls)
	m.StashPopFunc = func() error {
		return &git.CommandError{Args: []string{"stash", "pop"}, ExitCode: 1, Err: errors.New("conflict")}
	}
	a := NewApplier(m, nil, &countingResolver{})

	result, err := a.Apply(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"})
	if !errors.Is(err, ErrStashRestore) {
		t.Fatalf("expected ErrStashRestore, got %v", err)
	}
	var restoreErr *StashRestoreError
	if !errors.As(err, &restoreErr) || restoreErr.Hash != "abc1234" {
		t.Errorf("expected a StashRestoreError for abc1234, got %v", err)
	}
	if result.Outcome != OutcomeCommitted || result.State() != StateDone {
		t.Errorf("expected the commit to stand, outcome=%q state=%s", result.Outcome, result.State())
	}
}

func TestApplyStashFailureStops(t *testing.T) {
	calls := &gitCalls{}
	m := newApplyMock(false, 0, calls)
	m.StashPushFunc = func(message string) (bool, error) {
		return false, errors.New("index.lock exists")
	}
	a := NewApplier(m, nil, nil)

	if _, err := a.Apply(context.Background(), Commit{Hash: "abc1234"}); err == nil {
		t.Fatal("expected an error when stashing fails")
	}
	if calls.cherryPick != 0 || calls.commit != 0 {
		t.Error("nothing must be replayed when stashing fails")
	}
}

func TestApplyAllOrdersAndStops(t *testing.T) {
	calls := &gitCalls{}
	m := newApplyMock(false, 0, calls)
	var picked []string
	m.CherryPickNoCommitFunc = func(hash string, ignoreWhitespace bool) error {
		picked = append(picked, hash)
		return nil
	}
	m.CommitFunc = func(message string) error {
		if len(picked) == 2 {
			return &git.CommitError{Reason: git.CommitRejected, Err: errors.New("hook failed")}
		}
		return nil
	}

	a := NewApplier(m, nil, nil)
	commits := []Commit{
		{Hash: "c3", Message: "three", Timestamp: 30},
		{Hash: "c1", Message: "one", Timestamp: 10},
		{Hash: "c2", Message: "two", Timestamp: 20},
	}

	results, err := a.ApplyAll(context.Background(), commits, nil)
	if err == nil {
		t.Fatal("expected the second commit to stop the run")
	}
	if len(picked) != 2 || picked[0] != "c1" || picked[1] != "c2" {
		t.Errorf("expected c1 then c2, got %v", picked)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestStateString(t *testing.T) {
	if StateAwaitingResolution.String() != "awaiting-resolution" {
		t.Errorf("unexpected name %q", StateAwaitingResolution.String())
	}
	if State(42).String() != "state(42)" {
		t.Errorf("unexpected name %q", State(42).String())
	}
}

func TestContinueCommitsStagedResolution(t *testing.T) {
	calls := &gitCalls{}
	m := newApplyMock(false, 0, calls)
	m.StatusFunc = func() ([]git.StatusEntry, error) {
		return git.ParseStatusOutput("M  a.txt\n"), nil
	}
	a := NewApplier(m, nil, &countingResolver{})

	result, err := a.Continue(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"}, true)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if calls.cherryPick != 0 || calls.stashPush != 0 {
		t.Errorf("the staged resolution must be committed as is, got %d cherry-picks and %d stashes", calls.cherryPick, calls.stashPush)
	}
	if calls.commit != 1 || result.Outcome != OutcomeCommitted {
		t.Errorf("expected one commit, got %d (%s)", calls.commit, result.Outcome)
	}
	if calls.stashPop != 1 || result.State() != StateRestored {
		t.Errorf("expected the earlier stash to be restored, pops=%d state=%s", calls.stashPop, result.State())
	}
}

func TestContinueRefusesUnmergedPaths(t *testing.T) {
	calls := &gitCalls{}
	m := newApplyMock(false, 0, calls)
	m.StatusFunc = func() ([]git.StatusEntry, error) {
		return git.ParseStatusOutput("UU a.txt\nM  b.txt\n"), nil
	}
	a := NewApplier(m, nil, &countingResolver{})

	result, err := a.Continue(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"}, true)
	if !errors.Is(err, ErrUnresolvedConflicts) {
		t.Fatalf("expected ErrUnresolvedConflicts, got %v", err)
	}
	if calls.commit != 0 || calls.stashPop != 0 {
		t.Errorf("nothing may be committed or restored, got %d commits and %d pops", calls.commit, calls.stashPop)
	}
	if !result.Stashed {
		t.Error("the result must still report the pending stash")
	}
}

func TestContinueReplaysDiscardedTree(t *testing.T) {
	calls := &gitCalls{}
	m := newApplyMock(false, 0, calls)
	m.StatusFunc = func() ([]git.StatusEntry, error) {
		return git.ParseStatusOutput("?? notes.txt\n"), nil
	}
	a := NewApplier(m, nil, &countingResolver{})

	result, err := a.Continue(context.Background(), Commit{Hash: "abc1234", Message: "Add CI"}, false)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if calls.cherryPick != 1 {
		t.Errorf("expected the commit to be replayed again, got %d cherry-picks", calls.cherryPick)
	}
	if calls.stashPop != 0 {
		t.Error("nothing was stashed, so nothing may be popped")
	}
	want := []State{StateAwaitingResolution, StateReplaying, StateCommitting, StateDone, StateRestored}
	if len(result.Transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, result.Transitions)
	}
	for i := range want {
		if result.Transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], result.Transitions[i])
		}
	}
}

package upstream

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/obentoo/template-sync/internal/common/git"
)

// pickFirst selects only the first candidate it is offered
type pickFirst struct {
	offered []Commit
}

func (p *pickFirst) Select(ctx context.Context, candidates []Commit) ([]Commit, error) {
	p.offered = candidates
	return candidates[:1], nil
}

func newTestSyncer(t *testing.T, calls *gitCalls, histories map[string][]Commit) *Syncer {
	t.Helper()
	m := fakeHistories(t.TempDir(), histories)
	applyMock := newApplyMock(false, 0, calls)
	m.StashPushFunc = applyMock.StashPushFunc
	m.StashPopFunc = applyMock.StashPopFunc
	m.CherryPickNoCommitFunc = applyMock.CherryPickNoCommitFunc
	m.AddTrackedFunc = applyMock.AddTrackedFunc
	m.CommitFunc = applyMock.CommitFunc

	return &Syncer{
		Git:     m,
		Applier: NewApplier(m, &recordingInstaller{}, nil),
		URL:     "https://example.com/template.git",
		Branch:  "main",
	}
}

func scenarioHistories() map[string][]Commit {
	return map[string][]Commit{
		"main": {
			{Hash: "local01", Message: "Project setup", Timestamp: 25},
			{Hash: "c1c1c1c", Message: "Initial template", Timestamp: 15},
		},
		"template/main": {
			{Hash: "c3c3c3c", Message: "Bump x from 1.0 to 2.0", Timestamp: 30},
			{Hash: "c2c2c2c", Message: "Add lint config", Timestamp: 20},
			{Hash: "c1c1c1c", Message: "Initial template", Timestamp: 10},
		},
	}
}

func TestSyncAppliesAllInChronologicalOrder(t *testing.T) {
	calls := &gitCalls{}
	s := newTestSyncer(t, calls, scenarioHistories())

	result, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if len(result.Candidates) != 2 || len(result.Results) != 2 {
		t.Fatalf("expected 2 candidates applied, got %+v", result)
	}
	if result.Results[0].Commit.Hash != "c2c2c2c" || result.Results[1].Commit.Hash != "c3c3c3c" {
		t.Errorf("expected C2 then C3, got %s then %s", result.Results[0].Commit.Hash, result.Results[1].Commit.Hash)
	}
	if calls.cherryPick != 1 || calls.addTracked != 1 {
		t.Errorf("expected one cherry-pick and one install, got %d and %d", calls.cherryPick, calls.addTracked)
	}
	if result.Count(OutcomeCommitted) != 2 {
		t.Errorf("expected 2 commits, got %d", result.Count(OutcomeCommitted))
	}

	journal, err := s.openJournal(context.Background())
	if err != nil {
		t.Fatalf("openJournal failed: %v", err)
	}
	if journal.Len() != 0 {
		t.Error("a completed sync must clear the journal")
	}
}

func TestSyncUsesSelector(t *testing.T) {
	calls := &gitCalls{}
	s := newTestSyncer(t, calls, scenarioHistories())
	selector := &pickFirst{}
	s.Selector = selector

	result, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(selector.offered) != 2 {
		t.Errorf("expected 2 candidates offered, got %d", len(selector.offered))
	}
	if len(result.Results) != 1 || result.Results[0].Commit.Hash != "c3c3c3c" {
		t.Errorf("expected only the first offered commit to apply, got %+v", result.Results)
	}
}

func TestSyncNoCandidates(t *testing.T) {
	calls := &gitCalls{}
	shared := Commit{Hash: "s1", Message: "Initial", Timestamp: 10}
	s := newTestSyncer(t, calls, map[string][]Commit{
		"main":          {shared},
		"template/main": {shared},
	})

	result, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Message != "There are no new updates from upstream template repository" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if calls.stashPush != 0 {
		t.Error("nothing must be stashed when there is nothing to apply")
	}
}

func TestApplyHashes(t *testing.T) {
	calls := &gitCalls{}
	s := newTestSyncer(t, calls, scenarioHistories())

	result, err := s.ApplyHashes(context.Background(), []string{"c2c2"})
	if err != nil {
		t.Fatalf("ApplyHashes failed: %v", err)
	}
	if len(result.Results) != 1 || result.Results[0].Commit.Hash != "c2c2c2c" {
		t.Errorf("expected only c2 applied, got %+v", result.Results)
	}

	_, err = s.ApplyHashes(context.Background(), []string{"deadbee"})
	if !errors.Is(err, ErrUnknownCommit) {
		t.Errorf("expected ErrUnknownCommit, got %v", err)
	}
}

func TestResumeAfterInterruptedSync(t *testing.T) {
	calls := &gitCalls{}
	s := newTestSyncer(t, calls, scenarioHistories())

	if _, err := s.Resume(context.Background()); !errors.Is(err, ErrNothingToResume) {
		t.Fatalf("expected ErrNothingToResume, got %v", err)
	}

	m := s.Git.(*git.MockGitRunner)
	failing := true
	m.CommitFunc = func(message string) error {
		if failing {
			return &git.CommitError{Reason: git.CommitUnresolved, Err: errors.New("conflict")}
		}
		return nil
	}

	if _, err := s.Sync(context.Background()); !errors.Is(err, ErrResolutionAborted) {
		t.Fatalf("expected the sync to stop on the conflict, got %v", err)
	}

	failing = false
	result, err := s.Resume(context.Background())
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if len(result.Results) != 2 || result.Results[0].Commit.Hash != "c2c2c2c" {
		t.Errorf("expected both commits to be applied on resume, got %+v", result.Results)
	}
}

func TestMatchHashes(t *testing.T) {
	candidates := []Commit{{Hash: "abc1234"}, {Hash: "def5678"}}

	got, err := MatchHashes(candidates, []string{"def5678aaaa", "abc"})
	if err != nil {
		t.Fatalf("MatchHashes failed: %v", err)
	}
	if len(got) != 2 || got[0].Hash != "def5678" || got[1].Hash != "abc1234" {
		t.Errorf("unexpected match %+v", got)
	}
}

func TestTemplateRef(t *testing.T) {
	s := &Syncer{Branch: "develop"}
	if s.TemplateRef() != "template/develop" {
		t.Errorf("unexpected ref %q", s.TemplateRef())
	}
	s.Remote = "upstream"
	if s.TemplateRef() != "upstream/develop" {
		t.Errorf("unexpected ref %q", s.TemplateRef())
	}
}

// reversedSelector returns every candidate in reverse, like a finder listing
type reversedSelector struct{}

func (reversedSelector) Select(ctx context.Context, candidates []Commit) ([]Commit, error) {
	picked := slices.Clone(candidates)
	slices.Reverse(picked)
	return picked, nil
}

func TestSyncReplaysSameSecondCommitsInAuthoredOrder(t *testing.T) {
	calls := &gitCalls{}
	s := newTestSyncer(t, calls, map[string][]Commit{
		"main": {
			{Hash: "base000", Message: "Initial template", Timestamp: 10},
		},
		"template/main": {
			{Hash: "edit000", Message: "Edit b", Timestamp: 100},
			{Hash: "make000", Message: "Create b", Timestamp: 100},
			{Hash: "base000", Message: "Initial template", Timestamp: 10},
		},
	})

	var picked []string
	m := s.Git.(*git.MockGitRunner)
	m.CherryPickNoCommitFunc = func(hash string, ignoreWhitespace bool) error {
		picked = append(picked, hash)
		return nil
	}

	for _, selector := range []Selector{nil, reversedSelector{}, &pickFirst{}} {
		picked = nil
		s.Selector = selector

		if _, err := s.Sync(context.Background()); err != nil {
			t.Fatalf("Sync failed: %v", err)
		}

		want := []string{"make000", "edit000"}
		if _, ok := selector.(*pickFirst); ok {
			want = []string{"edit000"}
		}
		if !slices.Equal(picked, want) {
			t.Errorf("selector %T: expected %v, got %v", selector, want, picked)
		}
	}
}

func TestOldestFirst(t *testing.T) {
	newestFirst := []Commit{
		{Hash: "d", Timestamp: 30},
		{Hash: "c", Timestamp: 20},
		{Hash: "b", Timestamp: 20},
		{Hash: "a", Timestamp: 10},
	}

	var got []string
	for _, c := range OldestFirst(newestFirst) {
		got = append(got, c.Hash)
	}
	if want := []string{"a", "b", "c", "d"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if newestFirst[0].Hash != "d" {
		t.Error("OldestFirst must not modify its input")
	}
}

func TestResumeAfterAbortedResolution(t *testing.T) {
	calls := &gitCalls{}
	s := newTestSyncer(t, calls, scenarioHistories())

	m := s.Git.(*git.MockGitRunner)
	m.StashPushFunc = func(message string) (bool, error) {
		calls.stashPush++
		return true, nil
	}
	resolved := false
	m.CommitFunc = func(message string) error {
		calls.commit++
		if !resolved {
			return &git.CommitError{Reason: git.CommitUnresolved, Err: errors.New("conflict")}
		}
		return nil
	}
	status := "UU a.txt\n"
	m.StatusFunc = func() ([]git.StatusEntry, error) {
		return git.ParseStatusOutput(status), nil
	}

	if _, err := s.Sync(context.Background()); !errors.Is(err, ErrResolutionAborted) {
		t.Fatalf("expected the sync to stop on the conflict, got %v", err)
	}
	if calls.stashPush != 1 || calls.stashPop != 0 {
		t.Fatalf("the aborted run must leave its stash, pushes=%d pops=%d", calls.stashPush, calls.stashPop)
	}

	if _, err := s.Resume(context.Background()); !errors.Is(err, ErrUnresolvedConflicts) {
		t.Fatalf("expected resume to refuse unmerged paths, got %v", err)
	}
	if calls.stashPush != 1 || calls.cherryPick != 1 {
		t.Errorf("a refused resume must not touch the tree, pushes=%d cherry-picks=%d", calls.stashPush, calls.cherryPick)
	}

	status = "M  a.txt\n"
	resolved = true
	result, err := s.Resume(context.Background())
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	if len(result.Results) != 2 || result.Results[0].Commit.Hash != "c2c2c2c" || result.Results[1].Commit.Hash != "c3c3c3c" {
		t.Fatalf("expected C2 to be completed then C3 applied, got %+v", result.Results)
	}
	if calls.cherryPick != 1 {
		t.Errorf("the staged resolution of C2 must not be replayed again, got %d cherry-picks", calls.cherryPick)
	}
	if calls.stashPush != 2 || calls.stashPop != 2 {
		t.Errorf("every stash must be restored, pushes=%d pops=%d", calls.stashPush, calls.stashPop)
	}

	journal, err := s.openJournal(context.Background())
	if err != nil {
		t.Fatalf("openJournal failed: %v", err)
	}
	if journal.Len() != 0 {
		t.Error("a completed resume must clear the journal")
	}
}

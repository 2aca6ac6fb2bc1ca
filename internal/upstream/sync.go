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
	// ErrNothingToResume is returned by Resume when the journal has no open entries
	ErrNothingToResume = errors.New("no interrupted sync to resume")
	// ErrUnknownCommit is returned when a requested hash is not a candidate
	ErrUnknownCommit = errors.New("commit is not a pending template update")
)

// Selector lets the operator choose which candidates to apply
type Selector interface {
	Select(ctx context.Context, candidates []Commit) ([]Commit, error)
}

// SyncResult contains sync operation results
type SyncResult struct {
	Candidates []Commit       // discovered, template order
	Selected   []Commit       // chosen, chronological order
	Results    []*ApplyResult // one per attempted commit
	Message    string         // Human-readable status message
}

// Count returns the number of results with the given outcome
func (r *SyncResult) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Syncer ties discovery, selection and application to one template remote
type Syncer struct {
	Git      git.GitExecutor
	Applier  *Applier
	Selector Selector

	Remote string // remote name, DefaultRemote when empty
	URL    string // template repository url
	Branch string // template branch
}

// TemplateRef returns the remote-tracking ref of the template branch
func (s *Syncer) TemplateRef() string {
	remote := s.Remote
	if remote == "" {
		remote = DefaultRemote
	}
	return remote + "/" + s.Branch
}

// List returns the pending template commits without changing the project
func (s *Syncer) List(ctx context.Context) ([]Commit, error) {
	var candidates []Commit
	err := WithTemplateRemote(ctx, s.Git, s.Remote, s.URL, func(ctx context.Context) error {
		var err error
		candidates, err = Discover(ctx, s.Git, s.TemplateRef())
		return err
	})
	return candidates, err
}

// Sync discovers pending template commits, asks the selector which ones to
// take and applies them oldest first.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	return s.run(ctx, func(candidates []Commit) ([]Commit, error) {
		if s.Selector == nil {
			return candidates, nil
		}
		return s.Selector.Select(ctx, candidates)
	})
}

// ApplyHashes applies the candidates matching the given hashes or hash
// prefixes without prompting for a selection.
func (s *Syncer) ApplyHashes(ctx context.Context, hashes []string) (*SyncResult, error) {
	return s.run(ctx, func(candidates []Commit) ([]Commit, error) {
		return MatchHashes(candidates, hashes)
	})
}

// MatchHashes picks the candidates whose hash matches one of hashes.
// Both abbreviated and longer hashes are accepted.
func MatchHashes(candidates []Commit, hashes []string) ([]Commit, error) {
	var selected []Commit
	for _, h := range hashes {
		found := false
		for _, c := range candidates {
			if strings.HasPrefix(c.Hash, h) || strings.HasPrefix(h, c.Hash) {
				selected = append(selected, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCommit, h)
		}
	}
	return selected, nil
}

func (s *Syncer) run(ctx context.Context, choose func([]Commit) ([]Commit, error)) (*SyncResult, error) {
	journal, err := s.openJournal(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	err = WithTemplateRemote(ctx, s.Git, s.Remote, s.URL, func(ctx context.Context) error {
		candidates, err := Discover(ctx, s.Git, s.TemplateRef())
		if err != nil {
			return err
		}
		result.Candidates = candidates

		if len(candidates) == 0 {
			result.Message = "There are no new updates from upstream template repository"
			return nil
		}

		selected, err := choose(candidates)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			result.Message = "No updates selected"
			return nil
		}
		result.Selected = OldestFirst(inTemplateOrder(candidates, selected))

		if err := journal.Start(s.TemplateRef(), result.Selected); err != nil {
			logger.Warn("Could not write the sync journal, an interrupted run will not be resumable: %v", err)
		}

		return s.applyJournaled(ctx, result, journal)
	})

	return result, err
}

// inTemplateOrder returns the selected candidates in the order they appear
// in candidates, whatever order the selector returned them in
func inTemplateOrder(candidates, selected []Commit) []Commit {
	chosen := make(map[string]bool, len(selected))
	for _, c := range selected {
		chosen[c.Hash] = true
	}

	var ordered []Commit
	for _, c := range candidates {
		if chosen[c.Hash] {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// Resume applies the commits left open by an interrupted run. A replay that
// stopped awaiting resolution is completed first from the working tree, and
// the local changes its run stashed are restored.
func (s *Syncer) Resume(ctx context.Context) (*SyncResult, error) {
	journal, err := s.openJournal(ctx)
	if err != nil {
		return nil, err
	}

	remaining := journal.Remaining()
	if len(remaining) == 0 {
		return nil, ErrNothingToResume
	}

	entries, err := s.Git.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	if err := checkUnmerged(entries); err != nil {
		return nil, err
	}

	result := &SyncResult{Selected: remaining}
	err = WithTemplateRemote(ctx, s.Git, s.Remote, s.URL, func(ctx context.Context) error {
		if entry, ok := journal.Interrupted(); ok {
			res, err := s.Applier.Continue(ctx, entry.Commit, entry.Stashed)
			result.Results = append(result.Results, res)
			if markErr := journal.Record(res, err); markErr != nil {
				logger.Warn("Updating the journal failed: %v", markErr)
			}
			if err != nil {
				return fmt.Errorf("applying %s: %w", entry.Commit.Hash, err)
			}
		}
		return s.applyJournaled(ctx, result, journal)
	})
	return result, err
}

func (s *Syncer) applyJournaled(ctx context.Context, result *SyncResult, journal *Journal) error {
	results, err := s.Applier.ApplyAll(ctx, result.Selected, journal)
	result.Results = append(result.Results, results...)
	if err != nil {
		return err
	}

	if err := journal.Clear(); err != nil {
		logger.Warn("%v", err)
	}
	result.Message = fmt.Sprintf("Applied %d update(s), %d had nothing to commit",
		result.Count(OutcomeCommitted), result.Count(OutcomeNothingToCommit))
	return nil
}

func (s *Syncer) openJournal(ctx context.Context) (*Journal, error) {
	dir, err := JournalDir(ctx, s.Git)
	if err != nil {
		return nil, fmt.Errorf("locating journal: %w", err)
	}
	return OpenJournal(dir)
}

package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/obentoo/template-sync/internal/common/git"
)

// Error variables for journal errors
var (
	// ErrJournalCorrupted is returned when the journal file cannot be parsed
	ErrJournalCorrupted = errors.New("journal file is corrupted")
	// ErrCommitNotInJournal is returned when a hash is not part of the journal
	ErrCommitNotInJournal = errors.New("commit not found in journal")
	// ErrInvalidStatusTransition is returned when an invalid status transition is attempted
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// EntryStatus is the progress of one selected commit
type EntryStatus string

const (
	// StatusPending commits are selected but not applied yet
	StatusPending EntryStatus = "pending"
	// StatusApplied commits were recorded on the current branch
	StatusApplied EntryStatus = "applied"
	// StatusSkipped commits left nothing to commit
	StatusSkipped EntryStatus = "skipped"
	// StatusFailed commits stopped the run
	StatusFailed EntryStatus = "failed"
)

// allowedTransitions lists the statuses each status may move to
var allowedTransitions = map[EntryStatus][]EntryStatus{
	StatusPending: {StatusApplied, StatusSkipped, StatusFailed},
	StatusFailed:  {StatusPending, StatusApplied, StatusSkipped, StatusFailed},
}

// CanTransition reports whether an entry may move from one status to another
func CanTransition(from, to EntryStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// JournalEntry tracks one selected commit
type JournalEntry struct {
	Commit     Commit      `json:"commit"`
	Status     EntryStatus `json:"status"`
	SelectedAt time.Time   `json:"selected_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Error      string      `json:"error,omitempty"`
	// Interrupted is set when the replay stopped awaiting resolution and
	// its changes are still in the working tree
	Interrupted bool `json:"interrupted,omitempty"`
	// Stashed is set while local changes stashed for this commit are not restored
	Stashed bool `json:"stashed,omitempty"`
}

// journalFile represents the JSON structure stored on disk
type journalFile struct {
	Template string         `json:"template"`
	Entries  []JournalEntry `json:"entries"`
}

// Journal persists the selection of a sync run so an interrupted run can
// be resumed. It lives inside the repository's .git directory.
type Journal struct {
	// Template is the branch reference the entries were discovered on
	Template string
	// Entries in chronological order
	Entries []JournalEntry
	path    string
	mu      sync.RWMutex
	nowFunc func() time.Time
}

// JournalOption is a functional option for configuring Journal
type JournalOption func(*Journal)

// WithJournalNowFunc sets a custom time function for testing
func WithJournalNowFunc(fn func() time.Time) JournalOption {
	return func(j *Journal) {
		j.nowFunc = fn
	}
}

// JournalDir returns the directory holding the journal of the repository
func JournalDir(ctx context.Context, g git.GitExecutor) (string, error) {
	gitDir, err := g.GitDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "template-sync"), nil
}

// OpenJournal creates or loads the journal in dir.
// A missing or corrupted file yields an empty journal.
func OpenJournal(dir string, opts ...JournalOption) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	j := &Journal{
		path:    filepath.Join(dir, "journal.json"),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	if err := j.load(); err != nil && !os.IsNotExist(err) {
		// The corrupted file will be overwritten on next save
		j.Template = ""
		j.Entries = nil
	}

	return j, nil
}

// Path returns the journal file location
func (j *Journal) Path() string {
	return j.path
}

// load reads the journal from disk
func (j *Journal) load() error {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}

	var jf journalFile
	if err := json.Unmarshal(data, &jf); err != nil {
		return fmt.Errorf("%w: %v", ErrJournalCorrupted, err)
	}

	j.Template = jf.Template
	j.Entries = jf.Entries
	return nil
}

// Start replaces the journal with a fresh selection, all pending
func (j *Journal) Start(template string, commits []Commit) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.nowFunc()
	j.Template = template
	j.Entries = make([]JournalEntry, 0, len(commits))
	for _, c := range SortChronological(commits) {
		j.Entries = append(j.Entries, JournalEntry{
			Commit:     c,
			Status:     StatusPending,
			SelectedAt: now,
			UpdatedAt:  now,
		})
	}
	return j.saveUnsafe()
}

// SetStatus moves the entry for hash to status.
// errMsg is kept only for StatusFailed.
func (j *Journal) SetStatus(hash string, status EntryStatus, errMsg string) error {
	return j.update(hash, status, errMsg, false, false)
}

func (j *Journal) update(hash string, status EntryStatus, errMsg string, interrupted, stashed bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	i := j.indexUnsafe(hash)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCommitNotInJournal, hash)
	}

	entry := &j.Entries[i]
	if !CanTransition(entry.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, entry.Status, status)
	}

	entry.Status = status
	entry.UpdatedAt = j.nowFunc()
	entry.Interrupted = interrupted
	entry.Stashed = stashed
	if status == StatusFailed {
		entry.Error = errMsg
	} else {
		entry.Error = ""
	}
	return j.saveUnsafe()
}

// Record stores the outcome of an Apply or Continue call. A replay left
// awaiting resolution is marked interrupted, together with whether its
// stash still holds local changes.
func (j *Journal) Record(result *ApplyResult, applyErr error) error {
	hash := result.Commit.Hash
	switch {
	case result.Outcome == OutcomeCommitted:
		return j.SetStatus(hash, StatusApplied, "")
	case result.Outcome == OutcomeNothingToCommit && (applyErr == nil || errors.Is(applyErr, ErrStashRestore)):
		return j.SetStatus(hash, StatusSkipped, "")
	case applyErr != nil:
		interrupted := errors.Is(applyErr, ErrResolutionAborted) || errors.Is(applyErr, ErrUnresolvedConflicts)
		return j.update(hash, StatusFailed, applyErr.Error(), interrupted, interrupted && result.Stashed)
	}
	return nil
}

// Interrupted returns the entry whose replay is waiting in the working tree
func (j *Journal) Interrupted() (JournalEntry, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, e := range j.Entries {
		if e.Status == StatusFailed && e.Interrupted {
			return e, true
		}
	}
	return JournalEntry{}, false
}

// Status returns the status recorded for hash
func (j *Journal) Status(hash string) (EntryStatus, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	i := j.indexUnsafe(hash)
	if i < 0 {
		return "", false
	}
	return j.Entries[i].Status, true
}

// Done reports whether hash was applied or skipped
func (j *Journal) Done(hash string) bool {
	status, ok := j.Status(hash)
	return ok && (status == StatusApplied || status == StatusSkipped)
}

// Remaining returns the commits still to apply, oldest first
func (j *Journal) Remaining() []Commit {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var commits []Commit
	for _, e := range j.Entries {
		if e.Status == StatusPending || e.Status == StatusFailed {
			commits = append(commits, e.Commit)
		}
	}
	return SortChronological(commits)
}

// Len returns the number of entries
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.Entries)
}

// Clear removes the journal file
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Template = ""
	j.Entries = nil
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove journal: %w", err)
	}
	return nil
}

func (j *Journal) indexUnsafe(hash string) int {
	for i, e := range j.Entries {
		if e.Commit.Hash == hash {
			return i
		}
	}
	return -1
}

// saveUnsafe persists the journal without locking.
// Caller must hold the write lock.
func (j *Journal) saveUnsafe() error {
	data, err := json.MarshalIndent(journalFile{Template: j.Template, Entries: j.Entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := j.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	if err := os.Rename(tmpPath, j.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename journal: %w", err)
	}

	return nil
}

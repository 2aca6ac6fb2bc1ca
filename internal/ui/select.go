package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/obentoo/template-sync/internal/upstream"
)

func init() {
	// Force lipgloss to initialize and detect terminal before fuzzy finder starts
	// This prevents ANSI escape sequences from leaking into the finder input
	_ = lipgloss.NewStyle().Render("")
	_ = lipgloss.HasDarkBackground()
}

// AllSelector selects every candidate without asking
type AllSelector struct{}

// Select returns all candidates
func (AllSelector) Select(ctx context.Context, candidates []upstream.Commit) ([]upstream.Commit, error) {
	return candidates, nil
}

// FinderSelector lets the operator pick candidates in a fuzzy finder.
// Tab marks several entries, enter confirms.
type FinderSelector struct{}

// Select presents the finder. A cancelled finder selects nothing.
func (FinderSelector) Select(ctx context.Context, candidates []upstream.Commit) ([]upstream.Commit, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	// Flush stdout/stderr before starting fuzzy finder to clear any ANSI sequences
	os.Stdout.Sync()
	os.Stderr.Sync()

	indices, err := fuzzyfinder.FindMulti(
		candidates,
		func(i int) string {
			return FormatCommitLine(candidates[i])
		},
		fuzzyfinder.WithContext(ctx),
		fuzzyfinder.WithHeader("Select template updates to apply (tab to mark, enter to confirm)"),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return FormatCommitPreview(candidates[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("selection failed: %w", err)
	}

	return pick(candidates, indices), nil
}

// PromptSelector prints a numbered list and reads the choice from Reader
type PromptSelector struct {
	Reader io.Reader
	Writer io.Writer
	Width  int // line width, the terminal width when zero
}

// Select prompts for 'all', 'none' or comma-separated numbers
func (p PromptSelector) Select(ctx context.Context, candidates []upstream.Commit) ([]upstream.Commit, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	width := p.Width
	if width <= 0 {
		width = GetTerminalWidth()
	}
	for i, c := range candidates {
		fmt.Fprintf(p.Writer, "  %2d) %s\n", i+1, TruncateLine(FormatCommitLine(c), width-6))
	}

	line, err := newLineReader(p.Reader).prompt(ctx, p.Writer,
		"Select updates to apply (all, none, or e.g. 1,3): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return pick(candidates, ParseSelection(line, len(candidates))), nil
}

// ParseSelection parses 'all', 'none' or comma-separated indices (1-indexed).
// Returns selected indices (0-indexed); invalid or repeated entries are ignored.
func ParseSelection(input string, itemCount int) []int {
	input = strings.TrimSpace(input)

	if input == "" || strings.EqualFold(input, "none") {
		return nil
	}

	if strings.EqualFold(input, "all") {
		indices := make([]int, itemCount)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	var selected []int
	seen := make(map[int]bool)

	for _, part := range strings.Split(input, ",") {
		index, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || index < 1 || index > itemCount {
			continue
		}
		zeroIdx := index - 1
		if !seen[zeroIdx] {
			selected = append(selected, zeroIdx)
			seen[zeroIdx] = true
		}
	}

	return selected
}

// NewSelector returns AllSelector when yes is set, the fuzzy finder on a
// terminal and the numbered prompt otherwise
func NewSelector(yes bool) upstream.Selector {
	switch {
	case yes:
		return AllSelector{}
	case IsInteractive():
		return FinderSelector{}
	default:
		return PromptSelector{Reader: os.Stdin, Writer: os.Stdout}
	}
}

func pick(candidates []upstream.Commit, indices []int) []upstream.Commit {
	if len(indices) == 0 {
		return nil
	}
	selected := make([]upstream.Commit, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, candidates[i])
	}
	return selected
}

type lineResult struct {
	line string
	err  error
}

// lineReader reads one line per prompt, giving up when ctx is done.
// The read itself cannot be interrupted, so a read abandoned by a cancelled
// prompt stays pending and the next prompt takes its line instead of
// starting a second read on the same reader.
type lineReader struct {
	r       *bufio.Reader
	pending chan lineResult
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// prompt writes text to w and reads the answer
func (l *lineReader) prompt(ctx context.Context, w io.Writer, text string) (string, error) {
	fmt.Fprint(w, text)

	if l.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := l.r.ReadString('\n')
			ch <- lineResult{line, err}
		}()
		l.pending = ch
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(w)
		return "", ctx.Err()
	case res := <-l.pending:
		l.pending = nil
		return strings.TrimSpace(res.line), res.err
	}
}

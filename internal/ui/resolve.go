package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/obentoo/template-sync/internal/upstream"
)

var (
	// ErrOperatorAbort is returned when the operator declines to resolve a conflict
	ErrOperatorAbort = errors.New("aborted by operator")
	// ErrNoTerminal is returned when a conflict needs resolving but nobody can be asked
	ErrNoTerminal = errors.New("conflicts need manual resolution but no terminal is attached")
)

// ResolvePrompt is shown while the apply waits for conflicts to be resolved
const ResolvePrompt = "Resolve/stage conflicts and press enter to continue..."

// PromptResolver waits for the operator to resolve conflicts in another
// terminal and confirm with enter. Typing "abort" or "q", closing the
// input or cancelling the context gives up.
type PromptResolver struct {
	Reader io.Reader
	Writer io.Writer

	lines *lineReader
}

// NewPromptResolver creates a resolver reading from r and prompting on w
func NewPromptResolver(r io.Reader, w io.Writer) *PromptResolver {
	return &PromptResolver{Reader: r, Writer: w}
}

// WaitForResolution blocks until the operator confirms
func (p *PromptResolver) WaitForResolution(ctx context.Context, c upstream.Commit, attempt int) error {
	if p.lines == nil {
		p.lines = newLineReader(p.Reader)
	}

	if attempt == 1 {
		fmt.Fprintf(p.Writer, "\nApplying %s left conflicts or unstaged changes.\n", c.Hash)
	} else {
		fmt.Fprintf(p.Writer, "\nThe commit for %s still cannot be recorded (attempt %d).\n", c.Hash, attempt)
	}

	line, err := p.lines.prompt(ctx, p.Writer, ResolvePrompt)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: input closed", ErrOperatorAbort)
		}
		return err
	}

	switch strings.ToLower(line) {
	case "abort", "q", "quit":
		return ErrOperatorAbort
	}
	return nil
}

// NonInteractiveResolver gives up at the first conflict
type NonInteractiveResolver struct{}

// WaitForResolution always fails with ErrNoTerminal
func (NonInteractiveResolver) WaitForResolution(ctx context.Context, c upstream.Commit, attempt int) error {
	return fmt.Errorf("%w: %s", ErrNoTerminal, c.Hash)
}

// NewResolver prompts on the terminal when one is attached
func NewResolver() upstream.Resolver {
	if IsInteractive() {
		return NewPromptResolver(os.Stdin, os.Stdout)
	}
	return NonInteractiveResolver{}
}

package upstream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/obentoo/template-sync/internal/common/git"
)

var (
	// ErrMisalignedHistory is returned when per-field log queries disagree on the commit count
	ErrMisalignedHistory = errors.New("history fields are misaligned")
)

// Field is a git log placeholder selecting one attribute per commit
type Field string

const (
	FieldHash      Field = "%h"
	FieldSubject   Field = "%s"
	FieldBody      Field = "%b"
	FieldTimestamp Field = "%at"
)

// recordSeparator terminates every log record so multi-line bodies stay aligned
const recordSeparator = "\x1e"

// LogField returns one value per commit reachable from ref, newest first
func LogField(ctx context.Context, g git.GitExecutor, ref string, field Field) ([]string, error) {
	res, err := g.Run(ctx, "log", "--format="+string(field)+"%x1e", ref, "--")
	if err != nil {
		return nil, fmt.Errorf("reading %s of %s: %w", field, ref, err)
	}
	return splitRecords(res.Stdout), nil
}

// splitRecords splits separator-terminated log output into records
func splitRecords(output string) []string {
	parts := strings.Split(output, recordSeparator)
	// Everything after the last separator is the trailing newline
	parts = parts[:len(parts)-1]

	records := make([]string, len(parts))
	for i, p := range parts {
		records[i] = strings.Trim(p, "\n")
	}
	return records
}

// ReadHistory reads the commits of ref with one log query per field and
// zips them by position. messageField selects what goes into
// Commit.Message, usually FieldSubject or FieldBody.
func ReadHistory(ctx context.Context, g git.GitExecutor, ref string, messageField Field) ([]Commit, error) {
	hashes, err := LogField(ctx, g, ref, FieldHash)
	if err != nil {
		return nil, err
	}
	messages, err := LogField(ctx, g, ref, messageField)
	if err != nil {
		return nil, err
	}
	timestamps, err := LogField(ctx, g, ref, FieldTimestamp)
	if err != nil {
		return nil, err
	}

	if len(messages) != len(hashes) || len(timestamps) != len(hashes) {
		return nil, fmt.Errorf("%w: %s has %d hashes, %d messages, %d timestamps",
			ErrMisalignedHistory, ref, len(hashes), len(messages), len(timestamps))
	}

	commits := make([]Commit, len(hashes))
	for i, hash := range hashes {
		ts, err := strconv.ParseInt(strings.TrimSpace(timestamps[i]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp of %s: %w", hash, err)
		}
		commits[i] = Commit{
			Hash:      strings.TrimSpace(hash),
			Message:   messages[i],
			Timestamp: ts,
		}
	}

	return commits, nil
}

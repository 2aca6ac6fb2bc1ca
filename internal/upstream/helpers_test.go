package upstream

import (
	"errors"
	"strconv"
	"strings"

	"github.com/obentoo/template-sync/internal/common/git"
)

// fakeHistories answers rev-parse and log queries from in-memory histories,
// each newest first, keyed by ref
func fakeHistories(dir string, histories map[string][]Commit) *git.MockGitRunner {
	m := git.NewMockGitRunner(dir)
	m.RunFunc = func(args ...string) (git.Result, error) {
		switch args[0] {
		case "rev-parse":
			ref := strings.TrimSuffix(args[len(args)-1], "^{commit}")
			if len(histories[ref]) == 0 {
				return git.Result{ExitCode: 1}, &git.CommandError{Args: args, ExitCode: 1, Err: errors.New("exit status 1")}
			}
			return git.Result{Stdout: histories[ref][0].Hash + "\n"}, nil
		case "log":
			field := Field(strings.TrimSuffix(strings.TrimPrefix(args[1], "--format="), "%x1e"))
			return git.Result{Stdout: renderLog(histories[args[2]], field)}, nil
		}
		return git.Result{}, nil
	}
	return m
}

// renderLog mimics git log --format=<field>%x1e
func renderLog(commits []Commit, field Field) string {
	var b strings.Builder
	for _, c := range commits {
		var v string
		switch field {
		case FieldHash:
			v = c.Hash
		case FieldSubject:
			v, _, _ = strings.Cut(c.Message, "\n")
		case FieldBody:
			_, body, _ := strings.Cut(c.Message, "\n\n")
			v = body + "\n"
		case FieldTimestamp:
			v = strconv.FormatInt(c.Timestamp, 10)
		}
		b.WriteString(v + "\x1e\n")
	}
	return b.String()
}

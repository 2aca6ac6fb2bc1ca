package upstream

import "strings"

// MarkerPhrase tags replayed commits with their template origin.
// Discovery looks for it to recognize commits that were already applied.
const MarkerPhrase = "upstream template:"

var messageEscaper = strings.NewReplacer(
	`"`, `\"`,
	`'`, `\'`,
	"`", "\\`",
	`$`, `\$`,
	`\`, `\\`,
)

// EscapeMessage backslash-escapes " ' ` $ and \ exactly once
func EscapeMessage(message string) string {
	return messageEscaper.Replace(message)
}

// UpdateCommitMessage builds the message recorded for a replayed commit
func UpdateCommitMessage(c Commit) string {
	return EscapeMessage(c.Message) + "\n\n" + MarkerPhrase + " " + c.Hash
}

// StashLabel is the stash message used while c is being applied
func StashLabel(hash string) string {
	return "Before applying upstream-template update " + hash
}

package upstream

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// bumpPattern matches automated dependency updates such as
// "Bump lodash from 4.17.15 to 4.17.21"
var bumpPattern = regexp.MustCompile(`Bump (\S+) from (\S+) to (\S+)`)

// Update is a dependency version change carried by a bump commit
type Update struct {
	Package string
	From    string
	Version string
}

// String returns the install argument, e.g. lodash@4.17.21
func (u Update) String() string {
	return u.Package + "@" + u.Version
}

// ParseBump extracts the package and target version from a bump commit
// message. It returns false when the message is not a bump.
func ParseBump(message string) (Update, bool) {
	m := bumpPattern.FindStringSubmatch(message)
	if m == nil {
		return Update{}, false
	}
	return Update{
		Package: m[1],
		From:    m[2],
		Version: m[3],
	}, true
}

// Direction describes how an update moves the dependency version
type Direction string

const (
	DirectionUpgrade   Direction = "upgrade"
	DirectionDowngrade Direction = "downgrade"
	DirectionSame      Direction = "same"
	DirectionUnknown   Direction = "unknown"
)

// Direction compares From and Version as semantic versions.
// Non-semver versions yield DirectionUnknown.
func (u Update) Direction() Direction {
	from, err := semver.NewVersion(u.From)
	if err != nil {
		return DirectionUnknown
	}
	to, err := semver.NewVersion(u.Version)
	if err != nil {
		return DirectionUnknown
	}

	switch to.Compare(from) {
	case 1:
		return DirectionUpgrade
	case -1:
		return DirectionDowngrade
	default:
		return DirectionSame
	}
}

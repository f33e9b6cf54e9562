// Package version derives the set of Payload major versions a
// dependency range can satisfy.
package version

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// UnknownMajor marks a plugin whose targeted Payload version could not
// be determined. The snapshot format serializes it as 0.
const UnknownMajor = 0

// Majors is a sorted, deduplicated set of major version numbers.
type Majors []int

// Unknown is the canonical "version undetermined" value.
var Unknown = Majors{UnknownMajor}

// IsUnknown reports whether m is the undetermined sentinel.
func (m Majors) IsUnknown() bool {
	return len(m) == 1 && m[0] == UnknownMajor
}

var (
	comparatorRe  = regexp.MustCompile(`[\^~>=<]`)
	majorZeroRe   = regexp.MustCompile(`^(\d+)\.0\.0(-beta)?`)
	leadingNumRe  = regexp.MustCompile(`^(\d+)`)
	majorZeroOnly = 1 // submatch index of the major in majorZeroRe
)

// ParseMajors turns a raw dependency range into the majors it can
// satisfy. Any range containing "beta" is pinned to major 3: every
// beta-tagged Payload constraint in the wild targets the 3.0 line, so
// the numeric content is ignored on purpose. Returns nil when no
// segment yields a number; callers must substitute Unknown before
// storing the result.
func ParseMajors(versionRange string) Majors {
	if versionRange == "" {
		return nil
	}
	if strings.Contains(strings.ToLower(versionRange), "beta") {
		return Majors{3}
	}

	seen := make(map[int]bool)
	for _, segment := range strings.Split(versionRange, "||") {
		segment = comparatorRe.ReplaceAllString(strings.TrimSpace(segment), "")
		if segment == "" {
			continue
		}
		if m := majorZeroRe.FindStringSubmatch(segment); m != nil {
			seen[mustAtoi(m[majorZeroOnly])] = true
			continue
		}
		if v, err := semver.NewVersion(segment); err == nil {
			seen[int(v.Major())] = true
			continue
		}
		if m := leadingNumRe.FindStringSubmatch(segment); m != nil {
			seen[mustAtoi(m[1])] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}

	majors := make(Majors, 0, len(seen))
	for m := range seen {
		majors = append(majors, m)
	}
	sort.Ints(majors)
	return majors
}

func mustAtoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

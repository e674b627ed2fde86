package resolver

import (
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalVersion turns a client version such as "1.1.1" into the "v"-prefixed form semver expects.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// VersionBelow reports whether version is missing, unparseable or older than minimum.
func VersionBelow(version, minimum string) bool {
	v := canonicalVersion(version)
	if !semver.IsValid(v) {
		return true
	}
	m := canonicalVersion(minimum)
	if !semver.IsValid(m) {
		return false
	}
	return semver.Compare(v, m) < 0
}

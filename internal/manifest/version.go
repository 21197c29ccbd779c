package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
// A leading "v" is ignored.
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// SameVersion reports whether installed and running name the same release.
// Builds without a semver version (such as "dev") compare as plain strings.
func SameVersion(installed, running string) bool {
	cmp, err := CompareVersions(installed, running)
	if err != nil {
		return strings.TrimPrefix(installed, "v") == strings.TrimPrefix(running, "v")
	}
	return cmp == 0
}

// Drift describes how an installed manifest relates to the running binary.
type Drift string

const (
	DriftNone    Drift = "up-to-date"
	DriftOlder   Drift = "older"
	DriftNewer   Drift = "newer"
	DriftUnknown Drift = "unknown"
)

// DriftFrom classifies the installed version against the running one.
func DriftFrom(installed, running string) Drift {
	cmp, err := CompareVersions(installed, running)
	if err != nil {
		if SameVersion(installed, running) {
			return DriftNone
		}
		return DriftUnknown
	}
	switch {
	case cmp < 0:
		return DriftOlder
	case cmp > 0:
		return DriftNewer
	default:
		return DriftNone
	}
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}

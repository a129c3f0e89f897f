package csargs

import (
	"strings"

	"buildcap/internal/errors"

	"github.com/Masterminds/semver/v3"
)

// Versions the symbolic language versions resolve to.
var (
	LatestMajorVersion = semver.MustParse("13.0")
	PreviewVersion     = semver.MustParse("14.0")
)

// LanguageVersion is the value of /langversion. Name holds the symbolic
// name (default, latest, latestmajor, preview) or the number as written.
type LanguageVersion struct {
	Name    string
	Version *semver.Version // nil for symbolic names
}

// DefaultLanguageVersion is used when /langversion is absent.
var DefaultLanguageVersion = LanguageVersion{Name: "default"}

// ParseLanguageVersion accepts the values the compiler accepts for
// /langversion.
func ParseLanguageVersion(s string) (LanguageVersion, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "default", "latest", "latestmajor", "preview":
		return LanguageVersion{Name: name}, nil
	case "iso-1":
		return LanguageVersion{Name: s, Version: semver.MustParse("1.0")}, nil
	case "iso-2":
		return LanguageVersion{Name: s, Version: semver.MustParse("2.0")}, nil
	}

	v, err := semver.NewVersion(name)
	if err != nil || v.Prerelease() != "" || v.Metadata() != "" || v.Patch() != 0 || v.Major() == 0 {
		return LanguageVersion{}, errors.Newf("invalid language version %q", s)
	}
	return LanguageVersion{Name: s, Version: v}, nil
}

// Effective resolves symbolic names to a concrete version.
func (l LanguageVersion) Effective() *semver.Version {
	switch {
	case l.Version != nil:
		return l.Version
	case l.Name == "preview":
		return PreviewVersion
	default:
		return LatestMajorVersion
	}
}

// AtLeast reports whether the effective version is major.minor or later.
func (l LanguageVersion) AtLeast(major, minor uint64) bool {
	floor := semver.New(major, minor, 0, "", "")
	return !l.Effective().LessThan(floor)
}

func (l LanguageVersion) String() string {
	if l.Name == "" {
		return "default"
	}
	return l.Name
}

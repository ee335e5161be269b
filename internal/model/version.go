package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is an interpreter's major.minor version.
//
// Ordering is version-aware: 3.9 sorts before 3.10. Plain string ordering
// would put "3.10" first, so comparisons always go through Compare.
type Version struct {
	Major int
	Minor int
}

// ParseVersion extracts major.minor from interpreter output.
// Accepted forms: "3.10", "3.10.4", "Python 3.10.4", "3.13.0rc1".
// Anything past the minor component is ignored.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "Python ")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return Version{}, fmt.Errorf("empty version string")
	}

	parts := strings.SplitN(trimmed, ".", 3)
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	// The minor component may carry a pre-release suffix when there is no
	// patch component ("3.13rc1" is not produced by CPython, but be lenient).
	minorDigits := leadingDigits(parts[1])
	if minorDigits == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}
	minor, err := strconv.Atoi(minorDigits)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: major, Minor: minor}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
// Intended for constants and tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Semver returns the version in the canonical "vMAJOR.MINOR" form
// understood by golang.org/x/mod/semver.
func (v Version) Semver() string {
	return "v" + v.String()
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal
// to or after other.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.Semver(), other.Semver())
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// AtLeast reports whether v is equal to or newer than minimum.
func (v Version) AtLeast(minimum Version) bool {
	return v.Compare(minimum) >= 0
}

// IsZero reports whether v is the zero value.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

// MarshalJSON encodes the version as a "major.minor" string.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes a "major.minor" string.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

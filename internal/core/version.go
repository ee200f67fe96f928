package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a structured, comparable JDK version
type Version struct {
	Major     int
	Minor     int
	Patch     int
	Qualifier string
}

// String formats the version as major.minor.patch[-qualifier]
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Qualifier != "" {
		s += "-" + v.Qualifier
	}
	return s
}

// MarshalText implements encoding.TextMarshaler
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare returns -1, 0 or 1 using semantic version precedence. A release
// without qualifier ranks above the same version with a qualifier.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semver(), other.semver())
}

// semver renders v in the form golang.org/x/mod/semver accepts
func (v Version) semver() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Qualifier != "" {
		s += "-" + semverPrerelease(v.Qualifier)
	}
	return s
}

// semverPrerelease rewrites a qualifier into valid prerelease identifiers:
// characters outside [0-9A-Za-z-] become '-', empty identifiers become "0"
// and numeric identifiers lose leading zeros.
func semverPrerelease(q string) string {
	idents := strings.Split(q, ".")
	for i, id := range idents {
		id = strings.Map(func(r rune) rune {
			switch {
			case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
				return r
			}
			return '-'
		}, id)
		if isDigits(id) {
			id = strings.TrimLeft(id, "0")
		}
		if id == "" {
			id = "0"
		}
		idents[i] = id
	}
	return strings.Join(idents, ".")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseVersion parses "major[.minor[.patch]][-qualifier][+build]".
// Any build suffix is discarded; use ParseJavaVersion to keep it.
func ParseVersion(s string) (Version, error) {
	v, _, err := ParseJavaVersion(s)
	return v, err
}

// ParseJavaVersion parses the version strings JDKs report, returning the
// version and build number:
//
//	1.8.0_202      -> 1.8.0, build 202
//	1.8.0_202-b08  -> 1.8.0, build 202
//	11.0.2+7       -> 11.0.2, build 7
//	21-ea+19       -> 21.0.0-ea, build 19
func ParseJavaVersion(s string) (Version, int, error) {
	raw := strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
	if raw == "" {
		return Version{}, 0, fmt.Errorf("parse version: empty string")
	}

	build := 0
	hasBuild := false

	if idx := strings.IndexByte(raw, '+'); idx >= 0 {
		if n, err := strconv.Atoi(leadingDigits(raw[idx+1:])); err == nil {
			build, hasBuild = n, true
		}
		raw = raw[:idx]
	}

	qualifier := ""
	if idx := strings.IndexByte(raw, '-'); idx >= 0 {
		qualifier = raw[idx+1:]
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '_'); idx >= 0 {
		n, err := strconv.Atoi(raw[idx+1:])
		if err != nil {
			return Version{}, 0, fmt.Errorf("parse version %q: invalid update number", s)
		}
		build, hasBuild = n, true
		raw = raw[:idx]
	}

	// Legacy "-bNN" build markers are not qualifiers
	if isBuildMarker(qualifier) {
		if !hasBuild {
			build, _ = strconv.Atoi(qualifier[1:])
		}
		qualifier = ""
	}

	parts := strings.Split(raw, ".")
	if len(parts) > 4 {
		return Version{}, 0, fmt.Errorf("parse version %q: too many components", s)
	}

	nums := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, 0, fmt.Errorf("parse version %q: invalid component %q", s, part)
		}
		// Emergency patch component (11.0.9.1) does not take part in ordering
		if i < 3 {
			nums[i] = n
		}
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Qualifier: qualifier}, build, nil
}

func isBuildMarker(q string) bool {
	if len(q) < 2 || q[0] != 'b' {
		return false
	}
	_, err := strconv.Atoi(q[1:])
	return err == nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

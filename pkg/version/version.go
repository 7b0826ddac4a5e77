// Package version provides config schema version parsing and compatibility
// checks.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Current is the config schema version written and understood by this build.
const Current = "1.0"

// ErrIncompatible is returned by Check for a different major version.
var ErrIncompatible = errors.New("incompatible schema version")

// SchemaVersion represents a parsed "major.minor" schema version.
type SchemaVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (SchemaVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return SchemaVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// MustParse is like Parse but panics on error. Use for constants.
func MustParse(s string) SchemaVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor".
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v SchemaVersion) Compatible(other SchemaVersion) bool {
	return v.Major == other.Major
}

// Newer returns true if v has a higher minor within the same major.
func (v SchemaVersion) Newer(other SchemaVersion) bool {
	return v.Major == other.Major && v.Minor > other.Minor
}

// Check validates a schema version read from a file against Current.
// An empty string means Current. A newer minor is accepted; unknown
// fields are ignored by the loader.
func Check(s string) error {
	if s == "" {
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	if current := MustParse(Current); !current.Compatible(v) {
		return fmt.Errorf("%w: %s (supported: %d.x)", ErrIncompatible, v, current.Major)
	}
	return nil
}

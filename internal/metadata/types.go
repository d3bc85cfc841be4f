// Package metadata reads and normalizes the release metadata published with a commit.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrParse marks metadata that could not be interpreted.
var ErrParse = errors.New("unable to parse release metadata")

// ErrVersionRange marks a version whose components do not fit the packed encoding.
var ErrVersionRange = errors.New("version component out of range")

// Fetcher retrieves a file of the source repository at a commit.
type Fetcher interface {
	Fetch(ctx context.Context, commit, path string) ([]byte, error)
}

// Source produces the release metadata for a commit.
type Source interface {
	Read(ctx context.Context, commit string) (*ReleaseMetadata, error)
}

// ReleaseMetadata is the normalized description of a release.
type ReleaseMetadata struct {
	Version SemVer
	// Track is the raw label found in the source, empty when absent.
	Track string
	// Forks maps lower-cased network keys to fork-activation block numbers.
	Forks    map[string]uint64
	Critical bool
	// Warnings lists fork entries that could not be parsed and were set to 0.
	Warnings []string
}

// ForkBlock looks up the fork block for a network, ignoring case.
func (m *ReleaseMetadata) ForkBlock(network string) (uint64, bool) {
	block, ok := m.Forks[strings.ToLower(network)]
	return block, ok
}

// SemVer is a three-part numeric version.
type SemVer struct {
	Major uint64
	Minor uint64
	Patch uint64
}

var versionRegex = regexp.MustCompile(`^v?([0-9]+)\.([0-9]+)\.([0-9]+)`)

// ParseVersion extracts major.minor.patch from the start of s. Pre-release and
// build suffixes are ignored.
func ParseVersion(s string) (SemVer, error) {
	m := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return SemVer{}, fmt.Errorf("%w: version %q is not major.minor.patch", ErrParse, s)
	}

	var parts [3]uint64
	for i := range parts {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return SemVer{}, fmt.Errorf("%w: version %q: %v", ErrParse, s, err)
		}
		parts[i] = n
	}
	return SemVer{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Encode packs the version as major*65536 + minor*256 + patch, the uint24
// layout the operations contract compares on. Components that would overflow
// their byte are rejected instead of corrupting neighbouring fields.
func (v SemVer) Encode() (uint32, error) {
	if v.Major > 0xff || v.Minor > 0xff || v.Patch > 0xff {
		return 0, fmt.Errorf("%w: %s", ErrVersionRange, v)
	}
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8 | uint32(v.Patch), nil
}

// EncodeVersion parses and packs a version string.
func EncodeVersion(s string) (uint32, error) {
	v, err := ParseVersion(s)
	if err != nil {
		return 0, err
	}
	return v.Encode()
}

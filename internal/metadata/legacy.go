package metadata

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Files scraped by the legacy reader.
const (
	LegacyTrackPath   = "util/src/misc.rs"
	LegacyForksPath   = "ethcore/src/ethereum/mod.rs"
	LegacyVersionPath = "Cargo.toml"
)

var (
	legacyTrackRegex   = regexp.MustCompile(`const THIS_TRACK. ..static str = "([a-z]*)";`)
	legacyForkRegex    = regexp.MustCompile(`pub const FORK_SUPPORTED_([A-Z0-9_]+): u64 = (\d+);`)
	legacyVersionRegex = regexp.MustCompile(`version = "([0-9]+\.[0-9]+\.[0-9]+)"`)
)

// LegacySource scrapes the track, fork blocks and version out of three source
// files. Its result never mixes with ManifestSource output.
type LegacySource struct {
	fetcher Fetcher
}

// NewLegacySource creates a three-file regex source.
func NewLegacySource(fetcher Fetcher) *LegacySource {
	return &LegacySource{fetcher: fetcher}
}

// Read fetches the three files concurrently and interprets them.
func (s *LegacySource) Read(ctx context.Context, commit string) (*ReleaseMetadata, error) {
	var trackSrc, forksSrc, versionSrc []byte

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(path string, dst *[]byte) {
		g.Go(func() error {
			b, err := s.fetcher.Fetch(gctx, commit, path)
			if err != nil {
				return err
			}
			*dst = b
			return nil
		})
	}
	fetch(LegacyTrackPath, &trackSrc)
	fetch(LegacyForksPath, &forksSrc)
	fetch(LegacyVersionPath, &versionSrc)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ParseLegacy(trackSrc, forksSrc, versionSrc)
}

// ParseLegacy interprets the contents of the three legacy files.
func ParseLegacy(trackSrc, forksSrc, versionSrc []byte) (*ReleaseMetadata, error) {
	vm := legacyVersionRegex.FindSubmatch(versionSrc)
	if vm == nil {
		return nil, fmt.Errorf("%s: %w: no version found", LegacyVersionPath, ErrParse)
	}
	version, err := ParseVersion(string(vm[1]))
	if err != nil {
		return nil, err
	}

	md := &ReleaseMetadata{
		Version: version,
		Forks:   make(map[string]uint64),
	}

	if tm := legacyTrackRegex.FindSubmatch(trackSrc); tm != nil {
		md.Track = string(tm[1])
	}

	for _, fm := range legacyForkRegex.FindAllSubmatch(forksSrc, -1) {
		network := strings.ToLower(string(fm[1]))
		block, err := strconv.ParseUint(string(fm[2]), 10, 64)
		if err != nil {
			md.Warnings = append(md.Warnings, fmt.Sprintf("unparseable fork block for %s: %s", network, fm[2]))
			block = 0
		}
		md.Forks[network] = block
	}

	return md, nil
}

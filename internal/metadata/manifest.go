package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultManifestPath is the manifest read at the repository root.
const DefaultManifestPath = "Cargo.toml"

// cargoManifest is the subset of a Cargo manifest the relay reads:
//
//	[package]
//	version = "1.7.13"
//
//	[package.metadata]
//	track = "stable"
//	critical = false
//
//	[package.metadata.forks]
//	foundation = 4370000
//	kovan = "5067000"
type cargoManifest struct {
	Package   *cargoPackage `toml:"package"`
	Workspace *struct {
		Package *cargoPackage `toml:"package"`
	} `toml:"workspace"`
}

type cargoPackage struct {
	// Version is usually a string but may be {workspace = true}.
	Version  any            `toml:"version"`
	Metadata *cargoMetadata `toml:"metadata"`
}

type cargoMetadata struct {
	Track    string         `toml:"track"`
	Critical bool           `toml:"critical"`
	Forks    map[string]any `toml:"forks"`
}

// ParseManifest parses a Cargo manifest into ReleaseMetadata.
func ParseManifest(content []byte) (*ReleaseMetadata, error) {
	var m cargoManifest
	if _, err := toml.Decode(string(content), &m); err != nil {
		return nil, fmt.Errorf("%w: parsing TOML: %v", ErrParse, err)
	}

	versionStr, ok := m.version()
	if !ok {
		return nil, fmt.Errorf("%w: manifest has no package version", ErrParse)
	}
	version, err := ParseVersion(versionStr)
	if err != nil {
		return nil, err
	}

	md := &ReleaseMetadata{
		Version: version,
		Forks:   make(map[string]uint64),
	}

	var meta *cargoMetadata
	if m.Package != nil {
		meta = m.Package.Metadata
	}
	if meta == nil {
		return md, nil
	}

	md.Track = strings.TrimSpace(meta.Track)
	md.Critical = meta.Critical
	for network, raw := range meta.Forks {
		key := strings.ToLower(network)
		block, ok := forkBlock(raw)
		if !ok {
			md.Warnings = append(md.Warnings, fmt.Sprintf("unparseable fork block for %s: %v", network, raw))
		}
		md.Forks[key] = block
	}
	return md, nil
}

func (m *cargoManifest) version() (string, bool) {
	if m.Package != nil {
		if s, ok := m.Package.Version.(string); ok && s != "" {
			return s, true
		}
	}
	if m.Workspace != nil && m.Workspace.Package != nil {
		if s, ok := m.Workspace.Package.Version.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// forkBlock coerces a TOML value into a block number; anything unusable is 0.
func forkBlock(raw any) (uint64, bool) {
	switch v := raw.(type) {
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ManifestSource reads metadata from a single manifest fetched at the commit.
type ManifestSource struct {
	fetcher Fetcher
	path    string
}

// NewManifestSource creates a source reading path (DefaultManifestPath when empty).
func NewManifestSource(fetcher Fetcher, path string) *ManifestSource {
	if path == "" {
		path = DefaultManifestPath
	}
	return &ManifestSource{fetcher: fetcher, path: path}
}

// Read fetches and parses the manifest.
func (s *ManifestSource) Read(ctx context.Context, commit string) (*ReleaseMetadata, error) {
	content, err := s.fetcher.Fetch(ctx, commit, s.path)
	if err != nil {
		return nil, err
	}
	md, err := ParseManifest(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return md, nil
}

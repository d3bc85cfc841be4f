package metadata

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commit = "8b749367fd5fea897cee98bd892fff1ce90f8260"

type fakeFetcher struct {
	mu    sync.Mutex
	files map[string]string
	err   error
	paths []string
}

func (f *fakeFetcher) Fetch(_ context.Context, c, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, c+":"+path)
	if f.err != nil {
		return nil, f.err
	}
	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("HTTP 404 for URL " + path)
	}
	return []byte(content), nil
}

func TestEncodeVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    uint32
		wantErr error
	}{
		{"parity 1.7.13", "1.7.13", 67341, nil},
		{"zero", "0.0.0", 0, nil},
		{"major only", "2.0.0", 131072, nil},
		{"pre-release suffix", "1.8.0-beta", 67584, nil},
		{"v prefix", "v1.7.13", 67341, nil},
		{"max", "255.255.255", 0xffffff, nil},
		{"minor overflow", "1.256.0", 0, ErrVersionRange},
		{"patch overflow", "1.0.300", 0, ErrVersionRange},
		{"not a version", "latest", 0, ErrParse},
		{"two parts", "1.7", 0, ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeVersion(tt.version)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSemVer_String(t *testing.T) {
	v, err := ParseVersion("1.7.13")
	require.NoError(t, err)
	assert.Equal(t, "1.7.13", v.String())
}

func TestParseManifest(t *testing.T) {
	content := `
[package]
name = "parity"
version = "1.7.13"

[package.metadata]
track = "stable"
critical = true

[package.metadata.forks]
Foundation = 4370000
kovan = "5067000"
ropsten = "soon"
`
	md, err := ParseManifest([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, SemVer{1, 7, 13}, md.Version)
	assert.Equal(t, "stable", md.Track)
	assert.True(t, md.Critical)
	assert.Equal(t, map[string]uint64{
		"foundation": 4370000,
		"kovan":      5067000,
		"ropsten":    0,
	}, md.Forks)
	require.Len(t, md.Warnings, 1)
	assert.Contains(t, md.Warnings[0], "ropsten")

	block, ok := md.ForkBlock("FOUNDATION")
	assert.True(t, ok)
	assert.Equal(t, uint64(4370000), block)

	_, ok = md.ForkBlock("classic")
	assert.False(t, ok)
}

func TestParseManifest_NoMetadata(t *testing.T) {
	md, err := ParseManifest([]byte("[package]\nversion = \"1.8.0\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "", md.Track)
	assert.False(t, md.Critical)
	assert.Empty(t, md.Forks)
}

func TestParseManifest_WorkspaceVersion(t *testing.T) {
	content := `
[workspace.package]
version = "2.0.1"

[package]
name = "parity"
version.workspace = true

[package.metadata]
track = "beta"
`
	md, err := ParseManifest([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, SemVer{2, 0, 1}, md.Version)
	assert.Equal(t, "beta", md.Track)
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid toml", "[package\nversion ="},
		{"no version", "[package]\nname = \"parity\"\n"},
		{"bad version", "[package]\nversion = \"next\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.content))
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestManifestSource_Read(t *testing.T) {
	f := &fakeFetcher{files: map[string]string{
		"Cargo.toml": "[package]\nversion = \"1.7.13\"\n[package.metadata]\ntrack = \"nightly\"\n",
	}}

	md, err := NewManifestSource(f, "").Read(context.Background(), commit)
	require.NoError(t, err)

	assert.Equal(t, "nightly", md.Track)
	assert.Equal(t, []string{commit + ":Cargo.toml"}, f.paths)
}

func TestManifestSource_FetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("HTTP 404 for URL x")}

	_, err := NewManifestSource(f, "Cargo.toml").Read(context.Background(), commit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

const (
	miscRS = `
pub const THIS_TRACK: &'static str = "beta";
// ^^^ should be reset to "stable" or "beta" according to the release branch.
`
	ethereumModRS = `
/// Most recent fork block that we support on Mainnet.
pub const FORK_SUPPORTED_FOUNDATION: u64 = 4370000;
/// Most recent fork block that we support on Ropsten.
pub const FORK_SUPPORTED_ROPSTEN: u64 = 10;
/// Most recent fork block that we support on Kovan.
pub const FORK_SUPPORTED_KOVAN: u64 = 0;
`
	cargoTOML = `
[package]
description = "Parity Ethereum client"
name = "parity"
version = "1.8.2"
`
)

func TestParseLegacy(t *testing.T) {
	md, err := ParseLegacy([]byte(miscRS), []byte(ethereumModRS), []byte(cargoTOML))
	require.NoError(t, err)

	assert.Equal(t, SemVer{1, 8, 2}, md.Version)
	assert.Equal(t, "beta", md.Track)
	assert.False(t, md.Critical)
	assert.Equal(t, map[string]uint64{
		"foundation": 4370000,
		"ropsten":    10,
		"kovan":      0,
	}, md.Forks)
}

func TestParseLegacy_MissingTrack(t *testing.T) {
	md, err := ParseLegacy([]byte("// nothing here"), nil, []byte(cargoTOML))
	require.NoError(t, err)
	assert.Equal(t, "", md.Track)
	assert.Empty(t, md.Forks)
}

func TestParseLegacy_MissingVersion(t *testing.T) {
	_, err := ParseLegacy([]byte(miscRS), []byte(ethereumModRS), []byte("[package]\nname = \"parity\"\n"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestLegacySource_Read(t *testing.T) {
	f := &fakeFetcher{files: map[string]string{
		LegacyTrackPath:   miscRS,
		LegacyForksPath:   ethereumModRS,
		LegacyVersionPath: cargoTOML,
	}}

	md, err := NewLegacySource(f).Read(context.Background(), commit)
	require.NoError(t, err)

	assert.Equal(t, "beta", md.Track)
	assert.Len(t, f.paths, 3)
	assert.ElementsMatch(t, []string{
		commit + ":" + LegacyTrackPath,
		commit + ":" + LegacyForksPath,
		commit + ":" + LegacyVersionPath,
	}, f.paths)
}

func TestLegacySource_FetchError(t *testing.T) {
	f := &fakeFetcher{files: map[string]string{
		LegacyTrackPath:   miscRS,
		LegacyVersionPath: cargoTOML,
	}}

	_, err := NewLegacySource(f).Read(context.Background(), commit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LegacyForksPath)
}

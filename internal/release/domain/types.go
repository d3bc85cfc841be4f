package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ReleaseRequest is a push-release call.
type ReleaseRequest struct {
	Tag    string
	Commit string
	Secret string
}

// BuildRequest is a push-build call.
type BuildRequest struct {
	Tag      string
	Platform string
	Commit   string
	Filename string
	SHA3     string
	Secret   string
}

// ReleaseResult describes a submitted release.
type ReleaseResult struct {
	RunID     string
	Commit    string
	Track     Track
	Network   string
	ForkBlock uint64
	Semver    uint32
	Critical  bool
	TxHash    common.Hash
}

// Summary is the plain-text response body.
func (r *ReleaseResult) Summary() string {
	return fmt.Sprintf("RELEASE: %s/%s/%s/%d", r.Commit, r.Track.Label, r.Track.Raw, r.ForkBlock)
}

// BuildResult describes a submitted build.
type BuildResult struct {
	RunID      string
	Platform   string
	Commit     string
	SHA3       string
	Tag        string
	Filename   string
	AssetURL   string
	Track      Track
	HintTx     common.Hash
	ChecksumTx common.Hash
}

// Summary is the plain-text response body.
func (r *BuildResult) Summary() string {
	return fmt.Sprintf("BUILD: %s/%s -> %s/%s/%s [%s]", r.Platform, r.Commit, r.SHA3, r.Tag, r.Filename, r.AssetURL)
}

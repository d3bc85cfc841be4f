// Package chains describes the ledger the relay registers releases on and how
// the network it reports maps to a fork key.
package chains

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Registered names of the contracts the relay writes to.
const (
	OperationsName = "parityoperations"
	GithubHintName = "githubhint"
)

// FoundationKey is the canonical key of the production network.
const FoundationKey = "foundation"

// commitPadding widens a 20-byte commit hash to a 32-byte word.
const commitPadding = "0x000000000000000000000000"

// Ledger is a node able to resolve registry entries and submit the
// registration transactions.
type Ledger interface {
	// NetChain returns the raw name of the chain the node is connected to.
	NetChain(ctx context.Context) (string, error)
	// RegistryAddress returns the address of the name registry contract.
	RegistryAddress(ctx context.Context) (common.Address, error)
	// Lookup resolves a registered name through the registry at registry.
	Lookup(ctx context.Context, registry common.Address, name string) (common.Address, error)

	AddRelease(ctx context.Context, operations common.Address, r Release) (common.Hash, error)
	AddChecksum(ctx context.Context, operations common.Address, c Checksum) (common.Hash, error)
	HintURL(ctx context.Context, githubhint common.Address, h Hint) (common.Hash, error)
}

// Release is the addRelease call.
type Release struct {
	Commit    string // 40 hex characters
	ForkBlock uint64
	Track     uint8
	Semver    uint32
	Critical  bool
}

// Checksum is the addChecksum call binding a platform binary to a release.
type Checksum struct {
	Commit   string // 40 hex characters
	Platform string // at most 32 bytes
	SHA3     string // 64 hex characters
}

// Hint is the hintURL call announcing where a binary can be downloaded.
type Hint struct {
	SHA3 string // 64 hex characters
	URL  string
}

// PaddedCommit left-pads a 40 hex character commit hash into a 0x-prefixed
// 32-byte word.
func PaddedCommit(commit string) string {
	return commitPadding + strings.ToLower(strings.TrimPrefix(commit, "0x"))
}

// aliases maps historical names of a network to its fork key.
var aliases = map[string]string{
	"homestead":  FoundationKey,
	"mainnet":    FoundationKey,
	"foundation": FoundationKey,
}

// Normalize maps a chain name reported by the node to the key used in the
// release fork table. Chain spec paths such as "/etc/parity/kovan.json"
// resolve to their base name; anything unknown is only lower-cased.
func Normalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasSuffix(key, ".json") {
		key = strings.TrimSuffix(path.Base(strings.ReplaceAll(key, `\`, "/")), ".json")
	}
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// NetworkResolver determines the fork key of the node's network.
type NetworkResolver struct {
	ledger Ledger
}

// NewNetworkResolver creates a resolver that queries ledger on every call.
func NewNetworkResolver(ledger Ledger) *NetworkResolver {
	return &NetworkResolver{ledger: ledger}
}

// Resolve queries the node once and normalizes the answer.
func (r *NetworkResolver) Resolve(ctx context.Context) (string, error) {
	raw, err := r.ledger.NetChain(ctx)
	if err != nil {
		return "", fmt.Errorf("querying chain: %w", err)
	}
	return Normalize(raw), nil
}

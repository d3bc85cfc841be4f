// Package evm implements the release ledger against an Ethereum node that
// exposes the Parity JSON-RPC extensions.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/paritytech/push-release/internal/chains"
)

// ErrNotRegistered is returned when a registry entry resolves to the zero address.
var ErrNotRegistered = errors.New("name not registered")

// Ledger implements chains.Ledger on top of a Client
type Ledger struct {
	client *Client
}

var _ chains.Ledger = (*Ledger)(nil)

// NewLedger creates a ledger backed by client.
func NewLedger(client *Client) *Ledger {
	return &Ledger{client: client}
}

// NetChain returns the raw chain name of the node.
func (l *Ledger) NetChain(ctx context.Context) (string, error) {
	return l.client.NetChain(ctx)
}

// RegistryAddress returns the registry address. It is not cached.
func (l *Ledger) RegistryAddress(ctx context.Context) (common.Address, error) {
	return l.client.RegistryAddress(ctx)
}

// Lookup resolves name to the address stored under its "A" record.
func (l *Ledger) Lookup(ctx context.Context, registry common.Address, name string) (common.Address, error) {
	data, err := RegistrarABI.Pack("getAddress", crypto.Keccak256Hash([]byte(name)), registryKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("encoding getAddress(%s): %w", name, err)
	}

	out, err := l.client.Call(ctx, registry, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("looking up %s: %w", name, err)
	}

	values, err := RegistrarABI.Unpack("getAddress", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("decoding getAddress(%s): %w", name, err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("decoding getAddress(%s): unexpected %T", name, values[0])
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	return addr, nil
}

// Submit encodes method(args...) against contract and sends it to to.
func (l *Ledger) Submit(ctx context.Context, contract *abi.ABI, to common.Address, method string, args ...any) (common.Hash, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding %s: %w", method, err)
	}
	hash, err := l.client.Send(ctx, to, data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("submitting %s: %w", method, err)
	}
	return hash, nil
}

// AddRelease registers a release with the operations contract.
func (l *Ledger) AddRelease(ctx context.Context, operations common.Address, r chains.Release) (common.Hash, error) {
	commit, err := commitWord(chains.PaddedCommit(r.Commit))
	if err != nil {
		return common.Hash{}, err
	}
	if r.ForkBlock > uint64(^uint32(0)) {
		return common.Hash{}, fmt.Errorf("fork block %d exceeds uint32", r.ForkBlock)
	}
	if r.Semver > 0xffffff {
		return common.Hash{}, fmt.Errorf("semver %d exceeds uint24", r.Semver)
	}

	return l.Submit(ctx, OperationsABI, operations, "addRelease",
		commit,
		uint32(r.ForkBlock),
		r.Track,
		new(big.Int).SetUint64(uint64(r.Semver)),
		r.Critical,
	)
}

// AddChecksum binds a platform binary checksum to a release.
func (l *Ledger) AddChecksum(ctx context.Context, operations common.Address, c chains.Checksum) (common.Hash, error) {
	commit, err := commitWord(chains.PaddedCommit(c.Commit))
	if err != nil {
		return common.Hash{}, err
	}
	platform, err := platformWord(c.Platform)
	if err != nil {
		return common.Hash{}, err
	}
	checksum, err := checksumWord(c.SHA3)
	if err != nil {
		return common.Hash{}, err
	}

	return l.Submit(ctx, OperationsABI, operations, "addChecksum", commit, platform, checksum)
}

// HintURL publishes the download location of a binary.
func (l *Ledger) HintURL(ctx context.Context, githubhint common.Address, h chains.Hint) (common.Hash, error) {
	checksum, err := checksumWord(h.SHA3)
	if err != nil {
		return common.Hash{}, err
	}

	return l.Submit(ctx, GithubHintABI, githubhint, "hintURL", checksum, h.URL)
}

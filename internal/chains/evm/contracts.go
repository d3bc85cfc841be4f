package evm

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

//go:embed abi/*.json
var abiFS embed.FS

// Contract interfaces the relay encodes calls against.
var (
	RegistrarABI  = mustLoadABI("registrar.json")
	GithubHintABI = mustLoadABI("githubhint.json")
	OperationsABI = mustLoadABI("operations.json")
)

// registryKey is the record of a registry entry holding the contract address.
const registryKey = "A"

func mustLoadABI(name string) *abi.ABI {
	data, err := abiFS.ReadFile("abi/" + name)
	if err != nil {
		panic(fmt.Sprintf("evm: reading %s: %v", name, err))
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("evm: parsing %s: %v", name, err))
	}
	return &parsed
}

// commitWord decodes a padded commit ("0x" + 12 zero bytes + 20 bytes) into a bytes32.
func commitWord(padded string) ([32]byte, error) {
	return word(padded, "commit")
}

// checksumWord decodes a 64 hex character checksum into a bytes32.
func checksumWord(sha3 string) ([32]byte, error) {
	if !has0x(sha3) {
		sha3 = "0x" + sha3
	}
	return word(sha3, "checksum")
}

// platformWord stores an ASCII platform name left-aligned in a bytes32.
func platformWord(platform string) ([32]byte, error) {
	var w [32]byte
	if len(platform) > len(w) {
		return w, fmt.Errorf("platform %q exceeds 32 bytes", platform)
	}
	copy(w[:], platform)
	return w, nil
}

func word(s, what string) ([32]byte, error) {
	var w [32]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return w, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	if len(b) != common.HashLength {
		return w, fmt.Errorf("invalid %s %q: want %d bytes, got %d", what, s, common.HashLength, len(b))
	}
	copy(w[:], b)
	return w, nil
}

func has0x(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

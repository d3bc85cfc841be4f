package evm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paritytech/push-release/internal/chains"
)

const (
	testCommit = "8b749367fd5fea897cee98bd892fff1ce90f8260"
	testSHA3   = "9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658"
	txHash     = "0x00000000000000000000000000000000000000000000000000000000000000aa"
)

var (
	registryAddr   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	operationsAddr = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	account        = common.HexToAddress("0x0066AC7A4608f350BF9a0323D60dDe211Dfb27c0")
)

type rpcCall struct {
	Method string
	Params []json.RawMessage
}

// fakeNode is a JSON-RPC endpoint answering from a fixed table.
type fakeNode struct {
	mu      sync.Mutex
	calls   []rpcCall
	results map[string]any
	errors  map[string]string
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls = append(n.calls, rpcCall{Method: req.Method, Params: req.Params})
	result, ok := n.results[req.Method]
	msg, failed := n.errors[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case failed:
		resp["error"] = map[string]any{"code": -32000, "message": msg}
	case ok:
		resp["result"] = result
	default:
		resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *fakeNode) methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.calls))
	for i, c := range n.calls {
		out[i] = c.Method
	}
	return out
}

func (n *fakeNode) last() rpcCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[len(n.calls)-1]
}

func newTestLedger(t *testing.T, node *fakeNode, opts ...Option) *Ledger {
	t.Helper()
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)

	rc, err := rpc.DialContext(context.Background(), server.URL)
	require.NoError(t, err)
	t.Cleanup(rc.Close)

	opts = append([]Option{WithAccount(account)}, opts...)
	return NewLedger(NewClient(rc, opts...))
}

func addressResult(addr common.Address) string {
	return "0x" + strings.Repeat("0", 24) + hex.EncodeToString(addr.Bytes())
}

func decodeTx(t *testing.T, raw json.RawMessage) TransactionRequest {
	t.Helper()
	var tx TransactionRequest
	require.NoError(t, json.Unmarshal(raw, &tx))
	return tx
}

func TestABISelectors(t *testing.T) {
	assert.Equal(t, "6795dbcd", hex.EncodeToString(RegistrarABI.Methods["getAddress"].ID))
	assert.Equal(t, "02f2008d", hex.EncodeToString(GithubHintABI.Methods["hintURL"].ID))
	assert.Equal(t, "932ab270", hex.EncodeToString(OperationsABI.Methods["addRelease"].ID))
	assert.Equal(t, "793b0efb", hex.EncodeToString(OperationsABI.Methods["addChecksum"].ID))
}

func TestLedger_NetChain(t *testing.T) {
	node := &fakeNode{results: map[string]any{"parity_netChain": "homestead"}}
	l := newTestLedger(t, node)

	chain, err := l.NetChain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "homestead", chain)
}

func TestLedger_RegistryAddress(t *testing.T) {
	node := &fakeNode{results: map[string]any{"parity_registryAddress": registryAddr.Hex()}}
	l := newTestLedger(t, node)

	addr, err := l.RegistryAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, registryAddr, addr)
}

func TestLedger_RegistryAddress_Null(t *testing.T) {
	node := &fakeNode{results: map[string]any{"parity_registryAddress": nil}}
	l := newTestLedger(t, node)

	_, err := l.RegistryAddress(context.Background())
	assert.ErrorIs(t, err, ErrNoRegistry)
}

func TestLedger_Lookup(t *testing.T) {
	node := &fakeNode{results: map[string]any{"eth_call": addressResult(operationsAddr)}}
	l := newTestLedger(t, node)

	addr, err := l.Lookup(context.Background(), registryAddr, chains.OperationsName)
	require.NoError(t, err)
	assert.Equal(t, operationsAddr, addr)

	call := node.last()
	require.Len(t, call.Params, 2)
	assert.JSONEq(t, `"latest"`, string(call.Params[1]))

	var args struct {
		To   common.Address `json:"to"`
		Data hexutil.Bytes  `json:"data"`
	}
	require.NoError(t, json.Unmarshal(call.Params[0], &args))
	assert.Equal(t, registryAddr, args.To)

	want, err := RegistrarABI.Pack("getAddress", crypto.Keccak256Hash([]byte("parityoperations")), "A")
	require.NoError(t, err)
	assert.Equal(t, want, []byte(args.Data))
}

func TestLedger_Lookup_Unregistered(t *testing.T) {
	node := &fakeNode{results: map[string]any{"eth_call": addressResult(common.Address{})}}
	l := newTestLedger(t, node)

	_, err := l.Lookup(context.Background(), registryAddr, chains.GithubHintName)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestLedger_AddRelease(t *testing.T) {
	node := &fakeNode{results: map[string]any{"eth_sendTransaction": txHash}}
	l := newTestLedger(t, node)

	hash, err := l.AddRelease(context.Background(), operationsAddr, chains.Release{
		Commit:    testCommit,
		ForkBlock: 0,
		Track:     1,
		Semver:    67341,
		Critical:  false,
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(txHash), hash)

	call := node.last()
	assert.Equal(t, "eth_sendTransaction", call.Method)
	require.Len(t, call.Params, 1)

	tx := decodeTx(t, call.Params[0])
	assert.Equal(t, account, tx.From)
	assert.Equal(t, operationsAddr, tx.To)
	require.NotNil(t, tx.GasPrice)
	assert.Equal(t, "0x4f9aca000", tx.GasPrice.String())

	want := "0x932ab270" +
		"0000000000000000000000008b749367fd5fea897cee98bd892fff1ce90f8260" +
		"0000000000000000000000000000000000000000000000000000000000000000" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"000000000000000000000000000000000000000000000000000000000001070d" +
		"0000000000000000000000000000000000000000000000000000000000000000"
	assert.Equal(t, want, tx.Data.String())
}

func TestLedger_AddRelease_WithPassword(t *testing.T) {
	node := &fakeNode{results: map[string]any{"personal_signAndSendTransaction": txHash}}
	l := newTestLedger(t, node, WithPassword("hunter2"))

	_, err := l.AddRelease(context.Background(), operationsAddr, chains.Release{
		Commit: testCommit, ForkBlock: 4370000, Track: 2, Semver: 67341, Critical: true,
	})
	require.NoError(t, err)

	call := node.last()
	assert.Equal(t, "personal_signAndSendTransaction", call.Method)
	require.Len(t, call.Params, 2)
	assert.JSONEq(t, `"hunter2"`, string(call.Params[1]))
}

func TestLedger_AddRelease_ForkBlockOverflow(t *testing.T) {
	node := &fakeNode{}
	l := newTestLedger(t, node)

	_, err := l.AddRelease(context.Background(), operationsAddr, chains.Release{
		Commit: testCommit, ForkBlock: 1 << 33, Track: 1, Semver: 1,
	})
	require.Error(t, err)
	assert.Empty(t, node.methods(), "nothing is sent")
}

func TestLedger_AddChecksum(t *testing.T) {
	node := &fakeNode{results: map[string]any{"eth_sendTransaction": txHash}}
	l := newTestLedger(t, node, WithGasPrice(nil))

	_, err := l.AddChecksum(context.Background(), operationsAddr, chains.Checksum{
		Commit:   testCommit,
		Platform: "x86_64-unknown-linux-gnu",
		SHA3:     testSHA3,
	})
	require.NoError(t, err)

	tx := decodeTx(t, node.last().Params[0])
	assert.Nil(t, tx.GasPrice)

	platform := hex.EncodeToString([]byte("x86_64-unknown-linux-gnu"))
	want := "0x793b0efb" +
		"0000000000000000000000008b749367fd5fea897cee98bd892fff1ce90f8260" +
		platform + strings.Repeat("0", 64-len(platform)) +
		testSHA3
	assert.Equal(t, want, tx.Data.String())
}

func TestLedger_AddChecksum_PlatformTooLong(t *testing.T) {
	l := newTestLedger(t, &fakeNode{})

	_, err := l.AddChecksum(context.Background(), operationsAddr, chains.Checksum{
		Commit:   testCommit,
		Platform: strings.Repeat("x", 33),
		SHA3:     testSHA3,
	})
	assert.ErrorContains(t, err, "exceeds 32 bytes")
}

func TestLedger_HintURL(t *testing.T) {
	node := &fakeNode{results: map[string]any{"eth_sendTransaction": txHash}}
	l := newTestLedger(t, node)
	hint := common.HexToAddress("0x00000000000000000000000000000000000000f3")
	url := "http://d1h4xl4cr1h0mo.cloudfront.net/v1.7.13/x86_64-unknown-linux-gnu/parity"

	_, err := l.HintURL(context.Background(), hint, chains.Hint{SHA3: testSHA3, URL: url})
	require.NoError(t, err)

	tx := decodeTx(t, node.last().Params[0])
	assert.Equal(t, hint, tx.To)

	want, err := GithubHintABI.Pack("hintURL", common.HexToHash("0x"+testSHA3), url)
	require.NoError(t, err)
	assert.Equal(t, want, []byte(tx.Data))
	assert.Equal(t, "02f2008d", hex.EncodeToString(tx.Data[:4]))
}

func TestLedger_NodeError(t *testing.T) {
	node := &fakeNode{errors: map[string]string{"eth_sendTransaction": "account is locked"}}
	l := newTestLedger(t, node)

	_, err := l.HintURL(context.Background(), operationsAddr, chains.Hint{SHA3: testSHA3, URL: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account is locked")
	assert.Contains(t, err.Error(), "hintURL")
}

package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultGasPrice is 21.4 gwei.
var DefaultGasPrice = big.NewInt(0x4F9ACA000)

// ErrNoRegistry is returned when the node does not know a registry contract.
var ErrNoRegistry = errors.New("node reported no registry address")

// Client speaks the JSON-RPC methods of the node the relay needs.
type Client struct {
	rpc      *rpc.Client
	from     common.Address
	password string
	gasPrice *big.Int
	timeout  time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithAccount sets the sending account.
func WithAccount(addr common.Address) Option {
	return func(c *Client) {
		c.from = addr
	}
}

// WithPassword makes the client unlock the account per transaction through
// personal_signAndSendTransaction.
func WithPassword(password string) Option {
	return func(c *Client) {
		c.password = password
	}
}

// WithGasPrice sets the gas price attached to transactions. Nil leaves the
// choice to the node.
func WithGasPrice(price *big.Int) Option {
	return func(c *Client) {
		c.gasPrice = price
	}
}

// WithTimeout bounds every RPC call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to the node at url. HTTP endpoints are connected lazily.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return NewClient(rc, opts...), nil
}

// NewClient wraps an existing RPC client.
func NewClient(rc *rpc.Client, opts ...Option) *Client {
	c := &Client{
		rpc:      rc,
		gasPrice: new(big.Int).Set(DefaultGasPrice),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// From returns the sending account.
func (c *Client) From() common.Address {
	return c.from
}

// NetChain returns the chain name reported by parity_netChain.
func (c *Client) NetChain(ctx context.Context) (string, error) {
	var chain string
	if err := c.call(ctx, &chain, "parity_netChain"); err != nil {
		return "", err
	}
	return chain, nil
}

// RegistryAddress returns the registry contract address from parity_registryAddress.
func (c *Client) RegistryAddress(ctx context.Context) (common.Address, error) {
	var addr *common.Address
	if err := c.call(ctx, &addr, "parity_registryAddress"); err != nil {
		return common.Address{}, err
	}
	if addr == nil || *addr == (common.Address{}) {
		return common.Address{}, ErrNoRegistry
	}
	return *addr, nil
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Call runs a read-only eth_call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", callArgs{To: to, Data: data}, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionRequest is the transaction object handed to the node for signing.
type TransactionRequest struct {
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Data     hexutil.Bytes  `json:"data"`
	GasPrice *hexutil.Big   `json:"gasPrice,omitempty"`
}

// Send submits a transaction from the configured account and returns its hash
// once the node accepted it. Inclusion is not awaited.
func (c *Client) Send(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	tx := TransactionRequest{
		From: c.from,
		To:   to,
		Data: data,
	}
	if c.gasPrice != nil {
		tx.GasPrice = (*hexutil.Big)(c.gasPrice)
	}

	var hash common.Hash
	var err error
	if c.password != "" {
		err = c.call(ctx, &hash, "personal_signAndSendTransaction", tx, c.password)
	} else {
		err = c.call(ctx, &hash, "eth_sendTransaction", tx)
	}
	if err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

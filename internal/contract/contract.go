// Package contract binds the Cupcake contract ABI to a wallet provider and
// one sender account.
package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/cupcakedapp/cupcake/internal/provider"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// DefaultAddress is the Cupcake contract on Arbitrum Sepolia.
const DefaultAddress = "0xEFEDC7325119dBE632FD89A086e3DA1Aa2Ba2b90"

// Contract method names.
const (
	MethodGiveCupcake = "giveCupcakeTo"
	MethodBalanceOf   = "getCupcakeBalanceFor"
)

// ABI is the Cupcake contract interface.
const ABI = `[
	{
		"type": "function",
		"name": "giveCupcakeTo",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "userAddress", "type": "address"}],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "getCupcakeBalanceFor",
		"stateMutability": "view",
		"inputs": [{"name": "userAddress", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	}
]`

//nolint:gochecknoglobals // parsed once, read-only afterwards
var parsedABI = sync.OnceValues(func() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(ABI))
})

// Backend is the part of the wallet the contract handle needs.
// Satisfied by *provider.Wallet.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Call(ctx context.Context, msg provider.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, args provider.TxArgs) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash, interval time.Duration) (*provider.Receipt, error)
}

// Contract is a handle to the Cupcake contract acting as one account.
type Contract struct {
	address      common.Address
	from         common.Address
	abi          abi.ABI
	backend      Backend
	pollInterval time.Duration
}

// Bind creates a handle for the contract at address, sending from `from`.
func Bind(address, from common.Address, backend Backend) (*Contract, error) {
	parsed, err := parsedABI()
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}
	if address == (common.Address{}) {
		return nil, cerr.WithDetails(cerr.ErrInvalidAddress, map[string]string{"contract": address.Hex()})
	}
	return &Contract{
		address:      address,
		from:         from,
		abi:          parsed,
		backend:      backend,
		pollInterval: provider.DefaultReceiptPollInterval,
	}, nil
}

// SetPollInterval sets how often WaitMined polls for a receipt.
func (c *Contract) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// Address returns the contract address.
func (c *Contract) Address() common.Address { return c.address }

// From returns the bound sender account.
func (c *Contract) From() common.Address { return c.from }

// ChainID reads back the chain the handle's wallet is on.
func (c *Contract) ChainID(ctx context.Context) (*big.Int, error) {
	return c.backend.ChainID(ctx)
}

// Simulate executes method as a read-only call from the bound account and
// returns the decoded outputs. Nothing is broadcast.
func (c *Contract) Simulate(ctx context.Context, method string, args ...any) ([]any, error) {
	input, err := c.pack(method, args)
	if err != nil {
		return nil, err
	}

	from := c.from
	out, err := c.backend.Call(ctx, provider.CallMsg{
		From: &from,
		To:   c.address,
		Data: input,
	})
	if err != nil {
		return nil, err
	}

	results, err := c.abi.Methods[method].Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}
	return results, nil
}

// Transact asks the wallet to sign and broadcast method, returning the
// transaction hash.
func (c *Contract) Transact(ctx context.Context, method string, args ...any) (common.Hash, error) {
	input, err := c.pack(method, args)
	if err != nil {
		return common.Hash{}, err
	}
	return c.backend.SendTransaction(ctx, provider.TxArgs{
		From: c.from,
		To:   c.address,
		Data: input,
	})
}

// WaitMined blocks until the transaction has a receipt or ctx ends.
func (c *Contract) WaitMined(ctx context.Context, hash common.Hash) (*provider.Receipt, error) {
	return c.backend.WaitMined(ctx, hash, c.pollInterval)
}

// CupcakeBalance returns the contract-tracked balance of account.
func (c *Contract) CupcakeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := c.Simulate(ctx, MethodBalanceOf, account)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("decoding %s result: expected 1 value, got %d", MethodBalanceOf, len(out))
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decoding %s result: unexpected type %T", MethodBalanceOf, out[0])
	}
	return balance, nil
}

// pack encodes a call, accepting hex strings for address arguments.
func (c *Contract) pack(method string, args []any) ([]byte, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, cerr.WithDetails(cerr.ErrInvalidInput, map[string]string{"method": method})
	}
	if len(args) != len(m.Inputs) {
		return nil, cerr.WithDetails(cerr.ErrInvalidInput, map[string]string{
			"method": method,
			"args":   fmt.Sprintf("want %d, got %d", len(m.Inputs), len(args)),
		})
	}

	converted := make([]any, len(args))
	for i, arg := range args {
		converted[i] = arg
		if m.Inputs[i].Type.T != abi.AddressTy {
			continue
		}
		if s, ok := arg.(string); ok {
			if !common.IsHexAddress(s) {
				return nil, cerr.WithDetails(cerr.ErrInvalidAddress, map[string]string{"address": s})
			}
			converted[i] = common.HexToAddress(s)
		}
	}

	input, err := c.abi.Pack(method, converted...)
	if err != nil {
		return nil, cerr.WithCause(cerr.ErrInvalidInput, err)
	}
	return input, nil
}

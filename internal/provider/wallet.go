package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cupcakedapp/cupcake/internal/chain"
)

// DefaultReceiptPollInterval is how often WaitMined asks for a receipt.
const DefaultReceiptPollInterval = 2 * time.Second

// Wallet exposes the typed wallet and chain calls the application makes
// through a Requester.
type Wallet struct {
	req   Requester
	retry chain.RetryConfig
}

// WalletOption configures a Wallet.
type WalletOption func(*Wallet)

// WithRetry retries read-only calls that fail with a transient provider
// error. Prompts and transaction submission are never retried.
func WithRetry(cfg chain.RetryConfig) WalletOption {
	return func(w *Wallet) {
		w.retry = cfg
	}
}

// NewWallet wraps a Requester.
func NewWallet(req Requester, opts ...WalletOption) *Wallet {
	w := &Wallet{req: req}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Requester returns the underlying requester.
func (w *Wallet) Requester() Requester {
	return w.req
}

// ChainID returns the chain the wallet is currently on.
func (w *Wallet) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := w.read(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return id.ToInt(), nil
}

// Accounts returns the accounts already exposed to the application, without prompting.
func (w *Wallet) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.read(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// RequestAccounts asks the wallet to expose its accounts, prompting the user if needed.
func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SwitchChain asks the wallet to switch to the chain with the given hex id.
func (w *Wallet) SwitchChain(ctx context.Context, hexChainID string) error {
	_, err := w.req.Request(ctx, "wallet_switchEthereumChain", SwitchChainParams{ChainID: hexChainID})
	return err
}

// AddChain asks the wallet to register a chain.
func (w *Wallet) AddChain(ctx context.Context, params AddChainParams) error {
	_, err := w.req.Request(ctx, "wallet_addEthereumChain", params)
	return err
}

// GetBalance returns the native balance of account at the latest block, in wei.
func (w *Wallet) GetBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance hexutil.Big
	if err := w.read(ctx, &balance, "eth_getBalance", account, "latest"); err != nil {
		return nil, err
	}
	return balance.ToInt(), nil
}

// Call executes a read-only call against the latest block.
func (w *Wallet) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	if err := w.read(ctx, &out, "eth_call", msg, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// SendTransaction asks the wallet to sign and broadcast a transaction.
func (w *Wallet) SendTransaction(ctx context.Context, args TxArgs) (common.Hash, error) {
	var hash common.Hash
	if err := w.call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// TransactionReceipt returns the receipt for hash, or nil while the
// transaction is still pending.
func (w *Wallet) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	raw, err := w.requestRead(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil //nolint:nilnil // pending transaction has no receipt yet
	}
	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	return &receipt, nil
}

// WaitMined polls for the receipt of hash until it exists or ctx ends.
func (w *Wallet) WaitMined(ctx context.Context, hash common.Hash, interval time.Duration) (*Receipt, error) {
	if interval <= 0 {
		interval = DefaultReceiptPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := w.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// read is call for methods that are safe to repeat.
func (w *Wallet) read(ctx context.Context, out any, method string, params ...any) error {
	raw, err := w.requestRead(ctx, method, params...)
	if err != nil {
		return err
	}
	return decodeResult(raw, out, method)
}

func (w *Wallet) requestRead(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if !w.retry.Enabled() {
		return w.req.Request(ctx, method, params...)
	}
	return chain.RetryWithConfig(ctx, w.retry, func() (json.RawMessage, error) {
		return w.req.Request(ctx, method, params...)
	})
}

func (w *Wallet) call(ctx context.Context, out any, method string, params ...any) error {
	raw, err := w.req.Request(ctx, method, params...)
	if err != nil {
		return err
	}
	return decodeResult(raw, out, method)
}

func decodeResult(raw json.RawMessage, out any, method string) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%s: empty result", method)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing %s result: %w", method, err)
	}
	return nil
}

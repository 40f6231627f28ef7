// Package provider is the port to an EIP-1193 style wallet provider: the
// component that holds the user's keys, signs transactions, and relays
// JSON-RPC requests to the chain.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// Well-known EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
	CodeInternal          = -32603
)

// Requester sends one request to the wallet provider.
type Requester interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Error is a provider error object: {code, message, data}.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var (
	_ rpc.Error     = (*Error)(nil)
	_ rpc.DataError = (*Error)(nil)
)

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// ErrorCode returns the provider error code.
func (e *Error) ErrorCode() int {
	return e.Code
}

// ErrorData returns the decoded data payload, or nil when there is none.
func (e *Error) ErrorData() interface{} {
	if len(e.Data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return string(e.Data)
	}
	return v
}

// HasCode reports whether err carries the provider code, either directly or
// nested in data.originalError.code as mobile wallets report it.
func HasCode(err error, code int) bool {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	if rpcErr.ErrorCode() == code {
		return true
	}

	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return false
	}
	data, ok := dataErr.ErrorData().(map[string]any)
	if !ok {
		return false
	}
	orig, ok := data["originalError"].(map[string]any)
	if !ok {
		return false
	}
	nested, ok := orig["code"].(float64)
	return ok && int(nested) == code
}

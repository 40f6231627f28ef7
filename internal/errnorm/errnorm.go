// Package errnorm turns whatever a wallet provider, node, or contract call
// failed with into a uniform {code, message} record for display.
package errnorm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/cupcakedapp/cupcake/internal/provider"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// CodeUnknown is the code reported when no code can be found.
const CodeUnknown = "UNKNOWN"

const (
	msgNil      = "Unknown error."
	msgFallback = "Unknown RPC error"
)

// Record is a normalized error. Raw is kept for the debug log only.
type Record struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Raw     any    `json:"-"`
}

// String renders the record as "[code] message".
func (r Record) String() string {
	return fmt.Sprintf("[%s] %s", r.Code, r.Message)
}

// Normalize never fails: anything it cannot read yields a fallback record.
func Normalize(raw any) (rec Record) {
	defer func() {
		if p := recover(); p != nil {
			rec = Record{Code: CodeUnknown, Message: fmt.Sprintf("Failed to parse error: %v", p), Raw: raw}
		}
	}()

	if raw == nil {
		return Record{Code: CodeUnknown, Message: msgNil}
	}

	switch v := raw.(type) {
	case string:
		if v == "" {
			return Record{Code: CodeUnknown, Message: msgNil, Raw: raw}
		}
		return Record{Code: CodeUnknown, Message: v, Raw: raw}
	case error:
		return fromObject(errorObject(v), raw)
	case map[string]any:
		return fromObject(v, raw)
	case json.RawMessage:
		return fromJSON(v, raw)
	case []byte:
		return fromJSON(v, raw)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return Record{Code: CodeUnknown, Message: fmt.Sprint(v), Raw: raw}
		}
		return fromJSON(b, raw)
	}
}

// Classify maps a failure to the taxonomy: a rejected wallet prompt becomes
// ErrUserRejected, anything else becomes fallback with raw as its cause.
func Classify(raw, fallback error) error {
	if raw == nil {
		return nil
	}
	if errors.Is(raw, cerr.ErrUserRejected) {
		return raw
	}
	if provider.HasCode(raw, provider.CodeUserRejected) {
		return cerr.WithCause(cerr.ErrUserRejected, raw)
	}
	return cerr.WithCause(fallback, raw)
}

// errorObject flattens an error chain into the object shape the extractor
// reads. Provider errors found anywhere in the chain take precedence.
func errorObject(err error) map[string]any {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		obj := map[string]any{"code": float64(rpcErr.ErrorCode())}

		var perr *provider.Error
		if errors.As(err, &perr) {
			obj["message"] = perr.Message
		} else {
			obj["message"] = rpcErr.Error()
		}

		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			if data := dataErr.ErrorData(); data != nil {
				obj["data"] = data
			}
		}
		return obj
	}

	var ce *cerr.CupcakeError
	if errors.As(err, &ce) {
		return map[string]any{"code": ce.Code, "message": err.Error()}
	}

	return map[string]any{"message": err.Error()}
}

func fromJSON(b []byte, raw any) Record {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = msgNil
		}
		return Record{Code: CodeUnknown, Message: msg, Raw: raw}
	}

	switch t := v.(type) {
	case nil:
		return Record{Code: CodeUnknown, Message: msgNil, Raw: raw}
	case map[string]any:
		return fromObject(t, raw)
	case string:
		if t == "" {
			return Record{Code: CodeUnknown, Message: msgNil, Raw: raw}
		}
		return Record{Code: CodeUnknown, Message: t, Raw: raw}
	default:
		return Record{Code: CodeUnknown, Message: fmt.Sprint(t), Raw: raw}
	}
}

func fromObject(obj map[string]any, raw any) Record {
	code := findCode(obj)
	if code == "" {
		code = CodeUnknown
	}

	msg := firstNonEmpty(
		text(obj["reason"]),
		revertReason(obj),
		text(obj["shortMessage"]),
		text(lookup(obj, "info", "error", "message")),
		text(lookup(obj, "error", "message")),
		text(lookup(obj, "data", "message")),
		text(obj["message"]),
	)
	if msg == "" {
		msg = msgFallback
	}

	return Record{Code: code, Message: msg, Raw: raw}
}

func findCode(obj map[string]any) string {
	return firstNonEmpty(
		codeText(obj["code"]),
		codeText(lookup(obj, "error", "code")),
		codeText(lookup(obj, "info", "error", "code")),
	)
}

// revertReason decodes a Solidity Error(string) or Panic(uint256) payload
// from the places nodes put revert data.
func revertReason(obj map[string]any) string {
	candidates := []any{
		obj["data"],
		lookup(obj, "data", "data"),
		lookup(obj, "error", "data"),
		lookup(obj, "info", "error", "data"),
	}
	for _, c := range candidates {
		s, ok := c.(string)
		if !ok || !strings.HasPrefix(s, "0x") {
			continue
		}
		data, err := hexutil.Decode(s)
		if err != nil {
			continue
		}
		if reason, err := abi.UnpackRevert(data); err == nil && reason != "" {
			return reason
		}
	}
	return ""
}

func lookup(obj map[string]any, path ...string) any {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

// codeText treats zero and empty codes as absent.
func codeText(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		if c == 0 {
			return ""
		}
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		if c == 0 {
			return ""
		}
		return strconv.Itoa(c)
	case json.Number:
		return c.String()
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

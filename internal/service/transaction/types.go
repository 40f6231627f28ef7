package transaction

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// Request is one mutating contract call. It cannot be changed after
// NewRequest.
type Request struct {
	method string
	args   []any
}

// NewRequest creates a request for method with args.
func NewRequest(method string, args ...any) Request {
	return Request{method: method, args: slices.Clone(args)}
}

// Method returns the contract method name.
func (r Request) Method() string { return r.method }

// Args returns a copy of the call arguments.
func (r Request) Args() []any { return slices.Clone(r.args) }

func (r Request) String() string {
	return fmt.Sprintf("%s%v", r.method, r.args)
}

// Stage is the step of an attempt a failure happened in.
type Stage string

// Attempt stages.
const (
	StagePrecondition Stage = "precondition"
	StageSimulation   Stage = "simulation"
	StageSend         Stage = "send"
	StageConfirmation Stage = "confirmation"
)

// OutcomeKind tags an Outcome.
type OutcomeKind string

// Outcome kinds. Simulated and Sent are progress reports; the rest are
// terminal.
const (
	Simulated OutcomeKind = "simulated"
	Sent      OutcomeKind = "sent"
	Confirmed OutcomeKind = "confirmed"
	Reverted  OutcomeKind = "reverted"
	Failed    OutcomeKind = "failed"
)

// Terminal reports whether k ends an attempt.
func (k OutcomeKind) Terminal() bool {
	return k == Confirmed || k == Reverted || k == Failed
}

// Outcome reports an attempt. Hash is set from Sent onwards, including on
// confirmation failures. BlockNumber and Status are set once a receipt is
// known. Stage, ErrorCode and ErrorMessage are set for Failed.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	Hash         common.Hash `json:"hash,omitempty"`
	BlockNumber  uint64      `json:"block_number,omitempty"`
	Status       *uint64     `json:"status,omitempty"`
	Stage        Stage       `json:"stage,omitempty"`
	ErrorCode    string      `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Err          error       `json:"-"`
}

// HasHash reports whether the transaction was broadcast.
func (o *Outcome) HasHash() bool {
	return o != nil && o.Hash != (common.Hash{})
}

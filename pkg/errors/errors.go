// Package errors provides structured error handling for Cupcake.
// It defines the error taxonomy shared by every component, the CLI exit
// codes, and helpers for adding context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input or configuration
	ExitRejected = 3 // The user rejected a wallet prompt
	ExitNotFound = 4 // Resource not found
	ExitNetwork  = 5 // Wallet provider or network unavailable / wrong
	ExitTxFailed = 6 // Transaction failed, reverted, or is still pending
)

// CupcakeError is the structured error type for Cupcake.
type CupcakeError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *CupcakeError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *CupcakeError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CupcakeError.
func (e *CupcakeError) Is(target error) bool {
	var t *CupcakeError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Generic sentinel errors.
var (
	ErrGeneral = &CupcakeError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &CupcakeError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &CupcakeError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrConfigNotFound = &CupcakeError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &CupcakeError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &CupcakeError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}
)

// Wallet and network errors.
var (
	ErrUserRejected = &CupcakeError{
		Code:     "USER_REJECTED",
		Message:  "request rejected in the wallet",
		ExitCode: ExitRejected,
	}

	ErrProviderMissing = &CupcakeError{
		Code:       "PROVIDER_MISSING",
		Message:    "no wallet provider available",
		Suggestion: "Configure provider.url in ~/.cupcake/config.yaml or set CUPCAKE_PROVIDER_URL",
		ExitCode:   ExitNetwork,
	}

	ErrProviderUnreachable = &CupcakeError{
		Code:     "PROVIDER_UNREACHABLE",
		Message:  "wallet provider is unreachable",
		ExitCode: ExitNetwork,
	}

	ErrRateLimited = &CupcakeError{
		Code:     "RATE_LIMITED",
		Message:  "wallet provider rate limit exceeded",
		ExitCode: ExitNetwork,
	}

	ErrNetworkMismatch = &CupcakeError{
		Code:     "NETWORK_MISMATCH",
		Message:  "wallet is connected to the wrong network",
		ExitCode: ExitNetwork,
	}

	ErrNetworkSwitchFailed = &CupcakeError{
		Code:     "NETWORK_SWITCH_FAILED",
		Message:  "failed to switch wallet network",
		ExitCode: ExitNetwork,
	}

	ErrNoAccounts = &CupcakeError{
		Code:     "NO_ACCOUNTS",
		Message:  "no accounts returned by the wallet",
		ExitCode: ExitNotFound,
	}

	ErrNotConnected = &CupcakeError{
		Code:       "NOT_CONNECTED",
		Message:    "wallet is not connected",
		Suggestion: "Connect wallet first.",
		ExitCode:   ExitInput,
	}
)

// Transaction lifecycle errors.
var (
	ErrSimulationReverted = &CupcakeError{
		Code:     "SIMULATION_REVERTED",
		Message:  "transaction simulation failed",
		ExitCode: ExitTxFailed,
	}

	ErrSendFailed = &CupcakeError{
		Code:     "SEND_FAILED",
		Message:  "transaction send failed",
		ExitCode: ExitTxFailed,
	}

	ErrConfirmationTimeout = &CupcakeError{
		Code:       "CONFIRMATION_TIMEOUT",
		Message:    "timed out waiting for confirmation",
		Suggestion: "The transaction may still be mined. Check it in the block explorer.",
		ExitCode:   ExitTxFailed,
	}

	ErrConfirmationUnknown = &CupcakeError{
		Code:       "CONFIRMATION_UNKNOWN",
		Message:    "transaction status is unknown",
		Suggestion: "Check the transaction in the block explorer.",
		ExitCode:   ExitTxFailed,
	}

	ErrReverted = &CupcakeError{
		Code:     "REVERTED",
		Message:  "transaction reverted on-chain",
		ExitCode: ExitTxFailed,
	}

	ErrBusy = &CupcakeError{
		Code:     "BUSY",
		Message:  "previous transaction is still pending",
		ExitCode: ExitTxFailed,
	}

	ErrUnknown = &CupcakeError{
		Code:     "UNKNOWN",
		Message:  "unexpected error",
		ExitCode: ExitGeneral,
	}
)

// New creates a new CupcakeError with the given code and message.
func New(code, message string) *CupcakeError {
	return &CupcakeError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ce *CupcakeError
	if errors.As(err, &ce) {
		return &CupcakeError{
			Code:       ce.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ce.Message),
			Details:    ce.Details,
			Suggestion: ce.Suggestion,
			Cause:      err,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CupcakeError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of the sentinel err with cause attached, so that
// errors.Is matches the sentinel and errors.As still reaches the cause.
func WithCause(err, cause error) error {
	if err == nil {
		return nil
	}

	var ce *CupcakeError
	if !errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", err, cause)
	}

	return &CupcakeError{
		Code:       ce.Code,
		Message:    ce.Message,
		Details:    ce.Details,
		Suggestion: ce.Suggestion,
		Cause:      cause,
		ExitCode:   ce.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ce *CupcakeError
	if errors.As(err, &ce) {
		return &CupcakeError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CupcakeError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ce *CupcakeError
	if errors.As(err, &ce) {
		return &CupcakeError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    ce.Details,
			Suggestion: suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CupcakeError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ce *CupcakeError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ce *CupcakeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cupcakedapp/cupcake/internal/errnorm"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details. Provider carries the normalized
// wallet/provider error underneath, when there is one.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Provider   *errnorm.Record   `json:"provider,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// FormatError formats an error for display. Raw provider payloads are never
// printed; only their normalized form.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	detail := errorDetail(err)

	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ErrorOutput{Error: detail})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", detail.Message)
	if detail.Provider != nil {
		fmt.Fprintf(&sb, "  %s\n", detail.Provider)
	}

	if len(detail.Details) > 0 {
		sb.WriteString("\nDetails:\n")
		keys := make([]string, 0, len(detail.Details))
		for k := range detail.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, detail.Details[k])
		}
	}

	if detail.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", detail.Suggestion)
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

func errorDetail(err error) ErrorDetail {
	var ce *cerr.CupcakeError
	if !errors.As(err, &ce) {
		return ErrorDetail{
			Code:     "GENERAL_ERROR",
			Message:  err.Error(),
			ExitCode: cerr.ExitGeneral,
		}
	}

	detail := ErrorDetail{
		Code:       ce.Code,
		Message:    ce.Message,
		Details:    ce.Details,
		Suggestion: ce.Suggestion,
		ExitCode:   ce.ExitCode,
	}
	if ce.Cause != nil {
		rec := errnorm.Normalize(ce.Cause)
		detail.Provider = &rec
	}
	return detail
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		output := map[string]string{"status": "success", "message": message}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}
	_, err := fmt.Fprintln(w, message)
	return err
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/service/transaction"
)

// TestWriteJSON_Indented tests that documents are indented and newline
// terminated so consecutive documents stream cleanly.
func TestWriteJSON_Indented(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, balanceView{Account: testAccount.Hex(), NativeBalance: "0.25 ETH"}))

	got := buf.String()
	assert.Contains(t, got, "\n  \"account\": ")
	assert.Equal(t, byte('\n'), got[len(got)-1])
	assert.NotContains(t, got, `"error"`)
}

// TestWriteJSON_OutcomeView tests that the embedded outcome is flattened and
// the explorer link sits next to it.
func TestWriteJSON_OutcomeView(t *testing.T) {
	t.Parallel()

	status := uint64(1)
	var buf bytes.Buffer
	err := writeJSON(&buf, outcomeView{
		Outcome: &transaction.Outcome{
			Kind:        transaction.Confirmed,
			Hash:        testTxHash,
			BlockNumber: 100,
			Status:      &status,
			Err:         errors.New("not serialized"),
		},
		Explorer: "https://sepolia.arbiscan.io/tx/" + testTxHash.Hex(),
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "confirmed", got["kind"])
	assert.Equal(t, testTxHash.Hex(), got["hash"])
	assert.InDelta(t, 100, got["block_number"], 0)
	assert.InDelta(t, 1, got["status"], 0)
	assert.Contains(t, got["explorer_url"], "/tx/")
	assert.NotContains(t, got, "Err")
	assert.NotContains(t, got, "stage")
}

// TestWriteJSON_Event tests the event line shape used by the session loop.
func TestWriteJSON_Event(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, output.Event{Event: "info", Text: "Network changed."}))

	var ev output.Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, output.Event{Event: "info", Text: "Network changed."}, ev)
}

// TestWriteJSON_NilValue tests handling of nil values.
func TestWriteJSON_NilValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, nil))
	assert.Equal(t, "null\n", buf.String())
}

// TestWriteJSON_WriterError tests error handling when the writer fails.
func TestWriteJSON_WriterError(t *testing.T) {
	t.Parallel()

	errWriter := &errorWriter{err: errors.New("write failed")} //nolint:err113 // test error

	err := writeJSON(errWriter, networkView{ChainID: "0x66eee"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write failed")
}

// TestOut tests the unchecked print helpers.
func TestOut(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out(&buf, "Set %s = %s\n", "logging.level", "debug")
	outln(&buf, "Configuration initialized")
	outln(&buf)
	assert.Equal(t, "Set logging.level = debug\nConfiguration initialized\n\n", buf.String())

	assert.NotPanics(t, func() { out(&errorWriter{err: io.ErrClosedPipe}, "x") })
}

// errorWriter is a writer that always returns an error.
type errorWriter struct {
	err error
}

func (w *errorWriter) Write(_ []byte) (n int, err error) {
	return 0, w.err
}

var _ io.Writer = (*errorWriter)(nil)

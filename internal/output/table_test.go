package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_WithHeaders(t *testing.T) {
	t.Parallel()

	table := NewTable("METRIC", "VALUE")
	table.AddRow("tx_confirmed", "2")
	table.AddRow("connects", "10")

	expected := "METRIC        VALUE\n" +
		"------------  -----\n" +
		"tx_confirmed  2\n" +
		"connects      10\n"
	assert.Equal(t, expected, table.String())
}

func TestTable_NoHeadersAndRaggedRows(t *testing.T) {
	t.Parallel()

	table := NewTable()
	table.AddRow("a", "—", "x")
	table.AddRow("bb")

	assert.Equal(t, "a   —  x\nbb\n", table.String())
}

func TestTable_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, NewTable().String())
}

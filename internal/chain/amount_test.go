package chain_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cupcakedapp/cupcake/internal/chain"
)

func TestFormatDecimalAmount(t *testing.T) {
	t.Parallel()

	oneEth, _ := new(big.Int).SetString("1000000000000000000", 10)
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		want     string
	}{
		{"nil", nil, 18, "0"},
		{"zero", big.NewInt(0), 18, "0.0"},
		{"one ether", oneEth, 18, "1.0"},
		{"one and a half", big.NewInt(1500000000000000000), 18, "1.5"},
		{"one wei", big.NewInt(1), 18, "0.000000000000000001"},
		{"usdc", big.NewInt(500000000), 6, "500.0"},
		{"no decimals", big.NewInt(42), 0, "42"},
		{"negative", big.NewInt(-2500000), 6, "-2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, chain.FormatDecimalAmount(tt.amount, tt.decimals))
		})
	}
}

func TestNetwork_FormatNative(t *testing.T) {
	t.Parallel()

	n := chain.ArbitrumSepolia()
	assert.Equal(t, "0.25 ETH", n.FormatNative(big.NewInt(250000000000000000)))
}

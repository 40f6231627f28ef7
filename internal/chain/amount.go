package chain

import (
	"math/big"
	"strings"
)

// FormatDecimalAmount converts a big.Int to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed, keeping at least one digit.
// For example, 1500000000000000000 with 18 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	if decimalPlaces <= 0 {
		return amount.String()
	}

	neg := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()
	if len(digits) <= decimalPlaces {
		digits = strings.Repeat("0", decimalPlaces-len(digits)+1) + digits
	}

	point := len(digits) - decimalPlaces
	frac := strings.TrimRight(digits[point:], "0")
	if frac == "" {
		frac = "0"
	}

	result := digits[:point] + "." + frac
	if neg {
		return "-" + result
	}
	return result
}

// FormatNative renders an amount of the network's native currency, e.g. "0.25 ETH".
func (n Network) FormatNative(amount *big.Int) string {
	return FormatDecimalAmount(amount, n.NativeCurrency.Decimals) + " " + n.NativeCurrency.Symbol
}

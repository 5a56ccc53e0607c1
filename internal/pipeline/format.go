package pipeline

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Unavailable is rendered in place of a metric that could not be computed.
const Unavailable = "unavailable"

var (
	compactSuffixes = []string{"", "k", "M", "B", "T", "P", "E", "Z", "Y"}
	compactScales   = []float64{1, 1e3, 1e6, 1e9, 1e12, 1e15, 1e18, 1e21, 1e24}
)

// Compact renders large amounts with a thousands suffix, e.g. 1234567 -> "1.23M" at precision 2.
// Trailing zeros are dropped.
func Compact(d decimal.Decimal, precision int) string {
	f := d.InexactFloat64()
	idx := 0
	for idx < len(compactScales)-1 && math.Abs(f) >= compactScales[idx+1] {
		idx++
	}
	// FtoaWithDigits truncates, so round to precision first.
	scaled := f / compactScales[idx]
	unit := math.Pow(10, float64(precision))
	return humanize.FtoaWithDigits(math.Round(scaled*unit)/unit, precision) + compactSuffixes[idx]
}

// USD renders a dollar amount with thousands separators and two decimals.
func USD(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// Percent renders a percentage with one decimal.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

// Gwei renders a gas price, already scaled to gwei, with two decimals.
func Gwei(gwei decimal.Decimal) string {
	return gwei.StringFixed(2) + " gwei"
}

func formatBlock(n uint64) string {
	return strconv.FormatUint(n, 10)
}

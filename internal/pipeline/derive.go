package pipeline

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"cleverdash/internal/types"
)

// SecondsPerDay converts per-second reward rates into daily amounts.
const SecondsPerDay = 86400

// divPrecision is the number of fractional digits kept by derived quotients.
const divPrecision int32 = 18

var hundred = decimal.NewFromInt(100)

// Scale converts a fixed-point on-chain integer into its decimal value: raw / 10^decimals.
func Scale(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// Share returns part / total * 100.
func Share(part, total decimal.Decimal) (decimal.Decimal, error) {
	if total.IsZero() {
		return decimal.Zero, fmt.Errorf("share of zero total: %w", types.ErrDivisionByZero)
	}
	return part.Mul(hundred).DivRound(total, divPrecision), nil
}

// Composition is the split of a two-token pool.
type Composition struct {
	BalanceA decimal.Decimal
	BalanceB decimal.Decimal
	ShareA   decimal.Decimal
	ShareB   decimal.Decimal
}

// Total is the sum of both balances.
func (c Composition) Total() decimal.Decimal { return c.BalanceA.Add(c.BalanceB) }

// Compose computes each balance's percentage of a + b.
func Compose(a, b decimal.Decimal) (Composition, error) {
	sum := a.Add(b)
	if sum.IsZero() {
		return Composition{BalanceA: a, BalanceB: b}, fmt.Errorf("empty pool: %w", types.ErrDivisionByZero)
	}
	shareA, err := Share(a, sum)
	if err != nil {
		return Composition{}, err
	}
	shareB, err := Share(b, sum)
	if err != nil {
		return Composition{}, err
	}
	return Composition{BalanceA: a, BalanceB: b, ShareA: shareA, ShareB: shareB}, nil
}

// PriceRatio returns priceA / priceB.
func PriceRatio(priceA, priceB decimal.Decimal) (decimal.Decimal, error) {
	if priceB.IsZero() {
		return decimal.Zero, fmt.Errorf("price ratio: %w", types.ErrDivisionByZero)
	}
	return priceA.DivRound(priceB, divPrecision), nil
}

// DailyAmount multiplies a raw per-second rate by the seconds in a day.
// The result stays in the contract's raw fixed-point units.
func DailyAmount(perSecond *big.Int) *big.Int {
	if perSecond == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(perSecond, big.NewInt(SecondsPerDay))
}

// ToUSD converts a native-asset-denominated price to USD.
func ToUSD(nativePrice decimal.Decimal, nativeUSD float64) decimal.Decimal {
	return nativePrice.Mul(decimal.NewFromFloat(nativeUSD))
}

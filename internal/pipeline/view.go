package pipeline

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"cleverdash/internal/chain"
	"cleverdash/internal/types"
)

// View issues every read at one block. A nil block reads at the chain head.
type View struct {
	reader chain.Reader
	block  *big.Int
}

// NewView binds reader to block.
func NewView(reader chain.Reader, block *big.Int) *View {
	return &View{reader: reader, block: block}
}

// Block returns the pinned block, or nil when reading at latest.
func (v *View) Block() *big.Int { return v.block }

func (v *View) readUint(ctx context.Context, ref chain.ContractRef, method string, args ...interface{}) (*big.Int, error) {
	values, err := v.reader.Call(ctx, v.block, ref, method, args...)
	if err != nil {
		return nil, err
	}
	n, err := chain.FirstBigInt(values)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", ref.Name, method, err)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s.%s returned negative value", types.ErrMisconfiguredContract, ref.Name, method)
	}
	return n, nil
}

// TotalSupply reads totalSupply() scaled by the token's decimals.
func (v *View) TotalSupply(ctx context.Context, token chain.ContractRef) (decimal.Decimal, error) {
	raw, err := v.readUint(ctx, token, "totalSupply")
	if err != nil {
		return decimal.Zero, err
	}
	return Scale(raw, token.Decimals), nil
}

// BalanceOf reads balanceOf(holder) scaled by the token's decimals.
func (v *View) BalanceOf(ctx context.Context, token chain.ContractRef, holder common.Address) (decimal.Decimal, error) {
	raw, err := v.readUint(ctx, token, "balanceOf", holder)
	if err != nil {
		return decimal.Zero, err
	}
	return Scale(raw, token.Decimals), nil
}

// ShareOfSupply returns the percentage of token's supply held by holder.
func (v *View) ShareOfSupply(ctx context.Context, holder common.Address, token chain.ContractRef) (decimal.Decimal, error) {
	total, err := v.TotalSupply(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	balance, err := v.BalanceOf(ctx, token, holder)
	if err != nil {
		return decimal.Zero, err
	}
	return Share(balance, total)
}

// PoolComposition reads both token balances held by pool and their shares of the sum.
func (v *View) PoolComposition(ctx context.Context, tokenA, tokenB chain.ContractRef, pool common.Address) (Composition, error) {
	a, err := v.BalanceOf(ctx, tokenA, pool)
	if err != nil {
		return Composition{}, err
	}
	b, err := v.BalanceOf(ctx, tokenB, pool)
	if err != nil {
		return Composition{}, err
	}
	return Compose(a, b)
}

// OraclePrice reads price_oracle(), denominated in the native asset.
func (v *View) OraclePrice(ctx context.Context, pool chain.ContractRef) (decimal.Decimal, error) {
	raw, err := v.readUint(ctx, pool, "price_oracle")
	if err != nil {
		return decimal.Zero, err
	}
	return Scale(raw, pool.Decimals), nil
}

// OraclePriceUSD converts the pool's oracle price to USD.
func (v *View) OraclePriceUSD(ctx context.Context, pool chain.ContractRef, nativeUSD float64) (decimal.Decimal, error) {
	price, err := v.OraclePrice(ctx, pool)
	if err != nil {
		return decimal.Zero, err
	}
	return ToUSD(price, nativeUSD), nil
}

// LockedTotal reads totalLockedGlobal() scaled by the locker's decimals.
func (v *View) LockedTotal(ctx context.Context, locker chain.ContractRef) (decimal.Decimal, error) {
	raw, err := v.readUint(ctx, locker, "totalLockedGlobal")
	if err != nil {
		return decimal.Zero, err
	}
	return Scale(raw, locker.Decimals), nil
}

// DailyAccrualRate reads the per-second rate, the first field of rewardInfo(),
// and returns the amount streamed per day scaled by the furnace's decimals.
func (v *View) DailyAccrualRate(ctx context.Context, furnace chain.ContractRef) (decimal.Decimal, error) {
	rate, err := v.readUint(ctx, furnace, "rewardInfo")
	if err != nil {
		return decimal.Zero, err
	}
	return Scale(DailyAmount(rate), furnace.Decimals), nil
}

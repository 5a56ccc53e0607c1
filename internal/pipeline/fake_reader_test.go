package pipeline

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"cleverdash/internal/chain"
	"cleverdash/internal/config"
	"cleverdash/internal/types"
)

// fakeReader serves fixed readings keyed by address, method and address argument.
type fakeReader struct {
	mu       sync.Mutex
	values   map[string]*big.Int
	errs     map[string]error
	block    uint64
	blockErr error
	gas      *big.Int
	gasErr   error
	blocks   []*big.Int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		values: map[string]*big.Int{},
		errs:   map[string]error{},
		block:  19_000_000,
		gas:    big.NewInt(25_000_000_000),
	}
}

func callKey(addr common.Address, method string, args ...interface{}) string {
	parts := []string{strings.ToLower(addr.Hex()), method}
	for _, a := range args {
		if holder, ok := a.(common.Address); ok {
			parts = append(parts, strings.ToLower(holder.Hex()))
		}
	}
	return strings.Join(parts, ":")
}

func (f *fakeReader) set(ref chain.ContractRef, method string, v *big.Int, args ...interface{}) {
	f.values[callKey(ref.Address, method, args...)] = v
}

func (f *fakeReader) fail(ref chain.ContractRef, method string, err error, args ...interface{}) {
	f.errs[callKey(ref.Address, method, args...)] = err
}

func (f *fakeReader) Call(ctx context.Context, block *big.Int, ref chain.ContractRef, method string, args ...interface{}) ([]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = append(f.blocks, block)

	key := callKey(ref.Address, method, args...)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	v, ok := f.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: no fixture for %s", types.ErrNetworkFailure, key)
	}
	if method == "rewardInfo" {
		return []interface{}{v, uint32(604800), big.NewInt(0), big.NewInt(0)}, nil
	}
	return []interface{}{v}, nil
}

func (f *fakeReader) BlockNumber(ctx context.Context) (uint64, error) { return f.block, f.blockErr }

func (f *fakeReader) GasPrice(ctx context.Context) (*big.Int, error) { return f.gas, f.gasErr }

func (f *fakeReader) seenBlocks() []*big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*big.Int(nil), f.blocks...)
}

func defaultContractsConfig() config.ContractsConfig {
	d := config.DefaultContracts()
	return config.ContractsConfig{
		CLevCVX:    d["clevcvx"],
		CVX:        d["cvx"],
		Furnace:    d["furnace"],
		CurvePool:  d["curve_pool"],
		CRVETHPool: d["crveth_pool"],
		CVXETHPool: d["cvxeth_pool"],
		Locker:     d["locker"],
	}
}

func testContracts(t *testing.T) Contracts {
	t.Helper()
	c, err := NewContracts(defaultContractsConfig())
	require.NoError(t, err)
	return c
}

// tokens returns n whole tokens at 18 decimals.
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// wad parses a decimal string into an 18-decimal fixed-point integer.
func wad(s string) *big.Int {
	intPart, frac, _ := strings.Cut(s, ".")
	frac = (frac + strings.Repeat("0", 18))[:18]
	v, ok := new(big.Int).SetString(intPart+frac, 10)
	if !ok {
		panic("bad wad literal " + s)
	}
	return v
}

package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleverdash/internal/metrics"
	"cleverdash/internal/types"
)

type fakeBackend struct {
	output    []byte
	err       error
	block     uint64
	gasPrice  *big.Int
	lastMsg   ethereum.CallMsg
	lastBlock *big.Int
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.lastMsg = msg
	f.lastBlock = blockNumber
	return f.output, f.err
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) { return f.block, f.err }

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, f.err
}

type revertError struct{}

func (revertError) Error() string          { return "execution reverted" }
func (revertError) ErrorData() interface{} { return "0x08c379a0" }

func mustRef(t *testing.T, kind string) ContractRef {
	t.Helper()
	data, err := LoadABI("", kind)
	require.NoError(t, err)
	ref, err := NewContractRef(kind, "0xf05e58fCeA29ab4dA01A495140B349F8410Ba904", data, DefaultDecimals)
	require.NoError(t, err)
	return ref
}

func TestCallDecodesOutputsAtPinnedBlock(t *testing.T) {
	ref := mustRef(t, ABIERC20)
	supply := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	out, err := ref.ABI.Methods["totalSupply"].Outputs.Pack(supply)
	require.NoError(t, err)

	backend := &fakeBackend{output: out}
	prom := metrics.NewProm()
	r := NewReader(backend, 0, prom, nil)

	values, err := r.Call(context.Background(), big.NewInt(123), ref, "totalSupply")
	require.NoError(t, err)
	got, err := FirstBigInt(values)
	require.NoError(t, err)
	assert.Equal(t, 0, supply.Cmp(got))

	assert.Equal(t, big.NewInt(123), backend.lastBlock)
	require.NotNil(t, backend.lastMsg.To)
	assert.Equal(t, ref.Address, *backend.lastMsg.To)
	assert.Equal(t, ref.ABI.Methods["totalSupply"].ID, backend.lastMsg.Data[:4])
}

func TestCallPacksArguments(t *testing.T) {
	ref := mustRef(t, ABIERC20)
	out, err := ref.ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(7))
	require.NoError(t, err)
	backend := &fakeBackend{output: out}
	r := NewReader(backend, 0, nil, nil)

	holder := common.HexToAddress("0xCe4dCc5028588377E279255c0335Effe2d7aB72a")
	_, err = r.Call(context.Background(), nil, ref, "balanceOf", holder)
	require.NoError(t, err)

	want, err := ref.ABI.Pack("balanceOf", holder)
	require.NoError(t, err)
	assert.Equal(t, want, backend.lastMsg.Data)
	assert.Nil(t, backend.lastBlock)
}

func TestCallUnpacksTupleFirstField(t *testing.T) {
	ref := mustRef(t, ABIFurnace)
	rate := big.NewInt(1157407407407)
	out, err := ref.ABI.Methods["rewardInfo"].Outputs.Pack(rate, uint32(604800), big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)

	r := NewReader(&fakeBackend{output: out}, 0, nil, nil)
	values, err := r.Call(context.Background(), nil, ref, "rewardInfo")
	require.NoError(t, err)
	require.Len(t, values, 4)

	got, err := FirstBigInt(values)
	require.NoError(t, err)
	assert.Equal(t, 0, rate.Cmp(got))
}

func TestCallErrorKinds(t *testing.T) {
	ref := mustRef(t, ABIERC20)

	tests := []struct {
		name    string
		backend *fakeBackend
		method  string
		args    []interface{}
		want    error
	}{
		{"unknown method", &fakeBackend{}, "price_oracle", nil, types.ErrMisconfiguredContract},
		{"bad arguments", &fakeBackend{}, "balanceOf", []interface{}{"not-an-address"}, types.ErrMisconfiguredContract},
		{"empty result", &fakeBackend{output: []byte{}}, "totalSupply", nil, types.ErrMisconfiguredContract},
		{"reverted", &fakeBackend{err: revertError{}}, "totalSupply", nil, types.ErrContractCallReverted},
		{"network", &fakeBackend{err: errors.New("dial tcp: connection refused")}, "totalSupply", nil, types.ErrNetworkFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.backend, 0, nil, nil)
			_, err := r.Call(context.Background(), nil, ref, tt.method, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBlockNumberAndGasPrice(t *testing.T) {
	r := NewReader(&fakeBackend{block: 19_000_000, gasPrice: big.NewInt(25_000_000_000)}, 0, nil, nil)

	n, err := r.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(19_000_000), n)

	gp, err := r.GasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(25_000_000_000), gp.Int64())

	failing := NewReader(&fakeBackend{err: errors.New("timeout")}, 0, nil, nil)
	_, err = failing.BlockNumber(context.Background())
	assert.ErrorIs(t, err, types.ErrNetworkFailure)
}

func TestFirstBigIntConversions(t *testing.T) {
	v, err := FirstBigInt([]interface{}{uint8(18)})
	require.NoError(t, err)
	assert.Equal(t, int64(18), v.Int64())

	_, err = FirstBigInt(nil)
	assert.ErrorIs(t, err, types.ErrMisconfiguredContract)

	_, err = FirstBigInt([]interface{}{"x"})
	assert.ErrorIs(t, err, types.ErrMisconfiguredContract)
}

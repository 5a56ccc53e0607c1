package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleverdash/internal/types"
)

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress("0xABC1230000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xabc1230000000000000000000000000000000000"), addr)
}

func TestNormalizeAddressAddsPrefix(t *testing.T) {
	addr, err := NormalizeAddress("abc1230000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xabc1230000000000000000000000000000000000"), addr)
}

func TestNormalizeAddressUppercasePrefix(t *testing.T) {
	addr, err := NormalizeAddress("0X4e3FBD56CD56c3e72c1403e103b45Db9da5B9D2B")
	require.NoError(t, err)
	assert.Equal(t, "0x4e3FBD56CD56c3e72c1403e103b45Db9da5B9D2B", addr.Hex())
}

func TestNormalizeAddressRejectsGarbage(t *testing.T) {
	_, err := NormalizeAddress("")
	assert.Error(t, err)
	_, err = NormalizeAddress("0x1234")
	assert.Error(t, err)
}

func TestBuiltinABIs(t *testing.T) {
	methods := map[string]string{
		ABIERC20:     "totalSupply",
		ABICurvePool: "price_oracle",
		ABILocker:    "totalLockedGlobal",
		ABIFurnace:   "rewardInfo",
	}
	for kind, method := range methods {
		data, err := LoadABI("", kind)
		require.NoError(t, err, kind)
		ref, err := NewContractRef(kind, "0x96C68D861aDa016Ed98c30C810879F9df7c64154", data, DefaultDecimals)
		require.NoError(t, err, kind)
		assert.True(t, ref.HasMethod(method), "%s should expose %s", kind, method)
	}

	_, err := LoadABI("", "uniswap")
	assert.Error(t, err)
}

func TestLoadABIFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0xF9078Fb962A7D13F55d40d49C8AA6472aBD1A5a6.json")
	content := `[{"type":"function","name":"get_virtual_price","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	data, err := LoadABI(path, ABIERC20)
	require.NoError(t, err)
	ref, err := NewContractRef("curve", "0xF9078Fb962A7D13F55d40d49C8AA6472aBD1A5a6", data, 18)
	require.NoError(t, err)
	assert.True(t, ref.HasMethod("get_virtual_price"))
	assert.False(t, ref.HasMethod("totalSupply"))
}

func TestNewContractRefMisconfigured(t *testing.T) {
	_, err := NewContractRef("bad", "0xnothex", []byte(`[]`), 18)
	assert.ErrorIs(t, err, types.ErrMisconfiguredContract)

	_, err = NewContractRef("bad", "0x96C68D861aDa016Ed98c30C810879F9df7c64154", []byte(`{not json`), 18)
	assert.ErrorIs(t, err, types.ErrMisconfiguredContract)
}

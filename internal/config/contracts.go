package config

import "strings"

// ContractConfig locates one contract and its fixed-point scale.
type ContractConfig struct {
	Address  string `mapstructure:"address"`
	Decimals int    `mapstructure:"decimals"`
	// ABIFile overrides the built-in interface descriptor.
	ABIFile string `mapstructure:"abi_file"`
}

// ContractsConfig is the registry of contracts the dashboard reads.
type ContractsConfig struct {
	// ABIDir, when set, is searched for <address>.json descriptors.
	ABIDir     string         `mapstructure:"abi_dir"`
	CLevCVX    ContractConfig `mapstructure:"clevcvx"`
	CVX        ContractConfig `mapstructure:"cvx"`
	Furnace    ContractConfig `mapstructure:"furnace"`
	CurvePool  ContractConfig `mapstructure:"curve_pool"`
	CRVETHPool ContractConfig `mapstructure:"crveth_pool"`
	CVXETHPool ContractConfig `mapstructure:"cvxeth_pool"`
	Locker     ContractConfig `mapstructure:"locker"`
}

// DefaultContracts returns the Ethereum mainnet deployments, keyed by config name.
func DefaultContracts() map[string]ContractConfig {
	return map[string]ContractConfig{
		"clevcvx":     {Address: "0xf05e58fCeA29ab4dA01A495140B349F8410Ba904", Decimals: 18},
		"cvx":         {Address: "0x4e3FBD56CD56c3e72c1403e103b45Db9da5B9D2B", Decimals: 18},
		"furnace":     {Address: "0xCe4dCc5028588377E279255c0335Effe2d7aB72a", Decimals: 18},
		"curve_pool":  {Address: "0xF9078Fb962A7D13F55d40d49C8AA6472aBD1A5a6", Decimals: 18},
		"crveth_pool": {Address: "0x8301AE4fc9c624d1D396cbDAa1ed877821D7C511", Decimals: 18},
		"cvxeth_pool": {Address: "0xB576491F1E6e5E62f1d8F26062Ee822B40B0E0d4", Decimals: 18},
		"locker":      {Address: "0x96C68D861aDa016Ed98c30C810879F9df7c64154", Decimals: 18},
	}
}

// Named returns every configured contract keyed by config name.
func (c *ContractsConfig) Named() map[string]ContractConfig {
	return map[string]ContractConfig{
		"clevcvx":     c.CLevCVX,
		"cvx":         c.CVX,
		"furnace":     c.Furnace,
		"curve_pool":  c.CurvePool,
		"crveth_pool": c.CRVETHPool,
		"cvxeth_pool": c.CVXETHPool,
		"locker":      c.Locker,
	}
}

func (c *ContractsConfig) normalize() {
	c.ABIDir = strings.TrimSpace(c.ABIDir)
	for _, cc := range []*ContractConfig{&c.CLevCVX, &c.CVX, &c.Furnace, &c.CurvePool, &c.CRVETHPool, &c.CVXETHPool, &c.Locker} {
		cc.Address = strings.TrimSpace(cc.Address)
		cc.ABIFile = strings.TrimSpace(cc.ABIFile)
	}
}

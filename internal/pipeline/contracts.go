package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"cleverdash/internal/chain"
	"cleverdash/internal/config"
)

// Contracts is the fixed registry of contracts the dashboard reads.
type Contracts struct {
	CLevCVX    chain.ContractRef // clevCVX token
	CVX        chain.ContractRef // CVX token
	Furnace    chain.ContractRef // clevCVX furnace, holds clevCVX and streams CVX rewards
	CurvePool  chain.ContractRef // clevCVX/CVX Curve pool, holds both tokens
	CRVETHPool chain.ContractRef // CRV/ETH Curve pool, price oracle
	CVXETHPool chain.ContractRef // CVX/ETH Curve pool, price oracle
	Locker     chain.ContractRef // CLever CVX locker
}

// NewContracts resolves addresses, ABIs and decimals from configuration.
func NewContracts(cfg config.ContractsConfig) (Contracts, error) {
	var (
		out Contracts
		err error
	)
	specs := []struct {
		name string
		cfg  config.ContractConfig
		abi  string
		dst  *chain.ContractRef
	}{
		{"clevCVX", cfg.CLevCVX, chain.ABIERC20, &out.CLevCVX},
		{"CVX", cfg.CVX, chain.ABIERC20, &out.CVX},
		{"Furnace", cfg.Furnace, chain.ABIFurnace, &out.Furnace},
		{"clevCVX/CVX Pool", cfg.CurvePool, chain.ABICurvePool, &out.CurvePool},
		{"CRV/ETH Pool", cfg.CRVETHPool, chain.ABICurvePool, &out.CRVETHPool},
		{"CVX/ETH Pool", cfg.CVXETHPool, chain.ABICurvePool, &out.CVXETHPool},
		{"Locker", cfg.Locker, chain.ABILocker, &out.Locker},
	}
	for _, s := range specs {
		if s.cfg.Decimals < 0 || s.cfg.Decimals > config.MaxDecimals {
			return Contracts{}, fmt.Errorf("contract %s: decimals out of range: %d", s.name, s.cfg.Decimals)
		}
		data, loadErr := chain.LoadABI(abiPath(cfg.ABIDir, s.cfg), s.abi)
		if loadErr != nil {
			return Contracts{}, fmt.Errorf("contract %s: %w", s.name, loadErr)
		}
		*s.dst, err = chain.NewContractRef(s.name, s.cfg.Address, data, uint8(s.cfg.Decimals))
		if err != nil {
			return Contracts{}, err
		}
	}
	return out, nil
}

// abiPath prefers an explicit abi_file, then <abi_dir>/<address>.json when present.
func abiPath(dir string, c config.ContractConfig) string {
	if c.ABIFile != "" {
		return c.ABIFile
	}
	if dir == "" {
		return ""
	}
	candidate := filepath.Join(dir, c.Address+".json")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

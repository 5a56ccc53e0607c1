package chain

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"cleverdash/internal/types"
)

// DefaultDecimals is the fixed-point scale used by every contract unless configured otherwise.
const DefaultDecimals uint8 = 18

// Built-in interface descriptors.
const (
	ABIERC20     = "erc20"
	ABICurvePool = "curve_pool"
	ABILocker    = "locker"
	ABIFurnace   = "furnace"
)

//go:embed abis/*.json
var embeddedABIs embed.FS

// ContractRef identifies a contract and the read methods it exposes.
type ContractRef struct {
	Name     string
	Address  common.Address
	ABI      abi.ABI
	Decimals uint8
}

// NewContractRef validates the address and parses the ABI descriptor.
func NewContractRef(name, rawAddr string, abiJSON []byte, decimals uint8) (ContractRef, error) {
	addr, err := NormalizeAddress(rawAddr)
	if err != nil {
		return ContractRef{}, fmt.Errorf("%w: %s: %v", types.ErrMisconfiguredContract, name, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(abiJSON)))
	if err != nil {
		return ContractRef{}, fmt.Errorf("%w: %s: parse abi: %v", types.ErrMisconfiguredContract, name, err)
	}
	return ContractRef{
		Name:     name,
		Address:  addr,
		ABI:      parsed,
		Decimals: decimals,
	}, nil
}

// HasMethod reports whether the ABI declares the named method.
func (c ContractRef) HasMethod(method string) bool {
	_, ok := c.ABI.Methods[method]
	return ok
}

func (c ContractRef) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, c.Address.Hex())
}

// LoadABI returns the descriptor stored at path, or the built-in descriptor
// named by fallback when path is empty.
func LoadABI(path, fallback string) ([]byte, error) {
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read abi %s: %w", path, err)
		}
		return data, nil
	}
	data, err := embeddedABIs.ReadFile("abis/" + fallback + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown built-in abi %q", fallback)
	}
	return data, nil
}

// NormalizeAddress parses a hex address, with or without a 0x/0X prefix.
func NormalizeAddress(addr string) (common.Address, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return common.Address{}, fmt.Errorf("address missing")
	}
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		trimmed = "0x" + trimmed
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address: %s", addr)
	}
	return common.HexToAddress(trimmed), nil
}

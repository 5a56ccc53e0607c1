package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"cleverdash/internal/logging"
	"cleverdash/internal/metrics"
	"cleverdash/internal/types"
)

// Reader performs read-only calls against deployed contracts.
type Reader interface {
	// Call invokes a view method and returns its decoded outputs. A nil block reads at latest.
	Call(ctx context.Context, block *big.Int, ref ContractRef, method string, args ...interface{}) ([]interface{}, error)
	BlockNumber(ctx context.Context) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Backend is the subset of *ethclient.Client the reader depends on.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// EthReader implements Reader on top of a JSON-RPC backend.
type EthReader struct {
	backend Backend
	closer  func()
	timeout time.Duration
	metrics metrics.Provider
	logger  logging.Logger
}

// Dial connects to rpcURL. The connection is shared by every subsequent read.
func Dial(rpcURL string, timeout time.Duration, prov metrics.Provider, logger logging.Logger) (*EthReader, error) {
	if strings.TrimSpace(rpcURL) == "" {
		return nil, fmt.Errorf("chain: rpc url required")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: connect rpc: %w", err)
	}
	r := NewReader(client, timeout, prov, logger)
	r.closer = client.Close
	return r, nil
}

// NewReader wraps an existing backend.
func NewReader(backend Backend, timeout time.Duration, prov metrics.Provider, logger logging.Logger) *EthReader {
	if prov == nil {
		prov = metrics.Noop{}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &EthReader{
		backend: backend,
		timeout: timeout,
		metrics: prov,
		logger:  logger,
	}
}

// Close releases the underlying RPC connection.
func (r *EthReader) Close() {
	if r == nil || r.closer == nil {
		return
	}
	r.closer()
}

func (r *EthReader) Call(ctx context.Context, block *big.Int, ref ContractRef, method string, args ...interface{}) ([]interface{}, error) {
	if !ref.HasMethod(method) {
		r.metrics.IncContractCall(method, types.Kind(types.ErrMisconfiguredContract))
		return nil, fmt.Errorf("%w: %s has no method %s", types.ErrMisconfiguredContract, ref, method)
	}
	input, err := ref.ABI.Pack(method, args...)
	if err != nil {
		r.metrics.IncContractCall(method, types.Kind(types.ErrMisconfiguredContract))
		return nil, fmt.Errorf("%w: pack %s.%s: %v", types.ErrMisconfiguredContract, ref, method, err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	to := ref.Address
	output, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, block)
	if err != nil {
		err = classifyCallError(err)
		r.logger.Debugf("contract call %s.%s failed: %v", ref, method, err)
		r.metrics.IncContractCall(method, types.Kind(err))
		return nil, fmt.Errorf("call %s.%s: %w", ref, method, err)
	}
	if len(output) == 0 {
		r.metrics.IncContractCall(method, types.Kind(types.ErrMisconfiguredContract))
		return nil, fmt.Errorf("%w: %s.%s returned no data (no code at address?)", types.ErrMisconfiguredContract, ref, method)
	}

	values, err := ref.ABI.Unpack(method, output)
	if err != nil {
		r.metrics.IncContractCall(method, types.Kind(types.ErrMisconfiguredContract))
		return nil, fmt.Errorf("%w: unpack %s.%s: %v", types.ErrMisconfiguredContract, ref, method, err)
	}
	r.metrics.IncContractCall(method, "ok")
	return values, nil
}

func (r *EthReader) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	n, err := r.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", classifyCallError(err))
	}
	return n, nil
}

func (r *EthReader) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	price, err := r.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", classifyCallError(err))
	}
	return price, nil
}

func (r *EthReader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// classifyCallError tags an RPC error with its error kind. Node errors carrying
// revert data, or mentioning a revert, are reverted calls; the rest are network failures.
func classifyCallError(err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) || strings.Contains(strings.ToLower(err.Error()), "revert") {
		return fmt.Errorf("%w: %v", types.ErrContractCallReverted, err)
	}
	return fmt.Errorf("%w: %v", types.ErrNetworkFailure, err)
}

// FirstBigInt extracts the first decoded output as a big integer.
func FirstBigInt(values []interface{}) (*big.Int, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty call result", types.ErrMisconfiguredContract)
	}
	switch v := values[0].(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("%w: unexpected result type %T", types.ErrMisconfiguredContract, values[0])
	}
}

package types

import "errors"

var (
	// Chain read errors
	ErrNetworkFailure        = errors.New("network failure")
	ErrContractCallReverted  = errors.New("contract call reverted")
	ErrMisconfiguredContract = errors.New("misconfigured contract")

	// Derivation errors
	ErrDivisionByZero = errors.New("division by zero")

	// External price feed
	ErrPriceFeedUnavailable = errors.New("price feed unavailable")
)

// Kind names the error class an error belongs to, for JSON output and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrContractCallReverted):
		return "contract_call_reverted"
	case errors.Is(err, ErrMisconfiguredContract):
		return "misconfigured_contract"
	case errors.Is(err, ErrPriceFeedUnavailable):
		return "price_feed_unavailable"
	case errors.Is(err, ErrNetworkFailure):
		return "network_failure"
	default:
		return "unknown"
	}
}

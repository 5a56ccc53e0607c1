package config

import (
	"fmt"
	"strings"
	"time"
)

// ChainConfig holds JSON-RPC settings for read-only contract calls.
type ChainConfig struct {
	RPCURL            string `mapstructure:"rpc_url"`
	PinBlock          bool   `mapstructure:"pin_block"`
	RequestTimeoutRaw string `mapstructure:"request_timeout"`

	RequestTimeout time.Duration `mapstructure:"-"`
}

// Normalize applies defaults and parses durations.
func (c *ChainConfig) Normalize() error {
	c.RPCURL = strings.TrimSpace(c.RPCURL)
	if strings.TrimSpace(c.RequestTimeoutRaw) == "" {
		c.RequestTimeoutRaw = "15s"
	}
	d, err := time.ParseDuration(c.RequestTimeoutRaw)
	if err != nil {
		return fmt.Errorf("invalid chain.request_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("chain.request_timeout must be positive")
	}
	c.RequestTimeout = d
	return nil
}

// PriceFeedConfig selects the native-asset price source.
type PriceFeedConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	CoinID     string `mapstructure:"coin_id"`
	VsCurrency string `mapstructure:"vs_currency"`
	TimeoutRaw string `mapstructure:"timeout"`
	// StaticUSD replaces the HTTP feed with a fixed price when positive.
	StaticUSD float64 `mapstructure:"static_usd"`

	Timeout time.Duration `mapstructure:"-"`
}

// Normalize applies defaults and parses durations.
func (c *PriceFeedConfig) Normalize() error {
	if strings.TrimSpace(c.TimeoutRaw) == "" {
		c.TimeoutRaw = "10s"
	}
	d, err := time.ParseDuration(c.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("invalid price_feed.timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("price_feed.timeout must be positive")
	}
	c.Timeout = d
	if c.StaticUSD < 0 {
		return fmt.Errorf("price_feed.static_usd must not be negative")
	}
	return nil
}

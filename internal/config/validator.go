package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"cleverdash/internal/chain"
	"cleverdash/internal/logging"
)

// MaxDecimals bounds the configurable fixed-point scale of a contract.
const MaxDecimals = 36

// ValidationMode determines the strictness of configuration validation
type ValidationMode string

const (
	ValidationModeProduction  ValidationMode = "production"
	ValidationModeDevelopment ValidationMode = "development"
	ValidationModeTest        ValidationMode = "test"
)

// ConfigValidator validates configuration before the dashboard starts
type ConfigValidator struct {
	mode     ValidationMode
	errors   []string
	warnings []string
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	mode := ValidationModeDevelopment // Default to development

	// Check environment variable
	if envMode := os.Getenv(EnvPrefix + "_MODE"); envMode != "" {
		switch strings.ToLower(envMode) {
		case "production", "prod":
			mode = ValidationModeProduction
		case "test", "testing":
			mode = ValidationModeTest
		case "development", "dev":
			mode = ValidationModeDevelopment
		}
	}

	return &ConfigValidator{
		mode:     mode,
		errors:   []string{},
		warnings: []string{},
	}
}

// Warnings returns the warnings collected by the last Validate call.
func (v *ConfigValidator) Warnings() []string { return v.warnings }

// Validate checks the configuration for issues. Broken contract or chain settings
// fail in every mode; policy issues only fail in production.
func (v *ConfigValidator) Validate(cfg *AppConfig) error {
	v.errors = []string{}
	v.warnings = []string{}

	v.validateChain(cfg)
	v.validateContracts(cfg)
	v.validatePriceFeed(cfg)
	v.validateServer(cfg)

	if len(v.errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(v.errors, "\n"))
	}

	// Test mode collects warnings without logging them.
	if len(v.warnings) > 0 && v.mode != ValidationModeTest {
		logging.L().Warnf("Configuration warnings:\n%s", strings.Join(v.warnings, "\n"))
	}

	return nil
}

// policy records msg as an error in production and a warning elsewhere.
func (v *ConfigValidator) policy(msg string) {
	if v.mode == ValidationModeProduction {
		v.errors = append(v.errors, msg)
	} else {
		v.warnings = append(v.warnings, msg)
	}
}

func (v *ConfigValidator) validateChain(cfg *AppConfig) {
	if cfg.Chain.RPCURL == "" {
		v.errors = append(v.errors, fmt.Sprintf("chain.rpc_url is required (or set %s)", LegacyRPCEnv))
		return
	}
	u, err := url.Parse(cfg.Chain.RPCURL)
	if err != nil || u.Scheme == "" {
		v.errors = append(v.errors, fmt.Sprintf("chain.rpc_url is not a valid URL: %s", cfg.Chain.RPCURL))
		return
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		if !strings.HasSuffix(u.Path, ".ipc") {
			v.warnings = append(v.warnings, fmt.Sprintf("chain.rpc_url uses unusual scheme %q", u.Scheme))
		}
	}
	if u.Scheme == "http" || u.Scheme == "ws" {
		v.policy("chain.rpc_url is not encrypted - use https/wss for production")
	}
	if !cfg.Chain.PinBlock {
		v.warnings = append(v.warnings, "chain.pin_block is disabled - metrics may mix block heights")
	}
	if cfg.Chain.RequestTimeout > time.Minute {
		v.warnings = append(v.warnings, fmt.Sprintf("chain.request_timeout very long: %v", cfg.Chain.RequestTimeout))
	}
}

func (v *ConfigValidator) validateContracts(cfg *AppConfig) {
	named := cfg.Contracts.Named()
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := named[name]
		if _, err := chain.NormalizeAddress(c.Address); err != nil {
			v.errors = append(v.errors, fmt.Sprintf("contracts.%s.address is not a valid address: %q", name, c.Address))
		}
		if c.Decimals < 0 || c.Decimals > MaxDecimals {
			v.errors = append(v.errors, fmt.Sprintf("contracts.%s.decimals out of range [0, %d]: %d", name, MaxDecimals, c.Decimals))
		}
		if c.ABIFile != "" {
			if _, err := os.Stat(c.ABIFile); err != nil {
				v.errors = append(v.errors, fmt.Sprintf("contracts.%s.abi_file: %v", name, err))
			}
		}
	}
	if cfg.Contracts.ABIDir != "" {
		if st, err := os.Stat(cfg.Contracts.ABIDir); err != nil || !st.IsDir() {
			v.errors = append(v.errors, fmt.Sprintf("contracts.abi_dir is not a directory: %s", cfg.Contracts.ABIDir))
		}
	}
}

func (v *ConfigValidator) validatePriceFeed(cfg *AppConfig) {
	if cfg.PriceFeed.StaticUSD > 0 {
		v.policy("price_feed.static_usd is set - USD prices will not track the market")
		return
	}
	if _, err := url.ParseRequestURI(cfg.PriceFeed.BaseURL); err != nil {
		v.errors = append(v.errors, fmt.Sprintf("price_feed.base_url is not a valid URL: %s", cfg.PriceFeed.BaseURL))
	}
}

func (v *ConfigValidator) validateServer(cfg *AppConfig) {
	addr := cfg.Server.ListenAddr
	if addr == "" {
		v.errors = append(v.errors, "server.listen_addr is required")
		return
	}
	// Port string like ":8080" or "0.0.0.0:8080"
	parts := strings.Split(addr, ":")
	if portNum, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
		if portNum > 65535 {
			v.errors = append(v.errors, fmt.Sprintf("server.listen_addr port out of range: %d", portNum))
		} else if portNum > 0 && portNum < 1024 {
			v.warnings = append(v.warnings, fmt.Sprintf("server.listen_addr uses privileged port %d (< 1024)", portNum))
		}
	}
	if cfg.Server.RefreshInterval > 0 && cfg.Server.RefreshInterval < 5*time.Second {
		v.warnings = append(v.warnings, fmt.Sprintf("server.refresh_interval very short: %v", cfg.Server.RefreshInterval))
	}
	if !cfg.Metrics.Enabled {
		v.policy("metrics endpoint is disabled")
	}
}

// PrintConfigurationSummary logs a summary of the configuration
func PrintConfigurationSummary(cfg *AppConfig) {
	l := logging.L()
	l.Infof("RPC: %s (pin_block=%v, timeout=%v)", redactURL(cfg.Chain.RPCURL), cfg.Chain.PinBlock, cfg.Chain.RequestTimeout)
	if cfg.PriceFeed.StaticUSD > 0 {
		l.Infof("Price feed: static %.2f", cfg.PriceFeed.StaticUSD)
	} else {
		l.Infof("Price feed: %s (%s/%s)", cfg.PriceFeed.BaseURL, cfg.PriceFeed.CoinID, cfg.PriceFeed.VsCurrency)
	}
	l.Infof("Dashboard: %s (refresh=%v, metrics=%v)", cfg.Server.ListenAddr, cfg.Server.RefreshInterval, cfg.Metrics.Enabled)
}

// redactURL strips path and credentials, which commonly carry provider API keys.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<invalid>"
	}
	return u.Scheme + "://" + u.Host
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cleverdash/internal/logging"
)

// EnvPrefix namespaces environment overrides, e.g. CLEVERDASH_SERVER_LISTEN_ADDR.
const EnvPrefix = "CLEVERDASH"

// LegacyRPCEnv is honoured as an alias for chain.rpc_url.
const LegacyRPCEnv = "WEB3_HTTP_PROVIDER"

// DotEnvFile is read from the working directory before the environment is consulted.
// Variables already set in the process environment win.
const DotEnvFile = ".env"

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	Title           string        `mapstructure:"title"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // e.g., /metrics
}

type PipelineConfig struct {
	// Upper bound on dashboard sections evaluated concurrently.
	MaxParallel int `mapstructure:"max_parallel"`
	// Fractional digits kept when compacting supply and pool figures.
	SupplyPrecision int `mapstructure:"supply_precision"`
	// Fractional digits kept when compacting locked and daily amounts.
	AmountPrecision int `mapstructure:"amount_precision"`
}

type AppConfig struct {
	LogLevel  string          `mapstructure:"log_level"`
	LogFormat string          `mapstructure:"log_format"`
	Chain     ChainConfig     `mapstructure:"chain"`
	PriceFeed PriceFeedConfig `mapstructure:"price_feed"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.pin_block", true)
	v.SetDefault("chain.request_timeout", "15s")

	v.SetDefault("price_feed.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("price_feed.coin_id", "ethereum")
	v.SetDefault("price_feed.vs_currency", "usd")
	v.SetDefault("price_feed.timeout", "10s")
	v.SetDefault("price_feed.static_usd", 0.0)

	v.SetDefault("contracts.abi_dir", "")
	for name, c := range DefaultContracts() {
		v.SetDefault("contracts."+name+".address", c.Address)
		v.SetDefault("contracts."+name+".decimals", c.Decimals)
		v.SetDefault("contracts."+name+".abi_file", "")
	}

	v.SetDefault("server.listen_addr", ":8501")
	v.SetDefault("server.title", "CLever CVX Dashboard")
	v.SetDefault("server.refresh_interval", "60s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("pipeline.max_parallel", 4)
	v.SetDefault("pipeline.supply_precision", 0)
	v.SetDefault("pipeline.amount_precision", 2)
}

// Load reads the YAML file at path (optional) on top of built-in defaults and
// environment overrides, then normalizes and validates the result.
func Load(path string) (*AppConfig, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with explicit key overrides, e.g. from command-line
// flags, which take precedence over the file and the environment.
func LoadWithOverrides(path string, overrides map[string]interface{}) (*AppConfig, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("chain.rpc_url", EnvPrefix+"_CHAIN_RPC_URL", LegacyRPCEnv); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	for key, val := range overrides {
		v.Set(key, val)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	// Validate configuration
	validator := NewConfigValidator()
	if err := validator.Validate(&cfg); err != nil {
		return nil, err
	}

	// Print configuration summary
	PrintConfigurationSummary(&cfg)

	return &cfg, nil
}

// loadDotEnv exports the variables in file. A missing file is not an error.
func loadDotEnv(file string) error {
	err := godotenv.Load(file)
	if err == nil {
		logging.L().Debugf("loaded environment from %s", file)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", file, err)
}

// Normalize parses raw durations and fills zero values.
func (c *AppConfig) Normalize() error {
	if err := c.Chain.Normalize(); err != nil {
		return err
	}
	if err := c.PriceFeed.Normalize(); err != nil {
		return err
	}
	c.Contracts.normalize()
	if c.Server.RefreshInterval < 0 {
		return fmt.Errorf("server.refresh_interval must not be negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Pipeline.MaxParallel <= 0 {
		c.Pipeline.MaxParallel = 1
	}
	if c.Pipeline.SupplyPrecision < 0 {
		c.Pipeline.SupplyPrecision = 0
	}
	if c.Pipeline.AmountPrecision < 0 {
		c.Pipeline.AmountPrecision = 0
	}
	return nil
}

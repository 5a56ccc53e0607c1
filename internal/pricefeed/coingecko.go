package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cleverdash/internal/logging"
	"cleverdash/internal/types"
)

const (
	DefaultBaseURL    = "https://api.coingecko.com/api/v3"
	DefaultCoinID     = "ethereum"
	DefaultVsCurrency = "usd"
	defaultTimeout    = 10 * time.Second
)

// Source fetches the spot price of the chain's native asset.
type Source interface {
	NativeUSD(ctx context.Context) (float64, error)
}

// Config selects the CoinGecko endpoint and coin.
type Config struct {
	BaseURL    string
	CoinID     string
	VsCurrency string
	Timeout    time.Duration
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.CoinID == "" {
		c.CoinID = DefaultCoinID
	}
	if c.VsCurrency == "" {
		c.VsCurrency = DefaultVsCurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// CoinGecko queries the public simple/price endpoint.
type CoinGecko struct {
	httpClient *http.Client
	cfg        Config
	logger     logging.Logger
}

func NewCoinGecko(cfg Config, logger logging.Logger) *CoinGecko {
	cfg.normalize()
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &CoinGecko{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// simple/price responds with {"<coin>": {"<currency>": <price>}}
type simplePriceResponse map[string]map[string]float64

func (c *CoinGecko) NativeUSD(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("ids", c.cfg.CoinID)
	q.Set("vs_currencies", c.cfg.VsCurrency)
	endpoint := c.cfg.BaseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", types.ErrPriceFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrPriceFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: status %d: %s", types.ErrPriceFeedUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload simplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", types.ErrPriceFeedUnavailable, err)
	}
	price, ok := payload[c.cfg.CoinID][c.cfg.VsCurrency]
	if !ok {
		return 0, fmt.Errorf("%w: no %s/%s quote in response", types.ErrPriceFeedUnavailable, c.cfg.CoinID, c.cfg.VsCurrency)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive quote %v", types.ErrPriceFeedUnavailable, price)
	}
	c.logger.Debugf("price feed %s/%s = %v", c.cfg.CoinID, c.cfg.VsCurrency, price)
	return price, nil
}

// Static is a fixed price, used when the feed is disabled.
type Static float64

func (s Static) NativeUSD(context.Context) (float64, error) {
	if s <= 0 {
		return 0, fmt.Errorf("%w: static price not set", types.ErrPriceFeedUnavailable)
	}
	return float64(s), nil
}

package explorer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/guonaihong/gout"
	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"go.uber.org/zap"
)

// CoinGecko docs: https://docs.coingecko.com/
// Endpoint used: /simple/price?ids=bitcoin&vs_currencies=<fiat>
const coingeckoName = "coingecko"

type CoinGecko struct {
	baseURL string
	client  *client
}

type cgResp map[string]map[string]decimal.Decimal

func NewCoinGecko(conf *config.PriceConfig, bc *config.BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *CoinGecko {
	header := gout.H{}
	if conf.UserAgent != "" {
		header["User-Agent"] = conf.UserAgent
	}
	if key := strings.TrimSpace(conf.APIKey); key != "" {
		header["x-cg-pro-api-key"] = key
	}
	return &CoinGecko{
		baseURL: conf.BaseURL,
		client:  newClient(coingeckoName, conf.Timeout, 1, header, bc, m, logger),
	}
}

func (c *CoinGecko) Name() string { return coingeckoName }

func (c *CoinGecko) FetchRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	fiat := strings.ToLower(strings.TrimSpace(currency))
	if fiat == "" {
		fiat = "eur"
	}
	q := url.Values{}
	q.Set("ids", "bitcoin")
	q.Set("vs_currencies", fiat)

	var data cgResp
	if err := c.client.getJSON(ctx, c.baseURL+"/simple/price?"+q.Encode(), &data); err != nil {
		return decimal.Zero, err
	}
	m, ok := data["bitcoin"]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s: missing 'bitcoin' key", ErrProviderUnavailable, coingeckoName)
	}
	rate, ok := m[fiat]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s: missing fiat '%s'", ErrProviderUnavailable, coingeckoName, fiat)
	}
	return rate, nil
}

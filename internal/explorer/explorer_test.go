package explorer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"go.uber.org/zap"
)

const (
	testBase = "https://mempool.test/api"
	testAddr = "bc1qrttfx5gcfmdxlzxplz2xax9j958m3xz78l9cv4"
)

func testBreaker() *config.BreakerConfig {
	return &config.BreakerConfig{MinRequests: 3, FailureRatio: 1, Interval: time.Hour, OpenTimeout: time.Minute}
}

func newTestMempool(t *testing.T, attempts uint) (*Mempool, *httpmock.MockTransport) {
	t.Helper()
	p := NewMempool(&config.ExplorerConfig{
		BaseURL:       testBase,
		Timeout:       time.Second,
		RetryAttempts: attempts,
		UserAgent:     "utxo-dashboard-test",
	}, testBreaker(), metrics.New(), zap.NewNop())
	mock := httpmock.NewMockTransport()
	p.client.http.Transport = mock
	return p, mock
}

func TestMempoolFetchUTXOs(t *testing.T) {
	p, mock := newTestMempool(t, 1)
	mock.RegisterResponder(http.MethodGet, testBase+"/address/"+testAddr+"/utxo",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "utxo-dashboard-test", req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(http.StatusOK, `[
				{"txid":"aa","vout":1,"value":15000,"status":{"confirmed":true,"block_height":799856,"block_hash":"00"}},
				{"txid":"bb","vout":0,"value":545,"status":{"confirmed":false}}
			]`), nil
		})

	utxos, err := p.FetchUTXOs(context.Background(), testAddr)
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	assert.Equal(t, "aa", utxos[0].TxID)
	assert.Equal(t, uint32(1), utxos[0].Vout)
	assert.Equal(t, int64(15000), utxos[0].Value)
	require.NotNil(t, utxos[0].Height)
	assert.Equal(t, int64(799856), *utxos[0].Height)

	assert.Equal(t, int64(545), utxos[1].Value)
	assert.Nil(t, utxos[1].Height)
}

func TestMempoolFetchUTXOsUnavailable(t *testing.T) {
	p, mock := newTestMempool(t, 1)
	mock.RegisterResponder(http.MethodGet, testBase+"/address/"+testAddr+"/utxo",
		httpmock.NewStringResponder(http.StatusBadRequest, "Invalid Bitcoin address"))

	utxos, err := p.FetchUTXOs(context.Background(), testAddr)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Nil(t, utxos)
}

func TestMempoolRetries(t *testing.T) {
	p, mock := newTestMempool(t, 3)
	calls := 0
	mock.RegisterResponder(http.MethodGet, testBase+"/blocks",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, "busy"), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `[{"height":800000},{"height":799999}]`), nil
		})

	height, err := p.FetchLatestHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(800000), height)
	assert.Equal(t, 3, calls)
}

func TestMempoolFetchLatestHeightEmpty(t *testing.T) {
	p, mock := newTestMempool(t, 1)
	mock.RegisterResponder(http.MethodGet, testBase+"/blocks", httpmock.NewStringResponder(http.StatusOK, `[]`))

	_, err := p.FetchLatestHeight(context.Background())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestMempoolFetchCongestion(t *testing.T) {
	p, mock := newTestMempool(t, 1)
	mock.RegisterResponder(http.MethodGet, testBase+"/v1/fees/mempool-blocks",
		httpmock.NewStringResponder(http.StatusOK, `[
			{"blockSize":1500000,"blockVSize":997000,"nTx":3200,"totalFees":12000000,"medianFee":12.5,"feeRange":[10,11,40]},
			{"blockSize":1400000,"blockVSize":997000,"nTx":2800,"totalFees":8000000,"medianFee":8,"feeRange":[7,9]}
		]`))

	blocks, err := p.FetchCongestion(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "12.5", blocks[0].Fee.String())
	assert.Equal(t, 3200, blocks[0].TxCount)
	assert.Nil(t, blocks[0].Height)
	assert.Equal(t, "8", blocks[1].Fee.String())
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	p, mock := newTestMempool(t, 1)
	mock.RegisterResponder(http.MethodGet, testBase+"/blocks", httpmock.ConnectionFailure)

	for i := 0; i < 3; i++ {
		_, err := p.FetchLatestHeight(context.Background())
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	}
	assert.Equal(t, 3, mock.GetTotalCallCount())

	_, err := p.FetchLatestHeight(context.Background())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, 3, mock.GetTotalCallCount(), "open breaker must not reach the network")
}

func TestBreakerOpensAfterLongHealthyRun(t *testing.T) {
	p := NewMempool(&config.ExplorerConfig{BaseURL: testBase, Timeout: time.Second, RetryAttempts: 1},
		&config.BreakerConfig{MinRequests: 5, FailureRatio: 0.6, Interval: time.Hour, OpenTimeout: time.Minute},
		nil, zap.NewNop())
	mock := httpmock.NewMockTransport()
	p.client.http.Transport = mock

	mock.RegisterResponder(http.MethodGet, testBase+"/blocks", httpmock.NewStringResponder(http.StatusOK, `[{"height":800000}]`))
	for i := 0; i < 1000; i++ {
		_, err := p.FetchLatestHeight(context.Background())
		require.NoError(t, err)
	}

	mock.RegisterResponder(http.MethodGet, testBase+"/blocks", httpmock.ConnectionFailure)
	for i := 0; i < 5; i++ {
		_, err := p.FetchLatestHeight(context.Background())
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	}
	assert.Equal(t, 1005, mock.GetTotalCallCount())

	for i := 0; i < 200; i++ {
		_, err := p.FetchLatestHeight(context.Background())
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	}
	assert.Equal(t, 1005, mock.GetTotalCallCount(), "open breaker must not reach the network")
}

func newTestCoinGecko(t *testing.T, apiKey string) (*CoinGecko, *httpmock.MockTransport) {
	t.Helper()
	c := NewCoinGecko(&config.PriceConfig{
		Enabled:   true,
		BaseURL:   "https://coingecko.test/api/v3",
		APIKey:    apiKey,
		Timeout:   time.Second,
		UserAgent: "utxo-dashboard-test",
	}, testBreaker(), nil, zap.NewNop())
	mock := httpmock.NewMockTransport()
	c.client.http.Transport = mock
	return c, mock
}

func TestCoinGeckoFetchRate(t *testing.T) {
	c, mock := newTestCoinGecko(t, "secret")
	mock.RegisterResponder(http.MethodGet, "https://coingecko.test/api/v3/simple/price?ids=bitcoin&vs_currencies=eur",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "secret", req.Header.Get("x-cg-pro-api-key"))
			assert.Equal(t, "utxo-dashboard-test", req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(http.StatusOK, `{"bitcoin":{"eur":61234.56}}`), nil
		})

	rate, err := c.FetchRate(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "61234.56", rate.String())
}

func TestCoinGeckoMissingCurrency(t *testing.T) {
	c, mock := newTestCoinGecko(t, "")
	mock.RegisterResponder(http.MethodGet, "https://coingecko.test/api/v3/simple/price",
		httpmock.NewStringResponder(http.StatusOK, `{"bitcoin":{"usd":65000}}`))

	_, err := c.FetchRate(context.Background(), "eur")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestCoinGeckoRateLimited(t *testing.T) {
	c, mock := newTestCoinGecko(t, "")
	mock.RegisterResponder(http.MethodGet, "https://coingecko.test/api/v3/simple/price",
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"status":{"error_code":429}}`))

	_, err := c.FetchRate(context.Background(), "eur")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

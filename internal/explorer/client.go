package explorer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/guonaihong/gout"
	"github.com/sony/gobreaker"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"go.uber.org/zap"
)

const retryDelay = 200 * time.Millisecond

// client is the JSON GET plumbing shared by the providers.
type client struct {
	name     string
	http     *http.Client
	header   gout.H
	attempts uint
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func newClient(name string, timeout time.Duration, attempts uint, header gout.H,
	bc *config.BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *client {
	if attempts == 0 {
		attempts = 1
	}
	return &client{
		name:     name,
		http:     &http.Client{Timeout: timeout},
		header:   header,
		attempts: attempts,
		breaker:  newBreaker(name, bc, logger),
		metrics:  m,
		logger:   logger,
	}
}

// newBreaker trips after MinRequests consecutive failures, or once at least
// MinRequests were made within the current Interval and the failure ratio
// reached FailureRatio.
func newBreaker(name string, bc *config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: bc.Interval,
		Timeout:  bc.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= bc.MinRequests {
				return true
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= bc.MinRequests && ratio >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("CircuitBreaker",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// getJSON decodes the JSON answer of a GET into out.
func (c *client) getJSON(ctx context.Context, url string, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, retry.Do(func() error {
			return c.do(ctx, url, out)
		},
			retry.Attempts(c.attempts),
			retry.Delay(retryDelay),
			retry.LastErrorOnly(true),
			retry.Context(ctx))
	})
	c.metrics.ProviderRequest(c.name, err)
	if err != nil {
		c.logger.Debug("getJSON", zap.String("provider", c.name), zap.String("url", url), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, c.name, err)
	}
	return nil
}

func (c *client) do(ctx context.Context, url string, out interface{}) error {
	var code int
	df := gout.New(c.http).GET(url).WithContext(ctx)
	if len(c.header) > 0 {
		df = df.SetHeader(c.header)
	}
	if err := df.Code(&code).BindJSON(out).Do(); err != nil {
		if code != 0 && code/100 != 2 {
			return fmt.Errorf("http %d", code)
		}
		return err
	}
	if code/100 != 2 {
		return fmt.Errorf("http %d", code)
	}
	return nil
}

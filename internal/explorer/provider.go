package explorer

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/model"
)

// ErrProviderUnavailable wraps every remote failure: transport errors,
// non-2xx answers, undecodable bodies and open circuit breakers.
var ErrProviderUnavailable = errors.New("provider unavailable")

// UTXOProvider lists the unspent outputs of an address.
type UTXOProvider interface {
	FetchUTXOs(ctx context.Context, address string) ([]model.UTXO, error)
}

// HeightProvider reports the current chain tip height.
type HeightProvider interface {
	FetchLatestHeight(ctx context.Context) (int64, error)
}

// CongestionProvider reports the projected mempool blocks, next block first.
// Heights are left unset: they depend on the tip.
type CongestionProvider interface {
	FetchCongestion(ctx context.Context) ([]model.CongestionBlock, error)
}

// PriceProvider returns the price of 1 BTC in a fiat currency.
type PriceProvider interface {
	FetchRate(ctx context.Context, currency string) (decimal.Decimal, error)
}

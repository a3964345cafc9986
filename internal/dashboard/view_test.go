package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/explorer"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"go.uber.org/zap"
)

var errDown = fmt.Errorf("%w: fake: down", explorer.ErrProviderUnavailable)

type fakeProvider struct {
	utxos      []model.UTXO
	height     int64
	congestion []model.CongestionBlock
	rate       decimal.Decimal
	fail       map[string]bool
}

func (f *fakeProvider) FetchUTXOs(ctx context.Context, address string) ([]model.UTXO, error) {
	if f.fail["utxos"] {
		return nil, errDown
	}
	return f.utxos, nil
}

func (f *fakeProvider) FetchLatestHeight(ctx context.Context) (int64, error) {
	if f.fail["height"] {
		return 0, errDown
	}
	return f.height, nil
}

func (f *fakeProvider) FetchCongestion(ctx context.Context) ([]model.CongestionBlock, error) {
	if f.fail["congestion"] {
		return nil, errDown
	}
	return f.congestion, nil
}

func (f *fakeProvider) FetchRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	if f.fail["rate"] {
		return decimal.Zero, errDown
	}
	return f.rate, nil
}

func newFake() *fakeProvider {
	return &fakeProvider{
		utxos: []model.UTXO{
			{TxID: "a", Vout: 0, Value: 10_000_000, Height: height(799856)},
			{TxID: "b", Vout: 1, Value: 400},
			{TxID: "c", Vout: 2, Value: 20_000_000, Height: height(799000)},
		},
		height: 800000,
		congestion: []model.CongestionBlock{
			{Fee: btc("20"), TxCount: 3000},
			{Fee: btc("12"), TxCount: 2500},
			{Fee: btc("8"), TxCount: 2000},
			{Fee: btc("4"), TxCount: 1000},
		},
		rate: btc("50000"),
		fail: map[string]bool{},
	}
}

func newTestBuilder(f *fakeProvider, withPrices bool) *Builder {
	p := Providers{UTXOs: f, Heights: f, Congestion: f}
	if withPrices {
		p.Prices = f
	}
	return NewBuilder(config.Default(), p, metrics.New(), zap.NewNop())
}

var testWallet = model.Wallet{Name: "Default", Address: config.DefaultWalletAddress}

func TestBuild(t *testing.T) {
	b := newTestBuilder(newFake(), true)
	view := b.Build(context.Background(), testWallet, []model.Wallet{testWallet}, 0, 0)

	assert.Empty(t, view.Warnings)
	assert.Equal(t, testWallet, view.Wallet)
	assert.Equal(t, "P2WPKH", view.AddressType)
	assert.True(t, view.HasUTXOs)
	assert.Equal(t, "0.300004", view.Balance.String())
	assert.Equal(t, int64(30_000_400), view.BalanceSats)
	require.NotNil(t, view.LatestHeight)
	assert.Equal(t, int64(800000), *view.LatestHeight)

	require.NotNil(t, view.FiatBalance)
	assert.Equal(t, "15000.2", view.FiatBalance.String())
	assert.Equal(t, "EUR", view.Currency)

	require.Len(t, view.Milestones, 4)
	require.NotNil(t, view.Milestones[0].MissingFiat)
	assert.True(t, view.Milestones[0].Achieved)

	require.Len(t, view.Congestion, 3)
	for i, blk := range view.Congestion {
		require.NotNil(t, blk.Height)
		assert.Equal(t, int64(800001+i), *blk.Height)
	}

	require.Len(t, view.UTXOs, 3)
	assert.Equal(t, "a", view.UTXOs[0].TxID)
	assert.Equal(t, "b", view.UTXOs[2].TxID)
	assert.Equal(t, 1, view.Pages)
	assert.Equal(t, 50, view.PageSize)
}

func TestBuildPagination(t *testing.T) {
	b := newTestBuilder(newFake(), true)
	view := b.Build(context.Background(), testWallet, nil, 1, 2)

	assert.Equal(t, 2, view.Pages)
	require.Len(t, view.UTXOs, 1)
	assert.Equal(t, "b", view.UTXOs[0].TxID)
	assert.Equal(t, 3, view.Summary.Count)
}

func TestBuildDegradesPerProvider(t *testing.T) {
	f := newFake()
	f.fail["height"] = true
	f.fail["rate"] = true
	view := newTestBuilder(f, true).Build(context.Background(), testWallet, nil, 0, 0)

	assert.Equal(t, []string{WarnHeight, WarnRate}, view.Warnings)
	assert.Nil(t, view.LatestHeight)
	assert.Nil(t, view.Rate)
	assert.Nil(t, view.FiatBalance)
	for _, u := range view.UTXOs {
		assert.False(t, u.Age.Confirmed)
	}
	for _, m := range view.Milestones {
		assert.Nil(t, m.MissingFiat)
	}
	require.Len(t, view.Congestion, 3)
	assert.Nil(t, view.Congestion[0].Height)
}

func TestBuildWithoutUTXOs(t *testing.T) {
	f := newFake()
	f.fail["utxos"] = true
	f.fail["congestion"] = true
	view := newTestBuilder(f, true).Build(context.Background(), testWallet, nil, 0, 0)

	assert.Equal(t, []string{WarnUTXOs, WarnCongestion}, view.Warnings)
	assert.False(t, view.HasUTXOs)
	assert.True(t, view.Balance.IsZero())
	assert.Empty(t, view.UTXOs)
	assert.Nil(t, view.Milestones)
	assert.Empty(t, view.Congestion)
	assert.Equal(t, 0, view.Pages)
}

func TestBuildWithoutPriceProvider(t *testing.T) {
	view := newTestBuilder(newFake(), false).Build(context.Background(), testWallet, nil, 0, 0)
	assert.Empty(t, view.Warnings)
	assert.Nil(t, view.Rate)
	assert.Nil(t, view.FiatBalance)
}

func TestTopCongestionWithoutTip(t *testing.T) {
	out := topCongestion([]model.CongestionBlock{{Fee: btc("1")}}, nil)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Height)
	assert.True(t, errors.Is(errDown, explorer.ErrProviderUnavailable))
}

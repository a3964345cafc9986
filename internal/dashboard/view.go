package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/explorer"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"github.com/wx-shi/utxo-dashboard/pkg"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// congestionTop is the number of projected blocks shown.
const congestionTop = 3

const (
	WarnUTXOs      = "Could not fetch UTXOs"
	WarnHeight     = "Could not fetch the latest block height, ages are shown as unconfirmed"
	WarnCongestion = "Could not fetch network congestion"
	WarnRate       = "Could not fetch the BTC rate, fiat values are unknown"
)

// Providers are the remote collaborators of a render. Prices may be nil.
type Providers struct {
	UTXOs      explorer.UTXOProvider
	Heights    explorer.HeightProvider
	Congestion explorer.CongestionProvider
	Prices     explorer.PriceProvider
}

// Builder fetches fresh inputs and computes one DashboardView per call.
// It holds no state between renders.
type Builder struct {
	providers Providers
	targets   []model.MilestoneTarget
	currency  string
	timeout   time.Duration
	pageSize  int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewBuilder(conf *config.Config, p Providers, m *metrics.Metrics, logger *zap.Logger) *Builder {
	return &Builder{
		providers: p,
		targets:   DefaultTargets(),
		currency:  conf.Price.Currency,
		timeout:   conf.Render.Timeout,
		pageSize:  conf.Render.PageSize,
		metrics:   m,
		logger:    logger,
	}
}

func (b *Builder) PageSize() int {
	return b.pageSize
}

type fetched struct {
	utxos      []model.UTXO
	utxosErr   error
	height     *int64
	heightErr  error
	congestion []model.CongestionBlock
	congErr    error
	rate       *decimal.Decimal
	rateErr    error
}

// Build renders the view of wallet. A failing provider degrades its part of
// the view and adds a warning, it never fails the render.
func (b *Builder) Build(ctx context.Context, wallet model.Wallet, wallets []model.Wallet, page, pageSize int) *model.DashboardView {
	start := time.Now()
	defer func() { b.metrics.ObserveRender(time.Since(start).Seconds()) }()

	if pageSize <= 0 {
		pageSize = b.pageSize
	}
	if page < 0 {
		page = 0
	}

	f := b.fetch(ctx, wallet.Address)

	view := &model.DashboardView{
		Wallet:       wallet,
		AddressType:  pkg.AddressType(wallet.Address),
		Wallets:      wallets,
		LatestHeight: f.height,
		Currency:     b.currency,
		Rate:         f.rate,
		Page:         page,
		PageSize:     pageSize,
		Warnings:     make([]string, 0),
		GeneratedAt:  time.Now().UTC(),
	}
	if f.utxosErr != nil {
		view.Warnings = append(view.Warnings, WarnUTXOs)
	}
	if f.heightErr != nil {
		view.Warnings = append(view.Warnings, WarnHeight)
	}
	if f.congErr != nil {
		view.Warnings = append(view.Warnings, WarnCongestion)
	}
	if f.rateErr != nil {
		view.Warnings = append(view.Warnings, WarnRate)
	}

	view.Congestion = topCongestion(f.congestion, f.height)

	balance, enriched := Aggregate(f.utxos, f.height)
	view.Balance = balance
	view.BalanceSats = pkg.BTCToSats(balance)
	view.Summary = Summarize(enriched)
	view.HasUTXOs = len(enriched) > 0
	view.UTXOs = pkg.Paginate(enriched, page, pageSize)
	view.Pages = pkg.PageCount(len(enriched), pageSize)
	if f.rate != nil {
		fiat := balance.Mul(*f.rate).Round(2)
		view.FiatBalance = &fiat
	}
	if view.HasUTXOs {
		view.Milestones = Progress(balance, b.targets, f.rate)
	}
	return view
}

// fetch runs the four provider calls concurrently under the render timeout.
func (b *Builder) fetch(ctx context.Context, address string) *fetched {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var (
		f  fetched
		mu sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utxos, err := b.providers.UTXOs.FetchUTXOs(gctx, address)
		if err != nil {
			b.logger.Warn("FetchUTXOs", zap.String("address", address), zap.Error(err))
		}
		mu.Lock()
		f.utxos, f.utxosErr = utxos, err
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		height, err := b.providers.Heights.FetchLatestHeight(gctx)
		if err != nil {
			b.logger.Warn("FetchLatestHeight", zap.Error(err))
		}
		mu.Lock()
		if err == nil {
			f.height = &height
		}
		f.heightErr = err
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		blocks, err := b.providers.Congestion.FetchCongestion(gctx)
		if err != nil {
			b.logger.Warn("FetchCongestion", zap.Error(err))
		}
		mu.Lock()
		f.congestion, f.congErr = blocks, err
		mu.Unlock()
		return nil
	})
	if b.providers.Prices != nil {
		g.Go(func() error {
			rate, err := b.providers.Prices.FetchRate(gctx, b.currency)
			if err != nil {
				b.logger.Warn("FetchRate", zap.String("currency", b.currency), zap.Error(err))
			}
			mu.Lock()
			if err == nil {
				f.rate = &rate
			}
			f.rateErr = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return &f
}

// topCongestion keeps the first blocks and numbers them from the tip.
func topCongestion(blocks []model.CongestionBlock, tip *int64) []model.CongestionBlock {
	n := len(blocks)
	if n > congestionTop {
		n = congestionTop
	}
	out := make([]model.CongestionBlock, 0, n)
	for i, blk := range blocks[:n] {
		if blk.Height == nil && tip != nil {
			h := *tip + 1 + int64(i)
			blk.Height = &h
		}
		out = append(out, blk)
	}
	return out
}

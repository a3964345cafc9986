package explorer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/guonaihong/gout"
	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"go.uber.org/zap"
)

const mempoolName = "mempool"

// Mempool talks to an esplora compatible REST API such as mempool.space.
type Mempool struct {
	baseURL string
	client  *client
}

type esploraUTXO struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
	} `json:"status"`
}

type esploraBlock struct {
	Height int64 `json:"height"`
}

type mempoolBlock struct {
	NTx       int     `json:"nTx"`
	MedianFee float64 `json:"medianFee"`
}

func NewMempool(conf *config.ExplorerConfig, bc *config.BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *Mempool {
	header := gout.H{}
	if conf.UserAgent != "" {
		header["User-Agent"] = conf.UserAgent
	}
	return &Mempool{
		baseURL: conf.BaseURL,
		client:  newClient(mempoolName, conf.Timeout, conf.RetryAttempts, header, bc, m, logger),
	}
}

func (p *Mempool) Name() string { return mempoolName }

func (p *Mempool) FetchUTXOs(ctx context.Context, address string) ([]model.UTXO, error) {
	var outs []esploraUTXO
	u := fmt.Sprintf("%s/address/%s/utxo", p.baseURL, url.PathEscape(address))
	if err := p.client.getJSON(ctx, u, &outs); err != nil {
		return nil, err
	}

	utxos := make([]model.UTXO, 0, len(outs))
	for _, out := range outs {
		if out.Value < 0 {
			return nil, fmt.Errorf("%w: %s: negative value for %s:%d", ErrProviderUnavailable, mempoolName, out.TxID, out.Vout)
		}
		utxo := model.UTXO{
			TxID:  out.TxID,
			Vout:  out.Vout,
			Value: out.Value,
		}
		if out.Status.Confirmed && out.Status.BlockHeight > 0 {
			height := out.Status.BlockHeight
			utxo.Height = &height
		}
		utxos = append(utxos, utxo)
	}
	return utxos, nil
}

// FetchLatestHeight reads the height of the most recent block in /blocks.
func (p *Mempool) FetchLatestHeight(ctx context.Context) (int64, error) {
	var blocks []esploraBlock
	if err := p.client.getJSON(ctx, p.baseURL+"/blocks", &blocks); err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return 0, fmt.Errorf("%w: %s: empty block list", ErrProviderUnavailable, mempoolName)
	}
	return blocks[0].Height, nil
}

func (p *Mempool) FetchCongestion(ctx context.Context) ([]model.CongestionBlock, error) {
	var blocks []mempoolBlock
	if err := p.client.getJSON(ctx, p.baseURL+"/v1/fees/mempool-blocks", &blocks); err != nil {
		return nil, err
	}
	out := make([]model.CongestionBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, model.CongestionBlock{
			Fee:     decimal.NewFromFloat(b.MedianFee),
			TxCount: b.NTx,
		})
	}
	return out, nil
}

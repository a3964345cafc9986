package explorer

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
)

const nodeName = "bitcoind"

// Node reads the tip height from a bitcoind JSON-RPC endpoint.
type Node struct {
	rpc     *rpcclient.Client
	metrics *metrics.Metrics
}

func NewNode(conf *config.BitcoinRPCConfig, m *metrics.Metrics) (*Node, error) {
	rpc, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         conf.URL,
		User:         conf.User,
		Pass:         conf.Password,
		HTTPPostMode: true, // Bitcoin core only supports HTTP POST mode
		DisableTLS:   true, // Bitcoin core does not provide TLS by default
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Node{rpc: rpc, metrics: m}, nil
}

func (n *Node) Name() string { return nodeName }

func (n *Node) FetchLatestHeight(ctx context.Context) (int64, error) {
	type result struct {
		height int64
		err    error
	}
	future := n.rpc.GetBlockCountAsync()
	ch := make(chan result, 1)
	go func() {
		h, err := future.Receive()
		ch <- result{h, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-ch:
	}
	n.metrics.ProviderRequest(nodeName, res.err)
	if res.err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, nodeName, res.err)
	}
	return res.height, nil
}

func (n *Node) Shutdown() {
	n.rpc.Shutdown()
}

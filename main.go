package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/dashboard"
	"github.com/wx-shi/utxo-dashboard/internal/db"
	"github.com/wx-shi/utxo-dashboard/internal/explorer"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"github.com/wx-shi/utxo-dashboard/internal/server"
	"github.com/wx-shi/utxo-dashboard/internal/wallet"
	"github.com/wx-shi/utxo-dashboard/pkg"
	"go.uber.org/zap"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "./config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := pkg.NewLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	m := metrics.New()

	// Session store, in memory only
	store, err := db.NewDB(logger)
	if err != nil {
		logger.Fatal("Error initializing DB", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("DB::Close", zap.Error(err))
		}
	}()

	defaults := make([]model.Wallet, 0, len(cfg.Wallet.Defaults))
	for _, w := range cfg.Wallet.Defaults {
		defaults = append(defaults, model.Wallet{Name: w.Name, Address: w.Address})
	}
	validator := wallet.Validator{Strict: cfg.Wallet.StrictAddress}
	sessions, err := wallet.NewSessions(store, validator, defaults, cfg.Session.TTL, logger)
	if err != nil {
		logger.Fatal("Error initializing sessions", zap.Error(err))
	}
	sessions.Start()
	defer sessions.Stop()
	m.RegisterSessions(sessions.Len)

	// Remote providers
	mempool := explorer.NewMempool(cfg.Explorer, cfg.Breaker, m, logger)
	providers := dashboard.Providers{
		UTXOs:      mempool,
		Heights:    mempool,
		Congestion: mempool,
	}
	if cfg.Price.Enabled {
		providers.Prices = explorer.NewCoinGecko(cfg.Price, cfg.Breaker, m, logger)
	}
	if cfg.RPC.URL != "" {
		node, err := explorer.NewNode(cfg.RPC, m)
		if err != nil {
			logger.Fatal("Error initializing Bitcoin RPC client", zap.Error(err))
		}
		defer node.Shutdown()
		providers.Heights = node
	}
	builder := dashboard.NewBuilder(cfg, providers, m, logger)

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server
	httpServer, err := server.NewServer(cfg, logger, sessions, builder, validator, m)
	if err != nil {
		logger.Fatal("Error initializing HTTP server", zap.Error(err))
	}
	httpServer.Run()

	// Wait for signal
	<-sigCh
	logger.Info("Shutting down...")

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", zap.Error(err))
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cleverdash/internal/chain"
	"cleverdash/internal/config"
	"cleverdash/internal/logging"
	"cleverdash/internal/metrics"
	"cleverdash/internal/pipeline"
	"cleverdash/internal/pricefeed"
	"cleverdash/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (optional)")
		listenAddr = flag.String("listen", "", "HTTP listen address (overrides server.listen_addr)")
		rpcURL     = flag.String("rpc", "", "Ethereum JSON-RPC endpoint (overrides chain.rpc_url)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
		once       = flag.Bool("once", false, "Compute a single snapshot, print it and exit")
	)
	flag.Parse()

	logging.Init(*logLevel, "text")
	logger := logging.WithComponent("dashboard")

	overrides := map[string]interface{}{}
	if *listenAddr != "" {
		overrides["server.listen_addr"] = *listenAddr
	}
	if *rpcURL != "" {
		overrides["chain.rpc_url"] = *rpcURL
	}
	if *logLevel != "" {
		overrides["log_level"] = *logLevel
	}

	cfg, err := config.LoadWithOverrides(*configPath, overrides)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	var prov metrics.Provider = metrics.Noop{}
	var prom *metrics.Prom
	if cfg.Metrics.Enabled {
		prom = metrics.NewProm()
		prov = prom
	}

	reader, err := chain.Dial(cfg.Chain.RPCURL, cfg.Chain.RequestTimeout, prov, logging.WithComponent("chain"))
	if err != nil {
		logger.Fatalf("Failed to connect to chain: %v", err)
	}
	defer reader.Close()

	var prices pricefeed.Source
	if cfg.PriceFeed.StaticUSD > 0 {
		prices = pricefeed.Static(cfg.PriceFeed.StaticUSD)
	} else {
		prices = pricefeed.NewCoinGecko(pricefeed.Config{
			BaseURL:    cfg.PriceFeed.BaseURL,
			CoinID:     cfg.PriceFeed.CoinID,
			VsCurrency: cfg.PriceFeed.VsCurrency,
			Timeout:    cfg.PriceFeed.Timeout,
		}, logging.WithComponent("pricefeed"))
	}

	contracts, err := pipeline.NewContracts(cfg.Contracts)
	if err != nil {
		logger.Fatalf("Failed to resolve contracts: %v", err)
	}

	p := pipeline.New(reader, prices, contracts, pipeline.Options{
		PinBlock:        cfg.Chain.PinBlock,
		MaxParallel:     cfg.Pipeline.MaxParallel,
		SupplyPrecision: cfg.Pipeline.SupplyPrecision,
		AmountPrecision: cfg.Pipeline.AmountPrecision,
	}, prov, logging.WithComponent("pipeline"))

	if *once {
		printSnapshot(p.Snapshot(context.Background()))
		return
	}

	opts := server.Options{
		ListenAddr:      cfg.Server.ListenAddr,
		Title:           cfg.Server.Title,
		RefreshInterval: cfg.Server.RefreshInterval,
	}
	if prom != nil {
		opts.MetricsHandler = prom.Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}
	srv := server.New(p, opts, logging.WithComponent("server"))
	if err := srv.Start(); err != nil {
		logger.Fatalf("Failed to start dashboard: %v", err)
	}
	logger.Infof("Dashboard listening on %s", srv.Addr())

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down dashboard...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}

func printSnapshot(snap *pipeline.Snapshot) {
	if snap.Pinned {
		fmt.Printf("block %d (pinned)\n", snap.Block)
	} else if snap.Block > 0 {
		fmt.Printf("block %d\n", snap.Block)
	}
	for _, sec := range snap.Sections {
		fmt.Printf("\n%s\n", sec.Title)
		for _, m := range sec.Metrics {
			fmt.Printf("  %-16s %s\n", m.Label, m.Display)
		}
	}
}

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"stock-pulse/src/aggregator"
	"stock-pulse/src/config"
	"stock-pulse/src/grpc_control"
	"stock-pulse/src/logger"
	"stock-pulse/src/network"
	"stock-pulse/src/quotes/googlefinance"
	"stock-pulse/src/quotes/yahoo"
	"stock-pulse/src/server"
	"stock-pulse/src/sources"
	"stock-pulse/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Optional .env for local overrides
	_ = godotenv.Load()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			cfg.Port = v
		}
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)

	// Control plane: breakers report their state as gRPC health
	control := grpc_control.NewControlService(cfg.MConfig, logger.NewLogger(cfg.MConfig, "ControlService"))

	// Upstream capability clients
	netMgr := network.NewNetworkManager(cfg.MConfig, logger.NewLogger(cfg.MConfig, "NetworkManager"))
	priceClient := yahoo.NewClient(cfg.MConfig, netMgr)
	fundamentalsClient := googlefinance.NewScraper(cfg.MConfig, logger.NewLogger(cfg.MConfig, "GoogleFinance"))
	defer fundamentalsClient.Close()

	// Breaker + cache adapters around the capabilities
	priceSource := sources.NewPriceSource(priceClient, cfg.MConfig, logger.NewLogger(cfg.MConfig, "PriceSource"), control.OnBreakerChange)
	fundamentalsSource := sources.NewFundamentalsSource(fundamentalsClient, cfg.MConfig, logger.NewLogger(cfg.MConfig, "FundamentalsSource"), control.OnBreakerChange)

	scheduler := utils.NewMarketScheduler(logger.NewLogger(cfg.MConfig, "MarketScheduler"))
	agg := aggregator.New(priceSource, fundamentalsSource, scheduler, cfg.MConfig, logger.NewLogger(cfg.MConfig, "Aggregator"))

	srv := server.NewServer(cfg.MConfig, agg, logger.NewLogger(cfg.MConfig, "Server"))

	go func() {
		if err := control.Start(); err != nil {
			appLogger.Error("gRPC control failed: %v", err)
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	control.Stop()
	srv.Stop()
}

// feedtail connects to the gateway event feed and prints routed events.
// Usage: go run ./cmd/feedtail --config configs/indexer.yaml
//
// Reads gateway.ws_url, gateway.api_key and gateway.pool from the config;
// ${VAR} references are expanded from the environment and the .env file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/dex-indexer/internal/api"
	"github.com/rickgao/dex-indexer/internal/config"
	"github.com/rickgao/dex-indexer/internal/connection"
	"github.com/rickgao/dex-indexer/internal/model"
	"github.com/rickgao/dex-indexer/internal/router"
)

func main() {
	configPath := flag.String("config", "configs/indexer.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to .env file (optional)")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	if err := config.LoadDotEnv(*envPath); err != nil {
		logger.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Gateway.WSURL == "" {
		logger.Error("gateway.ws_url is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Show the pool we are about to tail, if REST is configured
	if cfg.Gateway.RestURL != "" {
		gateway := api.NewClient(cfg.Gateway.RestURL, cfg.Gateway.APIKey,
			api.WithPool(cfg.Gateway.Pool),
			api.WithLogger(logger),
		)
		pool, err := gateway.GetPool(ctx)
		if err != nil {
			logger.Warn("pool lookup failed", "error", err)
		} else {
			logger.Info("pool",
				"address", pool.Address,
				"token0", pool.Token0,
				"token1", pool.Token1,
				"price", pool.Price,
				"liquidity", pool.Liquidity,
			)
		}
	}

	// Create Connection Manager
	connCfg := connection.DefaultManagerConfig()
	connCfg.WSURL = cfg.Gateway.WSURL
	connCfg.APIKey = cfg.Gateway.APIKey
	connCfg.Pool = cfg.Gateway.Pool

	connMgr := connection.NewManager(connCfg, logger)

	// Create Router using Connection Manager's message channel
	rtr := router.NewRouter(router.DefaultRouterConfig(), connMgr.Messages(), logger)

	logger.Info("starting router")
	if err := rtr.Start(ctx); err != nil {
		logger.Error("failed to start router", "error", err)
		os.Exit(1)
	}

	logger.Info("starting connection manager", "url", cfg.Gateway.WSURL, "pool", cfg.Gateway.Pool)
	if err := connMgr.Start(ctx); err != nil {
		logger.Error("failed to start connection manager", "error", err)
		os.Exit(1)
	}

	go printEvents(ctx, rtr.Events(), *verbose)

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				routerStats := rtr.Stats()
				connStats := connMgr.Stats()
				logger.Info("stats",
					"connected", connStats.Connected,
					"reconnects", connStats.Reconnects,
					"seq_gaps", connStats.SeqGaps,
					"router_received", routerStats.MessagesReceived,
					"router_routed", routerStats.EventsRouted,
					"parse_errors", routerStats.ParseErrors,
					"invalid_events", routerStats.InvalidEvents,
					"event_buf", routerStats.EventBuffer.Count,
				)
			}
		}
	}()

	logger.Info("tailing feed - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	connMgr.Stop(shutdownCtx)
	rtr.Stop(shutdownCtx)

	logger.Info("shutdown complete")
}

func printEvents(ctx context.Context, buf *router.GrowableBuffer[model.Event], verbose bool) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			ev, ok := buf.TryReceive()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}

			if verbose {
				data, _ := json.MarshalIndent(ev, "", "  ")
				fmt.Printf("[%s] %s\n", ev.Kind, data)
				continue
			}

			switch ev.Kind {
			case model.KindSync:
				fmt.Printf("[SYNC] price=%.6f ts=%d\n", ev.Sync.Price, ev.Sync.Timestamp)
			case model.KindSwap:
				fmt.Printf("[SWAP] hash=%s side=%s amount=%s ts=%d\n",
					ev.Swap.Hash, ev.Swap.Side, ev.Swap.Amount, ev.Swap.Timestamp)
			}
		}
	}
}

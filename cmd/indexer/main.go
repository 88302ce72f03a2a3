package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/dex-indexer/internal/api"
	"github.com/rickgao/dex-indexer/internal/cache"
	"github.com/rickgao/dex-indexer/internal/config"
	"github.com/rickgao/dex-indexer/internal/connection"
	"github.com/rickgao/dex-indexer/internal/indexer"
	"github.com/rickgao/dex-indexer/internal/ledger"
	"github.com/rickgao/dex-indexer/internal/poller"
	"github.com/rickgao/dex-indexer/internal/router"
	"github.com/rickgao/dex-indexer/internal/server"
	"github.com/rickgao/dex-indexer/internal/version"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/indexer.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to .env file (optional)")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting indexer", append(version.LogAttrs(),
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)...)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("indexer failed", "error", err)
		os.Exit(1)
	}
	logger.Info("indexer stopped")
}

func run(ctx context.Context, cfg *config.IndexerConfig, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	// Trade ledger
	led, closeLedger, err := ledger.Open(ctx, cfg.Ledger, logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer closeLedger()

	writer := ledger.NewWriter(ledger.WriterConfig{
		BatchSize:     cfg.Writer.BatchSize,
		FlushInterval: cfg.Writer.FlushInterval,
		BufferSize:    cfg.Writer.BufferSize,
	}, led, logger)
	if err := writer.Start(ctx); err != nil {
		return fmt.Errorf("start ledger writer: %w", err)
	}
	defer stopWithTimeout(writer.Stop)

	// Chain gateway REST client
	var gateway *api.Client
	var liquidityFetcher poller.LiquidityFetcher
	if cfg.Gateway.RestURL != "" {
		gateway = api.NewClient(
			cfg.Gateway.RestURL,
			cfg.Gateway.APIKey,
			api.WithPool(cfg.Gateway.Pool),
			api.WithLogger(logger),
			api.WithTimeout(cfg.Gateway.Timeout),
			api.WithRetries(cfg.Gateway.MaxRetries, time.Second),
		)
		liquidityFetcher = gateway

		status, err := gateway.GetStatus(ctx)
		if err != nil {
			logger.Warn("gateway status check failed", "error", err)
		} else {
			logger.Info("gateway status",
				"chain_id", status.ChainID,
				"block", status.BlockNumber,
				"synced", status.Synced,
			)
		}
	} else {
		logger.Warn("no gateway rest_url configured, using static liquidity and history price")
	}

	liquidity := poller.New(poller.Config{
		Interval:        cfg.Poller.Interval,
		Timeout:         cfg.Poller.Timeout,
		StaticLiquidity: cfg.Poller.StaticLiquidity,
	}, liquidityFetcher, logger)
	if err := liquidity.Start(ctx); err != nil {
		return fmt.Errorf("start liquidity poller: %w", err)
	}
	defer stopWithTimeout(liquidity.Stop)

	// Engine
	opts := []indexer.Option{
		indexer.WithLogger(logger),
		indexer.WithLiquidity(liquidity),
		indexer.WithTradeSink(writer),
	}
	if gateway != nil {
		opts = append(opts, indexer.WithPriceSource(gateway))
	}

	// Live feed: connection manager -> router -> engine
	var feed connection.Manager
	var rtr router.Router
	if cfg.Gateway.WSURL != "" {
		connCfg := connection.DefaultManagerConfig()
		connCfg.WSURL = cfg.Gateway.WSURL
		connCfg.APIKey = cfg.Gateway.APIKey
		connCfg.Pool = cfg.Gateway.Pool
		connCfg.ReconnectBaseWait = cfg.Connection.ReconnectBaseDelay
		connCfg.ReconnectMaxWait = cfg.Connection.ReconnectMaxDelay
		connCfg.PingTimeout = cfg.Connection.PingTimeout
		connCfg.WriteTimeout = cfg.Connection.WriteTimeout
		connCfg.MessageBufferSize = cfg.Connection.BufferSize

		feed = connection.NewManager(connCfg, logger)
		rtr = router.NewRouter(router.RouterConfig{
			EventBufferSize: cfg.Indexer.EventBuffer,
			MaxEventBuffer:  cfg.Indexer.MaxEventBuffer,
		}, feed.Messages(), logger)
		opts = append(opts, indexer.WithEvents(rtr.Events()))
	} else {
		logger.Warn("no gateway ws_url configured, live feed disabled")
	}

	engine := indexer.New(indexer.FromConfig(cfg.Indexer), led, opts...)

	// Start the feed before the bootstrap so events queue in the router
	// buffer while history is replayed.
	if feed != nil {
		if err := rtr.Start(ctx); err != nil {
			return fmt.Errorf("start router: %w", err)
		}
		if err := feed.Start(ctx); err != nil {
			return fmt.Errorf("start feed: %w", err)
		}
	}

	logger.Info("starting engine (bootstrap)...")
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer stopWithTimeout(engine.Stop)

	// Stopped in reverse: feed, router, then engine and writer above
	if feed != nil {
		defer stopWithTimeout(rtr.Stop)
		defer stopWithTimeout(feed.Stop)
	}

	// Redis snapshot publisher
	var publisher *cache.Publisher
	if cfg.Cache.RedisAddr != "" {
		client := cache.NewClient(cfg.Cache)
		defer client.Close()

		publisher = cache.NewPublisher(cache.Config{
			Prefix:   cfg.Cache.Prefix,
			Interval: cfg.Cache.Interval,
			TTL:      cfg.Cache.TTL,
		}, client, engine, logger)
		if err := publisher.Start(ctx); err != nil {
			return fmt.Errorf("start publisher: %w", err)
		}
		defer stopWithTimeout(publisher.Stop)
	}

	debugStats := func() map[string]any {
		stats := map[string]any{
			"engine":    engine.Stats(),
			"writer":    writer.Stats(),
			"liquidity": liquidity.Stats(),
		}
		if feed != nil {
			stats["feed"] = feed.Stats()
			stats["router"] = rtr.Stats()
		}
		if publisher != nil {
			stats["cache"] = publisher.Stats()
		}
		return stats
	}

	srv := server.New(server.Config{Port: cfg.Server.Port}, engine, debugStats, logger)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	logger.Info("indexer running",
		"instance_id", cfg.Instance.ID,
		"api_url", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.Server.Port),
	)

	// Wait for shutdown or a server failure
	<-ctx.Done()
	logger.Info("shutting down...")
	return g.Wait()
}

// stopWithTimeout runs a component Stop with a bounded context.
func stopWithTimeout(stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		slog.Warn("component stop failed", "error", err)
	}
}

// newLogger builds the slog handler selected by the log config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

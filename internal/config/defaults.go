package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
	DefaultAPITimeout         = 10 * time.Second
	DefaultMaxRetries         = 3
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultConnBufferSize     = 10000
	DefaultBucketWidth        = time.Minute
	DefaultInitialPrice       = 2452.82
	DefaultRecentTrades       = 50
	DefaultStatsWindow        = 1440
	DefaultRetention          = 48 * time.Hour
	DefaultEventBuffer        = 1000
	DefaultMaxEventBuffer     = 100000
	DefaultStartupTimeout     = 10 * time.Second
	DefaultPruneInterval      = time.Minute
	DefaultLedgerDriver       = DriverMemory
	DefaultHistoryLimit       = 100000
	DefaultSQLitePath         = "indexer.db"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultBatchSize          = 100
	DefaultFlushInterval      = 1 * time.Second
	DefaultBufferSize         = 10000
	DefaultPollInterval       = 30 * time.Second
	DefaultPollTimeout        = 10 * time.Second
	DefaultStaticLiquidity    = 2450890
	DefaultCachePrefix        = "dex-indexer"
	DefaultCacheInterval      = 5 * time.Second
	DefaultCacheTTL           = 30 * time.Second
	DefaultServerPort         = 8080
)

func (c *IndexerConfig) applyDefaults() {
	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	// Gateway defaults
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = DefaultAPITimeout
	}
	if c.Gateway.MaxRetries == 0 {
		c.Gateway.MaxRetries = DefaultMaxRetries
	}

	// Connection defaults
	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultConnBufferSize
	}

	// Indexer defaults
	if c.Indexer.BucketWidth == 0 {
		c.Indexer.BucketWidth = DefaultBucketWidth
	}
	if c.Indexer.InitialPrice == 0 {
		c.Indexer.InitialPrice = DefaultInitialPrice
	}
	if c.Indexer.RecentTrades == 0 {
		c.Indexer.RecentTrades = DefaultRecentTrades
	}
	if c.Indexer.StatsWindow == 0 {
		c.Indexer.StatsWindow = DefaultStatsWindow
	}
	if c.Indexer.Retention == 0 {
		c.Indexer.Retention = DefaultRetention
	}
	if c.Indexer.EventBuffer == 0 {
		c.Indexer.EventBuffer = DefaultEventBuffer
	}
	if c.Indexer.MaxEventBuffer == 0 {
		c.Indexer.MaxEventBuffer = DefaultMaxEventBuffer
	}
	if c.Indexer.StartupTimeout == 0 {
		c.Indexer.StartupTimeout = DefaultStartupTimeout
	}
	if c.Indexer.PruneInterval == 0 {
		c.Indexer.PruneInterval = DefaultPruneInterval
	}

	// Ledger defaults
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = DefaultLedgerDriver
	}
	if c.Ledger.HistoryLimit == 0 {
		c.Ledger.HistoryLimit = DefaultHistoryLimit
	}
	if c.Ledger.SQLite.Path == "" {
		c.Ledger.SQLite.Path = DefaultSQLitePath
	}
	applyDBDefaults(&c.Ledger.Postgres)

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}
	if c.Poller.StaticLiquidity == 0 {
		c.Poller.StaticLiquidity = DefaultStaticLiquidity
	}

	// Cache defaults
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = DefaultCachePrefix
	}
	if c.Cache.Interval == 0 {
		c.Cache.Interval = DefaultCacheInterval
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

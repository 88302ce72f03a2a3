package config

import "time"

// IndexerConfig is the root configuration for an indexer instance.
type IndexerConfig struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Log        LogConfig        `yaml:"log"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Connection ConnectionConfig `yaml:"connection"`
	Indexer    EngineConfig     `yaml:"indexer"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Writer     WriterConfig     `yaml:"writer"`
	Poller     PollerConfig     `yaml:"poller"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
}

// InstanceConfig identifies this indexer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// GatewayConfig holds chain gateway settings.
// An empty RestURL disables price sync and liquidity polling, an empty
// WSURL disables the live feed.
type GatewayConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	APIKey     string        `yaml:"api_key"`
	Pool       string        `yaml:"pool"` // Pool contract address
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ConnectionConfig holds feed connection settings.
type ConnectionConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// EngineConfig holds aggregation and ingest settings.
type EngineConfig struct {
	BucketWidth    time.Duration `yaml:"bucket_width"`
	InitialPrice   float64       `yaml:"initial_price"`
	RecentTrades   int           `yaml:"recent_trades"`
	StatsWindow    int           `yaml:"stats_window"` // candles
	Retention      time.Duration `yaml:"retention"`    // negative = unbounded
	EventBuffer    int           `yaml:"event_buffer"`
	MaxEventBuffer int           `yaml:"max_event_buffer"`
	StartupTimeout time.Duration `yaml:"startup_timeout"`
	PruneInterval  time.Duration `yaml:"prune_interval"`
}

// LedgerConfig selects and configures the trade ledger.
type LedgerConfig struct {
	Driver       string       `yaml:"driver"`        // postgres, sqlite or memory
	HistoryLimit int          `yaml:"history_limit"` // 0 = all trades
	Postgres     DBConfig     `yaml:"postgres"`
	SQLite       SQLiteConfig `yaml:"sqlite"`
}

// Ledger drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SQLiteConfig holds the local ledger file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// WriterConfig holds ledger batch writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// PollerConfig holds liquidity poller settings.
type PollerConfig struct {
	Interval        time.Duration `yaml:"interval"`
	Timeout         time.Duration `yaml:"timeout"`
	StaticLiquidity float64       `yaml:"static_liquidity"`
}

// CacheConfig holds redis snapshot publisher settings.
// An empty RedisAddr disables publishing.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	Prefix    string        `yaml:"prefix"`
	Interval  time.Duration `yaml:"interval"`
	TTL       time.Duration `yaml:"ttl"`
}

// ServerConfig holds the read API listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

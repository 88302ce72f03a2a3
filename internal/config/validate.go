package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *IndexerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if (c.Gateway.RestURL != "" || c.Gateway.WSURL != "") && c.Gateway.Pool == "" {
		return errors.New("gateway.pool is required when a gateway url is set")
	}
	if c.Gateway.MaxRetries < 0 {
		return errors.New("gateway.max_retries must be >= 0")
	}

	if c.Connection.ReconnectBaseDelay > c.Connection.ReconnectMaxDelay {
		return fmt.Errorf("connection.reconnect_base_delay (%s) cannot exceed reconnect_max_delay (%s)",
			c.Connection.ReconnectBaseDelay, c.Connection.ReconnectMaxDelay)
	}
	if c.Connection.BufferSize < 1 {
		return errors.New("connection.buffer_size must be >= 1")
	}

	if err := c.Indexer.validate(); err != nil {
		return err
	}

	switch c.Ledger.Driver {
	case DriverPostgres:
		if err := c.Ledger.Postgres.validate("ledger.postgres"); err != nil {
			return err
		}
	case DriverSQLite:
		if c.Ledger.SQLite.Path == "" {
			return errors.New("ledger.sqlite.path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("ledger.driver must be postgres, sqlite or memory, got %q", c.Ledger.Driver)
	}
	if c.Ledger.HistoryLimit < 0 {
		return errors.New("ledger.history_limit must be >= 0")
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.BufferSize < 1 {
		return errors.New("writer.buffer_size must be >= 1")
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be > 0")
	}
	if c.Poller.StaticLiquidity < 0 {
		return errors.New("poller.static_liquidity must be >= 0")
	}

	if c.Cache.RedisAddr != "" && c.Cache.TTL < c.Cache.Interval {
		return fmt.Errorf("cache.ttl (%s) must be >= cache.interval (%s)", c.Cache.TTL, c.Cache.Interval)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func (e *EngineConfig) validate() error {
	if e.BucketWidth < time.Second || e.BucketWidth%time.Second != 0 {
		return fmt.Errorf("indexer.bucket_width must be a whole number of seconds, got %s", e.BucketWidth)
	}
	if !(e.InitialPrice > 0) {
		return errors.New("indexer.initial_price must be > 0")
	}
	if e.RecentTrades < 1 {
		return errors.New("indexer.recent_trades must be >= 1")
	}
	if e.StatsWindow < 1 {
		return errors.New("indexer.stats_window must be >= 1")
	}
	if window := time.Duration(e.StatsWindow) * e.BucketWidth; e.Retention > 0 && e.Retention < window {
		return fmt.Errorf("indexer.retention (%s) must cover the stats window (%s)", e.Retention, window)
	}
	if e.EventBuffer < 1 {
		return errors.New("indexer.event_buffer must be >= 1")
	}
	if e.MaxEventBuffer != 0 && e.MaxEventBuffer < e.EventBuffer {
		return fmt.Errorf("indexer.max_event_buffer (%d) cannot be below event_buffer (%d)", e.MaxEventBuffer, e.EventBuffer)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// BucketSeconds returns the bucket width in whole seconds.
func (e EngineConfig) BucketSeconds() int64 {
	return int64(e.BucketWidth / time.Second)
}

// RetentionSeconds returns the retention window in whole seconds.
// A negative retention means unbounded and returns 0.
func (e EngineConfig) RetentionSeconds() int64 {
	if e.Retention < 0 {
		return 0
	}
	return int64(e.Retention / time.Second)
}

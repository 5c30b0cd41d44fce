package store

import (
	"time"

	"beesync/internal/platform/config"
)

// Config selects and configures the SQL backend
type Config struct {
	AppName string
	Driver  Driver

	PG     PGConfig
	SQLite SQLiteConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// SQLiteConfig configures the embedded database
type SQLiteConfig struct {
	Path        string
	LogSQL      bool
	SlowQueryMs int
}

// FromConf reads STORE_* from c
// STORE_DRIVER defaults to sqlite so the CLI works without a database server
func FromConf(c config.Conf) Config {
	sc := c.Prefix("STORE_")
	drv := Driver(sc.MayEnum("DRIVER", string(DriverSQLite), string(DriverPG), string(DriverSQLite)))
	logSQL := sc.MayBool("LOG_SQL", false)
	slow := sc.MayInt("SLOW_MS", 200)

	cfg := Config{AppName: "beesync", Driver: drv}
	switch drv {
	case DriverPG:
		cfg.PG = PGConfig{
			URL:            sc.MustString("DBURL"),
			MaxConns:       int32(sc.MayInt("MAX_CONNS", 8)),
			LogSQL:         logSQL,
			SlowQueryMs:    slow,
			ConnectRetries: sc.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    sc.MayDuration("PING_TIMEOUT", 3*time.Second),
		}
	case DriverSQLite:
		cfg.SQLite = SQLiteConfig{
			Path:        sc.MayString("SQLITE_PATH", "beesync.db"),
			LogSQL:      logSQL,
			SlowQueryMs: slow,
		}
	}
	return cfg
}

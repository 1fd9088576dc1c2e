package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Sadisms/mm-tools/db"
	"github.com/Sadisms/mm-tools/platform"
	"github.com/Sadisms/mm-tools/session"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

func dbConfigFromViper() db.Config {
	cfg := db.DefaultConfig()
	cfg.Driver = viper.GetString("db.driver")
	cfg.DSN = viper.GetString("db.dsn")
	cfg.Pool.MaxOpenConns = viper.GetInt("db.pool.max_open_conns")
	cfg.Pool.MaxIdleConns = viper.GetInt("db.pool.max_idle_conns")
	cfg.Pool.ConnMaxLifetime = viper.GetDuration("db.pool.conn_max_lifetime")
	cfg.SQLite.BusyTimeoutMs = viper.GetInt("db.sqlite.busy_timeout_ms")
	cfg.SQLite.WAL = viper.GetBool("db.sqlite.wal")
	cfg.SQLite.ForeignKeys = viper.GetBool("db.sqlite.foreign_keys")
	cfg.AutoMigrate = viper.GetBool("db.automigrate")
	return cfg
}

func openDBFromViper() (*gorm.DB, error) {
	return db.Open(dbConfigFromViper())
}

func platformClientFromViper() *platform.Client {
	timeout := viper.GetDuration("mattermost.request_timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return platform.New(
		&http.Client{Timeout: timeout},
		viper.GetString("mattermost.server_url"),
		viper.GetString("mattermost.token"),
		platform.WithRateLimit(
			viper.GetFloat64("mattermost.rate_limit_per_second"),
			viper.GetInt("mattermost.rate_limit_burst"),
		),
	)
}

func sessionStoreFromViper(gdb *gorm.DB) (session.Store, error) {
	switch backend := viper.GetString("sessions.backend"); backend {
	case "", "db":
		if gdb == nil {
			return nil, fmt.Errorf("sessions.backend=db requires a database")
		}
		return session.NewGormStore(gdb), nil
	case "file":
		dir := viper.GetString("sessions.file_dir")
		if dir == "" {
			return nil, fmt.Errorf("sessions.backend=file requires sessions.file_dir")
		}
		return session.NewFileStore(dir), nil
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown sessions.backend: %s", backend)
	}
}

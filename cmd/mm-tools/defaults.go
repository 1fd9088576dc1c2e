package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Logging
	viper.SetDefault("logging.level", "")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)

	// Mattermost server
	viper.SetDefault("mattermost.server_url", "http://127.0.0.1:8065")
	viper.SetDefault("mattermost.token", "")
	viper.SetDefault("mattermost.rate_limit_per_second", 8.0)
	viper.SetDefault("mattermost.rate_limit_burst", 4)
	viper.SetDefault("mattermost.request_timeout", 30*time.Second)

	// DB
	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.dsn", "")
	viper.SetDefault("db.pool.max_open_conns", 1)
	viper.SetDefault("db.pool.max_idle_conns", 1)
	viper.SetDefault("db.pool.conn_max_lifetime", 0*time.Second)
	viper.SetDefault("db.sqlite.busy_timeout_ms", 5000)
	viper.SetDefault("db.sqlite.wal", true)
	viper.SetDefault("db.sqlite.foreign_keys", true)
	viper.SetDefault("db.automigrate", true)

	// Sessions
	viper.SetDefault("sessions.backend", "db") // db|file|memory
	viper.SetDefault("sessions.file_dir", "")

	// Dedup
	viper.SetDefault("dedup.default_cooldown", 20*time.Second)
	viper.SetDefault("dedup.prune_interval", 10*time.Minute)

	// Endpoint migration
	viper.SetDefault("migrate.workers", 4)
	viper.SetDefault("migrate.record_timeout", 15*time.Second)
}

// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

type Config struct {
	HTTPAddr  string // LEDGER_HTTP_ADDR
	Backend   string // LEDGER_BACKEND: memory (default) or mysql
	MySQLDSN  string // LEDGER_MYSQL_DSN
	RedisAddr string // LEDGER_REDIS_ADDR, empty disables the stock cache
	LogMode   string // LEDGER_LOG_MODE: development (default) or production
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:  getenv("LEDGER_HTTP_ADDR", ":8080"),
		Backend:   getenv("LEDGER_BACKEND", BackendMemory),
		MySQLDSN:  getenv("LEDGER_MYSQL_DSN", "root:root@tcp(localhost:3306)/shopledger?parseTime=true"),
		RedisAddr: os.Getenv("LEDGER_REDIS_ADDR"),
		LogMode:   getenv("LEDGER_LOG_MODE", "development"),
	}

	if cfg.Backend != BackendMemory && cfg.Backend != BackendMySQL {
		return Config{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

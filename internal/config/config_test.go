package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.Backend != BackendMemory {
		t.Errorf("expected default backend memory, got %q", cfg.Backend)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("stock cache must be off by default, got %q", cfg.RedisAddr)
	}
	if cfg.LogMode != "development" {
		t.Errorf("expected default log mode development, got %q", cfg.LogMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_HTTP_ADDR", ":9090")
	t.Setenv("LEDGER_BACKEND", BackendMySQL)
	t.Setenv("LEDGER_MYSQL_DSN", "user:pw@tcp(db:3306)/shop?parseTime=true")
	t.Setenv("LEDGER_REDIS_ADDR", "cache:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":9090" || cfg.Backend != BackendMySQL {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.MySQLDSN != "user:pw@tcp(db:3306)/shop?parseTime=true" {
		t.Errorf("unexpected dsn %q", cfg.MySQLDSN)
	}
	if cfg.RedisAddr != "cache:6379" {
		t.Errorf("unexpected redis addr %q", cfg.RedisAddr)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "cassandra")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

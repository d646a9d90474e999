package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "STORE_BACKEND", "SQLITE_PATH", "DATABASE_URL", "REDIS_URL",
		"ROOM_EXPIRY", "COMPACT_INTERVAL", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.StoreBackend)
	}
	if cfg.RoomExpiry != time.Hour {
		t.Fatalf("expected 1h expiry, got %v", cfg.RoomExpiry)
	}
	if cfg.CompactInterval != 0 {
		t.Fatalf("expected compaction disabled, got %v", cfg.CompactInterval)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected 120 requests/minute, got %d", cfg.RateLimitPerMinute)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", BackendSQLite)
	t.Setenv("SQLITE_PATH", "/tmp/rooms.db")
	t.Setenv("ROOM_EXPIRY", "90m")
	t.Setenv("COMPACT_INTERVAL", "10m")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg := Load()
	if cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "/tmp/rooms.db" {
		t.Fatalf("unexpected storage config %q %q", cfg.StoreBackend, cfg.SQLitePath)
	}
	if cfg.RoomExpiry != 90*time.Minute {
		t.Fatalf("expected 90m expiry, got %v", cfg.RoomExpiry)
	}
	if cfg.CompactInterval != 10*time.Minute {
		t.Fatalf("expected 10m compaction, got %v", cfg.CompactInterval)
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Fatalf("expected 30 requests/minute, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROOM_EXPIRY", "soon")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-4")

	cfg := Load()
	if cfg.RoomExpiry != time.Hour {
		t.Fatalf("expected default expiry, got %v", cfg.RoomExpiry)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected default rate limit, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "etcd"}},
		{"production postgres without url", map[string]string{"ENV": "production", "STORE_BACKEND": BackendPostgres}},
		{"production redis without url", map[string]string{"ENV": "production", "STORE_BACKEND": BackendRedis}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if recover() == nil {
					t.Fatal("expected Load to panic")
				}
			}()
			Load()
		})
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.ProcessorURL == "" {
		t.Fatalf("expected default processor url")
	}
	if cfg.InterpolationLevel != 1 {
		t.Fatalf("expected default interpolation level, got %d", cfg.InterpolationLevel)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected default session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.ProcessorTimeout != 30*time.Minute {
		t.Fatalf("expected default processor timeout, got %v", cfg.ProcessorTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PROCESSOR_URL", "http://processor:3000")
	t.Setenv("DEFAULT_LANG", "en")
	t.Setenv("INTERPOLATION_LEVEL", "4")
	t.Setenv("SESSION_TTL", "30m")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.ProcessorURL != "http://processor:3000" {
		t.Fatalf("expected override processor url")
	}
	if cfg.DefaultLang != "en" {
		t.Fatalf("expected override lang")
	}
	if cfg.InterpolationLevel != 4 {
		t.Fatalf("expected override interpolation level")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected override session ttl")
	}
}

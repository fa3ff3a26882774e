package config

import (
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENV", "development")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ipd")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if !cfg.IsDev() {
		t.Error("expected dev mode")
	}
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ipd")
	t.Setenv("ENV", "development")
	t.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production", DBMaxConns: 20, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when JWT_SECRET missing in production")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{Env: "development", DBMaxConns: 5, DBMinConns: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min conns exceed max conns")
	}
}

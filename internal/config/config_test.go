package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Discovery.TopN != 120 {
		t.Errorf("TopN = %d, want 120", cfg.Discovery.TopN)
	}
	if cfg.Discovery.MaxPageSize != 50 {
		t.Errorf("MaxPageSize = %d, want 50", cfg.Discovery.MaxPageSize)
	}
	if cfg.Discovery.TTL != time.Hour {
		t.Errorf("TTL = %v, want 1h", cfg.Discovery.TTL)
	}
	if !cfg.Discovery.StrictMode {
		t.Error("StrictMode should default to true")
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("fetch timeout = %v, want 10s", cfg.Fetch.Timeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
discovery:
  top_n: 40
  strict_mode: false
cache:
  backend: redis
  redis_addr: redis.internal:6379
vendors:
  - name: TestVendor
    domains: [testvendor.com]
    tier: 1
    shipper: fast
    us_confirmed: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Discovery.TopN != 40 {
		t.Errorf("TopN = %d, want 40", cfg.Discovery.TopN)
	}
	if cfg.Discovery.StrictMode {
		t.Error("StrictMode should be false from file")
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "redis.internal:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}

	reg := cfg.Registry()
	if v := reg.ByURL("https://testvendor.com/p/1"); v == nil || v.Name != "TestVendor" {
		t.Errorf("configured vendor not in registry: %+v", v)
	}
	// Built-in table replaced wholesale.
	if reg.Allows("https://www.cdw.com/product/x") {
		t.Error("default vendors should not survive a configured vendor list")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	writeAndLoad := func(content string) error {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		_, err := Load(path)
		return err
	}

	if err := writeAndLoad("discovery:\n  top_n: -1\n"); err == nil {
		t.Error("expected error for negative top_n")
	}
	if err := writeAndLoad("cache:\n  backend: memcached\n"); err == nil {
		t.Error("expected error for unknown cache backend")
	}
	if err := writeAndLoad("archive:\n  backend: mongo\n"); err == nil {
		t.Error("expected error for unknown archive backend")
	}
	if err := writeAndLoad("discovery:\n  min_spec_match_ratio: 1.5\n"); err == nil {
		t.Error("expected error for out-of-range spec match ratio")
	}
}

func TestRegistryFallsBackToDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Registry().Allows("https://www.cdw.com/product/x") {
		t.Error("default registry should include the built-in vendor table")
	}
}

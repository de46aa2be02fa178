package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PollInterval != 10*time.Second || cfg.FetchTimeout != 8*time.Second {
		t.Errorf("intervals = %v / %v", cfg.PollInterval, cfg.FetchTimeout)
	}
	if cfg.DefaultLat != 45.4397 || cfg.DefaultLon != 4.3872 {
		t.Errorf("default focus = %v, %v", cfg.DefaultLat, cfg.DefaultLon)
	}
	if !strings.HasSuffix(cfg.FreeBikeStatusURL, "free_bike_status.json") {
		t.Errorf("FreeBikeStatusURL = %q", cfg.FreeBikeStatusURL)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("DEFAULT_LAT", "48.85")
	t.Setenv("CACHE_SIZE", "64")
	t.Setenv("AREA_MIN_LAT", "40")
	t.Setenv("AREA_MAX_LAT", "50")
	t.Setenv("AREA_MIN_LON", "0")
	t.Setenv("AREA_MAX_LON", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "production" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.FetchTimeout != 8*time.Second {
		t.Errorf("invalid value should keep default, got %v", cfg.FetchTimeout)
	}
	if cfg.DefaultLat != 48.85 || cfg.CacheSize != 64 {
		t.Errorf("DefaultLat = %v, CacheSize = %d", cfg.DefaultLat, cfg.CacheSize)
	}
	area := cfg.ServiceArea()
	if area.IsZero() || area.MaxLat != 50 || area.MaxLon != 10 {
		t.Errorf("area = %+v", area)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
port: "9090"
locale: en
poll_interval: 20s
cache_ttl: 1m
area:
  min_lat: 45.3
  max_lat: 45.6
  min_lon: 4.2
  max_lon: 4.6
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("env should win over file, Port = %q", cfg.Port)
	}
	if cfg.Locale != "en" || cfg.PollInterval != 20*time.Second || cfg.CacheTTL != time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Area.MinLat != 45.3 || cfg.Area.MaxLon != 4.6 {
		t.Errorf("area = %+v", cfg.Area)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("unset keys should keep defaults, HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"bad env", func(c *Config) { c.Env = "staging" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad feed url", func(c *Config) { c.StationStatusURL = "not a url" }},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }},
		{"timeout above interval", func(c *Config) { c.FetchTimeout = time.Minute }},
		{"latitude out of range", func(c *Config) { c.DefaultLat = 95 }},
		{"bad locale", func(c *Config) { c.Locale = "!!" }},
		{"zero cache size", func(c *Config) { c.CacheSize = 0 }},
		{"inverted area", func(c *Config) { c.Area = AreaConfig{MinLat: 50, MaxLat: 40, MinLon: 0, MaxLon: 10} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

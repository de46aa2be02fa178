// Package config handles application configuration from environment
// variables, an optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/velivert/velivert/internal/location"
)

const feedBaseURL = "https://api.saint-etienne-metropole.fr/velivert/api/"

// Config holds all application configuration.
type Config struct {
	Port     string `yaml:"port" validate:"required,numeric"`
	Env      string `yaml:"env" validate:"oneof=development production test"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	StationInformationURL string `yaml:"station_information_url" validate:"required,url"`
	StationStatusURL      string `yaml:"station_status_url" validate:"required,url"`
	FreeBikeStatusURL     string `yaml:"free_bike_status_url" validate:"required,url"`
	BikeNamesFile         string `yaml:"bike_names_file"`

	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" validate:"gt=0"`

	DefaultLat float64 `yaml:"default_lat" validate:"latitude"`
	DefaultLon float64 `yaml:"default_lon" validate:"longitude"`
	Locale     string  `yaml:"locale" validate:"required,bcp47_language_tag"`

	CacheSize int           `yaml:"cache_size" validate:"gt=0"`
	CacheTTL  time.Duration `yaml:"cache_ttl" validate:"gt=0"`

	DatabaseURL string `yaml:"database_url"`

	Area AreaConfig `yaml:"area"`
}

// AreaConfig is the optional service-area bounding box. All zero disables it.
type AreaConfig struct {
	MinLat float64 `yaml:"min_lat" validate:"latitude"`
	MaxLat float64 `yaml:"max_lat" validate:"latitude"`
	MinLon float64 `yaml:"min_lon" validate:"longitude"`
	MaxLon float64 `yaml:"max_lon" validate:"longitude"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Port:                  "3000",
		Env:                   "development",
		LogLevel:              "info",
		StationInformationURL: feedBaseURL + "station_information.json",
		StationStatusURL:      feedBaseURL + "station_status.json",
		FreeBikeStatusURL:     feedBaseURL + "free_bike_status.json",
		BikeNamesFile:         "bike_names.json",
		PollInterval:          10 * time.Second,
		FetchTimeout:          8 * time.Second,
		HTTPTimeout:           10 * time.Second,
		DefaultLat:            location.DefaultLat,
		DefaultLon:            location.DefaultLon,
		Locale:                "fr",
		CacheSize:             256,
		CacheTTL:              30 * time.Second,
	}
}

// Load reads configuration with sensible defaults. A .env file in the
// working directory is loaded first if present. CONFIG_FILE names an
// optional YAML file applied over the defaults; environment variables win
// over both.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))

	c.StationInformationURL = getEnv("STATION_INFORMATION_URL", c.StationInformationURL)
	c.StationStatusURL = getEnv("STATION_STATUS_URL", c.StationStatusURL)
	c.FreeBikeStatusURL = getEnv("FREE_BIKE_STATUS_URL", c.FreeBikeStatusURL)
	c.BikeNamesFile = getEnv("BIKE_NAMES_FILE", c.BikeNamesFile)

	c.PollInterval = getDurationEnv("POLL_INTERVAL_SECONDS", c.PollInterval)
	c.FetchTimeout = getDurationEnv("FETCH_TIMEOUT_SECONDS", c.FetchTimeout)
	c.HTTPTimeout = getDurationEnv("HTTP_TIMEOUT_SECONDS", c.HTTPTimeout)

	c.DefaultLat = getFloatEnv("DEFAULT_LAT", c.DefaultLat)
	c.DefaultLon = getFloatEnv("DEFAULT_LON", c.DefaultLon)
	c.Locale = getEnv("LOCALE", c.Locale)

	c.CacheSize = getIntEnv("CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getDurationEnv("CACHE_TTL_SECONDS", c.CacheTTL)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	c.Area.MinLat = getFloatEnv("AREA_MIN_LAT", c.Area.MinLat)
	c.Area.MaxLat = getFloatEnv("AREA_MAX_LAT", c.Area.MaxLat)
	c.Area.MinLon = getFloatEnv("AREA_MIN_LON", c.Area.MinLon)
	c.Area.MaxLon = getFloatEnv("AREA_MAX_LON", c.Area.MaxLon)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if a := c.ServiceArea(); !a.IsZero() && (a.MinLat >= a.MaxLat || a.MinLon >= a.MaxLon) {
		return errors.New("service area: min bounds must be below max bounds")
	}
	if c.FetchTimeout > c.PollInterval {
		return fmt.Errorf("fetch timeout %s exceeds poll interval %s", c.FetchTimeout, c.PollInterval)
	}
	return nil
}

// ServiceArea returns the configured bounding box
func (c *Config) ServiceArea() location.Area {
	return location.Area{
		MinLat: c.Area.MinLat,
		MaxLat: c.Area.MaxLat,
		MinLon: c.Area.MinLon,
		MaxLon: c.Area.MaxLon,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a whole number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Package config provides centralized configuration for the weather client.
// Values come from environment variables, optionally seeded from a .env file,
// with sensible defaults for everything except the backend URL.
package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Geolocation providers.
const (
	GeoProviderIP     = "ip"
	GeoProviderStatic = "static"
	GeoProviderOff    = "off"
)

// Config holds all configuration settings.
type Config struct {
	App           AppConfig
	Backend       BackendConfig
	Geolocation   GeolocationConfig
	Cache         CacheConfig
	Status        StatusConfig
	Breaker       BreakerConfig
	Observability ObservabilityConfig
}

// AppConfig contains process-wide settings.
type AppConfig struct {
	Environment string
	LogLevel    string
	Locale      string
}

// BackendConfig contains the weather backend settings.
type BackendConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

// GeolocationConfig selects how the device position is resolved.
type GeolocationConfig struct {
	Provider    string
	IPLookupURL string
	Latitude    float64
	Longitude   float64
}

// CacheConfig controls the optional in-process record cache. A zero TTL disables it.
type CacheConfig struct {
	TTL time.Duration
}

// StatusConfig controls the local status API. An empty Addr disables it.
type StatusConfig struct {
	Addr string
}

// BreakerConfig contains circuit breaker thresholds for the backend.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// ObservabilityConfig contains tracing and metrics settings.
type ObservabilityConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string
	SampleRate     float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
//
// Returns:
//   - *Config: Configuration with values from environment or defaults
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Environment: getEnv("ENVIRONMENT", "production"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Locale:      getEnv("APP_LOCALE", "en"),
		},
		Backend: BackendConfig{
			BaseURL:     getEnv("WEATHER_API_URL", ""),
			HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		},
		Geolocation: GeolocationConfig{
			Provider:    strings.ToLower(getEnv("GEO_PROVIDER", GeoProviderIP)),
			IPLookupURL: getEnv("GEO_IP_URL", "http://ip-api.com/json"),
			Latitude:    getEnvAsFloat("GEO_LAT", 0),
			Longitude:   getEnvAsFloat("GEO_LON", 0),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("WEATHER_CACHE_TTL", 0),
		},
		Status: StatusConfig{
			Addr: getEnv("STATUS_ADDR", ""),
		},
		Breaker: BreakerConfig{
			MaxRequests:  uint32(getEnvAsInt("BREAKER_MAX_REQUESTS", 1)),
			Interval:     getEnvAsDuration("BREAKER_INTERVAL", time.Minute),
			Timeout:      getEnvAsDuration("BREAKER_TIMEOUT", 30*time.Second),
			FailureRatio: getEnvAsFloat("BREAKER_FAILURE_RATIO", 0.5),
		},
		Observability: ObservabilityConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:    "weather-now",
			ServiceVersion: getEnv("VERSION", "1.0.0"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     getEnvAsFloat("OTEL_SAMPLE_RATE", 0.1),
		},
	}
}

// Validate reports configuration that would make the client unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("WEATHER_API_URL is required"))
	} else if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("WEATHER_API_URL %q is not an absolute URL", c.Backend.BaseURL))
	}

	if c.Backend.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}

	switch c.Geolocation.Provider {
	case GeoProviderIP, GeoProviderOff:
	case GeoProviderStatic:
		lat, lon := c.Geolocation.Latitude, c.Geolocation.Longitude

		if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			errs = append(errs, errors.New("GEO_LAT/GEO_LON out of range"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GEO_PROVIDER %q", c.Geolocation.Provider))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the process runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// getEnv retrieves an environment variable value with a fallback default.
//
// Parameters:
//   - key: Environment variable name
//   - defaultValue: Value to use if variable is not set
//
// Returns:
//   - string: Environment value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer with a fallback default.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean with a fallback default.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}

	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}

	return defaultValue
}

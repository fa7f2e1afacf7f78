package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// Platform access.
	ShopDomain     string
	AccessToken    string
	APIVersion     string
	PageSize       int
	RequestTimeout time.Duration

	// Inbound webhook surface.
	ListenAddr    string
	WebhookSecret string

	// Sweep loop.
	SweepInterval time.Duration
	SweepOnStart  bool
	SweepWorkers  int
	SweepTimeout  time.Duration

	// Optional sweep overlap lock.
	RedisAddr     string
	RedisPassword string

	OTLPEndpoint string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	port := strings.TrimSpace(getenv("PORT", "8080"))

	return Config{
		AppName:     getenv("APP_SERVICE", "viptagger"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		ShopDomain:     strings.TrimSpace(getenv("SHOPIFY_STORE", "")),
		AccessToken:    strings.TrimSpace(getenv("SHOPIFY_ACCESS_TOKEN", "")),
		APIVersion:     strings.TrimSpace(getenv("SHOPIFY_API_VERSION", "2023-10")),
		PageSize:       getenvInt("CUSTOMER_PAGE_SIZE", 250),
		RequestTimeout: getenvDuration("PLATFORM_REQUEST_TIMEOUT", 15*time.Second),

		ListenAddr:    ":" + strings.TrimPrefix(port, ":"),
		WebhookSecret: strings.TrimSpace(getenv("SHOPIFY_WEBHOOK_SECRET", "")),

		SweepInterval: getenvDuration("SWEEP_INTERVAL", 24*time.Hour),
		SweepOnStart:  getenvBool("SWEEP_ON_START", true),
		SweepWorkers:  getenvInt("SWEEP_WORKERS", 1),
		SweepTimeout:  getenvDuration("SWEEP_TIMEOUT", 30*time.Minute),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
	}
}

var (
	ErrMissingShopDomain  = errors.New("SHOPIFY_STORE is required")
	ErrMissingAccessToken = errors.New("SHOPIFY_ACCESS_TOKEN is required")
)

// Validate reports configuration the process cannot start without.
func (c Config) Validate() error {
	if c.ShopDomain == "" {
		return ErrMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if c.PageSize <= 0 || c.PageSize > 250 {
		return fmt.Errorf("CUSTOMER_PAGE_SIZE must be within 1..250, got %d", c.PageSize)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

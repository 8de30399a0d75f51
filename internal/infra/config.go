package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// Working storage for in-flight conversion files.
	WorkDir         string
	MaxUploadBytes  int64
	MaxRequestBytes int64
	FileExpiry      time.Duration
	SweepInterval   time.Duration

	// Conversion engine.
	EngineURL      string
	ConvertTimeout time.Duration
	ConvertRate    string

	// Quota.
	FreeLimit   int
	TopUpAmount int

	// Payment provider.
	PaymentSecretKey string
	PaymentPriceID   string
	PaymentBaseURL   string
	PublicBaseURL    string

	// Sessions.
	CookieName   string
	CookieSecure bool

	// Optional integrations.
	DatabaseURL   string
	GeoIPDBPath   string
	DefaultLocale string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		WorkDir:         getEnv("WORK_DIR", "./uploads"),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 16<<20),
		MaxRequestBytes: getEnvInt64("MAX_REQUEST_BYTES", 20<<20),
		FileExpiry:      time.Hour * time.Duration(getEnvInt("FILE_EXPIRY_HOURS", 24)),
		SweepInterval:   time.Second * time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 300)),

		EngineURL:      getEnv("ENGINE_URL", "http://localhost:3000"),
		ConvertTimeout: time.Second * time.Duration(getEnvInt("CONVERT_TIMEOUT_SECONDS", 120)),
		ConvertRate:    getEnv("CONVERT_RATE_LIMIT", "10/minute"),

		FreeLimit:   getEnvInt("FREE_CONVERSION_LIMIT", 3),
		TopUpAmount: getEnvInt("PAID_CONVERSION_AMOUNT", 50),

		PaymentSecretKey: os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentPriceID:   os.Getenv("PAYMENT_PRICE_ID"),
		PaymentBaseURL:   getEnv("PAYMENT_BASE_URL", "https://api.stripe.com"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		CookieName:   getEnv("SESSION_COOKIE_NAME", "dc_session"),
		CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("WORK_DIR is required")
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	if cfg.MaxRequestBytes < cfg.MaxUploadBytes {
		cfg.MaxRequestBytes = cfg.MaxUploadBytes
	}

	if cfg.FreeLimit < 0 || cfg.TopUpAmount <= 0 {
		return nil, fmt.Errorf("conversion limits must be non-negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

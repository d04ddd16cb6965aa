package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
}

type ScraperConfig struct {
	UserAgent           string
	PageTimeout         time.Duration
	ImageTimeout        time.Duration
	RequestsPerSecond   float64
	MaxPages            int
	MaxImagesPerListing int
	DefaultMaxVehicles  int
	VehicleDelay        time.Duration
	PageDelay           time.Duration
	SchedulerEnabled    bool
	SchedulerInterval   time.Duration
}

type UploadsConfig struct {
	BaseDir     string
	MaxFileSize int64
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
}

type PaymentsConfig struct {
	Provider     string
	StripeAPIKey string
	Currency     string
}

type ObservabilityConfig struct {
	OTLPEndpoint string
	MetricsAddr  string
	PprofAddr    string
}

type Config struct {
	Repositories  RepositoriesConfig
	JWT           JWTConfig
	Scraper       ScraperConfig
	Uploads       UploadsConfig
	Payments      PaymentsConfig
	Observability ObservabilityConfig
	ServerPort    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "dealerflow"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		JWT: JWTConfig{
			SecretKey:       getEnvOrDefault("JWT_SECRET_KEY", ""),
			AccessTokenTTL:  getDurationOrDefault("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTokenTTL: getDurationOrDefault("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:          getEnvOrDefault("JWT_ISSUER", "dealerflow"),
			Audience:        getEnvOrDefault("JWT_AUDIENCE", "dealerflow-api"),
		},
		Scraper: ScraperConfig{
			UserAgent:           getEnvOrDefault("SCRAPER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
			PageTimeout:         getDurationOrDefault("SCRAPER_PAGE_TIMEOUT", 10*time.Second),
			ImageTimeout:        getDurationOrDefault("SCRAPER_IMAGE_TIMEOUT", 30*time.Second),
			RequestsPerSecond:   getFloatOrDefault("SCRAPER_REQUESTS_PER_SECOND", 1),
			MaxPages:            getIntOrDefault("SCRAPER_MAX_PAGES", 5),
			MaxImagesPerListing: getIntOrDefault("SCRAPER_MAX_IMAGES_PER_LISTING", 5),
			DefaultMaxVehicles:  getIntOrDefault("SCRAPER_DEFAULT_MAX_VEHICLES", 50),
			VehicleDelay:        getDurationOrDefault("SCRAPER_VEHICLE_DELAY", time.Second),
			PageDelay:           getDurationOrDefault("SCRAPER_PAGE_DELAY", 2*time.Second),
			SchedulerEnabled:    getBoolOrDefault("SCRAPER_SCHEDULER_ENABLED", false),
			SchedulerInterval:   getDurationOrDefault("SCRAPER_SCHEDULER_INTERVAL", 15*time.Minute),
		},
		Uploads: UploadsConfig{
			BaseDir:     getEnvOrDefault("UPLOADS_DIR", "uploads"),
			MaxFileSize: int64(getIntOrDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)),
			MaxWidth:    getIntOrDefault("UPLOADS_MAX_WIDTH", 1200),
			MaxHeight:   getIntOrDefault("UPLOADS_MAX_HEIGHT", 800),
			JPEGQuality: getIntOrDefault("UPLOADS_JPEG_QUALITY", 85),
		},
		Payments: PaymentsConfig{
			Provider:     getEnvOrDefault("PAYMENT_PROVIDER", "helcim"),
			StripeAPIKey: getEnvOrDefault("STRIPE_API_KEY", ""),
			Currency:     getEnvOrDefault("PAYMENT_CURRENCY", "USD"),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel-collector:4318"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

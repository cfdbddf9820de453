package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"agrimarket/pkg/logger"
)

// Config collects every environment-driven setting of the service
type Config struct {
	Port     string
	LogLevel string

	DBDriver    string // "postgres" or "sqlite"
	DatabaseURL string
	SQLitePath  string

	JWTSecret string

	WeatherAPIKey  string
	WeatherBaseURL string
	TranslateURL   string

	KafkaBrokers  []string
	KafkaSMSTopic string

	PriceBackend   string // "csv" or "pebble"
	PriceCSVPath   string
	PricePebbleDir string

	SeedSampleData    bool
	CollaboratorLimit time.Duration
}

// Load reads .env (if present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, relying on system env", nil)
	}

	cfg := &Config{
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "smart_farming.db"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "http://api.weatherapi.com/v1"),
		TranslateURL:   os.Getenv("TRANSLATE_URL"),

		KafkaSMSTopic: getEnv("KAFKA_SMS_TOPIC", "sms-outbound"),

		PriceBackend:   getEnv("PRICE_BACKEND", "csv"),
		PriceCSVPath:   getEnv("PRICE_CSV_PATH", "data/market_prices.csv"),
		PricePebbleDir: getEnv("PRICE_PEBBLE_DIR", "data/prices"),

		SeedSampleData:    getBool("SEED_SAMPLE_DATA", false),
		CollaboratorLimit: getDuration("COLLABORATOR_TIMEOUT", 10*time.Second),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.DatabaseURL == "" && cfg.DBDriver == "postgres" {
		cfg.DatabaseURL = "host=" + os.Getenv("DB_HOST") +
			" user=" + os.Getenv("DB_USER") +
			" password=" + os.Getenv("DB_PASSWORD") +
			" dbname=" + os.Getenv("DB_NAME") +
			" port=" + os.Getenv("DB_PORT") +
			" sslmode=disable TimeZone=Asia/Kolkata"
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port    string
	GinMode string

	LocalCurrency       string
	FreeCurrencyAPIKey  string
	FreeCurrencyBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	AnalysisTimeout   time.Duration
	HTTPClientTimeout time.Duration
	MaxUploadMB       int
	BatchMaxFiles     int
	BatchConcurrency  int
	RateLimitRPS      float64
	RateLimitBurst    int

	EventLogEnabled bool
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	AutoMigrate     bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		LocalCurrency:       strings.ToUpper(getEnv("LOCAL_CURRENCY", "INR")),
		FreeCurrencyAPIKey:  getEnv("FREECURRENCY_API_KEY", ""),
		FreeCurrencyBaseURL: getEnv("FREECURRENCY_BASE_URL", "https://api.freecurrencyapi.com"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		AnalysisTimeout:   getDuration("ANALYSIS_TIMEOUT", 15*time.Second),
		HTTPClientTimeout: getDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		MaxUploadMB:       getInt("MAX_UPLOAD_MB", 10),
		BatchMaxFiles:     getInt("BATCH_MAX_FILES", 5),
		BatchConcurrency:  getInt("BATCH_CONCURRENCY", 3),
		RateLimitRPS:      getFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 5),

		EventLogEnabled: getEnv("EVENT_LOG_ENABLED", "false") == "true",
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "fira"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "fira"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		AutoMigrate:     getEnv("AUTO_MIGRATE", "false") == "true",
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.FreeCurrencyAPIKey == "" {
		errs = append(errs, errors.New("FREECURRENCY_API_KEY is required"))
	}
	if len(c.LocalCurrency) != 3 {
		errs = append(errs, fmt.Errorf("LOCAL_CURRENCY must be a 3-letter code, got %q", c.LocalCurrency))
	}
	if c.AnalysisTimeout <= 0 {
		errs = append(errs, errors.New("ANALYSIS_TIMEOUT must be positive"))
	}
	if c.MaxUploadMB < 1 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be at least 1"))
	}
	if c.BatchMaxFiles < 1 || c.BatchConcurrency < 1 {
		errs = append(errs, errors.New("BATCH_MAX_FILES and BATCH_CONCURRENCY must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

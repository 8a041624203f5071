// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	JWT       JWTConfig
	Provider  ProviderConfig
	Scheduler SchedulerConfig
	APIKey    string
	// FrontendBaseURL is where learners are redirected after a verify-by-reference call
	FrontendBaseURL string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret string
}

// ProviderConfig holds payment provider settings
type ProviderConfig struct {
	Name        string
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
}

// SchedulerConfig holds cron specs for maintenance tasks
type SchedulerConfig struct {
	RecountSpec string
	ReplaySpec  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPort, err := requiredInt("DB_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Redis configuration
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = optionalInt("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = optionalInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = optionalInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Payment provider configuration
	providerSecret := os.Getenv("PAYMENT_PROVIDER_SECRET_KEY")
	if providerSecret == "" {
		return nil, fmt.Errorf("PAYMENT_PROVIDER_SECRET_KEY is required")
	}
	cfg.Provider.SecretKey = providerSecret
	cfg.Provider.Name = getEnv("PAYMENT_PROVIDER_NAME", "paystack")
	cfg.Provider.BaseURL = strings.TrimRight(getEnv("PAYMENT_PROVIDER_BASE_URL", "https://api.paystack.co"), "/")
	cfg.Provider.CallbackURL = os.Getenv("PAYMENT_CALLBACK_URL")
	timeout, err := time.ParseDuration(getEnv("PAYMENT_PROVIDER_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_PROVIDER_TIMEOUT: %w", err)
	}
	cfg.Provider.Timeout = timeout

	// Scheduler configuration
	cfg.Scheduler.RecountSpec = getEnv("SCHEDULER_RECOUNT_SPEC", "@every 1h")
	cfg.Scheduler.ReplaySpec = getEnv("SCHEDULER_REPLAY_SPEC", "@every 10m")

	cfg.APIKey = os.Getenv("API_KEY")
	cfg.FrontendBaseURL = strings.TrimRight(getEnv("FRONTEND_BASE_URL", "http://localhost:3000"), "/")

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis address in host:port form
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requiredInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func optionalInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// parseOrigins splits a comma-separated origin list, allowing all origins when empty
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

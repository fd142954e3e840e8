package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Sweep    SweepConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// AuthConfig holds the admin API token configuration
type AuthConfig struct {
	JWTSecret string
}

// SweepConfig holds the scheduler cadence and dedup fence window
type SweepConfig struct {
	DailyInterval  time.Duration
	WeeklyInterval time.Duration
	FenceWindow    time.Duration
}

func Load() (*Config, error) {
	// A missing .env file is fine in containers; env vars take over.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "schedule_engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.Auth = AuthConfig{
		JWTSecret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Sweep scheduler configuration
	dailyInterval, err := time.ParseDuration(getEnv("SWEEP_DAILY_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_DAILY_INTERVAL: %w", err)
	}
	weeklyInterval, err := time.ParseDuration(getEnv("SWEEP_WEEKLY_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_WEEKLY_INTERVAL: %w", err)
	}
	fenceWindow, err := time.ParseDuration(getEnv("SWEEP_FENCE_WINDOW", "20m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_FENCE_WINDOW: %w", err)
	}
	config.Sweep = SweepConfig{
		DailyInterval:  dailyInterval,
		WeeklyInterval: weeklyInterval,
		FenceWindow:    fenceWindow,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

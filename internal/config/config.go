package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	Environment   string
	StorageDriver string
	Database      DatabaseConfig
	Carrier       CarrierConfig
	Redis         RedisConfig
	Fulfillment   FulfillmentConfig
	LogLevel      string

	// BootstrapAPIKey seeds an operator when running on the memory driver
	BootstrapAPIKey string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the postgres URL used by the migrator
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type CarrierConfig struct {
	BaseURL    string
	Username   string
	Password   string
	Timeout    time.Duration
	SessionTTL time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a redis server is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type FulfillmentConfig struct {
	// PickupLocations is the raw newline-delimited "Label-ID" mapping
	PickupLocations string
	Timezone        *time.Location
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CARRIER_TIMEOUT_SECONDS", "30")
	viper.SetDefault("CARRIER_SESSION_TTL_SECONDS", "0")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("BUSINESS_TIMEZONE", "Africa/Casablanca")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := getIntOrViper("CARRIER_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getIntOrViper("CARRIER_SESSION_TTL_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	redisPort, err := getIntOrViper("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	redisDB, err := getIntOrViper("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	tzName := getEnvOrViper("BUSINESS_TIMEZONE", "Africa/Casablanca")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		Port:          getEnvOrViper("PORT", "8080"),
		Environment:   getEnvOrViper("ENVIRONMENT", "development"),
		StorageDriver: strings.ToLower(getEnvOrViper("STORAGE_DRIVER", "postgres")),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "backoffice"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Carrier: CarrierConfig{
			BaseURL:    strings.TrimSuffix(getEnvOrViper("CARRIER_BASE_URL", ""), "/"),
			Username:   getEnvOrViper("CARRIER_USERNAME", ""),
			Password:   getEnvOrViper("CARRIER_PASSWORD", ""),
			Timeout:    time.Duration(timeout) * time.Second,
			SessionTTL: time.Duration(sessionTTL) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvOrViper("REDIS_HOST", ""),
			Port:     redisPort,
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Fulfillment: FulfillmentConfig{
			PickupLocations: getEnvOrViper("PICKUP_LOCATIONS", ""),
			Timezone:        loc,
		},
		LogLevel:        getEnvOrViper("LOG_LEVEL", "info"),
		BootstrapAPIKey: getEnvOrViper("BOOTSTRAP_API_KEY", ""),
	}

	// Validate required fields
	if cfg.Carrier.BaseURL == "" {
		return nil, fmt.Errorf("CARRIER_BASE_URL is required")
	}
	if cfg.Carrier.Username == "" || cfg.Carrier.Password == "" {
		return nil, fmt.Errorf("CARRIER_USERNAME and CARRIER_PASSWORD are required")
	}
	if cfg.StorageDriver != "postgres" && cfg.StorageDriver != "memory" {
		return nil, fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getIntOrViper(key string, defaultValue int) (int, error) {
	raw := getEnvOrViper(key, strconv.Itoa(defaultValue))
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return val, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration; RedisURL wins when set, empty address disables
	// redis-backed features (logout denylist, rate limiting)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Pagination
	PageSize int

	// Image storage: S3 when bucket is set, local media dir otherwise
	S3Bucket  string
	AWSRegion string
	MediaDir  string
	MediaURL  string
}

// LoadConfig creates a new Config instance from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "foodgram"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisURL:      os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret"),

		S3Bucket:  os.Getenv("S3_BUCKET_NAME"),
		AWSRegion: os.Getenv("AWS_REGION"),
		MediaDir:  getEnv("MEDIA_DIR", "media"),
		MediaURL:  getEnv("MEDIA_URL", "/media"),
	}

	pageSize, err := strconv.Atoi(getEnv("PAGE_SIZE", "6"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAGE_SIZE: %w", err)
	}
	cfg.PageSize = pageSize

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

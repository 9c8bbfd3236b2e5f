package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string
	LogLevel        string

	ServiceAccountJSON string
	ServiceAccountPath string

	MessageCooldown   time.Duration
	MessagesPerMinute int
	MaxMessageLength  int

	HTTPRatePerSecond float64
	HTTPRateBurst     int
	AllowedOrigins    []string

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		MessageCooldown:    time.Duration(getEnvAsInt64("MESSAGE_COOLDOWN_MS", 1000)) * time.Millisecond,
		MessagesPerMinute:  int(getEnvAsInt64("MESSAGES_PER_MINUTE", 30)),
		MaxMessageLength:   int(getEnvAsInt64("MAX_MESSAGE_LENGTH", 1000)),
		HTTPRatePerSecond:  getEnvAsFloat64("HTTP_RATE_PER_SECOND", 20),
		HTTPRateBurst:      int(getEnvAsInt64("HTTP_RATE_BURST", 40)),
		AllowedOrigins:     getEnvAsList("WS_ALLOWED_ORIGINS"),
		ShutdownTimeout:    time.Duration(getEnvAsInt64("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

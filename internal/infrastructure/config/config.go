// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Entity store: Postgres DSN when set, SQLite file otherwise
	DatabaseDSN string
	SQLitePath  string

	// MongoDB (cloud mirror)
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Operations portal
	PortalBaseURL  string
	PortalUsername string
	PortalPassword string

	// Capture scheduling defaults; live values come from app metadata
	ScrapeIntervalHours int
	ScrapeDays          int
	EnableCloudSync     bool

	// Text report directories
	PairingsDir string
	IOEDir      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 60)) * time.Second,

		DatabaseDSN: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "noc_data.db"),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "nocarchive"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PortalBaseURL:  getEnv("NOC_BASE_URL", ""),
		PortalUsername: getEnv("NOC_USERNAME", ""),
		PortalPassword: getEnv("NOC_PASSWORD", ""),

		ScrapeIntervalHours: getEnvAsInt("SCRAPE_INTERVAL_HOURS", 4),
		ScrapeDays:          getEnvAsInt("SCRAPE_DAYS", 2),
		EnableCloudSync:     getEnvAsBool("ENABLE_CLOUD_SYNC", false),

		PairingsDir: getEnv("PAIRINGS_DIR", "pairings"),
		IOEDir:      getEnv("IOE_DIR", "ioe"),
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

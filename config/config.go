package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	RentCastAPIKey string

	StationsCSV  string
	ZipCodesFile string
	CacheRoot    string
	OutputDir    string

	MaxPrice          float64
	MinBedrooms       float64
	MinBathrooms      float64
	SearchRadiusMiles float64
	ResultLimit       int
	ListingStatus     string

	MaxConcurrency int
	RateLimitMs    int

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		RentCastAPIKey: getEnv("RENTCAST_API_KEY", ""),

		StationsCSV:  getEnv("STATIONS_CSV", "./data/rail_stations_with_zip.csv"),
		ZipCodesFile: getEnv("ZIPCODES_FILE", "./data/zipcodes.txt"),
		CacheRoot:    getEnv("CACHE_ROOT", "./.tmp"),
		OutputDir:    getEnv("OUTPUT_DIR", "./.tmp"),

		MaxPrice:          getEnvFloat("MAX_PRICE", 600000),
		MinBedrooms:       getEnvFloat("MIN_BEDROOMS", 3),
		MinBathrooms:      getEnvFloat("MIN_BATHROOMS", 1.5),
		SearchRadiusMiles: getEnvFloat("SEARCH_RADIUS_MILES", 1.5),
		ResultLimit:       getEnvInt("RESULT_LIMIT", 500),
		ListingStatus:     getEnv("LISTING_STATUS", "Active"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 6),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "homes"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "homes123"),
		PostgresDB:       getEnv("POSTGRES_DB", "homes_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

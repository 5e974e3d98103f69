package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort         string
	DatabaseURL        string
	LogLevel           string
	CacheTTLMinutes    string
	ZaraStockBaseURL   string
	LookupTimeoutSecs  string
	SweepBrand         string
	SweepDelaySecs     string
	SweepChunkSize     string
	SweepIntervalHours string
	SohoStoreID        string
	SohoLatitude       string
	SohoLongitude      string
}

// SweepConfig holds the fixed-store sweep parameters resolved from the
// environment. The SoHo store is the one location the batch path cares about.
type SweepConfig struct {
	Brand     string
	StoreID   string
	Latitude  float64
	Longitude float64
	Delay     time.Duration
	ChunkSize int
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CacheTTLMinutes:    getEnv("CACHE_TTL_MINUTES", "60"),
		ZaraStockBaseURL:   getEnv("ZARA_STOCK_BASE_URL", "https://www.zara.com/us/en/store-stock"),
		LookupTimeoutSecs:  getEnv("LOOKUP_TIMEOUT_SECONDS", "10"),
		SweepBrand:         getEnv("SWEEP_BRAND", "Zara"),
		SweepDelaySecs:     getEnv("SWEEP_DELAY_SECONDS", "2"),
		SweepChunkSize:     getEnv("SWEEP_CHUNK_SIZE", "200"),
		SweepIntervalHours: getEnv("SWEEP_INTERVAL_HOURS", "6"),
		SohoStoreID:        getEnv("SOHO_STORE_ID", "5731"),
		SohoLatitude:       getEnv("SOHO_LATITUDE", "40.7243"),
		SohoLongitude:      getEnv("SOHO_LONGITUDE", "-74.0018"),
	}
}

// GetCacheTTL returns the availability cache TTL from environment or the
// 60 minute default.
func (c *Config) GetCacheTTL() time.Duration {
	minutes, err := strconv.Atoi(c.CacheTTLMinutes)
	if err != nil || minutes <= 0 {
		logrus.Warnf("Invalid CACHE_TTL_MINUTES value: %s, using default 60 minutes", c.CacheTTLMinutes)
		return 60 * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// GetLookupTimeout returns the hard upstream timeout for single-product
// lookups.
func (c *Config) GetLookupTimeout() time.Duration {
	seconds, err := strconv.Atoi(c.LookupTimeoutSecs)
	if err != nil || seconds <= 0 {
		logrus.Warnf("Invalid LOOKUP_TIMEOUT_SECONDS value: %s, using default 10 seconds", c.LookupTimeoutSecs)
		return 10 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// GetSweepInterval returns how often the scheduled SoHo sweep runs.
func (c *Config) GetSweepInterval() time.Duration {
	hours, err := strconv.Atoi(c.SweepIntervalHours)
	if err != nil || hours <= 0 {
		logrus.Warnf("Invalid SWEEP_INTERVAL_HOURS value: %s, using default 6 hours", c.SweepIntervalHours)
		return 6 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

// GetSweepConfig resolves the full sweep configuration, falling back to the
// SoHo Manhattan defaults on any unparsable value.
func (c *Config) GetSweepConfig() SweepConfig {
	cfg := SweepConfig{
		Brand:     c.SweepBrand,
		StoreID:   c.SohoStoreID,
		Latitude:  40.7243,
		Longitude: -74.0018,
		Delay:     2 * time.Second,
		ChunkSize: 200,
	}

	if lat, err := strconv.ParseFloat(c.SohoLatitude, 64); err == nil {
		cfg.Latitude = lat
	} else {
		logrus.Warnf("Invalid SOHO_LATITUDE value: %s, using default", c.SohoLatitude)
	}
	if lng, err := strconv.ParseFloat(c.SohoLongitude, 64); err == nil {
		cfg.Longitude = lng
	} else {
		logrus.Warnf("Invalid SOHO_LONGITUDE value: %s, using default", c.SohoLongitude)
	}
	if secs, err := strconv.Atoi(c.SweepDelaySecs); err == nil && secs >= 0 {
		cfg.Delay = time.Duration(secs) * time.Second
	}
	if size, err := strconv.Atoi(c.SweepChunkSize); err == nil && size > 0 {
		cfg.ChunkSize = size
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

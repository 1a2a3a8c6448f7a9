package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	MetricsPort string
	ProductURL  string
	SiteURL     string
	BrowserWS   string
	CacheTTL    time.Duration
}

func Load() *Config {
	// .env at the project root, then the current directory.
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()
	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		ProductURL:  os.Getenv("PRODUCT_URL"),
		SiteURL:     getEnv("SITE_URL", "https://brain.com.ua/ukr/"),
		BrowserWS:   os.Getenv("BROWSER_WS"),
		CacheTTL:    time.Duration(getEnvInt("CACHE_TTL_MINUTES", 60)) * time.Minute,
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

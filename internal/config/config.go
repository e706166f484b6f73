package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=stock port=5432 sslmode=disable"

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres, mysql, sqlite
	DatabaseDSN    string
	CORSOrigins    string
	LogSQL         bool

	// ReverseStockOnDelete restores product stock when an invoice is deleted.
	ReverseStockOnDelete bool
	// LowStockRatio is the stock/min_stock ratio at or below which a product is critical.
	LowStockRatio float64
	// Location is used to resolve "today" and calendar day boundaries for reports.
	Location *time.Location
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env file not found, using process environment only")
	}

	cfg := &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:       getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:          getEnv("DATABASE_DSN", defaultDSN),
		CORSOrigins:          getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogSQL:               getBool("LOG_SQL", false),
		ReverseStockOnDelete: getBool("REVERSE_STOCK_ON_DELETE", true),
		LowStockRatio:        getFloat("LOW_STOCK_RATIO", 0.10),
		Location:             time.Local,
	}

	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("[FATAL] invalid TIMEZONE (%s): %v", tz, err)
		}
		cfg.Location = loc
	}

	switch cfg.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		log.Fatalf("[FATAL] unsupported DATABASE_DRIVER: %s (postgres, mysql, sqlite)", cfg.DatabaseDriver)
	}

	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is using the default value, set your own Postgres connection for production.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is using the default value, set your own domain for production.")
	}
	if cfg.LowStockRatio < 0 {
		log.Fatalf("[FATAL] LOW_STOCK_RATIO cannot be negative: %v", cfg.LowStockRatio)
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] invalid %s (%q), falling back to default: %v", key, v, def)
		return def
	}
	return b
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[WARN] invalid %s (%q), falling back to default: %v", key, v, def)
		return def
	}
	return f
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// Peer services.
	InventoryURL string
	UserURL      string

	// Transbank WebPay Plus.
	TransbankBaseURL      string
	TransbankCommerceCode string
	TransbankAPIKey       string

	// Service-to-service API key accepted by the middleware chain.
	ServiceAPIKey string

	// HMAC secret for bearer tokens issued by the user service.
	JWTSecret string

	// Post-processing pool.
	JobWorkers   int
	JobQueueSize int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    getenv("APP_PORT", "8081"),
		AppEnv:     os.Getenv("APP_ENV"),

		InventoryURL: getenv("INVENTORY_SERVICE_URL", "http://localhost:8082"),
		UserURL:      getenv("USER_SERVICE_URL", "http://localhost:8083"),

		TransbankBaseURL:      getenv("TRANSBANK_BASE_URL", "https://webpay3gint.transbank.cl"),
		TransbankCommerceCode: os.Getenv("TRANSBANK_COMMERCE_CODE"),
		TransbankAPIKey:       os.Getenv("TRANSBANK_API_KEY"),

		ServiceAPIKey: os.Getenv("SERVICE_API_KEY"),
		JWTSecret:     os.Getenv("SECRET_KEY"),

		JobWorkers:   getint("JOB_WORKERS", 2),
		JobQueueSize: getint("JOB_QUEUE_SIZE", 100),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

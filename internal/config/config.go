package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// Per-gateway signing secrets.
	RazorpayKeyID     string
	RazorpayKeySecret string
	PayUMerchantKey   string
	PayUMerchantSalt  string
	GatewayTimeout    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	ContactEmail string

	WorkerCount        int
	WorkerPollInterval time.Duration
	JobTimeout         time.Duration
	MaxJobAttempts     int
	RetryBaseInterval  time.Duration
	RetryMaxInterval   time.Duration
	StaleJobThreshold  time.Duration
	ReaperInterval     time.Duration

	StorageBackend string
	StorageDir     string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string

	RedisAddr     string
	RedisPassword string

	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "forge"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "forge"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RazorpayKeyID:     strings.TrimSpace(getenv("RAZORPAY_KEY_ID", "")),
		RazorpayKeySecret: strings.TrimSpace(getenv("RAZORPAY_KEY_SECRET", "")),
		PayUMerchantKey:   strings.TrimSpace(getenv("PAYU_MERCHANT_KEY", "")),
		PayUMerchantSalt:  strings.TrimSpace(getenv("PAYU_MERCHANT_SALT", "")),
		GatewayTimeout:    getenvDuration("GATEWAY_TIMEOUT", 10*time.Second),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "no-reply@angelforge.in"),
		ContactEmail: getenv("CONTACT_EMAIL", "support@angelforge.in"),

		WorkerCount:        getenvInt("WORKER_COUNT", 4),
		WorkerPollInterval: getenvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		JobTimeout:         getenvDuration("JOB_TIMEOUT", 30*time.Second),
		MaxJobAttempts:     getenvInt("MAX_JOB_ATTEMPTS", 5),
		RetryBaseInterval:  getenvDuration("RETRY_BASE_INTERVAL", 30*time.Second),
		RetryMaxInterval:   getenvDuration("RETRY_MAX_INTERVAL", 30*time.Minute),
		StaleJobThreshold:  getenvDuration("STALE_JOB_THRESHOLD", 10*time.Minute),
		ReaperInterval:     getenvDuration("REAPER_INTERVAL", time.Minute),

		StorageBackend: getenv("STORAGE_BACKEND", "local"),
		StorageDir:     getenv("STORAGE_DIR", "documents"),
		S3Bucket:       getenv("S3_BUCKET", ""),
		S3Region:       getenv("S3_REGION", "ap-south-1"),
		S3Endpoint:     getenv("S3_ENDPOINT", ""),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

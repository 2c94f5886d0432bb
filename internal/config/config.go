package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	InviteSecret string
	InviteExpiry time.Duration

	FrontendURL string
	BaseURL     string

	LogLevel string
	LogFile  string

	SMTP      SMTPConfig
	Queue     QueueConfig
	RateLimit RateLimitConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// QueueConfig selects the notification fan-out backend. With Redis disabled
// jobs run on an in-process worker pool.
type QueueConfig struct {
	Workers   int
	QueueSize int
	Redis     RedisConfig
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
	// TrustProxy keys clients on X-Forwarded-For; enable only behind a proxy that sets it.
	TrustProxy bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnvOrPanic("JWT_SECRET")
	inviteSecret := getEnvOrPanic("INVITE_JWT_SECRET")
	if inviteSecret == jwtSecret {
		return nil, fmt.Errorf("INVITE_JWT_SECRET must differ from JWT_SECRET")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        jwtSecret,
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		InviteSecret: inviteSecret,
		InviteExpiry: getDuration("INVITE_EXPIRY", 24*time.Hour),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},

		Queue: QueueConfig{
			Workers:   getInt("FANOUT_WORKERS", 4),
			QueueSize: getInt("FANOUT_QUEUE_SIZE", 1024),
			Redis: RedisConfig{
				Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getInt("REDIS_DB", 0),
			},
		},

		RateLimit: RateLimitConfig{
			RPS:   getFloat("RATE_LIMIT_RPS", 5),
			Burst: getInt("RATE_LIMIT_BURST", 20),

			TrustProxy: getEnv("RATE_LIMIT_TRUST_PROXY", "false") == "true",
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return f
}

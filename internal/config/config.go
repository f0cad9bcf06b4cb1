package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	CORSOrigins  []string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	JWTSecret    string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	SessionIdle  time.Duration
	SweepEvery   time.Duration
}

// Load reads .env when present, then the environment. Every value has a
// development fallback so the server starts with no configuration.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "tuiz"),
		JWTSecret:   getEnv("JWT_SECRET", "super-secret-key-change-me"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		SessionIdle: time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,
		SweepEvery:  time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

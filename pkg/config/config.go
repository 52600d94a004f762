package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Storage   StorageConfig
	Badger    BadgerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Analytics AnalyticsConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
	SeedDemo    bool
}

type ServerConfig struct {
	Port      string
	RateLimit float64
}

type StorageConfig struct {
	Backend   string
	Namespace string
}

type BadgerConfig struct {
	Path     string
	InMemory bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type JWTConfig struct {
	SecretKey string
}

// AdminConfig KeyHash is the bcrypt hash of the operator key.
type AdminConfig struct {
	KeyHash string
}

// AnalyticsConfig RecomputeInterval of 0 disables the cohort recompute loop.
type AnalyticsConfig struct {
	RecomputeInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	rateLimit, err := strconv.ParseFloat(getEnv("RATE_LIMIT", "20"), 64)
	if err != nil {
		return nil, errors.New("invalid rate limit")
	}

	recompute, err := time.ParseDuration(getEnv("ANALYTICS_RECOMPUTE_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid analytics recompute interval: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "myLearnCore"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			SeedDemo:    getEnv("SEED_DEMO_EXPERIMENTS", "true") == "true",
		},
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			RateLimit: rateLimit,
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", BackendMemory),
			Namespace: getEnv("STORAGE_NAMESPACE", ""),
		},
		Badger: BadgerConfig{
			Path:     getEnv("BADGER_PATH", "./data/badger"),
			InMemory: getEnv("BADGER_IN_MEMORY", "false") == "true",
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "my_learn_core"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Admin: AdminConfig{
			KeyHash: getEnv("ADMIN_KEY_HASH", ""),
		},
		Analytics: AnalyticsConfig{
			RecomputeInterval: recompute,
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	switch cfg.Storage.Backend {
	case BackendMemory, BackendBadger, BackendRedis:
	case BackendPostgres:
		if cfg.Database.Password == "" {
			return nil, errors.New("missing database password")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(val)
}

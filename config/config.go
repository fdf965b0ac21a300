package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once from the environment and shared by serve/migrate/seed.
type Config struct {
	Port      string
	WebOrigin string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr string
	RedisPwd  string

	SessionTTL time.Duration
	FlowTTL    time.Duration

	StorageDriver string // local | s3
	StorageRoot   string
	StorageURL    string
	S3Bucket      string
	S3Region      string
	S3Key         string
	S3Secret      string
	S3Endpoint    string

	CatalogPath string

	BootstrapEmail string
}

// LoadEnv loads .env if present. Missing file is fine in production.
func LoadEnv() {
	_ = godotenv.Load()
}

func Load() Config {
	LoadEnv()
	return Config{
		Port:      get("PORT", "3001"),
		WebOrigin: get("WEB_ORIGIN", "http://localhost:5173"),

		DBHost:     get("DB_HOST", "127.0.0.1"),
		DBPort:     get("DB_PORT", "5432"),
		DBUser:     get("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     get("DB_NAME", "protolab"),

		RedisAddr: get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:  os.Getenv("REDIS_PASSWORD"),

		SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
		FlowTTL:    getDuration("CHECKOUT_FLOW_TTL", 30*time.Minute),

		StorageDriver: get("STORAGE_DRIVER", "local"),
		StorageRoot:   get("STORAGE_LOCAL_ROOT", "storage"),
		StorageURL:    strings.TrimRight(get("STORAGE_URL", ""), "/"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      get("S3_REGION", "us-east-1"),
		S3Key:         os.Getenv("S3_KEY"),
		S3Secret:      os.Getenv("S3_SECRET"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),

		CatalogPath: get("CATALOG_PATH", "catalog.json"),

		BootstrapEmail: os.Getenv("BOOTSTRAP_EMAIL"),
	}
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

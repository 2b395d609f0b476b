package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	BlobLocal = "local"
	BlobOSS   = "oss"
)

type Config struct {
	Addr               string
	Environment        string
	DocstoreDriver     string
	DatabaseURL        string
	MongoURL           string
	MongoDatabase      string
	MigrationsDir      string
	RunMigrations      bool
	RunSeed            bool
	SeedCompanyName    string
	SeedAdminEmail     string
	SeedAdminPassword  string
	JWTSecret          string
	TokenTTL           time.Duration
	DataEncryptionKey  string
	BlobDriver         string
	BlobLocalDir       string
	OSSEndpoint        string
	OSSAccessKey       string
	OSSSecretKey       string
	OSSBucket          string
	PhotoMaxPixels     int
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	AuditRetentionDays int
	RetentionInterval  time.Duration
	ImportBatchSize    int
	DefaultLocale      string
}

// Load reads the process environment, after merging a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv load failed", "err", err)
	}
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		DocstoreDriver:     strings.ToLower(getEnv("DOCSTORE_DRIVER", DriverPostgres)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MongoURL:           getEnv("MONGO_URL", ""),
		MongoDatabase:      getEnv("MONGO_DATABASE", "perfeval"),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		SeedCompanyName:    getEnv("SEED_COMPANY_NAME", "Empresa Padrão"),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 8*time.Hour),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		BlobDriver:         strings.ToLower(getEnv("BLOB_DRIVER", BlobLocal)),
		BlobLocalDir:       getEnv("BLOB_LOCAL_DIR", "storage/blobs"),
		OSSEndpoint:        getEnv("OSS_ENDPOINT", ""),
		OSSAccessKey:       getEnv("OSS_ACCESS_KEY", ""),
		OSSSecretKey:       getEnv("OSS_SECRET_KEY", ""),
		OSSBucket:          getEnv("OSS_BUCKET", ""),
		PhotoMaxPixels:     getEnvInt("PHOTO_MAX_PIXELS", 512),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 5*1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		AuditRetentionDays: getEnvInt("AUDIT_RETENTION_DAYS", 0),
		RetentionInterval:  getEnvDuration("RETENTION_INTERVAL", 24*time.Hour),
		ImportBatchSize:    getEnvInt("IMPORT_BATCH_SIZE", 400),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "pt-BR"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	switch c.DocstoreDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverMongo:
		if strings.TrimSpace(c.MongoURL) == "" {
			return fmt.Errorf("MONGO_URL is required for the mongo driver")
		}
	case DriverMemory:
		if c.Environment == "production" {
			return fmt.Errorf("DOCSTORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown DOCSTORE_DRIVER %q", c.DocstoreDriver)
	}
	switch c.BlobDriver {
	case BlobLocal:
	case BlobOSS:
		if c.OSSEndpoint == "" || c.OSSAccessKey == "" || c.OSSSecretKey == "" || c.OSSBucket == "" {
			return fmt.Errorf("OSS_ENDPOINT, OSS_ACCESS_KEY, OSS_SECRET_KEY and OSS_BUCKET are required for BLOB_DRIVER=oss")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver)
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.ImportBatchSize <= 0 || c.ImportBatchSize > 500 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be between 1 and 500")
	}
	if c.AuditRetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative")
	}
	return nil
}

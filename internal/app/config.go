package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/fitprint-backend/internal/data/db"
	"github.com/yungbote/fitprint-backend/internal/http/handlers"
	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
	"github.com/yungbote/fitprint-backend/internal/platform/envutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type StoreBackend string

const (
	StorePostgres StoreBackend = "postgres"
	StoreSQLite   StoreBackend = "sqlite"
	StoreRedis    StoreBackend = "redis"
)

const (
	BrandIdentifierLLM    = "llm"
	BrandIdentifierVision = "vision"
)

type Config struct {
	Port        string
	LogMode     string
	ServiceName string
	Environment string
	Version     string

	StoreBackend  StoreBackend
	Postgres      db.PostgresConfig
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	ObjectStorageMode   string
	StorageEmulatorHost string
	OutfitBucketName    string
	OutfitCDNDomain     string
	PublicBaseURL       string
	S3BucketName        string
	S3Region            string
	S3Endpoint          string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	StrictImageStorage  bool

	BrandIdentifier    string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	OpenAIVisionModel  string
	SearchAPIKey       string
	SearchEngineID     string
	SearchRatePerSec   float64
	AlternativesPolicy analysis.AlternativesPolicy
	RetailFilterPath   string

	Timeouts        analysis.Timeouts
	MaxUploadBytes  int64
	MetricsEnabled  bool
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

func LoadConfig(log *logger.Logger) (Config, error) {
	def := analysis.DefaultTimeouts()
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "fitprint-api"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		StoreBackend: StoreBackend(strings.ToLower(envutil.String("STORE_BACKEND", string(StorePostgres)))),
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "fitprint"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		SQLitePath:    envutil.String("SQLITE_PATH", "fitprint.db"),
		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		RedisPrefix:   envutil.String("REDIS_PREFIX", "fitprint"),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		OutfitBucketName:    envutil.String("OUTFIT_GCS_BUCKET_NAME", ""),
		OutfitCDNDomain:     envutil.String("OUTFIT_CDN_DOMAIN", ""),
		PublicBaseURL:       envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),
		S3BucketName:        envutil.String("S3_BUCKET_NAME", ""),
		S3Region:            envutil.String("S3_REGION", "us-east-1"),
		S3Endpoint:          envutil.String("S3_ENDPOINT_URL", ""),
		AWSAccessKeyID:      envutil.String("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  envutil.String("AWS_SECRET_ACCESS_KEY", ""),
		StrictImageStorage:  envutil.Bool("STRICT_IMAGE_STORAGE", false),

		BrandIdentifier:   strings.ToLower(envutil.String("BRAND_IDENTIFIER", BrandIdentifierLLM)),
		OpenAIAPIKey:      envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:       envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIVisionModel: envutil.String("OPENAI_VISION_MODEL", ""),
		SearchAPIKey:      envutil.String("GOOGLE_SEARCH_API_KEY", ""),
		SearchEngineID:    envutil.String("GOOGLE_SEARCH_ENGINE_ID", ""),
		SearchRatePerSec:  envutil.Float("SEARCH_RATE_PER_SECOND", 5),
		RetailFilterPath:  envutil.String("RETAIL_FILTER_PATH", ""),

		Timeouts: analysis.Timeouts{
			Intake:       envutil.Duration("STAGE_TIMEOUT_INTAKE", def.Intake),
			Identify:     envutil.Duration("STAGE_TIMEOUT_IDENTIFY", def.Identify),
			Report:       envutil.Duration("STAGE_TIMEOUT_REPORT", def.Report),
			Alternatives: envutil.Duration("STAGE_TIMEOUT_ALTERNATIVES", def.Alternatives),
			StoreWrite:   envutil.Duration("STAGE_TIMEOUT_STORE_WRITE", def.StoreWrite),
		},
		MaxUploadBytes:  envutil.Int64("MAX_UPLOAD_BYTES", handlers.DefaultMaxUploadBytes),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", true),
		CORSOrigins:     splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	policy, err := analysis.ParseAlternativesPolicy(envutil.String("ALTERNATIVES_POLICY", ""))
	if err != nil {
		return cfg, err
	}
	cfg.AlternativesPolicy = policy

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if log != nil {
		log.Info("Configuration loaded",
			"store_backend", cfg.StoreBackend,
			"object_storage_mode", cfg.ObjectStorageMode,
			"brand_identifier", cfg.BrandIdentifier,
			"alternatives_policy", cfg.AlternativesPolicy,
			"strict_image_storage", cfg.StrictImageStorage,
		)
	}
	return cfg, nil
}

// Validate checks the enumerated settings. Credentials are checked when the
// clients that need them are built.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres, StoreSQLite:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND=%q (allowed: postgres, sqlite, redis)", c.StoreBackend)
	}
	switch c.BrandIdentifier {
	case BrandIdentifierLLM, BrandIdentifierVision:
	default:
		return fmt.Errorf("invalid BRAND_IDENTIFIER=%q (allowed: llm, vision)", c.BrandIdentifier)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envLogMode() string { return envutil.String("LOG_MODE", "development") }

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 15 * time.Second
	}
	return c.ShutdownTimeout
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/meterforecast/backend/internal/domain"
	"github.com/meterforecast/backend/internal/features"
)

// Profile and model sources
const (
	ProfileSourceFile     = "file"
	ProfileSourcePostgres = "postgres"

	ModelSourceDir     = "dir"
	ModelSourceS3      = "s3"
	ModelSourceServing = "serving"
)

// Config holds everything the service needs at startup
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	CORSOrigins string

	Timesteps    int
	FeatureOrder []string
	IndexColumn  string

	HolidayCalendarPath string
	DirectoryPath       string

	ProfileSource       string
	ScalingProfilesPath string

	ModelSource       string
	ModelDir          string
	ModelServingURL   string
	ModelCacheEnabled bool
	S3                S3Config

	FetchTimeout   time.Duration
	PredictTimeout time.Duration
}

// S3Config locates model artifacts in object storage
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from environment variables
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("GO_ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		Timesteps:    getInt("TIMESTEPS", features.DefaultTimesteps),
		FeatureOrder: getList("FEATURE_ORDER", domain.DefaultFeatureOrder),
		IndexColumn:  getEnv("CSV_INDEX_COLUMN", "captured_on_h"),

		HolidayCalendarPath: getEnv("HOLIDAY_CALENDAR_PATH", "za_public_holidays_1990_2030.csv"),
		DirectoryPath:       getEnv("DIRECTORY_PATH", "ids.json"),

		ProfileSource:       getEnv("PROFILE_SOURCE", ProfileSourceFile),
		ScalingProfilesPath: getEnv("SCALING_PROFILES_PATH", "scaling_params.json"),

		ModelSource:       getEnv("MODEL_SOURCE", ModelSourceDir),
		ModelDir:          getEnv("MODEL_DIR", "lstm_models"),
		ModelServingURL:   strings.TrimRight(getEnv("MODEL_SERVING_URL", "http://localhost:8501"), "/"),
		ModelCacheEnabled: getBool("MODEL_CACHE_ENABLED", true),
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			Prefix:    getEnv("S3_PREFIX", "lstm_models"),
			UseSSL:    getBool("S3_USE_SSL", false),
		},

		FetchTimeout:   getDuration("FETCH_TIMEOUT", 30*time.Second),
		PredictTimeout: getDuration("PREDICT_TIMEOUT", 60*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	if c.Timesteps < 1 {
		return fmt.Errorf("TIMESTEPS must be positive, got %d", c.Timesteps)
	}
	if len(c.FeatureOrder) == 0 {
		return fmt.Errorf("FEATURE_ORDER must not be empty")
	}

	switch c.ProfileSource {
	case ProfileSourceFile:
		if c.ScalingProfilesPath == "" {
			return fmt.Errorf("SCALING_PROFILES_PATH is required for file profiles")
		}
	case ProfileSourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres profiles")
		}
	default:
		return fmt.Errorf("unsupported PROFILE_SOURCE %q", c.ProfileSource)
	}

	switch c.ModelSource {
	case ModelSourceDir:
		if c.ModelDir == "" {
			return fmt.Errorf("MODEL_DIR is required for dir models")
		}
	case ModelSourceS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required for s3 models")
		}
	case ModelSourceServing:
		if c.ModelServingURL == "" {
			return fmt.Errorf("MODEL_SERVING_URL is required for serving models")
		}
	default:
		return fmt.Errorf("unsupported MODEL_SOURCE %q", c.ModelSource)
	}

	if c.HolidayCalendarPath == "" {
		return fmt.Errorf("HOLIDAY_CALENDAR_PATH is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s=%q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Invalid boolean for %s=%q, using default %t", key, value, defaultValue)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s=%q, using default %s", key, value, defaultValue)
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

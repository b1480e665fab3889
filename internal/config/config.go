// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBigQuery = "bigquery"
	StorePostgres = "postgres"
)

// AI providers used for re-extraction.
const (
	AIProviderGemini = "gemini"
	AIProviderOpenAI = "openai"
	AIProviderNone   = "none"
)

// Defaults applied when the environment leaves a key unset.
const (
	DefaultPort         = "8080"
	DefaultProjectID    = "invoice-tracker"
	DefaultDataset      = "invoices"
	DefaultOCRLanguage  = "hu"
	DefaultGeminiModel  = "gemini-2.5-flash"
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultWorkerCount  = 5
	DefaultQueueSize    = 100
	DefaultMaxRetries   = 3
	DefaultJobRetention = 24 * time.Hour
	DefaultJobTimeout   = 10 * time.Minute
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultUserID       = "office"
)

// Config holds every environment-driven setting shared by the binaries.
type Config struct {
	Port         string
	APIToken     string
	GCSBucket    string
	ProjectID    string
	Dataset      string
	StoreBackend string
	DatabaseURL  string
	UserID       string

	AzureOCREndpoint string
	AzureOCRKey      string
	OCRLanguage      string

	AIProvider   string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	WorkerCount  int
	QueueSize    int
	MaxRetries   int
	JobRetention time.Duration
	JobTimeout   time.Duration

	LogLevel  string
	LogFormat string

	NotionToken      string
	NotionDatabaseID string
}

// Load reads .env (if present) and then the process environment. Values
// already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Load: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		APIToken:         os.Getenv("API_TOKEN"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
		ProjectID:        getEnv("GCP_PROJECT_ID", DefaultProjectID),
		Dataset:          getEnv("BQ_DATASET", DefaultDataset),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", StoreBigQuery)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		UserID:           getEnv("USER_ID", DefaultUserID),
		AzureOCREndpoint: os.Getenv("AZURE_OCR_ENDPOINT"),
		AzureOCRKey:      os.Getenv("AZURE_OCR_KEY"),
		OCRLanguage:      getEnv("OCR_LANGUAGE", DefaultOCRLanguage),
		AIProvider:       strings.ToLower(getEnv("AI_PROVIDER", AIProviderGemini)),
		GeminiModel:      getEnv("GEMINI_MODEL", DefaultGeminiModel),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		WorkerCount:      parseIntEnv("WORKER_COUNT", DefaultWorkerCount),
		QueueSize:        parseIntEnv("QUEUE_SIZE", DefaultQueueSize),
		MaxRetries:       parseIntEnv("JOB_MAX_RETRIES", DefaultMaxRetries),
		JobRetention:     parseDurationEnv("JOB_RETENTION", DefaultJobRetention),
		JobTimeout:       parseDurationEnv("JOB_TIMEOUT", DefaultJobTimeout),
		LogLevel:         getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:        getEnv("LOG_FORMAT", DefaultLogFormat),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and the settings each backend needs.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBigQuery:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("Validate: STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("Validate: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AIProvider {
	case AIProviderGemini, AIProviderNone:
	case AIProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("Validate: AI_PROVIDER=openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("Validate: unknown AI_PROVIDER %q", c.AIProvider)
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("Validate: WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	if c.JobRetention <= 0 {
		return fmt.Errorf("Validate: JOB_RETENTION must be positive, got %s", c.JobRetention)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("Validate: QUEUE_SIZE must be positive, got %d", c.QueueSize)
	}
	return nil
}

// OCREnabled reports whether Azure OCR credentials are configured.
func (c *Config) OCREnabled() bool {
	return c.AzureOCREndpoint != "" && c.AzureOCRKey != ""
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

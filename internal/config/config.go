package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	Providers        []string
	ProviderPriority []string
	ProviderTimeout  time.Duration

	RateLimit       int
	RateLimitWindow time.Duration
	MaxRetries      int
	RetryBaseDelay  time.Duration
	RequestDeadline time.Duration

	EventSink   string
	SQSQueueURL string

	AuditTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	providers := splitAndTrim(getEnv("ANALYSIS_PROVIDERS", "vislabel,openai-vision,claude-vision"))
	priority := splitAndTrim(getEnv("ANALYSIS_PROVIDER_PRIORITY", ""))
	if len(priority) == 0 {
		priority = providers
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		Providers:        providers,
		ProviderPriority: priority,
		ProviderTimeout:  getEnvDuration("PROVIDER_TIMEOUT", 60*time.Second),

		RateLimit:       getEnvInt("PROVIDER_RATE_LIMIT", 30),
		RateLimitWindow: getEnvDuration("PROVIDER_RATE_WINDOW", time.Minute),
		MaxRetries:      getEnvInt("PROVIDER_MAX_RETRIES", 3),
		RetryBaseDelay:  getEnvDuration("PROVIDER_RETRY_BASE_DELAY", 300*time.Millisecond),
		RequestDeadline: getEnvDuration("ANALYSIS_DEADLINE", 90*time.Second),

		EventSink:   normalizeEventSink(getEnv("EVENT_SINK", "log")),
		SQSQueueURL: getEnv("EVENTS_SQS_QUEUE_URL", ""),

		AuditTTL: getEnvDuration("ANALYSIS_AUDIT_TTL", 30*24*time.Hour),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeEventSink(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	default:
		return "log"
	}
}

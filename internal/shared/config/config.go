package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultLLMModel       = "gpt-4o"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string
	JWTSecret       string

	StagingDir     string
	MaxUploadBytes int64

	ArchiveStore   string
	AWSRegion      string
	S3Bucket       string
	S3Prefix       string
	SSEKMSKeyID    string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIORegion    string
	MinIOUseSSL    bool

	OpenAIAPIKey           string
	LLMBaseURL             string
	LLMModel               string
	LLMTimeout             time.Duration
	LLMAnalysisMaxTokens   int
	LLMAnalysisTemperature float32
	LLMRevisionMaxTokens   int
	LLMRevisionTemperature float32
	InferenceRatePerMinute float64
	InferenceBurst         int
}

// Load reads configuration from environment variables with sensible defaults.
// Values from the optional CONFIG_FILE act as defaults that the environment overrides.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	file, err := loadFileConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Printf("config: ignoring CONFIG_FILE: %v", err)
		file = fileConfig{}
	}

	env := normalizeEnv(getEnv("ENV", orDefault(file.Env, "dev")))
	dbURL := getEnv("DATABASE_URL", file.DatabaseURL)
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if !IsDevLike(env) && getEnv("JWT_SECRET", file.JWTSecret) == "" {
		log.Printf("JWT_SECRET is required outside dev environments")
	}

	return Config{
		Port:            getEnv("PORT", orDefault(file.Port, "8080")),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", orDefault(strings.Join(file.CORSAllowOrigins, ","), "http://localhost:3000"))),
		DatabaseURL:     dbURL,
		JWTSecret:       getEnv("JWT_SECRET", file.JWTSecret),

		StagingDir:     getEnv("STAGING_DIR", orDefault(file.StagingDir, os.TempDir()+"/report-staging")),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", orDefaultInt64(file.MaxUploadBytes, defaultMaxUploadBytes)),

		ArchiveStore:   normalizeArchiveStore(getEnv("ARCHIVE_STORE", file.Archive.Store)),
		AWSRegion:      getEnv("AWS_REGION", file.Archive.S3.Region),
		S3Bucket:       getEnv("S3_BUCKET", file.Archive.S3.Bucket),
		S3Prefix:       getEnv("S3_PREFIX", file.Archive.S3.Prefix),
		SSEKMSKeyID:    getEnv("SSE_KMS_KEY_ID", file.Archive.S3.KMSKeyID),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", file.Archive.MinIO.Endpoint),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", file.Archive.MinIO.AccessKey),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", file.Archive.MinIO.SecretKey),
		MinIOBucket:    getEnv("MINIO_BUCKET", file.Archive.MinIO.Bucket),
		MinIORegion:    getEnv("MINIO_REGION", file.Archive.MinIO.Region),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", file.Archive.MinIO.UseSSL),

		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		LLMBaseURL:             getEnv("LLM_BASE_URL", file.LLM.BaseURL),
		LLMModel:               getEnv("LLM_MODEL", orDefault(file.LLM.Model, defaultLLMModel)),
		LLMTimeout:             time.Duration(getEnvInt64("LLM_TIMEOUT_SECONDS", orDefaultInt64(file.LLM.TimeoutSeconds, 120))) * time.Second,
		LLMAnalysisMaxTokens:   int(getEnvInt64("LLM_ANALYSIS_MAX_TOKENS", orDefaultInt64(int64(file.LLM.Analysis.MaxTokens), 6000))),
		LLMAnalysisTemperature: getEnvFloat32("LLM_ANALYSIS_TEMPERATURE", orDefaultFloat32(file.LLM.Analysis.Temperature, 0.7)),
		LLMRevisionMaxTokens:   int(getEnvInt64("LLM_REVISION_MAX_TOKENS", orDefaultInt64(int64(file.LLM.Revision.MaxTokens), 2000))),
		LLMRevisionTemperature: getEnvFloat32("LLM_REVISION_TEMPERATURE", orDefaultFloat32(file.LLM.Revision.Temperature, 0.5)),
		InferenceRatePerMinute: float64(getEnvFloat32("INFERENCE_RATE_PER_MINUTE", orDefaultFloat32(file.RateLimit.PerMinute, 10))),
		InferenceBurst:         int(getEnvInt64("INFERENCE_BURST", orDefaultInt64(int64(file.RateLimit.Burst), 5))),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat32(key string, def float32) float32 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 32)
	if err != nil || val < 0 {
		log.Printf("config: %s invalid float %q, using %v", key, raw, def)
		return def
	}
	return float32(val)
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func orDefault(val, def string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func orDefaultInt64(val, def int64) int64 {
	if val > 0 {
		return val
	}
	return def
}

func orDefaultFloat32(val *float32, def float32) float32 {
	if val != nil && *val >= 0 {
		return *val
	}
	return def
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

func normalizeArchiveStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "none"
	}
}

// IsDevLike reports whether env relaxes production requirements.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

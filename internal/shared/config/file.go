package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML file. Zero values mean "not set".
type fileConfig struct {
	Port             string   `yaml:"port"`
	Env              string   `yaml:"env"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	DatabaseURL      string   `yaml:"database_url"`
	JWTSecret        string   `yaml:"jwt_secret"`
	StagingDir       string   `yaml:"staging_dir"`
	MaxUploadBytes   int64    `yaml:"max_upload_bytes"`

	Archive struct {
		Store string `yaml:"store"`
		S3    struct {
			Region   string `yaml:"region"`
			Bucket   string `yaml:"bucket"`
			Prefix   string `yaml:"prefix"`
			KMSKeyID string `yaml:"kms_key_id"`
		} `yaml:"s3"`
		MinIO struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			Bucket    string `yaml:"bucket"`
			Region    string `yaml:"region"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"minio"`
	} `yaml:"archive"`

	LLM struct {
		BaseURL        string       `yaml:"base_url"`
		Model          string       `yaml:"model"`
		TimeoutSeconds int64        `yaml:"timeout_seconds"`
		Analysis       fileLLMParam `yaml:"analysis"`
		Revision       fileLLMParam `yaml:"revision"`
	} `yaml:"llm"`

	RateLimit struct {
		PerMinute *float32 `yaml:"inference_per_minute"`
		Burst     int      `yaml:"burst"`
	} `yaml:"rate_limit"`
}

type fileLLMParam struct {
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

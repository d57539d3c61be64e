package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the explicit, immutable option set the process runs with. The
// environment is read exactly once, here; nothing downstream consults it.
type Config struct {
	Port string
	Env  string

	// Storage: Postgres when DSN is set, embedded sqlite otherwise.
	DatabaseDSN string
	SQLitePath  string

	LLM      LLMConfig
	Pipeline PipelineConfig
	Artifact ArtifactConfig

	Workers     int
	MarkersPath string // optional YAML taxonomy marker table
}

type LLMConfig struct {
	Provider string // "gemini" or "fake"
	APIKey   string
	Model    string
	RPS      float64
	Burst    int
}

type PipelineConfig struct {
	RetryMax     int
	RetryBase    time.Duration
	Language     string
	PreviewLimit int
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads the environment exactly once. Flag handling stays in main.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := ":8080"
	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			port = envPort
		} else {
			port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cfg := &Config{
		Port:        port,
		Env:         env,
		DatabaseDSN: strings.TrimSpace(os.Getenv("DATABASE_DSN")),
		SQLitePath:  firstNonEmpty(strings.TrimSpace(os.Getenv("SQLITE_PATH")), "repowiki.db"),
		LLM: LLMConfig{
			Provider: firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "gemini"),
			APIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:    firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash"),
			RPS:      envFloat("LLM_RPS", 0),
			Burst:    envInt("LLM_BURST", 0),
		},
		Pipeline: PipelineConfig{
			RetryMax:     envInt("PIPELINE_RETRY_MAX", 3),
			RetryBase:    envDuration("PIPELINE_RETRY_BASE", 500*time.Millisecond),
			Language:     strings.TrimSpace(os.Getenv("PIPELINE_LANGUAGE")),
			PreviewLimit: envInt("PIPELINE_PREVIEW_LIMIT", 32*1024),
		},
		Artifact:    loadArtifactConfig(),
		Workers:     envInt("WORKERS", 2),
		MarkersPath: strings.TrimSpace(os.Getenv("MARKERS_PATH")),
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1")
	}
	return cfg, nil
}

func loadArtifactConfig() ArtifactConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "repowiki-docs"),
		UseSSL:    envBool("ARTIFACT_S3_USE_SSL", false),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide pipeline configuration, loaded once and passed
// explicitly into construction. No component reads ambient globals.
type Config struct {
	// Model is the generation model identifier; empty disables the model
	// path and every enhancement uses the local fallback.
	Model      string
	LLMTimeout time.Duration
	// RetryAttempts bounds transient model-call retries.
	RetryAttempts int

	ProjectRoot string
	MaxFiles    int
	MaxTokens   int
	IgnoreGlobs []string

	// StoreDSN selects the postgres store backend; StorePath is the file
	// fallback.
	StoreDSN  string
	StorePath string

	// TracePath is the JSONL trace log destination; empty disables tracing.
	TracePath string

	Artifact ArtifactConfig
}

// ArtifactConfig configures the optional exported-artifact store.
type ArtifactConfig struct {
	// Dir enables the local-directory backend.
	Dir string
	// Endpoint enables the S3 backend when Dir is unset.
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads configuration from a .env file (if present) and the
// environment. Every value has a workable default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Model:         strings.TrimSpace(os.Getenv("PROMPTFORGE_MODEL")),
		LLMTimeout:    durationEnv("PROMPTFORGE_LLM_TIMEOUT", 30*time.Second),
		RetryAttempts: intEnv("PROMPTFORGE_LLM_RETRIES", 2),
		ProjectRoot:   strings.TrimSpace(os.Getenv("PROMPTFORGE_PROJECT_ROOT")),
		MaxFiles:      intEnv("PROMPTFORGE_MAX_FILES", 20),
		MaxTokens:     intEnv("PROMPTFORGE_MAX_TOKENS", 4000),
		StoreDSN:      strings.TrimSpace(os.Getenv("PROMPTFORGE_PG_DSN")),
		StorePath:     firstNonEmpty(os.Getenv("PROMPTFORGE_STORE_PATH"), "tmp/prompts.json"),
		TracePath:     strings.TrimSpace(os.Getenv("PROMPTFORGE_TRACE_LOG")),
		Artifact:      loadArtifactConfig(),
	}
	if globs := strings.TrimSpace(os.Getenv("PROMPTFORGE_IGNORE_GLOBS")); globs != "" {
		for _, g := range strings.Split(globs, ",") {
			if g = strings.TrimSpace(g); g != "" {
				cfg.IgnoreGlobs = append(cfg.IgnoreGlobs, g)
			}
		}
	}
	return cfg, nil
}

func loadArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		Dir:       strings.TrimSpace(os.Getenv("PROMPTFORGE_ARTIFACT_DIR")),
		Endpoint:  strings.TrimSpace(os.Getenv("PROMPTFORGE_S3_ENDPOINT")),
		Region:    firstNonEmpty(os.Getenv("PROMPTFORGE_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(os.Getenv("PROMPTFORGE_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(os.Getenv("PROMPTFORGE_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(os.Getenv("PROMPTFORGE_S3_BUCKET"), "promptforge-artifacts"),
		UseSSL:    boolEnv("PROMPTFORGE_S3_USE_SSL", true),
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func boolEnv(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Package config loads gateway settings from flags and the environment,
// with a .env file picked up for local development.
package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	Gemini   GeminiConfig
	Keyword  KeywordConfig
	SpecDB   SpecDBConfig
	Search   SearchConfig
	Artifact ArtifactConfig
}

// GeminiConfig selects the models and throttling for vision calls.
type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	RPS        float64
	Burst      int
}

// KeywordConfig points at the product-bank autosuggest endpoint.
type KeywordConfig struct {
	BaseURL string
}

// SpecDBConfig points at the spec-mapping Postgres instance. An empty
// DSN disables template lookups; AI-generated templates still work.
type SpecDBConfig struct {
	DSN string
}

// SearchConfig carries Custom Search credentials for brand research.
// Missing credentials degrade research to empty summaries.
type SearchConfig struct {
	APIKey string
	CSEID  string
}

// ArtifactConfig configures the S3-compatible export store.
type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	gemini := GeminiConfig{
		APIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		TextModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL")), "gemini-2.5-flash"),
		ImageModel: firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_IMAGE_MODEL")), "gemini-2.5-flash-image-preview"),
		RPS:        envFloat("GEMINI_RPS", 1),
		Burst:      int(envFloat("GEMINI_BURST", 2)),
	}
	if gemini.APIKey == "" {
		return nil, errors.New("config: GEMINI_API_KEY is required")
	}

	return &Config{
		Port:   *port,
		Env:    env,
		Gemini: gemini,
		Keyword: KeywordConfig{
			BaseURL: firstNonEmpty(strings.TrimSpace(os.Getenv("KEYWORD_API_URL")),
				"http://192.168.8.220:8081/productBank_autosuggest.php"),
		},
		SpecDB: SpecDBConfig{
			DSN: strings.TrimSpace(os.Getenv("SPEC_DB_DSN")),
		},
		Search: SearchConfig{
			APIKey: strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_API_KEY")),
			CSEID:  strings.TrimSpace(os.Getenv("GOOGLE_CSE_ID")),
		},
		Artifact: loadArtifactConfig(env),
	}, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "catalog-exports"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

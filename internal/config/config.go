package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Vector store backend: qdrant, pgvector, or memory
	StoreBackend string `envconfig:"STORE_BACKEND" default:"qdrant"`

	QdrantURL        string `envconfig:"QDRANT_URL" default:"http://localhost:6333"`
	QdrantAPIKey     string `envconfig:"QDRANT_API_KEY"`
	QdrantCollection string `envconfig:"QDRANT_COLLECTION" default:"code_chunks"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Embedding backend: openai or ollama
	EmbedBackend         string `envconfig:"EMBED_BACKEND" default:"ollama"`
	EmbedModel           string `envconfig:"EMBED_MODEL"`
	EmbedDimensions      int    `envconfig:"EMBED_DIMENSIONS" default:"0"`
	EmbedBatchSize       int    `envconfig:"EMBED_BATCH_SIZE" default:"32"`
	EmbedCacheDir        string `envconfig:"EMBED_CACHE_DIR" default:".seekr/cache"`
	EmbedCacheMaxEntries int    `envconfig:"EMBED_CACHE_MAX_ENTRIES" default:"100000"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	GroqAPIKey   string `envconfig:"GROQ_API_KEY"`
	OllamaURL    string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel  string `envconfig:"OLLAMA_MODEL" default:"llama3.1"`

	// Generation provider selection
	ProcessingMode    string `envconfig:"PROCESSING_MODE" default:"auto"`
	PreferredProvider string `envconfig:"PREFERRED_PROVIDER"`

	MaxChunkSize int `envconfig:"MAX_CHUNK_SIZE" default:"1500"`

	WorkspaceRoot string `envconfig:"WORKSPACE_ROOT" default:"."`

	IndexWorkers int `envconfig:"INDEX_WORKERS" default:"4"`

	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"5m"`
	SweepInterval      time.Duration `envconfig:"SWEEP_INTERVAL" default:"60s"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"8s"`
	GenerateTimeout    time.Duration `envconfig:"GENERATE_TIMEOUT" default:"120s"`

	// Optional S3 mirror for embedding-cache snapshots
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"seekr-cache"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SEEKR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasGroq() bool {
	return c.GroqAPIKey != ""
}

func (c *Config) HasPostgres() bool {
	return c.DatabaseURL != ""
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Collection  string

	AIAPIKey   string
	EmbedModel string
	GenModel   string

	DocsDir      string
	OCRLanguages []string
	OCRWorkers   int
	ForceOCR     bool
	ForceReload  bool

	TargetChunkChars  int
	ChunkCharOverlap  int
	MaxTokensPerChunk int
	MinDigitalChars   int
	EmbedBatchSize    int

	TopK            int
	MaxContextChars int

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	BucketPrefix string

	Port string
}

// LoadConfig loads the environment variables and returns the config.
// Missing required values abort the run before any document is touched.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Collection:  getEnv("COLLECTION_NAME", "hr_documents_ocr_production_v1"),

		AIAPIKey:   getEnv("GEMINI_API_KEY", ""),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-004"),
		GenModel:   getEnv("GEN_MODEL", "gemini-1.5-flash"),

		DocsDir:      getEnv("HR_DOCS_DIR", "./HR"),
		OCRLanguages: splitLanguages(getEnv("OCR_LANGUAGES", "spa+eng")),
		OCRWorkers:   getEnvInt("OCR_WORKERS", 4),
		ForceOCR:     getEnvBool("FORCE_OCR_ALL_PDFS", false),
		ForceReload:  getEnvBool("FORCE_REPROCESS_ALL", false),

		TargetChunkChars:  getEnvInt("TARGET_CHUNK_CHAR_SIZE", 1500),
		ChunkCharOverlap:  getEnvInt("CHUNK_CHAR_OVERLAP", 300),
		MaxTokensPerChunk: getEnvInt("MAX_TOKENS_PER_CHUNK", 8000),
		MinDigitalChars:   getEnvInt("MIN_DIGITAL_TEXT_CHARS", 200),
		EmbedBatchSize:    getEnvInt("EMBED_BATCH_SIZE", 16),

		TopK:            getEnvInt("RETRIEVAL_TOP_K", 3),
		MaxContextChars: getEnvInt("MAX_CONTEXT_CHARS", 6000),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),
		BucketPrefix: getEnv("BUCKET_PREFIX", ""),

		Port: getEnv("PORT", "8080"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.AIAPIKey == "" {
		log.Fatal("GEMINI_API_KEY not set; required for embeddings")
	}

	return cfg
}

// MirrorEnabled reports whether a remote corpus bucket is configured.
func (c *Config) MirrorEnabled() bool {
	return c.BucketName != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

// splitLanguages turns a tesseract-style "spa+eng" spec into its parts.
func splitLanguages(spec string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(spec); i++ {
		if i == len(spec) || spec[i] == '+' {
			if i > start {
				out = append(out, spec[start:i])
			}
			start = i + 1
		}
	}
	return out
}

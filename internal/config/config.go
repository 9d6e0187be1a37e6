package config

import (
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	// Empty DSN selects the in-memory store.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Empty API key selects the deterministic embedding/completion gateways.
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	OpenAIEmbedModel string `yaml:"openai_embed_model"`
	OpenAIChatModel  string `yaml:"openai_chat_model"`

	// Empty URL disables the secondary vector index.
	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`

	StoragePath string `yaml:"storage_path"`

	ChunkSize              int     `yaml:"chunk_size"`
	RAGTopK                int     `yaml:"rag_top_k"`
	RAGContextSnippets     int     `yaml:"rag_context_snippets"`
	RAGSimilarityThreshold float64 `yaml:"rag_similarity_threshold"`

	APIRateLimitRPS   float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int     `yaml:"api_rate_limit_burst"`
	APIMaxInFlight    int     `yaml:"api_max_in_flight"`

	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// Load reads configuration from the environment. When CONFIG_PATH names a
// YAML file, its values are read first and environment variables override.
func Load() Config {
	cfg := Config{
		APIPort:  "8080",
		LogLevel: "info",

		PostgresDSN: "",

		OpenAIAPIKey:     "",
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIEmbedModel: "text-embedding-3-small",
		OpenAIChatModel:  "gpt-3.5-turbo",

		QdrantURL:        "",
		QdrantCollection: "catalogue",

		StoragePath: "./data/uploads",

		ChunkSize:              700,
		RAGTopK:                8,
		RAGContextSnippets:     3,
		RAGSimilarityThreshold: 0.25,

		APIRateLimitRPS:   0,
		APIRateLimitBurst: 0,
		APIMaxInFlight:    0,

		RequestTimeoutSeconds: 60,
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		applyFile(&cfg, path)
	}

	cfg.APIPort = mustEnv("API_PORT", cfg.APIPort)
	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.PostgresDSN = mustEnv("POSTGRES_DSN", cfg.PostgresDSN)

	cfg.OpenAIAPIKey = mustEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = mustEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIEmbedModel = mustEnv("OPENAI_EMBED_MODEL", cfg.OpenAIEmbedModel)
	cfg.OpenAIChatModel = mustEnv("OPENAI_CHAT_MODEL", cfg.OpenAIChatModel)

	cfg.QdrantURL = mustEnv("QDRANT_URL", cfg.QdrantURL)
	cfg.QdrantCollection = mustEnv("QDRANT_COLLECTION", cfg.QdrantCollection)

	cfg.StoragePath = mustEnv("STORAGE_PATH", cfg.StoragePath)

	cfg.ChunkSize = mustEnvInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.RAGTopK = mustEnvInt("RAG_TOP_K", cfg.RAGTopK)
	cfg.RAGContextSnippets = mustEnvInt("RAG_CONTEXT_SNIPPETS", cfg.RAGContextSnippets)
	cfg.RAGSimilarityThreshold = mustEnvFloat("RAG_SIMILARITY_THRESHOLD", cfg.RAGSimilarityThreshold)

	cfg.APIRateLimitRPS = mustEnvFloat("API_RATE_LIMIT_RPS", cfg.APIRateLimitRPS)
	cfg.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", cfg.APIRateLimitBurst)
	cfg.APIMaxInFlight = mustEnvInt("API_MAX_IN_FLIGHT", cfg.APIMaxInFlight)

	cfg.RequestTimeoutSeconds = mustEnvInt("REQUEST_TIMEOUT_SECONDS", cfg.RequestTimeoutSeconds)

	return cfg
}

func applyFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("config_file_unreadable", "path", path, "error", err)
		return
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("config_file_invalid", "path", path, "error", err)
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

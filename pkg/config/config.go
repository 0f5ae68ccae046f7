package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the CLI and the server.
type Config struct {
	// LLM
	LLMProvider     string
	ModelName       string
	GoogleApiKey    string
	OpenAIApiKey    string
	OpenAIBaseURL   string
	AnthropicApiKey string
	OllamaURL       string

	// Embeddings
	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingCacheSize int

	// Web search
	SearchProvider    string
	BraveApiKey       string
	SearchResultCount int
	UserAgent         string
	BreakerEnabled    bool

	// Ingestion
	MistralApiKey string

	// Storage
	VectorStore    string
	DatabaseURL    string
	CollectionName string

	Port     string
	LogLevel string

	RAG RagConfig
}

// Load reads configuration from an optional config file, the environment and
// a .env file, in increasing order of precedence for the environment.
// configPath may be empty.
func Load(configPath string) (*Config, error) {
	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	cfg := &Config{
		LLMProvider:     v.GetString("llm.provider"),
		ModelName:       v.GetString("model_name"),
		GoogleApiKey:    v.GetString("google_api_key"),
		OpenAIApiKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai_base_url"),
		AnthropicApiKey: v.GetString("anthropic_api_key"),
		OllamaURL:       v.GetString("ollama_url"),

		EmbeddingProvider:  v.GetString("embeddings.provider"),
		EmbeddingModel:     v.GetString("embeddings_model"),
		EmbeddingDimension: v.GetInt("embeddings.dimension"),
		EmbeddingCacheSize: v.GetInt("embeddings.cache_size"),

		SearchProvider:    v.GetString("search.provider"),
		BraveApiKey:       v.GetString("brave_api_key"),
		SearchResultCount: v.GetInt("search.count"),
		UserAgent:         v.GetString("user_agent"),
		BreakerEnabled:    v.GetBool("search.breaker"),

		MistralApiKey: v.GetString("mistral_api_key"),

		VectorStore:    v.GetString("vector_store"),
		DatabaseURL:    v.GetString("database_url"),
		CollectionName: v.GetString("collection_name"),

		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),

		RAG: loadRagConfig(v),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "google")
	v.SetDefault("model_name", "gemini-3-flash-preview")
	v.SetDefault("ollama_url", "http://localhost:11434")

	v.SetDefault("embeddings.provider", "google")
	v.SetDefault("embeddings_model", "gemini-embedding-001")
	v.SetDefault("embeddings.dimension", 1536)
	v.SetDefault("embeddings.cache_size", 256)

	v.SetDefault("search.provider", "brave")
	v.SetDefault("search.count", 5)
	v.SetDefault("user_agent", "ennchan-rag/1.0")
	v.SetDefault("search.breaker", true)

	v.SetDefault("vector_store", "memory")
	v.SetDefault("collection_name", "ennchan_docs")

	v.SetDefault("port", "8081")
	v.SetDefault("log_level", "info")

	setRagDefaults(v)
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.provider", "LLM_PROVIDER")
	_ = v.BindEnv("model_name", "MODEL_NAME")
	_ = v.BindEnv("google_api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai_base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("ollama_url", "OLLAMA_URL")

	_ = v.BindEnv("embeddings.provider", "EMBEDDING_PROVIDER")
	_ = v.BindEnv("embeddings_model", "EMBEDDING_MODEL")
	_ = v.BindEnv("embeddings.dimension", "EMBEDDING_DIMENSION")
	_ = v.BindEnv("embeddings.cache_size", "EMBEDDING_CACHE_SIZE")

	_ = v.BindEnv("search.provider", "SEARCH_PROVIDER")
	_ = v.BindEnv("brave_api_key", "BRAVE_API_KEY")
	_ = v.BindEnv("search.count", "SEARCH_RESULT_COUNT")
	_ = v.BindEnv("user_agent", "USER_AGENT")
	_ = v.BindEnv("search.breaker", "SEARCH_BREAKER")
	_ = v.BindEnv("mistral_api_key", "MISTRAL_API_KEY")

	_ = v.BindEnv("vector_store", "VECTOR_STORE")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("collection_name", "COLLECTION_NAME")

	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	bindRagEnv(v)
}

// Validate reports settings that would make the pipeline unusable.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case "google":
		if c.GoogleApiKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for the google provider"))
		}
	case "openai":
		if c.OpenAIApiKey == "" && c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY or OPENAI_BASE_URL is required for the openai provider"))
		}
	case "anthropic":
		if c.AnthropicApiKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLMProvider))
	}

	if c.SearchProvider == "brave" && c.BraveApiKey == "" {
		errs = append(errs, errors.New("BRAVE_API_KEY is required for the brave search provider"))
	}

	if c.VectorStore == "pgvector" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for the pgvector store"))
	}

	if err := c.RAG.validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Session   SessionConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection         string
	VectorIndexName    string
	EmbeddingDimension int
}

type APIKeys struct {
	OpenAI     string
	AuditTopic string // in-process audit topic
}

type AIConfig struct {
	EmbeddingProvider    string // "ollama" or "openai"
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAIEmbeddingModel string
	LocalLLMEnabled      bool
	LocalLLMModel        string
	LocalLLMMaxTokens    int
	LocalLLMContext      int
	Temperature          float64
	EmbeddingCacheTTL    time.Duration
}

type SessionConfig struct {
	MaxIdle          time.Duration
	SweepInterval    time.Duration
	MemoryTokenLimit int
}

type TelemetryConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/query_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection:         getEnv("DB_CONNECTION_STRING", ""),
			VectorIndexName:    getEnv("VECTOR_INDEX_NAME", "vector_index"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 1024),
		},
		Keys: APIKeys{
			OpenAI:     getEnv("OPENAI_API_KEY", ""),
			AuditTopic: getEnv("AUDIT_TOPIC", "QUERY_PROCESSED"),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "bge-m3"),
			OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large"),
			LocalLLMEnabled:      getEnvAsBool("LOCAL_LLM_ENABLED", true),
			LocalLLMModel:        getEnv("LOCAL_LLM_MODEL", "llama2"),
			LocalLLMMaxTokens:    getEnvAsInt("LOCAL_LLM_MAX_TOKENS", 512),
			LocalLLMContext:      getEnvAsInt("LOCAL_LLM_CONTEXT", 3900),
			Temperature:          getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			EmbeddingCacheTTL:    getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		Session: SessionConfig{
			MaxIdle:          getEnvAsDuration("SESSION_MAX_IDLE", 24*time.Hour),
			SweepInterval:    getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Hour),
			MemoryTokenLimit: getEnvAsInt("MEMORY_TOKEN_LIMIT", 3000),
		},
		Telemetry: TelemetryConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// IsProduction reports whether GO_ENV selects production logging.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}

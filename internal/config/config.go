package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the recruitflow server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Catalog   CatalogConfig
	AI        AIConfig
	Telephony TelephonyConfig
	Mail      MailConfig
	Pipeline  PipelineConfig
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel string
	// RequestsPerMinute is the per-API-key rate limit.
	RequestsPerMinute int
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory driver keeps records in
	// process and is meant for local development.
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL       string
	StatusTTL time.Duration
}

type StorageConfig struct {
	// DocumentRoot is the directory resume documents are addressed under.
	DocumentRoot string
}

type CatalogConfig struct {
	// Path to an optional YAML file with additional job records.
	Path string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Ollama           OllamaConfig
	VLLM             VLLMConfig
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type TelephonyConfig struct {
	BaseURL       string
	InstanceID    string
	ContactFlowID string
	APIToken      string
	Timeout       time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type PipelineConfig struct {
	CapabilityTimeout      time.Duration
	ExtractionPollInterval time.Duration
	MaxAttempts            int
	RetryInitialInterval   time.Duration
	HiringManagerEmail     string
	TechnicalStaffEmail    string
	RerankSchedule         string
	Timezone               string
}

var validProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
}

var validDrivers = map[string]bool{
	"postgres": true,
	"memory":   true,
}

// Load reads configuration from the environment (after applying a .env file
// when one exists) and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:              envInt("RECRUITFLOW_PORT", 8080),
			Env:               envString("RECRUITFLOW_ENV", "development"),
			LogLevel:          envString("LOG_LEVEL", "info"),
			RequestsPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			Driver:          envString("STORE_DRIVER", "postgres"),
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			StatusTTL: envDuration("STATUS_CACHE_TTL", 30*time.Second),
		},
		Storage: StorageConfig{
			DocumentRoot: envString("DOCUMENT_ROOT", "data/documents"),
		},
		Catalog: CatalogConfig{
			Path: os.Getenv("CATALOG_PATH"),
		},
		AI: AIConfig{
			Provider:         os.Getenv("AI_PROVIDER"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
				BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			},
		},
		Telephony: TelephonyConfig{
			BaseURL:       envString("TELEPHONY_BASE_URL", "http://localhost:8090"),
			InstanceID:    os.Getenv("TELEPHONY_INSTANCE_ID"),
			ContactFlowID: os.Getenv("TELEPHONY_CONTACT_FLOW_ID"),
			APIToken:      os.Getenv("TELEPHONY_API_TOKEN"),
			Timeout:       envDuration("TELEPHONY_TIMEOUT", 15*time.Second),
		},
		Mail: MailConfig{
			Host:     envString("SMTP_HOST", "localhost"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envString("MAIL_FROM", "recruiting@example.com"),
		},
		Pipeline: PipelineConfig{
			CapabilityTimeout:      envDuration("PIPELINE_CAPABILITY_TIMEOUT", 2*time.Minute),
			ExtractionPollInterval: envDuration("PIPELINE_EXTRACTION_POLL_INTERVAL", 2*time.Second),
			MaxAttempts:            envInt("PIPELINE_MAX_ATTEMPTS", 3),
			RetryInitialInterval:   envDuration("PIPELINE_RETRY_INITIAL_INTERVAL", 5*time.Second),
			HiringManagerEmail:     envString("HIRING_MANAGER_EMAIL", "hiring_manager@example.com"),
			TechnicalStaffEmail:    envString("TECHNICAL_STAFF_EMAIL", "tech_staff@example.com"),
			RerankSchedule:         envString("PIPELINE_RERANK_SCHEDULE", "@every 15m"),
			Timezone:               envString("PIPELINE_TIMEZONE", "UTC"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("STORE_DRIVER must be one of postgres, memory; got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, vllm, openai, anthropic; got %q", c.AI.Provider)
	}

	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "anthropic" && c.AI.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}

	if !strings.HasPrefix(c.Telephony.BaseURL, "http://") && !strings.HasPrefix(c.Telephony.BaseURL, "https://") {
		return fmt.Errorf("TELEPHONY_BASE_URL must start with http:// or https://, got %q", c.Telephony.BaseURL)
	}

	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("PIPELINE_MAX_ATTEMPTS must be at least 1, got %d", c.Pipeline.MaxAttempts)
	}
	if c.Pipeline.CapabilityTimeout <= 0 {
		return fmt.Errorf("PIPELINE_CAPABILITY_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		return fmt.Errorf("PIPELINE_TIMEZONE %q is not a known timezone: %w", c.Pipeline.Timezone, err)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

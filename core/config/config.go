package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const DefaultSystemInstruction = "You are a helpful assistant answering questions in a Discord server. " +
	"Reply in plain Discord markdown and keep answers under 2000 characters."

type Config struct {
	OTel       OTelConfig
	Discord    DiscordConfig
	LLM        LLMConfig
	Generation GenerationConfig
	Reply      ReplyConfig
	Worker     WorkerConfig
	Env        string
	Port       string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type DiscordConfig struct {
	Token string
}

type LLMConfig struct {
	Provider         string // "gemini", "openai" or "anthropic"
	APIKey           string
	BaseURL          string // Optional: for custom endpoints
	PrimaryModel     string
	SecondaryModel   string
	MaxTokens        int
	StructuredOutput bool
}

type GenerationConfig struct {
	MaxAttempts       int
	RetryDelay        time.Duration
	SystemInstruction string
}

type ReplyConfig struct {
	UnwrapJSON bool
}

type WorkerConfig struct {
	QueueSize int
}

// Load loads configuration from environment variables.
// In development, it loads .env.bot and falls back to .env if that file doesn't exist.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit env file. A non-empty envFile must exist;
// variables already set in the environment take precedence over it.
func LoadFile(envFile string) (Config, error) {
	switch {
	case envFile != "":
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	case getEnv("RELAY_ENV", "development") == "development":
		if err := godotenv.Load(".env.bot"); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))

	cfg := Config{
		Env:  getEnv("RELAY_ENV", "development"),
		Port: getEnv("PORT", "3000"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "relaybot"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Discord: DiscordConfig{
			Token: getEnv("DISCORD_TOKEN", ""),
		},
		LLM: LLMConfig{
			Provider:         provider,
			APIKey:           getEnv("LLM_API_KEY", providerAPIKey(provider)),
			BaseURL:          getEnv("LLM_BASE_URL", ""),
			PrimaryModel:     getEnv("LLM_PRIMARY_MODEL", "gemini-2.5-flash"),
			SecondaryModel:   getEnv("LLM_SECONDARY_MODEL", "gemini-2.0-flash"),
			MaxTokens:        getEnvInt("LLM_MAX_TOKENS", 1024),
			StructuredOutput: getEnvBool("LLM_STRUCTURED_OUTPUT", false),
		},
		Generation: GenerationConfig{
			MaxAttempts:       getEnvInt("GENERATION_MAX_ATTEMPTS", 3),
			RetryDelay:        getEnvDuration("GENERATION_RETRY_DELAY", 2*time.Second),
			SystemInstruction: getEnv("SYSTEM_INSTRUCTION", DefaultSystemInstruction),
		},
		Reply: ReplyConfig{
			UnwrapJSON: getEnvBool("REPLY_UNWRAP_JSON", true),
		},
		Worker: WorkerConfig{
			QueueSize: getEnvInt("WORKER_QUEUE_SIZE", 64),
		},
	}

	if cfg.Discord.Token == "" {
		return Config{}, fmt.Errorf("DISCORD_TOKEN is required")
	}

	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return Config{}, fmt.Errorf("unsupported LLM_PROVIDER: %s", cfg.LLM.Provider)
	}

	if cfg.LLM.APIKey == "" {
		return Config{}, fmt.Errorf("%s is required for provider %s", apiKeyEnv(cfg.LLM.Provider), cfg.LLM.Provider)
	}

	if cfg.Generation.MaxAttempts < 1 {
		cfg.Generation.MaxAttempts = 1
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func providerAPIKey(provider string) string {
	return getEnv(apiKeyEnv(provider), "")
}

func apiKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

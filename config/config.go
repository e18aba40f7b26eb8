// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	FrontendURL   string
	DBPath        string
	TranscriptDir string
	TokenSecret   string

	// LLMProvider selects the completion backend: "openai" or "anthropic".
	LLMProvider string

	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Search    SearchConfig

	// TranscriptQueueSize bounds the async transcript write queue per session.
	TranscriptQueueSize int

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration
}

// OpenAIConfig configures the OpenAI-backed providers (chat, embedding, TTS, ASR).
type OpenAIConfig struct {
	ChatModel       string
	EmbeddingModel  string
	SpeechModel     string
	SpeechVoice     string
	TranscribeModel string
}

// AnthropicConfig configures the Anthropic completion provider.
type AnthropicConfig struct {
	Model string
}

// SearchConfig holds web search backend credentials. Empty keys disable the
// corresponding backend; the free fallback needs none.
type SearchConfig struct {
	TavilyAPIKey string
	SerperAPIKey string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_QUEUE_SIZE", 256)
	if queueSize <= 0 {
		queueSize = 256
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		FrontendURL:   getEnv("FRONTEND_URL", ""),
		DBPath:        getEnv("DB_PATH", "./data/interviewd.db"),
		TranscriptDir: getEnv("TRANSCRIPT_DIR", "./data/interview_contexts"),
		TokenSecret:   getEnv("TOKEN_SECRET", ""),
		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		OpenAI: OpenAIConfig{
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			SpeechModel:     getEnv("OPENAI_SPEECH_MODEL", "tts-1"),
			SpeechVoice:     getEnv("OPENAI_SPEECH_VOICE", "alloy"),
			TranscribeModel: getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		},
		Anthropic: AnthropicConfig{
			Model: getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		},
		Search: SearchConfig{
			TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),
			SerperAPIKey: getEnv("SERPER_API_KEY", ""),
		},
		TranscriptQueueSize: queueSize,
		ShutdownTimeout:     10 * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.TranscriptDir == "" {
		return fmt.Errorf("TRANSCRIPT_DIR cannot be empty")
	}
	switch c.LLMProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be \"openai\" or \"anthropic\", got %q", c.LLMProvider)
	}
	if c.TokenSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("TOKEN_SECRET must be set outside development")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

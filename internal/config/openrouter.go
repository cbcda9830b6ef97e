package config

import (
	"os"
	"sync"
	"time"
)

// OpenRouterConfig tunes the chat-completions client. It is read once at
// startup and treated as read-only afterwards.
type OpenRouterConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

var (
	openRouterConfig *OpenRouterConfig
	openRouterOnce   sync.Once
)

func LoadOpenRouterConfig() *OpenRouterConfig {
	openRouterOnce.Do(func() {
		openRouterConfig = &OpenRouterConfig{
			APIKey:      os.Getenv("OPENROUTER_API_KEY"),
			Model:       getEnv("OPENROUTER_MODEL", "openai/gpt-4o"),
			BaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Timeout:     getEnvAsDuration("OPENROUTER_TIMEOUT", "60s"),
			MaxRetries:  getEnvAsInt("OPENROUTER_MAX_RETRIES", 3),
			BackoffBase: getEnvAsDuration("OPENROUTER_BACKOFF_BASE", "500ms"),
		}
	})
	return openRouterConfig
}

package config

import (
	"os"
	"sync"
	"time"
)

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbedModel     string
	BaseURL        string
	RequestTimeout time.Duration
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel:     getEnv("GEMINI_EMBED_MODEL", "gemini-embedding-001"),
			BaseURL:        os.Getenv("GEMINI_BASE_URL"),
			RequestTimeout: getEnvAsDuration("GEMINI_REQUEST_TIMEOUT", "90s"),
		}
	})
	return geminiConfig
}

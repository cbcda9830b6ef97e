package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

type AppConfig struct {
	Name    string
	Env     string
	Port    string
	BaseURL string
	Title   string
	Debug   bool

	// LLMProvider selects the model backend: "openrouter" or "gemini".
	LLMProvider string
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
			log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
		}
		appConfig = &AppConfig{
			Name:    getEnv("APP_NAME", "resume-analyzer"),
			Env:     env,
			Port:    getEnv("APP_PORT", ":3000"),
			BaseURL: os.Getenv("APP_URL"),
			Title:   getEnv("APP_TITLE", "Resume Analyzer"),
			Debug:   getEnvAsBool("APP_DEBUG", false),

			LLMProvider: getEnv("LLM_PROVIDER", "openrouter"),
		}
	})
	return appConfig
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if duration, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

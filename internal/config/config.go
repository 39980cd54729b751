package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the service reads from the environment at start.
// Provider credentials live here and are injected into client constructors;
// nothing reads them from globals after Load.
type Config struct {
	Env        string
	ListenAddr string

	// Persistence. Empty DatabaseURL selects the in-memory store.
	DatabaseURL string

	// Chat-completion capability (OpenAI-style gateway).
	CompletionURL   string
	CompletionKey   string
	CompletionModel string

	// Speech-to-text + upload storage capability.
	StorageUploadURL string
	TranscribeURL    string
	TranscribeKey    string

	// Sentiment capability.
	SentimentURL string
	SentimentKey string

	// Web-search capability.
	SearchURL     string
	SearchKey     string
	SearchTimeout time.Duration

	// Optional xlsx with leads to seed at startup.
	SeedLeadsPath string
}

func Load() (Config, error) {
	cfg := Config{
		Env:              getenv("ENVIRONMENT", "local"),
		ListenAddr:       ":" + getenv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CompletionURL:    os.Getenv("LLM_GATEWAY_URL"),
		CompletionKey:    os.Getenv("LLM_API_KEY"),
		CompletionModel:  getenv("LLM_MODEL", "gpt-4o-mini"),
		StorageUploadURL: os.Getenv("STORAGE_UPLOAD_URL"),
		TranscribeURL:    os.Getenv("TRANSCRIBE_URL"),
		TranscribeKey:    os.Getenv("TRANSCRIBE_API_KEY"),
		SentimentURL:     os.Getenv("SENTIMENT_URL"),
		SentimentKey:     os.Getenv("SENTIMENT_API_KEY"),
		SearchURL:        os.Getenv("SEARCH_API_URL"),
		SearchKey:        os.Getenv("SEARCH_API_KEY"),
		SearchTimeout:    getenvDuration("SEARCH_TIMEOUT", 15*time.Second),
		SeedLeadsPath:    os.Getenv("SEED_LEADS_PATH"),
	}
	if cfg.CompletionURL == "" {
		return cfg, fmt.Errorf("LLM_GATEWAY_URL not set")
	}
	if cfg.TranscribeURL == "" {
		return cfg, fmt.Errorf("TRANSCRIBE_URL not set")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

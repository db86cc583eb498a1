// Package config reads runtime configuration from environment variables and
// an optional .env file. All variables use the TRADQA_ prefix
// (TRADQA_OPENAI_API_KEY, TRADQA_DB_PATH, ...); command-line flags override
// whatever is loaded here.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/valpere/tradqa/internal/llm"
)

// Config holds runtime configuration for the CLI.
type Config struct {
	LLM llm.Config

	// DBPath locates the SQLite database backing translation memory,
	// glossary storage, and job history.
	DBPath string

	// MaxChunkRunes bounds a single generation call's input.
	MaxChunkRunes int

	// ReviewTimeout bounds each review evaluation call.
	ReviewTimeout time.Duration

	// FuzzyCacheThreshold (0–100) enables fuzzy translation memory lookup
	// when positive.
	FuzzyCacheThreshold float64

	// LogLevel is a zerolog level name ("debug", "info", "warn", "error").
	LogLevel string
}

// Load reads configuration from the environment and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TRADQA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("openai.model", llm.DefaultModel)
	v.SetDefault("openai.timeout", "5m")
	v.SetDefault("db.path", filepath.Join(".", "tradqa.db"))
	v.SetDefault("max_chunk_runes", 4000)
	v.SetDefault("review.timeout", "2m")
	v.SetDefault("fuzzy_cache_threshold", 0.0)
	v.SetDefault("log.level", "info")

	llmTimeout, err := time.ParseDuration(v.GetString("openai.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid openai timeout: %w", err)
	}
	reviewTimeout, err := time.ParseDuration(v.GetString("review.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid review timeout: %w", err)
	}

	cfg := Config{
		LLM: llm.Config{
			APIKey:  v.GetString("openai.api_key"),
			Model:   v.GetString("openai.model"),
			BaseURL: v.GetString("openai.base_url"),
			Timeout: llmTimeout,
		},
		DBPath:              v.GetString("db.path"),
		MaxChunkRunes:       v.GetInt("max_chunk_runes"),
		ReviewTimeout:       reviewTimeout,
		FuzzyCacheThreshold: v.GetFloat64("fuzzy_cache_threshold"),
		LogLevel:            v.GetString("log.level"),
	}
	return cfg, nil
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.MaxChunkRunes)
	assert.Equal(t, 2*time.Minute, cfg.ReviewTimeout)
	assert.Equal(t, 5*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.LLM.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRADQA_OPENAI_API_KEY", "sk-test")
	t.Setenv("TRADQA_MAX_CHUNK_RUNES", "123")
	t.Setenv("TRADQA_LOG_LEVEL", "debug")
	t.Setenv("TRADQA_REVIEW_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 123, cfg.MaxChunkRunes)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ReviewTimeout)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("TRADQA_REVIEW_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

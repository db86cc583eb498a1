// Package llm defines the text-generation capability used by the translator
// and the generative review stages, plus an OpenAI-compatible
// implementation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCredentialsMissing is returned by constructors when no API key is
// configured. Credential problems are surfaced at startup, not per call.
var ErrCredentialsMissing = errors.New("generation API key not configured")

// GenerationError wraps a failed generation call (network, timeout,
// malformed response).
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Prompt is a structured request for the generation capability.
type Prompt struct {
	System string
	User   string
}

// Client is the single generation capability consumed by the pipeline.
// Implementations must honour ctx cancellation and deadlines.
type Client interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Config configures the generation client.
type Config struct {
	APIKey  string        `mapstructure:"api_key" json:"api_key"`
	Model   string        `mapstructure:"model" json:"model"`
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Package llm provides the model backends for the threat model assistant
package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/adk/model"
)

// Supported providers
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOllama = "ollama"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOllamaModel = "llama3.2"
	defaultOllamaURL   = "http://localhost:11434"
)

// Config holds LLM configuration
type Config struct {
	Provider       string // gemini, vertex or ollama
	Model          string // model name (e.g., "gemini-2.0-flash", "llama3.2")
	APIKey         string // GEMINI_API_KEY
	VertexProject  string
	VertexLocation string
	OllamaURL      string
}

// ConfigFromEnv creates a Config from environment variables
func ConfigFromEnv() Config {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = ProviderGemini
	}

	modelName := os.Getenv("LLM_MODEL")
	if modelName == "" {
		modelName = DefaultModel(provider)
	}

	ollamaURL := os.Getenv("OLLAMA_URL")
	if ollamaURL == "" {
		ollamaURL = defaultOllamaURL
	}

	return Config{
		Provider:       provider,
		Model:          modelName,
		APIKey:         os.Getenv("GEMINI_API_KEY"),
		VertexProject:  os.Getenv("VERTEX_PROJECT"),
		VertexLocation: os.Getenv("VERTEX_LOCATION"),
		OllamaURL:      ollamaURL,
	}
}

// DefaultModel returns the model used when LLM_MODEL is unset
func DefaultModel(provider string) string {
	if provider == ProviderOllama {
		return defaultOllamaModel
	}
	return defaultGeminiModel
}

// NewModel creates an ADK-compatible model based on the config
func NewModel(ctx context.Context, cfg Config) (model.LLM, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiModel(ctx, cfg)
	case ProviderVertex:
		return NewVertexModel(ctx, cfg)
	case ProviderOllama:
		return NewOllamaModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, vertex, ollama)", cfg.Provider)
	}
}

// Validate checks if the config is valid for the selected provider
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, "":
		if c.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required for Gemini provider")
		}
	case ProviderVertex:
		if c.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT environment variable is required for Vertex AI provider")
		}
		if c.VertexLocation == "" {
			return fmt.Errorf("VERTEX_LOCATION environment variable is required for Vertex AI provider")
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required for Ollama provider")
		}
	default:
		return fmt.Errorf("unknown LLM provider: %s", c.Provider)
	}
	return nil
}

// SetupHelp returns the environment a user must set for the provider
func (c Config) SetupHelp() string {
	switch c.Provider {
	case ProviderVertex:
		return "export VERTEX_PROJECT=your-project\n  export VERTEX_LOCATION=us-central1"
	case ProviderOllama:
		return "ollama serve\n  export OLLAMA_URL=http://localhost:11434"
	default:
		return "export GEMINI_API_KEY=your-api-key\n\nFor Ollama (local), set:\n  export LLM_PROVIDER=ollama"
	}
}

func (c Config) String() string {
	provider := c.Provider
	if provider == "" {
		provider = ProviderGemini
	}
	return provider + "/" + c.Model
}

package ai

import (
	"errors"
	"time"

	"github.com/hrygo/gigvoice/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider  string // openai, deepseek, ollama
	Model     string // gpt-4o-mini
	APIKey    string
	BaseURL   string
	MaxTokens int           // default: 512
	Timeout   time.Duration // per call
}

const defaultModel = "gpt-4o-mini"

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = LLMConfig{
		Provider:  p.AILLMProvider,
		Model:     p.AILLMModel,
		APIKey:    p.AIAPIKey,
		BaseURL:   p.AIBaseURL,
		MaxTokens: 512,
		Timeout:   p.AILLMTimeout,
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Provider == "ollama" && c.LLM.BaseURL == "" {
		return errors.New("LLM base URL is required for ollama")
	}

	return nil
}

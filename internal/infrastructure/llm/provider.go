package llm

import (
	"fmt"
	"log/slog"

	"NewsBalancer/internal/config"
	"NewsBalancer/internal/ports"
)

// NewFromConfig builds the generator for the configured provider.
func NewFromConfig(cfg config.GenerationConfig, logger *slog.Logger) (ports.Generator, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic, "":
		client, err := NewAnthropicClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		client, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

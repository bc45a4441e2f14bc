package llm

import (
	"log/slog"

	"concierge/internal/domain"
	"concierge/internal/infra/config"
)

// NewProvider builds the configured chat-completion provider, wrapped with
// the circuit breaker when enabled. An unrecognized provider name fails with
// ErrProviderNotFound rather than silently falling back.
func NewProvider(cfg config.LLMConfig, logger *slog.Logger) (domain.LLMProvider, error) {
	var provider domain.LLMProvider

	switch cfg.Provider.Name {
	case "openai", "":
		provider = NewOpenAIProvider(cfg.Provider, logger)
	default:
		return nil, domain.NewDomainError("llm.NewProvider", domain.ErrProviderNotFound, cfg.Provider.Name)
	}

	if cfg.CircuitBreaker.Enabled {
		provider = NewCircuitBreakerProvider(provider, cfg.CircuitBreaker, logger)
	}
	return provider, nil
}

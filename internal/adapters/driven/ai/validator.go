package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/logger"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator is used by the settings wizard to reject a provider, key
// or endpoint that cannot answer before it is saved. Each check builds the
// provider from the candidate settings, pings it and closes it again.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that waits up to pingTimeout per provider.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// WithTimeout returns a copy of v that waits at most d for each ping.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	if d <= 0 {
		d = pingTimeout
	}
	return &ConfigValidator{timeout: d}
}

// ValidateEmbedding checks that the embedding provider in config is reachable.
// The local hash embedder never touches the network and always passes.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := v.ping(svc.Ping); err != nil {
		return fmt.Errorf("%w: %s unreachable (%w). %s",
			domain.ErrEmbeddingUnavailable, svc.ModelName(), err, fixHint)
	}
	logger.Debug("Embedding model %s answered (%d dimensions)", svc.ModelName(), svc.Dimensions())
	return nil
}

// ValidateLLM checks that the generation backend in config is reachable.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := CreateLLMService(config)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := v.ping(svc.Ping); err != nil {
		return fmt.Errorf("%w: %s unreachable (%w). %s",
			domain.ErrLLMUnavailable, svc.ModelName(), err, fixHint)
	}
	logger.Debug("Generation model %s answered", svc.ModelName())
	return nil
}

func (v *ConfigValidator) ping(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return fn(ctx)
}

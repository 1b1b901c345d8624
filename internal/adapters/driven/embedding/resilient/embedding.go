// Package resilient decorates an embedding provider with rate limiting and
// bounded retries on transient failures.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/httperr"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 200 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
)

// Config holds the retry and rate limit policy.
type Config struct {
	// RequestsPerSecond caps calls to the wrapped provider. Zero disables it.
	RequestsPerSecond float64

	// BurstSize is the token bucket size (default: 1).
	BurstSize int

	// MaxRetries is the number of retries after the first attempt.
	// Negative disables retries.
	MaxRetries int

	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff delay.
	MaxDelay time.Duration

	// Metrics receives a count for every call that finally fails. Optional.
	Metrics *metrics.Metrics
}

// EmbeddingService wraps another provider.
type EmbeddingService struct {
	inner   driven.EmbeddingProvider
	limiter *RateLimiter
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
}

// Wrap decorates inner with cfg.
func Wrap(inner driven.EmbeddingProvider, cfg Config) *EmbeddingService {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	return &EmbeddingService{
		inner:   inner,
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		cfg:     cfg,
		sleep:   sleepContext,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch calls the wrapped provider, retrying transient failures with
// exponential backoff. A 429 also delays every other caller sharing this
// service.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, task domain.TaskType) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, s.backoff(attempt-1)); err != nil {
				return nil, s.fail(err)
			}
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, s.fail(err)
		}

		vectors, err := s.inner.EmbedBatch(ctx, texts, task)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !httperr.IsTransient(err) {
			break
		}

		var se *httperr.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
			s.limiter.RecordRateLimit(se.RetryAfter)
		}
	}
	return nil, s.fail(lastErr)
}

func (s *EmbeddingService) fail(err error) error {
	s.cfg.Metrics.IncEmbeddingErrors()
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}

// backoff returns BaseDelay << attempt, capped at MaxDelay.
func (s *EmbeddingService) backoff(attempt int) time.Duration {
	if attempt > 30 {
		return s.cfg.MaxDelay
	}
	d := s.cfg.BaseDelay << attempt
	if d <= 0 || d > s.cfg.MaxDelay {
		return s.cfg.MaxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Dimensions returns the wrapped provider's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped provider's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped provider once, without retries.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped provider.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}

// Unwrap returns the decorated provider.
func (s *EmbeddingService) Unwrap() driven.EmbeddingProvider {
	return s.inner
}

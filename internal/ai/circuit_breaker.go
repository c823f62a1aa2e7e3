package ai

import (
	"fmt"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// EmbeddingCircuitBreaker wraps embedding calls with the circuit breaker pattern
type EmbeddingCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[[][]float32]
}

// NewEmbeddingCircuitBreaker creates a circuit breaker for one embedding provider.
// It returns nil when the breaker is disabled; a nil breaker executes calls directly.
func NewEmbeddingCircuitBreaker(provider string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *EmbeddingCircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("Embedding-%s", provider),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"provider", provider,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &EmbeddingCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[[][]float32](settings),
	}
}

// Execute executes the provided function with circuit breaker protection
func (cb *EmbeddingCircuitBreaker) Execute(fn func() ([][]float32, error)) ([][]float32, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *EmbeddingCircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *EmbeddingCircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}

package ai

import (
	"context"
	"fmt"
	"time"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
	"resumescreen/internal/nlp"
)

// NewEmbedder builds the embedder selected by cfg.Provider and wraps it so every
// request is reported to recorder. recorder may be nil.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, recorder EmbeddingRecorder, logger *errors.Logger) (nlp.Embedder, error) {
	if logger != nil {
		logger.Debug("Initializing embedder",
			"provider", cfg.Provider,
			"model", cfg.Model,
			"dimensions", cfg.Dimensions,
			"timeout", cfg.Timeout,
			"max_retries", cfg.MaxRetries)
	}

	var inner nlp.Embedder
	switch cfg.Provider {
	case "hash", "":
		inner = nlp.NewHashEmbedder(cfg.Dimensions)
	case "gemini":
		g, err := NewGeminiEmbedder(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		inner = g
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported embedding provider: %s", cfg.Provider), nil)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "hash"
	}
	return &InstrumentedEmbedder{inner: inner, provider: provider, recorder: recorder}, nil
}

// InstrumentedEmbedder reports latency and failures of an inner embedder.
type InstrumentedEmbedder struct {
	inner    nlp.Embedder
	provider string
	recorder EmbeddingRecorder
}

// Provider returns the name of the wrapped provider.
func (e *InstrumentedEmbedder) Provider() string { return e.provider }

// Identity reports the identity of the wrapped embedder.
func (e *InstrumentedEmbedder) Identity() string { return nlp.EmbedderIdentity(e.inner) }

// Embed implements nlp.Embedder.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.inner.Embed(ctx, texts)
	if e.recorder != nil {
		e.recorder.RecordEmbedding(ctx, e.provider, len(texts), time.Since(start), err)
	}
	return vecs, err
}

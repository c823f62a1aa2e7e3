package ai

import (
	"context"
	"fmt"
	"net/http"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const semanticSimilarityTask = "SEMANTIC_SIMILARITY"

// GeminiEmbedder embeds sentences with the Gemini embedding API. Requests are
// batched, rate limited, retried on transient failures and guarded by a circuit
// breaker.
type GeminiEmbedder struct {
	api        embedAPI
	model      string
	dims       int
	batchSize  int
	maxRetries int
	limiter    *rate.Limiter
	breaker    *EmbeddingCircuitBreaker
	wait       waitFunc
	logger     *errors.Logger
}

// NewGeminiEmbedder creates a Gemini client whose HTTP transport is traced with otelhttp.
func NewGeminiEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *errors.Logger) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"Gemini embedding provider requires an API key", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeEmbeddingFailed,
			"Failed to create Gemini client", err)
	}

	return newGeminiEmbedder(client.Models, cfg, logger), nil
}

func newGeminiEmbedder(api embedAPI, cfg config.EmbeddingConfig, logger *errors.Logger) *GeminiEmbedder {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMin > 0 {
		burst := max(cfg.BurstCapacity, 1)
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMin)/60.0), burst)
	}
	return &GeminiEmbedder{
		api:        api,
		model:      cfg.Model,
		dims:       cfg.Dimensions,
		batchSize:  batch,
		maxRetries: max(cfg.MaxRetries, 0),
		limiter:    limiter,
		breaker:    NewEmbeddingCircuitBreaker("gemini", cfg.CircuitBreaker, logger),
		wait:       sleepContext,
		logger:     logger,
	}
}

// Identity implements nlp.Identifier.
func (g *GeminiEmbedder) Identity() string {
	return fmt.Sprintf("gemini:%s:%d", g.model, g.dims)
}

// Embed implements nlp.Embedder.
func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	tracer := otel.Tracer("resumescreen.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.model),
		attribute.Int("ai.embed.texts", len(texts)),
	)

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		vecs, err := g.embedBatch(ctx, texts[start:end])
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("success", false))
			return nil, errors.NewAIError(errors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("Failed to embed %d texts", len(texts)), err)
		}
		out = append(out, vecs...)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return out, nil
}

func (g *GeminiEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	contents := make([]*genai.Content, len(batch))
	for i, text := range batch {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}
	embedCfg := &genai.EmbedContentConfig{TaskType: semanticSimilarityTask}
	if g.dims > 0 {
		dims := int32(g.dims)
		embedCfg.OutputDimensionality = &dims
	}

	return g.breaker.Execute(func() ([][]float32, error) {
		return executeWithRetry(ctx, "embed", g.maxRetries, g.wait, g.logger, func() ([][]float32, error) {
			resp, err := g.api.EmbedContent(ctx, g.model, contents, embedCfg)
			if err != nil {
				return nil, err
			}
			if len(resp.Embeddings) != len(batch) {
				return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Embeddings))
			}
			vecs := make([][]float32, len(resp.Embeddings))
			for i, e := range resp.Embeddings {
				if e == nil {
					return nil, fmt.Errorf("embedding %d missing from response", i)
				}
				vecs[i] = e.Values
			}
			return vecs, nil
		})
	})
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiEmbedder) GetCircuitBreakerStats() map[string]any {
	return g.breaker.GetStats()
}

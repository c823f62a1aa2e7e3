package ai

import (
	"context"
	"time"

	"google.golang.org/genai"
)

// embedAPI is the part of the genai Models service the embedder calls.
type embedAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// EmbeddingRecorder receives one observation per embedding request.
type EmbeddingRecorder interface {
	RecordEmbedding(ctx context.Context, provider string, texts int, duration time.Duration, err error)
}

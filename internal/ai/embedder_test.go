package ai

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
	"resumescreen/internal/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

type fakeEmbedAPI struct {
	mu      sync.Mutex
	calls   int
	batches [][]string
	errs    []error
	cfgs    []*genai.EmbedContentConfig
}

func (f *fakeEmbedAPI) EmbedContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cfgs = append(f.cfgs, cfg)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	var texts []string
	resp := &genai.EmbedContentResponse{}
	for _, c := range contents {
		text := c.Parts[0].Text
		texts = append(texts, text)
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(len(text)), 1}})
	}
	f.batches = append(f.batches, texts)
	return resp, nil
}

func testEmbeddingConfig() config.EmbeddingConfig {
	return config.EmbeddingConfig{
		Provider:   "gemini",
		Model:      "text-embedding-004",
		APIKey:     "test-key",
		Dimensions: 2,
		BatchSize:  2,
		MaxRetries: 2,
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			MinRequests:      2,
			FailureThreshold: 0.5,
		},
	}
}

func noWait(context.Context, time.Duration) error { return nil }

func TestGeminiEmbedderBatches(t *testing.T) {
	api := &fakeEmbedAPI{}
	g := newGeminiEmbedder(api, testEmbeddingConfig(), errors.NewDiscardLogger())
	g.wait = noWait

	vecs, err := g.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{3, 1}, vecs[2])
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, api.batches)

	require.NotNil(t, api.cfgs[0].OutputDimensionality)
	assert.Equal(t, int32(2), *api.cfgs[0].OutputDimensionality)
	assert.Equal(t, semanticSimilarityTask, api.cfgs[0].TaskType)
}

func TestGeminiEmbedderRetriesTransientErrors(t *testing.T) {
	api := &fakeEmbedAPI{errs: []error{
		genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"},
		&googleapi.Error{Code: http.StatusTooManyRequests},
	}}
	g := newGeminiEmbedder(api, testEmbeddingConfig(), errors.NewDiscardLogger())
	g.wait = noWait

	vecs, err := g.Embed(context.Background(), []string{"retry me"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, 3, api.calls)
}

func TestGeminiEmbedderStopsOnPermanentError(t *testing.T) {
	api := &fakeEmbedAPI{errs: []error{genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}}}
	g := newGeminiEmbedder(api, testEmbeddingConfig(), errors.NewDiscardLogger())
	g.wait = noWait

	_, err := g.Embed(context.Background(), []string{"bad"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmbeddingFailed))
	assert.Equal(t, 1, api.calls)
}

func TestGeminiEmbedderCircuitOpens(t *testing.T) {
	boom := genai.APIError{Code: http.StatusBadRequest}
	api := &fakeEmbedAPI{errs: []error{boom, boom, boom}}
	g := newGeminiEmbedder(api, testEmbeddingConfig(), errors.NewDiscardLogger())
	g.wait = noWait

	for range 2 {
		_, err := g.Embed(context.Background(), []string{"x"})
		require.Error(t, err)
	}
	assert.False(t, g.breaker.IsHealthy())

	_, err := g.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, 2, api.calls, "open breaker must not reach the API")
	assert.Equal(t, "open", g.GetCircuitBreakerStats()["state"])
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "genai unavailable", err: genai.APIError{Code: http.StatusServiceUnavailable}, want: true},
		{name: "genai bad request", err: genai.APIError{Code: http.StatusBadRequest}, want: false},
		{name: "googleapi rate limited", err: &googleapi.Error{Code: http.StatusTooManyRequests}, want: true},
		{name: "googleapi forbidden", err: &googleapi.Error{Code: http.StatusForbidden}, want: false},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "plain", err: stderrors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	d := backoffDelay(1)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.Less(t, d, 1100*time.Millisecond)
	assert.Equal(t, 30*time.Second, backoffDelay(10))
}

func TestNilCircuitBreaker(t *testing.T) {
	var cb *EmbeddingCircuitBreaker
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, false, cb.GetStats()["enabled"])
	out, err := cb.Execute(func() ([][]float32, error) { return [][]float32{{1}}, nil })
	require.NoError(t, err)
	assert.Len(t, out, 1)

	assert.Nil(t, NewEmbeddingCircuitBreaker("hash", config.CircuitBreakerConfig{Enabled: false}, nil))
}

type recorded struct {
	provider string
	texts    int
	err      error
}

type fakeRecorder struct{ got []recorded }

func (r *fakeRecorder) RecordEmbedding(_ context.Context, provider string, texts int, _ time.Duration, err error) {
	r.got = append(r.got, recorded{provider: provider, texts: texts, err: err})
}

func TestNewEmbedder(t *testing.T) {
	rec := &fakeRecorder{}
	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "hash", Dimensions: 32}, rec, nil)
	require.NoError(t, err)
	assert.Equal(t, "hash", e.(*InstrumentedEmbedder).Provider())
	assert.Equal(t, "hash:32", nlp.EmbedderIdentity(e))

	vecs, err := e.Embed(context.Background(), []string{"go services", "kafka"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 32)
	require.Len(t, rec.got, 1)
	assert.Equal(t, recorded{provider: "hash", texts: 2}, rec.got[0])

	_, err = NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "word2vec"}, nil, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))

	_, err = NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "gemini"}, nil, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingAPIKey))
}

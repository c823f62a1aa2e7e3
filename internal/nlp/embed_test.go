package nlp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, 256, e.Dimensions())

	texts := []string{
		"Built distributed data pipelines in Go",
		"Built distributed data pipelines in Go",
		"Designed data pipelines with Go and Kafka",
		"Enjoys hiking and painting",
		"",
	}
	vecs, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))

	assert.Equal(t, vecs[0], vecs[1])
	assert.InDelta(t, 1.0, Cosine(vecs[0], vecs[1]), 1e-6)

	related := Cosine(vecs[0], vecs[2])
	unrelated := Cosine(vecs[0], vecs[3])
	assert.Greater(t, related, unrelated)
	assert.GreaterOrEqual(t, unrelated, 0.0)

	assert.Zero(t, Cosine(vecs[0], vecs[4]))
}

func TestHashEmbedderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashEmbedder(16).Embed(ctx, []string{"text"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, Cosine(nil, nil))
}

type anonymousEmbedder struct{}

func (anonymousEmbedder) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }

func TestEmbedderIdentity(t *testing.T) {
	assert.Equal(t, "hash:256", EmbedderIdentity(NewHashEmbedder(0)))
	assert.Equal(t, "hash:768", EmbedderIdentity(NewHashEmbedder(768)))
	assert.Equal(t, "nlp.anonymousEmbedder", EmbedderIdentity(anonymousEmbedder{}))
}

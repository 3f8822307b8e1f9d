package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdocs/internal/config"
	"ragdocs/internal/domain"
)

type fixedEmbedder struct {
	dim int
	vec []float32
}

func (f fixedEmbedder) Name() string   { return "fixed" }
func (f fixedEmbedder) Dimension() int { return f.dim }
func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, nil
}
func (f fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func TestNew_Hashing(t *testing.T) {
	emb, err := New(config.EmbedderConfig{Type: config.EmbedderHashing, Dimension: 16})
	require.NoError(t, err)
	assert.Equal(t, 16, emb.Dimension())

	v, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestNew_Ollama(t *testing.T) {
	emb, err := New(config.EmbedderConfig{Type: config.EmbedderOllama, Model: "all-minilm", Dimension: 384})
	require.NoError(t, err)
	assert.Equal(t, "ollama:all-minilm", emb.Name())
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(config.EmbedderConfig{Type: "word2vec", Dimension: 8})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestChecked_RejectsWrongDimension(t *testing.T) {
	emb := Checked(fixedEmbedder{dim: 3, vec: []float32{1, 0}})

	_, err := emb.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = emb.EmbedBatch(context.Background(), []string{"x", "y"})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestChecked_PassesThrough(t *testing.T) {
	emb := Checked(fixedEmbedder{dim: 2, vec: []float32{1, 0}})

	v, err := emb.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)

	assert.Equal(t, emb, Checked(emb))
}

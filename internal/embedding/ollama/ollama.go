// Package ollama embeds text with a model served by Ollama, through
// langchaingo's embeddings wrapper.
package ollama

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Defaults match the all-MiniLM-L6-v2 sentence-transformers model.
const (
	DefaultServerURL = "http://localhost:11434"
	DefaultModel     = "all-minilm"
	DefaultBatchSize = 64
)

// Config configures the Ollama embedder.
type Config struct {
	ServerURL string
	Model     string
	Dimension int
	BatchSize int
}

// Embedder implements domain.Embedder on top of a langchaingo embedder.
type Embedder struct {
	inner     embeddings.Embedder
	model     string
	dimension int
}

// New connects an Ollama-backed embedder. No request is made until the
// first Embed call.
func New(cfg Config) (*Embedder, error) {
	if cfg.Dimension <= 0 {
		return nil, errors.New("ollama: dimension must be positive")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama: init client: %w", err)
	}
	inner, err := embeddings.NewEmbedder(llm,
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama: init embedder: %w", err)
	}
	return wrap(inner, cfg.Model, cfg.Dimension), nil
}

func wrap(inner embeddings.Embedder, model string, dimension int) *Embedder {
	return &Embedder{inner: inner, model: model, dimension: dimension}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "ollama:" + e.model }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed embeds a query text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return v, nil
}

// EmbedBatch embeds document texts in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch: %w", err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("ollama embed batch: got %d vectors for %d inputs", len(out), len(texts))
	}
	return out, nil
}

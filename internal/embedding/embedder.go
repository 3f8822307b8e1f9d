// Package embedding selects and configures the text embedder.
package embedding

import (
	"context"
	"fmt"
	"time"

	"ragdocs/internal/config"
	"ragdocs/internal/domain"
	"ragdocs/internal/embedding/hashing"
	"ragdocs/internal/embedding/ollama"
	"ragdocs/internal/embedding/openai"
)

// New builds the embedder selected by cfg.Type. The result rejects vectors
// whose length differs from cfg.Dimension.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	var (
		emb domain.Embedder
		err error
	)
	switch cfg.Type {
	case config.EmbedderHashing:
		emb, err = hashing.NewEmbedder(cfg.Dimension)
	case config.EmbedderOllama, "":
		emb, err = ollama.New(ollama.Config{
			ServerURL: cfg.Ollama.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			BatchSize: cfg.BatchSize,
		})
	case config.EmbedderOpenAI:
		emb, err = openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", domain.ErrInvalidConfig, cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return Checked(emb), nil
}

// Checked wraps an embedder so that every returned vector is verified
// against its declared dimension.
func Checked(e domain.Embedder) domain.Embedder {
	if _, ok := e.(checked); ok {
		return e
	}
	return checked{e}
}

type checked struct {
	domain.Embedder
}

func (c checked) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) != c.Dimension() {
		return nil, fmt.Errorf("%s: %w: got %d, want %d", c.Name(), domain.ErrDimensionMismatch, len(v), c.Dimension())
	}
	return v, nil
}

func (c checked) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := c.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("%s: got %d vectors for %d texts", c.Name(), len(out), len(texts))
	}
	for i, v := range out {
		if len(v) != c.Dimension() {
			return nil, fmt.Errorf("%s: text %d: %w: got %d, want %d", c.Name(), i, domain.ErrDimensionMismatch, len(v), c.Dimension())
		}
	}
	return out, nil
}

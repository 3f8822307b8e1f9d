package cli

import (
	"fmt"
	"time"

	"ragdocs/internal/chunker"
	"ragdocs/internal/config"
	"ragdocs/internal/content"
	"ragdocs/internal/domain"
	"ragdocs/internal/embedding"
	"ragdocs/internal/service"
	"ragdocs/internal/vectorstore"
)

// stack holds the adapters shared by the indexer and the retriever.
type stack struct {
	cfg      *config.AppConfig
	content  *content.Client
	embedder domain.Embedder
	store    domain.VectorStore
}

func newStack(cfg *config.AppConfig) (*stack, error) {
	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	store, err := vectorstore.New(cfg.VectorStore, cfg.Embedder.Dimension)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	client := content.NewClient(content.Config{
		BaseURL:           cfg.Content.BaseURL,
		Root:              cfg.Content.Root,
		Extensions:        cfg.Content.Extensions,
		Timeout:           time.Duration(cfg.Content.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Content.RequestsPerSecond,
	}, content.WithLogger(logger.With().Str("component", "content").Logger()))

	return &stack{cfg: cfg, content: client, embedder: emb, store: store}, nil
}

func (s *stack) indexer() (*service.Indexer, error) {
	ch, err := chunker.New(s.cfg.Chunker.Size, s.cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	return service.NewIndexer(s.content, ch, s.embedder, s.store, service.IndexerOptions{
		BatchSize: s.cfg.Indexer.BatchSize,
		Workers:   s.cfg.Indexer.Workers,
	}, logger.With().Str("component", "indexer").Logger()), nil
}

func (s *stack) retriever() *service.Retriever {
	return service.NewRetriever(s.embedder, s.store, s.content, service.RetrieverOptions{
		Root:           s.cfg.Content.Root,
		DefaultLimit:   s.cfg.Retrieval.DefaultLimit,
		ScrollPageSize: s.cfg.Retrieval.ScrollPageSize,
	})
}

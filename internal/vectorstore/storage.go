// Package vectorstore selects the vector store backend.
package vectorstore

import (
	"fmt"
	"time"

	"ragdocs/internal/config"
	"ragdocs/internal/domain"
	"ragdocs/internal/vectorstore/chromem"
	"ragdocs/internal/vectorstore/memory"
	"ragdocs/internal/vectorstore/qdrant"
)

// New builds the store named by cfg.Type. dimension is the embedder's
// output size, used by backends that cannot recover it from storage.
func New(cfg config.VectorStoreConfig, dimension int) (domain.VectorStore, error) {
	switch cfg.Type {
	case config.StoreQdrant, "":
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		})
	case config.StoreMemory:
		return memory.NewStorage(), nil
	case config.StoreChromem:
		return chromem.NewStorage(chromem.Config{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			Collection: cfg.Collection,
			Dimension:  dimension,
		})
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", domain.ErrInvalidConfig, cfg.Type)
	}
}

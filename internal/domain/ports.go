package domain

import "context"

// Embedder converts free text into fixed-length vectors.
type Embedder interface {
	// Name identifies the backend and model, e.g. "ollama:all-minilm".
	Name() string

	// Dimension is the length of every vector the embedder returns.
	Dimension() int

	// Embed returns the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists points and supports similarity search and full scans
// over a single named collection.
type VectorStore interface {
	// Recreate drops the collection if it exists and creates it empty.
	Recreate(ctx context.Context, spec CollectionSpec) error

	// Upsert writes points to the collection.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to limit points ranked by similarity, best first.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)

	// Scroll returns one page of a cursor-paginated scan.
	Scroll(ctx context.Context, req ScrollRequest) (*ScrollPage, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context) (int, error)
}

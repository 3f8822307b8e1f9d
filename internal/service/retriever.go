package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"ragdocs/internal/docpath"
	"ragdocs/internal/domain"
)

// Retrieval defaults.
const (
	DefaultSearchLimit    = 5
	DefaultScrollPageSize = 256
)

// Fetcher retrieves the raw text of one document.
type Fetcher interface {
	URL(rel string) string
	Fetch(ctx context.Context, path string) (string, error)
}

// RetrieverOptions tunes the query side.
type RetrieverOptions struct {
	Root           string
	DefaultLimit   int
	ScrollPageSize int
}

// Retriever answers search, document and listing queries against whatever
// the store currently holds. It keeps no state between calls.
type Retriever struct {
	embedder     domain.Embedder
	store        domain.VectorStore
	fetcher      Fetcher
	paths        docpath.Normalizer
	defaultLimit int
	pageSize     int
}

func NewRetriever(emb domain.Embedder, store domain.VectorStore, f Fetcher, opts RetrieverOptions) *Retriever {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultSearchLimit
	}
	if opts.ScrollPageSize <= 0 {
		opts.ScrollPageSize = DefaultScrollPageSize
	}
	return &Retriever{
		embedder:     emb,
		store:        store,
		fetcher:      f,
		paths:        docpath.New(opts.Root),
		defaultLimit: opts.DefaultLimit,
		pageSize:     opts.ScrollPageSize,
	}
}

// Search returns at most limit chunks ranked by similarity to query, best
// first. A non-positive limit uses the default.
func (r *Retriever) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	points, err := r.store.Search(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, domain.SearchHit{
			Path:       p.Payload.Path,
			Score:      roundScore(p.Score),
			Content:    p.Payload.Content,
			ChunkIndex: p.Payload.ChunkIndex,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// GetDocument fetches the full text of a document. Traversal attempts fail
// with domain.ErrInvalidPath before any request is made.
func (r *Retriever) GetDocument(ctx context.Context, path string) (*domain.Document, error) {
	rel, err := r.paths.Normalize(path)
	if err != nil {
		return nil, err
	}
	text, err := r.fetcher.Fetch(ctx, rel)
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Path:    rel,
		URL:     r.fetcher.URL(rel),
		Content: text,
		Size:    len(text),
	}, nil
}

// ListDocuments scans the store for the distinct document paths and builds
// the flat and nested views. TotalChunks comes from the store's own count.
func (r *Retriever) ListDocuments(ctx context.Context) (*domain.Listing, error) {
	seen := make(map[string]struct{})
	cursor := ""
	for {
		page, err := r.store.Scroll(ctx, domain.ScrollRequest{
			Limit:  r.pageSize,
			Cursor: cursor,
			Fields: []string{domain.FieldPath},
		})
		if err != nil {
			return nil, fmt.Errorf("scroll: %w", err)
		}
		for _, p := range page.Payloads {
			seen[p.Path] = struct{}{}
		}
		if page.Next == "" {
			break
		}
		cursor = page.Next
	}

	total, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	flat := make([]string, 0, len(seen))
	for p := range seen {
		flat = append(flat, p)
	}
	sort.Strings(flat)

	return &domain.Listing{
		TotalDocuments: len(flat),
		TotalChunks:    total,
		Tree:           BuildTree(flat),
		FlatList:       flat,
	}, nil
}

// BuildTree nests paths by segment. Leaves are nil. When a name is both a
// document and a directory the directory wins.
func BuildTree(paths []string) domain.Tree {
	tree := domain.Tree{}
	for _, p := range paths {
		segs := docpath.Segments(p)
		if len(segs) == 0 {
			continue
		}
		node := tree
		for _, dir := range segs[:len(segs)-1] {
			child := node[dir]
			if child == nil {
				child = domain.Tree{}
				node[dir] = child
			}
			node = child
		}
		leaf := segs[len(segs)-1]
		if _, ok := node[leaf]; !ok {
			node[leaf] = nil
		}
	}
	return tree
}

func roundScore(s float64) float64 {
	return math.Round(s*1e4) / 1e4
}

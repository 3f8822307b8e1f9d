// Package chromem stores points in an embedded chromem-go database,
// optionally persisted to disk.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"ragdocs/internal/domain"
)

// Config configures the embedded store. An empty Path keeps everything in
// memory. Dimension is needed to scan a collection loaded from disk before
// any Recreate.
type Config struct {
	Path       string
	Compress   bool
	Collection string
	Dimension  int
}

// Storage implements domain.VectorStore on a single chromem collection.
type Storage struct {
	mu         sync.RWMutex
	db         *chromem.DB
	name       string
	collection *chromem.Collection
	dimension  int
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: chromem collection is required", domain.ErrInvalidConfig)
	}
	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: open %s: %w", cfg.Path, err)
		}
	}
	s := &Storage{db: db, name: cfg.Collection, dimension: cfg.Dimension}
	// A persisted collection is usable for queries without a rebuild.
	s.collection = db.GetCollection(cfg.Collection, nil)
	return s, nil
}

func (s *Storage) Recreate(_ context.Context, spec domain.CollectionSpec) error {
	if spec.Dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", domain.ErrInvalidConfig, spec.Dimension)
	}
	if spec.Distance != "" && spec.Distance != domain.Cosine {
		return fmt.Errorf("%w: chromem only supports cosine distance", domain.ErrInvalidConfig)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("chromem: drop collection: %w", err)
	}
	c, err := s.db.CreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("chromem: create collection: %w", err)
	}
	s.collection = c
	s.dimension = spec.Dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return fmt.Errorf("chromem: point %s: %w", p.ID, domain.ErrDimensionMismatch)
		}
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Payload.Content,
			Metadata:  toMetadata(p.Payload),
			Embedding: p.Vector,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: add documents: %w", err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredPoint, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	// chromem rejects nResults larger than the collection.
	n := min(limit, c.Count())
	if n <= 0 {
		return nil, nil
	}
	if s.dimension > 0 && len(vector) != s.dimension {
		return nil, fmt.Errorf("chromem: query: %w", domain.ErrDimensionMismatch)
	}
	res, err := c.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}
	out := make([]domain.ScoredPoint, len(res))
	for i, r := range res {
		score := float64(r.Similarity)
		// Zero vectors normalise to NaN.
		if math.IsNaN(score) {
			score = 0
		}
		out[i] = domain.ScoredPoint{ID: r.ID, Score: score, Payload: fromResult(r)}
	}
	return out, nil
}

// Scroll returns documents ordered by ID. chromem has no listing call, so
// every page queries the whole collection with a fixed probe vector and
// the cursor is the last ID returned.
func (s *Storage) Scroll(ctx context.Context, req domain.ScrollRequest) (*domain.ScrollPage, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	all, err := s.all(ctx, c)
	if err != nil {
		return nil, err
	}

	start := sort.Search(len(all), func(i int) bool { return all[i].ID > req.Cursor })
	end := len(all)
	if req.Limit > 0 && start+req.Limit < end {
		end = start + req.Limit
	}

	page := &domain.ScrollPage{Payloads: make([]domain.Chunk, 0, end-start)}
	for _, r := range all[start:end] {
		page.Payloads = append(page.Payloads, project(fromResult(r), req.Fields))
	}
	if end < len(all) {
		page.Next = all[end-1].ID
	}
	return page, nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return 0, nil
	}
	return s.collection.Count(), nil
}

func (s *Storage) current() (*chromem.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, errors.New("chromem: collection not created")
	}
	return s.collection, nil
}

func (s *Storage) all(ctx context.Context, c *chromem.Collection) ([]chromem.Result, error) {
	n := c.Count()
	if n == 0 {
		return nil, nil
	}
	if s.dimension <= 0 {
		return nil, errors.New("chromem: unknown collection dimension")
	}
	probe := make([]float32, s.dimension)
	probe[0] = 1
	res, err := c.QueryEmbedding(ctx, probe, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: scan: %w", err)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func toMetadata(c domain.Chunk) map[string]string {
	return map[string]string{
		domain.FieldPath:       c.Path,
		domain.FieldChunkIndex: strconv.Itoa(c.ChunkIndex),
		domain.FieldSourceURL:  c.SourceURL,
	}
}

func fromResult(r chromem.Result) domain.Chunk {
	idx, _ := strconv.Atoi(r.Metadata[domain.FieldChunkIndex])
	return domain.Chunk{
		Path:       r.Metadata[domain.FieldPath],
		ChunkIndex: idx,
		Content:    r.Content,
		SourceURL:  r.Metadata[domain.FieldSourceURL],
	}
}

func project(c domain.Chunk, fields []string) domain.Chunk {
	if fields == nil {
		return c
	}
	var out domain.Chunk
	for _, f := range fields {
		switch f {
		case domain.FieldPath:
			out.Path = c.Path
		case domain.FieldChunkIndex:
			out.ChunkIndex = c.ChunkIndex
		case domain.FieldContent:
			out.Content = c.Content
		case domain.FieldSourceURL:
			out.SourceURL = c.SourceURL
		}
	}
	return out
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"ragdocs/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Points keep insertion order; upserting an existing ID replaces it in place.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	ready     bool
	points    []domain.Point
	index     map[string]int
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Recreate(_ context.Context, spec domain.CollectionSpec) error {
	if spec.Dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", domain.ErrInvalidConfig, spec.Dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = spec.Dimension
	s.ready = true
	s.points = nil
	s.index = make(map[string]int)
	return nil
}

func (s *Storage) Upsert(_ context.Context, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errors.New("memory: collection not created")
	}
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("memory: point %s: %w", p.ID, domain.ErrDimensionMismatch)
		}
	}
	for _, p := range points {
		if i, ok := s.index[p.ID]; ok {
			s.points[i] = p
			continue
		}
		s.index[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float32, limit int) ([]domain.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || len(s.points) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("memory: query: %w", domain.ErrDimensionMismatch)
	}

	scored := make([]domain.ScoredPoint, len(s.points))
	for i, p := range s.points {
		scored[i] = domain.ScoredPoint{ID: p.ID, Score: cosine(p.Vector, vector), Payload: p.Payload}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > len(scored) {
		limit = len(scored)
	}
	return scored[:limit], nil
}

// Scroll pages through points in insertion order. The cursor is the
// decimal offset of the next point.
func (s *Storage) Scroll(_ context.Context, req domain.ScrollRequest) (*domain.ScrollPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if req.Cursor != "" {
		n, err := strconv.Atoi(req.Cursor)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("memory: bad cursor %q", req.Cursor)
		}
		start = n
	}
	if start > len(s.points) {
		start = len(s.points)
	}
	end := len(s.points)
	if req.Limit > 0 && start+req.Limit < end {
		end = start + req.Limit
	}

	page := &domain.ScrollPage{Payloads: make([]domain.Chunk, 0, end-start)}
	for _, p := range s.points[start:end] {
		page.Payloads = append(page.Payloads, project(p.Payload, req.Fields))
	}
	if end < len(s.points) {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// project keeps only the named payload fields; nil keeps all of them.
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

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

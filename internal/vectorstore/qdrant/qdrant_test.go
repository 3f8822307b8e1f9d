package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdocs/internal/domain"
)

// fakeQdrant keeps one collection's points in memory and answers the
// subset of the REST API the client uses.
type fakeQdrant struct {
	mu      sync.Mutex
	exists  bool
	size    int
	points  []point
	apiKeys []string
	calls   []string
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.URL.Path == "/collections/docs" && r.Method == http.MethodDelete:
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		f.exists, f.points = false, nil
		writeJSON(w, map[string]any{"result": true})

	case r.URL.Path == "/collections/docs" && r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Vectors.Distance != "Cosine" {
			http.Error(w, "bad distance", http.StatusBadRequest)
			return
		}
		f.exists, f.size = true, body.Vectors.Size
		writeJSON(w, map[string]any{"result": true})

	case r.URL.Path == "/collections/docs" && r.Method == http.MethodGet:
		writeJSON(w, map[string]any{"result": map[string]any{"points_count": len(f.points)}})

	case r.URL.Path == "/collections/docs/points" && r.Method == http.MethodPut:
		var body struct {
			Points []point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points = append(f.points, body.Points...)
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})

	case r.URL.Path == "/collections/docs/points/query" && r.Method == http.MethodPost:
		var body struct {
			Query []float32 `json:"query"`
			Limit int       `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Query) != f.size {
			http.Error(w, `{"status":{"error":"Wrong input: Vector dimension error"}}`, http.StatusBadRequest)
			return
		}
		var hits []map[string]any
		for i, p := range f.points {
			if i >= body.Limit {
				break
			}
			hits = append(hits, map[string]any{"id": p.ID, "score": 1.0 - float64(i)/10, "payload": p.Payload})
		}
		writeJSON(w, map[string]any{"result": map[string]any{"points": hits}})

	case r.URL.Path == "/collections/docs/points/scroll":
		var body struct {
			Limit  int `json:"limit"`
			Offset *int `json:"offset"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		start := 0
		if body.Offset != nil {
			start = *body.Offset
		}
		end := start + body.Limit
		var next any
		if end < len(f.points) {
			next = end
		} else {
			end = len(f.points)
		}
		var pts []map[string]any
		for _, p := range f.points[start:end] {
			pts = append(pts, map[string]any{"id": p.ID, "payload": map[string]any{"path": p.Payload.Path}})
		}
		writeJSON(w, map[string]any{"result": map[string]any{"points": pts, "next_page_offset": next}})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestStorage(t *testing.T) (*Storage, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewStorage(Config{URL: srv.URL + "/", APIKey: "k", Collection: "docs"})
	require.NoError(t, err)
	return s, fake
}

func testPoints(n int) []domain.Point {
	pts := make([]domain.Point, n)
	for i := range pts {
		pts[i] = domain.Point{
			ID:     "id-" + strconv.Itoa(i),
			Vector: []float32{1, 0},
			Payload: domain.Chunk{
				Path:       "doc" + strconv.Itoa(i) + ".md",
				ChunkIndex: i,
				Content:    "text " + strconv.Itoa(i),
				SourceURL:  "http://nginx/docs/doc" + strconv.Itoa(i) + ".md",
			},
		}
	}
	return pts
}

func TestNewStorage_RequiresURLAndCollection(t *testing.T) {
	_, err := NewStorage(Config{Collection: "docs"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, err = NewStorage(Config{URL: "http://q"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRecreate_IgnoresMissingCollection(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Recreate(ctx, domain.CollectionSpec{Dimension: 2, Distance: domain.Cosine}))
	assert.True(t, fake.exists)
	assert.Equal(t, 2, fake.size)
	assert.Equal(t, []string{"DELETE /collections/docs", "PUT /collections/docs"}, fake.calls)
	for _, k := range fake.apiKeys {
		assert.Equal(t, "k", k)
	}
}

func TestRecreate_DropsExistingPoints(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()
	spec := domain.CollectionSpec{Dimension: 2}

	require.NoError(t, s.Recreate(ctx, spec))
	require.NoError(t, s.Upsert(ctx, testPoints(3)))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.Recreate(ctx, spec))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecreate_RejectsZeroDimension(t *testing.T) {
	s, fake := newTestStorage(t)
	err := s.Recreate(context.Background(), domain.CollectionSpec{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Empty(t, fake.calls)
}

func TestSearch_DecodesPayload(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Recreate(ctx, domain.CollectionSpec{Dimension: 2}))
	require.NoError(t, s.Upsert(ctx, testPoints(4)))

	hits, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "id-0", hits[0].ID)
	assert.Equal(t, 1.0, hits[0].Score)
	assert.Equal(t, domain.Chunk{
		Path:       "doc0.md",
		ChunkIndex: 0,
		Content:    "text 0",
		SourceURL:  "http://nginx/docs/doc0.md",
	}, hits[0].Payload)
	assert.Equal(t, 1, hits[1].Payload.ChunkIndex)
}

func TestSearch_UsesQueryAPI(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Recreate(ctx, domain.CollectionSpec{Dimension: 2}))
	require.NoError(t, s.Upsert(ctx, testPoints(1)))

	_, err := s.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Contains(t, fake.calls, "POST /collections/docs/points/query")
	assert.NotContains(t, fake.calls, "POST /collections/docs/points/search")

	_, err = s.Search(ctx, []float32{1, 0, 0}, 1)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestScroll_FollowsCursor(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Recreate(ctx, domain.CollectionSpec{Dimension: 2}))
	require.NoError(t, s.Upsert(ctx, testPoints(5)))

	var paths []string
	cursor := ""
	pages := 0
	for {
		page, err := s.Scroll(ctx, domain.ScrollRequest{Limit: 2, Cursor: cursor, Fields: []string{domain.FieldPath}})
		require.NoError(t, err)
		pages++
		for _, p := range page.Payloads {
			paths = append(paths, p.Path)
			assert.Empty(t, p.Content)
		}
		if page.Next == "" {
			break
		}
		cursor = page.Next
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"doc0.md", "doc1.md", "doc2.md", "doc3.md", "doc4.md"}, paths)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := NewStorage(Config{URL: srv.URL, Collection: "docs"})
	require.NoError(t, err)

	_, err = s.Count(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Body)
}

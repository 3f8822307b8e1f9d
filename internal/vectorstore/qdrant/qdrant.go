// Package qdrant is a minimal REST client for one Qdrant collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ragdocs/internal/domain"
)

// Config configures the Qdrant client.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Storage implements domain.VectorStore against the Qdrant HTTP API.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", domain.ErrInvalidConfig)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant collection is required", domain.ErrInvalidConfig)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Recreate drops the collection, ignoring a missing one, and creates it
// with the given vector size and distance.
func (s *Storage) Recreate(ctx context.Context, spec domain.CollectionSpec) error {
	if spec.Dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", domain.ErrInvalidConfig, spec.Dimension)
	}
	distance := spec.Distance
	if distance == "" {
		distance = domain.Cosine
	}

	err := s.do(ctx, http.MethodDelete, s.collectionPath(), nil, nil)
	var se *StatusError
	if err != nil && !(errors.As(err, &se) && se.StatusCode == http.StatusNotFound) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimension,
			"distance": string(distance),
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionPath(), body, nil)
}

type point struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload domain.Chunk `json:"payload"`
}

func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, len(points))}
	for i, p := range points {
		body.Points[i] = point{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return s.do(ctx, http.MethodPut, s.collectionPath()+"/points?wait=true", body, nil)
}

// Search runs a nearest-neighbour query through the universal query API
// (Qdrant 1.10+).
func (s *Storage) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredPoint, error) {
	if limit <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"query":        vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result struct {
			Points []struct {
				ID      json.RawMessage `json:"id"`
				Score   float64         `json:"score"`
				Payload domain.Chunk    `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath()+"/points/query", req, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.ScoredPoint, 0, len(resp.Result.Points))
	for _, r := range resp.Result.Points {
		out = append(out, domain.ScoredPoint{ID: pointID(r.ID), Score: r.Score, Payload: r.Payload})
	}
	return out, nil
}

// Scroll pages through the collection. The cursor is Qdrant's
// next_page_offset, kept as raw JSON so that both integer and UUID ids
// round-trip.
func (s *Storage) Scroll(ctx context.Context, req domain.ScrollRequest) (*domain.ScrollPage, error) {
	body := map[string]any{
		"limit":       req.Limit,
		"with_vector": false,
	}
	if req.Fields != nil {
		body["with_payload"] = req.Fields
	} else {
		body["with_payload"] = true
	}
	if req.Cursor != "" {
		body["offset"] = json.RawMessage(req.Cursor)
	}

	var resp struct {
		Result struct {
			Points []struct {
				Payload domain.Chunk `json:"payload"`
			} `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath()+"/points/scroll", body, &resp); err != nil {
		return nil, err
	}

	page := &domain.ScrollPage{Payloads: make([]domain.Chunk, 0, len(resp.Result.Points))}
	for _, p := range resp.Result.Points {
		page.Payloads = append(page.Payloads, p.Payload)
	}
	if next := bytes.TrimSpace(resp.Result.NextPageOffset); len(next) > 0 && string(next) != "null" {
		page.Next = string(next)
	}
	return page, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.collectionPath(), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Result.PointsCount, nil
}

func (s *Storage) collectionPath() string {
	return "/collections/" + url.PathEscape(s.collection)
}

func (s *Storage) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant %s %s: encode: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("qdrant %s %s: decode: %w", method, path, err)
	}
	return nil
}

func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Package content talks to the HTTP server that lists and serves the raw
// documents (an nginx JSON autoindex in the reference deployment).
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ragdocs/internal/docpath"
	"ragdocs/internal/domain"
)

// DefaultTimeout bounds every listing and document request.
const DefaultTimeout = 10 * time.Second

// Entry types reported by the listing endpoint.
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Root       string
	Extensions []string
	Timeout    time.Duration

	// RequestsPerSecond throttles requests when positive.
	RequestsPerSecond float64
}

// Client crawls directory listings and fetches documents.
type Client struct {
	baseURL    string
	paths      docpath.Normalizer
	extensions []string
	client     *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger used for crawl progress.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a content Client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{".md"}
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		paths:      docpath.New(cfg.Root),
		extensions: exts,
		client:     &http.Client{Timeout: timeout},
		log:        zerolog.Nop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the listing path discovery starts from.
func (c *Client) Root() string { return c.paths.Root() }

// URL returns the fully qualified retrieval URL of a relative document path.
func (c *Client) URL(rel string) string {
	return c.baseURL + escapePath(c.paths.ListingPath(rel))
}

// Discover walks the listing tree below root depth-first, in listing order,
// and returns the listing paths of every recognised document. Any failed
// listing aborts the walk with a *domain.CrawlError.
func (c *Client) Discover(ctx context.Context, root string) ([]string, error) {
	if root == "" {
		root = c.Root()
	}
	var out []string
	if err := c.walk(ctx, root, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) walk(ctx context.Context, dir string, out *[]string) error {
	entries, err := c.list(ctx, dir)
	if err != nil {
		return &domain.CrawlError{Path: dir, Err: err}
	}
	c.log.Debug().Str("path", dir).Int("entries", len(entries)).Msg("listed directory")

	for _, e := range entries {
		switch {
		case e.Type == TypeDirectory:
			if err := c.walk(ctx, dir+e.Name+"/", out); err != nil {
				return err
			}
		case e.Type == TypeFile && c.recognised(e.Name):
			*out = append(*out, dir+e.Name)
		}
	}
	return nil
}

func (c *Client) recognised(name string) bool {
	for _, ext := range c.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (c *Client) list(ctx context.Context, dir string) ([]Entry, error) {
	resp, err := c.get(ctx, dir, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("listing %s: unexpected status %s", dir, resp.Status)
	}
	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", dir, err)
	}
	return entries, nil
}

// Fetch retrieves the raw text of a document. path may be a listing path or
// a relative document path. Failures are reported as *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, path string) (string, error) {
	rel, err := c.paths.Normalize(path)
	if err != nil {
		return "", err
	}
	u := c.URL(rel)

	resp, err := c.get(ctx, c.paths.ListingPath(rel), "")
	if err != nil {
		return "", &domain.FetchError{Path: rel, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", &domain.FetchError{Path: rel, URL: u, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.FetchError{Path: rel, URL: u, Err: err}
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, path, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+escapePath(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return c.client.Do(req)
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

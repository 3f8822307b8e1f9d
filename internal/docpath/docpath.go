// Package docpath canonicalises document paths shared by the indexer and the
// retrieval tools.
package docpath

import (
	"fmt"
	"strings"

	"ragdocs/internal/domain"
)

// DefaultRoot is the listing prefix under which documents are served.
const DefaultRoot = "/docs/"

// Normalizer turns raw listing or caller paths into relative document paths.
type Normalizer struct {
	root string
}

// New returns a Normalizer stripping root. An empty root uses DefaultRoot.
func New(root string) Normalizer {
	if root == "" {
		root = DefaultRoot
	}
	return Normalizer{root: root}
}

// Root returns the listing prefix, always with leading and trailing slashes.
func (n Normalizer) Root() string {
	return "/" + strings.Trim(n.root, "/") + "/"
}

// Normalize strips the root prefix and leading slashes and rejects any path
// containing a ".." segment. An empty result is rejected.
func (n Normalizer) Normalize(raw string) (string, error) {
	p, err := n.NormalizeOptional(raw)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidPath)
	}
	return p, nil
}

// NormalizeOptional is Normalize but accepts an empty result.
func (n Normalizer) NormalizeOptional(raw string) (string, error) {
	p := raw
	root := n.Root()
	if strings.HasPrefix(p, root) {
		p = strings.TrimPrefix(p, root)
	}
	p = strings.TrimLeft(p, "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: path traversal not allowed: %q", domain.ErrInvalidPath, raw)
		}
	}
	return p, nil
}

// ListingPath returns the server-side path of a relative document path.
func (n Normalizer) ListingPath(rel string) string {
	return n.Root() + strings.TrimLeft(rel, "/")
}

// Segments splits a document path into tree levels. The last segment is the
// document name; the others are directories. Empty segments from doubled
// slashes are dropped.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

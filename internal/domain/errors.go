package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath indicates a traversal attempt or a malformed document path.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidConfig indicates unusable configuration, such as a chunk
	// overlap that is not smaller than the chunk size.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// collection or embedder dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// CrawlError reports a failed directory listing. It aborts a rebuild.
type CrawlError struct {
	Path string
	Err  error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl %s: %v", e.Path, e.Err)
}

func (e *CrawlError) Unwrap() error { return e.Err }

// FetchError reports a failed document retrieval. StatusCode is zero when
// the request never produced a response.
type FetchError struct {
	Path       string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

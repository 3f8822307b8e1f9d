package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlError(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("rebuild: %w", &CrawlError{Path: "/docs/sub/", Err: inner})

	var crawlErr *CrawlError
	assert.True(t, errors.As(err, &crawlErr))
	assert.Equal(t, "/docs/sub/", crawlErr.Path)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "crawl /docs/sub/: connection refused")
}

func TestFetchError(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := &FetchError{Path: "a.md", URL: "http://nginx/docs/a.md", StatusCode: 404}
		assert.Equal(t, "fetch a.md: unexpected status 404", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		inner := errors.New("timeout")
		err := &FetchError{Path: "a.md", Err: inner}
		assert.Equal(t, "fetch a.md: timeout", err.Error())
		assert.ErrorIs(t, err, inner)
	})
}

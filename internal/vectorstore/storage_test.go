package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdocs/internal/config"
	"ragdocs/internal/domain"
	"ragdocs/internal/vectorstore/chromem"
	"ragdocs/internal/vectorstore/memory"
	"ragdocs/internal/vectorstore/qdrant"
)

func TestNew(t *testing.T) {
	base := config.Default().VectorStore

	q, err := New(base, 384)
	require.NoError(t, err)
	assert.IsType(t, &qdrant.Storage{}, q)

	base.Type = config.StoreMemory
	m, err := New(base, 384)
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, m)

	base.Type = config.StoreChromem
	c, err := New(base, 384)
	require.NoError(t, err)
	assert.IsType(t, &chromem.Storage{}, c)

	base.Type = "faiss"
	_, err = New(base, 384)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

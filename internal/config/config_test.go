package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdocs/internal/domain"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://nginx", cfg.Content.BaseURL)
	assert.Equal(t, "/docs/", cfg.Content.Root)
	assert.Equal(t, []string{".md"}, cfg.Content.Extensions)
	assert.Equal(t, EmbedderOllama, cfg.Embedder.Type)
	assert.Equal(t, "all-minilm", cfg.Embedder.Model)
	assert.Equal(t, 384, cfg.Embedder.Dimension)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, StoreQdrant, cfg.VectorStore.Type)
	assert.Equal(t, "docs", cfg.VectorStore.Collection)
	assert.Equal(t, "http://qdrant:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, 100, cfg.Indexer.BatchSize)
	assert.Equal(t, 5, cfg.Retrieval.DefaultLimit)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
content:
  base_url: http://docs.internal
embedder:
  type: openai
  dimension: 1536
chunker:
  size: 200
  overlap: 20
vector_store:
  type: memory
  collection: kb
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://docs.internal", cfg.Content.BaseURL)
	assert.Equal(t, EmbedderOpenAI, cfg.Embedder.Type)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 1536, cfg.Embedder.Dimension)
	assert.Equal(t, 200, cfg.Chunker.Size)
	assert.Equal(t, 20, cfg.Chunker.Overlap)
	assert.Equal(t, StoreMemory, cfg.VectorStore.Type)
	assert.Equal(t, "kb", cfg.VectorStore.Collection)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("content: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NGINX_BASE_URL", "http://files:8080")
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("QDRANT_API_KEY", "secret")
	t.Setenv("COLLECTION_NAME", "manuals")
	t.Setenv("VECTOR_DIM", "768")
	t.Setenv("CHUNK_SIZE", "1000")
	t.Setenv("CHUNK_OVERLAP", "100")
	t.Setenv("MCP_PORT", "9000")
	t.Setenv("EMBEDDER_TYPE", "hashing")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://files:8080", cfg.Content.BaseURL)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "secret", cfg.VectorStore.Qdrant.APIKey)
	assert.Equal(t, "manuals", cfg.VectorStore.Collection)
	assert.Equal(t, 768, cfg.Embedder.Dimension)
	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, EmbedderHashing, cfg.Embedder.Type)
}

func TestLoad_ChunkOverlapDefault(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yml         string
		wantSize    int
		wantOverlap int
	}{
		{"defaults", nil, "", 500, 50},
		{"size from env keeps default overlap", map[string]string{"CHUNK_SIZE": "1000"}, "", 1000, 50},
		{"explicit zero overlap from env", map[string]string{"CHUNK_SIZE": "500", "CHUNK_OVERLAP": "0"}, "", 500, 0},
		{"size from file keeps default overlap", nil, "chunker:\n  size: 800\n", 800, 50},
		{"explicit zero overlap from file", nil, "chunker:\n  size: 500\n  overlap: 0\n", 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.yaml")
			if tt.yml != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.yml), 0o644))
			}

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, cfg.Chunker.Size)
			assert.Equal(t, tt.wantOverlap, cfg.Chunker.Overlap)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoad_DefaultOverlapTooLargeForSize(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "40")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
}

func TestLoad_EnvNotAnInteger(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "large")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"overlap equals size", func(c *AppConfig) { c.Chunker.Overlap = c.Chunker.Size }},
		{"negative overlap", func(c *AppConfig) { c.Chunker.Overlap = -1 }},
		{"zero dimension", func(c *AppConfig) { c.Embedder.Dimension = 0 }},
		{"unknown embedder", func(c *AppConfig) { c.Embedder.Type = "bert" }},
		{"unknown store", func(c *AppConfig) { c.VectorStore.Type = "pinecone" }},
		{"empty collection", func(c *AppConfig) { c.VectorStore.Collection = "" }},
		{"empty base url", func(c *AppConfig) { c.Content.BaseURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.VectorStore.Type = StoreChromem
	cfg.VectorStore.Chromem.Path = "/var/lib/ragdocs"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

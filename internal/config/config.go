package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ragdocs/internal/domain"
)

// Backend identifiers.
const (
	EmbedderOllama  = "ollama"
	EmbedderOpenAI  = "openai"
	EmbedderHashing = "hashing"

	StoreQdrant  = "qdrant"
	StoreMemory  = "memory"
	StoreChromem = "chromem"
)

// ContentConfig points at the server that lists and serves documents.
type ContentConfig struct {
	BaseURL           string   `yaml:"base_url"`
	Root              string   `yaml:"root"`
	Extensions        []string `yaml:"extensions"`
	TimeoutSecs       int      `yaml:"timeout_secs"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
}

// OllamaConfig holds connection details for an Ollama server.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string               `yaml:"type"`
	Model     string               `yaml:"model"`
	Dimension int                  `yaml:"dimension"`
	BatchSize int                  `yaml:"batch_size"`
	Ollama    OllamaConfig         `yaml:"ollama"`
	OpenAI    OpenAIEmbedderConfig `yaml:"openai"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string        `yaml:"type"`
	Collection string        `yaml:"collection"`
	Qdrant     QdrantConfig  `yaml:"qdrant"`
	Chromem    ChromemConfig `yaml:"chromem"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChromemConfig configures the embedded chromem-go store. An empty Path
// keeps the collection in memory.
type ChromemConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// IndexerConfig tunes the rebuild pipeline.
type IndexerConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// RetrievalConfig tunes the query side.
type RetrievalConfig struct {
	DefaultLimit   int `yaml:"default_limit"`
	ScrollPageSize int `yaml:"scroll_page_size"`
}

// ServerConfig configures the MCP listener.
type ServerConfig struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Content     ContentConfig     `yaml:"content"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Indexer     IndexerConfig     `yaml:"indexer"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path, applies environment overrides
// and then fills unset fields with defaults. A missing file is not an error.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	// An explicit overlap of 0 is valid, so presence is tracked separately.
	var explicit struct {
		Chunker struct {
			Overlap *int `yaml:"overlap"`
		} `yaml:"chunker"`
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &explicit); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	overlapSet := explicit.Chunker.Overlap != nil
	if v, ok := os.LookupEnv("CHUNK_OVERLAP"); ok && v != "" {
		overlapSet = true
	}
	applyConfigDefaults(cfg, overlapSet)
	return cfg, nil
}

// LoadDefault loads .env if present, then ./config.yaml if present, then
// ~/.config/ragdocs/config.yaml. Without either file the defaults apply.
func LoadDefault() (*AppConfig, string, error) {
	_ = godotenv.Load()

	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err == nil {
		if _, statErr := os.Stat(userPath); statErr == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	cfg, err := Load("")
	return cfg, "", err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports unusable settings as domain.ErrInvalidConfig.
func (c *AppConfig) Validate() error {
	var problems []string
	if c.Chunker.Size <= 0 || c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		problems = append(problems, fmt.Sprintf("chunk overlap %d must be in [0, size %d)", c.Chunker.Overlap, c.Chunker.Size))
	}
	if c.Embedder.Dimension <= 0 {
		problems = append(problems, "embedder dimension must be positive")
	}
	switch c.Embedder.Type {
	case EmbedderOllama, EmbedderOpenAI, EmbedderHashing:
	default:
		problems = append(problems, fmt.Sprintf("unknown embedder %q", c.Embedder.Type))
	}
	switch c.VectorStore.Type {
	case StoreQdrant, StoreMemory, StoreChromem:
	default:
		problems = append(problems, fmt.Sprintf("unknown vector store %q", c.VectorStore.Type))
	}
	if c.VectorStore.Collection == "" {
		problems = append(problems, "collection name is required")
	}
	if c.Content.BaseURL == "" {
		problems = append(problems, "content base_url is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the MCP listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragdocs", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg, false)
	return cfg
}

// applyConfigDefaults fills zero fields. The chunk overlap is defaulted only
// when overlapSet is false, independently of the chunk size.
func applyConfigDefaults(cfg *AppConfig, overlapSet bool) {
	setString(&cfg.Content.BaseURL, "http://nginx")
	setString(&cfg.Content.Root, "/docs/")
	if len(cfg.Content.Extensions) == 0 {
		cfg.Content.Extensions = []string{".md"}
	}
	setInt(&cfg.Content.TimeoutSecs, 10)

	setString(&cfg.Embedder.Type, EmbedderOllama)
	switch cfg.Embedder.Type {
	case EmbedderOpenAI:
		setString(&cfg.Embedder.Model, "text-embedding-3-small")
		setString(&cfg.Embedder.OpenAI.BaseURL, "https://api.openai.com/v1")
		setString(&cfg.Embedder.OpenAI.APIKeyEnv, "OPENAI_API_KEY")
		setInt(&cfg.Embedder.OpenAI.TimeoutSecs, 30)
	default:
		setString(&cfg.Embedder.Model, "all-minilm")
	}
	setInt(&cfg.Embedder.Dimension, 384)
	setInt(&cfg.Embedder.BatchSize, 64)
	setString(&cfg.Embedder.Ollama.BaseURL, "http://ollama:11434")

	setInt(&cfg.Chunker.Size, 500)
	if !overlapSet {
		cfg.Chunker.Overlap = 50
	}

	setString(&cfg.VectorStore.Type, StoreQdrant)
	setString(&cfg.VectorStore.Collection, "docs")
	setString(&cfg.VectorStore.Qdrant.URL, "http://qdrant:6333")
	setInt(&cfg.VectorStore.Qdrant.TimeoutSecs, 30)

	setInt(&cfg.Indexer.BatchSize, 100)
	setInt(&cfg.Indexer.Workers, 1)

	setInt(&cfg.Retrieval.DefaultLimit, 5)
	setInt(&cfg.Retrieval.ScrollPageSize, 256)

	setString(&cfg.Server.Name, "rag-docs")
	setString(&cfg.Server.Host, "0.0.0.0")
	setInt(&cfg.Server.Port, 8000)

	setString(&cfg.Log.Level, "info")
	setString(&cfg.Log.Format, "console")
}

// applyEnv overrides file settings with the deployment environment.
func applyEnv(cfg *AppConfig) error {
	strs := map[string]*string{
		"NGINX_BASE_URL":    &cfg.Content.BaseURL,
		"QDRANT_URL":        &cfg.VectorStore.Qdrant.URL,
		"QDRANT_API_KEY":    &cfg.VectorStore.Qdrant.APIKey,
		"COLLECTION_NAME":   &cfg.VectorStore.Collection,
		"VECTOR_STORE_TYPE": &cfg.VectorStore.Type,
		"EMBEDDER_TYPE":     &cfg.Embedder.Type,
		"EMBEDDING_MODEL":   &cfg.Embedder.Model,
		"OLLAMA_BASE_URL":   &cfg.Embedder.Ollama.BaseURL,
		"MCP_HOST":          &cfg.Server.Host,
		"LOG_LEVEL":         &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"VECTOR_DIM":    &cfg.Embedder.Dimension,
		"CHUNK_SIZE":    &cfg.Chunker.Size,
		"CHUNK_OVERLAP": &cfg.Chunker.Overlap,
		"MCP_PORT":      &cfg.Server.Port,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidConfig, key, v)
		}
		*dst = n
	}
	return nil
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

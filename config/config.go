// Package config loads pipeline configuration from YAML with sensible
// defaults and environment fallback for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers and vector backends selectable by configuration.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	VectorMemory    = "memory"
	VectorSQLiteVec = "sqlitevec"

	EmbedOpenAI = "openai"
	EmbedOllama = "ollama"
	EmbedLocal  = "local"
)

// OpenAI holds API client settings.
type OpenAI struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	ChatModel      string  `yaml:"chat_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Dimensions     int     `yaml:"dimensions"`
	Temperature    float64 `yaml:"temperature"`
}

// Pipeline holds orchestration settings.
type Pipeline struct {
	BatchSize    int `yaml:"batch_size"`
	Workers      int `yaml:"workers"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// Duration decodes YAML durations given either as strings accepted by
// time.ParseDuration ("24h") or as a number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err == nil {
		parsed, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", text, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Cache holds cache bounds.
type Cache struct {
	Capacity     int      `yaml:"capacity"`
	EmbeddingTTL Duration `yaml:"embedding_ttl"`
}

// Embedder selects the embedding provider.
type Embedder struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
}

// Store selects and configures the document store backend.
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Vector selects and configures the vector index backend.
type Vector struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

// Config is the full pipeline configuration.
type Config struct {
	OpenAI   OpenAI   `yaml:"openai"`
	Embedder Embedder `yaml:"embedder"`
	Pipeline Pipeline `yaml:"pipeline"`
	Cache    Cache    `yaml:"cache"`
	Store    Store    `yaml:"store"`
	Vector   Vector   `yaml:"vector"`
	DataDir  string   `yaml:"data_dir"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		OpenAI: OpenAI{
			ChatModel:      "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Dimensions:     1536,
			Temperature:    0.3,
		},
		Pipeline: Pipeline{
			BatchSize:    3,
			Workers:      3,
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Cache: Cache{
			Capacity:     1000,
			EmbeddingTTL: Duration(24 * time.Hour),
		},
		Embedder: Embedder{Provider: EmbedOpenAI},
		Store:    Store{Driver: StoreMemory},
		Vector:   Vector{Backend: VectorMemory},
		DataDir:  os.TempDir(),
	}
}

// Load reads configuration from path, layered over defaults. An empty
// path returns the defaults. OPENAI_API_KEY fills in a missing api_key.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend selections and numeric bounds.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store: sqlite driver requires a dsn")
		}
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}
	switch c.Vector.Backend {
	case VectorMemory:
	case VectorSQLiteVec:
		if c.Vector.DSN == "" {
			return fmt.Errorf("vector: sqlitevec backend requires a dsn")
		}
	default:
		return fmt.Errorf("vector: unknown backend %q", c.Vector.Backend)
	}
	switch c.Embedder.Provider {
	case EmbedOpenAI, EmbedOllama, EmbedLocal:
	default:
		return fmt.Errorf("embedder: unknown provider %q", c.Embedder.Provider)
	}
	if c.Pipeline.BatchSize <= 0 || c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline: batch_size and workers must be positive")
	}
	if c.Pipeline.ChunkOverlap < 0 || c.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("pipeline: chunk_size must be positive and chunk_overlap non-negative")
	}
	return nil
}

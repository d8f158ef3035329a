package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.BatchSize != 3 || cfg.Pipeline.Workers != 3 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.OpenAI.Dimensions != 1536 {
		t.Fatalf("unexpected dimensions: %d", cfg.OpenAI.Dimensions)
	}
	if cfg.Cache.EmbeddingTTL.Std() != 24*time.Hour {
		t.Fatalf("unexpected embedding ttl: %v", cfg.Cache.EmbeddingTTL)
	}
	if cfg.Store.Driver != StoreMemory || cfg.Vector.Backend != VectorMemory {
		t.Fatalf("unexpected backends: %+v %+v", cfg.Store, cfg.Vector)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
openai:
  chat_model: gpt-4o
pipeline:
  batch_size: 5
cache:
  embedding_ttl: 12h
store:
  driver: sqlite
  dsn: /tmp/gov.db
vector:
  backend: sqlitevec
  dsn: /tmp/vec.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Fatalf("override not applied: %q", cfg.OpenAI.ChatModel)
	}
	if cfg.Pipeline.BatchSize != 5 || cfg.Pipeline.Workers != 3 {
		t.Fatalf("expected partial override to keep defaults: %+v", cfg.Pipeline)
	}
	if cfg.Store.Driver != StoreSQLite || cfg.Vector.Backend != VectorSQLiteVec {
		t.Fatalf("backend overrides not applied: %+v %+v", cfg.Store, cfg.Vector)
	}
	if cfg.Cache.EmbeddingTTL.Std() != 12*time.Hour {
		t.Fatalf("duration override not applied: %v", cfg.Cache.EmbeddingTTL)
	}
}

func TestLoad_APIKeyEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("expected env fallback, got %q", cfg.OpenAI.APIKey)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		description string
		mutate      func(*Config)
	}{
		{description: "unknown store driver", mutate: func(c *Config) { c.Store.Driver = "postgres" }},
		{description: "sqlite without dsn", mutate: func(c *Config) { c.Store.Driver = StoreSQLite }},
		{description: "unknown vector backend", mutate: func(c *Config) { c.Vector.Backend = "faiss" }},
		{description: "sqlitevec without dsn", mutate: func(c *Config) { c.Vector.Backend = VectorSQLiteVec }},
		{description: "zero batch size", mutate: func(c *Config) { c.Pipeline.BatchSize = 0 }},
		{description: "negative overlap", mutate: func(c *Config) { c.Pipeline.ChunkOverlap = -1 }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.description)
		}
	}
}

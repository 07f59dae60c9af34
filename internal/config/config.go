// Package config loads the application configuration from YAML, applying
// defaults for anything left out. API keys are never stored in the file;
// the config names the environment variable holding them.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the OpenAI-compatible completion/embedding client.
type LLMConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	CompletionModel string `yaml:"completion_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// WarehouseConfig configures the relational store holding structured data.
type WarehouseConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	SchemaFile string `yaml:"schema_file"`
}

// QdrantConfig contains connection details for a Qdrant chunk store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChromemConfig configures the embedded persistent chunk store.
type ChromemConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// PgvectorConfig configures the PostgreSQL/pgvector chunk store.
type PgvectorConfig struct {
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
	Dimension int    `yaml:"dimension"`
}

// VectorStoreConfig selects and configures the chunk store backend.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"` // memory | chromem | qdrant | pgvector
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Chromem  *ChromemConfig  `yaml:"chromem,omitempty"`
	Pgvector *PgvectorConfig `yaml:"pgvector,omitempty"`
}

// RetrievalConfig configures the document retrieval path.
type RetrievalConfig struct {
	TopK              int `yaml:"top_k"`
	SentencesPerChunk int `yaml:"sentences_per_chunk"`
	OverlapSentences  int `yaml:"overlap_sentences"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	LLM         LLMConfig         `yaml:"llm"`
	Warehouse   WarehouseConfig   `yaml:"warehouse"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Server      ServerConfig      `yaml:"server"`
}

// Load reads a config from the given path. A missing file yields the
// defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 30
	}
	if cfg.Warehouse.Driver == "" {
		cfg.Warehouse.Driver = "sqlite"
	}
	if cfg.Warehouse.DSN == "" {
		cfg.Warehouse.DSN = "warehouse.db"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "chromem" {
		if cfg.VectorStore.Chromem == nil {
			cfg.VectorStore.Chromem = &ChromemConfig{}
		}
		if cfg.VectorStore.Chromem.Path == "" {
			cfg.VectorStore.Chromem.Path = "chunks.gob"
		}
		if cfg.VectorStore.Chromem.Collection == "" {
			cfg.VectorStore.Chromem.Collection = "knowledge-base"
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SentencesPerChunk == 0 {
		cfg.Retrieval.SentencesPerChunk = 5
	}
	if cfg.Retrieval.OverlapSentences == 0 {
		cfg.Retrieval.OverlapSentences = 1
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}

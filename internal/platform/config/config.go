package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline holds the tunables of the ingestion/retrieval/generation pipeline.
// Loaded from a YAML file; every field has a safe default so the file is
// optional in dev and tests.
type Pipeline struct {
	Chunking   Chunking   `yaml:"chunking"`
	Embeddings Embeddings `yaml:"embeddings"`
	Retrieval  Retrieval  `yaml:"retrieval"`
	Generation Generation `yaml:"generation"`
	Ingestion  Ingestion  `yaml:"ingestion"`
}

type Chunking struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type Embeddings struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

type Retrieval struct {
	TopK   int `yaml:"top_k"`
	FetchK int `yaml:"fetch_k"`
}

type Generation struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	// Expansions is how many query variants are generated from a quiz
	// scope before retrieval.
	Expansions  int `yaml:"expansions"`
	MaxAttempts int `yaml:"max_attempts"`
}

type Ingestion struct {
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
	Concurrency      int   `yaml:"concurrency"`
}

func Default() Pipeline {
	return Pipeline{
		Chunking:   Chunking{Size: 1200, Overlap: 200},
		Embeddings: Embeddings{Model: "text-embedding-3-small", Dimension: 1536, BatchSize: 64},
		Retrieval:  Retrieval{TopK: 10, FetchK: 20},
		Generation: Generation{Model: "gpt-4o-mini", Temperature: 0.2, Expansions: 4, MaxAttempts: 3},
		Ingestion:  Ingestion{MaxFileSizeBytes: 50 << 20, Concurrency: 2},
	}
}

// Load reads path and overlays it on the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Pipeline, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read pipeline config: %w", err)
	}
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("parse pipeline config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (p *Pipeline) normalize() {
	d := Default()
	if p.Chunking.Size <= 0 {
		p.Chunking.Size = d.Chunking.Size
	}
	if p.Chunking.Overlap < 0 {
		p.Chunking.Overlap = d.Chunking.Overlap
	}
	if p.Embeddings.Model == "" {
		p.Embeddings.Model = d.Embeddings.Model
	}
	if p.Embeddings.Dimension <= 0 {
		p.Embeddings.Dimension = d.Embeddings.Dimension
	}
	if p.Embeddings.BatchSize <= 0 {
		p.Embeddings.BatchSize = d.Embeddings.BatchSize
	}
	if p.Retrieval.TopK <= 0 {
		p.Retrieval.TopK = d.Retrieval.TopK
	}
	if p.Retrieval.FetchK < p.Retrieval.TopK {
		p.Retrieval.FetchK = p.Retrieval.TopK
	}
	if p.Generation.Model == "" {
		p.Generation.Model = d.Generation.Model
	}
	if p.Generation.Expansions <= 0 {
		p.Generation.Expansions = d.Generation.Expansions
	}
	if p.Generation.MaxAttempts <= 0 {
		p.Generation.MaxAttempts = d.Generation.MaxAttempts
	}
	if p.Ingestion.MaxFileSizeBytes <= 0 {
		p.Ingestion.MaxFileSizeBytes = d.Ingestion.MaxFileSizeBytes
	}
	if p.Ingestion.Concurrency <= 0 {
		p.Ingestion.Concurrency = d.Ingestion.Concurrency
	}
}

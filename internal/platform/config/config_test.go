package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunking.Size != 1200 || cfg.Chunking.Overlap != 200 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Embeddings.Dimension != 1536 {
		t.Fatalf("unexpected embedding dim: %d", cfg.Embeddings.Dimension)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	body := "chunking:\n  size: 800\nretrieval:\n  top_k: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunking.Size != 800 {
		t.Fatalf("size not overlaid: %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 200 {
		t.Fatalf("overlap default lost: %d", cfg.Chunking.Overlap)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Fatalf("top_k not overlaid: %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.FetchK < cfg.Retrieval.TopK {
		t.Fatalf("fetch_k below top_k: %d < %d", cfg.Retrieval.FetchK, cfg.Retrieval.TopK)
	}
}

func TestLoadMalformedFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("chunking: ["), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

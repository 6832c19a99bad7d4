package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File names inside a vector index directory.
const (
	ManifestFile = "manifest.json"
	GraphFile    = "graph.hnsw"
	DocsFile     = "docs.db"
)

const manifestVersion = 1

// Manifest describes how an index was built. A query embedder must produce
// vectors of the same model and dimension.
type Manifest struct {
	Version    int       `json:"version"`
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	Metric     string    `json:"metric"`
	M          int       `json:"m"`
	EfSearch   int       `json:"ef_search"`
	CreatedAt  time.Time `json:"created_at"`
}

func readManifest(dir string) (Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return Manifest{}, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	if m.Dimensions <= 0 {
		return Manifest{}, fmt.Errorf("manifest dimensions must be > 0, got %d", m.Dimensions)
	}
	return m, nil
}

func writeManifest(dir string, m Manifest) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

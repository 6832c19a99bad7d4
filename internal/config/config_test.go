package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{Generation: GenerationConfig{APIKey: "sk-test"}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 5002 {
		t.Errorf("expected Port=5002, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.AllowOrigin != "*" {
		t.Errorf("expected AllowOrigin='*', got %q", cfg.HTTP.AllowOrigin)
	}
	if cfg.Index.LexicalPath != filepath.Join("law-bot", "index_bm25") {
		t.Errorf("unexpected LexicalPath %q", cfg.Index.LexicalPath)
	}
	if cfg.Index.VectorPath != filepath.Join("law-bot", "index_vector") {
		t.Errorf("unexpected VectorPath %q", cfg.Index.VectorPath)
	}

	r := cfg.Retrieval
	if r.LexicalK != 3 || r.VectorK != 3 || r.FetchK != 20 {
		t.Errorf("unexpected k defaults: %+v", r)
	}
	if r.Lambda() != 0.5 {
		t.Errorf("expected MMR lambda 0.5, got %g", r.Lambda())
	}
	if r.LexicalWeight != 0.7 || r.VectorWeight != 0.3 {
		t.Errorf("expected weights 0.7/0.3, got %g/%g", r.LexicalWeight, r.VectorWeight)
	}
	if r.RRFConstant != 60 {
		t.Errorf("expected RRFConstant=60, got %g", r.RRFConstant)
	}
	if r.Sequential {
		t.Error("retrievers must run in parallel by default")
	}

	if cfg.Embedding.Model != "bge-m3" {
		t.Errorf("expected embedding model bge-m3, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Redis.TTL() != 7*24*time.Hour {
		t.Errorf("expected 7d redis ttl, got %v", cfg.Embedding.Redis.TTL())
	}
	if cfg.Generation.Model != "gpt-4o" {
		t.Errorf("expected generation model gpt-4o, got %q", cfg.Generation.Model)
	}
	if cfg.Generation.Temperature != 0 {
		t.Errorf("expected temperature 0, got %g", cfg.Generation.Temperature)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080, ReadTimeoutSec: 30, WriteTimeoutSec: 60},
		Retrieval: RetrievalConfig{LexicalWeight: 1, FetchK: 50, RRFConstant: 1},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 || cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("http settings overridden: %+v", cfg.HTTP)
	}
	if cfg.Retrieval.LexicalWeight != 1 || cfg.Retrieval.VectorWeight != 0 {
		t.Errorf("explicit weights must be kept, got %g/%g", cfg.Retrieval.LexicalWeight, cfg.Retrieval.VectorWeight)
	}
	if cfg.Retrieval.FetchK != 50 || cfg.Retrieval.RRFConstant != 1 {
		t.Errorf("retrieval settings overridden: %+v", cfg.Retrieval)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding model overridden: %q", cfg.Embedding.Model)
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"fetch_k", func(c *Config) { c.Retrieval.FetchK = 2 }, "retrieval.fetch_k"},
		{"lambda", func(c *Config) { l := 1.5; c.Retrieval.MMRLambda = &l }, "retrieval.mmr_lambda"},
		{"weights", func(c *Config) { c.Retrieval.VectorWeight = -0.3 }, "weights must be non-negative"},
		{"rrf_c", func(c *Config) { c.Retrieval.RRFConstant = -1 }, "retrieval.rrf_c"},
		{"api_key", func(c *Config) { c.Generation.APIKey = "" }, "generation.api_key"},
		{"temperature", func(c *Config) { c.Generation.Temperature = 3 }, "generation.temperature"},
		{"echo", func(c *Config) { c.Generation.EchoStream = true }, "echo_stream requires"},
		{"index", func(c *Config) { c.Index.VectorPath = "" }, "index.lexical_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = -1
	cfg.Generation.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "http.port") || !strings.Contains(err.Error(), "generation.api_key") {
		t.Errorf("expected both problems reported, got %q", err.Error())
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("LAWBOT_TEST_LLM_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "test.yaml")
	yml := `
http:
  port: ${LAWBOT_TEST_PORT:-6000}
generation:
  api_key: ${LAWBOT_TEST_LLM_KEY}
  stream: true
  echo_stream: true
embedding:
  redis:
    addrs: ["localhost:6379"]
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 6000 {
		t.Errorf("expected default-substituted port 6000, got %d", cfg.HTTP.Port)
	}
	if cfg.Generation.APIKey != "sk-from-env" {
		t.Errorf("expected api key from env, got %q", cfg.Generation.APIKey)
	}
	if !cfg.Embedding.Redis.Enabled() {
		t.Error("expected redis cache enabled")
	}
	if cfg.Index.Snapshot.Enabled() {
		t.Error("snapshot must be disabled without a bucket")
	}
}

func TestLoadIndexerFile_SkipsGenerationChecks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexer.yaml")
	yml := `
index:
  hnsw:
    m: 32
    ef_search: 40
embedding:
  model: bge-m3
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "generation.api_key") {
		t.Fatalf("server load must require generation.api_key, got %v", err)
	}

	cfg, err := LoadIndexerFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Index.HNSW.M != 32 || cfg.Index.HNSW.EfSearch != 40 {
		t.Errorf("unexpected hnsw config: %+v", cfg.Index.HNSW)
	}
}

func TestLoadFile_MMRLambdaZeroKept(t *testing.T) {
	tests := []struct {
		name string
		yml  string
		want float64
	}{
		{"explicit zero", "retrieval:\n  mmr_lambda: 0\n", 0},
		{"explicit value", "retrieval:\n  mmr_lambda: 0.8\n", 0.8},
		{"absent", "retrieval:\n  fetch_k: 30\n", DefaultMMRLambda},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.yaml")
			yml := "generation:\n  api_key: sk-test\n" + tt.yml
			if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := cfg.Retrieval.Lambda(); got != tt.want {
				t.Errorf("lambda = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	t.Setenv("LAWBOT_TEST_PRESET", "from-shell")
	const fresh = "LAWBOT_TEST_FRESH"
	_ = os.Unsetenv(fresh)
	t.Cleanup(func() { _ = os.Unsetenv(fresh) })

	path := filepath.Join(t.TempDir(), ".env")
	content := "LAWBOT_TEST_PRESET=from-file\nLAWBOT_TEST_FRESH=loaded\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("LAWBOT_TEST_PRESET"); got != "from-shell" {
		t.Errorf("existing variable overridden: %q", got)
	}
	if got := os.Getenv(fresh); got != "loaded" {
		t.Errorf("expected %s=loaded, got %q", fresh, got)
	}
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the lawbot configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
	AllowOrigin     string `yaml:"allow_origin"`
}

// IndexConfig points at the two prebuilt retrieval indexes.
type IndexConfig struct {
	LexicalPath string         `yaml:"lexical_path"`
	VectorPath  string         `yaml:"vector_path"`
	Snapshot    SnapshotConfig `yaml:"snapshot"`
	HNSW        HNSWConfig     `yaml:"hnsw"`
}

// HNSWConfig tunes the vector graph written by the indexer. Zero keeps the library defaults.
type HNSWConfig struct {
	M        int `yaml:"m"`
	EfSearch int `yaml:"ef_search"`
}

// SnapshotConfig describes an optional S3 location the indexes are fetched from at startup.
type SnapshotConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// Enabled reports whether a snapshot source is configured.
func (s SnapshotConfig) Enabled() bool { return s.Bucket != "" }

// RetrievalConfig holds hybrid retrieval tuning.
type RetrievalConfig struct {
	LexicalK      int      `yaml:"lexical_k"`
	VectorK       int      `yaml:"vector_k"`
	FetchK        int      `yaml:"fetch_k"`
	// MMRLambda is a pointer so an explicit 0 (pure diversity) survives defaults.
	MMRLambda     *float64 `yaml:"mmr_lambda"`
	LexicalWeight float64  `yaml:"lexical_weight"`
	VectorWeight  float64  `yaml:"vector_weight"`
	RRFConstant   float64  `yaml:"rrf_c"`
	Sequential    bool     `yaml:"sequential"`
}

// DefaultMMRLambda weighs relevance and diversity equally.
const DefaultMMRLambda = 0.5

// Lambda returns the MMR trade-off, DefaultMMRLambda when unset.
func (r RetrievalConfig) Lambda() float64 {
	if r.MMRLambda == nil {
		return DefaultMMRLambda
	}
	return *r.MMRLambda
}

// EmbeddingConfig holds the OpenAI-compatible embedding endpoint settings.
type EmbeddingConfig struct {
	BaseURL            string           `yaml:"base_url"`
	APIKey             string           `yaml:"api_key"`
	Model              string           `yaml:"model"`
	Dimensions         int              `yaml:"dimensions"` // 0 = take from the vector index manifest
	QueryInstruction   string           `yaml:"query_instruction"`
	PassageInstruction string           `yaml:"passage_instruction"` // applied by the indexer only
	CacheSize          int              `yaml:"cache_size"`
	Redis              RedisCacheConfig `yaml:"redis"`
}

// RedisCacheConfig enables the shared embedding cache when Addrs is set.
type RedisCacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ClientCacheSec   int      `yaml:"client_cache_sec"` // 0 = no client-side caching
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether the redis cache tier is configured.
func (r RedisCacheConfig) Enabled() bool { return len(r.Addrs) > 0 }

// TTL returns the cache entry lifetime.
func (r RedisCacheConfig) TTL() time.Duration { return time.Duration(r.TTLSec) * time.Second }

// ClientCacheTTL returns how long GET replies stay in the client-side cache.
func (r RedisCacheConfig) ClientCacheTTL() time.Duration {
	return time.Duration(r.ClientCacheSec) * time.Second
}

// GenerationConfig holds the chat model settings.
type GenerationConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	PromptPath  string  `yaml:"prompt_path"`
	Stream      bool    `yaml:"stream"`
	EchoStream  bool    `yaml:"echo_stream"`
	TimeoutSec  int     `yaml:"timeout_sec"` // 0 = no deadline beyond the request's
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if !fileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	cfg, err := parseFile(configPath)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadIndexerFile reads configuration for the offline indexer, which never
// talks to the chat model and so skips the generation checks.
func LoadIndexerFile(configPath string) (Config, error) {
	cfg, err := parseFile(configPath)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateIndexing(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FindConfigPath resolves the config file for an environment name.
func FindConfigPath(env string) string { return findConfigPath(env) }

func parseFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5002
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.AllowOrigin == "" {
		c.HTTP.AllowOrigin = "*"
	}

	if c.Index.LexicalPath == "" {
		c.Index.LexicalPath = filepath.Join("law-bot", "index_bm25")
	}
	if c.Index.VectorPath == "" {
		c.Index.VectorPath = filepath.Join("law-bot", "index_vector")
	}
	if c.Index.Snapshot.Region == "" {
		c.Index.Snapshot.Region = "us-east-1"
	}

	c.Retrieval.applyDefaults()

	if c.Embedding.Model == "" {
		c.Embedding.Model = "bge-m3"
	}
	if c.Embedding.CacheSize == 0 {
		c.Embedding.CacheSize = 1024
	}
	if c.Embedding.Redis.TTLSec <= 0 {
		c.Embedding.Redis.TTLSec = 7 * 24 * 3600
	}
	if c.Embedding.Redis.ReadinessTimeout <= 0 {
		c.Embedding.Redis.ReadinessTimeout = 5
	}

	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o"
	}
}

func (r *RetrievalConfig) applyDefaults() {
	if r.LexicalK <= 0 {
		r.LexicalK = 3
	}
	if r.VectorK <= 0 {
		r.VectorK = 3
	}
	if r.FetchK <= 0 {
		r.FetchK = 20
	}
	if r.MMRLambda == nil {
		lambda := DefaultMMRLambda
		r.MMRLambda = &lambda
	}
	if r.LexicalWeight == 0 && r.VectorWeight == 0 {
		r.LexicalWeight = 0.7
		r.VectorWeight = 0.3
	}
	if r.RRFConstant == 0 {
		r.RRFConstant = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.Index.LexicalPath == "" || c.Index.VectorPath == "" {
		errs = append(errs, errors.New("index.lexical_path and index.vector_path are required"))
	}

	r := c.Retrieval
	if r.FetchK < r.VectorK {
		errs = append(errs, fmt.Errorf("retrieval.fetch_k (%d) must be >= retrieval.vector_k (%d)", r.FetchK, r.VectorK))
	}
	if l := r.Lambda(); l < 0 || l > 1 {
		errs = append(errs, fmt.Errorf("retrieval.mmr_lambda must be within [0, 1], got %g", l))
	}
	if r.LexicalWeight < 0 || r.VectorWeight < 0 {
		errs = append(errs, errors.New("retrieval weights must be non-negative"))
	}
	if r.RRFConstant < 0 {
		errs = append(errs, fmt.Errorf("retrieval.rrf_c must be non-negative, got %g", r.RRFConstant))
	}

	errs = append(errs, c.ValidateIndexing())
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, fmt.Errorf("generation.temperature must be within [0, 2], got %g", c.Generation.Temperature))
	}
	if c.Generation.APIKey == "" {
		errs = append(errs, errors.New("generation.api_key is required"))
	}
	if c.Generation.EchoStream && !c.Generation.Stream {
		errs = append(errs, errors.New("generation.echo_stream requires generation.stream"))
	}

	return errors.Join(errs...)
}

// ValidateIndexing checks only what an index build needs.
func (c *Config) ValidateIndexing() error {
	var errs []error
	if c.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding.model is required"))
	}
	if c.Embedding.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be non-negative, got %d", c.Embedding.Dimensions))
	}
	if c.Index.HNSW.M < 0 || c.Index.HNSW.EfSearch < 0 {
		errs = append(errs, errors.New("index.hnsw values must be non-negative"))
	}
	return errors.Join(errs...)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

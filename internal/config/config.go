// Package config loads the docqa YAML configuration.
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

	"gopkg.in/yaml.v3"
)

// Bootstrap policies accepted in reranker.bootstrap.
const (
	BootstrapSelfLabel      = "self_label"
	BootstrapRequireTrained = "require_trained"
)

// Config holds the docqa configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Chunks    ChunksConfig    `yaml:"chunks"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Answer    AnswerConfig    `yaml:"answer"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ChunksConfig locates the SQLite chunk store.
type ChunksConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	// CacheSize bounds the in-process query embedding cache. 0 disables it.
	CacheSize         int     `yaml:"cache_size"`
	BatchSize         int     `yaml:"batch_size"`
	Workers           int     `yaml:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
}

// IndexConfig describes the vector index.
type IndexConfig struct {
	Name            string `yaml:"name"`
	KeyPrefix       string `yaml:"key_prefix"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// RetrievalConfig tunes the retrieval pipeline.
type RetrievalConfig struct {
	Alpha       *float64 `yaml:"alpha"`
	LexicalPool int      `yaml:"lexical_pool"`
	DefaultTopK int      `yaml:"default_top_k"`
	MaxTopK     int      `yaml:"max_top_k"`
	TimeoutMS   int      `yaml:"timeout_ms"` // 0 = no per-call timeout
}

// Timeout returns the per-call retrieval timeout.
func (r RetrievalConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// RerankerConfig configures the learned reranker.
type RerankerConfig struct {
	ModelPath string `yaml:"model_path"`
	Bootstrap string `yaml:"bootstrap"` // self_label | require_trained
	MaxIter   int    `yaml:"max_iter"`
	// L2 is the ridge penalty; nil selects 1.0, an explicit 0 disables it.
	L2 *float64 `yaml:"l2"`
}

// AnswerConfig configures answer extraction.
type AnswerConfig struct {
	Threshold       *float64 `yaml:"threshold"`
	MaxContextChars int      `yaml:"max_context_chars"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Chunks.Path == "" {
		c.Chunks.Path = "data/chunks.db"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}
	if c.Embedding.Workers <= 0 {
		c.Embedding.Workers = 4
	}
	if c.Index.Name == "" {
		c.Index.Name = "docqa_passages"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "docqa:passage:"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Retrieval.Alpha == nil {
		alpha := 0.6
		c.Retrieval.Alpha = &alpha
	}
	if c.Retrieval.LexicalPool <= 0 {
		c.Retrieval.LexicalPool = 30
	}
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 5
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 50
	}
	if c.Reranker.ModelPath == "" {
		c.Reranker.ModelPath = "model/learned_reranker.json"
	}
	if c.Reranker.Bootstrap == "" {
		c.Reranker.Bootstrap = BootstrapSelfLabel
	}
	if c.Reranker.MaxIter <= 0 {
		c.Reranker.MaxIter = 1000
	}
	if c.Reranker.L2 == nil {
		l2 := 1.0
		c.Reranker.L2 = &l2
	}
	if c.Answer.Threshold == nil {
		threshold := 0.5
		c.Answer.Threshold = &threshold
	}
	if c.Answer.MaxContextChars <= 0 {
		c.Answer.MaxContextChars = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be > 0, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must be >= 0, got %g", c.Embedding.RequestsPerSecond)
	}
	if a := *c.Retrieval.Alpha; a < 0 || a > 1 {
		return fmt.Errorf("retrieval.alpha must be between 0 and 1, got %g", a)
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k (%d) exceeds max_top_k (%d)",
			c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	if c.Retrieval.TimeoutMS < 0 {
		return fmt.Errorf("retrieval.timeout_ms must be >= 0, got %d", c.Retrieval.TimeoutMS)
	}
	switch c.Reranker.Bootstrap {
	case BootstrapSelfLabel, BootstrapRequireTrained:
	default:
		return fmt.Errorf(
			"reranker.bootstrap must be %q or %q, got %q",
			BootstrapSelfLabel, BootstrapRequireTrained, c.Reranker.Bootstrap,
		)
	}
	if l2 := *c.Reranker.L2; l2 < 0 {
		return fmt.Errorf("reranker.l2 must be >= 0, got %g", l2)
	}
	if t := *c.Answer.Threshold; t < 0 || t > 1 {
		return fmt.Errorf("answer.threshold must be between 0 and 1, got %g", t)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
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

// Package config loads beacon settings from an optional YAML file and the
// environment. Environment variables win over the file, and the file wins
// over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Yates-Labs/beacon/internal/chunker"
	"github.com/Yates-Labs/beacon/internal/grounding"
	"github.com/Yates-Labs/beacon/internal/narrative"
	"github.com/Yates-Labs/beacon/internal/rag"
	"github.com/Yates-Labs/beacon/internal/rag/store"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "beacon.yaml"

var ErrInvalidConfig = errors.New("invalid configuration")

// RetrievalConfig combines search settings with the relevance gate.
type RetrievalConfig struct {
	rag.RetrieverConfig  `yaml:",inline"`
	grounding.GateConfig `yaml:",inline"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          int           `yaml:"port"`
	AllowedOrigin string        `yaml:"allowed_origin"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// CorpusConfig locates the document tree. When Repo is set the tree is
// read from Subdir of that Git repository instead of Dir.
type CorpusConfig struct {
	Dir     string `yaml:"dir"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	Subdir  string `yaml:"subdir"`
	Reload  bool   `yaml:"reload"`
	Workers int    `yaml:"workers"`

	// GitHubToken authenticates "github:owner/repo" sources
	GitHubToken string `yaml:"-"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the root application configuration structure.
type Config struct {
	Chunker    chunker.Config      `yaml:"chunker"`
	Retrieval  RetrievalConfig     `yaml:"retrieval"`
	Embedder   rag.EmbedderConfig  `yaml:"embedder"`
	Index      store.Config        `yaml:"index"`
	Generation narrative.LLMConfig `yaml:"generation"`
	Server     ServerConfig        `yaml:"server"`
	Corpus     CorpusConfig        `yaml:"corpus"`
	Log        LogConfig           `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Chunker: chunker.DefaultConfig(),
		Retrieval: RetrievalConfig{
			RetrieverConfig: rag.DefaultRetrieverConfig(),
			GateConfig:      grounding.DefaultGateConfig(),
		},
		Embedder:   rag.DefaultEmbedderConfig(),
		Index:      store.DefaultConfig(),
		Generation: narrative.DefaultLLMConfig(),
		Server: ServerConfig{
			Port:          8080,
			AllowedOrigin: "http://localhost:3000",
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  90 * time.Second,
		},
		Corpus: CorpusConfig{
			Dir:     filepath.Join("data", "categories"),
			Subdir:  "data/categories",
			Workers: 4,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the process environment.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedder.APIKey = v
		cfg.Generation.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		if cfg.Generation.Provider == "openai" {
			cfg.Generation.BaseURL = v
		}
		if cfg.Embedder.Provider == "openai" {
			cfg.Embedder.BaseURL = v
		}
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		if cfg.Generation.Provider == "ollama" {
			cfg.Generation.BaseURL = v
		}
		if cfg.Embedder.Provider == "ollama" {
			cfg.Embedder.BaseURL = v
		}
	}
	if v := os.Getenv("MILVUS_ADDRESS"); v != "" {
		cfg.Index.Milvus.Address = v
	}
	if v := os.Getenv("MILVUS_COLLECTION"); v != "" {
		cfg.Index.Milvus.Collection = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Index.Pgvector.DSN = v
	}
	if v := os.Getenv("BEACON_INDEX_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Corpus.GitHubToken = v
	}
	if v := os.Getenv("BEACON_CORPUS_REPO"); v != "" {
		cfg.Corpus.Repo = v
	}
	if v := os.Getenv("RELOAD_DOCUMENTS"); v != "" {
		reload, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: RELOAD_DOCUMENTS=%q is not a boolean", ErrInvalidConfig, v)
		}
		cfg.Corpus.Reload = reload
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q is not a number", ErrInvalidConfig, v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("REACT_URL"); v != "" {
		cfg.Server.AllowedOrigin = v
	}
	if v := os.Getenv("BEACON_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks every section. Chunker problems come back as
// *chunker.ConfigurationError.
func (c *Config) Validate() error {
	if err := c.Chunker.Validate(); err != nil {
		return err
	}
	if err := c.Retrieval.GateConfig.Validate(); err != nil {
		return err
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidConfig)
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	switch c.Embedder.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("%w: embedder.provider %q", ErrInvalidConfig, c.Embedder.Provider)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("%w: embedder.dimension must be positive", ErrInvalidConfig)
	}
	switch c.Generation.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("%w: generation.provider %q", ErrInvalidConfig, c.Generation.Provider)
	}
	if c.Corpus.Workers <= 0 {
		return fmt.Errorf("%w: corpus.workers must be positive", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// Save writes the config to the given path, creating directories as needed.
// API keys are never written.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

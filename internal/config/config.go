// ABOUTME: Centralized configuration for the document retrieval service
// ABOUTME: Layers defaults, an optional YAML file, and environment overrides with validation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Backend and provider names accepted in configuration
const (
	StoreSQLite = "sqlite"
	StoreCharm  = "charm"

	EmbedderOllama = "ollama"
	EmbedderOpenAI = "openai"
	EmbedderRemote = "remote"

	SearchLocal  = "local"
	SearchRemote = "remote"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ConfigEnvVar names the environment variable holding a YAML config path
const ConfigEnvVar = "DOCRAG_CONFIG"

// Config holds all configuration for the service
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Remote    RemoteConfig    `yaml:"remote"`
	Search    SearchConfig    `yaml:"search"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

// StorageConfig selects and locates the vector store
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir"`
	DBPath      string `yaml:"db_path"`
	CharmHost   string `yaml:"charm_host"`
	CharmDBName string `yaml:"charm_db"`
	AutoSync    bool   `yaml:"auto_sync"`
}

// EmbeddingConfig selects the embedding provider and its call policy
type EmbeddingConfig struct {
	Provider      string        `yaml:"provider"`
	OllamaURL     string        `yaml:"ollama_url"`
	OllamaModel   string        `yaml:"ollama_model"`
	OpenAIKey     string        `yaml:"openai_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	OpenAIModel   string        `yaml:"openai_model"`
	Dimensions    int           `yaml:"dimensions"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	RateLimit     float64       `yaml:"rate_limit"`
	RateBurst     int           `yaml:"rate_burst"`
}

// RemoteConfig points at another instance of this service
type RemoteConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig holds the threshold policy and result limits
type SearchConfig struct {
	Backend          string  `yaml:"backend"`
	DefaultThreshold float64 `yaml:"default_threshold"`
	MinThreshold     float64 `yaml:"min_threshold"`
	MaxThreshold     float64 `yaml:"max_threshold"`
	DefaultLimit     int     `yaml:"default_limit"`
	SemanticLimit    int     `yaml:"semantic_limit"`
	Overfetch        int     `yaml:"overfetch"`
	CitationLanguage string  `yaml:"citation_language"`
}

// IndexingConfig holds bulk indexing defaults
type IndexingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MaxWorkers   int `yaml:"max_workers"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig controls the MCP server surface
type ServerConfig struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"`
	HTTPAddr  string `yaml:"http_addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Storage: StorageConfig{
			Backend:     StoreSQLite,
			DataDir:     dataDir,
			CharmHost:   "charm.2389.dev",
			CharmDBName: "docrag",
			AutoSync:    true,
		},
		Embedding: EmbeddingConfig{
			Provider:    EmbedderOllama,
			OllamaURL:   "http://localhost:11434",
			OllamaModel: "nomic-embed-text",
			OpenAIModel: "text-embedding-3-small",
			Timeout:     60 * time.Second,
			MaxRetries:  3,
			RetryDelay:  2 * time.Second,
			RateBurst:   1,
		},
		Remote: RemoteConfig{
			Timeout: 120 * time.Second,
		},
		Search: SearchConfig{
			Backend:          SearchLocal,
			DefaultThreshold: 0.6,
			MinThreshold:     0.3,
			MaxThreshold:     0.95,
			DefaultLimit:     5,
			SemanticLimit:    3,
			Overfetch:        2,
			CitationLanguage: "en",
		},
		Indexing: IndexingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			MaxWorkers:   4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Name:      "docrag",
			Transport: TransportStdio,
			HTTPAddr:  ":8080",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (or $DOCRAG_CONFIG when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(ConfigEnvVar)
		explicit = path != ""
	}
	if explicit {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(cfg.Storage.DataDir, "embeddings.db")
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Storage
	s.DataDir = getEnv("DOCRAG_DATA_DIR", s.DataDir)
	s.DBPath = getEnv("DOCRAG_DB_PATH", s.DBPath)
	s.Backend = getEnv("DOCRAG_STORE", s.Backend)
	s.CharmHost = getEnv("CHARM_HOST", s.CharmHost)
	s.CharmDBName = getEnv("CHARM_DB", s.CharmDBName)
	s.AutoSync = getEnvBool("CHARM_AUTO_SYNC", s.AutoSync)

	e := &c.Embedding
	e.Provider = getEnv("DOCRAG_EMBEDDER", e.Provider)
	e.OllamaURL = getEnv("OLLAMA_URL", e.OllamaURL)
	e.OllamaModel = getEnv("OLLAMA_MODEL", e.OllamaModel)
	e.OpenAIKey = getEnv("OPENAI_API_KEY", e.OpenAIKey)
	e.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", e.OpenAIBaseURL)
	e.OpenAIModel = getEnv("DOCRAG_EMBEDDING_MODEL", e.OpenAIModel)
	e.Dimensions = getEnvInt("DOCRAG_EMBEDDING_DIMENSIONS", e.Dimensions)
	e.Timeout = getEnvDuration("DOCRAG_EMBED_TIMEOUT", e.Timeout)
	e.MaxRetries = getEnvInt("DOCRAG_MAX_RETRIES", e.MaxRetries)
	e.RetryDelay = getEnvDuration("DOCRAG_RETRY_DELAY", e.RetryDelay)
	e.RateLimit = getEnvFloat("DOCRAG_EMBED_RATE", e.RateLimit)

	c.Remote.URL = getEnv("DOCRAG_REMOTE_URL", c.Remote.URL)
	c.Remote.Timeout = getEnvDuration("DOCRAG_REMOTE_TIMEOUT", c.Remote.Timeout)

	q := &c.Search
	q.Backend = getEnv("DOCRAG_SEARCH_BACKEND", q.Backend)
	q.DefaultThreshold = getEnvFloat("DOCRAG_DEFAULT_THRESHOLD", q.DefaultThreshold)
	q.MinThreshold = getEnvFloat("DOCRAG_MIN_THRESHOLD", q.MinThreshold)
	q.MaxThreshold = getEnvFloat("DOCRAG_MAX_THRESHOLD", q.MaxThreshold)
	q.DefaultLimit = getEnvInt("DOCRAG_SEARCH_LIMIT", q.DefaultLimit)
	q.SemanticLimit = getEnvInt("DOCRAG_SEMANTIC_LIMIT", q.SemanticLimit)
	q.Overfetch = getEnvInt("DOCRAG_OVERFETCH", q.Overfetch)
	q.CitationLanguage = getEnv("DOCRAG_CITATION_LANG", q.CitationLanguage)

	i := &c.Indexing
	i.ChunkSize = getEnvInt("DOCRAG_CHUNK_SIZE", i.ChunkSize)
	i.ChunkOverlap = getEnvInt("DOCRAG_CHUNK_OVERLAP", i.ChunkOverlap)
	i.MaxWorkers = getEnvInt("DOCRAG_MAX_WORKERS", i.MaxWorkers)

	c.Log.Level = getEnv("DOCRAG_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DOCRAG_LOG_FORMAT", c.Log.Format)
	c.Server.HTTPAddr = getEnv("DOCRAG_HTTP_ADDR", c.Server.HTTPAddr)
}

// Validate checks ranges and enum values
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case StoreSQLite, StoreCharm:
	default:
		errs = append(errs, fmt.Errorf("DOCRAG_STORE must be sqlite or charm, got %q", c.Storage.Backend))
	}

	switch c.Embedding.Provider {
	case EmbedderOllama, EmbedderOpenAI, EmbedderRemote:
	default:
		errs = append(errs, fmt.Errorf("DOCRAG_EMBEDDER must be ollama, openai or remote, got %q", c.Embedding.Provider))
	}
	if c.Embedding.MaxRetries < 0 || c.Embedding.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("DOCRAG_MAX_RETRIES must be 0-10, got %d", c.Embedding.MaxRetries))
	}
	if c.Embedding.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("DOCRAG_EMBED_TIMEOUT must be positive, got %v", c.Embedding.Timeout))
	}
	if c.Embedding.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("DOCRAG_EMBED_RATE must not be negative, got %f", c.Embedding.RateLimit))
	}

	switch c.Search.Backend {
	case SearchLocal, SearchRemote:
	default:
		errs = append(errs, fmt.Errorf("DOCRAG_SEARCH_BACKEND must be local or remote, got %q", c.Search.Backend))
	}
	if c.UsesRemote() && c.Remote.URL == "" {
		errs = append(errs, errors.New("DOCRAG_REMOTE_URL is required when a remote strategy is selected"))
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("DOCRAG_REMOTE_TIMEOUT must be positive, got %v", c.Remote.Timeout))
	}

	q := c.Search
	if q.MinThreshold < 0 || q.MaxThreshold > 1 || q.MinThreshold > q.DefaultThreshold || q.DefaultThreshold > q.MaxThreshold {
		errs = append(errs, fmt.Errorf("thresholds must satisfy 0 <= min <= default <= max <= 1, got min=%f default=%f max=%f",
			q.MinThreshold, q.DefaultThreshold, q.MaxThreshold))
	}
	if q.DefaultLimit <= 0 || q.SemanticLimit <= 0 {
		errs = append(errs, fmt.Errorf("search limits must be positive, got default=%d semantic=%d", q.DefaultLimit, q.SemanticLimit))
	}
	if q.Overfetch <= 0 {
		errs = append(errs, fmt.Errorf("DOCRAG_OVERFETCH must be positive, got %d", q.Overfetch))
	}

	i := c.Indexing
	if i.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("DOCRAG_CHUNK_SIZE must be positive, got %d", i.ChunkSize))
	}
	if i.ChunkOverlap < 0 || i.ChunkOverlap >= i.ChunkSize {
		errs = append(errs, fmt.Errorf("DOCRAG_CHUNK_OVERLAP must be in [0, chunk size), got %d", i.ChunkOverlap))
	}
	if i.MaxWorkers < 1 || i.MaxWorkers > 64 {
		errs = append(errs, fmt.Errorf("DOCRAG_MAX_WORKERS must be 1-64, got %d", i.MaxWorkers))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("DOCRAG_LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("server transport must be stdio or http, got %q", c.Server.Transport))
	}

	return errors.Join(errs...)
}

// UsesRemote reports whether any strategy calls a remote instance
func (c *Config) UsesRemote() bool {
	return c.Embedding.Provider == EmbedderRemote || c.Search.Backend == SearchRemote
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "docrag")
	}
	return filepath.Join(xdg.DataHome, "docrag")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "./configs/config.yaml"

	defaultDocumentPath   = "data/document.pdf"
	defaultStoreDriver    = "chromem"
	defaultStorePath      = "./chroma_db"
	defaultCollectionName = "documents"
	defaultChunkSize      = 10000
	defaultChunkOverlap   = 200
	defaultTopK           = 10
	defaultContextLimit   = 1000
	defaultLLMBaseURL     = "http://localhost:11434"
	defaultLLMModel       = "orca-mini:3b"
	defaultEmbedModel     = "nomic-embed-text"
	defaultMaxTokens      = 2048
	defaultServerAddr     = ":8501"
	defaultLogLevel       = "info"
)

type Config struct {
	Document DocumentConfig `yaml:"document"`
	Store    StoreConfig    `yaml:"store"`
	RAG      RAGConfig      `yaml:"rag"`
	LLM      LLMConfig      `yaml:"llm"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type DocumentConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig selects and configures the embedding store backend.
// Driver is "chromem" (local directory) or "postgres" (pgvector).
type StoreConfig struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
	DSN           string `yaml:"dsn"`
	Password      string `yaml:"password"`
	Debug         bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize     int     `yaml:"chunk_size"`
	ChunkOverlap  int     `yaml:"chunk_overlap"`
	TopK          int     `yaml:"top_k"`
	ContextLimit  int     `yaml:"context_limit"`
	MinSimilarity float32 `yaml:"min_similarity"`
}

// LLMConfig describes one model endpoint. It is used both for generation
// and for embeddings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	CPUOnly     bool    `yaml:"cpu_only"`
}

type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Title string `yaml:"title"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{
		RAG:      RAGConfig{ChunkOverlap: defaultChunkOverlap},
		LLM:      LLMConfig{CPUOnly: true},
		EmbedLLM: LLMConfig{Model: defaultEmbedModel},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the YAML file at path and fills unset fields with defaults.
// A missing file at DefaultConfigPath is not an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath {
			return Default(), nil
		}
		return nil, err
	}
	// Fields left out of the file keep their defaults. An explicit zero
	// chunk_overlap stays zero.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Document.Path == "" {
		c.Document.Path = defaultDocumentPath
	}
	if c.Store.Driver == "" {
		c.Store.Driver = defaultStoreDriver
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Store.Collection == "" {
		c.Store.Collection = defaultCollectionName
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.ContextLimit <= 0 {
		c.RAG.ContextLimit = defaultContextLimit
	}
	applyLLMDefaults(&c.LLM, defaultLLMModel)
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultMaxTokens
	}
	applyLLMDefaults(&c.EmbedLLM, defaultEmbedModel)
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Server.Title == "" {
		c.Server.Title = "Document Chat"
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

func applyLLMDefaults(l *LLMConfig, model string) {
	if l.Provider == "" {
		l.Provider = "ollama"
	}
	if l.BaseURL == "" {
		l.BaseURL = defaultLLMBaseURL
	}
	if l.Model == "" {
		l.Model = model
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "chromem":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	for name, l := range map[string]LLMConfig{"llm": c.LLM, "embed_llm": c.EmbedLLM} {
		if l.Provider != "ollama" && l.Provider != "openai" {
			return fmt.Errorf("unsupported %s provider: %s", name, l.Provider)
		}
	}
	if c.RAG.ChunkOverlap < 0 {
		return fmt.Errorf("rag.chunk_overlap must not be negative: %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap (%d) must be smaller than rag.chunk_size (%d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	return nil
}

const redacted = "[REDACTED]"

// Redacted returns a copy that is safe to log.
func (c Config) Redacted() Config {
	c.LLM.Key = mask(c.LLM.Key)
	c.EmbedLLM.Key = mask(c.EmbedLLM.Key)
	c.Store.Password = mask(c.Store.Password)
	c.Store.EncryptionKey = mask(c.Store.EncryptionKey)
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

// Token returns the API key without a "Bearer " prefix. Local OpenAI
// compatible servers usually ignore it, but the client refuses to start
// without one.
func (l LLMConfig) Token() string {
	token := strings.TrimPrefix(l.Key, "Bearer ")
	if token == "" {
		return "local"
	}
	return token
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "data/document.pdf", cfg.Document.Path)
	assert.Equal(t, "chromem", cfg.Store.Driver)
	assert.Equal(t, "./chroma_db", cfg.Store.Path)
	assert.Equal(t, 10000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 10, cfg.RAG.TopK)
	assert.Equal(t, 1000, cfg.RAG.ContextLimit)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "orca-mini:3b", cfg.LLM.Model)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Zero(t, cfg.LLM.Temperature)
	assert.True(t, cfg.LLM.CPUOnly)
	assert.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig(DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_CustomValues(t *testing.T) {
	path := writeConfig(t, `
document:
  path: /srv/docs/manual.pdf
store:
  path: /var/lib/chat
  collection: manual
rag:
  chunk_size: 500
  chunk_overlap: 50
  top_k: 4
llm:
  provider: openai
  base_url: http://localhost:8080/v1
  model: local-model
  temperature: 0.2
  max_tokens: 256
  cpu_only: false
server:
  addr: 127.0.0.1:9000
log:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs/manual.pdf", cfg.Document.Path)
	assert.Equal(t, "/var/lib/chat", cfg.Store.Path)
	assert.Equal(t, "manual", cfg.Store.Collection)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, 1000, cfg.RAG.ContextLimit)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "local-model", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.False(t, cfg.LLM.CPUOnly)
	assert.Equal(t, "ollama", cfg.EmbedLLM.Provider)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_ZeroOverlapKept(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_overlap: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 10000, cfg.RAG.ChunkSize)
	assert.True(t, cfg.LLM.CPUOnly)
}

func TestLoadConfig_NegativeOverlap(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_overlap: -5
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "document: [unterminated")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, false},
		{"postgres with dsn", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.DSN = "postgres://localhost/chat"
		}, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "qdrant" }, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gpt4all" }, false},
		{"overlap too large", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }, false},
		{"zero overlap", func(c *Config) { c.RAG.ChunkOverlap = 0 }, true},
		{"negative overlap", func(c *Config) { c.RAG.ChunkOverlap = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLLMConfig_Token(t *testing.T) {
	assert.Equal(t, "local", LLMConfig{}.Token())
	assert.Equal(t, "sk-123", LLMConfig{Key: "Bearer sk-123"}.Token())
	assert.Equal(t, "sk-123", LLMConfig{Key: "sk-123"}.Token())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := Default()
	cfg.LLM.Key = "sk-llm"
	cfg.EmbedLLM.Key = "sk-embed"
	cfg.Store.Password = "hunter2"
	cfg.Store.EncryptionKey = "0123456789abcdef0123456789abcdef"
	cfg.Store.DSN = "postgres://localhost/chat"

	out := cfg.Redacted()
	assert.Equal(t, "[REDACTED]", out.LLM.Key)
	assert.Equal(t, "[REDACTED]", out.EmbedLLM.Key)
	assert.Equal(t, "[REDACTED]", out.Store.Password)
	assert.Equal(t, "[REDACTED]", out.Store.EncryptionKey)
	assert.Equal(t, "postgres://localhost/chat", out.Store.DSN)
	assert.Equal(t, "sk-llm", cfg.LLM.Key, "original config must be untouched")

	assert.Empty(t, Default().Redacted().LLM.Key)
}

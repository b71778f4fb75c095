package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"document-chat/internal/config"
	"document-chat/internal/embedding/embeddingtest"
	"document-chat/internal/models"
)

func TestGenerateEmbedding(t *testing.T) {
	segments := []models.Segment{
		{ID: "id0", Content: "slide staining"},
		{ID: "id1", Content: "automated screening"},
	}

	vectors, err := GenerateEmbedding(context.Background(), embeddingtest.NewEmbedder(), segments)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, embeddingtest.Vector("slide staining"), vectors[0])

	vectors, err = GenerateEmbedding(context.Background(), embeddingtest.NewEmbedder(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestGenerateEmbedding_CountMismatch(t *testing.T) {
	short, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(
		func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		}))
	require.NoError(t, err)

	_, err = GenerateEmbedding(context.Background(), short, []models.Segment{{Content: "a"}, {Content: "b"}})
	assert.Error(t, err)
}

func TestEmbeddingFunc(t *testing.T) {
	fn := EmbeddingFunc(embeddingtest.NewEmbedder())

	v, err := fn(context.Background(), "Glandular cells")
	require.NoError(t, err)
	assert.Equal(t, embeddingtest.Vector("Glandular cells"), v)
}

func TestNewEmbedder(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "nomic-embed-text"})
	assert.NoError(t, err)

	_, err = NewEmbedder(&config.LLMConfig{Provider: "openai", BaseURL: "http://localhost:8080/v1", Model: "local-embed"})
	assert.NoError(t, err)

	_, err = NewEmbedder(&config.LLMConfig{Provider: "gpt4all"})
	assert.Error(t, err)
}

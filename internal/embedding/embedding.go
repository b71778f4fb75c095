package embedding

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

// NewEmbedder creates the embedder described by cfg.
func NewEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        cfg.Provider,
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating embedder")

	var (
		e   *embeddings.EmbedderImpl
		err error
	)
	switch cfg.Provider {
	case "ollama", "":
		e, err = NewOllamaEmbedder(cfg)
	case "openai":
		e, err = NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// NewOllamaEmbedder uses a local Ollama server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama: %v", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOpenAIEmbedder targets any OpenAI compatible embeddings endpoint.
func NewOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.Token()),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai client: %v", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbeddingFunc adapts an embedder to the function type chromem collections use.
func EmbeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

// GenerateEmbedding embeds the content of every segment, in order.
func GenerateEmbedding(ctx context.Context, embedder embeddings.Embedder, segments []models.Segment) ([][]float32, error) {
	if len(segments) == 0 {
		log.Info().Msg("No segments to embed")
		return nil, nil
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d segments", len(vectors), len(segments))
	}
	return vectors, nil
}

package rag

import (
	"context"

	"github.com/rs/zerolog/log"

	"document-chat/internal/config"
	"document-chat/internal/llmservice"
	"document-chat/internal/models"
	"document-chat/internal/prompt"
)

// RAG answers one question at a time from the handle's document.
type RAG struct {
	handle      *Handle
	retriever   *Retriever
	assembler   *prompt.Assembler
	generator   llmservice.Generator
	temperature float64
	maxTokens   int
}

func NewRAG(handle *Handle, generator llmservice.Generator, cfg *config.Config) *RAG {
	return &RAG{
		handle:      handle,
		retriever:   NewRetriever(handle.Store(), cfg.RAG.TopK),
		assembler:   prompt.NewAssembler(cfg.RAG.ContextLimit),
		generator:   generator,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
	}
}

// Query ingests the document if needed, then retrieves, assembles the
// prompt and generates the answer. Any failing stage aborts the query.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	if err := r.handle.EnsurePopulated(ctx); err != nil {
		return nil, err
	}

	result, err := r.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	p := r.assembler.Assemble(query, result)
	log.Debug().Str("query", query).Int("segments", len(result)).Msg("Assembled prompt")

	answer, err := r.generator.Generate(ctx, p.Text, r.temperature, r.maxTokens)
	if err != nil {
		return nil, err
	}

	return &models.PromptResponse{
		Query:     query,
		Prompt:    p.Text,
		Source:    p.Sources,
		Content:   answer,
		Citations: p.Citations,
	}, nil
}

package llmservice

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"document-chat/internal/config"
	"document-chat/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

var thinkRe = regexp.MustCompile(models.ThinkTag)

// Generator produces an answer for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// LLMGenerator runs prompts against a langchaingo model.
type LLMGenerator struct {
	llm   llms.Model
	model string
}

func NewLLMGenerator(llm llms.Model, model string) *LLMGenerator {
	return &LLMGenerator{llm: llm, model: model}
}

// NewGenerator creates the generator described by cfg. No model is
// downloaded; the model must already be available to the server.
func NewGenerator(cfg *config.LLMConfig) (*LLMGenerator, error) {
	log.Debug().Interface("config", map[string]any{
		"provider": cfg.Provider,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
		"cpu_only": cfg.CPUOnly,
	}).Msg("Creating generator")

	var (
		llm llms.Model
		err error
	)
	switch cfg.Provider {
	case "ollama", "":
		opts := []ollama.Option{
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		}
		if cfg.CPUOnly {
			opts = append(opts, ollama.WithRunnerNumGPU(0))
		}
		llm, err = ollama.New(opts...)
	case "openai":
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(cfg.Token()),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %v", cfg.Provider, err)
	}
	return NewLLMGenerator(llm, cfg.Model), nil
}

// Generate sends prompt as a single human message. Reasoning blocks are
// removed from the answer.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}
	log.Debug().Str("model", g.model).Int("prompt_len", len(prompt)).Msg("Generating answer")

	answer, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrGeneration, g.model, err)
	}
	return StripThinking(answer), nil
}

// StripThinking removes <think>...</think> blocks and surrounding whitespace.
func StripThinking(answer string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(answer, ""))
}

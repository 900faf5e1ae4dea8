package memory

import (
	"context"

	"github.com/agentcore/chatcore/internal/aggregator"
	"github.com/agentcore/chatcore/internal/completion"
	"github.com/agentcore/chatcore/internal/errs"
	"github.com/agentcore/chatcore/pkg/models"
)

// Generator is the subset of the Completion Client this package depends on
// to implement Summarizer; *completion.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, cfg *models.ModelConfig, window []*models.Message, tools []*models.Tool) (<-chan completion.Chunk, error)
}

// LLMSummarizer implements Summarizer by issuing a no-tools sub-call to the
// Completion Client with a fixed prompt template. This sub-call never
// triggers Memory's own pruning: it is invoked from within Window with a
// summarization-only ModelConfig, and the prompt built for it is never
// itself passed back through Window.
type LLMSummarizer struct {
	gen   Generator
	model models.SupportedChatModel
}

// NewLLMSummarizer returns a Summarizer that calls gen with model for each
// summarization sub-call.
func NewLLMSummarizer(gen Generator, model models.SupportedChatModel) *LLMSummarizer {
	return &LLMSummarizer{gen: gen, model: model}
}

// Summarize renders evicted+priorSummary into a prompt and folds the
// resulting completion into plain text.
func (s *LLMSummarizer) Summarize(ctx context.Context, evicted []*models.Message, priorSummary string) (string, error) {
	prompt := BuildSummarizationPrompt(evicted, priorSummary)

	cfg, err := models.NewModelConfig(s.model, models.ModelConfig{Temperature: 0})
	if err != nil {
		return "", err
	}

	window := []*models.Message{models.NewSystemMessage(prompt)}
	chunks, err := s.gen.Generate(ctx, cfg, window, nil)
	if err != nil {
		return "", err
	}

	agg := aggregator.New()
	for chunk := range chunks {
		agg.Fold(chunk)
	}
	reply := agg.Result()
	if reply == nil {
		return "", errs.Model("memory.LLMSummarizer.Summarize", "summarization call produced no reply", nil)
	}
	return reply.Content, nil
}

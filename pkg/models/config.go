package models

import (
	"fmt"

	"github.com/agentcore/chatcore/internal/errs"
)

// SupportedChatModel describes a completion model's size and per-1k-token
// pricing
type SupportedChatModel struct {
	Name       string
	Size       int // context window, in tokens
	InputCost  float64 // USD per 1k prompt tokens
	OutputCost float64 // USD per 1k completion tokens
}

// ModelConfig is the per-run generation configuration Range
// invariants are enforced at construction, never deferred to the wire call.
type ModelConfig struct {
	Model             SupportedChatModel
	Stream            bool
	Temperature       float64
	PresencePenalty   float64
	FrequencyPenalty  float64
	MaxTokens         int
	ForcedTool        string // "" means "no forced tool" (Open Question 2, see DESIGN.md)
	SystemPrompt      string
}

// NewModelConfig validates range invariants and returns a ModelConfig:
// temperature∈[0,2], presence/frequency_penalty∈[-2,2].
func NewModelConfig(model SupportedChatModel, opts ModelConfig) (*ModelConfig, error) {
	cfg := opts
	cfg.Model = model
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return nil, errs.Validation("models.NewModelConfig", fmt.Sprintf("temperature %v out of [0,2]", cfg.Temperature))
	}
	if cfg.PresencePenalty < -2 || cfg.PresencePenalty > 2 {
		return nil, errs.Validation("models.NewModelConfig", fmt.Sprintf("presence_penalty %v out of [-2,2]", cfg.PresencePenalty))
	}
	if cfg.FrequencyPenalty < -2 || cfg.FrequencyPenalty > 2 {
		return nil, errs.Validation("models.NewModelConfig", fmt.Sprintf("frequency_penalty %v out of [-2,2]", cfg.FrequencyPenalty))
	}
	if cfg.MaxTokens < 0 {
		return nil, errs.Validation("models.NewModelConfig", "max_tokens must be non-negative")
	}
	return &cfg, nil
}

// SupportedModels is the reference table of models this module can drive,
// with their context window size and per-1k-token pricing.
var SupportedModels = map[string]SupportedChatModel{
	"gpt-3.5-turbo-0613": {Name: "gpt-3.5-turbo-0613", Size: 4000, InputCost: 0.0015, OutputCost: 0.002},
	"gpt-3.5-turbo-16k":  {Name: "gpt-3.5-turbo-16k", Size: 16000, InputCost: 0.003, OutputCost: 0.004},
	"gpt-4":              {Name: "gpt-4", Size: 8000, InputCost: 0.03, OutputCost: 0.06},
	"gpt-4-32k":          {Name: "gpt-4-32k", Size: 32000, InputCost: 0.06, OutputCost: 0.12},
}

// LookupModel resolves a model name against SupportedModels.
func LookupModel(name string) (SupportedChatModel, bool) {
	m, ok := SupportedModels[name]
	return m, ok
}

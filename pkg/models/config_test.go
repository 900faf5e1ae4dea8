package models

import (
	"testing"

	"github.com/agentcore/chatcore/internal/errs"
)

func TestNewModelConfigAcceptsDefaults(t *testing.T) {
	cfg, err := NewModelConfig(SupportedModels["gpt-3.5-turbo-0613"], ModelConfig{})
	if err != nil {
		t.Fatalf("NewModelConfig() error = %v", err)
	}
	if cfg.Model.Name != "gpt-3.5-turbo-0613" {
		t.Fatalf("expected model gpt-3.5-turbo-0613, got %q", cfg.Model.Name)
	}
}

func TestNewModelConfigRejectsTemperatureOutOfRange(t *testing.T) {
	_, err := NewModelConfig(SupportedModels["gpt-3.5-turbo-0613"], ModelConfig{Temperature: 2.5})
	if err == nil {
		t.Fatal("expected error for out-of-range temperature, got nil")
	}
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestNewModelConfigRejectsNegativeTemperature(t *testing.T) {
	_, err := NewModelConfig(SupportedModels["gpt-3.5-turbo-0613"], ModelConfig{Temperature: -0.1})
	if err == nil {
		t.Fatal("expected error for negative temperature, got nil")
	}
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestNewModelConfigRejectsPresencePenaltyOutOfRange(t *testing.T) {
	_, err := NewModelConfig(SupportedModels["gpt-4"], ModelConfig{PresencePenalty: 3})
	if err == nil {
		t.Fatal("expected error for out-of-range presence_penalty, got nil")
	}
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestNewModelConfigRejectsFrequencyPenaltyOutOfRange(t *testing.T) {
	_, err := NewModelConfig(SupportedModels["gpt-4"], ModelConfig{FrequencyPenalty: -3})
	if err == nil {
		t.Fatal("expected error for out-of-range frequency_penalty, got nil")
	}
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestNewModelConfigRejectsNegativeMaxTokens(t *testing.T) {
	_, err := NewModelConfig(SupportedModels["gpt-4"], ModelConfig{MaxTokens: -1})
	if err == nil {
		t.Fatal("expected error for negative max_tokens, got nil")
	}
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestLookupModelUnknownName(t *testing.T) {
	_, ok := LookupModel("gpt-5-turbo")
	if ok {
		t.Fatal("expected ok = false for unknown model name")
	}
}

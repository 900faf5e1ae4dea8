package aggregator

import (
	"testing"

	"github.com/agentcore/chatcore/internal/completion"
	"github.com/agentcore/chatcore/pkg/models"
)

func TestResultNilWithNoChunks(t *testing.T) {
	a := New()
	if got := a.Result(); got != nil {
		t.Fatalf("Result() = %v, want nil", got)
	}
}

func TestFoldConcatenatesContent(t *testing.T) {
	a := New()
	a.Fold(completion.Chunk{Message: models.NewAssistantMessage("Hello, ", models.FinishUndefined)})
	a.Fold(completion.Chunk{Message: models.NewAssistantMessage("world!", models.FinishStop)})

	result := a.Result()
	if result == nil {
		t.Fatal("Result() = nil, want non-nil")
	}
	if result.Content != "Hello, world!" {
		t.Fatalf("Content = %q, want %q", result.Content, "Hello, world!")
	}
	if result.FinishReason != models.FinishStop {
		t.Fatalf("FinishReason = %v, want %v", result.FinishReason, models.FinishStop)
	}
}

func TestFoldAdoptsToolUsageVariant(t *testing.T) {
	a := New()
	m1, _ := models.NewToolUsage("search", `{"q":`, "", models.FinishUndefined)
	m2, _ := models.NewToolUsage("_", `"go"}`, "", models.FinishFunctionCall)
	m2.ToolName = "" // continuation chunk: the name arrived in the first chunk
	a.Fold(completion.Chunk{Message: m1})
	a.Fold(completion.Chunk{Message: m2})

	result := a.Result()
	if result == nil {
		t.Fatal("Result() = nil, want non-nil")
	}
	if !result.IsToolUsage() {
		t.Fatal("IsToolUsage() = false, want true")
	}
	if result.ToolName != "search" {
		t.Fatalf("ToolName = %q, want %q", result.ToolName, "search")
	}
	if result.ArgsStr != `{"q":"go"}` {
		t.Fatalf("ArgsStr = %q, want %q", result.ArgsStr, `{"q":"go"}`)
	}
	if result.FinishReason != models.FinishFunctionCall {
		t.Fatalf("FinishReason = %v, want %v", result.FinishReason, models.FinishFunctionCall)
	}
}

func TestCancelOverridesFinishReason(t *testing.T) {
	a := New()
	a.Fold(completion.Chunk{Message: models.NewAssistantMessage("partial", models.FinishUndefined)})
	a.Cancel()

	result := a.Result()
	if result == nil {
		t.Fatal("Result() = nil, want non-nil")
	}
	if result.FinishReason != models.FinishCancelled {
		t.Fatalf("FinishReason = %v, want %v", result.FinishReason, models.FinishCancelled)
	}
}

func TestLastNonUndefinedFinishReasonWins(t *testing.T) {
	a := New()
	a.Fold(completion.Chunk{Message: models.NewAssistantMessage("a", models.FinishStop)})
	a.Fold(completion.Chunk{Message: models.NewAssistantMessage("b", models.FinishUndefined)})

	result := a.Result()
	if result.FinishReason != models.FinishStop {
		t.Fatalf("FinishReason = %v, want %v", result.FinishReason, models.FinishStop)
	}
}

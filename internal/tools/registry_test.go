package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/agentcore/chatcore/pkg/models"
)

type echoTool struct{}

func (echoTool) Describe() *models.Tool {
	return &models.Tool{
		Name:        "echo",
		Description: "echoes the given text",
		Parameters: []models.ToolParameter{
			{Name: "text", Type: "string", Required: true},
		},
	}
}

func (echoTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return "", err
	}
	return payload.Text, nil
}

type failingTool struct{}

func (failingTool) Describe() *models.Tool {
	return &models.Tool{Name: "boom"}
}

func (failingTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	return "", errors.New("kaboom")
}

type panickingTool struct{}

func (panickingTool) Describe() *models.Tool { return &models.Tool{Name: "panics"} }
func (panickingTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	panic("nope")
}

func TestExecuteSuccess(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool{})
	exec := NewExecutor(reg)

	usage, err := models.NewToolUsage("echo", `{"text":"hi"}`, "", models.FinishFunctionCall)
	if err != nil {
		t.Fatalf("NewToolUsage() error = %v", err)
	}

	result := exec.Execute(context.Background(), usage)
	if result.Kind != models.KindToolResult {
		t.Fatalf("Kind = %v, want %v", result.Kind, models.KindToolResult)
	}
	if result.Content != "hi" {
		t.Fatalf("Content = %q, want %q", result.Content, "hi")
	}
	if result.ResultForTool != "echo" {
		t.Fatalf("ResultForTool = %q, want %q", result.ResultForTool, "echo")
	}
}

func TestExecuteToolNotFound(t *testing.T) {
	reg := NewRegistry()
	exec := NewExecutor(reg)
	usage, _ := models.NewToolUsage("missing", "{}", "", models.FinishFunctionCall)

	result := exec.Execute(context.Background(), usage)
	if !strings.Contains(result.Content, "tool not found") {
		t.Fatalf("Content = %q, want it to contain %q", result.Content, "tool not found")
	}
}

func TestExecuteMissingRequiredArg(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool{})
	exec := NewExecutor(reg)
	usage, _ := models.NewToolUsage("echo", `{}`, "", models.FinishFunctionCall)

	result := exec.Execute(context.Background(), usage)
	if !strings.Contains(result.Content, "error:") {
		t.Fatalf("Content = %q, want it to contain %q", result.Content, "error:")
	}
}

func TestExecuteUnknownArg(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool{})
	exec := NewExecutor(reg)
	usage, _ := models.NewToolUsage("echo", `{"text":"hi","extra":1}`, "", models.FinishFunctionCall)

	result := exec.Execute(context.Background(), usage)
	if !strings.Contains(result.Content, "error:") {
		t.Fatalf("Content = %q, want it to contain %q", result.Content, "error:")
	}
}

func TestExecuteToolInvocationError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(failingTool{})
	exec := NewExecutor(reg)
	usage, _ := models.NewToolUsage("boom", "{}", "", models.FinishFunctionCall)

	result := exec.Execute(context.Background(), usage)
	if !strings.Contains(result.Content, "kaboom") {
		t.Fatalf("Content = %q, want it to contain %q", result.Content, "kaboom")
	}
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(panickingTool{})
	exec := NewExecutor(reg)
	usage, _ := models.NewToolUsage("panics", "{}", "", models.FinishFunctionCall)

	result := exec.Execute(context.Background(), usage)
	if !strings.Contains(result.Content, "panicked") {
		t.Fatalf("Content = %q, want it to contain %q", result.Content, "panicked")
	}
}

func TestRegistryAsModels(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool{})
	tools := reg.AsModels()
	if len(tools) != 1 {
		t.Fatalf("len(tools) = %d, want 1", len(tools))
	}
	if tools[0].Name != "echo" {
		t.Fatalf("tools[0].Name = %q, want %q", tools[0].Name, "echo")
	}
}

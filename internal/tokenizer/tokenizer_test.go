package tokenizer

import (
	"math"
	"testing"

	"github.com/agentcore/chatcore/pkg/models"
)

func testModel() models.SupportedChatModel {
	return models.SupportedModels["gpt-3.5-turbo-0613"]
}

func TestTokensEmptyString(t *testing.T) {
	tk := New(testModel())
	if got := tk.Tokens(""); got != 0 {
		t.Fatalf("Tokens(\"\") = %d, want 0", got)
	}
}

func TestTokensNonEmpty(t *testing.T) {
	tk := New(testModel())
	if got := tk.Tokens("hello world"); got <= 0 {
		t.Fatalf("Tokens(\"hello world\") = %d, want > 0", got)
	}
}

func TestMessageTokensContentAndRole(t *testing.T) {
	tk := New(testModel())
	m := models.NewSystemMessage("you are a helpful assistant")
	got := tk.MessageTokens(m)
	want := tk.Tokens(m.Content) + 3 + tk.Tokens(string(m.ROLE()))
	if got != want {
		t.Fatalf("MessageTokens() = %d, want %d", got, want)
	}
}

func TestMessageTokensWithName(t *testing.T) {
	tk := New(testModel())
	m, err := models.NewUserMessage("hi there", "alice")
	if err != nil {
		t.Fatalf("NewUserMessage() error = %v", err)
	}
	got := tk.MessageTokens(m)
	want := tk.Tokens(m.Content) + 3 + tk.Tokens("alice") + 2
	if got != want {
		t.Fatalf("MessageTokens() = %d, want %d", got, want)
	}
}

func TestMessageTokensToolUsage(t *testing.T) {
	tk := New(testModel())
	m, err := models.NewToolUsage("lookup", `{"q":"go"}`, "", models.FinishFunctionCall)
	if err != nil {
		t.Fatalf("NewToolUsage() error = %v", err)
	}
	got := tk.MessageTokens(m)
	want := tk.Tokens(string(m.ROLE())) + tk.Tokens("lookup") + 6 + tk.Tokens(`{"q":"go"}`)
	if got != want {
		t.Fatalf("MessageTokens() = %d, want %d", got, want)
	}
}

func TestMessagesTokensFraming(t *testing.T) {
	tk := New(testModel())
	a := models.NewSystemMessage("sys")
	b, _ := models.NewUserMessage("hello", "")
	got := tk.MessagesTokens([]*models.Message{a, b})
	want := 2 + tk.MessageTokens(a) + tk.MessageTokens(b) + 1
	if got != want {
		t.Fatalf("MessagesTokens() = %d, want %d", got, want)
	}
}

func TestToolsTokensFraming(t *testing.T) {
	tk := New(testModel())
	tool := &models.Tool{Name: "search", Description: "search the web", Parameters: []models.ToolParameter{
		{Name: "query", Type: "string", Required: true},
	}}
	got := tk.ToolsTokens([]*models.Tool{tool})
	if got < 15 {
		t.Fatalf("ToolsTokens() = %d, want >= 15", got)
	}
}

func TestModelTokensWithAndWithoutTools(t *testing.T) {
	tk := New(testModel())
	m := models.NewAssistantMessage("ok", models.FinishStop)
	withTools := tk.ModelTokens(m, true)
	withoutTools := tk.ModelTokens(m, false)
	if withTools != withoutTools+1 {
		t.Fatalf("ModelTokens(true) = %d, want ModelTokens(false)+1 = %d", withTools, withoutTools+1)
	}
}

func TestTokensCost(t *testing.T) {
	tk := New(testModel())
	in := tk.TokensCost(1000, false)
	out := tk.TokensCost(1000, true)
	if math.Abs(in-testModel().InputCost) > 1e-9 {
		t.Fatalf("TokensCost(in) = %v, want %v", in, testModel().InputCost)
	}
	if math.Abs(out-testModel().OutputCost) > 1e-9 {
		t.Fatalf("TokensCost(out) = %v, want %v", out, testModel().OutputCost)
	}
}

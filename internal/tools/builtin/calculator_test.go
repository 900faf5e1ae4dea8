package builtin

import (
	"context"
	"encoding/json"
	"testing"
)

func TestCalculatorBasic(t *testing.T) {
	c := Calculator{}
	out, err := c.Invoke(context.Background(), json.RawMessage(`{"expression":"(2 + 3) * 4"}`))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if out != "20" {
		t.Fatalf("Invoke() = %q, want %q", out, "20")
	}
}

func TestCalculatorDivisionByZero(t *testing.T) {
	c := Calculator{}
	_, err := c.Invoke(context.Background(), json.RawMessage(`{"expression":"1 / 0"}`))
	if err == nil {
		t.Fatal("expected error for division by zero, got nil")
	}
}

func TestCalculatorInvalidExpression(t *testing.T) {
	c := Calculator{}
	_, err := c.Invoke(context.Background(), json.RawMessage(`{"expression":"not an expr )("}`))
	if err == nil {
		t.Fatal("expected error for invalid expression, got nil")
	}
}

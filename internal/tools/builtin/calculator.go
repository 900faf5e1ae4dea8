// Package builtin provides reference tool implementations wired into the
// Tool Registry.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/agentcore/chatcore/pkg/models"
)

// Calculator evaluates a simple arithmetic expression. It is implemented on
// go/parser + go/ast rather than an ecosystem expression-evaluation library:
// no such library appears anywhere in the example pack, and Go's own
// expression grammar is a sufficient and already-vendored arithmetic parser
// for the operator set this tool exposes (see DESIGN.md).
type Calculator struct{}

func (Calculator) Describe() *models.Tool {
	return &models.Tool{
		Name:        "calculator",
		Description: "evaluates a basic arithmetic expression, e.g. \"(2 + 3) * 4\"",
		Parameters: []models.ToolParameter{
			{Name: "expression", Type: "string", Required: true},
		},
	}
}

func (Calculator) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var payload struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return "", err
	}
	expr, err := parser.ParseExpr(payload.Expression)
	if err != nil {
		return "", fmt.Errorf("invalid expression: %w", err)
	}
	value, err := evalExpr(expr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%g", value), nil
}

func evalExpr(expr ast.Expr) (float64, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		var v float64
		if _, err := fmt.Sscanf(e.Value, "%g", &v); err != nil {
			return 0, fmt.Errorf("invalid literal %q", e.Value)
		}
		return v, nil
	case *ast.ParenExpr:
		return evalExpr(e.X)
	case *ast.UnaryExpr:
		v, err := evalExpr(e.X)
		if err != nil {
			return 0, err
		}
		if e.Op == token.SUB {
			return -v, nil
		}
		return v, nil
	case *ast.BinaryExpr:
		l, err := evalExpr(e.X)
		if err != nil {
			return 0, err
		}
		r, err := evalExpr(e.Y)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return l + r, nil
		case token.SUB:
			return l - r, nil
		case token.MUL:
			return l * r, nil
		case token.QUO:
			if r == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return l / r, nil
		default:
			return 0, fmt.Errorf("unsupported operator %v", e.Op)
		}
	default:
		return 0, fmt.Errorf("unsupported expression")
	}
}

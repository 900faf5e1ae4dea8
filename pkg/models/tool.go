package models

import (
	"encoding/json"
	"fmt"

	"github.com/agentcore/chatcore/internal/errs"
)

// ToolParameter describes one parameter of a Tool's JSON-schema signature.
type ToolParameter struct {
	Name        string
	Type        string // "string", "number", "integer", "boolean", "array", "object"
	Description string
	Required    bool
	Enum        []string
}

// Tool is the registry-facing description of an invocable function. The
// Invoke callback itself lives on the concrete tool implementation in
// internal/tools, not here — this type is the wire/schema projection only.
type Tool struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// Schema builds the JSON-schema "parameters" object the completion wire
// format expects: when a tool has zero required parameters the "required"
// key is omitted entirely rather than emitted as an empty array.
func (t *Tool) Schema() json.RawMessage {
	props := make(map[string]any, len(t.Parameters))
	var required []string
	for _, p := range t.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	b, _ := json.Marshal(schema)
	return b
}

// WireFunctionSpec serializes to the completion wire format's "functions"
// array entry.
type WireFunctionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToWire serializes the tool into the function-calling wire shape.
func (t *Tool) ToWire() WireFunctionSpec {
	return WireFunctionSpec{Name: t.Name, Description: t.Description, Parameters: t.Schema()}
}

// Validate checks the tool name format, duplicate parameter names and
// parameter types; enum values are not checked.
func (t *Tool) Validate() error {
	if !nameRE.MatchString(t.Name) {
		return errs.Validation("models.Tool.Validate", fmt.Sprintf("invalid tool name %q", t.Name))
	}
	seen := map[string]bool{}
	for _, p := range t.Parameters {
		if seen[p.Name] {
			return errs.Validation("models.Tool.Validate", fmt.Sprintf("duplicate parameter %q", p.Name))
		}
		seen[p.Name] = true
		switch p.Type {
		case "string", "number", "integer", "boolean", "array", "object":
		default:
			return errs.Validation("models.Tool.Validate", fmt.Sprintf("unsupported parameter type %q", p.Type))
		}
	}
	return nil
}

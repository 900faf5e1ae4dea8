// Package tools implements component E: the registry of invocable tools and
// the executor that resolves, validates, invokes, and wraps tool calls into
// ToolResult messages — never letting a tool failure escape as an error to
// the orchestrator.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agentcore/chatcore/pkg/models"
)

// MaxToolNameLength bounds tool names as a resource-exhaustion guard on
// resolution.
const MaxToolNameLength = 256

// Invokable is a concrete tool implementation: its description for the
// wire/schema plus the function that runs it. Invoke must never panic;
// Executor recovers defensively regardless, so a failure never propagates
// as an exception to the orchestrator.
type Invokable interface {
	Describe() *models.Tool
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry is a thread-safe name -> Invokable lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Invokable
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]Invokable{}}
}

// Register adds or replaces a tool by its declared name.
func (r *Registry) Register(tool Invokable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Describe().Name] = tool
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Invokable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// AsModels returns every registered tool's wire/schema description, in the
// shape the Completion Client offers to the model.
func (r *Registry) AsModels() []*models.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Describe())
	}
	return out
}

// Executor runs a ToolUsage message against the Registry and always
// returns a ToolResult message — resolution failures, validation failures,
// and invocation failures are all wrapped rather than returned as errors.
type Executor struct {
	registry *Registry
}

// NewExecutor returns an Executor bound to registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute resolves usage.ToolName, parses and validates usage.ArgsStr
// against the tool's JSON schema, invokes it, and wraps the outcome (or any
// failure along the way) into a ToolResult message.
func (e *Executor) Execute(ctx context.Context, usage *models.Message) (result *models.Message) {
	defer func() {
		if r := recover(); r != nil {
			result, _ = models.NewToolResult(usage.ToolName, errorContent("tool panicked"))
		}
	}()

	if len(usage.ToolName) > MaxToolNameLength {
		out, _ := models.NewToolResult(usage.ToolName, errorContent("tool name exceeds maximum length"))
		return out
	}

	tool, ok := e.registry.Get(usage.ToolName)
	if !ok {
		out, _ := models.NewToolResult(usage.ToolName, errorContent("tool not found: "+usage.ToolName))
		return out
	}

	var args json.RawMessage
	if usage.ArgsStr == "" {
		args = json.RawMessage("{}")
	} else {
		args = json.RawMessage(usage.ArgsStr)
	}
	if !json.Valid(args) {
		out, _ := models.NewToolResult(usage.ToolName, errorContent("invalid JSON arguments"))
		return out
	}

	if err := validateArgs(tool.Describe(), args); err != nil {
		out, _ := models.NewToolResult(usage.ToolName, errorContent(err.Error()))
		return out
	}

	content, err := tool.Invoke(ctx, args)
	if err != nil {
		out, _ := models.NewToolResult(usage.ToolName, errorContent(err.Error()))
		return out
	}

	out, _ := models.NewToolResult(usage.ToolName, content)
	return out
}

func errorContent(msg string) string { return "error: " + msg }

// validateArgs enforces required/unknown/enum argument checks using
// github.com/santhosh-tekuri/jsonschema/v5.
func validateArgs(tool *models.Tool, args json.RawMessage) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(tool.Schema())); err != nil {
		return err
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

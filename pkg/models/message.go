// Package models holds the wire-level data model shared by every component
// of the agent core: messages, tools, model configuration and the
// lifecycle event envelope.
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/chatcore/internal/errs"
)

// Kind discriminates the closed set of Message variants. Go has no sum
// types, so Kind plus the field set below plays that role; constructors are
// the only supported way to build a Message so the invariants in this file
// always hold.
type Kind string

const (
	KindUser       Kind = "user"
	KindSystem     Kind = "system"
	KindSummary    Kind = "summary"
	KindToolResult Kind = "tool_result"
	KindAssistant  Kind = "assistant"
	KindToolUsage  Kind = "tool_usage" // assistant subtype carrying a function call
)

// Role is the wire role a Message serializes under.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "function"
)

// FinishReason mirrors the abstract completion wire format's finish_reason.
type FinishReason string

const (
	FinishUndefined     FinishReason = ""
	FinishStop          FinishReason = "stop"
	FinishFunctionCall  FinishReason = "function_call"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishCancelled     FinishReason = "cancelled"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// MetadataDelimiter is appended, never parsed back, to advisory metadata a
// caller wants the model to see without treating it as conversational
// content. One-way and advisory only (Open Question 3, see DESIGN.md).
const MetadataDelimiter = "<|METADATA|>"

// Message is the closed sum type for every item that can appear in a
// session's history or prompt window.
type Message struct {
	ID      string
	Kind    Kind
	Content string

	// Name is the author name for UserMessage (optional) or the tool's name
	// for ToolResult; it is never set on SystemMessage/SummaryMessage/plain
	// AssistantMessage.
	Name string

	// ToolUsage-only fields.
	ToolName string
	ArgsStr  string

	// ToolResult-only: must equal the preceding ToolUsage's ToolName.
	ResultForTool string

	FinishReason FinishReason

	PromptTokens int
	ReplyTokens  int
	Cost         float64

	Pinned bool

	// Metadata is free-form string→string data a caller wants the model to
	// see without treating it as conversational content. ToWire injects it
	// into the serialized content behind MetadataDelimiter; it is never
	// parsed back out of a message.
	Metadata map[string]string

	CreatedAt time.Time
}

// ROLE returns the wire role for this message's Kind, matching the
// tokenizer's message.ROLE() accounting hook.
func (m *Message) ROLE() Role {
	switch m.Kind {
	case KindUser:
		return RoleUser
	case KindSystem, KindSummary:
		return RoleSystem
	case KindToolResult:
		return RoleTool
	case KindAssistant, KindToolUsage:
		return RoleAssistant
	default:
		return RoleUser
	}
}

// IsToolUsage reports whether this message is the ToolUsage subtype of
// AssistantMessage (used by the tokenizer's per-type accounting and by the
// reply aggregator's variant adoption rule).
func (m *Message) IsToolUsage() bool { return m.Kind == KindToolUsage }

func newID() string { return uuid.NewString() }

// NewUserMessage builds a UserMessage. name is optional; when present it
// must match the author-name format.
func NewUserMessage(content, name string) (*Message, error) {
	if name != "" && !nameRE.MatchString(name) {
		return nil, errs.Validation("models.NewUserMessage", fmt.Sprintf("invalid name %q", name))
	}
	return &Message{ID: newID(), Kind: KindUser, Content: content, Name: name, CreatedAt: time.Now()}, nil
}

// NewSystemMessage builds a SystemMessage (instructions, not user turns).
func NewSystemMessage(content string) *Message {
	return &Message{ID: newID(), Kind: KindSystem, Content: content, CreatedAt: time.Now()}
}

// NewSummaryMessage builds the single rolling summary for a session. Chat
// Memory (component D) enforces the "exactly one per session" invariant via
// set_summary, not this constructor.
func NewSummaryMessage(content string) *Message {
	return &Message{ID: newID(), Kind: KindSummary, Content: content, Pinned: true, CreatedAt: time.Now()}
}

// NewToolResult builds a ToolResult. name must match the tool's name format
// and, per the session invariant, must equal the tool_name of the ToolUsage
// it answers. That pairing is not checked here, since this constructor has
// no view of the preceding message, nor by the History Store on append.
func NewToolResult(toolName, content string) (*Message, error) {
	if !nameRE.MatchString(toolName) {
		return nil, errs.Validation("models.NewToolResult", fmt.Sprintf("invalid tool name %q", toolName))
	}
	return &Message{
		ID: newID(), Kind: KindToolResult, Content: content,
		Name: toolName, ResultForTool: toolName, CreatedAt: time.Now(),
	}, nil
}

// NewAssistantMessage builds a plain assistant reply.
func NewAssistantMessage(content string, finish FinishReason) *Message {
	return &Message{ID: newID(), Kind: KindAssistant, Content: content, FinishReason: finish, CreatedAt: time.Now()}
}

// NewToolUsage builds the ToolUsage subtype of AssistantMessage: an
// assistant turn that invokes a tool instead of (or alongside) replying.
func NewToolUsage(toolName, argsStr, content string, finish FinishReason) (*Message, error) {
	if !nameRE.MatchString(toolName) {
		return nil, errs.Validation("models.NewToolUsage", fmt.Sprintf("invalid tool name %q", toolName))
	}
	return &Message{
		ID: newID(), Kind: KindToolUsage, Content: content,
		ToolName: toolName, ArgsStr: argsStr, FinishReason: finish, CreatedAt: time.Now(),
	}, nil
}

// WireMessage is the abstract completion wire shape: role/content/name,
// with function_call nested for ToolUsage.
type WireMessage struct {
	Role         string        `json:"role"`
	Content      string        `json:"content,omitempty"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *WireFunction `json:"function_call,omitempty"`
}

// WireFunction is the nested function_call shape for ToolUsage messages.
type WireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToWire serializes the message into the abstract completion request shape,
// injecting any metadata into the content behind MetadataDelimiter.
func (m *Message) ToWire() WireMessage {
	w := WireMessage{Role: string(m.ROLE()), Content: WithMetadata(m.Content, m)}
	switch m.Kind {
	case KindUser:
		w.Name = m.Name
	case KindToolResult:
		w.Name = m.Name
	case KindToolUsage:
		w.FunctionCall = &WireFunction{Name: m.ToolName, Arguments: m.ArgsStr}
	}
	return w
}

// WithMetadata appends the advisory metadata delimiter and a JSON payload of
// msg's metadata (with msg's own id included) to content. Returns content
// unchanged if msg carries no metadata. The delimiter is never parsed back
// out of model output.
func WithMetadata(content string, msg *Message) string {
	if len(msg.Metadata) == 0 {
		return content
	}
	payload := make(map[string]string, len(msg.Metadata)+1)
	for k, v := range msg.Metadata {
		payload[k] = v
	}
	payload["id"] = msg.ID
	b, err := json.Marshal(payload)
	if err != nil {
		return content
	}
	return content + "\n" + MetadataDelimiter + "\n" + string(b)
}

// Package aggregator implements component G: folding a stream of
// completion Chunks into a single reply message.
package aggregator

import (
	"time"

	"github.com/agentcore/chatcore/internal/completion"
	"github.com/agentcore/chatcore/pkg/models"
)

// Aggregator is a plain, incrementally-built record rather than a class
// hierarchy: one reply's content and single tool call (name and arguments)
// folded provider-agnostically from a chunk stream.
type Aggregator struct {
	content      string
	toolName     string
	argsStr      string
	isToolUsage  bool
	finish       models.FinishReason
	created      time.Time
	sawChunk     bool
	cancelled    bool
}

// New returns an empty Aggregator.
func New() *Aggregator { return &Aggregator{} }

// Fold incorporates one chunk: content concatenates, the result adopts the
// ToolUsage variant if any chunk was a ToolUsage, tool_name/args_str
// concatenate, and finish_reason adopts the last non-undefined value seen
// (the chunk's own, else its message's).
func (a *Aggregator) Fold(c completion.Chunk) {
	a.sawChunk = true
	if c.Created.After(a.created) {
		a.created = c.Created
	}
	finish := c.FinishReason
	if c.Message != nil {
		if finish == models.FinishUndefined {
			finish = c.Message.FinishReason
		}
		if c.Message.IsToolUsage() {
			a.isToolUsage = true
			a.toolName += c.Message.ToolName
			a.argsStr += c.Message.ArgsStr
		}
		a.content += c.Message.Content
	}
	if finish != models.FinishUndefined {
		a.finish = finish
	}
}

// Cancel marks the aggregation as interrupted mid-stream. The CANCELLED
// finish reason overrides whatever finish reason was last observed.
func (a *Aggregator) Cancel() {
	a.cancelled = true
}

// Result returns the folded reply message, or nil if no chunk ever arrived.
func (a *Aggregator) Result() *models.Message {
	if !a.sawChunk {
		return nil
	}
	finish := a.finish
	if a.cancelled {
		finish = models.FinishCancelled
	}
	if a.isToolUsage {
		toolName := a.toolName
		if toolName == "" {
			toolName = "_"
		}
		m, err := models.NewToolUsage(toolName, a.argsStr, a.content, finish)
		if err != nil {
			// toolName accumulated from provider chunks may violate the
			// author-name format (e.g. longer than 64 characters); fall back to a plain
			// assistant message rather than drop the reply entirely.
			return models.NewAssistantMessage(a.content, finish)
		}
		return m
	}
	return models.NewAssistantMessage(a.content, finish)
}

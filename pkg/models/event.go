package models

import "time"

// EventType names the nine lifecycle events of a generation run
type EventType string

const (
	EventModelRun        EventType = "model_run"
	EventModelStart      EventType = "model_start"
	EventModelGeneration EventType = "model_generation"
	EventModelEnd        EventType = "model_end"
	EventToolUse         EventType = "tool_use"
	EventToolResult      EventType = "tool_result"
	EventModelReply      EventType = "model_reply"
	EventModelInterrupt  EventType = "model_interrupt"
	EventModelError      EventType = "model_error"
)

// Event is the envelope delivered to every registered handler. Seq is
// monotonic per run, starting at 0, so subscribers can detect gaps or
// reordering even though delivery is guaranteed in-order
type Event struct {
	Type      EventType
	RunID     string
	Seq       uint64
	Time      time.Time
	Input     any      // ModelRun: the triggering input (user message, etc.)
	Config    *ModelConfig
	Context   []*Message // ModelStart: the prompt window sent to the model
	Tools     []*Tool    // ModelStart: the tools offered to the model
	Packet    *Message   // ModelGeneration: incremental chunk as a Message
	Message   *Message   // ModelEnd/ModelReply: the finished assistant turn
	ToolUsage *Message   // ToolUse: the ToolUsage message
	ToolResult *Message  // ToolResult: the ToolResult message
	Err       error      // ModelError
}

// RunStats accumulates the metrics finalized at the end of a run
type RunStats struct {
	RunID          string
	PromptTokens   int
	ReplyTokens    int
	ToolCalls      int
	Cost           float64
	Iterations     int
	StartedAt      time.Time
	FinishedAt     time.Time
	FinishReason   FinishReason
}

// Duration returns the wall-clock run length.
func (s RunStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

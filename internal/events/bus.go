// Package events implements component H: sequential, ordered dispatch of
// the nine generation lifecycle events to registered handlers.
package events

import (
	"context"
	"sync/atomic"

	"github.com/agentcore/chatcore/pkg/models"
)

// Handler receives lifecycle events. Handlers are awaited one at a time, in
// registration order, before the next event is dispatched: ordered, full
// delivery is load-bearing here, so there is no multi-sink fan-out or
// backpressure dropping (see DESIGN.md).
type Handler interface {
	Handle(ctx context.Context, event models.Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event models.Event) error

func (f HandlerFunc) Handle(ctx context.Context, event models.Event) error { return f(ctx, event) }

// Bus dispatches events to its registered handlers in order, one run at a
// time. A Bus is not safe for concurrent Emit calls from multiple runs —
// the caller of Orchestrator.Run supplies one Bus per run (cmd/agentcore
// creates one per input line), matching the "single orchestrator instance
// per run" concurrency model
type Bus struct {
	handlers []Handler
	seq      atomic.Uint64
	runID    string
}

// New returns a Bus for a single run, identified by runID.
func New(runID string) *Bus {
	return &Bus{runID: runID}
}

// Subscribe registers a handler. Handlers are invoked in the order they
// were subscribed.
func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// RunID returns the run identifier this Bus stamps onto every event.
func (b *Bus) RunID() string { return b.runID }

// Emit dispatches event to every handler in order, awaiting each one before
// invoking the next. The first handler error aborts dispatch of this event
// (remaining handlers are skipped) and is returned to the caller, which
// wraps it as a ModelError.
func (b *Bus) Emit(ctx context.Context, evt models.Event) error {
	evt.RunID = b.runID
	evt.Seq = b.seq.Add(1) - 1
	for _, h := range b.handlers {
		if err := h.Handle(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// helper constructors for each of the nine lifecycle events, so
// component I never builds a models.Event literal by hand.

func (b *Bus) ModelRun(ctx context.Context, input any) error {
	return b.Emit(ctx, models.Event{Type: models.EventModelRun, Input: input})
}

func (b *Bus) ModelStart(ctx context.Context, cfg *models.ModelConfig, window []*models.Message, tools []*models.Tool) error {
	return b.Emit(ctx, models.Event{Type: models.EventModelStart, Config: cfg, Context: window, Tools: tools})
}

func (b *Bus) ModelGeneration(ctx context.Context, packet *models.Message) error {
	return b.Emit(ctx, models.Event{Type: models.EventModelGeneration, Packet: packet})
}

func (b *Bus) ModelEnd(ctx context.Context, msg *models.Message) error {
	return b.Emit(ctx, models.Event{Type: models.EventModelEnd, Message: msg})
}

func (b *Bus) ToolUse(ctx context.Context, usage *models.Message) error {
	return b.Emit(ctx, models.Event{Type: models.EventToolUse, ToolUsage: usage})
}

func (b *Bus) ToolResult(ctx context.Context, result *models.Message) error {
	return b.Emit(ctx, models.Event{Type: models.EventToolResult, ToolResult: result})
}

func (b *Bus) ModelReply(ctx context.Context, reply *models.Message) error {
	return b.Emit(ctx, models.Event{Type: models.EventModelReply, Message: reply})
}

func (b *Bus) ModelInterrupt(ctx context.Context) error {
	return b.Emit(ctx, models.Event{Type: models.EventModelInterrupt})
}

func (b *Bus) ModelError(ctx context.Context, err error) error {
	return b.Emit(ctx, models.Event{Type: models.EventModelError, Err: err})
}

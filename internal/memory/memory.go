// Package memory implements component D: the token-budgeted prompt window
// over a session's History Store, with progressive summarization of
// evicted messages.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/agentcore/chatcore/internal/errs"
	"github.com/agentcore/chatcore/internal/history"
	"github.com/agentcore/chatcore/internal/tokenizer"
	"github.com/agentcore/chatcore/pkg/models"
)

// Summarizer generates a rolling summary over messages evicted from the
// prompt window. Implementations call back into the Completion Client;
// Memory never recurses into its own pruning while doing so.
type Summarizer interface {
	Summarize(ctx context.Context, evicted []*models.Message, priorSummary string) (string, error)
}

// Memory is the Chat Memory component: it builds a token-budgeted prompt
// window from the History Store, evicting and summarizing as needed.
type Memory struct {
	store      history.Store
	tokenizer  *tokenizer.Tokenizer
	summarizer Summarizer

	// ReplyReservation is tokens set aside for the model's own reply. The
	// prompt budget is model.size - ReplyReservation - 8.
	ReplyReservation int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New returns a Memory bound to a store/tokenizer/summarizer triple.
func New(store history.Store, tk *tokenizer.Tokenizer, summarizer Summarizer, replyReservation int) *Memory {
	return &Memory{
		store:            store,
		tokenizer:        tk,
		summarizer:       summarizer,
		ReplyReservation: replyReservation,
		locks:            map[string]*sync.Mutex{},
	}
}

func (m *Memory) lockFor(sessionID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// Tokenizer returns the tokenizer this Memory is bound to, so callers (the
// orchestrator's metrics finalization) can share the same per-model
// accounting instead of constructing a second one.
func (m *Memory) Tokenizer() *tokenizer.Tokenizer { return m.tokenizer }

// Budget returns the usable prompt-token budget for this memory's bound
// model: size - ReplyReservation, minus a fixed 8-token safety margin.
func (m *Memory) Budget() int {
	budget := m.tokenizer.Model().Size - m.ReplyReservation - 8
	if budget < 0 {
		return 0
	}
	return budget
}

// Append adds a message to the session's history log.
func (m *Memory) Append(ctx context.Context, session models.Session, msg *models.Message) error {
	lock := m.lockFor(session.ID())
	lock.Lock()
	defer lock.Unlock()
	return m.store.Append(ctx, session, msg)
}

// Clear wipes the session's history and summary.
func (m *Memory) Clear(ctx context.Context, session models.Session) error {
	lock := m.lockFor(session.ID())
	lock.Lock()
	defer lock.Unlock()
	return m.store.Clear(ctx, session)
}

// Window returns the prompt window for a session: the rolling summary (if
// any) prepended to the surviving, token-budgeted tail of the history,
// evicting and summarizing older messages as needed
//
// Eviction scans from the oldest message forward, skipping pinned messages
// (the summary itself is always pinned and is never re-evicted), until the
// remaining window fits Budget(). Evicted messages are folded into the
// summary via the Summarizer before being dropped.
func (m *Memory) Window(ctx context.Context, session models.Session) ([]*models.Message, error) {
	lock := m.lockFor(session.ID())
	lock.Lock()
	defer lock.Unlock()

	msgs, err := m.store.Messages(ctx, session, 0)
	if err != nil {
		return nil, err
	}
	summary, err := m.store.Summary(ctx, session)
	if err != nil {
		return nil, err
	}

	budget := m.Budget()
	window := append([]*models.Message{}, msgs...)
	if summary != nil {
		window = append([]*models.Message{summary}, window...)
	}

	if m.tokenizer.MessagesTokens(window) <= budget {
		return window, nil
	}

	var evicted []*models.Message
	for m.tokenizer.MessagesTokens(window) > budget {
		idx := nextEvictable(window)
		if idx < 0 {
			// Nothing left to evict (only pinned/summary remain); stop
			// rather than loop forever — the caller's next completion may
			// still be rejected by the provider for being oversized, which
			// is a ProviderError the orchestrator surfaces, not a
			// Memory concern.
			break
		}
		evicted = append(evicted, window[idx])
		window = append(window[:idx], window[idx+1:]...)
	}

	if len(evicted) == 0 {
		return window, nil
	}

	priorText := ""
	if summary != nil {
		priorText = summary.Content
	}
	newSummaryText, err := m.summarizer.Summarize(ctx, evicted, priorText)
	if err != nil {
		return nil, errs.Model("memory.Window", "summarization failed", err)
	}

	newSummary := models.NewSummaryMessage(newSummaryText)
	if summary != nil {
		newSummary.ID = summary.ID
	}
	if err := m.store.SetSummary(ctx, session, newSummary); err != nil {
		return nil, err
	}

	// Absorbed messages are deleted from the store now that they're folded
	// into the summary, so the next Window call doesn't re-fetch and
	// re-summarize them.
	for _, msg := range evicted {
		if err := m.store.Delete(ctx, session, msg.ID); err != nil {
			return nil, err
		}
	}

	out := make([]*models.Message, 0, len(window)+1)
	out = append(out, newSummary)
	for _, msg := range window {
		if msg.Kind != models.KindSummary {
			out = append(out, msg)
		}
	}
	return out, nil
}

// nextEvictable returns the index of the oldest non-pinned, non-summary
// message in window, or -1 if none remain.
//
// Open Question 1 resolved (DESIGN.md): ToolResult messages are NOT pinned
// by default and participate in eviction like any other message under plain
// FIFO. A ToolUsage and its ToolResult are not evicted together: when only
// the ToolUsage goes, the surviving ToolResult has no ToolUsage before it,
// both in the window and in the stored history, since evicted messages are
// deleted from the store.
func nextEvictable(window []*models.Message) int {
	for i, msg := range window {
		if msg.Kind == models.KindSummary || msg.Pinned {
			continue
		}
		return i
	}
	return -1
}

// BuildSummarizationPrompt renders the messages-to-summarize into a plain
// prompt for an LLM-backed Summarizer.
func BuildSummarizationPrompt(evicted []*models.Message, priorSummary string) string {
	var sb strings.Builder
	if priorSummary != "" {
		sb.WriteString("Existing summary of earlier conversation:\n")
		sb.WriteString(priorSummary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Extend that summary to also cover the following messages. ")
	sb.WriteString("Keep it concise and preserve key facts, decisions, and pending questions.\n\n")
	for _, msg := range evicted {
		sb.WriteString("[")
		sb.WriteString(string(msg.ROLE()))
		sb.WriteString("]: ")
		sb.WriteString(msg.Content)
		if msg.IsToolUsage() {
			sb.WriteString(" (called tool ")
			sb.WriteString(msg.ToolName)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n---\nUpdated summary:")
	return sb.String()
}

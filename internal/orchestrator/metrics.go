package orchestrator

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentcore/chatcore/pkg/models"
)

// Metrics is an events.Handler that exports Prometheus counters
// for a run. The orchestrator has no HTTP server of its own, so cmd/agentcore
// registers these collectors on its own registry and serves them.
type Metrics struct {
	Runs          prometheus.Counter
	ToolCalls     prometheus.Counter
	Cost          prometheus.Counter
	PromptTokens  prometheus.Counter
	ReplyTokens   prometheus.Counter
	Errors        prometheus.Counter
	Cancellations prometheus.Counter
}

// NewMetrics constructs and registers the orchestrator's collectors against
// reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs:          prometheus.NewCounter(prometheus.CounterOpts{Name: "agentcore_runs_total", Help: "Completed generation runs."}),
		ToolCalls:     prometheus.NewCounter(prometheus.CounterOpts{Name: "agentcore_tool_calls_total", Help: "Tool invocations across all runs."}),
		Cost:          prometheus.NewCounter(prometheus.CounterOpts{Name: "agentcore_cost_usd_total", Help: "Accumulated USD cost across all runs."}),
		PromptTokens:  prometheus.NewCounter(prometheus.CounterOpts{Name: "agentcore_prompt_tokens_total", Help: "Prompt tokens consumed across all runs."}),
		ReplyTokens:   prometheus.NewCounter(prometheus.CounterOpts{Name: "agentcore_reply_tokens_total", Help: "Reply tokens generated across all runs."}),
		Errors:        prometheus.NewCounter(prometheus.CounterOpts{Name: "agentcore_errors_total", Help: "Runs that terminated with ModelError."}),
		Cancellations: prometheus.NewCounter(prometheus.CounterOpts{Name: "agentcore_cancellations_total", Help: "Runs that terminated via ModelInterrupt."}),
	}
	reg.MustRegister(m.Runs, m.ToolCalls, m.Cost, m.PromptTokens, m.ReplyTokens, m.Errors, m.Cancellations)
	return m
}

// Handle implements events.Handler, updating collectors from each
// lifecycle event as it is dispatched.
func (m *Metrics) Handle(ctx context.Context, e models.Event) error {
	switch e.Type {
	case models.EventToolUse:
		m.ToolCalls.Inc()
	case models.EventModelEnd:
		if e.Message != nil {
			m.Cost.Add(e.Message.Cost)
			m.PromptTokens.Add(float64(e.Message.PromptTokens))
			m.ReplyTokens.Add(float64(e.Message.ReplyTokens))
		}
	case models.EventModelReply:
		m.Runs.Inc()
	case models.EventModelInterrupt:
		m.Cancellations.Inc()
	case models.EventModelError:
		m.Errors.Inc()
	}
	return nil
}

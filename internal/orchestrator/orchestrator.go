// Package orchestrator implements component I: the state machine that ties
// the History Store, Chat Memory, Tool Registry, Completion Client, Reply
// Aggregator and Event Bus together into one generation run.
package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/agentcore/chatcore/internal/aggregator"
	"github.com/agentcore/chatcore/internal/completion"
	"github.com/agentcore/chatcore/internal/errs"
	"github.com/agentcore/chatcore/internal/events"
	"github.com/agentcore/chatcore/internal/memory"
	"github.com/agentcore/chatcore/internal/tools"
	"github.com/agentcore/chatcore/pkg/models"
)

// Phase names a position in the run's state machine
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseFinished  Phase = "finished"
	PhaseCancelled Phase = "cancelled"
	PhaseError     Phase = "error"
)

// Result is what Run returns once a run reaches a terminal state.
type Result struct {
	Phase  Phase
	Reply  *models.Message // nil on CANCELLED or ERROR
	Stats  models.RunStats
	Err    error // set on ERROR
}

// Generator is the subset of the Completion Client (component F) the
// orchestrator depends on. It is satisfied by *completion.Client; tests
// substitute a fake to drive the state machine without a live endpoint.
type Generator interface {
	Generate(ctx context.Context, cfg *models.ModelConfig, window []*models.Message, tools []*models.Tool) (<-chan completion.Chunk, error)
}

// Orchestrator runs one generation at a time against the session passed to Run: a
// goroutine-driven per-iteration Stream -> ExecuteTools -> Continue loop
// that fires typed lifecycle events through an Event Bus and terminates in
// one of three states (FINISHED/CANCELLED/ERROR) rather than looping
// unconditionally.
type Orchestrator struct {
	memory     *memory.Memory
	registry   *tools.Registry
	executor   *tools.Executor
	completion Generator
	config     *models.ModelConfig

	running atomic.Bool
	cancel  atomic.Pointer[context.CancelFunc]
}

// New returns an Orchestrator bound to one session's dependencies. config is
// the generation config (model, sampling knobs, optional forced tool and
// system prompt) used for every call this instance makes.
func New(mem *memory.Memory, registry *tools.Registry, comp Generator, config *models.ModelConfig) *Orchestrator {
	return &Orchestrator{
		memory:     mem,
		registry:   registry,
		executor:   tools.NewExecutor(registry),
		completion: comp,
		config:     config,
	}
}

// Stop requests cancellation of the in-flight run, if any. It is observed at
// the next suspension point. Calling Stop on an idle orchestrator is a
// no-op; calling it more than once has no additional effect beyond the
// first.
func (o *Orchestrator) Stop() {
	if cancel := o.cancel.Load(); cancel != nil {
		(*cancel)()
	}
}

// Run executes one generation: append userMessage, loop through
// generate/tool-use turns via bus, and return once the run reaches a
// terminal state. Only one Run may be in flight per Orchestrator instance;
// a concurrent call is rejected with a ModelError.
func (o *Orchestrator) Run(ctx context.Context, session models.Session, userMessage *models.Message, bus *events.Bus) (Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		err := errs.Model("orchestrator.Run", "already running", nil)
		return Result{Phase: PhaseError, Err: err}, err
	}
	defer o.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel.Store(&cancel)
	defer cancel()
	defer o.cancel.Store(nil)

	if err := bus.ModelRun(runCtx, userMessage); err != nil {
		return o.fail(runCtx, bus, err)
	}
	if err := o.memory.Append(runCtx, session, userMessage); err != nil {
		return o.fail(runCtx, bus, err)
	}

	startedAt := time.Now()
	reply, stats, err := o.loop(runCtx, session, bus)
	stats.RunID = bus.RunID()
	stats.StartedAt = startedAt
	stats.FinishedAt = time.Now()
	if err != nil {
		if errors.Is(err, errs.ErrCancelled) {
			return Result{Phase: PhaseCancelled, Stats: stats}, nil
		}
		return o.fail(runCtx, bus, err)
	}

	if replyErr := bus.ModelReply(runCtx, reply); replyErr != nil {
		return o.fail(runCtx, bus, replyErr)
	}
	return Result{Phase: PhaseFinished, Reply: reply, Stats: stats}, nil
}

// loop runs the generate/tool-use state machine body until a plain
// assistant reply terminates it or cancellation is observed.
func (o *Orchestrator) loop(ctx context.Context, session models.Session, bus *events.Bus) (*models.Message, models.RunStats, error) {
	var stats models.RunStats
	toolCalls := 0

	for {
		select {
		case <-ctx.Done():
			if err := bus.ModelInterrupt(ctx); err != nil {
				return nil, stats, err
			}
			return nil, stats, errs.Model("orchestrator.loop", "cancelled", errs.ErrCancelled)
		default:
		}

		// (a) Build the prompt window via Chat Memory, prepending the
		// configured system prompt if set so every downstream consumer of
		// window (ModelStart, the completion request and metrics
		// accounting) sees the exact prompt that will be sent.
		window, err := o.memory.Window(ctx, session)
		if err != nil {
			return nil, stats, err
		}
		if o.config.SystemPrompt != "" {
			window = append([]*models.Message{models.NewSystemMessage(o.config.SystemPrompt)}, window...)
		}
		toolModels := o.registry.AsModels()

		// (b) ModelStart.
		if err := bus.ModelStart(ctx, o.config, window, toolModels); err != nil {
			return nil, stats, err
		}

		// (c) Call the Completion Client, folding chunks through the
		// aggregator and firing ModelGeneration per chunk.
		agg := aggregator.New()
		chunks, err := o.completion.Generate(ctx, o.config, window, toolModels)
		if err != nil {
			return nil, stats, err
		}

		cancelled := false
	readLoop:
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					break readLoop
				}
				agg.Fold(chunk)
				if genErr := bus.ModelGeneration(ctx, chunk.Message); genErr != nil {
					return nil, stats, genErr
				}
			case <-ctx.Done():
				cancelled = true
				break readLoop
			}
		}

		// (d) Cancellation observed mid-stream.
		if cancelled || ctx.Err() != nil {
			agg.Cancel()
			if err := bus.ModelInterrupt(ctx); err != nil {
				return nil, stats, err
			}
			return nil, stats, errs.Model("orchestrator.loop", "cancelled", errs.ErrCancelled)
		}

		reply := agg.Result()
		if reply == nil {
			return nil, stats, errs.Provider("orchestrator.loop", "completion produced no chunks", nil)
		}

		// (e) Finalize metrics and fire ModelEnd, then append the reply.
		stats = o.finalizeMetrics(stats, window, toolModels, reply)
		if err := bus.ModelEnd(ctx, reply); err != nil {
			return nil, stats, err
		}
		if err := o.memory.Append(ctx, session, reply); err != nil {
			return nil, stats, err
		}

		// (f) Tool-use turn: dispatch, feed the result back, loop to (a).
		if reply.IsToolUsage() {
			toolCalls++
			stats.ToolCalls = toolCalls
			if err := bus.ToolUse(ctx, reply); err != nil {
				return nil, stats, err
			}
			result := o.executor.Execute(ctx, reply)
			if err := bus.ToolResult(ctx, result); err != nil {
				return nil, stats, err
			}
			if err := o.memory.Append(ctx, session, result); err != nil {
				return nil, stats, err
			}
			continue
		}

		// (g) Plain assistant reply terminates the loop.
		return reply, stats, nil
	}
}

// finalizeMetrics computes the token/cost accounting fired on ModelEnd and
// stamps it onto the reply plus the accumulated run stats.
func (o *Orchestrator) finalizeMetrics(stats models.RunStats, window []*models.Message, offeredTools []*models.Tool, reply *models.Message) models.RunStats {
	tk := o.memory.Tokenizer()
	promptTokens := tk.MessagesTokens(window) + tk.ToolsTokens(offeredTools)
	generatedTokens := tk.ModelTokens(reply, len(offeredTools) > 0)

	reply.PromptTokens = promptTokens
	reply.ReplyTokens = generatedTokens
	reply.Cost = tk.TokensCost(promptTokens, false) + tk.TokensCost(generatedTokens, true)

	stats.PromptTokens += promptTokens
	stats.ReplyTokens += generatedTokens
	stats.Cost += reply.Cost
	stats.Iterations++
	stats.FinishReason = reply.FinishReason
	return stats
}

func (o *Orchestrator) fail(ctx context.Context, bus *events.Bus, cause error) (Result, error) {
	wrapped := errs.Model("orchestrator.Run", "Failed to generate a reply", cause)
	if errs.Is(cause, errs.KindModel) {
		// ModelError itself is re-raised unwrapped
		wrapped = cause
	}
	_ = bus.ModelError(ctx, wrapped)
	return Result{Phase: PhaseError, Err: wrapped}, wrapped
}

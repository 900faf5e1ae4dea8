// Package completion implements component F: a cancellable, retrying
// streaming completion client against an OpenAI-compatible endpoint.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agentcore/chatcore/internal/errs"
	"github.com/agentcore/chatcore/pkg/models"
)

// Retry policy: jittered exponential backoff between 1s and 60s, up to 6
// attempts, retried only on the classified-transient error class.
const (
	retryMinDelay = time.Second
	retryMaxDelay = 60 * time.Second
	retryAttempts = 6
)

// Chunk is a single piece of a streaming completion, already projected onto
// this module's Message model so the Reply Aggregator (component G) never
// needs to see provider wire types.
type Chunk struct {
	Message      *models.Message
	Created      time.Time
	FinishReason models.FinishReason
}

// Client is the Completion Client component: it accepts a prompt window and
// tool list and returns a stream of Chunks, retrying transient failures
// with jittered exponential backoff and honoring cancellation at every
// suspension point.
type Client struct {
	oai *openai.Client
}

// New returns a Client using apiKey against OpenAI's API.
func New(apiKey string) *Client {
	return &Client{oai: openai.NewClient(apiKey)}
}

// NewWithClient returns a Client wrapping an already-configured go-openai
// client (e.g. pointed at a compatible self-hosted endpoint).
func NewWithClient(oai *openai.Client) *Client {
	return &Client{oai: oai}
}

// Generate sends a completion request and streams Chunks on the returned
// channel until the model finishes, the context is cancelled, or an
// unrecoverable error occurs. The channel is always closed by Generate.
//
// On cancellation, Generate does not panic or leak a goroutine: it closes
// the stream and returns, emitting no further chunks. The Reply Aggregator
// returns nil for a stream that delivered no chunk; the caller marks a
// cancelled aggregation with Aggregator.Cancel.
func (c *Client) Generate(ctx context.Context, cfg *models.ModelConfig, window []*models.Message, tools []*models.Tool) (<-chan Chunk, error) {
	req := buildRequest(cfg, window, tools)

	stream, err := retryWithBackoff(ctx, func() (*openai.ChatCompletionStream, error) {
		return c.oai.CreateChatCompletionStream(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk)
	go streamChunks(ctx, stream, out)
	return out, nil
}

// buildRequest projects window onto the provider wire format. window is
// expected to already carry the system prompt (the orchestrator prepends it
// to the Chat Memory window before calling Generate) so that every consumer of the
// window — this request, ModelStart, and the token/cost accounting — agrees
// on what was actually sent.
func buildRequest(cfg *models.ModelConfig, window []*models.Message, tools []*models.Tool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(window))
	for _, m := range window {
		messages = append(messages, toOpenAIMessage(m))
	}

	req := openai.ChatCompletionRequest{
		Model:            cfg.Model.Name,
		Messages:         messages,
		Stream:           true,
		Temperature:      float32(cfg.Temperature),
		PresencePenalty:  float32(cfg.PresencePenalty),
		FrequencyPenalty: float32(cfg.FrequencyPenalty),
	}
	if cfg.MaxTokens > 0 {
		req.MaxTokens = cfg.MaxTokens
	}
	if len(tools) > 0 {
		req.Functions = make([]openai.FunctionDefinition, len(tools))
		for i, t := range tools {
			var schema map[string]any
			_ = json.Unmarshal(t.Schema(), &schema)
			req.Functions[i] = openai.FunctionDefinition{Name: t.Name, Description: t.Description, Parameters: schema}
		}
	}
	// Open Question 2 resolved (DESIGN.md): ForcedTool == "" means "let the
	// model decide", matching OpenAI's function_call:"auto" default rather
	// than function_call:"none" — an empty forced tool is not itself a
	// directive to suppress tool use.
	if cfg.ForcedTool != "" {
		req.FunctionCall = map[string]string{"name": cfg.ForcedTool}
	}
	return req
}

func toOpenAIMessage(m *models.Message) openai.ChatCompletionMessage {
	w := m.ToWire()
	msg := openai.ChatCompletionMessage{Role: w.Role, Content: w.Content, Name: w.Name}
	if w.FunctionCall != nil {
		msg.FunctionCall = &openai.FunctionCall{Name: w.FunctionCall.Name, Arguments: w.FunctionCall.Arguments}
	}
	return msg
}

func streamChunks(ctx context.Context, stream *openai.ChatCompletionStream, out chan<- Chunk) {
	defer close(out)
	defer stream.Close()

	argsStr := ""
	content := ""

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		delta := choice.Delta

		var chunkMsg *models.Message
		finish := mapFinishReason(choice.FinishReason)

		if delta.FunctionCall != nil {
			argsStr += delta.FunctionCall.Arguments
			chunkMsg, _ = models.NewToolUsage(orPlaceholder(delta.FunctionCall.Name), delta.FunctionCall.Arguments, "", finish)
			chunkMsg.ToolName = delta.FunctionCall.Name
		} else if delta.Content != "" {
			content += delta.Content
			chunkMsg = models.NewAssistantMessage(delta.Content, finish)
		} else if finish != models.FinishUndefined {
			// A finish-only delta still reaches the aggregator so the
			// reply's finish reason is not lost.
			chunkMsg = models.NewAssistantMessage("", finish)
		} else {
			continue
		}

		select {
		case out <- Chunk{Message: chunkMsg, Created: time.Unix(resp.Created, 0), FinishReason: finish}:
		case <-ctx.Done():
			return
		}
	}
}

// orPlaceholder lets NewToolUsage accept a delta whose name fragment is
// empty (every delta after the one that carried the name); streamChunks
// then sets the chunk's ToolName back to the fragment itself. The
// Aggregator (G) only cares about the concatenated tool_name across chunks,
// not any single chunk's name validity.
func orPlaceholder(name string) string {
	if name == "" {
		return "_"
	}
	return name
}

func mapFinishReason(r openai.FinishReason) models.FinishReason {
	switch r {
	case openai.FinishReasonStop:
		return models.FinishStop
	case openai.FinishReasonFunctionCall, openai.FinishReasonToolCalls:
		return models.FinishFunctionCall
	case openai.FinishReasonLength:
		return models.FinishLength
	case openai.FinishReasonContentFilter:
		return models.FinishContentFilter
	default:
		return models.FinishUndefined
	}
}

// retryWithBackoff retries fn with jittered exponential backoff
// (min 1s, max 60s, 6 attempts), classifying errors via classify and
// retrying only the Network class.
func retryWithBackoff[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = classify(err)
		if !errs.Is(lastErr, errs.KindNetwork) {
			return zero, lastErr
		}
	}
	return zero, lastErr
}

// backoffDelay returns a duration uniformly distributed in
// [retryMinDelay, min(retryMaxDelay, retryMinDelay * 2^attempt)], matching
// tenacity's wait_random_exponential.
func backoffDelay(attempt int) time.Duration {
	upper := retryMinDelay * time.Duration(int64(1)<<uint(attempt))
	if upper > retryMaxDelay {
		upper = retryMaxDelay
	}
	span := upper - retryMinDelay
	if span <= 0 {
		return retryMinDelay
	}
	return retryMinDelay + time.Duration(rand.Int64N(int64(span)))
}

// classify maps a provider/transport error onto the shared taxonomy:
// connection-ish failures become Network (retried), context-length and
// invalid-request failures become Provider (not retried).
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return errs.Network("completion.Generate", err)
		case 400:
			if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
				return errs.Provider("completion.Generate", "context length exceeded", err)
			}
			return errs.Provider("completion.Generate", "invalid request", err)
		case 401, 403:
			return errs.Provider("completion.Generate", "authentication failed", err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return errs.Network("completion.Generate", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Network("completion.Generate", err)
	}
	if errors.Is(err, context.Canceled) {
		return errs.Model("completion.Generate", "cancelled", errs.ErrCancelled)
	}
	// Anything unclassified is treated as non-transient: only recognized
	// connectivity errors are converted to the retried class.
	return errs.Provider("completion.Generate", "unclassified provider error", err)
}

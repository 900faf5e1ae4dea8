// Package tokenizer implements component A: exact per-model token counting
// and cost accounting against the completion wire shapes in pkg/models.
package tokenizer

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/agentcore/chatcore/pkg/models"
)

// fallbackEncoding is used whenever a model has no known tiktoken encoding.
const fallbackEncoding = "cl100k_base"

// Tokenizer counts tokens for a fixed model, caching the underlying BPE
// encoder so repeated calls don't rebuild its ranks.
type Tokenizer struct {
	model models.SupportedChatModel

	mu   sync.Mutex
	bpe  *tiktoken.Tiktoken
}

// New returns a Tokenizer bound to model.
func New(model models.SupportedChatModel) *Tokenizer {
	return &Tokenizer{model: model}
}

func (t *Tokenizer) encoding() *tiktoken.Tiktoken {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bpe != nil {
		return t.bpe
	}
	enc, err := tiktoken.EncodingForModel(t.model.Name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			// tiktoken-go ships cl100k_base's ranks built in; this only
			// fails if the module's embedded BPE data is corrupted.
			panic("tokenizer: cl100k_base fallback unavailable: " + err.Error())
		}
	}
	t.bpe = enc
	return t.bpe
}

// Tokens returns the number of tokens in a plain string.
func (t *Tokenizer) Tokens(s string) int {
	if s == "" {
		return 0
	}
	return len(t.encoding().Encode(s, nil, nil))
}

// MessageTokens returns the token count for a single message: content costs
// len+3, name costs len+2 (role is omitted when name is present, else the
// role string itself is counted), and ToolUsage adds tool_name+6 plus the
// raw args string.
func (t *Tokenizer) MessageTokens(m *models.Message) int {
	count := 0
	if m.Content != "" {
		count += t.Tokens(m.Content) + 3
	}
	if m.Name != "" {
		count += t.Tokens(m.Name) + 2
	} else {
		count += t.Tokens(string(m.ROLE()))
	}
	if m.IsToolUsage() {
		count += t.Tokens(m.ToolName) + 6
		count += t.Tokens(m.ArgsStr)
	}
	return count
}

// MessagesTokens returns the token count for a full prompt window: messages
// are primed with 2 tokens and replies are primed with 1 (tokenization.py's
// messages_tokens).
func (t *Tokenizer) MessagesTokens(msgs []*models.Message) int {
	total := 2
	for _, m := range msgs {
		total += t.MessageTokens(m)
	}
	return total + 1
}

// ToolsTokens returns the token count contributed by the tools offered to
// the model, matching tokenization.py's rough tools_tokens estimate (15
// token framing allowance plus name/description/parameter text). No tools
// offered costs nothing, since the request then omits them.
func (t *Tokenizer) ToolsTokens(tools []*models.Tool) int {
	if len(tools) == 0 {
		return 0
	}
	total := 15
	for _, tool := range tools {
		total += t.Tokens(tool.Name)
		total += t.Tokens(tool.Description)
		for _, p := range tool.Parameters {
			total += t.Tokens(paramText(p))
		}
	}
	return total
}

func paramText(p models.ToolParameter) string {
	s := p.Type + p.Description
	for _, e := range p.Enum {
		s += e
	}
	return s
}

// ModelTokens returns the token count for a model's own generation,
// matching tokenization.py's model_tokens: a -1 baseline (0 when tools were
// offered), +1 framing per non-empty content, and +4 framing for a
// ToolUsage generation.
func (t *Tokenizer) ModelTokens(m *models.Message, hasTools bool) int {
	count := 0
	if !hasTools {
		count = -1
	}
	if m.Content != "" {
		count += t.Tokens(m.Content)
		count++
	}
	if m.IsToolUsage() {
		count += t.Tokens(m.ToolName)
		count += t.Tokens(m.ArgsStr)
		count += 4
	}
	return count
}

// TokensCost converts a token count into a USD cost against this
// tokenizer's bound model, using input pricing unless isReply is set.
func (t *Tokenizer) TokensCost(tokens int, isReply bool) float64 {
	cost := t.model.InputCost
	if isReply {
		cost = t.model.OutputCost
	}
	return float64(tokens) / 1000 * cost
}

// Model returns the bound model.
func (t *Tokenizer) Model() models.SupportedChatModel { return t.model }

package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/agentcore/chatcore/pkg/models"
)

// PyEval runs a short Python snippet in a subprocess with a hard wall-clock
// timeout, isolating the call behind a context-cancellable exec.Command.
type PyEval struct {
	Timeout time.Duration
}

func (p PyEval) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return 5 * time.Second
}

func (PyEval) Describe() *models.Tool {
	return &models.Tool{
		Name:        "python_eval",
		Description: "evaluates a short, side-effect-free Python expression and returns stdout",
		Parameters: []models.ToolParameter{
			{Name: "code", Type: "string", Required: true},
		},
	}
}

func (p PyEval) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, "python3", "-c", payload.Code)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agentcore/chatcore/pkg/models"
)

// WebSearch dispatches a query against a configurable search provider
// endpoint over stdlib net/http.
type WebSearch struct {
	Endpoint string // e.g. a self-hosted SearXNG instance
	Client   *http.Client
}

func (w WebSearch) client() *http.Client {
	if w.Client != nil {
		return w.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (WebSearch) Describe() *models.Tool {
	return &models.Tool{
		Name:        "web_search",
		Description: "searches the web and returns the top results",
		Parameters: []models.ToolParameter{
			{Name: "query", Type: "string", Required: true},
		},
	}
}

func (w WebSearch) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return "", err
	}
	if w.Endpoint == "" {
		return "", fmt.Errorf("web_search: no provider endpoint configured")
	}
	endpoint := w.Endpoint + "?q=" + url.QueryEscape(payload.Query) + "&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web_search: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

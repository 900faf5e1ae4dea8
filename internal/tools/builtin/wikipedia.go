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

// Wikipedia looks up a page's summary via Wikipedia's REST summary
// endpoint. It uses stdlib net/http directly: a single GET against a fixed
// endpoint doesn't warrant a dedicated HTTP client library.
type Wikipedia struct {
	Client *http.Client
}

func (w Wikipedia) client() *http.Client {
	if w.Client != nil {
		return w.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (Wikipedia) Describe() *models.Tool {
	return &models.Tool{
		Name:        "wikipedia",
		Description: "looks up a short summary of a Wikipedia page by title",
		Parameters: []models.ToolParameter{
			{Name: "title", Type: "string", Required: true},
		},
	}
}

type wikiSummary struct {
	Extract string `json:"extract"`
	Title   string `json:"title"`
}

func (w Wikipedia) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var payload struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return "", err
	}
	endpoint := "https://en.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape(payload.Title)
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
		return "", fmt.Errorf("wikipedia lookup failed: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var summary wikiSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return "", err
	}
	return summary.Extract, nil
}

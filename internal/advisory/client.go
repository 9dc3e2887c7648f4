// Package advisory talks to the stateless tip/ad selection service. It is
// purely advisory: every failure degrades to "no tip shown" and nothing
// here may touch economy state.
package advisory

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// TipRequest carries the lightweight behavioral signals the service keys on.
type TipRequest struct {
	RecentTaps   int      `json:"recent_taps"`
	ActiveBoosts []string `json:"active_boosts"`
	RecentPages  []string `json:"recent_pages"`
}

type tipResponse struct {
	Tip string `json:"tip"`
}

// FetchTip asks for a personalized tip. Cancellable via ctx; callers are
// expected to swallow the error and show nothing.
func (c *Client) FetchTip(ctx context.Context, req TipRequest) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("advisory service not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tips", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisory service returned %d", resp.StatusCode)
	}

	var tip tipResponse
	if err := json.NewDecoder(resp.Body).Decode(&tip); err != nil {
		return "", err
	}

	return tip.Tip, nil
}

package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultLingvaInstances are the mirror instances tried, in order, when the
// primary provider fails.
var DefaultLingvaInstances = []string{
	"https://lingva.ml",
	"https://lingva.lunar.icu",
	"https://translate.plausibility.cloud",
}

// LingvaClient calls one Lingva Translate instance. Each configured
// instance becomes its own mirror in the fallback chain.
type LingvaClient struct {
	baseURL string
	client  *http.Client
}

// lingvaResponse is the JSON response from /api/v2 translation calls.
type lingvaResponse struct {
	Translation string `json:"translation"`
	Error       string `json:"error"`
}

// NewLingvaClient creates a client for one instance base URL.
func NewLingvaClient(baseURL string, timeout time.Duration) *LingvaClient {
	return &LingvaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name including the instance host.
func (lc *LingvaClient) Name() string {
	if u, err := url.Parse(lc.baseURL); err == nil && u.Host != "" {
		return "lingva:" + u.Host
	}
	return "lingva"
}

// Translate converts text between languages. source may be Auto.
func (lc *LingvaClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/%s/%s/%s",
		lc.baseURL,
		url.PathEscape(source),
		url.PathEscape(target),
		url.PathEscape(text),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := lc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lingva request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lingva API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result lingvaResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("lingva: %s", result.Error)
	}
	return result.Translation, nil
}

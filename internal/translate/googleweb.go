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

const googleWebEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleWebClient calls the public Google Translate web endpoint. Primary
// provider: free, supports source auto-detection, but unauthenticated and
// therefore rate-limited — the mirror chain exists for when it throttles.
type GoogleWebClient struct {
	endpoint string
	client   *http.Client
}

// NewGoogleWebClient creates the client. timeout bounds each request.
func NewGoogleWebClient(timeout time.Duration) *GoogleWebClient {
	return &GoogleWebClient{
		endpoint: googleWebEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (gc *GoogleWebClient) Name() string { return "google-web" }

// Translate converts text between languages. source may be Auto.
func (gc *GoogleWebClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("dt", "t")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gc.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := gc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google-web request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google-web API error (status %d): %s", resp.StatusCode, string(body))
	}

	// Response shape: [[[translated, original, ...], ...], ...]. Sentences
	// are split across the inner array; join their first elements.
	var outer []json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(outer) == 0 {
		return "", fmt.Errorf("empty translation response")
	}

	var sentences [][]json.RawMessage
	if err := json.Unmarshal(outer[0], &sentences); err != nil {
		return "", fmt.Errorf("decode sentences: %w", err)
	}

	var b strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(s[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	return b.String(), nil
}

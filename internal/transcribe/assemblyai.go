package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
)

const assemblyBaseURL = "https://api.assemblyai.com/v2/transcript"

// AssemblyClient calls the AssemblyAI transcript API. Implements the
// Provider interface. Jobs are created with one POST and observed with
// repeated GETs; the API reports words with millisecond timestamps.
type AssemblyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// assemblySubmitRequest is the JSON body for job creation.
type assemblySubmitRequest struct {
	AudioURL          string `json:"audio_url"`
	LanguageCode      string `json:"language_code,omitempty"`
	LanguageDetection bool   `json:"language_detection,omitempty"`
}

// assemblyTranscript is the JSON response for both submit and poll.
type assemblyTranscript struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Text          string         `json:"text"`
	Words         []assemblyWord `json:"words"`
	AudioDuration float64        `json:"audio_duration"`
	LanguageCode  string         `json:"language_code"`
	Error         string         `json:"error"`
}

// assemblyWord is a word with millisecond timestamps.
type assemblyWord struct {
	Text  string `json:"text"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// NewAssemblyClient creates an AssemblyAI client. timeout bounds each HTTP
// call, not the job as a whole.
func NewAssemblyClient(apiKey string, timeout time.Duration) *AssemblyClient {
	return &AssemblyClient{
		apiKey:  apiKey,
		baseURL: assemblyBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (ac *AssemblyClient) Name() string { return "assemblyai" }

// Submit creates a transcription job for the given audio URL.
func (ac *AssemblyClient) Submit(ctx context.Context, audioURL, language string) (string, error) {
	reqBody := assemblySubmitRequest{AudioURL: audioURL}
	if language == "" || language == "auto" {
		reqBody.LanguageDetection = true
	} else {
		reqBody.LanguageCode = language
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ac.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", ac.apiKey)

	tr, err := ac.do(req)
	if err != nil {
		return "", err
	}
	if tr.ID == "" {
		return "", fmt.Errorf("provider returned no job id")
	}
	return tr.ID, nil
}

// Poll fetches the current state of a job.
func (ac *AssemblyClient) Poll(ctx context.Context, jobID string) (PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ac.baseURL+"/"+jobID, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", ac.apiKey)

	tr, err := ac.do(req)
	if err != nil {
		return PollResult{}, err
	}

	result := PollResult{
		Text:             tr.Text,
		AudioDurationSec: tr.AudioDuration,
		DetectedLanguage: tr.LanguageCode,
		ErrorMessage:     tr.Error,
	}

	switch tr.Status {
	case "queued":
		result.Status = StatusQueued
	case "processing":
		result.Status = StatusProcessing
	case "completed":
		result.Status = StatusCompleted
	case "error":
		result.Status = StatusError
	default:
		return PollResult{}, fmt.Errorf("unknown job status %q", tr.Status)
	}

	if result.Status == StatusCompleted && len(tr.Words) > 0 {
		result.Words = make([]subtitle.WordToken, len(tr.Words))
		for i, w := range tr.Words {
			result.Words[i] = subtitle.WordToken{Text: w.Text, StartMs: w.Start, EndMs: w.End}
		}
	}

	return result, nil
}

func (ac *AssemblyClient) do(req *http.Request) (*assemblyTranscript, error) {
	resp, err := ac.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assemblyai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assemblyai API error (status %d): %s", resp.StatusCode, string(body))
	}

	var tr assemblyTranscript
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &tr, nil
}

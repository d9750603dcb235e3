// Package transcribe drives an asynchronous speech-to-text provider and
// normalizes its output into subtitle cues.
package transcribe

import (
	"context"

	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
)

// Status is the provider-reported state of a transcription job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status ends the job.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// PollResult is one poll response from the provider. Words, Text and
// DetectedLanguage are only meaningful when Status is StatusCompleted;
// ErrorMessage only when Status is StatusError.
type PollResult struct {
	Status           Status
	Words            []subtitle.WordToken
	Text             string
	AudioDurationSec float64
	DetectedLanguage string
	ErrorMessage     string
}

// Provider is the interface for async speech-to-text backends.
type Provider interface {
	// Submit starts a transcription for a remotely fetchable audio URL and
	// returns an opaque job id. language is an ISO code or "auto".
	Submit(ctx context.Context, audioURL, language string) (string, error)

	// Poll fetches the current state of a previously submitted job.
	Poll(ctx context.Context, jobID string) (PollResult, error)

	// Name identifies the provider in logs and results.
	Name() string
}

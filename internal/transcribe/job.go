package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
)

// DefaultPollInterval is how often a running job asks the provider for its
// state.
const DefaultPollInterval = 2500 * time.Millisecond

// State is the local lifecycle of a Job.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Result is the normalized output of a completed transcription job.
// Read-only once produced.
type Result struct {
	FullText         string
	Cues             []subtitle.Cue
	DetectedLanguage string
	ProviderID       string
}

// JobError is a terminal provider failure. The provider's message is kept
// verbatim; the job is not retried here, that call belongs to the caller.
type JobError struct {
	JobID   string
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("transcription job %s failed: %s", e.JobID, e.Message)
}

// Job tracks one transcription request through the provider. It imposes no
// deadline of its own; callers bound the overall wait through ctx.
type Job struct {
	provider Provider
	interval time.Duration
	log      zerolog.Logger

	id    string
	state State
}

// NewJob creates a job bound to a provider. A non-positive interval falls
// back to DefaultPollInterval.
func NewJob(provider Provider, interval time.Duration, log zerolog.Logger) *Job {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Job{
		provider: provider,
		interval: interval,
		log:      log.With().Str("component", "transcribe-job").Logger(),
	}
}

// ID returns the provider job id, empty until Submit succeeds.
func (j *Job) ID() string { return j.id }

// State returns the job's current local state.
func (j *Job) State() State { return j.state }

// Submit starts the transcription with the provider.
func (j *Job) Submit(ctx context.Context, audioURL, language string) error {
	id, err := j.provider.Submit(ctx, audioURL, language)
	if err != nil {
		return fmt.Errorf("submit transcription: %w", err)
	}
	j.id = id
	j.state = StateSubmitted
	j.log.Info().Str("job_id", id).Str("provider", j.provider.Name()).Msg("transcription job submitted")
	return nil
}

// Run polls until the provider reports a terminal state, then normalizes
// the result. A provider-side failure surfaces as *JobError; a cancelled
// ctx surfaces as ctx.Err().
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if j.id == "" {
		return nil, fmt.Errorf("job not submitted")
	}
	j.state = StatePolling

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		res, err := j.provider.Poll(ctx, j.id)
		if err != nil {
			j.state = StateFailed
			return nil, fmt.Errorf("poll transcription: %w", err)
		}

		switch {
		case res.Status == StatusError:
			j.state = StateFailed
			return nil, &JobError{JobID: j.id, Message: res.ErrorMessage}
		case res.Status == StatusCompleted:
			j.state = StateCompleted
			return j.normalize(res), nil
		}

		j.log.Debug().Str("job_id", j.id).Str("status", string(res.Status)).Msg("transcription pending")

		select {
		case <-ctx.Done():
			j.state = StateFailed
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// normalize converts a completed poll result into cues.
func (j *Job) normalize(res PollResult) *Result {
	cues := subtitle.BuildCues(res.Words, res.Text, res.AudioDurationSec)
	return &Result{
		FullText:         res.Text,
		Cues:             cues,
		DetectedLanguage: res.DetectedLanguage,
		ProviderID:       j.provider.Name(),
	}
}

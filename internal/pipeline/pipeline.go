package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/acquire"
	"github.com/lost-pika/backend-ai-subtitler/internal/metrics"
	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
	"github.com/lost-pika/backend-ai-subtitler/internal/transcribe"
	"github.com/lost-pika/backend-ai-subtitler/internal/translate"
)

// Request describes one subtitle job. Exactly one of SourceURL and LocalPath
// must be set.
type Request struct {
	SourceURL  string `json:"url,omitempty"`
	LocalPath  string `json:"-"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`

	// DeleteLocal removes LocalPath once acquisition finishes. Set by the
	// HTTP layer for files it spooled to a temp location.
	DeleteLocal bool `json:"-"`
}

// Result is what a completed run produced.
type Result struct {
	SubtitlePath   string  `json:"subtitle_path"`
	SubtitleName   string  `json:"subtitle_name"`
	CueCount       int     `json:"cue_count"`
	SourceLangUsed string  `json:"source_lang_used"`
	TargetLang     string  `json:"target_lang,omitempty"`
	AudioURL       string  `json:"audio_url"`
	Strategy       string  `json:"strategy"`
	DurationSec    float64 `json:"duration_sec"`
}

// Acquirer is the slice of acquire.Acquirer the pipeline needs.
type Acquirer interface {
	AcquireURL(ctx context.Context, rawURL string) (*acquire.Outcome, error)
	AcquireFile(ctx context.Context, path string) (*acquire.Outcome, error)
}

// TranslateEngine is the slice of translate.Engine the pipeline needs.
type TranslateEngine interface {
	Translate(ctx context.Context, cues []subtitle.Cue, sourceHint, target string) (*translate.Outcome, error)
}

// Service runs subtitle jobs end to end: acquire the media, transcribe it,
// optionally translate the cues, and render a subtitle file to disk.
type Service struct {
	acquirer   Acquirer
	provider   transcribe.Provider
	translator TranslateEngine
	cleaner    MediaCleaner
	registry   *Registry
	log        zerolog.Logger

	subtitleDir  string
	pollInterval time.Duration
	deadline     time.Duration
}

// MediaCleaner removes a stored media object once a job no longer needs it.
type MediaCleaner interface {
	Delete(ctx context.Context, publicID string) error
}

// Options carries the tunables the service reads from config. Cleaner is
// optional; when set, acquired media objects are deleted after the job
// finishes.
type Options struct {
	SubtitleDir  string
	PollInterval time.Duration
	Deadline     time.Duration
	Cleaner      MediaCleaner
}

func NewService(acq Acquirer, provider transcribe.Provider, tr TranslateEngine, opts Options, log zerolog.Logger) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = transcribe.DefaultPollInterval
	}
	if opts.Deadline <= 0 {
		opts.Deadline = 30 * time.Minute
	}
	if opts.SubtitleDir == "" {
		opts.SubtitleDir = "./subtitles"
	}
	return &Service{
		acquirer:     acq,
		provider:     provider,
		translator:   tr,
		cleaner:      opts.Cleaner,
		registry:     NewRegistry(),
		log:          log.With().Str("component", "pipeline").Logger(),
		subtitleDir:  opts.SubtitleDir,
		pollInterval: opts.PollInterval,
		deadline:     opts.Deadline,
	}
}

// Registry exposes the in-memory record store for the HTTP layer.
func (s *Service) Registry() *Registry { return s.registry }

// Lookup returns the record for a previously submitted job.
func (s *Service) Lookup(id string) (Record, bool) { return s.registry.Get(id) }

// Submit validates the request, registers a record, and runs the job in the
// background. Callers poll the registry for completion.
func (s *Service) Submit(ctx context.Context, req Request) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec := s.registry.Create()
	id := rec.ID
	go func() {
		// Detach from the request context; the HTTP request that
		// submitted the job finishes long before the job does.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deadline+10*time.Minute)
		defer cancel()
		s.registry.setRunning(id)
		res, err := s.Run(runCtx, req)
		if err != nil {
			s.registry.setFailed(id, err)
			return
		}
		s.registry.setCompleted(id, res)
	}()
	return &rec, nil
}

// Run executes one job synchronously. On any failure no subtitle file is
// left behind.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	outcome, err := s.acquireMedia(ctx, req)
	if err != nil {
		return nil, err
	}
	// Acquired media is a transient input; drop it from the store once the
	// job finishes, whichever way it ends.
	if s.cleaner != nil && outcome.PublicID != "" {
		defer func() {
			delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if err := s.cleaner.Delete(delCtx, outcome.PublicID); err != nil {
				s.log.Warn().Err(err).Str("public_id", outcome.PublicID).Msg("failed to delete media object")
			}
		}()
	}

	result, err := s.transcribeMedia(ctx, outcome.RemoteURL, req.SourceLang)
	if err != nil {
		return nil, err
	}

	cues := result.Cues
	sourceUsed := req.SourceLang
	target := ""
	if req.TargetLang != "" && req.TargetLang != translate.Auto && s.translator != nil {
		hint := req.SourceLang
		if hint == "" || hint == translate.Auto {
			hint = result.DetectedLanguage
		}
		out, err := s.translator.Translate(ctx, cues, hint, req.TargetLang)
		if err != nil {
			return nil, fmt.Errorf("translate: %w", err)
		}
		cues = out.Cues
		sourceUsed = out.SourceLangUsed
		target = translate.NormalizeLang(req.TargetLang)
	}

	name := subtitleName(target)
	path, err := s.writeSubtitle(name, subtitle.Render(cues, result.FullText))
	if err != nil {
		return nil, err
	}

	metrics.SubtitleCuesTotal.Add(float64(len(cues)))
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("subtitle", name).
		Int("cues", len(cues)).
		Str("strategy", string(outcome.Strategy)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline complete")

	return &Result{
		SubtitlePath:   path,
		SubtitleName:   name,
		CueCount:       len(cues),
		SourceLangUsed: sourceUsed,
		TargetLang:     target,
		AudioURL:       outcome.RemoteURL,
		Strategy:       string(outcome.Strategy),
		DurationSec:    time.Since(start).Seconds(),
	}, nil
}

func (s *Service) acquireMedia(ctx context.Context, req Request) (*acquire.Outcome, error) {
	if req.LocalPath != "" {
		if req.DeleteLocal {
			defer os.Remove(req.LocalPath)
		}
		return s.acquirer.AcquireFile(ctx, req.LocalPath)
	}
	return s.acquirer.AcquireURL(ctx, req.SourceURL)
}

func (s *Service) transcribeMedia(ctx context.Context, audioURL, language string) (*transcribe.Result, error) {
	lang := language
	if lang == translate.Auto {
		lang = ""
	}
	job := transcribe.NewJob(s.provider, s.pollInterval, s.log)
	if err := job.Submit(ctx, audioURL, lang); err != nil {
		metrics.TranscriptionJobsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()
	res, err := job.Run(jobCtx)
	if err != nil {
		metrics.TranscriptionJobsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.TranscriptionJobsTotal.WithLabelValues("completed").Inc()
	return res, nil
}

// writeSubtitle renders through a temp file and renames into place so a
// crashed or failed write never leaves a partial subtitle behind.
func (s *Service) writeSubtitle(name, content string) (string, error) {
	if err := os.MkdirAll(s.subtitleDir, 0o755); err != nil {
		return "", fmt.Errorf("create subtitle dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.subtitleDir, ".subtitle-*")
	if err != nil {
		return "", fmt.Errorf("create subtitle temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write subtitle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close subtitle: %w", err)
	}
	final := filepath.Join(s.subtitleDir, name)
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize subtitle: %w", err)
	}
	return final, nil
}

func subtitleName(target string) string {
	suffix := time.Now().UTC().Format("20060102-150405")
	if target != "" && target != translate.Auto {
		return fmt.Sprintf("subtitle-%s-%s.vtt", target, suffix)
	}
	return fmt.Sprintf("subtitle-%s.vtt", suffix)
}

package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/metrics"
	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
)

// suspiciousDefault is a declared source language that is wrong often
// enough (callers pass their UI default rather than the media's language)
// that script inference runs even when it is present.
const suspiciousDefault = "en"

// defaultCueDelay is the politeness throttle between per-cue provider
// calls. Not a correctness requirement, just rate-limit hygiene.
const defaultCueDelay = 40 * time.Millisecond

// Outcome is the result of translating a cue sequence. Cues has the same
// length and order as the input; only text differs.
type Outcome struct {
	Cues           []subtitle.Cue
	SourceLangUsed string
}

// Error is raised only when the request itself is unusable. Provider
// failures never produce it — they degrade to passthrough text.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "translation request invalid: " + e.Reason
}

// Engine translates cues through a primary provider with ordered mirror
// fallback.
type Engine struct {
	primary  Translator
	mirrors  []Translator
	cueDelay time.Duration
	log      zerolog.Logger

	// sleep is replaceable in tests.
	sleep func(context.Context, time.Duration) error
}

// NewEngine creates a translation engine. A negative cueDelay disables the
// inter-cue throttle; zero selects the default.
func NewEngine(primary Translator, mirrors []Translator, cueDelay time.Duration, log zerolog.Logger) *Engine {
	if cueDelay == 0 {
		cueDelay = defaultCueDelay
	}
	return &Engine{
		primary:  primary,
		mirrors:  mirrors,
		cueDelay: cueDelay,
		log:      log.With().Str("component", "translation-engine").Logger(),
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
}

// Translate converts every cue's text to targetLang, preserving order and
// timing exactly. The source language starts from sourceLangHint and may
// be corrected by script inference; when it resolves to the target the
// input is returned unchanged without any provider call.
func (e *Engine) Translate(ctx context.Context, cues []subtitle.Cue, sourceLangHint, targetLang string) (*Outcome, error) {
	target := NormalizeLang(targetLang)
	if target == Auto {
		return nil, &Error{Reason: fmt.Sprintf("unusable target language %q", targetLang)}
	}

	source := e.resolveSource(cues, sourceLangHint)

	// Same-language requests are a success, not an error: providers reject
	// degenerate pairs, so skip them entirely.
	if source != Auto && strings.EqualFold(source, target) {
		e.log.Debug().Str("lang", source).Msg("source equals target, skipping translation")
		return &Outcome{Cues: cues, SourceLangUsed: source}, nil
	}

	out := make([]subtitle.Cue, len(cues))
	for i, cue := range cues {
		text := e.translateCue(ctx, cue.Text, source, target)
		out[i] = subtitle.Cue{
			Index:    cue.Index,
			StartSec: cue.StartSec,
			EndSec:   cue.EndSec,
			Text:     text,
		}

		if e.cueDelay > 0 && i < len(cues)-1 {
			if err := e.sleep(ctx, e.cueDelay); err != nil {
				return nil, err
			}
		}
	}

	return &Outcome{Cues: out, SourceLangUsed: source}, nil
}

// resolveSource normalizes the hint and lets script inference override it
// when it is absent, auto, or the commonly-wrong default.
func (e *Engine) resolveSource(cues []subtitle.Cue, hint string) string {
	source := NormalizeLang(hint)
	if source != Auto && !strings.EqualFold(source, suspiciousDefault) {
		return source
	}

	if inferred := InferLanguage(cues); inferred != "" && !strings.EqualFold(inferred, source) {
		e.log.Info().Str("hint", source).Str("inferred", inferred).Msg("script inference overrode source language")
		return inferred
	}
	return source
}

// translateCue walks the provider chain for one cue. All-providers-failed
// degrades to the original text; one bad cue never aborts the batch.
func (e *Engine) translateCue(ctx context.Context, text, source, target string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	providers := make([]Translator, 0, 1+len(e.mirrors))
	providers = append(providers, e.primary)
	providers = append(providers, e.mirrors...)

	for _, p := range providers {
		translated, err := p.Translate(ctx, text, source, target)
		if err == nil && strings.TrimSpace(translated) != "" {
			metrics.TranslationRequestsTotal.WithLabelValues(p.Name(), "ok").Inc()
			return translated
		}
		metrics.TranslationRequestsTotal.WithLabelValues(p.Name(), "failed").Inc()
		if err != nil {
			e.log.Warn().Err(err).Str("provider", p.Name()).Msg("translation provider failed, trying next")
		}
	}

	e.log.Warn().Str("target", target).Msg("all translation providers failed, keeping original text")
	return text
}

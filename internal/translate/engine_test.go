package translate

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
)

// fakeTranslator records calls and returns a scripted response.
type fakeTranslator struct {
	name   string
	prefix string
	err    error
	calls  int
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.prefix + text, nil
}

func (f *fakeTranslator) Name() string { return f.name }

func newTestEngine(primary Translator, mirrors ...Translator) *Engine {
	e := NewEngine(primary, mirrors, -1, zerolog.Nop())
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e
}

func sampleCues() []subtitle.Cue {
	return []subtitle.Cue{
		{Index: 1, StartSec: 0, EndSec: 2, Text: "first line"},
		{Index: 2, StartSec: 2, EndSec: 4.5, Text: "second line"},
	}
}

func TestTranslate_PrimaryProvider(t *testing.T) {
	primary := &fakeTranslator{name: "primary", prefix: "fr:"}
	e := newTestEngine(primary)

	out, err := e.Translate(context.Background(), sampleCues(), "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.SourceLangUsed != "en" {
		t.Errorf("SourceLangUsed = %q", out.SourceLangUsed)
	}
	if out.Cues[0].Text != "fr:first line" || out.Cues[1].Text != "fr:second line" {
		t.Errorf("cues = %+v", out.Cues)
	}
	// Timing carried over untouched.
	for i, c := range out.Cues {
		src := sampleCues()[i]
		if c.StartSec != src.StartSec || c.EndSec != src.EndSec || c.Index != src.Index {
			t.Errorf("cue %d timing/index changed: %+v", i, c)
		}
	}
}

func TestTranslate_SameLanguageSkips(t *testing.T) {
	primary := &fakeTranslator{name: "primary", prefix: "x:"}
	e := newTestEngine(primary)

	in := sampleCues()
	out, err := e.Translate(context.Background(), in, "EN", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !reflect.DeepEqual(out.Cues, in) {
		t.Errorf("cues changed on same-language request: %+v", out.Cues)
	}
	if primary.calls != 0 {
		t.Errorf("provider called %d times, want 0", primary.calls)
	}
}

func TestTranslate_MirrorFallback(t *testing.T) {
	primary := &fakeTranslator{name: "primary", err: errors.New("quota exceeded")}
	mirror1 := &fakeTranslator{name: "mirror1", err: errors.New("down")}
	mirror2 := &fakeTranslator{name: "mirror2", prefix: "es:"}
	e := newTestEngine(primary, mirror1, mirror2)

	out, err := e.Translate(context.Background(), sampleCues(), "en", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.Cues[0].Text != "es:first line" {
		t.Errorf("cue text = %q, want mirror2 result", out.Cues[0].Text)
	}
	if mirror1.calls != 2 || mirror2.calls != 2 {
		t.Errorf("mirror calls = %d/%d, want 2/2", mirror1.calls, mirror2.calls)
	}
}

func TestTranslate_AllProvidersFailKeepsOriginalText(t *testing.T) {
	primary := &fakeTranslator{name: "primary", err: errors.New("down")}
	mirror := &fakeTranslator{name: "mirror", err: errors.New("down too")}
	e := newTestEngine(primary, mirror)

	in := sampleCues()
	out, err := e.Translate(context.Background(), in, "en", "de")
	if err != nil {
		t.Fatalf("Translate: %v, want graceful degradation", err)
	}
	for i, c := range out.Cues {
		if c.Text != in[i].Text {
			t.Errorf("cue %d text = %q, want original %q", i, c.Text, in[i].Text)
		}
	}
}

func TestTranslate_EmptyResponseTriggersFallback(t *testing.T) {
	// A provider returning only whitespace counts as a failure.
	whitespace := &translatorFunc{name: "ws", fn: func(text string) (string, error) { return "   ", nil }}
	mirror := &fakeTranslator{name: "mirror", prefix: "ok:"}
	e := newTestEngine(whitespace, mirror)

	out, err := e.Translate(context.Background(), sampleCues()[:1], "en", "it")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.Cues[0].Text != "ok:first line" {
		t.Errorf("text = %q, want mirror to cover whitespace response", out.Cues[0].Text)
	}
}

// translatorFunc adapts a closure to the Translator interface.
type translatorFunc struct {
	name string
	fn   func(text string) (string, error)
}

func (tf *translatorFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return tf.fn(text)
}

func (tf *translatorFunc) Name() string { return tf.name }

func TestTranslate_InferenceOverridesSuspiciousDefault(t *testing.T) {
	var seenSource string
	p := &translatorFunc{name: "primary", fn: func(text string) (string, error) { return "t:" + text, nil }}
	e := newTestEngine(&sourceRecorder{inner: p, seen: &seenSource})

	cues := []subtitle.Cue{
		{Index: 1, StartSec: 0, EndSec: 2, Text: "привет мир"},
		{Index: 2, StartSec: 2, EndSec: 4, Text: "как дела"},
	}

	out, err := e.Translate(context.Background(), cues, "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.SourceLangUsed != "ru" {
		t.Errorf("SourceLangUsed = %q, want ru (inference overrides declared en)", out.SourceLangUsed)
	}
	if seenSource != "ru" {
		t.Errorf("provider saw source %q, want ru", seenSource)
	}
}

// sourceRecorder captures the source language passed to the provider.
type sourceRecorder struct {
	inner Translator
	seen  *string
}

func (sr *sourceRecorder) Translate(ctx context.Context, text, source, target string) (string, error) {
	*sr.seen = source
	return sr.inner.Translate(ctx, text, source, target)
}

func (sr *sourceRecorder) Name() string { return sr.inner.Name() }

func TestTranslate_ExplicitSourceTrusted(t *testing.T) {
	var seenSource string
	p := &translatorFunc{name: "primary", fn: func(text string) (string, error) { return "t:" + text, nil }}
	e := newTestEngine(&sourceRecorder{inner: p, seen: &seenSource})

	// Declared Japanese with Cyrillic content: "ja" is not the suspicious
	// default, so the declaration wins.
	cues := []subtitle.Cue{{Index: 1, Text: "привет"}}
	out, err := e.Translate(context.Background(), cues, "ja", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.SourceLangUsed != "ja" {
		t.Errorf("SourceLangUsed = %q, want declared ja", out.SourceLangUsed)
	}
}

func TestTranslate_InvalidTarget(t *testing.T) {
	e := newTestEngine(&fakeTranslator{name: "primary"})

	if _, err := e.Translate(context.Background(), sampleCues(), "en", ""); err == nil {
		t.Fatal("expected error for unusable target language")
	}
	var tErr *Error
	_, err := e.Translate(context.Background(), sampleCues(), "en", "definitely-not-a-language")
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestTranslate_EmptyCueTextPassesThrough(t *testing.T) {
	primary := &fakeTranslator{name: "primary", prefix: "x:"}
	e := newTestEngine(primary)

	cues := []subtitle.Cue{{Index: 1, Text: "  "}}
	out, err := e.Translate(context.Background(), cues, "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.Cues[0].Text != "  " {
		t.Errorf("blank cue text changed: %q", out.Cues[0].Text)
	}
	if primary.calls != 0 {
		t.Errorf("provider called for blank cue")
	}
}

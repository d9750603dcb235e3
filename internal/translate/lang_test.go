package translate

import (
	"testing"

	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
)

func TestNormalizeLang(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "auto"},
		{"auto", "auto"},
		{"AUTO", "auto"},
		{"en", "en"},
		{"EN", "en"},
		{"  fr  ", "fr"},
		{"pt-br", "pt-BR"},
		{"pt_BR", "pt-BR"},
		{"zh-cn", "zh-CN"},
		{"english", "en"},
		{"Hindi", "hi"},
		{"chinese", "zh-CN"},
		{"klingon", "auto"},
		{"not a language", "auto"},
	}

	for _, tt := range tests {
		if got := NormalizeLang(tt.in); got != tt.want {
			t.Errorf("NormalizeLang(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyScript(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"devanagari", "नमस्ते दुनिया", "hi"},
		{"cyrillic", "привет мир", "ru"},
		{"arabic", "مرحبا بالعالم", "ar"},
		{"han", "你好世界", "zh-CN"},
		{"thai", "สวัสดีชาวโลก", "th"},
		{"hebrew", "שלום עולם", "he"},
		{"latin", "hello world", ""},
		{"mixed_mostly_cyrillic", "ok привет мир", "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyScript(tt.text); got != tt.want {
				t.Errorf("classifyScript(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestInferLanguage_MajorityVote(t *testing.T) {
	cues := []subtitle.Cue{
		{Index: 1, Text: "привет"},
		{Index: 2, Text: "как дела"},
		{Index: 3, Text: "hello"},
	}

	if got := InferLanguage(cues); got != "ru" {
		t.Errorf("InferLanguage = %q, want ru", got)
	}
}

func TestInferLanguage_SamplesFirstEightCues(t *testing.T) {
	cues := make([]subtitle.Cue, 0, 12)
	for i := 0; i < 8; i++ {
		cues = append(cues, subtitle.Cue{Index: i + 1, Text: "plain latin"})
	}
	// Non-Latin text beyond the sample window must not influence the vote.
	for i := 8; i < 12; i++ {
		cues = append(cues, subtitle.Cue{Index: i + 1, Text: "привет"})
	}

	if got := InferLanguage(cues); got != "" {
		t.Errorf("InferLanguage = %q, want no hit from beyond the sample", got)
	}
}

func TestInferLanguage_NoHits(t *testing.T) {
	cues := []subtitle.Cue{{Index: 1, Text: "just english"}}
	if got := InferLanguage(cues); got != "" {
		t.Errorf("InferLanguage = %q, want empty", got)
	}
}

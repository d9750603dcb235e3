// Package translate turns subtitle cues from one language into another
// through an ordered chain of translation providers.
package translate

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"github.com/lost-pika/backend-ai-subtitler/internal/subtitle"
)

// Auto is the sentinel language code meaning "let the provider decide".
const Auto = "auto"

// inferenceSampleSize is how many cues the script-based language inference
// looks at. A simple majority among classified cues wins.
const inferenceSampleSize = 8

// languageNames maps a few common English language names to codes, for
// callers that send "english" instead of "en".
var languageNames = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"hindi":      "hi",
	"russian":    "ru",
	"arabic":     "ar",
	"chinese":    "zh-CN",
	"japanese":   "ja",
	"korean":     "ko",
	"thai":       "th",
	"hebrew":     "he",
}

// NormalizeLang canonicalizes a user-supplied language identifier: bare
// two-letter codes lowercase, region subtags as lang-REGION, recognized
// English language names mapped to codes. Anything unrecognized becomes
// Auto.
func NormalizeLang(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, Auto) {
		return Auto
	}

	if mapped, ok := languageNames[strings.ToLower(code)]; ok {
		return mapped
	}

	code = strings.ReplaceAll(code, "_", "-")
	tag, err := language.Parse(code)
	if err != nil {
		return Auto
	}

	base, baseConf := tag.Base()
	if baseConf == language.No {
		return Auto
	}

	// Keep the region only when the caller spelled one out; Parse can
	// invent a likely region otherwise.
	if strings.Contains(code, "-") {
		if region, regionConf := tag.Region(); regionConf >= language.High {
			return base.String() + "-" + region.String()
		}
	}
	return base.String()
}

// scriptLangs orders the scripts checked during inference. First matching
// script for a rune wins, so Han is last to avoid shadowing by narrower
// ranges.
var scriptLangs = []struct {
	table *unicode.RangeTable
	lang  string
}{
	{unicode.Devanagari, "hi"},
	{unicode.Cyrillic, "ru"},
	{unicode.Arabic, "ar"},
	{unicode.Thai, "th"},
	{unicode.Hebrew, "he"},
	{unicode.Han, "zh-CN"},
}

// classifyScript inspects one text and returns the language implied by its
// dominant non-Latin script, or "" when nothing matched.
func classifyScript(text string) string {
	counts := make(map[string]int, len(scriptLangs))
	for _, r := range text {
		for _, sl := range scriptLangs {
			if unicode.Is(sl.table, r) {
				counts[sl.lang]++
				break
			}
		}
	}

	best := ""
	bestCount := 0
	for _, sl := range scriptLangs {
		if c := counts[sl.lang]; c > bestCount {
			best = sl.lang
			bestCount = c
		}
	}
	return best
}

// InferLanguage samples the first cues and takes a majority vote among the
// script classifications. Returns "" when no cue produced a hit. This is a
// heuristic for catching wrong declared defaults, not a classifier.
func InferLanguage(cues []subtitle.Cue) string {
	votes := make(map[string]int)
	sampled := 0
	for _, cue := range cues {
		if sampled >= inferenceSampleSize {
			break
		}
		sampled++
		if lang := classifyScript(cue.Text); lang != "" {
			votes[lang]++
		}
	}

	winner := ""
	winnerVotes := 0
	for lang, n := range votes {
		if n > winnerVotes || (n == winnerVotes && lang < winner) {
			winner = lang
			winnerVotes = n
		}
	}
	return winner
}

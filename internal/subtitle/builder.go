package subtitle

import "strings"

// MaxCueSeconds is the time budget for a single cue. A cue is closed once
// its span strictly exceeds this after a word is added; the overflowing
// word seeds the next cue.
const MaxCueSeconds = 5.0

// BuildCues segments word tokens into cues under the cue time budget.
//
// When no tokens are available but fullText is non-empty, a single cue
// spanning [0, max(totalDurationSec, 1)] is emitted so plain-text provider
// results still produce a usable subtitle. With neither tokens nor text the
// result is empty.
func BuildCues(words []WordToken, fullText string, totalDurationSec float64) []Cue {
	if len(words) == 0 {
		text := strings.TrimSpace(fullText)
		if text == "" {
			return nil
		}
		end := totalDurationSec
		if end < 1 {
			end = 1
		}
		return []Cue{{Index: 1, StartSec: 0, EndSec: end, Text: text}}
	}

	var cues []Cue
	cueStart := float64(words[0].StartMs) / 1000
	cueEnd := cueStart
	var parts []string

	flush := func() {
		if len(parts) == 0 {
			return
		}
		cues = append(cues, Cue{
			Index:    len(cues) + 1,
			StartSec: cueStart,
			EndSec:   cueEnd,
			Text:     strings.Join(parts, " "),
		})
		parts = nil
	}

	for _, w := range words {
		start := float64(w.StartMs) / 1000
		end := float64(w.EndMs) / 1000

		if len(parts) > 0 && end-cueStart > MaxCueSeconds {
			// Close before the overflowing word; it starts the next cue.
			flush()
			cueStart = start
		}
		if len(parts) == 0 {
			cueStart = start
		}
		parts = append(parts, w.Text)
		cueEnd = end
	}
	flush()

	return cues
}

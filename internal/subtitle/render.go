package subtitle

import (
	"strconv"
	"strings"
)

// Header is the magic first line of every rendered subtitle file.
const Header = "WEBVTT"

// fallbackCueSeconds spans the whole file when rendering text that has no
// timing information at all.
const fallbackCueSeconds = 3600.0

// Render renders cues as a WebVTT document with numeric cue identifiers.
// The output is a pure function of its input: same cues, same bytes. Cue
// order is preserved exactly as given.
//
// When cues is empty and fallbackText is non-empty, a single block covering
// a one-hour sentinel window is emitted so the whole transcript displays as
// one caption.
func Render(cues []Cue, fallbackText string) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n\n")

	if len(cues) == 0 {
		text := normalizeText(fallbackText)
		if text != "" {
			b.WriteString("1\n")
			b.WriteString(FormatTimestamp(0))
			b.WriteString(" --> ")
			b.WriteString(FormatTimestamp(fallbackCueSeconds))
			b.WriteString("\n")
			b.WriteString(text)
			b.WriteString("\n\n")
		}
		return b.String()
	}

	for i, cue := range cues {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
		b.WriteString(FormatTimestamp(cue.StartSec))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(cue.EndSec))
		b.WriteString("\n")
		b.WriteString(normalizeText(cue.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// normalizeText collapses CRLF pairs to single line breaks and trims
// surrounding whitespace so cue payloads never carry stray carriage returns
// into the file.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

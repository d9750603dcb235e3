// Package subtitle converts timed transcription output into subtitle cues
// and renders them as a WebVTT document.
package subtitle

// WordToken is a single transcribed word with millisecond timestamps,
// as reported by the transcription provider.
type WordToken struct {
	Text    string `json:"text"`
	StartMs int64  `json:"start"`
	EndMs   int64  `json:"end"`
}

// Cue is one timed subtitle entry. Cues are value objects: transformations
// (translation, re-indexing) produce new cues rather than mutating existing
// ones.
type Cue struct {
	Index    int     `json:"index"` // 1-based, contiguous
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
	Text     string  `json:"text"`
}

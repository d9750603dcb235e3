package subtitle

import "testing"

func TestBuildCues_SingleCueWithinBudget(t *testing.T) {
	words := []WordToken{
		{Text: "hi", StartMs: 0, EndMs: 500},
		{Text: "there", StartMs: 500, EndMs: 900},
	}

	cues := BuildCues(words, "", 0)

	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	c := cues[0]
	if c.Index != 1 {
		t.Errorf("Index = %d, want 1", c.Index)
	}
	if c.StartSec != 0 || c.EndSec != 0.9 {
		t.Errorf("span = [%v, %v], want [0, 0.9]", c.StartSec, c.EndSec)
	}
	if c.Text != "hi there" {
		t.Errorf("Text = %q, want %q", c.Text, "hi there")
	}
}

func TestBuildCues_OverflowTokenSeedsNextCue(t *testing.T) {
	// Third token pushes the cumulative span to 9s; the cue closes before
	// it and the token starts the next cue.
	words := []WordToken{
		{Text: "one", StartMs: 0, EndMs: 3000},
		{Text: "two", StartMs: 3000, EndMs: 4000},
		{Text: "three", StartMs: 4000, EndMs: 9000},
	}

	cues := BuildCues(words, "", 0)

	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].StartSec != 0 || cues[0].EndSec != 4 {
		t.Errorf("cue 1 span = [%v, %v], want [0, 4]", cues[0].StartSec, cues[0].EndSec)
	}
	if cues[0].Text != "one two" {
		t.Errorf("cue 1 text = %q, want %q", cues[0].Text, "one two")
	}
	if cues[1].StartSec != 4 || cues[1].EndSec != 9 {
		t.Errorf("cue 2 span = [%v, %v], want [4, 9]", cues[1].StartSec, cues[1].EndSec)
	}
	if cues[1].Text != "three" {
		t.Errorf("cue 2 text = %q, want %q", cues[1].Text, "three")
	}
}

func TestBuildCues_ExactBudgetDoesNotClose(t *testing.T) {
	// Span of exactly 5.0s stays in one cue (strict greater-than).
	words := []WordToken{
		{Text: "a", StartMs: 0, EndMs: 2500},
		{Text: "b", StartMs: 2500, EndMs: 5000},
	}

	cues := BuildCues(words, "", 0)

	if len(cues) != 1 {
		t.Fatalf("expected 1 cue at exact budget, got %d", len(cues))
	}
	if cues[0].Text != "a b" {
		t.Errorf("Text = %q, want %q", cues[0].Text, "a b")
	}
}

func TestBuildCues_SingleLongToken(t *testing.T) {
	// One token longer than the budget still becomes its own cue.
	words := []WordToken{{Text: "loooong", StartMs: 0, EndMs: 8000}}

	cues := BuildCues(words, "", 0)

	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].EndSec != 8 {
		t.Errorf("EndSec = %v, want 8", cues[0].EndSec)
	}
}

func TestBuildCues_ContiguousIndices(t *testing.T) {
	words := make([]WordToken, 0, 20)
	for i := 0; i < 20; i++ {
		words = append(words, WordToken{
			Text:    "w",
			StartMs: int64(i) * 2000,
			EndMs:   int64(i)*2000 + 1500,
		})
	}

	cues := BuildCues(words, "", 0)

	if len(cues) < 2 {
		t.Fatalf("expected multiple cues, got %d", len(cues))
	}
	for i, c := range cues {
		if c.Index != i+1 {
			t.Errorf("cue %d has Index %d", i, c.Index)
		}
		if c.EndSec < c.StartSec {
			t.Errorf("cue %d ends before it starts: [%v, %v]", i, c.StartSec, c.EndSec)
		}
	}
}

func TestBuildCues_FallbackFullText(t *testing.T) {
	cues := BuildCues(nil, "whole transcript", 42.5)

	if len(cues) != 1 {
		t.Fatalf("expected 1 fallback cue, got %d", len(cues))
	}
	if cues[0].StartSec != 0 || cues[0].EndSec != 42.5 {
		t.Errorf("span = [%v, %v], want [0, 42.5]", cues[0].StartSec, cues[0].EndSec)
	}
	if cues[0].Text != "whole transcript" {
		t.Errorf("Text = %q", cues[0].Text)
	}
}

func TestBuildCues_FallbackMinimumDuration(t *testing.T) {
	cues := BuildCues(nil, "short", 0)

	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].EndSec != 1 {
		t.Errorf("EndSec = %v, want 1 (minimum fallback duration)", cues[0].EndSec)
	}
}

func TestBuildCues_Empty(t *testing.T) {
	if cues := BuildCues(nil, "", 10); cues != nil {
		t.Errorf("expected nil cues, got %v", cues)
	}
	if cues := BuildCues(nil, "   ", 10); cues != nil {
		t.Errorf("whitespace-only text: expected nil cues, got %v", cues)
	}
}

package game

import "testing"

// TestParseDurationMs covers the "10s"/"500ms" forms and the default
// fallback for empty or malformed input.
func TestParseDurationMs(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"10s", 10000},
		{"500ms", 500},
		{"1.5s", 1500},
		{"", 10000},
		{"soon", 10000},
		{"-2s", 10000},
	}
	for _, tc := range cases {
		if got := ParseDurationMs(tc.in, QuestionDefaultTimeLimitMs); got != tc.want {
			t.Errorf("ParseDurationMs(%q): expected %.0f, got %.0f", tc.in, tc.want, got)
		}
	}
}

// TestTerribleFallbacks verifies the derived terrible values: release is
// half of bad, shame is 1.5x bad rounded up.
func TestTerribleFallbacks(t *testing.T) {
	r := DefaultRules()
	r.PressureRelease.Bad = 5
	r.ShameGain.Bad = 20

	if got := r.ReleaseFor(TierTerrible); got != 2.5 {
		t.Errorf("expected terrible release 2.5, got %.2f", got)
	}
	if got := r.ShameFor(TierTerrible); got != 30 {
		t.Errorf("expected terrible shame 30, got %.2f", got)
	}

	// Odd bad values round up.
	r.ShameGain.Bad = 7
	if got := r.ShameFor(TierTerrible); got != 11 {
		t.Errorf("expected ceil(7*1.5)=11, got %.2f", got)
	}

	// Explicit values win over the fallback.
	release, shame := 9.0, 3.0
	r.PressureRelease.Terrible = &release
	r.ShameGain.Terrible = &shame
	if got := r.ReleaseFor(TierTerrible); got != 9 {
		t.Errorf("expected explicit terrible release 9, got %.2f", got)
	}
	if got := r.ShameFor(TierTerrible); got != 3 {
		t.Errorf("expected explicit terrible shame 3, got %.2f", got)
	}
}

// TestSanitizeRules verifies nonsense tuning is clamped into workable
// ranges.
func TestSanitizeRules(t *testing.T) {
	r := Rules{
		PressureBuildupSpeed:       -4,
		QuestionPressureMultiplier: 0,
		PrecisionWindowMs:          -1,
		LetterVisibleDurationMs:    0,
		MaxPossibleFartsByWord:     0,
		MaxSimultaneousLetters:     -2,
	}
	r = SanitizeRules(r)

	if r.PressureBuildupSpeed != 0 {
		t.Errorf("negative buildup not clamped: %.2f", r.PressureBuildupSpeed)
	}
	if r.QuestionPressureMultiplier != 1 {
		t.Errorf("zero multiplier not defaulted: %.2f", r.QuestionPressureMultiplier)
	}
	if r.PrecisionWindowMs <= 0 || r.LetterVisibleDurationMs <= 0 {
		t.Error("non-positive windows not defaulted")
	}
	if r.MaxPossibleFartsByWord < 1 || r.MaxSimultaneousLetters < 1 {
		t.Error("counts not floored at 1")
	}
}

// TestSanitizeTrackRepairsTimestamps verifies missing and regressing
// marker times become previous + step, keeping the sequence
// non-decreasing.
func TestSanitizeTrackRepairsTimestamps(t *testing.T) {
	track := &Track{Markers: []Marker{
		{Kind: MarkerWord, TimeMs: 0, Value: "a"},
		{Kind: MarkerPhoneme, TimeMs: 0, Value: "aa"},  // missing
		{Kind: MarkerPhoneme, TimeMs: 50, Value: "SS"}, // regresses below repaired previous
		{Kind: MarkerWord, TimeMs: 900, Value: "b"},
	}}
	SanitizeTrack(track)

	prev := -1.0
	for i, m := range track.Markers {
		if m.TimeMs < prev {
			t.Fatalf("marker %d regresses: %.0f after %.0f", i, m.TimeMs, prev)
		}
		prev = m.TimeMs
	}
	if track.Markers[1].TimeMs != DefaultMarkerStepMs {
		t.Errorf("missing timestamp not substituted: %.0f", track.Markers[1].TimeMs)
	}
}

// TestFallbackTrackSpacing verifies the even word spacing derived from
// raw utterance text.
func TestFallbackTrackSpacing(t *testing.T) {
	track := FallbackTrack("one two three four", 4000)
	if len(track.Markers) != 4 {
		t.Fatalf("expected 4 word markers, got %d", len(track.Markers))
	}
	for i, m := range track.Markers {
		if m.Kind != MarkerWord {
			t.Errorf("marker %d: expected word kind, got %q", i, m.Kind)
		}
		if want := float64(i) * 1000; m.TimeMs != want {
			t.Errorf("marker %d: expected t=%.0f, got %.0f", i, want, m.TimeMs)
		}
	}
	if track.HasPhonemes() {
		t.Error("fallback track must not invent phonemes")
	}

	empty := FallbackTrack("   ", 1000)
	if len(empty.Markers) != 0 {
		t.Errorf("blank text should yield an empty track, got %d markers", len(empty.Markers))
	}
}

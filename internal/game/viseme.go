package game

import (
	"strconv"
	"strings"
)

// MarkerKind distinguishes the two marker types of a viseme track.
type MarkerKind string

const (
	MarkerWord    MarkerKind = "word"
	MarkerPhoneme MarkerKind = "phoneme"
)

// Marker is one timestamped event in an utterance: a word boundary or a
// phoneme onset. A phoneme belongs to the word marker immediately
// preceding it.
type Marker struct {
	Kind   MarkerKind `json:"kind"`
	TimeMs float64    `json:"time"`
	Value  string     `json:"value"`
}

// Variant selects which rendition of a dialogue item a track belongs to.
type Variant string

const (
	VariantNone              Variant = ""
	VariantFeedbackCorrect   Variant = "feedback-correct"
	VariantFeedbackIncorrect Variant = "feedback-incorrect"
)

// AnswerVariant returns the track variant for the i-th answer option.
func AnswerVariant(i int) Variant {
	if i < 0 {
		i = 0
	}
	return Variant("answer-" + strconv.Itoa(i))
}

// FeedbackVariantFor maps recorded correctness to its track variant.
func FeedbackVariantFor(correct bool) Variant {
	if correct {
		return VariantFeedbackCorrect
	}
	return VariantFeedbackIncorrect
}

// TrackKey addresses a viseme track. Supplied by the metadata loader.
type TrackKey struct {
	LevelID       string
	DialogueIndex int
	SpeakerID     string
	Variant       Variant
}

// Track is the ordered marker sequence for one utterance rendition.
type Track struct {
	Markers []Marker
}

// TrackSet is the per-level viseme metadata, keyed by utterance.
type TrackSet map[TrackKey]*Track

// SanitizeTrack repairs marker timing in place: missing (zero or
// negative after the first marker) and regressing timestamps become
// previous + DefaultMarkerStepMs, keeping the sequence non-decreasing.
func SanitizeTrack(t *Track) {
	if t == nil {
		return
	}
	prev := 0.0
	for i := range t.Markers {
		m := &t.Markers[i]
		if i > 0 && m.TimeMs <= 0 {
			m.TimeMs = prev + DefaultMarkerStepMs
		}
		if m.TimeMs < prev {
			m.TimeMs = prev + DefaultMarkerStepMs
		}
		prev = m.TimeMs
	}
}

// EndMs returns the timestamp of the last marker, or 0 for an empty track.
func (t *Track) EndMs() float64 {
	if t == nil || len(t.Markers) == 0 {
		return 0
	}
	return t.Markers[len(t.Markers)-1].TimeMs
}

// HasPhonemes reports whether any phoneme markers are present.
func (t *Track) HasPhonemes() bool {
	if t == nil {
		return false
	}
	for _, m := range t.Markers {
		if m.Kind == MarkerPhoneme {
			return true
		}
	}
	return false
}

// FallbackTrack synthesizes evenly spaced word markers from the raw
// utterance text when no recorded metadata exists. The karaoke pointer
// still advances; no phonemes means no opportunities for the item.
func FallbackTrack(text string, durationMs float64) *Track {
	words := strings.Fields(text)
	if len(words) == 0 {
		return &Track{}
	}
	if durationMs <= 0 {
		durationMs = float64(len(words)) * 3 * DefaultMarkerStepMs
	}
	step := durationMs / float64(len(words))
	markers := make([]Marker, 0, len(words))
	for i, w := range words {
		markers = append(markers, Marker{
			Kind:   MarkerWord,
			TimeMs: float64(i) * step,
			Value:  w,
		})
	}
	return &Track{Markers: markers}
}

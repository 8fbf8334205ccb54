package game

import (
	"math"
	"time"
)

// Tier classifies a timed input from best to worst.
type Tier string

const (
	TierPerfect  Tier = "perfect"
	TierOkay     Tier = "okay"
	TierBad      Tier = "bad"
	TierTerrible Tier = "terrible"
	TierMissed   Tier = "missed"
)

// TierValues maps result tiers to a meter delta. Terrible is optional:
// when nil it falls back to a value derived from Bad (release: half,
// shame: 1.5x rounded up).
type TierValues struct {
	Perfect  float64  `yaml:"perfect" json:"perfect"`
	Okay     float64  `yaml:"okay" json:"okay"`
	Bad      float64  `yaml:"bad" json:"bad"`
	Terrible *float64 `yaml:"terrible,omitempty" json:"terrible,omitempty"`
	Missed   float64  `yaml:"missed" json:"missed"`
}

// AnswerDeltas holds the meter adjustments for answering a question.
type AnswerDeltas struct {
	Correct   float64 `yaml:"correct" json:"correct"`
	Incorrect float64 `yaml:"incorrect" json:"incorrect"`
}

// Rules is the per-level tuning block. Loaded from the level file and
// optionally overridden by the host config (see internal/server).
type Rules struct {
	PressureBuildupSpeed       float64 `yaml:"pressure_buildup_speed" json:"pressure_buildup_speed"`  // units per second
	QuestionPressureMultiplier float64 `yaml:"question_pressure_multiplier" json:"question_pressure_multiplier"`
	PrecisionWindowMs          float64 `yaml:"precision_window_ms" json:"precision_window_ms"`
	LetterVisibleDurationMs    float64 `yaml:"letter_visible_duration_ms" json:"letter_visible_duration_ms"`
	MaxPossibleFartsByWord     int     `yaml:"max_possible_farts_by_word" json:"max_possible_farts_by_word"`
	MaxSimultaneousLetters     int     `yaml:"max_simultaneous_letters" json:"max_simultaneous_letters"`
	QuestionTimeLimit          string  `yaml:"question_time_limit" json:"question_time_limit"` // e.g. "10s", "500ms"

	PressureRelease TierValues `yaml:"pressure_release" json:"pressure_release"`
	ShameGain       TierValues `yaml:"shame_gain" json:"shame_gain"`

	AnswerShame    AnswerDeltas `yaml:"answer_shame" json:"answer_shame"`
	AnswerPressure AnswerDeltas `yaml:"answer_pressure" json:"answer_pressure"`

	// BonusWords grants extra per-word opportunity budget for specific
	// (lowercased) words. Empty by default.
	BonusWords map[string]int `yaml:"bonus_words,omitempty" json:"bonus_words,omitempty"`
}

// DefaultRules returns the tuning used when a level omits its rules block.
func DefaultRules() Rules {
	return Rules{
		PressureBuildupSpeed:       6.0,
		QuestionPressureMultiplier: 1.5,
		PrecisionWindowMs:          200,
		LetterVisibleDurationMs:    1200,
		MaxPossibleFartsByWord:     2,
		MaxSimultaneousLetters:     3,
		QuestionTimeLimit:          "10s",
		PressureRelease: TierValues{
			Perfect: 30,
			Okay:    15,
			Bad:     5,
			Missed:  0,
		},
		ShameGain: TierValues{
			Perfect: 0,
			Okay:    2,
			Bad:     20,
			Missed:  0,
		},
		AnswerShame:    AnswerDeltas{Correct: -5, Incorrect: 15},
		AnswerPressure: AnswerDeltas{Correct: -10, Incorrect: 20},
	}
}

// SanitizeRules clamps nonsensical tuning values into workable ranges.
func SanitizeRules(r Rules) Rules {
	if r.PressureBuildupSpeed < 0 {
		r.PressureBuildupSpeed = 0
	}
	if r.QuestionPressureMultiplier <= 0 {
		r.QuestionPressureMultiplier = 1
	}
	if r.PrecisionWindowMs <= 0 {
		r.PrecisionWindowMs = DefaultRules().PrecisionWindowMs
	}
	if r.LetterVisibleDurationMs <= 0 {
		r.LetterVisibleDurationMs = DefaultRules().LetterVisibleDurationMs
	}
	if r.MaxPossibleFartsByWord < 1 {
		r.MaxPossibleFartsByWord = 1
	}
	if r.MaxSimultaneousLetters < 1 {
		r.MaxSimultaneousLetters = 1
	}
	return r
}

// QuestionTimeLimitMs parses the rules duration string, defaulting to
// 10s when absent or unparseable.
func (r Rules) QuestionTimeLimitMs() float64 {
	return ParseDurationMs(r.QuestionTimeLimit, QuestionDefaultTimeLimitMs)
}

// ParseDurationMs converts a duration string like "10s" or "500ms" to
// milliseconds, returning def for empty, malformed, or non-positive input.
func ParseDurationMs(s string, def float64) float64 {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return float64(d) / float64(time.Millisecond)
}

// ReleaseFor returns the pressure released for a result tier.
func (r Rules) ReleaseFor(t Tier) float64 {
	switch t {
	case TierPerfect:
		return r.PressureRelease.Perfect
	case TierOkay:
		return r.PressureRelease.Okay
	case TierBad:
		return r.PressureRelease.Bad
	case TierTerrible:
		if r.PressureRelease.Terrible != nil {
			return *r.PressureRelease.Terrible
		}
		return r.PressureRelease.Bad / 2
	case TierMissed:
		return r.PressureRelease.Missed
	}
	return 0
}

// ShameFor returns the shame gained for a result tier.
func (r Rules) ShameFor(t Tier) float64 {
	switch t {
	case TierPerfect:
		return r.ShameGain.Perfect
	case TierOkay:
		return r.ShameGain.Okay
	case TierBad:
		return r.ShameGain.Bad
	case TierTerrible:
		if r.ShameGain.Terrible != nil {
			return *r.ShameGain.Terrible
		}
		return math.Ceil(r.ShameGain.Bad * 1.5)
	case TierMissed:
		return r.ShameGain.Missed
	}
	return 0
}

// wordBudget returns how many opportunities a single word may carry.
func (r Rules) wordBudget(word string) int {
	budget := r.MaxPossibleFartsByWord
	if bonus, ok := r.BonusWords[word]; ok && bonus > 0 {
		budget += bonus
	}
	return budget
}

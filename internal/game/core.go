package game

const (
	// PressureCeiling is the level at which the body overrules the player.
	PressureCeiling = 100.0
	// ShameMax ends the meeting in defeat when reached.
	ShameMax = 100.0

	// Timing windows, expressed as multiples of rules.PrecisionWindowMs.
	PerfectWindowFactor  = 0.75
	OkayWindowFactor     = 2.0
	ActivationLeadFactor = 2.5

	// TrailingBufferMs is the grace period after the last timing marker
	// before a dialogue item counts as finished.
	TrailingBufferMs = 1000.0

	// DefaultMarkerStepMs substitutes a missing or regressing marker
	// timestamp with previous + step.
	DefaultMarkerStepMs = 180.0

	// Interlude opportunities keep the minigame playable during question
	// and feedback items, which carry no phoneme metadata.
	InterludeOpportunityCount = 3
	InterludeSpanMs           = 6000.0

	// Combo reward shaping.
	ComboBonusCap  = 5
	ComboBonusStep = 5.0

	ScorePerfectBase      = 100.0
	ScorePerfectComboStep = 50.0
	ScoreOkay             = 50.0

	QuestionDefaultTimeLimitMs = 10000.0

	// Server loop rates. The simulation steps at SimHz with a fixed
	// timestep; clients receive state at UpdateRateHz.
	SimHz        = 30.0
	UpdateRateHz = 20.0
	TickMs       = 1000.0 / SimHz
)

// Heartbeat intensity levels for the question countdown overlay.
const (
	HeartbeatOff = iota
	HeartbeatLow
	HeartbeatMed
	HeartbeatHigh
)

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

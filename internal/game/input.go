package game

import "math"

// ResolveTiming classifies a key press against one opportunity. Returns
// nil when the opportunity is not live or the action type does not
// match. Delta thresholds are fractions of the precision window:
// 0.75x perfect, 2x okay, beyond that bad.
func ResolveTiming(action ActionType, o *FartOpportunity, nowMs, windowMs float64) *FartResult {
	if o == nil || !o.Active || o.Handled || o.Action != action {
		return nil
	}
	delta := math.Abs(nowMs - o.TimeMs)
	tier := TierBad
	switch {
	case delta <= PerfectWindowFactor*windowMs:
		tier = TierPerfect
	case delta <= OkayWindowFactor*windowMs:
		tier = TierOkay
	}
	return &FartResult{Tier: tier, Action: action, AtMs: nowMs}
}

// ResolveKeyPress consumes one normalized key-down event. A press that
// matches an active opportunity of its action type is classified by
// timing; a press with no match is strictly worse than any matched press
// and synthesizes a bad result. Returns the next state.
func (e *Engine) ResolveKeyPress(s *GameState, action ActionType, nowMs float64) *GameState {
	if s == nil || !s.Playing || s.GameOver {
		return s
	}
	next := s.Clone()

	best := -1
	bestDelta := math.Inf(1)
	for i := range next.Opportunities {
		o := &next.Opportunities[i]
		if o.DialogueIndex != next.DialogueIndex || !o.Active || o.Handled || o.Pressed {
			continue
		}
		if o.Action != action {
			continue
		}
		if d := math.Abs(nowMs - o.TimeMs); d < bestDelta {
			bestDelta = d
			best = i
		}
	}

	if best < 0 {
		// Wasted press: penalized, never a no-op.
		e.applyResult(next, FartResult{Tier: TierBad, Action: action, AtMs: nowMs})
		next.refreshEffects()
		return next
	}

	o := &next.Opportunities[best]
	res := ResolveTiming(action, o, nowMs, e.rules.PrecisionWindowMs)
	// Freeze the opportunity so later ticks cannot disturb the in-flight
	// success animation; the view retires it when the animation ends.
	o.Pressed = true
	o.Result = res.Tier
	e.applyResult(next, *res)
	next.refreshEffects()
	return next
}

// RetireOpportunity is called by the view layer once a pressed
// opportunity's animation completed; only then does it leave the board.
func (e *Engine) RetireOpportunity(s *GameState, id int) *GameState {
	if s == nil {
		return s
	}
	next := s.Clone()
	if o := next.OpportunityByID(id); o != nil && o.Pressed {
		o.Handled = true
		o.Active = false
	}
	return next
}

// applyResult is the single reducer for every fart outcome, pressed or
// automatic. Pressure is floored at zero, shame clamped to [0,100], and
// shame hitting its maximum ends the session in defeat.
func (e *Engine) applyResult(s *GameState, res FartResult) {
	if !s.Playing || s.GameOver {
		return
	}
	release := e.rules.ReleaseFor(res.Tier)
	shame := e.rules.ShameFor(res.Tier)

	switch res.Tier {
	case TierPerfect:
		release += float64(minInt(s.Combo, ComboBonusCap)) * ComboBonusStep
		s.Score += ScorePerfectBase + float64(s.Combo)*ScorePerfectComboStep
		s.Combo++
	case TierOkay:
		s.Score += ScoreOkay
	case TierBad, TierTerrible:
		s.Combo = 0
	case TierMissed:
		// Combo survives a miss.
	}

	s.Pressure = math.Max(0, s.Pressure-release)
	s.Shame = Clamp(s.Shame+shame, 0, ShameMax)

	if res.Tier != TierMissed {
		r := res
		s.LastResult = &r
	}

	if s.Shame >= ShameMax {
		s.GameOver = true
		s.Playing = false
		s.Victory = false
	}
}

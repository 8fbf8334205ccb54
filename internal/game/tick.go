package game

import (
	"math"
	"sort"
)

// Tick advances the session by elapsedMs and returns the next state.
// No-op while not playing or already over. Order of operations:
// question countdown, pressure growth, auto-trigger, playback advance,
// dialogue completion, opportunity lifecycle, level completion.
func (e *Engine) Tick(s *GameState, elapsedMs float64) *GameState {
	if s == nil || !s.Playing || s.GameOver {
		return s
	}
	next := s.Clone()

	// Question branch: while a question is displayed and unanswered the
	// dialogue clock is paused; only the countdown moves.
	if q := next.Question; q != nil && !q.Answered {
		q.RemainingMs -= elapsedMs
		if q.RemainingMs <= 0 {
			q.RemainingMs = 0
			e.selectAnswer(next, autoPickIndex(q))
		} else {
			next.Effects.Heartbeat = heartbeatLevel(q.RemainingMs / q.TimeLimitMs)
		}
		next.refreshEffects()
		return next
	}

	// Pressure growth, scaled while a question is still pending.
	mult := 1.0
	if next.Question != nil {
		mult = e.rules.QuestionPressureMultiplier
	}
	next.Pressure = math.Max(0, next.Pressure+elapsedMs/1000*e.rules.PressureBuildupSpeed*mult)

	// Auto-trigger: the body wins. Fires once per dialogue turn, with a
	// random action type, and interrupts the normal advance this tick.
	if next.Pressure >= PressureCeiling && next.LastResult == nil {
		e.applyResult(next, FartResult{
			Tier:   TierTerrible,
			Action: e.randomAction(),
			AtMs:   next.ClockMs,
		})
		next.refreshEffects()
		return next
	}

	// Playback advance.
	next.ClockMs += elapsedMs
	track := e.trackFor(next)
	advancePointers(next, track)

	// Dialogue completion.
	if e.itemFinished(next, track) {
		e.advance(next)
	}

	e.updateOpportunities(next)
	e.checkCompletion(next)
	next.refreshEffects()
	return next
}

// heartbeatLevel maps the remaining fraction of question time to an
// intensity hint: low above 50%, medium above 20%, high below.
func heartbeatLevel(remainingFrac float64) int {
	switch {
	case remainingFrac > 0.5:
		return HeartbeatLow
	case remainingFrac > 0.2:
		return HeartbeatMed
	default:
		return HeartbeatHigh
	}
}

// advancePointers scans the current item's markers for the highest index
// whose timestamp is within the dialogue clock. Pointers never decrease
// within a dialogue item.
func advancePointers(s *GameState, track *Track) {
	if track == nil {
		return
	}
	word, phoneme := -1, -1
	for _, m := range track.Markers {
		if m.TimeMs > s.ClockMs {
			break
		}
		switch m.Kind {
		case MarkerWord:
			word++
		case MarkerPhoneme:
			phoneme++
		}
	}
	if word > s.WordIndex {
		s.WordIndex = word
	}
	if phoneme > s.PhonemeIndex {
		s.PhonemeIndex = phoneme
	}
}

// itemFinished reports whether the current item's playback is over:
// either the external clip-finished signal arrived, or the clock passed
// the last marker plus the trailing buffer. Items without markers wait
// for the external signal.
func (e *Engine) itemFinished(s *GameState, track *Track) bool {
	if s.playbackDone {
		return true
	}
	if track == nil || len(track.Markers) == 0 {
		return false
	}
	return s.ClockMs > track.EndMs()+TrailingBufferMs
}

// advance decides what follows the current item. A speech item with a
// trailing answer list turns into a question in place; everything else
// moves to the next dialogue index.
func (e *Engine) advance(s *GameState) {
	item := e.level.Dialogue(s.DialogueIndex)
	if item != nil && item.Role() == RoleSpeech && len(item.Answers) > 0 && s.Question == nil {
		e.enterQuestion(s)
		return
	}
	s.DialogueIndex++
	s.Question = nil
	e.enterItem(s)
}

// enterItem resets the per-item state and prepares the new current item:
// questions open immediately, feedback items pick the reaction matching
// the recorded answer.
func (e *Engine) enterItem(s *GameState) {
	s.ClockMs = 0
	s.WordIndex = -1
	s.PhonemeIndex = -1
	s.LastResult = nil
	s.SpokenVariant = VariantNone
	s.playbackDone = false

	item := e.level.Dialogue(s.DialogueIndex)
	if item == nil {
		return
	}
	switch item.Role() {
	case RoleQuestion:
		e.enterQuestion(s)
	case RoleFeedback:
		e.enterFeedback(s, item)
	}
}

// updateOpportunities runs the lifecycle rules for the current dialogue
// index only. Stale opportunities of earlier dialogues are never read
// again; pressed ones stay frozen until retired externally.
func (e *Engine) updateOpportunities(s *GameState) {
	window := e.rules.PrecisionWindowMs
	lead := ActivationLeadFactor * window

	for i := range s.Opportunities {
		o := &s.Opportunities[i]
		if o.DialogueIndex != s.DialogueIndex || o.Handled || o.Pressed {
			continue
		}
		start := o.TimeMs - lead
		end := o.TimeMs + e.rules.LetterVisibleDurationMs
		switch {
		case s.ClockMs > end:
			o.Handled = true
			o.Active = false
			if o.Result == "" {
				o.Result = TierMissed
				e.applyResult(s, FartResult{Tier: TierMissed, Action: o.Action, AtMs: s.ClockMs})
			}
		case s.ClockMs >= start:
			o.Active = true
		}
	}

	// One active instance per action type: keep the latest marker time.
	latest := map[ActionType]int{}
	for i := range s.Opportunities {
		o := &s.Opportunities[i]
		if o.DialogueIndex != s.DialogueIndex || !o.Active || o.Handled || o.Pressed {
			continue
		}
		j, ok := latest[o.Action]
		if !ok {
			latest[o.Action] = i
			continue
		}
		if o.TimeMs > s.Opportunities[j].TimeMs {
			loser := &s.Opportunities[j]
			loser.Handled = true
			loser.Active = false
			latest[o.Action] = i
		} else {
			o.Handled = true
			o.Active = false
		}
	}

	// Global concurrency cap: keep the earliest-timed ones active,
	// deactivate (but do not handle) the excess.
	var active []int
	for i := range s.Opportunities {
		o := &s.Opportunities[i]
		if o.DialogueIndex == s.DialogueIndex && o.Active && !o.Handled && !o.Pressed {
			active = append(active, i)
		}
	}
	if len(active) > e.rules.MaxSimultaneousLetters {
		sort.SliceStable(active, func(a, b int) bool {
			return s.Opportunities[active[a]].TimeMs < s.Opportunities[active[b]].TimeMs
		})
		for _, i := range active[e.rules.MaxSimultaneousLetters:] {
			s.Opportunities[i].Active = false
		}
	}
}

// checkCompletion flags the end of the level: victory iff the whole
// dialogue played out before shame maxed.
func (e *Engine) checkCompletion(s *GameState) {
	if s.DialogueIndex < len(e.level.Dialogues) {
		return
	}
	s.Playing = false
	s.GameOver = true
	s.Victory = s.Shame < ShameMax
}

// OnPlaybackComplete is the audio collaborator's callback: the clip for
// the current item (dialogue, answer, or feedback rendition) finished.
// Answered questions and feedback items advance immediately; plain
// speech records the signal and lets the next tick advance it, keeping
// one advance path.
func (e *Engine) OnPlaybackComplete(s *GameState) *GameState {
	if s == nil || !s.Playing || s.GameOver {
		return s
	}
	next := s.Clone()
	if q := next.Question; q != nil && !q.Answered {
		// A question is waiting for input; clip completion of the prompt
		// changes nothing.
		return next
	}
	item := e.level.Dialogue(next.DialogueIndex)
	if next.Question != nil || (item != nil && item.Role() == RoleFeedback) {
		e.advance(next)
		e.checkCompletion(next)
		next.refreshEffects()
		return next
	}
	next.playbackDone = true
	return next
}

package game

import "math/rand"

// Engine holds the immutable inputs of one game session: the level, its
// viseme metadata, the sanitized rules, and an injected random source so
// runs are reproducible under test. All operations are pure over the
// GameState they receive and return a fresh value; none perform I/O.
type Engine struct {
	level  *Level
	tracks TrackSet
	rules  Rules
	rng    *rand.Rand
}

// NewEngine builds a session engine. tracks may be nil or sparse; items
// without metadata degrade gracefully. The rules are sanitized and every
// supplied track is timing-repaired up front.
func NewEngine(level *Level, tracks TrackSet, rules Rules, seed int64) *Engine {
	if tracks == nil {
		tracks = TrackSet{}
	}
	for _, t := range tracks {
		SanitizeTrack(t)
	}
	return &Engine{
		level:  level,
		tracks: tracks,
		rules:  SanitizeRules(rules),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Level exposes the session's level definition to the view layer.
func (e *Engine) Level() *Level { return e.level }

// Rules exposes the sanitized tuning in effect.
func (e *Engine) Rules() Rules { return e.rules }

// Initialize creates the state for a fresh session: opportunities
// generated once for the whole level, all meters at rest, playback at
// the first dialogue item.
func (e *Engine) Initialize() *GameState {
	s := &GameState{
		Playing:      true,
		WordIndex:    -1,
		PhonemeIndex: -1,
	}
	s.Opportunities = GenerateOpportunities(e.level, e.tracks, e.rules, e.rng)
	e.enterItem(s)
	s.refreshEffects()
	return s
}

// Reset discards a session's progress and returns a fresh initial state.
// The opportunity list is regenerated so no lifecycle flags leak across
// restarts.
func (e *Engine) Reset(_ *GameState) *GameState {
	return e.Initialize()
}

// trackFor resolves the timing track driving the current item, taking
// the recorded answer or feedback variant into account. Speech items
// without metadata get a synthesized fallback so the karaoke pointer
// still advances.
func (e *Engine) trackFor(s *GameState) *Track {
	item := e.level.Dialogue(s.DialogueIndex)
	if item == nil {
		return nil
	}
	key := TrackKey{
		LevelID:       e.level.ID,
		DialogueIndex: s.DialogueIndex,
		SpeakerID:     item.Speaker,
		Variant:       s.SpokenVariant,
	}
	if t := e.tracks[key]; t != nil {
		return t
	}
	if item.Role() == RoleSpeech && s.SpokenVariant == VariantNone {
		return FallbackTrack(item.Text, 0)
	}
	return nil
}

// randomAction picks a uniformly random action type for synthesized
// results.
func (e *Engine) randomAction() ActionType {
	return ActionTypes[e.rng.Intn(len(ActionTypes))]
}

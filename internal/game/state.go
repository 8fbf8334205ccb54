package game

// QuestionAnswer is one entry of a shuffled answer set. Original is the
// answer's index in the level definition, which the audio layer needs to
// pick the matching synthesized clip variant.
type QuestionAnswer struct {
	Text     string `json:"text"`
	Correct  bool   `json:"correct"`
	Original int    `json:"original"`
}

// QuestionState exists only while a question is displayed.
type QuestionState struct {
	DialogueIndex int              `json:"dialogue_index"`
	Answers       []QuestionAnswer `json:"answers"` // shuffled
	TimeLimitMs   float64          `json:"time_limit"`
	RemainingMs   float64          `json:"remaining"`
	Selected      int              `json:"selected"` // -1 until chosen
	Answered      bool             `json:"answered"`
	Correct       bool             `json:"correct"`
}

// AnswerRecord survives past the QuestionState so the following feedback
// item can pick its matching reaction.
type AnswerRecord struct {
	DialogueIndex int  `json:"dialogue_index"`
	Original      int  `json:"original"`
	Correct       bool `json:"correct"`
}

// ScreenEffects are transient render hints derived from shame and
// question urgency. The view layer reads them; it never writes back.
type ScreenEffects struct {
	Pulse     float64 `json:"pulse"` // 0..1, pressure urgency
	Blur      float64 `json:"blur"`  // 0..1, shame haze
	Heartbeat int     `json:"heartbeat"`
}

// GameState is the central aggregate. Engine operations replace it
// wholesale; nothing ever partially mutates a state another caller can
// still see.
type GameState struct {
	Playing  bool `json:"playing"`
	GameOver bool `json:"game_over"`
	Victory  bool `json:"victory"`

	DialogueIndex int     `json:"dialogue_index"`
	ClockMs       float64 `json:"clock"` // elapsed playback within the current dialogue
	WordIndex     int     `json:"word_index"`
	PhonemeIndex  int     `json:"phoneme_index"`

	Pressure float64 `json:"pressure"` // 0..100, capped by the auto-trigger
	Shame    float64 `json:"shame"`    // 0..100
	Combo    int     `json:"combo"`
	Score    float64 `json:"score"`

	Opportunities []FartOpportunity `json:"opportunities"`
	LastResult    *FartResult       `json:"last_result,omitempty"`
	Question      *QuestionState    `json:"question,omitempty"`
	LastAnswer    *AnswerRecord     `json:"last_answer,omitempty"`

	// SpokenText substitutes the chosen answer or feedback line for a
	// dialogue index, so the karaoke view displays it as if spoken.
	SpokenText map[int]string `json:"spoken_text,omitempty"`
	// SpokenVariant tells the audio layer which rendition of the current
	// item to play.
	SpokenVariant Variant `json:"spoken_variant,omitempty"`

	Effects ScreenEffects `json:"effects"`

	// playbackDone is the external "clip finished" signal for the
	// current item; cleared on every advance.
	playbackDone bool
}

// Clone deep-copies the state. Every engine operation works on a clone,
// so within one call all readers of the previous value see a consistent
// snapshot.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	next := *s
	next.Opportunities = append([]FartOpportunity(nil), s.Opportunities...)
	if s.LastResult != nil {
		r := *s.LastResult
		next.LastResult = &r
	}
	if s.Question != nil {
		q := *s.Question
		q.Answers = append([]QuestionAnswer(nil), s.Question.Answers...)
		next.Question = &q
	}
	if s.LastAnswer != nil {
		a := *s.LastAnswer
		next.LastAnswer = &a
	}
	if s.SpokenText != nil {
		next.SpokenText = make(map[int]string, len(s.SpokenText))
		for k, v := range s.SpokenText {
			next.SpokenText[k] = v
		}
	}
	return &next
}

// PressureDeficit is the signed score view of residual pressure: lower
// leftover pressure means a cleaner survival.
func (s *GameState) PressureDeficit() float64 {
	return -s.Pressure
}

// DisplayText returns what the karaoke view should show for a dialogue
// index: the substituted answer/feedback line if one was recorded,
// otherwise the scripted text.
func (s *GameState) DisplayText(level *Level, index int) string {
	if s != nil {
		if text, ok := s.SpokenText[index]; ok {
			return text
		}
	}
	if item := level.Dialogue(index); item != nil {
		return item.Text
	}
	return ""
}

// OpportunityByID returns a read-only view of one opportunity.
func (s *GameState) OpportunityByID(id int) *FartOpportunity {
	if s == nil || id < 0 || id >= len(s.Opportunities) {
		return nil
	}
	return &s.Opportunities[id]
}

// refreshEffects recomputes the shame/pressure render hints. The
// heartbeat hint is owned by the question branch of Tick.
func (s *GameState) refreshEffects() {
	s.Effects.Blur = Clamp(s.Shame/ShameMax, 0, 1)
	s.Effects.Pulse = Clamp(s.Pressure/PressureCeiling, 0, 1)
	if s.Question == nil {
		s.Effects.Heartbeat = HeartbeatOff
	}
}

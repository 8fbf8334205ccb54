package game

import "log"

// enterQuestion opens the question sub-flow for the current item: the
// answer set is shuffled, the countdown starts from the configured time
// limit, and dialogue playback pauses until an answer is recorded.
func (e *Engine) enterQuestion(s *GameState) {
	item := e.level.Dialogue(s.DialogueIndex)
	if item == nil || len(item.Answers) == 0 {
		return
	}
	answers := make([]QuestionAnswer, len(item.Answers))
	for i, a := range item.Answers {
		answers[i] = QuestionAnswer{Text: a.Text, Correct: a.Correct, Original: i}
	}
	e.rng.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	limit := e.rules.QuestionTimeLimitMs()
	s.Question = &QuestionState{
		DialogueIndex: s.DialogueIndex,
		Answers:       answers,
		TimeLimitMs:   limit,
		RemainingMs:   limit,
		Selected:      -1,
	}
	s.Effects.Heartbeat = HeartbeatLow
}

// enterFeedback picks the reaction matching the recorded answer and
// substitutes it as the item's spoken line. With no recorded answer the
// item plays as written.
func (e *Engine) enterFeedback(s *GameState, item *DialogueItem) {
	if s.LastAnswer == nil {
		return
	}
	entry := item.FeedbackFor(s.LastAnswer.Correct)
	if entry == nil {
		return
	}
	if s.SpokenText == nil {
		s.SpokenText = map[int]string{}
	}
	s.SpokenText[s.DialogueIndex] = entry.Text
	s.SpokenVariant = FeedbackVariantFor(s.LastAnswer.Correct)
}

// SelectAnswer records the player's choice (or the timeout auto-pick)
// and returns the next state. An invalid index or an absent question is
// logged and dismissed without side effects.
func (e *Engine) SelectAnswer(s *GameState, index int) *GameState {
	if s == nil || !s.Playing || s.GameOver {
		return s
	}
	next := s.Clone()
	e.selectAnswer(next, index)
	next.refreshEffects()
	return next
}

func (e *Engine) selectAnswer(s *GameState, index int) {
	q := s.Question
	if q == nil || q.Answered {
		log.Printf("select answer: no question pending (index %d)", index)
		return
	}
	if index < 0 || index >= len(q.Answers) {
		log.Printf("select answer: index %d out of range, dismissing question", index)
		s.Question = nil
		return
	}

	chosen := q.Answers[index]
	q.Selected = index
	q.Answered = true
	q.Correct = chosen.Correct

	if chosen.Correct {
		s.Shame = Clamp(s.Shame+e.rules.AnswerShame.Correct, 0, ShameMax)
		s.Pressure = Clamp(s.Pressure+e.rules.AnswerPressure.Correct, 0, PressureCeiling)
	} else {
		s.Shame = Clamp(s.Shame+e.rules.AnswerShame.Incorrect, 0, ShameMax)
		s.Pressure = Clamp(s.Pressure+e.rules.AnswerPressure.Incorrect, 0, PressureCeiling)
	}

	s.LastAnswer = &AnswerRecord{
		DialogueIndex: q.DialogueIndex,
		Original:      chosen.Original,
		Correct:       chosen.Correct,
	}

	// The chosen answer becomes the spoken line of this item, and its
	// rendition drives playback from the top.
	if s.SpokenText == nil {
		s.SpokenText = map[int]string{}
	}
	s.SpokenText[q.DialogueIndex] = chosen.Text
	s.SpokenVariant = AnswerVariant(chosen.Original)
	s.ClockMs = 0
	s.WordIndex = -1
	s.PhonemeIndex = -1
	s.playbackDone = false

	if s.Shame >= ShameMax {
		s.GameOver = true
		s.Playing = false
		s.Victory = false
	}
}

// autoPickIndex is the timeout fallback: the first incorrect answer, or
// index 0 when every option is correct.
func autoPickIndex(q *QuestionState) int {
	for i, a := range q.Answers {
		if !a.Correct {
			return i
		}
	}
	return 0
}

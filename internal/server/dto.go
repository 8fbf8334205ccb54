package server

import (
	. "SilentButDeadly/internal/game"
)

type stateMsg struct {
	Type      string `json:"type"` // "state"
	SessionID string `json:"session_id"`
	LevelID   string `json:"level_id"`
	Title     string `json:"title"`

	Playing  bool `json:"playing"`
	GameOver bool `json:"game_over"`
	Victory  bool `json:"victory"`

	DialogueIndex int     `json:"dialogue_index"`
	ClockMs       float64 `json:"clock"`
	Speaker       string  `json:"speaker,omitempty"`
	SpeakerName   string  `json:"speaker_name,omitempty"`
	Text          string  `json:"text,omitempty"`
	SpokenVariant string  `json:"spoken_variant,omitempty"`
	WordIndex     int     `json:"word_index"`
	PhonemeIndex  int     `json:"phoneme_index"`

	Pressure   float64 `json:"pressure"`
	Shame      float64 `json:"shame"`
	Combo      int     `json:"combo"`
	Score      float64 `json:"score"`
	FinalScore float64 `json:"final_score"`

	Opportunities []opportunityDTO  `json:"opportunities"`
	LastResult    *resultDTO        `json:"last_result,omitempty"`
	Question      *questionDTO      `json:"question,omitempty"`
	Effects       effectsDTO        `json:"effects"`
	Campaign      []campaignNodeDTO `json:"campaign,omitempty"`
}

type opportunityDTO struct {
	ID        int     `json:"id"`
	WordIndex int     `json:"word_index"`
	TimeMs    float64 `json:"time"`
	Action    string  `json:"action"`
	Pressed   bool    `json:"pressed"`
	Result    string  `json:"result,omitempty"`
}

type resultDTO struct {
	Tier   string  `json:"tier"`
	Action string  `json:"action"`
	AtMs   float64 `json:"at"`
}

type questionDTO struct {
	Answers     []string `json:"answers"`
	TimeLimitMs float64  `json:"time_limit"`
	RemainingMs float64  `json:"remaining"`
	Selected    int      `json:"selected"`
	Answered    bool     `json:"answered"`
	Correct     bool     `json:"correct"`
}

type effectsDTO struct {
	Pulse     float64 `json:"pulse"`
	Blur      float64 `json:"blur"`
	Heartbeat int     `json:"heartbeat"`
}

type campaignNodeDTO struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	LevelID   string  `json:"level_id"`
	Status    string  `json:"status"`
	BestScore float64 `json:"best_score,omitempty"`
}

// buildStateMsg snapshots one session for the client. Only opportunities
// the view can still act on (or must still animate) are included.
func buildStateMsg(h *Hub, sess *Session) stateMsg {
	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	state := sess.state
	lvl := sess.engine.Level()

	msg := stateMsg{
		Type:          "state",
		SessionID:     sess.ID,
		LevelID:       lvl.ID,
		Title:         lvl.Title,
		Playing:       state.Playing,
		GameOver:      state.GameOver,
		Victory:       state.Victory,
		DialogueIndex: state.DialogueIndex,
		ClockMs:       state.ClockMs,
		SpokenVariant: string(state.SpokenVariant),
		WordIndex:     state.WordIndex,
		PhonemeIndex:  state.PhonemeIndex,
		Pressure:      state.Pressure,
		Shame:         state.Shame,
		Combo:         state.Combo,
		Score:         state.Score,
		FinalScore:    FinalScore(state),
		Effects: effectsDTO{
			Pulse:     state.Effects.Pulse,
			Blur:      state.Effects.Blur,
			Heartbeat: state.Effects.Heartbeat,
		},
	}

	if item := lvl.Dialogue(state.DialogueIndex); item != nil {
		msg.Speaker = item.Speaker
		if p := lvl.ParticipantByID(item.Speaker); p != nil {
			msg.SpeakerName = p.Name
		}
	}
	msg.Text = state.DisplayText(lvl, state.DialogueIndex)

	for i := range state.Opportunities {
		o := &state.Opportunities[i]
		visible := o.Active && !o.Handled || o.Pressed && !o.Handled
		if !visible {
			continue
		}
		msg.Opportunities = append(msg.Opportunities, opportunityDTO{
			ID:        o.ID,
			WordIndex: o.WordIndex,
			TimeMs:    o.TimeMs,
			Action:    string(o.Action),
			Pressed:   o.Pressed,
			Result:    string(o.Result),
		})
	}

	if state.LastResult != nil {
		msg.LastResult = &resultDTO{
			Tier:   string(state.LastResult.Tier),
			Action: string(state.LastResult.Action),
			AtMs:   state.LastResult.AtMs,
		}
	}

	if q := state.Question; q != nil {
		answers := make([]string, len(q.Answers))
		for i, a := range q.Answers {
			answers[i] = a.Text
		}
		msg.Question = &questionDTO{
			Answers:     answers,
			TimeLimitMs: q.TimeLimitMs,
			RemainingMs: q.RemainingMs,
			Selected:    q.Selected,
			Answered:    q.Answered,
			Correct:     q.Correct,
		}
	}

	// Stable campaign ordering for client rendering
	for _, id := range h.graph.TopoOrder {
		node := h.graph.Nodes[id]
		msg.Campaign = append(msg.Campaign, campaignNodeDTO{
			ID:        string(node.ID),
			Title:     node.Title,
			LevelID:   node.LevelID,
			Status:    string(sess.progress.GetStatus(node.ID)),
			BestScore: sess.progress.BestScore[node.ID],
		})
	}

	return msg
}

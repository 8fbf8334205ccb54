package game

// Participant identifies one of the scripted meeting attendees.
type Participant struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Voice string `yaml:"voice,omitempty" json:"voice,omitempty"` // synth voice hint for the audio layer
}

// AnswerOption is one choice of a timed question.
type AnswerOption struct {
	Text    string `yaml:"text" json:"text"`
	Correct bool   `yaml:"correct,omitempty" json:"correct,omitempty"`
}

// FeedbackEntry is a post-answer reaction line, selected by whether the
// recorded answer was correct.
type FeedbackEntry struct {
	Correct bool   `yaml:"correct,omitempty" json:"correct,omitempty"`
	Text    string `yaml:"text" json:"text"`
}

// DialogueRole names which of the three item shapes is in play.
type DialogueRole int

const (
	RoleSpeech DialogueRole = iota
	RoleQuestion
	RoleFeedback
)

// DialogueItem is one turn of the scripted conversation. It is
// discriminated by which optional field is present: Text (speech),
// Answers (question), Feedback (post-answer reaction). A speech item may
// additionally carry trailing Answers, in which case it turns into a
// question once its playback completes.
type DialogueItem struct {
	Speaker  string          `yaml:"speaker" json:"speaker"`
	Text     string          `yaml:"text,omitempty" json:"text,omitempty"`
	Answers  []AnswerOption  `yaml:"answers,omitempty" json:"answers,omitempty"`
	Feedback []FeedbackEntry `yaml:"feedback,omitempty" json:"feedback,omitempty"`
}

// Role returns the item's primary role. Speech wins when text is present
// even if a trailing answer list is attached.
func (d DialogueItem) Role() DialogueRole {
	switch {
	case d.Text != "":
		return RoleSpeech
	case len(d.Answers) > 0:
		return RoleQuestion
	default:
		return RoleFeedback
	}
}

// FeedbackFor picks the reaction matching the recorded correctness, or
// nil when the item declares none that fits.
func (d DialogueItem) FeedbackFor(correct bool) *FeedbackEntry {
	for i := range d.Feedback {
		if d.Feedback[i].Correct == correct {
			return &d.Feedback[i]
		}
	}
	return nil
}

// Level is the immutable definition of one meeting: the scripted dialogue
// sequence, its tuning rules, and the participant roster.
type Level struct {
	ID           string         `yaml:"id" json:"id"`
	Title        string         `yaml:"title" json:"title"`
	Participants []Participant  `yaml:"participants" json:"participants"`
	Rules        Rules          `yaml:"rules" json:"rules"`
	Dialogues    []DialogueItem `yaml:"dialogues" json:"dialogues"`
}

// Dialogue returns the item at index i, or nil when out of range.
func (l *Level) Dialogue(i int) *DialogueItem {
	if l == nil || i < 0 || i >= len(l.Dialogues) {
		return nil
	}
	return &l.Dialogues[i]
}

// ParticipantByID looks up an attendee, or nil if unknown.
func (l *Level) ParticipantByID(id string) *Participant {
	for i := range l.Participants {
		if l.Participants[i].ID == id {
			return &l.Participants[i]
		}
	}
	return nil
}

package game

import (
	"math/rand"
	"sort"
	"strings"
)

// ActionType is one of the six input categories a player key maps to.
// Each phonetic sound category collapses onto one of these.
type ActionType string

const (
	ActionBass     ActionType = "bass"     // open vowels
	ActionSqueak   ActionType = "squeak"   // close front vowels
	ActionRumble   ActionType = "rumble"   // rounded back vowels
	ActionStaccato ActionType = "staccato" // plosives
	ActionHiss     ActionType = "hiss"     // fricatives
	ActionRipper   ActionType = "ripper"   // velars and trills
)

// ActionTypes lists the full input alphabet in a stable order.
var ActionTypes = [...]ActionType{
	ActionBass, ActionSqueak, ActionRumble, ActionStaccato, ActionHiss, ActionRipper,
}

// phonemeActions maps raw viseme values onto action types. Values absent
// from the table ("sil", "nn", "TH", and anything unrecognized) yield no
// opportunity.
var phonemeActions = map[string]ActionType{
	"aa": ActionBass,
	"oh": ActionBass,
	"E":  ActionSqueak,
	"ih": ActionSqueak,
	"ou": ActionRumble,
	"PP": ActionStaccato,
	"DD": ActionStaccato,
	"FF": ActionHiss,
	"SS": ActionHiss,
	"CH": ActionHiss,
	"kk": ActionRipper,
	"RR": ActionRipper,
}

// ActionForPhoneme maps a raw phoneme marker value to its action type.
// ok is false for the silent subset that never spawns an opportunity.
func ActionForPhoneme(value string) (ActionType, bool) {
	a, ok := phonemeActions[value]
	return a, ok
}

// ParseActionType validates an action-type string from the outside world.
func ParseActionType(s string) (ActionType, bool) {
	for _, a := range ActionTypes {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// FartOpportunity is one timed input window. Generated once per level
// load; only the lifecycle flags mutate afterwards. Owned exclusively by
// a single GameState.
type FartOpportunity struct {
	ID            int        `json:"id"`
	DialogueIndex int        `json:"dialogue_index"`
	WordIndex     int        `json:"word_index"`
	TimeMs        float64    `json:"time"`
	Action        ActionType `json:"action"`

	Active  bool `json:"active"`
	Handled bool `json:"handled"`
	Pressed bool `json:"pressed"`
	Result  Tier `json:"result,omitempty"`
}

// FartResult is the outcome of a key press or an automatic trigger.
type FartResult struct {
	Tier   Tier       `json:"tier"`
	Action ActionType `json:"action"`
	AtMs   float64    `json:"at"` // dialogue-relative timestamp
}

type candidate struct {
	timeMs    float64
	action    ActionType
	wordIndex int
	word      string
}

// GenerateOpportunities computes the full opportunity list for a level,
// once, from its viseme metadata. Speech items group phonemes by word and
// keep at most the per-word budget, preferring one of each distinct
// action type before repeating types, in chronological order. Question
// and feedback items get a small fixed set of synthesized opportunities
// so the minigame stays playable. Items without metadata yield nothing;
// that is a gameplay degradation, not an error.
func GenerateOpportunities(level *Level, tracks TrackSet, rules Rules, rng *rand.Rand) []FartOpportunity {
	if level == nil {
		return nil
	}
	var out []FartOpportunity
	for d := range level.Dialogues {
		item := &level.Dialogues[d]
		switch item.Role() {
		case RoleSpeech:
			track := tracks[TrackKey{
				LevelID:       level.ID,
				DialogueIndex: d,
				SpeakerID:     item.Speaker,
				Variant:       VariantNone,
			}]
			out = append(out, speechOpportunities(d, track, rules)...)
		default:
			out = append(out, interludeOpportunities(d, rng)...)
		}
	}
	for i := range out {
		out[i].ID = i
	}
	return out
}

func speechOpportunities(dialogueIndex int, track *Track, rules Rules) []FartOpportunity {
	if track == nil || !track.HasPhonemes() {
		return nil
	}

	// Group phoneme candidates under the word marker preceding them.
	byWord := make(map[int][]candidate)
	var wordOrder []int
	wordIndex := -1
	word := ""
	for _, m := range track.Markers {
		switch m.Kind {
		case MarkerWord:
			wordIndex++
			word = strings.ToLower(m.Value)
			wordOrder = append(wordOrder, wordIndex)
		case MarkerPhoneme:
			action, ok := ActionForPhoneme(m.Value)
			if !ok || wordIndex < 0 {
				continue
			}
			byWord[wordIndex] = append(byWord[wordIndex], candidate{
				timeMs:    m.TimeMs,
				action:    action,
				wordIndex: wordIndex,
				word:      word,
			})
		}
	}

	var out []FartOpportunity
	for _, w := range wordOrder {
		cands := byWord[w]
		if len(cands) == 0 {
			continue
		}
		budget := rules.wordBudget(cands[0].word)
		for _, c := range selectPerWord(cands, budget) {
			out = append(out, FartOpportunity{
				DialogueIndex: dialogueIndex,
				WordIndex:     c.wordIndex,
				TimeMs:        c.timeMs,
				Action:        c.action,
			})
		}
	}
	return out
}

// selectPerWord keeps at most budget candidates: first pass takes one of
// each distinct action type in chronological order, second pass fills
// remaining slots with repeats, then restores chronological order.
func selectPerWord(cands []candidate, budget int) []candidate {
	if budget <= 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].timeMs < cands[j].timeMs })

	taken := make([]bool, len(cands))
	seen := make(map[ActionType]bool)
	picked := make([]candidate, 0, budget)
	for i, c := range cands {
		if len(picked) >= budget {
			break
		}
		if seen[c.action] {
			continue
		}
		seen[c.action] = true
		taken[i] = true
		picked = append(picked, c)
	}
	for i, c := range cands {
		if len(picked) >= budget {
			break
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		picked = append(picked, c)
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].timeMs < picked[j].timeMs })
	return picked
}

// interludeOpportunities synthesizes placeholder windows for items that
// carry no phoneme metadata: a fixed count, evenly spaced, random type.
func interludeOpportunities(dialogueIndex int, rng *rand.Rand) []FartOpportunity {
	out := make([]FartOpportunity, 0, InterludeOpportunityCount)
	step := InterludeSpanMs / float64(InterludeOpportunityCount+1)
	for i := 0; i < InterludeOpportunityCount; i++ {
		action := ActionTypes[0]
		if rng != nil {
			action = ActionTypes[rng.Intn(len(ActionTypes))]
		}
		out = append(out, FartOpportunity{
			DialogueIndex: dialogueIndex,
			WordIndex:     i,
			TimeMs:        step * float64(i+1),
			Action:        action,
		})
	}
	return out
}

package game

import "testing"

// TestResolveTimingThresholds verifies the tier boundaries as fractions
// of the precision window: delta 0 is perfect, just past 0.75w is okay,
// just past 2w is bad.
func TestResolveTimingThresholds(t *testing.T) {
	const w = 200.0
	o := &FartOpportunity{TimeMs: 5000, Action: ActionBass, Active: true}

	cases := []struct {
		name string
		now  float64
		want Tier
	}{
		{"exact", 5000, TierPerfect},
		{"inside perfect", 5050, TierPerfect},
		{"perfect boundary", 5150, TierPerfect},
		{"just past perfect", 5151, TierOkay},
		{"early press", 4850, TierPerfect},
		{"okay boundary", 5400, TierOkay},
		{"just past okay", 5401, TierBad},
		{"way off", 6000, TierBad},
	}
	for _, tc := range cases {
		res := ResolveTiming(ActionBass, o, tc.now, w)
		if res == nil {
			t.Fatalf("%s: expected a result, got nil", tc.name)
		}
		if res.Tier != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, res.Tier)
		}
	}
}

// TestResolveTimingDeterministic verifies repeated resolution of the
// same press yields identical results.
func TestResolveTimingDeterministic(t *testing.T) {
	o := &FartOpportunity{TimeMs: 5000, Action: ActionHiss, Active: true}
	a := ResolveTiming(ActionHiss, o, 5120, 200)
	b := ResolveTiming(ActionHiss, o, 5120, 200)
	if a == nil || b == nil || *a != *b {
		t.Errorf("resolution not deterministic: %+v vs %+v", a, b)
	}
}

// TestResolveTimingRejections covers the nil cases: inactive, handled,
// and mismatched action type.
func TestResolveTimingRejections(t *testing.T) {
	if res := ResolveTiming(ActionBass, nil, 0, 200); res != nil {
		t.Errorf("nil opportunity should not resolve, got %+v", res)
	}
	inactive := &FartOpportunity{TimeMs: 100, Action: ActionBass}
	if res := ResolveTiming(ActionBass, inactive, 100, 200); res != nil {
		t.Errorf("inactive opportunity should not resolve, got %+v", res)
	}
	handled := &FartOpportunity{TimeMs: 100, Action: ActionBass, Active: true, Handled: true}
	if res := ResolveTiming(ActionBass, handled, 100, 200); res != nil {
		t.Errorf("handled opportunity should not resolve, got %+v", res)
	}
	wrongKey := &FartOpportunity{TimeMs: 100, Action: ActionBass, Active: true}
	if res := ResolveTiming(ActionHiss, wrongKey, 100, 200); res != nil {
		t.Errorf("mismatched action should not resolve, got %+v", res)
	}
}

// TestPerfectPressScoringAndCombo verifies the perfect path: combo bonus
// on release, score from the established streak, then the streak grows.
func TestPerfectPressScoringAndCombo(t *testing.T) {
	e := newTestEngine(t)
	s := e.Initialize()
	s.Pressure = 60
	s.Combo = 2

	s = e.Tick(s, 100) // activates the bass opportunity at t=100
	s = e.ResolveKeyPress(s, ActionBass, 100)

	if s.LastResult == nil || s.LastResult.Tier != TierPerfect {
		t.Fatalf("expected perfect result, got %+v", s.LastResult)
	}
	// release 30 + min(2,5)*5 = 40
	if s.Pressure != 21 {
		t.Errorf("expected pressure 21 (60 +1 growth -40 release), got %.2f", s.Pressure)
	}
	// score 100 + 2*50 = 200
	if s.Score != 200 {
		t.Errorf("expected score 200, got %.2f", s.Score)
	}
	if s.Combo != 3 {
		t.Errorf("expected combo 3, got %d", s.Combo)
	}
}

// TestWastedPressIsPenalized verifies a press with no matching active
// opportunity synthesizes a bad result: combo resets, shame rises.
func TestWastedPressIsPenalized(t *testing.T) {
	e := newTestEngine(t)
	s := e.Initialize()
	s.Combo = 3

	s = e.ResolveKeyPress(s, ActionRumble, 50)

	if s.LastResult == nil || s.LastResult.Tier != TierBad {
		t.Fatalf("expected bad result for wasted press, got %+v", s.LastResult)
	}
	if s.Combo != 0 {
		t.Errorf("wasted press should reset combo, got %d", s.Combo)
	}
	if s.Shame != 20 {
		t.Errorf("expected shame 20 from bad press, got %.2f", s.Shame)
	}
}

// TestOkayPressScoring verifies the okay tier: flat score, no combo
// movement.
func TestOkayPressScoring(t *testing.T) {
	e := newTestEngine(t)
	s := e.Initialize()
	s.Combo = 2
	s.Pressure = 40

	s = e.Tick(s, 100)
	// Opportunity at t=100, pressed at 350: delta 250 is within 2w=400.
	s = e.ResolveKeyPress(s, ActionBass, 350)

	if s.LastResult == nil || s.LastResult.Tier != TierOkay {
		t.Fatalf("expected okay result, got %+v", s.LastResult)
	}
	if s.Score != ScoreOkay {
		t.Errorf("expected score %.0f, got %.2f", ScoreOkay, s.Score)
	}
	if s.Combo != 2 {
		t.Errorf("okay should leave combo unchanged, got %d", s.Combo)
	}
}

// TestShameMaxEndsSession verifies any application that pushes shame to
// 100 flips game over with no victory.
func TestShameMaxEndsSession(t *testing.T) {
	e := newTestEngine(t)
	s := e.Initialize()
	s.Shame = 85

	s = e.ResolveKeyPress(s, ActionRumble, 10) // wasted: +20 shame, clamped to 100

	if s.Shame != 100 {
		t.Errorf("expected shame clamped to 100, got %.2f", s.Shame)
	}
	if !s.GameOver {
		t.Error("expected game over at shame 100")
	}
	if s.Victory {
		t.Error("shame defeat must not be a victory")
	}
	if s.Playing {
		t.Error("session should stop playing on defeat")
	}

	// Further input is a no-op on a finished session.
	after := e.ResolveKeyPress(s, ActionBass, 20)
	if after.Shame != s.Shame || after.Score != s.Score {
		t.Error("input after game over changed state")
	}
}

// TestPressPicksNearestOpportunity sets up two active same-type windows
// and verifies the press resolves against the nearest marker.
func TestPressPicksNearestOpportunity(t *testing.T) {
	level := &Level{
		ID:           "near",
		Participants: []Participant{{ID: "boss"}},
		Rules:        baseRules(),
		Dialogues:    []DialogueItem{{Speaker: "boss", Text: "ho hum"}},
	}
	// Two bass markers far enough apart that dedup never sees them
	// active together, plus a hiss marker between them.
	track := &Track{Markers: []Marker{
		{Kind: MarkerWord, TimeMs: 0, Value: "ho"},
		{Kind: MarkerPhoneme, TimeMs: 100, Value: "aa"},
		{Kind: MarkerPhoneme, TimeMs: 200, Value: "SS"},
		{Kind: MarkerWord, TimeMs: 2500, Value: "hum"},
		{Kind: MarkerPhoneme, TimeMs: 2600, Value: "aa"},
	}}
	tracks := TrackSet{TrackKey{LevelID: "near", DialogueIndex: 0, SpeakerID: "boss"}: track}
	e := NewEngine(level, tracks, level.Rules, 1)

	s := e.Initialize()
	s = e.Tick(s, 150)
	s = e.ResolveKeyPress(s, ActionBass, 150)

	if s.LastResult == nil || s.LastResult.Tier != TierPerfect {
		t.Fatalf("expected perfect against the t=100 marker, got %+v", s.LastResult)
	}
	first := s.OpportunityByID(0)
	if !first.Pressed {
		t.Error("press did not freeze the nearest opportunity")
	}
}

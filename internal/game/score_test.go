package game

import "testing"

// TestFinalScoreVictory verifies the survival formula: residual
// pressure subtracts from the score, floored at zero.
func TestFinalScoreVictory(t *testing.T) {
	s := &GameState{GameOver: true, Victory: true, Score: 500, Pressure: 120}
	if got := FinalScore(s); got != 380 {
		t.Errorf("expected 380, got %.2f", got)
	}

	s.Pressure = 900
	if got := FinalScore(s); got != 0 {
		t.Errorf("victory score must not go negative, got %.2f", got)
	}
}

// TestFinalScoreDefeat verifies defeat keeps the raw score untouched.
func TestFinalScoreDefeat(t *testing.T) {
	s := &GameState{GameOver: true, Victory: false, Score: 250, Pressure: 80}
	if got := FinalScore(s); got != 250 {
		t.Errorf("expected raw score 250 on defeat, got %.2f", got)
	}
}

// TestFinalScoreIdempotent verifies repeated calls on a terminal state
// return the same value and leave the state alone.
func TestFinalScoreIdempotent(t *testing.T) {
	s := &GameState{GameOver: true, Victory: true, Score: 500, Pressure: 120}
	first := FinalScore(s)
	second := FinalScore(s)
	if first != second {
		t.Errorf("final score not idempotent: %.2f then %.2f", first, second)
	}
	if s.Score != 500 || s.Pressure != 120 {
		t.Error("final score mutated the terminal state")
	}
}

package game

import "math"

// FinalScore derives the end-of-session score. A victorious run rewards
// low residual pressure (never below zero); a defeat keeps the raw
// score. Pure and idempotent: calling it repeatedly on a terminal state
// yields the same value.
func FinalScore(s *GameState) float64 {
	if s == nil {
		return 0
	}
	if s.GameOver && s.Victory {
		return math.Max(0, s.PressureDeficit()+s.Score)
	}
	return s.Score
}

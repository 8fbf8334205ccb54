package main

import (
	"flag"
	"math"

	"SilentButDeadly/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "address to listen on (e.g., 127.0.0.1:8080)")
	levelDir := flag.String("level-dir", "", "directory with level YAML and viseme JSON (empty = embedded levels)")
	rulesConfigPath := flag.String("rules-config", "configs/rules.json", "path to gameplay tuning JSON")
	seed := flag.Int64("seed", 0, "fixed RNG seed for all sessions (0 = per-session)")
	buildup := flag.Float64("buildup", math.NaN(), "override pressure buildup speed (units per second)")
	multiplier := flag.Float64("multiplier", math.NaN(), "override pressure multiplier while a question is open")
	window := flag.Float64("window", math.NaN(), "override precision window in milliseconds")
	visible := flag.Float64("visible", math.NaN(), "override letter visible duration in milliseconds")
	perWord := flag.Int("per-word", -1, "override max opportunities per word")
	simultaneous := flag.Int("simultaneous", -1, "override max simultaneous letters")
	timeLimit := flag.String("time-limit", "", "override question time limit (e.g., 10s)")
	flag.Parse()

	cfg := server.DefaultAppConfig()
	cfg.LevelDir = *levelDir
	cfg.RulesConfigPath = *rulesConfigPath
	cfg.Seed = *seed

	var overrides server.RuleOverrides

	if !math.IsNaN(*buildup) {
		val := *buildup
		overrides.PressureBuildupSpeed = &val
	}
	if !math.IsNaN(*multiplier) {
		val := *multiplier
		overrides.QuestionPressureMultiplier = &val
	}
	if !math.IsNaN(*window) {
		val := *window
		overrides.PrecisionWindowMs = &val
	}
	if !math.IsNaN(*visible) {
		val := *visible
		overrides.LetterVisibleDurationMs = &val
	}
	if *perWord >= 0 {
		val := *perWord
		overrides.MaxPossibleFartsByWord = &val
	}
	if *simultaneous >= 0 {
		val := *simultaneous
		overrides.MaxSimultaneousLetters = &val
	}
	if *timeLimit != "" {
		val := *timeLimit
		overrides.QuestionTimeLimit = &val
	}

	cfg.RuleOverrides = overrides

	server.StartApp(*addr, cfg)
}

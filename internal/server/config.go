package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	. "SilentButDeadly/internal/game"
)

// rulesConfig mirrors the tuning JSON. Pointer fields distinguish "not
// set" from explicit zeroes; unset fields keep the level's own value.
type rulesConfig struct {
	PressureBuildupSpeed       *float64 `json:"pressureBuildupSpeed"`
	QuestionPressureMultiplier *float64 `json:"questionPressureMultiplier"`
	PrecisionWindowMs          *float64 `json:"precisionWindowMs"`
	LetterVisibleDurationMs    *float64 `json:"letterVisibleDurationMs"`
	MaxPossibleFartsByWord     *int     `json:"maxPossibleFartsByWord"`
	MaxSimultaneousLetters     *int     `json:"maxSimultaneousLetters"`
	QuestionTimeLimit          *string  `json:"questionTimeLimit"`
}

type tuningConfig struct {
	Rules *rulesConfig `json:"rules"`
}

// RuleOverrides represents optional command-line or query-string
// overrides for the gameplay tuning. They outrank both the level's
// rules block and the tuning file.
type RuleOverrides struct {
	PressureBuildupSpeed       *float64
	QuestionPressureMultiplier *float64
	PrecisionWindowMs          *float64
	LetterVisibleDurationMs    *float64
	MaxPossibleFartsByWord     *int
	MaxSimultaneousLetters     *int
	QuestionTimeLimit          *string
}

func (o RuleOverrides) apply(base Rules) Rules {
	if o.PressureBuildupSpeed != nil {
		base.PressureBuildupSpeed = *o.PressureBuildupSpeed
	}
	if o.QuestionPressureMultiplier != nil {
		base.QuestionPressureMultiplier = *o.QuestionPressureMultiplier
	}
	if o.PrecisionWindowMs != nil {
		base.PrecisionWindowMs = *o.PrecisionWindowMs
	}
	if o.LetterVisibleDurationMs != nil {
		base.LetterVisibleDurationMs = *o.LetterVisibleDurationMs
	}
	if o.MaxPossibleFartsByWord != nil {
		base.MaxPossibleFartsByWord = *o.MaxPossibleFartsByWord
	}
	if o.MaxSimultaneousLetters != nil {
		base.MaxSimultaneousLetters = *o.MaxSimultaneousLetters
	}
	if o.QuestionTimeLimit != nil {
		base.QuestionTimeLimit = *o.QuestionTimeLimit
	}
	return SanitizeRules(base)
}

func mergeRulesConfig(base Rules, cfg *rulesConfig) Rules {
	if cfg == nil {
		return base
	}
	if cfg.PressureBuildupSpeed != nil {
		base.PressureBuildupSpeed = *cfg.PressureBuildupSpeed
	}
	if cfg.QuestionPressureMultiplier != nil {
		base.QuestionPressureMultiplier = *cfg.QuestionPressureMultiplier
	}
	if cfg.PrecisionWindowMs != nil {
		base.PrecisionWindowMs = *cfg.PrecisionWindowMs
	}
	if cfg.LetterVisibleDurationMs != nil {
		base.LetterVisibleDurationMs = *cfg.LetterVisibleDurationMs
	}
	if cfg.MaxPossibleFartsByWord != nil {
		base.MaxPossibleFartsByWord = *cfg.MaxPossibleFartsByWord
	}
	if cfg.MaxSimultaneousLetters != nil {
		base.MaxSimultaneousLetters = *cfg.MaxSimultaneousLetters
	}
	if cfg.QuestionTimeLimit != nil {
		base.QuestionTimeLimit = *cfg.QuestionTimeLimit
	}
	return SanitizeRules(base)
}

func loadRulesConfig(path string) (*rulesConfig, error) {
	if path == "" {
		return nil, nil
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rules config %q: %w", cleanPath, err)
	}
	var cfg tuningConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rules config %q: %w", cleanPath, err)
	}
	return cfg.Rules, nil
}

// resolveRules layers the tuning sources over a level's rules block:
// level < tuning file < startup flags < per-session query overrides.
func resolveRules(base Rules, fileCfg *rulesConfig, boot, query RuleOverrides) Rules {
	merged := mergeRulesConfig(base, fileCfg)
	merged = boot.apply(merged)
	merged = query.apply(merged)
	return SanitizeRules(merged)
}

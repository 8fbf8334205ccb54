package server

import (
	"log"
	"time"

	"SilentButDeadly/internal/campaign"
	"SilentButDeadly/internal/level"
)

type AppConfig struct {
	LevelDir        string
	RulesConfigPath string
	RuleOverrides   RuleOverrides
	Seed            int64 // 0 means derive per session
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		RulesConfigPath: "configs/rules.json",
	}
}

func StartApp(addr string, cfg AppConfig) {
	lib, err := level.LoadDir(cfg.LevelDir)
	if err != nil {
		log.Fatalf("failed to load levels: %v", err)
	}

	graph := campaign.MustDefaultGraph()

	fileRules, err := loadRulesConfig(cfg.RulesConfigPath)
	if err != nil {
		log.Printf("rules config: %v (using level tuning)", err)
		fileRules = nil
	}

	hub := NewHub(lib, graph, fileRules, cfg.RuleOverrides, cfg.Seed)

	// Periodic cleanup of abandoned sessions (every 60 seconds)
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			hub.CleanupIdleSessions(5 * time.Minute)
		}
	}()

	log.Printf("starting web server on %s (%d levels, %d campaign nodes)\n",
		addr, len(lib.Levels()), len(graph.Nodes))
	startServer(hub, addr)
}

package server

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"SilentButDeadly/internal/campaign"
	. "SilentButDeadly/internal/game"
	"SilentButDeadly/internal/level"
)

func newBuiltinHub(t *testing.T) *Hub {
	t.Helper()
	lib, err := level.LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	return NewHub(lib, campaign.MustDefaultGraph(), nil, RuleOverrides{}, 1)
}

func writeLevel(t *testing.T, dir, id, text string) {
	t.Helper()
	body := "id: " + id + "\ntitle: " + id + "\nparticipants:\n  - id: boss\n    name: Boss\ndialogues:\n  - speaker: boss\n    text: " + text + "\n"
	if err := os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newChainHub(t *testing.T) *Hub {
	t.Helper()
	dir := t.TempDir()
	writeLevel(t, dir, "tiny-a", "Hi there.")
	writeLevel(t, dir, "tiny-b", "Welcome back.")
	lib, err := level.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	g, err := campaign.NewGraph([]*campaign.Node{
		{ID: "first", Title: "First", LevelID: "tiny-a"},
		{ID: "second", Title: "Second", LevelID: "tiny-b", Requires: []campaign.NodeID{"first"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewHub(lib, g, nil, RuleOverrides{}, 1)
}

func TestResolveRulesPrecedence(t *testing.T) {
	base := DefaultRules()
	base.PrecisionWindowMs = 200

	fileWindow := 300.0
	fileSpeed := 4.0
	fileCfg := &rulesConfig{
		PrecisionWindowMs:    &fileWindow,
		PressureBuildupSpeed: &fileSpeed,
	}

	bootWindow := 250.0
	boot := RuleOverrides{PrecisionWindowMs: &bootWindow}

	queryWindow := 150.0
	query := RuleOverrides{PrecisionWindowMs: &queryWindow}

	got := resolveRules(base, fileCfg, boot, query)
	if got.PrecisionWindowMs != 150 {
		t.Errorf("window = %v, want 150 (query outranks all)", got.PrecisionWindowMs)
	}
	if got.PressureBuildupSpeed != 4 {
		t.Errorf("buildup = %v, want 4 (file applies when nothing outranks it)", got.PressureBuildupSpeed)
	}

	got = resolveRules(base, fileCfg, boot, RuleOverrides{})
	if got.PrecisionWindowMs != 250 {
		t.Errorf("window = %v, want 250 (boot outranks file)", got.PrecisionWindowMs)
	}

	got = resolveRules(base, nil, RuleOverrides{}, RuleOverrides{})
	if got.PrecisionWindowMs != 200 {
		t.Errorf("window = %v, want level value 200", got.PrecisionWindowMs)
	}
}

func TestLoadRulesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	body := `{"rules": {"precisionWindowMs": 320, "questionTimeLimit": "7s"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadRulesConfig(path)
	if err != nil {
		t.Fatalf("loadRulesConfig: %v", err)
	}
	if cfg == nil || cfg.PrecisionWindowMs == nil || *cfg.PrecisionWindowMs != 320 {
		t.Errorf("precisionWindowMs not loaded: %+v", cfg)
	}
	if cfg.QuestionTimeLimit == nil || *cfg.QuestionTimeLimit != "7s" {
		t.Errorf("questionTimeLimit not loaded: %+v", cfg)
	}

	if cfg, err := loadRulesConfig(filepath.Join(dir, "missing.json")); err != nil || cfg != nil {
		t.Errorf("missing file should be (nil, nil), got (%v, %v)", cfg, err)
	}
}

func TestParseRuleOverrides(t *testing.T) {
	values := url.Values{}
	values.Set("window", "180")
	values.Set("perWord", "3")
	values.Set("timeLimit", "5s")
	values.Set("buildup", "not-a-number")

	overrides, found := parseRuleOverrides(values)
	if !found {
		t.Fatal("expected overrides to be found")
	}
	if overrides.PrecisionWindowMs == nil || *overrides.PrecisionWindowMs != 180 {
		t.Errorf("window override = %v", overrides.PrecisionWindowMs)
	}
	if overrides.MaxPossibleFartsByWord == nil || *overrides.MaxPossibleFartsByWord != 3 {
		t.Errorf("perWord override = %v", overrides.MaxPossibleFartsByWord)
	}
	if overrides.QuestionTimeLimit == nil || *overrides.QuestionTimeLimit != "5s" {
		t.Errorf("timeLimit override = %v", overrides.QuestionTimeLimit)
	}
	if overrides.PressureBuildupSpeed != nil {
		t.Error("malformed buildup should be ignored")
	}

	if _, found := parseRuleOverrides(url.Values{}); found {
		t.Error("empty query should report no overrides")
	}
}

func TestNewSessionUnknownLevel(t *testing.T) {
	h := newBuiltinHub(t)
	if _, err := h.newSession("no-such-meeting", 1, RuleOverrides{}); err != ErrUnknownLevel {
		t.Errorf("err = %v, want ErrUnknownLevel", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newBuiltinHub(t)
	sess, err := h.newSession("office-standup", 7, RuleOverrides{})
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if h.Sessions[sess.ID] == nil {
		t.Fatal("session not registered in hub")
	}
	if sess.node != "monday-standup" {
		t.Errorf("campaign node = %s, want monday-standup", sess.node)
	}

	msg := buildStateMsg(h, sess)
	if msg.Type != "state" || msg.LevelID != "office-standup" {
		t.Errorf("unexpected state message header: %+v", msg)
	}
	if !msg.Playing || msg.GameOver {
		t.Error("fresh session should be playing")
	}
	if len(msg.Campaign) != 3 {
		t.Fatalf("campaign entries = %d, want 3", len(msg.Campaign))
	}
	if msg.Campaign[0].Status != string(campaign.StatusAvailable) {
		t.Errorf("first campaign node = %s, want available", msg.Campaign[0].Status)
	}

	h.removeSession(sess.ID)
	if h.Sessions[sess.ID] != nil {
		t.Error("session still registered after removal")
	}
}

func TestWastedKeypressRaisesShame(t *testing.T) {
	h := newBuiltinHub(t)
	sess, err := h.newSession("office-standup", 7, RuleOverrides{})
	if err != nil {
		t.Fatal(err)
	}
	sess.handleKeypress("bass", 0)
	if sess.state.Shame != sess.engine.Rules().ShameGain.Bad {
		t.Errorf("shame = %v, want %v for a wasted press at t=0",
			sess.state.Shame, sess.engine.Rules().ShameGain.Bad)
	}
	sess.handleKeypress("definitely-not-an-action", 0)
	if sess.state.Shame != sess.engine.Rules().ShameGain.Bad {
		t.Error("unknown action should be ignored")
	}
}

func TestSessionRestart(t *testing.T) {
	h := newBuiltinHub(t)
	sess, err := h.newSession("office-standup", 7, RuleOverrides{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 60; i++ {
		sess.step(h.graph)
	}
	if sess.state.ClockMs == 0 {
		t.Fatal("clock should have advanced")
	}
	sess.handleRestart()
	if sess.state.ClockMs != 0 || sess.state.DialogueIndex != 0 || !sess.state.Playing {
		t.Errorf("restart did not reset state: clock=%v index=%d playing=%v",
			sess.state.ClockMs, sess.state.DialogueIndex, sess.state.Playing)
	}
	if sess.scored {
		t.Error("restart should clear the scored flag")
	}
}

func TestStepRecordsCampaignVictory(t *testing.T) {
	h := newChainHub(t)
	sess, err := h.newSession("tiny-a", 1, RuleOverrides{})
	if err != nil {
		t.Fatal(err)
	}
	// Two words with no recorded timing: the fallback track plus the
	// trailing buffer end the only item well under five seconds.
	for i := 0; i < 300 && !sess.state.GameOver; i++ {
		sess.step(h.graph)
	}
	if !sess.state.GameOver || !sess.state.Victory {
		t.Fatalf("expected victory, got over=%v victory=%v shame=%v",
			sess.state.GameOver, sess.state.Victory, sess.state.Shame)
	}
	if sess.progress.GetStatus("first") != campaign.StatusCompleted {
		t.Errorf("campaign node = %s, want completed", sess.progress.GetStatus("first"))
	}
	if sess.progress.GetStatus("second") != campaign.StatusAvailable {
		t.Errorf("next node = %s, want available", sess.progress.GetStatus("second"))
	}
	if sess.progress.BestScore["first"] != FinalScore(sess.state) {
		t.Errorf("best score = %v, want %v", sess.progress.BestScore["first"], FinalScore(sess.state))
	}
}

func TestStartLevelRespectsLocks(t *testing.T) {
	h := newChainHub(t)
	sess, err := h.newSession("tiny-a", 1, RuleOverrides{})
	if err != nil {
		t.Fatal(err)
	}

	h.handleStartLevel(sess, "tiny-b", 1)
	if sess.engine.Level().ID != "tiny-a" {
		t.Fatal("locked level swap should be rejected")
	}

	sess.progress.Complete(h.graph, "first", 100)
	h.handleStartLevel(sess, "tiny-b", 1)
	if sess.engine.Level().ID != "tiny-b" {
		t.Fatal("unlocked level swap should succeed")
	}
	if sess.node != "second" || sess.scored {
		t.Errorf("swap bookkeeping wrong: node=%s scored=%v", sess.node, sess.scored)
	}
	if !sess.state.Playing || sess.state.DialogueIndex != 0 {
		t.Error("swapped session should start a fresh run")
	}

	h.handleStartLevel(sess, "no-such-meeting", 1)
	if sess.engine.Level().ID != "tiny-b" {
		t.Error("unknown level swap should be ignored")
	}
}

func TestCleanupIdleSessions(t *testing.T) {
	h := newBuiltinHub(t)
	sess, err := h.newSession("office-standup", 1, RuleOverrides{})
	if err != nil {
		t.Fatal(err)
	}
	sess.Mu.Lock()
	sess.lastSeen = time.Now().Add(-10 * time.Minute)
	sess.Mu.Unlock()

	h.CleanupIdleSessions(5 * time.Minute)
	if h.Sessions[sess.ID] != nil {
		t.Error("idle session should have been dropped")
	}
}

func TestBuildStateMsgFiltersOpportunities(t *testing.T) {
	h := newBuiltinHub(t)
	sess, err := h.newSession("office-standup", 7, RuleOverrides{})
	if err != nil {
		t.Fatal(err)
	}
	// At t=0 only opportunities whose activation window straddles zero
	// are active; everything else stays hidden from the wire.
	msg := buildStateMsg(h, sess)
	for _, o := range msg.Opportunities {
		full := sess.state.OpportunityByID(o.ID)
		if full == nil {
			t.Fatalf("wire opportunity %d not found in state", o.ID)
		}
		if !full.Active && !full.Pressed {
			t.Errorf("opportunity %d is neither active nor pressed", o.ID)
		}
	}
	if len(msg.Opportunities) == len(sess.state.Opportunities) {
		t.Error("expected the wire list to be a strict subset at t=0")
	}
}

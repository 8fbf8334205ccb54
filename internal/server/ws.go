package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"SilentButDeadly/internal/campaign"
	. "SilentButDeadly/internal/game"
	"SilentButDeadly/internal/level"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ErrUnknownLevel is returned when a session names a level the library
// does not carry.
var ErrUnknownLevel = errors.New("server: unknown level")

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type keypressPayload struct {
	Action string `json:"action"`
	// ClockMs is the client's dialogue-relative press time. Zero or
	// negative means fall back to the server clock.
	ClockMs float64 `json:"clock_ms"`
}

type selectAnswerPayload struct {
	Index int `json:"index"`
}

type retirePayload struct {
	ID int `json:"id"`
}

type startLevelPayload struct {
	Level string `json:"level"`
}

// Session is one player's live game. All access goes through Mu; the
// engine itself is pure, so holding the lock only covers the state swap.
type Session struct {
	ID   string
	Name string

	Mu        sync.Mutex
	engine    *Engine
	state     *GameState
	node      campaign.NodeID // campaign node launching the current level, if any
	progress  *campaign.State
	scored    bool // completion already recorded for the current run
	overrides RuleOverrides
	lastSeen  time.Time
}

type Hub struct {
	Mu       sync.Mutex
	Sessions map[string]*Session

	lib       *level.Library
	graph     *campaign.Graph
	fileRules *rulesConfig
	boot      RuleOverrides
	seed      int64
}

func NewHub(lib *level.Library, graph *campaign.Graph, fileRules *rulesConfig, boot RuleOverrides, seed int64) *Hub {
	return &Hub{
		Sessions:  map[string]*Session{},
		lib:       lib,
		graph:     graph,
		fileRules: fileRules,
		boot:      boot,
		seed:      seed,
	}
}

func (h *Hub) sessionSeed(query url.Values) int64 {
	if raw := query.Get("seed"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	}
	if h.seed != 0 {
		return h.seed
	}
	return time.Now().UnixNano()
}

func (h *Hub) defaultLevelID() string {
	for _, id := range h.graph.TopoOrder {
		if lvl := h.lib.Level(h.graph.Nodes[id].LevelID); lvl != nil {
			return lvl.ID
		}
	}
	levels := h.lib.Levels()
	if len(levels) > 0 {
		return levels[0].ID
	}
	return ""
}

func (h *Hub) newSession(levelID string, seed int64, overrides RuleOverrides) (*Session, error) {
	lvl := h.lib.Level(levelID)
	if lvl == nil {
		return nil, ErrUnknownLevel
	}
	rules := resolveRules(lvl.Rules, h.fileRules, h.boot, overrides)
	engine := NewEngine(lvl, h.lib.Tracks(), rules, seed)

	sess := &Session{
		ID:        uuid.NewString(),
		Name:      "Anon",
		engine:    engine,
		state:     engine.Initialize(),
		progress:  campaign.NewState(h.graph),
		overrides: overrides,
		lastSeen:  time.Now(),
	}
	if node := h.graph.NodeForLevel(levelID); node != nil {
		sess.node = node.ID
	}

	h.Mu.Lock()
	h.Sessions[sess.ID] = sess
	h.Mu.Unlock()
	return sess, nil
}

func (h *Hub) removeSession(id string) {
	h.Mu.Lock()
	delete(h.Sessions, id)
	h.Mu.Unlock()
}

// CleanupIdleSessions drops sessions with no traffic for maxIdle. The
// disconnect path removes sessions too; this is the safety net.
func (h *Hub) CleanupIdleSessions(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)
	h.Mu.Lock()
	defer h.Mu.Unlock()
	for id, sess := range h.Sessions {
		sess.Mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.Mu.Unlock()
		if idle {
			delete(h.Sessions, id)
			log.Printf("session %s dropped after idle timeout", id)
		}
	}
}

// step advances the simulation by one fixed timestep and records the
// campaign completion once when a run finishes in victory.
func (s *Session) step(graph *campaign.Graph) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if !s.state.Playing {
		return
	}
	s.state = s.engine.Tick(s.state, TickMs)
	if s.state.GameOver && !s.scored {
		s.scored = true
		if s.state.Victory && s.node != "" {
			s.progress.Complete(graph, s.node, FinalScore(s.state))
		}
	}
}

func (s *Session) handleJoin(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anon"
	}
	s.Mu.Lock()
	s.Name = name
	s.lastSeen = time.Now()
	s.Mu.Unlock()
}

func (s *Session) handleKeypress(rawAction string, clockMs float64) {
	action, ok := ParseActionType(rawAction)
	if !ok {
		log.Printf("session %s: unknown action %q", s.ID, rawAction)
		return
	}
	s.Mu.Lock()
	if clockMs <= 0 {
		clockMs = s.state.ClockMs
	}
	s.state = s.engine.ResolveKeyPress(s.state, action, clockMs)
	s.lastSeen = time.Now()
	s.Mu.Unlock()
}

func (s *Session) handleSelectAnswer(index int) {
	s.Mu.Lock()
	s.state = s.engine.SelectAnswer(s.state, index)
	s.lastSeen = time.Now()
	s.Mu.Unlock()
}

func (s *Session) handleAudioDone() {
	s.Mu.Lock()
	s.state = s.engine.OnPlaybackComplete(s.state)
	s.lastSeen = time.Now()
	s.Mu.Unlock()
}

func (s *Session) handleRetire(id int) {
	s.Mu.Lock()
	s.state = s.engine.RetireOpportunity(s.state, id)
	s.lastSeen = time.Now()
	s.Mu.Unlock()
}

func (s *Session) handleRestart() {
	s.Mu.Lock()
	s.state = s.engine.Reset(s.state)
	s.scored = false
	s.lastSeen = time.Now()
	s.Mu.Unlock()
}

// handleStartLevel swaps the session onto another meeting, keeping the
// campaign progress. Locked meetings are rejected.
func (h *Hub) handleStartLevel(s *Session, levelID string, seed int64) {
	lvl := h.lib.Level(levelID)
	if lvl == nil {
		log.Printf("session %s: unknown level %q", s.ID, levelID)
		return
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	var nodeID campaign.NodeID
	if node := h.graph.NodeForLevel(levelID); node != nil {
		nodeID = node.ID
		if s.progress.GetStatus(nodeID) == campaign.StatusLocked {
			log.Printf("session %s: level %q is locked", s.ID, levelID)
			return
		}
	}

	rules := resolveRules(lvl.Rules, h.fileRules, h.boot, s.overrides)
	s.engine = NewEngine(lvl, h.lib.Tracks(), rules, seed)
	s.state = s.engine.Initialize()
	s.node = nodeID
	s.scored = false
	s.lastSeen = time.Now()
}

func parseFloatOverride(values url.Values, key string) (*float64, bool) {
	raw := values.Get(key)
	if raw == "" {
		return nil, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &val, true
}

func parseIntOverride(values url.Values, key string) (*int, bool) {
	raw := values.Get(key)
	if raw == "" {
		return nil, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &val, true
}

func parseRuleOverrides(values url.Values) (RuleOverrides, bool) {
	var overrides RuleOverrides
	var found bool

	if v, ok := parseFloatOverride(values, "buildup"); ok {
		overrides.PressureBuildupSpeed = v
		found = true
	}
	if v, ok := parseFloatOverride(values, "multiplier"); ok {
		overrides.QuestionPressureMultiplier = v
		found = true
	}
	if v, ok := parseFloatOverride(values, "window"); ok {
		overrides.PrecisionWindowMs = v
		found = true
	}
	if v, ok := parseFloatOverride(values, "visible"); ok {
		overrides.LetterVisibleDurationMs = v
		found = true
	}
	if v, ok := parseIntOverride(values, "perWord"); ok {
		overrides.MaxPossibleFartsByWord = v
		found = true
	}
	if v, ok := parseIntOverride(values, "simultaneous"); ok {
		overrides.MaxSimultaneousLetters = v
		found = true
	}
	if raw := values.Get("timeLimit"); raw != "" {
		overrides.QuestionTimeLimit = &raw
		found = true
	}
	return overrides, found
}

type liveConn struct {
	conn     *websocket.Conn
	simTick  *time.Ticker
	sendTick *time.Ticker
}

func serveWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	levelID := query.Get("level")
	if levelID == "" {
		levelID = h.defaultLevelID()
	}
	seed := h.sessionSeed(query)
	overrides, _ := parseRuleOverrides(query)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	sess, err := h.newSession(levelID, seed, overrides)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": err.Error()})
		conn.Close()
		return
	}

	lc := &liveConn{
		conn:     conn,
		simTick:  time.NewTicker(time.Second / time.Duration(SimHz)),
		sendTick: time.NewTicker(time.Duration(1000.0/UpdateRateHz) * time.Millisecond),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reader
	go func() {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var inbound inboundMessage
			if err := json.Unmarshal(data, &inbound); err != nil {
				log.Printf("invalid JSON message: %v", err)
				continue
			}
			switch inbound.Type {
			case "join":
				var payload joinPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					log.Printf("invalid join payload: %v", err)
					continue
				}
				sess.handleJoin(payload.Name)
			case "keypress":
				var payload keypressPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					log.Printf("invalid keypress payload: %v", err)
					continue
				}
				sess.handleKeypress(payload.Action, payload.ClockMs)
			case "select_answer":
				var payload selectAnswerPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					log.Printf("invalid select_answer payload: %v", err)
					continue
				}
				sess.handleSelectAnswer(payload.Index)
			case "audio_done":
				sess.handleAudioDone()
			case "retire":
				var payload retirePayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					log.Printf("invalid retire payload: %v", err)
					continue
				}
				sess.handleRetire(payload.ID)
			case "restart":
				sess.handleRestart()
			case "start_level":
				var payload startLevelPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					log.Printf("invalid start_level payload: %v", err)
					continue
				}
				h.handleStartLevel(sess, payload.Level, seed)
			default:
				log.Printf("unknown message type: %s", inbound.Type)
			}
		}
	}()

	// Simulation and state broadcast
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-lc.simTick.C:
				sess.step(h.graph)
			case <-lc.sendTick.C:
				msg := buildStateMsg(h, sess)
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("send error: %v", err)
					return
				}
			}
		}
	}()

	<-ctx.Done()
	lc.simTick.Stop()
	lc.sendTick.Stop()
	conn.Close()
	h.removeSession(sess.ID)
}

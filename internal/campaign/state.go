package campaign

import (
	"encoding/json"
)

// Status represents the current state of a node for a player.
type Status string

const (
	// StatusLocked means the node's requirements are not met.
	StatusLocked Status = "locked"
	// StatusAvailable means the meeting can be played.
	StatusAvailable Status = "available"
	// StatusCompleted means the meeting was survived.
	StatusCompleted Status = "completed"
)

// State is per-player campaign progression.
type State struct {
	Status    map[NodeID]Status  `json:"status"`
	BestScore map[NodeID]float64 `json:"best_score"`
}

// NewState creates fresh progression: roots available, the rest locked.
func NewState(g *Graph) *State {
	s := &State{
		Status:    make(map[NodeID]Status),
		BestScore: make(map[NodeID]float64),
	}
	Evaluate(g, s)
	return s
}

// GetStatus returns the status of a node, defaulting to locked.
func (s *State) GetStatus(id NodeID) Status {
	if status, exists := s.Status[id]; exists {
		return status
	}
	return StatusLocked
}

// Complete records a survived meeting and unlocks its dependents.
// Replaying an already-completed node only updates the best score.
func (s *State) Complete(g *Graph, id NodeID, score float64) bool {
	node := g.Node(id)
	if node == nil {
		return false
	}
	if s.GetStatus(id) == StatusLocked {
		return false
	}
	s.Status[id] = StatusCompleted
	if score > s.BestScore[id] {
		s.BestScore[id] = score
	}
	Evaluate(g, s)
	return true
}

// Evaluate recomputes locked/available transitions from completions.
// Completed nodes are never demoted.
func Evaluate(g *Graph, s *State) {
	for _, id := range g.TopoOrder {
		if s.GetStatus(id) == StatusCompleted {
			continue
		}
		met := true
		for _, reqID := range g.Nodes[id].Requires {
			if s.GetStatus(reqID) != StatusCompleted {
				met = false
				break
			}
		}
		if met {
			s.Status[id] = StatusAvailable
		} else {
			s.Status[id] = StatusLocked
		}
	}
}

// Clone creates a deep copy of the state.
func (s *State) Clone() *State {
	clone := &State{
		Status:    make(map[NodeID]Status, len(s.Status)),
		BestScore: make(map[NodeID]float64, len(s.BestScore)),
	}
	for id, status := range s.Status {
		clone.Status[id] = status
	}
	for id, score := range s.BestScore {
		clone.BestScore[id] = score
	}
	return clone
}

// Snapshot serializes the state for persistence across reconnects.
func (s *State) Snapshot() ([]byte, error) {
	return json.Marshal(s)
}

// LoadSnapshot restores state from a JSON snapshot and re-derives
// availability against the given graph.
func LoadSnapshot(g *Graph, data []byte) (*State, error) {
	s := &State{
		Status:    make(map[NodeID]Status),
		BestScore: make(map[NodeID]float64),
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.Status == nil {
		s.Status = make(map[NodeID]Status)
	}
	if s.BestScore == nil {
		s.BestScore = make(map[NodeID]float64)
	}
	Evaluate(g, s)
	return s, nil
}

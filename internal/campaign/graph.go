// Package campaign implements a deterministic progression graph over
// meetings. Completing a meeting unlocks the ones that require it.
//
// The graph is server-authoritative and validated at construction time;
// per-player progression lives in State.
package campaign

import (
	"errors"
	"fmt"
)

// NodeID uniquely identifies a node in the graph.
type NodeID string

// Node represents one meeting on the progression map.
type Node struct {
	ID       NodeID   `json:"id"`
	Title    string   `json:"title"`
	LevelID  string   `json:"level_id"` // the playable level this node launches
	Requires []NodeID `json:"requires"` // must all be completed first
}

// Graph is the validated meeting progression.
type Graph struct {
	Nodes      map[NodeID]*Node
	RequiresIn map[NodeID][]NodeID // reverse index: which nodes require this one
	TopoOrder  []NodeID
}

var (
	// ErrCycleDetected is returned when the progression contains a cycle.
	ErrCycleDetected = errors.New("campaign: cycle detected in graph")
	// ErrNodeNotFound is returned when a referenced node doesn't exist.
	ErrNodeNotFound = errors.New("campaign: node not found")
	// ErrMissingLevel is returned when a node names no playable level.
	ErrMissingLevel = errors.New("campaign: node has no level")
)

// NewGraph indexes and validates a progression graph.
func NewGraph(nodes []*Node) (*Graph, error) {
	g := &Graph{
		Nodes:      make(map[NodeID]*Node),
		RequiresIn: make(map[NodeID][]NodeID),
	}

	for _, node := range nodes {
		if node.LevelID == "" {
			return nil, fmt.Errorf("%w: node %s", ErrMissingLevel, node.ID)
		}
		g.Nodes[node.ID] = node
	}

	for _, node := range nodes {
		for _, reqID := range node.Requires {
			if _, exists := g.Nodes[reqID]; !exists {
				return nil, fmt.Errorf("%w: node %s requires missing node %s", ErrNodeNotFound, node.ID, reqID)
			}
			g.RequiresIn[reqID] = append(g.RequiresIn[reqID], node.ID)
		}
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	g.TopoOrder = order
	return g, nil
}

// Node returns a node by ID, or nil if not found.
func (g *Graph) Node(id NodeID) *Node {
	return g.Nodes[id]
}

// NodeForLevel returns the first node launching the given level, or nil.
func (g *Graph) NodeForLevel(levelID string) *Node {
	for _, id := range g.TopoOrder {
		if g.Nodes[id].LevelID == levelID {
			return g.Nodes[id]
		}
	}
	return nil
}

// topoSort runs Kahn's algorithm to order the graph and detect cycles.
func (g *Graph) topoSort() ([]NodeID, error) {
	inDegree := make(map[NodeID]int)
	for id := range g.Nodes {
		inDegree[id] = 0
	}
	for _, node := range g.Nodes {
		for range node.Requires {
			inDegree[node.ID]++
		}
	}

	var queue []NodeID
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	var order []NodeID
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, depID := range g.RequiresIn[curr] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, ErrCycleDetected
	}
	return order, nil
}

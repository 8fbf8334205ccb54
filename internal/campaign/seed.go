package campaign

// DefaultCampaign returns the stock meeting progression. Later meetings
// reuse the standup level until their own scripts are recorded.
func DefaultCampaign() []*Node {
	return []*Node{
		{
			ID:      "monday-standup",
			Title:   "Monday Standup",
			LevelID: "office-standup",
		},
		{
			ID:       "budget-review",
			Title:    "Q3 Budget Review",
			LevelID:  "office-standup",
			Requires: []NodeID{"monday-standup"},
		},
		{
			ID:       "all-hands",
			Title:    "Emergency All-Hands",
			LevelID:  "office-standup",
			Requires: []NodeID{"budget-review"},
		},
	}
}

// MustDefaultGraph builds the stock progression, panicking on a seed bug.
func MustDefaultGraph() *Graph {
	g, err := NewGraph(DefaultCampaign())
	if err != nil {
		panic("campaign: invalid default graph: " + err.Error())
	}
	return g
}

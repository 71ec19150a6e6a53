package scenario

import (
	"github.com/ritzau/trustflow/pkg/rank"
)

// Scenario is a named trust topology: a timestamped edge list plus the
// nodes declared as experts for teleportation bias.
type Scenario struct {
	Name     string      `json:"name"`
	NumNodes int         `json:"numNodes"`
	Edges    []rank.Edge `json:"edges"`
	Experts  []int       `json:"experts"`
}

// Graph builds the validated rank graph for this scenario.
func (s *Scenario) Graph() (*rank.Graph, error) {
	return rank.NewGraph(s.NumNodes, s.Edges)
}

// IsExpert reports whether the node is in the scenario's expert set.
func (s *Scenario) IsExpert(node int) bool {
	for _, e := range s.Experts {
		if e == node {
			return true
		}
	}
	return false
}

// Example returns the built-in six-node trust network: node 0 is the
// expert, and edges appear one per tick so trust visibly migrates as
// older links decay.
func Example() *Scenario {
	return &Scenario{
		Name:     "trust-flow-example",
		NumNodes: 6,
		Edges: []rank.Edge{
			{Source: 0, Target: 1, CreatedAt: 1},
			{Source: 1, Target: 2, CreatedAt: 2},
			{Source: 1, Target: 3, CreatedAt: 3},
			{Source: 3, Target: 4, CreatedAt: 4},
			{Source: 3, Target: 5, CreatedAt: 5},
			{Source: 5, Target: 1, CreatedAt: 6},
		},
		Experts: []int{0},
	}
}

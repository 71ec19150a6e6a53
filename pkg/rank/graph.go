package rank

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for any precondition violation: mismatched
// vector lengths, an out-of-range damping factor or expert fraction, a
// non-positive node count, an out-of-bounds node index, or a teleport
// vector that does not sum to 1. It is always wrapped with detail; test
// with errors.Is.
var ErrInvalidInput = errors.New("rank: invalid input")

// Edge is a directed trust edge created at a discrete timestamp.
// Node IDs are dense indices in [0, NumNodes). Parallel edges and
// self-loops are allowed.
type Edge struct {
	Source    int `json:"source"`
	Target    int `json:"target"`
	CreatedAt int `json:"createdAt"`
}

// Graph is an ordered edge list over NumNodes dense-indexed nodes.
// It is immutable after construction; the engine only reads it.
type Graph struct {
	NumNodes int
	Edges    []Edge
}

// NewGraph validates and builds a graph. It fails with ErrInvalidInput on
// a non-positive node count, an endpoint outside [0, numNodes), or a
// negative creation time.
func NewGraph(numNodes int, edges []Edge) (*Graph, error) {
	if numNodes <= 0 {
		return nil, fmt.Errorf("%w: node count %d, want > 0", ErrInvalidInput, numNodes)
	}
	for i, e := range edges {
		if e.Source < 0 || e.Source >= numNodes {
			return nil, fmt.Errorf("%w: edge %d source %d outside [0,%d)", ErrInvalidInput, i, e.Source, numNodes)
		}
		if e.Target < 0 || e.Target >= numNodes {
			return nil, fmt.Errorf("%w: edge %d target %d outside [0,%d)", ErrInvalidInput, i, e.Target, numNodes)
		}
		if e.CreatedAt < 0 {
			return nil, fmt.Errorf("%w: edge %d created at %d, want >= 0", ErrInvalidInput, i, e.CreatedAt)
		}
	}

	return &Graph{
		NumNodes: numNodes,
		Edges:    append([]Edge(nil), edges...),
	}, nil
}

// OutDegrees counts outgoing edges per node from the topology alone,
// ignoring time and weights. This static capacity is what the engine
// normalizes flow against; decayed edges still occupy their slot.
func (g *Graph) OutDegrees() []int {
	degrees := make([]int, g.NumNodes)
	for _, e := range g.Edges {
		degrees[e.Source]++
	}
	return degrees
}

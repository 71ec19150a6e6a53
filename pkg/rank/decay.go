package rank

import "math"

// Every edge starts at unit strength the moment it is created.
const baseWeight = 1.0

// Weight returns the edge's decayed strength at the query time:
// baseWeight * exp(-(at - createdAt) * decay), or 0 before the edge
// exists. A negative decay constant is accepted (the weight grows over
// time); validating it is the caller's responsibility.
func Weight(e Edge, at int, decay float64) float64 {
	if at < e.CreatedAt {
		return 0
	}
	return baseWeight * math.Exp(-float64(at-e.CreatedAt)*decay)
}

// Weights evaluates Weight for every edge at the query time. The result
// is positionally aligned with g.Edges, fresh on every call.
func Weights(g *Graph, at int, decay float64) []float64 {
	weights := make([]float64, len(g.Edges))
	for i, e := range g.Edges {
		weights[i] = Weight(e, at, decay)
	}
	return weights
}

package rank

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// teleportSumTol is the tolerance for the teleport vector summing to 1.
const teleportSumTol = 1e-9

// Run computes the trust-flow rank vector for one time snapshot.
//
// Rank is treated as mass: the total is exactly 1 after initialization and
// after every iteration. Each iteration re-injects (1-damping) through the
// teleport distribution and routes the damped remainder along edges in
// proportion to their decayed weights, normalized by the static out-degree
// of the source. Capacity lost to decay becomes dangling mass, as does the
// whole damped share of nodes with no outgoing edges; dangling mass is
// redistributed uniformly. Updates are Jacobi-style: every write for
// iteration k+1 reads only the vector from iteration k.
//
// weights must align positionally with g.Edges (one decayed strength per
// edge, typically from Weights), and teleport must cover every node and
// sum to 1. The engine runs exactly iterations rounds with no convergence
// check; a non-positive count returns the uniform distribution. Any
// precondition violation fails with ErrInvalidInput before the first
// iteration. The call is deterministic and keeps no state between calls:
// every snapshot starts over from uniform rank.
func Run(g *Graph, weights, teleport []float64, damping float64, iterations int) ([]float64, error) {
	if err := validateRun(g, weights, teleport, damping); err != nil {
		return nil, err
	}

	n := g.NumNodes
	rank := make([]float64, n)
	floats.AddConst(1/float64(n), rank)

	// Static outgoing capacity per node, fixed for the whole run.
	outDegrees := g.OutDegrees()

	next := make([]float64, n)
	outflow := make([]float64, n)

	for iter := 0; iter < iterations; iter++ {
		// Teleportation inflow: (1-d) of the total mass, expert-biased.
		for i, t := range teleport {
			next[i] = (1 - damping) * t
		}

		// Damped mass flows along edges in proportion to decayed weight
		// over static capacity. outflow tracks how much of each node's
		// capacity is actually exercised at this snapshot.
		for i := range outflow {
			outflow[i] = 0
		}
		for j, e := range g.Edges {
			w := weights[j]
			outflow[e.Source] += w
			next[e.Target] += damping * rank[e.Source] * (w / float64(outDegrees[e.Source]))
		}

		// Whatever the decayed weights could not route stays conserved as
		// dangling mass. A node that never had outgoing edges dangles its
		// entire damped share.
		dangling := 0.0
		for i := 0; i < n; i++ {
			if outDegrees[i] > 0 {
				allocated := damping * rank[i] * (outflow[i] / float64(outDegrees[i]))
				dangling += damping*rank[i] - allocated
			} else {
				dangling += damping * rank[i]
			}
		}
		floats.AddConst(dangling/float64(n), next)

		rank, next = next, rank
	}

	return rank, nil
}

func validateRun(g *Graph, weights, teleport []float64, damping float64) error {
	if g == nil {
		return fmt.Errorf("%w: nil graph", ErrInvalidInput)
	}
	if g.NumNodes <= 0 {
		return fmt.Errorf("%w: node count %d, want > 0", ErrInvalidInput, g.NumNodes)
	}
	if len(weights) != len(g.Edges) {
		return fmt.Errorf("%w: %d weights for %d edges", ErrInvalidInput, len(weights), len(g.Edges))
	}
	if len(teleport) != g.NumNodes {
		return fmt.Errorf("%w: %d teleport entries for %d nodes", ErrInvalidInput, len(teleport), g.NumNodes)
	}
	if damping < 0 || damping > 1 {
		return fmt.Errorf("%w: damping factor %g outside [0,1]", ErrInvalidInput, damping)
	}
	for i, e := range g.Edges {
		if e.Source < 0 || e.Source >= g.NumNodes {
			return fmt.Errorf("%w: edge %d source %d outside [0,%d)", ErrInvalidInput, i, e.Source, g.NumNodes)
		}
		if e.Target < 0 || e.Target >= g.NumNodes {
			return fmt.Errorf("%w: edge %d target %d outside [0,%d)", ErrInvalidInput, i, e.Target, g.NumNodes)
		}
	}
	if sum := floats.Sum(teleport); math.Abs(sum-1) > teleportSumTol {
		return fmt.Errorf("%w: teleport vector sums to %g, want 1", ErrInvalidInput, sum)
	}
	return nil
}

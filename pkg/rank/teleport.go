package rank

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Teleport builds the restart distribution over numNodes nodes: every node
// gets the uniform base share (1-expertFraction)/numNodes, and each expert
// additionally gets an equal cut of expertFraction. Duplicate expert IDs
// are de-duplicated so no node collects the bonus twice. The result sums
// to 1 and is independent of time and topology.
//
// Fails with ErrInvalidInput when numNodes is not positive, an expert ID
// is out of range, expertFraction lies outside [0,1], or expertFraction
// is positive with no experts to receive it.
func Teleport(numNodes int, experts []int, expertFraction float64) ([]float64, error) {
	if numNodes <= 0 {
		return nil, fmt.Errorf("%w: node count %d, want > 0", ErrInvalidInput, numNodes)
	}
	if expertFraction < 0 || expertFraction > 1 {
		return nil, fmt.Errorf("%w: expert fraction %g outside [0,1]", ErrInvalidInput, expertFraction)
	}

	unique := make(map[int]struct{}, len(experts))
	for _, id := range experts {
		if id < 0 || id >= numNodes {
			return nil, fmt.Errorf("%w: expert node %d outside [0,%d)", ErrInvalidInput, id, numNodes)
		}
		unique[id] = struct{}{}
	}
	if expertFraction > 0 && len(unique) == 0 {
		return nil, fmt.Errorf("%w: expert fraction %g with no expert nodes", ErrInvalidInput, expertFraction)
	}

	teleport := make([]float64, numNodes)
	floats.AddConst((1-expertFraction)/float64(numNodes), teleport)

	if len(unique) > 0 {
		bonus := expertFraction / float64(len(unique))
		for id := range unique {
			teleport[id] += bonus
		}
	}

	return teleport, nil
}

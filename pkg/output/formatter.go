package output

import (
	"fmt"
	"math"
	"sort"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/floats"

	"github.com/ritzau/trustflow/pkg/frames"
	"github.com/ritzau/trustflow/pkg/scenario"
)

// PrintRankReport prints a nicely formatted rank report with colors
func PrintRankReport(scn *scenario.Scenario, snap frames.Snapshot, framesWritten int, folder string) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Println("Trust Flow - Rank Report")
	bold.Println("========================")
	fmt.Printf("Scenario: %s\n", scn.Name)
	fmt.Printf("Nodes: %d, edges: %d, experts: %d\n", scn.NumNodes, len(scn.Edges), len(scn.Experts))
	fmt.Printf("Frames: %d (folder: %s)\n", framesWritten, folder)

	if len(snap.Ranks) == 0 {
		yellow.Println("No frames were rendered, nothing to report")
		return
	}
	fmt.Printf("Final tick: %d\n", snap.Time)
	fmt.Println()

	// Nodes by rank, highest first
	bold.Println("RANKING:")
	order := rankOrder(snap.Ranks)
	for pos, node := range order {
		line := fmt.Sprintf("  %2d. node %-3d %.4f", pos+1, node, snap.Ranks[node])
		if scn.IsExpert(node) {
			green.Printf("%s (expert)\n", line)
		} else {
			fmt.Println(line)
		}
	}
	fmt.Println()

	cyan.Printf("Top node: %d with rank %.4f\n", order[0], snap.Ranks[order[0]])

	// Mass conservation check
	total := floats.Sum(snap.Ranks)
	if math.Abs(total-1) < 1e-9 {
		green.Printf("✓ Total rank mass conserved (%.6f)\n", total)
	} else {
		red.Printf("Total rank mass = %.6f, expected 1\n", total)
	}
}

// rankOrder returns node indices sorted by rank, highest first. Ties
// keep ascending node order.
func rankOrder(ranks []float64) []int {
	order := make([]int, len(ranks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})
	return order
}

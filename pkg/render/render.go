// Package render turns a ranked snapshot of a trust graph into
// Graphviz DOT. Nodes are pinned to fixed positions so successive
// frames animate cleanly, filled on a white-to-blue scale by rank,
// with expert nodes ringed in dark green. Edge thickness follows the
// decayed weight; edges that do not exist yet are written invisibly
// so the layout stays stable across frames.
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/ritzau/trustflow/pkg/rank"
)

// Point is a fixed node position in layout coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CircleLayout places n nodes evenly on the unit circle, node i at
// angle 2*pi*i/n starting from the positive x axis.
func CircleLayout(n int) []Point {
	points := make([]Point, n)
	for i := range points {
		angle := 2 * math.Pi * float64(i) / float64(n)
		points[i] = Point{X: math.Cos(angle), Y: math.Sin(angle)}
	}
	return points
}

// Frame is one snapshot of the animation: the ranks and decayed edge
// weights at a single point in time, plus the presentation metadata
// shown in the graph title.
type Frame struct {
	Ranks     []float64
	Edges     []rank.Edge
	Weights   []float64
	Experts   []int
	Positions []Point

	Index     int // 1-based position in the sequence
	Total     int
	Algorithm string
	Decay     string
}

// WriteDOT renders the frame as a Graphviz digraph for the neato
// layout engine.
func WriteDOT(w io.Writer, f Frame) error {
	if len(f.Weights) != len(f.Edges) {
		return fmt.Errorf("render: %d weights for %d edges", len(f.Weights), len(f.Edges))
	}
	if len(f.Positions) != len(f.Ranks) {
		return fmt.Errorf("render: %d positions for %d nodes", len(f.Positions), len(f.Ranks))
	}

	experts := make(map[int]bool, len(f.Experts))
	for _, e := range f.Experts {
		experts[e] = true
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph G {\n")
	fmt.Fprintf(bw, "  nodesep=0.8;\n")
	fmt.Fprintf(bw, "  graph [layout=neato, overlap=false, splines=true, pad=\"1.0,1.0\", fontsize=20];\n")
	fmt.Fprintf(bw, "  labelloc=\"t\";\n")
	fmt.Fprintf(bw, "  labeljust=\"l\";\n")
	fmt.Fprintf(bw, "  labelfontsize=26;\n")
	fmt.Fprintf(bw, "  label=\"Trust flow over time\nAlgorithm: %s\nEdge decay: %s\nFrame: %d/%d\";\n",
		f.Algorithm, f.Decay, f.Index, f.Total)

	for i, r := range f.Ranks {
		label := fmt.Sprintf("%d (%.2f)", i, r)
		fill := fillColor(r)
		pos := f.Positions[i]
		if experts[i] {
			fmt.Fprintf(bw,
				"  %d [label=%q, shape=circle, style=filled, fillcolor=%q, color=\"darkgreen\", penwidth=8, fontsize=20, pos=\"%.2f,%.2f!\", pin=true];\n",
				i, label, fill, pos.X, pos.Y)
		} else {
			fmt.Fprintf(bw,
				"  %d [label=%q, shape=circle, style=filled, fillcolor=%q, fontsize=20, pos=\"%.2f,%.2f!\", pin=true];\n",
				i, label, fill, pos.X, pos.Y)
		}
	}

	for i, e := range f.Edges {
		if w := f.Weights[i]; w == 0 {
			fmt.Fprintf(bw, "  %d -> %d [style=invis];\n", e.Source, e.Target)
		} else {
			fmt.Fprintf(bw, "  %d -> %d [penwidth=%v];\n", e.Source, e.Target, 8*w)
		}
	}

	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}

// fillColor maps a rank in [0,1] onto a white-to-blue gradient, high
// ranks dark. Ranks outside the range are clamped for coloring only.
func fillColor(r float64) string {
	level := int((1 - math.Min(math.Max(r, 0), 1)) * 255)
	return fmt.Sprintf("#%02X%02X%02X", level, level, 255)
}

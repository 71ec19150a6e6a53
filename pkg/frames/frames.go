// Package frames runs the trust flow computation over a time range
// and writes one Graphviz frame per tick, ready for animation.
package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ritzau/trustflow/pkg/logging"
	"github.com/ritzau/trustflow/pkg/rank"
	"github.com/ritzau/trustflow/pkg/render"
	"github.com/ritzau/trustflow/pkg/scenario"
)

// Title strings shown in every frame's label block.
const (
	AlgorithmName = "Custom PageRank variant"
	DecayName     = "Exponential"
)

// Options control one animation run.
type Options struct {
	OutDir         string
	MaxTime        int
	Iterations     int
	Damping        float64
	Decay          float64
	ExpertFraction float64

	// OnFrame, when set, is called after each frame file has been
	// written, with the number of frames done so far and the total.
	OnFrame func(done, total int)
}

// Defaults returns the options the built-in example is tuned for.
func Defaults() Options {
	return Options{
		OutDir:         "output",
		MaxTime:        20,
		Iterations:     10,
		Damping:        0.5,
		Decay:          0.1,
		ExpertFraction: 0.8,
	}
}

// Snapshot is the computed state at a single tick.
type Snapshot struct {
	Time    int       `json:"time"`
	Ranks   []float64 `json:"ranks"`
	Weights []float64 `json:"weights"`
}

// Render computes ranks for every tick from 0 through opts.MaxTime and
// writes one DOT frame per tick under <OutDir>/<scenario name>/. The
// returned snapshots are in tick order. Rendering stops early if ctx
// is cancelled.
func Render(ctx context.Context, scn *scenario.Scenario, opts Options) ([]Snapshot, error) {
	g, err := scn.Graph()
	if err != nil {
		return nil, err
	}
	teleport, err := rank.Teleport(g.NumNodes, scn.Experts, opts.ExpertFraction)
	if err != nil {
		return nil, err
	}
	positions := render.CircleLayout(g.NumNodes)

	dir := filepath.Join(opts.OutDir, scn.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	total := opts.MaxTime + 1
	snapshots := make([]Snapshot, 0, max(total, 0))
	for t := 0; t <= opts.MaxTime; t++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		weights := rank.Weights(g, t, opts.Decay)
		ranks, err := rank.Run(g, weights, teleport, opts.Damping, opts.Iterations)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, FrameFilename(t))
		frame := render.Frame{
			Ranks:     ranks,
			Edges:     g.Edges,
			Weights:   weights,
			Experts:   scn.Experts,
			Positions: positions,
			Index:     t + 1,
			Total:     total,
			Algorithm: AlgorithmName,
			Decay:     DecayName,
		}
		if err := writeFrame(path, frame); err != nil {
			return nil, err
		}
		logging.Debug("frame written", "path", path, "time", t)

		snapshots = append(snapshots, Snapshot{Time: t, Ranks: ranks, Weights: weights})
		if opts.OnFrame != nil {
			opts.OnFrame(t+1, total)
		}
	}

	logging.Info("scenario rendered",
		"scenario", scn.Name,
		"frames", len(snapshots),
		"folder", dir)
	return snapshots, nil
}

// FrameFilename returns the zero padded file name for a tick.
func FrameFilename(t int) string {
	return fmt.Sprintf("frame_%03d.dot", t)
}

func writeFrame(path string, f render.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	if err := render.WriteDOT(file, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close frame: %w", err)
	}
	return nil
}

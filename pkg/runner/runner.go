// Package runner ties scenario loading, frame rendering and the web
// server together. Watch mode reuses the same runner to re-render on
// every scenario change.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/ritzau/trustflow/pkg/frames"
	"github.com/ritzau/trustflow/pkg/logging"
	"github.com/ritzau/trustflow/pkg/scenario"
	"github.com/ritzau/trustflow/pkg/web"
)

// RenderRunner orchestrates the render process and publishes progress
// and results to the web server.
type RenderRunner struct {
	scenarioPath string // empty selects the built-in example
	server       *web.Server
	opts         frames.Options
	mu           sync.Mutex // Prevent concurrent renders
}

// NewRenderRunner creates a new render runner
func NewRenderRunner(scenarioPath string, server *web.Server, opts frames.Options) *RenderRunner {
	return &RenderRunner{
		scenarioPath: scenarioPath,
		server:       server,
		opts:         opts,
	}
}

// Run loads the scenario, renders every frame and hands the results to
// the server. The reason shows up in logs and is meant to say what
// triggered the run, e.g. "initial render" or "scenario changed".
func (rr *RenderRunner) Run(ctx context.Context, reason string) error {
	// Lock to prevent overlapping renders from watch-mode bursts
	rr.mu.Lock()
	defer rr.mu.Unlock()

	logging.Info("render starting", "reason", reason)

	rr.server.PublishRenderStatus("loading", "Loading scenario...", 0, 0)

	scn, err := rr.loadScenario()
	if err != nil {
		rr.server.PublishRenderStatus("failed", fmt.Sprintf("Could not load scenario: %v", err), 0, 0)
		return fmt.Errorf("load scenario: %w", err)
	}

	total := rr.opts.MaxTime + 1
	rr.server.PublishRenderStatus("rendering", fmt.Sprintf("Rendering %d frames...", total), 0, total)

	opts := rr.opts
	opts.OnFrame = func(done, total int) {
		rr.server.PublishFrame(done-1, done, total)
	}

	snaps, err := frames.Render(ctx, scn, opts)
	if err != nil {
		rr.server.PublishRenderStatus("failed", fmt.Sprintf("Render failed: %v", err), 0, total)
		return fmt.Errorf("render frames: %w", err)
	}

	rr.server.SetResults(scn, snaps, rr.opts)
	rr.server.PublishRenderStatus("ready", fmt.Sprintf("%d frames rendered", len(snaps)), len(snaps), total)

	logging.Info("render complete", "reason", reason, "scenario", scn.Name, "frames", len(snaps))
	return nil
}

func (rr *RenderRunner) loadScenario() (*scenario.Scenario, error) {
	if rr.scenarioPath == "" {
		return scenario.Example(), nil
	}
	return scenario.Load(rr.scenarioPath)
}

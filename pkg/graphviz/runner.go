// Package graphviz shells out to the dot binary to rasterize DOT
// frames. Callers should treat Graphviz as optional and check
// Available before constructing a runner.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner handles the execution of Graphviz commands.
type Runner interface {
	RenderSVG(ctx context.Context, dot []byte) ([]byte, error)
}

// DefaultRunner is the default implementation of Runner that runs the
// actual dot binary.
type DefaultRunner struct{}

// NewRunner creates a new default Graphviz runner.
func NewRunner() Runner {
	return &DefaultRunner{}
}

// Available reports whether the dot binary can be found on the PATH.
func Available() bool {
	_, err := exec.LookPath("dot")
	return err == nil
}

// RenderSVG pipes the DOT source through dot -Tsvg and returns the
// SVG bytes. It respects the provided context for cancellation.
func (r *DefaultRunner) RenderSVG(ctx context.Context, dot []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "dot", "-Tsvg")
	cmd.Stdin = bytes.NewReader(dot)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("dot -Tsvg failed: %w\nOutput: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

package graphviz

import (
	"context"
)

// MockRunner is a mock implementation of Runner for testing.
type MockRunner struct {
	MockOutput []byte
	MockError  error
}

func (m *MockRunner) RenderSVG(ctx context.Context, dot []byte) ([]byte, error) {
	return m.MockOutput, m.MockError
}

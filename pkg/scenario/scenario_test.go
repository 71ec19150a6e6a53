package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ritzau/trustflow/pkg/rank"
)

func TestLoadScenario(t *testing.T) {
	content := `# A small trust network.
name test-net
nodes 4

expert 0 3
edge 0 1 0
edge 1 2 5
edge 2 3 9
`
	path := filepath.Join(t.TempDir(), "test-net.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Name != "test-net" {
		t.Errorf("Name = %q, want %q", s.Name, "test-net")
	}
	if s.NumNodes != 4 {
		t.Errorf("NumNodes = %d, want 4", s.NumNodes)
	}
	wantExperts := []int{0, 3}
	if len(s.Experts) != len(wantExperts) {
		t.Fatalf("Experts = %v, want %v", s.Experts, wantExperts)
	}
	for i, want := range wantExperts {
		if s.Experts[i] != want {
			t.Errorf("Experts[%d] = %d, want %d", i, s.Experts[i], want)
		}
	}
	wantEdges := []rank.Edge{
		{Source: 0, Target: 1, CreatedAt: 0},
		{Source: 1, Target: 2, CreatedAt: 5},
		{Source: 2, Target: 3, CreatedAt: 9},
	}
	if len(s.Edges) != len(wantEdges) {
		t.Fatalf("got %d edges, want %d", len(s.Edges), len(wantEdges))
	}
	for i, want := range wantEdges {
		if s.Edges[i] != want {
			t.Errorf("Edges[%d] = %+v, want %+v", i, s.Edges[i], want)
		}
	}
}

func TestLoadDerivesNameFromFilename(t *testing.T) {
	content := "nodes 2\nedge 0 1 0\n"
	path := filepath.Join(t.TempDir(), "small-web.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Name != "small-web" {
		t.Errorf("Name = %q, want %q", s.Name, "small-web")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown directive",
			content: "nodes 2\nvertex 0\n",
			wantErr: "line 2",
		},
		{
			name:    "nodes not an integer",
			content: "nodes many\n",
			wantErr: "line 1",
		},
		{
			name:    "duplicate nodes",
			content: "nodes 2\nnodes 3\n",
			wantErr: "duplicate nodes",
		},
		{
			name:    "edge arity",
			content: "nodes 2\nedge 0 1\n",
			wantErr: "line 2",
		},
		{
			name:    "edge field not an integer",
			content: "nodes 2\nedge 0 1 soon\n",
			wantErr: "line 2",
		},
		{
			name:    "expert without ids",
			content: "nodes 2\nexpert\n",
			wantErr: "line 2",
		},
		{
			name:    "expert id not an integer",
			content: "nodes 2\nexpert zero\n",
			wantErr: "line 2",
		},
		{
			name:    "name arity",
			content: "name two words\nnodes 2\n",
			wantErr: "line 1",
		},
		{
			name:    "missing nodes",
			content: "name incomplete\nedge 0 1 0\n",
			wantErr: "missing nodes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestExampleScenario(t *testing.T) {
	s := Example()

	if s.Name != "trust-flow-example" {
		t.Errorf("Name = %q, want %q", s.Name, "trust-flow-example")
	}
	if s.NumNodes != 6 {
		t.Errorf("NumNodes = %d, want 6", s.NumNodes)
	}
	if len(s.Edges) != 6 {
		t.Errorf("got %d edges, want 6", len(s.Edges))
	}
	if len(s.Experts) != 1 || s.Experts[0] != 0 {
		t.Errorf("Experts = %v, want [0]", s.Experts)
	}

	if _, err := s.Graph(); err != nil {
		t.Errorf("Graph() error = %v", err)
	}

	if !s.IsExpert(0) {
		t.Error("IsExpert(0) = false, want true")
	}
	if s.IsExpert(1) {
		t.Error("IsExpert(1) = true, want false")
	}
}

func TestGraphRejectsOutOfRangeEdge(t *testing.T) {
	s := &Scenario{
		Name:     "broken",
		NumNodes: 2,
		Edges:    []rank.Edge{{Source: 0, Target: 7, CreatedAt: 0}},
	}
	_, err := s.Graph()
	if !errors.Is(err, rank.ErrInvalidInput) {
		t.Errorf("Graph() error = %v, want rank.ErrInvalidInput", err)
	}
}

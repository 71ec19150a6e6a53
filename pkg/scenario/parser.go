package scenario

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ritzau/trustflow/pkg/rank"
)

// Load reads a scenario file. The format is line oriented: blank lines
// and lines starting with # are skipped, every other line is a
// directive.
//
//	name <scenario-name>
//	nodes <count>
//	expert <node> [<node> ...]
//	edge <source> <target> <created-at>
//
// When no name directive is present the file's base name (without
// extension) is used.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}

// Parse reads scenario directives from r. Callers that have a file on
// disk should use Load, which also derives a fallback name.
func Parse(r io.Reader) (*Scenario, error) {
	s := &Scenario{}
	nodesSeen := false

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		directive, args := fields[0], fields[1:]

		switch directive {
		case "name":
			if len(args) != 1 {
				return nil, lineError(lineNum, "name takes exactly one argument")
			}
			s.Name = args[0]

		case "nodes":
			if nodesSeen {
				return nil, lineError(lineNum, "duplicate nodes directive")
			}
			if len(args) != 1 {
				return nil, lineError(lineNum, "nodes takes exactly one argument")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, lineError(lineNum, "nodes count %q is not an integer", args[0])
			}
			s.NumNodes = n
			nodesSeen = true

		case "expert":
			if len(args) == 0 {
				return nil, lineError(lineNum, "expert needs at least one node id")
			}
			for _, a := range args {
				id, err := strconv.Atoi(a)
				if err != nil {
					return nil, lineError(lineNum, "expert id %q is not an integer", a)
				}
				s.Experts = append(s.Experts, id)
			}

		case "edge":
			if len(args) != 3 {
				return nil, lineError(lineNum, "edge takes source, target and created-at")
			}
			vals := make([]int, 3)
			for i, a := range args {
				v, err := strconv.Atoi(a)
				if err != nil {
					return nil, lineError(lineNum, "edge field %q is not an integer", a)
				}
				vals[i] = v
			}
			s.Edges = append(s.Edges, rank.Edge{
				Source:    vals[0],
				Target:    vals[1],
				CreatedAt: vals[2],
			})

		default:
			return nil, lineError(lineNum, "unknown directive %q", directive)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	if !nodesSeen {
		return nil, fmt.Errorf("missing nodes directive")
	}
	return s, nil
}

func lineError(line int, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}

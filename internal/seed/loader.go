// Package seed reads diagram fixtures from YAML and saves them through the
// diagram service.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"diagram_showcase/src/diagram"
	"diagram_showcase/src/model"
)

// File represents the structure of a seed file
type File struct {
	Diagrams []Entry `yaml:"diagrams"`
}

type Entry struct {
	Name          string       `yaml:"name"`
	Title         string       `yaml:"title"`
	DefinitionSet string       `yaml:"definition_set"`
	ShapeSet      string       `yaml:"shape_set"`
	Path          string       `yaml:"path"`
	Nodes         []model.Node `yaml:"nodes"`
	Edges         []model.Edge `yaml:"edges"`
}

// Load reads path and converts every entry into a diagram.
func Load(path string) ([]*model.Diagram[model.Graph], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse converts YAML seed data into diagrams.
func Parse(data []byte) ([]*model.Diagram[model.Graph], error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	diagrams := make([]*model.Diagram[model.Graph], 0, len(file.Diagrams))
	for i, e := range file.Diagrams {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("seed entry %d: missing name", i)
		}
		if err := checkEdges(e); err != nil {
			return nil, fmt.Errorf("seed entry %q: %w", e.Name, err)
		}

		d := model.NewDiagram(e.Name, model.Graph{Nodes: e.Nodes, Edges: e.Edges})
		d.Metadata.Title = e.Title
		d.Metadata.DefinitionSetID = e.DefinitionSet
		d.Metadata.ShapeSetID = e.ShapeSet
		d.Metadata.Path = model.Path(e.Path)
		diagrams = append(diagrams, d)
	}
	return diagrams, nil
}

func checkEdges(e Entry) error {
	ids := make(map[string]struct{}, len(e.Nodes))
	for _, n := range e.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, edge := range e.Edges {
		if _, ok := ids[edge.Source]; !ok {
			return fmt.Errorf("edge source %q is not a node", edge.Source)
		}
		if _, ok := ids[edge.Target]; !ok {
			return fmt.Errorf("edge target %q is not a node", edge.Target)
		}
	}
	return nil
}

// Saver is the part of diagram.Service used for importing.
type Saver interface {
	SaveDocument(ctx context.Context, d *model.Diagram[model.Graph], cb diagram.Callback[*model.Diagram[model.Graph]]) *diagram.Call
}

// importState collects deliveries. A save abandoned on ctx expiry may still
// deliver after Import has returned.
type importState struct {
	mu    sync.Mutex
	saved []*model.Diagram[model.Graph]
	errs  []error
}

func (s *importState) callback(name string) diagram.Callback[*model.Diagram[model.Graph]] {
	return diagram.CallbackFuncs[*model.Diagram[model.Graph]]{
		Success: func(stored *model.Diagram[model.Graph]) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.saved = append(s.saved, stored)
		},
		Error: func(err error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.errs = append(s.errs, fmt.Errorf("import %q: %w", name, err))
		},
	}
}

func (s *importState) result(extra ...error) ([]*model.Diagram[model.Graph], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.saved), errors.Join(append(slices.Clone(s.errs), extra...)...)
}

// Import saves diagrams one after another and returns the stored copies.
// A failed save does not stop the import; all failures are joined. When ctx
// ends mid-save, Import returns what was delivered so far.
func Import(ctx context.Context, saver Saver, diagrams []*model.Diagram[model.Graph]) ([]*model.Diagram[model.Graph], error) {
	state := &importState{saved: make([]*model.Diagram[model.Graph], 0, len(diagrams))}

	for _, d := range diagrams {
		call := saver.SaveDocument(ctx, d, state.callback(d.Name))
		if err := call.Wait(ctx); err != nil {
			return state.result(err)
		}
	}
	return state.result()
}

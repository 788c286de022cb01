package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagram_showcase/src/diagram"
	"diagram_showcase/src/model"
	"diagram_showcase/src/storage"
)

const sample = `
diagrams:
  - name: invoice-flow
    title: Invoice approval
    definition_set: bpmn
    nodes:
      - {id: start, type: StartEvent}
      - {id: review, type: Task, label: Review invoice}
      - {id: end, type: EndEvent}
    edges:
      - {source: start, target: review, type: sequence}
      - {source: review, target: end, type: sequence}
  - name: onboarding
    path: /custom/onboarding.case
    definition_set: case
    nodes:
      - {id: s, type: Stage}
`

func newService(t *testing.T, store *storage.MemoryStore[model.Graph]) *diagram.Service[model.Graph] {
	t.Helper()
	svc, err := diagram.NewService[model.Graph](
		diagram.NewPathResolver(store),
		diagram.NewDiagramLoader[model.Graph](store),
		nil,
		diagram.NewDiagramPersister[model.Graph](store),
	)
	require.NoError(t, err)
	return svc
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	diagrams, err := Load(path)
	require.NoError(t, err)

	require.Len(t, diagrams, 2)
	assert.Equal(t, "invoice-flow", diagrams[0].Name)
	assert.Equal(t, "Invoice approval", diagrams[0].Metadata.Title)
	assert.Equal(t, "bpmn", diagrams[0].Metadata.DefinitionSetID)
	assert.Len(t, diagrams[0].Graph.Nodes, 3)
	assert.Equal(t, "Review invoice", diagrams[0].Graph.Nodes[1].Label)
	assert.True(t, diagrams[0].Metadata.Path.IsZero())
	assert.Equal(t, model.Path("/custom/onboarding.case"), diagrams[1].Metadata.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing name", "diagrams:\n  - title: nameless\n", "missing name"},
		{"dangling edge", "diagrams:\n  - name: x\n    nodes: [{id: a}]\n    edges: [{source: a, target: b}]\n", `edge target "b"`},
		{"duplicate node", "diagrams:\n  - name: x\n    nodes: [{id: a}, {id: a}]\n", "duplicate node"},
		{"not yaml", "diagrams: [", "parsing YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore[model.Graph]()
	diagrams, err := Parse([]byte(sample))
	require.NoError(t, err)

	saved, err := Import(ctx, newService(t, store), diagrams)
	require.NoError(t, err)

	require.Len(t, saved, 2)
	assert.Equal(t, model.Path("/diagrams/invoice-flow.bpmn"), saved[0].Metadata.Path)

	result, err := store.Lookup(ctx, model.NewLookupRequest("onboarding"))
	require.NoError(t, err)
	first, ok := result.First()
	require.True(t, ok)
	assert.Equal(t, model.Path("/custom/onboarding.case"), first.Path)
}

func TestImportContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore[model.Graph]()
	blank := model.NewDiagram("  ", model.Graph{})
	good := model.NewDiagram("good", model.Graph{})

	saved, err := Import(ctx, newService(t, store), []*model.Diagram[model.Graph]{blank, good})

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidDiagram))
	require.Len(t, saved, 1)
	assert.Equal(t, "good", saved[0].Name)
}

// slowPersister saves after a fixed delay and ignores ctx.
type slowPersister struct {
	delay    time.Duration
	finished atomic.Int32
}

func (p *slowPersister) Save(_ context.Context, d *model.Diagram[model.Graph]) (*model.Diagram[model.Graph], error) {
	time.Sleep(p.delay)
	p.finished.Add(1)
	return d, nil
}

func TestImportStopsAtDeadline(t *testing.T) {
	persister := &slowPersister{delay: 20 * time.Millisecond}
	svc, err := diagram.NewService[model.Graph](nil, nil, nil, persister)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	saved, err := Import(ctx, svc, []*model.Diagram[model.Graph]{
		model.NewDiagram("late", model.Graph{}),
		model.NewDiagram("never", model.Graph{}),
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, saved)

	// the abandoned save still delivers; the returned slice must not change
	assert.Eventually(t, func() bool { return persister.finished.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, saved)
	assert.Equal(t, int32(1), persister.finished.Load())
}

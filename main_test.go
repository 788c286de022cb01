package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagram_showcase/src"
	"diagram_showcase/src/diagram"
	"diagram_showcase/src/model"
	"diagram_showcase/src/storage"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "memory")
	cfg, err := src.LoadConfig()
	require.NoError(t, err)

	a, closeStore, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(closeStore)
	return a
}

func TestDemoSavesThumbnails(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	require.NoError(t, a.run(ctx, "demo", []string{"seeds/showcase.yaml"}))

	reps, err := a.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	for _, r := range reps {
		assert.Contains(t, r.Thumbnail, "data:image/jpeg;base64,", r.Name)
	}
}

func TestOpenUnknownNameIsSilent(t *testing.T) {
	a := newTestApp(t)

	d, err := a.openByName(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestOpenPathMissing(t *testing.T) {
	a := newTestApp(t)

	assert.NoError(t, a.openByPath(context.Background(), model.Path("/diagrams/none.bpmn")))
}

func TestRunRejectsBadInput(t *testing.T) {
	a := newTestApp(t)

	assert.ErrorContains(t, a.run(context.Background(), "explode", nil), "unknown command")
	assert.ErrorContains(t, a.run(context.Background(), "open", nil), "missing argument")
}

// slowLookup answers after a delay and ignores ctx.
type slowLookup struct {
	delay    time.Duration
	finished atomic.Int32
}

func (s *slowLookup) Lookup(_ context.Context, _ model.LookupRequest) (*model.LookupResult, error) {
	time.Sleep(s.delay)
	s.finished.Add(1)
	return &model.LookupResult{Results: []model.DiagramRepresentation{{Name: "late", Path: "/diagrams/late.bpmn"}}}, nil
}

func TestOpenTimesOutBeforeDelivery(t *testing.T) {
	cfg, err := src.LoadConfig()
	require.NoError(t, err)
	cfg.StorageConfig.Timeout = 5 * time.Millisecond

	store := storage.NewMemoryStore[model.Graph]()
	lookup := &slowLookup{delay: 20 * time.Millisecond}
	svc, err := diagram.NewService[model.Graph](
		diagram.NewPathResolver(lookup),
		diagram.NewDiagramLoader[model.Graph](store),
		nil,
		diagram.NewDiagramPersister[model.Graph](store),
	)
	require.NoError(t, err)
	a := &app{cfg: cfg, store: store, service: svc}

	d, err := a.openByName(context.Background(), "late")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, d)
	assert.Eventually(t, func() bool { return lookup.finished.Load() == 1 }, time.Second, 5*time.Millisecond)
}

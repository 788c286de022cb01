//go:build integration

package storage

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"diagram_showcase/src/model"
)

var (
	testRedisURL   string
	redisContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}
	redisContainer = container

	testRedisURL, err = container.ConnectionString(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis connection string: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := redisContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
	}
	os.Exit(code)
}

func setupRedisStore(t *testing.T, opts ...Option) *RedisStore[model.Graph] {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	store, err := NewRedisStore[model.Graph](ctx, testRedisURL, opts...)
	require.NoError(t, err)

	// Flush all keys before each test
	require.NoError(t, store.client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(epoch)
	store := setupRedisStore(t, WithClock(clock))

	d := newDiagram("invoice-flow", "bpmn")
	d.Metadata.Title = "Invoice flow"
	saved, err := store.SaveOrUpdate(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, model.Path("/diagrams/invoice-flow.bpmn"), saved.Metadata.Path)

	loaded, err := store.LoadByPath(ctx, saved.Metadata.Path)
	require.NoError(t, err)
	assert.Equal(t, "invoice-flow", loaded.Name)
	assert.Equal(t, "Invoice flow", loaded.Metadata.Title)
	assert.Equal(t, epoch, loaded.Metadata.UpdatedAt.UTC())
	assert.Len(t, loaded.Graph.Nodes, 2)
	assert.Equal(t, saved.Metadata.CanvasRootID, loaded.Metadata.CanvasRootID)
}

func TestRedisStoreLookupOrder(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(epoch)
	store := setupRedisStore(t, WithClock(clock))

	for _, p := range []model.Path{"/diagrams/b.bpmn", "/diagrams/a.bpmn", "/diagrams/c.bpmn"} {
		d := newDiagram("flow", "bpmn")
		d.Metadata.Path = p
		_, err := store.SaveOrUpdate(ctx, d)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	result, err := store.Lookup(ctx, model.NewLookupRequest("flow"))
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, model.Path("/diagrams/b.bpmn"), result.Results[0].Path)
	assert.Equal(t, model.Path("/diagrams/a.bpmn"), result.Results[1].Path)

	paged, err := store.Lookup(ctx, model.NewLookupRequest("flow", model.WithPage(1), model.WithPageSize(2)))
	require.NoError(t, err)
	require.Len(t, paged.Results, 1)
	assert.Equal(t, model.Path("/diagrams/c.bpmn"), paged.Results[0].Path)
	assert.Equal(t, int64(3), paged.Total)
	assert.Equal(t, 1, paged.Page)

	beyond, err := store.Lookup(ctx, model.NewLookupRequest("flow", model.WithPage(math.MaxInt/2+1), model.WithPageSize(2)))
	require.NoError(t, err)
	assert.True(t, beyond.IsEmpty())
	assert.Equal(t, int64(3), beyond.Total)

	filtered, err := store.Lookup(ctx, model.NewLookupRequest("flow", model.WithCriteria("bpmn"), model.WithPageSize(2)))
	require.NoError(t, err)
	require.Len(t, filtered.Results, 2)
	assert.Equal(t, model.Path("/diagrams/b.bpmn"), filtered.Results[0].Path)

	empty, err := store.Lookup(ctx, model.NewLookupRequest("missing"))
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store := setupRedisStore(t)

	_, err := store.LoadByPath(context.Background(), "/diagrams/nope.bpmn")

	assert.ErrorIs(t, err, model.ErrDiagramNotFound)
	assert.NotErrorIs(t, err, redis.Nil)
}

func TestRedisStoreRenameAndList(t *testing.T) {
	ctx := context.Background()
	store := setupRedisStore(t)

	saved, err := store.SaveOrUpdate(ctx, newDiagram("draft", "bpmn"))
	require.NoError(t, err)
	_, err = store.SaveOrUpdate(ctx, newDiagram("alpha", "bpmn"))
	require.NoError(t, err)

	saved.Name = "zulu"
	_, err = store.SaveOrUpdate(ctx, saved)
	require.NoError(t, err)

	draft, err := store.Lookup(ctx, model.NewLookupRequest("draft"))
	require.NoError(t, err)
	assert.True(t, draft.IsEmpty())

	reps, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, "alpha", reps[0].Name)
	assert.Equal(t, "zulu", reps[1].Name)
}

func TestRedisStoreLookupFailure(t *testing.T) {
	store := setupRedisStore(t)
	require.NoError(t, store.Close())

	_, err := store.Lookup(context.Background(), model.NewLookupRequest("flow"))

	var lookupErr *model.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "flow", lookupErr.Name)
}

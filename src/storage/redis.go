package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"diagram_showcase/src/model"
)

// RedisStore keeps diagrams in Redis:
//
//	<prefix>doc:<path>    JSON document
//	<prefix>index:<name>  sorted set of paths, scored by first-save time (ms)
//	<prefix>names         set of every name ever saved
type RedisStore[G any] struct {
	client *redis.Client
	opts   storeOptions
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore[G any](ctx context.Context, redisURL string, opts ...Option) (*RedisStore[G], error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis backend")
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(redisOpts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore[G]{
		client: client,
		opts:   newStoreOptions(opts),
	}, nil
}

func (r *RedisStore[G]) docKey(path model.Path) string {
	return r.opts.keyPrefix + "doc:" + string(path)
}

func (r *RedisStore[G]) indexKey(name string) string {
	return r.opts.keyPrefix + "index:" + name
}

func (r *RedisStore[G]) namesKey() string {
	return r.opts.keyPrefix + "names"
}

// Lookup returns diagrams named req.Name() in first-save order. Without
// criteria the page is cut by ZRANGE; with criteria the whole index is
// filtered before paging.
func (r *RedisStore[G]) Lookup(ctx context.Context, req model.LookupRequest) (*model.LookupResult, error) {
	if req.Criteria() != "" {
		paths, err := r.client.ZRange(ctx, r.indexKey(req.Name()), 0, -1).Result()
		if err != nil {
			return nil, &model.LookupError{Name: req.Name(), Err: fmt.Errorf("failed to read name index: %w", err)}
		}
		candidates, err := r.representations(ctx, paths)
		if err != nil {
			return nil, &model.LookupError{Name: req.Name(), Err: err}
		}
		return page(req, candidates), nil
	}

	start, stop := req.Bounds()
	var rangeCmd *redis.StringSliceCmd
	var cardCmd *redis.IntCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		rangeCmd = pipe.ZRange(ctx, r.indexKey(req.Name()), start, stop)
		cardCmd = pipe.ZCard(ctx, r.indexKey(req.Name()))
		return nil
	})
	if err != nil {
		return nil, &model.LookupError{Name: req.Name(), Err: fmt.Errorf("failed to read name index: %w", err)}
	}

	reps, err := r.representations(ctx, rangeCmd.Val())
	if err != nil {
		return nil, &model.LookupError{Name: req.Name(), Err: err}
	}
	return &model.LookupResult{
		Results: reps,
		Page:    req.Page(),
		Total:   cardCmd.Val(),
	}, nil
}

// LoadByPath reads the diagram stored at path.
func (r *RedisStore[G]) LoadByPath(ctx context.Context, path model.Path) (*model.Diagram[G], error) {
	data, err := r.client.Get(ctx, r.docKey(path)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &model.LoadError{Path: path, Err: model.ErrDiagramNotFound}
		}
		return nil, &model.LoadError{Path: path, Err: fmt.Errorf("failed to get diagram: %w", err)}
	}

	var d model.Diagram[G]
	if err := sonic.UnmarshalString(data, &d); err != nil {
		return nil, &model.LoadError{Path: path, Err: fmt.Errorf("failed to unmarshal diagram: %w", err)}
	}
	return &d, nil
}

// SaveOrUpdate writes a normalised copy of d together with its index
// entries in one transaction and returns the copy.
func (r *RedisStore[G]) SaveOrUpdate(ctx context.Context, d *model.Diagram[G]) (*model.Diagram[G], error) {
	stored, err := normalize(r.opts, d)
	if err != nil {
		return nil, err
	}
	path := stored.Metadata.Path

	data, err := sonic.MarshalString(stored)
	if err != nil {
		return nil, &model.PersistError{Path: path, Err: fmt.Errorf("failed to marshal diagram: %w", err)}
	}

	prevName, err := r.storedName(ctx, path)
	if err != nil {
		return nil, &model.PersistError{Path: path, Err: err}
	}

	score := float64(stored.Metadata.UpdatedAt.UnixMilli())
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.docKey(path), data, 0)
		if prevName != "" && prevName != stored.Name {
			pipe.ZRem(ctx, r.indexKey(prevName), string(path))
		}
		pipe.ZAddNX(ctx, r.indexKey(stored.Name), redis.Z{Score: score, Member: string(path)})
		pipe.SAdd(ctx, r.namesKey(), stored.Name)
		return nil
	})
	if err != nil {
		return nil, &model.PersistError{Path: path, Err: fmt.Errorf("failed to write diagram: %w", err)}
	}

	return stored, nil
}

// List returns every stored diagram, sorted by name.
func (r *RedisStore[G]) List(ctx context.Context) ([]model.DiagramRepresentation, error) {
	names, err := r.client.SMembers(ctx, r.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list names: %w", err)
	}

	var reps []model.DiagramRepresentation
	for _, name := range names {
		paths, err := r.client.ZRange(ctx, r.indexKey(name), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read name index %q: %w", name, err)
		}
		found, err := r.representations(ctx, paths)
		if err != nil {
			return nil, err
		}
		reps = append(reps, found...)
	}
	sortRepresentations(reps)
	return reps, nil
}

// Close closes the Redis connection
func (r *RedisStore[G]) Close() error {
	return r.client.Close()
}

// Ping tests Redis connection
func (r *RedisStore[G]) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// ====================== Private Methods ======================

func (r *RedisStore[G]) representations(ctx context.Context, paths []string) ([]model.DiagramRepresentation, error) {
	if len(paths) == 0 {
		return []model.DiagramRepresentation{}, nil
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = r.docKey(model.Path(p))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read diagrams: %w", err)
	}

	reps := make([]model.DiagramRepresentation, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		var d model.Diagram[G]
		if err := sonic.UnmarshalString(raw, &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal diagram %s: %w", paths[i], err)
		}
		reps = append(reps, d.Representation())
	}
	return reps, nil
}

func (r *RedisStore[G]) storedName(ctx context.Context, path model.Path) (string, error) {
	data, err := r.client.Get(ctx, r.docKey(path)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read previous version: %w", err)
	}

	var prev struct {
		Name string `json:"name"`
	}
	if err := sonic.UnmarshalString(data, &prev); err != nil {
		return "", fmt.Errorf("failed to unmarshal previous version: %w", err)
	}
	return prev.Name, nil
}

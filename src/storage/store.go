// Package storage holds the persistence backends behind the diagram
// lookup, load and save capabilities.
package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"diagram_showcase/src/model"
)

const (
	defaultPathPrefix = "/diagrams/"
	defaultExtension  = ".bpmn"
	defaultKeyPrefix  = "diagram:"
)

type storeOptions struct {
	clock      clockwork.Clock
	pathPrefix string
	extension  string
	keyPrefix  string
}

// Option configures a store.
type Option func(*storeOptions)

func WithClock(clock clockwork.Clock) Option {
	return func(o *storeOptions) {
		o.clock = clock
	}
}

// WithPathPrefix sets the prefix of paths derived for unsaved diagrams.
func WithPathPrefix(prefix string) Option {
	return func(o *storeOptions) {
		o.pathPrefix = prefix
	}
}

// WithExtension sets the suffix of paths derived for unsaved diagrams.
func WithExtension(ext string) Option {
	return func(o *storeOptions) {
		o.extension = ext
	}
}

// WithKeyPrefix namespaces Redis keys. Ignored by MemoryStore.
func WithKeyPrefix(prefix string) Option {
	return func(o *storeOptions) {
		o.keyPrefix = prefix
	}
}

func newStoreOptions(opts []Option) storeOptions {
	o := storeOptions{
		clock:      clockwork.NewRealClock(),
		pathPrefix: defaultPathPrefix,
		extension:  defaultExtension,
		keyPrefix:  defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// normalize returns a stored copy of d with a path, a canvas root ID and
// a fresh UpdatedAt. d itself is not modified.
func normalize[G any](o storeOptions, d *model.Diagram[G]) (*model.Diagram[G], error) {
	if d == nil {
		return nil, &model.PersistError{Err: fmt.Errorf("%w: nil diagram", model.ErrInvalidDiagram)}
	}

	out, err := clone(d)
	if err != nil {
		return nil, &model.PersistError{Path: d.Path(), Err: err}
	}
	if out.Metadata == nil {
		out.Metadata = &model.Metadata{}
	}

	if out.Metadata.Path.IsZero() {
		name := strings.TrimSpace(out.Name)
		if name == "" {
			return nil, &model.PersistError{Err: fmt.Errorf("%w: diagram has neither name nor path", model.ErrInvalidDiagram)}
		}
		out.Metadata.Path = model.Path(o.pathPrefix + name + o.extension)
	}
	if out.Metadata.CanvasRootID == "" {
		out.Metadata.CanvasRootID = uuid.NewString()
	}
	out.Metadata.UpdatedAt = o.clock.Now().UTC()

	return out, nil
}

// clone deep-copies a diagram through its JSON form.
func clone[G any](d *model.Diagram[G]) (*model.Diagram[G], error) {
	data, err := sonic.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diagram: %w", err)
	}
	var out model.Diagram[G]
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal diagram: %w", err)
	}
	return &out, nil
}

// page applies criteria filtering and request paging to candidates that
// are already in backend order.
func page(req model.LookupRequest, candidates []model.DiagramRepresentation) *model.LookupResult {
	filtered := candidates[:0:0]
	for _, c := range candidates {
		if req.Criteria() != "" && c.DefinitionSetID != req.Criteria() {
			continue
		}
		filtered = append(filtered, c)
	}

	result := &model.LookupResult{
		Results: []model.DiagramRepresentation{},
		Page:    req.Page(),
		Total:   int64(len(filtered)),
	}

	start, stop := req.Bounds()
	if start < 0 || start >= int64(len(filtered)) {
		return result
	}
	if stop < 0 || stop >= int64(len(filtered)) {
		stop = int64(len(filtered)) - 1
	}
	result.Results = append(result.Results, filtered[start:stop+1]...)
	return result
}

func sortRepresentations(reps []model.DiagramRepresentation) {
	sort.SliceStable(reps, func(i, j int) bool {
		return reps[i].Name < reps[j].Name
	})
}

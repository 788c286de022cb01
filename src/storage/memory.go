package storage

import (
	"context"
	"fmt"
	"sync"

	"diagram_showcase/src/model"
)

// MemoryStore is an in-memory backend for development and tests. It stores
// copies, so callers never share state with the store.
type MemoryStore[G any] struct {
	mu   sync.RWMutex
	opts storeOptions
	docs map[model.Path]*model.Diagram[G]
	// index lists paths per name in first-save order.
	index map[string][]model.Path
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[G any](opts ...Option) *MemoryStore[G] {
	return &MemoryStore[G]{
		opts:  newStoreOptions(opts),
		docs:  make(map[model.Path]*model.Diagram[G]),
		index: make(map[string][]model.Path),
	}
}

// Lookup returns diagrams named req.Name() in first-save order.
func (m *MemoryStore[G]) Lookup(ctx context.Context, req model.LookupRequest) (*model.LookupResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.LookupError{Name: req.Name(), Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := m.index[req.Name()]
	candidates := make([]model.DiagramRepresentation, 0, len(paths))
	for _, p := range paths {
		if d, ok := m.docs[p]; ok {
			candidates = append(candidates, d.Representation())
		}
	}
	return page(req, candidates), nil
}

// LoadByPath returns a copy of the diagram stored at path.
func (m *MemoryStore[G]) LoadByPath(ctx context.Context, path model.Path) (*model.Diagram[G], error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.LoadError{Path: path, Err: err}
	}

	m.mu.RLock()
	d, ok := m.docs[path]
	m.mu.RUnlock()
	if !ok {
		return nil, &model.LoadError{Path: path, Err: model.ErrDiagramNotFound}
	}

	out, err := clone(d)
	if err != nil {
		return nil, &model.LoadError{Path: path, Err: err}
	}
	return out, nil
}

// SaveOrUpdate stores a normalised copy of d and returns it.
func (m *MemoryStore[G]) SaveOrUpdate(ctx context.Context, d *model.Diagram[G]) (*model.Diagram[G], error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.PersistError{Path: d.Path(), Err: err}
	}

	stored, err := normalize(m.opts, d)
	if err != nil {
		return nil, err
	}
	path := stored.Metadata.Path

	m.mu.Lock()
	if prev, ok := m.docs[path]; ok && prev.Name != stored.Name {
		m.unindex(prev.Name, path)
	}
	m.docs[path] = stored
	if !m.indexed(stored.Name, path) {
		m.index[stored.Name] = append(m.index[stored.Name], path)
	}
	m.mu.Unlock()

	out, err := clone(stored)
	if err != nil {
		return nil, &model.PersistError{Path: path, Err: fmt.Errorf("failed to copy stored diagram: %w", err)}
	}
	return out, nil
}

// List returns every stored diagram, sorted by name.
func (m *MemoryStore[G]) List(ctx context.Context) ([]model.DiagramRepresentation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	reps := make([]model.DiagramRepresentation, 0, len(m.docs))
	for _, paths := range m.index {
		for _, p := range paths {
			reps = append(reps, m.docs[p].Representation())
		}
	}
	sortRepresentations(reps)
	return reps, nil
}

func (m *MemoryStore[G]) indexed(name string, path model.Path) bool {
	for _, p := range m.index[name] {
		if p == path {
			return true
		}
	}
	return false
}

func (m *MemoryStore[G]) unindex(name string, path model.Path) {
	paths := m.index[name]
	for i, p := range paths {
		if p == path {
			m.index[name] = append(paths[:i], paths[i+1:]...)
			break
		}
	}
	if len(m.index[name]) == 0 {
		delete(m.index, name)
	}
}

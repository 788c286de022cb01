package diagram

import (
	"context"

	"diagram_showcase/src/model"
)

// ThumbnailFormat is the encoding used for every session thumbnail.
const ThumbnailFormat = model.ImageFormatJPG

// Resolver translates a logical diagram name into lookup candidates.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*model.LookupResult, error)
}

// Loader fetches a diagram by storage location.
type Loader[G any] interface {
	LoadByPath(ctx context.Context, path model.Path) (*model.Diagram[G], error)
}

// Capturer renders a session's canvas into an encoded still image.
type Capturer[G any] interface {
	Capture(session EditorSession[G], format model.ImageFormat) (string, error)
}

// Persister writes a diagram back to storage.
type Persister[G any] interface {
	Save(ctx context.Context, d *model.Diagram[G]) (*model.Diagram[G], error)
}

// ====================== PathResolver ======================

type PathResolver struct {
	lookup LookupService
}

func NewPathResolver(lookup LookupService) *PathResolver {
	return &PathResolver{lookup: lookup}
}

// Resolve issues one lookup for name. Backend errors are returned as is.
func (r *PathResolver) Resolve(ctx context.Context, name string) (*model.LookupResult, error) {
	return r.lookup.Lookup(ctx, model.NewLookupRequest(name))
}

// ====================== DiagramLoader ======================

type DiagramLoader[G any] struct {
	loads LoadService[G]
}

func NewDiagramLoader[G any](loads LoadService[G]) *DiagramLoader[G] {
	return &DiagramLoader[G]{loads: loads}
}

func (l *DiagramLoader[G]) LoadByPath(ctx context.Context, path model.Path) (*model.Diagram[G], error) {
	return l.loads.LoadByPath(ctx, path)
}

// ====================== ThumbnailCapture ======================

type ThumbnailCapture[G any] struct {
	renderer CanvasRenderer[G]
}

func NewThumbnailCapture[G any](renderer CanvasRenderer[G]) *ThumbnailCapture[G] {
	return &ThumbnailCapture[G]{renderer: renderer}
}

// Capture reads the canvas state at call time.
func (c *ThumbnailCapture[G]) Capture(session EditorSession[G], format model.ImageFormat) (string, error) {
	return c.renderer.RenderToImage(session.CanvasHandler(), format)
}

// ====================== DiagramPersister ======================

type DiagramPersister[G any] struct {
	store PersistenceService[G]
}

func NewDiagramPersister[G any](store PersistenceService[G]) *DiagramPersister[G] {
	return &DiagramPersister[G]{store: store}
}

// Save writes d. Repeated calls produce repeated writes.
func (p *DiagramPersister[G]) Save(ctx context.Context, d *model.Diagram[G]) (*model.Diagram[G], error) {
	return p.store.SaveOrUpdate(ctx, d)
}

// Package diagram orchestrates opening and saving diagrams from an editor
// client. It owns the sequencing between lookup, load, thumbnail capture and
// persistence; the backends behind those steps are supplied as interfaces.
package diagram

import (
	"context"

	"diagram_showcase/src/model"
)

// ====================== Remote capabilities ======================

// LookupService resolves a lookup request into candidate diagrams.
type LookupService interface {
	Lookup(ctx context.Context, req model.LookupRequest) (*model.LookupResult, error)
}

// LoadService fetches a full diagram from a storage location.
type LoadService[G any] interface {
	LoadByPath(ctx context.Context, path model.Path) (*model.Diagram[G], error)
}

// PersistenceService writes a diagram and returns the stored version,
// which the backend may have normalised.
type PersistenceService[G any] interface {
	SaveOrUpdate(ctx context.Context, d *model.Diagram[G]) (*model.Diagram[G], error)
}

// ====================== Editor capabilities ======================

// CanvasHandler binds a canvas to the diagram it currently displays.
type CanvasHandler[G any] interface {
	Diagram() *model.Diagram[G]
}

// EditorSession is the live editing context. The orchestrator only reads
// from it.
type EditorSession[G any] interface {
	CanvasHandler() CanvasHandler[G]
}

// CanvasRenderer exports the current canvas state as an encoded image string.
type CanvasRenderer[G any] interface {
	RenderToImage(handler CanvasHandler[G], format model.ImageFormat) (string, error)
}

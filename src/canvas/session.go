// Package canvas provides a minimal editor session and a raster renderer
// for the showcase binary.
package canvas

import (
	"sync"

	"diagram_showcase/src/diagram"
	"diagram_showcase/src/model"
)

// Handler binds the canvas to the diagram it displays.
type Handler[G any] struct {
	mu      sync.RWMutex
	current *model.Diagram[G]
}

func NewHandler[G any](d *model.Diagram[G]) *Handler[G] {
	return &Handler[G]{current: d}
}

func (h *Handler[G]) Diagram() *model.Diagram[G] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Replace swaps the displayed diagram wholesale, as a reload does.
func (h *Handler[G]) Replace(d *model.Diagram[G]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = d
}

// Session is a single-canvas editor session.
type Session[G any] struct {
	handler *Handler[G]
}

func NewSession[G any](d *model.Diagram[G]) *Session[G] {
	return &Session[G]{handler: NewHandler(d)}
}

func (s *Session[G]) CanvasHandler() diagram.CanvasHandler[G] {
	return s.handler
}

// Open shows d on the session canvas.
func (s *Session[G]) Open(d *model.Diagram[G]) {
	s.handler.Replace(d)
}

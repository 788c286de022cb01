package model

import "time"

// ----------------------------------------------------
// ================ Document ================

// Path identifies where a diagram lives in storage. It is opaque to the
// orchestrator and only compared for equality.
type Path string

func (p Path) String() string {
	return string(p)
}

// IsZero reports whether the path is unset.
func (p Path) IsZero() bool {
	return p == ""
}

// Metadata holds the descriptive fields of a diagram, including the
// thumbnail captured on the last save from an editor session.
type Metadata struct {
	Title           string    `json:"title,omitempty" yaml:"title"`
	DefinitionSetID string    `json:"definition_set_id,omitempty" yaml:"definition_set"`
	ShapeSetID      string    `json:"shape_set_id,omitempty" yaml:"shape_set"`
	CanvasRootID    string    `json:"canvas_root_id,omitempty" yaml:"-"`
	Path            Path      `json:"path,omitempty" yaml:"path"`
	Thumbnail       string    `json:"thumbnail,omitempty" yaml:"-"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Diagram is the editable unit: a graph of type G plus its metadata.
// Its identity is Metadata.Path.
type Diagram[G any] struct {
	Name     string    `json:"name"`
	Graph    G         `json:"graph"`
	Metadata *Metadata `json:"metadata"`
}

// NewDiagram builds a diagram with an empty metadata record.
func NewDiagram[G any](name string, graph G) *Diagram[G] {
	return &Diagram[G]{
		Name:     name,
		Graph:    graph,
		Metadata: &Metadata{},
	}
}

// Path returns the storage location recorded in the metadata.
func (d *Diagram[G]) Path() Path {
	if d == nil || d.Metadata == nil {
		return ""
	}
	return d.Metadata.Path
}

// Representation summarises the diagram for lookup listings.
func (d *Diagram[G]) Representation() DiagramRepresentation {
	rep := DiagramRepresentation{Name: d.Name}
	if d.Metadata != nil {
		rep.Title = d.Metadata.Title
		rep.Path = d.Metadata.Path
		rep.DefinitionSetID = d.Metadata.DefinitionSetID
		rep.Thumbnail = d.Metadata.Thumbnail
	}
	return rep
}

// ----------------------------------------------------
// ================ Graph ================

// Graph is the node/edge representation used by the showcase binary and
// the storage backends.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

type Node struct {
	ID    string `json:"id" yaml:"id"`
	Type  string `json:"type" yaml:"type"`
	Label string `json:"label,omitempty" yaml:"label"`
}

type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Type   string `json:"type,omitempty" yaml:"type"`
}

// ----------------------------------------------------
// ================ Thumbnail ================

// ImageFormat selects the encoding used when a canvas is exported.
type ImageFormat string

const (
	ImageFormatJPG ImageFormat = "jpg"
	ImageFormatPNG ImageFormat = "png"
)

// MIMEType returns the data URL media type for the format.
func (f ImageFormat) MIMEType() string {
	switch f {
	case ImageFormatJPG:
		return "image/jpeg"
	case ImageFormatPNG:
		return "image/png"
	default:
		return ""
	}
}

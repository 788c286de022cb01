package canvas

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"

	"diagram_showcase/src/diagram"
	"diagram_showcase/src/model"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

const (
	nodeWidth  = 40
	nodeHeight = 24
	cellGap    = 16
)

var (
	background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	edgeColor  = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// Renderer lays nodes out on a grid and draws edges as straight lines.
type Renderer struct {
	width   int
	height  int
	quality int
}

func NewRenderer(cfg model.CanvasConfig) *Renderer {
	return &Renderer{width: cfg.Width, height: cfg.Height, quality: cfg.Quality}
}

var _ diagram.CanvasRenderer[model.Graph] = (*Renderer)(nil)

// RenderToImage returns the canvas as a data URL in the requested format.
func (r *Renderer) RenderToImage(handler diagram.CanvasHandler[model.Graph], format model.ImageFormat) (string, error) {
	if format.MIMEType() == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if r.width <= 0 || r.height <= 0 {
		return "", fmt.Errorf("invalid canvas size %dx%d", r.width, r.height)
	}

	var graph model.Graph
	if d := handler.Diagram(); d != nil {
		graph = d.Graph
	}
	img := r.draw(graph)

	var buf bytes.Buffer
	switch format {
	case model.ImageFormatJPG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
			return "", fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case model.ImageFormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("failed to encode png: %w", err)
		}
	}

	return "data:" + format.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (r *Renderer) draw(g model.Graph) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	centers := r.layout(g.Nodes)
	for _, e := range g.Edges {
		from, okFrom := centers[e.Source]
		to, okTo := centers[e.Target]
		if okFrom && okTo {
			line(img, from, to, edgeColor)
		}
	}
	for _, n := range g.Nodes {
		c := centers[n.ID]
		box := image.Rect(c.X-nodeWidth/2, c.Y-nodeHeight/2, c.X+nodeWidth/2, c.Y+nodeHeight/2)
		draw.Draw(img, box, &image.Uniform{C: typeColor(n.Type)}, image.Point{}, draw.Src)
	}
	return img
}

func (r *Renderer) layout(nodes []model.Node) map[string]image.Point {
	centers := make(map[string]image.Point, len(nodes))
	cols := (r.width - cellGap) / (nodeWidth + cellGap)
	if cols < 1 {
		cols = 1
	}
	for i, n := range nodes {
		col, row := i%cols, i/cols
		centers[n.ID] = image.Point{
			X: cellGap + col*(nodeWidth+cellGap) + nodeWidth/2,
			Y: cellGap + row*(nodeHeight+cellGap) + nodeHeight/2,
		}
	}
	return centers
}

// typeColor gives each node type a stable colour.
func typeColor(nodeType string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nodeType))
	sum := h.Sum32()
	return color.RGBA{R: uint8(sum >> 16), G: uint8(sum >> 8), B: uint8(sum), A: 0xff}
}

func line(img *image.RGBA, from, to image.Point, c color.Color) {
	dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		img.Set(from.X, from.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		img.Set(from.X+int(math.Round(dx*t)), from.Y+int(math.Round(dy*t)), c)
	}
}

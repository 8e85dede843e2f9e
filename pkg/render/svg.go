package render

import (
	"bytes"
	"fmt"
	"html"
)

// Theme holds the SVG color palette.
type Theme struct {
	Background string
	NodeFill   string
	NodeStroke string
	TaskFill   string
	TaskStroke string
	DoneFill   string
	FlowStroke string
	TextColor  string
	GridStroke string
}

// DefaultTheme is the light palette.
var DefaultTheme = Theme{
	Background: "#fafafa",
	NodeFill:   "#ffffff",
	NodeStroke: "#1a1a2e",
	TaskFill:   "#fff8e7",
	TaskStroke: "#b8860b",
	DoneFill:   "#e8f5e9",
	FlowStroke: "#4a4a6a",
	TextColor:  "#1a1a2e",
	GridStroke: "#d0d0e0",
}

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme      Theme
	satellites bool
	grid       bool
}

// WithTheme sets the color palette.
func WithTheme(t Theme) SVGOption { return func(r *svgRenderer) { r.theme = t } }

// WithSatellites draws each task's next-action slot marker.
func WithSatellites() SVGOption { return func(r *svgRenderer) { r.satellites = true } }

// WithGrid draws the matrix quadrant grid behind matrix-mode scenes.
func WithGrid() SVGOption { return func(r *svgRenderer) { r.grid = true } }

// RenderSVG renders the scene as a standalone SVG document.
func RenderSVG(s Scene, opts ...SVGOption) []byte {
	r := svgRenderer{theme: DefaultTheme}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	fmt.Fprintf(&buf, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.theme.Background)

	if r.grid && s.Mode == "matrix" {
		r.renderGrid(&buf, s)
	}

	// Flowlines first so node shapes sit on top of their endpoints.
	for _, f := range s.Flowlines {
		if f.Path == "" {
			continue
		}
		fmt.Fprintf(&buf, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			f.Path, r.theme.FlowStroke)
	}
	for _, n := range s.Nodes {
		r.renderNode(&buf, n)
	}
	for _, t := range s.Tasks {
		r.renderTask(&buf, t)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderGrid(buf *bytes.Buffer, s Scene) {
	fmt.Fprintf(buf, `<line x1="%.1f" y1="0" x2="%.1f" y2="%.1f" stroke="%s" stroke-dasharray="6 4"/>`+"\n",
		s.Width/2, s.Width/2, s.Height, r.theme.GridStroke)
	fmt.Fprintf(buf, `<line x1="0" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-dasharray="6 4"/>`+"\n",
		s.Height/2, s.Width, s.Height/2, r.theme.GridStroke)
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, n SceneNode) {
	cx := n.Rect.X + n.Rect.Width/2
	cy := n.Rect.Y + n.Rect.Height/2

	switch n.Kind {
	case "decision":
		fmt.Fprintf(buf, `<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			cx, n.Rect.Y, n.Rect.X+n.Rect.Width, cy, cx, n.Rect.Y+n.Rect.Height, n.Rect.X, cy,
			r.theme.NodeFill, r.theme.NodeStroke)
	case "terminal":
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			n.Rect.X, n.Rect.Y, n.Rect.Width, n.Rect.Height, n.Rect.Height/2,
			r.theme.NodeFill, r.theme.NodeStroke)
	default:
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			n.Rect.X, n.Rect.Y, n.Rect.Width, n.Rect.Height,
			r.theme.NodeFill, r.theme.NodeStroke)
	}

	fmt.Fprintf(buf, `<text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-size="14" fill="%s">%s</text>`+"\n",
		cx, cy, r.theme.TextColor, html.EscapeString(n.Label))
}

func (r *svgRenderer) renderTask(buf *bytes.Buffer, t SceneTask) {
	fill := r.theme.TaskFill
	if t.Completed {
		fill = r.theme.DoneFill
	}
	fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s" stroke="%s"/>`+"\n",
		t.Rect.X, t.Rect.Y, t.Rect.Width, t.Rect.Height, fill, r.theme.TaskStroke)
	fmt.Fprintf(buf, `<text x="%.1f" y="%.1f" font-size="12" fill="%s">%s</text>`+"\n",
		t.Rect.X+8, t.Rect.Y+t.Rect.Height/2+4, r.theme.TextColor, html.EscapeString(t.Label))

	if r.satellites {
		fmt.Fprintf(buf, `<circle cx="%.1f" cy="%.1f" r="6" fill="none" stroke="%s" stroke-dasharray="2 2"/>`+"\n",
			t.Satellite.X, t.Satellite.Y+t.Rect.Height/2, r.theme.TaskStroke)
	}
}

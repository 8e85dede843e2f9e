// Package flowline computes connector paths between diagram nodes.
//
// The router is a pure reader: it derives SVG path descriptions from
// endpoint positions and never writes to the position map. Paths are
// deterministic: identical inputs always produce byte-identical path
// strings, which makes redraw idempotence checkable.
package flowline

import (
	"fmt"
	"math"
	"strings"

	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/errors"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// Router computes path descriptions for flowlines.
type Router struct {
	cfg config.Flow
}

// NewRouter creates a router with the given routing constants.
func NewRouter(cfg config.Flow) *Router {
	return &Router{cfg: cfg}
}

// Endpoints are a flowline's computed attachment points on the source and
// target node borders.
type Endpoints struct {
	Source geometry.Point
	Target geometry.Point
}

// ConnectionPoints derives where a flowline touches each node: the angle
// between the rect centers is cast outward from the source rect and
// inward to the target rect, so connectors meet node borders rather than
// centers, whatever the node sizes.
func (r *Router) ConnectionPoints(source, target geometry.Rect) (Endpoints, error) {
	sc, err := geometry.RectCenter(source)
	if err != nil {
		return Endpoints{}, err
	}
	tc, err := geometry.RectCenter(target)
	if err != nil {
		return Endpoints{}, err
	}

	angle := geometry.AngleBetween(sc, tc)
	src, err := geometry.EdgePoint(source, angle)
	if err != nil {
		return Endpoints{}, err
	}
	dst, err := geometry.EdgePoint(target, angle+math.Pi)
	if err != nil {
		return Endpoints{}, err
	}
	return Endpoints{Source: src, Target: dst}, nil
}

// ComputePath returns the SVG path description for a connector from
// source to target using the given path type.
func (r *Router) ComputePath(source, target geometry.Point, pathType topology.PathType) (string, error) {
	switch pathType {
	case topology.PathStraight:
		return r.straight(source, target), nil
	case topology.PathPerpendicular:
		return r.perpendicular(source, target), nil
	case topology.PathCurved:
		return r.curved(source, target), nil
	case topology.PathBezier:
		return r.bezier(source, target), nil
	case topology.PathStepped:
		return r.stepped(source, target), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidPathType, "unknown path type %q", pathType)
	}
}

func (r *Router) straight(s, t geometry.Point) string {
	return fmt.Sprintf("M %s L %s", coord(s), coord(t))
}

// perpendicular draws a single vertical jog at the midpoint x. When a
// corner radius is configured, both corners are rounded with quadratic
// arcs; the radius is clamped to half the available run on each axis so
// short segments never fold back on themselves.
func (r *Router) perpendicular(s, t geometry.Point) string {
	dx := t.X - s.X
	dy := t.Y - s.Y
	if dx == 0 || dy == 0 {
		return r.straight(s, t)
	}

	midX := s.X + dx/2
	radius := math.Min(r.cfg.CornerRadius, math.Min(math.Abs(dx)/2, math.Abs(dy)/2))
	if radius <= 0 {
		return fmt.Sprintf("M %s L %s L %s L %s",
			coord(s),
			coord(geometry.Point{X: midX, Y: s.Y}),
			coord(geometry.Point{X: midX, Y: t.Y}),
			coord(t))
	}

	sx := math.Copysign(1, dx)
	sy := math.Copysign(1, dy) // handles target above as well as below

	var b strings.Builder
	fmt.Fprintf(&b, "M %s", coord(s))
	fmt.Fprintf(&b, " L %s", coord(geometry.Point{X: midX - sx*radius, Y: s.Y}))
	fmt.Fprintf(&b, " Q %s %s",
		coord(geometry.Point{X: midX, Y: s.Y}),
		coord(geometry.Point{X: midX, Y: s.Y + sy*radius}))
	fmt.Fprintf(&b, " L %s", coord(geometry.Point{X: midX, Y: t.Y - sy*radius}))
	fmt.Fprintf(&b, " Q %s %s",
		coord(geometry.Point{X: midX, Y: t.Y}),
		coord(geometry.Point{X: midX + sx*radius, Y: t.Y}))
	fmt.Fprintf(&b, " L %s", coord(t))
	return b.String()
}

// curved draws a quadratic curve with its control point at the segment
// midpoint, offset vertically by the configured curvature (negative bias
// curves upward).
func (r *Router) curved(s, t geometry.Point) string {
	ctrl := geometry.Point{
		X: (s.X + t.X) / 2,
		Y: (s.Y+t.Y)/2 + r.cfg.Curvature,
	}
	return fmt.Sprintf("M %s Q %s %s", coord(s), coord(ctrl), coord(t))
}

// bezier draws a cubic S-curve with control points at a third and two
// thirds of the horizontal run.
func (r *Router) bezier(s, t geometry.Point) string {
	dx := t.X - s.X
	c1 := geometry.Point{X: s.X + dx/3, Y: s.Y}
	c2 := geometry.Point{X: s.X + 2*dx/3, Y: t.Y}
	return fmt.Sprintf("M %s C %s %s %s", coord(s), coord(c1), coord(c2), coord(t))
}

// stepped subdivides the segment into fixed-size steps with a small
// alternating lateral jitter. The effect is cosmetic only: the jitter
// pattern is a pure function of the endpoints, never random.
func (r *Router) stepped(s, t geometry.Point) string {
	dx := t.X - s.X
	dy := t.Y - s.Y
	span := math.Max(math.Abs(dx), math.Abs(dy))

	steps := int(math.Floor(span / r.cfg.StepSize))
	if steps < 1 {
		return r.straight(s, t)
	}

	// Jitter perpendicular to the dominant axis flips sign per step.
	horizontal := math.Abs(dx) >= math.Abs(dy)

	var b strings.Builder
	fmt.Fprintf(&b, "M %s", coord(s))
	for i := 1; i < steps; i++ {
		f := float64(i) / float64(steps)
		p := geometry.Point{X: s.X + dx*f, Y: s.Y + dy*f}
		jitter := r.cfg.StepJitter
		if i%2 == 0 {
			jitter = -jitter
		}
		if horizontal {
			p.Y += jitter
		} else {
			p.X += jitter
		}
		fmt.Fprintf(&b, " L %s", coord(p))
	}
	fmt.Fprintf(&b, " L %s", coord(t))
	return b.String()
}

// coord formats a point with one decimal place. Fixed precision keeps
// path strings byte-stable across recomputes.
func coord(p geometry.Point) string {
	return fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
}

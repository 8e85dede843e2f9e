// Package geometry provides the pure coordinate math used by the layout
// and flowline engines.
//
// Three coordinate spaces are involved:
//
//   - screen space: what the render surface reports (pan applied)
//   - canvas space: logical element positions, independent of panning
//   - quadrant space: positions relative to a matrix quadrant origin
//
// All functions are pure: they read nothing but their arguments and keep
// no state between calls. Angles are radians, normalized to [0, 2π).
package geometry

import (
	"math"

	"github.com/flowboardhq/flowboard/pkg/errors"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns the component-wise sum of two points.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the component-wise difference of two points.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// IsDegenerate reports whether the rect has zero or negative area.
func (r Rect) IsDegenerate() bool { return r.Width <= 0 || r.Height <= 0 }

// ScreenToCanvas converts a screen-space point to canvas space by
// re-applying the canvas pan offset.
func ScreenToCanvas(p, panOffset Point) Point { return p.Add(panOffset) }

// CanvasToScreen converts a canvas-space point to screen space by
// removing the canvas pan offset.
func CanvasToScreen(p, panOffset Point) Point { return p.Sub(panOffset) }

// RectCenter returns the center point of the rect.
// Returns an INVALID_GEOMETRY error for zero-area rects.
func RectCenter(r Rect) (Point, error) {
	if r.IsDegenerate() {
		return Point{}, errors.New(errors.ErrCodeInvalidGeometry,
			"degenerate rect %.1fx%.1f has no center", r.Width, r.Height)
	}
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}, nil
}

// NormalizeAngle maps an angle in radians to the range [0, 2π).
// Returns an INVALID_GEOMETRY error for NaN or infinite input.
func NormalizeAngle(a float64) (float64, error) {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, errors.New(errors.ErrCodeInvalidGeometry, "angle is not finite")
	}
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a, nil
}

// AngleBetween returns the angle of the ray from p to q, normalized
// to [0, 2π). Coincident points yield angle 0.
func AngleBetween(p, q Point) float64 {
	a, _ := NormalizeAngle(math.Atan2(q.Y-p.Y, q.X-p.X))
	return a
}

// EdgePoint returns the point where a ray cast from the rect's center at
// the given angle crosses the rect boundary. Connectors use this so they
// touch node borders instead of centers, regardless of node size.
//
// Returns an INVALID_GEOMETRY error for zero-area rects or non-finite
// angles.
func EdgePoint(r Rect, angle float64) (Point, error) {
	center, err := RectCenter(r)
	if err != nil {
		return Point{}, err
	}
	angle, err = NormalizeAngle(angle)
	if err != nil {
		return Point{}, err
	}

	dx := math.Cos(angle)
	dy := math.Sin(angle)

	// Distance along the ray to the vertical and horizontal boundary pair.
	// The nearer crossing is the edge point.
	t := math.Inf(1)
	if dx != 0 {
		t = (r.Width / 2) / math.Abs(dx)
	}
	if dy != 0 {
		if ty := (r.Height / 2) / math.Abs(dy); ty < t {
			t = ty
		}
	}

	return Point{X: center.X + t*dx, Y: center.Y + t*dy}, nil
}

// RectsOverlap reports whether the two rects intersect. Rects that only
// share an edge are not considered overlapping.
func RectsOverlap(a, b Rect) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

// Clamp restricts v to the inclusive range [lo, hi]. If hi < lo the lower
// bound wins, which collapses impossible ranges to a single coordinate.
func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

package flowline

import (
	"strings"
	"testing"

	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/errors"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

func testRouter() *Router {
	return NewRouter(config.Flow{
		CornerRadius: 12,
		Curvature:    -40,
		StepSize:     24,
		StepJitter:   4,
	})
}

func TestComputePathShapes(t *testing.T) {
	r := testRouter()
	s := geometry.Point{X: 0, Y: 0}
	d := geometry.Point{X: 100, Y: 60}

	tests := []struct {
		name     string
		pathType topology.PathType
		want     string
	}{
		{name: "Straight", pathType: topology.PathStraight, want: "M 0.0,0.0 L 100.0,60.0"},
		{
			name:     "Perpendicular",
			pathType: topology.PathPerpendicular,
			want:     "M 0.0,0.0 L 38.0,0.0 Q 50.0,0.0 50.0,12.0 L 50.0,48.0 Q 50.0,60.0 62.0,60.0 L 100.0,60.0",
		},
		{name: "Curved", pathType: topology.PathCurved, want: "M 0.0,0.0 Q 50.0,-10.0 100.0,60.0"},
		{
			name:     "Bezier",
			pathType: topology.PathBezier,
			want:     "M 0.0,0.0 C 33.3,0.0 66.7,60.0 100.0,60.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ComputePath(s, d, tt.pathType)
			if err != nil {
				t.Fatalf("ComputePath: %v", err)
			}
			if got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComputePathUnknownType(t *testing.T) {
	r := testRouter()
	_, err := r.ComputePath(geometry.Point{}, geometry.Point{X: 1}, "zigzag")
	if !errors.Is(err, errors.ErrCodeInvalidPathType) {
		t.Fatalf("err = %v, want INVALID_PATH_TYPE", err)
	}
}

// Path idempotence: identical inputs yield byte-identical strings.
func TestComputePathIdempotent(t *testing.T) {
	r := testRouter()
	s := geometry.Point{X: 13.37, Y: -8.5}
	d := geometry.Point{X: 411.11, Y: 302.02}

	for _, pt := range []topology.PathType{
		topology.PathStraight,
		topology.PathPerpendicular,
		topology.PathCurved,
		topology.PathBezier,
		topology.PathStepped,
	} {
		t.Run(string(pt), func(t *testing.T) {
			first, err := r.ComputePath(s, d, pt)
			if err != nil {
				t.Fatalf("ComputePath: %v", err)
			}
			second, err := r.ComputePath(s, d, pt)
			if err != nil {
				t.Fatalf("ComputePath: %v", err)
			}
			if first != second {
				t.Errorf("recompute differs:\n first %q\nsecond %q", first, second)
			}
		})
	}
}

func TestPerpendicularDirectionAware(t *testing.T) {
	r := testRouter()

	// Target above the source bends the jog upward.
	up, err := r.ComputePath(geometry.Point{X: 0, Y: 100}, geometry.Point{X: 100, Y: 0}, topology.PathPerpendicular)
	if err != nil {
		t.Fatalf("ComputePath: %v", err)
	}
	if !strings.Contains(up, "50.0,88.0") {
		t.Errorf("upward jog should round toward smaller y, got %q", up)
	}

	// Degenerate vertical run degrades to a straight line.
	flat, err := r.ComputePath(geometry.Point{X: 0, Y: 50}, geometry.Point{X: 100, Y: 50}, topology.PathPerpendicular)
	if err != nil {
		t.Fatalf("ComputePath: %v", err)
	}
	if flat != "M 0.0,50.0 L 100.0,50.0" {
		t.Errorf("flat perpendicular = %q, want straight", flat)
	}
}

func TestPerpendicularRadiusClamp(t *testing.T) {
	// A tiny segment clamps the radius to half the run instead of
	// overshooting.
	r := NewRouter(config.Flow{CornerRadius: 50, StepSize: 24})
	got, err := r.ComputePath(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 10, Y: 10}, topology.PathPerpendicular)
	if err != nil {
		t.Fatalf("ComputePath: %v", err)
	}
	// Clamped radius is min(50, 5, 5) = 5.
	want := "M 0.0,0.0 L 0.0,0.0 Q 5.0,0.0 5.0,5.0 L 5.0,5.0 Q 5.0,10.0 10.0,10.0 L 10.0,10.0"
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestSteppedSubdivision(t *testing.T) {
	r := testRouter()
	got, err := r.ComputePath(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 120, Y: 0}, topology.PathStepped)
	if err != nil {
		t.Fatalf("ComputePath: %v", err)
	}

	// span 120 / step 24 = 5 steps → 4 interior points with alternating
	// jitter, then the exact endpoint.
	segments := strings.Count(got, "L")
	if segments != 5 {
		t.Errorf("stepped path has %d segments, want 5: %q", segments, got)
	}
	if !strings.HasSuffix(got, "L 120.0,0.0") {
		t.Errorf("stepped path must end exactly at the target: %q", got)
	}
	if !strings.Contains(got, "24.0,4.0") || !strings.Contains(got, "48.0,-4.0") {
		t.Errorf("expected alternating jitter, got %q", got)
	}
}

func TestSteppedShortSegmentFallsBack(t *testing.T) {
	r := testRouter()
	got, err := r.ComputePath(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 5, Y: 5}, topology.PathStepped)
	if err != nil {
		t.Fatalf("ComputePath: %v", err)
	}
	if got != "M 0.0,0.0 L 5.0,5.0" {
		t.Errorf("short stepped = %q, want straight fallback", got)
	}
}

func TestConnectionPoints(t *testing.T) {
	r := testRouter()
	source := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 50}
	target := geometry.Rect{X: 300, Y: 0, Width: 100, Height: 50}

	eps, err := r.ConnectionPoints(source, target)
	if err != nil {
		t.Fatalf("ConnectionPoints: %v", err)
	}

	// Horizontally aligned rects attach at facing border midpoints.
	if eps.Source != (geometry.Point{X: 100, Y: 25}) {
		t.Errorf("Source = %+v, want {100 25}", eps.Source)
	}
	if eps.Target != (geometry.Point{X: 300, Y: 25}) {
		t.Errorf("Target = %+v, want {300 25}", eps.Target)
	}
}

func TestConnectionPointsScaleWithNodeSize(t *testing.T) {
	r := testRouter()
	small := geometry.Rect{X: 0, Y: 0, Width: 40, Height: 40}
	big := geometry.Rect{X: 200, Y: -80, Width: 300, Height: 200}

	eps, err := r.ConnectionPoints(small, big)
	if err != nil {
		t.Fatalf("ConnectionPoints: %v", err)
	}

	onBorder := func(p geometry.Point, rect geometry.Rect) bool {
		const tol = 1e-9
		onX := p.X >= rect.X-tol && p.X <= rect.X+rect.Width+tol
		onY := p.Y >= rect.Y-tol && p.Y <= rect.Y+rect.Height+tol
		edgeX := p.X-rect.X < tol || rect.X+rect.Width-p.X < tol
		edgeY := p.Y-rect.Y < tol || rect.Y+rect.Height-p.Y < tol
		return onX && onY && (edgeX || edgeY)
	}
	if !onBorder(eps.Source, small) {
		t.Errorf("Source %+v not on source border", eps.Source)
	}
	if !onBorder(eps.Target, big) {
		t.Errorf("Target %+v not on target border", eps.Target)
	}
}

func TestConnectionPointsDegenerateRect(t *testing.T) {
	r := testRouter()
	_, err := r.ConnectionPoints(geometry.Rect{}, geometry.Rect{X: 10, Y: 10, Width: 5, Height: 5})
	if !errors.Is(err, errors.ErrCodeInvalidGeometry) {
		t.Fatalf("err = %v, want INVALID_GEOMETRY", err)
	}
}

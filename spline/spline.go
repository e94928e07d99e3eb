// Package spline implements the response curves applied to axis values,
// cubic natural splines and piecewise cubic bezier curves over control
// points in [-1, 1] x [-1, 1].
package spline

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Point is a single control point of a curve.
type Point struct {
	X float64
	Y float64
}

// Curve evaluates a response curve at a position in [-1, 1].
type Curve interface {
	At(x float64) float64
}

// Identity is the no-op response curve.
type Identity struct{}

// At returns x unchanged.
func (Identity) At(x float64) float64 { return x }

// Cubic is a natural cubic spline through a set of control points.
type Cubic struct {
	points []Point
	// second derivatives at each knot, from the natural spline system
	z []float64
}

// NewCubic creates a natural cubic spline through the given control
// points. At least two points are required.
func NewCubic(points []Point) (*Cubic, error) {
	if len(points) < 2 {
		return nil, errors.Errorf("cubic spline requires at least 2 control points, got %d", len(points))
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	n := len(pts)
	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = pts[i+1].X - pts[i].X
		if h[i] <= 0 {
			return nil, errors.New("cubic spline control points must have distinct x values")
		}
	}

	z := make([]float64, n)
	if n > 2 {
		// Solve the tridiagonal system for the interior second
		// derivatives, natural boundary conditions pin the ends to 0.
		m := n - 2
		a := mat.NewDense(m, m, nil)
		b := mat.NewVecDense(m, nil)
		for i := 0; i < m; i++ {
			a.Set(i, i, 2*(h[i]+h[i+1]))
			if i > 0 {
				a.Set(i, i-1, h[i])
			}
			if i < m-1 {
				a.Set(i, i+1, h[i+1])
			}
			d0 := (pts[i+1].Y - pts[i].Y) / h[i]
			d1 := (pts[i+2].Y - pts[i+1].Y) / h[i+1]
			b.SetVec(i, 6*(d1-d0))
		}
		var x mat.VecDense
		if err := x.SolveVec(a, b); err != nil {
			return nil, errors.Wrap(err, "failed to solve spline system")
		}
		for i := 0; i < m; i++ {
			z[i+1] = x.AtVec(i)
		}
	}

	return &Cubic{points: pts, z: z}, nil
}

// At evaluates the spline. Positions outside the control point range are
// evaluated on the terminal segments.
func (s *Cubic) At(x float64) float64 {
	pts := s.points
	n := len(pts)
	i := sort.Search(n, func(k int) bool { return pts[k].X > x }) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}

	h := pts[i+1].X - pts[i].X
	t0 := pts[i+1].X - x
	t1 := x - pts[i].X
	return s.z[i]*t0*t0*t0/(6*h) +
		s.z[i+1]*t1*t1*t1/(6*h) +
		(pts[i+1].Y/h-s.z[i+1]*h/6)*t1 +
		(pts[i].Y/h-s.z[i]*h/6)*t0
}

// CubicBezier is a piecewise cubic bezier curve. The control point list
// alternates knots and handles, knot, handle, handle, knot, ... and must
// therefore contain 3k+1 points.
type CubicBezier struct {
	points []Point
}

// NewCubicBezier creates a piecewise cubic bezier curve from the given
// control point sequence.
func NewCubicBezier(points []Point) (*CubicBezier, error) {
	if len(points) < 4 || (len(points)-1)%3 != 0 {
		return nil, errors.Errorf("cubic bezier spline requires 3k+1 control points, got %d", len(points))
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	return &CubicBezier{points: pts}, nil
}

// At evaluates the curve. The x position is resolved to a segment by the
// knot x values and the segment is evaluated at the matching parameter.
func (s *CubicBezier) At(x float64) float64 {
	pts := s.points
	last := len(pts) - 1
	if x <= pts[0].X {
		return pts[0].Y
	}
	if x >= pts[last].X {
		return pts[last].Y
	}

	// locate the segment whose knots bracket x
	seg := 0
	for i := 3; i <= last; i += 3 {
		if x <= pts[i].X {
			seg = i - 3
			break
		}
	}

	p0, p1, p2, p3 := pts[seg], pts[seg+1], pts[seg+2], pts[seg+3]
	t := (x - p0.X) / (p3.X - p0.X)
	u := 1 - t
	return u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y
}

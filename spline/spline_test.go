package spline

import (
	"testing"

	"go.viam.com/test"
)

func TestCubicValidation(t *testing.T) {
	_, err := NewCubic(nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewCubic([]Point{{0, 0}})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewCubic([]Point{{0, 0}, {0, 1}})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCubicInterpolation(t *testing.T) {
	// two points degenerate to a straight line
	s, err := NewCubic([]Point{{-1, -1}, {1, 1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.At(-1), test.ShouldAlmostEqual, -1)
	test.That(t, s.At(0), test.ShouldAlmostEqual, 0)
	test.That(t, s.At(0.5), test.ShouldAlmostEqual, 0.5)
	test.That(t, s.At(1), test.ShouldAlmostEqual, 1)

	// spline passes through all knots
	points := []Point{{-1, -1}, {-0.5, -0.9}, {0, 0}, {0.5, 0.9}, {1, 1}}
	s, err = NewCubic(points)
	test.That(t, err, test.ShouldBeNil)
	for _, p := range points {
		test.That(t, s.At(p.X), test.ShouldAlmostEqual, p.Y, 1e-9)
	}

	// unsorted input is accepted
	s2, err := NewCubic([]Point{{1, 1}, {-1, -1}, {0, 0}, {0.5, 0.9}, {-0.5, -0.9}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s2.At(0.25), test.ShouldAlmostEqual, s.At(0.25), 1e-9)
}

func TestCubicBezier(t *testing.T) {
	_, err := NewCubicBezier([]Point{{0, 0}, {1, 1}})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewCubicBezier([]Point{{0, 0}, {0, 0}, {1, 1}, {1, 1}, {1, 1}})
	test.That(t, err, test.ShouldNotBeNil)

	// symmetric handles around a straight diagonal stay on the diagonal ends
	s, err := NewCubicBezier([]Point{{-1, -1}, {-0.5, -0.5}, {0.5, 0.5}, {1, 1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.At(-1), test.ShouldAlmostEqual, -1)
	test.That(t, s.At(1), test.ShouldAlmostEqual, 1)
	test.That(t, s.At(0), test.ShouldAlmostEqual, 0, 1e-9)

	// outside the knot range the curve clamps to the terminal values
	test.That(t, s.At(-2), test.ShouldAlmostEqual, -1)
	test.That(t, s.At(2), test.ShouldAlmostEqual, 1)
}

func TestIdentity(t *testing.T) {
	var id Identity
	test.That(t, id.At(0.3), test.ShouldEqual, 0.3)
}

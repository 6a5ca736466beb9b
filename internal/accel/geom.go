package accel

import "math"

// Point is a position in whichever space the caller is working in
// (screen, element or stroke-local).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Affine is a 2D affine transformation in row-major 2x3 form:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Affine { return Affine{A: 1, E: 1} }

// Translate returns a translation by (x, y).
func Translate(x, y float64) Affine { return Affine{A: 1, C: x, E: 1, F: y} }

// Scale returns a scale by (sx, sy) about the origin.
func Scale(sx, sy float64) Affine { return Affine{A: sx, E: sy} }

// Rotate returns a rotation by angle radians about the origin. With y
// pointing down a positive angle turns clockwise on screen.
func Rotate(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	return Affine{A: cos, B: -sin, D: sin, E: cos}
}

// Apply maps p through m.
func (m Affine) Apply(p Point) Point {
	return Point{X: m.A*p.X + m.B*p.Y + m.C, Y: m.D*p.X + m.E*p.Y + m.F}
}

// Multiply returns m*n, i.e. n is applied first and m second.
func (m Affine) Multiply(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.B*n.D,
		B: m.A*n.B + m.B*n.E,
		C: m.A*n.C + m.B*n.F + m.C,
		D: m.D*n.A + m.E*n.D,
		E: m.D*n.B + m.E*n.E,
		F: m.D*n.C + m.E*n.F + m.F,
	}
}

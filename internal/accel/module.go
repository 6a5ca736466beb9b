package accel

import "math"

// Module is the numeric routine set every geometric component delegates to.
// Implementations must be pure: no I/O, no retained state between calls, and
// safe to call from the UI goroutine inside a single frame.
type Module interface {
	// Name identifies the implementation in logs.
	Name() string

	// Transform applies m to p.
	Transform(m Affine, p Point) Point
	// TransformBatch applies m to every point of src and appends the results
	// to dst[:0], growing it when needed.
	TransformBatch(m Affine, src, dst []Point) []Point
	// Invert returns the inverse of m. ok is false when m is singular.
	Invert(m Affine) (inv Affine, ok bool)

	// CatmullRom resamples pts with a cardinal spline. Each segment yields
	// segments sub-points; the result passes through the first and last input
	// points exactly.
	CatmullRom(pts []Point, segments int, tension float64) []Point
	// Bounds returns the bounding box of pts.
	Bounds(pts []Point) Rect
	// Snap rounds v to the nearest multiple of grid. grid <= 0 disables it.
	Snap(v, grid float64) float64
	// Length returns the arc length of the polyline pts.
	Length(pts []Point) float64
	// Subdivide appends points from a to b (a included, b excluded) spaced at
	// most step apart.
	Subdivide(a, b Point, step float64, dst []Point) []Point

	// RectsOverlap reports whether a and b share interior area.
	RectsOverlap(a, b Rect) bool
	// OverlapsAny reports whether r overlaps any box.
	OverlapsAny(r Rect, boxes []Rect) bool
	// AnyWithinRadius reports whether any offset+pts[i] lies within radius of
	// center.
	AnyWithinRadius(offset Point, pts []Point, center Point, radius float64) bool
	// AnySegmentWithinRadius is AnyWithinRadius using the distance to each
	// polyline segment instead of each vertex.
	AnySegmentWithinRadius(offset Point, pts []Point, center Point, radius float64) bool

	// SearchZone looks for a w*h box inside zone that overlaps none of boxes.
	// The zone anchor (box centred in the zone) is tried first, then up to
	// attempts candidates drawn from seq. Candidates are snapped to grid.
	SearchZone(zone Rect, w, h float64, boxes []Rect, grid float64, seq *Sequence, attempts int) (Point, bool)
	// Scatter appends count points drawn uniformly from the disc of the given
	// radius around center.
	Scatter(center Point, radius float64, count int, seq *Sequence, dst []Point) []Point
	// Ellipse approximates the ellipse inscribed in r with n vertices.
	Ellipse(r Rect, n int) []Point
}

// native is the built-in pure Go implementation.
type native struct{}

// NewNative returns the built-in implementation of Module.
func NewNative() Module { return native{} }

func (native) Name() string { return "native" }

func (native) Transform(m Affine, p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

func (n native) TransformBatch(m Affine, src, dst []Point) []Point {
	dst = dst[:0]
	if cap(dst) < len(src) {
		dst = make([]Point, 0, len(src))
	}
	for _, p := range src {
		dst = append(dst, Point{
			X: m.A*p.X + m.B*p.Y + m.C,
			Y: m.D*p.X + m.E*p.Y + m.F,
		})
	}
	return dst
}

func (native) Invert(m Affine) (Affine, bool) {
	det := m.A*m.E - m.B*m.D
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Affine{}, false
	}
	inv := 1 / det
	return Affine{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.E*m.C) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.D*m.C - m.A*m.F) * inv,
	}, true
}

func (native) CatmullRom(pts []Point, segments int, tension float64) []Point {
	if len(pts) < 2 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}
	if segments < 1 {
		segments = 1
	}
	tension = clamp(tension, 0, 1)

	out := make([]Point, 0, (len(pts)-1)*segments+1)
	last := len(pts) - 1
	for i := 0; i < last; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, last)]

		m1x, m1y := tension*(p2.X-p0.X), tension*(p2.Y-p0.Y)
		m2x, m2y := tension*(p3.X-p1.X), tension*(p3.Y-p1.Y)

		out = append(out, p1)
		for s := 1; s < segments; s++ {
			t := float64(s) / float64(segments)
			t2 := t * t
			t3 := t2 * t
			h00 := 2*t3 - 3*t2 + 1
			h10 := t3 - 2*t2 + t
			h01 := -2*t3 + 3*t2
			h11 := t3 - t2
			out = append(out, Point{
				X: h00*p1.X + h10*m1x + h01*p2.X + h11*m2x,
				Y: h00*p1.Y + h10*m1y + h01*p2.Y + h11*m2y,
			})
		}
	}
	return append(out, pts[last])
}

func (native) Bounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (native) Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

func (native) Length(pts []Point) float64 {
	var l float64
	for i := 1; i < len(pts); i++ {
		l += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return l
}

func (native) Subdivide(a, b Point, step float64, dst []Point) []Point {
	d := math.Hypot(b.X-a.X, b.Y-a.Y)
	if step <= 0 || d <= step {
		return append(dst, a)
	}
	n := int(math.Ceil(d / step))
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		dst = append(dst, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
	}
	return dst
}

func (native) RectsOverlap(a, b Rect) bool {
	return a.X < b.Right() && b.X < a.Right() &&
		a.Y < b.Bottom() && b.Y < a.Bottom()
}

func (n native) OverlapsAny(r Rect, boxes []Rect) bool {
	for _, b := range boxes {
		if n.RectsOverlap(r, b) {
			return true
		}
	}
	return false
}

func (native) AnyWithinRadius(offset Point, pts []Point, center Point, radius float64) bool {
	r2 := radius * radius
	for _, p := range pts {
		dx := offset.X + p.X - center.X
		dy := offset.Y + p.Y - center.Y
		if dx*dx+dy*dy <= r2 {
			return true
		}
	}
	return false
}

func (n native) AnySegmentWithinRadius(offset Point, pts []Point, center Point, radius float64) bool {
	if len(pts) < 2 {
		return n.AnyWithinRadius(offset, pts, center, radius)
	}
	c := center.Sub(offset)
	r2 := radius * radius
	for i := 1; i < len(pts); i++ {
		if segmentDist2(pts[i-1], pts[i], c) <= r2 {
			return true
		}
	}
	return false
}

// segmentDist2 is the squared distance from p to the segment ab.
func segmentDist2(a, b, p Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	l2 := abx*abx + aby*aby
	t := 0.0
	if l2 > 0 {
		t = clamp(((p.X-a.X)*abx+(p.Y-a.Y)*aby)/l2, 0, 1)
	}
	dx := a.X + t*abx - p.X
	dy := a.Y + t*aby - p.Y
	return dx*dx + dy*dy
}

func (n native) SearchZone(zone Rect, w, h float64, boxes []Rect, grid float64, seq *Sequence, attempts int) (Point, bool) {
	if w > zone.Width || h > zone.Height {
		return Point{}, false
	}
	maxX := zone.Right() - w
	maxY := zone.Bottom() - h

	place := func(x, y float64) (Point, bool) {
		x = clamp(n.Snap(x, grid), zone.X, maxX)
		y = clamp(n.Snap(y, grid), zone.Y, maxY)
		if n.OverlapsAny(Rect{X: x, Y: y, Width: w, Height: h}, boxes) {
			return Point{}, false
		}
		return Point{X: x, Y: y}, true
	}

	if p, ok := place(zone.X+(zone.Width-w)/2, zone.Y+(zone.Height-h)/2); ok {
		return p, true
	}
	for i := 0; i < attempts; i++ {
		x := seq.Range(zone.X, maxX)
		y := seq.Range(zone.Y, maxY)
		if p, ok := place(x, y); ok {
			return p, true
		}
	}
	return Point{}, false
}

func (native) Scatter(center Point, radius float64, count int, seq *Sequence, dst []Point) []Point {
	for i := 0; i < count; i++ {
		a := seq.Float64() * 2 * math.Pi
		r := radius * math.Sqrt(seq.Float64())
		dst = append(dst, Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return dst
}

func (native) Ellipse(r Rect, n int) []Point {
	if n < 3 {
		n = 3
	}
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	rx, ry := r.Width/2, r.Height/2
	pts := make([]Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}
	}
	return pts
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

package render

import (
	"math"
	"sort"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/state"
)

// ellipseVertices is the polygon resolution used for ellipse shapes.
const ellipseVertices = 64

// Layers merges elements of every kind into one draw sequence ordered by
// rank alone.
type Layers struct {
	m       accel.Module
	brushes *Brushes

	order []int
	local []accel.Point
}

// NewLayers returns a scene compositor painting strokes with brushes.
func NewLayers(m accel.Module, brushes *Brushes) *Layers {
	return &Layers{m: m, brushes: brushes}
}

// Draw sorts elements by rank, ties kept in slice order, and returns their
// primitives in that single sequence. Element kind never affects the order.
func (l *Layers) Draw(elements []state.Element) []Primitive {
	l.order = l.order[:0]
	for i := range elements {
		l.order = append(l.order, i)
	}
	sort.SliceStable(l.order, func(a, b int) bool {
		return elements[l.order[a]].Rank < elements[l.order[b]].Rank
	})

	var out []Primitive
	for _, i := range l.order {
		out = l.Element(out, &elements[i])
	}
	return out
}

// Element appends the primitives of a single element to dst.
func (l *Layers) Element(dst []Primitive, e *state.Element) []Primitive {
	xf := ElementTransform(e)
	switch e.Kind {
	case state.KindStroke:
		if e.Stroke == nil {
			return dst
		}
		l.local = e.Stroke.Positions(l.local)
		abs := l.m.TransformBatch(xf.Multiply(accel.Translate(e.X, e.Y)), l.local, nil)
		return append(dst, l.brushes.Render(e.ID, abs, l.brushes.ConfigFor(e))...)

	case state.KindText:
		if e.Text == nil {
			return dst
		}
		return append(dst, Primitive{
			Owner:     e.ID,
			Op:        OpText,
			Bounds:    e.Bounds(),
			Transform: xf,
			Text:      e.Text.Content,
			FontSize:  e.Text.FontSize,
			Color:     ParseColor(e.Text.Color),
			Opacity:   e.Opacity,
		})

	case state.KindImage:
		if e.Image == nil {
			return dst
		}
		return append(dst, Primitive{
			Owner:     e.ID,
			Op:        OpImage,
			Bounds:    e.Bounds(),
			Transform: xf,
			Source:    e.Image.Source,
			Opacity:   e.Opacity,
		})

	case state.KindShape:
		if e.Shape == nil {
			return dst
		}
		return l.shape(dst, e, xf)
	}
	return dst
}

func (l *Layers) shape(dst []Primitive, e *state.Element, xf accel.Affine) []Primitive {
	s := e.Shape
	var outline []accel.Point
	if s.Shape == state.ShapeEllipse {
		outline = l.m.Ellipse(e.Bounds(), ellipseVertices)
	} else {
		r := e.Bounds()
		outline = []accel.Point{
			{X: r.X, Y: r.Y}, {X: r.Right(), Y: r.Y},
			{X: r.Right(), Y: r.Bottom()}, {X: r.X, Y: r.Bottom()},
		}
	}
	outline = l.m.TransformBatch(xf, outline, outline)

	if s.Fill != "" {
		dst = append(dst, Primitive{
			Owner:   e.ID,
			Op:      OpFillPath,
			Points:  outline,
			Closed:  true,
			Color:   ParseColor(s.Fill),
			Opacity: e.Opacity,
		})
	}
	if s.Stroke != "" && s.StrokeWidth > 0 {
		p := Primitive{
			Owner:   e.ID,
			Op:      OpStrokePath,
			Points:  outline,
			Closed:  true,
			Width:   s.StrokeWidth,
			Color:   ParseColor(s.Stroke),
			Opacity: e.Opacity,
		}
		if len(s.Dash) > 0 {
			p.Op = OpDashedPath
			p.Dash = append([]float64(nil), s.Dash...)
		}
		dst = append(dst, p)
	}
	return dst
}

// ElementTransform returns the affine that applies an element's rotation
// and flips about its centre. Identity for an unrotated, unflipped element.
func ElementTransform(e *state.Element) accel.Affine {
	if e.Rotation == 0 && !e.FlipX && !e.FlipY {
		return accel.Identity()
	}
	cx, cy := e.X+e.Width/2, e.Y+e.Height/2
	sx, sy := 1.0, 1.0
	if e.FlipX {
		sx = -1
	}
	if e.FlipY {
		sy = -1
	}
	return accel.Translate(cx, cy).
		Multiply(accel.Rotate(e.Rotation * math.Pi / 180)).
		Multiply(accel.Scale(sx, sy)).
		Multiply(accel.Translate(-cx, -cy))
}

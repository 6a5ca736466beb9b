package state

import (
	"PlateStudio/internal/accel"
)

// Kind tags the payload an Element carries.
type Kind string

const (
	KindStroke Kind = "stroke"
	KindText   Kind = "text"
	KindImage  Kind = "image"
	KindShape  Kind = "shape"
)

// BrushKind selects how a stroke is painted.
type BrushKind string

const (
	BrushSolid    BrushKind = "solid"
	BrushDiffused BrushKind = "diffused"
	BrushSpeckled BrushKind = "speckled"
)

// ShapeKind is the outline of a shape element.
type ShapeKind string

const (
	ShapeRect    ShapeKind = "rect"
	ShapeEllipse ShapeKind = "ellipse"
)

// StrokePoint is one sample of a paint stroke, relative to the stroke's own
// bounding-box origin.
type StrokePoint struct {
	accel.Point
	Pressure float64 `json:"pressure,omitempty"`
	T        int64   `json:"t"` // capture time, ms since the stroke began
}

// StrokeData is the payload of a freehand paint stroke.
type StrokeData struct {
	Points    []StrokePoint `json:"points"`
	Brush     BrushKind     `json:"brush"`
	Color     string        `json:"color"`
	Thickness float64       `json:"thickness"`
}

// Positions appends the local coordinates of every point to dst[:0].
func (s *StrokeData) Positions(dst []accel.Point) []accel.Point {
	dst = dst[:0]
	for _, p := range s.Points {
		dst = append(dst, p.Point)
	}
	return dst
}

// TextData is the payload of a text element.
type TextData struct {
	Content  string  `json:"content"`
	FontSize float64 `json:"font_size"`
	Color    string  `json:"color"`
}

// ImageData is the payload of an image element. Source is an opaque asset
// reference resolved by the rendering backend.
type ImageData struct {
	Source string `json:"source"`
}

// ShapeData is the payload of a geometric shape.
type ShapeData struct {
	Shape       ShapeKind `json:"shape"`
	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"stroke_width,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`
}

// Element is anything placed on the design surface. Exactly one payload
// matching Kind is set.
type Element struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rank     int     `json:"rank"`
	Rotation float64 `json:"rotation"` // degrees, about the element centre
	Opacity  float64 `json:"opacity"`
	FlipX    bool    `json:"flip_x"`
	FlipY    bool    `json:"flip_y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`

	Stroke *StrokeData `json:"stroke,omitempty"`
	Text   *TextData   `json:"text,omitempty"`
	Image  *ImageData  `json:"image,omitempty"`
	Shape  *ShapeData  `json:"shape,omitempty"`
}

// Position returns the element origin.
func (e *Element) Position() accel.Point { return accel.Pt(e.X, e.Y) }

// Bounds returns the unrotated bounding box of the element.
func (e *Element) Bounds() accel.Rect {
	return accel.Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// Valid reports whether the payload matches the kind tag.
func (e *Element) Valid() bool {
	switch e.Kind {
	case KindStroke:
		return e.Stroke != nil && len(e.Stroke.Points) > 0
	case KindText:
		return e.Text != nil
	case KindImage:
		return e.Image != nil
	case KindShape:
		return e.Shape != nil
	}
	return false
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	if e.Stroke != nil {
		s := *e.Stroke
		s.Points = append([]StrokePoint(nil), e.Stroke.Points...)
		e.Stroke = &s
	}
	if e.Text != nil {
		t := *e.Text
		e.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		e.Image = &i
	}
	if e.Shape != nil {
		s := *e.Shape
		s.Dash = append([]float64(nil), e.Shape.Dash...)
		e.Shape = &s
	}
	return e
}

// CloneAll deep-copies a list of elements.
func CloneAll(els []Element) []Element {
	out := make([]Element, len(els))
	for i := range els {
		out[i] = els[i].Clone()
	}
	return out
}

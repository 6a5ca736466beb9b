// Package render turns scene elements into a flat list of abstract draw
// primitives for a retained-mode backend.
//
// Primitives are never nested. Every primitive carries the ID of the element
// that produced it, so grouping is by data and a mask primitive appended to
// the list is always a direct sibling of what it clips.
package render

import (
	"image/color"

	"PlateStudio/internal/accel"
)

// Op is the kind of a primitive.
type Op uint8

const (
	OpStrokePath Op = iota + 1
	OpFillPath
	OpDashedPath
	OpDots
	OpText
	OpImage
	OpMask
)

var opNames = [...]string{
	OpStrokePath: "stroke-path",
	OpFillPath:   "fill-path",
	OpDashedPath: "dashed-path",
	OpDots:       "dots",
	OpText:       "text",
	OpImage:      "image",
	OpMask:       "mask",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "unknown"
}

// Composite is the rule used to combine a primitive with what is already
// drawn.
type Composite uint8

const (
	// SourceOver paints the primitive on top.
	SourceOver Composite = iota
	// DestinationIn keeps existing pixels only where the primitive is opaque.
	DestinationIn
)

// Glow asks the backend for a soft halo around a stroked path.
type Glow struct {
	Radius  float64
	Opacity float64
}

// Dot is one filled disc of a dot list. Opacity is relative to the
// primitive's opacity.
type Dot struct {
	accel.Point
	Radius  float64
	Opacity float64
}

// Primitive is one abstract draw call. Geometry is in element space.
type Primitive struct {
	Owner string
	Op    Op

	// Paths.
	Points     []accel.Point
	Closed     bool
	Width      float64
	Dash       []float64
	DashOffset float64
	Glow       *Glow

	// Dot lists.
	Dots []Dot

	// Boxed content (text, image, mask): Bounds is the untransformed box and
	// Transform places it, including rotation and flips.
	Bounds    accel.Rect
	Transform accel.Affine
	Text      string
	FontSize  float64
	Source    string

	// Cutouts are the element-space areas inside a mask's Bounds that it
	// removes. Backends without destination-in compositing cover them.
	Cutouts []accel.Rect

	Color     color.NRGBA
	Opacity   float64
	Composite Composite
}

// Owners returns the distinct owners of list in first-seen order.
func Owners(list []Primitive) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range list {
		if _, ok := seen[p.Owner]; ok {
			continue
		}
		seen[p.Owner] = struct{}{}
		out = append(out, p.Owner)
	}
	return out
}

// OwnedBy returns the primitives of list produced by owner.
func OwnedBy(list []Primitive, owner string) []Primitive {
	var out []Primitive
	for _, p := range list {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out
}

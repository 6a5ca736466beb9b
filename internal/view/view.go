// Package view converts between pointer (screen) space and element space for
// a given pan/zoom state.
package view

import (
	"PlateStudio/internal/accel"
)

// Supported zoom range.
const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// State is the session-scoped view: pan offset, zoom and the fixed vertical
// margin reserved above the design surface. The margin lives in screen space
// and is not scaled by zoom.
type State struct {
	PanX   float64 `json:"pan_x"`
	PanY   float64 `json:"pan_y"`
	Zoom   float64 `json:"zoom"`
	Margin float64 `json:"margin"`
}

// NewState returns an unpanned state at zoom 1 with the given margin.
func NewState(margin float64) State {
	return State{Zoom: 1, Margin: margin}
}

// Service wraps the transform routines of the computation module. It holds
// no view state of its own; every call takes the state explicitly.
type Service struct {
	m       accel.Module
	minZoom float64
	maxZoom float64
}

// NewService returns a transform service backed by m, clamping zoom to
// [minZoom, maxZoom]. Zero bounds use MinZoom and MaxZoom.
func NewService(m accel.Module, minZoom, maxZoom float64) *Service {
	if minZoom <= 0 {
		minZoom = MinZoom
	}
	if maxZoom <= 0 {
		maxZoom = MaxZoom
	}
	return &Service{m: m, minZoom: minZoom, maxZoom: maxZoom}
}

// ScreenTransform returns the element-to-screen affine for v.
func ScreenTransform(v State) accel.Affine {
	return accel.Affine{
		A: v.Zoom, C: v.PanX,
		E: v.Zoom, F: v.PanY + v.Margin,
	}
}

func (s *Service) inverse(v State) accel.Affine {
	inv, ok := s.m.Invert(ScreenTransform(v))
	if !ok {
		// zoom is clamped away from zero on every mutation; a zero zoom can
		// only come from an uninitialized State
		return accel.Translate(-v.PanX, -(v.PanY + v.Margin))
	}
	return inv
}

// ToElement maps a screen point to element space.
func (s *Service) ToElement(p accel.Point, v State) accel.Point {
	return s.m.Transform(s.inverse(v), p)
}

// ToScreen maps an element-space point to screen space.
func (s *Service) ToScreen(p accel.Point, v State) accel.Point {
	return s.m.Transform(ScreenTransform(v), p)
}

// ToElementBatch maps every screen point of src to element space, reusing dst.
func (s *Service) ToElementBatch(src, dst []accel.Point, v State) []accel.Point {
	return s.m.TransformBatch(s.inverse(v), src, dst)
}

// ToScreenBatch maps every element point of src to screen space, reusing dst.
func (s *Service) ToScreenBatch(src, dst []accel.Point, v State) []accel.Point {
	return s.m.TransformBatch(ScreenTransform(v), src, dst)
}

// ClampZoom limits z to the supported range.
func (s *Service) ClampZoom(z float64) float64 {
	return max(s.minZoom, min(s.maxZoom, z))
}

// ZoomAt scales the zoom by factor while keeping the element under the
// screen point c fixed on screen. The factor actually applied is recomputed
// after clamping so the anchor stays exact at the range limits.
func (s *Service) ZoomAt(v State, factor float64, c accel.Point) State {
	if factor <= 0 {
		return v
	}
	z := s.ClampZoom(v.Zoom * factor)
	f := z / v.Zoom

	// The margin is outside zoom/pan, so the anchor is taken relative to
	// the margin-shifted origin: offset' = c - (c - offset) * f.
	cy := c.Y - v.Margin
	v.PanX = c.X - (c.X-v.PanX)*f
	v.PanY = cy - (cy-v.PanY)*f
	v.Zoom = z
	return v
}

// Pan shifts the view by (dx, dy) screen units.
func Pan(v State, dx, dy float64) State {
	v.PanX += dx
	v.PanY += dy
	return v
}

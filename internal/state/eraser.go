package state

import (
	"PlateStudio/internal/accel"
)

// EraseMode selects the intersection test used by the eraser.
type EraseMode string

const (
	// ErasePoints removes a stroke when any of its sample points lies
	// inside the eraser circle. Widely spaced samples can leave a gap.
	ErasePoints EraseMode = "points"
	// EraseSegments measures the distance to every polyline segment.
	EraseSegments EraseMode = "segments"
)

// Eraser finds the finalized strokes touched by an eraser circle.
type Eraser struct {
	m    accel.Module
	mode EraseMode
	buf  []accel.Point
}

// NewEraser returns an eraser using mode; an unknown mode falls back to
// ErasePoints.
func NewEraser(m accel.Module, mode EraseMode) *Eraser {
	if mode != EraseSegments {
		mode = ErasePoints
	}
	return &Eraser{m: m, mode: mode}
}

// Mode returns the intersection test in use.
func (e *Eraser) Mode() EraseMode { return e.mode }

// Erase returns the IDs of every stroke with geometry within radius of
// center. Non-stroke elements are ignored. The caller removes the returned
// strokes as one batch.
func (e *Eraser) Erase(center accel.Point, radius float64, strokes []Element) []string {
	if radius <= 0 {
		return nil
	}
	var ids []string
	for i := range strokes {
		s := &strokes[i]
		if s.Kind != KindStroke || s.Stroke == nil {
			continue
		}
		e.buf = s.Stroke.Positions(e.buf)

		var hit bool
		if e.mode == EraseSegments {
			hit = e.m.AnySegmentWithinRadius(s.Position(), e.buf, center, radius)
		} else {
			hit = e.m.AnyWithinRadius(s.Position(), e.buf, center, radius)
		}
		if hit {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

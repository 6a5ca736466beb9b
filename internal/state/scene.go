package state

import (
	"github.com/hashicorp/go-hclog"

	"PlateStudio/internal/accel"
)

// Scene is the ordered element list of one design. Slice order is insertion
// order and breaks rank ties. Scene is owned by the UI goroutine and is not
// safe for concurrent use.
type Scene struct {
	elements []Element
	logger   hclog.Logger
}

// NewScene returns an empty scene.
func NewScene(logger hclog.Logger) *Scene {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scene{logger: logger.Named("scene")}
}

// Add appends e, assigning an ID when it has none, and returns the stored
// element.
func (s *Scene) Add(e Element) Element {
	if e.ID == "" {
		e.ID = NewID()
	}
	s.elements = append(s.elements, e)
	s.logger.Debug("element added", "id", e.ID, "kind", e.Kind, "rank", e.Rank)
	return e
}

// Remove deletes every element whose ID is listed and returns the IDs that
// were actually present.
func (s *Scene) Remove(ids ...string) []string {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var removed []string
	kept := s.elements[:0]
	for _, e := range s.elements {
		if _, ok := drop[e.ID]; ok {
			removed = append(removed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	// release references held past the new length
	for i := len(kept); i < len(s.elements); i++ {
		s.elements[i] = Element{}
	}
	s.elements = kept
	if len(removed) > 0 {
		s.logger.Debug("elements removed", "count", len(removed))
	}
	return removed
}

// Replace swaps the whole scene for els. The scene keeps its own copy.
func (s *Scene) Replace(els []Element) {
	s.elements = CloneAll(els)
	s.logger.Debug("scene replaced", "count", len(els))
}

// Elements returns a deep copy of the scene, suitable for snapshots and
// persistence.
func (s *Scene) Elements() []Element {
	return CloneAll(s.elements)
}

// Items exposes the live element list for read-only iteration during a
// single frame. Callers must not retain or modify it.
func (s *Scene) Items() []Element {
	return s.elements
}

// Get returns the element with the given ID.
func (s *Scene) Get(id string) (Element, bool) {
	for _, e := range s.elements {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return Element{}, false
}

// Len returns the number of elements.
func (s *Scene) Len() int { return len(s.elements) }

// Strokes returns the finalized paint strokes, in scene order.
func (s *Scene) Strokes() []Element {
	var out []Element
	for _, e := range s.elements {
		if e.Kind == KindStroke && e.Stroke != nil {
			out = append(out, e)
		}
	}
	return out
}

// Boxes returns the bounding box of every element.
func (s *Scene) Boxes() []accel.Rect {
	boxes := make([]accel.Rect, 0, len(s.elements))
	for i := range s.elements {
		boxes = append(boxes, s.elements[i].Bounds())
	}
	return boxes
}

// NextRank returns a rank above every element currently in the scene.
func (s *Scene) NextRank() int {
	next := 0
	for _, e := range s.elements {
		if e.Rank >= next {
			next = e.Rank + 1
		}
	}
	return next
}

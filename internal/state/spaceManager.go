package state

import (
	"sort"

	"github.com/hashicorp/go-hclog"

	"PlateStudio/internal/accel"
)

// Zone is a candidate region for placing a new element. Lower Priority is
// tried first.
type Zone struct {
	Name     string
	Area     accel.Rect
	Priority int
}

// Zones derives the spawn zones around a frame: the margin bands above,
// left, right and below it, and the frame interior as the last resort.
// Bands are margin units deep.
func Zones(frame accel.Rect, margin float64) []Zone {
	zones := []Zone{
		{Name: "interior", Area: frame, Priority: 4},
	}
	if margin <= 0 {
		return zones
	}
	return append([]Zone{
		{Name: "above", Priority: 0, Area: accel.Rect{X: frame.X, Y: frame.Y - margin, Width: frame.Width, Height: margin}},
		{Name: "left", Priority: 1, Area: accel.Rect{X: frame.X - margin, Y: frame.Y, Width: margin, Height: frame.Height}},
		{Name: "right", Priority: 2, Area: accel.Rect{X: frame.Right(), Y: frame.Y, Width: margin, Height: frame.Height}},
		{Name: "below", Priority: 3, Area: accel.Rect{X: frame.X, Y: frame.Bottom(), Width: frame.Width, Height: margin}},
	}, zones...)
}

// SpaceManager picks positions for new non-stroke elements so they do not
// cover what is already on the surface.
type SpaceManager struct {
	m        accel.Module
	attempts int
	fallback accel.Point
	logger   hclog.Logger
}

// NewSpaceManager returns a planner that tries up to attempts random
// candidates per zone and falls back to the fixed position fallback.
func NewSpaceManager(m accel.Module, attempts int, fallback accel.Point, logger hclog.Logger) *SpaceManager {
	if attempts < 0 {
		attempts = 0
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SpaceManager{
		m:        m,
		attempts: attempts,
		fallback: fallback,
		logger:   logger.Named("spawn"),
	}
}

// SetFallback moves the position used when every zone is exhausted.
func (sm *SpaceManager) SetFallback(p accel.Point) { sm.fallback = p }

// Place returns the top-left position for a w*h element. Zones are tried in
// priority order; identical arguments always give the identical position.
// When every zone is exhausted the fixed fallback is returned even if it
// overlaps existing elements.
func (sm *SpaceManager) Place(w, h float64, zones []Zone, existing []accel.Rect, grid float64, seed uint64) accel.Point {
	ordered := make([]Zone, len(zones))
	copy(ordered, zones)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	seq := accel.NewSequence(seed)
	for _, z := range ordered {
		if p, ok := sm.m.SearchZone(z.Area, w, h, existing, grid, seq, sm.attempts); ok {
			sm.logger.Debug("placed element", "zone", z.Name, "x", p.X, "y", p.Y)
			return p
		}
	}
	sm.logger.Debug("placement exhausted, using fallback", "zones", len(zones), "x", sm.fallback.X, "y", sm.fallback.Y)
	return sm.fallback
}

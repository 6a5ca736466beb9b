package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlateStudio/internal/accel"
)

var frame = accel.Rect{X: 0, Y: 0, Width: 600, Height: 400}

func TestZones(t *testing.T) {
	zones := Zones(frame, 50)
	require.Len(t, zones, 5)
	assert.Equal(t, "above", zones[0].Name)
	assert.Equal(t, accel.Rect{X: 0, Y: -50, Width: 600, Height: 50}, zones[0].Area)
	assert.Equal(t, accel.Rect{X: 600, Y: 0, Width: 50, Height: 400}, zones[2].Area)
	assert.Equal(t, "interior", zones[4].Name)

	only := Zones(frame, 0)
	require.Len(t, only, 1)
	assert.Equal(t, frame, only[0].Area)
}

func TestPlaceInteriorAnchor(t *testing.T) {
	sm := NewSpaceManager(accel.NewNative(), 20, accel.Pt(20, 20), nil)
	zones := []Zone{{Name: "interior", Area: frame, Priority: 0}}

	for _, seed := range []uint64{1, 7, 1 << 40} {
		p := sm.Place(100, 50, zones, nil, 0, seed)
		assert.Equal(t, accel.Pt(250, 175), p, "seed %d", seed)
	}
}

func TestPlaceDeterministic(t *testing.T) {
	sm := NewSpaceManager(accel.NewNative(), 30, accel.Pt(20, 20), nil)
	zones := Zones(frame, 80)
	existing := []accel.Rect{
		{X: 250, Y: -80, Width: 100, Height: 80},
		{X: 0, Y: -80, Width: 120, Height: 80},
	}

	first := sm.Place(60, 40, zones, existing, 10, 99)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, sm.Place(60, 40, zones, existing, 10, 99))
	}
	assert.False(t, accel.NewNative().OverlapsAny(accel.Rect{X: first.X, Y: first.Y, Width: 60, Height: 40}, existing))
}

func TestPlacePrefersHigherPriority(t *testing.T) {
	sm := NewSpaceManager(accel.NewNative(), 10, accel.Pt(20, 20), nil)
	zones := []Zone{
		{Name: "low", Area: accel.Rect{X: 1000, Y: 0, Width: 100, Height: 100}, Priority: 5},
		{Name: "high", Area: accel.Rect{X: 0, Y: 0, Width: 100, Height: 100}, Priority: 1},
	}
	p := sm.Place(20, 20, zones, nil, 0, 3)
	assert.Equal(t, accel.Pt(40, 40), p)
}

func TestPlaceFallsBackWhenExhausted(t *testing.T) {
	sm := NewSpaceManager(accel.NewNative(), 25, accel.Pt(20, 20), nil)
	zones := []Zone{{Name: "interior", Area: frame}}
	existing := []accel.Rect{frame}

	assert.Equal(t, accel.Pt(20, 20), sm.Place(50, 50, zones, existing, 0, 5))
	// too large for any zone
	assert.Equal(t, accel.Pt(20, 20), sm.Place(900, 50, zones, nil, 0, 5))
}

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlateStudio/internal/accel"
)

func TestSceneAddAssignsID(t *testing.T) {
	s := NewScene(nil)
	e := s.Add(Element{Kind: KindImage, Image: &ImageData{Source: "logo.png"}})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, 1, s.Len())
}

func TestSceneRemoveKeepsOrder(t *testing.T) {
	s := NewScene(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Add(Element{ID: id, Kind: KindImage, Image: &ImageData{}})
	}

	removed := s.Remove("b", "d", "missing")
	assert.Equal(t, []string{"b", "d"}, removed)

	var ids []string
	for _, e := range s.Items() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestSceneElementsIsDeepCopy(t *testing.T) {
	s := NewScene(nil)
	s.Add(stroke("s1", 0, 0, accel.Pt(0, 0), accel.Pt(1, 1)))

	snap := s.Elements()
	snap[0].Stroke.Points[0].X = 99

	e, ok := s.Get("s1")
	require.True(t, ok)
	assert.Equal(t, 0.0, e.Stroke.Points[0].X)
}

func TestSceneNextRank(t *testing.T) {
	s := NewScene(nil)
	assert.Equal(t, 0, s.NextRank())
	s.Add(Element{ID: "a", Rank: 4, Kind: KindImage, Image: &ImageData{}})
	s.Add(Element{ID: "b", Rank: 2, Kind: KindImage, Image: &ImageData{}})
	assert.Equal(t, 5, s.NextRank())
}

func TestSceneStrokesAndBoxes(t *testing.T) {
	s := NewScene(nil)
	s.Add(Element{ID: "img", Kind: KindImage, X: 1, Y: 2, Width: 3, Height: 4, Image: &ImageData{}})
	s.Add(stroke("s1", 10, 10, accel.Pt(0, 0), accel.Pt(5, 5)))

	strokes := s.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, "s1", strokes[0].ID)
	assert.Equal(t, accel.Rect{X: 1, Y: 2, Width: 3, Height: 4}, s.Boxes()[0])
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(2)
	v1 := []Element{{ID: "1"}}
	v2 := []Element{{ID: "1"}, {ID: "2"}}
	v3 := []Element{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	h.Record(nil)
	h.Record(v1)
	h.Record(v2) // drops the oldest snapshot

	got, ok := h.Undo(v3)
	require.True(t, ok)
	assert.Equal(t, v2, got)
	got, ok = h.Undo(v2)
	require.True(t, ok)
	assert.Equal(t, v1, got)
	_, ok = h.Undo(v1)
	assert.False(t, ok)

	got, ok = h.Redo(v1)
	require.True(t, ok)
	assert.Equal(t, v2, got)
	assert.True(t, h.CanRedo())

	h.Record(v2)
	assert.False(t, h.CanRedo())
}

package render

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/state"
)

func newLayers() *Layers {
	m := accel.NewNative()
	return NewLayers(m, NewBrushes(m, DefaultBrushOptions()))
}

func strokeEl(id string, rank int, brush state.BrushKind) state.Element {
	return state.Element{
		ID: id, Kind: state.KindStroke, Rank: rank, Opacity: 1,
		X: 10, Y: 20, Width: 10, Height: 0,
		Stroke: &state.StrokeData{
			Points: []state.StrokePoint{{Point: accel.Pt(0, 0)}, {Point: accel.Pt(10, 0)}},
			Brush:  brush, Color: "#000000", Thickness: 2,
		},
	}
}

func imageEl(id string, rank int) state.Element {
	return state.Element{
		ID: id, Kind: state.KindImage, Rank: rank, Opacity: 1,
		X: 0, Y: 0, Width: 50, Height: 50,
		Image: &state.ImageData{Source: id + ".png"},
	}
}

func TestStrokeDrawsAboveLowerRankedImage(t *testing.T) {
	l := newLayers()
	els := []state.Element{strokeEl("stroke", 2, state.BrushSolid), imageEl("image", 1)}

	assert.Equal(t, []string{"image", "stroke"}, Owners(l.Draw(els)))
}

func TestRankOrderIgnoresKind(t *testing.T) {
	l := newLayers()
	text := state.Element{ID: "text", Kind: state.KindText, Rank: 0, Opacity: 1,
		Text: &state.TextData{Content: "hi", FontSize: 12}}
	shape := state.Element{ID: "shape", Kind: state.KindShape, Rank: 3, Opacity: 1, Width: 10, Height: 10,
		Shape: &state.ShapeData{Shape: state.ShapeRect, Fill: "#ffffff", Stroke: "#000000", StrokeWidth: 1}}
	els := []state.Element{
		strokeEl("s4", 4, state.BrushSpeckled),
		shape,
		imageEl("i1", 1),
		strokeEl("s2", 2, state.BrushDiffused),
		text,
	}

	assert.Equal(t, []string{"text", "i1", "s2", "shape", "s4"}, Owners(l.Draw(els)))
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	l := newLayers()
	var els []state.Element
	var want []string
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("e%d", i)
		if i%2 == 0 {
			els = append(els, strokeEl(id, 7, state.BrushSolid))
		} else {
			els = append(els, imageEl(id, 7))
		}
		want = append(want, id)
	}
	assert.Equal(t, want, Owners(l.Draw(els)))
}

func TestStrokePointsAreAbsolute(t *testing.T) {
	l := newLayers()
	prims := l.Draw([]state.Element{strokeEl("s", 0, state.BrushSolid)})
	require.Len(t, prims, 1)
	assert.Equal(t, []accel.Point{{X: 10, Y: 20}, {X: 20, Y: 20}}, prims[0].Points)
}

func TestFlipXMirrorsAboutCentre(t *testing.T) {
	l := newLayers()
	e := strokeEl("s", 0, state.BrushSolid)
	e.FlipX = true
	prims := l.Draw([]state.Element{e})
	require.Len(t, prims, 1)
	assert.InDelta(t, 20, prims[0].Points[0].X, 1e-9)
	assert.InDelta(t, 10, prims[0].Points[1].X, 1e-9)
}

func TestRotationAboutCentre(t *testing.T) {
	e := &state.Element{X: 0, Y: 0, Width: 10, Height: 10, Rotation: 90}
	m := accel.NewNative()
	p := m.Transform(ElementTransform(e), accel.Pt(10, 5))
	assert.InDelta(t, 5, p.X, 1e-9)
	assert.InDelta(t, 10, p.Y, 1e-9)
}

func TestShapeDashedOutline(t *testing.T) {
	l := newLayers()
	e := state.Element{ID: "sh", Kind: state.KindShape, Opacity: 1, X: 0, Y: 0, Width: 40, Height: 20,
		Shape: &state.ShapeData{Shape: state.ShapeEllipse, Stroke: "#ff0000", StrokeWidth: 2, Dash: []float64{4, 2}}}

	prims := l.Draw([]state.Element{e})
	require.Len(t, prims, 1)
	assert.Equal(t, OpDashedPath, prims[0].Op)
	assert.True(t, prims[0].Closed)
	assert.Len(t, prims[0].Points, ellipseVertices)
	assert.Equal(t, []float64{4, 2}, prims[0].Dash)
}

func TestBoxedElementsCarryTransform(t *testing.T) {
	l := newLayers()
	img := imageEl("img", 0)
	img.Rotation = 45
	prims := l.Draw([]state.Element{img})
	require.Len(t, prims, 1)
	assert.Equal(t, OpImage, prims[0].Op)
	assert.Equal(t, "img.png", prims[0].Source)
	assert.Equal(t, ElementTransform(&img), prims[0].Transform)
}

func TestMalformedElementsAreSkipped(t *testing.T) {
	l := newLayers()
	els := []state.Element{
		{ID: "a", Kind: state.KindStroke},
		{ID: "b", Kind: state.KindText},
		{ID: "c", Kind: "sticker"},
	}
	assert.Empty(t, l.Draw(els))
}

package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/config"
	"PlateStudio/internal/render"
	"PlateStudio/internal/state"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

func readyRuntime(t *testing.T) *accel.Runtime {
	t.Helper()
	rt := accel.NewRuntime(accel.LoadNative, nil)
	rt.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := rt.Wait(ctx)
	require.NoError(t, err)
	return rt
}

func newSession(t *testing.T, settings SettingsProvider) *Session {
	t.Helper()
	return New(config.Default(), readyRuntime(t), settings, nil)
}

// drawLine drags the pointer horizontally in screen space at 20ms steps.
func drawLine(t *testing.T, s *Session, y float64, xs ...float64) {
	t.Helper()
	require.NoError(t, s.PointerDown(accel.Pt(xs[0], y), 0.5, ms(0)))
	for i, x := range xs[1 : len(xs)-1] {
		require.NoError(t, s.PointerMove(accel.Pt(x, y), 0.5, ms(20*(i+1))))
	}
	require.NoError(t, s.PointerUp(accel.Pt(xs[len(xs)-1], y), 0.5, ms(20*len(xs))))
}

func TestNotReadyBlocksInteraction(t *testing.T) {
	s := New(config.Default(), accel.NewRuntime(accel.LoadNative, nil), nil, nil)

	assert.ErrorIs(t, s.PointerDown(accel.Pt(1, 1), 0, ms(0)), accel.ErrModuleNotReady)
	assert.ErrorIs(t, s.PointerMove(accel.Pt(2, 2), 0, ms(20)), accel.ErrModuleNotReady)
	assert.ErrorIs(t, s.PointerUp(accel.Pt(2, 2), 0, ms(40)), accel.ErrModuleNotReady)
	assert.ErrorIs(t, s.Zoom(2, accel.Pt(0, 0)), accel.ErrModuleNotReady)
	assert.ErrorIs(t, s.Pan(5, 5), accel.ErrModuleNotReady)
	_, err := s.Render(false)
	assert.ErrorIs(t, err, accel.ErrModuleNotReady)
	_, err = s.AddText("hi", 12, "#000000")
	assert.ErrorIs(t, err, accel.ErrModuleNotReady)
	s.PointerCancel()
	assert.Zero(t, s.Len())
}

func TestFailedRuntimeStaysBlocked(t *testing.T) {
	rt := accel.NewRuntime(func(context.Context) (accel.Module, error) {
		return nil, errors.New("unsupported cpu")
	}, nil)
	rt.Start(context.Background())
	<-rt.Ready()

	s := New(config.Default(), rt, nil, nil)
	err := s.Ready()
	require.Error(t, err)
	assert.ErrorIs(t, err, accel.ErrModuleNotReady)
	assert.ErrorIs(t, s.PointerDown(accel.Pt(1, 1), 0, ms(0)), accel.ErrModuleNotReady)
}

func TestBrushStrokeCommitsOnTop(t *testing.T) {
	s := newSession(t, nil)
	_, err := s.AddImage("plate.png", 0, 0)
	require.NoError(t, err)

	drawLine(t, s, 150, 100, 150, 200, 250)
	els := s.Elements()
	require.Len(t, els, 2)

	st := els[1]
	assert.Equal(t, state.KindStroke, st.Kind)
	assert.Equal(t, 1, st.Rank)
	assert.InDelta(t, 100, st.X, 1e-9)
	assert.InDelta(t, 100, st.Y, 1e-9, "margin shifts screen y")
	assert.InDelta(t, 150, st.Width, 1e-9)

	list, err := s.Render(false)
	require.NoError(t, err)
	owners := render.Owners(list)
	require.Len(t, owners, 2)
	assert.Equal(t, st.ID, owners[1])
}

func TestShortStrokeIsDiscarded(t *testing.T) {
	s := newSession(t, nil)
	require.NoError(t, s.PointerDown(accel.Pt(10, 60), 0, ms(0)))
	require.NoError(t, s.PointerMove(accel.Pt(12, 60), 0, ms(5)))
	require.NoError(t, s.PointerUp(accel.Pt(10, 60), 0, ms(10)))

	assert.Zero(t, s.Len())
	assert.False(t, s.CanUndo())
}

func TestPreviewMatchesCommittedStroke(t *testing.T) {
	settings := StaticSettings(DefaultSettings())
	settings.Brush = state.BrushSpeckled
	s := newSession(t, &settings)

	require.NoError(t, s.PointerDown(accel.Pt(100, 150), 0.5, ms(0)))
	require.NoError(t, s.PointerMove(accel.Pt(160, 150), 0.5, ms(20)))
	assert.True(t, s.Capturing())

	live, err := s.Render(false)
	require.NoError(t, err)
	owners := render.Owners(live)
	require.Len(t, owners, 1)

	require.NoError(t, s.PointerUp(accel.Pt(220, 150), 0.5, ms(40)))
	assert.False(t, s.Capturing())
	require.Equal(t, 1, s.Len())
	assert.Equal(t, owners[0], s.Elements()[0].ID)
}

func TestCancelAbandonsStroke(t *testing.T) {
	s := newSession(t, nil)
	require.NoError(t, s.PointerDown(accel.Pt(100, 150), 0.5, ms(0)))
	require.NoError(t, s.PointerMove(accel.Pt(160, 150), 0.5, ms(20)))
	s.PointerCancel()
	require.NoError(t, s.PointerUp(accel.Pt(220, 150), 0.5, ms(40)))

	assert.Zero(t, s.Len())
	assert.False(t, s.Capturing())
}

func TestEraserDragIsOneUndoStep(t *testing.T) {
	settings := StaticSettings(DefaultSettings())
	s := newSession(t, &settings)
	drawLine(t, s, 150, 100, 150, 200, 250)
	drawLine(t, s, 250, 100, 150, 200, 250)
	drawLine(t, s, 450, 100, 150, 200, 250)
	require.Equal(t, 3, s.Len())
	keep := s.Elements()[2].ID

	settings.Tool = ToolEraser
	require.NoError(t, s.PointerDown(accel.Pt(175, 150), 1, ms(1000)))
	require.NoError(t, s.PointerMove(accel.Pt(175, 200), 1, ms(1020)))
	require.NoError(t, s.PointerUp(accel.Pt(175, 250), 1, ms(1040)))

	els := s.Elements()
	require.Len(t, els, 1)
	assert.Equal(t, keep, els[0].ID)

	require.True(t, s.Undo())
	assert.Equal(t, 3, s.Len())
}

func TestEraseAt(t *testing.T) {
	s := newSession(t, nil)
	drawLine(t, s, 150, 100, 150, 200, 250)
	id := s.Elements()[0].ID

	ids, err := s.EraseAt(accel.Pt(175, 400))
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 1, s.Len())

	ids, err = s.EraseAt(accel.Pt(175, 160))
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
	assert.Zero(t, s.Len())
}

func TestPanToolMovesView(t *testing.T) {
	settings := StaticSettings(DefaultSettings())
	settings.Tool = ToolPan
	s := newSession(t, &settings)

	require.NoError(t, s.PointerDown(accel.Pt(10, 10), 0, ms(0)))
	require.NoError(t, s.PointerMove(accel.Pt(30, 5), 0, ms(20)))
	require.NoError(t, s.PointerUp(accel.Pt(40, 0), 0, ms(40)))

	v := s.View()
	assert.Equal(t, 30.0, v.PanX)
	assert.Equal(t, -10.0, v.PanY)
	assert.Zero(t, s.Len())
}

func TestZoomKeepsAnchor(t *testing.T) {
	s := newSession(t, nil)
	require.NoError(t, s.Pan(20, 30))
	xf := s.ScreenTransform()
	c := accel.Pt(300, 250)
	before := accel.NewNative().Transform(mustInvert(t, xf), c)

	require.NoError(t, s.ZoomIn(c))
	after := accel.NewNative().Transform(mustInvert(t, s.ScreenTransform()), c)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.InDelta(t, 1.2, s.View().Zoom, 1e-9)
}

func mustInvert(t *testing.T, m accel.Affine) accel.Affine {
	t.Helper()
	inv, ok := accel.NewNative().Invert(m)
	require.True(t, ok)
	return inv
}

func TestAddPlacesInZones(t *testing.T) {
	s := newSession(t, nil)

	shape, err := s.AddShape(state.ShapeData{Shape: state.ShapeRect, Fill: "#ff0000"}, 100, 40)
	require.NoError(t, err)
	assert.Equal(t, 250.0, shape.X)
	assert.Equal(t, -50.0, shape.Y, "fits in the band above the frame")

	img, err := s.AddImage("a.png", 120, 90)
	require.NoError(t, err)
	assert.Equal(t, 240.0, img.X)
	assert.Equal(t, 160.0, img.Y)

	other, err := s.AddImage("b.png", 120, 90)
	require.NoError(t, err)
	assert.False(t, accel.NewNative().RectsOverlap(img.Bounds(), other.Bounds()))
	assert.Equal(t, []int{0, 1, 2}, []int{shape.Rank, img.Rank, other.Rank})

	_, err = s.AddShape(state.ShapeData{Shape: "star"}, 10, 10)
	assert.Error(t, err)
}

func TestFallbackFollowsFrameMask(t *testing.T) {
	s := newSession(t, nil)
	require.NoError(t, s.Ready())

	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	s.SetFrameMask(render.NewFrameMask(img, accel.Rect{X: 1000, Y: 500, Width: 600, Height: 400}, render.DefaultAlphaThreshold))

	el, err := s.AddImage("huge.png", 5000, 5000)
	require.NoError(t, err)
	assert.Equal(t, 1020.0, el.X)
	assert.Equal(t, 520.0, el.Y)
}

func TestAddTextIsMeasured(t *testing.T) {
	s := newSession(t, nil)
	el, err := s.AddText("Hello", 0, "#333333")
	require.NoError(t, err)
	assert.Equal(t, state.KindText, el.Kind)
	assert.Greater(t, el.Width, 0.0)
	assert.Greater(t, el.Height, 0.0)
	assert.Equal(t, float64(DefaultFontSize), el.Text.FontSize)
	assert.Equal(t, 1.0, el.Opacity)
}

func TestUndoRedo(t *testing.T) {
	s := newSession(t, nil)
	_, err := s.AddImage("a.png", 50, 20)
	require.NoError(t, err)
	drawLine(t, s, 150, 100, 150, 200)
	require.Equal(t, 2, s.Len())

	require.True(t, s.Undo())
	assert.Equal(t, 1, s.Len())
	require.True(t, s.Undo())
	assert.Zero(t, s.Len())
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	require.True(t, s.Redo())
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Redo())
}

func TestTransformRaiseMove(t *testing.T) {
	s := newSession(t, nil)
	a, err := s.AddImage("a.png", 50, 20)
	require.NoError(t, err)
	b, err := s.AddImage("b.png", 50, 20)
	require.NoError(t, err)

	require.NoError(t, s.Raise(a.ID))
	require.NoError(t, s.Transform(a.ID, 90, true, false))
	require.NoError(t, s.Move(a.ID, accel.Pt(5, -5)))
	assert.Error(t, s.Move("missing", accel.Pt(1, 1)))

	list, err := s.Render(false)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, render.Owners(list))

	got := s.Elements()[0]
	assert.Equal(t, 90.0, got.Rotation)
	assert.True(t, got.FlipX)
	assert.Equal(t, a.X+5, got.X)
	assert.Equal(t, a.Y-5, got.Y)

	require.True(t, s.Undo())
	assert.Equal(t, a.X, s.Elements()[0].X)
}

func TestSaveLoad(t *testing.T) {
	s := newSession(t, nil)
	drawLine(t, s, 150, 100, 150, 200)
	_, err := s.AddText("plate", 18, "#000000")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	other := newSession(t, nil)
	_, err = other.AddImage("x.png", 10, 10)
	require.NoError(t, err)
	require.NoError(t, other.Load(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, s.Elements(), other.Elements())

	require.True(t, other.Undo())
	assert.Equal(t, 1, other.Len())

	assert.Error(t, other.Load(bytes.NewReader([]byte("not json"))))
}

func leftHalfOpaque(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	return img
}

func TestBoundedRenderClipsToFrame(t *testing.T) {
	s := newSession(t, nil)
	frame := s.Frame()
	s.SetFrameMask(render.NewFrameMask(leftHalfOpaque(600, 400), frame, render.DefaultAlphaThreshold))

	drawLine(t, s, 150, 100, 150, 200)
	inside := s.Elements()[0].ID
	drawLine(t, s, 150, 400, 450, 500)
	outside := s.Elements()[1].ID

	open, err := s.Render(false)
	require.NoError(t, err)
	assert.Equal(t, []string{inside, outside}, render.Owners(open))

	bounded, err := s.Render(true)
	require.NoError(t, err)
	require.NotEmpty(t, bounded)
	assert.Equal(t, render.MaskOwner, bounded[len(bounded)-1].Owner)
	assert.NotEmpty(t, render.OwnedBy(bounded, inside))
	assert.Empty(t, render.OwnedBy(bounded, outside))
}

func TestBoundedRenderWithoutMask(t *testing.T) {
	s := newSession(t, nil)
	drawLine(t, s, 150, 100, 150, 200)

	open, err := s.Render(false)
	require.NoError(t, err)
	bounded, err := s.Render(true)
	require.NoError(t, err)
	assert.Equal(t, open, bounded)
}

func TestLoadFrameAssetMissing(t *testing.T) {
	s := newSession(t, nil)
	err := s.LoadFrameAsset(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestSettingsAreClamped(t *testing.T) {
	ts := ToolSettings{Tool: "lasso", Brush: "chalk", Thickness: 1e6, Opacity: 3}.sanitize()
	assert.Equal(t, ToolBrush, ts.Tool)
	assert.Equal(t, state.BrushSolid, ts.Brush)
	assert.Equal(t, "#000000", ts.Color)
	assert.Equal(t, float64(MaxThickness), ts.Thickness)
	assert.Equal(t, 1.0, ts.Opacity)
}

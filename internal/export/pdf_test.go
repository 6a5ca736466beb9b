package export

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/render"
	"PlateStudio/internal/state"
)

var frame = accel.Rect{Width: 600, Height: 400}

func scene() []render.Primitive {
	m := accel.NewNative()
	layers := render.NewLayers(m, render.NewBrushes(m, render.DefaultBrushOptions()))
	stroke := func(id string, rank int, brush state.BrushKind) state.Element {
		return state.Element{
			ID: id, Kind: state.KindStroke, X: 50, Y: 50, Rank: rank, Opacity: 1,
			Width: 100, Height: 20,
			Stroke: &state.StrokeData{
				Brush: brush, Color: "#aa3300", Thickness: 4,
				Points: []state.StrokePoint{
					{Point: accel.Pt(0, 0)}, {Point: accel.Pt(50, 20)}, {Point: accel.Pt(100, 0)},
				},
			},
		}
	}
	return layers.Draw([]state.Element{
		stroke("solid", 0, state.BrushSolid),
		stroke("glow", 1, state.BrushDiffused),
		stroke("dots", 2, state.BrushSpeckled),
		{
			ID: "label", Kind: state.KindText, X: 200, Y: 100, Rank: 3, Opacity: 1,
			Width: 80, Height: 20, Rotation: 30, FlipX: true,
			Text: &state.TextData{Content: "Plate\nTwo", FontSize: 14, Color: "#000000"},
		},
		{
			ID: "box", Kind: state.KindShape, X: 300, Y: 200, Rank: 4, Opacity: 0.5,
			Width: 60, Height: 40,
			Shape: &state.ShapeData{Shape: state.ShapeEllipse, Fill: "#00ff00", Stroke: "#0000ff", StrokeWidth: 2, Dash: []float64{4, 2}},
		},
		{
			ID: "photo", Kind: state.KindImage, X: 400, Y: 50, Rank: 5, Opacity: 1,
			Width: 60, Height: 60,
			Image: &state.ImageData{Source: "missing.png"},
		},
	})
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, scene(), Options{Frame: frame, Bleed: 9}, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWritePDFWithMask(t *testing.T) {
	list := append(scene(), render.Primitive{
		Owner:     render.MaskOwner,
		Op:        render.OpMask,
		Bounds:    frame,
		Transform: accel.Identity(),
		Opacity:   1,
		Composite: render.DestinationIn,
	})
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, list, Options{Frame: frame}, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDFCoversMaskCutouts(t *testing.T) {
	plate := accel.Rect{Width: 100, Height: 100}
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 50; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 0xff})
		}
	}
	mk := render.NewMasker(accel.NewNative(), render.NewFrameMask(img, plate, render.DefaultAlphaThreshold), nil)
	list := mk.Compose([]render.Primitive{{
		Owner:     "photo",
		Op:        render.OpImage,
		Bounds:    accel.Rect{X: 10, Y: 10, Width: 80, Height: 20},
		Transform: accel.Identity(),
		Opacity:   1,
		Source:    "missing.png",
	}}, true)
	require.Len(t, list, 2)

	pw := newPDFWriter(Options{Frame: plate}, nil)
	pw.pdf.SetCompression(false)
	var buf bytes.Buffer
	require.NoError(t, pw.write(&buf, list))

	page := buf.String()
	placeholder := strings.Index(page, "10.00 90.00 80.00 -20.00 re B")
	cover := strings.Index(page, "50.00 100.00 50.00 -100.00 re f")
	require.GreaterOrEqual(t, placeholder, 0)
	require.GreaterOrEqual(t, cover, 0, "transparent half is painted over")
	assert.Greater(t, cover, placeholder)
}

func TestWritePDFEmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WritePDF(&buf, nil, Options{}, nil))
	assert.Zero(t, buf.Len())
}

func TestExportPDFFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate.pdf")
	list := []render.Primitive{{
		Owner:  "a",
		Op:     render.OpStrokePath,
		Points: []accel.Point{{X: 10, Y: 10}},
		Width:  3,
		Color:  color.NRGBA{A: 255},
	}}
	require.NoError(t, ExportPDF(path, list, Options{Frame: frame}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

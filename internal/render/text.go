package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextMeasurer sizes text elements so they can be placed before a backend
// has laid them out. Faces are cached per font size.
type TextMeasurer struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewTextMeasurer parses the bundled Go Regular font.
func NewTextMeasurer() (*TextMeasurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parse bundled font")
	}
	return &TextMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

func (tm *TextMeasurer) face(size float64) (font.Face, error) {
	if f, ok := tm.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(tm.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "font face at size %v", size)
	}
	tm.faces[size] = f
	return f, nil
}

// Measure returns the width of the widest line and the total height of
// content set at size points.
func (tm *TextMeasurer) Measure(content string, size float64) (w, h float64, err error) {
	if size <= 0 {
		return 0, 0, errors.Errorf("invalid font size %v", size)
	}
	face, err := tm.face(size)
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		adv := font.MeasureString(face, line)
		w = max(w, float64(adv)/64)
	}
	h = float64(face.Metrics().Height) / 64 * float64(len(lines))
	return w, h, nil
}

// Rasterize sets content at size points in colour c onto a transparent image
// just large enough to hold it. Lines start at the left edge.
func (tm *TextMeasurer) Rasterize(content string, size float64, c color.NRGBA) (*image.NRGBA, error) {
	w, h, err := tm.Measure(content, size)
	if err != nil {
		return nil, err
	}
	face, err := tm.face(size)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, max(1, int(math.Ceil(w))), max(1, int(math.Ceil(h)))))
	metrics := face.Metrics()
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	for i, line := range strings.Split(content, "\n") {
		d.Dot = fixed.Point26_6{X: 0, Y: metrics.Ascent + metrics.Height*fixed.Int26_6(i)}
		d.DrawString(line)
	}
	return img, nil
}

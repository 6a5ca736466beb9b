package render

import (
	"image"
	_ "image/jpeg" // frame assets may be JPEG with a separate alpha plate
	_ "image/png"
	"io"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"PlateStudio/internal/accel"
)

// ErrMaskAssetMissing is returned when the frame bitmap cannot be obtained.
// Callers degrade the bounded view to unmasked display.
var ErrMaskAssetMissing = errors.New("render: frame mask asset missing")

// DecodeFrame decodes a frame bitmap in any registered format (PNG, JPEG,
// BMP, WebP).
func DecodeFrame(r io.Reader) (image.Image, string, error) {
	if r == nil {
		return nil, "", ErrMaskAssetMissing
	}
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode frame asset")
	}
	return img, format, nil
}

// LoadFrameMask decodes a frame bitmap and builds its mask over frame. The
// bitmap is first resampled to one pixel per element unit so clipping
// precision does not depend on the asset resolution.
func LoadFrameMask(r io.Reader, frame accel.Rect, threshold uint8) (*FrameMask, error) {
	img, _, err := DecodeFrame(r)
	if err != nil {
		return nil, err
	}
	return NewFrameMask(Resample(img, frame), frame, threshold), nil
}

// Resample scales img to the pixel size of frame. Images already at that
// size are returned unchanged.
func Resample(img image.Image, frame accel.Rect) image.Image {
	w := int(math.Ceil(frame.Width))
	h := int(math.Ceil(frame.Height))
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() == w && b.Dy() == h) {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

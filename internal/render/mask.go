package render

import (
	"image"

	"github.com/hashicorp/go-hclog"

	"PlateStudio/internal/accel"
)

// MaskOwner is the owner ID of the mask primitive appended in bounded view.
const MaskOwner = "frame-mask"

// DefaultAlphaThreshold is the alpha at or above which a mask pixel counts
// as opaque.
const DefaultAlphaThreshold = 128

// FrameMask is the alpha channel of a reference frame image stretched over
// the frame rectangle in element space.
type FrameMask struct {
	width     int
	height    int
	alpha     []uint8
	frame     accel.Rect
	threshold uint8
	toPixel   accel.Affine
	opaque    accel.Rect // element-space bounds of the opaque pixels
	cutouts   []accel.Rect
}

// NewFrameMask builds a mask from the alpha channel of img mapped onto frame.
func NewFrameMask(img image.Image, frame accel.Rect, threshold uint8) *FrameMask {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	fm := &FrameMask{
		width:     w,
		height:    h,
		alpha:     make([]uint8, w*h),
		frame:     frame,
		threshold: threshold,
	}

	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			v := uint8(a >> 8)
			fm.alpha[y*w+x] = v
			if v >= threshold {
				minX, minY = min(minX, x), min(minY, y)
				maxX, maxY = max(maxX, x), max(maxY, y)
			}
		}
	}

	if w > 0 && h > 0 && frame.Width > 0 && frame.Height > 0 {
		sx, sy := float64(w)/frame.Width, float64(h)/frame.Height
		fm.toPixel = accel.Scale(sx, sy).Multiply(accel.Translate(-frame.X, -frame.Y))
		if maxX >= 0 {
			fm.opaque = accel.Rect{
				X:      frame.X + float64(minX)/sx,
				Y:      frame.Y + float64(minY)/sy,
				Width:  float64(maxX-minX+1) / sx,
				Height: float64(maxY-minY+1) / sy,
			}
		}
		fm.cutouts = fm.transparentRuns(sx, sy)
	}
	return fm
}

// transparentRuns covers the transparent pixels with element-space
// rectangles. Each row is split into runs and a run continues the rectangle
// above it when both span the same columns.
func (fm *FrameMask) transparentRuns(sx, sy float64) []accel.Rect {
	type run struct{ x0, x1, y0, y1 int }
	var done, open []run
	for y := 0; y < fm.height; y++ {
		var next []run
		row := fm.alpha[y*fm.width : (y+1)*fm.width]
		for x := 0; x < fm.width; {
			if row[x] >= fm.threshold {
				x++
				continue
			}
			x0 := x
			for x < fm.width && row[x] < fm.threshold {
				x++
			}
			r := run{x0: x0, x1: x, y0: y, y1: y + 1}
			for i, o := range open {
				if o.x0 == x0 && o.x1 == x && o.y1 == y {
					r.y0 = o.y0
					open[i].y1 = -1
					break
				}
			}
			next = append(next, r)
		}
		for _, o := range open {
			if o.y1 >= 0 {
				done = append(done, o)
			}
		}
		open = next
	}
	done = append(done, open...)

	out := make([]accel.Rect, len(done))
	for i, r := range done {
		out[i] = accel.Rect{
			X:      fm.frame.X + float64(r.x0)/sx,
			Y:      fm.frame.Y + float64(r.y0)/sy,
			Width:  float64(r.x1-r.x0) / sx,
			Height: float64(r.y1-r.y0) / sy,
		}
	}
	return out
}

// Cutouts returns the element-space rectangles covering the transparent
// part of the frame.
func (fm *FrameMask) Cutouts() []accel.Rect { return fm.cutouts }

// Coverage returns the mask thresholded to an image that is fully opaque
// where content stays visible and transparent elsewhere.
func (fm *FrameMask) Coverage() *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, fm.width, fm.height))
	for i, a := range fm.alpha {
		if a >= fm.threshold {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// Frame returns the element-space rectangle the mask covers.
func (fm *FrameMask) Frame() accel.Rect { return fm.frame }

// OpaqueBounds returns the element-space bounds of the opaque region.
func (fm *FrameMask) OpaqueBounds() accel.Rect { return fm.opaque }

// PixelSize returns the smaller element-space extent of one mask pixel.
func (fm *FrameMask) PixelSize() float64 {
	if fm.width == 0 || fm.height == 0 {
		return 1
	}
	return min(fm.frame.Width/float64(fm.width), fm.frame.Height/float64(fm.height))
}

// opaqueAt reports whether the pixel under element point p is opaque.
// Everything outside the frame is transparent.
func (fm *FrameMask) opaqueAt(m accel.Module, p accel.Point) bool {
	q := m.Transform(fm.toPixel, p)
	if q.X < 0 || q.Y < 0 {
		return false
	}
	x, y := int(q.X), int(q.Y)
	if x >= fm.width || y >= fm.height {
		return false
	}
	return fm.alpha[y*fm.width+x] >= fm.threshold
}

// Masker restricts a primitive list to the opaque region of a frame mask
// when the bounded view is active.
type Masker struct {
	m      accel.Module
	mask   *FrameMask
	logger hclog.Logger
	warned bool

	buf []accel.Point
}

// NewMasker returns a frame mask compositor. mask may be nil until the frame
// asset is available.
func NewMasker(m accel.Module, mask *FrameMask, logger hclog.Logger) *Masker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Masker{m: m, mask: mask, logger: logger.Named("mask")}
}

// SetMask replaces the frame mask. A nil mask disables clipping.
func (mk *Masker) SetMask(mask *FrameMask) {
	mk.mask = mask
	mk.warned = false
}

// Mask returns the current frame mask, or nil.
func (mk *Masker) Mask() *FrameMask { return mk.mask }

// Compose returns list clipped to the opaque frame region when bounded is
// set. Paths are cut into their opaque runs, dots outside are dropped and
// boxed or filled content with no opaque overlap is dropped. Content that
// straddles the boundary is kept whole; the DestinationIn mask primitive
// appended as the last sibling removes its transparent part, either by
// compositing or by covering the mask's Cutouts and everything outside its
// Bounds. Without a mask the list is returned unchanged.
func (mk *Masker) Compose(list []Primitive, bounded bool) []Primitive {
	if !bounded {
		return list
	}
	if mk.mask == nil {
		if !mk.warned {
			mk.logger.Warn("bounded view requested without a frame mask, showing unmasked")
			mk.warned = true
		}
		return list
	}

	out := make([]Primitive, 0, len(list)+1)
	for _, p := range list {
		switch p.Op {
		case OpStrokePath, OpDashedPath:
			out = mk.clipPath(out, p)
		case OpDots:
			if q, ok := mk.clipDots(p); ok {
				out = append(out, q)
			}
		case OpMask:
			// a previous pass already masked this list
		default:
			if mk.touchesOpaque(p) {
				out = append(out, p)
			}
		}
	}
	return append(out, Primitive{
		Owner:     MaskOwner,
		Op:        OpMask,
		Bounds:    mk.mask.frame,
		Transform: accel.Identity(),
		Opacity:   1,
		Composite: DestinationIn,
		Cutouts:   mk.mask.cutouts,
	})
}

// clipPath splits a path into the runs whose samples fall on opaque pixels.
func (mk *Masker) clipPath(dst []Primitive, p Primitive) []Primitive {
	pts := p.Points
	if p.Closed && len(pts) > 2 {
		pts = append(append([]accel.Point(nil), pts...), pts[0])
	}
	if len(pts) == 0 {
		return dst
	}

	step := mk.mask.PixelSize()
	mk.buf = mk.buf[:0]
	for i := 1; i < len(pts); i++ {
		mk.buf = mk.m.Subdivide(pts[i-1], pts[i], step, mk.buf)
	}
	mk.buf = append(mk.buf, pts[len(pts)-1])

	var run []accel.Point
	var travelled, runStart float64
	flush := func() {
		if len(run) >= 2 {
			q := p
			q.Points = run
			q.Closed = false
			if q.Op == OpDashedPath {
				q.DashOffset = p.DashOffset + runStart
			}
			dst = append(dst, q)
		}
		run = nil
	}
	for i, s := range mk.buf {
		if i > 0 {
			travelled += mk.m.Length(mk.buf[i-1 : i+1])
		}
		if !mk.mask.opaqueAt(mk.m, s) {
			flush()
			continue
		}
		if run == nil {
			runStart = travelled
		}
		run = append(run, s)
	}
	flush()
	return dst
}

func (mk *Masker) clipDots(p Primitive) (Primitive, bool) {
	kept := make([]Dot, 0, len(p.Dots))
	for _, d := range p.Dots {
		if mk.mask.opaqueAt(mk.m, d.Point) {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return Primitive{}, false
	}
	p.Dots = kept
	return p, true
}

// touchesOpaque reports whether the transformed extent of a boxed or filled
// primitive overlaps the opaque region at all.
func (mk *Masker) touchesOpaque(p Primitive) bool {
	if mk.mask.opaque.Empty() {
		return false
	}
	var extent accel.Rect
	if len(p.Points) > 0 {
		extent = mk.m.Bounds(p.Points)
	} else {
		b := p.Bounds
		corners := []accel.Point{
			{X: b.X, Y: b.Y}, {X: b.Right(), Y: b.Y},
			{X: b.Right(), Y: b.Bottom()}, {X: b.X, Y: b.Bottom()},
		}
		extent = mk.m.Bounds(mk.m.TransformBatch(p.Transform, corners, corners))
	}
	// zero-area extents (a horizontal line) still count when they cross
	extent.Width = max(extent.Width, 1e-9)
	extent.Height = max(extent.Height, 1e-9)
	return mk.m.RectsOverlap(extent, mk.mask.opaque)
}

package ui

import (
	"image"
	"image/color"
	"math"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/render"
)

var placeholderColor = color.NRGBA{R: 200, G: 200, B: 205, A: 255}

// objectsFor appends one flat canvas object per drawable piece of list,
// mapped to the surface by xf.
func (b *BoardWidget) objectsFor(dst []fyne.CanvasObject, list []render.Primitive, xf accel.Affine) []fyne.CanvasObject {
	zoom := math.Hypot(xf.A, xf.D)
	for i := range list {
		p := &list[i]
		switch p.Op {
		case render.OpStrokePath:
			pts := screenPoints(p.Points, p.Closed, xf)
			if p.Glow != nil && p.Glow.Radius > 0 {
				glow := withAlpha(p.Color, p.Glow.Opacity)
				dst = appendPolyline(dst, pts, glow, (p.Width+2*p.Glow.Radius)*zoom)
			}
			dst = appendPolyline(dst, pts, withAlpha(p.Color, p.Opacity), p.Width*zoom)

		case render.OpDashedPath:
			pts := screenPoints(p.Points, p.Closed, xf)
			c := withAlpha(p.Color, p.Opacity)
			for _, run := range dashRuns(pts, scaled(p.Dash, zoom), p.DashOffset*zoom) {
				dst = appendPolyline(dst, run, c, p.Width*zoom)
			}

		case render.OpFillPath:
			if obj := fillObject(screenPoints(p.Points, false, xf), withAlpha(p.Color, p.Opacity)); obj != nil {
				dst = append(dst, obj)
			}

		case render.OpDots:
			for _, d := range p.Dots {
				c := xf.Apply(d.Point)
				r := float32(d.Radius * zoom)
				dot := canvas.NewCircle(withAlpha(p.Color, p.Opacity*d.Opacity))
				dot.Move(fyne.NewPos(float32(c.X)-r, float32(c.Y)-r))
				dot.Resize(fyne.NewSize(2*r, 2*r))
				dst = append(dst, dot)
			}

		case render.OpText:
			place := placement(p.Transform)
			if place != accel.Identity() {
				if obj := b.turnedText(p, place, xf, zoom); obj != nil {
					dst = append(dst, obj)
					continue
				}
			}
			origin := xf.Apply(place.Apply(accel.Pt(p.Bounds.X, p.Bounds.Y)))
			size := float32(p.FontSize * zoom)
			for n, line := range strings.Split(p.Text, "\n") {
				t := canvas.NewText(line, withAlpha(p.Color, p.Opacity))
				t.TextSize = size
				t.Move(fyne.NewPos(float32(origin.X), float32(origin.Y)+float32(n)*size*1.15))
				dst = append(dst, t)
			}

		case render.OpImage:
			box := screenBox(p.Bounds, p.Transform, xf)
			var obj fyne.CanvasObject
			if img := b.bitmap(p.Source); img != nil {
				ci := canvas.NewImageFromImage(img)
				ci.FillMode = canvas.ImageFillStretch
				ci.Translucency = 1 - p.Opacity
				obj = ci
			} else {
				ph := canvas.NewRectangle(color.Transparent)
				ph.StrokeColor = placeholderColor
				ph.StrokeWidth = 1
				obj = ph
			}
			obj.Move(fyne.NewPos(float32(box.X), float32(box.Y)))
			obj.Resize(fyne.NewSize(float32(box.Width), float32(box.Height)))
			dst = append(dst, obj)

		case render.OpMask:
			dst = b.appendMask(dst, p, xf)
		}
	}
	return dst
}

// appendMask covers everything outside the frame's opaque region with the
// background: rectangles around the frame box, then the transparent pixels
// inside it. The canvas has no destination-in compositing, so the cover is
// drawn on top instead.
func (b *BoardWidget) appendMask(dst []fyne.CanvasObject, p *render.Primitive, xf accel.Affine) []fyne.CanvasObject {
	mask := b.session.FrameMask()
	if mask == nil {
		return dst
	}
	if b.overlay != mask {
		cov := mask.Coverage()
		img := image.NewNRGBA(cov.Bounds())
		for i, a := range cov.Pix {
			if a == 0 {
				img.Pix[4*i] = backgroundColor.R
				img.Pix[4*i+1] = backgroundColor.G
				img.Pix[4*i+2] = backgroundColor.B
				img.Pix[4*i+3] = 0xff
			}
		}
		b.overlay, b.coverImg = mask, img
	}
	box := screenBox(p.Bounds, p.Transform, xf)

	size := b.Size()
	w, h := float64(size.Width), float64(size.Height)
	top, bottom := max(box.Y, 0), min(box.Bottom(), h)
	for _, r := range []accel.Rect{
		{X: 0, Y: 0, Width: w, Height: top},
		{X: 0, Y: bottom, Width: w, Height: h - bottom},
		{X: 0, Y: top, Width: box.X, Height: bottom - top},
		{X: box.Right(), Y: top, Width: w - box.Right(), Height: bottom - top},
	} {
		if r.Empty() {
			continue
		}
		cover := canvas.NewRectangle(backgroundColor)
		cover.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
		cover.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
		dst = append(dst, cover)
	}

	ci := canvas.NewImageFromImage(b.coverImg)
	ci.FillMode = canvas.ImageFillStretch
	ci.Move(fyne.NewPos(float32(box.X), float32(box.Y)))
	ci.Resize(fyne.NewSize(float32(box.Width), float32(box.Height)))
	return append(dst, ci)
}

// turnedText draws rotated or flipped text, which canvas text cannot do, by
// setting it into a bitmap and mapping that through the element transform.
func (b *BoardWidget) turnedText(p *render.Primitive, place, xf accel.Affine, zoom float64) fyne.CanvasObject {
	if b.glyphs == nil {
		tm, err := render.NewTextMeasurer()
		if err != nil {
			b.logger.Warn("text rasterizer unavailable", "error", err)
			return nil
		}
		b.glyphs = tm
	}
	src, err := b.glyphs.Rasterize(p.Text, p.FontSize*zoom, withAlpha(p.Color, p.Opacity))
	if err != nil {
		b.logger.Debug("text not rasterized", "error", err)
		return nil
	}

	box := screenBox(p.Bounds, p.Transform, xf)
	if box.Width < 1 || box.Height < 1 {
		return nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, int(math.Ceil(box.Width)), int(math.Ceil(box.Height))))
	m := accel.Translate(-box.X, -box.Y).
		Multiply(xf).
		Multiply(place).
		Multiply(accel.Translate(p.Bounds.X, p.Bounds.Y)).
		Multiply(accel.Scale(1/zoom, 1/zoom))
	draw.BiLinear.Transform(dst, f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}, src, src.Bounds(), draw.Over, nil)

	ci := canvas.NewImageFromImage(dst)
	ci.FillMode = canvas.ImageFillStretch
	ci.Move(fyne.NewPos(float32(box.X), float32(box.Y)))
	ci.Resize(fyne.NewSize(float32(dst.Bounds().Dx()), float32(dst.Bounds().Dy())))
	return ci
}

func screenPoints(pts []accel.Point, closed bool, xf accel.Affine) []accel.Point {
	out := make([]accel.Point, 0, len(pts)+1)
	for _, p := range pts {
		out = append(out, xf.Apply(p))
	}
	if closed && len(pts) > 2 {
		out = append(out, out[0])
	}
	return out
}

// screenBox returns the axis-aligned screen bounds of a placed box.
func screenBox(r accel.Rect, place, xf accel.Affine) accel.Rect {
	m := xf.Multiply(placement(place))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range []accel.Point{
		{X: r.X, Y: r.Y}, {X: r.Right(), Y: r.Y},
		{X: r.X, Y: r.Bottom()}, {X: r.Right(), Y: r.Bottom()},
	} {
		q := m.Apply(c)
		minX, minY = min(minX, q.X), min(minY, q.Y)
		maxX, maxY = max(maxX, q.X), max(maxY, q.Y)
	}
	return accel.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// placement treats an unset transform as identity.
func placement(m accel.Affine) accel.Affine {
	if m == (accel.Affine{}) {
		return accel.Identity()
	}
	return m
}

func appendPolyline(dst []fyne.CanvasObject, pts []accel.Point, c color.NRGBA, width float64) []fyne.CanvasObject {
	if len(pts) == 1 {
		r := float32(width / 2)
		dot := canvas.NewCircle(c)
		dot.Move(fyne.NewPos(float32(pts[0].X)-r, float32(pts[0].Y)-r))
		dot.Resize(fyne.NewSize(2*r, 2*r))
		return append(dst, dot)
	}
	for i := 1; i < len(pts); i++ {
		seg := canvas.NewLine(c)
		seg.StrokeWidth = float32(width)
		seg.Position1 = fyne.NewPos(float32(pts[i-1].X), float32(pts[i-1].Y))
		seg.Position2 = fyne.NewPos(float32(pts[i].X), float32(pts[i].Y))
		dst = append(dst, seg)
	}
	return dst
}

// fillObject rasterizes a closed polygon into an image sized to its bounds.
func fillObject(pts []accel.Point, c color.NRGBA) fyne.CanvasObject {
	if len(pts) < 3 {
		return nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, minY = min(minX, p.X), min(minY, p.Y)
		maxX, maxY = max(maxX, p.X), max(maxY, p.Y)
	}
	w, h := int(math.Ceil(maxX-minX)), int(math.Ceil(maxY-minY))
	if w <= 0 || h <= 0 {
		return nil
	}

	z := vector.NewRasterizer(w, h)
	z.MoveTo(float32(pts[0].X-minX), float32(pts[0].Y-minY))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-minX), float32(p.Y-minY))
	}
	z.ClosePath()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})

	ci := canvas.NewImageFromImage(img)
	ci.FillMode = canvas.ImageFillStretch
	ci.ScaleMode = canvas.ImageScaleSmooth
	ci.Move(fyne.NewPos(float32(minX), float32(minY)))
	ci.Resize(fyne.NewSize(float32(w), float32(h)))
	return ci
}

// dashRuns splits a polyline into its "on" runs. offset shifts the pattern
// start along the path.
func dashRuns(pts []accel.Point, dash []float64, offset float64) [][]accel.Point {
	var period float64
	for _, d := range dash {
		period += d
	}
	if len(pts) < 2 || period <= 0 {
		return [][]accel.Point{pts}
	}

	idx, on := 0, true
	left := dash[0]
	pos := math.Mod(offset, period)
	if pos < 0 {
		pos += period
	}
	for pos > 0 {
		if pos < left {
			left -= pos
			break
		}
		pos -= left
		idx = (idx + 1) % len(dash)
		left = dash[idx]
		on = !on
	}

	var runs [][]accel.Point
	var cur []accel.Point
	if on {
		cur = []accel.Point{pts[0]}
	}
	for i := 1; i < len(pts); i++ {
		a, bp := pts[i-1], pts[i]
		seg := math.Hypot(bp.X-a.X, bp.Y-a.Y)
		done := 0.0
		for seg-done > left {
			done += left
			q := accel.Pt(a.X+(bp.X-a.X)/seg*done, a.Y+(bp.Y-a.Y)/seg*done)
			if on {
				runs = append(runs, append(cur, q))
				cur = nil
			} else {
				cur = []accel.Point{q}
			}
			on = !on
			idx = (idx + 1) % len(dash)
			left = dash[idx]
		}
		left -= seg - done
		if on {
			cur = append(cur, bp)
		}
	}
	if on && len(cur) > 1 {
		runs = append(runs, cur)
	}
	return runs
}

func scaled(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}

func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * max(0, min(1, opacity))))
	return c
}

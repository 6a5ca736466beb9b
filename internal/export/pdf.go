// Package export writes rendered plates to print formats.
package export

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/render"
)

// Options control the page produced by WritePDF.
type Options struct {
	// Frame is the element-space area printed on the page. One element unit
	// is one PDF point.
	Frame accel.Rect
	// Bleed extends the page by this many units on every side.
	Bleed float64
	// Assets is the directory relative image sources are resolved against.
	Assets string
}

// ExportPDF writes list to a new PDF file at path.
func ExportPDF(path string, list []render.Primitive, opts Options, logger hclog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create pdf")
	}
	if err := WritePDF(f, list, opts, logger); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close pdf")
}

// WritePDF draws list onto a single page sized to the frame. A trailing mask
// primitive clips the page to its bounds and paints the page colour over its
// cutouts, so content straddling the opaque boundary is trimmed.
func WritePDF(w io.Writer, list []render.Primitive, opts Options, logger hclog.Logger) error {
	if opts.Frame.Empty() {
		return errors.New("export: empty frame")
	}
	return newPDFWriter(opts, logger).write(w, list)
}

func newPDFWriter(opts Options, logger hclog.Logger) *pdfWriter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	pw := &pdfWriter{
		pdf: gofpdf.NewCustom(&gofpdf.InitType{
			UnitStr: "pt",
			Size: gofpdf.SizeType{
				Wd: opts.Frame.Width + 2*opts.Bleed,
				Ht: opts.Frame.Height + 2*opts.Bleed,
			},
		}),
		m:      accel.NewNative(),
		origin: accel.Translate(opts.Bleed-opts.Frame.X, opts.Bleed-opts.Frame.Y),
		assets: opts.Assets,
		logger: logger.Named("pdf"),
	}
	pw.pdf.SetMargins(0, 0, 0)
	pw.pdf.SetAutoPageBreak(false, 0)
	return pw
}

func (pw *pdfWriter) write(w io.Writer, list []render.Primitive) error {
	pw.pdf.AddPage()

	var mask *render.Primitive
	if n := len(list); n > 0 && list[n-1].Op == render.OpMask {
		mask = &list[n-1]
		r := pw.rect(mask.Bounds)
		pw.pdf.ClipRect(r.X, r.Y, r.Width, r.Height, false)
		list = list[:n-1]
	}
	for i := range list {
		pw.draw(&list[i])
	}
	if mask != nil {
		pw.cover(mask.Cutouts)
		pw.pdf.ClipEnd()
	}

	if err := pw.pdf.Output(w); err != nil {
		return errors.Wrap(err, "write pdf")
	}
	pw.logger.Debug("pdf written", "primitives", len(list))
	return nil
}

type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	m      accel.Module
	origin accel.Affine
	assets string
	logger hclog.Logger
	buf    []accel.Point
}

func (pw *pdfWriter) rect(r accel.Rect) accel.Rect {
	p := pw.m.Transform(pw.origin, accel.Pt(r.X, r.Y))
	return accel.Rect{X: p.X, Y: p.Y, Width: r.Width, Height: r.Height}
}

func (pw *pdfWriter) points(pts []accel.Point) []gofpdf.PointType {
	pw.buf = pw.m.TransformBatch(pw.origin, pts, pw.buf)
	out := make([]gofpdf.PointType, len(pw.buf))
	for i, p := range pw.buf {
		out[i] = gofpdf.PointType{X: p.X, Y: p.Y}
	}
	return out
}

func (pw *pdfWriter) alpha(p *render.Primitive, extra float64) {
	a := float64(p.Color.A) / 255 * p.Opacity * extra
	pw.pdf.SetAlpha(max(0, min(1, a)), "Normal")
}

func (pw *pdfWriter) draw(p *render.Primitive) {
	c := p.Color
	switch p.Op {
	case render.OpStrokePath, render.OpDashedPath:
		if len(p.Points) == 0 {
			return
		}
		pts := pw.points(p.Points)
		pw.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
		pw.pdf.SetLineCapStyle("round")
		pw.pdf.SetLineJoinStyle("round")
		if p.Glow != nil && p.Glow.Radius > 0 {
			pw.pdf.SetLineWidth(p.Width + 2*p.Glow.Radius)
			pw.pdf.SetAlpha(max(0, min(1, p.Glow.Opacity)), "Normal")
			pw.path(pts, p.Closed)
		}
		if p.Op == render.OpDashedPath {
			pw.pdf.SetDashPattern(p.Dash, p.DashOffset)
		}
		pw.pdf.SetLineWidth(p.Width)
		pw.alpha(p, 1)
		pw.path(pts, p.Closed)
		if p.Op == render.OpDashedPath {
			pw.pdf.SetDashPattern([]float64{}, 0)
		}

	case render.OpFillPath:
		if len(p.Points) < 3 {
			return
		}
		pw.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		pw.alpha(p, 1)
		pw.pdf.Polygon(pw.points(p.Points), "F")

	case render.OpDots:
		pw.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		for _, d := range p.Dots {
			q := pw.m.Transform(pw.origin, d.Point)
			pw.alpha(p, d.Opacity)
			pw.pdf.Circle(q.X, q.Y, d.Radius, "F")
		}

	case render.OpText:
		pw.boxed(p, func(r accel.Rect) {
			pw.pdf.SetFont("Helvetica", "", p.FontSize)
			pw.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
			pw.alpha(p, 1)
			for i, line := range strings.Split(p.Text, "\n") {
				pw.pdf.Text(r.X, r.Y+p.FontSize*(0.8+1.15*float64(i)), line)
			}
		})

	case render.OpImage:
		pw.boxed(p, func(r accel.Rect) { pw.image(p, r) })
	}
}

// cover paints the blank page colour over the cutouts of a mask.
func (pw *pdfWriter) cover(cutouts []accel.Rect) {
	if len(cutouts) == 0 {
		return
	}
	pw.pdf.SetAlpha(1, "Normal")
	pw.pdf.SetFillColor(255, 255, 255)
	for _, c := range cutouts {
		r := pw.rect(c)
		pw.pdf.Rect(r.X, r.Y, r.Width, r.Height, "F")
	}
}

func (pw *pdfWriter) path(pts []gofpdf.PointType, closed bool) {
	if closed {
		pw.pdf.Polygon(pts, "D")
		return
	}
	pw.pdf.MoveTo(pts[0].X, pts[0].Y)
	for _, q := range pts[1:] {
		pw.pdf.LineTo(q.X, q.Y)
	}
	if len(pts) == 1 {
		pw.pdf.LineTo(pts[0].X, pts[0].Y)
	}
	pw.pdf.DrawPath("D")
}

// boxed runs fn with the page transformed by the primitive's placement.
// Element transforms are a rotation about the box centre, optionally
// preceded by a mirror.
func (pw *pdfWriter) boxed(p *render.Primitive, fn func(r accel.Rect)) {
	r := pw.rect(p.Bounds)
	xf := p.Transform
	if xf == (accel.Affine{}) || xf == accel.Identity() {
		fn(r)
		return
	}
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	mirrored := xf.A*xf.E-xf.B*xf.D < 0
	angle := math.Atan2(xf.D, xf.A)
	if mirrored {
		angle = math.Atan2(-xf.D, -xf.A)
	}

	pw.pdf.TransformBegin()
	// gofpdf rotates counter-clockwise on the page
	pw.pdf.TransformRotate(-angle*180/math.Pi, cx, cy)
	if mirrored {
		pw.pdf.TransformMirrorHorizontal(cx)
	}
	fn(r)
	pw.pdf.TransformEnd()
}

func (pw *pdfWriter) image(p *render.Primitive, r accel.Rect) {
	src := p.Source
	if src != "" && !filepath.IsAbs(src) && pw.assets != "" {
		src = filepath.Join(pw.assets, src)
	}
	if _, err := os.Stat(src); err == nil {
		pw.alpha(p, 1)
		pw.pdf.ImageOptions(src, r.X, r.Y, r.Width, r.Height, false, gofpdf.ImageOptions{ReadDpi: false}, 0, "")
		if pw.pdf.Ok() {
			return
		}
		pw.logger.Warn("image not embedded", "source", p.Source, "error", pw.pdf.Error())
		pw.pdf.ClearError()
	} else {
		pw.logger.Warn("image source not found", "source", p.Source)
	}

	// placeholder
	pw.pdf.SetAlpha(1, "Normal")
	pw.pdf.SetDrawColor(160, 160, 160)
	pw.pdf.SetFillColor(235, 235, 235)
	pw.pdf.SetLineWidth(1)
	pw.pdf.Rect(r.X, r.Y, r.Width, r.Height, "FD")
	pw.pdf.Line(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	pw.pdf.Line(r.X+r.Width, r.Y, r.X, r.Y+r.Height)
}

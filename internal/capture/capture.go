// Package capture turns pointer samples into finalized paint strokes.
//
// A stroke buffer is opened on pointer-down, grows on throttled pointer-move
// and is either smoothed into a state.Element on pointer-up or discarded.
package capture

import (
	"time"

	"github.com/hashicorp/go-hclog"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/state"
	"PlateStudio/internal/view"
)

// Defaults used by DefaultOptions.
const (
	DefaultInterval = time.Second / 60
	DefaultSegments = 8
	DefaultTension  = 0.5
)

// Options tune sampling and smoothing.
type Options struct {
	// Interval is the minimum time between accepted samples. Moves arriving
	// sooner are dropped.
	Interval time.Duration
	// Segments is the number of sub-points generated per captured segment.
	Segments int
	// Tension scales the spline tangents; 0 keeps the raw polyline and 0.5
	// is a uniform Catmull-Rom curve.
	Tension float64
}

// DefaultOptions samples at 60Hz and smooths with a uniform Catmull-Rom
// curve.
func DefaultOptions() Options {
	return Options{Interval: DefaultInterval, Segments: DefaultSegments, Tension: DefaultTension}
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Segments <= 0 {
		o.Segments = DefaultSegments
	}
	if o.Tension < 0 || o.Tension > 1 {
		o.Tension = DefaultTension
	}
	return o
}

// Style is the paint configuration frozen into a stroke when it begins.
type Style struct {
	Brush     state.BrushKind
	Color     string
	Thickness float64
	Opacity   float64
}

// Sample is one accepted pointer position in screen space.
type Sample struct {
	accel.Point
	Pressure float64
	At       time.Time
}

// Engine owns at most one in-progress stroke.
type Engine struct {
	m      accel.Module
	xf     *view.Service
	opts   Options
	logger hclog.Logger

	active  bool
	id      string
	view    view.State
	style   Style
	samples []Sample
	screen  []accel.Point
	preview []accel.Point
}

// NewEngine returns a capture engine using m for smoothing and xf for
// screen to element conversion.
func NewEngine(m accel.Module, xf *view.Service, opts Options, logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{
		m:      m,
		xf:     xf,
		opts:   opts.withDefaults(),
		logger: logger.Named("capture"),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Active reports whether a stroke is being captured.
func (e *Engine) Active() bool { return e.active }

// ID returns the identifier the stroke in progress will be committed under.
// Live previews use it so their seeded brushes match the final rendering.
func (e *Engine) ID() string { return e.id }

// Style returns the style of the stroke in progress.
func (e *Engine) Style() Style { return e.style }

// Begin opens a new buffer at screen point p, discarding any stroke still in
// progress. The view state is frozen for the lifetime of the stroke.
func (e *Engine) Begin(p accel.Point, pressure float64, at time.Time, v view.State, style Style) {
	if e.active {
		e.Abandon()
	}
	e.active = true
	e.id = state.NewID()
	e.view = v
	e.style = style
	e.samples = append(e.samples[:0], Sample{Point: p, Pressure: pressure, At: at})
}

// Move appends p if at least the sampling interval has passed since the last
// accepted sample. It reports whether the sample was kept.
func (e *Engine) Move(p accel.Point, pressure float64, at time.Time) bool {
	if !e.active {
		return false
	}
	last := e.samples[len(e.samples)-1]
	if at.Sub(last.At) < e.opts.Interval {
		return false
	}
	e.samples = append(e.samples, Sample{Point: p, Pressure: pressure, At: at})
	return true
}

// Preview returns the raw samples of the stroke in progress in element
// space. The slice is reused by the next call.
func (e *Engine) Preview() []accel.Point {
	if !e.active {
		return nil
	}
	e.screen = e.screen[:0]
	for _, s := range e.samples {
		e.screen = append(e.screen, s.Point)
	}
	e.preview = e.xf.ToElementBatch(e.screen, e.preview, e.view)
	return e.preview
}

// Abandon discards the stroke in progress without committing anything.
func (e *Engine) Abandon() {
	if e.active {
		e.logger.Debug("stroke abandoned", "samples", len(e.samples))
	}
	e.active = false
	e.id = ""
	e.samples = e.samples[:0]
}

// End records the release position p, even when it falls inside the
// sampling interval, and finalizes the stroke.
func (e *Engine) End(p accel.Point, pressure float64, at time.Time) (state.Element, bool) {
	if !e.active {
		return state.Element{}, false
	}
	if last := e.samples[len(e.samples)-1]; last.Point != p {
		e.samples = append(e.samples, Sample{Point: p, Pressure: pressure, At: at})
	}
	return e.Finalize()
}

// Finalize smooths the captured samples and returns the stroke element with
// points relative to its bounding box. Buffers with fewer than two samples
// are discarded and ok is false. The engine is idle afterwards either way.
func (e *Engine) Finalize() (el state.Element, ok bool) {
	if !e.active {
		return state.Element{}, false
	}
	defer func() {
		e.active = false
		e.id = ""
		e.samples = e.samples[:0]
	}()

	if len(e.samples) < 2 {
		e.logger.Debug("stroke discarded", "samples", len(e.samples))
		return state.Element{}, false
	}

	raw := e.Preview()
	smooth := e.m.CatmullRom(raw, e.opts.Segments, e.opts.Tension)
	box := e.m.Bounds(smooth)
	local := e.m.TransformBatch(accel.Translate(-box.X, -box.Y), smooth, nil)

	points := make([]state.StrokePoint, len(local))
	for i, p := range local {
		pressure, t := e.interpolate(i)
		points[i] = state.StrokePoint{Point: p, Pressure: pressure, T: t}
	}

	el = state.Element{
		ID:      e.id,
		Kind:    state.KindStroke,
		X:       box.X,
		Y:       box.Y,
		Width:   box.Width,
		Height:  box.Height,
		Opacity: e.style.Opacity,
		Stroke: &state.StrokeData{
			Points:    points,
			Brush:     e.style.Brush,
			Color:     e.style.Color,
			Thickness: e.style.Thickness,
		},
	}
	e.logger.Debug("stroke finalized", "id", el.ID, "samples", len(e.samples), "points", len(points))
	return el, true
}

// interpolate returns the pressure and capture offset (ms) for the k-th
// smoothed point by blending the two samples of its segment.
func (e *Engine) interpolate(k int) (float64, int64) {
	seg := k / e.opts.Segments
	if seg >= len(e.samples)-1 {
		last := e.samples[len(e.samples)-1]
		return last.Pressure, e.since(last.At)
	}
	f := float64(k%e.opts.Segments) / float64(e.opts.Segments)
	a, b := e.samples[seg], e.samples[seg+1]
	pressure := a.Pressure + (b.Pressure-a.Pressure)*f
	ta, tb := e.since(a.At), e.since(b.At)
	return pressure, ta + int64(float64(tb-ta)*f)
}

func (e *Engine) since(t time.Time) int64 {
	return t.Sub(e.samples[0].At).Milliseconds()
}

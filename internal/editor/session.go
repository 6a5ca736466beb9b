// Package editor drives a single design surface: it routes pointer input to
// the active tool, keeps the scene and its undo history, places new content
// and produces the primitive list a backend draws.
package editor

import (
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/capture"
	"PlateStudio/internal/config"
	"PlateStudio/internal/render"
	"PlateStudio/internal/state"
	"PlateStudio/internal/view"
)

// Session is not safe for concurrent use; every call is expected on the UI
// goroutine.
type Session struct {
	cfg      config.Config
	rt       *accel.Runtime
	settings SettingsProvider
	logger   hclog.Logger

	view    view.State
	scene   *state.Scene
	history *state.History
	frame   accel.Rect
	mask    *render.FrameMask
	placed  uint64

	// bound once the runtime reports ready
	m       accel.Module
	xf      *view.Service
	capture *capture.Engine
	eraser  *state.Eraser
	spaces  *state.SpaceManager
	brushes *render.Brushes
	layers  *render.Layers
	masker  *render.Masker
	text    *render.TextMeasurer

	drag      Tool
	last      accel.Point
	lastErase time.Time
	erased    bool
}

// New returns a session over an empty scene. settings may be nil, in which
// case DefaultSettings apply.
func New(cfg config.Config, rt *accel.Runtime, settings SettingsProvider, logger hclog.Logger) *Session {
	if settings == nil {
		settings = StaticSettings(DefaultSettings())
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Session{
		cfg:      cfg,
		rt:       rt,
		settings: settings,
		logger:   logger.Named("editor"),
		view:     view.NewState(cfg.View.Margin),
		scene:    state.NewScene(logger),
		history:  state.NewHistory(cfg.History),
		frame:    accel.Rect{Width: cfg.Frame.Width, Height: cfg.Frame.Height},
	}
}

// bind resolves the computation module and builds the components that need
// it. It fails with accel.ErrModuleNotReady until the runtime is ready.
func (s *Session) bind() error {
	if s.m != nil {
		return nil
	}
	m, err := s.rt.Module()
	if err != nil {
		return err
	}
	text, err := render.NewTextMeasurer()
	if err != nil {
		return errors.Wrap(err, "text measurer")
	}

	s.m = m
	s.xf = view.NewService(m, s.cfg.View.MinZoom, s.cfg.View.MaxZoom)
	s.capture = capture.NewEngine(m, s.xf, capture.Options{
		Interval: s.cfg.Capture.Interval.Duration,
		Segments: s.cfg.Capture.Segments,
		Tension:  s.cfg.Capture.Tension,
	}, s.logger)
	s.eraser = state.NewEraser(m, s.cfg.Eraser.Mode)
	s.spaces = state.NewSpaceManager(m, s.cfg.Spawn.Attempts, s.spawnFallback(), s.logger)
	s.brushes = render.NewBrushes(m, s.cfg.Brush)
	s.layers = render.NewLayers(m, s.brushes)
	s.masker = render.NewMasker(m, s.mask, s.logger)
	s.text = text
	s.logger.Info("session bound", "module", m.Name())
	return nil
}

// Ready binds the session if the runtime is ready and reports the outcome.
func (s *Session) Ready() error { return s.bind() }

// SetFrameMask installs the mask used by bounded rendering. nil clears it.
func (s *Session) SetFrameMask(mask *render.FrameMask) {
	s.mask = mask
	if mask != nil {
		s.frame = mask.Frame()
	}
	if s.masker != nil {
		s.masker.SetMask(mask)
	}
	if s.spaces != nil {
		s.spaces.SetFallback(s.spawnFallback())
	}
}

// spawnFallback is the position used when no zone has room: the frame origin
// moved in by the configured inset.
func (s *Session) spawnFallback() accel.Point {
	return accel.Pt(s.frame.X+s.cfg.Spawn.Inset, s.frame.Y+s.cfg.Spawn.Inset)
}

// LoadFrameAsset decodes a frame bitmap from r and installs it as the mask.
// On failure the session keeps rendering unmasked.
func (s *Session) LoadFrameAsset(r io.Reader) error {
	mask, err := render.LoadFrameMask(r, s.frame, s.cfg.Frame.AlphaThreshold)
	if err != nil {
		s.logger.Warn("frame asset unavailable, bounded view disabled", "error", err)
		return err
	}
	s.SetFrameMask(mask)
	return nil
}

// FrameMask returns the installed frame mask, or nil.
func (s *Session) FrameMask() *render.FrameMask { return s.mask }

// Frame returns the plate rectangle in element space.
func (s *Session) Frame() accel.Rect { return s.frame }

// View returns the current view state.
func (s *Session) View() view.State { return s.view }

// ScreenTransform maps element space onto the host surface.
func (s *Session) ScreenTransform() accel.Affine { return view.ScreenTransform(s.view) }

// Elements returns a copy of the scene.
func (s *Session) Elements() []state.Element { return s.scene.Elements() }

// Len returns the number of elements in the scene.
func (s *Session) Len() int { return s.scene.Len() }

// Capturing reports whether a stroke is in progress.
func (s *Session) Capturing() bool { return s.capture != nil && s.capture.Active() }

// PointerDown starts an interaction with the tool currently selected.
func (s *Session) PointerDown(p accel.Point, pressure float64, at time.Time) error {
	if err := s.bind(); err != nil {
		return err
	}
	ts := s.settings.Settings().sanitize()
	s.drag = ts.Tool
	s.last = p
	switch ts.Tool {
	case ToolBrush:
		s.capture.Begin(p, pressure, at, s.view, capture.Style{
			Brush:     ts.Brush,
			Color:     ts.Color,
			Thickness: ts.Thickness,
			Opacity:   ts.Opacity,
		})
	case ToolEraser:
		s.erased = false
		s.lastErase = at
		s.eraseStep(p)
	}
	return nil
}

// PointerMove continues the interaction started by PointerDown. Brush and
// eraser samples arriving faster than the capture interval are dropped.
func (s *Session) PointerMove(p accel.Point, pressure float64, at time.Time) error {
	if err := s.bind(); err != nil {
		return err
	}
	switch s.drag {
	case ToolBrush:
		s.capture.Move(p, pressure, at)
	case ToolEraser:
		if at.Sub(s.lastErase) < s.capture.Options().Interval {
			return nil
		}
		s.lastErase = at
		s.eraseStep(p)
	case ToolPan:
		s.view = view.Pan(s.view, p.X-s.last.X, p.Y-s.last.Y)
		s.last = p
	}
	return nil
}

// PointerUp ends the interaction. A brush stroke with at least two samples is
// committed as one undoable step on top of the scene.
func (s *Session) PointerUp(p accel.Point, pressure float64, at time.Time) error {
	if err := s.bind(); err != nil {
		return err
	}
	tool := s.drag
	s.drag = ""
	switch tool {
	case ToolBrush:
		el, ok := s.capture.End(p, pressure, at)
		if !ok {
			return nil
		}
		s.history.Record(s.scene.Elements())
		el.Rank = s.scene.NextRank()
		s.scene.Add(el)
	case ToolEraser:
		s.eraseStep(p)
		s.erased = false
	case ToolPan:
		s.view = view.Pan(s.view, p.X-s.last.X, p.Y-s.last.Y)
	}
	return nil
}

// PointerCancel abandons the interaction without committing anything.
func (s *Session) PointerCancel() {
	if s.capture != nil {
		s.capture.Abandon()
	}
	s.drag = ""
	s.erased = false
}

// eraseStep erases under screen point p. The first removal of a drag records
// the undo snapshot so a whole drag undoes in one step.
func (s *Session) eraseStep(p accel.Point) {
	center := s.xf.ToElement(p, s.view)
	radius := s.cfg.Eraser.Radius / s.view.Zoom
	ids := s.eraser.Erase(center, radius, s.scene.Strokes())
	if len(ids) == 0 {
		return
	}
	if !s.erased {
		s.history.Record(s.scene.Elements())
		s.erased = true
	}
	s.scene.Remove(ids...)
}

// EraseAt removes every stroke touched by the eraser circle at screen point
// p as a single undoable batch and returns the removed IDs.
func (s *Session) EraseAt(p accel.Point) ([]string, error) {
	if err := s.bind(); err != nil {
		return nil, err
	}
	center := s.xf.ToElement(p, s.view)
	ids := s.eraser.Erase(center, s.cfg.Eraser.Radius/s.view.Zoom, s.scene.Strokes())
	if len(ids) == 0 {
		return nil, nil
	}
	s.history.Record(s.scene.Elements())
	return s.scene.Remove(ids...), nil
}

// Zoom scales the view by factor around screen point c.
func (s *Session) Zoom(factor float64, c accel.Point) error {
	if err := s.bind(); err != nil {
		return err
	}
	s.view = s.xf.ZoomAt(s.view, factor, c)
	return nil
}

// ZoomIn zooms by one configured step around c.
func (s *Session) ZoomIn(c accel.Point) error { return s.Zoom(s.cfg.View.ZoomStep, c) }

// ZoomOut reverses ZoomIn.
func (s *Session) ZoomOut(c accel.Point) error { return s.Zoom(1/s.cfg.View.ZoomStep, c) }

// Pan moves the view by a screen-space delta.
func (s *Session) Pan(dx, dy float64) error {
	if err := s.bind(); err != nil {
		return err
	}
	s.view = view.Pan(s.view, dx, dy)
	return nil
}

// Undo restores the scene as it was before the last committed change.
func (s *Session) Undo() bool {
	if s.Capturing() {
		s.capture.Abandon()
	}
	prev, ok := s.history.Undo(s.scene.Elements())
	if ok {
		s.scene.Replace(prev)
	}
	return ok
}

// Redo reapplies the last undone change.
func (s *Session) Redo() bool {
	next, ok := s.history.Redo(s.scene.Elements())
	if ok {
		s.scene.Replace(next)
	}
	return ok
}

// CanUndo reports whether Undo would change the scene.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would change the scene.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Save writes the scene as JSON element records.
func (s *Session) Save(w io.Writer) error {
	return errors.Wrap(state.Encode(w, s.scene.Items()), "save scene")
}

// Load replaces the scene with the records read from r. The previous scene
// stays on the undo stack.
func (s *Session) Load(r io.Reader) error {
	els, err := state.Decode(r, s.logger)
	if err != nil {
		return errors.Wrap(err, "load scene")
	}
	if s.Capturing() {
		s.capture.Abandon()
	}
	s.history.Record(s.scene.Elements())
	s.scene.Replace(els)
	s.logger.Info("scene loaded", "elements", len(els))
	return nil
}

// Render returns the primitive list for the scene in element space, topped
// by the live stroke preview. With bounded set the list is restricted to the
// frame mask.
func (s *Session) Render(bounded bool) ([]render.Primitive, error) {
	if err := s.bind(); err != nil {
		return nil, err
	}
	list := s.layers.Draw(s.scene.Items())
	if s.capture.Active() {
		if pts := s.capture.Preview(); len(pts) > 0 {
			st := s.capture.Style()
			id := s.capture.ID()
			cfg := s.brushes.Config(id, st.Brush, render.ParseColor(st.Color), st.Thickness, st.Opacity)
			list = append(list, s.brushes.Render(id, pts, cfg)...)
		}
	}
	return s.masker.Compose(list, bounded), nil
}

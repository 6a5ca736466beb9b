package editor

import (
	"github.com/pkg/errors"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/state"
)

// Default sizes for content added without explicit dimensions.
const (
	DefaultFontSize    = 24
	DefaultImageWidth  = 120
	DefaultImageHeight = 90
)

// place runs the spawn planner for a w*h element and returns it positioned,
// ranked and committed as one undoable step.
func (s *Session) place(e state.Element) state.Element {
	zones := state.Zones(s.frame, s.cfg.View.Margin)
	seed := s.cfg.Spawn.Seed + s.placed
	s.placed++
	p := s.spaces.Place(e.Width, e.Height, zones, s.scene.Boxes(), s.cfg.Spawn.GridSize, seed)

	s.history.Record(s.scene.Elements())
	e.X, e.Y = p.X, p.Y
	e.Rank = s.scene.NextRank()
	if e.Opacity == 0 {
		e.Opacity = 1
	}
	return s.scene.Add(e)
}

// AddText places a text element sized to its content.
func (s *Session) AddText(content string, size float64, color string) (state.Element, error) {
	if err := s.bind(); err != nil {
		return state.Element{}, err
	}
	if size <= 0 {
		size = DefaultFontSize
	}
	w, h, err := s.text.Measure(content, size)
	if err != nil {
		return state.Element{}, errors.Wrap(err, "measure text")
	}
	return s.place(state.Element{
		Kind:   state.KindText,
		Width:  w,
		Height: h,
		Text:   &state.TextData{Content: content, FontSize: size, Color: color},
	}), nil
}

// AddImage places an image element referring to source.
func (s *Session) AddImage(source string, w, h float64) (state.Element, error) {
	if err := s.bind(); err != nil {
		return state.Element{}, err
	}
	if w <= 0 || h <= 0 {
		w, h = DefaultImageWidth, DefaultImageHeight
	}
	return s.place(state.Element{
		Kind:   state.KindImage,
		Width:  w,
		Height: h,
		Image:  &state.ImageData{Source: source},
	}), nil
}

// AddShape places a rectangle or ellipse.
func (s *Session) AddShape(shape state.ShapeData, w, h float64) (state.Element, error) {
	if err := s.bind(); err != nil {
		return state.Element{}, err
	}
	switch shape.Shape {
	case state.ShapeRect, state.ShapeEllipse:
	default:
		return state.Element{}, errors.Errorf("unknown shape %q", shape.Shape)
	}
	if w <= 0 || h <= 0 {
		return state.Element{}, errors.Errorf("invalid shape size %vx%v", w, h)
	}
	shape.Dash = append([]float64(nil), shape.Dash...)
	return s.place(state.Element{
		Kind:   state.KindShape,
		Width:  w,
		Height: h,
		Shape:  &shape,
	}), nil
}

// update applies fn to element id as one undoable step.
func (s *Session) update(id string, fn func(e *state.Element)) error {
	if _, ok := s.scene.Get(id); !ok {
		return errors.Errorf("element %s not found", id)
	}
	els := s.scene.Elements()
	s.history.Record(state.CloneAll(els))
	for i := range els {
		if els[i].ID == id {
			fn(&els[i])
		}
	}
	s.scene.Replace(els)
	return nil
}

// Transform sets the rotation (degrees) and flips of element id.
func (s *Session) Transform(id string, rotation float64, flipX, flipY bool) error {
	return s.update(id, func(e *state.Element) {
		e.Rotation = rotation
		e.FlipX, e.FlipY = flipX, flipY
	})
}

// Raise moves element id above every other element.
func (s *Session) Raise(id string) error {
	top := s.scene.NextRank()
	return s.update(id, func(e *state.Element) { e.Rank = top })
}

// Move shifts element id by an element-space delta.
func (s *Session) Move(id string, d accel.Point) error {
	return s.update(id, func(e *state.Element) {
		e.X += d.X
		e.Y += d.Y
	})
}

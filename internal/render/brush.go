package render

import (
	"hash/fnv"
	"image/color"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/state"
)

// BrushConfig is the paint configuration of one stroke. It is one of Solid,
// Diffused or Speckled.
type BrushConfig interface {
	Kind() state.BrushKind
	base() Solid
}

// Solid paints the point sequence as a single stroked path.
type Solid struct {
	Color     color.NRGBA
	Thickness float64
	Opacity   float64
}

// Diffused is a solid path with a soft halo.
type Diffused struct {
	Solid
	GlowRadius  float64
	GlowOpacity float64
}

// Speckled scatters a seeded dot field around every sample point.
type Speckled struct {
	Solid
	Seed          uint64
	DotsPerSample int
	Radius        float64 // scatter radius around each sample
	MinDot        float64 // dot radius range
	MaxDot        float64
}

func (Solid) Kind() state.BrushKind    { return state.BrushSolid }
func (Diffused) Kind() state.BrushKind { return state.BrushDiffused }
func (Speckled) Kind() state.BrushKind { return state.BrushSpeckled }

func (s Solid) base() Solid    { return s }
func (d Diffused) base() Solid { return d.Solid }
func (s Speckled) base() Solid { return s.Solid }

// BrushOptions scale the brush variants relative to stroke thickness.
type BrushOptions struct {
	GlowScale     float64 `toml:"glow_scale"`
	GlowOpacity   float64 `toml:"glow_opacity"`
	DotsPerSample int     `toml:"dots_per_sample"`
	SpeckleScale  float64 `toml:"speckle_scale"`
	MinDotScale   float64 `toml:"min_dot_scale"`
	MaxDotScale   float64 `toml:"max_dot_scale"`
}

// DefaultBrushOptions returns the stock brush proportions.
func DefaultBrushOptions() BrushOptions {
	return BrushOptions{
		GlowScale:     1.5,
		GlowOpacity:   0.35,
		DotsPerSample: 6,
		SpeckleScale:  1.5,
		MinDotScale:   0.1,
		MaxDotScale:   0.35,
	}
}

// Brushes renders strokes by brush kind. Live previews and finalized strokes
// go through the same Render call.
type Brushes struct {
	m    accel.Module
	opts BrushOptions
	buf  []accel.Point
}

// NewBrushes returns a brush renderer.
func NewBrushes(m accel.Module, opts BrushOptions) *Brushes {
	return &Brushes{m: m, opts: opts}
}

// Config builds the brush configuration for a stroke owned by id.
func (b *Brushes) Config(id string, kind state.BrushKind, c color.NRGBA, thickness, opacity float64) BrushConfig {
	solid := Solid{Color: c, Thickness: thickness, Opacity: opacity}
	switch kind {
	case state.BrushDiffused:
		return Diffused{
			Solid:       solid,
			GlowRadius:  thickness * b.opts.GlowScale,
			GlowOpacity: opacity * b.opts.GlowOpacity,
		}
	case state.BrushSpeckled:
		return Speckled{
			Solid:         solid,
			Seed:          Seed(id),
			DotsPerSample: b.opts.DotsPerSample,
			Radius:        thickness * b.opts.SpeckleScale,
			MinDot:        thickness * b.opts.MinDotScale,
			MaxDot:        thickness * b.opts.MaxDotScale,
		}
	}
	return solid
}

// ConfigFor builds the brush configuration of a stroke element.
func (b *Brushes) ConfigFor(e *state.Element) BrushConfig {
	s := e.Stroke
	return b.Config(e.ID, s.Brush, ParseColor(s.Color), s.Thickness, e.Opacity)
}

// Render returns the primitives for a stroke whose absolute points are pts.
// The returned primitives own their geometry.
func (b *Brushes) Render(owner string, pts []accel.Point, cfg BrushConfig) []Primitive {
	if len(pts) == 0 || cfg == nil {
		return nil
	}
	base := cfg.base()
	path := Primitive{
		Owner:   owner,
		Op:      OpStrokePath,
		Points:  append([]accel.Point(nil), pts...),
		Width:   base.Thickness,
		Color:   base.Color,
		Opacity: base.Opacity,
	}

	switch c := cfg.(type) {
	case Diffused:
		path.Glow = &Glow{Radius: c.GlowRadius, Opacity: c.GlowOpacity}
		return []Primitive{path}
	case Speckled:
		return []Primitive{b.speckle(owner, pts, c)}
	}
	return []Primitive{path}
}

// speckle scatters DotsPerSample dots around every point. The sequence is
// seeded per stroke so repaints and previews are stable.
func (b *Brushes) speckle(owner string, pts []accel.Point, c Speckled) Primitive {
	seq := accel.NewSequence(c.Seed)
	dots := make([]Dot, 0, len(pts)*c.DotsPerSample)
	for _, p := range pts {
		b.buf = b.m.Scatter(p, c.Radius, c.DotsPerSample, seq, b.buf[:0])
		for _, q := range b.buf {
			dots = append(dots, Dot{
				Point:   q,
				Radius:  seq.Range(c.MinDot, c.MaxDot),
				Opacity: seq.Range(0.35, 1),
			})
		}
	}
	return Primitive{
		Owner:   owner,
		Op:      OpDots,
		Dots:    dots,
		Color:   c.Color,
		Opacity: c.Opacity,
	}
}

// Seed derives the speckle seed of a stroke from its ID.
func Seed(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}

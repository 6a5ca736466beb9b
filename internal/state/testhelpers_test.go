package state

import (
	"PlateStudio/internal/accel"
)

func stroke(id string, x, y float64, local ...accel.Point) Element {
	pts := make([]StrokePoint, len(local))
	for i, p := range local {
		pts[i] = StrokePoint{Point: p, T: int64(i * 16)}
	}
	return Element{
		ID:      id,
		Kind:    KindStroke,
		X:       x,
		Y:       y,
		Opacity: 1,
		Stroke:  &StrokeData{Points: pts, Brush: BrushSolid, Color: "#000000", Thickness: 3},
	}
}

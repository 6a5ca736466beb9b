package editor

import (
	"PlateStudio/internal/state"
)

// Tool is the active pointer tool.
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
	ToolPan    Tool = "pan"
)

// Thickness and opacity limits applied to tool settings.
const (
	MinThickness = 0.5
	MaxThickness = 200
)

// ToolSettings is the read-only tool configuration supplied by the host.
type ToolSettings struct {
	Tool      Tool
	Brush     state.BrushKind
	Color     string
	Thickness float64
	Opacity   float64
}

// SettingsProvider supplies the current tool settings. The session reads it
// on every pointer-down and never writes back.
type SettingsProvider interface {
	Settings() ToolSettings
}

// StaticSettings is a SettingsProvider that always returns itself.
type StaticSettings ToolSettings

// Settings implements SettingsProvider.
func (s StaticSettings) Settings() ToolSettings { return ToolSettings(s) }

// DefaultSettings is a black solid brush.
func DefaultSettings() ToolSettings {
	return ToolSettings{
		Tool:      ToolBrush,
		Brush:     state.BrushSolid,
		Color:     "#000000",
		Thickness: 3,
		Opacity:   1,
	}
}

// sanitize pulls values into usable ranges without rejecting them.
func (ts ToolSettings) sanitize() ToolSettings {
	switch ts.Tool {
	case ToolBrush, ToolEraser, ToolPan:
	default:
		ts.Tool = ToolBrush
	}
	switch ts.Brush {
	case state.BrushSolid, state.BrushDiffused, state.BrushSpeckled:
	default:
		ts.Brush = state.BrushSolid
	}
	if ts.Color == "" {
		ts.Color = "#000000"
	}
	ts.Thickness = max(MinThickness, min(MaxThickness, ts.Thickness))
	ts.Opacity = max(0, min(1, ts.Opacity))
	return ts
}

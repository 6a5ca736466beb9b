package ui

import (
	"image/color"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/hashicorp/go-hclog"

	"PlateStudio/internal/editor"
	"PlateStudio/internal/export"
	"PlateStudio/internal/render"
	"PlateStudio/internal/state"
)

// maxImageSide bounds the size an imported image is placed at.
const maxImageSide = 200

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Toolbar holds the tool settings the editor session reads on every stroke.
type Toolbar struct {
	settings editor.ToolSettings
	logger   hclog.Logger
}

var _ editor.SettingsProvider = (*Toolbar)(nil)

// NewToolbar starts with the default brush.
func NewToolbar(logger hclog.Logger) *Toolbar {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Toolbar{settings: editor.DefaultSettings(), logger: logger.Named("tools")}
}

// Settings implements editor.SettingsProvider.
func (t *Toolbar) Settings() editor.ToolSettings { return t.settings }

func (t *Toolbar) SetTool(tool editor.Tool)      { t.settings.Tool = tool }
func (t *Toolbar) SetBrush(kind state.BrushKind) { t.settings.Brush = kind }
func (t *Toolbar) SetThickness(v float64)        { t.settings.Thickness = v }
func (t *Toolbar) SetOpacity(v float64)          { t.settings.Opacity = v }

// SetColor selects c and switches back to the brush.
func (t *Toolbar) SetColor(c color.Color) {
	t.settings.Color = render.FormatColor(c)
	t.settings.Tool = editor.ToolBrush
}

// Build lays out the controls driving board inside win.
func (t *Toolbar) Build(board *BoardWidget, win fyne.Window) fyne.CanvasObject {
	center := func() fyne.Position {
		s := board.Size()
		return fyne.NewPos(s.Width/2, s.Height/2)
	}
	zoom := func(in bool) {
		var err error
		if in {
			err = board.Session().ZoomIn(point(center()))
		} else {
			err = board.Session().ZoomOut(point(center()))
		}
		if !board.handle(err) {
			board.Refresh()
		}
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { t.SetTool(editor.ToolBrush) }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { t.SetTool(editor.ToolEraser) }),
		widget.NewToolbarAction(theme.ViewFullScreenIcon(), func() { t.SetTool(editor.ToolPan) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), board.Undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), board.Redo),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { zoom(true) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { zoom(false) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() { t.openScene(board, win) }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { t.saveScene(board, win) }),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() { t.exportPDF(board, win) }),
	)

	brush := widget.NewSelect(
		[]string{string(state.BrushSolid), string(state.BrushDiffused), string(state.BrushSpeckled)},
		func(s string) {
			t.SetBrush(state.BrushKind(s))
			t.SetTool(editor.ToolBrush)
		},
	)
	brush.SetSelected(string(t.settings.Brush))

	colorBox := container.NewHBox(
		newColorSwatch(color.Black, t.SetColor),
		newColorSwatch(color.NRGBA{R: 255, A: 255}, t.SetColor),
		newColorSwatch(color.NRGBA{G: 255, A: 255}, t.SetColor),
		newColorSwatch(color.NRGBA{B: 255, A: 255}, t.SetColor),
		newColorSwatch(color.NRGBA{R: 255, G: 255, A: 255}, t.SetColor),
	)

	thickness := widget.NewSlider(1, 50)
	thickness.SetValue(t.settings.Thickness)
	thickness.OnChanged = t.SetThickness
	opacity := widget.NewSlider(0.1, 1)
	opacity.Step = 0.05
	opacity.SetValue(t.settings.Opacity)
	opacity.OnChanged = t.SetOpacity
	sliders := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), thickness, opacity)

	bounded := widget.NewCheck("Bounded", board.SetBounded)

	add := container.NewHBox(
		widget.NewButton("Text", func() { t.addText(board, win) }),
		widget.NewButton("Rect", func() { t.addShape(board, state.ShapeRect) }),
		widget.NewButton("Ellipse", func() { t.addShape(board, state.ShapeEllipse) }),
		widget.NewButton("Image", func() { t.addImage(board, win) }),
	)

	return container.NewHBox(
		tb,
		widget.NewSeparator(),
		brush,
		colorBox,
		widget.NewLabel("Size / Opacity:"),
		sliders,
		bounded,
		widget.NewSeparator(),
		add,
		layout.NewSpacer(),
	)
}

func (t *Toolbar) addText(board *BoardWidget, win fyne.Window) {
	entry := widget.NewMultiLineEntry()
	dialog.ShowForm("Add text", "Add", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Text", entry),
	}, func(ok bool) {
		if !ok || entry.Text == "" {
			return
		}
		_, err := board.Session().AddText(entry.Text, editor.DefaultFontSize, t.settings.Color)
		if !board.handle(err) {
			board.changed()
		}
	}, win)
}

func (t *Toolbar) addShape(board *BoardWidget, kind state.ShapeKind) {
	_, err := board.Session().AddShape(state.ShapeData{
		Shape:       kind,
		Fill:        t.settings.Color,
		Stroke:      "#000000",
		StrokeWidth: 1,
	}, 120, 80)
	if !board.handle(err) {
		board.changed()
	}
}

func (t *Toolbar) addImage(board *BoardWidget, win fyne.Window) {
	open := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		defer r.Close()
		img, _, err := render.DecodeFrame(r)
		if err != nil {
			board.handle(err)
			return
		}
		w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
		if k := maxImageSide / max(w, h); k < 1 {
			w, h = w*k, h*k
		}
		if _, err := board.Session().AddImage(r.URI().Path(), w, h); !board.handle(err) {
			board.changed()
		}
	}, win)
	open.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}))
	open.Show()
}

func (t *Toolbar) openScene(board *BoardWidget, win fyne.Window) {
	open := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		board.LoadFromFile(r)
	}, win)
	open.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	open.Show()
}

func (t *Toolbar) saveScene(board *BoardWidget, win fyne.Window) {
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		board.SaveToFile(w)
	}, win)
	save.SetFileName("plate.json")
	save.Show()
}

func (t *Toolbar) exportPDF(board *BoardWidget, win fyne.Window) {
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		defer w.Close()
		list, err := board.Session().Render(board.Bounded())
		if board.handle(err) {
			return
		}
		opts := export.Options{Frame: board.Session().Frame(), Assets: filepath.Dir(w.URI().Path())}
		if board.handle(export.WritePDF(w, list, opts, t.logger)) {
			return
		}
		board.SetStatus("Exported " + w.URI().Name())
	}, win)
	save.SetFileName("plate.pdf")
	save.Show()
}

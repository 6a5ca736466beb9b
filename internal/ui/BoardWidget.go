package ui

import (
	"image"
	"image/color"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/editor"
	"PlateStudio/internal/render"
)

var (
	backgroundColor = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	frameColor      = color.NRGBA{R: 150, G: 150, B: 160, A: 255}
)

// BoardWidget hosts an editor session: it forwards pointer input to the
// session and draws the primitive list it renders.
type BoardWidget struct {
	widget.BaseWidget
	session *editor.Session
	ready   <-chan struct{}
	logger  hclog.Logger
	now     func() time.Time

	bounded bool
	pressed bool
	last    fyne.Position
	blocked bool

	images   map[string]image.Image
	overlay  *render.FrameMask
	coverImg image.Image
	glyphs   *render.TextMeasurer

	statusBar *widget.Label
	OnBlocked func(err error)
	OnChange  func()
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ fyne.Focusable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

// NewBoardWidget returns a surface for session. ready is closed once the
// computation runtime has finished initializing.
func NewBoardWidget(session *editor.Session, ready <-chan struct{}, logger hclog.Logger) *BoardWidget {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	b := &BoardWidget{
		session:   session,
		ready:     ready,
		logger:    logger.Named("board"),
		now:       time.Now,
		images:    make(map[string]image.Image),
		statusBar: widget.NewLabel("Loading engine..."),
	}
	b.ExtendBaseWidget(b)
	return b
}

// Status is the label the board reports progress and errors on.
func (b *BoardWidget) Status() *widget.Label { return b.statusBar }

func (b *BoardWidget) SetStatus(text string) {
	b.statusBar.SetText(text)
}

// SetBounded switches between the full surface and the frame-masked view.
func (b *BoardWidget) SetBounded(on bool) {
	b.bounded = on
	b.Refresh()
}

// Bounded reports whether the frame-masked view is active.
func (b *BoardWidget) Bounded() bool { return b.bounded }

// Session returns the hosted editor session.
func (b *BoardWidget) Session() *editor.Session { return b.session }

// Activate is called once the runtime is ready. It binds the session or
// blocks the board when initialization failed.
func (b *BoardWidget) Activate() {
	if err := b.session.Ready(); err != nil {
		b.handle(err)
		return
	}
	b.SetStatus("Ready")
	b.Refresh()
}

// handle reports err. A computation module that failed to load blocks the
// board for good; while it is still loading the input is only dropped.
func (b *BoardWidget) handle(err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, accel.ErrModuleNotReady) {
		b.logger.Error("operation failed", "error", err)
		b.SetStatus("Error: " + err.Error())
		return true
	}
	select {
	case <-b.ready:
	default:
		b.SetStatus("Loading engine...")
		return true
	}
	if !b.blocked {
		b.blocked = true
		b.logger.Error("computation module unavailable", "error", err)
		b.SetStatus("Engine unavailable")
		if b.OnBlocked != nil {
			b.OnBlocked(err)
		}
	}
	return true
}

func (b *BoardWidget) changed() {
	b.Refresh()
	if b.OnChange != nil {
		b.OnChange()
	}
}

func point(p fyne.Position) accel.Point {
	return accel.Pt(float64(p.X), float64(p.Y))
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || b.blocked {
		return
	}
	if b.handle(b.session.PointerDown(point(e.Position), 1, b.now())) {
		return
	}
	b.pressed = true
	b.last = e.Position
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if !b.pressed {
		return
	}
	b.last = e.Position
	if b.handle(b.session.PointerMove(point(e.Position), 1, b.now())) {
		return
	}
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.release(e.Position)
}

func (b *BoardWidget) DragEnd() { b.release(b.last) }

func (b *BoardWidget) release(p fyne.Position) {
	if !b.pressed {
		return
	}
	b.pressed = false
	if b.handle(b.session.PointerUp(point(p), 1, b.now())) {
		return
	}
	b.changed()
}

// Cancel abandons the interaction in progress.
func (b *BoardWidget) Cancel() {
	if !b.pressed {
		return
	}
	b.pressed = false
	b.session.PointerCancel()
	b.Refresh()
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	if b.blocked {
		return
	}
	var err error
	if e.Scrolled.DY > 0 {
		err = b.session.ZoomIn(point(e.Position))
	} else if e.Scrolled.DY < 0 {
		err = b.session.ZoomOut(point(e.Position))
	}
	if b.handle(err) {
		return
	}
	b.Refresh()
}

func (b *BoardWidget) FocusGained() {}

func (b *BoardWidget) FocusLost() { b.Cancel() }

func (b *BoardWidget) TypedRune(rune) {}

func (b *BoardWidget) TypedKey(e *fyne.KeyEvent) {
	if e.Name == fyne.KeyEscape {
		b.Cancel()
	}
}

// Undo reverts the last change.
func (b *BoardWidget) Undo() {
	if b.session.Undo() {
		b.changed()
	}
}

// Redo reapplies the last undone change.
func (b *BoardWidget) Redo() {
	if b.session.Redo() {
		b.changed()
	}
}

func (b *BoardWidget) SaveToFile(writer fyne.URIWriteCloser) {
	defer func() {
		if err := writer.Close(); err != nil {
			b.logger.Warn("closing writer", "error", err)
		}
	}()
	if err := b.session.Save(writer); err != nil {
		b.handle(err)
		return
	}
	b.SetStatus("Saved " + writer.URI().Name())
}

func (b *BoardWidget) LoadFromFile(reader fyne.URIReadCloser) {
	defer func() {
		if err := reader.Close(); err != nil {
			b.logger.Warn("closing reader", "error", err)
		}
	}()
	if err := b.session.Load(reader); err != nil {
		b.handle(err)
		return
	}
	b.SetStatus("Loaded " + reader.URI().Name())
	b.changed()
}

// bitmap returns the decoded bitmap for source, or nil when it cannot be
// read. Results are cached, failures included.
func (b *BoardWidget) bitmap(source string) image.Image {
	if img, ok := b.images[source]; ok {
		return img
	}
	img, err := decodeFile(source)
	if err != nil {
		b.logger.Warn("image unavailable", "source", source, "error", err)
	}
	b.images[source] = img
	return img
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := render.DecodeFrame(f)
	return img, err
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(backgroundColor)
	r.frame = canvas.NewRectangle(color.White)
	r.frame.StrokeColor = frameColor
	r.frame.StrokeWidth = 1
	r.rebuild()
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	frame      *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *boardWidgetRenderer) rebuild() {
	b := r.board
	r.objects = []fyne.CanvasObject{r.background}

	list, err := b.session.Render(b.bounded)
	if err != nil {
		return
	}
	xf := b.session.ScreenTransform()
	fr := b.session.Frame()
	tl := xf.Apply(accel.Pt(fr.X, fr.Y))
	br := xf.Apply(accel.Pt(fr.Right(), fr.Bottom()))
	r.frame.Move(fyne.NewPos(float32(tl.X), float32(tl.Y)))
	r.frame.Resize(fyne.NewSize(float32(br.X-tl.X), float32(br.Y-tl.Y)))
	r.objects = append(r.objects, r.frame)

	r.objects = b.objectsFor(r.objects, list, xf)
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *boardWidgetRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Destroy() {}

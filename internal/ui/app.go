package ui

import (
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/hashicorp/go-hclog"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/config"
	"PlateStudio/internal/editor"
)

// RunApp opens the editor window and blocks until it is closed. The runtime
// must already be started; the board stays inert until it reports ready.
func RunApp(cfg config.Config, rt *accel.Runtime, logger hclog.Logger) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	myApp := app.New()
	myWindow := myApp.NewWindow("PlateStudio")
	myWindow.Resize(fyne.NewSize(1024, 768))

	tools := NewToolbar(logger)
	session := editor.New(cfg, rt, tools, logger)
	loadFrameAsset(session, cfg.Frame.Asset, logger)

	board := NewBoardWidget(session, rt.Ready(), logger)
	board.OnBlocked = func(err error) {
		dialog.NewCustomWithoutButtons("Engine unavailable",
			widget.NewLabel("The computation module failed to load:\n"+err.Error()), myWindow).Show()
	}

	content := container.NewBorder(tools.Build(board, myWindow), board.Status(), nil, nil, board)
	myWindow.SetContent(content)
	myWindow.Canvas().Focus(board)

	go func() {
		<-rt.Ready()
		fyne.Do(board.Activate)
	}()

	myWindow.ShowAndRun()
}

// loadFrameAsset installs the frame mask from path. Without one the bounded
// view renders unmasked.
func loadFrameAsset(session *editor.Session, path string, logger hclog.Logger) {
	if path == "" {
		logger.Warn("no frame asset configured, bounded view is unmasked")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("frame asset unavailable", "path", path, "error", err)
		return
	}
	defer f.Close()
	if err := session.LoadFrameAsset(f); err == nil {
		logger.Info("frame asset loaded", "path", path)
	}
}

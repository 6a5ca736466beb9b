package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"PlateStudio/internal/accel"
	"PlateStudio/internal/config"
	"PlateStudio/internal/editor"
	"PlateStudio/internal/export"
	"PlateStudio/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	scenePath := flag.String("export-scene", "", "scene JSON to export without opening the editor")
	pdfPath := flag.String("export-pdf", "plate.pdf", "PDF written by -export-scene")
	bounded := flag.Bool("bounded", false, "clip the export to the frame mask")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cfg.Logger("platestudio")

	rt := accel.NewRuntime(accel.LoadNative, logger)
	rt.Start(context.Background())

	if *scenePath != "" {
		if err := exportScene(cfg, rt, *scenePath, *pdfPath, *bounded, logger); err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting editor", "frame_width", cfg.Frame.Width, "frame_height", cfg.Frame.Height)
	ui.RunApp(cfg, rt, logger)
}

// exportScene renders a saved scene straight to PDF.
func exportScene(cfg config.Config, rt *accel.Runtime, scenePath, pdfPath string, bounded bool, logger hclog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := rt.Wait(ctx); err != nil {
		return err
	}

	session := editor.New(cfg, rt, nil, logger)
	if cfg.Frame.Asset != "" {
		if err := loadFile(cfg.Frame.Asset, session.LoadFrameAsset); err != nil {
			logger.Warn("exporting without frame mask", "error", err)
		}
	}
	if err := loadFile(scenePath, session.Load); err != nil {
		return err
	}

	list, err := session.Render(bounded)
	if err != nil {
		return err
	}
	if err := export.ExportPDF(pdfPath, list, export.Options{Frame: session.Frame()}, logger); err != nil {
		return err
	}
	logger.Info("exported", "scene", scenePath, "pdf", pdfPath, "elements", session.Len())
	return nil
}

func loadFile(path string, load func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()
	return load(f)
}

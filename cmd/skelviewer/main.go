// cmd/skelviewer/main.go
// Interactive skeleton viewer.
//
// Usage:
//   go run ./cmd/skelviewer -config data/viewer.yaml -assets data

package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/spine2d/pkg/config"
	"github.com/decker502/spine2d/pkg/loader"
	"github.com/decker502/spine2d/pkg/playback"
	"github.com/decker502/spine2d/pkg/settings"
)

var (
	configPath = flag.String("config", "data/viewer.yaml", "viewer configuration file")
	assetDir   = flag.String("assets", "data", "directory skeleton and atlas paths are relative to")
	verbose    = flag.Bool("verbose", false, "verbose logging")
)

func main() {
	flag.Parse()

	if *verbose {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		loader.Verbose = true
		playback.Verbose = true
	}

	log.Println("=== Skeleton viewer starting ===")

	cfg, err := config.LoadViewerConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	store := settings.Open("spine2d_viewer")

	viewer, err := NewViewer(cfg, loader.NewDirManager(*assetDir), store)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(store.Settings().Fullscreen)
	ebiten.SetTPS(cfg.Playback.TPS)

	log.Printf("Window: %dx%d @ %d TPS, %d characters", cfg.Window.Width, cfg.Window.Height, cfg.Playback.TPS, viewer.CharacterCount())

	if err := ebiten.RunGame(viewer); err != nil {
		log.Printf("Viewer stopped: %v", err)
	}
	if err := store.Save(); err != nil {
		log.Printf("Warning: failed to save settings: %v", err)
	}
}

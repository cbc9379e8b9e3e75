// cmd/skelrender/main.go
// Renders every configured animation to numbered image files without a
// window.
//
// Usage:
//   go run ./cmd/skelrender -config data/viewer.yaml -assets data
//   go run ./cmd/skelrender -config data/viewer.yaml -out frames -format webp

package main

import (
	"flag"
	"log"
	"time"

	"github.com/decker502/spine2d/pkg/config"
	"github.com/decker502/spine2d/pkg/loader"
	"github.com/decker502/spine2d/pkg/scene"
)

var (
	configPath = flag.String("config", "data/viewer.yaml", "viewer configuration file")
	assetDir   = flag.String("assets", "data", "directory skeleton and atlas paths are relative to")
	outDir     = flag.String("out", "", "output directory (overrides render.output_dir)")
	format     = flag.String("format", "", "png or webp (overrides render.format)")
	verbose    = flag.Bool("verbose", false, "verbose logging")
)

func main() {
	flag.Parse()
	loader.Verbose = *verbose

	cfg, err := config.LoadViewerConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	rc := cfg.Render
	if *outDir != "" {
		rc.OutputDir = *outDir
	}
	if *format != "" {
		rc.Format = *format
	}
	if rc.Format != "png" && rc.Format != "webp" {
		log.Fatalf("Invalid format '%s', must be 'png' or 'webp'", rc.Format)
	}

	chars, err := scene.LoadAll(loader.NewDirManager(*assetDir), cfg)
	if err != nil {
		log.Fatalf("Failed to load characters: %v", err)
	}

	jobs := buildJobs(chars)
	log.Printf("Rendering %d animations at %gfps, %dx%d %s -> %s", len(jobs), rc.FPS, rc.Width, rc.Height, rc.Format, rc.OutputDir)

	start := time.Now()
	frames, err := renderAll(rc, jobs)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}
	log.Printf("Wrote %d frames in %v", frames, time.Since(start).Round(time.Millisecond))
}

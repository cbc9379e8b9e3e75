// cmd/skelrender/render.go
// Frame sampling, rasterization and image output.

package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/sync/errgroup"

	"github.com/decker502/spine2d/pkg/config"
	"github.com/decker502/spine2d/pkg/playback"
	"github.com/decker502/spine2d/pkg/pose"
	"github.com/decker502/spine2d/pkg/render"
	"github.com/decker502/spine2d/pkg/scene"
)

// job is one animation of one character.
type job struct {
	ch   *scene.Character
	anim string
}

// buildJobs lists every animation of every drawable character.
func buildJobs(chars []*scene.Character) []job {
	var jobs []job
	for _, ch := range chars {
		if ch.Atlas == nil {
			log.Printf("Skipping '%s': no atlas", ch.Config.ID)
			continue
		}
		for _, name := range ch.AnimationNames() {
			jobs = append(jobs, job{ch: ch, anim: name})
		}
	}
	return jobs
}

// renderAll renders jobs concurrently and returns the number of frames
// written along with the first job error.
func renderAll(rc config.RenderConfig, jobs []job) (int, error) {
	workers := rc.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var total atomic.Int64
	var g errgroup.Group
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			n, err := renderJob(rc, j)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", j.ch.Config.ID, j.anim, err)
			}
			total.Add(int64(n))
			if *verbose {
				log.Printf("%s/%s: %d frames", j.ch.Config.ID, j.anim, n)
			}
			return nil
		})
	}
	err := g.Wait()
	return int(total.Load()), err
}

// renderJob samples j at rc.FPS on a private skeleton and writes one image
// per frame.
func renderJob(rc config.RenderConfig, j job) (int, error) {
	sk := j.ch.NewSkeleton()
	state := playback.NewState(j.ch.Data)
	entry, err := j.ch.Play(state, j.anim)
	if err != nil {
		return 0, err
	}

	rast := render.NewRasterizer()
	for i, page := range j.ch.Atlas.Pages {
		rast.SetPage(page, j.ch.Pages[i])
	}
	img := image.NewRGBA(image.Rect(0, 0, rc.Width, rc.Height))
	view := fitView(sk, rc.Width, rc.Height)

	dir := filepath.Join(rc.OutputDir, j.ch.Config.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	n := frameCount(entry.Animation.Duration/entry.Speed, rc.FPS, entry.Loop)
	dt := 1 / rc.FPS
	var cmds []render.DrawCommand
	for i := 0; i < n; i++ {
		if i > 0 {
			state.Update(dt)
		}
		state.Apply(sk)
		sk.UpdateWorldTransform()

		cmds = render.AppendDrawList(cmds[:0], sk, j.ch.Atlas)
		rast.Clear(img)
		rast.Draw(img, cmds, view)

		if err := writeImage(filepath.Join(dir, frameName(j.anim, i, rc.Format)), img, rc.Format); err != nil {
			return i, err
		}
	}
	return n, nil
}

// frameCount returns how many frames cover duration seconds at fps. A
// looping animation omits the final frame since it repeats the first one.
func frameCount(duration, fps float32, loop bool) int {
	if duration <= 0 || fps <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(duration*fps) - 1e-4))
	if !loop {
		n++
	}
	return max(n, 1)
}

// frameName maps an animation name to a file name. Folder separators in
// animation names become underscores.
func frameName(anim string, frame int, format string) string {
	anim = strings.NewReplacer("/", "_", "\\", "_").Replace(anim)
	return fmt.Sprintf("%s_%04d.%s", anim, frame, format)
}

// fitView centers the setup bounds of sk in a w×h image with a margin.
// Skeletons without recorded bounds are centered on their origin.
func fitView(sk *pose.Skeleton, w, h int) render.View {
	sd := sk.Data
	sx, sy := abs32(sk.ScaleX), abs32(sk.ScaleY)
	if sd.Width <= 0 || sd.Height <= 0 || sx == 0 || sy == 0 {
		return render.CenteredView(w, h)
	}
	zoom := 0.9 * min(float32(w)/(sd.Width*sx), float32(h)/(sd.Height*sy))
	cx := (sd.X + sd.Width/2) * sk.ScaleX
	cy := (sd.Y + sd.Height/2) * sk.ScaleY
	return render.View{
		X:    float32(w)/2 - cx*zoom,
		Y:    float32(h)/2 + cy*zoom,
		Zoom: zoom,
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("%s encode: %w", format, err)
	}
	return f.Close()
}

func encode(w io.Writer, img image.Image, format string) error {
	if format == "webp" {
		return nativewebp.Encode(w, img, nil)
	}
	return png.Encode(w, img)
}

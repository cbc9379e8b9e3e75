// cmd/skelviewer/hud.go
// Info bar and help overlay.

package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var helpLines = []string{
	"Controls:",
	"  Tab        - select next character",
	"  Left/Right - previous / next animation",
	"  S          - next skin",
	"  R          - restart animation",
	"  Space      - pause / resume",
	"  Up/Down    - playback speed",
	"  Wheel      - zoom",
	"  B          - show / hide bones",
	"  F          - fullscreen",
	"  H          - show / hide help",
	"  Esc        - quit",
}

func (v *Viewer) drawInfoBar(screen *ebiten.Image) {
	s := v.store.Settings()
	ch := v.chars[v.selected]
	info := fmt.Sprintf("TPS: %.1f | %s (%s) | speed %.1fx | zoom %.2f",
		ebiten.ActualTPS(), ch.Config.Name, v.current[v.selected], s.TimeScale, s.Zoom)
	if s.Paused {
		info += " | paused"
	}
	if v.lastEvent != "" {
		info += " | " + v.lastEvent
	}

	vector.DrawFilledRect(screen, 0, 0, float32(v.width), 24, color.RGBA{0, 0, 0, 160}, false)
	ebitenutil.DebugPrintAt(screen, info, 8, 4)
}

func (v *Viewer) drawHelp(screen *ebiten.Image) {
	const helpWidth, lineHeight = 300, 16
	helpHeight := len(helpLines)*lineHeight + 12
	x := float32(v.width - helpWidth - 20)
	y := float32(40)

	vector.DrawFilledRect(screen, x, y, helpWidth, float32(helpHeight), color.RGBA{0, 0, 0, 180}, false)
	ebitenutil.DebugPrintAt(screen, strings.Join(helpLines, "\n"), int(x)+10, int(y)+6)
}

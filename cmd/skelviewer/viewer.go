// cmd/skelviewer/viewer.go
// Viewer state, input handling and drawing.

package main

import (
	"errors"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/spine2d/pkg/components"
	"github.com/decker502/spine2d/pkg/config"
	"github.com/decker502/spine2d/pkg/ecs"
	"github.com/decker502/spine2d/pkg/loader"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/render"
	"github.com/decker502/spine2d/pkg/scene"
	"github.com/decker502/spine2d/pkg/settings"
	"github.com/decker502/spine2d/pkg/systems"
	"github.com/decker502/spine2d/pkg/timeline"
)

// Viewer is the ebiten game showing every configured character.
type Viewer struct {
	cfg   *config.ViewerConfig
	store *settings.Manager

	em           *ecs.EntityManager
	animSystem   *systems.AnimationSystem
	renderSystem *systems.RenderSystem
	drawer       *render.EbitenDrawer

	chars    []*scene.Character
	entities []ecs.EntityID // parallel to chars
	current  []string       // animation playing on each character
	selected int

	background color.Color
	showHelp   bool
	lastEvent  string

	width, height int
}

// NewViewer loads every character of cfg from m and spawns one entity per
// character. Settings from store restore the selection, the last animation
// of each character and the playback speed.
func NewViewer(cfg *config.ViewerConfig, m *loader.Manager, store *settings.Manager) (*Viewer, error) {
	chars, err := scene.LoadAll(m, cfg)
	if err != nil {
		return nil, err
	}
	if len(chars) == 0 {
		return nil, errors.New("no characters to show")
	}

	bg, err := model.ParseHexColor(cfg.Window.Background)
	if err != nil {
		return nil, fmt.Errorf("invalid background: %w", err)
	}

	v := &Viewer{
		cfg:        cfg,
		store:      store,
		em:         ecs.NewEntityManager(),
		drawer:     render.NewEbitenDrawer(),
		chars:      chars,
		entities:   make([]ecs.EntityID, len(chars)),
		current:    make([]string, len(chars)),
		background: color.NRGBA{R: unit8(bg.R), G: unit8(bg.G), B: unit8(bg.B), A: unit8(bg.A)},
		showHelp:   true,
		width:      cfg.Window.Width,
		height:     cfg.Window.Height,
	}
	v.animSystem = systems.NewAnimationSystem(v.em)
	v.animSystem.SetVerbose(*verbose)
	v.animSystem.OnEvent = v.onEvent
	v.renderSystem = systems.NewRenderSystem(v.em)
	v.renderSystem.ShowBones = store.Settings().ShowBones

	selected := store.Settings().Character
	for i, ch := range chars {
		if ch.Atlas != nil {
			for p, page := range ch.Atlas.Pages {
				v.drawer.SetPage(page, ch.Pages[p])
			}
		}
		x, y := v.placement(i, ch.Config)
		id, err := scene.Spawn(v.em, ch, x, y)
		if err != nil {
			return nil, err
		}
		v.entities[i] = id
		v.current[i] = ch.DefaultAnimation()

		if last := store.LastAnimation(ch.Config.ID); last != "" && last != v.current[i] {
			if err := v.play(i, last); err != nil {
				log.Printf("Warning: cannot restore animation '%s' of '%s': %v", last, ch.Config.ID, err)
			}
		}
		if ch.Config.ID == selected {
			v.selected = i
		}
	}
	v.store.Remember(chars[v.selected].Config.ID, v.current[v.selected])
	v.applyPlayback()

	log.Printf("Loaded %d characters", len(chars))
	return v, nil
}

// CharacterCount returns the number of loaded characters.
func (v *Viewer) CharacterCount() int {
	return len(v.chars)
}

// placement returns the root position of character i in world space.
// Configured positions are screen pixels; others are spread along the
// bottom of the window.
func (v *Viewer) placement(i int, c *config.CharacterConfig) (float32, float32) {
	if len(c.Position) == 2 {
		x, y := c.XY()
		return x, -y
	}
	n := float32(len(v.chars) + 1)
	return float32(v.width) * float32(i+1) / n, -float32(v.height) * 0.8
}

func (v *Viewer) component(i int) *components.SkeletonComponent {
	comp, _ := ecs.GetComponent[*components.SkeletonComponent](v.em, v.entities[i])
	return comp
}

func (v *Viewer) play(i int, name string) error {
	comp := v.component(i)
	comp.State.ClearAll()
	if _, err := v.chars[i].Play(comp.State, name); err != nil {
		return err
	}
	v.current[i] = name
	v.store.Remember(v.chars[i].Config.ID, name)
	return nil
}

// applyPlayback pushes the stored speed and pause flag to every state.
func (v *Viewer) applyPlayback() {
	s := v.store.Settings()
	for i := range v.chars {
		state := v.component(i).State
		state.TimeScale = v.cfg.Playback.TimeScale * s.TimeScale
		if s.Paused {
			state.Pause()
		} else {
			state.Resume()
		}
	}
}

func (v *Viewer) onEvent(id ecs.EntityID, ev timeline.Event) {
	comp, _ := ecs.GetComponent[*components.SkeletonComponent](v.em, id)
	name := comp.Skeleton.Data.Events[ev.Data].Name
	v.lastEvent = fmt.Sprintf("%s: %s @ %.2f", comp.CharacterID, name, ev.Time)
	if *verbose {
		log.Printf("Event %s", v.lastEvent)
	}
}

func (v *Viewer) view() render.View {
	zoom := v.store.Settings().Zoom
	return render.View{
		X:    float32(v.width) / 2 * (1 - zoom),
		Y:    float32(v.height) / 2 * (1 - zoom),
		Zoom: zoom,
	}
}

// Update handles input and advances every character by one tick.
func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	v.handleInput()
	return v.animSystem.Update(1 / float32(ebiten.TPS()))
}

func (v *Viewer) handleInput() {
	s := v.store.Settings()

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.selected = wrap(v.selected+1, len(v.chars))
		v.store.Remember(v.chars[v.selected].Config.ID, v.current[v.selected])
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		v.stepAnimation(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		v.stepAnimation(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		v.nextSkin()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := v.play(v.selected, v.current[v.selected]); err != nil {
			log.Printf("Warning: restart failed: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.Paused = !s.Paused
		v.applyPlayback()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		v.store.SetTimeScale(s.TimeScale + 0.1)
		v.applyPlayback()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		v.store.SetTimeScale(s.TimeScale - 0.1)
		v.applyPlayback()
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		factor := float32(1.1)
		if dy < 0 {
			factor = 1 / factor
		}
		v.store.SetZoom(s.Zoom * factor)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		s.ShowBones = !s.ShowBones
		v.renderSystem.ShowBones = s.ShowBones
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		s.Fullscreen = !s.Fullscreen
		ebiten.SetFullscreen(s.Fullscreen)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.showHelp = !v.showHelp
	}
}

func (v *Viewer) stepAnimation(step int) {
	names := v.chars[v.selected].AnimationNames()
	if len(names) == 0 {
		return
	}
	i := wrap(indexOf(names, v.current[v.selected])+step, len(names))
	if err := v.play(v.selected, names[i]); err != nil {
		log.Printf("Warning: cannot play '%s': %v", names[i], err)
	}
}

func (v *Viewer) nextSkin() {
	sk := v.component(v.selected).Skeleton
	skins := sk.Data.Skins
	if len(skins) < 2 {
		return
	}
	i := 0
	if sk.Skin != nil {
		i = wrap(sk.Data.FindSkin(sk.Skin.Name)+1, len(skins))
	}
	if err := sk.SetSkin(skins[i].Name); err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	sk.SetSlotsToSetupPose()
	if *verbose {
		log.Printf("Skin: %s", skins[i].Name)
	}
}

// Draw draws every character and the overlay.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(v.background)
	v.renderSystem.Draw(screen, v.drawer, v.view())
	v.drawInfoBar(screen)
	if v.showHelp {
		v.drawHelp(screen)
	}
}

// Layout follows the window size so the view stays centered on resize.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.width, v.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func unit8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

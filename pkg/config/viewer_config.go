package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/decker502/spine2d/pkg/model"
)

// ViewerConfig is the top level of a viewer / batch render configuration
// file. It lists the characters to load and how each animation plays.
type ViewerConfig struct {
	Window     WindowConfig      `yaml:"window"`
	Playback   PlaybackConfig    `yaml:"playback"`
	Render     RenderConfig      `yaml:"render"`
	Characters []CharacterConfig `yaml:"characters"`

	byID map[string]*CharacterConfig
	mu   sync.RWMutex
}

// WindowConfig sizes the interactive viewer window.
type WindowConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	Background string `yaml:"background"` // hex rgba, default "303030ff"
}

// PlaybackConfig holds global playback defaults.
type PlaybackConfig struct {
	TPS       int     `yaml:"tps"`        // ticks per second, default 60
	TimeScale float32 `yaml:"time_scale"` // default 1
}

// RenderConfig controls cmd/skelrender output.
type RenderConfig struct {
	OutputDir string  `yaml:"output_dir"` // default "out"
	Format    string  `yaml:"format"`     // "png" or "webp", default "png"
	FPS       float32 `yaml:"fps"`        // frames sampled per second, default 30
	Width     int     `yaml:"width"`      // default 512
	Height    int     `yaml:"height"`     // default 512
	Workers   int     `yaml:"workers"`    // 0 = one per CPU
}

// CharacterConfig describes one skeleton placed in the scene.
type CharacterConfig struct {
	ID               string          `yaml:"id"`
	Name             string          `yaml:"name"`
	Skeleton         string          `yaml:"skeleton"` // .skel or .json path
	Atlas            string          `yaml:"atlas"`
	Skin             string          `yaml:"skin,omitempty"`
	DefaultAnimation string          `yaml:"default_animation"`
	Scale            float32         `yaml:"scale"` // load scale, default 1
	Position         []float32       `yaml:"position,omitempty"`
	FlipX            bool            `yaml:"flip_x,omitempty"`
	Animations       []AnimationInfo `yaml:"animations,omitempty"`
}

// AnimationInfo overrides playback of one animation.
type AnimationInfo struct {
	Name        string  `yaml:"name"`
	DisplayName string  `yaml:"display_name,omitempty"`
	Loop        *bool   `yaml:"loop,omitempty"`  // nil = loop
	Speed       float32 `yaml:"speed,omitempty"` // 0 = 1.0
	Track       int     `yaml:"track,omitempty"`
}

// LoadViewerConfig reads, parses and validates the configuration at path.
//
// Parameters:
//   - path: YAML file path.
//
// Returns:
//   - *ViewerConfig: the configuration with defaults applied.
//   - error: read, parse or validation error.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}
	cfg, err := ParseViewerConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseViewerConfig parses YAML data, applies defaults and validates.
func ParseViewerConfig(data []byte) (*ViewerConfig, error) {
	var cfg ViewerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	cfg.byID = make(map[string]*CharacterConfig, len(cfg.Characters))
	for i := range cfg.Characters {
		c := &cfg.Characters[i]
		cfg.byID[c.ID] = c
	}
	return &cfg, nil
}

func (cfg *ViewerConfig) applyDefaults() {
	if cfg.Window.Width == 0 {
		cfg.Window.Width = 1280
	}
	if cfg.Window.Height == 0 {
		cfg.Window.Height = 720
	}
	if cfg.Window.Title == "" {
		cfg.Window.Title = "Skeleton Viewer"
	}
	if cfg.Window.Background == "" {
		cfg.Window.Background = "303030ff"
	}
	if cfg.Playback.TPS == 0 {
		cfg.Playback.TPS = 60
	}
	if cfg.Playback.TimeScale == 0 {
		cfg.Playback.TimeScale = 1
	}
	if cfg.Render.OutputDir == "" {
		cfg.Render.OutputDir = "out"
	}
	if cfg.Render.Format == "" {
		cfg.Render.Format = "png"
	}
	if cfg.Render.FPS == 0 {
		cfg.Render.FPS = 30
	}
	if cfg.Render.Width == 0 {
		cfg.Render.Width = 512
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = 512
	}
	for i := range cfg.Characters {
		c := &cfg.Characters[i]
		if c.Scale == 0 {
			c.Scale = 1
		}
		if c.Name == "" {
			c.Name = c.ID
		}
	}
}

func (cfg *ViewerConfig) validate() error {
	if _, err := model.ParseHexColor(cfg.Window.Background); err != nil {
		return fmt.Errorf("invalid background color '%s': %w", cfg.Window.Background, err)
	}
	switch cfg.Render.Format {
	case "png", "webp":
	default:
		return fmt.Errorf("invalid render format '%s', must be 'png' or 'webp'", cfg.Render.Format)
	}
	if cfg.Render.FPS < 0 || cfg.Render.Workers < 0 {
		return fmt.Errorf("render fps and workers must not be negative")
	}

	seen := make(map[string]bool)
	for i, c := range cfg.Characters {
		if c.ID == "" {
			return fmt.Errorf("character #%d is missing 'id'", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate character id '%s'", c.ID)
		}
		seen[c.ID] = true
		if c.Skeleton == "" {
			return fmt.Errorf("character '%s' is missing 'skeleton'", c.ID)
		}
		if len(c.Position) != 0 && len(c.Position) != 2 {
			return fmt.Errorf("character '%s' position must be [x, y]", c.ID)
		}
		for _, a := range c.Animations {
			if a.Name == "" {
				return fmt.Errorf("character '%s' has an animation without 'name'", c.ID)
			}
			if a.Speed < 0 || a.Track < 0 {
				return fmt.Errorf("character '%s' animation '%s' has negative speed or track", c.ID, a.Name)
			}
		}
	}
	return nil
}

// Character returns the character with the given id, or nil.
func (cfg *ViewerConfig) Character(id string) *CharacterConfig {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.byID[id]
}

// CharacterIDs returns every character id in file order.
func (cfg *ViewerConfig) CharacterIDs() []string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	ids := make([]string, len(cfg.Characters))
	for i, c := range cfg.Characters {
		ids[i] = c.ID
	}
	return ids
}

// Animation returns the override for name, or the defaults (loop, speed 1,
// track 0) when none is configured.
func (c *CharacterConfig) Animation(name string) AnimationInfo {
	for _, a := range c.Animations {
		if a.Name == name {
			if a.Speed == 0 {
				a.Speed = 1
			}
			return a
		}
	}
	return AnimationInfo{Name: name, Speed: 1}
}

// Looping reports whether the animation loops; unset means true.
func (a AnimationInfo) Looping() bool {
	return a.Loop == nil || *a.Loop
}

// XY returns the configured position, or (0, 0).
func (c *CharacterConfig) XY() (float32, float32) {
	if len(c.Position) == 2 {
		return c.Position[0], c.Position[1]
	}
	return 0, 0
}

// Check verifies that every name the character references exists in sd.
func (c *CharacterConfig) Check(sd *model.SkeletonData) error {
	if c.Skin != "" && sd.FindSkin(c.Skin) < 0 {
		return &model.MissingReferenceError{Kind: "skin", Name: c.Skin}
	}
	if c.DefaultAnimation != "" && sd.FindAnimation(c.DefaultAnimation) == nil {
		return &model.MissingReferenceError{Kind: "animation", Name: c.DefaultAnimation}
	}
	for _, a := range c.Animations {
		if sd.FindAnimation(a.Name) == nil {
			return &model.MissingReferenceError{Kind: "animation", Name: a.Name}
		}
	}
	return nil
}

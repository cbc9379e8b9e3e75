package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

func TestLoadViewerConfig_ValidFile(t *testing.T) {
	cfg, err := LoadViewerConfig("testdata/viewer.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Window.Width != 800 || cfg.Window.Title != "Spineboy" {
		t.Errorf("Unexpected window: %+v", cfg.Window)
	}
	if cfg.Window.Background != "303030ff" {
		t.Errorf("Expected default background, got %s", cfg.Window.Background)
	}
	if cfg.Playback.TPS != 60 || cfg.Playback.TimeScale != 0.5 {
		t.Errorf("Unexpected playback: %+v", cfg.Playback)
	}
	if cfg.Render.Format != "webp" || cfg.Render.FPS != 24 || cfg.Render.Width != 512 || cfg.Render.OutputDir != "out" {
		t.Errorf("Unexpected render: %+v", cfg.Render)
	}

	ids := cfg.CharacterIDs()
	if len(ids) != 2 || ids[0] != "spineboy" || ids[1] != "raptor" {
		t.Fatalf("Unexpected characters: %v", ids)
	}

	boy := cfg.Character("spineboy")
	if boy == nil {
		t.Fatal("Expected spineboy")
	}
	if x, y := boy.XY(); x != 400 || y != 550 {
		t.Errorf("Expected position (400, 550), got (%v, %v)", x, y)
	}
	if boy.Name != "spineboy" {
		t.Errorf("Expected name to default to id, got %s", boy.Name)
	}

	raptor := cfg.Character("raptor")
	if raptor.Scale != 1 || !raptor.FlipX {
		t.Errorf("Unexpected raptor: %+v", raptor)
	}
	if cfg.Character("nobody") != nil {
		t.Error("Expected nil for unknown id")
	}
}

func TestCharacterConfig_Animation(t *testing.T) {
	cfg, err := LoadViewerConfig("testdata/viewer.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	boy := cfg.Character("spineboy")

	tests := []struct {
		name      string
		wantLoop  bool
		wantSpeed float32
		wantTrack int
	}{
		{"walk", true, 1, 0},
		{"jump", false, 1.5, 0},
		{"aim", true, 1, 1},
		{"idle", true, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := boy.Animation(tt.name)
			if a.Looping() != tt.wantLoop || a.Speed != tt.wantSpeed || a.Track != tt.wantTrack {
				t.Errorf("Expected loop=%v speed=%v track=%d, got %+v", tt.wantLoop, tt.wantSpeed, tt.wantTrack, a)
			}
		})
	}
}

func TestParseViewerConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "characters: [", "failed to parse yaml"},
		{"missing id", "characters:\n  - skeleton: a.skel\n", "missing 'id'"},
		{"duplicate id", "characters:\n  - {id: a, skeleton: a.skel}\n  - {id: a, skeleton: b.skel}\n", "duplicate"},
		{"missing skeleton", "characters:\n  - id: a\n", "missing 'skeleton'"},
		{"bad position", "characters:\n  - {id: a, skeleton: a.skel, position: [1]}\n", "position"},
		{"bad format", "render:\n  format: gif\n", "invalid render format"},
		{"bad background", "window:\n  background: zz\n", "invalid background"},
		{"negative speed", "characters:\n  - {id: a, skeleton: a.skel, animations: [{name: run, speed: -1}]}\n", "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseViewerConfig([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadViewerConfig_FileNotFound(t *testing.T) {
	_, err := LoadViewerConfig("testdata/nonexistent.yaml")
	var ioErr *model.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Expected IOError, got %v", err)
	}
}

func TestCharacterConfig_Check(t *testing.T) {
	sd := model.NewSkeletonData()
	sd.Skins = []*model.Skin{model.NewSkin("default")}
	sd.Animations = []*timeline.Animation{timeline.NewAnimation("walk", nil)}

	tests := []struct {
		name     string
		char     CharacterConfig
		wantKind string
	}{
		{"ok", CharacterConfig{Skin: "default", DefaultAnimation: "walk"}, ""},
		{"missing skin", CharacterConfig{Skin: "gold"}, "skin"},
		{"missing default", CharacterConfig{DefaultAnimation: "run"}, "animation"},
		{"missing override", CharacterConfig{Animations: []AnimationInfo{{Name: "jump"}}}, "animation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.char.Check(sd)
			if tt.wantKind == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			var mr *model.MissingReferenceError
			if !errors.As(err, &mr) || mr.Kind != tt.wantKind {
				t.Errorf("Expected missing %s, got %v", tt.wantKind, err)
			}
		})
	}
}

// Package settings persists the interactive viewer's preferences between
// runs using gdata cross-platform storage.
package settings

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// ViewerSettings are the preferences the viewer restores on start.
type ViewerSettings struct {
	Character  string            `yaml:"character"`  // last selected character id
	Animations map[string]string `yaml:"animations"` // character id -> last animation
	TimeScale  float32           `yaml:"timeScale"`  // 0.1 ~ 4.0
	Zoom       float32           `yaml:"zoom"`       // 0.1 ~ 8.0
	ShowBones  bool              `yaml:"showBones"`
	Paused     bool              `yaml:"paused"`
	Fullscreen bool              `yaml:"fullscreen"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		Animations: make(map[string]string),
		TimeScale:  1,
		Zoom:       1,
	}
}

// Manager loads and saves ViewerSettings. A nil gdata manager runs in
// memory only.
type Manager struct {
	gdataManager *gdata.Manager
	settings     *ViewerSettings
}

const (
	settingsObject   = "settings"
	settingsProperty = "viewer"
)

// Open creates a gdata store for appName and a Manager on top of it. If the
// store cannot be opened the Manager falls back to memory.
func Open(appName string) *Manager {
	gm, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[Settings] Warning: storage unavailable: %v (settings will not persist)", err)
		gm = nil
	}
	return NewManager(gm)
}

// NewManager creates a Manager and loads the stored settings. Load failures
// are logged and leave the defaults in place.
//
// Parameters:
//   - gdataManager: storage, may be nil for memory-only settings
func NewManager(gdataManager *gdata.Manager) *Manager {
	m := &Manager{gdataManager: gdataManager, settings: DefaultSettings()}
	if err := m.Load(); err != nil {
		log.Printf("[Settings] Warning: Failed to load settings: %v (using defaults)", err)
	}
	return m
}

// Persistent reports whether settings are saved to storage.
func (m *Manager) Persistent() bool {
	return m.gdataManager != nil
}

// Load reads the stored settings. Missing data yields the defaults; corrupt
// data yields the defaults and an error.
func (m *Manager) Load() error {
	if m.gdataManager == nil || !m.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		m.settings = DefaultSettings()
		return nil
	}

	data, err := m.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		m.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		m.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if loaded.Animations == nil {
		loaded.Animations = make(map[string]string)
	}
	loaded.TimeScale = clamp(loaded.TimeScale, 0.1, 4)
	loaded.Zoom = clamp(loaded.Zoom, 0.1, 8)
	m.settings = loaded
	return nil
}

// Save writes the current settings. It is a no-op without storage.
func (m *Manager) Save() error {
	if m.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(m.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := m.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Settings returns the current settings. Changes made through the returned
// pointer are kept in memory until Save.
func (m *Manager) Settings() *ViewerSettings {
	return m.settings
}

// SetTimeScale stores the playback time scale, clamped to 0.1 ~ 4.0.
func (m *Manager) SetTimeScale(v float32) {
	m.settings.TimeScale = clamp(v, 0.1, 4)
}

// SetZoom stores the view zoom, clamped to 0.1 ~ 8.0.
func (m *Manager) SetZoom(v float32) {
	m.settings.Zoom = clamp(v, 0.1, 8)
}

// Remember records the animation last shown for a character and makes the
// character current.
func (m *Manager) Remember(character, animation string) {
	m.settings.Character = character
	m.settings.Animations[character] = animation
}

// LastAnimation returns the animation last shown for character, or "".
func (m *Manager) LastAnimation(character string) string {
	return m.settings.Animations[character]
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

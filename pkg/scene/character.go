// Package scene builds playable characters from viewer configuration: it
// loads each character's assets through a loader.Manager and spawns posed,
// animated entities into an ECS world.
package scene

import (
	"fmt"
	"image"
	"log"

	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/pkg/components"
	"github.com/decker502/spine2d/pkg/config"
	"github.com/decker502/spine2d/pkg/ecs"
	"github.com/decker502/spine2d/pkg/loader"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/playback"
	"github.com/decker502/spine2d/pkg/pose"
)

// Character is the loaded assets of one configured character. Data, Atlas
// and Pages are shared by every instance spawned from it.
type Character struct {
	Config *config.CharacterConfig
	Data   *model.SkeletonData
	Atlas  *atlas.Atlas
	Pages  []image.Image // indexed like Atlas.Pages
}

// Load reads the skeleton, atlas and page images of c and checks that every
// skin and animation c names exists. A character without an atlas loads
// with a nil Atlas.
func Load(m *loader.Manager, c *config.CharacterConfig) (*Character, error) {
	sd, err := m.Skeleton(c.Skeleton)
	if err != nil {
		return nil, fmt.Errorf("character '%s': %w", c.ID, err)
	}
	if err := c.Check(sd); err != nil {
		return nil, fmt.Errorf("character '%s': %w", c.ID, err)
	}

	ch := &Character{Config: c, Data: sd}
	if c.Atlas == "" {
		log.Printf("[Scene] Warning: character '%s' has no atlas, it will not be drawn", c.ID)
		return ch, nil
	}
	if ch.Atlas, err = m.Atlas(c.Atlas); err != nil {
		return nil, fmt.Errorf("character '%s': %w", c.ID, err)
	}
	if ch.Pages, err = m.PageImages(c.Atlas); err != nil {
		return nil, fmt.Errorf("character '%s': %w", c.ID, err)
	}
	return ch, nil
}

// LoadAll loads every character of cfg in file order. Characters that fail
// to load are logged and skipped; the error reports the first failure when
// none loaded.
func LoadAll(m *loader.Manager, cfg *config.ViewerConfig) ([]*Character, error) {
	var chars []*Character
	var firstErr error
	for _, id := range cfg.CharacterIDs() {
		ch, err := Load(m, cfg.Character(id))
		if err != nil {
			log.Printf("[Scene] Warning: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		chars = append(chars, ch)
	}
	if len(chars) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return chars, nil
}

// NewSkeleton creates an instance with the configured skin, scale and
// flip.
func (ch *Character) NewSkeleton() *pose.Skeleton {
	sk := pose.NewSkeleton(ch.Data)
	if ch.Config.Skin != "" {
		// Check already verified the skin exists.
		_ = sk.SetSkin(ch.Config.Skin)
		sk.SetSlotsToSetupPose()
	}
	sk.ScaleX, sk.ScaleY = ch.Config.Scale, ch.Config.Scale
	if ch.Config.FlipX {
		sk.ScaleX = -sk.ScaleX
	}
	return sk
}

// AnimationNames lists the animations the character offers: the configured
// ones when any are listed, otherwise every animation in the data.
func (ch *Character) AnimationNames() []string {
	if len(ch.Config.Animations) > 0 {
		names := make([]string, len(ch.Config.Animations))
		for i, a := range ch.Config.Animations {
			names[i] = a.Name
		}
		return names
	}
	names := make([]string, len(ch.Data.Animations))
	for i, a := range ch.Data.Animations {
		names[i] = a.Name
	}
	return names
}

// DefaultAnimation returns the configured default animation, or the first
// available one, or "".
func (ch *Character) DefaultAnimation() string {
	if ch.Config.DefaultAnimation != "" {
		return ch.Config.DefaultAnimation
	}
	if names := ch.AnimationNames(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// Play starts name on state with the configured track, loop and speed.
func (ch *Character) Play(state *playback.State, name string) (*playback.TrackEntry, error) {
	info := ch.Config.Animation(name)
	entry, err := state.SetAnimation(info.Track, name, info.Looping())
	if err != nil {
		return nil, err
	}
	entry.Speed = info.Speed
	return entry, nil
}

// Spawn creates an entity for ch playing its default animation. x and y
// are the root position in world space.
func Spawn(em *ecs.EntityManager, ch *Character, x, y float32) (ecs.EntityID, error) {
	comp := components.NewSkeletonComponent(ch.Config.ID, ch.NewSkeleton(), ch.Atlas)
	if name := ch.DefaultAnimation(); name != "" {
		if _, err := ch.Play(comp.State, name); err != nil {
			return 0, fmt.Errorf("character '%s': %w", ch.Config.ID, err)
		}
	}
	id := em.CreateEntity()
	em.AddComponent(id, comp)
	em.AddComponent(id, &components.PositionComponent{X: x, Y: y})
	return id, nil
}

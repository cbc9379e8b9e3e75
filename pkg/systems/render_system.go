package systems

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/spine2d/pkg/components"
	"github.com/decker502/spine2d/pkg/ecs"
	"github.com/decker502/spine2d/pkg/render"
)

// RenderSystem collects the draw commands of every visible skeleton entity.
// Entities are drawn in ascending id order, each in its own draw order.
type RenderSystem struct {
	entityManager *ecs.EntityManager
	commands      []render.DrawCommand // reused every frame

	// ShowBones overlays the bone hierarchy in Draw.
	ShowBones bool
}

func NewRenderSystem(em *ecs.EntityManager) *RenderSystem {
	return &RenderSystem{
		entityManager: em,
		commands:      make([]render.DrawCommand, 0, 64),
	}
}

// Collect returns the commands of every visible skeleton entity. The slice
// is reused by the next call.
func (s *RenderSystem) Collect() []render.DrawCommand {
	s.commands = s.commands[:0]
	for _, id := range ecs.GetEntitiesWith1[*components.SkeletonComponent](s.entityManager) {
		comp, _ := ecs.GetComponent[*components.SkeletonComponent](s.entityManager, id)
		if !comp.Visible || comp.Skeleton == nil {
			continue
		}
		s.commands = render.AppendDrawList(s.commands, comp.Skeleton, comp.Atlas)
	}
	return s.commands
}

// Draw draws every visible skeleton entity onto screen.
func (s *RenderSystem) Draw(screen *ebiten.Image, drawer *render.EbitenDrawer, view render.View) {
	drawer.Draw(screen, s.Collect(), view)
	if !s.ShowBones {
		return
	}
	for _, id := range ecs.GetEntitiesWith1[*components.SkeletonComponent](s.entityManager) {
		comp, _ := ecs.GetComponent[*components.SkeletonComponent](s.entityManager, id)
		if comp.Visible && comp.Skeleton != nil {
			render.DrawBones(screen, comp.Skeleton, view)
		}
	}
}

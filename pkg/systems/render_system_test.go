package systems

import (
	"testing"

	"github.com/decker502/spine2d/pkg/components"
	"github.com/decker502/spine2d/pkg/ecs"
	"github.com/decker502/spine2d/pkg/render"
)

func TestRenderSystem_Collect(t *testing.T) {
	em := ecs.NewEntityManager()
	anim := NewAnimationSystem(em)
	system := NewRenderSystem(em)
	a := newTestAtlas(t)
	sd := newTestData()

	_, first := addCharacter(t, em, sd, a)
	_, hidden := addCharacter(t, em, sd, a)
	_, third := addCharacter(t, em, sd, nil)
	hidden.Visible = false

	if err := anim.Update(0.1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cmds := system.Collect()
	if len(cmds) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Slot != first.Skeleton.Slots[0] || cmds[1].Slot != third.Skeleton.Slots[0] {
		t.Error("Expected commands in entity order, skipping hidden entities")
	}
	if !cmds[0].Visible() {
		t.Errorf("Expected first command to draw, got %v", cmds[0].Skip)
	}
	if cmds[1].Skip != render.SkipMissingRegion {
		t.Errorf("Expected missing region without an atlas, got %v", cmds[1].Skip)
	}
}

func TestRenderSystem_CollectReusesBuffer(t *testing.T) {
	em := ecs.NewEntityManager()
	system := NewRenderSystem(em)
	addCharacter(t, em, newTestData(), newTestAtlas(t))

	first := system.Collect()
	second := system.Collect()
	if len(first) != 1 || len(second) != 1 || &first[0] != &second[0] {
		t.Error("Expected the command buffer to be reused")
	}
}

func TestRenderSystem_NoEntities(t *testing.T) {
	system := NewRenderSystem(ecs.NewEntityManager())
	if cmds := system.Collect(); len(cmds) != 0 {
		t.Errorf("Expected no commands, got %d", len(cmds))
	}
	em := ecs.NewEntityManager()
	em.AddComponent(em.CreateEntity(), &components.PositionComponent{})
	if cmds := NewRenderSystem(em).Collect(); len(cmds) != 0 {
		t.Errorf("Expected entities without skeletons to be ignored, got %d", len(cmds))
	}
}

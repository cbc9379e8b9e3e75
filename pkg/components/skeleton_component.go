package components

import (
	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/pkg/playback"
	"github.com/decker502/spine2d/pkg/pose"
	"github.com/decker502/spine2d/pkg/timeline"
)

// SkeletonComponent attaches a posed skeleton and its playback state to an
// entity. The skeleton data behind Skeleton is shared; the Skeleton and
// State are owned by this entity alone.
type SkeletonComponent struct {
	// CharacterID is the configuration id the entity was created from.
	CharacterID string

	Skeleton *pose.Skeleton
	State    *playback.State

	// Atlas resolves region attachments when drawing. May be nil, in which
	// case every slot is skipped.
	Atlas *atlas.Atlas

	// Events fired during the last update. The slice is reused every frame.
	Events []timeline.Event

	// Visible false keeps the entity animating without drawing it.
	Visible bool
}

// NewSkeletonComponent creates a visible component for sk.
func NewSkeletonComponent(id string, sk *pose.Skeleton, a *atlas.Atlas) *SkeletonComponent {
	return &SkeletonComponent{
		CharacterID: id,
		Skeleton:    sk,
		State:       playback.NewState(sk.Data),
		Atlas:       a,
		Visible:     true,
	}
}

// Package skelio loads and saves skeleton data in the binary (.skel) and
// JSON formats. Both loaders produce the same model.SkeletonData; both
// writers emit data the loaders read back into an equivalent model.
package skelio

import (
	"fmt"
	"log"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

// Verbose enables load diagnostics on the standard logger.
var Verbose = false

// Options controls loading.
type Options struct {
	// Scale multiplies every positional value (positions, lengths, vertex
	// coordinates, translate keys). Zero means 1.
	Scale float32
}

func (o Options) scale() float32 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

// pendingLink is a linked mesh waiting for its parent to be loaded.
type pendingLink struct {
	mesh   *model.Attachment
	skin   int
	slot   int
	parent string
}

// resolveLinkedMeshes copies geometry from each linked mesh's parent. It runs
// once all skins are loaded, so a linked mesh may name a parent in any skin.
func resolveLinkedMeshes(sd *model.SkeletonData, links []pendingLink) error {
	for _, l := range links {
		if l.skin < 0 || l.skin >= len(sd.Skins) {
			return &model.MissingReferenceError{Kind: "skin", Name: fmt.Sprintf("#%d", l.skin)}
		}
		parent := sd.Skins[l.skin].Attachment(l.slot, l.parent)
		if parent == nil || parent.Mesh == nil {
			return &model.MissingReferenceError{Kind: "parent mesh", Name: l.parent}
		}
		mesh := l.mesh.Mesh
		pm := parent.Mesh
		mesh.Vertices = pm.Vertices
		mesh.UVs = pm.UVs
		mesh.Triangles = pm.Triangles
		mesh.HullLength = pm.HullLength
		mesh.Edges = pm.Edges
		mesh.Width = pm.Width
		mesh.Height = pm.Height
		if mesh.Linked.InheritTimelines {
			l.mesh.TimelineKey = parent.Key
		}
	}
	return nil
}

func logLoaded(format string, sd *model.SkeletonData) {
	if !Verbose {
		return
	}
	log.Printf("[Skeleton%s] version=%s bones=%d slots=%d skins=%d animations=%d",
		format, sd.Version, len(sd.Bones), len(sd.Slots), len(sd.Skins), len(sd.Animations))
}

func attachmentKey(skin, slot int, name string) timeline.AttachmentKey {
	return timeline.AttachmentKey{Skin: skin, Slot: slot, Name: name}
}

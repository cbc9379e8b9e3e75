// Package model defines the immutable skeleton data loaded from binary or
// JSON assets.
//
// All cross references are indices into the slices owned by SkeletonData:
// a bone's Parent indexes Bones, a slot's Bone indexes Bones, a constraint's
// Target indexes Bones (or Slots for path constraints), and so on. A loaded
// SkeletonData is never mutated and can be shared by any number of skeleton
// instances without locking.
package model

import "github.com/decker502/spine2d/pkg/timeline"

// RuntimeVersion is the major.minor editor version this runtime reads.
const RuntimeVersion = "4.2"

// SkeletonData is the root of a loaded asset.
type SkeletonData struct {
	Name    string
	Hash    string
	Version string

	// HashWords are the two raw hash integers of a binary asset, kept so the
	// binary writer can reproduce them.
	HashWords [2]int32

	X, Y           float32
	Width, Height  float32
	ReferenceScale float32

	// Nonessential reports whether editor-only data was present.
	Nonessential bool
	FPS          float32
	ImagesPath   string
	AudioPath    string

	Strings []string

	Bones                []*BoneData
	Slots                []*SlotData
	Skins                []*Skin
	DefaultSkin          *Skin
	IKConstraints        []*IKConstraintData
	TransformConstraints []*TransformConstraintData
	PathConstraints      []*PathConstraintData
	PhysicsConstraints   []*PhysicsConstraintData
	Events               []*EventData
	Animations           []*timeline.Animation
}

// NewSkeletonData returns an empty skeleton with the documented header
// defaults.
func NewSkeletonData() *SkeletonData {
	return &SkeletonData{ReferenceScale: 100, FPS: 30}
}

// FindBone returns the index of the named bone, or -1.
func (sd *SkeletonData) FindBone(name string) int {
	for i, b := range sd.Bones {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// FindSlot returns the index of the named slot, or -1.
func (sd *SkeletonData) FindSlot(name string) int {
	for i, s := range sd.Slots {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// FindSkin returns the index of the named skin, or -1.
func (sd *SkeletonData) FindSkin(name string) int {
	for i, s := range sd.Skins {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// FindEvent returns the index of the named event, or -1.
func (sd *SkeletonData) FindEvent(name string) int {
	for i, e := range sd.Events {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// FindAnimation returns the named animation, or nil.
func (sd *SkeletonData) FindAnimation(name string) *timeline.Animation {
	for _, a := range sd.Animations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (sd *SkeletonData) FindIKConstraint(name string) int {
	for i, c := range sd.IKConstraints {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (sd *SkeletonData) FindTransformConstraint(name string) int {
	for i, c := range sd.TransformConstraints {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (sd *SkeletonData) FindPathConstraint(name string) int {
	for i, c := range sd.PathConstraints {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (sd *SkeletonData) FindPhysicsConstraint(name string) int {
	for i, c := range sd.PhysicsConstraints {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// AnimationNames lists the animations in load order.
func (sd *SkeletonData) AnimationNames() []string {
	names := make([]string, len(sd.Animations))
	for i, a := range sd.Animations {
		names[i] = a.Name
	}
	return names
}

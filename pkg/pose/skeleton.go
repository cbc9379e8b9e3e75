// Package pose evaluates skeleton data into a posed skeleton instance.
//
// A Skeleton owns the mutable state of one character: local bone
// transforms, slot colors and attachments, draw order and constraint
// parameters. Animations are applied onto it with Apply, after which
// UpdateWorldTransform resolves every bone's world transform in a single
// parent-first pass. SkeletonData is shared read-only between instances.
package pose

import "github.com/decker502/spine2d/pkg/model"

// Skeleton is one posed instance of a SkeletonData.
type Skeleton struct {
	Data *model.SkeletonData

	Bones     []*Bone
	Slots     []*Slot
	DrawOrder []*Slot

	IKConstraints        []*IKConstraint
	TransformConstraints []*TransformConstraint
	PathConstraints      []*PathConstraint
	PhysicsConstraints   []*PhysicsConstraint

	Skin  *model.Skin
	Color model.Color

	// X, Y position the root bone. ScaleX and ScaleY scale the whole
	// skeleton; negative values flip it.
	X, Y           float32
	ScaleX, ScaleY float32

	deformScratch []float32
}

// NewSkeleton creates an instance in the setup pose with the default skin.
func NewSkeleton(data *model.SkeletonData) *Skeleton {
	sk := &Skeleton{Data: data, Color: model.White, ScaleX: 1, ScaleY: 1}

	sk.Bones = make([]*Bone, len(data.Bones))
	for i, bd := range data.Bones {
		var parent *Bone
		if bd.Parent >= 0 {
			parent = sk.Bones[bd.Parent]
		}
		sk.Bones[i] = newBone(bd, parent)
	}

	sk.Slots = make([]*Slot, len(data.Slots))
	for i, sd := range data.Slots {
		sk.Slots[i] = &Slot{Data: sd, Bone: sk.Bones[sd.Bone]}
	}
	sk.DrawOrder = make([]*Slot, len(sk.Slots))

	for _, c := range data.IKConstraints {
		sk.IKConstraints = append(sk.IKConstraints, &IKConstraint{Data: c})
	}
	for _, c := range data.TransformConstraints {
		sk.TransformConstraints = append(sk.TransformConstraints, &TransformConstraint{Data: c})
	}
	for _, c := range data.PathConstraints {
		sk.PathConstraints = append(sk.PathConstraints, &PathConstraint{Data: c})
	}
	for _, c := range data.PhysicsConstraints {
		sk.PhysicsConstraints = append(sk.PhysicsConstraints, &PhysicsConstraint{Data: c})
	}

	sk.SetToSetupPose()
	sk.updateActive()
	return sk
}

// SetToSetupPose restores bones, constraints, slots and draw order.
func (sk *Skeleton) SetToSetupPose() {
	sk.SetBonesToSetupPose()
	sk.SetSlotsToSetupPose()
}

// SetBonesToSetupPose restores every bone and constraint parameter.
func (sk *Skeleton) SetBonesToSetupPose() {
	for _, b := range sk.Bones {
		b.SetToSetupPose()
	}
	for _, c := range sk.IKConstraints {
		c.setToSetupPose()
	}
	for _, c := range sk.TransformConstraints {
		c.setToSetupPose()
	}
	for _, c := range sk.PathConstraints {
		c.setToSetupPose()
	}
	for _, c := range sk.PhysicsConstraints {
		c.setToSetupPose()
	}
}

// SetSlotsToSetupPose restores slot colors, attachments and the draw order.
func (sk *Skeleton) SetSlotsToSetupPose() {
	copy(sk.DrawOrder, sk.Slots)
	for _, s := range sk.Slots {
		s.setToSetupPose(sk)
	}
}

// UpdateWorldTransform computes world transforms for every bone. Bones are
// stored parent first, so one forward pass suffices.
func (sk *Skeleton) UpdateWorldTransform() {
	for _, b := range sk.Bones {
		b.updateWorldTransform(sk)
	}
}

// FindBone returns the bone named name, or nil.
func (sk *Skeleton) FindBone(name string) *Bone {
	if i := sk.Data.FindBone(name); i >= 0 {
		return sk.Bones[i]
	}
	return nil
}

// FindSlot returns the slot named name, or nil.
func (sk *Skeleton) FindSlot(name string) *Slot {
	if i := sk.Data.FindSlot(name); i >= 0 {
		return sk.Slots[i]
	}
	return nil
}

// Attachment looks name up in the current skin, then in the default skin.
// It returns nil when neither has it.
func (sk *Skeleton) Attachment(slot int, name string) *model.Attachment {
	if sk.Skin != nil {
		if a := sk.Skin.Attachment(slot, name); a != nil {
			return a
		}
	}
	if d := sk.Data.DefaultSkin; d != nil {
		return d.Attachment(slot, name)
	}
	return nil
}

// SetAttachment shows the attachment name on the named slot. An empty name
// clears the slot.
func (sk *Skeleton) SetAttachment(slotName, name string) error {
	slot := sk.FindSlot(slotName)
	if slot == nil {
		return &model.MissingReferenceError{Kind: "slot", Name: slotName}
	}
	if name == "" {
		slot.SetAttachment(nil)
		return nil
	}
	a := sk.Attachment(slot.Data.Index, name)
	if a == nil {
		return &model.MissingReferenceError{Kind: "attachment", Name: name}
	}
	slot.SetAttachment(a)
	return nil
}

// SetSkin switches to the named skin. An empty name clears the skin so only
// the default skin is used. Slots showing an attachment of the previous skin
// switch to the new skin's attachment of the same name; with no previous
// skin, slots show their setup attachment from the new skin.
func (sk *Skeleton) SetSkin(name string) error {
	var skin *model.Skin
	if name != "" {
		i := sk.Data.FindSkin(name)
		if i < 0 {
			return &model.MissingReferenceError{Kind: "skin", Name: name}
		}
		skin = sk.Data.Skins[i]
	}
	sk.setSkin(skin)
	return nil
}

func (sk *Skeleton) setSkin(skin *model.Skin) {
	if skin == sk.Skin {
		return
	}
	if skin != nil {
		for i, slot := range sk.Slots {
			if sk.Skin != nil {
				if slot.Attachment == nil {
					continue
				}
				name := slot.Attachment.Key.Name
				if sk.Skin.Attachment(i, name) != slot.Attachment {
					continue
				}
				if a := skin.Attachment(i, name); a != nil {
					slot.SetAttachment(a)
				}
				continue
			}
			if name := slot.Data.AttachmentName; name != "" {
				if a := skin.Attachment(i, name); a != nil {
					slot.SetAttachment(a)
				}
			}
		}
	}
	sk.Skin = skin
	sk.updateActive()
}

// updateActive marks bones that require a skin active only while the current
// skin lists them. Activating a bone activates its parents.
func (sk *Skeleton) updateActive() {
	for _, b := range sk.Bones {
		b.Active = !b.Data.SkinRequired
	}
	if sk.Skin == nil {
		return
	}
	for _, i := range sk.Skin.Bones {
		for b := sk.Bones[i]; b != nil && !b.Active; b = b.Parent {
			b.Active = true
		}
	}
}

// ConstraintOrder returns the constraints in evaluation order.
func (sk *Skeleton) ConstraintOrder() []model.ConstraintRef {
	return sk.Data.ConstraintOrder()
}

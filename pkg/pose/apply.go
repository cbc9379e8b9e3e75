package pose

import (
	"math"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

// Apply poses sk with anim at time and appends the events whose keys lie in
// (lastTime, time] to events. Pass a negative lastTime on the first apply so
// keys at time zero fire.
//
// Looping animations wrap both times modulo the duration; others clamp to
// it. alpha mixes from the current pose (0) to the animation (1): continuous
// values are interpolated, discrete ones (attachments, draw order, inherit
// modes, IK flags) switch whenever alpha > 0. Bones and slots without a
// timeline keep their current values.
func (sk *Skeleton) Apply(anim *timeline.Animation, lastTime, time float32, loop bool, alpha float32, events []timeline.Event) []timeline.Event {
	time = anim.WrapTime(time, loop)
	if lastTime > 0 {
		lastTime = anim.WrapTime(lastTime, loop)
	}

	for _, tl := range anim.Timelines {
		if ev, ok := tl.(*timeline.EventTimeline); ok {
			events = ev.Fire(lastTime, time, events)
			continue
		}
		if alpha <= 0 {
			continue
		}
		switch tl := tl.(type) {
		case *timeline.BoneTimeline:
			sk.applyBone(tl, time, alpha)
		case *timeline.InheritTimeline:
			if b := sk.Bones[tl.Bone]; b.Active {
				b.Inherit = model.Inherit(tl.Inherit(time))
			}
		case *timeline.ColorTimeline:
			sk.applyColor(tl, time, alpha)
		case *timeline.AttachmentTimeline:
			slot := sk.Slots[tl.Slot]
			if !slot.Bone.Active {
				continue
			}
			if name := tl.Name(time); name == "" {
				slot.SetAttachment(nil)
			} else {
				slot.SetAttachment(sk.Attachment(tl.Slot, name))
			}
		case *timeline.DeformTimeline:
			sk.applyDeform(tl, time, alpha)
		case *timeline.SequenceTimeline:
			slot := sk.Slots[tl.Slot]
			a := slot.Attachment
			if a == nil || a.TimelineKey != tl.Attachment {
				continue
			}
			if seq := a.Sequence(); seq != nil {
				slot.SequenceIndex = tl.Index(time, seq.Count)
			}
		case *timeline.DrawOrderTimeline:
			if order := tl.DrawOrder(time); order == nil {
				copy(sk.DrawOrder, sk.Slots)
			} else {
				for i, slot := range order {
					sk.DrawOrder[i] = sk.Slots[slot]
				}
			}
		case *timeline.IKTimeline:
			c := sk.IKConstraints[tl.Constraint]
			p := tl.Pose(time)
			c.Mix = mix(c.Mix, p.Mix, alpha)
			c.Softness = mix(c.Softness, p.Softness, alpha)
			c.BendDirection, c.Compress, c.Stretch = p.BendDirection, p.Compress, p.Stretch
		case *timeline.TransformTimeline:
			c := sk.TransformConstraints[tl.Constraint]
			c.MixRotate = mix(c.MixRotate, tl.Value(time, 0), alpha)
			c.MixX = mix(c.MixX, tl.Value(time, 1), alpha)
			c.MixY = mix(c.MixY, tl.Value(time, 2), alpha)
			c.MixScaleX = mix(c.MixScaleX, tl.Value(time, 3), alpha)
			c.MixScaleY = mix(c.MixScaleY, tl.Value(time, 4), alpha)
			c.MixShearY = mix(c.MixShearY, tl.Value(time, 5), alpha)
		case *timeline.PathTimeline:
			c := sk.PathConstraints[tl.Constraint]
			switch tl.Property {
			case timeline.PathPosition:
				c.Position = mix(c.Position, tl.Value(time, 0), alpha)
			case timeline.PathSpacing:
				c.Spacing = mix(c.Spacing, tl.Value(time, 0), alpha)
			case timeline.PathMix:
				c.MixRotate = mix(c.MixRotate, tl.Value(time, 0), alpha)
				c.MixX = mix(c.MixX, tl.Value(time, 1), alpha)
				c.MixY = mix(c.MixY, tl.Value(time, 2), alpha)
			}
		case *timeline.PhysicsTimeline:
			sk.applyPhysics(tl, time, alpha)
		case *timeline.PhysicsResetTimeline:
			n := 0
			if lastTime > time {
				n = tl.Crossed(lastTime, math.MaxFloat32) + tl.Crossed(-1, time)
			} else {
				n = tl.Crossed(lastTime, time)
			}
			if n == 0 {
				continue
			}
			for i, c := range sk.PhysicsConstraints {
				if tl.Constraint < 0 || tl.Constraint == i {
					c.Resets += n
				}
			}
		}
	}
	return events
}

func mix(from, to, alpha float32) float32 {
	if alpha >= 1 {
		return to
	}
	return from + (to-from)*alpha
}

func mixColor(from, to model.Color, alpha float32) model.Color {
	return model.Color{
		R: mix(from.R, to.R, alpha),
		G: mix(from.G, to.G, alpha),
		B: mix(from.B, to.B, alpha),
		A: mix(from.A, to.A, alpha),
	}
}

// applyBone sets one transform property. Rotation, translation and shear
// keys are offsets from the setup pose; scale keys multiply the setup scale.
func (sk *Skeleton) applyBone(tl *timeline.BoneTimeline, time, alpha float32) {
	b := sk.Bones[tl.Bone]
	if !b.Active {
		return
	}
	d := b.Data
	v := tl.Value(time, 0)
	switch tl.Property {
	case timeline.BoneRotate:
		b.Rotation = mix(b.Rotation, d.Rotation+v, alpha)
	case timeline.BoneTranslate:
		b.X = mix(b.X, d.X+v, alpha)
		b.Y = mix(b.Y, d.Y+tl.Value(time, 1), alpha)
	case timeline.BoneTranslateX:
		b.X = mix(b.X, d.X+v, alpha)
	case timeline.BoneTranslateY:
		b.Y = mix(b.Y, d.Y+v, alpha)
	case timeline.BoneScale:
		b.ScaleX = mix(b.ScaleX, d.ScaleX*v, alpha)
		b.ScaleY = mix(b.ScaleY, d.ScaleY*tl.Value(time, 1), alpha)
	case timeline.BoneScaleX:
		b.ScaleX = mix(b.ScaleX, d.ScaleX*v, alpha)
	case timeline.BoneScaleY:
		b.ScaleY = mix(b.ScaleY, d.ScaleY*v, alpha)
	case timeline.BoneShear:
		b.ShearX = mix(b.ShearX, d.ShearX+v, alpha)
		b.ShearY = mix(b.ShearY, d.ShearY+tl.Value(time, 1), alpha)
	case timeline.BoneShearX:
		b.ShearX = mix(b.ShearX, d.ShearX+v, alpha)
	case timeline.BoneShearY:
		b.ShearY = mix(b.ShearY, d.ShearY+v, alpha)
	}
}

func (sk *Skeleton) applyColor(tl *timeline.ColorTimeline, time, alpha float32) {
	s := sk.Slots[tl.Slot]
	if !s.Bone.Active {
		return
	}
	var buf [7]float32
	v := tl.Values(time, buf[:0])
	light, dark := s.Color, s.DarkColor
	switch tl.Kind {
	case timeline.ColorRGBA:
		light = model.Color{R: v[0], G: v[1], B: v[2], A: v[3]}
	case timeline.ColorRGB:
		light.R, light.G, light.B = v[0], v[1], v[2]
	case timeline.ColorRGBA2:
		light = model.Color{R: v[0], G: v[1], B: v[2], A: v[3]}
		dark.R, dark.G, dark.B = v[4], v[5], v[6]
	case timeline.ColorRGB2:
		light.R, light.G, light.B = v[0], v[1], v[2]
		dark.R, dark.G, dark.B = v[3], v[4], v[5]
	case timeline.ColorAlpha:
		light.A = v[0]
	}
	s.Color = mixColor(s.Color, light, alpha)
	s.DarkColor = mixColor(s.DarkColor, dark, alpha)
}

// applyDeform blends the timeline vertices into the slot's deform buffer
// when the slot shows the attachment the timeline targets. Partial alpha
// starts from the setup vertices when the slot has no deform yet.
func (sk *Skeleton) applyDeform(tl *timeline.DeformTimeline, time, alpha float32) {
	s := sk.Slots[tl.Slot]
	a := s.Attachment
	if !s.Bone.Active || a == nil || a.TimelineKey != tl.Attachment {
		return
	}
	verts := a.Vertices()
	if verts == nil {
		return
	}
	sk.deformScratch = tl.Deform(time, sk.deformScratch)
	target := sk.deformScratch
	if alpha >= 1 {
		s.Deform = append(s.Deform[:0], target...)
		return
	}
	if len(s.Deform) != len(target) {
		s.Deform = s.Deform[:0]
		if verts.Weighted() {
			s.Deform = append(s.Deform, make([]float32, len(target))...)
		} else {
			s.Deform = append(s.Deform, verts.Values[:len(target)]...)
		}
	}
	for i, v := range target {
		s.Deform[i] += (v - s.Deform[i]) * alpha
	}
}

func (sk *Skeleton) applyPhysics(tl *timeline.PhysicsTimeline, time, alpha float32) {
	v := tl.Value(time, 0)
	for i, c := range sk.PhysicsConstraints {
		if tl.Constraint >= 0 && tl.Constraint != i {
			continue
		}
		if tl.Constraint < 0 && !c.global(tl.Property) {
			continue
		}
		switch tl.Property {
		case timeline.PhysicsInertia:
			c.Inertia = mix(c.Inertia, v, alpha)
		case timeline.PhysicsStrength:
			c.Strength = mix(c.Strength, v, alpha)
		case timeline.PhysicsDamping:
			c.Damping = mix(c.Damping, v, alpha)
		case timeline.PhysicsMass:
			if v != 0 {
				c.MassInverse = mix(c.MassInverse, 1/v, alpha)
			}
		case timeline.PhysicsWind:
			c.Wind = mix(c.Wind, v, alpha)
		case timeline.PhysicsGravity:
			c.Gravity = mix(c.Gravity, v, alpha)
		case timeline.PhysicsMix:
			c.Mix = mix(c.Mix, v, alpha)
		}
	}
}

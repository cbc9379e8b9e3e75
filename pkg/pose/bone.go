package pose

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/decker502/spine2d/pkg/model"
)

const (
	degRad = math.Pi / 180
	radDeg = 180 / math.Pi
)

// Bone is the mutable state of one bone. The local fields start from the
// setup pose and are overwritten by timelines; A, B, C, D, WorldX and WorldY
// hold the world transform computed by Skeleton.UpdateWorldTransform.
type Bone struct {
	Data   *model.BoneData
	Parent *Bone
	Index  int

	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32
	Inherit  model.Inherit

	A, B, C, D     float32
	WorldX, WorldY float32

	// Active is false for bones that require a skin the skeleton does not
	// currently use.
	Active bool
}

func newBone(data *model.BoneData, parent *Bone) *Bone {
	b := &Bone{Data: data, Parent: parent, Index: data.Index, Active: !data.SkinRequired}
	b.SetToSetupPose()
	return b
}

// SetToSetupPose restores the local transform from the bone data.
func (b *Bone) SetToSetupPose() {
	d := b.Data
	b.X, b.Y = d.X, d.Y
	b.Rotation = d.Rotation
	b.ScaleX, b.ScaleY = d.ScaleX, d.ScaleY
	b.ShearX, b.ShearY = d.ShearX, d.ShearY
	b.Inherit = d.Inherit
}

func sincos(deg float32) (sin, cos float32) {
	s, c := math.Sincos(float64(deg) * degRad)
	return float32(s), float32(c)
}

// local returns the rotation/scale/shear matrix of the local transform with
// rotation replaced by rot.
func (b *Bone) local(rot float32) (la, lb, lc, ld float32) {
	sx, cx := sincos(rot + b.ShearX)
	sy, cy := sincos(rot + 90 + b.ShearY)
	return cx * b.ScaleX, cy * b.ScaleY, sx * b.ScaleX, sy * b.ScaleY
}

// updateWorldTransform composes the local transform with the parent's world
// transform. Parents must be updated first; sk supplies the skeleton root
// position and flip scale.
func (b *Bone) updateWorldTransform(sk *Skeleton) {
	sx, sy := sk.ScaleX, sk.ScaleY
	p := b.Parent
	if p == nil {
		la, lb, lc, ld := b.local(b.Rotation)
		b.A, b.B = la*sx, lb*sx
		b.C, b.D = lc*sy, ld*sy
		b.WorldX = b.X*sx + sk.X
		b.WorldY = b.Y*sy + sk.Y
		return
	}

	pa, pb, pc, pd := p.A, p.B, p.C, p.D
	b.WorldX = pa*b.X + pb*b.Y + p.WorldX
	b.WorldY = pc*b.X + pd*b.Y + p.WorldY

	switch b.Inherit {
	case model.InheritNormal:
		la, lb, lc, ld := b.local(b.Rotation)
		b.A = pa*la + pb*lc
		b.B = pa*lb + pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld
		return

	case model.InheritOnlyTranslation:
		b.A, b.B, b.C, b.D = b.local(b.Rotation)

	case model.InheritNoRotationOrReflection:
		isx, isy := 1/sx, 1/sy
		pa *= isx
		pc *= isy
		var prx float32
		if s := pa*pa + pc*pc; s > 0.0001 {
			s = abs(pa*pd*isy-pb*isx*pc) / s
			pb = pc * s
			pd = pa * s
			prx = atan2(pc, pa) * radDeg
		} else {
			pa, pc = 0, 0
			prx = 90 - atan2(pd, pb)*radDeg
		}
		la, lb, lc, ld := b.local(b.Rotation - prx)
		b.A = pa*la - pb*lc
		b.B = pa*lb - pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld

	case model.InheritNoScale, model.InheritNoScaleOrReflection:
		sin, cos := sincos(b.Rotation)
		za := (pa*cos + pb*sin) / sx
		zc := (pc*cos + pd*sin) / sy
		s := float32(math.Sqrt(float64(za*za + zc*zc)))
		if s > 0.00001 {
			s = 1 / s
		}
		za *= s
		zc *= s
		s = float32(math.Sqrt(float64(za*za + zc*zc)))
		if b.Inherit == model.InheritNoScale && (pa*pd-pb*pc < 0) != ((sx < 0) != (sy < 0)) {
			s = -s
		}
		r := math.Pi/2 + math.Atan2(float64(zc), float64(za))
		zb := float32(math.Cos(r)) * s
		zd := float32(math.Sin(r)) * s
		shx, chx := sincos(b.ShearX)
		shy, chy := sincos(90 + b.ShearY)
		la, lb := chx*b.ScaleX, chy*b.ScaleY
		lc, ld := shx*b.ScaleX, shy*b.ScaleY
		b.A = za*la + zb*lc
		b.B = za*lb + zb*ld
		b.C = zc*la + zd*lc
		b.D = zc*lb + zd*ld
	}
	b.A *= sx
	b.B *= sx
	b.C *= sy
	b.D *= sy
}

// WorldMatrix returns the world transform as a column-major affine matrix.
func (b *Bone) WorldMatrix() mgl32.Mat3 {
	return mgl32.Mat3{
		b.A, b.C, 0,
		b.B, b.D, 0,
		b.WorldX, b.WorldY, 1,
	}
}

// WorldRotationX returns the world rotation of the bone's X axis in degrees.
func (b *Bone) WorldRotationX() float32 {
	return atan2(b.C, b.A) * radDeg
}

// WorldScaleX returns the length of the world X axis.
func (b *Bone) WorldScaleX() float32 {
	return float32(math.Hypot(float64(b.A), float64(b.C)))
}

// LocalToWorld transforms a point in bone space to world space.
func (b *Bone) LocalToWorld(p mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		b.A*p.X() + b.B*p.Y() + b.WorldX,
		b.C*p.X() + b.D*p.Y() + b.WorldY,
	}
}

// WorldToLocal is the inverse of LocalToWorld.
func (b *Bone) WorldToLocal(p mgl32.Vec2) mgl32.Vec2 {
	det := b.A*b.D - b.B*b.C
	if det == 0 {
		return mgl32.Vec2{}
	}
	inv := 1 / det
	x, y := p.X()-b.WorldX, p.Y()-b.WorldY
	return mgl32.Vec2{
		(x*b.D - y*b.B) * inv,
		(y*b.A - x*b.C) * inv,
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func atan2(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}

package pose

import (
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

// Constraint instances hold the animated parameters of each constraint.
// Timelines update them; solving is left to the consumer.

type IKConstraint struct {
	Data          *model.IKConstraintData
	Mix           float32
	Softness      float32
	BendDirection int
	Compress      bool
	Stretch       bool
}

func (c *IKConstraint) setToSetupPose() {
	d := c.Data
	c.Mix, c.Softness, c.BendDirection = d.Mix, d.Softness, d.BendDirection
	c.Compress, c.Stretch = d.Compress, d.Stretch
}

type TransformConstraint struct {
	Data      *model.TransformConstraintData
	MixRotate float32
	MixX      float32
	MixY      float32
	MixScaleX float32
	MixScaleY float32
	MixShearY float32
}

func (c *TransformConstraint) setToSetupPose() {
	d := c.Data
	c.MixRotate, c.MixX, c.MixY = d.MixRotate, d.MixX, d.MixY
	c.MixScaleX, c.MixScaleY, c.MixShearY = d.MixScaleX, d.MixScaleY, d.MixShearY
}

type PathConstraint struct {
	Data      *model.PathConstraintData
	Position  float32
	Spacing   float32
	MixRotate float32
	MixX      float32
	MixY      float32
}

func (c *PathConstraint) setToSetupPose() {
	d := c.Data
	c.Position, c.Spacing = d.Position, d.Spacing
	c.MixRotate, c.MixX, c.MixY = d.MixRotate, d.MixX, d.MixY
}

// PhysicsConstraint holds the animated physics parameters. Resets counts the
// reset keys crossed since the consumer last cleared it.
type PhysicsConstraint struct {
	Data        *model.PhysicsConstraintData
	Inertia     float32
	Strength    float32
	Damping     float32
	MassInverse float32
	Wind        float32
	Gravity     float32
	Mix         float32
	Resets      int
}

func (c *PhysicsConstraint) setToSetupPose() {
	d := c.Data
	c.Inertia, c.Strength, c.Damping = d.Inertia, d.Strength, d.Damping
	c.MassInverse, c.Wind, c.Gravity, c.Mix = d.MassInverse, d.Wind, d.Gravity, d.Mix
}

// global reports whether a global physics timeline for prop drives c.
func (c *PhysicsConstraint) global(prop timeline.PhysicsProperty) bool {
	d := c.Data
	switch prop {
	case timeline.PhysicsInertia:
		return d.InertiaGlobal
	case timeline.PhysicsStrength:
		return d.StrengthGlobal
	case timeline.PhysicsDamping:
		return d.DampingGlobal
	case timeline.PhysicsMass:
		return d.MassGlobal
	case timeline.PhysicsWind:
		return d.WindGlobal
	case timeline.PhysicsGravity:
		return d.GravityGlobal
	case timeline.PhysicsMix:
		return d.MixGlobal
	}
	return false
}

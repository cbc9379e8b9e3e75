package model

import "sort"

// IKConstraintData bends one or two bones toward a target bone.
type IKConstraintData struct {
	Name          string
	Order         int
	SkinRequired  bool
	Bones         []int
	Target        int
	Mix           float32
	Softness      float32
	BendDirection int
	Compress      bool
	Stretch       bool
	Uniform       bool
}

func NewIKConstraintData(name string) *IKConstraintData {
	return &IKConstraintData{Name: name, Mix: 1, BendDirection: 1}
}

// TransformConstraintData copies a target bone's transform to its bones.
type TransformConstraintData struct {
	Name         string
	Order        int
	SkinRequired bool
	Bones        []int
	Target       int
	Local        bool
	Relative     bool

	OffsetRotation float32
	OffsetX        float32
	OffsetY        float32
	OffsetScaleX   float32
	OffsetScaleY   float32
	OffsetShearY   float32

	MixRotate float32
	MixX      float32
	MixY      float32
	MixScaleX float32
	MixScaleY float32
	MixShearY float32
}

func NewTransformConstraintData(name string) *TransformConstraintData {
	return &TransformConstraintData{Name: name}
}

// PathConstraintData moves bones along the path attachment of a target slot.
type PathConstraintData struct {
	Name           string
	Order          int
	SkinRequired   bool
	Bones          []int
	Target         int
	PositionMode   PositionMode
	SpacingMode    SpacingMode
	RotateMode     RotateMode
	OffsetRotation float32
	Position       float32
	Spacing        float32
	MixRotate      float32
	MixX           float32
	MixY           float32
}

func NewPathConstraintData(name string) *PathConstraintData {
	return &PathConstraintData{Name: name, MixRotate: 1, MixX: 1, MixY: 1}
}

// PhysicsConstraintData simulates secondary motion of one bone.
type PhysicsConstraintData struct {
	Name         string
	Order        int
	SkinRequired bool
	Bone         int

	X, Y   float32
	Rotate float32
	ScaleX float32
	ShearX float32
	Limit  float32
	Step   float32

	Inertia     float32
	Strength    float32
	Damping     float32
	MassInverse float32
	Wind        float32
	Gravity     float32
	Mix         float32

	InertiaGlobal  bool
	StrengthGlobal bool
	DampingGlobal  bool
	MassGlobal     bool
	WindGlobal     bool
	GravityGlobal  bool
	MixGlobal      bool
}

func NewPhysicsConstraintData(name string) *PhysicsConstraintData {
	return &PhysicsConstraintData{
		Name:        name,
		Limit:       5000,
		Step:        1.0 / 60,
		Inertia:     1,
		Strength:    100,
		Damping:     1,
		MassInverse: 1,
		Mix:         1,
	}
}

// ConstraintKind tags the entries returned by SkeletonData.ConstraintOrder.
type ConstraintKind int

const (
	ConstraintIK ConstraintKind = iota
	ConstraintTransform
	ConstraintPath
	ConstraintPhysics
)

// ConstraintRef addresses one constraint of a SkeletonData.
type ConstraintRef struct {
	Kind  ConstraintKind
	Index int
	Order int
	Name  string
}

// ConstraintOrder returns every constraint sorted by its evaluation order.
func (sd *SkeletonData) ConstraintOrder() []ConstraintRef {
	var refs []ConstraintRef
	for i, c := range sd.IKConstraints {
		refs = append(refs, ConstraintRef{ConstraintIK, i, c.Order, c.Name})
	}
	for i, c := range sd.TransformConstraints {
		refs = append(refs, ConstraintRef{ConstraintTransform, i, c.Order, c.Name})
	}
	for i, c := range sd.PathConstraints {
		refs = append(refs, ConstraintRef{ConstraintPath, i, c.Order, c.Name})
	}
	for i, c := range sd.PhysicsConstraints {
		refs = append(refs, ConstraintRef{ConstraintPhysics, i, c.Order, c.Name})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Order < refs[j].Order })
	return refs
}

package timeline

// BoneProperty names the bone transform channels a BoneTimeline drives.
type BoneProperty int

const (
	BoneRotate BoneProperty = iota
	BoneTranslate
	BoneTranslateX
	BoneTranslateY
	BoneScale
	BoneScaleX
	BoneScaleY
	BoneShear
	BoneShearX
	BoneShearY
)

var bonePropertyNames = []string{
	"rotate", "translate", "translatex", "translatey",
	"scale", "scalex", "scaley", "shear", "shearx", "sheary",
}

func (p BoneProperty) String() string {
	if p < 0 || int(p) >= len(bonePropertyNames) {
		return "unknown"
	}
	return bonePropertyNames[p]
}

// ParseBoneProperty maps a JSON timeline name to its property.
func ParseBoneProperty(s string) (BoneProperty, bool) {
	for i, name := range bonePropertyNames {
		if name == s {
			return BoneProperty(i), true
		}
	}
	return 0, false
}

// ValueCount returns 2 for the paired properties and 1 otherwise.
func (p BoneProperty) ValueCount() int {
	switch p {
	case BoneTranslate, BoneScale, BoneShear:
		return 2
	}
	return 1
}

// BoneTimeline animates one transform property of one bone. Rotation,
// translation and shear values are offsets from the setup pose; scale values
// multiply the setup scale.
type BoneTimeline struct {
	CurveTimeline
	Bone     int
	Property BoneProperty
}

// NewBoneTimeline allocates a timeline for one bone property.
//
// Parameters:
//   - prop: the animated property; it fixes the number of values per key
//   - bone: index of the bone in SkeletonData.Bones
//   - frameCount: number of keys
//   - bezierCount: number of bezier segments the keys will use
func NewBoneTimeline(prop BoneProperty, bone, frameCount, bezierCount int) *BoneTimeline {
	return &BoneTimeline{
		CurveTimeline: newCurveTimeline(frameCount, prop.ValueCount(), bezierCount),
		Bone:          bone,
		Property:      prop,
	}
}

// InheritTimeline switches a bone's inherit mode at each key.
type InheritTimeline struct {
	frameSet
	Bone int
}

func NewInheritTimeline(bone, frameCount int) *InheritTimeline {
	return &InheritTimeline{frameSet: newFrameSet(frameCount, 2), Bone: bone}
}

func (t *InheritTimeline) SetFrame(frame int, time float32, inherit int) {
	t.frames[frame*2] = time
	t.frames[frame*2+1] = float32(inherit)
}

// Inherit returns the inherit mode in effect at time.
func (t *InheritTimeline) Inherit(time float32) int {
	return int(t.frames[search(t.frames, time, 2)+1])
}

package skelio

import (
	"fmt"
	"strings"

	"github.com/decker502/spine2d/internal/binio"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

// Binary timeline type codes.
const (
	boneRotate     = 0
	boneTranslate  = 1
	boneTranslateX = 2
	boneTranslateY = 3
	boneScale      = 4
	boneScaleX     = 5
	boneScaleY     = 6
	boneShear      = 7
	boneShearX     = 8
	boneShearY     = 9
	boneInherit    = 10

	slotAttachment = 0
	slotRGBA       = 1
	slotRGB        = 2
	slotRGBA2      = 3
	slotRGB2       = 4
	slotAlpha      = 5

	attachmentDeform   = 0
	attachmentSequence = 1

	pathPosition = 0
	pathSpacing  = 1
	pathMix      = 2

	physicsReset = 8

	curveLinear  = 0
	curveStepped = 1
	curveBezier  = 2
)

var slotColorKinds = map[byte]timeline.ColorKind{
	slotRGBA:  timeline.ColorRGBA,
	slotRGB:   timeline.ColorRGB,
	slotRGBA2: timeline.ColorRGBA2,
	slotRGB2:  timeline.ColorRGB2,
	slotAlpha: timeline.ColorAlpha,
}

// ReadBinary decodes a binary skeleton. On any error the returned data is
// nil.
func ReadBinary(data []byte, opts Options) (*model.SkeletonData, error) {
	br := &binaryReader{r: binio.NewReader(data), scale: opts.scale()}
	sd, err := br.readSkeleton()
	if err != nil {
		return nil, fmt.Errorf("failed to read binary skeleton: %w", err)
	}
	logLoaded("Binary", sd)
	return sd, nil
}

// binaryReader wraps binio.Reader with a sticky error: after the first
// failure every read returns a zero value, so sections can be decoded
// straight through and checked once.
type binaryReader struct {
	r            *binio.Reader
	err          error
	scale        float32
	sd           *model.SkeletonData
	nonessential bool
	links        []pendingLink
}

func (br *binaryReader) fail(err error) {
	if br.err == nil {
		br.err = err
	}
}

func (br *binaryReader) failf(format string, args ...any) {
	br.fail(br.r.Errorf(fmt.Sprintf(format, args...)))
}

func (br *binaryReader) byte() byte {
	if br.err != nil {
		return 0
	}
	b, err := br.r.ReadByte()
	br.fail(err)
	return b
}

func (br *binaryReader) sbyte() int8 { return int8(br.byte()) }

func (br *binaryReader) bool() bool { return br.byte() != 0 }

func (br *binaryReader) int() int32 {
	if br.err != nil {
		return 0
	}
	v, err := br.r.ReadInt()
	br.fail(err)
	return v
}

func (br *binaryReader) float() float32 {
	if br.err != nil {
		return 0
	}
	v, err := br.r.ReadFloat()
	br.fail(err)
	return v
}

func (br *binaryReader) varint(optimizePositive bool) int {
	if br.err != nil {
		return 0
	}
	v, err := br.r.ReadVarint(optimizePositive)
	br.fail(err)
	return v
}

func (br *binaryReader) count() int {
	if br.err != nil {
		return 0
	}
	n, err := br.r.ReadCount()
	br.fail(err)
	return n
}

// index reads a varint index and checks it against n.
func (br *binaryReader) index(n int, kind string) int {
	i := br.varint(true)
	if br.err == nil && (i < 0 || i >= n) {
		br.fail(&model.MissingReferenceError{Kind: kind, Name: fmt.Sprintf("#%d", i)})
		return 0
	}
	return i
}

func (br *binaryReader) string() (string, bool) {
	if br.err != nil {
		return "", false
	}
	s, ok, err := br.r.ReadString()
	br.fail(err)
	return s, ok
}

func (br *binaryReader) str() string {
	s, _ := br.string()
	return s
}

func (br *binaryReader) ref() (string, bool) {
	if br.err != nil {
		return "", false
	}
	s, ok, err := br.r.ReadStringRef(br.sd.Strings)
	br.fail(err)
	return s, ok
}

func (br *binaryReader) color() model.Color {
	if br.err != nil {
		return model.Color{}
	}
	c, err := br.r.ReadColor()
	br.fail(err)
	return c
}

func (br *binaryReader) readSkeleton() (*model.SkeletonData, error) {
	low := br.int()
	high := br.int()
	version := br.str()
	if br.err != nil {
		return nil, br.err
	}
	if !strings.HasPrefix(version, model.RuntimeVersion) {
		return nil, &model.VersionMismatchError{Found: version, Want: model.RuntimeVersion}
	}

	sd := model.NewSkeletonData()
	br.sd = sd
	sd.HashWords = [2]int32{low, high}
	sd.Hash = fmt.Sprintf("%x%x", uint32(high), uint32(low))
	sd.Version = version
	sd.X = br.float()
	sd.Y = br.float()
	sd.Width = br.float()
	sd.Height = br.float()
	sd.ReferenceScale = br.float() * br.scale
	br.nonessential = br.bool()
	sd.Nonessential = br.nonessential
	if br.nonessential {
		sd.FPS = br.float()
		sd.ImagesPath = br.str()
		sd.AudioPath = br.str()
	}

	n := br.count()
	sd.Strings = make([]string, 0, n)
	for i := 0; i < n; i++ {
		sd.Strings = append(sd.Strings, br.str())
	}

	br.readBones()
	br.readSlots()
	br.readIKConstraints()
	br.readTransformConstraints()
	br.readPathConstraints()
	br.readPhysicsConstraints()
	if br.err != nil {
		return nil, br.err
	}

	if slotCount := br.count(); slotCount > 0 {
		skin := model.NewSkin("default")
		br.readSkinAttachments(skin, 0, slotCount)
		sd.DefaultSkin = skin
		sd.Skins = append(sd.Skins, skin)
	}
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		sd.Skins = append(sd.Skins, br.readSkin(len(sd.Skins)))
	}
	if br.err != nil {
		return nil, br.err
	}
	if err := resolveLinkedMeshes(sd, br.links); err != nil {
		return nil, err
	}

	br.readEvents()
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		name := br.str()
		anim := br.readAnimation(name)
		if br.err != nil {
			return nil, fmt.Errorf("animation '%s': %w", name, br.err)
		}
		sd.Animations = append(sd.Animations, anim)
	}
	if br.err != nil {
		return nil, br.err
	}
	return sd, nil
}

func (br *binaryReader) readBones() {
	sd := br.sd
	n := br.count()
	for i := 0; i < n && br.err == nil; i++ {
		name := br.str()
		parent := -1
		if i > 0 {
			parent = br.index(i, "parent bone")
		}
		b := model.NewBoneData(i, name, parent)
		b.Rotation = br.float()
		b.X = br.float() * br.scale
		b.Y = br.float() * br.scale
		b.ScaleX = br.float()
		b.ScaleY = br.float()
		b.ShearX = br.float()
		b.ShearY = br.float()
		b.Length = br.float() * br.scale
		inherit := br.varint(true)
		if inherit < 0 || inherit > int(model.InheritNoScaleOrReflection) {
			br.failf("invalid inherit mode %d for bone '%s'", inherit, name)
		}
		b.Inherit = model.Inherit(inherit)
		b.SkinRequired = br.bool()
		if br.nonessential {
			b.Color = br.color()
			b.Icon = br.str()
			b.Visible = br.bool()
		}
		sd.Bones = append(sd.Bones, b)
	}
}

func (br *binaryReader) readSlots() {
	sd := br.sd
	n := br.count()
	for i := 0; i < n && br.err == nil; i++ {
		name := br.str()
		s := model.NewSlotData(i, name, br.index(len(sd.Bones), "bone"))
		s.Color = br.color()
		a, r, g, b := br.byte(), br.byte(), br.byte(), br.byte()
		if !(a == 0xff && r == 0xff && g == 0xff && b == 0xff) {
			s.DarkColor = model.Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: 1}
			s.HasDarkColor = true
		}
		s.AttachmentName, _ = br.ref()
		blend := br.varint(true)
		if blend < 0 || blend > int(model.BlendScreen) {
			br.failf("invalid blend mode %d for slot '%s'", blend, name)
		}
		s.Blend = model.BlendMode(blend)
		if br.nonessential {
			s.Visible = br.bool()
		}
		sd.Slots = append(sd.Slots, s)
	}
}

func (br *binaryReader) readBoneList() []int {
	n := br.count()
	bones := make([]int, 0, n)
	for i := 0; i < n && br.err == nil; i++ {
		bones = append(bones, br.index(len(br.sd.Bones), "bone"))
	}
	return bones
}

func (br *binaryReader) readIKConstraints() {
	sd := br.sd
	n := br.count()
	for i := 0; i < n && br.err == nil; i++ {
		c := model.NewIKConstraintData(br.str())
		c.Order = br.varint(true)
		c.Bones = br.readBoneList()
		c.Target = br.index(len(sd.Bones), "bone")
		flags := br.byte()
		c.SkinRequired = flags&1 != 0
		c.BendDirection = -1
		if flags&2 != 0 {
			c.BendDirection = 1
		}
		c.Compress = flags&4 != 0
		c.Stretch = flags&8 != 0
		c.Uniform = flags&16 != 0
		if flags&32 != 0 {
			c.Mix = 1
			if flags&64 != 0 {
				c.Mix = br.float()
			}
		}
		if flags&128 != 0 {
			c.Softness = br.float() * br.scale
		}
		sd.IKConstraints = append(sd.IKConstraints, c)
	}
}

func (br *binaryReader) readTransformConstraints() {
	sd := br.sd
	n := br.count()
	for i := 0; i < n && br.err == nil; i++ {
		c := model.NewTransformConstraintData(br.str())
		c.Order = br.varint(true)
		c.Bones = br.readBoneList()
		c.Target = br.index(len(sd.Bones), "bone")
		flags := br.byte()
		c.SkinRequired = flags&1 != 0
		c.Local = flags&2 != 0
		c.Relative = flags&4 != 0
		if flags&8 != 0 {
			c.OffsetRotation = br.float()
		}
		if flags&16 != 0 {
			c.OffsetX = br.float() * br.scale
		}
		if flags&32 != 0 {
			c.OffsetY = br.float() * br.scale
		}
		if flags&64 != 0 {
			c.OffsetScaleX = br.float()
		}
		if flags&128 != 0 {
			c.OffsetScaleY = br.float()
		}
		flags = br.byte()
		if flags&1 != 0 {
			c.OffsetShearY = br.float()
		}
		if flags&2 != 0 {
			c.MixRotate = br.float()
		}
		if flags&4 != 0 {
			c.MixX = br.float()
		}
		if flags&8 != 0 {
			c.MixY = br.float()
		}
		if flags&16 != 0 {
			c.MixScaleX = br.float()
		}
		if flags&32 != 0 {
			c.MixScaleY = br.float()
		}
		if flags&64 != 0 {
			c.MixShearY = br.float()
		}
		sd.TransformConstraints = append(sd.TransformConstraints, c)
	}
}

func (br *binaryReader) readPathConstraints() {
	sd := br.sd
	n := br.count()
	for i := 0; i < n && br.err == nil; i++ {
		c := model.NewPathConstraintData(br.str())
		c.Order = br.varint(true)
		c.SkinRequired = br.bool()
		c.Bones = br.readBoneList()
		c.Target = br.index(len(sd.Slots), "slot")
		flags := br.byte()
		c.PositionMode = model.PositionMode(flags & 1)
		c.SpacingMode = model.SpacingMode(flags >> 1 & 3)
		c.RotateMode = model.RotateMode(flags >> 3 & 3)
		if c.RotateMode > model.RotateChainScale {
			br.failf("invalid rotate mode %d for path constraint '%s'", c.RotateMode, c.Name)
		}
		if flags&128 != 0 {
			c.OffsetRotation = br.float()
		}
		c.Position = br.float()
		if c.PositionMode == model.PositionFixed {
			c.Position *= br.scale
		}
		c.Spacing = br.float()
		if c.SpacingMode == model.SpacingLength || c.SpacingMode == model.SpacingFixed {
			c.Spacing *= br.scale
		}
		c.MixRotate = br.float()
		c.MixX = br.float()
		c.MixY = br.float()
		sd.PathConstraints = append(sd.PathConstraints, c)
	}
}

func (br *binaryReader) readPhysicsConstraints() {
	sd := br.sd
	n := br.count()
	for i := 0; i < n && br.err == nil; i++ {
		c := model.NewPhysicsConstraintData(br.str())
		c.Order = br.varint(true)
		c.Bone = br.index(len(sd.Bones), "bone")
		flags := br.byte()
		c.SkinRequired = flags&1 != 0
		if flags&2 != 0 {
			c.X = br.float()
		}
		if flags&4 != 0 {
			c.Y = br.float()
		}
		if flags&8 != 0 {
			c.Rotate = br.float()
		}
		if flags&16 != 0 {
			c.ScaleX = br.float()
		}
		if flags&32 != 0 {
			c.ShearX = br.float()
		}
		c.Limit = 5000
		if flags&64 != 0 {
			c.Limit = br.float()
		}
		c.Limit *= br.scale
		fps := br.byte()
		if fps == 0 && br.err == nil {
			br.failf("physics constraint '%s' has zero fps", c.Name)
		}
		c.Step = 1 / float32(max(fps, 1))
		c.Inertia = br.float()
		c.Strength = br.float()
		c.Damping = br.float()
		c.MassInverse = 1
		if flags&128 != 0 {
			c.MassInverse = br.float()
		}
		c.Wind = br.float()
		c.Gravity = br.float()
		flags = br.byte()
		c.InertiaGlobal = flags&1 != 0
		c.StrengthGlobal = flags&2 != 0
		c.DampingGlobal = flags&4 != 0
		c.MassGlobal = flags&8 != 0
		c.WindGlobal = flags&16 != 0
		c.GravityGlobal = flags&32 != 0
		c.MixGlobal = flags&64 != 0
		c.Mix = 1
		if flags&128 != 0 {
			c.Mix = br.float()
		}
		sd.PhysicsConstraints = append(sd.PhysicsConstraints, c)
	}
}

func (br *binaryReader) readIndexList(n int, kind string) []int {
	count := br.count()
	var list []int
	for i := 0; i < count && br.err == nil; i++ {
		list = append(list, br.index(n, kind))
	}
	return list
}

func (br *binaryReader) readSkin(skinIndex int) *model.Skin {
	sd := br.sd
	skin := model.NewSkin(br.str())
	if br.nonessential {
		skin.Color = br.color()
	}
	skin.Bones = br.readIndexList(len(sd.Bones), "bone")
	skin.IKConstraints = br.readIndexList(len(sd.IKConstraints), "ik constraint")
	skin.TransformConstraints = br.readIndexList(len(sd.TransformConstraints), "transform constraint")
	skin.PathConstraints = br.readIndexList(len(sd.PathConstraints), "path constraint")
	skin.PhysicsConstraints = br.readIndexList(len(sd.PhysicsConstraints), "physics constraint")
	br.readSkinAttachments(skin, skinIndex, br.count())
	return skin
}

func (br *binaryReader) readSkinAttachments(skin *model.Skin, skinIndex, slotCount int) {
	for i := 0; i < slotCount && br.err == nil; i++ {
		slot := br.index(len(br.sd.Slots), "slot")
		for ii, n := 0, br.count(); ii < n && br.err == nil; ii++ {
			name, ok := br.ref()
			if !ok && br.err == nil {
				br.failf("attachment in skin '%s' has no name", skin.Name)
			}
			a := br.readAttachment(skinIndex, slot, name)
			if br.err != nil {
				br.err = fmt.Errorf("skin '%s' attachment '%s': %w", skin.Name, name, br.err)
				return
			}
			skin.SetAttachment(slot, name, a)
		}
	}
}

func (br *binaryReader) readSequence() *model.Sequence {
	return &model.Sequence{
		Count:      br.varint(true),
		Start:      br.varint(true),
		Digits:     br.varint(true),
		SetupIndex: br.varint(true),
	}
}

func (br *binaryReader) readAttachment(skinIndex, slot int, entryName string) *model.Attachment {
	flags := br.byte()
	name := entryName
	if flags&8 != 0 {
		name, _ = br.ref()
	}
	a := &model.Attachment{
		Kind: model.AttachmentKind(flags & 7),
		Name: name,
		Key:  attachmentKey(skinIndex, slot, entryName),
	}
	a.TimelineKey = a.Key
	scale := br.scale

	readPath := func() string {
		if flags&16 != 0 {
			p, _ := br.ref()
			return p
		}
		return name
	}

	switch a.Kind {
	case model.KindRegion:
		r := &model.RegionAttachment{Path: readPath(), Color: model.White}
		if flags&32 != 0 {
			r.Color = br.color()
		}
		if flags&64 != 0 {
			r.Sequence = br.readSequence()
		}
		if flags&128 != 0 {
			r.Rotation = br.float()
		}
		r.X = br.float() * scale
		r.Y = br.float() * scale
		r.ScaleX = br.float()
		r.ScaleY = br.float()
		r.Width = br.float() * scale
		r.Height = br.float() * scale
		a.Region = r

	case model.KindBoundingBox:
		b := &model.BoundingBoxAttachment{Vertices: br.readVertices(flags&16 != 0), Color: model.White}
		if br.nonessential {
			b.Color = br.color()
		}
		a.BoundingBox = b

	case model.KindMesh:
		m := &model.MeshAttachment{Path: readPath(), Color: model.White}
		if flags&32 != 0 {
			m.Color = br.color()
		}
		if flags&64 != 0 {
			m.Sequence = br.readSequence()
		}
		m.HullLength = br.varint(true)
		m.Vertices = br.readVertices(flags&128 != 0)
		m.UVs = br.readFloats(m.Vertices.WorldVerticesLength, 1)
		triangles := (m.Vertices.WorldVerticesLength - m.HullLength - 2) * 3
		if triangles < 0 && br.err == nil {
			br.failf("mesh '%s' has an invalid hull length", name)
		}
		m.Triangles = br.readIndices(max(triangles, 0))
		if br.nonessential {
			m.Edges = br.readIndices(br.count())
			m.Width = br.float()
			m.Height = br.float()
		}
		a.Mesh = m

	case model.KindLinkedMesh:
		m := &model.MeshAttachment{Path: readPath(), Color: model.White}
		if flags&32 != 0 {
			m.Color = br.color()
		}
		if flags&64 != 0 {
			m.Sequence = br.readSequence()
		}
		link := &model.LinkedMesh{InheritTimelines: flags&128 != 0}
		link.Skin = br.varint(true)
		link.Parent, _ = br.ref()
		if br.nonessential {
			m.Width = br.float() * scale
			m.Height = br.float() * scale
		}
		m.Linked = link
		a.Mesh = m
		br.links = append(br.links, pendingLink{mesh: a, skin: link.Skin, slot: slot, parent: link.Parent})

	case model.KindPath:
		p := &model.PathAttachment{
			Closed:        flags&16 != 0,
			ConstantSpeed: flags&32 != 0,
			Vertices:      br.readVertices(flags&64 != 0),
			Color:         model.White,
		}
		p.Lengths = br.readFloats(p.Vertices.WorldVerticesLength/6, scale)
		if br.nonessential {
			p.Color = br.color()
		}
		a.Path = p

	case model.KindPoint:
		p := &model.PointAttachment{Color: model.White}
		p.Rotation = br.float()
		p.X = br.float() * scale
		p.Y = br.float() * scale
		if br.nonessential {
			p.Color = br.color()
		}
		a.Point = p

	case model.KindClipping:
		c := &model.ClippingAttachment{Color: model.White}
		c.EndSlot = br.index(len(br.sd.Slots), "slot")
		c.Vertices = br.readVertices(flags&16 != 0)
		if br.nonessential {
			c.Color = br.color()
		}
		a.Clipping = c

	default:
		br.failf("invalid attachment type %d", a.Kind)
	}
	return a
}

func (br *binaryReader) readFloats(n int, scale float32) []float32 {
	if br.err != nil || n > br.r.Remaining()/4 {
		if br.err == nil {
			br.failf("float array of %d exceeds data", n)
		}
		return nil
	}
	values := make([]float32, n)
	for i := range values {
		values[i] = br.float() * scale
	}
	return values
}

func (br *binaryReader) readIndices(n int) []int {
	if br.err != nil || n > br.r.Remaining() {
		if br.err == nil {
			br.failf("index array of %d exceeds data", n)
		}
		return nil
	}
	values := make([]int, n)
	for i := range values {
		values[i] = br.varint(true)
	}
	return values
}

func (br *binaryReader) readVertices(weighted bool) model.Vertices {
	vertexCount := br.count()
	v := model.Vertices{WorldVerticesLength: vertexCount * 2}
	if !weighted {
		v.Values = br.readFloats(v.WorldVerticesLength, br.scale)
		return v
	}
	v.Bones = make([]int, 0, vertexCount*3)
	v.Values = make([]float32, 0, vertexCount*9)
	for i := 0; i < vertexCount && br.err == nil; i++ {
		boneCount := br.count()
		v.Bones = append(v.Bones, boneCount)
		for ii := 0; ii < boneCount && br.err == nil; ii++ {
			v.Bones = append(v.Bones, br.index(len(br.sd.Bones), "bone"))
			v.Values = append(v.Values, br.float()*br.scale, br.float()*br.scale, br.float())
		}
	}
	return v
}

func (br *binaryReader) readEvents() {
	sd := br.sd
	n := br.count()
	for i := 0; i < n && br.err == nil; i++ {
		e := model.NewEventData(br.str())
		e.Int = int32(br.varint(false))
		e.Float = br.float()
		e.String = br.str()
		e.AudioPath = br.str()
		if e.AudioPath != "" {
			e.Volume = br.float()
			e.Balance = br.float()
		}
		sd.Events = append(sd.Events, e)
	}
}

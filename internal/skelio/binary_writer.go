package skelio

import (
	"fmt"
	"math"
	"sort"

	"github.com/decker502/spine2d/internal/binio"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

var colorKindCodes = map[timeline.ColorKind]byte{
	timeline.ColorRGBA:  slotRGBA,
	timeline.ColorRGB:   slotRGB,
	timeline.ColorRGBA2: slotRGBA2,
	timeline.ColorRGB2:  slotRGB2,
	timeline.ColorAlpha: slotAlpha,
}

// WriteBinary encodes sd in the binary format read by ReadBinary. Values are
// written as stored, so data loaded with a scale other than 1 is written at
// that scale.
func WriteBinary(sd *model.SkeletonData) ([]byte, error) {
	if sd.DefaultSkin != nil && (len(sd.Skins) == 0 || sd.Skins[0] != sd.DefaultSkin) {
		return nil, fmt.Errorf("default skin must be the first skin")
	}
	bw := &binaryWriter{w: binio.NewWriter(), sd: sd, strings: collectStrings(sd)}
	bw.w.SetStrings(bw.strings)
	bw.writeSkeleton()
	if bw.err != nil {
		return nil, fmt.Errorf("failed to write binary skeleton: %w", bw.err)
	}
	return bw.w.Bytes(), nil
}

type binaryWriter struct {
	w       *binio.Writer
	sd      *model.SkeletonData
	strings []string
	err     error
}

func (bw *binaryWriter) byte(b byte) { _ = bw.w.WriteByte(b) }

func (bw *binaryWriter) bool(b bool) { bw.w.WriteBool(b) }

func (bw *binaryWriter) float(f float32) { bw.w.WriteFloat(f) }

func (bw *binaryWriter) varint(v int) { bw.w.WriteVarint(v, true) }

func (bw *binaryWriter) str(s string) { bw.w.WriteString(s, s != "") }

func (bw *binaryWriter) floats(values []float32) {
	for _, v := range values {
		bw.w.WriteFloat(v)
	}
}

func (bw *binaryWriter) ints(values []int) {
	bw.varint(len(values))
	for _, v := range values {
		bw.varint(v)
	}
}

// ref writes a string table reference; the empty string is written as null.
func (bw *binaryWriter) ref(s string) {
	if err := bw.w.WriteStringRef(s, s != ""); err != nil && bw.err == nil {
		bw.err = err
	}
}

// collectStrings returns sd.Strings extended with every name the binary
// format stores as a string table reference.
func collectStrings(sd *model.SkeletonData) []string {
	table := append([]string(nil), sd.Strings...)
	seen := make(map[string]bool, len(table))
	for _, s := range table {
		seen[s] = true
	}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			table = append(table, s)
		}
	}
	for _, slot := range sd.Slots {
		add(slot.AttachmentName)
	}
	for _, skin := range sd.Skins {
		for _, e := range skin.Entries() {
			add(e.Name)
			a := e.Attachment
			add(a.Name)
			switch a.Kind {
			case model.KindRegion:
				add(a.Region.Path)
			case model.KindMesh, model.KindLinkedMesh:
				add(a.Mesh.Path)
				if a.Mesh.Linked != nil {
					add(a.Mesh.Linked.Parent)
				}
			}
		}
	}
	for _, anim := range sd.Animations {
		for _, tl := range anim.Timelines {
			switch tl := tl.(type) {
			case *timeline.AttachmentTimeline:
				for _, name := range tl.Names {
					add(name)
				}
			case *timeline.DeformTimeline:
				add(tl.Attachment.Name)
			case *timeline.SequenceTimeline:
				add(tl.Attachment.Name)
			}
		}
	}
	return table
}

func (bw *binaryWriter) writeSkeleton() {
	sd := bw.sd
	bw.w.WriteInt(sd.HashWords[0])
	bw.w.WriteInt(sd.HashWords[1])
	version := sd.Version
	if version == "" {
		version = model.RuntimeVersion + ".0"
	}
	bw.str(version)
	bw.float(sd.X)
	bw.float(sd.Y)
	bw.float(sd.Width)
	bw.float(sd.Height)
	bw.float(sd.ReferenceScale)
	bw.bool(sd.Nonessential)
	if sd.Nonessential {
		bw.float(sd.FPS)
		bw.str(sd.ImagesPath)
		bw.str(sd.AudioPath)
	}

	bw.varint(len(bw.strings))
	for _, s := range bw.strings {
		bw.w.WriteString(s, true)
	}

	bw.writeBones()
	bw.writeSlots()
	bw.writeConstraints()

	skins := sd.Skins
	if sd.DefaultSkin != nil {
		bw.writeSkinAttachments(sd.DefaultSkin)
		skins = skins[1:]
	} else {
		bw.varint(0)
	}
	bw.varint(len(skins))
	for _, skin := range skins {
		bw.w.WriteString(skin.Name, true)
		if sd.Nonessential {
			bw.w.WriteColor(skin.Color)
		}
		bw.ints(skin.Bones)
		bw.ints(skin.IKConstraints)
		bw.ints(skin.TransformConstraints)
		bw.ints(skin.PathConstraints)
		bw.ints(skin.PhysicsConstraints)
		bw.writeSkinAttachments(skin)
	}

	bw.varint(len(sd.Events))
	for _, e := range sd.Events {
		bw.w.WriteString(e.Name, true)
		bw.w.WriteVarint(int(e.Int), false)
		bw.float(e.Float)
		bw.w.WriteString(e.String, true)
		bw.str(e.AudioPath)
		if e.AudioPath != "" {
			bw.float(e.Volume)
			bw.float(e.Balance)
		}
	}

	bw.varint(len(sd.Animations))
	for _, anim := range sd.Animations {
		bw.w.WriteString(anim.Name, true)
		bw.writeAnimation(anim)
	}
}

func (bw *binaryWriter) writeBones() {
	sd := bw.sd
	bw.varint(len(sd.Bones))
	for i, b := range sd.Bones {
		bw.w.WriteString(b.Name, true)
		if i > 0 {
			bw.varint(b.Parent)
		}
		bw.float(b.Rotation)
		bw.float(b.X)
		bw.float(b.Y)
		bw.float(b.ScaleX)
		bw.float(b.ScaleY)
		bw.float(b.ShearX)
		bw.float(b.ShearY)
		bw.float(b.Length)
		bw.varint(int(b.Inherit))
		bw.bool(b.SkinRequired)
		if sd.Nonessential {
			bw.w.WriteColor(b.Color)
			bw.str(b.Icon)
			bw.bool(b.Visible)
		}
	}
}

func (bw *binaryWriter) writeSlots() {
	sd := bw.sd
	bw.varint(len(sd.Slots))
	for _, s := range sd.Slots {
		bw.w.WriteString(s.Name, true)
		bw.varint(s.Bone)
		bw.w.WriteColor(s.Color)
		if s.HasDarkColor {
			r, g, b := binio.ColorByte(s.DarkColor.R), binio.ColorByte(s.DarkColor.G), binio.ColorByte(s.DarkColor.B)
			a := byte(0xff)
			if r == 0xff && g == 0xff && b == 0xff {
				a = 0
			}
			bw.byte(a)
			bw.byte(r)
			bw.byte(g)
			bw.byte(b)
		} else {
			bw.w.WriteInt(-1)
		}
		bw.ref(s.AttachmentName)
		bw.varint(int(s.Blend))
		if sd.Nonessential {
			bw.bool(s.Visible)
		}
	}
}

func (bw *binaryWriter) writeConstraints() {
	sd := bw.sd
	bw.varint(len(sd.IKConstraints))
	for _, c := range sd.IKConstraints {
		bw.w.WriteString(c.Name, true)
		bw.varint(c.Order)
		bw.ints(c.Bones)
		bw.varint(c.Target)
		var flags byte
		if c.SkinRequired {
			flags |= 1
		}
		if c.BendDirection > 0 {
			flags |= 2
		}
		if c.Compress {
			flags |= 4
		}
		if c.Stretch {
			flags |= 8
		}
		if c.Uniform {
			flags |= 16
		}
		if c.Mix != 0 {
			flags |= 32
			if c.Mix != 1 {
				flags |= 64
			}
		}
		if c.Softness != 0 {
			flags |= 128
		}
		bw.byte(flags)
		if flags&64 != 0 {
			bw.float(c.Mix)
		}
		if flags&128 != 0 {
			bw.float(c.Softness)
		}
	}

	bw.varint(len(sd.TransformConstraints))
	for _, c := range sd.TransformConstraints {
		bw.w.WriteString(c.Name, true)
		bw.varint(c.Order)
		bw.ints(c.Bones)
		bw.varint(c.Target)
		offsets := []float32{c.OffsetRotation, c.OffsetX, c.OffsetY, c.OffsetScaleX, c.OffsetScaleY}
		flags := flagBits(offsets, 8)
		if c.SkinRequired {
			flags |= 1
		}
		if c.Local {
			flags |= 2
		}
		if c.Relative {
			flags |= 4
		}
		bw.byte(flags)
		bw.nonZero(offsets)
		rest := []float32{c.OffsetShearY, c.MixRotate, c.MixX, c.MixY, c.MixScaleX, c.MixScaleY, c.MixShearY}
		bw.byte(flagBits(rest, 1))
		bw.nonZero(rest)
	}

	bw.varint(len(sd.PathConstraints))
	for _, c := range sd.PathConstraints {
		bw.w.WriteString(c.Name, true)
		bw.varint(c.Order)
		bw.bool(c.SkinRequired)
		bw.ints(c.Bones)
		bw.varint(c.Target)
		flags := byte(c.PositionMode) | byte(c.SpacingMode)<<1 | byte(c.RotateMode)<<3
		if c.OffsetRotation != 0 {
			flags |= 128
		}
		bw.byte(flags)
		if c.OffsetRotation != 0 {
			bw.float(c.OffsetRotation)
		}
		bw.floats([]float32{c.Position, c.Spacing, c.MixRotate, c.MixX, c.MixY})
	}

	bw.varint(len(sd.PhysicsConstraints))
	for _, c := range sd.PhysicsConstraints {
		bw.w.WriteString(c.Name, true)
		bw.varint(c.Order)
		bw.varint(c.Bone)
		values := []float32{c.X, c.Y, c.Rotate, c.ScaleX, c.ShearX}
		flags := flagBits(values, 2)
		if c.SkinRequired {
			flags |= 1
		}
		if c.Limit != 5000 {
			flags |= 64
		}
		if c.MassInverse != 1 {
			flags |= 128
		}
		bw.byte(flags)
		bw.nonZero(values)
		if flags&64 != 0 {
			bw.float(c.Limit)
		}
		fps := 60
		if c.Step > 0 {
			fps = int(math.Round(float64(1 / c.Step)))
		}
		bw.byte(byte(min(max(fps, 1), 255)))
		bw.float(c.Inertia)
		bw.float(c.Strength)
		bw.float(c.Damping)
		if flags&128 != 0 {
			bw.float(c.MassInverse)
		}
		bw.float(c.Wind)
		bw.float(c.Gravity)
		globals := []bool{c.InertiaGlobal, c.StrengthGlobal, c.DampingGlobal, c.MassGlobal, c.WindGlobal, c.GravityGlobal, c.MixGlobal}
		var flags2 byte
		for i, g := range globals {
			if g {
				flags2 |= 1 << i
			}
		}
		if c.Mix != 1 {
			flags2 |= 128
		}
		bw.byte(flags2)
		if c.Mix != 1 {
			bw.float(c.Mix)
		}
	}
}

// flagBits sets bit first<<i for each non-zero value i.
func flagBits(values []float32, first byte) byte {
	var flags byte
	for i, v := range values {
		if v != 0 {
			flags |= first << i
		}
	}
	return flags
}

func (bw *binaryWriter) nonZero(values []float32) {
	for _, v := range values {
		if v != 0 {
			bw.float(v)
		}
	}
}

func (bw *binaryWriter) writeSkinAttachments(skin *model.Skin) {
	groups := skin.SlotEntries()
	bw.varint(len(groups))
	for _, group := range groups {
		bw.varint(group[0].Slot)
		bw.varint(len(group))
		for _, e := range group {
			bw.ref(e.Name)
			bw.writeAttachment(e.Name, e.Attachment)
		}
	}
}

func (bw *binaryWriter) writeSequence(s *model.Sequence) {
	bw.varint(s.Count)
	bw.varint(s.Start)
	bw.varint(s.Digits)
	bw.varint(s.SetupIndex)
}

func (bw *binaryWriter) writeVertices(v *model.Vertices) {
	bw.varint(v.VertexCount())
	if !v.Weighted() {
		bw.floats(v.Values)
		return
	}
	for b, w := 0, 0; b < len(v.Bones); {
		n := v.Bones[b]
		bw.varint(n)
		b++
		for end := b + n; b < end; b++ {
			bw.varint(v.Bones[b])
			bw.floats(v.Values[w : w+3])
			w += 3
		}
	}
}

func (bw *binaryWriter) writeAttachment(entryName string, a *model.Attachment) {
	nonessential := bw.sd.Nonessential
	flags := byte(a.Kind)
	if a.Name != entryName {
		flags |= 8
	}
	textured := func(path string, color model.Color, seq *model.Sequence) {
		if path != a.Name {
			flags |= 16
		}
		if color != model.White {
			flags |= 32
		}
		if seq != nil {
			flags |= 64
		}
	}
	writeTextured := func(path string, color model.Color, seq *model.Sequence) {
		if flags&8 != 0 {
			bw.ref(a.Name)
		}
		if flags&16 != 0 {
			bw.ref(path)
		}
		if flags&32 != 0 {
			bw.w.WriteColor(color)
		}
		if flags&64 != 0 {
			bw.writeSequence(seq)
		}
	}
	writeName := func() {
		if flags&8 != 0 {
			bw.ref(a.Name)
		}
	}

	switch a.Kind {
	case model.KindRegion:
		r := a.Region
		textured(r.Path, r.Color, r.Sequence)
		if r.Rotation != 0 {
			flags |= 128
		}
		bw.byte(flags)
		writeTextured(r.Path, r.Color, r.Sequence)
		if flags&128 != 0 {
			bw.float(r.Rotation)
		}
		bw.floats([]float32{r.X, r.Y, r.ScaleX, r.ScaleY, r.Width, r.Height})

	case model.KindMesh:
		m := a.Mesh
		textured(m.Path, m.Color, m.Sequence)
		if m.Vertices.Weighted() {
			flags |= 128
		}
		bw.byte(flags)
		writeTextured(m.Path, m.Color, m.Sequence)
		bw.varint(m.HullLength)
		bw.writeVertices(&m.Vertices)
		bw.floats(m.UVs)
		for _, t := range m.Triangles {
			bw.varint(t)
		}
		if nonessential {
			bw.ints(m.Edges)
			bw.float(m.Width)
			bw.float(m.Height)
		}

	case model.KindLinkedMesh:
		m := a.Mesh
		textured(m.Path, m.Color, m.Sequence)
		if m.Linked.InheritTimelines {
			flags |= 128
		}
		bw.byte(flags)
		writeTextured(m.Path, m.Color, m.Sequence)
		bw.varint(m.Linked.Skin)
		bw.ref(m.Linked.Parent)
		if nonessential {
			bw.float(m.Width)
			bw.float(m.Height)
		}

	case model.KindBoundingBox:
		b := a.BoundingBox
		if b.Vertices.Weighted() {
			flags |= 16
		}
		bw.byte(flags)
		writeName()
		bw.writeVertices(&b.Vertices)
		if nonessential {
			bw.w.WriteColor(b.Color)
		}

	case model.KindPath:
		p := a.Path
		if p.Closed {
			flags |= 16
		}
		if p.ConstantSpeed {
			flags |= 32
		}
		if p.Vertices.Weighted() {
			flags |= 64
		}
		bw.byte(flags)
		writeName()
		bw.writeVertices(&p.Vertices)
		bw.floats(p.Lengths)
		if nonessential {
			bw.w.WriteColor(p.Color)
		}

	case model.KindPoint:
		p := a.Point
		bw.byte(flags)
		writeName()
		bw.floats([]float32{p.Rotation, p.X, p.Y})
		if nonessential {
			bw.w.WriteColor(p.Color)
		}

	case model.KindClipping:
		c := a.Clipping
		if c.Vertices.Weighted() {
			flags |= 16
		}
		bw.byte(flags)
		writeName()
		bw.varint(c.EndSlot)
		bw.writeVertices(&c.Vertices)
		if nonessential {
			bw.w.WriteColor(c.Color)
		}

	default:
		if bw.err == nil {
			bw.err = fmt.Errorf("attachment '%s' has invalid kind %d", a.Name, a.Kind)
		}
	}
}

// timelineGroups buckets an animation's timelines by the section of the
// binary format they are written in.
type timelineGroups struct {
	slots      map[int][]timeline.Timeline
	bones      map[int][]timeline.Timeline
	ik         []*timeline.IKTimeline
	transform  []*timeline.TransformTimeline
	paths      map[int][]*timeline.PathTimeline
	physics    map[int][]timeline.Timeline
	attachment map[int]map[int][]timeline.Timeline
	drawOrder  *timeline.DrawOrderTimeline
	events     *timeline.EventTimeline
}

func groupTimelines(anim *timeline.Animation) (*timelineGroups, error) {
	g := &timelineGroups{
		slots:      map[int][]timeline.Timeline{},
		bones:      map[int][]timeline.Timeline{},
		paths:      map[int][]*timeline.PathTimeline{},
		physics:    map[int][]timeline.Timeline{},
		attachment: map[int]map[int][]timeline.Timeline{},
	}
	addAttachment := func(key timeline.AttachmentKey, tl timeline.Timeline) {
		if g.attachment[key.Skin] == nil {
			g.attachment[key.Skin] = map[int][]timeline.Timeline{}
		}
		g.attachment[key.Skin][key.Slot] = append(g.attachment[key.Skin][key.Slot], tl)
	}
	for _, tl := range anim.Timelines {
		switch tl := tl.(type) {
		case *timeline.AttachmentTimeline:
			g.slots[tl.Slot] = append(g.slots[tl.Slot], tl)
		case *timeline.ColorTimeline:
			g.slots[tl.Slot] = append(g.slots[tl.Slot], tl)
		case *timeline.BoneTimeline:
			g.bones[tl.Bone] = append(g.bones[tl.Bone], tl)
		case *timeline.InheritTimeline:
			g.bones[tl.Bone] = append(g.bones[tl.Bone], tl)
		case *timeline.IKTimeline:
			g.ik = append(g.ik, tl)
		case *timeline.TransformTimeline:
			g.transform = append(g.transform, tl)
		case *timeline.PathTimeline:
			g.paths[tl.Constraint] = append(g.paths[tl.Constraint], tl)
		case *timeline.PhysicsTimeline:
			g.physics[tl.Constraint] = append(g.physics[tl.Constraint], tl)
		case *timeline.PhysicsResetTimeline:
			g.physics[tl.Constraint] = append(g.physics[tl.Constraint], tl)
		case *timeline.DeformTimeline:
			addAttachment(tl.Attachment, tl)
		case *timeline.SequenceTimeline:
			addAttachment(tl.Attachment, tl)
		case *timeline.DrawOrderTimeline:
			if g.drawOrder != nil {
				return nil, fmt.Errorf("animation '%s' has more than one draw order timeline", anim.Name)
			}
			g.drawOrder = tl
		case *timeline.EventTimeline:
			if g.events != nil {
				return nil, fmt.Errorf("animation '%s' has more than one event timeline", anim.Name)
			}
			g.events = tl
		default:
			return nil, fmt.Errorf("animation '%s' has unsupported timeline %T", anim.Name, tl)
		}
	}
	return g, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// bezierCount returns the number of bezier segments the curves of tl use.
func bezierCount(tl *timeline.CurveTimeline, channels int) int {
	n := 0
	for frame := 0; frame < tl.FrameCount()-1; frame++ {
		if tl.CurveType(frame) == timeline.CurveBezier {
			n += channels
		}
	}
	return n
}

func (bw *binaryWriter) writeAnimation(anim *timeline.Animation) {
	g, err := groupTimelines(anim)
	if err != nil {
		if bw.err == nil {
			bw.err = err
		}
		return
	}
	bw.varint(len(anim.Timelines))

	bw.varint(len(g.slots))
	for _, slot := range sortedKeys(g.slots) {
		bw.varint(slot)
		bw.varint(len(g.slots[slot]))
		for _, tl := range g.slots[slot] {
			switch tl := tl.(type) {
			case *timeline.AttachmentTimeline:
				bw.byte(slotAttachment)
				bw.varint(tl.FrameCount())
				for frame, name := range tl.Names {
					bw.float(tl.FrameTime(frame))
					bw.ref(name)
				}
			case *timeline.ColorTimeline:
				bw.byte(colorKindCodes[tl.Kind])
				bw.writeCurveTimeline(&tl.CurveTimeline, func(v float32) { bw.byte(binio.ColorByte(v)) })
			}
		}
	}

	bw.varint(len(g.bones))
	for _, bone := range sortedKeys(g.bones) {
		bw.varint(bone)
		bw.varint(len(g.bones[bone]))
		for _, tl := range g.bones[bone] {
			switch tl := tl.(type) {
			case *timeline.InheritTimeline:
				bw.byte(boneInherit)
				bw.varint(tl.FrameCount())
				for frame := 0; frame < tl.FrameCount(); frame++ {
					bw.float(tl.FrameTime(frame))
					bw.byte(byte(tl.Frames()[frame*2+1]))
				}
			case *timeline.BoneTimeline:
				bw.byte(byte(tl.Property))
				bw.writeCurveTimeline(&tl.CurveTimeline, bw.float)
			}
		}
	}

	bw.varint(len(g.ik))
	for _, tl := range g.ik {
		bw.varint(tl.Constraint)
		bw.writeIKTimeline(tl)
	}

	bw.varint(len(g.transform))
	for _, tl := range g.transform {
		bw.varint(tl.Constraint)
		bw.writeCurveTimeline(&tl.CurveTimeline, bw.float)
	}

	bw.varint(len(g.paths))
	for _, constraint := range sortedKeys(g.paths) {
		bw.varint(constraint)
		bw.varint(len(g.paths[constraint]))
		for _, tl := range g.paths[constraint] {
			bw.byte(byte(tl.Property))
			bw.writeCurveTimeline(&tl.CurveTimeline, bw.float)
		}
	}

	bw.varint(len(g.physics))
	for _, constraint := range sortedKeys(g.physics) {
		bw.varint(constraint + 1)
		bw.varint(len(g.physics[constraint]))
		for _, tl := range g.physics[constraint] {
			switch tl := tl.(type) {
			case *timeline.PhysicsResetTimeline:
				bw.byte(physicsReset)
				bw.varint(tl.FrameCount())
				bw.floats(tl.Frames())
			case *timeline.PhysicsTimeline:
				bw.byte(byte(tl.Property))
				bw.writeCurveTimeline(&tl.CurveTimeline, bw.float)
			}
		}
	}

	bw.varint(len(g.attachment))
	for _, skin := range sortedKeys(g.attachment) {
		bw.varint(skin)
		slots := g.attachment[skin]
		bw.varint(len(slots))
		for _, slot := range sortedKeys(slots) {
			bw.varint(slot)
			bw.varint(len(slots[slot]))
			for _, tl := range slots[slot] {
				switch tl := tl.(type) {
				case *timeline.DeformTimeline:
					bw.ref(tl.Attachment.Name)
					bw.byte(attachmentDeform)
					bw.writeDeformTimeline(tl)
				case *timeline.SequenceTimeline:
					bw.ref(tl.Attachment.Name)
					bw.byte(attachmentSequence)
					bw.varint(tl.FrameCount())
					for frame := 0; frame < tl.FrameCount(); frame++ {
						mode, index, delay := tl.Key(frame)
						bw.float(tl.FrameTime(frame))
						bw.w.WriteInt(int32(int(mode) | index<<4))
						bw.float(delay)
					}
				}
			}
		}
	}

	if tl := g.drawOrder; tl != nil {
		bw.varint(tl.FrameCount())
		for frame, order := range tl.DrawOrders {
			bw.float(tl.FrameTime(frame))
			offsets := timeline.CompactDrawOrder(order)
			bw.varint(len(offsets))
			for _, o := range offsets {
				bw.varint(o.Slot)
				bw.varint(o.Offset)
			}
		}
	} else {
		bw.varint(0)
	}

	if tl := g.events; tl != nil {
		bw.varint(tl.FrameCount())
		for _, ev := range tl.Events {
			if ev.Data < 0 || ev.Data >= len(bw.sd.Events) {
				if bw.err == nil {
					bw.err = &model.MissingReferenceError{Kind: "event", Name: fmt.Sprintf("#%d", ev.Data)}
				}
				return
			}
			data := bw.sd.Events[ev.Data]
			bw.float(ev.Time)
			bw.varint(ev.Data)
			bw.w.WriteVarint(int(ev.Int), false)
			bw.float(ev.Float)
			bw.w.WriteString(ev.String, ev.String != data.String)
			if data.AudioPath != "" {
				bw.float(ev.Volume)
				bw.float(ev.Balance)
			}
		}
	} else {
		bw.varint(0)
	}
}

func (bw *binaryWriter) writeBezier(tl *timeline.CurveTimeline, frame, channel int) {
	cx1, cy1, cx2, cy2, _ := tl.Bezier(frame, channel)
	bw.floats([]float32{cx1, cy1, cx2, cy2})
}

// writeCurveTimeline writes frame count, bezier count and keys in the layout
// readCurveFrames reads.
func (bw *binaryWriter) writeCurveTimeline(tl *timeline.CurveTimeline, value func(float32)) {
	channels := tl.ValueCount()
	frameCount := tl.FrameCount()
	bw.varint(frameCount)
	bw.varint(bezierCount(tl, channels))
	frames := tl.Frames()
	entries := tl.FrameEntries()
	for frame := 0; frame < frameCount; frame++ {
		i := frame * entries
		bw.float(frames[i])
		for ch := 0; ch < channels; ch++ {
			value(frames[i+1+ch])
		}
		if frame == 0 {
			continue
		}
		prev := frame - 1
		switch tl.CurveType(prev) {
		case timeline.CurveStepped:
			bw.w.WriteSByte(curveStepped)
		case timeline.CurveBezier:
			bw.w.WriteSByte(curveBezier)
			for ch := 0; ch < channels; ch++ {
				bw.writeBezier(tl, prev, ch)
			}
		default:
			bw.w.WriteSByte(curveLinear)
		}
	}
}

func (bw *binaryWriter) writeIKTimeline(tl *timeline.IKTimeline) {
	frameCount := tl.FrameCount()
	bw.varint(frameCount)
	bw.varint(bezierCount(&tl.CurveTimeline, 2))
	for frame := 0; frame < frameCount; frame++ {
		key := tl.Key(frame)
		var flags byte
		if key.Mix != 0 {
			flags |= 1
			if key.Mix != 1 {
				flags |= 2
			}
		}
		if key.Softness != 0 {
			flags |= 4
		}
		if key.BendDirection > 0 {
			flags |= 8
		}
		if key.Compress {
			flags |= 16
		}
		if key.Stretch {
			flags |= 32
		}
		curve := timeline.CurveLinear
		if frame > 0 {
			curve = tl.CurveType(frame - 1)
			switch curve {
			case timeline.CurveStepped:
				flags |= 64
			case timeline.CurveBezier:
				flags |= 128
			}
		}
		bw.byte(flags)
		bw.float(tl.FrameTime(frame))
		if flags&2 != 0 {
			bw.float(key.Mix)
		}
		if flags&4 != 0 {
			bw.float(key.Softness)
		}
		if curve == timeline.CurveBezier {
			bw.writeBezier(&tl.CurveTimeline, frame-1, 0)
			bw.writeBezier(&tl.CurveTimeline, frame-1, 1)
		}
	}
}

// writeDeformTimeline writes each key as the range of values that differ
// from the setup vertices.
func (bw *binaryWriter) writeDeformTimeline(tl *timeline.DeformTimeline) {
	key := tl.Attachment
	var setup *model.Vertices
	if key.Skin >= 0 && key.Skin < len(bw.sd.Skins) {
		if a := bw.sd.Skins[key.Skin].Attachment(key.Slot, key.Name); a != nil {
			setup = a.Vertices()
		}
	}
	if setup == nil {
		if bw.err == nil {
			bw.err = &model.MissingReferenceError{Kind: "attachment", Name: key.Name}
		}
		return
	}
	frameCount := tl.FrameCount()
	bw.varint(frameCount)
	bw.varint(bezierCount(&tl.CurveTimeline, 1))
	delta := make([]float32, setup.DeformLength())
	for frame := 0; frame < frameCount; frame++ {
		bw.float(tl.FrameTime(frame))
		if frame > 0 {
			prev := frame - 1
			switch tl.CurveType(prev) {
			case timeline.CurveStepped:
				bw.w.WriteSByte(curveStepped)
			case timeline.CurveBezier:
				bw.w.WriteSByte(curveBezier)
				bw.writeBezier(&tl.CurveTimeline, prev, 0)
			default:
				bw.w.WriteSByte(curveLinear)
			}
		}
		vertices := tl.Vertices[frame]
		for i := range delta {
			delta[i] = 0
			if i < len(vertices) {
				delta[i] = vertices[i]
			}
			if !setup.Weighted() {
				delta[i] -= setup.Values[i]
			}
		}
		start, end := 0, len(delta)
		for start < end && delta[start] == 0 {
			start++
		}
		for end > start && delta[end-1] == 0 {
			end--
		}
		if start == end {
			bw.varint(0)
			continue
		}
		bw.varint(end - start)
		bw.varint(start)
		bw.floats(delta[start:end])
	}
}

package skelio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

// WriteJSON encodes sd in the JSON format read by ReadJSON. Values equal to
// the format defaults are omitted.
func WriteJSON(sd *model.SkeletonData) ([]byte, error) {
	jw := &jsonWriter{sd: sd}
	doc := jw.writeSkeleton()
	if jw.err != nil {
		return nil, fmt.Errorf("failed to write json skeleton: %w", jw.err)
	}
	return pretty.Pretty(doc), nil
}

type jsonWriter struct {
	sd  *model.SkeletonData
	err error
}

func (jw *jsonWriter) set(doc *[]byte, path string, v any) {
	if jw.err == nil {
		*doc, jw.err = sjson.SetBytes(*doc, path, v)
	}
}

func (jw *jsonWriter) raw(doc *[]byte, path string, raw []byte) {
	if jw.err == nil {
		*doc, jw.err = sjson.SetRawBytes(*doc, path, raw)
	}
}

func (jw *jsonWriter) num(doc *[]byte, path string, v float32) {
	jw.raw(doc, path, strconv.AppendFloat(nil, float64(v), 'g', -1, 32))
}

// numIf writes v unless it equals the default the reader assumes.
func (jw *jsonWriter) numIf(doc *[]byte, path string, v, def float32) {
	if v != def {
		jw.num(doc, path, v)
	}
}

func (jw *jsonWriter) flagIf(doc *[]byte, path string, v, def bool) {
	if v != def {
		jw.set(doc, path, v)
	}
}

func (jw *jsonWriter) strIf(doc *[]byte, path, v string) {
	if v != "" {
		jw.set(doc, path, v)
	}
}

func (jw *jsonWriter) floats(doc *[]byte, path string, values []float32) {
	items := make([][]byte, len(values))
	for i, v := range values {
		items[i] = strconv.AppendFloat(nil, float64(v), 'g', -1, 32)
	}
	jw.raw(doc, path, jsonArray(items))
}

func (jw *jsonWriter) ints(doc *[]byte, path string, values []int) {
	items := make([][]byte, len(values))
	for i, v := range values {
		items[i] = strconv.AppendInt(nil, int64(v), 10)
	}
	jw.raw(doc, path, jsonArray(items))
}

func (jw *jsonWriter) names(doc *[]byte, path string, indices []int, name func(int) string) {
	if len(indices) == 0 {
		return
	}
	list := make([]string, len(indices))
	for i, index := range indices {
		list[i] = name(index)
	}
	jw.set(doc, path, list)
}

func jsonArray(items [][]byte) []byte {
	return append(append([]byte{'['}, bytes.Join(items, []byte{','})...), ']')
}

func (jw *jsonWriter) boneName(i int) string { return jw.sd.Bones[i].Name }
func (jw *jsonWriter) slotName(i int) string { return jw.sd.Slots[i].Name }

func (jw *jsonWriter) writeSkeleton() []byte {
	sd := jw.sd
	doc := []byte("{}")

	jw.strIf(&doc, "skeleton.hash", sd.Hash)
	version := sd.Version
	if version == "" {
		version = model.RuntimeVersion + ".0"
	}
	jw.set(&doc, "skeleton.spine", version)
	jw.num(&doc, "skeleton.x", sd.X)
	jw.num(&doc, "skeleton.y", sd.Y)
	jw.num(&doc, "skeleton.width", sd.Width)
	jw.num(&doc, "skeleton.height", sd.Height)
	jw.numIf(&doc, "skeleton.referenceScale", sd.ReferenceScale, 100)
	jw.numIf(&doc, "skeleton.fps", sd.FPS, 30)
	jw.strIf(&doc, "skeleton.images", sd.ImagesPath)
	jw.strIf(&doc, "skeleton.audio", sd.AudioPath)

	var items [][]byte
	for _, b := range sd.Bones {
		o := []byte("{}")
		jw.set(&o, "name", b.Name)
		if b.Parent >= 0 {
			jw.set(&o, "parent", jw.boneName(b.Parent))
		}
		jw.numIf(&o, "length", b.Length, 0)
		jw.numIf(&o, "rotation", b.Rotation, 0)
		jw.numIf(&o, "x", b.X, 0)
		jw.numIf(&o, "y", b.Y, 0)
		jw.numIf(&o, "scaleX", b.ScaleX, 1)
		jw.numIf(&o, "scaleY", b.ScaleY, 1)
		jw.numIf(&o, "shearX", b.ShearX, 0)
		jw.numIf(&o, "shearY", b.ShearY, 0)
		if b.Inherit != model.InheritNormal {
			jw.set(&o, "inherit", b.Inherit.String())
		}
		jw.flagIf(&o, "skin", b.SkinRequired, false)
		jw.set(&o, "color", b.Color.Hex())
		jw.strIf(&o, "icon", b.Icon)
		jw.flagIf(&o, "visible", b.Visible, true)
		items = append(items, o)
	}
	jw.raw(&doc, "bones", jsonArray(items))

	items = nil
	for _, s := range sd.Slots {
		o := []byte("{}")
		jw.set(&o, "name", s.Name)
		jw.set(&o, "bone", jw.boneName(s.Bone))
		if s.Color != model.White {
			jw.set(&o, "color", s.Color.Hex())
		}
		if s.HasDarkColor {
			jw.set(&o, "dark", s.DarkColor.HexRGB())
		}
		jw.strIf(&o, "attachment", s.AttachmentName)
		if s.Blend != model.BlendNormal {
			jw.set(&o, "blend", s.Blend.String())
		}
		jw.flagIf(&o, "visible", s.Visible, true)
		items = append(items, o)
	}
	if len(items) > 0 {
		jw.raw(&doc, "slots", jsonArray(items))
	}

	jw.writeConstraints(&doc)

	items = nil
	for i, skin := range sd.Skins {
		items = append(items, jw.writeSkin(i, skin))
	}
	if len(items) > 0 {
		jw.raw(&doc, "skins", jsonArray(items))
	}

	for _, e := range sd.Events {
		o := []byte("{}")
		if e.Int != 0 {
			jw.set(&o, "int", e.Int)
		}
		jw.numIf(&o, "float", e.Float, 0)
		jw.strIf(&o, "string", e.String)
		if e.AudioPath != "" {
			jw.set(&o, "audio", e.AudioPath)
			jw.numIf(&o, "volume", e.Volume, 1)
			jw.numIf(&o, "balance", e.Balance, 0)
		}
		jw.raw(&doc, "events."+gjson.Escape(e.Name), o)
	}

	for _, anim := range sd.Animations {
		jw.raw(&doc, "animations."+gjson.Escape(anim.Name), jw.writeAnimation(anim))
	}
	return doc
}

func (jw *jsonWriter) writeConstraints(doc *[]byte) {
	sd := jw.sd
	var items [][]byte
	for _, c := range sd.IKConstraints {
		o := []byte("{}")
		jw.set(&o, "name", c.Name)
		if c.Order != 0 {
			jw.set(&o, "order", c.Order)
		}
		jw.flagIf(&o, "skin", c.SkinRequired, false)
		jw.names(&o, "bones", c.Bones, jw.boneName)
		jw.set(&o, "target", jw.boneName(c.Target))
		jw.numIf(&o, "mix", c.Mix, 1)
		jw.numIf(&o, "softness", c.Softness, 0)
		jw.flagIf(&o, "bendPositive", c.BendDirection > 0, true)
		jw.flagIf(&o, "compress", c.Compress, false)
		jw.flagIf(&o, "stretch", c.Stretch, false)
		jw.flagIf(&o, "uniform", c.Uniform, false)
		items = append(items, o)
	}
	if len(items) > 0 {
		jw.raw(doc, "ik", jsonArray(items))
	}

	items = nil
	for _, c := range sd.TransformConstraints {
		o := []byte("{}")
		jw.set(&o, "name", c.Name)
		if c.Order != 0 {
			jw.set(&o, "order", c.Order)
		}
		jw.flagIf(&o, "skin", c.SkinRequired, false)
		jw.names(&o, "bones", c.Bones, jw.boneName)
		jw.set(&o, "target", jw.boneName(c.Target))
		jw.flagIf(&o, "local", c.Local, false)
		jw.flagIf(&o, "relative", c.Relative, false)
		jw.numIf(&o, "rotation", c.OffsetRotation, 0)
		jw.numIf(&o, "x", c.OffsetX, 0)
		jw.numIf(&o, "y", c.OffsetY, 0)
		jw.numIf(&o, "scaleX", c.OffsetScaleX, 0)
		jw.numIf(&o, "scaleY", c.OffsetScaleY, 0)
		jw.numIf(&o, "shearY", c.OffsetShearY, 0)
		jw.numIf(&o, "mixRotate", c.MixRotate, 1)
		jw.numIf(&o, "mixX", c.MixX, 1)
		jw.numIf(&o, "mixY", c.MixY, c.MixX)
		jw.numIf(&o, "mixScaleX", c.MixScaleX, 1)
		jw.numIf(&o, "mixScaleY", c.MixScaleY, c.MixScaleX)
		jw.numIf(&o, "mixShearY", c.MixShearY, 1)
		items = append(items, o)
	}
	if len(items) > 0 {
		jw.raw(doc, "transform", jsonArray(items))
	}

	items = nil
	for _, c := range sd.PathConstraints {
		o := []byte("{}")
		jw.set(&o, "name", c.Name)
		if c.Order != 0 {
			jw.set(&o, "order", c.Order)
		}
		jw.flagIf(&o, "skin", c.SkinRequired, false)
		jw.names(&o, "bones", c.Bones, jw.boneName)
		jw.set(&o, "target", jw.slotName(c.Target))
		jw.set(&o, "positionMode", c.PositionMode.String())
		jw.set(&o, "spacingMode", c.SpacingMode.String())
		jw.set(&o, "rotateMode", c.RotateMode.String())
		jw.numIf(&o, "rotation", c.OffsetRotation, 0)
		jw.numIf(&o, "position", c.Position, 0)
		jw.numIf(&o, "spacing", c.Spacing, 0)
		jw.numIf(&o, "mixRotate", c.MixRotate, 1)
		jw.numIf(&o, "mixX", c.MixX, 1)
		jw.numIf(&o, "mixY", c.MixY, c.MixX)
		items = append(items, o)
	}
	if len(items) > 0 {
		jw.raw(doc, "path", jsonArray(items))
	}

	items = nil
	for _, c := range sd.PhysicsConstraints {
		o := []byte("{}")
		jw.set(&o, "name", c.Name)
		if c.Order != 0 {
			jw.set(&o, "order", c.Order)
		}
		jw.flagIf(&o, "skin", c.SkinRequired, false)
		jw.set(&o, "bone", jw.boneName(c.Bone))
		jw.numIf(&o, "x", c.X, 0)
		jw.numIf(&o, "y", c.Y, 0)
		jw.numIf(&o, "rotate", c.Rotate, 0)
		jw.numIf(&o, "scaleX", c.ScaleX, 0)
		jw.numIf(&o, "shearX", c.ShearX, 0)
		jw.numIf(&o, "limit", c.Limit, 5000)
		if c.Step > 0 {
			jw.numIf(&o, "fps", 1/c.Step, 60)
		}
		jw.numIf(&o, "inertia", c.Inertia, 1)
		jw.numIf(&o, "strength", c.Strength, 100)
		jw.numIf(&o, "damping", c.Damping, 1)
		if c.MassInverse > 0 {
			jw.numIf(&o, "mass", 1/c.MassInverse, 1)
		}
		jw.numIf(&o, "wind", c.Wind, 0)
		jw.numIf(&o, "gravity", c.Gravity, 0)
		jw.numIf(&o, "mix", c.Mix, 1)
		jw.flagIf(&o, "inertiaGlobal", c.InertiaGlobal, false)
		jw.flagIf(&o, "strengthGlobal", c.StrengthGlobal, false)
		jw.flagIf(&o, "dampingGlobal", c.DampingGlobal, false)
		jw.flagIf(&o, "massGlobal", c.MassGlobal, false)
		jw.flagIf(&o, "windGlobal", c.WindGlobal, false)
		jw.flagIf(&o, "gravityGlobal", c.GravityGlobal, false)
		jw.flagIf(&o, "mixGlobal", c.MixGlobal, false)
		items = append(items, o)
	}
	if len(items) > 0 {
		jw.raw(doc, "physics", jsonArray(items))
	}
}

func (jw *jsonWriter) writeSkin(index int, skin *model.Skin) []byte {
	sd := jw.sd
	o := []byte("{}")
	jw.set(&o, "name", skin.Name)
	if index > 0 || sd.DefaultSkin != skin {
		jw.set(&o, "color", skin.Color.Hex())
	}
	jw.names(&o, "bones", skin.Bones, jw.boneName)
	jw.names(&o, "ik", skin.IKConstraints, func(i int) string { return sd.IKConstraints[i].Name })
	jw.names(&o, "transform", skin.TransformConstraints, func(i int) string { return sd.TransformConstraints[i].Name })
	jw.names(&o, "path", skin.PathConstraints, func(i int) string { return sd.PathConstraints[i].Name })
	jw.names(&o, "physics", skin.PhysicsConstraints, func(i int) string { return sd.PhysicsConstraints[i].Name })
	for _, e := range skin.Entries() {
		path := "attachments." + gjson.Escape(jw.slotName(e.Slot)) + "." + gjson.Escape(e.Name)
		jw.raw(&o, path, jw.writeAttachment(e.Name, e.Attachment))
	}
	return o
}

func (jw *jsonWriter) writeSequence(o *[]byte, s *model.Sequence) {
	if s == nil {
		return
	}
	seq := []byte("{}")
	jw.set(&seq, "count", s.Count)
	if s.Start != 1 {
		jw.set(&seq, "start", s.Start)
	}
	if s.Digits != 0 {
		jw.set(&seq, "digits", s.Digits)
	}
	if s.SetupIndex != 0 {
		jw.set(&seq, "setup", s.SetupIndex)
	}
	jw.raw(o, "sequence", seq)
}

// writeVertices writes the vertices in the flat layout readVertices expects.
func (jw *jsonWriter) writeVertices(o *[]byte, v *model.Vertices) {
	if !v.Weighted() {
		jw.floats(o, "vertices", v.Values)
		return
	}
	var flat []float32
	for b, w := 0, 0; b < len(v.Bones); {
		n := v.Bones[b]
		flat = append(flat, float32(n))
		b++
		for end := b + n; b < end; b++ {
			flat = append(flat, float32(v.Bones[b]), v.Values[w], v.Values[w+1], v.Values[w+2])
			w += 3
		}
	}
	jw.floats(o, "vertices", flat)
}

func (jw *jsonWriter) writeAttachment(entryName string, a *model.Attachment) []byte {
	o := []byte("{}")
	if a.Kind != model.KindRegion {
		jw.set(&o, "type", a.Kind.String())
	}
	if a.Name != entryName {
		jw.set(&o, "name", a.Name)
	}
	color := func(c model.Color) {
		if c != model.White {
			jw.set(&o, "color", c.Hex())
		}
	}
	switch a.Kind {
	case model.KindRegion:
		r := a.Region
		if r.Path != a.Name {
			jw.set(&o, "path", r.Path)
		}
		jw.numIf(&o, "x", r.X, 0)
		jw.numIf(&o, "y", r.Y, 0)
		jw.numIf(&o, "scaleX", r.ScaleX, 1)
		jw.numIf(&o, "scaleY", r.ScaleY, 1)
		jw.numIf(&o, "rotation", r.Rotation, 0)
		jw.num(&o, "width", r.Width)
		jw.num(&o, "height", r.Height)
		color(r.Color)
		jw.writeSequence(&o, r.Sequence)

	case model.KindMesh, model.KindLinkedMesh:
		m := a.Mesh
		if m.Path != a.Name {
			jw.set(&o, "path", m.Path)
		}
		color(m.Color)
		jw.writeSequence(&o, m.Sequence)
		jw.numIf(&o, "width", m.Width, 0)
		jw.numIf(&o, "height", m.Height, 0)
		if m.Linked != nil {
			jw.set(&o, "parent", m.Linked.Parent)
			if m.Linked.Skin > 0 {
				jw.set(&o, "skin", jw.sd.Skins[m.Linked.Skin].Name)
			}
			jw.flagIf(&o, "timelines", m.Linked.InheritTimelines, true)
			break
		}
		jw.floats(&o, "uvs", m.UVs)
		jw.ints(&o, "triangles", m.Triangles)
		jw.writeVertices(&o, &m.Vertices)
		jw.set(&o, "hull", m.HullLength)
		if len(m.Edges) > 0 {
			jw.ints(&o, "edges", m.Edges)
		}

	case model.KindBoundingBox:
		b := a.BoundingBox
		jw.set(&o, "vertexCount", b.Vertices.VertexCount())
		jw.writeVertices(&o, &b.Vertices)
		color(b.Color)

	case model.KindPath:
		p := a.Path
		jw.flagIf(&o, "closed", p.Closed, false)
		jw.flagIf(&o, "constantSpeed", p.ConstantSpeed, true)
		jw.set(&o, "vertexCount", p.Vertices.VertexCount())
		jw.writeVertices(&o, &p.Vertices)
		jw.floats(&o, "lengths", p.Lengths)
		color(p.Color)

	case model.KindPoint:
		p := a.Point
		jw.numIf(&o, "x", p.X, 0)
		jw.numIf(&o, "y", p.Y, 0)
		jw.numIf(&o, "rotation", p.Rotation, 0)
		color(p.Color)

	case model.KindClipping:
		c := a.Clipping
		if c.EndSlot >= 0 && c.EndSlot < len(jw.sd.Slots) {
			jw.set(&o, "end", jw.slotName(c.EndSlot))
		}
		jw.set(&o, "vertexCount", c.Vertices.VertexCount())
		jw.writeVertices(&o, &c.Vertices)
		color(c.Color)
	}
	return o
}

// writeCurve stores the curve of the interval starting at frame on key o.
func (jw *jsonWriter) writeCurve(o *[]byte, tl *timeline.CurveTimeline, frame, channels int) {
	if frame >= tl.FrameCount()-1 {
		return
	}
	switch tl.CurveType(frame) {
	case timeline.CurveStepped:
		jw.set(o, "curve", "stepped")
	case timeline.CurveBezier:
		var cp []float32
		for ch := 0; ch < channels; ch++ {
			cx1, cy1, cx2, cy2, _ := tl.Bezier(frame, ch)
			cp = append(cp, cx1, cy1, cx2, cy2)
		}
		jw.floats(o, "curve", cp)
	}
}

func (jw *jsonWriter) keyTime(o *[]byte, time float32) {
	jw.numIf(o, "time", time, 0)
}

// curveKeys writes one object per key of tl. fill stores the key values.
func (jw *jsonWriter) curveKeys(tl *timeline.CurveTimeline, channels int, fill func(o *[]byte, values []float32)) []byte {
	frames := tl.Frames()
	entries := tl.FrameEntries()
	items := make([][]byte, tl.FrameCount())
	for frame := range items {
		o := []byte("{}")
		i := frame * entries
		jw.keyTime(&o, frames[i])
		fill(&o, frames[i+1:i+entries])
		jw.writeCurve(&o, tl, frame, channels)
		items[frame] = o
	}
	return jsonArray(items)
}

func colorOf(values []float32) model.Color {
	return model.Color{R: values[0], G: values[1], B: values[2], A: 1}
}

func (jw *jsonWriter) writeAnimation(anim *timeline.Animation) []byte {
	sd := jw.sd
	doc := []byte("{}")
	physics := &physicsSection{objects: map[int][]byte{}}
	for _, tl := range anim.Timelines {
		switch tl := tl.(type) {
		case *timeline.AttachmentTimeline:
			items := make([][]byte, len(tl.Names))
			for frame, name := range tl.Names {
				o := []byte("{}")
				jw.keyTime(&o, tl.FrameTime(frame))
				if name == "" {
					jw.raw(&o, "name", []byte("null"))
				} else {
					jw.set(&o, "name", name)
				}
				items[frame] = o
			}
			jw.raw(&doc, "slots."+gjson.Escape(jw.slotName(tl.Slot))+".attachment", jsonArray(items))

		case *timeline.ColorTimeline:
			kind := tl.Kind
			keys := jw.curveKeys(&tl.CurveTimeline, kind.ValueCount(), func(o *[]byte, v []float32) {
				switch kind {
				case timeline.ColorRGBA:
					jw.set(o, "color", model.Color{R: v[0], G: v[1], B: v[2], A: v[3]}.Hex())
				case timeline.ColorRGB:
					jw.set(o, "color", colorOf(v).HexRGB())
				case timeline.ColorRGBA2:
					jw.set(o, "light", model.Color{R: v[0], G: v[1], B: v[2], A: v[3]}.Hex())
					jw.set(o, "dark", colorOf(v[4:]).HexRGB())
				case timeline.ColorRGB2:
					jw.set(o, "light", colorOf(v).HexRGB())
					jw.set(o, "dark", colorOf(v[3:]).HexRGB())
				case timeline.ColorAlpha:
					jw.num(o, "value", v[0])
				}
			})
			jw.raw(&doc, "slots."+gjson.Escape(jw.slotName(tl.Slot))+"."+kind.String(), keys)

		case *timeline.InheritTimeline:
			items := make([][]byte, tl.FrameCount())
			for frame := range items {
				o := []byte("{}")
				jw.keyTime(&o, tl.FrameTime(frame))
				jw.set(&o, "inherit", model.Inherit(tl.Frames()[frame*2+1]).String())
				items[frame] = o
			}
			jw.raw(&doc, "bones."+gjson.Escape(jw.boneName(tl.Bone))+".inherit", jsonArray(items))

		case *timeline.BoneTimeline:
			f := boneFields[tl.Property]
			keys := jw.curveKeys(&tl.CurveTimeline, tl.ValueCount(), func(o *[]byte, v []float32) {
				for i, field := range f.fields {
					jw.numIf(o, field, v[i], f.def)
				}
			})
			jw.raw(&doc, "bones."+gjson.Escape(jw.boneName(tl.Bone))+"."+tl.Property.String(), keys)

		case *timeline.IKTimeline:
			keys := jw.curveKeys(&tl.CurveTimeline, 2, func(o *[]byte, v []float32) {
				jw.numIf(o, "mix", v[0], 1)
				jw.numIf(o, "softness", v[1], 0)
				jw.flagIf(o, "bendPositive", v[2] > 0, true)
				jw.flagIf(o, "compress", v[3] != 0, false)
				jw.flagIf(o, "stretch", v[4] != 0, false)
			})
			jw.raw(&doc, "ik."+gjson.Escape(sd.IKConstraints[tl.Constraint].Name), keys)

		case *timeline.TransformTimeline:
			keys := jw.curveKeys(&tl.CurveTimeline, 6, func(o *[]byte, v []float32) {
				jw.numIf(o, "mixRotate", v[0], 1)
				jw.numIf(o, "mixX", v[1], 1)
				jw.numIf(o, "mixY", v[2], v[1])
				jw.numIf(o, "mixScaleX", v[3], 1)
				jw.numIf(o, "mixScaleY", v[4], v[3])
				jw.numIf(o, "mixShearY", v[5], 1)
			})
			jw.raw(&doc, "transform."+gjson.Escape(sd.TransformConstraints[tl.Constraint].Name), keys)

		case *timeline.PathTimeline:
			keys := jw.curveKeys(&tl.CurveTimeline, tl.ValueCount(), func(o *[]byte, v []float32) {
				if tl.Property == timeline.PathMix {
					jw.numIf(o, "mixRotate", v[0], 1)
					jw.numIf(o, "mixX", v[1], 1)
					jw.numIf(o, "mixY", v[2], v[1])
					return
				}
				jw.numIf(o, "value", v[0], 0)
			})
			jw.raw(&doc, "path."+gjson.Escape(sd.PathConstraints[tl.Constraint].Name)+"."+tl.Property.String(), keys)

		case *timeline.PhysicsTimeline:
			keys := jw.curveKeys(&tl.CurveTimeline, 1, func(o *[]byte, v []float32) {
				jw.numIf(o, "value", v[0], 0)
			})
			physics.add(jw, tl.Constraint, tl.Property.String(), keys)

		case *timeline.PhysicsResetTimeline:
			items := make([][]byte, tl.FrameCount())
			for frame := range items {
				o := []byte("{}")
				jw.keyTime(&o, tl.FrameTime(frame))
				items[frame] = o
			}
			physics.add(jw, tl.Constraint, "reset", jsonArray(items))

		case *timeline.DeformTimeline:
			jw.raw(&doc, jw.attachmentPath(tl.Attachment)+".deform", jw.deformKeys(tl))

		case *timeline.SequenceTimeline:
			items := make([][]byte, tl.FrameCount())
			for frame := range items {
				o := []byte("{}")
				mode, index, delay := tl.Key(frame)
				jw.keyTime(&o, tl.FrameTime(frame))
				if mode != timeline.SequenceHold {
					jw.set(&o, "mode", mode.String())
				}
				if index != 0 {
					jw.set(&o, "index", index)
				}
				jw.numIf(&o, "delay", delay, 0)
				items[frame] = o
			}
			jw.raw(&doc, jw.attachmentPath(tl.Attachment)+".sequence", jsonArray(items))

		case *timeline.DrawOrderTimeline:
			items := make([][]byte, tl.FrameCount())
			for frame, order := range tl.DrawOrders {
				o := []byte("{}")
				jw.keyTime(&o, tl.FrameTime(frame))
				var offsets [][]byte
				for _, so := range timeline.CompactDrawOrder(order) {
					e := []byte("{}")
					jw.set(&e, "slot", jw.slotName(so.Slot))
					jw.set(&e, "offset", so.Offset)
					offsets = append(offsets, e)
				}
				if len(offsets) > 0 {
					jw.raw(&o, "offsets", jsonArray(offsets))
				}
				items[frame] = o
			}
			jw.raw(&doc, "drawOrder", jsonArray(items))

		case *timeline.EventTimeline:
			items := make([][]byte, len(tl.Events))
			for i, ev := range tl.Events {
				data := sd.Events[ev.Data]
				o := []byte("{}")
				jw.keyTime(&o, ev.Time)
				jw.set(&o, "name", data.Name)
				if ev.Int != data.Int {
					jw.set(&o, "int", ev.Int)
				}
				jw.numIf(&o, "float", ev.Float, data.Float)
				if ev.String != data.String {
					jw.set(&o, "string", ev.String)
				}
				if data.AudioPath != "" {
					jw.numIf(&o, "volume", ev.Volume, data.Volume)
					jw.numIf(&o, "balance", ev.Balance, data.Balance)
				}
				items[i] = o
			}
			jw.raw(&doc, "events", jsonArray(items))
		}
	}
	if len(physics.order) > 0 {
		jw.raw(&doc, "physics", physics.bytes(jw))
	}
	return doc
}

// physicsSection collects physics timelines per constraint. Global
// timelines are keyed by the empty name, which sjson paths cannot address,
// so the section object is assembled directly.
type physicsSection struct {
	order   []int
	objects map[int][]byte
}

func (p *physicsSection) add(jw *jsonWriter, constraint int, property string, keys []byte) {
	o, ok := p.objects[constraint]
	if !ok {
		p.order = append(p.order, constraint)
		o = []byte("{}")
	}
	jw.raw(&o, property, keys)
	p.objects[constraint] = o
}

func (p *physicsSection) bytes(jw *jsonWriter) []byte {
	items := make([][]byte, 0, len(p.order))
	for _, c := range p.order {
		name := ""
		if c >= 0 {
			name = jw.sd.PhysicsConstraints[c].Name
		}
		key, _ := json.Marshal(name)
		items = append(items, append(append(key, ':'), p.objects[c]...))
	}
	return append(append([]byte{'{'}, bytes.Join(items, []byte{','})...), '}')
}

func (jw *jsonWriter) attachmentPath(key timeline.AttachmentKey) string {
	return "attachments." + gjson.Escape(jw.sd.Skins[key.Skin].Name) + "." +
		gjson.Escape(jw.slotName(key.Slot)) + "." + gjson.Escape(key.Name)
}

func (jw *jsonWriter) deformKeys(tl *timeline.DeformTimeline) []byte {
	key := tl.Attachment
	var setup *model.Vertices
	if a := jw.sd.Skins[key.Skin].Attachment(key.Slot, key.Name); a != nil {
		setup = a.Vertices()
	}
	if setup == nil {
		if jw.err == nil {
			jw.err = &model.MissingReferenceError{Kind: "attachment", Name: key.Name}
		}
		return nil
	}
	items := make([][]byte, tl.FrameCount())
	for frame := range items {
		o := []byte("{}")
		jw.keyTime(&o, tl.FrameTime(frame))
		delta := make([]float32, setup.DeformLength())
		for i := range delta {
			if i < len(tl.Vertices[frame]) {
				delta[i] = tl.Vertices[frame][i]
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
		if start < end {
			if start > 0 {
				jw.set(&o, "offset", start)
			}
			jw.floats(&o, "vertices", delta[start:end])
		}
		jw.writeCurve(&o, &tl.CurveTimeline, frame, 1)
		items[frame] = o
	}
	return jsonArray(items)
}

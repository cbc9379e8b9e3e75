package skelio

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

// ReadJSON decodes a JSON skeleton. On any error the returned data is nil.
func ReadJSON(data []byte, opts Options) (*model.SkeletonData, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to read json skeleton: %w", &model.ParseError{Offset: -1, Msg: "invalid json"})
	}
	jr := &jsonReader{root: gjson.ParseBytes(data), scale: opts.scale()}
	sd, err := jr.readSkeleton()
	if err != nil {
		return nil, fmt.Errorf("failed to read json skeleton: %w", err)
	}
	logLoaded("JSON", sd)
	return sd, nil
}

type jsonLink struct {
	mesh     *model.Attachment
	skinName string
	slot     int
	parent   string
}

type jsonReader struct {
	root  gjson.Result
	scale float32
	sd    *model.SkeletonData
	links []jsonLink
}

func num(r gjson.Result, key string, def float32) float32 {
	v := r.Get(key)
	if !v.Exists() {
		return def
	}
	return float32(v.Float())
}

func flag(r gjson.Result, key string, def bool) bool {
	v := r.Get(key)
	if !v.Exists() {
		return def
	}
	return v.Bool()
}

func str(r gjson.Result, key, def string) string {
	v := r.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.String()
}

func hexColor(r gjson.Result, key string, def model.Color) (model.Color, error) {
	v := r.Get(key)
	if !v.Exists() {
		return def, nil
	}
	c, err := model.ParseHexColor(v.String())
	if err != nil {
		return def, &model.ParseError{Offset: -1, Msg: fmt.Sprintf("%s: %v", key, err)}
	}
	return c, nil
}

func (jr *jsonReader) bone(name string) (int, error) {
	i := jr.sd.FindBone(name)
	if i < 0 {
		return 0, &model.MissingReferenceError{Kind: "bone", Name: name}
	}
	return i, nil
}

func (jr *jsonReader) slot(name string) (int, error) {
	i := jr.sd.FindSlot(name)
	if i < 0 {
		return 0, &model.MissingReferenceError{Kind: "slot", Name: name}
	}
	return i, nil
}

func (jr *jsonReader) bones(r gjson.Result) ([]int, error) {
	var bones []int
	for _, name := range r.Array() {
		i, err := jr.bone(name.String())
		if err != nil {
			return nil, err
		}
		bones = append(bones, i)
	}
	return bones, nil
}

func (jr *jsonReader) readSkeleton() (*model.SkeletonData, error) {
	skel := jr.root.Get("skeleton")
	version := str(skel, "spine", "")
	if version != "" && !strings.HasPrefix(version, model.RuntimeVersion) {
		return nil, &model.VersionMismatchError{Found: version, Want: model.RuntimeVersion}
	}

	sd := model.NewSkeletonData()
	jr.sd = sd
	scale := jr.scale

	sd.Version = version
	if skel.Exists() {
		sd.Hash = str(skel, "hash", "")
		sd.X = num(skel, "x", 0)
		sd.Y = num(skel, "y", 0)
		sd.Width = num(skel, "width", 0)
		sd.Height = num(skel, "height", 0)
		sd.ReferenceScale = num(skel, "referenceScale", 100) * scale
		sd.FPS = num(skel, "fps", 30)
		sd.ImagesPath = str(skel, "images", "")
		sd.AudioPath = str(skel, "audio", "")
	}
	sd.Nonessential = true

	for i, b := range jr.root.Get("bones").Array() {
		parent := -1
		if p := b.Get("parent"); p.Exists() {
			var err error
			if parent, err = jr.bone(p.String()); err != nil {
				return nil, err
			}
		}
		bd := model.NewBoneData(i, b.Get("name").String(), parent)
		bd.Length = num(b, "length", 0) * scale
		bd.X = num(b, "x", 0) * scale
		bd.Y = num(b, "y", 0) * scale
		bd.Rotation = num(b, "rotation", 0)
		bd.ScaleX = num(b, "scaleX", 1)
		bd.ScaleY = num(b, "scaleY", 1)
		bd.ShearX = num(b, "shearX", 0)
		bd.ShearY = num(b, "shearY", 0)
		inherit, ok := model.ParseInherit(str(b, "inherit", "normal"))
		if !ok {
			return nil, &model.ParseError{Offset: -1, Msg: fmt.Sprintf("bone '%s' has invalid inherit mode", bd.Name)}
		}
		bd.Inherit = inherit
		bd.SkinRequired = flag(b, "skin", false)
		var err error
		if bd.Color, err = hexColor(b, "color", bd.Color); err != nil {
			return nil, err
		}
		bd.Icon = str(b, "icon", "")
		bd.Visible = flag(b, "visible", true)
		sd.Bones = append(sd.Bones, bd)
	}

	for i, s := range jr.root.Get("slots").Array() {
		bone, err := jr.bone(s.Get("bone").String())
		if err != nil {
			return nil, err
		}
		slot := model.NewSlotData(i, s.Get("name").String(), bone)
		if slot.Color, err = hexColor(s, "color", model.White); err != nil {
			return nil, err
		}
		if d := s.Get("dark"); d.Exists() {
			if slot.DarkColor, err = model.ParseHexColor(d.String()); err != nil {
				return nil, &model.ParseError{Offset: -1, Msg: fmt.Sprintf("slot '%s' dark color: %v", slot.Name, err)}
			}
			slot.HasDarkColor = true
		}
		slot.AttachmentName = str(s, "attachment", "")
		blend, ok := model.ParseBlendMode(str(s, "blend", "normal"))
		if !ok {
			return nil, &model.ParseError{Offset: -1, Msg: fmt.Sprintf("slot '%s' has invalid blend mode", slot.Name)}
		}
		slot.Blend = blend
		slot.Visible = flag(s, "visible", true)
		sd.Slots = append(sd.Slots, slot)
	}

	if err := jr.readConstraints(); err != nil {
		return nil, err
	}

	// The default skin is loaded first so it is always skin 0.
	skins := jr.root.Get("skins").Array()
	for _, pass := range []bool{true, false} {
		for _, s := range skins {
			if (s.Get("name").String() == "default") != pass {
				continue
			}
			skin, err := jr.readSkin(s, len(sd.Skins))
			if err != nil {
				return nil, err
			}
			if pass {
				sd.DefaultSkin = skin
			}
			sd.Skins = append(sd.Skins, skin)
		}
	}
	links := make([]pendingLink, 0, len(jr.links))
	for _, l := range jr.links {
		skin := 0
		if l.skinName != "" {
			if skin = sd.FindSkin(l.skinName); skin < 0 {
				return nil, &model.MissingReferenceError{Kind: "skin", Name: l.skinName}
			}
		} else if sd.DefaultSkin == nil {
			return nil, &model.MissingReferenceError{Kind: "skin", Name: "default"}
		}
		l.mesh.Mesh.Linked.Skin = skin
		links = append(links, pendingLink{mesh: l.mesh, skin: skin, slot: l.slot, parent: l.parent})
	}
	if err := resolveLinkedMeshes(sd, links); err != nil {
		return nil, err
	}

	var err error
	jr.root.Get("events").ForEach(func(name, e gjson.Result) bool {
		ed := model.NewEventData(name.String())
		ed.Int = int32(e.Get("int").Int())
		ed.Float = num(e, "float", 0)
		ed.String = str(e, "string", "")
		ed.AudioPath = str(e, "audio", "")
		if ed.AudioPath != "" {
			ed.Volume = num(e, "volume", 1)
			ed.Balance = num(e, "balance", 0)
		}
		sd.Events = append(sd.Events, ed)
		return true
	})

	jr.root.Get("animations").ForEach(func(name, a gjson.Result) bool {
		var anim *timeline.Animation
		if anim, err = jr.readAnimation(name.String(), a); err != nil {
			err = fmt.Errorf("animation '%s': %w", name.String(), err)
			return false
		}
		sd.Animations = append(sd.Animations, anim)
		return true
	})
	if err != nil {
		return nil, err
	}
	return sd, nil
}

func (jr *jsonReader) readConstraints() error {
	sd := jr.sd
	scale := jr.scale

	for _, c := range jr.root.Get("ik").Array() {
		ik := model.NewIKConstraintData(c.Get("name").String())
		ik.Order = int(c.Get("order").Int())
		ik.SkinRequired = flag(c, "skin", false)
		var err error
		if ik.Bones, err = jr.bones(c.Get("bones")); err != nil {
			return err
		}
		if ik.Target, err = jr.bone(c.Get("target").String()); err != nil {
			return err
		}
		ik.Mix = num(c, "mix", 1)
		ik.Softness = num(c, "softness", 0) * scale
		ik.BendDirection = -1
		if flag(c, "bendPositive", true) {
			ik.BendDirection = 1
		}
		ik.Compress = flag(c, "compress", false)
		ik.Stretch = flag(c, "stretch", false)
		ik.Uniform = flag(c, "uniform", false)
		sd.IKConstraints = append(sd.IKConstraints, ik)
	}

	for _, c := range jr.root.Get("transform").Array() {
		tc := model.NewTransformConstraintData(c.Get("name").String())
		tc.Order = int(c.Get("order").Int())
		tc.SkinRequired = flag(c, "skin", false)
		var err error
		if tc.Bones, err = jr.bones(c.Get("bones")); err != nil {
			return err
		}
		if tc.Target, err = jr.bone(c.Get("target").String()); err != nil {
			return err
		}
		tc.Local = flag(c, "local", false)
		tc.Relative = flag(c, "relative", false)
		tc.OffsetRotation = num(c, "rotation", 0)
		tc.OffsetX = num(c, "x", 0) * scale
		tc.OffsetY = num(c, "y", 0) * scale
		tc.OffsetScaleX = num(c, "scaleX", 0)
		tc.OffsetScaleY = num(c, "scaleY", 0)
		tc.OffsetShearY = num(c, "shearY", 0)
		tc.MixRotate = num(c, "mixRotate", 1)
		tc.MixX = num(c, "mixX", 1)
		tc.MixY = num(c, "mixY", tc.MixX)
		tc.MixScaleX = num(c, "mixScaleX", 1)
		tc.MixScaleY = num(c, "mixScaleY", tc.MixScaleX)
		tc.MixShearY = num(c, "mixShearY", 1)
		sd.TransformConstraints = append(sd.TransformConstraints, tc)
	}

	for _, c := range jr.root.Get("path").Array() {
		pc := model.NewPathConstraintData(c.Get("name").String())
		pc.Order = int(c.Get("order").Int())
		pc.SkinRequired = flag(c, "skin", false)
		var err error
		if pc.Bones, err = jr.bones(c.Get("bones")); err != nil {
			return err
		}
		if pc.Target, err = jr.slot(c.Get("target").String()); err != nil {
			return err
		}
		var ok1, ok2, ok3 bool
		pc.PositionMode, ok1 = model.ParsePositionMode(str(c, "positionMode", "percent"))
		pc.SpacingMode, ok2 = model.ParseSpacingMode(str(c, "spacingMode", "length"))
		pc.RotateMode, ok3 = model.ParseRotateMode(str(c, "rotateMode", "tangent"))
		if !ok1 || !ok2 || !ok3 {
			return &model.ParseError{Offset: -1, Msg: fmt.Sprintf("path constraint '%s' has an invalid mode", pc.Name)}
		}
		pc.OffsetRotation = num(c, "rotation", 0)
		pc.Position = num(c, "position", 0)
		if pc.PositionMode == model.PositionFixed {
			pc.Position *= scale
		}
		pc.Spacing = num(c, "spacing", 0)
		if pc.SpacingMode == model.SpacingLength || pc.SpacingMode == model.SpacingFixed {
			pc.Spacing *= scale
		}
		pc.MixRotate = num(c, "mixRotate", 1)
		pc.MixX = num(c, "mixX", 1)
		pc.MixY = num(c, "mixY", pc.MixX)
		sd.PathConstraints = append(sd.PathConstraints, pc)
	}

	for _, c := range jr.root.Get("physics").Array() {
		pc := model.NewPhysicsConstraintData(c.Get("name").String())
		pc.Order = int(c.Get("order").Int())
		pc.SkinRequired = flag(c, "skin", false)
		var err error
		if pc.Bone, err = jr.bone(c.Get("bone").String()); err != nil {
			return err
		}
		pc.X = num(c, "x", 0)
		pc.Y = num(c, "y", 0)
		pc.Rotate = num(c, "rotate", 0)
		pc.ScaleX = num(c, "scaleX", 0)
		pc.ShearX = num(c, "shearX", 0)
		pc.Limit = num(c, "limit", 5000) * scale
		fps := num(c, "fps", 60)
		if fps <= 0 {
			return &model.ParseError{Offset: -1, Msg: fmt.Sprintf("physics constraint '%s' has invalid fps", pc.Name)}
		}
		pc.Step = 1 / fps
		pc.Inertia = num(c, "inertia", 1)
		pc.Strength = num(c, "strength", 100)
		pc.Damping = num(c, "damping", 1)
		mass := num(c, "mass", 1)
		if mass <= 0 {
			return &model.ParseError{Offset: -1, Msg: fmt.Sprintf("physics constraint '%s' has invalid mass", pc.Name)}
		}
		pc.MassInverse = 1 / mass
		pc.Wind = num(c, "wind", 0)
		pc.Gravity = num(c, "gravity", 0)
		pc.Mix = num(c, "mix", 1)
		pc.InertiaGlobal = flag(c, "inertiaGlobal", false)
		pc.StrengthGlobal = flag(c, "strengthGlobal", false)
		pc.DampingGlobal = flag(c, "dampingGlobal", false)
		pc.MassGlobal = flag(c, "massGlobal", false)
		pc.WindGlobal = flag(c, "windGlobal", false)
		pc.GravityGlobal = flag(c, "gravityGlobal", false)
		pc.MixGlobal = flag(c, "mixGlobal", false)
		sd.PhysicsConstraints = append(sd.PhysicsConstraints, pc)
	}
	return nil
}

func (jr *jsonReader) readSkin(s gjson.Result, skinIndex int) (*model.Skin, error) {
	sd := jr.sd
	skin := model.NewSkin(s.Get("name").String())
	var err error
	if skin.Color, err = hexColor(s, "color", skin.Color); err != nil {
		return nil, err
	}
	if skin.Bones, err = jr.bones(s.Get("bones")); err != nil {
		return nil, err
	}
	lookups := []struct {
		key  string
		kind string
		find func(string) int
		dst  *[]int
	}{
		{"ik", "ik constraint", sd.FindIKConstraint, &skin.IKConstraints},
		{"transform", "transform constraint", sd.FindTransformConstraint, &skin.TransformConstraints},
		{"path", "path constraint", sd.FindPathConstraint, &skin.PathConstraints},
		{"physics", "physics constraint", sd.FindPhysicsConstraint, &skin.PhysicsConstraints},
	}
	for _, l := range lookups {
		for _, name := range s.Get(l.key).Array() {
			i := l.find(name.String())
			if i < 0 {
				return nil, &model.MissingReferenceError{Kind: l.kind, Name: name.String()}
			}
			*l.dst = append(*l.dst, i)
		}
	}

	s.Get("attachments").ForEach(func(slotName, entries gjson.Result) bool {
		var slot int
		if slot, err = jr.slot(slotName.String()); err != nil {
			return false
		}
		entries.ForEach(func(entryName, m gjson.Result) bool {
			var a *model.Attachment
			if a, err = jr.readAttachment(m, skinIndex, slot, entryName.String()); err != nil {
				err = fmt.Errorf("skin '%s' attachment '%s': %w", skin.Name, entryName.String(), err)
				return false
			}
			skin.SetAttachment(slot, entryName.String(), a)
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return skin, nil
}

func readSequence(m gjson.Result) *model.Sequence {
	s := m.Get("sequence")
	if !s.Exists() {
		return nil
	}
	return &model.Sequence{
		Count:      int(s.Get("count").Int()),
		Start:      int(num(s, "start", 1)),
		Digits:     int(s.Get("digits").Int()),
		SetupIndex: int(s.Get("setup").Int()),
	}
}

func (jr *jsonReader) readAttachment(m gjson.Result, skinIndex, slot int, entryName string) (*model.Attachment, error) {
	scale := jr.scale
	name := str(m, "name", entryName)
	kind, ok := model.ParseAttachmentKind(str(m, "type", "region"))
	if !ok {
		return nil, &model.ParseError{Offset: -1, Msg: fmt.Sprintf("invalid attachment type '%s'", m.Get("type").String())}
	}
	a := &model.Attachment{Kind: kind, Name: name, Key: attachmentKey(skinIndex, slot, entryName)}
	a.TimelineKey = a.Key
	color, err := hexColor(m, "color", model.White)
	if err != nil {
		return nil, err
	}

	switch kind {
	case model.KindRegion:
		a.Region = &model.RegionAttachment{
			Path:     str(m, "path", name),
			X:        num(m, "x", 0) * scale,
			Y:        num(m, "y", 0) * scale,
			Rotation: num(m, "rotation", 0),
			ScaleX:   num(m, "scaleX", 1),
			ScaleY:   num(m, "scaleY", 1),
			Width:    num(m, "width", 0) * scale,
			Height:   num(m, "height", 0) * scale,
			Color:    color,
			Sequence: readSequence(m),
		}

	case model.KindBoundingBox:
		v, err := jr.readVertices(m, int(m.Get("vertexCount").Int())*2)
		if err != nil {
			return nil, err
		}
		a.BoundingBox = &model.BoundingBoxAttachment{Vertices: v, Color: color}

	case model.KindMesh, model.KindLinkedMesh:
		mesh := &model.MeshAttachment{
			Path:     str(m, "path", name),
			Color:    color,
			Sequence: readSequence(m),
			Width:    num(m, "width", 0) * scale,
			Height:   num(m, "height", 0) * scale,
		}
		a.Mesh = mesh
		if kind == model.KindLinkedMesh || m.Get("parent").Exists() {
			a.Kind = model.KindLinkedMesh
			mesh.Linked = &model.LinkedMesh{Parent: m.Get("parent").String(), InheritTimelines: flag(m, "timelines", true)}
			jr.links = append(jr.links, jsonLink{mesh: a, skinName: str(m, "skin", ""), slot: slot, parent: mesh.Linked.Parent})
			break
		}
		mesh.UVs = floats(m.Get("uvs"), 1)
		if mesh.Vertices, err = jr.readVertices(m, len(mesh.UVs)); err != nil {
			return nil, err
		}
		mesh.Triangles = ints(m.Get("triangles"))
		mesh.HullLength = int(m.Get("hull").Int())
		mesh.Edges = ints(m.Get("edges"))

	case model.KindPath:
		v, err := jr.readVertices(m, int(m.Get("vertexCount").Int())*2)
		if err != nil {
			return nil, err
		}
		a.Path = &model.PathAttachment{
			Vertices:      v,
			Lengths:       floats(m.Get("lengths"), scale),
			Closed:        flag(m, "closed", false),
			ConstantSpeed: flag(m, "constantSpeed", true),
			Color:         color,
		}

	case model.KindPoint:
		a.Point = &model.PointAttachment{
			X:        num(m, "x", 0) * scale,
			Y:        num(m, "y", 0) * scale,
			Rotation: num(m, "rotation", 0),
			Color:    color,
		}

	case model.KindClipping:
		// Without an end slot clipping runs to the last slot.
		c := &model.ClippingAttachment{Color: color, EndSlot: len(jr.sd.Slots) - 1}
		if end := m.Get("end"); end.Exists() {
			if c.EndSlot, err = jr.slot(end.String()); err != nil {
				return nil, err
			}
		}
		if c.Vertices, err = jr.readVertices(m, int(m.Get("vertexCount").Int())*2); err != nil {
			return nil, err
		}
		a.Clipping = c
	}
	return a, nil
}

func floats(r gjson.Result, scale float32) []float32 {
	arr := r.Array()
	if arr == nil {
		return nil
	}
	out := make([]float32, len(arr))
	for i, v := range arr {
		out[i] = float32(v.Float()) * scale
	}
	return out
}

func ints(r gjson.Result) []int {
	arr := r.Array()
	if arr == nil {
		return nil
	}
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v.Int())
	}
	return out
}

// readVertices reads the "vertices" array. It is unweighted when it holds
// exactly worldVerticesLength values, otherwise it lists per vertex a bone
// count followed by bone, x, y, weight for each bone.
func (jr *jsonReader) readVertices(m gjson.Result, worldVerticesLength int) (model.Vertices, error) {
	values := floats(m.Get("vertices"), 1)
	v := model.Vertices{WorldVerticesLength: worldVerticesLength}
	if len(values) == worldVerticesLength {
		for i := range values {
			values[i] *= jr.scale
		}
		v.Values = values
		return v, nil
	}
	v.Bones = []int{}
	for i := 0; i < len(values); {
		boneCount := int(values[i])
		i++
		if boneCount < 0 || i+boneCount*4 > len(values) {
			return v, &model.ParseError{Offset: -1, Msg: "weighted vertices are truncated"}
		}
		v.Bones = append(v.Bones, boneCount)
		for end := i + boneCount*4; i < end; i += 4 {
			bone := int(values[i])
			if bone < 0 || bone >= len(jr.sd.Bones) {
				return v, &model.MissingReferenceError{Kind: "bone", Name: fmt.Sprintf("#%d", bone)}
			}
			v.Bones = append(v.Bones, bone)
			v.Values = append(v.Values, values[i+1]*jr.scale, values[i+2]*jr.scale, values[i+3])
		}
	}
	return v, nil
}

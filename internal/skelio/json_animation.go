package skelio

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

// jsonCurveCount returns the bezier segments needed by keys whose "curve" is
// an array of control points.
func jsonCurveCount(keys []gjson.Result, channels int) int {
	n := 0
	for i := 0; i < len(keys)-1; i++ {
		if keys[i].Get("curve").IsArray() {
			n += channels
		}
	}
	return n
}

// keyReader extracts the values of one timeline key.
type keyReader func(gjson.Result) ([]float32, error)

// readJSONCurves reads the keys of a curve timeline. The "curve" of a key
// describes the interval to the next key: "stepped", or four control points
// per channel.
func readJSONCurves(tl *timeline.CurveTimeline, keys []gjson.Result, values keyReader, scales []float32) error {
	bezier := 0
	cur, err := values(keys[0])
	if err != nil {
		return err
	}
	for frame, key := range keys {
		time := num(key, "time", 0)
		tl.SetFrame(frame, time, cur...)
		if frame == len(keys)-1 {
			break
		}
		nextKey := keys[frame+1]
		next, err := values(nextKey)
		if err != nil {
			return err
		}
		curve := key.Get("curve")
		switch {
		case curve.Type == gjson.String && curve.String() == "stepped":
			tl.SetStepped(frame)
		case curve.IsArray():
			cp := curve.Array()
			time2 := num(nextKey, "time", 0)
			for ch := range scales {
				get := func(i int) float32 {
					if i < len(cp) {
						return float32(cp[i].Float())
					}
					return 0
				}
				b := ch * 4
				tl.SetBezier(bezier, frame, ch, time, cur[ch],
					get(b), get(b+1)*scales[ch], get(b+2), get(b+3)*scales[ch], time2, next[ch])
				bezier++
			}
		}
		cur = next
	}
	return nil
}

func keysOf(r gjson.Result) ([]gjson.Result, error) {
	keys := r.Array()
	if len(keys) == 0 {
		return nil, &model.ParseError{Offset: -1, Msg: "timeline has no keys"}
	}
	return keys, nil
}

func valueReader(fields []string, defaults []float32, scale float32) keyReader {
	return func(key gjson.Result) ([]float32, error) {
		out := make([]float32, len(fields))
		for i, f := range fields {
			out[i] = num(key, f, defaults[i]) * scale
		}
		return out, nil
	}
}

func colorReader(kind timeline.ColorKind) keyReader {
	return func(key gjson.Result) ([]float32, error) {
		var light, dark model.Color
		var err error
		switch kind {
		case timeline.ColorRGBA, timeline.ColorRGB:
			if light, err = hexColor(key, "color", model.White); err != nil {
				return nil, err
			}
		case timeline.ColorRGBA2, timeline.ColorRGB2:
			if light, err = hexColor(key, "light", model.White); err != nil {
				return nil, err
			}
			if dark, err = hexColor(key, "dark", model.Color{A: 1}); err != nil {
				return nil, err
			}
		case timeline.ColorAlpha:
			return []float32{num(key, "value", 1)}, nil
		}
		switch kind {
		case timeline.ColorRGBA:
			return []float32{light.R, light.G, light.B, light.A}, nil
		case timeline.ColorRGB:
			return []float32{light.R, light.G, light.B}, nil
		case timeline.ColorRGBA2:
			return []float32{light.R, light.G, light.B, light.A, dark.R, dark.G, dark.B}, nil
		}
		return []float32{light.R, light.G, light.B, dark.R, dark.G, dark.B}, nil
	}
}

var boneFields = map[timeline.BoneProperty]struct {
	fields []string
	def    float32
}{
	timeline.BoneRotate:     {[]string{"value"}, 0},
	timeline.BoneTranslate:  {[]string{"x", "y"}, 0},
	timeline.BoneTranslateX: {[]string{"value"}, 0},
	timeline.BoneTranslateY: {[]string{"value"}, 0},
	timeline.BoneScale:      {[]string{"x", "y"}, 1},
	timeline.BoneScaleX:     {[]string{"value"}, 1},
	timeline.BoneScaleY:     {[]string{"value"}, 1},
	timeline.BoneShear:      {[]string{"x", "y"}, 0},
	timeline.BoneShearX:     {[]string{"value"}, 0},
	timeline.BoneShearY:     {[]string{"value"}, 0},
}

func (jr *jsonReader) readAnimation(name string, a gjson.Result) (*timeline.Animation, error) {
	sd := jr.sd
	scale := jr.scale
	var timelines []timeline.Timeline
	var err error

	// fail records the first error and stops a ForEach.
	fail := func(e error) bool {
		err = e
		return false
	}

	a.Get("slots").ForEach(func(slotName, m gjson.Result) bool {
		slot, e := jr.slot(slotName.String())
		if e != nil {
			return fail(e)
		}
		m.ForEach(func(typ, keysResult gjson.Result) bool {
			keys, e := keysOf(keysResult)
			if e != nil {
				return fail(e)
			}
			if typ.String() == "attachment" {
				tl := timeline.NewAttachmentTimeline(slot, len(keys))
				for frame, key := range keys {
					tl.SetFrame(frame, num(key, "time", 0), str(key, "name", ""))
				}
				timelines = append(timelines, tl)
				return true
			}
			kind, ok := timeline.ParseColorKind(typ.String())
			if !ok {
				return fail(&model.ParseError{Offset: -1, Msg: fmt.Sprintf("invalid slot timeline type '%s'", typ.String())})
			}
			tl := timeline.NewColorTimeline(kind, slot, len(keys), jsonCurveCount(keys, kind.ValueCount()))
			if e := readJSONCurves(&tl.CurveTimeline, keys, colorReader(kind), ones(kind.ValueCount())); e != nil {
				return fail(e)
			}
			timelines = append(timelines, tl)
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	a.Get("bones").ForEach(func(boneName, m gjson.Result) bool {
		bone, e := jr.bone(boneName.String())
		if e != nil {
			return fail(e)
		}
		m.ForEach(func(typ, keysResult gjson.Result) bool {
			keys, e := keysOf(keysResult)
			if e != nil {
				return fail(e)
			}
			if typ.String() == "inherit" {
				tl := timeline.NewInheritTimeline(bone, len(keys))
				for frame, key := range keys {
					inherit, ok := model.ParseInherit(str(key, "inherit", "normal"))
					if !ok {
						return fail(&model.ParseError{Offset: -1, Msg: "invalid inherit mode"})
					}
					tl.SetFrame(frame, num(key, "time", 0), int(inherit))
				}
				timelines = append(timelines, tl)
				return true
			}
			prop, ok := timeline.ParseBoneProperty(typ.String())
			if !ok {
				return fail(&model.ParseError{Offset: -1, Msg: fmt.Sprintf("invalid bone timeline type '%s'", typ.String())})
			}
			f := boneFields[prop]
			s := float32(1)
			switch prop {
			case timeline.BoneTranslate, timeline.BoneTranslateX, timeline.BoneTranslateY:
				s = scale
			}
			n := prop.ValueCount()
			tl := timeline.NewBoneTimeline(prop, bone, len(keys), jsonCurveCount(keys, n))
			if e := readJSONCurves(&tl.CurveTimeline, keys, valueReader(f.fields, fill(n, f.def), s), fill(n, s)); e != nil {
				return fail(e)
			}
			timelines = append(timelines, tl)
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	a.Get("ik").ForEach(func(cname, keysResult gjson.Result) bool {
		constraint := sd.FindIKConstraint(cname.String())
		if constraint < 0 {
			return fail(&model.MissingReferenceError{Kind: "ik constraint", Name: cname.String()})
		}
		keys, e := keysOf(keysResult)
		if e != nil {
			return fail(e)
		}
		tl := timeline.NewIKTimeline(constraint, len(keys), jsonCurveCount(keys, 2))
		e = readJSONCurves(&tl.CurveTimeline, keys, func(key gjson.Result) ([]float32, error) {
			bend := float32(-1)
			if flag(key, "bendPositive", true) {
				bend = 1
			}
			return []float32{
				num(key, "mix", 1), num(key, "softness", 0) * scale, bend,
				boolValue(flag(key, "compress", false)), boolValue(flag(key, "stretch", false)),
			}, nil
		}, []float32{1, scale})
		if e != nil {
			return fail(e)
		}
		timelines = append(timelines, tl)
		return true
	})
	if err != nil {
		return nil, err
	}

	a.Get("transform").ForEach(func(cname, keysResult gjson.Result) bool {
		constraint := sd.FindTransformConstraint(cname.String())
		if constraint < 0 {
			return fail(&model.MissingReferenceError{Kind: "transform constraint", Name: cname.String()})
		}
		keys, e := keysOf(keysResult)
		if e != nil {
			return fail(e)
		}
		tl := timeline.NewTransformTimeline(constraint, len(keys), jsonCurveCount(keys, 6))
		e = readJSONCurves(&tl.CurveTimeline, keys, func(key gjson.Result) ([]float32, error) {
			mixX := num(key, "mixX", 1)
			mixScaleX := num(key, "mixScaleX", 1)
			return []float32{
				num(key, "mixRotate", 1), mixX, num(key, "mixY", mixX),
				mixScaleX, num(key, "mixScaleY", mixScaleX), num(key, "mixShearY", 1),
			}, nil
		}, ones(6))
		if e != nil {
			return fail(e)
		}
		timelines = append(timelines, tl)
		return true
	})
	if err != nil {
		return nil, err
	}

	a.Get("path").ForEach(func(cname, m gjson.Result) bool {
		constraint := sd.FindPathConstraint(cname.String())
		if constraint < 0 {
			return fail(&model.MissingReferenceError{Kind: "path constraint", Name: cname.String()})
		}
		data := sd.PathConstraints[constraint]
		m.ForEach(func(typ, keysResult gjson.Result) bool {
			keys, e := keysOf(keysResult)
			if e != nil {
				return fail(e)
			}
			prop, ok := timeline.ParsePathProperty(typ.String())
			if !ok {
				return fail(&model.ParseError{Offset: -1, Msg: fmt.Sprintf("invalid path timeline type '%s'", typ.String())})
			}
			n := prop.ValueCount()
			tl := timeline.NewPathTimeline(prop, constraint, len(keys), jsonCurveCount(keys, n))
			switch prop {
			case timeline.PathMix:
				e = readJSONCurves(&tl.CurveTimeline, keys, func(key gjson.Result) ([]float32, error) {
					mixX := num(key, "mixX", 1)
					return []float32{num(key, "mixRotate", 1), mixX, num(key, "mixY", mixX)}, nil
				}, ones(3))
			default:
				s := float32(1)
				if prop == timeline.PathPosition && data.PositionMode == model.PositionFixed ||
					prop == timeline.PathSpacing && (data.SpacingMode == model.SpacingLength || data.SpacingMode == model.SpacingFixed) {
					s = scale
				}
				e = readJSONCurves(&tl.CurveTimeline, keys, valueReader([]string{"value"}, []float32{0}, s), []float32{s})
			}
			if e != nil {
				return fail(e)
			}
			timelines = append(timelines, tl)
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	a.Get("physics").ForEach(func(cname, m gjson.Result) bool {
		constraint := -1
		if cname.String() != "" {
			if constraint = sd.FindPhysicsConstraint(cname.String()); constraint < 0 {
				return fail(&model.MissingReferenceError{Kind: "physics constraint", Name: cname.String()})
			}
		}
		m.ForEach(func(typ, keysResult gjson.Result) bool {
			keys, e := keysOf(keysResult)
			if e != nil {
				return fail(e)
			}
			if typ.String() == "reset" {
				tl := timeline.NewPhysicsResetTimeline(constraint, len(keys))
				for frame, key := range keys {
					tl.SetFrame(frame, num(key, "time", 0))
				}
				timelines = append(timelines, tl)
				return true
			}
			prop, ok := timeline.ParsePhysicsProperty(typ.String())
			if !ok {
				return fail(&model.ParseError{Offset: -1, Msg: fmt.Sprintf("invalid physics timeline type '%s'", typ.String())})
			}
			tl := timeline.NewPhysicsTimeline(prop, constraint, len(keys), jsonCurveCount(keys, 1))
			if e := readJSONCurves(&tl.CurveTimeline, keys, valueReader([]string{"value"}, []float32{0}, 1), ones(1)); e != nil {
				return fail(e)
			}
			timelines = append(timelines, tl)
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	a.Get("attachments").ForEach(func(skinName, slots gjson.Result) bool {
		skinIndex := sd.FindSkin(skinName.String())
		if skinIndex < 0 {
			return fail(&model.MissingReferenceError{Kind: "skin", Name: skinName.String()})
		}
		skin := sd.Skins[skinIndex]
		slots.ForEach(func(slotName, attachments gjson.Result) bool {
			slot, e := jr.slot(slotName.String())
			if e != nil {
				return fail(e)
			}
			attachments.ForEach(func(attachmentName, m gjson.Result) bool {
				at := skin.Attachment(slot, attachmentName.String())
				if at == nil {
					return fail(&model.MissingReferenceError{Kind: "attachment", Name: attachmentName.String()})
				}
				m.ForEach(func(typ, keysResult gjson.Result) bool {
					keys, e := keysOf(keysResult)
					if e != nil {
						return fail(e)
					}
					switch typ.String() {
					case "deform":
						tl, e := jr.readJSONDeform(at, slot, keys)
						if e != nil {
							return fail(e)
						}
						timelines = append(timelines, tl)
					case "sequence":
						tl := timeline.NewSequenceTimeline(slot, at.Key, len(keys))
						for frame, key := range keys {
							mode, ok := timeline.ParseSequenceMode(str(key, "mode", "hold"))
							if !ok {
								return fail(&model.ParseError{Offset: -1, Msg: "invalid sequence mode"})
							}
							tl.SetFrame(frame, num(key, "time", 0), mode, int(key.Get("index").Int()), num(key, "delay", 0))
						}
						timelines = append(timelines, tl)
					default:
						return fail(&model.ParseError{Offset: -1, Msg: fmt.Sprintf("invalid attachment timeline type '%s'", typ.String())})
					}
					return true
				})
				return err == nil
			})
			return err == nil
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	if keys := a.Get("drawOrder").Array(); len(keys) > 0 {
		tl := timeline.NewDrawOrderTimeline(len(sd.Slots), len(keys))
		for frame, key := range keys {
			var order []int
			if offsets := key.Get("offsets").Array(); len(offsets) > 0 {
				list := make([]timeline.SlotOffset, len(offsets))
				for i, o := range offsets {
					slot, e := jr.slot(o.Get("slot").String())
					if e != nil {
						return nil, e
					}
					list[i] = timeline.SlotOffset{Slot: slot, Offset: int(o.Get("offset").Int())}
				}
				if order, err = timeline.ExpandDrawOrder(len(sd.Slots), list); err != nil {
					return nil, &model.ParseError{Offset: -1, Msg: err.Error()}
				}
			}
			tl.SetFrame(frame, num(key, "time", 0), order)
		}
		timelines = append(timelines, tl)
	}

	if keys := a.Get("events").Array(); len(keys) > 0 {
		tl := timeline.NewEventTimeline(len(keys))
		for frame, key := range keys {
			index := sd.FindEvent(key.Get("name").String())
			if index < 0 {
				return nil, &model.MissingReferenceError{Kind: "event", Name: key.Get("name").String()}
			}
			data := sd.Events[index]
			ev := timeline.Event{
				Time:    num(key, "time", 0),
				Data:    index,
				Int:     data.Int,
				Float:   num(key, "float", data.Float),
				String:  str(key, "string", data.String),
				Volume:  data.Volume,
				Balance: data.Balance,
			}
			if v := key.Get("int"); v.Exists() {
				ev.Int = int32(v.Int())
			}
			if data.AudioPath != "" {
				ev.Volume = num(key, "volume", data.Volume)
				ev.Balance = num(key, "balance", data.Balance)
			}
			tl.SetFrame(frame, ev)
		}
		timelines = append(timelines, tl)
	}

	return timeline.NewAnimation(name, timelines), nil
}

func boolValue(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func (jr *jsonReader) readJSONDeform(a *model.Attachment, slot int, keys []gjson.Result) (*timeline.DeformTimeline, error) {
	v := a.Vertices()
	if v == nil {
		return nil, &model.ParseError{Offset: -1, Msg: fmt.Sprintf("attachment '%s' has no vertices to deform", a.Name)}
	}
	weighted := v.Weighted()
	deformLength := v.DeformLength()
	tl := timeline.NewDeformTimeline(slot, a.Key, len(keys), jsonCurveCount(keys, 1))
	for frame, key := range keys {
		deform := make([]float32, deformLength)
		values := key.Get("vertices")
		if !values.Exists() {
			if !weighted {
				copy(deform, v.Values)
			}
		} else {
			start := int(key.Get("offset").Int())
			arr := values.Array()
			if start < 0 || start+len(arr) > deformLength {
				return nil, &model.ParseError{Offset: -1, Msg: fmt.Sprintf("deform range exceeds %d vertices", deformLength)}
			}
			for i, x := range arr {
				deform[start+i] = float32(x.Float()) * jr.scale
			}
			if !weighted {
				for i := range deform {
					deform[i] += v.Values[i]
				}
			}
		}
		tl.SetFrame(frame, num(key, "time", 0), deform)
	}
	for frame := 0; frame < len(keys)-1; frame++ {
		curve := keys[frame].Get("curve")
		switch {
		case curve.Type == gjson.String && curve.String() == "stepped":
			tl.SetStepped(frame)
		case curve.IsArray():
			cp := curve.Array()
			if len(cp) < 4 {
				return nil, &model.ParseError{Offset: -1, Msg: "bezier curve needs four control values"}
			}
			bezier := 0
			for f := 0; f < frame; f++ {
				if keys[f].Get("curve").IsArray() {
					bezier++
				}
			}
			tl.SetBezier(bezier, frame, 0, tl.FrameTime(frame), 0,
				float32(cp[0].Float()), float32(cp[1].Float()), float32(cp[2].Float()), float32(cp[3].Float()),
				tl.FrameTime(frame+1), 1)
		}
	}
	return tl, nil
}

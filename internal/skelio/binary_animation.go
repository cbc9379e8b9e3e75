package skelio

import (
	"fmt"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

func (br *binaryReader) readAnimation(name string) *timeline.Animation {
	sd := br.sd
	timelines := make([]timeline.Timeline, 0, br.count())

	// Slot timelines.
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		slot := br.index(len(sd.Slots), "slot")
		for ii, nn := 0, br.count(); ii < nn && br.err == nil; ii++ {
			typ := br.byte()
			frameCount := br.frameCount()
			if typ == slotAttachment {
				tl := timeline.NewAttachmentTimeline(slot, frameCount)
				for frame := 0; frame < frameCount; frame++ {
					time := br.float()
					attachment, _ := br.ref()
					tl.SetFrame(frame, time, attachment)
				}
				timelines = append(timelines, tl)
				continue
			}
			kind, ok := slotColorKinds[typ]
			if !ok {
				br.failf("invalid slot timeline type %d", typ)
				break
			}
			tl := timeline.NewColorTimeline(kind, slot, frameCount, br.count())
			br.readCurveFrames(&tl.CurveTimeline, br.colorBytes, ones(kind.ValueCount()))
			timelines = append(timelines, tl)
		}
	}

	// Bone timelines.
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		bone := br.index(len(sd.Bones), "bone")
		for ii, nn := 0, br.count(); ii < nn && br.err == nil; ii++ {
			typ := br.byte()
			frameCount := br.frameCount()
			if typ == boneInherit {
				tl := timeline.NewInheritTimeline(bone, frameCount)
				for frame := 0; frame < frameCount; frame++ {
					time := br.float()
					inherit := br.byte()
					if inherit > byte(model.InheritNoScaleOrReflection) && br.err == nil {
						br.failf("invalid inherit mode %d", inherit)
					}
					tl.SetFrame(frame, time, int(inherit))
				}
				timelines = append(timelines, tl)
				continue
			}
			if typ > boneShearY {
				br.failf("invalid bone timeline type %d", typ)
				break
			}
			prop := timeline.BoneProperty(typ)
			tl := timeline.NewBoneTimeline(prop, bone, frameCount, br.count())
			scale := float32(1)
			switch prop {
			case timeline.BoneTranslate, timeline.BoneTranslateX, timeline.BoneTranslateY:
				scale = br.scale
			}
			scales := fill(prop.ValueCount(), scale)
			br.readCurveFrames(&tl.CurveTimeline, br.floats(scales), scales)
			timelines = append(timelines, tl)
		}
	}

	// IK constraint timelines.
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		constraint := br.index(len(sd.IKConstraints), "ik constraint")
		frameCount := br.frameCount()
		tl := timeline.NewIKTimeline(constraint, frameCount, br.count())
		br.readIKFrames(tl)
		timelines = append(timelines, tl)
	}

	// Transform constraint timelines.
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		constraint := br.index(len(sd.TransformConstraints), "transform constraint")
		frameCount := br.frameCount()
		tl := timeline.NewTransformTimeline(constraint, frameCount, br.count())
		scales := ones(6)
		br.readCurveFrames(&tl.CurveTimeline, br.floats(scales), scales)
		timelines = append(timelines, tl)
	}

	// Path constraint timelines.
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		constraint := br.index(len(sd.PathConstraints), "path constraint")
		if br.err != nil {
			break
		}
		data := sd.PathConstraints[constraint]
		for ii, nn := 0, br.count(); ii < nn && br.err == nil; ii++ {
			typ := br.byte()
			frameCount := br.frameCount()
			if typ > pathMix {
				br.failf("invalid path timeline type %d", typ)
				break
			}
			prop := timeline.PathProperty(typ)
			tl := timeline.NewPathTimeline(prop, constraint, frameCount, br.count())
			scale := float32(1)
			switch {
			case prop == timeline.PathPosition && data.PositionMode == model.PositionFixed:
				scale = br.scale
			case prop == timeline.PathSpacing && (data.SpacingMode == model.SpacingLength || data.SpacingMode == model.SpacingFixed):
				scale = br.scale
			}
			scales := fill(prop.ValueCount(), scale)
			br.readCurveFrames(&tl.CurveTimeline, br.floats(scales), scales)
			timelines = append(timelines, tl)
		}
	}

	// Physics constraint timelines.
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		constraint := br.varint(true) - 1
		if constraint < -1 || constraint >= len(sd.PhysicsConstraints) {
			br.fail(&model.MissingReferenceError{Kind: "physics constraint", Name: fmt.Sprintf("#%d", constraint)})
			break
		}
		for ii, nn := 0, br.count(); ii < nn && br.err == nil; ii++ {
			typ := br.byte()
			frameCount := br.frameCount()
			if typ == physicsReset {
				tl := timeline.NewPhysicsResetTimeline(constraint, frameCount)
				for frame := 0; frame < frameCount; frame++ {
					tl.SetFrame(frame, br.float())
				}
				timelines = append(timelines, tl)
				continue
			}
			prop := timeline.PhysicsProperty(typ)
			if prop.String() == "unknown" {
				br.failf("invalid physics timeline type %d", typ)
				break
			}
			tl := timeline.NewPhysicsTimeline(prop, constraint, frameCount, br.count())
			scales := ones(1)
			br.readCurveFrames(&tl.CurveTimeline, br.floats(scales), scales)
			timelines = append(timelines, tl)
		}
	}

	// Attachment timelines.
	for i, n := 0, br.count(); i < n && br.err == nil; i++ {
		skinIndex := br.index(len(sd.Skins), "skin")
		if br.err != nil {
			break
		}
		skin := sd.Skins[skinIndex]
		for ii, nn := 0, br.count(); ii < nn && br.err == nil; ii++ {
			slot := br.index(len(sd.Slots), "slot")
			for iii, nnn := 0, br.count(); iii < nnn && br.err == nil; iii++ {
				attachmentName, _ := br.ref()
				a := skin.Attachment(slot, attachmentName)
				if a == nil {
					br.fail(&model.MissingReferenceError{Kind: "attachment", Name: attachmentName})
					break
				}
				typ := br.byte()
				frameCount := br.frameCount()
				switch typ {
				case attachmentDeform:
					if tl := br.readDeform(a, slot, frameCount); tl != nil {
						timelines = append(timelines, tl)
					}
				case attachmentSequence:
					tl := timeline.NewSequenceTimeline(slot, a.Key, frameCount)
					for frame := 0; frame < frameCount; frame++ {
						time := br.float()
						modeAndIndex := br.int()
						delay := br.float()
						mode := timeline.SequenceMode(modeAndIndex & 0xf)
						if mode > timeline.SequencePingpongReverse && br.err == nil {
							br.failf("invalid sequence mode %d", mode)
						}
						tl.SetFrame(frame, time, mode, int(modeAndIndex>>4), delay)
					}
					timelines = append(timelines, tl)
				default:
					br.failf("invalid attachment timeline type %d", typ)
				}
			}
		}
	}

	// Draw order timeline.
	if n := br.count(); n > 0 {
		tl := timeline.NewDrawOrderTimeline(len(sd.Slots), n)
		for frame := 0; frame < n && br.err == nil; frame++ {
			time := br.float()
			offsetCount := br.count()
			var order []int
			if offsetCount > 0 {
				offsets := make([]timeline.SlotOffset, offsetCount)
				for k := range offsets {
					offsets[k].Slot = br.varint(true)
					offsets[k].Offset = br.varint(true)
				}
				if br.err == nil {
					var err error
					if order, err = timeline.ExpandDrawOrder(len(sd.Slots), offsets); err != nil {
						br.fail(br.r.Errorf(err.Error()))
					}
				}
			}
			tl.SetFrame(frame, time, order)
		}
		timelines = append(timelines, tl)
	}

	// Event timeline.
	if n := br.count(); n > 0 {
		tl := timeline.NewEventTimeline(n)
		for frame := 0; frame < n && br.err == nil; frame++ {
			ev := timeline.Event{Time: br.float()}
			ev.Data = br.index(len(sd.Events), "event")
			if br.err != nil {
				break
			}
			data := sd.Events[ev.Data]
			ev.Int = int32(br.varint(false))
			ev.Float = br.float()
			ev.String = data.String
			if s, ok := br.string(); ok {
				ev.String = s
			}
			ev.Volume, ev.Balance = data.Volume, data.Balance
			if data.AudioPath != "" {
				ev.Volume = br.float()
				ev.Balance = br.float()
			}
			tl.SetFrame(frame, ev)
		}
		timelines = append(timelines, tl)
	}

	if br.err != nil {
		return nil
	}
	return timeline.NewAnimation(name, timelines)
}

// frameCount reads a timeline key count, which must be positive.
func (br *binaryReader) frameCount() int {
	n := br.count()
	if n == 0 && br.err == nil {
		br.failf("timeline has no keys")
	}
	return n
}

func ones(n int) []float32 { return fill(n, 1) }

func fill(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// floats returns a key reader for len(scales) float channels.
func (br *binaryReader) floats(scales []float32) func([]float32) {
	return func(out []float32) {
		for i := range out {
			out[i] = br.float() * scales[i]
		}
	}
}

func (br *binaryReader) colorBytes(out []float32) {
	for i := range out {
		out[i] = float32(br.byte()) / 255
	}
}

// readCurveFrames reads the keys of a curve timeline: the first key, then for
// each following key its time and values followed by the curve of the
// interval that ends at it.
func (br *binaryReader) readCurveFrames(tl *timeline.CurveTimeline, readValues func([]float32), scales []float32) {
	last := tl.FrameCount() - 1
	cur := make([]float32, len(scales))
	next := make([]float32, len(scales))
	time := br.float()
	readValues(cur)
	for frame, bezier := 0, 0; br.err == nil; frame++ {
		tl.SetFrame(frame, time, cur...)
		if frame == last {
			break
		}
		time2 := br.float()
		readValues(next)
		switch curve := br.sbyte(); curve {
		case curveLinear:
		case curveStepped:
			tl.SetStepped(frame)
		case curveBezier:
			for ch := range scales {
				br.setBezier(tl, bezier, frame, ch, time, time2, cur[ch], next[ch], scales[ch])
				bezier++
			}
		default:
			br.failf("invalid curve type %d", curve)
		}
		time = time2
		cur, next = next, cur
	}
}

func (br *binaryReader) setBezier(tl *timeline.CurveTimeline, bezier, frame, value int, time1, time2, value1, value2, scale float32) {
	cx1 := br.float()
	cy1 := br.float() * scale
	cx2 := br.float()
	cy2 := br.float() * scale
	if br.err != nil {
		return
	}
	if bezier >= tl.BezierCount() {
		br.failf("bezier %d exceeds declared count %d", bezier, tl.BezierCount())
		return
	}
	tl.SetBezier(bezier, frame, value, time1, value1, cx1, cy1, cx2, cy2, time2, value2)
}

func (br *binaryReader) readIKFrames(tl *timeline.IKTimeline) {
	readKey := func(flags byte) (time, mix, softness float32) {
		time = br.float()
		if flags&1 != 0 {
			mix = 1
			if flags&2 != 0 {
				mix = br.float()
			}
		}
		if flags&4 != 0 {
			softness = br.float() * br.scale
		}
		return
	}
	last := tl.FrameCount() - 1
	flags := br.byte()
	time, mix, softness := readKey(flags)
	for frame, bezier := 0, 0; br.err == nil; frame++ {
		bend := -1
		if flags&8 != 0 {
			bend = 1
		}
		tl.SetKey(frame, time, mix, softness, bend, flags&16 != 0, flags&32 != 0)
		if frame == last {
			break
		}
		flags = br.byte()
		time2, mix2, softness2 := readKey(flags)
		if flags&64 != 0 {
			tl.SetStepped(frame)
		} else if flags&128 != 0 {
			br.setBezier(&tl.CurveTimeline, bezier, frame, 0, time, time2, mix, mix2, 1)
			br.setBezier(&tl.CurveTimeline, bezier+1, frame, 1, time, time2, softness, softness2, br.scale)
			bezier += 2
		}
		time, mix, softness = time2, mix2, softness2
	}
}

// readDeform reads a deform timeline. Each key stores the changed vertex
// range; the rest of the key is filled from the setup vertices so every key
// holds a complete vertex array.
func (br *binaryReader) readDeform(a *model.Attachment, slot, frameCount int) *timeline.DeformTimeline {
	v := a.Vertices()
	if v == nil {
		br.failf("attachment '%s' has no vertices to deform", a.Name)
		return nil
	}
	weighted := v.Weighted()
	deformLength := v.DeformLength()
	tl := timeline.NewDeformTimeline(slot, a.Key, frameCount, br.count())
	last := frameCount - 1
	time := br.float()
	for frame, bezier := 0, 0; br.err == nil; frame++ {
		deform := make([]float32, deformLength)
		end := br.varint(true)
		if end == 0 {
			if !weighted {
				copy(deform, v.Values)
			}
		} else {
			start := br.varint(true)
			end += start
			if start < 0 || end > deformLength {
				br.failf("deform range %d..%d exceeds %d vertices", start, end, deformLength)
				return nil
			}
			for i := start; i < end; i++ {
				deform[i] = br.float() * br.scale
			}
			if !weighted {
				for i := range deform {
					deform[i] += v.Values[i]
				}
			}
		}
		tl.SetFrame(frame, time, deform)
		if frame == last {
			break
		}
		time2 := br.float()
		switch curve := br.sbyte(); curve {
		case curveLinear:
		case curveStepped:
			tl.SetStepped(frame)
		case curveBezier:
			br.setBezier(&tl.CurveTimeline, bezier, frame, 0, time, time2, 0, 1, 1)
			bezier++
		default:
			br.failf("invalid curve type %d", curve)
		}
		time = time2
	}
	return tl
}

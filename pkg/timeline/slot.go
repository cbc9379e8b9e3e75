package timeline

// ColorKind selects the channel layout of a ColorTimeline.
type ColorKind int

const (
	ColorRGBA  ColorKind = iota // r, g, b, a
	ColorRGB                    // r, g, b
	ColorRGBA2                  // r, g, b, a, dark r, dark g, dark b
	ColorRGB2                   // r, g, b, dark r, dark g, dark b
	ColorAlpha                  // a
)

var colorKindNames = []string{"rgba", "rgb", "rgba2", "rgb2", "alpha"}

func (k ColorKind) String() string {
	if k < 0 || int(k) >= len(colorKindNames) {
		return "unknown"
	}
	return colorKindNames[k]
}

func ParseColorKind(s string) (ColorKind, bool) {
	for i, name := range colorKindNames {
		if name == s {
			return ColorKind(i), true
		}
	}
	return 0, false
}

func (k ColorKind) ValueCount() int {
	switch k {
	case ColorRGBA:
		return 4
	case ColorRGB:
		return 3
	case ColorRGBA2:
		return 7
	case ColorRGB2:
		return 6
	}
	return 1
}

// ColorTimeline animates a slot's light color and, for the two-color kinds,
// its dark color. Values are absolute, in the 0..1 range.
type ColorTimeline struct {
	CurveTimeline
	Slot int
	Kind ColorKind
}

// NewColorTimeline allocates a slot color timeline.
//
// Parameters:
//   - kind: which channels are keyed (rgba, rgb, alpha, rgba2 or rgb2)
//   - slot: index of the slot in SkeletonData.Slots
//   - frameCount: number of keys
//   - bezierCount: number of bezier segments the keys will use
func NewColorTimeline(kind ColorKind, slot, frameCount, bezierCount int) *ColorTimeline {
	return &ColorTimeline{
		CurveTimeline: newCurveTimeline(frameCount, kind.ValueCount(), bezierCount),
		Slot:          slot,
		Kind:          kind,
	}
}

// AttachmentTimeline switches the attachment shown by a slot. An empty name
// clears the slot.
type AttachmentTimeline struct {
	frameSet
	Slot  int
	Names []string
}

func NewAttachmentTimeline(slot, frameCount int) *AttachmentTimeline {
	return &AttachmentTimeline{
		frameSet: newFrameSet(frameCount, 1),
		Slot:     slot,
		Names:    make([]string, frameCount),
	}
}

func (t *AttachmentTimeline) SetFrame(frame int, time float32, name string) {
	t.frames[frame] = time
	t.Names[frame] = name
}

// Name returns the attachment name in effect at time.
func (t *AttachmentTimeline) Name(time float32) string {
	return t.Names[search(t.frames, time, 1)]
}

// DeformTimeline replaces the vertices of a vertex attachment. Each key holds
// a complete vertex array: for unweighted attachments the absolute vertex
// positions, for weighted attachments the offsets added to the bone-space
// vertices. The curve channel maps time to a 0..1 blend factor.
type DeformTimeline struct {
	CurveTimeline
	Slot       int
	Attachment AttachmentKey
	Vertices   [][]float32
}

// NewDeformTimeline allocates a vertex deform timeline.
//
// Parameters:
//   - slot: index of the slot showing the attachment
//   - attachment: the attachment whose vertices are keyed; other attachments
//     in the slot are left alone
//   - frameCount: number of keys
//   - bezierCount: number of bezier segments the keys will use
func NewDeformTimeline(slot int, attachment AttachmentKey, frameCount, bezierCount int) *DeformTimeline {
	return &DeformTimeline{
		CurveTimeline: newCurveTimeline(frameCount, 0, bezierCount),
		Slot:          slot,
		Attachment:    attachment,
		Vertices:      make([][]float32, frameCount),
	}
}

func (t *DeformTimeline) SetFrame(frame int, time float32, vertices []float32) {
	t.frames[frame] = time
	t.Vertices[frame] = vertices
}

// Deform writes the vertices in effect at time into out, growing it as
// needed, and returns it.
func (t *DeformTimeline) Deform(time float32, out []float32) []float32 {
	n := len(t.Vertices[0])
	if cap(out) < n {
		out = make([]float32, n)
	}
	out = out[:n]
	frames := t.frames
	if time <= frames[0] {
		copy(out, t.Vertices[0])
		return out
	}
	last := len(frames) - 1
	if time >= frames[last] {
		copy(out, t.Vertices[last])
		return out
	}
	frame := search(frames, time, 1)
	percent := t.Percent(time, frame)
	prev, next := t.Vertices[frame], t.Vertices[frame+1]
	for i := range out {
		out[i] = prev[i] + (next[i]-prev[i])*percent
	}
	return out
}

// SequenceMode controls how a sequence timeline advances through regions.
type SequenceMode int

const (
	SequenceHold SequenceMode = iota
	SequenceOnce
	SequenceLoop
	SequencePingpong
	SequenceOnceReverse
	SequenceLoopReverse
	SequencePingpongReverse
)

var sequenceModeNames = []string{"hold", "once", "loop", "pingpong", "onceReverse", "loopReverse", "pingpongReverse"}

func (m SequenceMode) String() string {
	if m < 0 || int(m) >= len(sequenceModeNames) {
		return "unknown"
	}
	return sequenceModeNames[m]
}

func ParseSequenceMode(s string) (SequenceMode, bool) {
	for i, name := range sequenceModeNames {
		if name == s {
			return SequenceMode(i), true
		}
	}
	return 0, false
}

// SequenceTimeline selects the region shown by an attachment sequence.
// Each key stores time, mode | index<<4, and the per-region delay.
type SequenceTimeline struct {
	frameSet
	Slot       int
	Attachment AttachmentKey
}

func NewSequenceTimeline(slot int, attachment AttachmentKey, frameCount int) *SequenceTimeline {
	return &SequenceTimeline{frameSet: newFrameSet(frameCount, 3), Slot: slot, Attachment: attachment}
}

func (t *SequenceTimeline) SetFrame(frame int, time float32, mode SequenceMode, index int, delay float32) {
	i := frame * 3
	t.frames[i] = time
	t.frames[i+1] = float32(int(mode) | index<<4)
	t.frames[i+2] = delay
}

// Key returns the mode, start index and delay of key frame.
func (t *SequenceTimeline) Key(frame int) (SequenceMode, int, float32) {
	i := frame * 3
	modeAndIndex := int(t.frames[i+1])
	return SequenceMode(modeAndIndex & 0xf), modeAndIndex >> 4, t.frames[i+2]
}

// Index returns the region index of a sequence with count regions at time.
func (t *SequenceTimeline) Index(time float32, count int) int {
	frame := t.FrameIndex(time)
	mode, index, delay := t.Key(frame)
	if mode == SequenceHold || count <= 0 {
		return index
	}
	before := t.FrameTime(frame)
	if time > before && delay > 0 {
		index += int((time-before)/delay + 0.0001)
	}
	switch mode {
	case SequenceOnce:
		index = min(count-1, index)
	case SequenceLoop:
		index %= count
	case SequencePingpong:
		n := count*2 - 2
		if n == 0 {
			index = 0
		} else {
			index %= n
		}
		if index >= count {
			index = n - index
		}
	case SequenceOnceReverse:
		index = max(count-1-index, 0)
	case SequenceLoopReverse:
		index = count - 1 - index%count
	case SequencePingpongReverse:
		n := count*2 - 2
		if n == 0 {
			index = 0
		} else {
			index = (index + count - 1) % n
		}
		if index >= count {
			index = n - index
		}
	}
	return index
}

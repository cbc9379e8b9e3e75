package timeline

import "sort"

// Curve types stored per key interval. Values >= CurveBezier are offsets into
// the bezier sample table.
const (
	CurveLinear  = 0
	CurveStepped = 1
	CurveBezier  = 2

	// BezierSize is the number of floats sampled per bezier segment: nine
	// (x, y) points along the curve.
	BezierSize = 18
)

// CurveTimeline is a timeline whose value channels are interpolated between
// keys using a per-interval curve.
type CurveTimeline struct {
	frameSet
	values   int
	curves   []float32
	controls []float32
}

func newCurveTimeline(frameCount, values, bezierCount int) CurveTimeline {
	t := CurveTimeline{
		frameSet: newFrameSet(frameCount, values+1),
		values:   values,
		curves:   make([]float32, frameCount+bezierCount*BezierSize),
		controls: make([]float32, bezierCount*4),
	}
	if frameCount > 0 {
		t.curves[frameCount-1] = CurveStepped
	}
	return t
}

// ValueCount returns the number of value channels per key.
func (t *CurveTimeline) ValueCount() int { return t.values }

// BezierCount returns the number of bezier segments the timeline has room for.
func (t *CurveTimeline) BezierCount() int { return len(t.controls) / 4 }

// SetFrame stores the time and values of key frame.
func (t *CurveTimeline) SetFrame(frame int, time float32, values ...float32) {
	i := frame * t.entries
	t.frames[i] = time
	copy(t.frames[i+1:i+t.entries], values)
}

func (t *CurveTimeline) SetLinear(frame int)  { t.curves[frame] = CurveLinear }
func (t *CurveTimeline) SetStepped(frame int) { t.curves[frame] = CurveStepped }

// CurveType returns CurveLinear, CurveStepped or CurveBezier for the interval
// starting at key frame.
func (t *CurveTimeline) CurveType(frame int) int {
	c := int(t.curves[frame])
	if c >= CurveBezier {
		return CurveBezier
	}
	return c
}

// Bezier returns the control points of channel value for the interval
// starting at key frame. ok is false when the interval is not a bezier.
func (t *CurveTimeline) Bezier(frame, value int) (cx1, cy1, cx2, cy2 float32, ok bool) {
	c := int(t.curves[frame])
	if c < CurveBezier {
		return 0, 0, 0, 0, false
	}
	b := (c-CurveBezier-t.FrameCount())/BezierSize + value
	p := t.controls[b*4 : b*4+4]
	return p[0], p[1], p[2], p[3], true
}

// SetBezier samples a cubic bezier from (time1, value1) to (time2, value2)
// into slot bezier of the sample table. The interval starting at key frame
// uses it for channel value; channel 0 also marks the interval as bezier, so
// the channels of one interval must use consecutive bezier slots.
func (t *CurveTimeline) SetBezier(bezier, frame, value int, time1, value1, cx1, cy1, cx2, cy2, time2, value2 float32) {
	i := t.FrameCount() + bezier*BezierSize
	if value == 0 {
		t.curves[frame] = float32(CurveBezier + i)
	}
	copy(t.controls[bezier*4:], []float32{cx1, cy1, cx2, cy2})

	tmpx := (time1 - cx1*2 + cx2) * 0.03
	tmpy := (value1 - cy1*2 + cy2) * 0.03
	dddx := ((cx1-cx2)*3 - time1 + time2) * 0.006
	dddy := ((cy1-cy2)*3 - value1 + value2) * 0.006
	ddx := tmpx*2 + dddx
	ddy := tmpy*2 + dddy
	dx := (cx1-time1)*0.3 + tmpx + dddx*0.16666667
	dy := (cy1-value1)*0.3 + tmpy + dddy*0.16666667
	x := time1 + dx
	y := value1 + dy
	for n := i + BezierSize; i < n; i += 2 {
		t.curves[i] = x
		t.curves[i+1] = y
		dx += ddx
		dy += ddy
		ddx += dddx
		ddy += dddy
		x += dx
		y += dy
	}
}

// Value returns channel ch interpolated at time. Times outside the keyed
// range return the first or last key values.
func (t *CurveTimeline) Value(time float32, ch int) float32 {
	frames := t.frames
	if time <= frames[0] {
		return frames[1+ch]
	}
	i := search(frames, time, t.entries)
	curve := int(t.curves[i/t.entries])
	switch curve {
	case CurveLinear:
		t0, v0 := frames[i], frames[i+1+ch]
		t1, v1 := frames[i+t.entries], frames[i+t.entries+1+ch]
		return v0 + (time-t0)/(t1-t0)*(v1-v0)
	case CurveStepped:
		return frames[i+1+ch]
	}
	return t.bezierValue(time, i, 1+ch, curve-CurveBezier+ch*BezierSize)
}

// Values fills out with every channel interpolated at time.
func (t *CurveTimeline) Values(time float32, out []float32) []float32 {
	out = out[:0]
	for ch := 0; ch < t.values; ch++ {
		out = append(out, t.Value(time, ch))
	}
	return out
}

// bezierValue evaluates the sampled bezier starting at curves[i] for the key
// at frames[frame]. The nine samples are searched for the first one at or
// past time and the result is linearly interpolated between neighbours.
func (t *CurveTimeline) bezierValue(time float32, frame, valueOffset, i int) float32 {
	curves := t.curves
	if curves[i] > time {
		x, y := t.frames[frame], t.frames[frame+valueOffset]
		return y + (time-x)/(curves[i]-x)*(curves[i+1]-y)
	}
	n := BezierSize / 2
	k := 1 + sort.Search(n-1, func(k int) bool { return curves[i+(k+1)*2] >= time })
	if k < n {
		j := i + k*2
		x, y := curves[j-2], curves[j-1]
		return y + (time-x)/(curves[j]-x)*(curves[j+1]-y)
	}
	end := i + BezierSize
	next := frame + t.entries
	x, y := curves[end-2], curves[end-1]
	return y + (time-x)/(t.frames[next]-x)*(t.frames[next+valueOffset]-y)
}

// Percent returns the interpolation factor between key frame and the next
// one, for timelines whose bezier channel maps time to a 0..1 factor.
func (t *CurveTimeline) Percent(time float32, frame int) float32 {
	curves := t.curves
	i := int(curves[frame])
	start := t.frames[frame*t.entries]
	switch i {
	case CurveLinear:
		return (time - start) / (t.frames[(frame+1)*t.entries] - start)
	case CurveStepped:
		return 0
	}
	i -= CurveBezier
	if curves[i] > time {
		return curves[i+1] * (time - start) / (curves[i] - start)
	}
	n := BezierSize / 2
	k := 1 + sort.Search(n-1, func(k int) bool { return curves[i+(k+1)*2] >= time })
	if k < n {
		j := i + k*2
		x, y := curves[j-2], curves[j-1]
		return y + (time-x)/(curves[j]-x)*(curves[j+1]-y)
	}
	end := i + BezierSize
	x, y := curves[end-2], curves[end-1]
	return y + (1-y)*(time-x)/(t.frames[(frame+1)*t.entries]-x)
}

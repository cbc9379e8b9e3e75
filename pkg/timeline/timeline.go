// Package timeline implements keyframe timelines and their interpolation.
//
// Every timeline stores its keys in a flat float array of
// FrameCount × FrameEntries values, where the first entry of each frame is
// the key time and the remaining entries are the property values. Curve
// timelines additionally keep a side table describing the interpolation used
// between each key and the next one.
//
// Timelines only hold data and answer "what is the value at time t". The
// pose package owns the mutable skeleton state and applies timeline values
// to it.
package timeline

import "sort"

// Timeline is the capability shared by all timeline kinds.
type Timeline interface {
	// FrameCount returns the number of keys.
	FrameCount() int
	// FrameEntries returns the number of floats stored per key.
	FrameEntries() int
	// Frames returns the flat key array. Callers must not modify it.
	Frames() []float32
	// Duration returns the time of the last key.
	Duration() float32
}

// AttachmentKey identifies an attachment by the skin, slot and name it was
// loaded under. Deform and sequence timelines target attachments by key.
type AttachmentKey struct {
	Skin int
	Slot int
	Name string
}

// frameSet is the flat key storage embedded by every timeline.
type frameSet struct {
	frames  []float32
	entries int
}

func newFrameSet(frameCount, entries int) frameSet {
	return frameSet{frames: make([]float32, frameCount*entries), entries: entries}
}

func (f *frameSet) FrameCount() int   { return len(f.frames) / f.entries }
func (f *frameSet) FrameEntries() int { return f.entries }
func (f *frameSet) Frames() []float32 { return f.frames }

func (f *frameSet) Duration() float32 {
	if len(f.frames) == 0 {
		return 0
	}
	return f.frames[len(f.frames)-f.entries]
}

// FrameTime returns the time of key frame.
func (f *frameSet) FrameTime(frame int) float32 {
	return f.frames[frame*f.entries]
}

// search returns the offset of the last key whose time is <= time, or 0 when
// time precedes every key.
func search(frames []float32, time float32, step int) int {
	count := len(frames) / step
	n := sort.Search(count, func(k int) bool { return frames[k*step] > time })
	if n == 0 {
		return 0
	}
	return (n - 1) * step
}

// FrameIndex returns the key number in effect at time. Times before the first
// key map to key 0.
func (f *frameSet) FrameIndex(time float32) int {
	return search(f.frames, time, f.entries) / f.entries
}

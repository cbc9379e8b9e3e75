package playback

import "github.com/decker502/spine2d/pkg/timeline"

// TrackEntry is one animation scheduled on a track.
type TrackEntry struct {
	Track     int
	Animation *timeline.Animation
	Loop      bool

	// Speed multiplies the state time scale for this entry. Defaults to 1.
	Speed float32
	// Alpha blends this entry over the tracks below it. Defaults to 1.
	Alpha float32
	// Delay is the time after the previous entry started at which a queued
	// entry begins.
	Delay float32

	// Time is the animation time: wrapped for looping entries, clamped to the
	// duration otherwise.
	Time float32
	// Finished is set once a non-looping entry reaches its duration. The
	// entry keeps holding its last pose.
	Finished bool
	// Completions counts finished loops, or 1 once a non-looping entry ends.
	Completions int

	elapsed  float32
	lastTime float32
	next     *TrackEntry
}

func newTrackEntry(track int, anim *timeline.Animation, loop bool) *TrackEntry {
	return &TrackEntry{Track: track, Animation: anim, Loop: loop, Speed: 1, Alpha: 1, lastTime: -1}
}

// Next returns the entry queued after e, or nil.
func (e *TrackEntry) Next() *TrackEntry { return e.next }

// Elapsed returns the total time played since the entry started, including
// completed loops.
func (e *TrackEntry) Elapsed() float32 { return e.elapsed }

func (e *TrackEntry) advance(d float32) {
	if d <= 0 {
		return
	}
	e.elapsed += d
	if e.Finished {
		return
	}
	dur := e.Animation.Duration
	t := e.Time + d
	switch {
	case e.Loop && dur <= 0:
		t = 0
	case e.Loop:
		if t >= dur {
			n := int(t / dur)
			e.Completions += n
			t -= float32(n) * dur
		}
	case t >= dur:
		t = dur
		e.Finished = true
		e.Completions++
	}
	e.Time = t
}

func (e *TrackEntry) seek(time float32) {
	if time < 0 {
		time = 0
	}
	e.Time = e.Animation.WrapTime(time, e.Loop)
	e.Finished = !e.Loop && time >= e.Animation.Duration
	e.elapsed = time
	e.lastTime = e.Time
	if e.Time == 0 {
		e.lastTime = -1
	}
}

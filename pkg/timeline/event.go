package timeline

import "math"

// Event is one key of an EventTimeline. Data is the index of the event
// definition in the skeleton data; the payload fields already hold the
// definition defaults when the key did not override them.
type Event struct {
	Time    float32
	Data    int
	Int     int32
	Float   float32
	String  string
	Volume  float32
	Balance float32
}

// EventTimeline fires events when playback crosses their key times.
type EventTimeline struct {
	frameSet
	Events []Event
}

func NewEventTimeline(frameCount int) *EventTimeline {
	return &EventTimeline{frameSet: newFrameSet(frameCount, 1), Events: make([]Event, frameCount)}
}

func (t *EventTimeline) SetFrame(frame int, ev Event) {
	t.frames[frame] = ev.Time
	t.Events[frame] = ev
}

// Fire appends to out every event whose time lies in (lastTime, time]. When
// lastTime > time the animation wrapped: events after lastTime fire first,
// then those from the start up to time. A lastTime below zero includes a
// key at time zero.
func (t *EventTimeline) Fire(lastTime, time float32, out []Event) []Event {
	frames := t.frames
	n := len(frames)
	if n == 0 {
		return out
	}
	if lastTime > time {
		out = t.Fire(lastTime, math.MaxFloat32, out)
		lastTime = -1
	} else if lastTime >= frames[n-1] {
		return out
	}
	if time < frames[0] {
		return out
	}

	i := 0
	if lastTime >= frames[0] {
		i = search(frames, lastTime, 1) + 1
	}
	for ; i < n && time >= frames[i]; i++ {
		out = append(out, t.Events[i])
	}
	return out
}

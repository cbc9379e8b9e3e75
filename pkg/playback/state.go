// Package playback tracks which animations a skeleton instance plays and
// advances their time each tick.
//
// A State holds numbered tracks. Each track has a current entry and a queue
// of entries that start when the current one completes or after a delay.
// Update only moves time forward; Apply poses a skeleton from the tracks in
// ascending order and returns the events crossed since the previous Apply.
package playback

import (
	"fmt"
	"log"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/pose"
	"github.com/decker502/spine2d/pkg/timeline"
)

// Verbose enables [Playback] diagnostics.
var Verbose bool

// State is the playback state of one skeleton instance. It is not safe for
// concurrent use; SkeletonData may be shared between states.
type State struct {
	Data *model.SkeletonData

	// TimeScale multiplies every track's speed. Defaults to 1.
	TimeScale float32

	tracks []*TrackEntry
	paused bool
	events []timeline.Event
}

func NewState(data *model.SkeletonData) *State {
	return &State{Data: data, TimeScale: 1}
}

// SetAnimation replaces the current entry of track and drops its queue. The
// new entry starts at time zero.
func (s *State) SetAnimation(track int, name string, loop bool) (*TrackEntry, error) {
	e, err := s.newEntry(track, name, loop)
	if err != nil {
		return nil, err
	}
	s.ensureTrack(track)
	s.tracks[track] = e
	if Verbose {
		log.Printf("[Playback] Track %d: set %s (loop=%v, duration=%.3f)", track, name, loop, e.Animation.Duration)
	}
	return e, nil
}

// AddAnimation queues an entry after the last entry of track. An empty track
// starts the entry immediately.
//
// Parameters:
//   - track: track index, 0 or greater
//   - name: animation name
//   - loop: whether the entry loops once it starts
//   - delay: time after the previous entry starts; a delay <= 0 is added to
//     the previous entry's duration so the new entry follows when it completes
//
// Returns:
//   - The queued entry, or a *model.MissingReferenceError for an unknown
//     animation
func (s *State) AddAnimation(track int, name string, loop bool, delay float32) (*TrackEntry, error) {
	e, err := s.newEntry(track, name, loop)
	if err != nil {
		return nil, err
	}
	s.ensureTrack(track)
	last := s.tracks[track]
	if last == nil {
		s.tracks[track] = e
		if Verbose {
			log.Printf("[Playback] Track %d: start %s (loop=%v)", track, name, loop)
		}
		return e, nil
	}
	for last.next != nil {
		last = last.next
	}
	if delay <= 0 {
		delay += last.Animation.Duration
		if delay < 0 {
			delay = 0
		}
	}
	e.Delay = delay
	last.next = e
	if Verbose {
		log.Printf("[Playback] Track %d: queue %s after %s (delay=%.3f)", track, name, last.Animation.Name, delay)
	}
	return e, nil
}

func (s *State) newEntry(track int, name string, loop bool) (*TrackEntry, error) {
	if track < 0 {
		return nil, fmt.Errorf("invalid track %d", track)
	}
	anim := s.Data.FindAnimation(name)
	if anim == nil {
		return nil, &model.MissingReferenceError{Kind: "animation", Name: name}
	}
	return newTrackEntry(track, anim, loop), nil
}

func (s *State) ensureTrack(track int) {
	for len(s.tracks) <= track {
		s.tracks = append(s.tracks, nil)
	}
}

// Clear removes the current entry and queue of track.
func (s *State) Clear(track int) {
	if track < 0 || track >= len(s.tracks) {
		return
	}
	s.tracks[track] = nil
	if Verbose {
		log.Printf("[Playback] Track %d: cleared", track)
	}
}

// ClearAll removes every track.
func (s *State) ClearAll() {
	s.tracks = s.tracks[:0]
}

// Current returns the entry playing on track, or nil.
func (s *State) Current(track int) *TrackEntry {
	if track < 0 || track >= len(s.tracks) {
		return nil
	}
	return s.tracks[track]
}

// TrackCount returns one more than the highest track index in use.
func (s *State) TrackCount() int { return len(s.tracks) }

// SetTrackTime moves the current entry of track to time. Events between the
// old and new time are not fired.
func (s *State) SetTrackTime(track int, time float32) error {
	e := s.Current(track)
	if e == nil {
		return fmt.Errorf("track %d is empty", track)
	}
	e.seek(time)
	return nil
}

func (s *State) Pause()       { s.paused = true }
func (s *State) Resume()      { s.paused = false }
func (s *State) Paused() bool { return s.paused }

// Update advances every track by delta seconds scaled by TimeScale and the
// entry speed. Queued entries whose delay has elapsed replace the current
// entry and receive the leftover time.
func (s *State) Update(delta float32) {
	if s.paused || delta <= 0 {
		return
	}
	for i, e := range s.tracks {
		if e == nil {
			continue
		}
		e.advance(delta * s.TimeScale * e.Speed)
		for next := e.next; next != nil && e.elapsed >= next.Delay; next = e.next {
			over := e.elapsed - next.Delay
			if Verbose {
				log.Printf("[Playback] Track %d: %s -> %s", i, e.Animation.Name, next.Animation.Name)
			}
			s.tracks[i] = next
			e = next
			e.advance(over)
		}
	}
}

// Apply resets sk to the setup pose, applies every track in ascending order
// blended by its Alpha and returns the events fired since the previous
// Apply. The returned slice is reused by the next call.
func (s *State) Apply(sk *pose.Skeleton) []timeline.Event {
	events := s.events[:0]
	sk.SetToSetupPose()
	for _, e := range s.tracks {
		if e == nil {
			continue
		}
		events = sk.Apply(e.Animation, e.lastTime, e.Time, e.Loop, e.Alpha, events)
		e.lastTime = e.Time
	}
	s.events = events
	return events
}

package playback

import (
	"errors"
	"math"
	"testing"

	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/pose"
	"github.com/decker502/spine2d/pkg/timeline"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.0001
}

func rotate(bone int, times, values []float32) *timeline.BoneTimeline {
	tl := timeline.NewBoneTimeline(timeline.BoneRotate, bone, len(times), 0)
	for i := range times {
		tl.SetFrame(i, times[i], values[i])
	}
	return tl
}

// newTestData has a two-bone skeleton with "walk" (1s, hip 0 → 90), "jump"
// (0.5s, hip 0 → 30) and "step" (1s, events at 0 and 0.5).
func newTestData() *model.SkeletonData {
	sd := model.NewSkeletonData()
	sd.Bones = []*model.BoneData{
		model.NewBoneData(0, "root", -1),
		model.NewBoneData(1, "hip", 0),
	}
	sd.Events = []*model.EventData{model.NewEventData("footstep")}

	events := timeline.NewEventTimeline(2)
	events.SetFrame(0, timeline.Event{Time: 0, String: "left"})
	events.SetFrame(1, timeline.Event{Time: 0.5, String: "right"})

	sd.Animations = []*timeline.Animation{
		timeline.NewAnimation("walk", []timeline.Timeline{rotate(1, []float32{0, 1}, []float32{0, 90})}),
		timeline.NewAnimation("jump", []timeline.Timeline{rotate(1, []float32{0, 0.5}, []float32{0, 30})}),
		timeline.NewAnimation("step", []timeline.Timeline{events, rotate(0, []float32{0, 1}, []float32{0, 0})}),
	}
	return sd
}

func TestSetAnimation_Errors(t *testing.T) {
	s := NewState(newTestData())

	_, err := s.SetAnimation(0, "fly", true)
	var mr *model.MissingReferenceError
	if !errors.As(err, &mr) || mr.Kind != "animation" || mr.Name != "fly" {
		t.Errorf("Expected missing animation error, got %v", err)
	}
	if _, err := s.SetAnimation(-1, "walk", true); err == nil {
		t.Error("Expected error for negative track")
	}
	if s.TrackCount() != 0 {
		t.Errorf("Expected no tracks after failures, got %d", s.TrackCount())
	}
}

func TestUpdate_Advance(t *testing.T) {
	tests := []struct {
		name          string
		anim          string
		loop          bool
		timeScale     float32
		speed         float32
		deltas        []float32
		wantTime      float32
		wantFinished  bool
		wantCompleted int
	}{
		{"loop wraps", "walk", true, 1, 1, []float32{1.25}, 0.25, false, 1},
		{"loop wraps twice", "walk", true, 1, 1, []float32{0.75, 1.5}, 0.25, false, 2},
		{"loop lands on duration", "walk", true, 1, 1, []float32{1}, 0, false, 1},
		{"loop steps onto duration", "walk", true, 1, 1, []float32{0.5, 0.5}, 0, false, 1},
		{"non-loop clamps", "jump", false, 1, 1, []float32{2}, 0.5, true, 1},
		{"non-loop holds", "jump", false, 1, 1, []float32{0.5, 0.5}, 0.5, true, 1},
		{"scaled", "walk", true, 2, 0.5, []float32{0.3}, 0.3, false, 0},
		{"double speed", "walk", true, 1, 2, []float32{0.25}, 0.5, false, 0},
		{"negative delta ignored", "walk", true, 1, 1, []float32{0.5, -0.25}, 0.5, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(newTestData())
			s.TimeScale = tt.timeScale
			e, err := s.SetAnimation(0, tt.anim, tt.loop)
			if err != nil {
				t.Fatalf("Failed to set animation: %v", err)
			}
			e.Speed = tt.speed
			for _, d := range tt.deltas {
				s.Update(d)
			}
			if !approx(e.Time, tt.wantTime) {
				t.Errorf("Expected time %v, got %v", tt.wantTime, e.Time)
			}
			if e.Finished != tt.wantFinished {
				t.Errorf("Expected finished=%v, got %v", tt.wantFinished, e.Finished)
			}
			if e.Completions != tt.wantCompleted {
				t.Errorf("Expected %d completions, got %d", tt.wantCompleted, e.Completions)
			}
		})
	}
}

func TestPauseResume(t *testing.T) {
	s := NewState(newTestData())
	e, _ := s.SetAnimation(0, "walk", true)

	s.Pause()
	s.Update(0.5)
	if !s.Paused() || e.Time != 0 {
		t.Errorf("Expected paused state to hold time 0, got %v", e.Time)
	}
	s.Resume()
	s.Update(0.5)
	if !approx(e.Time, 0.5) {
		t.Errorf("Expected time 0.5 after resume, got %v", e.Time)
	}
}

func TestAddAnimation_Queue(t *testing.T) {
	s := NewState(newTestData())
	if _, err := s.SetAnimation(0, "jump", false); err != nil {
		t.Fatalf("Failed to set animation: %v", err)
	}
	walk, err := s.AddAnimation(0, "walk", true, 0)
	if err != nil {
		t.Fatalf("Failed to queue animation: %v", err)
	}
	if !approx(walk.Delay, 0.5) {
		t.Errorf("Expected delay of the jump duration, got %v", walk.Delay)
	}
	if s.Current(0).Next() != walk {
		t.Error("Expected walk queued after jump")
	}

	s.Update(0.25)
	if s.Current(0).Animation.Name != "jump" {
		t.Errorf("Expected jump still current, got %s", s.Current(0).Animation.Name)
	}
	s.Update(0.5)
	cur := s.Current(0)
	if cur != walk {
		t.Fatalf("Expected walk current, got %s", cur.Animation.Name)
	}
	if !approx(cur.Time, 0.25) {
		t.Errorf("Expected leftover time 0.25, got %v", cur.Time)
	}
}

func TestAddAnimation_Delay(t *testing.T) {
	s := NewState(newTestData())
	s.SetAnimation(0, "walk", true)
	s.AddAnimation(0, "jump", false, 0.2)
	s.AddAnimation(0, "walk", true, -0.1)

	s.Update(0.3)
	cur := s.Current(0)
	if cur.Animation.Name != "jump" || !approx(cur.Time, 0.1) {
		t.Fatalf("Expected jump at 0.1, got %s at %v", cur.Animation.Name, cur.Time)
	}
	if next := cur.Next(); next == nil || !approx(next.Delay, 0.4) {
		t.Errorf("Expected the last entry to start 0.1 before jump ends, got %+v", next)
	}

	s.Update(0.5)
	if cur := s.Current(0); cur.Animation.Name != "walk" || !approx(cur.Time, 0.2) {
		t.Errorf("Expected walk at 0.2, got %s at %v", cur.Animation.Name, cur.Time)
	}
}

func TestAddAnimation_EmptyTrack(t *testing.T) {
	s := NewState(newTestData())
	e, err := s.AddAnimation(2, "walk", true, 1)
	if err != nil {
		t.Fatalf("Failed to add animation: %v", err)
	}
	if s.Current(2) != e || s.TrackCount() != 3 {
		t.Errorf("Expected walk to start on track 2, got %+v", s.Current(2))
	}
	if s.Current(0) != nil || s.Current(5) != nil {
		t.Error("Expected unused tracks to be empty")
	}
}

func TestClear(t *testing.T) {
	s := NewState(newTestData())
	s.SetAnimation(0, "walk", true)
	s.SetAnimation(1, "jump", false)

	s.Clear(1)
	if s.Current(1) != nil || s.Current(0) == nil {
		t.Error("Expected only track 1 cleared")
	}
	s.Clear(7)

	s.ClearAll()
	if s.TrackCount() != 0 || s.Current(0) != nil {
		t.Error("Expected every track cleared")
	}
}

func TestSetTrackTime(t *testing.T) {
	s := NewState(newTestData())
	e, _ := s.SetAnimation(0, "jump", false)
	s.Update(0.4)

	if err := s.SetTrackTime(0, 0.1); err != nil {
		t.Fatalf("Failed to set track time: %v", err)
	}
	if !approx(e.Time, 0.1) || e.Finished {
		t.Errorf("Expected time 0.1 and not finished, got %v finished=%v", e.Time, e.Finished)
	}
	if err := s.SetTrackTime(0, 3); err != nil || !e.Finished || !approx(e.Time, 0.5) {
		t.Errorf("Expected clamped finished entry, got %v finished=%v err=%v", e.Time, e.Finished, err)
	}
	if err := s.SetTrackTime(4, 0); err == nil {
		t.Error("Expected error for empty track")
	}
}

func TestApply_Tracks(t *testing.T) {
	sd := newTestData()
	sk := pose.NewSkeleton(sd)
	s := NewState(sd)

	s.SetAnimation(0, "walk", true)
	jump, _ := s.SetAnimation(1, "jump", false)
	jump.Alpha = 0.5

	s.Update(0.25)
	s.Apply(sk)
	hip := sk.FindBone("hip")
	// walk gives 22.5, jump 15 blended at half weight.
	if !approx(hip.Rotation, 18.75) {
		t.Errorf("Expected blended rotation 18.75, got %v", hip.Rotation)
	}

	s.Clear(1)
	s.Apply(sk)
	if !approx(hip.Rotation, 22.5) {
		t.Errorf("Expected walk rotation 22.5, got %v", hip.Rotation)
	}

	s.ClearAll()
	s.Apply(sk)
	if hip.Rotation != 0 {
		t.Errorf("Expected setup rotation without tracks, got %v", hip.Rotation)
	}
}

func TestApply_LoopEndMatchesStart(t *testing.T) {
	sd := newTestData()
	s := NewState(sd)
	if _, err := s.SetAnimation(0, "walk", true); err != nil {
		t.Fatalf("Failed to set animation: %v", err)
	}

	start := pose.NewSkeleton(sd)
	s.Apply(start)
	start.UpdateWorldTransform()

	s.Update(sd.FindAnimation("walk").Duration)
	end := pose.NewSkeleton(sd)
	s.Apply(end)
	end.UpdateWorldTransform()

	for i := range start.Bones {
		a, b := start.Bones[i], end.Bones[i]
		if !approx(a.Rotation, b.Rotation) || !approx(a.A, b.A) || !approx(a.B, b.B) ||
			!approx(a.C, b.C) || !approx(a.D, b.D) || !approx(a.WorldX, b.WorldX) || !approx(a.WorldY, b.WorldY) {
			t.Errorf("Bone %s: expected the start pose at the loop end, got rotation %v vs %v", a.Data.Name, a.Rotation, b.Rotation)
		}
	}
}

func TestApply_Events(t *testing.T) {
	sd := newTestData()
	sk := pose.NewSkeleton(sd)
	s := NewState(sd)
	s.SetAnimation(0, "step", true)

	names := func(events []timeline.Event) []string {
		var out []string
		for _, ev := range events {
			out = append(out, ev.String)
		}
		return out
	}

	steps := []struct {
		delta float32
		want  []string
	}{
		{0, []string{"left"}},
		{0.25, nil},
		{0.5, []string{"right"}},
		{0.5, []string{"left"}},
		{0.9, []string{"right", "left"}},
	}
	for i, step := range steps {
		s.Update(step.delta)
		got := names(s.Apply(sk))
		if len(got) != len(step.want) {
			t.Fatalf("Step %d: expected %v, got %v", i, step.want, got)
		}
		for j := range got {
			if got[j] != step.want[j] {
				t.Errorf("Step %d: expected %v, got %v", i, step.want, got)
			}
		}
	}
}

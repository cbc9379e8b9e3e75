package timeline

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

// newRotate builds a three key rotate timeline 0 -> 90 -> 30 whose first
// interval uses the given curve.
func newRotate(curve int) *BoneTimeline {
	tl := NewBoneTimeline(BoneRotate, 1, 3, 1)
	tl.SetFrame(0, 0, 0)
	tl.SetFrame(1, 1, 90)
	tl.SetFrame(2, 2, 30)
	switch curve {
	case CurveLinear:
		tl.SetLinear(0)
	case CurveStepped:
		tl.SetStepped(0)
	case CurveBezier:
		tl.SetBezier(0, 0, 0, 0, 0, 0.25, 0, 0.75, 90, 1, 90)
	}
	tl.SetLinear(1)
	return tl
}

func TestCurveTimeline_KeyframeExact(t *testing.T) {
	tests := []struct {
		name  string
		curve int
	}{
		{"linear", CurveLinear},
		{"stepped", CurveStepped},
		{"bezier", CurveBezier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newRotate(tt.curve)
			for frame, want := range []float32{0, 90, 30} {
				got := tl.Value(tl.FrameTime(frame), 0)
				if !approx(got, want) {
					t.Errorf("Expected value %v at key %d, got %v", want, frame, got)
				}
			}
		})
	}
}

func TestCurveTimeline_Boundaries(t *testing.T) {
	tl := newRotate(CurveLinear)
	if got := tl.Value(-5, 0); got != 0 {
		t.Errorf("Expected first key value before start, got %v", got)
	}
	if got := tl.Value(10, 0); got != 30 {
		t.Errorf("Expected last key value after end, got %v", got)
	}
	if got := tl.Duration(); got != 2 {
		t.Errorf("Expected duration 2, got %v", got)
	}
}

func TestCurveTimeline_Interpolation(t *testing.T) {
	linear := newRotate(CurveLinear)
	if got := linear.Value(0.5, 0); !approx(got, 45) {
		t.Errorf("Expected linear midpoint 45, got %v", got)
	}
	if got := linear.Value(1.5, 0); !approx(got, 60) {
		t.Errorf("Expected linear midpoint 60 in second interval, got %v", got)
	}

	stepped := newRotate(CurveStepped)
	if got := stepped.Value(0.999, 0); got != 0 {
		t.Errorf("Expected stepped value to hold 0 before next key, got %v", got)
	}

	bezier := newRotate(CurveBezier)
	prev := float32(-1)
	for i := 0; i <= 20; i++ {
		v := bezier.Value(float32(i)/20, 0)
		if v < prev-1e-3 {
			t.Fatalf("Expected ease-in-out bezier to be monotonic, got %v after %v", v, prev)
		}
		prev = v
	}
	if got := bezier.Value(0.5, 0); !approx(got, 45) && math.Abs(float64(got-45)) > 1 {
		t.Errorf("Expected symmetric bezier near 45 at midpoint, got %v", got)
	}
	if got := bezier.Value(0.1, 0); got >= 9 {
		t.Errorf("Expected ease-in to lag linear at t=0.1, got %v", got)
	}
}

func TestCurveTimeline_MultiChannel(t *testing.T) {
	tl := NewBoneTimeline(BoneTranslate, 0, 2, 0)
	tl.SetFrame(0, 0, 0, 10)
	tl.SetFrame(1, 2, 20, -10)
	tl.SetLinear(0)

	got := tl.Values(1, nil)
	if len(got) != 2 || !approx(got[0], 10) || !approx(got[1], 0) {
		t.Errorf("Expected [10 0], got %v", got)
	}
}

func TestCurveTimeline_BezierControls(t *testing.T) {
	tl := NewBoneTimeline(BoneScale, 0, 2, 2)
	tl.SetFrame(0, 0, 1, 1)
	tl.SetFrame(1, 1, 2, 3)
	tl.SetBezier(0, 0, 0, 0, 1, 0.3, 1, 0.6, 2, 1, 2)
	tl.SetBezier(1, 0, 1, 0, 1, 0.2, 1.5, 0.8, 2.5, 1, 3)

	if tl.CurveType(0) != CurveBezier {
		t.Fatalf("Expected bezier curve type, got %d", tl.CurveType(0))
	}
	cx1, cy1, cx2, cy2, ok := tl.Bezier(0, 1)
	if !ok || cx1 != 0.2 || cy1 != 1.5 || cx2 != 0.8 || cy2 != 2.5 {
		t.Errorf("Expected second channel controls, got %v %v %v %v %v", cx1, cy1, cx2, cy2, ok)
	}
	if tl.CurveType(1) != CurveStepped {
		t.Errorf("Expected last key to be stepped")
	}
}

func TestDeformTimeline_Deform(t *testing.T) {
	tl := NewDeformTimeline(0, AttachmentKey{Name: "mesh"}, 2, 0)
	tl.SetFrame(0, 0, []float32{0, 0, 10, 10})
	tl.SetFrame(1, 1, []float32{2, 4, 10, 20})
	tl.SetLinear(0)

	got := tl.Deform(0.5, nil)
	want := []float32{1, 2, 10, 15}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
	got = tl.Deform(5, got)
	if got[3] != 20 {
		t.Errorf("Expected last key vertices after end, got %v", got)
	}
}

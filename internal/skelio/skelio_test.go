package skelio

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/decker502/spine2d/internal/binio"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/timeline"
)

const testSkeletonJSON = `{
  "skeleton": {"hash": "abc", "spine": "4.2.33", "x": -50, "width": 100, "height": 200, "images": "./images/"},
  "bones": [
    {"name": "root"},
    {"name": "hip", "parent": "root", "length": 40, "rotation": 45, "x": 10, "y": 20},
    {"name": "head", "parent": "hip", "y": 30, "inherit": "noScale"}
  ],
  "slots": [
    {"name": "body", "bone": "hip", "attachment": "body"},
    {"name": "face", "bone": "head", "color": "ff0000ff", "dark": "00ff00", "attachment": "face", "blend": "additive"}
  ],
  "ik": [
    {"name": "aim", "order": 1, "bones": ["hip"], "target": "head", "mix": 0.5, "bendPositive": false}
  ],
  "skins": [
    {"name": "alt", "attachments": {
      "body": {"body": {"type": "linkedmesh", "parent": "body", "skin": "default", "timelines": true}}
    }},
    {"name": "default", "attachments": {
      "body": {"body": {"type": "mesh", "uvs": [0, 0, 1, 0, 1, 1, 0, 1], "vertices": [0, 0, 10, 0, 10, 10, 0, 10],
        "triangles": [0, 1, 2, 2, 3, 0], "hull": 4, "width": 10, "height": 10}},
      "face": {
        "face": {"x": 1, "y": 2, "width": 32, "height": 16, "rotation": 90},
        "eyes": {"type": "point", "x": 3, "y": 4}
      }
    }}
  ],
  "events": {"step": {"int": 3, "string": "left"}},
  "animations": {
    "walk": {
      "slots": {
        "face": {
          "attachment": [{"time": 0, "name": "face"}, {"time": 0.5, "name": null}],
          "rgba": [{"time": 0, "color": "ffffffff", "curve": "stepped"}, {"time": 1, "color": "ff000080"}]
        }
      },
      "bones": {
        "hip": {
          "rotate": [{"time": 0, "value": 0, "curve": [0.25, 0, 0.75, 90]}, {"time": 1, "value": 90}],
          "translate": [{"time": 0}, {"time": 0.5, "x": 10, "y": -4}]
        }
      },
      "ik": {"aim": [{"time": 0, "mix": 1}, {"time": 1, "mix": 0, "bendPositive": false}]},
      "attachments": {"default": {"body": {"body": {"deform": [{"time": 0}, {"time": 1, "offset": 2, "vertices": [5, 5]}]}}}},
      "drawOrder": [{"time": 0.5, "offsets": [{"slot": "body", "offset": 1}]}],
      "events": [{"time": 0.25, "name": "step"}, {"time": 0.75, "name": "step", "string": "right"}]
    }
  }
}`

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func loadTestSkeleton(t *testing.T) *model.SkeletonData {
	t.Helper()
	sd, err := ReadJSON([]byte(testSkeletonJSON), Options{})
	if err != nil {
		t.Fatalf("Failed to read skeleton: %v", err)
	}
	return sd
}

func findTimeline[T timeline.Timeline](anim *timeline.Animation, match func(T) bool) T {
	var zero T
	for _, tl := range anim.Timelines {
		if v, ok := tl.(T); ok && match(v) {
			return v
		}
	}
	return zero
}

func TestReadJSON_Setup(t *testing.T) {
	sd := loadTestSkeleton(t)

	if len(sd.Bones) != 3 {
		t.Fatalf("Expected 3 bones, got %d", len(sd.Bones))
	}
	hip := sd.Bones[1]
	if hip.Parent != 0 || hip.Rotation != 45 || hip.X != 10 || hip.Y != 20 || hip.Length != 40 {
		t.Errorf("Unexpected hip bone: %+v", hip)
	}
	if sd.Bones[2].Inherit != model.InheritNoScale {
		t.Errorf("Expected head inherit noScale, got %v", sd.Bones[2].Inherit)
	}

	face := sd.Slots[1]
	if face.Color != (model.Color{R: 1, A: 1}) {
		t.Errorf("Expected red slot color, got %v", face.Color)
	}
	if !face.HasDarkColor || face.DarkColor != (model.Color{G: 1, A: 1}) {
		t.Errorf("Expected green dark color, got %v", face.DarkColor)
	}
	if face.Blend != model.BlendAdditive {
		t.Errorf("Expected additive blend, got %v", face.Blend)
	}

	ik := sd.IKConstraints[0]
	if ik.Mix != 0.5 || ik.BendDirection != -1 || ik.Target != 2 || ik.Order != 1 {
		t.Errorf("Unexpected ik constraint: %+v", ik)
	}

	if len(sd.Skins) != 2 || sd.Skins[0] != sd.DefaultSkin || sd.DefaultSkin.Name != "default" {
		t.Fatalf("Expected default skin first, got %d skins", len(sd.Skins))
	}
	region := sd.DefaultSkin.Attachment(1, "face")
	if region == nil || region.Kind != model.KindRegion || region.Region.Width != 32 || region.Region.Rotation != 90 {
		t.Errorf("Unexpected face attachment: %+v", region)
	}
	if p := sd.DefaultSkin.Attachment(1, "eyes"); p == nil || p.Kind != model.KindPoint || p.Point.X != 3 {
		t.Errorf("Unexpected eyes attachment: %+v", p)
	}

	parent := sd.DefaultSkin.Attachment(0, "body")
	linked := sd.Skins[1].Attachment(0, "body")
	if linked == nil || linked.Kind != model.KindLinkedMesh {
		t.Fatalf("Expected linked mesh in alt skin, got %+v", linked)
	}
	if len(linked.Mesh.Vertices.Values) != 8 || len(linked.Mesh.Triangles) != 6 || linked.Mesh.HullLength != 4 {
		t.Errorf("Expected geometry copied from parent, got %+v", linked.Mesh)
	}
	if linked.TimelineKey != parent.Key {
		t.Errorf("Expected timeline key %v, got %v", parent.Key, linked.TimelineKey)
	}
	if linked.Mesh.Width != 10 || linked.Mesh.Height != 10 {
		t.Errorf("Expected parent size 10x10, got %vx%v", linked.Mesh.Width, linked.Mesh.Height)
	}
}

func TestReadJSON_Animation(t *testing.T) {
	sd := loadTestSkeleton(t)
	anim := sd.FindAnimation("walk")
	if anim == nil {
		t.Fatal("Expected animation 'walk'")
	}
	if anim.Duration != 1 {
		t.Errorf("Expected duration 1, got %v", anim.Duration)
	}

	rotate := findTimeline(anim, func(tl *timeline.BoneTimeline) bool { return tl.Property == timeline.BoneRotate })
	if rotate == nil {
		t.Fatal("Expected rotate timeline")
	}
	if v := rotate.Value(0.5, 0); !near(v, 45) {
		t.Errorf("Expected rotation 45 at the curve midpoint, got %v", v)
	}
	if v := rotate.Value(1, 0); v != 90 {
		t.Errorf("Expected rotation 90 at the last key, got %v", v)
	}

	translate := findTimeline(anim, func(tl *timeline.BoneTimeline) bool { return tl.Property == timeline.BoneTranslate })
	if x, y := translate.Value(0.25, 0), translate.Value(0.25, 1); !near(x, 5) || !near(y, -2) {
		t.Errorf("Expected translate (5, -2), got (%v, %v)", x, y)
	}

	attach := findTimeline(anim, func(*timeline.AttachmentTimeline) bool { return true })
	if name := attach.Name(0.6); name != "" {
		t.Errorf("Expected attachment cleared, got %q", name)
	}

	rgba := findTimeline(anim, func(*timeline.ColorTimeline) bool { return true })
	if a := rgba.Value(0.5, 3); a != 1 {
		t.Errorf("Expected stepped alpha 1, got %v", a)
	}
	if a := rgba.Value(1, 3); !near(a, 128.0/255) {
		t.Errorf("Expected alpha 0.5, got %v", a)
	}

	ik := findTimeline(anim, func(*timeline.IKTimeline) bool { return true })
	if pose := ik.Key(1); pose.Mix != 0 || pose.BendDirection != -1 {
		t.Errorf("Unexpected ik key: %+v", pose)
	}

	deform := findTimeline(anim, func(*timeline.DeformTimeline) bool { return true })
	got := deform.Deform(0.5, nil)
	want := []float32{0, 0, 12.5, 2.5, 10, 10, 0, 10}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("Expected deform %v, got %v", want, got)
			break
		}
	}

	drawOrder := findTimeline(anim, func(*timeline.DrawOrderTimeline) bool { return true })
	if order := drawOrder.DrawOrder(0.5); len(order) != 2 || order[0] != 1 || order[1] != 0 {
		t.Errorf("Expected draw order [1 0], got %v", order)
	}

	events := findTimeline(anim, func(*timeline.EventTimeline) bool { return true })
	fired := events.Fire(-1, 1, nil)
	if len(fired) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(fired))
	}
	if fired[0].String != "left" || fired[0].Int != 3 {
		t.Errorf("Expected defaults from event data, got %+v", fired[0])
	}
	if fired[1].String != "right" {
		t.Errorf("Expected overridden string, got %q", fired[1].String)
	}
}

func TestReadJSON_Scale(t *testing.T) {
	sd, err := ReadJSON([]byte(testSkeletonJSON), Options{Scale: 2})
	if err != nil {
		t.Fatalf("Failed to read skeleton: %v", err)
	}
	if hip := sd.Bones[1]; hip.X != 20 || hip.Y != 40 || hip.Length != 80 || hip.Rotation != 45 {
		t.Errorf("Expected positional values doubled, got %+v", hip)
	}
	anim := sd.FindAnimation("walk")
	translate := findTimeline(anim, func(tl *timeline.BoneTimeline) bool { return tl.Property == timeline.BoneTranslate })
	if x := translate.Value(0.5, 0); x != 20 {
		t.Errorf("Expected scaled translate 20, got %v", x)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	sd := loadTestSkeleton(t)
	want, err := WriteJSON(sd)
	if err != nil {
		t.Fatalf("Failed to write json: %v", err)
	}

	data, err := WriteBinary(sd)
	if err != nil {
		t.Fatalf("Failed to write binary: %v", err)
	}
	decoded, err := ReadBinary(data, Options{})
	if err != nil {
		t.Fatalf("Failed to read binary: %v", err)
	}
	if decoded.Version != "4.2.33" {
		t.Errorf("Expected version 4.2.33, got %s", decoded.Version)
	}
	if !decoded.Nonessential {
		t.Error("Expected nonessential data to be kept")
	}
	// The binary hash is derived from two ints rather than stored verbatim.
	decoded.Hash = sd.Hash

	got, err := WriteJSON(decoded)
	if err != nil {
		t.Fatalf("Failed to write json: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Binary round trip changed the skeleton:\nwant %s\ngot  %s", want, got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	sd := loadTestSkeleton(t)
	first, err := WriteJSON(sd)
	if err != nil {
		t.Fatalf("Failed to write json: %v", err)
	}
	decoded, err := ReadJSON(first, Options{})
	if err != nil {
		t.Fatalf("Failed to read written json: %v", err)
	}
	second, err := WriteJSON(decoded)
	if err != nil {
		t.Fatalf("Failed to write json: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("JSON round trip changed the skeleton:\nfirst  %s\nsecond %s", first, second)
	}
}

func TestReadBinary_VersionMismatch(t *testing.T) {
	w := binio.NewWriter()
	w.WriteInt(1)
	w.WriteInt(2)
	w.WriteString("3.8.99", true)

	sd, err := ReadBinary(w.Bytes(), Options{})
	if sd != nil {
		t.Error("Expected nil data on error")
	}
	var vm *model.VersionMismatchError
	if !errors.As(err, &vm) {
		t.Fatalf("Expected VersionMismatchError, got %v", err)
	}
	if vm.Found != "3.8.99" {
		t.Errorf("Expected found version 3.8.99, got %s", vm.Found)
	}
}

func TestReadBinary_Truncated(t *testing.T) {
	data, err := WriteBinary(loadTestSkeleton(t))
	if err != nil {
		t.Fatalf("Failed to write binary: %v", err)
	}
	for _, n := range []int{len(data) / 4, len(data) / 2, len(data) - 1} {
		sd, err := ReadBinary(data[:n], Options{})
		if sd != nil {
			t.Errorf("Expected nil data for %d bytes", n)
		}
		var pe *model.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Expected ParseError for %d bytes, got %v", n, err)
		}
	}
}

func TestReadBinary_MissingParentMesh(t *testing.T) {
	sd := loadTestSkeleton(t)
	linked := sd.Skins[sd.FindSkin("alt")].Attachment(sd.FindSlot("body"), "body")
	if linked == nil || linked.Mesh == nil || linked.Mesh.Linked == nil {
		t.Fatal("Expected a linked mesh in the alt skin")
	}
	linked.Mesh.Linked.Parent = "nope"

	data, err := WriteBinary(sd)
	if err != nil {
		t.Fatalf("Failed to write binary: %v", err)
	}
	decoded, err := ReadBinary(data, Options{})
	if decoded != nil {
		t.Error("Expected nil data on error")
	}
	var mr *model.MissingReferenceError
	if !errors.As(err, &mr) || mr.Kind != "parent mesh" || mr.Name != "nope" {
		t.Errorf("Expected missing parent mesh 'nope', got %v", err)
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{
			name:  "invalid json",
			input: `{"bones": [`,
			check: func(err error) bool {
				var pe *model.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:  "version mismatch",
			input: `{"skeleton": {"spine": "4.1.20"}}`,
			check: func(err error) bool {
				var vm *model.VersionMismatchError
				return errors.As(err, &vm)
			},
		},
		{
			name: "missing parent mesh",
			input: `{"bones": [{"name": "root"}], "slots": [{"name": "s", "bone": "root"}],
				"skins": [{"name": "default", "attachments": {"s": {"m": {"type": "linkedmesh", "parent": "nope"}}}}]}`,
			check: func(err error) bool {
				var mr *model.MissingReferenceError
				return errors.As(err, &mr) && mr.Kind == "parent mesh" && mr.Name == "nope"
			},
		},
		{
			name:  "unknown parent bone",
			input: `{"bones": [{"name": "root"}, {"name": "arm", "parent": "torso"}]}`,
			check: func(err error) bool {
				var mr *model.MissingReferenceError
				return errors.As(err, &mr) && mr.Kind == "bone"
			},
		},
		{
			name: "version checked before content",
			input: `{"skeleton": {"spine": "3.8.99"}, "bones": [{"name": "arm", "parent": "torso"}]}`,
			check: func(err error) bool {
				var vm *model.VersionMismatchError
				return errors.As(err, &vm) && vm.Found == "3.8.99"
			},
		},
		{
			name: "bad timeline color",
			input: `{"bones": [{"name": "root"}], "slots": [{"name": "s", "bone": "root"}],
				"animations": {"a": {"slots": {"s": {"rgba": [{"time": 0, "color": "zzzz"}]}}}}}`,
			check: func(err error) bool {
				var pe *model.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name: "bad timeline dark color",
			input: `{"bones": [{"name": "root"}], "slots": [{"name": "s", "bone": "root"}],
				"animations": {"a": {"slots": {"s": {"rgb2": [
					{"time": 0, "light": "ffffff", "dark": "000000"},
					{"time": 1, "light": "ffffff", "dark": "xyz"}
				]}}}}}`,
			check: func(err error) bool {
				var pe *model.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name: "empty timeline",
			input: `{"bones": [{"name": "root"}],
				"animations": {"idle": {"bones": {"root": {"rotate": []}}}}}`,
			check: func(err error) bool {
				var pe *model.ParseError
				return errors.As(err, &pe)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd, err := ReadJSON([]byte(tt.input), Options{})
			if sd != nil {
				t.Error("Expected nil data on error")
			}
			if err == nil || !tt.check(err) {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestReadJSON_PhysicsGlobalTimeline(t *testing.T) {
	input := `{
  "bones": [{"name": "root"}],
  "physics": [{"name": "hair", "bone": "root", "fps": 30, "mass": 4}],
  "animations": {"shake": {"physics": {
    "": {"wind": [{"time": 0, "value": 1}, {"time": 1, "value": 2}]},
    "hair": {"reset": [{"time": 0.5}]}
  }}}
}`
	sd, err := ReadJSON([]byte(input), Options{})
	if err != nil {
		t.Fatalf("Failed to read skeleton: %v", err)
	}
	pc := sd.PhysicsConstraints[0]
	if !near(pc.Step, 1.0/30) || pc.MassInverse != 0.25 {
		t.Errorf("Expected step 1/30 and inverse mass 0.25, got %v and %v", pc.Step, pc.MassInverse)
	}

	anim := sd.FindAnimation("shake")
	wind := findTimeline(anim, func(*timeline.PhysicsTimeline) bool { return true })
	if wind == nil || wind.Constraint != -1 || wind.Property != timeline.PhysicsWind {
		t.Fatalf("Expected global wind timeline, got %+v", wind)
	}
	reset := findTimeline(anim, func(*timeline.PhysicsResetTimeline) bool { return true })
	if reset == nil || reset.Constraint != 0 {
		t.Fatalf("Expected reset timeline on constraint 0, got %+v", reset)
	}

	out, err := WriteJSON(sd)
	if err != nil {
		t.Fatalf("Failed to write json: %v", err)
	}
	again, err := ReadJSON(out, Options{})
	if err != nil {
		t.Fatalf("Failed to read written json: %v", err)
	}
	wind = findTimeline(again.FindAnimation("shake"), func(*timeline.PhysicsTimeline) bool { return true })
	if wind == nil || wind.Constraint != -1 || wind.Value(1, 0) != 2 {
		t.Errorf("Expected global wind timeline to survive a round trip, got %+v", wind)
	}
}

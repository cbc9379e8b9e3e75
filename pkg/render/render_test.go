package render

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/pose"
	"github.com/decker502/spine2d/pkg/timeline"
)

const testAtlas = `page.png
size: 8, 8
filter: Nearest, Nearest
quad
bounds: 0, 0, 4, 2
turned
bounds: 4, 0, 4, 2
rotate: 90
blank
`

func approxVec(a, b mgl32.Vec2) bool {
	return math.Abs(float64(a.X()-b.X())) < 0.001 && math.Abs(float64(a.Y()-b.Y())) < 0.001
}

func region(slot int, name string) *model.Attachment {
	key := timeline.AttachmentKey{Slot: slot, Name: name}
	return &model.Attachment{
		Kind:        model.KindRegion,
		Name:        name,
		Key:         key,
		TimelineKey: key,
		Region:      &model.RegionAttachment{Path: name, ScaleX: 1, ScaleY: 1, Width: 4, Height: 2, Color: model.White},
	}
}

// newTestSkeleton builds root → hip (x 10) → cape (skin required) with one
// slot per draw outcome.
func newTestSkeleton(t *testing.T) (*pose.Skeleton, *atlas.Atlas) {
	t.Helper()
	sd := model.NewSkeletonData()
	hip := model.NewBoneData(1, "hip", 0)
	hip.X = 10
	cape := model.NewBoneData(2, "cape", 1)
	cape.SkinRequired = true
	sd.Bones = []*model.BoneData{model.NewBoneData(0, "root", -1), hip, cape}

	names := []struct {
		slot, bone int
		attachment string
	}{
		{0, 0, "quad"},
		{1, 1, "turned"},
		{2, 0, "ghost"},
		{3, 0, "blank"},
		{4, 0, "mesh"},
		{5, 0, ""},
		{6, 2, "quad"},
	}
	skin := model.NewSkin("default")
	for _, n := range names {
		s := model.NewSlotData(n.slot, n.attachment, n.bone)
		s.AttachmentName = n.attachment
		sd.Slots = append(sd.Slots, s)
		if n.attachment != "" {
			skin.SetAttachment(n.slot, n.attachment, region(n.slot, n.attachment))
		}
	}
	sd.Slots[5].Name = "empty"
	sd.Slots[6].Name = "cape"
	mesh := skin.Attachment(4, "mesh")
	mesh.Kind = model.KindMesh
	mesh.Mesh = &model.MeshAttachment{Path: "quad", Color: model.White}
	mesh.Region = nil
	sd.Skins = []*model.Skin{skin}
	sd.DefaultSkin = skin

	a, err := atlas.Parse(strings.NewReader(testAtlas))
	if err != nil {
		t.Fatalf("Failed to parse atlas: %v", err)
	}
	sk := pose.NewSkeleton(sd)
	sk.UpdateWorldTransform()
	return sk, a
}

func TestBuildDrawList_SkipReasons(t *testing.T) {
	sk, a := newTestSkeleton(t)
	cmds := BuildDrawList(sk, a)
	if len(cmds) != len(sk.DrawOrder) {
		t.Fatalf("Expected one command per slot, got %d", len(cmds))
	}

	want := []SkipReason{Drawn, Drawn, SkipMissingRegion, SkipEmptyRegion, SkipNotRegion, SkipNoAttachment, SkipInactiveBone}
	for i, w := range want {
		if cmds[i].Skip != w {
			t.Errorf("Slot %s: expected %v, got %v", cmds[i].Slot.Data.Name, w, cmds[i].Skip)
		}
	}
	if cmds[3].Region == nil || !cmds[3].Region.Empty() {
		t.Error("Expected the empty region to be resolved")
	}
}

func TestBuildDrawList_IndexedSequence(t *testing.T) {
	a, err := atlas.Parse(strings.NewReader(`page.png
size: 8, 8
blink
bounds: 0, 0, 4, 2
index: 0
blink
bounds: 4, 0, 4, 2
index: 1
`))
	if err != nil {
		t.Fatalf("Failed to parse atlas: %v", err)
	}
	sd := model.NewSkeletonData()
	sd.Bones = []*model.BoneData{model.NewBoneData(0, "root", -1)}
	slot := model.NewSlotData(0, "eyes", 0)
	slot.AttachmentName = "blink"
	sd.Slots = []*model.SlotData{slot}
	att := region(0, "blink")
	att.Region.Sequence = &model.Sequence{Count: 2}
	skin := model.NewSkin("default")
	skin.SetAttachment(0, "blink", att)
	sd.Skins = []*model.Skin{skin}
	sd.DefaultSkin = skin

	sk := pose.NewSkeleton(sd)
	sk.UpdateWorldTransform()

	tests := []struct {
		name  string
		index int
		wantX int
	}{
		{"setup frame", -1, 0},
		{"second frame", 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk.Slots[0].SequenceIndex = tt.index
			cmd := BuildDrawList(sk, a)[0]
			if cmd.Skip != Drawn || cmd.Region.X != tt.wantX {
				t.Errorf("Expected region at x=%d, got %v (%+v)", tt.wantX, cmd.Skip, cmd.Region)
			}
		})
	}
}

func TestBuildDrawList_NilAtlas(t *testing.T) {
	sk, _ := newTestSkeleton(t)
	for _, cmd := range BuildDrawList(sk, nil) {
		if cmd.Visible() {
			t.Errorf("Expected slot %s to be skipped without an atlas", cmd.Slot.Data.Name)
		}
	}
}

func TestDrawCommand_Corners(t *testing.T) {
	sk, a := newTestSkeleton(t)
	cmds := BuildDrawList(sk, a)

	tests := []struct {
		name string
		cmd  DrawCommand
		want [4]mgl32.Vec2
	}{
		{"upright", cmds[0], [4]mgl32.Vec2{{-2, 1}, {2, 1}, {2, -1}, {-2, -1}}},
		// The packed rectangle is 2 wide and 4 high; its top-left holds the
		// image's top-right corner.
		{"rotated", cmds[1], [4]mgl32.Vec2{{12, 1}, {12, -1}, {8, -1}, {8, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.Corners()
			for i := range got {
				if !approxVec(got[i], tt.want[i]) {
					t.Errorf("Corner %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestRegionMatrix(t *testing.T) {
	tests := []struct {
		name   string
		ra     model.RegionAttachment
		region atlas.Region
		pixel  mgl32.Vec2
		want   mgl32.Vec2
	}{
		{
			name:   "centered",
			ra:     model.RegionAttachment{ScaleX: 1, ScaleY: 1, Width: 4, Height: 2},
			region: atlas.Region{Width: 4, Height: 2, OriginalWidth: 4, OriginalHeight: 2},
			pixel:  mgl32.Vec2{0, 0},
			want:   mgl32.Vec2{-2, 1},
		},
		{
			name:   "rotated and offset attachment",
			ra:     model.RegionAttachment{X: 5, Rotation: 90, ScaleX: 1, ScaleY: 1, Width: 4, Height: 2},
			region: atlas.Region{Width: 4, Height: 2, OriginalWidth: 4, OriginalHeight: 2},
			pixel:  mgl32.Vec2{0, 0},
			want:   mgl32.Vec2{4, -2},
		},
		{
			name:   "stripped whitespace",
			ra:     model.RegionAttachment{ScaleX: 1, ScaleY: 1, Width: 8, Height: 4},
			region: atlas.Region{Width: 4, Height: 2, OffsetY: 1, OriginalWidth: 8, OriginalHeight: 4},
			pixel:  mgl32.Vec2{0, 0},
			want:   mgl32.Vec2{-4, 1},
		},
		{
			name:   "attachment scale",
			ra:     model.RegionAttachment{ScaleX: 2, ScaleY: -1, Width: 4, Height: 2},
			region: atlas.Region{Width: 4, Height: 2, OriginalWidth: 4, OriginalHeight: 2},
			pixel:  mgl32.Vec2{4, 2},
			want:   mgl32.Vec2{4, 1},
		},
		{
			name:   "missing original size",
			ra:     model.RegionAttachment{ScaleX: 1, ScaleY: 1, Width: 8, Height: 4},
			region: atlas.Region{Width: 4, Height: 2},
			pixel:  mgl32.Vec2{4, 0},
			want:   mgl32.Vec2{4, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transformPoint(RegionMatrix(&tt.ra, &tt.region), tt.pixel)
			if !approxVec(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBuildDrawList_TintAndBlend(t *testing.T) {
	sk, a := newTestSkeleton(t)
	sk.Color = model.Color{R: 1, G: 1, B: 1, A: 0.5}
	sk.Slots[0].Color = model.Color{R: 1, G: 0.5, B: 0, A: 1}
	sk.Slots[0].Data.Blend = model.BlendAdditive

	cmd := BuildDrawList(sk, a)[0]
	want := model.Color{R: 1, G: 0.5, B: 0, A: 0.5}
	if cmd.Tint != want {
		t.Errorf("Expected tint %+v, got %+v", want, cmd.Tint)
	}
	if cmd.Blend != model.BlendAdditive {
		t.Errorf("Expected additive blend, got %v", cmd.Blend)
	}
}

func TestBuildDrawList_FollowsDrawOrder(t *testing.T) {
	sk, a := newTestSkeleton(t)
	sk.DrawOrder[0], sk.DrawOrder[1] = sk.DrawOrder[1], sk.DrawOrder[0]

	cmds := AppendDrawList(make([]DrawCommand, 0, 8), sk, a)
	if cmds[0].Slot.Data.Name != "turned" || cmds[1].Slot.Data.Name != "quad" {
		t.Errorf("Expected draw order turned, quad, got %s, %s", cmds[0].Slot.Data.Name, cmds[1].Slot.Data.Name)
	}
}

func TestBoneMatrices(t *testing.T) {
	sk, _ := newTestSkeleton(t)
	m := BoneMatrices(sk)
	if len(m) != 3 {
		t.Fatalf("Expected 3 matrices, got %d", len(m))
	}
	if got := transformPoint(m[1], mgl32.Vec2{1, 0}); !approxVec(got, mgl32.Vec2{11, 0}) {
		t.Errorf("Expected hip to map (1, 0) to (11, 0), got %v", got)
	}
}

func TestView(t *testing.T) {
	tests := []struct {
		name string
		view View
		in   mgl32.Vec2
		want mgl32.Vec2
	}{
		{"centered", CenteredView(100, 50), mgl32.Vec2{10, 10}, mgl32.Vec2{60, 15}},
		{"zoomed", View{X: 0, Y: 100, Zoom: 2}, mgl32.Vec2{10, 10}, mgl32.Vec2{20, 80}},
		{"zero zoom", View{}, mgl32.Vec2{3, 4}, mgl32.Vec2{3, -4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.view.ToScreen(tt.in); !approxVec(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGeoM(t *testing.T) {
	m := CenteredView(100, 50).Matrix().Mul3(mgl32.Translate2D(3, 4))
	g := GeoM(m)
	x, y := g.Apply(1, 2)
	want := transformPoint(m, mgl32.Vec2{1, 2})
	if float32(x) != want.X() || float32(y) != want.Y() {
		t.Errorf("Expected (%v, %v), got (%v, %v)", want.X(), want.Y(), x, y)
	}
}

func TestEbitenBlend(t *testing.T) {
	if EbitenBlend(model.BlendNormal) != ebiten.BlendSourceOver {
		t.Error("Expected source-over for normal")
	}
	if EbitenBlend(model.BlendAdditive) != ebiten.BlendLighter {
		t.Error("Expected lighter for additive")
	}
	if EbitenBlend(model.BlendMode(99)) != ebiten.BlendSourceOver {
		t.Error("Expected source-over for unknown modes")
	}
	if b := EbitenBlend(model.BlendMultiply); b.BlendFactorSourceRGB != ebiten.BlendFactorDestinationColor {
		t.Errorf("Unexpected multiply blend: %+v", b)
	}
}

func newPage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}
	return img
}

func TestRasterizer_Draw(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	tests := []struct {
		name  string
		setup func(sk *pose.Skeleton)
		bg    color.Color
		want  color.RGBA
	}{
		{"normal", func(*pose.Skeleton) {}, color.Transparent, color.RGBA{255, 0, 0, 255}},
		{"half alpha", func(sk *pose.Skeleton) { sk.Color.A = 0.5 }, color.Transparent, color.RGBA{128, 0, 0, 128}},
		{"additive", func(sk *pose.Skeleton) { sk.Slots[0].Data.Blend = model.BlendAdditive }, blue, color.RGBA{255, 0, 255, 255}},
		{"multiply", func(sk *pose.Skeleton) { sk.Slots[0].Data.Blend = model.BlendMultiply }, blue, color.RGBA{0, 0, 0, 255}},
		{"screen", func(sk *pose.Skeleton) { sk.Slots[0].Data.Blend = model.BlendScreen }, blue, color.RGBA{255, 0, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk, a := newTestSkeleton(t)
			tt.setup(sk)

			r := NewRasterizer()
			r.Background = tt.bg
			r.SetPage(a.Pages[0], newPage())
			dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
			r.Clear(dst)
			r.Draw(dst, BuildDrawList(sk, a), CenteredView(8, 8))

			// The quad covers x 2..6 and y 3..5.
			if got := dst.RGBAAt(4, 4); got != tt.want {
				t.Errorf("Expected %v inside the quad, got %v", tt.want, got)
			}
			bgR, bgG, bgB, bgA := tt.bg.RGBA()
			outside := color.RGBA{uint8(bgR >> 8), uint8(bgG >> 8), uint8(bgB >> 8), uint8(bgA >> 8)}
			if got := dst.RGBAAt(0, 0); got != outside {
				t.Errorf("Expected background %v outside the quad, got %v", outside, got)
			}
		})
	}
}

func TestRasterizer_MissingPage(t *testing.T) {
	sk, a := newTestSkeleton(t)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	NewRasterizer().Draw(dst, BuildDrawList(sk, a), CenteredView(8, 8))
	if got := dst.RGBAAt(4, 4); got.A != 0 {
		t.Errorf("Expected nothing drawn without a page image, got %v", got)
	}
}

func TestSkipReason_String(t *testing.T) {
	if SkipMissingRegion.String() != "missing region" || SkipReason(42).String() != "unknown" {
		t.Error("Unexpected skip reason names")
	}
}

// Package render turns a posed skeleton into backend independent draw
// commands and draws them with ebiten or a software rasterizer.
//
// A DrawCommand carries one textured quad: the atlas region to sample and the
// affine transform from the region's packed page rectangle to world space.
// World space is y-up; View maps it to y-down screen pixels.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/pose"
)

// SkipReason explains why a slot produced no quad.
type SkipReason int

const (
	Drawn SkipReason = iota
	SkipNoAttachment
	SkipNotRegion
	SkipMissingRegion
	SkipEmptyRegion
	SkipInactiveBone
	SkipHidden
)

var skipNames = []string{"drawn", "no attachment", "not a region", "missing region", "empty region", "inactive bone", "hidden"}

func (r SkipReason) String() string {
	if r < 0 || int(r) >= len(skipNames) {
		return "unknown"
	}
	return skipNames[r]
}

// DrawCommand is the render output of one slot in draw order.
type DrawCommand struct {
	Slot   *pose.Slot
	Region *atlas.Region

	// Transform maps pixel coordinates inside Region.Bounds(), with the
	// origin at the rectangle's top-left corner, to world space.
	Transform mgl32.Mat3

	// Tint is the skeleton, slot and attachment colors multiplied together.
	Tint  model.Color
	Blend model.BlendMode

	// Skip is Drawn for commands a backend should draw.
	Skip SkipReason
}

// Visible reports whether the command should be drawn.
func (c *DrawCommand) Visible() bool {
	return c.Skip == Drawn
}

// BuildDrawList returns one command per slot in draw order. The skeleton's
// world transforms must be current.
func BuildDrawList(sk *pose.Skeleton, a *atlas.Atlas) []DrawCommand {
	return AppendDrawList(nil, sk, a)
}

// AppendDrawList appends the commands of sk to dst and returns the extended
// slice, so callers can reuse one buffer across frames.
func AppendDrawList(dst []DrawCommand, sk *pose.Skeleton, a *atlas.Atlas) []DrawCommand {
	for _, slot := range sk.DrawOrder {
		cmd := DrawCommand{Slot: slot, Blend: slot.Data.Blend}
		cmd.Skip = resolve(&cmd, sk, a)
		dst = append(dst, cmd)
	}
	return dst
}

func resolve(cmd *DrawCommand, sk *pose.Skeleton, a *atlas.Atlas) SkipReason {
	slot := cmd.Slot
	if !slot.Bone.Active {
		return SkipInactiveBone
	}
	if !slot.Data.Visible {
		return SkipHidden
	}
	att := slot.Attachment
	if att == nil {
		return SkipNoAttachment
	}
	if att.Kind != model.KindRegion {
		return SkipNotRegion
	}
	if a == nil {
		return SkipMissingRegion
	}
	region := a.FindRegion(slot.RegionPath())
	if region == nil {
		region = sequenceRegion(a, slot)
	}
	if region == nil {
		return SkipMissingRegion
	}
	cmd.Region = region
	if region.Empty() {
		return SkipEmptyRegion
	}

	ra := att.Region
	cmd.Tint = mulColor(mulColor(sk.Color, slot.Color), ra.Color)
	cmd.Transform = slot.Bone.WorldMatrix().Mul3(RegionMatrix(ra, region))
	return Drawn
}

// sequenceRegion finds a sequence frame packed as one region name with
// "index:" entries instead of numbered region names.
func sequenceRegion(a *atlas.Atlas, slot *pose.Slot) *atlas.Region {
	seq := slot.Attachment.Sequence()
	if seq == nil {
		return nil
	}
	index := slot.SequenceIndex
	if index < 0 {
		index = seq.SetupIndex
	}
	return a.FindRegionIndex(slot.Attachment.Region.Path, seq.Start+index)
}

// RegionMatrix maps pixels of the packed region rectangle to the attachment's
// bone space. The region image is centered on the attachment, scaled to its
// width and height, then rotated and offset as the attachment specifies.
// Whitespace stripped by the packer is restored from the region offsets.
func RegionMatrix(ra *model.RegionAttachment, r *atlas.Region) mgl32.Mat3 {
	origW, origH := float32(r.OriginalWidth), float32(r.OriginalHeight)
	if origW == 0 || origH == 0 {
		origW, origH = float32(r.Width), float32(r.Height)
	}
	sx := ra.Width / origW * ra.ScaleX
	sy := ra.Height / origH * ra.ScaleY

	// Image pixels are y-down; offsets are measured from the bottom-left.
	ox := float32(r.OffsetX) - origW/2
	oy := float32(r.OffsetY) + float32(r.Height) - origH/2

	return mgl32.Translate2D(ra.X, ra.Y).
		Mul3(mgl32.HomogRotate2D(ra.Rotation * math.Pi / 180)).
		Mul3(mgl32.Scale2D(sx, sy)).
		Mul3(mgl32.Translate2D(ox, oy)).
		Mul3(mgl32.Scale2D(1, -1)).
		Mul3(unpackMatrix(r))
}

// unpackMatrix maps packed page pixels to pixels of the upright region image.
func unpackMatrix(r *atlas.Region) mgl32.Mat3 {
	w, h := float32(r.Width), float32(r.Height)
	switch r.Degrees {
	case 90:
		return mgl32.Mat3{0, 1, 0, -1, 0, 0, w, 0, 1}
	case 180:
		return mgl32.Mat3{-1, 0, 0, 0, -1, 0, w, h, 1}
	case 270:
		return mgl32.Mat3{0, -1, 0, 1, 0, 0, 0, h, 1}
	}
	return mgl32.Ident3()
}

// BoneMatrices returns the world matrix of every bone, indexed like
// sk.Bones.
func BoneMatrices(sk *pose.Skeleton) []mgl32.Mat3 {
	out := make([]mgl32.Mat3, len(sk.Bones))
	for i, b := range sk.Bones {
		out[i] = b.WorldMatrix()
	}
	return out
}

// Corners returns the four corners of the command's quad in world space,
// clockwise from the packed rectangle's top-left.
func (c *DrawCommand) Corners() [4]mgl32.Vec2 {
	b := c.Region.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	var out [4]mgl32.Vec2
	for i, p := range [4]mgl32.Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}} {
		out[i] = transformPoint(c.Transform, p)
	}
	return out
}

func transformPoint(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	return m.Mul3x1(p.Vec3(1)).Vec2()
}

func mulColor(a, b model.Color) model.Color {
	return model.Color{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B, A: a.A * b.A}
}

// View maps y-up world coordinates to y-down screen pixels: world (0, 0)
// lands on (X, Y) and one world unit spans Zoom pixels.
type View struct {
	X, Y float32
	Zoom float32
}

// CenteredView places the world origin at the center of a w×h target.
func CenteredView(w, h int) View {
	return View{X: float32(w) / 2, Y: float32(h) / 2, Zoom: 1}
}

// Matrix returns the world to screen transform.
func (v View) Matrix() mgl32.Mat3 {
	zoom := v.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return mgl32.Translate2D(v.X, v.Y).Mul3(mgl32.Scale2D(zoom, -zoom))
}

// ToScreen maps a world point to screen pixels.
func (v View) ToScreen(p mgl32.Vec2) mgl32.Vec2 {
	return transformPoint(v.Matrix(), p)
}

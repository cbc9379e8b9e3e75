package render

import (
	"image"
	"image/color"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/pkg/model"
	"github.com/decker502/spine2d/pkg/pose"
)

// blendModes maps slot blend modes to ebiten blends for premultiplied
// textures.
var blendModes = map[model.BlendMode]ebiten.Blend{
	model.BlendNormal:   ebiten.BlendSourceOver,
	model.BlendAdditive: ebiten.BlendLighter,
	model.BlendMultiply: {
		BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
		BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
		BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
		BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	},
	model.BlendScreen: {
		BlendFactorSourceRGB:        ebiten.BlendFactorOne,
		BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
		BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
		BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	},
}

// EbitenBlend returns the ebiten blend for mode. Unknown modes draw normally.
func EbitenBlend(mode model.BlendMode) ebiten.Blend {
	if b, ok := blendModes[mode]; ok {
		return b
	}
	return ebiten.BlendSourceOver
}

// GeoM converts an affine mgl32 matrix to an ebiten GeoM.
func GeoM(m mgl32.Mat3) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, float64(m[0]))
	g.SetElement(0, 1, float64(m[3]))
	g.SetElement(0, 2, float64(m[6]))
	g.SetElement(1, 0, float64(m[1]))
	g.SetElement(1, 1, float64(m[4]))
	g.SetElement(1, 2, float64(m[7]))
	return g
}

// EbitenDrawer draws command lists onto ebiten images. Page textures are
// registered once with SetPage; region sub-images are cached.
type EbitenDrawer struct {
	pages   map[*atlas.Page]*ebiten.Image
	regions map[*atlas.Region]*ebiten.Image
	missing map[*atlas.Page]bool
}

func NewEbitenDrawer() *EbitenDrawer {
	return &EbitenDrawer{
		pages:   make(map[*atlas.Page]*ebiten.Image),
		regions: make(map[*atlas.Region]*ebiten.Image),
		missing: make(map[*atlas.Page]bool),
	}
}

// SetPage registers the texture of page. img is uploaded to the GPU.
func (d *EbitenDrawer) SetPage(page *atlas.Page, img image.Image) {
	eimg, ok := img.(*ebiten.Image)
	if !ok {
		eimg = ebiten.NewImageFromImage(img)
	}
	d.pages[page] = eimg
	for r := range d.regions {
		if r.Page == page {
			delete(d.regions, r)
		}
	}
	delete(d.missing, page)
}

func (d *EbitenDrawer) regionImage(r *atlas.Region) *ebiten.Image {
	if img, ok := d.regions[r]; ok {
		return img
	}
	page, ok := d.pages[r.Page]
	if !ok {
		if !d.missing[r.Page] {
			d.missing[r.Page] = true
			log.Printf("[Render] Warning: no texture for atlas page '%s'", r.Page.Name)
		}
		return nil
	}
	img := page.SubImage(r.Bounds()).(*ebiten.Image)
	d.regions[r] = img
	return img
}

// Draw draws every visible command onto dst through view.
func (d *EbitenDrawer) Draw(dst *ebiten.Image, cmds []DrawCommand, view View) {
	vm := view.Matrix()
	for i := range cmds {
		cmd := &cmds[i]
		if !cmd.Visible() || cmd.Tint.A <= 0 {
			continue
		}
		img := d.regionImage(cmd.Region)
		if img == nil {
			continue
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM = GeoM(vm.Mul3(cmd.Transform))
		t := cmd.Tint
		op.ColorScale.Scale(t.R*t.A, t.G*t.A, t.B*t.A, t.A)
		op.Blend = EbitenBlend(cmd.Blend)
		if cmd.Region.Page.MinFilter == "Nearest" {
			op.Filter = ebiten.FilterNearest
		} else {
			op.Filter = ebiten.FilterLinear
		}
		dst.DrawImage(img, op)
	}
}

var boneColor = color.RGBA{0xff, 0x80, 0x20, 0xff}

// DrawBones draws each active bone as a line along its X axis with a dot at
// its origin.
func DrawBones(dst *ebiten.Image, sk *pose.Skeleton, view View) {
	vm := view.Matrix()
	for i, m := range BoneMatrices(sk) {
		b := sk.Bones[i]
		if !b.Active {
			continue
		}
		sm := vm.Mul3(m)
		origin := transformPoint(sm, mgl32.Vec2{})
		tip := transformPoint(sm, mgl32.Vec2{b.Data.Length, 0})
		vector.StrokeLine(dst, origin.X(), origin.Y(), tip.X(), tip.Y(), 2, boneColor, true)
		vector.DrawFilledCircle(dst, origin.X(), origin.Y(), 3, boneColor, true)
	}
}

package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/decker502/spine2d/internal/atlas"
	"github.com/decker502/spine2d/pkg/model"
)

// Rasterizer draws command lists onto an RGBA image on the CPU. It is used
// for headless rendering where no GPU context exists.
type Rasterizer struct {
	pages map[*atlas.Page]image.Image

	// Background fills the target in Clear.
	Background color.Color
}

func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		pages:      make(map[*atlas.Page]image.Image),
		Background: color.Transparent,
	}
}

// SetPage registers the decoded image of page. PNG decoding yields
// straight alpha; for premultiplied pages the pixels are reinterpreted so
// they are not multiplied twice.
func (r *Rasterizer) SetPage(page *atlas.Page, img image.Image) {
	if nrgba, ok := img.(*image.NRGBA); ok && page.PMA {
		img = &image.RGBA{Pix: nrgba.Pix, Stride: nrgba.Stride, Rect: nrgba.Rect}
	}
	r.pages[page] = img
}

// Clear fills dst with the background color.
func (r *Rasterizer) Clear(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
}

// Draw composites every visible command onto dst through view. Commands
// whose page has no registered image are skipped.
func (r *Rasterizer) Draw(dst *image.RGBA, cmds []DrawCommand, view View) {
	vm := view.Matrix()
	for i := range cmds {
		cmd := &cmds[i]
		if !cmd.Visible() || cmd.Tint.A <= 0 {
			continue
		}
		src, ok := r.pages[cmd.Region.Page]
		if !ok {
			continue
		}
		r.drawQuad(dst, src, cmd, vm.Mul3(cmd.Transform))
	}
}

func (r *Rasterizer) drawQuad(dst *image.RGBA, src image.Image, cmd *DrawCommand, m mgl32.Mat3) {
	sr := cmd.Region.Bounds()
	// Transform takes absolute source coordinates.
	m = m.Mul3(mgl32.Translate2D(float32(-sr.Min.X), float32(-sr.Min.Y)))

	area := screenBounds(m, sr).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	layer := image.NewRGBA(area)
	s2d := f64.Aff3{
		float64(m[0]), float64(m[3]), float64(m[6]),
		float64(m[1]), float64(m[4]), float64(m[7]),
	}
	var interp xdraw.Transformer = xdraw.BiLinear
	if cmd.Region.Page.MagFilter == "Nearest" {
		interp = xdraw.NearestNeighbor
	}
	interp.Transform(layer, s2d, src, sr, xdraw.Src, nil)

	composite(dst, layer, cmd.Tint, cmd.Blend)
}

// screenBounds returns the pixel rectangle covering rect transformed by m.
func screenBounds(m mgl32.Mat3, rect image.Rectangle) image.Rectangle {
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, p := range []image.Point{rect.Min, {rect.Max.X, rect.Min.Y}, rect.Max, {rect.Min.X, rect.Max.Y}} {
		q := transformPoint(m, mgl32.Vec2{float32(p.X), float32(p.Y)})
		minX, maxX = min(minX, q.X()), max(maxX, q.X())
		minY, maxY = min(minY, q.Y()), max(maxY, q.Y())
	}
	return image.Rect(
		int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY))),
	)
}

// composite blends the premultiplied layer onto dst, scaling it by tint
// first.
func composite(dst, layer *image.RGBA, tint model.Color, mode model.BlendMode) {
	b := layer.Bounds()
	tr, tg, tb, ta := tint.R*tint.A, tint.G*tint.A, tint.B*tint.A, tint.A
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := layer.PixOffset(x, y)
			s := layer.Pix[si : si+4 : si+4]
			if s[3] == 0 && mode != model.BlendAdditive {
				continue
			}
			sr, sg, sb, sa := float32(s[0])/255, float32(s[1])/255, float32(s[2])/255, float32(s[3])/255
			sr, sg, sb, sa = sr*tr, sg*tg, sb*tb, sa*ta

			di := dst.PixOffset(x, y)
			d := dst.Pix[di : di+4 : di+4]
			dr, dg, db, da := float32(d[0])/255, float32(d[1])/255, float32(d[2])/255, float32(d[3])/255

			switch mode {
			case model.BlendAdditive:
				dr, dg, db, da = sr+dr, sg+dg, sb+db, sa+da
			case model.BlendMultiply:
				dr = sr*dr + dr*(1-sa)
				dg = sg*dg + dg*(1-sa)
				db = sb*db + db*(1-sa)
				da = sa*da + da*(1-sa)
			case model.BlendScreen:
				dr = sr + dr*(1-sr)
				dg = sg + dg*(1-sg)
				db = sb + db*(1-sb)
				da = sa + da*(1-sa)
			default:
				dr = sr + dr*(1-sa)
				dg = sg + dg*(1-sa)
				db = sb + db*(1-sa)
				da = sa + da*(1-sa)
			}
			d[0], d[1], d[2], d[3] = unit8(dr), unit8(dg), unit8(db), unit8(da)
		}
	}
}

func unit8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

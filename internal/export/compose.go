package export

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// drawCover paints src onto dst scaled to fill the whole frame while
// preserving aspect ratio: the image is center-cropped, never letterboxed,
// and anything outside the crop stays black.
func drawCover(dst *image.RGBA, src image.Image) {
	fillBlack(dst)

	b := dst.Bounds()
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}

	sx := float64(b.Dx()) / float64(sb.Dx())
	sy := float64(b.Dy()) / float64(sb.Dy())
	s := sx
	if sy > s {
		s = sy
	}

	nw := int(float64(sb.Dx())*s + 0.5)
	nh := int(float64(sb.Dy())*s + 0.5)
	dx := (b.Dx() - nw) / 2
	dy := (b.Dy() - nh) / 2

	target := image.Rect(b.Min.X+dx, b.Min.Y+dy, b.Min.X+dx+nw, b.Min.Y+dy+nh)
	xdraw.ApproxBiLinear.Scale(dst, target, src, sb, xdraw.Src, nil)
}

func fillBlack(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
}

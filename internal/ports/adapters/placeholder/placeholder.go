package placeholder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	width  = 640
	height = 360
	pad    = 18
	radius = 12
)

var (
	background = color.RGBA{R: 0x0f, G: 0x0f, B: 0x0f, A: 0xff}
	borderGrey = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	titleWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	subGrey    = color.RGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff}
)

// Renderer synthesizes deterministic stand-in scene images: a dark canvas
// with a rounded border, a title line and a word-wrapped subtitle.
type Renderer struct {
	face font.Face
}

func New() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// Render returns the placeholder as an encoded PNG. Identical inputs yield
// identical bytes.
func (r *Renderer) Render(title, subtitle string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = background.R
		img.Pix[i+1] = background.G
		img.Pix[i+2] = background.B
		img.Pix[i+3] = 0xff
	}

	strokeRoundedRect(img, pad, pad, width-pad*2, height-pad*2, radius)

	r.drawText(img, title, 26, 50, titleWhite)
	r.wrapText(img, subtitle, 26, 80, width-52, 20, subGrey)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawText(img *image.RGBA, text string, x, y int, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrapText lays the text out greedily, breaking a line as soon as the next
// word would overflow maxWidth.
func (r *Renderer) wrapText(img *image.RGBA, text string, x, y, maxWidth, lineHeight int, col color.RGBA) {
	words := strings.Fields(text)
	var line []string
	for _, w := range words {
		test := strings.Join(append(line, w), " ")
		if font.MeasureString(r.face, test).Ceil() > maxWidth && len(line) > 0 {
			r.drawText(img, strings.Join(line, " "), x, y, col)
			line = line[:0]
			y += lineHeight
		}
		line = append(line, w)
	}
	if len(line) > 0 {
		r.drawText(img, strings.Join(line, " "), x, y, col)
	}
}

// strokeRoundedRect draws a 2px rounded-rectangle outline using the signed
// distance to the rounded boundary.
func strokeRoundedRect(img *image.RGBA, x, y, w, h, r int) {
	cx := float64(x) + float64(w)/2
	cy := float64(y) + float64(h)/2
	hx := float64(w)/2 - float64(r)
	hy := float64(h)/2 - float64(r)

	for py := y - 2; py <= y+h+2; py++ {
		for px := x - 2; px <= x+w+2; px++ {
			dx := math.Max(math.Abs(float64(px)-cx)-hx, 0)
			dy := math.Max(math.Abs(float64(py)-cy)-hy, 0)
			d := math.Hypot(dx, dy) - float64(r)
			if math.Abs(d) <= 1 {
				img.SetRGBA(px, py, borderGrey)
			}
		}
	}
}

package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/box-augment/internal/annotation"
)

// DrawAnnotations returns a copy of img with every annotation outlined in
// its class colour and labelled with its class id. Used to eyeball generated
// samples; the input image is not modified.
func DrawAnnotations(img image.Image, set *annotation.Set, palette Palette) *image.NRGBA {
	result := imaging.Clone(img)
	labelColor := color.NRGBA{255, 255, 255, 255}

	for _, a := range set.Annotations {
		c, ok := palette.Color(a.ClassID)
		if !ok {
			c = color.NRGBA{0, 255, 0, 255}
		}
		r := a.Rect().Image()
		drawOutline(result, r, c)
		drawLabel(result, r.Min.X+2, r.Min.Y+2, strconv.Itoa(a.ClassID), labelColor, c)
	}
	return result
}

// drawOutline draws the one-pixel border of r, clipped to img.
func drawOutline(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(bounds) {
			img.SetNRGBA(x, y, c)
		}
	}

	for x := r.Min.X; x <= r.Max.X; x++ {
		set(x, r.Min.Y)
		set(x, r.Max.Y)
	}
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		set(r.Min.X, y)
		set(r.Max.X, y)
	}
}

// labelFace is the bitmap face used for class id labels.
var labelFace font.Face = basicfont.Face7x13

// drawLabel draws text with its top-left corner at (x, y) over a filled
// background box.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	m := labelFace.Metrics()
	width := font.MeasureString(labelFace, text).Ceil()
	height := (m.Ascent + m.Descent).Ceil()

	box := image.Rect(x-1, y-1, x+width+1, y+height).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: labelFace,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + m.Ascent},
	}
	d.DrawString(text)
}

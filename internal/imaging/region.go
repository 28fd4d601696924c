package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/geometry"
)

// fillColor paints the parts of a padded crop that fall outside the source.
var fillColor = color.NRGBA{0, 0, 0, 255}

// Region is an annotated box cut out of a source image together with a
// border of surrounding context.
//
// Width and Height are the size of the annotated box itself, without the
// border. Image holds (Width+2*Border)×(Height+2*Border) pixels as cropped,
// and stays proportional after shrinking.
type Region struct {
	Image   *image.NRGBA
	Width   int
	Height  int
	Border  int
	Shrinks int // number of times Shrink succeeded
}

// Dim returns the size of the annotated box.
func (r *Region) Dim() geometry.Dim {
	return geometry.Dim{W: r.Width, H: r.Height}
}

// Shrink scales the box, the border and the pixel buffer by factor,
// truncating to whole pixels. It fails without modifying r when any
// dimension would reach zero.
func (r *Region) Shrink(factor float64) error {
	b := r.Image.Bounds()
	w := int(float64(r.Width) * factor)
	h := int(float64(r.Height) * factor)
	iw := int(float64(b.Dx()) * factor)
	ih := int(float64(b.Dy()) * factor)
	if w <= 0 || h <= 0 || iw <= 0 || ih <= 0 {
		return fmt.Errorf("shrinking %dx%d region by %g collapses to %dx%d", r.Width, r.Height, factor, w, h)
	}

	r.Image = imaging.Resize(r.Image, iw, ih, imaging.Lanczos)
	r.Width, r.Height = w, h
	r.Border = int(float64(r.Border) * factor)
	r.Shrinks++
	return nil
}

// ExtractRegion crops the box described by a from img, padded by border
// pixels on every side: (left-border, top-border) to
// (left+width+border, top+height+border).
//
// Padding that falls outside img is filled with opaque black, so the region
// always measures (width+2*border)×(height+2*border).
func ExtractRegion(img image.Image, a annotation.Annotation, border int) (*Region, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if border < 0 {
		return nil, fmt.Errorf("border must not be negative, got %d", border)
	}

	bounds := img.Bounds()
	want := image.Rect(a.Left-border, a.Top-border, a.Left+a.Width+border, a.Top+a.Height+border)
	want = want.Add(bounds.Min)

	out := imaging.New(want.Dx(), want.Dy(), fillColor)
	if src := want.Intersect(bounds); !src.Empty() {
		out = imaging.Paste(out, imaging.Crop(img, src), src.Min.Sub(want.Min))
	}

	return &Region{
		Image:  out,
		Width:  a.Width,
		Height: a.Height,
		Border: border,
	}, nil
}

// ExtractRegions crops every annotation in set, in order, with the same
// border.
func ExtractRegions(img image.Image, set *annotation.Set, border int) ([]*Region, error) {
	regions := make([]*Region, len(set.Annotations))
	for i, a := range set.Annotations {
		r, err := ExtractRegion(img, a, border)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		regions[i] = r
	}
	return regions, nil
}

// SampleBorder draws a border width from a half-normal distribution: the
// absolute value of a normal sample with the given mean and standard
// deviation, truncated to whole pixels.
func SampleBorder(r *rand.Rand, mean, stddev float64) int {
	return int(math.Abs(r.NormFloat64()*stddev + mean))
}

package pipeline

import (
	"image"
	"image/color"
	"image/draw"
	"math/rand/v2"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/box-augment/internal/annotation"
	bximg "github.com/ironsheep/box-augment/internal/imaging"
)

// TintStage brightens every annotated box by adding its class colour,
// scaled by Magnitude/255, to the pixels underneath. The fill covers both
// corners of the box, so the right and bottom edges are tinted too. Classes
// outside Palette are left as they are.
type TintStage struct {
	Magnitude uint8
	Palette   bximg.Palette
}

// Name implements namer.
func (s TintStage) Name() string { return "tint" }

// Apply implements Stage.
func (s TintStage) Apply(_ *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	if s.Magnitude == 0 || len(set.Annotations) == 0 {
		return img, set, nil
	}

	base := imaging.Clone(img)
	layer := image.NewRGBA(base.Bounds())
	draw.Draw(layer, layer.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for _, a := range set.Annotations {
		c := s.Palette.Scaled(a.ClassID, s.Magnitude)
		fill := image.Rect(a.Left, a.Top, a.Left+a.Width+1, a.Top+a.Height+1).Intersect(layer.Bounds())
		draw.Draw(layer, fill, image.NewUniform(c), image.Point{}, draw.Src)
	}

	return blend.Add(base, layer), set, nil
}

package imaging

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/geometry"
)

// Composite pastes each region onto canvas at its placed rectangle and
// rewrites the matching annotation to the new location.
//
// regions, rects and set.Annotations are parallel. Each region's pixels are
// drawn with their top-left at (rect.X-Border, rect.Y-Border) so the box
// content lands exactly on rect; anything outside the canvas is clipped.
// Left/Top become rect.X/rect.Y and Width/Height become rect.W/rect.H,
// which differ from the originals only when the region was shrunk. Class
// ids and categories are left alone and ImageSize is set to the canvas.
//
// canvas and set are modified in place; canvas is also returned.
func Composite(canvas *image.NRGBA, regions []*Region, rects []geometry.Rect, set *annotation.Set) (*image.NRGBA, error) {
	if len(regions) != len(rects) || len(rects) != len(set.Annotations) {
		return nil, fmt.Errorf("composite: %d regions, %d rects and %d annotations must match",
			len(regions), len(rects), len(set.Annotations))
	}

	for i, rect := range rects {
		reg := regions[i]
		if reg.Dim() != rect.Dim() {
			return nil, fmt.Errorf("composite: region %d is %dx%d but placed as %dx%d",
				i, reg.Width, reg.Height, rect.W, rect.H)
		}

		origin := canvas.Bounds().Min.Add(image.Pt(rect.X-reg.Border, rect.Y-reg.Border))
		dst := image.Rectangle{Min: origin, Max: origin.Add(reg.Image.Bounds().Size())}
		draw.Draw(canvas, dst, reg.Image, reg.Image.Bounds().Min, draw.Src)

		a := &set.Annotations[i]
		a.Left = rect.X
		a.Top = rect.Y
		a.Width = rect.W
		a.Height = rect.H
	}

	b := canvas.Bounds()
	set.ImageSize.Width = b.Dx()
	set.ImageSize.Height = b.Dy()
	if set.ImageSize.Depth == 0 {
		set.ImageSize.Depth = 3
	}
	return canvas, nil
}
